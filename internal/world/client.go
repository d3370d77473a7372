// Package world provides clients for the remote world service: a server-streamed
// watch of entity changes and a unary push of entity mutations.
package world

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hydra/aware/internal/config"
	"github.com/hydra/aware/pkg/core"
)

// ErrUnknownTransport is returned by NewClient for an unsupported transport name.
var ErrUnknownTransport = errors.New("unknown world transport")

// EventStream is one open watch subscription.
type EventStream interface {
	// Recv blocks for the next change event. It returns io.EOF when the
	// server ends the stream and the context error after cancellation.
	Recv() (core.ChangeEvent, error)
	Close() error
}

// Client is the consumed world service boundary.
type Client interface {
	Watch(ctx context.Context) (EventStream, error)
	Push(ctx context.Context, changes []core.Entity) (core.PushResult, error)
	Close() error
}

// NewClient creates a world client for the configured transport.
func NewClient(cfg config.WorldConfig, logger *slog.Logger) (Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Transport {
	case "websocket", "":
		return NewWebsocketClient(cfg.URL, logger), nil
	case "grpc":
		return NewGRPCClient(cfg.GRPCTarget)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTransport, cfg.Transport)
	}
}
