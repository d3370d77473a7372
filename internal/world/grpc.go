package world

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/status"

	"github.com/hydra/aware/pkg/core"
)

// gRPC method names of the world service.
const (
	ServiceName         = "hydra.world.v1.WorldService"
	WatchEntitiesMethod = "/" + ServiceName + "/WatchEntities"
	PushMethod          = "/" + ServiceName + "/Push"
)

// CodecName is the content subtype used on the wire ("application/grpc+json").
const CodecName = "json"

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// jsonCodec carries plain Go structs as JSON so the service needs no
// generated stubs.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return CodecName }

// WatchRequest is the (empty) request of WatchEntities.
type WatchRequest struct{}

// PushRequest carries entity mutations.
type PushRequest struct {
	Changes []core.Entity `json:"changes"`
}

var watchStreamDesc = &grpc.StreamDesc{
	StreamName:    "WatchEntities",
	ServerStreams: true,
}

// GRPCClient is a world client over gRPC with a JSON codec.
type GRPCClient struct {
	conn *grpc.ClientConn
}

// NewGRPCClient creates a client for target. The connection is established
// lazily on the first call.
func NewGRPCClient(target string, opts ...grpc.DialOption) (*GRPCClient, error) {
	base := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	}
	conn, err := grpc.NewClient(target, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("grpc client for %s: %w", target, err)
	}
	return &GRPCClient{conn: conn}, nil
}

func (c *GRPCClient) Watch(ctx context.Context) (EventStream, error) {
	cs, err := c.conn.NewStream(ctx, watchStreamDesc, WatchEntitiesMethod)
	if err != nil {
		return nil, fmt.Errorf("open watch stream: %w", err)
	}
	if err := cs.SendMsg(&WatchRequest{}); err != nil {
		return nil, fmt.Errorf("send watch request: %w", err)
	}
	if err := cs.CloseSend(); err != nil {
		return nil, fmt.Errorf("close send: %w", err)
	}
	return &grpcStream{ctx: ctx, cs: cs}, nil
}

type grpcStream struct {
	ctx context.Context
	cs  grpc.ClientStream
}

func (s *grpcStream) Recv() (core.ChangeEvent, error) {
	var ev core.ChangeEvent
	err := s.cs.RecvMsg(&ev)
	switch {
	case err == nil:
		return ev, nil
	case errors.Is(err, io.EOF):
		return core.ChangeEvent{}, io.EOF
	case status.Code(err) == codes.Canceled && s.ctx.Err() != nil:
		return core.ChangeEvent{}, s.ctx.Err()
	default:
		return core.ChangeEvent{}, err
	}
}

// Close is a no-op; the stream is released by cancelling its context.
func (s *grpcStream) Close() error {
	return nil
}

func (c *GRPCClient) Push(ctx context.Context, changes []core.Entity) (core.PushResult, error) {
	var res core.PushResult
	if err := c.conn.Invoke(ctx, PushMethod, &PushRequest{Changes: changes}, &res); err != nil {
		return core.PushResult{}, fmt.Errorf("push: %w", err)
	}
	return res, nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}
