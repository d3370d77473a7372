package world

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/hydra/aware/internal/config"
	"github.com/hydra/aware/pkg/core"
)

var _ Client = (*GRPCClient)(nil)

func configFor(transport string) config.WorldConfig {
	return config.WorldConfig{Transport: transport, URL: "ws://localhost:1/world", GRPCTarget: "localhost:1"}
}

type grpcWorld struct {
	events  []core.ChangeEvent
	fail    bool // end the watch with Unavailable instead of OK
	hold    bool
	result  core.PushResult
	pushReq chan PushRequest
}

func startGRPCWorld(t *testing.T, w *grpcWorld) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := grpc.NewServer()
	srv.RegisterService(&grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*any)(nil),
		Methods: []grpc.MethodDesc{{
			MethodName: "Push",
			Handler: func(_ any, ctx context.Context, dec func(any) error, _ grpc.UnaryServerInterceptor) (any, error) {
				var req PushRequest
				if err := dec(&req); err != nil {
					return nil, err
				}
				if w.pushReq != nil {
					w.pushReq <- req
				}
				res := w.result
				return &res, nil
			},
		}},
		Streams: []grpc.StreamDesc{{
			StreamName:    "WatchEntities",
			ServerStreams: true,
			Handler: func(_ any, stream grpc.ServerStream) error {
				var req WatchRequest
				if err := stream.RecvMsg(&req); err != nil {
					return err
				}
				for i := range w.events {
					if err := stream.SendMsg(&w.events[i]); err != nil {
						return err
					}
				}
				if w.hold {
					<-stream.Context().Done()
					return stream.Context().Err()
				}
				if w.fail {
					return status.Error(codes.Unavailable, "world going away")
				}
				return nil
			},
		}},
	}, w)

	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)
	return lis.Addr().String()
}

func TestGRPC_Watch(t *testing.T) {
	addr := startGRPCWorld(t, &grpcWorld{events: []core.ChangeEvent{
		{Kind: core.ChangeUpdated, Entity: core.Entity{ID: "A", Geo: &core.Geo{Latitude: 1, Longitude: 2}}},
		{Kind: core.ChangeUnobserved, Entity: core.Entity{ID: "A"}},
	}})

	c, err := NewGRPCClient(addr)
	require.NoError(t, err)
	defer c.Close()

	stream, err := c.Watch(context.Background())
	require.NoError(t, err)

	ev, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, core.ChangeUpdated, ev.Kind)
	require.NotNil(t, ev.Entity.Geo)
	assert.Equal(t, 2.0, ev.Entity.Geo.Longitude)

	ev, err = stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, core.ChangeUnobserved, ev.Kind)

	_, err = stream.Recv()
	assert.ErrorIs(t, err, io.EOF)
	assert.NoError(t, stream.Close())
}

func TestGRPC_WatchFailure(t *testing.T) {
	addr := startGRPCWorld(t, &grpcWorld{fail: true})
	c, err := NewGRPCClient(addr)
	require.NoError(t, err)
	defer c.Close()

	stream, err := c.Watch(context.Background())
	require.NoError(t, err)

	_, err = stream.Recv()
	require.Error(t, err)
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestGRPC_WatchCancel(t *testing.T) {
	addr := startGRPCWorld(t, &grpcWorld{hold: true})
	c, err := NewGRPCClient(addr)
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := c.Watch(ctx)
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		_, err := stream.Recv()
		errCh <- err
	}()
	cancel()

	select {
	case err := <-errCh:
		assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("Recv did not unblock after cancel")
	}
}

func TestGRPC_Push(t *testing.T) {
	w := &grpcWorld{result: core.PushResult{Accepted: true}, pushReq: make(chan PushRequest, 1)}
	addr := startGRPCWorld(t, w)
	c, err := NewGRPCClient(addr)
	require.NoError(t, err)
	defer c.Close()

	res, err := c.Push(context.Background(), []core.Entity{{ID: "A", Label: "edited"}})
	require.NoError(t, err)
	assert.True(t, res.Accepted)

	req := <-w.pushReq
	require.Len(t, req.Changes, 1)
	assert.Equal(t, "edited", req.Changes[0].Label)
}
