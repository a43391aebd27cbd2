package rpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/banshee-data/roommodes/internal/roommodes"
	"github.com/banshee-data/roommodes/internal/testutil"
)

// startServer serves a ModeService on an in-memory listener and returns a
// client connected to it.
func startServer(t *testing.T, srv *Server) *Client {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(LoggingInterceptor()))
	RegisterService(grpcServer, srv)
	go func() { _ = grpcServer.Serve(lis) }()
	t.Cleanup(grpcServer.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewClient(conn)
}

func testEngine() *roommodes.Engine {
	return roommodes.MustNewEngine(roommodes.DefaultConfig().WithResolution(9))
}

func TestGenerateModes(t *testing.T) {
	t.Parallel()
	engine := testEngine()
	client := startServer(t, NewServer(engine, nil, time.Second, 2000))

	modes, err := client.GenerateModes(context.Background(), testutil.ReferenceRoom, 120, "")
	require.NoError(t, err)

	want, err := engine.GenerateModes(testutil.ReferenceRoom, 120)
	require.NoError(t, err)
	require.Len(t, modes, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, modes[i].ID)
		assert.Equal(t, want[i].Indices, modes[i].Indices)
		assert.Equal(t, want[i].Type, modes[i].Type)
		assert.Equal(t, want[i].Degeneracy, modes[i].Degeneracy)
		assert.InDelta(t, want[i].Frequency, modes[i].Frequency, 1e-9)
	}

	axial, err := client.GenerateModes(context.Background(), testutil.ReferenceRoom, 120, roommodes.Axial)
	require.NoError(t, err)
	require.NotEmpty(t, axial)
	for _, m := range axial {
		assert.Equal(t, roommodes.Axial, m.Type)
	}

	none, err := client.GenerateModes(context.Background(), testutil.ReferenceRoom, 10, "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSliceAndHotspots(t *testing.T) {
	t.Parallel()
	client := startServer(t, NewServer(testEngine(), nil, time.Second, 0))
	ctx := context.Background()

	slice, err := client.Slice(ctx, testutil.ReferenceRoom, []string{"1-0-0", "0-1-0"}, 2.9)
	require.NoError(t, err)
	assert.Equal(t, 9, slice.Width)
	assert.Equal(t, 9, slice.Depth)
	assert.Equal(t, 8, slice.Layer)
	assert.Equal(t, 2.9, slice.Height)
	assert.Len(t, slice.Values, 81)

	set, err := client.Hotspots(ctx, testutil.ReferenceRoom, []string{"1-0-0"}, 0.99)
	require.NoError(t, err)
	assert.Equal(t, 2*9*9, set.Len())
	assert.Len(t, set.Positions, 3*set.Len())
	assert.Equal(t, 0.99, set.Threshold)
}

func TestErrorCodes(t *testing.T) {
	t.Parallel()
	client := startServer(t, NewServer(testEngine(), nil, time.Second, 500))
	ctx := context.Background()

	bad := roommodes.Dimensions{Length: -1, Height: 2, Width: 3}

	_, err := client.GenerateModes(ctx, bad, 100, "")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.GenerateModes(ctx, testutil.ReferenceRoom, 900, "")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.GenerateModes(ctx, testutil.ReferenceRoom, 100, "diagonal")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.Slice(ctx, testutil.ReferenceRoom, []string{"one-two-three"}, 1)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.Hotspots(ctx, bad, []string{"1-0-0"}, 0.5)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestEmptySelectionHasNoField(t *testing.T) {
	t.Parallel()
	client := startServer(t, NewServer(testEngine(), nil, time.Second, 500))
	ctx := context.Background()

	_, err := client.Slice(ctx, testutil.ReferenceRoom, nil, 1)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	assert.Contains(t, status.Convert(err).Message(), "no field computed")

	_, err = client.Hotspots(ctx, testutil.ReferenceRoom, []string{}, 0.5)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	// Invalid dimensions win over the empty selection.
	_, err = client.Slice(ctx, roommodes.Dimensions{Length: -1, Height: 2, Width: 3}, nil, 1)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestUnknownFieldsRejected(t *testing.T) {
	t.Parallel()
	srv := NewServer(testEngine(), nil, time.Second, 0)

	in, err := structpb.NewStruct(map[string]interface{}{
		"dims":          map[string]interface{}{"length": 3.0, "height": 2.0, "width": 2.0},
		"max_frequency": 100.0,
		"colour":        "red",
	})
	require.NoError(t, err)

	_, err = srv.GenerateModes(context.Background(), in)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestDeadlineExceeded(t *testing.T) {
	t.Parallel()
	srv := NewServer(testEngine(), nil, time.Second, 0)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	in, err := structpb.NewStruct(map[string]interface{}{
		"dims":     map[string]interface{}{"length": 3.0, "height": 2.0, "width": 2.0},
		"mode_ids": []interface{}{"1-0-0"},
	})
	require.NoError(t, err)

	_, err = srv.Slice(ctx, in)
	assert.Equal(t, codes.DeadlineExceeded, status.Code(err))
}

func TestToStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want codes.Code
	}{
		{roommodes.ErrSearchSpaceTooLarge, codes.InvalidArgument},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{context.Canceled, codes.Canceled},
		{assert.AnError, codes.Internal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, status.Code(toStatus(tt.err)), tt.err.Error())
	}
}
