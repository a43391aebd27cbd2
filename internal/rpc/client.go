package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/banshee-data/roommodes/internal/roommodes"
)

// Client calls ModeService over an existing connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// GenerateModes lists the modes of dims up to maxFrequency, restricted to
// modeType ("" or "all" for every type).
func (c *Client) GenerateModes(ctx context.Context, dims roommodes.Dimensions, maxFrequency float64, modeType roommodes.ModeType, opts ...grpc.CallOption) ([]roommodes.Mode, error) {
	var resp GenerateModesResponse
	req := GenerateModesRequest{Dims: dims, MaxFrequency: maxFrequency, Type: string(modeType)}
	if err := c.call(ctx, methodGenerateModes, req, &resp, opts...); err != nil {
		return nil, err
	}
	return resp.Modes, nil
}

// Slice returns the horizontal slice at height through the field of modeIDs.
func (c *Client) Slice(ctx context.Context, dims roommodes.Dimensions, modeIDs []string, height float64, opts ...grpc.CallOption) (roommodes.Slice, error) {
	var resp roommodes.Slice
	req := FieldRequest{Dims: dims, ModeIDs: modeIDs, Height: height}
	err := c.call(ctx, methodSlice, req, &resp, opts...)
	return resp, err
}

// Hotspots returns the samples of the field of modeIDs at or above threshold.
func (c *Client) Hotspots(ctx context.Context, dims roommodes.Dimensions, modeIDs []string, threshold float64, opts ...grpc.CallOption) (roommodes.HotspotSet, error) {
	var resp roommodes.HotspotSet
	req := FieldRequest{Dims: dims, ModeIDs: modeIDs, Threshold: threshold}
	err := c.call(ctx, methodHotspots, req, &resp, opts...)
	return resp, err
}

func (c *Client) call(ctx context.Context, method string, req, resp interface{}, opts ...grpc.CallOption) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	in := new(structpb.Struct)
	if err := protojson.Unmarshal(data, in); err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return err
	}

	data, err = protojson.Marshal(out)
	if err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if err := json.Unmarshal(data, resp); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
