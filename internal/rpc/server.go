package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/banshee-data/roommodes/internal/monitoring"
	"github.com/banshee-data/roommodes/internal/roommodes"
	"github.com/banshee-data/roommodes/internal/session"
)

// GenerateModesRequest is the payload of GenerateModes.
type GenerateModesRequest struct {
	Dims         roommodes.Dimensions `json:"dims"`
	MaxFrequency float64              `json:"max_frequency"`
	Type         string               `json:"type,omitempty"`
}

// GenerateModesResponse is the result of GenerateModes.
type GenerateModesResponse struct {
	Count int              `json:"count"`
	Modes []roommodes.Mode `json:"modes"`
}

// FieldRequest is the payload of Slice and Hotspots. Height is read by
// Slice and Threshold by Hotspots.
type FieldRequest struct {
	Dims      roommodes.Dimensions `json:"dims"`
	ModeIDs   []string             `json:"mode_ids"`
	Height    float64              `json:"height,omitempty"`
	Threshold float64              `json:"threshold,omitempty"`
}

// Server implements ModeServiceServer on a roommodes.Engine.
type Server struct {
	engine       *roommodes.Engine
	fields       session.FieldSource
	timeout      time.Duration
	maxFrequency float64
}

// NewServer returns a ModeService backed by engine. Fields are synthesized
// through fields, which may be nil to use the engine directly. Each call
// is bounded by timeout; maxFrequency caps GenerateModes requests.
func NewServer(engine *roommodes.Engine, fields session.FieldSource, timeout time.Duration, maxFrequency float64) *Server {
	if fields == nil {
		fields = engine
	}
	return &Server{engine: engine, fields: fields, timeout: timeout, maxFrequency: maxFrequency}
}

func (s *Server) GenerateModes(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req GenerateModesRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, toStatus(err)
	}
	if s.maxFrequency > 0 && req.MaxFrequency > s.maxFrequency {
		return nil, status.Errorf(codes.InvalidArgument, "max_frequency %v exceeds the limit of %v Hz", req.MaxFrequency, s.maxFrequency)
	}
	t, err := roommodes.ParseModeType(req.Type)
	if err != nil {
		return nil, toStatus(err)
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()
	modes, err := s.engine.GenerateModesContext(ctx, req.Dims, req.MaxFrequency)
	if err != nil {
		return nil, toStatus(err)
	}
	modes = roommodes.FilterByType(modes, t)
	if modes == nil {
		modes = []roommodes.Mode{}
	}
	return encodeStruct(GenerateModesResponse{Count: len(modes), Modes: modes})
}

func (s *Server) Slice(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, field, err := s.synthesize(ctx, in)
	if err != nil {
		return nil, err
	}
	slice, err := s.engine.Slice(field, req.Height)
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeStruct(slice)
}

func (s *Server) Hotspots(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, field, err := s.synthesize(ctx, in)
	if err != nil {
		return nil, err
	}
	set, err := s.engine.Hotspots(field, req.Threshold)
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeStruct(set)
}

func (s *Server) synthesize(ctx context.Context, in *structpb.Struct) (*FieldRequest, *roommodes.PressureField, error) {
	var req FieldRequest
	if err := decodeStruct(in, &req); err != nil {
		return nil, nil, toStatus(err)
	}
	indices := make([]roommodes.Indices, 0, len(req.ModeIDs))
	for _, id := range req.ModeIDs {
		ix, err := roommodes.ParseModeID(id)
		if err != nil {
			return nil, nil, toStatus(err)
		}
		indices = append(indices, ix)
	}
	if err := req.Dims.Validate(); err != nil {
		return nil, nil, toStatus(err)
	}
	if len(indices) == 0 {
		return nil, nil, errNoActiveModes
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()
	field, err := s.fields.SynthesizeIndices(ctx, req.Dims, indices)
	if err != nil {
		return nil, nil, toStatus(err)
	}
	return &req, field, nil
}

// errNoActiveModes is returned by Slice and Hotspots for an empty
// selection, which has no field to slice or threshold.
var errNoActiveModes = status.Error(codes.FailedPrecondition, "no active modes: no field computed")

func (s *Server) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// decodeStruct converts a Struct payload into dst, rejecting unknown keys.
func decodeStruct(in *structpb.Struct, dst interface{}) error {
	data, err := protojson.Marshal(in)
	if err != nil {
		return fmt.Errorf("%w: %v", roommodes.ErrInvalidArgument, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid request: %v", roommodes.ErrInvalidArgument, err)
	}
	return nil
}

// encodeStruct converts v to a Struct through its JSON form.
func encodeStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// toStatus maps engine errors onto gRPC status codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, roommodes.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// LoggingInterceptor logs each unary call with its status code and
// duration through the "rpc" logger.
func LoggingInterceptor() grpc.UnaryServerInterceptor {
	logger := monitoring.Named("rpc")
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Info("unary call",
			zap.String("method", info.FullMethod),
			zap.Stringer("code", status.Code(err)),
			zap.Duration("duration", time.Since(start)),
		)
		return resp, err
	}
}
