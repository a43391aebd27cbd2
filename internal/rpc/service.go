// Package rpc exposes the room-mode engine over gRPC. Requests and
// responses are google.protobuf.Struct messages carrying the same JSON
// shapes as the HTTP API, so no generated code is needed.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "roommodes.v1.ModeService"

const (
	methodGenerateModes = "/" + ServiceName + "/GenerateModes"
	methodSlice         = "/" + ServiceName + "/Slice"
	methodHotspots      = "/" + ServiceName + "/Hotspots"
)

// ModeServiceServer is the server API of ModeService.
type ModeServiceServer interface {
	GenerateModes(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Slice(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Hotspots(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ModeServiceDesc describes ModeService for grpc.Server.RegisterService.
var ModeServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ModeServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GenerateModes", Handler: unaryHandler(methodGenerateModes, ModeServiceServer.GenerateModes)},
		{MethodName: "Slice", Handler: unaryHandler(methodSlice, ModeServiceServer.Slice)},
		{MethodName: "Hotspots", Handler: unaryHandler(methodHotspots, ModeServiceServer.Hotspots)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "roommodes/v1/modes.proto",
}

// RegisterService registers srv with the gRPC server.
func RegisterService(grpcServer *grpc.Server, srv ModeServiceServer) {
	grpcServer.RegisterService(&ModeServiceDesc, srv)
}

type unaryMethod func(ModeServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ModeServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(ModeServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}
