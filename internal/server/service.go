// ABOUTME: gRPC service description for postfilter.v1.PostFilter
// ABOUTME: Requests and responses are google.protobuf.Struct messages

package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "postfilter.v1.PostFilter"

// Method names
const (
	MethodMatch       = "Match"
	MethodFilter      = "Filter"
	MethodBlacklisted = "Blacklisted"
	MethodQuery       = "Query"
	MethodHealth      = "Health"
	MethodStats       = "Stats"
)

// FullMethod returns the gRPC path of a method, e.g. /postfilter.v1.PostFilter/Match
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// PostFilterServer is the server API for the PostFilter service
type PostFilterServer interface {
	Match(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Filter(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Blacklisted(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Query(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Health(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Stats(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(PostFilterServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryMethod(name string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(PostFilterServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(name),
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(PostFilterServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc is the grpc.ServiceDesc for the PostFilter service
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PostFilterServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(MethodMatch, PostFilterServer.Match),
		unaryMethod(MethodFilter, PostFilterServer.Filter),
		unaryMethod(MethodBlacklisted, PostFilterServer.Blacklisted),
		unaryMethod(MethodQuery, PostFilterServer.Query),
		unaryMethod(MethodHealth, PostFilterServer.Health),
		unaryMethod(MethodStats, PostFilterServer.Stats),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "postfilter/v1/postfilter.proto",
}

// RegisterPostFilterServer registers srv with s
func RegisterPostFilterServer(s grpc.ServiceRegistrar, srv PostFilterServer) {
	s.RegisterService(&ServiceDesc, srv)
}
