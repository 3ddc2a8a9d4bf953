package supervisor

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "chiller.supervisor.v1.Supervisor"

// Full method names used by clients.
const (
	MethodListAlarms  = "/" + ServiceName + "/ListAlarms"
	MethodAckAll      = "/" + ServiceName + "/AckAll"
	MethodResetAlarm  = "/" + ServiceName + "/ResetAlarm"
	MethodResetAll    = "/" + ServiceName + "/ResetAll"
	MethodSummary     = "/" + ServiceName + "/Summary"
	MethodPushSignals = "/" + ServiceName + "/PushSignals"
)

// SupervisorServer is the server API of the supervisory service.
// Messages are protobuf well-known types so no generated code is needed.
type SupervisorServer interface {
	ListAlarms(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	AckAll(ctx context.Context, req *emptypb.Empty) (*emptypb.Empty, error)
	ResetAlarm(ctx context.Context, req *wrapperspb.UInt32Value) (*emptypb.Empty, error)
	ResetAll(ctx context.Context, req *emptypb.Empty) (*wrapperspb.UInt32Value, error)
	Summary(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	PushSignals(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error)
}

// ServiceDesc describes the supervisory service for grpc.Server registration.
//
//nolint:gochecknoglobals // Service descriptors are package-level by gRPC convention.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SupervisorServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("ListAlarms", SupervisorServer.ListAlarms),
		unary("AckAll", SupervisorServer.AckAll),
		unary("ResetAlarm", SupervisorServer.ResetAlarm),
		unary("ResetAll", SupervisorServer.ResetAll),
		unary("Summary", SupervisorServer.Summary),
		unary("PushSignals", SupervisorServer.PushSignals),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "chiller/supervisor/v1/supervisor.proto",
}

// Register attaches srv to the gRPC server.
func Register(s grpc.ServiceRegistrar, srv SupervisorServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// unary builds a method descriptor that decodes Req and dispatches to call,
// honoring the server's interceptor chain.
func unary[Req, Resp any](
	name string,
	call func(SupervisorServer, context.Context, *Req) (Resp, error),
) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(
			srv any,
			ctx context.Context,
			dec func(any) error,
			interceptor grpc.UnaryServerInterceptor,
		) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}

			server, _ := srv.(SupervisorServer)

			if interceptor == nil {
				return call(server, ctx, in)
			}

			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + name,
			}

			handler := func(ctx context.Context, req any) (any, error) {
				typed, _ := req.(*Req)

				return call(server, ctx, typed)
			}

			return interceptor(ctx, in, info, handler)
		},
	}
}
