package supervisor

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	domain "github.com/oshokin/chiller-supervisor/internal/domain/alarm"
)

// Metadata keys carrying the acting operator.
const (
	MetadataHostname = "x-actor-hostname"
	MetadataUsername = "x-actor-username"
)

// SupervisorClient is the client API of the supervisory service.
type SupervisorClient struct {
	cc grpc.ClientConnInterface
}

// NewSupervisorClient creates a client over cc.
func NewSupervisorClient(cc grpc.ClientConnInterface) *SupervisorClient {
	return &SupervisorClient{cc: cc}
}

// WithActor returns a context that sends actor as request metadata.
func WithActor(ctx context.Context, actor *domain.Actor) context.Context {
	if actor == nil {
		return ctx
	}

	return metadata.AppendToOutgoingContext(ctx,
		MetadataHostname, actor.Hostname,
		MetadataUsername, actor.Username)
}

// ListAlarms returns every tracked alarm.
func (c *SupervisorClient) ListAlarms(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodListAlarms, new(emptypb.Empty), out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// AckAll acknowledges every tracked alarm.
func (c *SupervisorClient) AckAll(ctx context.Context, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, MethodAckAll, new(emptypb.Empty), new(emptypb.Empty), opts...)
}

// ResetAlarm clears the latched alarm in slot.
func (c *SupervisorClient) ResetAlarm(ctx context.Context, slot uint32, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, MethodResetAlarm, wrapperspb.UInt32(slot), new(emptypb.Empty), opts...)
}

// ResetAll clears every qualifying latched alarm and returns how many were cleared.
func (c *SupervisorClient) ResetAll(ctx context.Context, opts ...grpc.CallOption) (uint32, error) {
	out := new(wrapperspb.UInt32Value)
	if err := c.cc.Invoke(ctx, MethodResetAll, new(emptypb.Empty), out, opts...); err != nil {
		return 0, err
	}

	return out.GetValue(), nil
}

// Summary returns the supervisory overview.
func (c *SupervisorClient) Summary(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodSummary, new(emptypb.Empty), out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}

// PushSignals sends signal readings. Null values invalidate a signal.
func (c *SupervisorClient) PushSignals(
	ctx context.Context,
	signals *structpb.Struct,
	opts ...grpc.CallOption,
) error {
	return c.cc.Invoke(ctx, MethodPushSignals, signals, new(emptypb.Empty), opts...)
}
