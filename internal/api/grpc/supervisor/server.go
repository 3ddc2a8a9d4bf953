package supervisor

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	domain "github.com/oshokin/chiller-supervisor/internal/domain/alarm"
	"github.com/oshokin/chiller-supervisor/internal/engine"
	"github.com/oshokin/chiller-supervisor/internal/signal"
)

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	List(ctx context.Context) []domain.Entry
	Summary(ctx context.Context) domain.Summary
	AckAll(ctx context.Context, actor *domain.Actor)
	Reset(ctx context.Context, actor *domain.Actor, slot int) error
	ResetAll(ctx context.Context, actor *domain.Actor) int
	PushSignals(ctx context.Context, values map[string]float64, invalid []string)
}

// Server implements SupervisorServer on top of a Service.
type Server struct {
	// service provides the business logic for supervisory operations.
	service Service
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// ListAlarms returns every tracked alarm as {"alarms": [...]}.
func (s *Server) ListAlarms(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	result, err := toProtoEntries(s.service.List(ctx))
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to encode alarms")
	}

	return result, nil
}

// AckAll acknowledges every tracked alarm.
func (s *Server) AckAll(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	s.service.AckAll(ctx, actor)

	return new(emptypb.Empty), nil
}

// ResetAlarm clears the latched alarm in the requested slot.
func (s *Server) ResetAlarm(ctx context.Context, req *wrapperspb.UInt32Value) (*emptypb.Empty, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "slot is required")
	}

	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.service.Reset(ctx, actor, int(req.GetValue())); err != nil {
		return nil, toStatus(err)
	}

	return new(emptypb.Empty), nil
}

// ResetAll clears every qualifying latched alarm.
func (s *Server) ResetAll(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.UInt32Value, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	n := s.service.ResetAll(ctx, actor)

	return wrapperspb.UInt32(uint32(n)), nil //nolint:gosec // Bounded by store capacity.
}

// Summary returns the supervisory overview.
func (s *Server) Summary(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	result, err := toProtoSummary(s.service.Summary(ctx))
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to encode summary")
	}

	return result, nil
}

// PushSignals accepts numbers, booleans (as 0/1) and nulls (invalid reading).
func (s *Server) PushSignals(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "signals are required")
	}

	values := make(map[string]float64, len(req.GetFields()))

	var invalid []string

	for name, value := range req.GetFields() {
		if name == "" {
			return nil, status.Error(codes.InvalidArgument, "signal name is empty")
		}

		switch kind := value.GetKind().(type) {
		case *structpb.Value_NumberValue:
			values[name] = kind.NumberValue
		case *structpb.Value_BoolValue:
			values[name] = signal.Bool(kind.BoolValue)
		case *structpb.Value_NullValue:
			invalid = append(invalid, name)
		default:
			return nil, status.Errorf(codes.InvalidArgument, "signal %q: number, bool or null expected", name)
		}
	}

	s.service.PushSignals(ctx, values, invalid)

	return new(emptypb.Empty), nil
}

// actorFromContext reads the acting operator from request metadata.
func actorFromContext(ctx context.Context) (*domain.Actor, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "actor is required")
	}

	actor := &domain.Actor{
		Hostname: first(md.Get(MetadataHostname)),
		Username: first(md.Get(MetadataUsername)),
	}

	if actor.Hostname == "" || actor.Username == "" {
		return nil, status.Error(codes.InvalidArgument, "actor is required")
	}

	return actor, nil
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}

	return values[0]
}

// toStatus maps engine errors to gRPC status codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, engine.ErrIndexOutOfRange):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, engine.ErrNotActive),
		errors.Is(err, engine.ErrNotAcknowledged),
		errors.Is(err, engine.ErrConditionPresent),
		errors.Is(err, engine.ErrAutoClearing):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
