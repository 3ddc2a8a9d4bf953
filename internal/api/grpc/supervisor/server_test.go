package supervisor

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	domain "github.com/oshokin/chiller-supervisor/internal/domain/alarm"
	"github.com/oshokin/chiller-supervisor/internal/engine"
)

// fakeService implements the Service interface for unit testing the transport.
type fakeService struct {
	entries  []domain.Entry
	summary  domain.Summary
	resetErr error

	actor   *domain.Actor
	slot    int
	acked   bool
	values  map[string]float64
	invalid []string
}

func (f *fakeService) List(context.Context) []domain.Entry    { return f.entries }
func (f *fakeService) Summary(context.Context) domain.Summary { return f.summary }

func (f *fakeService) AckAll(_ context.Context, actor *domain.Actor) {
	f.actor = actor
	f.acked = true
}

func (f *fakeService) Reset(_ context.Context, actor *domain.Actor, slot int) error {
	f.actor = actor
	f.slot = slot

	return f.resetErr
}

func (f *fakeService) ResetAll(_ context.Context, actor *domain.Actor) int {
	f.actor = actor

	return 2
}

func (f *fakeService) PushSignals(_ context.Context, values map[string]float64, invalid []string) {
	f.values = values
	f.invalid = invalid
}

// operatorContext builds an incoming context with actor metadata.
func operatorContext() context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs(
		MetadataHostname, "plant-hmi",
		MetadataUsername, "o.shokin",
	))
}

// TestServer_ActorRequired ensures operator actions without an actor are rejected.
func TestServer_ActorRequired(t *testing.T) {
	t.Parallel()

	svc := new(fakeService)
	s := NewServer(svc)

	_, err := s.AckAll(context.Background(), new(emptypb.Empty))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	partial := metadata.NewIncomingContext(context.Background(), metadata.Pairs(MetadataHostname, "plant-hmi"))
	_, err = s.ResetAll(partial, new(emptypb.Empty))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.ResetAlarm(operatorContext(), nil)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	require.False(t, svc.acked)
}

// TestServer_AckAndReset forwards the actor and slot to the service.
func TestServer_AckAndReset(t *testing.T) {
	t.Parallel()

	svc := new(fakeService)
	s := NewServer(svc)

	_, err := s.AckAll(operatorContext(), new(emptypb.Empty))
	require.NoError(t, err)
	require.True(t, svc.acked)
	require.Equal(t, &domain.Actor{Hostname: "plant-hmi", Username: "o.shokin"}, svc.actor)

	_, err = s.ResetAlarm(operatorContext(), wrapperspb.UInt32(7))
	require.NoError(t, err)
	require.Equal(t, 7, svc.slot)

	n, err := s.ResetAll(operatorContext(), new(emptypb.Empty))
	require.NoError(t, err)
	require.Equal(t, uint32(2), n.GetValue())
}

// TestServer_ResetErrorCodes maps engine errors to status codes.
func TestServer_ResetErrorCodes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want codes.Code
	}{
		{engine.ErrIndexOutOfRange, codes.NotFound},
		{engine.ErrNotActive, codes.FailedPrecondition},
		{engine.ErrNotAcknowledged, codes.FailedPrecondition},
		{fmt.Errorf("slot 3: %w", engine.ErrConditionPresent), codes.FailedPrecondition},
		{engine.ErrAutoClearing, codes.FailedPrecondition},
		{engine.ErrRegistryMismatch, codes.Internal},
	}

	for _, tc := range cases {
		s := NewServer(&fakeService{resetErr: tc.err})

		_, err := s.ResetAlarm(operatorContext(), wrapperspb.UInt32(3))
		require.Equal(t, tc.want, status.Code(err), tc.err.Error())
	}
}

// TestServer_ListAndSummary encodes domain values into Struct messages.
func TestServer_ListAndSummary(t *testing.T) {
	t.Parallel()

	svc := &fakeService{
		entries: []domain.Entry{{
			Slot: 0,
			Definition: domain.Definition{
				Code:      "HIGH_DISCHARGE_PRESSURE",
				Kind:      domain.KindAlarm,
				Priority:  domain.PriorityCritical,
				Latched:   true,
				Source:    "discharge_pressure",
				Operator:  domain.OperatorGreaterThan,
				Threshold: 2.1,
			},
			State: domain.State{Index: 21, Code: "HIGH_DISCHARGE_PRESSURE", Active: true, LastTrueAt: 3000},
		}},
		summary: domain.Summary{AnyActive: true, AnyTrip: true, Tracked: 1, Capacity: 64, ActiveTrips: 1},
	}
	s := NewServer(svc)

	list, err := s.ListAlarms(context.Background(), new(emptypb.Empty))
	require.NoError(t, err)

	alarms := list.GetFields()["alarms"].GetListValue().GetValues()
	require.Len(t, alarms, 1)

	first := alarms[0].GetStructValue().GetFields()
	require.Equal(t, "HIGH_DISCHARGE_PRESSURE", first["code"].GetStringValue())
	require.Equal(t, "alarm", first["kind"].GetStringValue())
	require.Equal(t, "gt", first["op"].GetStringValue())
	require.InDelta(t, 21, first["index"].GetNumberValue(), 0)
	require.InDelta(t, 3000, first["last_true_at"].GetNumberValue(), 0)
	require.True(t, first["active"].GetBoolValue())

	summary, err := s.Summary(context.Background(), new(emptypb.Empty))
	require.NoError(t, err)
	require.True(t, summary.GetFields()["any_trip"].GetBoolValue())
	require.InDelta(t, 64, summary.GetFields()["capacity"].GetNumberValue(), 0)
}

// TestServer_PushSignals accepts numbers, booleans and nulls only.
func TestServer_PushSignals(t *testing.T) {
	t.Parallel()

	svc := new(fakeService)
	s := NewServer(svc)

	req, err := structpb.NewStruct(map[string]any{
		"suction_pressure": 1.5,
		"flow_switch":      true,
		"oil_pressure":     nil,
	})
	require.NoError(t, err)

	_, err = s.PushSignals(context.Background(), req)
	require.NoError(t, err)
	require.InDelta(t, 1.5, svc.values["suction_pressure"], 0)
	require.InDelta(t, 1.0, svc.values["flow_switch"], 0)
	require.Equal(t, []string{"oil_pressure"}, svc.invalid)

	bad, err := structpb.NewStruct(map[string]any{"suction_pressure": "high"})
	require.NoError(t, err)

	_, err = s.PushSignals(context.Background(), bad)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.PushSignals(context.Background(), nil)
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}
