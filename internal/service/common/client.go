//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	api "github.com/oshokin/chiller-supervisor/internal/api/grpc/supervisor"
	"github.com/oshokin/chiller-supervisor/internal/config"
	domain "github.com/oshokin/chiller-supervisor/internal/domain/alarm"
)

// Client wraps the supervisory gRPC client with timeouts and the acting operator.
type Client struct {
	// conn is the underlying gRPC connection to the supervisor.
	conn *grpc.ClientConn
	// api is the supervisory service client.
	api *api.SupervisorClient

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// errActorRequired is returned when an actor is not provided but is required for the operation.
	errActorRequired = errors.New("actor must be provided")
)

// Dial establishes a gRPC connection to the supervisor.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy until native TLS is added.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial supervisor: %w", err)
	}

	client := &Client{
		conn:        conn,
		api:         api.NewSupervisorClient(conn),
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// ListAlarms retrieves every tracked alarm.
func (c *Client) ListAlarms(ctx context.Context) (*structpb.Struct, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.ListAlarms(callCtx)
	if err != nil {
		return nil, fmt.Errorf("list alarms: %w", err)
	}

	return resp, nil
}

// Summary retrieves the supervisory overview.
func (c *Client) Summary(ctx context.Context) (*structpb.Struct, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	resp, err := c.api.Summary(callCtx)
	if err != nil {
		return nil, fmt.Errorf("summary: %w", err)
	}

	return resp, nil
}

// AckAll acknowledges every alarm on behalf of actor.
func (c *Client) AckAll(ctx context.Context, actor *domain.Actor) error {
	if actor == nil {
		return errActorRequired
	}

	callCtx, cancel := c.callContext(api.WithActor(ctx, actor))
	defer cancel()

	if err := c.api.AckAll(callCtx); err != nil {
		return fmt.Errorf("acknowledge alarms: %w", err)
	}

	return nil
}

// ResetAlarm clears the latched alarm in slot on behalf of actor.
func (c *Client) ResetAlarm(ctx context.Context, actor *domain.Actor, slot uint32) error {
	if actor == nil {
		return errActorRequired
	}

	callCtx, cancel := c.callContext(api.WithActor(ctx, actor))
	defer cancel()

	if err := c.api.ResetAlarm(callCtx, slot); err != nil {
		return fmt.Errorf("reset alarm %d: %w", slot, err)
	}

	return nil
}

// ResetAll clears every qualifying latched alarm on behalf of actor.
func (c *Client) ResetAll(ctx context.Context, actor *domain.Actor) (uint32, error) {
	if actor == nil {
		return 0, errActorRequired
	}

	callCtx, cancel := c.callContext(api.WithActor(ctx, actor))
	defer cancel()

	n, err := c.api.ResetAll(callCtx)
	if err != nil {
		return 0, fmt.Errorf("reset alarms: %w", err)
	}

	return n, nil
}

// PushSignals sends readings; nil values invalidate a signal.
func (c *Client) PushSignals(ctx context.Context, readings map[string]any) error {
	signals, err := structpb.NewStruct(readings)
	if err != nil {
		return fmt.Errorf("encode signals: %w", err)
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if err := c.api.PushSignals(callCtx, signals); err != nil {
		return fmt.Errorf("push signals: %w", err)
	}

	return nil
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
