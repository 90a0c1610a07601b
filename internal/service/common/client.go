//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"

	api "github.com/yoruboku/alarm2/internal/api/grpc/clock"
	"github.com/yoruboku/alarm2/internal/config"
	"github.com/yoruboku/alarm2/internal/domain"
	"github.com/yoruboku/alarm2/internal/events"
)

// Client wraps the ClockService connection with typed helpers.
type Client struct {
	// conn is the underlying gRPC connection to the daemon.
	conn *grpc.ClientConn
	// actor is sent with every call as request metadata.
	actor string

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

// WithActor sets the caller identity reported to the daemon.
func WithActor(actor string) Option {
	return func(c *Client) {
		c.actor = actor
	}
}

// errAddressRequired is returned when a required address value is missing.
var errAddressRequired = errors.New("address must be provided")

// Dial establishes a gRPC connection to the daemon.
// Note: this uses insecure transport credentials; the daemon is meant to
// listen on loopback or a trusted network.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial alarm clock daemon: %w", err)
	}

	client := &Client{
		conn:        conn,
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

// Status returns the daemon snapshot.
func (c *Client) Status(ctx context.Context) (*domain.Status, error) {
	var resp domain.Status
	if err := c.call(ctx, api.MethodStatus, struct{}{}, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// StartTimer starts a countdown and returns its id.
func (c *Client) StartTimer(ctx context.Context, duration time.Duration) (string, error) {
	var resp api.StartTimerResponse

	err := c.call(ctx, api.MethodStartTimer, api.StartTimerRequest{Seconds: int(duration / time.Second)}, &resp)

	return resp.ID, err
}

// PauseTimer pauses the countdown.
func (c *Client) PauseTimer(ctx context.Context) (bool, error) {
	return c.toggle(ctx, api.MethodPauseTimer)
}

// ResumeTimer resumes the countdown.
func (c *Client) ResumeTimer(ctx context.Context) (bool, error) {
	return c.toggle(ctx, api.MethodResumeTimer)
}

// ResetTimer drops the countdown.
func (c *Client) ResetTimer(ctx context.Context) error {
	_, err := c.toggle(ctx, api.MethodResetTimer)
	return err
}

// StartStopwatch starts or resumes the stopwatch.
func (c *Client) StartStopwatch(ctx context.Context) (bool, error) {
	return c.toggle(ctx, api.MethodStartStopwatch)
}

// PauseStopwatch pauses the stopwatch.
func (c *Client) PauseStopwatch(ctx context.Context) (bool, error) {
	return c.toggle(ctx, api.MethodPauseStopwatch)
}

// Lap records a lap and returns its elapsed time.
func (c *Client) Lap(ctx context.Context) (time.Duration, error) {
	var resp api.LapResponse

	err := c.call(ctx, api.MethodLapStopwatch, struct{}{}, &resp)

	return time.Duration(resp.ElapsedMs) * time.Millisecond, err
}

// DeleteLap removes the lap at index.
func (c *Client) DeleteLap(ctx context.Context, index int) error {
	return c.call(ctx, api.MethodDeleteLap, api.DeleteLapRequest{Index: index}, nil)
}

// ResetStopwatch zeroes the stopwatch.
func (c *Client) ResetStopwatch(ctx context.Context) error {
	_, err := c.toggle(ctx, api.MethodResetStopwatch)
	return err
}

// ListAlarms returns every alarm.
func (c *Client) ListAlarms(ctx context.Context) ([]domain.Alarm, error) {
	var resp api.AlarmsResponse
	if err := c.call(ctx, api.MethodListAlarms, struct{}{}, &resp); err != nil {
		return nil, err
	}

	return resp.Alarms, nil
}

// CreateAlarm stores a new alarm.
func (c *Client) CreateAlarm(ctx context.Context, a *domain.Alarm) (*domain.Alarm, error) {
	return c.alarm(ctx, api.MethodCreateAlarm, a)
}

// UpdateAlarm replaces an alarm.
func (c *Client) UpdateAlarm(ctx context.Context, a *domain.Alarm) (*domain.Alarm, error) {
	return c.alarm(ctx, api.MethodUpdateAlarm, a)
}

// DeleteAlarms removes alarms.
func (c *Client) DeleteAlarms(ctx context.Context, ids ...string) error {
	return c.call(ctx, api.MethodDeleteAlarms, api.IDsRequest{IDs: ids}, nil)
}

// SetAlarmsEnabled enables or disables alarms.
func (c *Client) SetAlarmsEnabled(ctx context.Context, enabled bool, ids ...string) error {
	method := api.MethodDisableAlarms
	if enabled {
		method = api.MethodEnableAlarms
	}

	return c.call(ctx, method, api.IDsRequest{IDs: ids}, nil)
}

// SkipAlarmsToday silences alarms for the rest of the day.
func (c *Client) SkipAlarmsToday(ctx context.Context, ids ...string) error {
	return c.call(ctx, api.MethodSkipAlarmsToday, api.IDsRequest{IDs: ids}, nil)
}

// DuplicateAlarms copies alarms and returns the copies.
func (c *Client) DuplicateAlarms(ctx context.Context, ids ...string) ([]domain.Alarm, error) {
	var resp api.AlarmsResponse
	if err := c.call(ctx, api.MethodDuplicateAlarms, api.IDsRequest{IDs: ids}, &resp); err != nil {
		return nil, err
	}

	return resp.Alarms, nil
}

// RetagAlarms sets tone and/or volume on alarms.
func (c *Client) RetagAlarms(ctx context.Context, tone *domain.Tone, volume *int, ids ...string) error {
	return c.call(ctx, api.MethodRetagAlarms, api.RetagRequest{IDs: ids, Tone: tone, Volume: volume}, nil)
}

// SubmitDigit sends one code digit.
func (c *Client) SubmitDigit(ctx context.Context, digit int) (*api.DigitResponse, error) {
	var resp api.DigitResponse
	if err := c.call(ctx, api.MethodSubmitDigit, api.DigitRequest{Digit: digit}, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// Backspace deletes the last entered digit.
func (c *Client) Backspace(ctx context.Context) (bool, error) {
	return c.toggle(ctx, api.MethodBackspace)
}

// Snooze defers the ringing alarm; zero minutes uses the default.
func (c *Client) Snooze(ctx context.Context, minutes int) (time.Time, error) {
	var resp api.SnoozeResponse

	err := c.call(ctx, api.MethodSnooze, api.SnoozeRequest{Minutes: minutes}, &resp)

	return resp.FireAt, err
}

// Dismiss stops the ringing alarm without a code.
func (c *Client) Dismiss(ctx context.Context) error {
	return c.call(ctx, api.MethodDismiss, struct{}{}, nil)
}

// WatchEvents streams events to fn until ctx ends, the daemon stops, or
// fn returns an error. No call timeout applies.
func (c *Client) WatchEvents(ctx context.Context, fn func(api.EventMessage) error, kinds ...events.Kind) error {
	in, err := api.Encode(api.WatchRequest{Kinds: kinds})
	if err != nil {
		return err
	}

	stream, err := c.conn.NewStream(c.outgoing(ctx), &api.WatchStreamDesc, api.FullMethod(api.StreamWatchEvents))
	if err != nil {
		return fmt.Errorf("watch events: %w", err)
	}

	if err = stream.SendMsg(in); err != nil {
		return fmt.Errorf("watch events: %w", err)
	}

	if err = stream.CloseSend(); err != nil {
		return fmt.Errorf("watch events: %w", err)
	}

	for {
		out := new(structpb.Struct)

		if err = stream.RecvMsg(out); err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}

			return fmt.Errorf("watch events: %w", err)
		}

		var msg api.EventMessage
		if err = api.Decode(out, &msg); err != nil {
			return err
		}

		if err = fn(msg); err != nil {
			return err
		}
	}
}

func (c *Client) alarm(ctx context.Context, method string, a *domain.Alarm) (*domain.Alarm, error) {
	if a == nil {
		return nil, errAlarmRequired
	}

	var resp api.AlarmResponse
	if err := c.call(ctx, method, api.AlarmRequest{Alarm: *a}, &resp); err != nil {
		return nil, err
	}

	return &resp.Alarm, nil
}

func (c *Client) toggle(ctx context.Context, method string) (bool, error) {
	var resp api.ChangedResponse

	err := c.call(ctx, method, struct{}{}, &resp)

	return resp.Changed, err
}

// errAlarmRequired is returned when an alarm is not provided.
var errAlarmRequired = errors.New("alarm must be provided")

// call invokes a unary method, decoding the response into resp when non-nil.
func (c *Client) call(ctx context.Context, method string, req, resp any) error {
	if c == nil || c.conn == nil {
		return fmt.Errorf("%s: %w", method, errNotConnected)
	}

	in, err := api.Encode(req)
	if err != nil {
		return err
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	out := new(structpb.Struct)
	if err = c.conn.Invoke(c.outgoing(callCtx), api.FullMethod(method), in, out); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}

	if resp == nil {
		return nil
	}

	return api.Decode(out, resp)
}

// errNotConnected is returned by calls on a client that was never dialed.
var errNotConnected = errors.New("client is not connected")

// outgoing attaches the actor metadata.
func (c *Client) outgoing(ctx context.Context) context.Context {
	if c.actor == "" {
		return ctx
	}

	return metadata.AppendToOutgoingContext(ctx, api.ActorMetadataKey, c.actor)
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
