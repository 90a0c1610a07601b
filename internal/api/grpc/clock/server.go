package clock

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/yoruboku/alarm2/internal/domain"
	"github.com/yoruboku/alarm2/internal/events"
	"github.com/yoruboku/alarm2/internal/logger"
	"github.com/yoruboku/alarm2/internal/service/ring"
)

const (
	// watchBuffer is the per-stream event buffer. Slow watchers lose events.
	watchBuffer = 64
	// ActorMetadataKey carries the "user@host" of the caller.
	ActorMetadataKey = "x-alarm-actor"
)

// Service abstracts the business operations the transport layer depends on.
type Service interface {
	Status(ctx context.Context) domain.Status

	StartTimer(ctx context.Context, seconds int) (string, error)
	PauseTimer(ctx context.Context) bool
	ResumeTimer(ctx context.Context) bool
	ResetTimer(ctx context.Context)

	StartStopwatch(ctx context.Context) bool
	PauseStopwatch(ctx context.Context) bool
	LapStopwatch(ctx context.Context) (time.Duration, error)
	DeleteLap(ctx context.Context, index int) error
	ResetStopwatch(ctx context.Context)

	ListAlarms(ctx context.Context) []domain.Alarm
	CreateAlarm(ctx context.Context, a domain.Alarm) (domain.Alarm, error)
	UpdateAlarm(ctx context.Context, a domain.Alarm) (domain.Alarm, error)
	DeleteAlarms(ctx context.Context, ids []string) error
	SetAlarmsEnabled(ctx context.Context, ids []string, enabled bool) error
	SkipAlarmsToday(ctx context.Context, ids []string) error
	DuplicateAlarms(ctx context.Context, ids []string) ([]domain.Alarm, error)
	RetagAlarms(ctx context.Context, ids []string, tone *domain.Tone, volume *int) error

	SubmitDigit(ctx context.Context, digit int) (ring.Outcome, error)
	Backspace(ctx context.Context) bool
	Snooze(ctx context.Context, minutes int) (time.Time, error)
	Dismiss(ctx context.Context) error

	Subscribe(buffer int, kinds ...events.Kind) (<-chan events.Event, func())
}

// handler serves one unary method.
type handler func(ctx context.Context, in *structpb.Struct) (any, error)

// Server implements the ClockService gRPC API.
type Server struct {
	// service provides the business logic.
	service Service
	// handlers maps method names to their implementation.
	handlers map[string]handler
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	s := &Server{service: service}
	s.handlers = s.routes()

	return s
}

// Call implements Handler.
func (s *Server) Call(ctx context.Context, method string, in *structpb.Struct) (*structpb.Struct, error) {
	h, ok := s.handlers[method]
	if !ok {
		return nil, status.Errorf(codes.Unimplemented, "method %s not implemented", method)
	}

	ctx = withActor(ctx)
	logger.DebugKV(ctx, "Request", "method", method)

	resp, err := h(ctx, in)
	if err != nil {
		logger.DebugKV(ctx, "Request rejected", "method", method, "error", err)
		return nil, toStatus(err)
	}

	out, err := Encode(resp)
	if err != nil {
		logger.ErrorKV(ctx, "Unable to encode response", "method", method, "error", err)
		return nil, status.Error(codes.Internal, "unable to encode response")
	}

	return out, nil
}

// Watch implements Handler.
func (s *Server) Watch(in *structpb.Struct, stream grpc.ServerStream) error {
	var req WatchRequest
	if err := Decode(in, &req); err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}

	for _, kind := range req.Kinds {
		if !knownKind(kind) {
			return status.Errorf(codes.InvalidArgument, "unknown event kind %q", kind)
		}
	}

	ch, unsubscribe := s.service.Subscribe(watchBuffer, req.Kinds...)
	defer unsubscribe()

	ctx := stream.Context()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}

			msg, err := Encode(NewEventMessage(ev))
			if err != nil {
				return status.Error(codes.Internal, "unable to encode event")
			}

			if err = stream.SendMsg(msg); err != nil {
				return err
			}
		}
	}
}

// routes builds the method table.
func (s *Server) routes() map[string]handler {
	svc := s.service

	return map[string]handler{
		MethodStatus: func(ctx context.Context, _ *structpb.Struct) (any, error) {
			return svc.Status(ctx), nil
		},

		MethodStartTimer: typed(func(ctx context.Context, req StartTimerRequest) (any, error) {
			id, err := svc.StartTimer(ctx, req.Seconds)
			return StartTimerResponse{ID: id}, err
		}),
		MethodPauseTimer:  changed(svc.PauseTimer),
		MethodResumeTimer: changed(svc.ResumeTimer),
		MethodResetTimer: func(ctx context.Context, _ *structpb.Struct) (any, error) {
			svc.ResetTimer(ctx)
			return ChangedResponse{Changed: true}, nil
		},

		MethodStartStopwatch: changed(svc.StartStopwatch),
		MethodPauseStopwatch: changed(svc.PauseStopwatch),
		MethodLapStopwatch: func(ctx context.Context, _ *structpb.Struct) (any, error) {
			lap, err := svc.LapStopwatch(ctx)
			return LapResponse{ElapsedMs: lap.Milliseconds()}, err
		},
		MethodDeleteLap: typed(func(ctx context.Context, req DeleteLapRequest) (any, error) {
			return ChangedResponse{Changed: true}, svc.DeleteLap(ctx, req.Index)
		}),
		MethodResetStopwatch: func(ctx context.Context, _ *structpb.Struct) (any, error) {
			svc.ResetStopwatch(ctx)
			return ChangedResponse{Changed: true}, nil
		},

		MethodListAlarms: func(ctx context.Context, _ *structpb.Struct) (any, error) {
			return AlarmsResponse{Alarms: svc.ListAlarms(ctx)}, nil
		},
		MethodCreateAlarm: typed(func(ctx context.Context, req AlarmRequest) (any, error) {
			a, err := svc.CreateAlarm(ctx, req.Alarm)
			return AlarmResponse{Alarm: a}, err
		}),
		MethodUpdateAlarm: typed(func(ctx context.Context, req AlarmRequest) (any, error) {
			a, err := svc.UpdateAlarm(ctx, req.Alarm)
			return AlarmResponse{Alarm: a}, err
		}),
		MethodDeleteAlarms: bulk(svc.DeleteAlarms),
		MethodEnableAlarms: bulk(func(ctx context.Context, ids []string) error {
			return svc.SetAlarmsEnabled(ctx, ids, true)
		}),
		MethodDisableAlarms: bulk(func(ctx context.Context, ids []string) error {
			return svc.SetAlarmsEnabled(ctx, ids, false)
		}),
		MethodSkipAlarmsToday: bulk(svc.SkipAlarmsToday),
		MethodDuplicateAlarms: typed(func(ctx context.Context, req IDsRequest) (any, error) {
			alarms, err := svc.DuplicateAlarms(ctx, req.IDs)
			return AlarmsResponse{Alarms: alarms}, err
		}),
		MethodRetagAlarms: typed(func(ctx context.Context, req RetagRequest) (any, error) {
			return ChangedResponse{Changed: true}, svc.RetagAlarms(ctx, req.IDs, req.Tone, req.Volume)
		}),

		MethodSubmitDigit: typed(func(ctx context.Context, req DigitRequest) (any, error) {
			outcome, err := svc.SubmitDigit(ctx, req.Digit)
			if errors.Is(err, domain.ErrInputIgnored) {
				return DigitResponse{Outcome: outcome.String(), Ignored: true}, nil
			}

			return DigitResponse{Outcome: outcome.String()}, err
		}),
		MethodBackspace: changed(svc.Backspace),
		MethodSnooze: typed(func(ctx context.Context, req SnoozeRequest) (any, error) {
			fireAt, err := svc.Snooze(ctx, req.Minutes)
			return SnoozeResponse{FireAt: fireAt}, err
		}),
		MethodDismiss: func(ctx context.Context, _ *structpb.Struct) (any, error) {
			return ChangedResponse{Changed: true}, svc.Dismiss(ctx)
		},
	}
}

// typed decodes the request into Req before calling f.
func typed[Req any](f func(ctx context.Context, req Req) (any, error)) handler {
	return func(ctx context.Context, in *structpb.Struct) (any, error) {
		var req Req
		if err := Decode(in, &req); err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}

		return f(ctx, req)
	}
}

func changed(f func(ctx context.Context) bool) handler {
	return func(ctx context.Context, _ *structpb.Struct) (any, error) {
		return ChangedResponse{Changed: f(ctx)}, nil
	}
}

func bulk(f func(ctx context.Context, ids []string) error) handler {
	return typed(func(ctx context.Context, req IDsRequest) (any, error) {
		if len(req.IDs) == 0 {
			return nil, status.Error(codes.InvalidArgument, "at least one alarm id is required")
		}

		return ChangedResponse{Changed: true}, f(ctx, req.IDs)
	})
}

// withActor tags the context logger with the caller, when it is known.
func withActor(ctx context.Context) context.Context {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ctx
	}

	if actor := md.Get(ActorMetadataKey); len(actor) > 0 && actor[0] != "" {
		return logger.WithKV(ctx, "actor", actor[0])
	}

	return ctx
}

func knownKind(kind events.Kind) bool {
	switch kind {
	case events.KindAlarmFiring, events.KindRingResolved, events.KindAlarmSnoozed,
		events.KindTimerFinished, events.KindTimerTick:
		return true
	default:
		return false
	}
}
