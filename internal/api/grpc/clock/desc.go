package clock

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "alarmclock.v1.ClockService"

// Method names.
const (
	MethodStatus          = "Status"
	MethodStartTimer      = "StartTimer"
	MethodPauseTimer      = "PauseTimer"
	MethodResumeTimer     = "ResumeTimer"
	MethodResetTimer      = "ResetTimer"
	MethodStartStopwatch  = "StartStopwatch"
	MethodPauseStopwatch  = "PauseStopwatch"
	MethodLapStopwatch    = "LapStopwatch"
	MethodDeleteLap       = "DeleteLap"
	MethodResetStopwatch  = "ResetStopwatch"
	MethodListAlarms      = "ListAlarms"
	MethodCreateAlarm     = "CreateAlarm"
	MethodUpdateAlarm     = "UpdateAlarm"
	MethodDeleteAlarms    = "DeleteAlarms"
	MethodEnableAlarms    = "EnableAlarms"
	MethodDisableAlarms   = "DisableAlarms"
	MethodSkipAlarmsToday = "SkipAlarmsToday"
	MethodDuplicateAlarms = "DuplicateAlarms"
	MethodRetagAlarms     = "RetagAlarms"
	MethodSubmitDigit     = "SubmitDigit"
	MethodBackspace       = "Backspace"
	MethodSnooze          = "Snooze"
	MethodDismiss         = "Dismiss"

	StreamWatchEvents = "WatchEvents"
)

// unaryMethods lists every unary method in the service descriptor.
//
//nolint:gochecknoglobals // Static service description.
var unaryMethods = []string{
	MethodStatus,
	MethodStartTimer, MethodPauseTimer, MethodResumeTimer, MethodResetTimer,
	MethodStartStopwatch, MethodPauseStopwatch, MethodLapStopwatch, MethodDeleteLap, MethodResetStopwatch,
	MethodListAlarms, MethodCreateAlarm, MethodUpdateAlarm, MethodDeleteAlarms,
	MethodEnableAlarms, MethodDisableAlarms, MethodSkipAlarmsToday, MethodDuplicateAlarms, MethodRetagAlarms,
	MethodSubmitDigit, MethodBackspace, MethodSnooze, MethodDismiss,
}

// Handler is what the service descriptor dispatches to.
type Handler interface {
	// Call serves the unary method named method.
	Call(ctx context.Context, method string, in *structpb.Struct) (*structpb.Struct, error)
	// Watch serves the WatchEvents stream.
	Watch(in *structpb.Struct, stream grpc.ServerStream) error
}

// FullMethod returns the gRPC path of a method.
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// ServiceDesc describes the service for grpc.Server.RegisterService.
//
//nolint:gochecknoglobals // Mirrors generated *_grpc.pb.go descriptors.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Handler)(nil),
	Methods:     methodDescs(),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    StreamWatchEvents,
			Handler:       watchHandler,
			ServerStreams: true,
		},
	},
}

// WatchStreamDesc is the client side description of WatchEvents.
//
//nolint:gochecknoglobals // Mirrors generated *_grpc.pb.go descriptors.
var WatchStreamDesc = grpc.StreamDesc{
	StreamName:    StreamWatchEvents,
	ServerStreams: true,
}

// Register installs h on s.
func Register(s grpc.ServiceRegistrar, h Handler) {
	s.RegisterService(&ServiceDesc, h)
}

func methodDescs() []grpc.MethodDesc {
	descs := make([]grpc.MethodDesc, 0, len(unaryMethods))
	for _, name := range unaryMethods {
		descs = append(descs, grpc.MethodDesc{MethodName: name, Handler: unaryHandler(name)})
	}

	return descs
}

func unaryHandler(name string) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}

		h, _ := srv.(Handler)
		if interceptor == nil {
			return h.Call(ctx, name, in)
		}

		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}

		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			r, _ := req.(*structpb.Struct)
			return h.Call(ctx, name, r)
		})
	}
}

func watchHandler(srv any, stream grpc.ServerStream) error {
	in := new(structpb.Struct)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}

	h, _ := srv.(Handler)

	return h.Watch(in, stream)
}
