package clock

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/yoruboku/alarm2/internal/domain"
)

// toStatus maps domain sentinels to gRPC status codes. Errors that already
// carry a status pass through.
func toStatus(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}

	return status.Error(codeOf(err), err.Error())
}

func codeOf(err error) codes.Code {
	switch {
	case errors.Is(err, domain.ErrInvalidDuration), errors.Is(err, domain.ErrInvalidAlarm):
		return codes.InvalidArgument
	case errors.Is(err, domain.ErrInvalidState), errors.Is(err, domain.ErrNotRunning):
		return codes.FailedPrecondition
	case errors.Is(err, domain.ErrIndexOutOfRange):
		return codes.OutOfRange
	case errors.Is(err, domain.ErrNotFound):
		return codes.NotFound
	default:
		return codes.Internal
	}
}
