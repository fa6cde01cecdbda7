package db

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/Niconord59/crm-axivity-sub001/platform/apperr"

	"github.com/jackc/pgx/v5/pgconn"
)

const defaultCallTimeout = 5 * time.Second

// WithTimeout bounds a single store call. A non-positive timeout uses the default.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// MapError turns timeouts and connection failures into apperr.Unavailable.
// Other errors, including constraint violations, pass through unchanged.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperr.As(err); ok {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Unavailable("store call timed out", err).WithOp(op)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return apperr.Unavailable("store unavailable", err).WithOp(op)
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return apperr.Unavailable("store unavailable", err).WithOp(op)
	}

	return err
}
