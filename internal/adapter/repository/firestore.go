package repository

import (
	"context"
	stderrors "errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"skillswap/pkg/errors"
)

// storeError maps Firestore failures onto the application taxonomy. Timeouts
// and outages surface as UNAVAILABLE so callers can tell the client to retry
// instead of treating the write as lost or, worse, as committed.
func storeError(op string, err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Unavailable(fmt.Sprintf("durable store timed out during %s", op), err)
	}
	switch status.Code(err) {
	case codes.DeadlineExceeded, codes.Unavailable:
		return errors.Unavailable(fmt.Sprintf("durable store unavailable during %s", op), err)
	}
	return errors.Internal(fmt.Sprintf("Failed to %s", op), err)
}
