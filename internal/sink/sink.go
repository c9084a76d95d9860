package sink

import (
	"context"
	"fmt"
)

// RowError reports a failure for a single record within a batch.
type RowError struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %s", e.Index, e.Reason)
}

// Sink is the external destination for generated records. Deliver sends one
// batch to the named stream and returns per-row errors, or a non-nil error
// when the call as a whole failed. A nil, empty result means the batch was
// accepted. Delivery is best effort; callers do not retry.
type Sink interface {
	Deliver(ctx context.Context, stream string, records []interface{}) ([]RowError, error)
	Close(ctx context.Context) error
}
