package discovery

import (
	"fmt"
)

// NormalizationError is a malformed native record. The record is skipped and
// logged; the rest of the source's batch is still processed
type NormalizationError struct {
	Adapter  string
	NativeID string
	Err      error
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("could not normalize record %q from %q: %v", e.NativeID, e.Adapter, e.Err)
}

func (e *NormalizationError) Unwrap() error {
	return e.Err
}

// EngineError is a discovery-level failure outside the per-source fan-out.
// Per-adapter failures never surface as EngineError; they are contained as
// empty contributions
type EngineError struct {
	Op     string
	Reason string
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("discovery %s failed: %s", e.Op, e.Reason)
}

// NotFoundError is returned when a grant ID does not resolve to a record
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("grant %q not found", e.ID)
}
