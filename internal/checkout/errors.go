package checkout

import "fmt"

// ValidationError blocks a submission before any side effect. Only missing
// contact fields (or an empty order) produce it.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s is required", e.Field)
}

// PersistenceError means the order record could not be appended to the remote
// log. The cart is retained so the shopper can retry.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist order: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
