package analysis

import "github.com/google/uuid"

// NewRunID returns a fresh identifier for one analyze invocation, printed in
// the summary header so multiple runs against the same archive can be told
// apart. It is not added to the structured log context.
func NewRunID() string { return uuid.NewString() }
