package telemetry

import "errors"

// ErrNilSummary indicates a nil summary payload was provided to a publisher.
var ErrNilSummary = errors.New("nil stream summary")
