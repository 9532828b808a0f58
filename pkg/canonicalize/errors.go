package canonicalize

import "errors"

// ErrSerialization is returned when a value contains data that cannot be
// represented in canonical JSON (e.g. NaN, +/-Inf, cyclic structures).
var ErrSerialization = errors.New("value is not canonically representable")
