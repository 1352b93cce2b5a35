package cp

import "errors"

// ErrEncoding is returned when a field does not fit its wire width
var ErrEncoding = errors.New("cp: field out of range")

// ErrDecoding is returned for truncated or malformed input
var ErrDecoding = errors.New("cp: malformed input")
