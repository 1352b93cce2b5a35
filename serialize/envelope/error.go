package envelope

import "errors"

// ErrMalformedEnvelope is returned for truncated input, invalid flags,
// length mismatches and trailing bytes
var ErrMalformedEnvelope = errors.New("envelope: malformed")

// ErrEncoding is returned when a field overflows its length prefix
var ErrEncoding = errors.New("envelope: field too long")
