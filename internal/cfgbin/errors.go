package cfgbin

import "errors"

var (
	ErrInvalidSize      = errors.New("invalid size")
	ErrLengthCheckFail  = errors.New("bin length check failed")
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrInvalidOffset    = errors.New("invalid package offset")
)

// Kind names used in logs, audit entries and HTTP responses.
const (
	KindInvalidSize      = "invalid_size"
	KindLengthCheckFail  = "length_check_fail"
	KindChecksumMismatch = "checksum_mismatch"
	KindInvalidOffset    = "invalid_offset"
	KindIO               = "io"
)

// Kind maps err to the short name of the decode failure it wraps. Errors
// that are not decode failures, such as a missing file, report KindIO; a nil
// error reports "".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidSize):
		return KindInvalidSize
	case errors.Is(err, ErrLengthCheckFail):
		return KindLengthCheckFail
	case errors.Is(err, ErrChecksumMismatch):
		return KindChecksumMismatch
	case errors.Is(err, ErrInvalidOffset):
		return KindInvalidOffset
	default:
		return KindIO
	}
}

// IsDecodeError reports whether err is one of the four decode failures.
func IsDecodeError(err error) bool {
	k := Kind(err)
	return k != "" && k != KindIO
}
