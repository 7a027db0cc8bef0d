package static

import (
	"errors"
	"strconv"
	"strings"
)

// ErrRange marks an unsatisfiable or malformed Range header. The caller
// answers 416 with a full courtesy body.
var ErrRange = errors.New("static: unsatisfiable range")

// Range is a resolved byte range, both bounds inclusive.
type Range struct {
	Start int64
	End   int64
}

// Length returns the number of bytes the range covers.
func (r Range) Length() int64 { return r.End - r.Start + 1 }

// ParseRange resolves a Range header against a file size. The unit token
// is accepted and ignored, so any "<unit>=<start>-<end>" spelling parses
// like bytes. A missing start means the last N bytes; a missing end means
// to EOF. Multiple ranges collapse to the first.
func ParseRange(header string, size int64) (Range, error) {
	_, spec, ok := strings.Cut(header, "=")
	if !ok {
		return Range{}, ErrRange
	}
	spec, _, _ = strings.Cut(spec, ",")
	spec = strings.TrimSpace(spec)

	startStr, endStr, ok := strings.Cut(spec, "-")
	if !ok {
		return Range{}, ErrRange
	}
	startStr = strings.TrimSpace(startStr)
	endStr = strings.TrimSpace(endStr)

	if startStr == "" {
		// Suffix form: last N bytes.
		n, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || n <= 0 {
			return Range{}, ErrRange
		}
		if n > size {
			n = size
		}
		if size == 0 {
			return Range{}, ErrRange
		}
		return Range{Start: size - n, End: size - 1}, nil
	}

	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 {
		return Range{}, ErrRange
	}

	end := size - 1
	if endStr != "" {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil {
			return Range{}, ErrRange
		}
		if end > size-1 {
			end = size - 1
		}
	}

	if start > end || start >= size {
		return Range{}, ErrRange
	}
	return Range{Start: start, End: end}, nil
}
