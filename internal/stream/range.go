// Package stream resolves a song plus an optional Range header into the
// exact byte window to serve, fetching from the blob store and transparently
// decrypting envelope objects.
package stream

import (
	"strconv"
	"strings"
)

// ByteRange is an inclusive byte window into the playable stream.
type ByteRange struct {
	Start int64
	End   int64
}

// Length returns the number of bytes in the window.
func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}

// ParseRange parses a "bytes=<start>-<end>" header against a stream of
// totalSize bytes. It returns nil whenever the correct reaction is a
// full-file 200 response:
//
//   - no header at all
//   - any unit other than "bytes", or a multi-range request
//   - a start that is not a valid non-negative integer
//   - a start at or beyond totalSize (served as the full file rather than a
//     416, a deliberate policy carried over from the system this replaces)
//
// A missing end defaults to totalSize-1; an end past the stream is clamped.
func ParseRange(header string, totalSize int64) *ByteRange {
	if header == "" || totalSize <= 0 {
		return nil
	}

	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return nil
	}
	if strings.Contains(spec, ",") {
		// No multi-range support.
		return nil
	}

	startStr, endStr, ok := strings.Cut(spec, "-")
	if !ok {
		return nil
	}

	start, err := strconv.ParseInt(strings.TrimSpace(startStr), 10, 64)
	if err != nil || start < 0 {
		return nil
	}
	if start >= totalSize {
		return nil
	}

	end := totalSize - 1
	if trimmed := strings.TrimSpace(endStr); trimmed != "" {
		end, err = strconv.ParseInt(trimmed, 10, 64)
		if err != nil || end < start {
			return nil
		}
		if end >= totalSize {
			end = totalSize - 1
		}
	}

	return &ByteRange{Start: start, End: end}
}
