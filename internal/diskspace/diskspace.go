// Package diskspace guards cache writes against filling the disk.
package diskspace

import (
	"fmt"
)

// InsufficientSpaceError reports that a download would not fit on the
// filesystem holding the cache.
type InsufficientSpaceError struct {
	Dir            string
	RequiredBytes  int64
	AvailableBytes int64
}

func (e *InsufficientSpaceError) Error() string {
	return fmt.Sprintf("not enough disk space in %s: need %d bytes, %d available",
		e.Dir, e.RequiredBytes, e.AvailableBytes)
}

// IsInsufficientSpace reports whether err is an InsufficientSpaceError.
func IsInsufficientSpace(err error) bool {
	_, ok := err.(*InsufficientSpaceError)
	return ok
}

// safetyFactor leaves headroom for the metadata file and whatever else
// shares the filesystem.
const safetyFactor = 1.1

// Check verifies that requiredBytes (plus headroom) fit in dir. Filesystems
// that cannot be statted pass the check; the write then fails on its own
// terms if space really is short.
func Check(dir string, requiredBytes int64) error {
	available, ok := available(dir)
	if !ok {
		return nil
	}

	needed := int64(float64(requiredBytes) * safetyFactor)
	if available < needed {
		return &InsufficientSpaceError{
			Dir:            dir,
			RequiredBytes:  needed,
			AvailableBytes: available,
		}
	}
	return nil
}
