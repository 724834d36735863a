package diskspace

import (
	"math"
	"testing"
)

func TestCheckSmallRequirementPasses(t *testing.T) {
	if err := Check(t.TempDir(), 1024); err != nil {
		t.Fatalf("Check(1KB) = %v", err)
	}
}

func TestCheckImpossibleRequirementFails(t *testing.T) {
	err := Check(t.TempDir(), math.MaxInt64/2)
	if err == nil {
		t.Skip("filesystem stats unavailable on this platform")
	}
	if !IsInsufficientSpace(err) {
		t.Fatalf("err = %v, want InsufficientSpaceError", err)
	}
}

func TestCheckUnstattableDirPasses(t *testing.T) {
	// A path that cannot be statted must not block the download.
	if err := Check("/definitely/not/a/real/path", 1024); err != nil {
		t.Fatalf("Check on bogus path = %v", err)
	}
}
