package stream

import (
	"testing"
)

func TestParseRange(t *testing.T) {
	const size = 1000

	tests := []struct {
		name   string
		header string
		want   *ByteRange
	}{
		{"no_header", "", nil},
		{"open_ended", "bytes=0-", &ByteRange{0, 999}},
		{"explicit", "bytes=100-199", &ByteRange{100, 199}},
		{"single_byte", "bytes=42-42", &ByteRange{42, 42}},
		{"suffix_window", "bytes=900-", &ByteRange{900, 999}},
		{"end_clamped", "bytes=500-5000", &ByteRange{500, 999}},
		{"end_at_size", "bytes=0-1000", &ByteRange{0, 999}},
		{"start_at_size", "bytes=1000-", nil},
		{"start_past_size", "bytes=2000-3000", nil},
		{"end_before_start", "bytes=200-100", nil},
		{"missing_start", "bytes=-500", nil},
		{"negative_start", "bytes=-1-10", nil},
		{"non_numeric", "bytes=abc-", nil},
		{"wrong_unit", "items=0-10", nil},
		{"no_unit", "0-10", nil},
		{"multi_range", "bytes=0-10,20-30", nil},
		{"no_dash", "bytes=100", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseRange(tt.header, size)
			if tt.want == nil {
				if got != nil {
					t.Fatalf("ParseRange(%q) = %+v, want nil", tt.header, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ParseRange(%q) = nil, want %+v", tt.header, tt.want)
			}
			if *got != *tt.want {
				t.Errorf("ParseRange(%q) = %+v, want %+v", tt.header, got, tt.want)
			}
		})
	}
}

func TestParseRangeEmptyStream(t *testing.T) {
	if got := ParseRange("bytes=0-", 0); got != nil {
		t.Errorf("ParseRange on empty stream = %+v, want nil", got)
	}
}

func TestByteRangeLength(t *testing.T) {
	r := ByteRange{Start: 10, End: 19}
	if r.Length() != 10 {
		t.Errorf("Length() = %d, want 10", r.Length())
	}
}
