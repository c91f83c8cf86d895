package analytics

import (
	"testing"
	"time"
)

func TestBucketStart(t *testing.T) {
	in := time.Date(2026, 3, 5, 14, 37, 22, 0, time.UTC)
	want := time.Date(2026, 3, 5, 14, 0, 0, 0, time.UTC)
	if got := BucketStart(in); !got.Equal(want) {
		t.Errorf("BucketStart(%v) = %v, want %v", in, got, want)
	}
}

func TestValidateWindow(t *testing.T) {
	base := time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		after   time.Time
		before  time.Time
		wantErr bool
	}{
		{"exactly one hour", base, base.Add(time.Hour), false},
		{"too short", base, base.Add(30 * time.Minute), true},
		{"exactly thirty days", base, base.Add(30 * 24 * time.Hour), false},
		{"too long", base, base.Add(31 * 24 * time.Hour), true},
		{"before precedes after", base, base.Add(-time.Hour), true},
	}
	for _, tc := range cases {
		err := ValidateWindow(tc.after, tc.before)
		if (err != nil) != tc.wantErr {
			t.Errorf("%s: ValidateWindow() error = %v, wantErr %v", tc.name, err, tc.wantErr)
		}
	}
}
