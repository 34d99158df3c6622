package timeutil

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 30, 0, 0, time.UTC)
}

func TestAddStepMonthClamping(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		start  time.Time
		n      int
		anchor int
		want   time.Time
	}{
		{name: "jan31 to feb non-leap", start: date(2023, time.January, 31), n: 1, anchor: 31, want: date(2023, time.February, 28)},
		{name: "jan31 to feb leap", start: date(2024, time.January, 31), n: 1, anchor: 31, want: date(2024, time.February, 29)},
		{name: "mar31 to apr30", start: date(2024, time.March, 31), n: 1, anchor: 31, want: date(2024, time.April, 30)},
		{name: "anchor restored after clamp", start: date(2024, time.February, 29), n: 1, anchor: 31, want: date(2024, time.March, 31)},
		{name: "year carry", start: date(2024, time.November, 15), n: 3, anchor: 15, want: date(2025, time.February, 15)},
		{name: "plain mid-month", start: date(2024, time.June, 10), n: 1, anchor: 10, want: date(2024, time.July, 10)},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := AddStep(tt.start, Month, tt.n, tt.anchor)
			if !got.Equal(tt.want) {
				t.Fatalf("AddStep(%v, Month, %d, %d) = %v, want %v", tt.start, tt.n, tt.anchor, got, tt.want)
			}
		})
	}
}

func TestAddStepSimpleUnits(t *testing.T) {
	t.Parallel()
	base := date(2024, time.May, 1)
	if got := AddStep(base, Second, 90, 0); !got.Equal(base.Add(90 * time.Second)) {
		t.Fatalf("second step = %v", got)
	}
	if got := AddStep(base, Minute, 2, 0); !got.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("minute step = %v", got)
	}
	if got := AddStep(base, Hour, 5, 0); !got.Equal(base.Add(5 * time.Hour)) {
		t.Fatalf("hour step = %v", got)
	}
	if got := AddStep(base, Day, 2, 0); !got.Equal(date(2024, time.May, 3)) {
		t.Fatalf("day step = %v", got)
	}
	if got := AddStep(base, Week, 1, 0); !got.Equal(date(2024, time.May, 8)) {
		t.Fatalf("week step = %v", got)
	}
}

func TestParseEvery(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw  string
		n    int
		unit Unit
	}{
		{"2days", 2, Day},
		{"day", 1, Day},
		{"minute", 1, Minute},
		{"15minutes", 15, Minute},
		{"1week", 1, Week},
		{"3months", 3, Month},
		{"10seconds", 10, Second},
		{"Hour", 1, Hour},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.raw, func(t *testing.T) {
			n, unit, err := ParseEvery(tt.raw)
			if err != nil {
				t.Fatalf("ParseEvery(%q) error: %v", tt.raw, err)
			}
			if n != tt.n || unit != tt.unit {
				t.Fatalf("ParseEvery(%q) = (%d, %v), want (%d, %v)", tt.raw, n, unit, tt.n, tt.unit)
			}
		})
	}

	for _, bad := range []string{"", "fortnight", "0days", "-2days", "2", "2 days"} {
		if _, _, err := ParseEvery(bad); err == nil {
			t.Fatalf("ParseEvery(%q): expected error", bad)
		}
	}
}

func TestLastDay(t *testing.T) {
	t.Parallel()
	if d := LastDay(2023, time.February); d != 28 {
		t.Fatalf("LastDay(2023, Feb) = %d", d)
	}
	if d := LastDay(2024, time.February); d != 29 {
		t.Fatalf("LastDay(2024, Feb) = %d", d)
	}
	if d := LastDay(2024, time.December); d != 31 {
		t.Fatalf("LastDay(2024, Dec) = %d", d)
	}
}

func TestUnixFloatRoundTrip(t *testing.T) {
	t.Parallel()
	base := time.Date(2024, time.February, 29, 2, 30, 0, 250000000, time.UTC)
	ts := UnixFloat(base)
	got := FromUnixFloat(ts)
	if got.Sub(base) > time.Microsecond || base.Sub(got) > time.Microsecond {
		t.Fatalf("round trip drifted: %v vs %v", got, base)
	}

	// Offset-aware inputs land in the same linear space.
	loc := time.FixedZone("plus7", 7*3600)
	if UnixFloat(base.In(loc)) != ts {
		t.Fatalf("aware conversion changed the timestamp")
	}
}
