package cronexpr

import (
	"errors"
	"testing"
	"time"
)

func mustNext(t *testing.T, expr string, base time.Time) time.Time {
	t.Helper()
	s, err := Parse(expr)
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", expr, err)
	}
	next, err := s.Next(base)
	if err != nil {
		t.Fatalf("Next(%q, %v) error: %v", expr, base, err)
	}
	return next
}

func TestNext(t *testing.T) {
	t.Parallel()
	utc := func(y int, m time.Month, d, hh, mm int) time.Time {
		return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
	}

	tests := []struct {
		name string
		expr string
		base time.Time
		want time.Time
	}{
		{
			name: "last day of leap february",
			expr: "30 2 l * *",
			base: utc(2024, time.February, 15, 0, 0),
			want: utc(2024, time.February, 29, 2, 30),
		},
		{
			name: "last day of plain february",
			expr: "30 2 l * *",
			base: utc(2023, time.February, 15, 0, 0),
			want: utc(2023, time.February, 28, 2, 30),
		},
		{
			name: "last day rolls to next month after passing",
			expr: "30 2 l * *",
			base: utc(2024, time.February, 29, 3, 0),
			want: utc(2024, time.March, 31, 2, 30),
		},
		{
			name: "every minute advances one minute",
			expr: "* * * * *",
			base: utc(2024, time.May, 1, 12, 0),
			want: utc(2024, time.May, 1, 12, 1),
		},
		{
			name: "sub-minute base truncated",
			expr: "* * * * *",
			base: time.Date(2024, time.May, 1, 12, 0, 30, 0, time.UTC),
			want: utc(2024, time.May, 1, 12, 1),
		},
		{
			name: "hourly from mid hour",
			expr: "0 * * * *",
			base: utc(2024, time.May, 1, 12, 30),
			want: utc(2024, time.May, 1, 13, 0),
		},
		{
			name: "daily rolls past midnight",
			expr: "15 8 * * *",
			base: utc(2024, time.May, 1, 9, 0),
			want: utc(2024, time.May, 2, 8, 15),
		},
		{
			name: "month jump",
			expr: "0 0 1 7 *",
			base: utc(2024, time.March, 10, 0, 0),
			want: utc(2024, time.July, 1, 0, 0),
		},
		{
			name: "year carry",
			expr: "0 0 1 1 *",
			base: utc(2024, time.June, 1, 0, 0),
			want: utc(2025, time.January, 1, 0, 0),
		},
		{
			name: "weekday range",
			expr: "0 9 * * mon-fri",
			base: utc(2024, time.May, 3, 10, 0), // Friday after 9
			want: utc(2024, time.May, 6, 9, 0),  // Monday
		},
		{
			name: "feb 29 found across years",
			expr: "0 0 29 2 *",
			base: utc(2024, time.March, 1, 0, 0),
			want: utc(2028, time.February, 29, 0, 0),
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := mustNext(t, tt.expr, tt.base)
			if !got.Equal(tt.want) {
				t.Fatalf("Next(%q, %v) = %v, want %v", tt.expr, tt.base, got, tt.want)
			}
		})
	}
}

// Day-of-month and day-of-week combine with OR when both are constrained:
// "0 0 1 * 1" fires at midnight on the 1st and at midnight every Monday.
func TestNextDomDowOr(t *testing.T) {
	t.Parallel()
	s := MustParse("0 0 1 * 1")

	// 2024-05-31 is a Friday; the next match is Sat June 1st (dom).
	base := time.Date(2024, time.May, 31, 12, 0, 0, 0, time.UTC)
	next, err := s.Next(base)
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC); !next.Equal(want) {
		t.Fatalf("first = %v, want %v (1st of month, not a Monday)", next, want)
	}

	// From there the next match is Monday June 3rd (dow).
	next, err = s.Next(next)
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC); !next.Equal(want) {
		t.Fatalf("second = %v, want %v (Monday, not the 1st)", next, want)
	}
}

// When only one of dom/dow is constrained, the other must not widen the
// match.
func TestNextDowOnly(t *testing.T) {
	t.Parallel()
	s := MustParse("0 0 * * 1")
	base := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC) // Saturday the 1st
	next, err := s.Next(base)
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC); !next.Equal(want) {
		t.Fatalf("next = %v, want %v", next, want)
	}
}

func TestNextStrictlyIncreasing(t *testing.T) {
	t.Parallel()
	exprs := []string{"* * * * *", "*/5 * * * *", "0 0 l * *", "30 2 1 * 1", "@hourly"}
	for _, expr := range exprs {
		expr := expr
		t.Run(expr, func(t *testing.T) {
			s := MustParse(expr)
			cur := time.Date(2024, time.January, 31, 23, 58, 0, 0, time.UTC)
			for i := 0; i < 50; i++ {
				next, err := s.Next(cur)
				if err != nil {
					t.Fatalf("Next(%v) error: %v", cur, err)
				}
				if !next.After(cur) {
					t.Fatalf("Next(%v) = %v, not strictly after", cur, next)
				}
				cur = next
			}
		})
	}
}

func TestNextUnsatisfiable(t *testing.T) {
	t.Parallel()
	s := MustParse("0 0 31 2 *") // February 31st never exists
	_, err := s.Next(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
	if !errors.Is(err, ErrUnsatisfiable) {
		t.Fatalf("err = %v, want ErrUnsatisfiable", err)
	}
}

func TestNextKeepsLocation(t *testing.T) {
	t.Parallel()
	loc := time.FixedZone("plus7", 7*3600)
	base := time.Date(2024, time.May, 1, 23, 50, 0, 0, loc)
	next := mustNext(t, "0 0 * * *", base)
	if next.Location() != loc {
		t.Fatalf("location = %v, want %v", next.Location(), loc)
	}
	if want := time.Date(2024, time.May, 2, 0, 0, 0, 0, loc); !next.Equal(want) {
		t.Fatalf("next = %v, want %v", next, want)
	}
}
