package cronexpr

import (
	"fmt"
	"strconv"
	"strings"
)

// Schedule is the normalized form of a 5-field crontab expression. Each
// field is a bit set of allowed values; bit i means value i is allowed.
type Schedule struct {
	source string

	minute uint64 // 0..59
	hour   uint64 // 0..23
	dom    uint64 // 1..31
	month  uint64 // 1..12
	dow    uint64 // 0..6, Sunday=0 (7 accepted on input)

	// Star fields are unconstrained. Day-of-month and day-of-week combine
	// with OR only when both are explicitly constrained.
	domStar bool
	dowStar bool

	// "l" in the day-of-month field: last day of the month.
	domLast bool
}

// String returns the expression the schedule was parsed from.
func (s *Schedule) String() string { return s.source }

var aliases = map[string]string{
	"@yearly":   "0 0 1 1 *",
	"@annually": "0 0 1 1 *",
	"@monthly":  "0 0 1 * *",
	"@weekly":   "0 0 * * 0",
	"@daily":    "0 0 * * *",
	"@midnight": "0 0 * * *",
	"@hourly":   "0 * * * *",
}

var monthNames = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

var dowNames = map[string]int{
	"sun": 0, "mon": 1, "tue": 2, "wed": 3, "thu": 4, "fri": 5, "sat": 6,
}

type fieldSpec struct {
	name      string
	min, max  int
	names     map[string]int
	allowLast bool
}

var fields = [5]fieldSpec{
	{name: "minute", min: 0, max: 59},
	{name: "hour", min: 0, max: 23},
	{name: "day-of-month", min: 1, max: 31, allowLast: true},
	{name: "month", min: 1, max: 12, names: monthNames},
	// 0 and 7 both mean Sunday; 7 is folded onto 0 after parsing.
	{name: "day-of-week", min: 0, max: 7, names: dowNames},
}

// Parse parses a crontab expression (minute, hour, day-of-month, month,
// day-of-week) or one of the @-aliases into a Schedule. Parsing is where
// all grammar and range errors surface; Next never fails on a valid
// Schedule except through the iteration safety valve.
func Parse(expr string) (*Schedule, error) {
	source := strings.TrimSpace(expr)
	norm := strings.ToLower(source)
	if norm == "" {
		return nil, fmt.Errorf("cronexpr: empty expression")
	}
	if strings.HasPrefix(norm, "@") {
		expanded, ok := aliases[norm]
		if !ok {
			return nil, fmt.Errorf("cronexpr: unknown alias %q", source)
		}
		norm = expanded
	}

	parts := strings.Fields(norm)
	if len(parts) != 5 {
		return nil, fmt.Errorf("cronexpr: %q has %d fields, want 5", source, len(parts))
	}

	s := &Schedule{source: source}
	for i, part := range parts {
		fs := fields[i]
		bits, star, last, err := parseField(fs, part)
		if err != nil {
			return nil, fmt.Errorf("cronexpr: %q: %w", source, err)
		}
		switch i {
		case 0:
			s.minute = bits
		case 1:
			s.hour = bits
		case 2:
			s.dom, s.domStar, s.domLast = bits, star, last
		case 3:
			s.month = bits
		case 4:
			// Fold Sunday-as-7 onto 0.
			if bits&bit(7) != 0 {
				bits = (bits | bit(0)) &^ bit(7)
			}
			s.dow, s.dowStar = bits, star
		}
	}
	return s, nil
}

// MustParse is Parse but panics on error, for expressions fixed at compile
// time.
func MustParse(expr string) *Schedule {
	s, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return s
}

func bit(v int) uint64 { return 1 << uint(v) }

func allBits(min, max int) uint64 {
	var bits uint64
	for v := min; v <= max; v++ {
		bits |= bit(v)
	}
	return bits
}

func parseField(fs fieldSpec, expr string) (bits uint64, star, last bool, err error) {
	if expr == "*" {
		return allBits(fs.min, fs.max), true, false, nil
	}
	for _, part := range strings.Split(expr, ",") {
		if part == "" {
			return 0, false, false, fmt.Errorf("%s: empty list item", fs.name)
		}
		if part == "l" {
			if !fs.allowLast {
				return 0, false, false, fmt.Errorf("%s: %q is only valid in the day-of-month field", fs.name, part)
			}
			last = true
			continue
		}
		b, err := parseRange(fs, part)
		if err != nil {
			return 0, false, false, err
		}
		bits |= b
	}
	if bits == 0 && !last {
		return 0, false, false, fmt.Errorf("%s: empty value set", fs.name)
	}
	return bits, false, last, nil
}

// parseRange handles a single value, "a-b", "a-b/n" and "*/n".
func parseRange(fs fieldSpec, part string) (uint64, error) {
	rangeExpr := part
	step := 1
	if i := strings.IndexByte(part, '/'); i >= 0 {
		rangeExpr = part[:i]
		n, err := strconv.Atoi(part[i+1:])
		if err != nil || n < 1 {
			return 0, fmt.Errorf("%s: invalid step in %q", fs.name, part)
		}
		step = n
	}

	var lo, hi int
	switch {
	case rangeExpr == "*":
		lo, hi = fs.min, fs.max
	case strings.IndexByte(rangeExpr, '-') >= 0:
		i := strings.IndexByte(rangeExpr, '-')
		var err error
		if lo, err = valueOf(fs, rangeExpr[:i]); err != nil {
			return 0, err
		}
		if hi, err = valueOf(fs, rangeExpr[i+1:]); err != nil {
			return 0, err
		}
		if lo > hi {
			return 0, fmt.Errorf("%s: range %q is empty", fs.name, rangeExpr)
		}
	default:
		if step != 1 {
			return 0, fmt.Errorf("%s: step requires a range in %q", fs.name, part)
		}
		v, err := valueOf(fs, rangeExpr)
		if err != nil {
			return 0, err
		}
		lo, hi = v, v
	}

	var bits uint64
	for v := lo; v <= hi; v += step {
		bits |= bit(v)
	}
	return bits, nil
}

func valueOf(fs fieldSpec, token string) (int, error) {
	if fs.names != nil {
		if v, ok := fs.names[token]; ok {
			return v, nil
		}
	}
	v, err := strconv.Atoi(token)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid value %q", fs.name, token)
	}
	if v < fs.min || v > fs.max {
		return 0, fmt.Errorf("%s: value %d out of range %d-%d", fs.name, v, fs.min, fs.max)
	}
	return v, nil
}
