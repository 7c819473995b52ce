package cronexpr

import (
	"strconv"
	"strings"
)

// Field identifies one of the five positions of a cron expression.
type Field int

const (
	Minute Field = iota
	Hour
	DayOfMonth
	Month
	DayOfWeek
)

type bounds struct {
	name     string
	min, max int
	// maxInput is the largest literal accepted; day-of-week takes 7 as Sunday.
	maxInput int
	names    map[string]int
}

var fieldBounds = [...]bounds{
	Minute:     {name: "minute", min: 0, max: 59, maxInput: 59},
	Hour:       {name: "hour", min: 0, max: 23, maxInput: 23},
	DayOfMonth: {name: "day-of-month", min: 1, max: 31, maxInput: 31},
	Month: {name: "month", min: 1, max: 12, maxInput: 12, names: map[string]int{
		"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
		"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
	}},
	DayOfWeek: {name: "day-of-week", min: 0, max: 6, maxInput: 7, names: map[string]int{
		"sun": 0, "mon": 1, "tue": 2, "wed": 3, "thu": 4, "fri": 5, "sat": 6,
	}},
}

func (f Field) String() string {
	if f < Minute || f > DayOfWeek {
		return "field(" + strconv.Itoa(int(f)) + ")"
	}
	return fieldBounds[f].name
}

// Min returns the smallest value of the field.
func (f Field) Min() int { return fieldBounds[f].min }

// Max returns the largest value of the field.
func (f Field) Max() int { return fieldBounds[f].max }

// Set is the set of values a field matches. Bit i is set when value i matches.
type Set uint64

// Has reports whether v is in the set.
func (s Set) Has(v int) bool {
	return v >= 0 && v < 64 && s&(1<<uint(v)) != 0
}

// Values returns the members of the set in ascending order.
func (s Set) Values() []int {
	var out []int
	for v := 0; v < 64; v++ {
		if s.Has(v) {
			out = append(out, v)
		}
	}
	return out
}

// Full reports whether the set covers the whole range of f.
func (s Set) Full(f Field) bool {
	return s == fullSet(f)
}

func fullSet(f Field) Set {
	var s Set
	for v := f.Min(); v <= f.Max(); v++ {
		s |= 1 << uint(v)
	}
	return s
}

// ParseField parses the text of one field into the set of values it matches.
//
// Each comma-separated atom is one of `*`, `*/n`, `a`, `a-b` or `a-b/n`; the
// atoms are combined by union. Month and day-of-week also accept three-letter
// English names wherever a number is allowed.
func ParseField(f Field, text string) (Set, error) {
	if f < Minute || f > DayOfWeek {
		return 0, fieldErr(f, text, "unknown field")
	}
	if text == "" {
		return 0, fieldErr(f, text, "empty definition")
	}

	var set Set
	for _, atom := range strings.Split(text, ",") {
		bits, err := parseAtom(f, text, atom)
		if err != nil {
			return 0, err
		}
		set |= bits
	}
	return set, nil
}

func parseAtom(f Field, text, atom string) (Set, error) {
	b := fieldBounds[f]
	if atom == "" {
		return 0, fieldErr(f, text, "empty list element")
	}

	rangePart, stepPart, hasStep := strings.Cut(atom, "/")
	step := 1
	if hasStep {
		n, ok := parseNumber(stepPart)
		if !ok {
			return 0, fieldErr(f, text, "bad step %q", stepPart)
		}
		if n <= 0 {
			return 0, fieldErr(f, text, "step must be positive, got %d", n)
		}
		step = n
	}

	var lo, hi int
	switch {
	case rangePart == "*":
		lo, hi = b.min, b.max
	case strings.Contains(rangePart, "-"):
		startText, endText, _ := strings.Cut(rangePart, "-")
		start, err := b.value(f, text, startText)
		if err != nil {
			return 0, err
		}
		end, err := b.value(f, text, endText)
		if err != nil {
			return 0, err
		}
		if start > end {
			return 0, fieldErr(f, text, "range start %d beyond end %d", start, end)
		}
		lo, hi = start, end
	default:
		if hasStep {
			return 0, fieldErr(f, text, "step needs a range or *")
		}
		v, err := b.value(f, text, rangePart)
		if err != nil {
			return 0, err
		}
		lo, hi = v, v
	}

	var set Set
	for v := lo; v <= hi; v += step {
		set |= 1 << uint(b.fold(f, v))
	}
	return set, nil
}

func (b bounds) value(f Field, text, s string) (int, error) {
	v, ok := parseNumber(s)
	if !ok {
		named, found := b.names[strings.ToLower(s)]
		if !found {
			return 0, fieldErr(f, text, "bad value %q", s)
		}
		v = named
	}
	if v < b.min || v > b.maxInput {
		return 0, fieldErr(f, text, "value %d out of range %d-%d", v, b.min, b.maxInput)
	}
	return v, nil
}

func (b bounds) fold(f Field, v int) int {
	if f == DayOfWeek && v == 7 {
		return 0
	}
	return v
}

// parseNumber accepts unsigned decimal integers only.
func parseNumber(s string) (int, bool) {
	if s == "" || len(s) > 4 {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
