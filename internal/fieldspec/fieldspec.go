// Package fieldspec parses free-text, bullet-style column descriptions into
// typed field definitions.
//
// Accepted lines look like:
//
//	- age (18-80)
//	- customer_segment (Basic, Premium, VIP)
//	* notes (anything goes)
//
// Lines that do not follow the "bullet, label, parenthesized descriptor" shape
// are skipped. Parsing never fails; an empty result is valid.
package fieldspec

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Kind is the coarse type of a parsed field.
type Kind string

const (
	KindNumerical   Kind = "numerical"
	KindCategorical Kind = "categorical"
)

// Range is a numeric interval with inclusive bounds, kept as written: Min is
// the first number of the descriptor and may exceed Max.
type Range struct {
	Min float64
	Max float64
	// Integer is true when both bounds are whole numbers.
	Integer bool
}

// Field is one prospective dataset column parsed from a single input line.
//
// Range is set for KindNumerical. Values is used for KindCategorical and may be
// empty, in which case the caller supplies a fallback set at generation time.
type Field struct {
	Name   string
	Kind   Kind
	Range  *Range
	Values []string
}

var (
	lineRe     = regexp.MustCompile(`^\s*[-*]\s*([a-zA-Z0-9_\s]+?)\s*\(([^)]*)\)`)
	rangeRe    = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)\s*[-–]\s*(-?\d+(?:\.\d+)?)`)
	categoryRe = regexp.MustCompile(`^[a-zA-Z0-9_\- ]+$`)
	nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)
)

// ToSnake lowercases s, collapses every run of non-alphanumeric characters to a
// single underscore and strips leading/trailing underscores.
func ToSnake(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonAlnumRe.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// Parse extracts fields from text, one candidate per line, in input order.
//
// Names are unique within the result: a later line with an already-seen name
// replaces the earlier definition at its original position.
func Parse(text string) []Field {
	var out []Field
	pos := make(map[string]int)
	for _, line := range strings.Split(text, "\n") {
		f, ok := parseLine(strings.TrimRight(line, "\r"))
		if !ok {
			continue
		}
		if i, seen := pos[f.Name]; seen {
			out[i] = f
			continue
		}
		pos[f.Name] = len(out)
		out = append(out, f)
	}
	return out
}

func parseLine(line string) (Field, bool) {
	m := lineRe.FindStringSubmatch(line)
	if m == nil {
		return Field{}, false
	}
	name := ToSnake(m[1])
	if name == "" {
		return Field{}, false
	}
	desc := strings.TrimSpace(m[2])

	if r, ok := parseRange(desc); ok {
		return Field{Name: name, Kind: KindNumerical, Range: &r}, true
	}
	return Field{Name: name, Kind: KindCategorical, Values: parseValues(desc)}, true
}

func parseRange(desc string) (Range, bool) {
	m := rangeRe.FindStringSubmatch(desc)
	if m == nil {
		return Range{}, false
	}
	lo, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Range{}, false
	}
	hi, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return Range{}, false
	}
	return Range{
		Min:     lo,
		Max:     hi,
		Integer: isWhole(lo) && isWhole(hi),
	}, true
}

// parseValues returns the enumerated categories of a descriptor, or nil when
// the descriptor is free text rather than a plain comma-separated list.
func parseValues(desc string) []string {
	var values []string
	for _, tok := range strings.Split(desc, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if !categoryRe.MatchString(tok) {
			return nil
		}
		values = append(values, tok)
	}
	return values
}

func isWhole(f float64) bool {
	return !math.IsInf(f, 0) && f == math.Trunc(f)
}

// Numerical returns only the numeric fields of fs, preserving order.
func Numerical(fs []Field) []Field {
	var out []Field
	for _, f := range fs {
		if f.Kind == KindNumerical && f.Range != nil {
			out = append(out, f)
		}
	}
	return out
}
