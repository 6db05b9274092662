// Package dates turns free-form publish date text into calendar dates.
package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var (
	noisePrefix = regexp.MustCompile(`^(?i)(发布时间|发布日期|来源时间|日期|时间|published|posted|date|updated)\s*[:：]\s*`)
	strictDate  = regexp.MustCompile(`(\d{4})\s*[-/年.]\s*(\d{1,2})\s*[-/月.]\s*(\d{1,2})\s*日?`)
)

const minYear = 1970

// Normalizer resolves raw date strings in a fixed location.
type Normalizer struct {
	loc *time.Location
}

// NewNormalizer returns a Normalizer for loc (UTC when nil).
func NewNormalizer(loc *time.Location) *Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{loc: loc}
}

// Location returns the zone results are expressed in.
func (n *Normalizer) Location() *time.Location {
	if n == nil || n.loc == nil {
		return time.UTC
	}
	return n.loc
}

// Normalize parses raw into midnight of its calendar date. The bool is false when no date could be read.
func (n *Normalizer) Normalize(raw string) (time.Time, bool) {
	loc := n.Location()

	cleaned := StripNoise(raw)
	if cleaned == "" {
		return time.Time{}, false
	}

	if t, ok := parseStrict(cleaned, loc); ok {
		return t, true
	}

	t, err := dateparse.ParseIn(cleaned, loc)
	if err != nil || t.IsZero() || t.Year() < minYear {
		return time.Time{}, false
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), true
}

// StripNoise removes localized label prefixes and trailing separators around a date.
func StripNoise(raw string) string {
	s := strings.TrimSpace(raw)
	s = noisePrefix.ReplaceAllString(s, "")
	s = strings.TrimRight(s, " \t\r\n ·•")
	return strings.TrimSpace(s)
}

func parseStrict(s string, loc *time.Location) (time.Time, bool) {
	m := strictDate.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}

	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	if year < minYear || month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	// time.Date normalizes overflow, e.g. Feb 30 becomes Mar 1.
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}
