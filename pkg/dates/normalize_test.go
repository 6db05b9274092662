package dates

import (
	"testing"
	"time"
)

func TestNormalizeKnownFormats(t *testing.T) {
	n := NewNormalizer(time.UTC)

	cases := []struct {
		raw  string
		want time.Time
	}{
		{raw: "2024年3月5日", want: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		{raw: "发布时间：2023-11-02 ·", want: time.Date(2023, 11, 2, 0, 0, 0, 0, time.UTC)},
		{raw: "Published: 2022/01/09", want: time.Date(2022, 1, 9, 0, 0, 0, 0, time.UTC)},
		{raw: "  2021.12.31 14:05  ", want: time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC)},
		{raw: "March 7, 2020", want: time.Date(2020, 3, 7, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		got, ok := n.Normalize(tc.raw)
		if !ok {
			t.Fatalf("Normalize(%q) returned no date", tc.raw)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("Normalize(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	n := NewNormalizer(nil)

	for _, raw := range []string{"not a date", "", "   ", "日期：", "2023-02-30"} {
		if got, ok := n.Normalize(raw); ok {
			t.Fatalf("Normalize(%q) = %v, expected no date", raw, got)
		}
	}
}

func TestNormalizeUsesConfiguredLocation(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*60*60)
	n := NewNormalizer(loc)

	got, ok := n.Normalize("2024-06-01")
	if !ok {
		t.Fatalf("expected a date")
	}
	if got.Location() != loc {
		t.Fatalf("expected location %v, got %v", loc, got.Location())
	}
	if got.Hour() != 0 || got.Day() != 1 {
		t.Fatalf("expected midnight on the 1st, got %v", got)
	}
}

func TestStripNoise(t *testing.T) {
	if got := StripNoise("日期: 2024-01-01 • "); got != "2024-01-01" {
		t.Fatalf("StripNoise returned %q", got)
	}
	if got := StripNoise("Updated：Jan 2, 2024"); got != "Jan 2, 2024" {
		t.Fatalf("StripNoise returned %q", got)
	}
}
