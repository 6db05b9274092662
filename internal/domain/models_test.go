package domain

import (
	"errors"
	"testing"
	"time"
)

func TestArticleComplete(t *testing.T) {
	cases := []struct {
		a    Article
		want bool
	}{
		{Article{Title: "t", Content: "c"}, true},
		{Article{Title: " ", Content: "c"}, false},
		{Article{Title: "t", Content: "\n"}, false},
		{Article{}, false},
	}
	for _, tc := range cases {
		if got := tc.a.Complete(); got != tc.want {
			t.Fatalf("Complete(%+v) = %v", tc.a, got)
		}
	}
}

func TestArticleIDIsStable(t *testing.T) {
	a := ArticleID("https://example.com/a")
	if a != ArticleID("https://example.com/a") || len(a) != 40 {
		t.Fatalf("unexpected id %q", a)
	}
	if a == ArticleID("https://example.com/a/") {
		t.Fatalf("distinct URLs must not share an id")
	}
}

func TestRunLogLifecycle(t *testing.T) {
	start := time.Date(2024, 1, 1, 8, 0, 0, 0, time.FixedZone("X", 3600))
	run := NewRunLog("site", start)
	if run.ID == "" || run.Source != "site" || run.StartedAt.Location() != time.UTC {
		t.Fatalf("unexpected run %+v", run)
	}
	if run.Duration() != 0 {
		t.Fatalf("open run must report zero duration")
	}

	done := run.Finish(RunStatusFailed, errors.New("boom"), start.Add(90*time.Second))
	if done.Status != RunStatusFailed || done.ErrorMessage != "boom" || done.Duration() != 90*time.Second {
		t.Fatalf("unexpected finished run %+v", done)
	}
	if run.Status != "" {
		t.Fatalf("Finish must not mutate the original")
	}
	if other := NewRunLog("site", start); other.ID == run.ID {
		t.Fatalf("run ids must be unique")
	}
}
