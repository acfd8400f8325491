package arxiv

import (
	"testing"
	"time"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parsing time %q: %v", s, err)
	}
	return ts
}

func TestWindowQuery(t *testing.T) {
	start := mustTime(t, "2023-01-01T00:00:00Z")
	end := mustTime(t, "2023-03-31T23:59:59Z")

	t.Run("single category", func(t *testing.T) {
		w := Window{Categories: []string{"cs.CL"}, Start: start, End: end}
		got := w.Query()
		want := "cat:cs.CL AND submittedDate:[20230101000000 TO 20230331235959]"
		if got != want {
			t.Errorf("query = %q, want %q", got, want)
		}
	})

	t.Run("two categories are parenthesized", func(t *testing.T) {
		w := Window{Categories: []string{"cs.CL", "cs.LG"}, Start: start, End: end}
		got := w.Query()
		want := "(cat:cs.CL OR cat:cs.LG) AND submittedDate:[20230101000000 TO 20230331235959]"
		if got != want {
			t.Errorf("query = %q, want %q", got, want)
		}
	})

	t.Run("three categories", func(t *testing.T) {
		w := Window{Categories: []string{"cs.CL", "cs.LG", "stat.ML"}, Start: start, End: end}
		got := w.Query()
		want := "(cat:cs.CL OR cat:cs.LG OR cat:stat.ML) AND submittedDate:[20230101000000 TO 20230331235959]"
		if got != want {
			t.Errorf("query = %q, want %q", got, want)
		}
	})

	t.Run("non-UTC times are normalized", func(t *testing.T) {
		loc := time.FixedZone("UTC+2", 2*60*60)
		w := Window{
			Categories: []string{"cs.CL"},
			Start:      time.Date(2023, 1, 1, 2, 0, 0, 0, loc),
			End:        time.Date(2023, 1, 2, 2, 0, 0, 0, loc),
		}
		got := w.Query()
		want := "cat:cs.CL AND submittedDate:[20230101000000 TO 20230102000000]"
		if got != want {
			t.Errorf("query = %q, want %q", got, want)
		}
	})
}

func TestIDFromURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://arxiv.org/abs/2401.01234v1", "2401.01234v1"},
		{"http://arxiv.org/abs/cs/0112017v1", "0112017v1"},
		{"2401.01234v1", "2401.01234v1"},
	}
	for _, tt := range tests {
		if got := idFromURL(tt.in); got != tt.want {
			t.Errorf("idFromURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanText(t *testing.T) {
	in := "  A title\n  wrapped across\n  lines  "
	want := "A title wrapped across lines"
	if got := cleanText(in); got != want {
		t.Errorf("cleanText = %q, want %q", got, want)
	}
}
