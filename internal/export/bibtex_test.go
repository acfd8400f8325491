package export

import (
	"strings"
	"testing"
	"time"

	"github.com/paperdock/paperdock/internal/store"
)

func testPaper() store.Paper {
	return store.Paper{
		ID:         1,
		Title:      "Attention Is Not All You Need",
		ArxivID:    "2403.01234",
		Published:  time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		Updated:    time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC),
		Summary:    "We revisit the transformer architecture.",
		Authors:    []string{"John Smith", "Jane Doe"},
		Categories: []string{"cs.CL", "cs.LG"},
		ArxivLink:  "http://arxiv.org/abs/2403.01234v1",
	}
}

func TestToBibTeX_BasicArticle(t *testing.T) {
	got := ToBibTeX(testPaper())

	// Check entry type and key
	if !strings.HasPrefix(got, "@article{smith2024arxiv2403.01234,") {
		t.Errorf("ToBibTeX() should start with citation key, got:\n%s", got)
	}

	// Check author format
	if !strings.Contains(got, `author = {John Smith and Jane Doe}`) {
		t.Errorf("ToBibTeX() should contain formatted authors, got:\n%s", got)
	}

	// Check title
	if !strings.Contains(got, `title = {Attention Is Not All You Need}`) {
		t.Errorf("ToBibTeX() should contain title, got:\n%s", got)
	}

	// Check year and month
	if !strings.Contains(got, `year = {2024}`) {
		t.Errorf("ToBibTeX() should contain year, got:\n%s", got)
	}
	if !strings.Contains(got, `month = {3}`) {
		t.Errorf("ToBibTeX() should contain month, got:\n%s", got)
	}

	// Check eprint fields
	if !strings.Contains(got, `eprint = {2403.01234}`) {
		t.Errorf("ToBibTeX() should contain eprint id, got:\n%s", got)
	}
	if !strings.Contains(got, `eprintclass = {cs.CL}`) {
		t.Errorf("ToBibTeX() should contain primary category, got:\n%s", got)
	}

	// Check abstract
	if !strings.Contains(got, `abstract = {We revisit the transformer architecture.}`) {
		t.Errorf("ToBibTeX() should contain abstract, got:\n%s", got)
	}
}

func TestToBibTeX_EscapesLatex(t *testing.T) {
	p := testPaper()
	p.Title = "P & NP: 100% of $problems_solved"

	got := ToBibTeX(p)

	if !strings.Contains(got, `title = {P \& NP: 100\% of \$problems\_solved}`) {
		t.Errorf("ToBibTeX() should escape LaTeX characters, got:\n%s", got)
	}
}

func TestToBibTeX_NoAuthors(t *testing.T) {
	p := testPaper()
	p.Authors = nil

	got := ToBibTeX(p)

	if strings.Contains(got, "author =") {
		t.Errorf("ToBibTeX() should omit the author field, got:\n%s", got)
	}
	if !strings.HasPrefix(got, "@article{unknown2024arxiv2403.01234,") {
		t.Errorf("ToBibTeX() should fall back to unknown surname, got:\n%s", got)
	}
}

func TestToBibTeXList(t *testing.T) {
	p1 := testPaper()
	p2 := testPaper()
	p2.ArxivID = "2403.05678"
	p2.Authors = []string{"Ada Lovelace"}

	got := ToBibTeXList([]store.Paper{p1, p2})

	if strings.Count(got, "@article{") != 2 {
		t.Errorf("ToBibTeXList() should contain two entries, got:\n%s", got)
	}
	if !strings.Contains(got, "lovelace2024arxiv2403.05678") {
		t.Errorf("ToBibTeXList() should contain the second key, got:\n%s", got)
	}
}
