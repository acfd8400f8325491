package arxiv

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:opensearch="http://a9.com/-/spec/opensearch/1.1/">
  <title>ArXiv Query Results</title>
  <opensearch:totalResults>42</opensearch:totalResults>
  <opensearch:startIndex>0</opensearch:startIndex>
  <opensearch:itemsPerPage>2</opensearch:itemsPerPage>
  <entry>
    <id>http://arxiv.org/abs/2401.01234v1</id>
    <title>Attention Is Still
  All You Need</title>
    <published>2024-01-02T12:00:00Z</published>
    <updated>2024-01-03T12:00:00Z</updated>
    <summary>We revisit attention
  mechanisms.</summary>
    <author><name>Ada Lovelace</name></author>
    <author><name>Alan Turing</name></author>
    <category term="cs.CL"/>
    <category term="cs.LG"/>
    <link href="http://arxiv.org/abs/2401.01234v1" rel="alternate" type="text/html"/>
    <link title="pdf" href="http://arxiv.org/pdf/2401.01234v1" rel="related" type="application/pdf"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2401.05678v2</id>
    <title>Second Paper</title>
    <published>2024-01-04T09:00:00Z</published>
    <updated>2024-01-05T09:00:00Z</updated>
    <summary>Another abstract.</summary>
    <author><name>Grace Hopper</name></author>
    <category term="cs.CL"/>
    <link href="http://arxiv.org/abs/2401.05678v2" rel="alternate" type="text/html"/>
  </entry>
</feed>`

const errorFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>ArXiv Query Error</title>
  <entry>
    <id>http://export.arxiv.org/api/errors</id>
    <title>Error</title>
    <summary>malformed query</summary>
  </entry>
</feed>`

// testClient returns a client pointed at a fake server with no request spacing.
func testClient(srvURL string) *Client {
	return NewClient(WithBaseURL(srvURL), WithRequestInterval(0))
}

func testWindow() Window {
	return Window{
		Categories: []string{"cs.CL"},
		Start:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:        time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC),
		Offset:     0,
		PageSize:   100,
	}
}

func TestSearchParsesFeed(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("search_query")
		w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	res, err := c.Search(context.Background(), testWindow())
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if gotQuery != "cat:cs.CL AND submittedDate:[20240101000000 TO 20240331235959]" {
		t.Errorf("unexpected search_query: %q", gotQuery)
	}
	if res.Total != 42 {
		t.Errorf("Total = %d, want 42", res.Total)
	}
	if len(res.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(res.Entries))
	}

	e := res.Entries[0]
	if e.ArxivID != "2401.01234v1" {
		t.Errorf("ArxivID = %q", e.ArxivID)
	}
	if e.Title != "Attention Is Still All You Need" {
		t.Errorf("Title = %q", e.Title)
	}
	if e.Summary != "We revisit attention mechanisms." {
		t.Errorf("Summary = %q", e.Summary)
	}
	if len(e.Authors) != 2 || e.Authors[0] != "Ada Lovelace" || e.Authors[1] != "Alan Turing" {
		t.Errorf("Authors = %v", e.Authors)
	}
	if len(e.Categories) != 2 || e.Categories[0] != "cs.CL" {
		t.Errorf("Categories = %v", e.Categories)
	}
	if e.PDFLink != "http://arxiv.org/pdf/2401.01234v1" {
		t.Errorf("PDFLink = %q", e.PDFLink)
	}
	if e.AbstractLink != "http://arxiv.org/abs/2401.01234v1" {
		t.Errorf("AbstractLink = %q", e.AbstractLink)
	}
	if !e.Published.Before(e.Updated) {
		t.Errorf("published %v not before updated %v", e.Published, e.Updated)
	}

	// The second entry has no explicit pdf link; it should be derived.
	if got := res.Entries[1].PDFLink; got != "http://arxiv.org/pdf/2401.05678v2" {
		t.Errorf("derived PDFLink = %q", got)
	}
}

func TestSearchMissingTotalIsUnknown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(errorFeed))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	res, err := c.Search(context.Background(), testWindow())
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if res.Total != TotalUnknown {
		t.Errorf("Total = %d, want TotalUnknown", res.Total)
	}
}

func TestSearchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	res, err := c.Search(context.Background(), testWindow())
	if err == nil {
		t.Fatal("expected error for HTTP 503")
	}
	if res.Total != TotalUnknown {
		t.Errorf("Total = %d, want TotalUnknown on error", res.Total)
	}
}

func TestSearchMalformedXML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<feed><entry></feed>"))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	if _, err := c.Search(context.Background(), testWindow()); err == nil {
		t.Fatal("expected error for malformed XML")
	}
}

func TestSearchValidation(t *testing.T) {
	c := testClient("http://localhost:0")

	w := testWindow()
	w.Categories = nil
	if _, err := c.Search(context.Background(), w); err == nil {
		t.Error("expected error for empty category set")
	}

	w = testWindow()
	w.PageSize = 0
	if _, err := c.Search(context.Background(), w); err == nil {
		t.Error("expected error for zero page size")
	}

	w = testWindow()
	w.PageSize = MaxPageSize + 1
	if _, err := c.Search(context.Background(), w); err == nil {
		t.Error("expected error for oversized page")
	}
}
