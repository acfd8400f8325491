package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// BaseURL is the arXiv search API endpoint.
	BaseURL = "http://export.arxiv.org/api/query"

	// MaxPageSize is the server-enforced per-page cap.
	MaxPageSize = 2000

	// DefaultTimeout is the HTTP request timeout.
	DefaultTimeout = 60 * time.Second

	// DefaultRequestInterval is the politeness interval between requests.
	// The API terms ask for no more than one request every three seconds.
	DefaultRequestInterval = 3 * time.Second
)

// Client is a rate-limited HTTP client for the arXiv search API.
// It keeps no state between calls.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithRequestInterval sets the minimum spacing between requests.
func WithRequestInterval(d time.Duration) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// NewClient creates a new arXiv API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Every(DefaultRequestInterval), 1),
		baseURL:    BaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// feed mirrors the Atom response shape. totalResults is a pointer so that
// its absence (an error response) is distinguishable from a zero count.
type feed struct {
	Total   *int        `xml:"totalResults"`
	Entries []feedEntry `xml:"entry"`
}

type feedEntry struct {
	Title     string    `xml:"title"`
	ID        string    `xml:"id"`
	Published time.Time `xml:"published"`
	Updated   time.Time `xml:"updated"`
	Summary   string    `xml:"summary"`
	Authors   []struct {
		Name string `xml:"name"`
	} `xml:"author"`
	Categories []struct {
		Term string `xml:"term,attr"`
	} `xml:"category"`
	Links []struct {
		HRef  string `xml:"href,attr"`
		Title string `xml:"title,attr"`
		Rel   string `xml:"rel,attr"`
	} `xml:"link"`
}

// Search issues one page request for the given window and parses the
// response. A response without a totalResults element yields
// Result.Total == TotalUnknown rather than an error, so callers can
// apply their retry policy uniformly.
func (c *Client) Search(ctx context.Context, w Window) (Result, error) {
	if len(w.Categories) == 0 {
		return Result{Total: TotalUnknown}, fmt.Errorf("search: empty category set")
	}
	if w.PageSize <= 0 || w.PageSize > MaxPageSize {
		return Result{Total: TotalUnknown}, fmt.Errorf("search: page size %d out of range", w.PageSize)
	}

	return c.SearchRaw(ctx, w.RawQuery())
}

// SearchRaw issues one page request from an already-encoded query
// string, as recorded in the failed-query log, and parses the response.
func (c *Client) SearchRaw(ctx context.Context, rawQuery string) (Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Result{Total: TotalUnknown}, fmt.Errorf("rate limiter: %w", err)
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return Result{Total: TotalUnknown}, fmt.Errorf("parsing base URL: %w", err)
	}
	u.RawQuery = rawQuery

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Result{Total: TotalUnknown}, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{Total: TotalUnknown}, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{Total: TotalUnknown}, fmt.Errorf("arxiv returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Total: TotalUnknown}, fmt.Errorf("reading response: %w", err)
	}

	var f feed
	if err := xml.Unmarshal(data, &f); err != nil {
		return Result{Total: TotalUnknown}, fmt.Errorf("parsing feed: %w", err)
	}

	res := Result{Total: TotalUnknown}
	if f.Total != nil {
		res.Total = *f.Total
	}

	res.Entries = make([]Entry, 0, len(f.Entries))
	for _, fe := range f.Entries {
		res.Entries = append(res.Entries, parseEntry(fe))
	}

	return res, nil
}

// parseEntry converts a feed entry into the domain shape. The external
// identifier is the last path segment of the entry's id URL; the PDF
// link is derived from the link list, falling back to a rewrite of the
// abstract URL when the feed omits it.
func parseEntry(fe feedEntry) Entry {
	e := Entry{
		Title:        cleanText(fe.Title),
		ArxivID:      idFromURL(fe.ID),
		Published:    fe.Published,
		Updated:      fe.Updated,
		Summary:      cleanText(fe.Summary),
		AbstractLink: fe.ID,
		ArxivLink:    fe.ID,
	}

	for _, a := range fe.Authors {
		e.Authors = append(e.Authors, a.Name)
	}
	for _, c := range fe.Categories {
		e.Categories = append(e.Categories, c.Term)
	}
	for _, l := range fe.Links {
		if l.Title == "pdf" {
			e.PDFLink = l.HRef
		}
	}
	if e.PDFLink == "" {
		e.PDFLink = strings.Replace(fe.ID, "/abs/", "/pdf/", 1)
	}

	return e
}

// idFromURL extracts the external identifier from an entry id URL such
// as http://arxiv.org/abs/2401.01234v1.
func idFromURL(id string) string {
	if i := strings.LastIndex(id, "/"); i >= 0 {
		return id[i+1:]
	}
	return id
}

// cleanText collapses the feed's hard-wrapped text onto one line.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
