package harvest

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/paperdock/paperdock/internal/arxiv"
)

// resumeDateFormat matches the lexical format the query grammar uses,
// so a record is readable next to its query string.
const resumeDateFormat = "20060102150405"

// ResumeRecord snapshots an interrupted window: enough to reconstruct
// and re-invoke the exact query at the offset where it stopped.
type ResumeRecord struct {
	Categories   []string
	Start        time.Time
	End          time.Time
	Offset       int
	PageSize     int
	TotalResults int
}

// FromWindow snapshots the current state of a window.
func FromWindow(w arxiv.Window, total int) ResumeRecord {
	return ResumeRecord{
		Categories:   w.Categories,
		Start:        w.Start,
		End:          w.End,
		Offset:       w.Offset,
		PageSize:     w.PageSize,
		TotalResults: total,
	}
}

// Window reconstructs the window the record describes.
func (r ResumeRecord) Window() arxiv.Window {
	return arxiv.Window{
		Categories: r.Categories,
		Start:      r.Start,
		End:        r.End,
		Offset:     r.Offset,
		PageSize:   r.PageSize,
	}
}

// Save writes the record as human-readable key=value lines,
// overwriting any previous record.
func (r ResumeRecord) Save(path string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "category=%s\n", strings.Join(r.Categories, ","))
	fmt.Fprintf(&b, "start_date=%s\n", r.Start.UTC().Format(resumeDateFormat))
	fmt.Fprintf(&b, "end_date=%s\n", r.End.UTC().Format(resumeDateFormat))
	fmt.Fprintf(&b, "start=%d\n", r.Offset)
	fmt.Fprintf(&b, "max_results=%d\n", r.PageSize)
	fmt.Fprintf(&b, "total_results=%d\n", r.TotalResults)

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("writing resume record: %w", err)
	}
	return nil
}

// LoadResumeRecord reads a resume record from path.
func LoadResumeRecord(path string) (ResumeRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return ResumeRecord{}, fmt.Errorf("opening resume record: %w", err)
	}
	defer f.Close()

	var r ResumeRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return ResumeRecord{}, fmt.Errorf("malformed resume line %q", line)
		}

		switch key {
		case "category":
			r.Categories = strings.Split(value, ",")
		case "start_date":
			r.Start, err = time.Parse(resumeDateFormat, value)
		case "end_date":
			r.End, err = time.Parse(resumeDateFormat, value)
		case "start":
			r.Offset, err = strconv.Atoi(value)
		case "max_results":
			r.PageSize, err = strconv.Atoi(value)
		case "total_results":
			r.TotalResults, err = strconv.Atoi(value)
		default:
			return ResumeRecord{}, fmt.Errorf("unknown resume key %q", key)
		}
		if err != nil {
			return ResumeRecord{}, fmt.Errorf("parsing resume key %q: %w", key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return ResumeRecord{}, fmt.Errorf("reading resume record: %w", err)
	}

	return r, nil
}
