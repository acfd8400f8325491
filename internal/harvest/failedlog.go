package harvest

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// The failed-query log holds one raw query string per line. Each line is
// a page request that exhausted its retry budget; the retry pass
// reissues them verbatim.

// appendFailedQuery appends one raw query string to the log at path.
func appendFailedQuery(path, rawQuery string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening failed-query log: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, rawQuery); err != nil {
		return fmt.Errorf("appending failed query: %w", err)
	}
	return nil
}

// readFailedQueries returns every logged query string, in order.
// A missing log file means no failures.
func readFailedQueries(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening failed-query log: %w", err)
	}
	defer f.Close()

	var queries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			queries = append(queries, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading failed-query log: %w", err)
	}
	return queries, nil
}

// writeFailedQueries replaces the log with the given queries, or
// removes it when none remain.
func writeFailedQueries(path string, queries []string) error {
	if len(queries) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing failed-query log: %w", err)
		}
		return nil
	}

	var b strings.Builder
	for _, q := range queries {
		b.WriteString(q)
		b.WriteString("\n")
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("writing failed-query log: %w", err)
	}
	return nil
}
