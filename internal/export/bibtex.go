// Package export converts stored papers to citation formats.
package export

import (
	"fmt"
	"strings"

	"github.com/paperdock/paperdock/internal/store"
)

// ToBibTeX converts a paper to a BibTeX @article entry. arXiv entries
// carry the eprint fields recognized by most bibliography styles.
func ToBibTeX(p store.Paper) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("@article{%s,\n", citationKey(p)))

	if len(p.Authors) > 0 {
		b.WriteString(fmt.Sprintf("  author = {%s},\n", formatAuthors(p.Authors)))
	}

	b.WriteString(fmt.Sprintf("  title = {%s},\n", escapeLatex(p.Title)))
	b.WriteString(fmt.Sprintf("  year = {%d},\n", p.Published.Year()))
	b.WriteString(fmt.Sprintf("  month = {%d},\n", int(p.Published.Month())))

	b.WriteString("  eprinttype = {arXiv},\n")
	b.WriteString(fmt.Sprintf("  eprint = {%s},\n", p.ArxivID))
	if len(p.Categories) > 0 {
		b.WriteString(fmt.Sprintf("  eprintclass = {%s},\n", p.Categories[0]))
	}
	if p.ArxivLink != "" {
		b.WriteString(fmt.Sprintf("  url = {%s},\n", p.ArxivLink))
	}

	if p.Summary != "" {
		b.WriteString(fmt.Sprintf("  abstract = {%s},\n", escapeLatex(p.Summary)))
	}

	b.WriteString("}\n")

	return b.String()
}

// ToBibTeXList converts multiple papers to BibTeX format.
func ToBibTeXList(papers []store.Paper) string {
	var entries []string
	for _, p := range papers {
		entries = append(entries, ToBibTeX(p))
	}
	return strings.Join(entries, "\n")
}

// citationKey builds a key like "smith2024arxiv2401.01234" from the
// first author's last name, the publication year, and the arXiv id.
func citationKey(p store.Paper) string {
	surname := "unknown"
	if len(p.Authors) > 0 {
		parts := strings.Fields(p.Authors[0])
		if len(parts) > 0 {
			surname = strings.ToLower(parts[len(parts)-1])
		}
	}
	return fmt.Sprintf("%s%darxiv%s", surname, p.Published.Year(), p.ArxivID)
}

// formatAuthors formats authors in BibTeX style: "First Last and First Last".
// The catalog gives display-order names, so no comma inversion.
func formatAuthors(authors []string) string {
	return strings.Join(authors, " and ")
}

// escapeLatex escapes special LaTeX characters.
func escapeLatex(s string) string {
	// Order matters: & must be first (before other escapes that might produce &)
	replacer := strings.NewReplacer(
		"&", `\&`,
		"%", `\%`,
		"$", `\$`,
		"#", `\#`,
		"_", `\_`,
		"{", `\{`,
		"}", `\}`,
		"~", `\textasciitilde{}`,
		"^", `\textasciicircum{}`,
	)
	return replacer.Replace(s)
}
