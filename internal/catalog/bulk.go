package catalog

import (
	"context"
	"fmt"
	"strings"
)

type LineKind int

const (
	LineOK LineKind = iota
	LineInvalidFieldCount
)

// LineResult is the parse outcome of one bulk-add line.
type LineResult struct {
	Kind   LineKind
	Fields int
	Entry  Movie
}

// ParseLine reads `Title | Genre | Year | Link | Description[ | Poster]`.
func ParseLine(line string) LineResult {
	parts := strings.Split(line, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	res := LineResult{Fields: len(parts)}
	if len(parts) != 5 && len(parts) != 6 {
		res.Kind = LineInvalidFieldCount
		return res
	}
	res.Entry = Movie{
		Title:       parts[0],
		Genre:       parts[1],
		Year:        parts[2],
		Link:        parts[3],
		Description: parts[4],
	}
	if len(parts) == 6 {
		res.Entry.Poster = parts[5]
	}
	return res
}

// FormatLine renders m in the bulk-add format.
func FormatLine(m Movie) string {
	fields := []string{m.Title, m.Genre, m.Year, m.Link, m.Description}
	if m.Poster != "" {
		fields = append(fields, m.Poster)
	}
	for i, f := range fields {
		fields[i] = strings.ReplaceAll(strings.ReplaceAll(f, "|", "/"), "\n", " ")
	}
	return strings.Join(fields, " | ")
}

type BulkReport struct {
	Added     int
	Failed    int
	Duplicate int
}

func (r BulkReport) Summary() string {
	return fmt.Sprintf("✅ Добавлено: %d, ❌ Ошибок: %d, ⚠️ Уже в базе: %d", r.Added, r.Failed, r.Duplicate)
}

// BulkAdd inserts every well-formed, non-duplicate line of text. Each line is
// its own load-modify-save cycle; a failing line is counted and skipped.
func (c *Catalog) BulkAdd(ctx context.Context, text string) BulkReport {
	var rep BulkReport
	text = strings.ReplaceAll(strings.TrimSpace(text), "\r\n", "\n")
	for _, line := range strings.Split(text, "\n") {
		res := ParseLine(line)
		if res.Kind != LineOK {
			rep.Failed++
			continue
		}
		dup := false
		err := c.update(ctx, func(doc *Document) bool {
			if doc.HasMovie(res.Entry.Title, res.Entry.Year) {
				dup = true
				return false
			}
			if !doc.HasGenre(res.Entry.Genre) {
				doc.Genres = append(doc.Genres, res.Entry.Genre)
			}
			entry := res.Entry
			entry.Views = 0
			doc.Movies = append(doc.Movies, entry)
			return true
		})
		switch {
		case err != nil:
			rep.Failed++
		case dup:
			rep.Duplicate++
		default:
			rep.Added++
		}
	}
	return rep
}
