// Package scraper turns ATT&CK HTML pages into positional tables and
// reassembles the flat row sequences those tables use to encode
// parent/child entity hierarchies.
package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Row is one table row as an ordered sequence of column strings. Columns
// are positional, not named, and fixed at creation.
type Row struct {
	Cols []string `json:"cols"`
}

// Col returns the value at index i and whether the row has that column.
func (r Row) Col(i int) (string, bool) {
	if i < 0 || i >= len(r.Cols) {
		return "", false
	}
	return r.Cols[i], true
}

// Table is the ordered header labels plus the ordered data rows of one
// HTML table. Row widths are not uniform: short rows are how the source
// encodes continuation/child rows.
type Table struct {
	Headers []string `json:"headers"`
	Rows    []Row    `json:"rows"`
}

// ParseDocument parses raw HTML text into a queryable document.
func ParseDocument(htmlText string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(htmlText))
}

func extractTable(sel *goquery.Selection) Table {
	var table Table

	sel.Find("thead tr").Children().Each(func(_ int, cell *goquery.Selection) {
		table.Headers = append(table.Headers, strings.TrimSpace(cell.Text()))
	})

	sel.Find("tbody tr").Each(func(_ int, tr *goquery.Selection) {
		var row Row
		tr.Find("td").Each(func(_ int, td *goquery.Selection) {
			row.Cols = append(row.Cols, strings.TrimSpace(td.Text()))
		})
		// Rows with zero cells are kept: some pages use them as separators.
		table.Rows = append(table.Rows, row)
	})

	return table
}

// Tables extracts every table in the document, in document order.
func Tables(doc *goquery.Document) []Table {
	var tables []Table
	doc.Find("table").Each(func(_ int, sel *goquery.Selection) {
		tables = append(tables, extractTable(sel))
	})
	return tables
}

// FirstTable extracts the first table in the document. The second return
// is false when the document has none; a page with zero entries is not an
// error, so callers substitute an empty default.
func FirstTable(doc *goquery.Document) (Table, bool) {
	sel := doc.Find("table").First()
	if sel.Length() == 0 {
		return Table{}, false
	}
	return extractTable(sel), true
}

// SectionTables maps each table on a detail page to the id of the nearest
// preceding h2 heading inside the page container. A heading with no table
// contributes nothing; a slug appearing twice keeps the later table.
func SectionTables(doc *goquery.Document) map[string]Table {
	tables := make(map[string]Table)
	var slug string

	doc.Find("div.container-fluid > h2, div.container-fluid > table, div.container-fluid > p").
		Each(func(_ int, sel *goquery.Selection) {
			switch goquery.NodeName(sel) {
			case "h2":
				if id, ok := sel.Attr("id"); ok {
					slug = id
				}
			case "table":
				if slug != "" {
					tables[slug] = extractTable(sel)
				}
			}
		})

	return tables
}

// EntityName returns the page's h1 text. Multiple h1 fragments are joined
// with a single space.
func EntityName(doc *goquery.Document) string {
	var parts []string
	doc.Find("h1").Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, " ")
}

// EntityDescription returns the description-body paragraphs of a detail
// page with citation markers removed.
func EntityDescription(doc *goquery.Document) string {
	var parts []string
	doc.Find("div.description-body p").Each(func(_ int, sel *goquery.Selection) {
		parts = append(parts, sel.Text())
	})
	return StripCitations(strings.Join(parts, "\n"))
}
