// Package attck assembles typed MITRE ATT&CK entities from the HTML
// tables the site publishes. Every entity kind is a list page (one table,
// one row per entity) plus a detail page (named sections, each hosting
// one table); the mappers here encode which column index holds which
// field for each of them.
package attck

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/fwxs/mitre-cli/internal/scraper"
	"github.com/fwxs/mitre-cli/internal/webfetch"
)

const baseURL = "https://attack.mitre.org"

// Domain selects one of the three ATT&CK matrices.
type Domain string

const (
	Enterprise Domain = "enterprise"
	Mobile     Domain = "mobile"
	ICS        Domain = "ics"
)

// Domains lists every matrix, in the order the site presents them.
var Domains = []Domain{Enterprise, Mobile, ICS}

// ParseDomain validates a user-supplied domain name.
func ParseDomain(s string) (Domain, error) {
	switch d := Domain(strings.ToLower(strings.TrimSpace(s))); d {
	case Enterprise, Mobile, ICS:
		return d, nil
	default:
		return "", fmt.Errorf("attck: unknown domain %q (want enterprise, mobile or ics)", s)
	}
}

func listURL(kind string, d Domain) string {
	return fmt.Sprintf("%s/%s/%s/", baseURL, kind, d)
}

func detailURL(kind, id string) string {
	return fmt.Sprintf("%s/%s/%s", baseURL, kind, normalizeID(id))
}

func normalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// Client fetches and assembles ATT&CK entities.
type Client struct {
	fetcher webfetch.Fetcher
}

// NewClient returns a Client on top of the given fetcher.
func NewClient(f webfetch.Fetcher) *Client {
	return &Client{fetcher: f}
}

func (c *Client) document(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := c.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	doc, err := scraper.ParseDocument(body)
	if err != nil {
		return nil, fmt.Errorf("attck: parsing %q: %w", url, err)
	}
	return doc, nil
}

// RelatedRow is the generic id/name/description row used by the software
// table on group pages and the groups table on software pages.
type RelatedRow struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func relatedFromRow(row scraper.Row) RelatedRow {
	var r RelatedRow
	if v, ok := row.Col(0); ok {
		r.ID = v
	}
	if v, ok := row.Col(1); ok {
		r.Name = v
	}
	if v, ok := row.Col(2); ok {
		r.Description = scraper.StripCitations(scraper.JoinLines(v, " "))
	}
	return r
}

func relatedFromTable(table scraper.Table) []RelatedRow {
	rows := make([]RelatedRow, 0, len(table.Rows))
	for _, row := range table.Rows {
		rows = append(rows, relatedFromRow(row))
	}
	return rows
}

func splitAssociated(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
