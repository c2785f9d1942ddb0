package attck

import (
	"context"
	"fmt"

	"github.com/fwxs/mitre-cli/internal/scraper"
)

// TacticRow is one entry of a tactics list page.
type TacticRow struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func tacticFromRow(row scraper.Row) TacticRow {
	var t TacticRow
	if v, ok := row.Col(0); ok {
		t.ID = v
	}
	if v, ok := row.Col(1); ok {
		t.Name = v
	}
	if v, ok := row.Col(2); ok {
		t.Description = scraper.JoinLines(v, " ")
	}
	return t
}

// Tactic is a tactic detail page, with the techniques table when the page
// has one.
type Tactic struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Techniques  []TechniqueRow `json:"techniques,omitempty"`
}

// Tactics lists the tactics of one domain.
func (c *Client) Tactics(ctx context.Context, d Domain) ([]TacticRow, error) {
	doc, err := c.document(ctx, listURL("tactics", d))
	if err != nil {
		return nil, err
	}
	table, ok := scraper.FirstTable(doc)
	if !ok {
		return nil, nil
	}
	tactics := make([]TacticRow, 0, len(table.Rows))
	for _, row := range table.Rows {
		tactics = append(tactics, tacticFromRow(row))
	}
	return tactics, nil
}

// Tactic retrieves one tactic detail page.
func (c *Client) Tactic(ctx context.Context, id string) (*Tactic, error) {
	doc, err := c.document(ctx, detailURL("tactics", id))
	if err != nil {
		return nil, err
	}

	tactic := &Tactic{
		ID:          normalizeID(id),
		Name:        scraper.EntityName(doc),
		Description: scraper.EntityDescription(doc),
	}

	if table, ok := scraper.SectionTables(doc)["techniques"]; ok {
		tactic.Techniques, err = techniquesFromTable(table)
		if err != nil {
			return nil, fmt.Errorf("attck: tactic %s techniques: %w", tactic.ID, err)
		}
	}

	return tactic, nil
}
