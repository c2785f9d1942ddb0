package attck

import (
	"context"
	"fmt"

	"github.com/fwxs/mitre-cli/internal/scraper"
)

// MitigationRow is one entry of a mitigations list page, and also one row
// of the mitigations table on technique detail pages (same layout, no
// domain column).
type MitigationRow struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func mitigationFromRow(row scraper.Row) MitigationRow {
	var m MitigationRow
	if v, ok := row.Col(0); ok {
		m.ID = v
	}
	if v, ok := row.Col(1); ok {
		m.Name = v
	}
	if v, ok := row.Col(2); ok {
		m.Description = scraper.JoinLines(v, " ")
	}
	return m
}

// Mitigation is a mitigation detail page with the techniques it
// addresses. Those rows carry a leading domain column and optional
// sub-technique suffixes.
type Mitigation struct {
	ID                  string               `json:"id"`
	Name                string               `json:"name"`
	Description         string               `json:"description"`
	AddressedTechniques []DomainTechniqueRow `json:"addressed_techniques,omitempty"`
}

// Mitigations lists the mitigations of one domain.
func (c *Client) Mitigations(ctx context.Context, d Domain) ([]MitigationRow, error) {
	doc, err := c.document(ctx, listURL("mitigations", d))
	if err != nil {
		return nil, err
	}
	table, ok := scraper.FirstTable(doc)
	if !ok {
		return nil, nil
	}
	mitigations := make([]MitigationRow, 0, len(table.Rows))
	for _, row := range table.Rows {
		mitigations = append(mitigations, mitigationFromRow(row))
	}
	return mitigations, nil
}

// Mitigation retrieves one mitigation detail page.
func (c *Client) Mitigation(ctx context.Context, id string) (*Mitigation, error) {
	doc, err := c.document(ctx, detailURL("mitigations", id))
	if err != nil {
		return nil, err
	}

	mitigation := &Mitigation{
		ID:          normalizeID(id),
		Name:        scraper.EntityName(doc),
		Description: scraper.EntityDescription(doc),
	}

	if table, ok := scraper.SectionTables(doc)["techniques"]; ok {
		mitigation.AddressedTechniques, err = domainTechniquesFromTable(table)
		if err != nil {
			return nil, fmt.Errorf("attck: mitigation %s techniques: %w", mitigation.ID, err)
		}
	}

	return mitigation, nil
}
