package attck

import (
	"context"
	"fmt"

	"github.com/fwxs/mitre-cli/internal/scraper"
)

// SoftwareRow is one entry of the software list page. The third column is
// a comma-separated list of associated software names.
type SoftwareRow struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	AssociatedSoftware []string `json:"associated_software,omitempty"`
	Description        string   `json:"description"`
}

func softwareFromRow(row scraper.Row) SoftwareRow {
	var s SoftwareRow
	if v, ok := row.Col(0); ok {
		s.ID = v
	}
	if v, ok := row.Col(1); ok {
		s.Name = v
	}
	if v, ok := row.Col(2); ok {
		s.AssociatedSoftware = splitAssociated(v)
	}
	if v, ok := row.Col(3); ok {
		s.Description = scraper.JoinLines(v, " ")
	}
	return s
}

// Software is a software detail page: techniques used and the groups
// known to use it.
type Software struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Techniques  []DomainTechniqueRow `json:"techniques,omitempty"`
	Groups      []RelatedRow         `json:"groups,omitempty"`
}

// SoftwareList lists every ATT&CK software entry. The software page is
// not split by domain.
func (c *Client) SoftwareList(ctx context.Context) ([]SoftwareRow, error) {
	doc, err := c.document(ctx, baseURL+"/software/")
	if err != nil {
		return nil, err
	}
	table, ok := scraper.FirstTable(doc)
	if !ok {
		return nil, nil
	}
	software := make([]SoftwareRow, 0, len(table.Rows))
	for _, row := range table.Rows {
		software = append(software, softwareFromRow(row))
	}
	return software, nil
}

// Software retrieves one software detail page.
func (c *Client) Software(ctx context.Context, id string) (*Software, error) {
	doc, err := c.document(ctx, detailURL("software", id))
	if err != nil {
		return nil, err
	}

	sections := scraper.SectionTables(doc)
	software := &Software{
		ID:          normalizeID(id),
		Name:        scraper.EntityName(doc),
		Description: scraper.EntityDescription(doc),
	}

	if table, ok := sections["techniques"]; ok {
		software.Techniques, err = domainTechniquesFromTable(table)
		if err != nil {
			return nil, fmt.Errorf("attck: software %s techniques: %w", software.ID, err)
		}
	}
	if table, ok := sections["groups"]; ok {
		software.Groups = relatedFromTable(table)
	}

	return software, nil
}
