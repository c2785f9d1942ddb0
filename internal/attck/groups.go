package attck

import (
	"context"
	"fmt"

	"github.com/fwxs/mitre-cli/internal/scraper"
)

// GroupRow is one entry of the groups list page. The third column is a
// comma-separated list of associated group names.
type GroupRow struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	AssociatedGroups []string `json:"associated_groups,omitempty"`
	Description      string   `json:"description"`
}

func groupFromRow(row scraper.Row) GroupRow {
	var g GroupRow
	if v, ok := row.Col(0); ok {
		g.ID = v
	}
	if v, ok := row.Col(1); ok {
		g.Name = v
	}
	if v, ok := row.Col(2); ok {
		g.AssociatedGroups = splitAssociated(v)
	}
	if v, ok := row.Col(3); ok {
		g.Description = scraper.JoinLines(v, " ")
	}
	return g
}

// Group is a group detail page: aliases, techniques used and software
// used, each absent when the page has no such section.
type Group struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Aliases     []string             `json:"aliases,omitempty"`
	Techniques  []DomainTechniqueRow `json:"techniques,omitempty"`
	Software    []RelatedRow         `json:"software,omitempty"`
}

// Groups lists every ATT&CK group. The groups page is not split by
// domain.
func (c *Client) Groups(ctx context.Context) ([]GroupRow, error) {
	doc, err := c.document(ctx, baseURL+"/groups/")
	if err != nil {
		return nil, err
	}
	table, ok := scraper.FirstTable(doc)
	if !ok {
		return nil, nil
	}
	groups := make([]GroupRow, 0, len(table.Rows))
	for _, row := range table.Rows {
		groups = append(groups, groupFromRow(row))
	}
	return groups, nil
}

// Group retrieves one group detail page.
func (c *Client) Group(ctx context.Context, id string) (*Group, error) {
	doc, err := c.document(ctx, detailURL("groups", id))
	if err != nil {
		return nil, err
	}

	sections := scraper.SectionTables(doc)
	group := &Group{
		ID:          normalizeID(id),
		Name:        scraper.EntityName(doc),
		Description: scraper.EntityDescription(doc),
	}

	// The alias table pairs each associated name with the reference that
	// reported it; only the names matter here.
	if table, ok := sections["aliasDescription"]; ok {
		for _, row := range table.Rows {
			if alias, ok := row.Col(0); ok && alias != "" {
				group.Aliases = append(group.Aliases, alias)
			}
		}
	}
	if table, ok := sections["techniques"]; ok {
		group.Techniques, err = domainTechniquesFromTable(table)
		if err != nil {
			return nil, fmt.Errorf("attck: group %s techniques: %w", group.ID, err)
		}
	}
	if table, ok := sections["software"]; ok {
		group.Software = relatedFromTable(table)
	}

	return group, nil
}
