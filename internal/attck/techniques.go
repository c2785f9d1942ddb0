package attck

import (
	"context"
	"fmt"
	"strings"

	"github.com/fwxs/mitre-cli/internal/scraper"
)

// SubTechniqueRow is a child row of a techniques list table. Its ID is the
// ".NNN" suffix exactly as the source renders it; the parent row carries
// the base id.
type SubTechniqueRow struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func subTechniqueFromRow(row scraper.Row) SubTechniqueRow {
	var s SubTechniqueRow
	if v, ok := row.Col(1); ok {
		s.ID = v
	}
	if v, ok := row.Col(2); ok {
		s.Name = v
	}
	if v, ok := row.Col(3); ok {
		s.Description = scraper.JoinLines(v, "\n")
	}
	return s
}

// TechniqueRow is one parent entry of a techniques list table together
// with its sub-techniques. SubTechniques is nil, not empty, when the
// technique has none.
type TechniqueRow struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	SubTechniques []SubTechniqueRow `json:"sub_techniques,omitempty"`
}

func techniqueFromRow(row scraper.Row) TechniqueRow {
	var t TechniqueRow
	if v, ok := row.Col(0); ok {
		t.ID = v
	}
	if v, ok := row.Col(1); ok {
		t.Name = v
	}
	if v, ok := row.Col(2); ok {
		t.Description = scraper.JoinLines(v, "\n")
	}
	return t
}

func techniquesFromTable(table scraper.Table) ([]TechniqueRow, error) {
	groups, err := scraper.Group(table.Rows, 0)
	if err != nil {
		return nil, err
	}
	techniques := make([]TechniqueRow, 0, len(groups))
	for _, g := range groups {
		technique := techniqueFromRow(g.Parent)
		for _, child := range g.Children {
			technique.SubTechniques = append(technique.SubTechniques, subTechniqueFromRow(child))
		}
		techniques = append(techniques, technique)
	}
	return techniques, nil
}

// ProcedureRow is one procedure-example entry of a technique detail page.
// Kind is derived from the id prefix: S for software, G for groups.
type ProcedureRow struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
}

func procedureKind(id string) string {
	switch {
	case strings.HasPrefix(id, "S"):
		return "software"
	case strings.HasPrefix(id, "G"):
		return "group"
	default:
		return "unknown"
	}
}

func procedureFromRow(row scraper.Row) ProcedureRow {
	var p ProcedureRow
	if v, ok := row.Col(0); ok {
		p.ID = v
		p.Kind = procedureKind(v)
	}
	if v, ok := row.Col(1); ok {
		p.Name = v
	}
	if v, ok := row.Col(2); ok {
		lines := strings.Split(v, "\n")
		for i := range lines {
			lines[i] = scraper.StripCitations(lines[i])
		}
		p.Description = strings.Join(lines, "\n")
	}
	return p
}

// DetectionRow is one entry of a detection table. ID and DataSource are
// sticky columns on the source: blank values inherit the nearest
// preceding non-blank row.
type DetectionRow struct {
	ID            string `json:"id"`
	DataSource    string `json:"data_source"`
	DataComponent string `json:"data_component"`
	Detects       string `json:"detects,omitempty"`
}

func detectionFromRow(row scraper.Row) DetectionRow {
	var d DetectionRow
	if v, ok := row.Col(0); ok {
		d.ID = v
	}
	if v, ok := row.Col(1); ok {
		d.DataSource = v
	}
	if v, ok := row.Col(2); ok {
		d.DataComponent = v
	}
	if v, ok := row.Col(3); ok {
		d.Detects = scraper.StripCitations(v)
	}
	return d
}

func detectionsFromTable(table scraper.Table) []DetectionRow {
	rows := scraper.Propagate(table.Rows, 0, 1)
	detections := make([]DetectionRow, 0, len(rows))
	for _, row := range rows {
		detections = append(detections, detectionFromRow(row))
	}
	return detections
}

// DomainSubTechniqueRow is a child row of a cross-domain technique table
// (the "techniques used/addressed" tables on group, software and
// mitigation pages).
type DomainSubTechniqueRow struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	UsedFor string `json:"used_for"`
}

func domainSubTechniqueFromRow(row scraper.Row) DomainSubTechniqueRow {
	var s DomainSubTechniqueRow
	if v, ok := row.Col(2); ok {
		s.ID = v
	}
	if v, ok := row.Col(3); ok {
		s.Name = v
	}
	if v, ok := row.Col(4); ok {
		s.UsedFor = scraper.StripCitations(v)
	}
	return s
}

// DomainTechniqueRow is a parent row of a cross-domain technique table.
// The columns after the domain shift by one when a ".NNN" sub-technique
// suffix follows the base id; the suffix is folded into ID.
type DomainTechniqueRow struct {
	Domain        string                  `json:"domain"`
	ID            string                  `json:"id"`
	Name          string                  `json:"name"`
	UsedFor       string                  `json:"used_for"`
	SubTechniques []DomainSubTechniqueRow `json:"sub_techniques,omitempty"`
}

func domainTechniqueFromRow(row scraper.Row) DomainTechniqueRow {
	var t DomainTechniqueRow
	// Running cursor: fixed offsets would misalign as soon as one of the
	// optional columns is absent.
	i := 0
	if v, ok := row.Col(i); ok {
		t.Domain = v
		i++
	}
	if v, ok := row.Col(i); ok {
		t.ID = v
		i++
	}
	if v, ok := row.Col(i); ok && strings.HasPrefix(v, ".") {
		t.ID += v
		i++
	}
	if v, ok := row.Col(i); ok {
		t.Name = v
		i++
	}
	if v, ok := row.Col(i); ok {
		t.UsedFor = scraper.StripCitations(v)
	}
	return t
}

func domainTechniquesFromTable(table scraper.Table) ([]DomainTechniqueRow, error) {
	groups, err := scraper.Group(table.Rows, 0)
	if err != nil {
		return nil, err
	}
	techniques := make([]DomainTechniqueRow, 0, len(groups))
	for _, g := range groups {
		technique := domainTechniqueFromRow(g.Parent)
		for _, child := range g.Children {
			technique.SubTechniques = append(technique.SubTechniques, domainSubTechniqueFromRow(child))
		}
		techniques = append(techniques, technique)
	}
	return techniques, nil
}

// Technique is a technique detail page. Absent sections stay nil: a page
// without a mitigations table means the technique has none listed.
type Technique struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Procedures  []ProcedureRow  `json:"procedures,omitempty"`
	Mitigations []MitigationRow `json:"mitigations,omitempty"`
	Detections  []DetectionRow  `json:"detections,omitempty"`
}

// Techniques lists the techniques of one domain, with sub-techniques
// grouped under their parents.
func (c *Client) Techniques(ctx context.Context, d Domain) ([]TechniqueRow, error) {
	doc, err := c.document(ctx, listURL("techniques", d))
	if err != nil {
		return nil, err
	}
	table, ok := scraper.FirstTable(doc)
	if !ok {
		return nil, nil
	}
	techniques, err := techniquesFromTable(table)
	if err != nil {
		return nil, fmt.Errorf("attck: %s techniques: %w", d, err)
	}
	return techniques, nil
}

// Technique retrieves one technique detail page.
func (c *Client) Technique(ctx context.Context, id string) (*Technique, error) {
	doc, err := c.document(ctx, detailURL("techniques", id))
	if err != nil {
		return nil, err
	}

	sections := scraper.SectionTables(doc)
	technique := &Technique{
		ID:          normalizeID(id),
		Name:        scraper.EntityName(doc),
		Description: scraper.EntityDescription(doc),
	}

	if table, ok := sections["examples"]; ok {
		technique.Procedures = make([]ProcedureRow, 0, len(table.Rows))
		for _, row := range table.Rows {
			technique.Procedures = append(technique.Procedures, procedureFromRow(row))
		}
	}
	if table, ok := sections["mitigations"]; ok {
		technique.Mitigations = make([]MitigationRow, 0, len(table.Rows))
		for _, row := range table.Rows {
			technique.Mitigations = append(technique.Mitigations, mitigationFromRow(row))
		}
	}
	if table, ok := sections["detection"]; ok {
		technique.Detections = detectionsFromTable(table)
	}

	return technique, nil
}
