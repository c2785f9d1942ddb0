package attck

import (
	"context"
	"fmt"

	"github.com/fwxs/mitre-cli/internal/scraper"
)

// DataSourceRow is one entry of the data sources list page. Unlike the
// other list tables it carries an explicit domain column.
type DataSourceRow struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Domain      string `json:"domain"`
	Description string `json:"description"`
}

func dataSourceFromRow(row scraper.Row) DataSourceRow {
	var ds DataSourceRow
	if v, ok := row.Col(0); ok {
		ds.ID = v
	}
	if v, ok := row.Col(1); ok {
		ds.Name = v
	}
	if v, ok := row.Col(2); ok {
		ds.Domain = v
	}
	if v, ok := row.Col(3); ok {
		ds.Description = scraper.JoinLines(v, " ")
	}
	return ds
}

// DataComponent is one data component of a data source, owning the
// detection rows reported under it.
type DataComponent struct {
	Name       string         `json:"name"`
	Detections []DetectionRow `json:"detections,omitempty"`
}

// DataSource is a data source detail page with its components.
type DataSource struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Components  []DataComponent `json:"components,omitempty"`
}

// componentsFromTable rebuilds components from the flat detection table:
// the sticky pass restores the blank id/data-source cells, then grouping
// on the data-component column splits the rows per component. The two
// passes stay separate; they are independent rules that happen to read
// the same rows.
func componentsFromTable(table scraper.Table) ([]DataComponent, error) {
	rows := scraper.Propagate(table.Rows, 0, 1)
	groups, err := scraper.Group(rows, 2)
	if err != nil {
		return nil, err
	}

	components := make([]DataComponent, 0, len(groups))
	for _, g := range groups {
		name, _ := g.Parent.Col(2)
		component := DataComponent{Name: name}
		component.Detections = append(component.Detections, detectionFromRow(g.Parent))
		for _, child := range g.Children {
			detection := detectionFromRow(child)
			detection.DataComponent = name
			component.Detections = append(component.Detections, detection)
		}
		components = append(components, component)
	}
	return components, nil
}

// DataSources lists every ATT&CK data source.
func (c *Client) DataSources(ctx context.Context) ([]DataSourceRow, error) {
	doc, err := c.document(ctx, baseURL+"/datasources/")
	if err != nil {
		return nil, err
	}
	table, ok := scraper.FirstTable(doc)
	if !ok {
		return nil, nil
	}
	sources := make([]DataSourceRow, 0, len(table.Rows))
	for _, row := range table.Rows {
		sources = append(sources, dataSourceFromRow(row))
	}
	return sources, nil
}

// DataSource retrieves one data source detail page.
func (c *Client) DataSource(ctx context.Context, id string) (*DataSource, error) {
	doc, err := c.document(ctx, detailURL("datasources", id))
	if err != nil {
		return nil, err
	}

	source := &DataSource{
		ID:          normalizeID(id),
		Name:        scraper.EntityName(doc),
		Description: scraper.EntityDescription(doc),
	}

	if table, ok := scraper.SectionTables(doc)["datacomponents"]; ok {
		source.Components, err = componentsFromTable(table)
		if err != nil {
			return nil, fmt.Errorf("attck: data source %s components: %w", source.ID, err)
		}
	}

	return source, nil
}
