package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fwxs/mitre-cli/internal/attck"
	"github.com/fwxs/mitre-cli/internal/store"
)

var (
	flagListDomain  string
	flagListOffline bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List ATT&CK entities",
}

var listTacticsCmd = &cobra.Command{
	Use:   "tactics",
	Short: "Tactics of one domain",
	RunE: func(cmd *cobra.Command, _ []string) error {
		domain, err := attck.ParseDomain(flagListDomain)
		if err != nil {
			return err
		}
		tactics, err := listEntities("tactics/"+string(domain), func() ([]attck.TacticRow, error) {
			return attckClient().Tactics(cmd.Context(), domain)
		})
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(tactics))
		for _, t := range tactics {
			rows = append(rows, []string{t.ID, t.Name, truncate(t.Description, 80)})
		}
		renderTable(os.Stdout, []string{"ID", "NAME", "DESCRIPTION"}, rows)
		return nil
	},
}

var listTechniquesCmd = &cobra.Command{
	Use:   "techniques",
	Short: "Techniques of one domain, sub-techniques grouped under their parent",
	RunE: func(cmd *cobra.Command, _ []string) error {
		domain, err := attck.ParseDomain(flagListDomain)
		if err != nil {
			return err
		}
		techniques, err := listEntities("techniques/"+string(domain), func() ([]attck.TechniqueRow, error) {
			return attckClient().Techniques(cmd.Context(), domain)
		})
		if err != nil {
			return err
		}
		var rows [][]string
		for _, t := range techniques {
			rows = append(rows, []string{t.ID, t.Name, truncate(t.Description, 80)})
			for _, sub := range t.SubTechniques {
				rows = append(rows, []string{"  " + sub.ID, sub.Name, truncate(sub.Description, 80)})
			}
		}
		renderTable(os.Stdout, []string{"ID", "NAME", "DESCRIPTION"}, rows)
		return nil
	},
}

var listMitigationsCmd = &cobra.Command{
	Use:   "mitigations",
	Short: "Mitigations of one domain",
	RunE: func(cmd *cobra.Command, _ []string) error {
		domain, err := attck.ParseDomain(flagListDomain)
		if err != nil {
			return err
		}
		mitigations, err := listEntities("mitigations/"+string(domain), func() ([]attck.MitigationRow, error) {
			return attckClient().Mitigations(cmd.Context(), domain)
		})
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(mitigations))
		for _, m := range mitigations {
			rows = append(rows, []string{m.ID, m.Name, truncate(m.Description, 80)})
		}
		renderTable(os.Stdout, []string{"ID", "NAME", "DESCRIPTION"}, rows)
		return nil
	},
}

var listGroupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Every ATT&CK group",
	RunE: func(cmd *cobra.Command, _ []string) error {
		groups, err := listEntities("groups", func() ([]attck.GroupRow, error) {
			return attckClient().Groups(cmd.Context())
		})
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(groups))
		for _, g := range groups {
			rows = append(rows, []string{g.ID, g.Name, joinList(g.AssociatedGroups), truncate(g.Description, 60)})
		}
		renderTable(os.Stdout, []string{"ID", "NAME", "ASSOCIATED GROUPS", "DESCRIPTION"}, rows)
		return nil
	},
}

var listSoftwareCmd = &cobra.Command{
	Use:   "software",
	Short: "Every ATT&CK software entry",
	RunE: func(cmd *cobra.Command, _ []string) error {
		software, err := listEntities("software", func() ([]attck.SoftwareRow, error) {
			return attckClient().SoftwareList(cmd.Context())
		})
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(software))
		for _, s := range software {
			rows = append(rows, []string{s.ID, s.Name, joinList(s.AssociatedSoftware), truncate(s.Description, 60)})
		}
		renderTable(os.Stdout, []string{"ID", "NAME", "ASSOCIATED SOFTWARE", "DESCRIPTION"}, rows)
		return nil
	},
}

var listDataSourcesCmd = &cobra.Command{
	Use:   "datasources",
	Short: "Every ATT&CK data source",
	RunE: func(cmd *cobra.Command, _ []string) error {
		sources, err := listEntities("datasources", func() ([]attck.DataSourceRow, error) {
			return attckClient().DataSources(cmd.Context())
		})
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(sources))
		for _, ds := range sources {
			rows = append(rows, []string{ds.ID, ds.Name, ds.Domain, truncate(ds.Description, 70)})
		}
		renderTable(os.Stdout, []string{"ID", "NAME", "DOMAIN", "DESCRIPTION"}, rows)
		return nil
	},
}

// listEntities returns either the synced list snapshot (--offline) or the
// freshly fetched live page.
func listEntities[T any](key string, fetch func() ([]T, error)) ([]T, error) {
	if !flagListOffline {
		return fetch()
	}
	st, err := openStore()
	if err != nil {
		return nil, err
	}
	defer st.Close()
	var out []T
	if err := st.Get(store.ListBucket, key, &out); err != nil {
		return nil, fmt.Errorf("no synced snapshot for %s, run 'mitre-cli attck sync' first: %w", key, err)
	}
	return out, nil
}

func init() {
	listCmd.PersistentFlags().StringVar(&flagListDomain, "domain", string(attck.Enterprise),
		"ATT&CK domain (enterprise, mobile, ics)")
	listCmd.PersistentFlags().BoolVar(&flagListOffline, "offline", false,
		"read from the synced local snapshot instead of the live site")
	listCmd.AddCommand(listTacticsCmd, listTechniquesCmd, listMitigationsCmd,
		listGroupsCmd, listSoftwareCmd, listDataSourcesCmd)
	attckCmd.AddCommand(listCmd)
}
