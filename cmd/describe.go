package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fwxs/mitre-cli/internal/attck"
	"github.com/fwxs/mitre-cli/internal/store"
)

var (
	flagShowTechniques  bool
	flagShowProcedures  bool
	flagShowMitigations bool
	flagShowDetections  bool
	flagShowSoftware    bool
	flagShowGroups      bool
	flagShowComponents  bool
)

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Retrieve one ATT&CK entity by id",
}

// describeEntity is the read-through cache path shared by every describe
// subcommand: cached copy unless --refresh, fetched and cached on a miss.
// A broken cache only costs the caching, never the command.
func describeEntity[T any](ctx context.Context, bucket, id string, fetch func(context.Context, string) (*T, error)) (*T, error) {
	// Cache keys are upper-cased ids, matching the record ids and URLs.
	id = strings.ToUpper(strings.TrimSpace(id))

	var st *store.Store
	if !flagNoCache {
		s, err := openStore()
		if err != nil {
			log.Printf("cache unavailable: %v", err)
		} else {
			st = s
			defer st.Close()
		}
	}

	if st != nil && !flagRefresh {
		entity := new(T)
		err := st.Get(bucket, id, entity)
		if err == nil {
			return entity, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("cache read %s/%s: %v", bucket, id, err)
		}
	}

	entity, err := fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	if st != nil {
		if err := st.Put(bucket, id, entity); err != nil {
			log.Printf("cache write %s/%s: %v", bucket, id, err)
		}
	}
	return entity, nil
}

var describeTacticCmd = &cobra.Command{
	Use:   "tactic ID",
	Short: "One tactic, optionally with its techniques",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tactic, err := describeEntity(cmd.Context(), store.TacticBucket, args[0], attckClient().Tactic)
		if err != nil {
			return err
		}
		printHeader("Tactic", tactic.ID, tactic.Name, tactic.Description)
		if flagShowTechniques {
			renderTechniqueRows(tactic.Techniques)
		}
		return nil
	},
}

var describeTechniqueCmd = &cobra.Command{
	Use:   "technique ID",
	Short: "One technique, optionally with procedures, mitigations and detections",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		technique, err := describeEntity(cmd.Context(), store.TechniqueBucket, args[0], attckClient().Technique)
		if err != nil {
			return err
		}
		printHeader("Technique", technique.ID, technique.Name, technique.Description)
		if flagShowProcedures {
			if len(technique.Procedures) == 0 {
				fmt.Println("[!] No procedure examples associated")
			} else {
				rows := make([][]string, 0, len(technique.Procedures))
				for _, p := range technique.Procedures {
					rows = append(rows, []string{p.ID, p.Name, p.Kind, truncate(p.Description, 70)})
				}
				renderTable(os.Stdout, []string{"ID", "NAME", "KIND", "DESCRIPTION"}, rows)
			}
		}
		if flagShowMitigations {
			if len(technique.Mitigations) == 0 {
				fmt.Println("[!] No mitigations associated")
			} else {
				rows := make([][]string, 0, len(technique.Mitigations))
				for _, m := range technique.Mitigations {
					rows = append(rows, []string{m.ID, m.Name, truncate(m.Description, 80)})
				}
				renderTable(os.Stdout, []string{"ID", "NAME", "DESCRIPTION"}, rows)
			}
		}
		if flagShowDetections {
			renderDetectionRows(technique.Detections)
		}
		return nil
	},
}

var describeMitigationCmd = &cobra.Command{
	Use:   "mitigation ID",
	Short: "One mitigation, optionally with the techniques it addresses",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mitigation, err := describeEntity(cmd.Context(), store.MitigationBucket, args[0], attckClient().Mitigation)
		if err != nil {
			return err
		}
		printHeader("Mitigation", mitigation.ID, mitigation.Name, mitigation.Description)
		if flagShowTechniques {
			renderDomainTechniqueRows(mitigation.AddressedTechniques)
		}
		return nil
	},
}

var describeGroupCmd = &cobra.Command{
	Use:   "group ID",
	Short: "One group, optionally with its techniques and software",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		group, err := describeEntity(cmd.Context(), store.GroupBucket, args[0], attckClient().Group)
		if err != nil {
			return err
		}
		printHeader("Group", group.ID, group.Name, group.Description)
		if len(group.Aliases) > 0 {
			fmt.Println("[*] Associated groups:", joinList(group.Aliases))
		}
		if flagShowTechniques {
			renderDomainTechniqueRows(group.Techniques)
		}
		if flagShowSoftware {
			renderRelatedRows("software", group.Software)
		}
		return nil
	},
}

var describeSoftwareCmd = &cobra.Command{
	Use:   "software ID",
	Short: "One software entry, optionally with its techniques and groups",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		software, err := describeEntity(cmd.Context(), store.SoftwareBucket, args[0], attckClient().Software)
		if err != nil {
			return err
		}
		printHeader("Software", software.ID, software.Name, software.Description)
		if flagShowTechniques {
			renderDomainTechniqueRows(software.Techniques)
		}
		if flagShowGroups {
			renderRelatedRows("groups", software.Groups)
		}
		return nil
	},
}

var describeDataSourceCmd = &cobra.Command{
	Use:   "datasource ID",
	Short: "One data source, optionally with its components and detections",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source, err := describeEntity(cmd.Context(), store.DataSourceBucket, args[0], attckClient().DataSource)
		if err != nil {
			return err
		}
		printHeader("Data Source", source.ID, source.Name, source.Description)
		if flagShowComponents {
			if len(source.Components) == 0 {
				fmt.Println("[!] No data components associated")
			}
			for i, component := range source.Components {
				fmt.Printf("[*] Component No.%d name: %s\n", i+1, component.Name)
				renderDetectionRows(component.Detections)
			}
		}
		return nil
	},
}

func init() {
	describeTacticCmd.Flags().BoolVar(&flagShowTechniques, "show-techniques", false,
		"show techniques related to the retrieved tactic")
	describeTechniqueCmd.Flags().BoolVar(&flagShowProcedures, "show-procedures", false,
		"show procedure examples related to the retrieved technique")
	describeTechniqueCmd.Flags().BoolVar(&flagShowMitigations, "show-mitigations", false,
		"show mitigations related to the retrieved technique")
	describeTechniqueCmd.Flags().BoolVar(&flagShowDetections, "show-detections", false,
		"show detections related to the retrieved technique")
	describeMitigationCmd.Flags().BoolVar(&flagShowTechniques, "show-techniques", false,
		"show techniques addressed by the retrieved mitigation")
	describeGroupCmd.Flags().BoolVar(&flagShowTechniques, "show-techniques", false,
		"show techniques related to the retrieved group")
	describeGroupCmd.Flags().BoolVar(&flagShowSoftware, "show-software", false,
		"show software related to the retrieved group")
	describeSoftwareCmd.Flags().BoolVar(&flagShowTechniques, "show-techniques", false,
		"show techniques related to the retrieved software")
	describeSoftwareCmd.Flags().BoolVar(&flagShowGroups, "show-groups", false,
		"show groups related to the retrieved software")
	describeDataSourceCmd.Flags().BoolVar(&flagShowComponents, "show-components", false,
		"show components related to the retrieved data source")

	describeCmd.AddCommand(describeTacticCmd, describeTechniqueCmd, describeMitigationCmd,
		describeGroupCmd, describeSoftwareCmd, describeDataSourceCmd)
	attckCmd.AddCommand(describeCmd)
}

func printHeader(kind, id, name, description string) {
	fmt.Printf("[*] %s ID: %s\n", kind, id)
	fmt.Printf("[*] %s name: %s\n", kind, name)
	fmt.Printf("[*] %s description: %s\n", kind, description)
}

func renderTechniqueRows(techniques []attck.TechniqueRow) {
	if len(techniques) == 0 {
		fmt.Println("[!] No techniques associated")
		return
	}
	var rows [][]string
	for _, t := range techniques {
		rows = append(rows, []string{t.ID, t.Name, truncate(t.Description, 80)})
		for _, sub := range t.SubTechniques {
			rows = append(rows, []string{"  " + sub.ID, sub.Name, truncate(sub.Description, 80)})
		}
	}
	renderTable(os.Stdout, []string{"ID", "NAME", "DESCRIPTION"}, rows)
}

func renderDomainTechniqueRows(techniques []attck.DomainTechniqueRow) {
	if len(techniques) == 0 {
		fmt.Println("[!] No techniques associated")
		return
	}
	var rows [][]string
	for _, t := range techniques {
		rows = append(rows, []string{t.Domain, t.ID, t.Name, truncate(t.UsedFor, 70)})
		for _, sub := range t.SubTechniques {
			rows = append(rows, []string{"", "  " + sub.ID, sub.Name, truncate(sub.UsedFor, 70)})
		}
	}
	renderTable(os.Stdout, []string{"DOMAIN", "ID", "NAME", "USE"}, rows)
}

func renderDetectionRows(detections []attck.DetectionRow) {
	if len(detections) == 0 {
		fmt.Println("[!] No detections associated")
		return
	}
	rows := make([][]string, 0, len(detections))
	for _, d := range detections {
		rows = append(rows, []string{d.ID, d.DataSource, d.DataComponent, truncate(d.Detects, 70)})
	}
	renderTable(os.Stdout, []string{"ID", "DATA SOURCE", "DATA COMPONENT", "DETECTS"}, rows)
}

func renderRelatedRows(label string, related []attck.RelatedRow) {
	if len(related) == 0 {
		fmt.Printf("[!] No %s associated\n", label)
		return
	}
	rows := make([][]string, 0, len(related))
	for _, r := range related {
		rows = append(rows, []string{r.ID, r.Name, truncate(r.Description, 80)})
	}
	renderTable(os.Stdout, []string{"ID", "NAME", "DESCRIPTION"}, rows)
}
