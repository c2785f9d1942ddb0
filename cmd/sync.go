package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/fwxs/mitre-cli/internal/attck"
	"github.com/fwxs/mitre-cli/internal/index"
	"github.com/fwxs/mitre-cli/internal/publish"
	"github.com/fwxs/mitre-cli/internal/store"
)

var (
	flagSyncDomains []string
	flagSyncBroker  string
	flagSyncTopic   string
	flagSyncIndex   bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Scrape every entity list into the local store",
	Long: `sync fetches the entity list pages of every (or the selected) domain
and snapshots them into the local store, optionally feeding the Bleve
search index and publishing each record to a Kafka topic.

Entities are synced sequentially; a failing page is logged and skipped so
one bad fetch never aborts the rest of the batch.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringSliceVar(&flagSyncDomains, "domain", nil,
		"domains to sync (default all of enterprise, mobile, ics)")
	syncCmd.Flags().StringVar(&flagSyncBroker, "broker", "",
		"Kafka broker to publish synced records to (default $MITRE_CLI_BROKER, publishing off when empty)")
	syncCmd.Flags().StringVar(&flagSyncTopic, "topic", "",
		"Kafka topic (default $MITRE_CLI_TOPIC or "+publish.DefaultTopic+")")
	syncCmd.Flags().BoolVar(&flagSyncIndex, "index", false,
		"rebuild the full-text search index from the synced records")
	attckCmd.AddCommand(syncCmd)
}

// syncState carries the sink handles through one sync run.
type syncState struct {
	store     *store.Store
	publisher *publish.Publisher
	docs      []index.Document
	synced    int
	failed    int
}

func runSync(cmd *cobra.Command, _ []string) error {
	domains, err := syncDomains()
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	state := &syncState{store: st}

	broker := flagSyncBroker
	if broker == "" {
		broker = os.Getenv("MITRE_CLI_BROKER")
	}
	if broker != "" {
		state.publisher = publish.New(broker, publish.TopicFromEnv(flagSyncTopic))
		defer state.publisher.Close()
		log.Printf("publishing synced records to %s", broker)
	}

	ctx := cmd.Context()
	client := attckClient()

	for _, domain := range domains {
		syncList(ctx, state, "tactics/"+string(domain), func() ([]index.Document, any, error) {
			tactics, err := client.Tactics(ctx, domain)
			if err != nil {
				return nil, nil, err
			}
			docs := make([]index.Document, 0, len(tactics))
			for _, t := range tactics {
				docs = append(docs, index.Document{
					ID: t.ID, Kind: "tactic", Domain: string(domain),
					Name: t.Name, Description: t.Description,
				})
			}
			return docs, tactics, nil
		})

		syncList(ctx, state, "techniques/"+string(domain), func() ([]index.Document, any, error) {
			techniques, err := client.Techniques(ctx, domain)
			if err != nil {
				return nil, nil, err
			}
			var docs []index.Document
			for _, t := range techniques {
				docs = append(docs, index.Document{
					ID: t.ID, Kind: "technique", Domain: string(domain),
					Name: t.Name, Description: t.Description,
				})
				for _, sub := range t.SubTechniques {
					docs = append(docs, index.Document{
						ID: t.ID + sub.ID, Kind: "technique", Domain: string(domain),
						Name: t.Name + ": " + sub.Name, Description: sub.Description,
					})
				}
			}
			return docs, techniques, nil
		})

		syncList(ctx, state, "mitigations/"+string(domain), func() ([]index.Document, any, error) {
			mitigations, err := client.Mitigations(ctx, domain)
			if err != nil {
				return nil, nil, err
			}
			docs := make([]index.Document, 0, len(mitigations))
			for _, m := range mitigations {
				docs = append(docs, index.Document{
					ID: m.ID, Kind: "mitigation", Domain: string(domain),
					Name: m.Name, Description: m.Description,
				})
			}
			return docs, mitigations, nil
		})
	}

	syncList(ctx, state, "groups", func() ([]index.Document, any, error) {
		groups, err := client.Groups(ctx)
		if err != nil {
			return nil, nil, err
		}
		docs := make([]index.Document, 0, len(groups))
		for _, g := range groups {
			docs = append(docs, index.Document{
				ID: g.ID, Kind: "group", Name: g.Name, Description: g.Description,
			})
		}
		return docs, groups, nil
	})

	syncList(ctx, state, "software", func() ([]index.Document, any, error) {
		software, err := client.SoftwareList(ctx)
		if err != nil {
			return nil, nil, err
		}
		docs := make([]index.Document, 0, len(software))
		for _, s := range software {
			docs = append(docs, index.Document{
				ID: s.ID, Kind: "software", Name: s.Name, Description: s.Description,
			})
		}
		return docs, software, nil
	})

	syncList(ctx, state, "datasources", func() ([]index.Document, any, error) {
		sources, err := client.DataSources(ctx)
		if err != nil {
			return nil, nil, err
		}
		docs := make([]index.Document, 0, len(sources))
		for _, ds := range sources {
			docs = append(docs, index.Document{
				ID: ds.ID, Kind: "datasource", Domain: ds.Domain,
				Name: ds.Name, Description: ds.Description,
			})
		}
		return docs, sources, nil
	})

	if flagSyncIndex {
		if err := rebuildIndex(state.docs); err != nil {
			return err
		}
	}

	log.Printf("sync complete: %d lists synced, %d failed, %d records", state.synced, state.failed, len(state.docs))
	if state.failed > 0 {
		return fmt.Errorf("%d of %d lists failed to sync", state.failed, state.synced+state.failed)
	}
	return nil
}

// syncList runs one list fetch and fans the result out to the store, the
// index document buffer and, when configured, Kafka. Failures are logged
// and counted, never fatal mid-batch.
func syncList(ctx context.Context, state *syncState, key string, fetch func() ([]index.Document, any, error)) {
	docs, snapshot, err := fetch()
	if err != nil {
		log.Printf("sync %s: %v", key, err)
		state.failed++
		return
	}
	if err := state.store.Put(store.ListBucket, key, snapshot); err != nil {
		log.Printf("sync %s: storing snapshot: %v", key, err)
		state.failed++
		return
	}
	state.docs = append(state.docs, docs...)
	state.synced++
	log.Printf("synced %s: %d records", key, len(docs))

	if state.publisher != nil {
		for _, doc := range docs {
			if err := state.publisher.Publish(ctx, doc.Kind+"/"+doc.ID, doc); err != nil {
				log.Printf("publish %s/%s: %v", doc.Kind, doc.ID, err)
			}
		}
	}
}

func rebuildIndex(docs []index.Document) error {
	path, err := indexPath()
	if err != nil {
		return err
	}
	if err := index.Rebuild(path, docs); err != nil {
		return err
	}
	log.Printf("indexed %d records at %s", len(docs), path)
	return nil
}

func syncDomains() ([]attck.Domain, error) {
	if len(flagSyncDomains) == 0 {
		return attck.Domains, nil
	}
	domains := make([]attck.Domain, 0, len(flagSyncDomains))
	for _, raw := range flagSyncDomains {
		domain, err := attck.ParseDomain(raw)
		if err != nil {
			return nil, err
		}
		domains = append(domains, domain)
	}
	return domains, nil
}
