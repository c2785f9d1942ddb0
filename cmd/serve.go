package cmd

import (
	"log"
	"net/http"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/spf13/cobra"

	"github.com/fwxs/mitre-cli/internal/server"
	"github.com/fwxs/mitre-cli/internal/store"
)

var flagServeAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the cached entities and search index over HTTP",
	Long: `serve exposes the local store and search index as a small JSON API:

  GET /api/search?query=...&size=N
  GET /api/entities/{kind}

Missing store or index files only disable their endpoints; the server
still starts.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var st *store.Store
		if s, err := openStore(); err != nil {
			log.Printf("store unavailable, /api/entities disabled: %v", err)
		} else {
			st = s
			defer st.Close()
		}

		var idx bleve.Index
		path, err := indexPath()
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err != nil {
			log.Printf("no index at %s, /api/search disabled (run 'mitre-cli attck sync --index')", path)
		} else if opened, err := bleve.Open(path); err != nil {
			log.Printf("index unavailable, /api/search disabled: %v", err)
		} else {
			idx = opened
			defer idx.Close()
		}

		log.Printf("listening on %s", flagServeAddr)
		return http.ListenAndServe(flagServeAddr, server.New(st, idx).Handler())
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", ":8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}
