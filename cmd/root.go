package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fwxs/mitre-cli/internal/store"
)

var (
	flagHome    string
	flagRefresh bool
	flagNoCache bool
)

var rootCmd = &cobra.Command{
	Use:   "mitre-cli",
	Short: "Browse MITRE ATT&CK from the command line",
	Long: `mitre-cli scrapes MITRE ATT&CK entities (tactics, techniques,
mitigations, software, groups, data sources) straight from
https://attack.mitre.org and renders them as console tables.

Fetched entities are cached in a local BoltDB file and can be synced in
bulk into a Bleve full-text index for offline listing and searching.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "[!]", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagHome, "home", "",
		"data directory (default $MITRE_CLI_HOME or ~/.mitre-cli)")
	rootCmd.PersistentFlags().BoolVar(&flagRefresh, "refresh", false,
		"re-fetch even when the entity is cached")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false,
		"neither read nor write the local cache")
}

func homeDir() (string, error) {
	dir := flagHome
	if dir == "" {
		dir = os.Getenv("MITRE_CLI_HOME")
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		dir = filepath.Join(home, ".mitre-cli")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating %q: %w", dir, err)
	}
	return dir, nil
}

func storePath() (string, error) {
	dir, err := homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "attck.db"), nil
}

func indexPath() (string, error) {
	dir, err := homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "attck.bleve"), nil
}

func openStore() (*store.Store, error) {
	path, err := storePath()
	if err != nil {
		return nil, err
	}
	return store.Open(path)
}
