package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fwxs/mitre-cli/internal/attck"
	"github.com/fwxs/mitre-cli/internal/webfetch"
)

var attckCmd = &cobra.Command{
	Use:   "attck",
	Short: "MITRE ATT&CK entities",
}

func init() {
	rootCmd.AddCommand(attckCmd)
}

func attckClient() *attck.Client {
	return attck.NewClient(webfetch.NewClient())
}
