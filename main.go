package main

import "github.com/fwxs/mitre-cli/cmd"

func main() {
	cmd.Execute()
}
