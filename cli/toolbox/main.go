package main

import (
	"os"

	toolboxcmder "github.com/papercomputeco/toolbox/cmd/toolbox"
)

func main() {
	cmd := toolboxcmder.NewToolboxCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
