package main

import (
	"os"

	"github.com/nikicat/go-secret-service/cmd/secret-service-client/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
