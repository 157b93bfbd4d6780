package main

import (
	"os"

	"github.com/promptbroker/promptbroker/internal/adapters/inbound/cli"
)

func main() {
	os.Exit(cli.Execute())
}
