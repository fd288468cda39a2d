package main

import (
	"os"

	"hy2core/internal/cli"
)

func main() { os.Exit(cli.Execute()) }
