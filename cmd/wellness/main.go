// Package main is the single-binary entrypoint for the wellness service.
package main

import "github.com/genyouth/wellness/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
