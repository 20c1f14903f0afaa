package main

import (
	"embed"
	"fmt"
	"os"

	"github.com/EasterCompany/venkatesh-bot/cmd"
	_ "github.com/EasterCompany/venkatesh-bot/exts/info"
	_ "github.com/EasterCompany/venkatesh-bot/exts/utility"
	"github.com/EasterCompany/venkatesh-bot/utils"
)

// Set at build time with -ldflags "-X main.version=...".
var (
	version   = ""
	branch    = ""
	commit    = ""
	buildDate = ""
	arch      = ""
)

//go:embed exts/*/*.go
var bundled embed.FS

func main() {
	utils.SetVersion(version, branch, commit, buildDate, arch)

	if err := cmd.Execute(bundled); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
