package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

// Globals are flags shared by every command.
type Globals struct {
	Config string `short:"c" default:"fairdeal.hcl" type:"path" help:"HCL configuration file (optional)"`
	Debug  bool   `help:"Enable debug logging"`
}

type CLI struct {
	Globals

	Version  kong.VersionFlag `short:"v" help:"Show version"`
	Play     PlayCmd          `cmd:"" help:"Play hands against the house in the terminal"`
	Verify   VerifyCmd        `cmd:"" help:"Verify a revealed deck against its commitment"`
	Simulate SimulateCmd      `cmd:"" help:"Simulate hands to measure the house edge"`
	History  HistoryCmd       `cmd:"" help:"Query recorded hands"`
	Reaper   ReaperCmd        `cmd:"" help:"Force-fold hands abandoned by their player"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("fairdeal"),
		kong.Description("Provably fair heads-up poker against the house"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
