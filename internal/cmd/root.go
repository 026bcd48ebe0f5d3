package cmd

import (
	"github.com/alecthomas/kong"
)

type CLI struct {
	Color   string `help:"Color output: auto, always, never." enum:"auto,always,never" default:"auto"`
	JSON    bool   `help:"JSON output to stdout; disables colors."`
	Plain   bool   `help:"TSV output to stdout; disables colors."`
	Verbose bool   `help:"Enable debug logging."`

	VersionFlag kong.VersionFlag `name:"version" help:"Print version."`

	Version VersionCmd `cmd:"" help:"Print version."`
	Config  ConfigCmd  `cmd:"" help:"Manage configuration."`
	Analyze AnalyzeCmd `cmd:"" help:"Score one job posting."`
	Watch   WatchCmd   `cmd:"" help:"Follow a page session through a stream of URLs."`
	Serve   ServeCmd   `cmd:"" help:"Serve the analysis pipeline over HTTP."`
	History HistoryCmd `cmd:"" help:"Inspect or clear analysis history."`
	Proxies ProxiesCmd `cmd:"" help:"Proxy utilities."`
}

func NewCLI() *CLI {
	return &CLI{}
}
