package cmd

import (
	"context"
	"os"
	"strings"

	"github.com/jimezsa/ghostcli/internal/export"
)

type HistoryCmd struct {
	List  HistoryListCmd  `cmd:"" default:"withargs" help:"List analyzed jobs, most recent first."`
	Clear HistoryClearCmd `cmd:"" help:"Delete all history entries."`
}

type HistoryListCmd struct {
	Format string `help:"Output format: table, csv, json, md, tsv." enum:",table,csv,json,md,tsv" default:""`
	Links  string `help:"Table link display: short or full." enum:"short,full" default:"full"`
	Output string `name:"output" short:"o" help:"Write output to a file."`
	Limit  int    `help:"Show at most N entries."`
}

type HistoryClearCmd struct{}

func (h *HistoryListCmd) Run(ctx *Context) error {
	store, closer, err := openStore(context.Background(), ctx)
	if err != nil {
		return err
	}
	defer closer.Close()

	entries, err := store.List(context.Background())
	if err != nil {
		return err
	}
	if h.Limit > 0 && len(entries) > h.Limit {
		entries = entries[:h.Limit]
	}

	format, err := resolveFormat(ctx, h.Format, h.Output)
	if err != nil {
		return err
	}

	writer := ctx.Out
	if h.Output != "" {
		file, err := os.Create(h.Output)
		if err != nil {
			return err
		}
		defer file.Close()
		writer = file
	}

	colorEnabled := ctx.UI != nil && ctx.UI.ColorEnabled
	hyperlinks := colorEnabled && isTTY(writer)
	linkStyle := export.LinkStyleShort
	if strings.EqualFold(h.Links, string(export.LinkStyleFull)) {
		linkStyle = export.LinkStyleFull
	}
	return export.WriteEntries(writer, entries, format, export.WriteOptions{
		ColorEnabled: colorEnabled,
		Hyperlinks:   hyperlinks,
		LinkStyle:    linkStyle,
	})
}

func (h *HistoryClearCmd) Run(ctx *Context) error {
	store, closer, err := openStore(context.Background(), ctx)
	if err != nil {
		return err
	}
	defer closer.Close()

	if err := store.Clear(context.Background()); err != nil {
		return err
	}
	if ctx.UI != nil && !ctx.JSONOutput {
		ctx.UI.Successf("History cleared")
	}
	return nil
}

func resolveFormat(ctx *Context, flagFormat string, outputPath string) (export.Format, error) {
	if ctx.JSONOutput {
		return export.FormatJSON, nil
	}
	if ctx.PlainText {
		return export.FormatTSV, nil
	}
	if flagFormat != "" {
		return export.ParseFormat(flagFormat)
	}
	if outputPath != "" {
		return export.FormatCSV, nil
	}
	if isTTY(ctx.Out) {
		return export.FormatTable, nil
	}
	return export.FormatCSV, nil
}

