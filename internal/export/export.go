// Package export writes history entries in the formats accepted by
// `ghostcli history list`.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/jimezsa/ghostcli/internal/models"
	"github.com/muesli/termenv"
)

type Format string

const (
	FormatTable    Format = "table"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "md"
	FormatTSV      Format = "tsv"
)

// ParseFormat maps a flag value to a Format, defaulting to table.
func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case "", FormatTable:
		return FormatTable, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatMarkdown, "markdown":
		return FormatMarkdown, nil
	case FormatTSV:
		return FormatTSV, nil
	default:
		return "", fmt.Errorf("unknown format %q", value)
	}
}

type WriteOptions struct {
	ColorEnabled bool
	Hyperlinks   bool
	LinkStyle    LinkStyle
}

type LinkStyle string

const (
	LinkStyleShort LinkStyle = "short"
	LinkStyleFull  LinkStyle = "full"
)

var tableColors = map[models.ScoreColor]string{
	models.ColorGreen:  "2",
	models.ColorYellow: "3",
	models.ColorRed:    "1",
}

func WriteEntries(w io.Writer, entries []models.HistoryEntry, format Format, opts WriteOptions) error {
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	switch format {
	case FormatJSON:
		return writeJSON(w, entries)
	case FormatCSV:
		return writeCSV(w, entries, ',')
	case FormatTSV:
		return writeCSV(w, entries, '\t')
	case FormatMarkdown:
		return writeMarkdown(w, entries)
	default:
		return writeTable(w, entries, opts)
	}
}

func writeJSON(w io.Writer, entries []models.HistoryEntry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

func writeCSV(w io.Writer, entries []models.HistoryEntry, delim rune) error {
	writer := csv.NewWriter(w)
	writer.Comma = delim
	if err := writer.Write(csvHeader()); err != nil {
		return err
	}
	for _, entry := range entries {
		if err := writer.Write(csvRow(entry)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeTable(w io.Writer, entries []models.HistoryEntry, opts WriteOptions) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(tableHeader(), "\t"))
	output := termenv.NewOutput(w)
	for _, entry := range entries {
		fmt.Fprintln(tw, strings.Join(tableRow(entry, output, opts), "\t"))
	}
	return tw.Flush()
}

func writeMarkdown(w io.Writer, entries []models.HistoryEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No results.")
		return err
	}
	for _, entry := range entries {
		urlLine := "  URL: -"
		if url := safe(entry.JobURL); url != "" {
			urlLine = fmt.Sprintf("  URL: [Open listing](<%s>)", url)
		}
		lines := []string{
			fmt.Sprintf("- **%s** (%s)", orDash(entry.JobTitle), orDash(entry.CompanyName)),
			fmt.Sprintf("  Score: %d (%s)", entry.GhostScore.Score, entry.GhostScore.Label),
			urlLine,
		}
		if entry.AnalyzedAt != "" {
			lines = append(lines, fmt.Sprintf("  Analyzed: %s", safe(entry.AnalyzedAt)))
		}
		for _, flag := range entry.RedFlags {
			lines = append(lines, fmt.Sprintf("  - [%s] %s: %s", flag.Severity, safe(flag.Type), safe(flag.Message)))
		}
		for _, line := range lines {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}

func csvHeader() []string {
	return []string{
		"id",
		"job_url",
		"title",
		"company",
		"score",
		"label",
		"color",
		"flags",
		"analyzed_at",
	}
}

func csvRow(entry models.HistoryEntry) []string {
	return []string{
		entry.ID,
		entry.JobURL,
		entry.JobTitle,
		entry.CompanyName,
		strconv.Itoa(entry.GhostScore.Score),
		string(entry.GhostScore.Label),
		string(entry.GhostScore.Color),
		flagTypes(entry.RedFlags),
		entry.AnalyzedAt,
	}
}

func flagTypes(flags []models.RedFlag) string {
	types := make([]string, 0, len(flags))
	for _, flag := range flags {
		types = append(types, flag.Type)
	}
	return strings.Join(types, ";")
}

func safe(value string) string {
	return strings.TrimSpace(value)
}

func orDash(value string) string {
	if value = safe(value); value == "" {
		return "-"
	}
	return value
}

func tableHeader() []string {
	return []string{
		"score",
		"label",
		"title",
		"company",
		"flags",
		"url",
	}
}

func tableRow(entry models.HistoryEntry, output *termenv.Output, opts WriteOptions) []string {
	const linkColor = "#87CEEB"

	url := safe(entry.JobURL)
	displayURL := "-"
	if url != "" {
		displayURL = url
		if opts.LinkStyle == LinkStyleShort && opts.Hyperlinks {
			displayURL = shortURLLabel(url)
		}
		if opts.ColorEnabled {
			displayURL = output.String(displayURL).Foreground(output.Color(linkColor)).String()
		}
		if opts.Hyperlinks {
			displayURL = hyperlink(url, displayURL)
		}
	}

	score := strconv.Itoa(entry.GhostScore.Score)
	if code, ok := tableColors[entry.GhostScore.Color]; ok && opts.ColorEnabled {
		score = output.String(score).Foreground(output.Color(code)).String()
	}
	return []string{
		score,
		string(entry.GhostScore.Label),
		orDash(entry.JobTitle),
		orDash(entry.CompanyName),
		strconv.Itoa(len(entry.RedFlags)),
		displayURL,
	}
}

func hyperlink(url string, text string) string {
	const esc = "\x1b"
	return esc + "]8;;" + url + esc + "\\" + text + esc + "]8;;" + esc + "\\"
}

func shortURLLabel(raw string) string {
	const maxLen = 60
	label := strings.TrimSpace(raw)
	if parsed, err := url.Parse(raw); err == nil {
		host := strings.TrimPrefix(parsed.Host, "www.")
		if host != "" {
			label = host + parsed.Path
		}
	}
	label = strings.TrimSpace(label)
	if label == "" {
		label = raw
	}
	if len(label) > maxLen {
		label = label[:maxLen-3] + "..."
	}
	return label
}
