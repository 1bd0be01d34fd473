package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"

	"torrentify/internal/runstats"
	"torrentify/internal/workflow"
)

func renderSummary(summary workflow.Summary, color bool) string {
	snap := summary.Stats
	var b strings.Builder

	title := "Run summary"
	if snap.Failed > 0 {
		title += " (with errors)"
	}
	fmt.Fprintf(&b, "%s  %s  %s\n", colorize(color, text.Colors{text.Bold}, title),
		runstats.FormatDuration(snap.Duration), summary.RunID)

	rows := make([][]string, 0, len(snap.Categories)+1)
	for _, c := range snap.Categories {
		if c.Discovered == 0 && c.Failed == 0 {
			continue
		}
		rows = append(rows, []string{
			c.Name,
			count(c.Discovered),
			count(c.Processed),
			count(c.Skipped),
			count(c.Deferred),
			count(c.Empty),
			failedCell(color, c.Failed),
		})
	}
	rows = append(rows, []string{
		"total", "",
		count(snap.Processed),
		count(snap.Skipped),
		count(snap.Deferred),
		count(snap.Empty),
		failedCell(color, snap.Failed),
	})
	right := []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight}
	b.WriteString(renderTable(
		[]string{"Category", "Found", "Processed", "Skipped", "Deferred", "Empty", "Failed"},
		rows, right))
	b.WriteString("\n")

	lookups := [][]string{
		{"TMDB", count(snap.TMDB.Found), count(snap.TMDB.Missing)},
		{"iTunes", count(snap.ITunes.Found), count(snap.ITunes.Missing)},
	}
	b.WriteString(renderTable([]string{"Lookup", "Found", "Not found"}, lookups,
		[]columnAlignment{alignLeft, alignRight, alignRight}))

	if snap.Retag.Triggered {
		b.WriteString("\n")
		committed := yesNo(summary.Retag.Committed)
		b.WriteString(renderTable(
			[]string{"Retag", "Packages", "Updated", "Resumed", "Failed", "Committed"},
			[][]string{{
				"trackers changed",
				count(snap.Retag.Scanned),
				count(snap.Retag.Updated),
				count(snap.Retag.Resumed),
				failedCell(color, snap.Retag.Failed),
				committed,
			}},
			[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft}))
	}

	if len(summary.Failures) > 0 {
		b.WriteString("\n")
		rows := make([][]string, 0, len(summary.Failures))
		for _, f := range summary.Failures {
			msg := ""
			if f.Err != nil {
				msg = f.Err.Error()
			}
			rows = append(rows, []string{f.Category, f.Item, f.Kind, truncate(msg, 80)})
		}
		b.WriteString(renderTable([]string{"Category", "Item", "Kind", "Error"}, rows, nil))
	}
	return b.String()
}

func count(n int64) string {
	return strconv.FormatInt(n, 10)
}

func failedCell(color bool, n int64) string {
	if n == 0 {
		return "0"
	}
	return colorize(color, text.Colors{text.FgRed}, count(n))
}

func truncate(value string, limit int) string {
	value = strings.ReplaceAll(value, "\n", " ")
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}
