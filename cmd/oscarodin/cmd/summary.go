package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"

	"github.com/samar-hassan/django-oscar-odin/dbchange"
)

// printSummary writes the per table counts of an import as an aligned table
func printSummary(w io.Writer, summaries []dbchange.TableSummary) {
	if len(summaries) == 0 {
		fmt.Fprintln(w, color.Yellow.Sprint("Nothing to import"))
		return
	}

	width := runewidth.StringWidth("TOTAL")
	for _, summary := range summaries {
		if n := runewidth.StringWidth(summary.Table); n > width {
			width = n
		}
	}

	fmt.Fprintf(w, "%s  %s  %s\n",
		color.Bold.Sprint(runewidth.FillRight("TABLE", width)),
		color.Bold.Sprint("INSERTED"),
		color.Bold.Sprint("UPDATED"),
	)

	var inserted, updated int
	for _, summary := range summaries {
		inserted += summary.Inserted
		updated += summary.Updated
		fmt.Fprintf(w, "%s  %s  %s\n",
			runewidth.FillRight(summary.Table, width),
			count(summary.Inserted, len("INSERTED"), color.Green),
			count(summary.Updated, len("UPDATED"), color.Cyan),
		)
	}
	fmt.Fprintf(w, "%s  %s  %s\n",
		color.Bold.Sprint(runewidth.FillRight("TOTAL", width)),
		count(inserted, len("INSERTED"), color.Green),
		count(updated, len("UPDATED"), color.Cyan),
	)
}

// count right aligns n in a column of width, colored when not zero
func count(n, width int, c color.Color) string {
	text := runewidth.FillLeft(strconv.Itoa(n), width)
	if n == 0 {
		return text
	}
	return c.Sprint(text)
}
