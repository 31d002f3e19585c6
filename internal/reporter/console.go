package reporter

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"pgsql-check/internal/model"
)

type ConsoleReporter struct {
	out io.Writer
}

func NewConsoleReporter(w io.Writer) *ConsoleReporter {
	return &ConsoleReporter{out: w}
}

func (r *ConsoleReporter) Report(diags []model.Diagnostic) error {
	if len(diags) == 0 {
		_, err := fmt.Fprintln(r.out, color.GreenString("✔ No SQL issues found."))
		return err
	}

	levelColor := color.New(color.FgYellow, color.Bold)
	for _, d := range diags {
		// file:line:col: [LEVEL] ID: message
		fmt.Fprintf(r.out, "%s: [%s] %s: %s\n", d.Location, levelColor.Sprint(d.Level), d.Rule, d.Message)
		if d.SQL != "" {
			fmt.Fprintf(r.out, "\tSQL: %s\n", color.CyanString(truncate(oneLine(d.SQL), 80)))
		}
		for _, loc := range d.AdditionalLocations {
			fmt.Fprintf(r.out, "\tUsed at: %s\n", loc)
		}
		fmt.Fprintln(r.out)
	}

	_, err := fmt.Fprintf(r.out, "%s found %d issues.\n", color.RedString("✘"), len(diags))
	return err
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) > max {
		return string(runes[:max]) + "..."
	}
	return s
}
