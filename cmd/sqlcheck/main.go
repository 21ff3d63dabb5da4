// Command sqlcheck runs a SQL script against a throwaway SQLite database and
// explains MySQL habits that SQLite rejects.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"
	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"sqlplayground/internal/database"
	"sqlplayground/internal/hints"
	"sqlplayground/internal/logging"
	"sqlplayground/internal/models"
	"sqlplayground/internal/repositories"
	"sqlplayground/internal/services"
	"sqlplayground/internal/utils"
)

const version = "0.1.0"

var errStatementsFailed = errors.New("script had failing statements")

// CLI defines the command-line interface for sqlcheck.
var CLI struct {
	LogLevel string `name:"log-level" help:"Log level (debug, info, warn, error)" default:"warn"`

	Run     RunCmd     `cmd:"" help:"Run a SQL script in a fresh in-memory database"`
	Hints   HintsCmd   `cmd:"" help:"List the built-in hints, or show one"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// RunCmd executes a script statement by statement.
type RunCmd struct {
	File        string        `arg:"" optional:"" help:"SQL file to run (default: stdin)" type:"existingfile"`
	StopOnError bool          `name:"stop-on-error" help:"Stop at the first failing statement"`
	Timeout     time.Duration `help:"Per-statement timeout" default:"5s"`
	MaxRows     int           `name:"max-rows" help:"Rows to print per SELECT" default:"20"`
}

func (c *RunCmd) Run() error {
	var (
		script []byte
		err    error
	)
	if c.File == "" {
		script, err = io.ReadAll(os.Stdin)
	} else {
		script, err = os.ReadFile(c.File)
	}
	if err != nil {
		return fmt.Errorf("failed to read script: %w", err)
	}

	failed, err := runScript(context.Background(), os.Stdout, string(script), runOptions{
		stopOnError: c.StopOnError,
		timeout:     c.Timeout,
		maxRows:     c.MaxRows,
	})
	if err != nil {
		return err
	}
	if failed > 0 {
		return errStatementsFailed
	}
	return nil
}

// HintsCmd lists the hint rules.
type HintsCmd struct {
	ID string `arg:"" optional:"" help:"Show the full text of one hint"`
}

func (c *HintsCmd) Run() error {
	return printHints(os.Stdout, hints.Default(), c.ID)
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("sqlcheck %s (sqlite %s)\n", version, database.DriverType())
	return nil
}

type runOptions struct {
	stopOnError bool
	timeout     time.Duration
	maxRows     int
}

// runScript executes each statement of script in its own request against
// one sandbox and reports the outcome. It returns the number of failures.
func runScript(ctx context.Context, w io.Writer, script string, opts runOptions) (int, error) {
	journal := repositories.NewMemoryJournalRepository(time.Hour)
	history := repositories.NewMemoryQueryHistoryRepository(0, 0)
	sandboxes := services.NewSandboxService(journal, history, services.SandboxOptions{MaxSandboxes: 1})
	defer sandboxes.Close()

	schema := services.NewSchemaService(sandboxes)
	query := services.NewQueryService(sandboxes, schema, journal, history, hints.Default(), services.QueryOptions{
		Timeout: opts.timeout,
		MaxRows: opts.maxRows,
	})

	sb, err := sandboxes.Create(ctx)
	if err != nil {
		return 0, err
	}

	statements := utils.SplitStatements(script)
	fmt.Fprintf(w, "Running %s (%s)\n\n",
		english.Plural(len(statements), "statement", ""), humanize.Bytes(uint64(len(script))))

	start := time.Now()
	failed := 0
	var tables []models.Table

	for i, stmt := range statements {
		resp, err := query.ExecuteQuery(ctx, sb.ID, &services.ExecuteQueryRequest{Query: stmt})
		if err != nil {
			return failed, err
		}
		tables = resp.Tables

		printResult(w, i+1, stmt, resp)
		if !resp.Result.Success() {
			failed++
			if opts.stopOnError {
				fmt.Fprintf(w, "Stopped after %s.\n\n", humanize.Ordinal(i+1)+" statement")
				break
			}
		}
	}

	printTables(w, tables)
	fmt.Fprintf(w, "%s, %s failed, %s\n",
		english.Plural(len(statements), "statement", ""),
		humanize.Comma(int64(failed)),
		time.Since(start).Round(time.Millisecond))

	return failed, nil
}

func printResult(w io.Writer, n int, stmt string, resp *services.ExecuteResponse) {
	result := resp.Result
	status := "ok"
	if !result.Success() {
		status = "FAIL"
	}
	fmt.Fprintf(w, "[%d] %-4s %s\n", n, status, summarize(stmt))

	switch {
	case !result.Success():
		fmt.Fprintf(w, "     %s\n", result.Error)
	case len(result.Columns) > 0:
		printRows(w, result)
	case result.RowsAffected > 0:
		fmt.Fprintf(w, "     %s affected\n", english.Plural(int(result.RowsAffected), "row", ""))
	}

	if resp.Hint != nil {
		fmt.Fprintf(w, "     hint (%s): %s\n", resp.Hint.Severity, resp.Hint.Title)
		for _, line := range wrap(resp.Hint.Text(), 72) {
			fmt.Fprintf(w, "       %s\n", line)
		}
	}
	fmt.Fprintln(w)
}

func printRows(w io.Writer, result *models.QueryResult) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "     %s\n", strings.Join(result.Columns, "\t"))
	for _, row := range result.Rows {
		cells := make([]string, len(result.Columns))
		for i, col := range result.Columns {
			if row[col] == nil {
				cells[i] = "NULL"
			} else {
				cells[i] = fmt.Sprint(row[col])
			}
		}
		fmt.Fprintf(tw, "     %s\n", strings.Join(cells, "\t"))
	}
	tw.Flush()

	if result.Truncated {
		fmt.Fprintf(w, "     (first %s shown)\n", english.Plural(result.RowCount, "row", ""))
	}
}

func printTables(w io.Writer, tables []models.Table) {
	if len(tables) == 0 {
		fmt.Fprintln(w, "No tables.")
		fmt.Fprintln(w)
		return
	}

	fmt.Fprintln(w, "Tables:")
	for _, t := range tables {
		fmt.Fprintf(w, "  %s\n", t.Name)
		for _, c := range t.Columns {
			fmt.Fprintf(w, "    %s\n", c.Label())
		}
	}
	fmt.Fprintln(w)
}

func printHints(w io.Writer, m *hints.Matcher, id string) error {
	if id != "" {
		rule, ok := m.Lookup(id)
		if !ok {
			return fmt.Errorf("unknown hint %q", id)
		}
		fmt.Fprintf(w, "%s (%s)\n\n", rule.Title, rule.Severity)
		for _, line := range wrap(rule.Text(), 76) {
			fmt.Fprintln(w, line)
		}
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSEVERITY\tTITLE")
	for _, r := range m.Rules() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.ID, r.Severity, r.Title)
	}
	return tw.Flush()
}

// summarize returns the first line of a statement, cut to 60 runes.
func summarize(stmt string) string {
	line := strings.TrimSpace(strings.SplitN(strings.TrimSpace(stmt), "\n", 2)[0])
	if r := []rune(line); len(r) > 60 {
		return string(r[:57]) + "..."
	}
	return line
}

func wrap(text string, width int) []string {
	var (
		lines []string
		cur   strings.Builder
	)
	for _, word := range strings.Fields(text) {
		if cur.Len() > 0 && cur.Len()+1+len(word) > width {
			lines = append(lines, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteByte(' ')
		}
		cur.WriteString(word)
	}
	if cur.Len() > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("sqlcheck"),
		kong.Description("Run SQL scripts against SQLite and explain MySQL-only syntax"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	logging.Setup(CLI.LogLevel)

	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
