// Command linesql is the interactive shell: it reads statements from the
// terminal, executes them against the table directory and pretty-prints
// the result rows.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/fatih/color"

	"github.com/trungle-dev/linesql/internal"
	"github.com/trungle-dev/linesql/internal/record"
	"github.com/trungle-dev/linesql/internal/sql/executor"
	"github.com/trungle-dev/linesql/internal/sql/parser"
)

var errColor = color.New(color.FgRed)

// statementComplete checks for a terminating ';' outside quotes.
func statementComplete(buf string) bool {
	inQuote := false
	escaped := false
	var quoteChar rune
	for _, r := range buf {
		if escaped {
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		if r == '\'' || r == '"' {
			if !inQuote {
				inQuote = true
				quoteChar = r
			} else if r == quoteChar {
				inQuote = false
			}
			continue
		}
		if r == ';' && !inQuote {
			return true
		}
	}
	return false
}

// printHeaders renders the table.column headers over the first row.
func printHeaders(row *record.Row) {
	for _, col := range row.Columns() {
		meta := col.Metadata()
		width := record.WidthForType(meta.ColType)
		header := meta.TableName + "." + meta.ColName
		fmt.Printf("%-*s  ", width, header)
	}
	fmt.Println()
}

func printRow(row *record.Row) {
	for _, col := range row.Columns() {
		width := record.WidthForType(col.Metadata().ColType)
		value := col.Value()
		if col.IsNull() {
			value = "NULL"
		}
		fmt.Printf("%-*s  ", width, value)
	}
	fmt.Println()
}

// execute runs one statement and streams the result to stdout.
func execute(env *executor.Env, stmt string) error {
	q, err := parser.Parse(stmt)
	if err != nil {
		return err
	}
	result, err := env.Execute(q)
	if err != nil {
		return err
	}
	defer result.Close()

	row := record.NewRow(nil)
	firstLine := true
	for {
		ok, err := result.Next(row)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if firstLine {
			fmt.Println()
			printHeaders(row)
			fmt.Println()
			firstLine = false
		}
		printRow(row)
		fmt.Println()
	}
}

func main() {
	var (
		configPath = flag.String("config", "", "path to a linesql.yaml config file")
		debug      = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	level := slog.LevelWarn
	if *debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := internal.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	env := &executor.Env{
		TableDir:      cfg.TableDir,
		RemoteTimeout: time.Duration(cfg.Remote.TimeoutMs) * time.Millisecond,
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          cfg.Repl.Prompt,
		HistoryFile:     cfg.Repl.History,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = rl.Close() }()

	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			// Ctrl+C clears the current buffer.
			if buf.Len() > 0 {
				buf.Reset()
				rl.SetPrompt(cfg.Repl.Prompt)
			}
			continue
		}
		if err != nil {
			// EOF
			fmt.Println()
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if buf.Len() == 0 && (line == "quit" || line == "exit") {
			return
		}

		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(line)
		if !statementComplete(buf.String()) {
			rl.SetPrompt("    -> ")
			continue
		}

		stmt := buf.String()
		buf.Reset()
		rl.SetPrompt(cfg.Repl.Prompt)

		if err := execute(env, stmt); err != nil {
			errColor.Printf("Error: %v\n", err)
		}
	}
}
