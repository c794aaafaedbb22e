package main

import (
	"fmt"
	"os"

	"github.com/hpungsan/focusflow/internal/ai"
	"github.com/hpungsan/focusflow/internal/config"
	"github.com/hpungsan/focusflow/internal/db"
	"github.com/hpungsan/focusflow/internal/logger"
	"github.com/hpungsan/focusflow/internal/mcp"
	"github.com/hpungsan/focusflow/internal/ops"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"save": true, "show": true, "list": true, "delete": true, "tree": true,
	"summarize": true, "quiz": true, "review": true, "progress": true,
	"rewrite": true, "translate": true, "clean": true, "detect": true,
	"ocr": true, "transcribe": true, "prompt": true,
	"session": true, "sessions": true,
	"export": true, "export-md": true, "import": true, "watch": true,
	"serve": true, "mcp": true, "help": true,
}

// isCLIMode reports whether args name a subcommand rather than MCP server mode.
func isCLIMode(args []string) bool {
	if len(args) < 2 {
		return false
	}
	return cliCommands[args[1]] || isHelpOrVersion(args)
}

func isHelpOrVersion(args []string) bool {
	if len(args) < 2 {
		return false
	}
	switch args[1] {
	case "--help", "-h", "--version", "-v", "help":
		return true
	}
	return false
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}

func printBanner() {
	fmt.Println(`
   ___                 ___ _
  | __|__  __ _  _ ___| __| |_____ __ __
  | _/ _ \/ _| || (_-<| _|| / _ \ V  V /
  |_|\___/\__|\_,_/__/|_| |_\___/\_/\_/

  Local-first notes and study assistant

  Usage: focusflow <command> [options]
         focusflow --help

  MCP server mode requires piped input.`)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// --help/--version need no database.
	if isHelpOrVersion(os.Args) {
		if err := newCLIApp(nil).Run(os.Args); err != nil {
			fail("%v", err)
		}
		return
	}

	if len(os.Args) >= 2 && !isCLIMode(os.Args) && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fail("run 'focusflow --help' for usage")
	}

	baseDir, err := ops.BaseDir()
	if err != nil {
		fail("could not determine home directory: %v", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = baseDir
	}
	cfg, err := config.LoadWithRepo(baseDir, cwd)
	if err != nil {
		fail("failed to load config: %v", err)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fail("failed to build logger: %v", err)
	}
	defer log.Sync()

	database, err := db.Init(baseDir)
	if err != nil {
		fail("failed to initialize database: %v", err)
	}
	defer database.Close()
	db.ConfigurePool(database, cfg)

	e := &env{
		db:        database,
		cfg:       cfg,
		assistant: ai.FromConfig(cfg.AI, log),
		log:       log,
	}

	if isCLIMode(os.Args) {
		if err := newCLIApp(e).Run(os.Args); err != nil {
			fmt.Fprintln(os.Stderr, err)
			exit(1, database, log)
		}
		return
	}

	if err := mcp.Run(database, cfg, e.assistant, log, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		exit(1, database, log)
	}
}

// exit flushes and closes before os.Exit, which skips deferred calls.
func exit(code int, database interface{ Close() error }, log *logger.Logger) {
	log.Sync()
	_ = database.Close()
	os.Exit(code)
}
