package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/focusflow/internal/ai"
	"github.com/hpungsan/focusflow/internal/config"
	"github.com/hpungsan/focusflow/internal/db"
	"github.com/hpungsan/focusflow/internal/errors"
	"github.com/hpungsan/focusflow/internal/logger"
	"github.com/hpungsan/focusflow/internal/mcp"
	"github.com/hpungsan/focusflow/internal/ops"
	"github.com/hpungsan/focusflow/internal/quiz"
	"github.com/hpungsan/focusflow/internal/summarize"
	"github.com/hpungsan/focusflow/internal/web"
)

// env is what every command needs. It is nil for --help and --version.
type env struct {
	db        *sql.DB
	cfg       *config.Config
	assistant *ai.Assistant
	log       *logger.Logger
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(e *env) *cli.App {
	app := &cli.App{
		Name:    "focusflow",
		Usage:   "Local-first notes and study assistant",
		Version: Version,
		Commands: []*cli.Command{
			saveCmd(e),
			showCmd(e),
			listCmd(e),
			deleteCmd(e),
			treeCmd(e),
			summarizeCmd(e),
			quizCmd(e),
			reviewCmd(e),
			progressCmd(e),
			rewriteCmd(e),
			translateCmd(e),
			cleanCmd(e),
			detectCmd(e),
			ocrCmd(e),
			transcribeCmd(e),
			promptCmd(e),
			sessionCmd(e),
			sessionsCmd(e),
			exportCmd(e),
			exportMarkdownCmd(e),
			importCmd(e),
			watchCmd(e),
			serveCmd(e),
			mcpCmd(e),
		},
	}
	// Errors are returned to main, which prints them and exits.
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func saveCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "save",
		Usage:     "Create a note, or update one with --id (content is read from stdin)",
		ArgsUsage: " ",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "id", Usage: "Existing note ID to update"},
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Note title"},
			&cli.StringFlag{Name: "topic", Usage: "Top-level topic"},
			&cli.StringFlag{Name: "tags", Usage: "Comma-separated tags, outermost first"},
		},
		Action: func(c *cli.Context) error {
			input := ops.SaveInput{ID: c.String("id")}

			if stdinHasData(c) {
				text, err := readStdin(c)
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				if text != "" || input.ID == "" {
					input.Content = &text
				}
			}
			if input.ID == "" && input.Content == nil {
				return outputError(errors.NewInvalidRequest("content must be piped via stdin"))
			}
			if c.IsSet("title") {
				title := c.String("title")
				input.Title = &title
			}
			if c.IsSet("topic") {
				topic := c.String("topic")
				input.Topic = &topic
			}
			if c.IsSet("tags") {
				input.Tags = parseTags(c.String("tags"))
				if input.Tags == nil {
					input.Tags = []string{}
				}
			}

			output, err := ops.SaveNote(c.Context, e.db, e.cfg, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

func showCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a note with its summaries, quiz results and AI activity",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.GetNote(c.Context, e.db, c.Args().First())
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

func listCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List notes, most recently updated first",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "topic", Usage: "Filter by topic"},
			&cli.StringFlag{Name: "tag", Usage: "Filter by tag"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Usage: "Items to skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.ListNotes(c.Context, e.db, ops.ListInput{
				Topic:  c.String("topic"),
				Tag:    c.String("tag"),
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

func deleteCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Permanently delete a note",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.DeleteNote(c.Context, e.db, c.Args().First())
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

func treeCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "tree",
		Usage: "Show the topic and tag hierarchy",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "topic", Usage: "Filter by topic"},
			&cli.StringFlag{Name: "tag", Usage: "Filter by tag"},
			&cli.StringFlag{Name: "png", Usage: "Also render the graph to this .png file"},
			&cli.BoolFlag{Name: "outline", Usage: "Print the indented outline instead of JSON"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Tree(c.Context, e.db, e.cfg, ops.TreeInput{
				Topic:   c.String("topic"),
				Tag:     c.String("tag"),
				PNGPath: c.String("png"),
			})
			if err != nil {
				return outputError(err)
			}
			if c.Bool("outline") {
				_, err := io.WriteString(c.App.Writer, output.Outline)
				return err
			}
			return outputJSON(c, output)
		},
	}
}

func summarizeCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "summarize",
		Usage:     "Summarize a note, or every note with --all",
		ArgsUsage: "[id]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "force", Aliases: []string{"f"}, Usage: "Regenerate even if a summary is stored"},
			&cli.BoolFlag{Name: "all", Usage: "Digest all notes (optionally filtered) without storing"},
			&cli.StringFlag{Name: "topic", Usage: "Filter for --all"},
			&cli.StringFlag{Name: "tag", Usage: "Filter for --all"},
		},
		Action: func(c *cli.Context) error {
			pipeline := summarize.New(e.db, e.assistant, e.log)

			var (
				output *summarize.Result
				err    error
			)
			switch {
			case c.Bool("all"):
				output, err = pipeline.SummarizeAll(c.Context, db.ListFilters{Topic: c.String("topic"), Tag: c.String("tag")})
			case c.Bool("force"):
				output, err = pipeline.ForceRegenerate(c.Context, c.Args().First())
			default:
				output, err = pipeline.Summarize(c.Context, c.Args().First())
			}
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

func quizCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "quiz",
		Usage:     "Take a quiz on a note's action items (answers are read from stdin)",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			engine := quiz.NewEngine(e.db, e.assistant, e.log)
			view, err := runQuiz(c.Context, engine, c.Args().First(), c.App.Reader, c.App.ErrWriter)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, view)
		},
	}
}

// runQuiz drives one attempt: each question is printed to out and answered
// with a line from in ("1"-"4" or "a"-"d"; "p" goes back, "q" quits).
func runQuiz(ctx context.Context, engine *quiz.Engine, noteID string, in io.Reader, out io.Writer) (*quiz.View, error) {
	view, err := engine.Start(ctx, noteID)
	if err != nil {
		return nil, err
	}

	scanner := bufio.NewScanner(in)
	for view.State == quiz.InProgress {
		printQuestion(out, view)
		if !scanner.Scan() {
			_, _ = engine.Close(noteID)
			return nil, errors.NewInvalidRequest("quiz abandoned before the last question")
		}

		line := strings.ToLower(strings.TrimSpace(scanner.Text()))
		switch line {
		case "q", "quit":
			return engine.Close(noteID)
		case "p", "prev", "previous":
			if v, err := engine.Previous(noteID); err != nil {
				fmt.Fprintln(out, err)
			} else {
				view = v
			}
			continue
		}

		option, ok := parseOption(line)
		if !ok {
			fmt.Fprintln(out, "answer with 1-4 or a-d")
			continue
		}
		if _, err := engine.Answer(noteID, option); err != nil {
			return nil, err
		}
		if view, err = engine.Next(ctx, noteID); err != nil {
			return nil, err
		}
	}

	if view.Result != nil {
		fmt.Fprintf(out, "\nScore: %d/%d (%d%%, %s)\n", view.Result.Score, view.Result.TotalQuestions, view.Percent, view.Band)
	}
	return view, nil
}

func printQuestion(out io.Writer, v *quiz.View) {
	q := v.Question
	if q == nil {
		return
	}
	fmt.Fprintf(out, "\nQuestion %d of %d\n%s\n", q.Number, v.Total, q.Question)
	for i, opt := range q.Options {
		marker := " "
		if q.Selected == i {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %d) %s\n", marker, i+1, opt)
	}
	fmt.Fprint(out, "> ")
}

// parseOption maps "1"-"4" and "a"-"d" to a zero-based option index.
func parseOption(s string) (int, bool) {
	if len(s) == 1 && s[0] >= 'a' && s[0] <= 'd' {
		return int(s[0] - 'a'), true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > 4 {
		return 0, false
	}
	return n - 1, true
}

func reviewCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "review",
		Usage:     "Review a stored quiz result",
		ArgsUsage: "<id> <result-id>",
		Action: func(c *cli.Context) error {
			output, err := ops.QuizReview(c.Context, e.db, c.Args().Get(0), c.Args().Get(1))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

func progressCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "progress",
		Usage:     "Show quiz statistics for a note",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.QuizProgress(c.Context, e.db, c.Args().First())
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

// textFlags are shared by the text tools. With --text and no id the tool runs
// on the given text alone.
func textFlags(extra ...cli.Flag) []cli.Flag {
	return append([]cli.Flag{
		&cli.StringFlag{Name: "text", Usage: "Selection within the note (or standalone text without an id)"},
	}, extra...)
}

func textInput(c *cli.Context) ops.TextInput {
	return ops.TextInput{NoteID: c.Args().First(), Text: c.String("text")}
}

func rewriteCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "rewrite",
		Usage:     "Rewrite a note or selection in another tone",
		ArgsUsage: "[id]",
		Flags:     textFlags(&cli.StringFlag{Name: "tone", Value: "professional", Usage: "Target tone"}),
		Action: func(c *cli.Context) error {
			input := textInput(c)
			input.Tone = c.String("tone")
			output, err := ops.Rewrite(c.Context, e.db, e.cfg, e.assistant, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

func translateCmd(e *env) *cli.Command {
	codes := make([]string, 0, len(ai.Languages))
	for _, l := range ai.Languages {
		codes = append(codes, l.Code)
	}
	return &cli.Command{
		Name:      "translate",
		Usage:     "Translate a note or selection",
		ArgsUsage: "[id]",
		Flags: textFlags(&cli.StringFlag{
			Name:     "lang",
			Required: true,
			Usage:    "Target language: " + strings.Join(codes, ", "),
		}),
		Action: func(c *cli.Context) error {
			input := textInput(c)
			input.Language = c.String("lang")
			output, err := ops.Translate(c.Context, e.db, e.cfg, e.assistant, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

func cleanCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "clean",
		Usage:     "Tidy formatting of a note or selection",
		ArgsUsage: "[id]",
		Flags:     textFlags(),
		Action: func(c *cli.Context) error {
			output, err := ops.Clean(c.Context, e.db, e.cfg, e.assistant, textInput(c))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

func detectCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "detect",
		Usage:     "Detect the language of a note or text",
		ArgsUsage: "[id]",
		Flags:     textFlags(),
		Action: func(c *cli.Context) error {
			output, err := ops.DetectLanguage(c.Context, e.db, e.assistant, textInput(c))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

func mediaFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Required: true, Usage: "Path to the file"},
		&cli.StringFlag{Name: "note", Aliases: []string{"n"}, Usage: "Append the extracted text to this note"},
	}
}

// readMedia loads an upload, refusing anything over ops.MaxUploadBytes
// before reading it.
func readMedia(c *cli.Context) (ops.MediaInput, error) {
	path := c.String("file")
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ops.MediaInput{}, errors.NewFileNotFound(path)
		}
		return ops.MediaInput{}, errors.NewInternal(err)
	}
	if info.Size() > ops.MaxUploadBytes {
		return ops.MediaInput{}, errors.NewFileTooLarge(ops.MaxUploadBytes, info.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ops.MediaInput{}, errors.NewInternal(err)
	}
	return ops.MediaInput{NoteID: c.String("note"), Name: info.Name(), Data: data}, nil
}

func ocrCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "ocr",
		Usage: "Extract text and formulas from an image",
		Flags: mediaFlags(),
		Action: func(c *cli.Context) error {
			input, err := readMedia(c)
			if err != nil {
				return outputError(err)
			}
			output, err := ops.ExtractImage(c.Context, e.db, e.cfg, e.assistant, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

func transcribeCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "transcribe",
		Usage: "Transcribe an audio recording",
		Flags: mediaFlags(),
		Action: func(c *cli.Context) error {
			input, err := readMedia(c)
			if err != nil {
				return outputError(err)
			}
			output, err := ops.TranscribeAudio(c.Context, e.db, e.cfg, e.assistant, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

func promptCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "prompt",
		Usage:     "Generate a daily prompt: " + strings.Join(ops.PromptKinds, ", "),
		ArgsUsage: "[kind]",
		Action: func(c *cli.Context) error {
			output, err := ops.DailyPrompt(c.Context, e.assistant, c.Args().First())
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

func sessionCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "session",
		Usage: "Record a completed focus session",
		Flags: []cli.Flag{
			&cli.DurationFlag{Name: "duration", Aliases: []string{"d"}, Value: 25 * time.Minute, Usage: "Session length"},
			&cli.StringFlag{Name: "notes", Usage: "What you worked on"},
			&cli.BoolFlag{Name: "motivate", Usage: "Ask for an encouraging message"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.RecordSession(c.Context, e.db, e.assistant, ops.SessionInput{
				Duration: int(c.Duration("duration").Seconds()),
				Notes:    c.String("notes"),
				Motivate: c.Bool("motivate"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

func sessionsCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "sessions",
		Usage: "List focus sessions, or show totals with --stats",
		Flags: []cli.Flag{
			&cli.DurationFlag{Name: "since", Usage: "Only sessions completed within this window (e.g. 24h)"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum items to return"},
			&cli.BoolFlag{Name: "stats", Usage: "Show today's and overall totals"},
			&cli.BoolFlag{Name: "motivation", Usage: "Generate a message for the next session"},
		},
		Action: func(c *cli.Context) error {
			var (
				output any
				err    error
			)
			switch {
			case c.Bool("stats"):
				output, err = ops.SessionStats(c.Context, e.db, time.Now())
			case c.Bool("motivation"):
				output, err = ops.Motivation(c.Context, e.db, e.assistant)
			default:
				input := ops.SessionsInput{Limit: c.Int("limit")}
				if since := c.Duration("since"); since > 0 {
					input.Since = time.Now().Add(-since).Unix()
				}
				output, err = ops.ListSessions(c.Context, e.db, input)
			}
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

func exportCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export notes to a JSON backup",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.focusflow/exports/notes-<timestamp>.json)"},
			&cli.StringFlag{Name: "topic", Usage: "Filter by topic"},
			&cli.StringFlag{Name: "tag", Usage: "Filter by tag"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Export(c.Context, e.db, e.cfg, ops.ExportInput{
				Path:  c.String("path"),
				Topic: c.String("topic"),
				Tag:   c.String("tag"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

func exportMarkdownCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "export-md",
		Usage: "Write each note as a Markdown file with YAML front matter",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Usage: "Output directory (default: ~/.focusflow/exports)"},
			&cli.StringFlag{Name: "topic", Usage: "Filter by topic"},
			&cli.StringFlag{Name: "tag", Usage: "Filter by tag"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.ExportMarkdown(c.Context, e.db, e.cfg, ops.MarkdownInput{
				Dir:   c.String("dir"),
				Topic: c.String("topic"),
				Tag:   c.String("tag"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

func importCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import notes from one or more JSON backups",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Import file path or glob"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Import(c.Context, e.db, e.cfg, ops.ImportInput{Path: c.String("path")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c, output)
		},
	}
}

func watchCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Import backups dropped into a directory until interrupted",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Usage: "Directory to watch (default: ~/.focusflow/exports)"},
		},
		Action: func(c *cli.Context) error {
			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			err := ops.Watch(ctx, e.db, e.cfg, e.log, ops.WatchInput{
				Dir: c.String("dir"),
				OnImport: func(path string, out *ops.ImportOutput, err error) {
					if err != nil {
						return
					}
					_ = outputJSON(c, out)
				},
			})
			if err != nil {
				return outputError(err)
			}
			return nil
		},
	}
}

func serveCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the browser UI",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Value: 7070, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			srv, err := web.NewServer(e.db, e.cfg, e.assistant, e.log, Version, c.String("bind"), c.Int("port"))
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			return web.Run(c.Context, srv, e.log)
		},
	}
}

func mcpCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run the MCP server on stdio (the default when input is piped)",
		Action: func(c *cli.Context) error {
			return mcp.Run(e.db, e.cfg, e.assistant, e.log, Version)
		},
	}
}

// Helper functions

// outputJSON writes v to the app's stdout as indented JSON.
func outputJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats err as "[CODE] message" with exit status 1.
func outputError(err error) error {
	if fErr, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", fErr.Code, fErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData reports whether the app's stdin is piped rather than a terminal.
func stdinHasData(c *cli.Context) bool {
	f, ok := c.App.Reader.(*os.File)
	if !ok {
		return c.App.Reader != nil
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

func readStdin(c *cli.Context) (string, error) {
	data, err := io.ReadAll(c.App.Reader)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// parseTags splits a comma-separated string into a slice of tags.
func parseTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			tags = append(tags, t)
		}
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}
