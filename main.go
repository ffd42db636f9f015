package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/mcncl/evosave/internal/checksum"
	"github.com/mcncl/evosave/internal/config"
	"github.com/mcncl/evosave/internal/errors"
	"github.com/mcncl/evosave/internal/formatter"
	"github.com/mcncl/evosave/internal/models"
	"github.com/mcncl/evosave/internal/parser"
	"github.com/mcncl/evosave/internal/savegame"
)

// Version information
const (
	Version = "0.1.0"
)

// CLI defines the command-line interface
type CLI struct {
	Config  string           `help:"Path to a config file. Defaults to .evosave.yml in the current directory or a parent." type:"path"`
	Debug   bool             `help:"Enable debug logging." short:"d"`
	Version kong.VersionFlag `help:"Show version information." short:"v"`

	Decode   DecodeCmd   `cmd:"" help:"Decode a savegame into an editable JSON document."`
	Encode   EncodeCmd   `cmd:"" help:"Encode a JSON document into a savegame."`
	Verify   VerifyCmd   `cmd:"" help:"Check the checksum of a savegame."`
	Checksum ChecksumCmd `cmd:"" help:"Print the savegame checksum of a payload."`
	Games    GamesCmd    `cmd:"" help:"List the games savegames can be produced for."`
}

// Context holds the runtime context shared by all commands
type Context struct {
	Config *config.Config
	Logger *slog.Logger
	Stdin  io.Reader
	Stdout io.Writer
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run parses args, executes the selected command and returns the exit status
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var cli CLI
	app, err := kong.New(&cli,
		kong.Name("evosave"),
		kong.Description("Decode and re-encode Evoland savegames"),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.Vars{"version": "evosave version " + Version},
	)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}

	kctx, err := app.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		fmt.Fprintf(stderr, "\nFor help, run: evosave --help\n")
		return 1
	}

	configPath := cli.Config
	if configPath == "" {
		configPath = config.FindConfigFile()
	}
	// only the selected command's flags are set
	cliGame := cli.Encode.Game
	cliChecksum := cli.Decode.Checksum
	cfg, err := config.LoadConfigWithCLI(configPath, cliGame, cliChecksum, cli.Debug)
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", errors.UserFriendlyError(errors.NewConfigError(err.Error(), err)))
		return 1
	}

	level := slog.LevelInfo
	if cfg.Dev.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	if configPath != "" {
		logger.Debug("loaded config", "path", configPath)
	}

	ctx := &Context{
		Config: cfg,
		Logger: logger,
		Stdin:  stdin,
		Stdout: stdout,
	}
	if err := kctx.Run(ctx); err != nil {
		// Use our custom error handling to provide user-friendly error messages
		fmt.Fprintf(stderr, "%s\n", errors.UserFriendlyError(err))
		return 1
	}
	return 0
}

// codec returns a savegame codec using the configured checksum mode
func (ctx *Context) codec() *savegame.Codec {
	return savegame.NewCodec(savegame.WithChecksumMode(ctx.Config.ChecksumMode()), savegame.WithLogger(ctx.Logger))
}

// DecodeCmd turns a savegame into a JSON document
type DecodeCmd struct {
	Save     string `arg:"" optional:"" help:"Savegame file. Reads stdin when omitted." type:"path"`
	Output   string `help:"Write the document to this file instead of stdout." short:"o" type:"path"`
	Checksum string `help:"Checksum handling: warn, strict or ignore. Defaults to the config file."`
}

func (c *DecodeCmd) Run(ctx *Context) error {
	data, err := readInput(ctx, c.Save)
	if err != nil {
		return err
	}
	doc, err := ctx.codec().Decode(string(data))
	if err != nil {
		return err
	}

	out, err := formatter.NewFormatter(ctx.Config.Output.Indent, ctx.Config.Output.Width).Format(doc.Root)
	if err != nil {
		return errors.NewOutputError("failed to format document", err)
	}
	return writeOutput(ctx, c.Output, out)
}

// EncodeCmd turns a JSON document into a savegame
type EncodeCmd struct {
	Doc    string `arg:"" optional:"" help:"JSON or JSONC document. Reads stdin when omitted." type:"path"`
	Output string `help:"Write the savegame to this file instead of stdout. With --all, the directory to write to." short:"o" type:"path"`
	Game   string `help:"Game to encode for (evo1 or evo2). Defaults to the config file, then the game stored in the document." short:"g"`
	Time   *int64 `help:"Save time in epoch milliseconds. Defaults to the time stored in the document, then now."`
	Raw    bool   `help:"Encode the document as is, without the savegame envelope."`
	All    bool   `help:"Write one savegame per available game."`
}

func (c *EncodeCmd) Run(ctx *Context) error {
	data, err := readInput(ctx, c.Doc)
	if err != nil {
		return err
	}
	root, err := parser.ParseBytes(data)
	if err != nil {
		return err
	}
	codec := ctx.codec()
	now := time.Now().UnixMilli()

	game := savegame.Evo1
	if !c.Raw && !c.All {
		game = c.game(ctx, root)
	}
	if c.Time != nil && !c.Raw {
		// an explicit time replaces the one stored in the document
		env := savegame.Rewrap(root, game, *c.Time)
		env.Set(savegame.TimeKey, float64(*c.Time))
		root = env
	}

	if c.All {
		return c.writeAll(ctx, codec, root, now)
	}
	if !c.Raw {
		root = savegame.Rewrap(root, game, now)
	}

	text, err := codec.Encode(root)
	if err != nil {
		return err
	}
	return writeOutput(ctx, c.Output, []byte(text))
}

// game picks the target game: --game or config file, document, then Evo1
func (c *EncodeCmd) game(ctx *Context, root models.Value) savegame.GameType {
	if g, ok := ctx.Config.GameType(); ok {
		return g
	}
	if g := savegame.Unwrap(root).Game; g != "" {
		return g
	}
	ctx.Logger.Info("no game given, encoding for " + string(savegame.Evo1))
	return savegame.Evo1
}

func (c *EncodeCmd) writeAll(ctx *Context, codec *savegame.Codec, root models.Value, now int64) error {
	dir := c.Output
	if dir == "" {
		dir = "."
	}
	saves, err := codec.Saves(root, now)
	if err != nil {
		return err
	}
	for _, s := range saves {
		if s.Target.Disabled {
			ctx.Logger.Debug("skipping unavailable target", "target", s.Target.Label)
			continue
		}
		path := filepath.Join(dir, "savegame-"+strings.ToLower(string(s.Target.Game)))
		if err := os.WriteFile(path, []byte(s.Content), 0o644); err != nil {
			return errors.NewOutputError(fmt.Sprintf("failed to write to file '%s'", path), err)
		}
		ctx.Logger.Info("wrote savegame", "target", s.Target.Label, "path", path)
	}
	return nil
}

// VerifyCmd reports the checksum status of a savegame
type VerifyCmd struct {
	Save string `arg:"" optional:"" help:"Savegame file. Reads stdin when omitted." type:"path"`
}

func (c *VerifyCmd) Run(ctx *Context) error {
	data, err := readInput(ctx, c.Save)
	if err != nil {
		return err
	}
	// mismatches are reported, not fatal
	codec := savegame.NewCodec(savegame.WithChecksumMode(savegame.ChecksumWarn), savegame.WithLogger(ctx.Logger))
	doc, err := codec.Decode(string(data))
	if err != nil {
		return err
	}

	fmt.Fprintf(ctx.Stdout, "checksum: %s\n", doc.Checksum)
	if doc.Computed != "" {
		fmt.Fprintf(ctx.Stdout, "computed: %s\n", doc.Computed)
	}
	fmt.Fprintf(ctx.Stdout, "status:   %s\n", doc.Status)

	env := savegame.Unwrap(doc.Root)
	if env.Game != "" {
		fmt.Fprintf(ctx.Stdout, "game:     %s\n", env.Game)
	}
	if env.Time != 0 {
		fmt.Fprintf(ctx.Stdout, "time:     %s\n", time.UnixMilli(env.Time).UTC().Format(time.RFC3339))
	}

	if doc.Status == savegame.ChecksumMismatch {
		return doc.Warnings[0]
	}
	return nil
}

// ChecksumCmd prints the checksum of a payload
type ChecksumCmd struct {
	Payload string `arg:"" optional:"" help:"Serialized payload. Reads stdin when omitted."`
}

func (c *ChecksumCmd) Run(ctx *Context) error {
	payload := c.Payload
	if payload == "" {
		data, err := readInput(ctx, "")
		if err != nil {
			return err
		}
		payload = strings.TrimRight(string(data), "\r\n")
	}
	_, err := fmt.Fprintln(ctx.Stdout, checksum.Sum(payload))
	return err
}

// GamesCmd lists the download targets
type GamesCmd struct{}

func (c *GamesCmd) Run(ctx *Context) error {
	for _, t := range savegame.Targets() {
		status := "available"
		if t.Disabled {
			status = "unavailable"
		}
		fmt.Fprintf(ctx.Stdout, "%-32s %-5s %s\n", t.Label, strings.ToLower(string(t.Game)), status)
	}
	return nil
}

// readInput reads a file, or stdin when path is empty or "-"
func readInput(ctx *Context, path string) ([]byte, error) {
	if path != "" && path != "-" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.NewInputError(fmt.Sprintf("file '%s' not found", path), errors.ErrFileNotFound)
			}
			return nil, errors.NewInputError(fmt.Sprintf("failed to read file '%s'", path), err)
		}
		if len(data) == 0 {
			return nil, errors.NewInputError(fmt.Sprintf("input file '%s' is empty", path), errors.ErrFileEmpty)
		}
		return data, nil
	}

	// An interactive terminal has nothing to read
	if f, ok := ctx.Stdin.(*os.File); ok {
		if info, err := f.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
			return nil, errors.NewInputError("no input provided", errors.ErrNoInput)
		}
	}

	data, err := io.ReadAll(ctx.Stdin)
	if err != nil {
		return nil, errors.NewInputError("failed to read from stdin", err)
	}
	if len(data) == 0 {
		return nil, errors.NewInputError("empty input received from stdin", errors.ErrEmptyInput)
	}
	return data, nil
}

// writeOutput writes data to a file, or stdout when path is empty
func writeOutput(ctx *Context, path string, data []byte) error {
	if path != "" {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return errors.NewOutputError(fmt.Sprintf("failed to write to file '%s'", path), err)
		}
		ctx.Logger.Info("wrote output", "path", path)
		return nil
	}

	if _, err := ctx.Stdout.Write(data); err != nil {
		return errors.NewOutputError("failed to write to stdout", err)
	}
	return nil
}
