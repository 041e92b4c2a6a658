// Command versedeck finds Korean scripture references in text and builds
// bilingual slide decks for them.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/VerseDeck/core/bible"
	"github.com/FocuswithJustin/VerseDeck/core/pptx"
	"github.com/FocuswithJustin/VerseDeck/core/ref"
	"github.com/FocuswithJustin/VerseDeck/core/sqlite"
	"github.com/FocuswithJustin/VerseDeck/internal/config"
	"github.com/FocuswithJustin/VerseDeck/internal/logging"
	"github.com/FocuswithJustin/VerseDeck/internal/service"
	"github.com/FocuswithJustin/VerseDeck/internal/validation"
	"github.com/FocuswithJustin/VerseDeck/internal/web"
)

var version = "0.1.0"

// CLI defines the command-line interface for versedeck.
var CLI struct {
	// Global flags, overriding VERSEDECK_* environment settings.
	LogLevel    string `name:"log-level" help:"Log level (debug, info, warn, error)"`
	LogFormat   string `name:"log-format" help:"Log format (json, text)"`
	PrimaryDB   string `name:"primary-db" help:"Korean verse database" type:"path"`
	SecondaryDB string `name:"secondary-db" help:"English verse database" type:"path"`

	Parse   ParseCmd   `cmd:"" help:"Print the references found in text, one per line"`
	Show    ShowCmd    `cmd:"" help:"Print the verses of a reference in both translations"`
	Build   BuildCmd   `cmd:"" help:"Build slide decks for references"`
	Inspect InspectCmd `cmd:"" help:"Summarize the slide structure of a deck"`
	Web     WebCmd     `cmd:"" help:"Start the web server"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// runContext is bound to every command's Run method.
type runContext struct {
	cfg *config.Config
	in  io.Reader
	out io.Writer
}

// ParseCmd prints the references found in text.
type ParseCmd struct {
	Text string `arg:"" optional:"" help:"Text to scan (default: read stdin)"`
}

func (c *ParseCmd) Run(rc *runContext) error {
	text, err := textOrInput(c.Text, rc.in)
	if err != nil {
		return err
	}
	refs := ref.ParseReferenceStrings(text)
	logging.ReferencesParsed(context.Background(), len(text), len(refs))
	for _, r := range refs {
		fmt.Fprintln(rc.out, r)
	}
	return nil
}

// ShowCmd prints a passage.
type ShowCmd struct {
	Reference []string `arg:"" help:"Canonical reference, e.g. 데살로니가후서 1:8-9"`
	Strip     bool     `help:"Remove annotations from verse text"`
}

func (c *ShowCmd) Run(rc *runContext) error {
	svc, closeFn, err := openService(rc.cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	p, err := svc.Passage(context.Background(), strings.Join(c.Reference, " "), c.Strip)
	if err != nil {
		return err
	}
	fmt.Fprintln(rc.out, service.PassageText(p))
	return nil
}

// BuildCmd builds one deck per reference.
type BuildCmd struct {
	References []string `arg:"" optional:"" help:"Quoted canonical references, e.g. \"데살로니가후서 1:8-9\""`
	FromText   bool     `name:"from-text" help:"Build every reference found in text read from stdin"`
	Strip      bool     `help:"Remove annotations from verse text"`
	Out        string   `help:"Output directory" type:"path"`
	Workers    int      `help:"Concurrent builds" default:"4"`
}

func (c *BuildCmd) Run(rc *runContext) error {
	refs := c.References
	if c.FromText {
		text, err := textOrInput("", rc.in)
		if err != nil {
			return err
		}
		refs = append(refs, ref.ParseReferenceStrings(text)...)
	}
	if len(refs) == 0 {
		return fmt.Errorf("no references to build")
	}

	cfg := *rc.cfg
	cfg.Merge(config.Config{OutputDir: c.Out})
	svc, closeFn, err := openService(&cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	var failed int
	for _, o := range svc.BuildDecks(context.Background(), refs, c.Strip, c.Workers) {
		switch {
		case o.Err != nil:
			failed++
			fmt.Fprintf(rc.out, "%s: error: %v\n", o.Reference, o.Err)
		case o.Result.Fallback:
			fmt.Fprintf(rc.out, "%s: no verses found\n", o.Reference)
		default:
			fmt.Fprintf(rc.out, "%s: %s (%d slides)\n", o.Reference, o.Result.Path, o.Result.Slides)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d builds failed", failed, len(refs))
	}
	return nil
}

// InspectCmd prints the slide structure of a deck.
type InspectCmd struct {
	Path string `arg:"" help:"Deck to inspect" type:"existingfile"`
	JSON bool   `name:"json" help:"Print JSON instead of a summary"`
}

func (c *InspectCmd) Run(rc *runContext) error {
	info, err := pptx.Inspect(c.Path)
	if err != nil {
		return err
	}
	if c.JSON {
		enc := json.NewEncoder(rc.out)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	fmt.Fprint(rc.out, info.String())
	if !info.Consistent() {
		return fmt.Errorf("%s: slide parts and manifests disagree", c.Path)
	}
	return nil
}

// WebCmd starts the web server.
type WebCmd struct {
	Port   int    `help:"HTTP server port"`
	Output string `help:"Output directory for decks" type:"path"`
}

func (c *WebCmd) Run(rc *runContext) error {
	cfg := *rc.cfg
	cfg.Merge(config.Config{Port: c.Port, OutputDir: c.Output})
	if err := cfg.Validate(); err != nil {
		return err
	}

	svc, closeFn, err := openService(&cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	srv, err := web.New(svc, web.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		BuildsPerMin:   cfg.BuildsPerMin,
		BuildBurst:     cfg.BuildBurst,
		DeckTTL:        cfg.DeckTTL,
		Version:        version,
	})
	if err != nil {
		return err
	}
	defer srv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.ListenAndServe(ctx, cfg.Addr(), cfg.Port)
}

// VersionCmd prints the version.
type VersionCmd struct{}

func (c *VersionCmd) Run(rc *runContext) error {
	fmt.Fprintf(rc.out, "versedeck version %s (sqlite driver: %s)\n", version, sqlite.DriverType())
	return nil
}

// openService opens both verse stores and the deck writer. The fallback
// deck is written up front so empty builds always have a file to serve.
func openService(cfg *config.Config) (*service.Service, func(), error) {
	primary, err := bible.Open(cfg.PrimaryDB)
	if err != nil {
		return nil, nil, err
	}
	secondary, err := bible.Open(cfg.SecondaryDB)
	if err != nil {
		primary.Close()
		return nil, nil, err
	}
	closeFn := func() {
		primary.Close()
		secondary.Close()
	}

	writer := &pptx.Writer{OutputDir: cfg.OutputDir, SkeletonDir: cfg.SkeletonDir}
	if _, err := writer.EnsureFallback(); err != nil {
		closeFn()
		return nil, nil, err
	}

	svc := service.New(primary, secondary, writer, service.Options{
		CacheTTL:     cfg.CacheTTL,
		CacheEntries: cfg.CacheEntries,
	})
	return svc, closeFn, nil
}

// textOrInput returns text, or the contents of in when text is empty.
func textOrInput(text string, in io.Reader) (string, error) {
	if text == "" {
		data, err := io.ReadAll(io.LimitReader(in, validation.MaxTextLength+1))
		if err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		text = string(data)
	}
	if err := validation.ValidateText(text); err != nil {
		return "", err
	}
	return text, nil
}

// loadConfig reads the environment and applies the global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	cfg.Merge(config.Config{
		LogLevel:    CLI.LogLevel,
		LogFormat:   CLI.LogFormat,
		PrimaryDB:   CLI.PrimaryDB,
		SecondaryDB: CLI.SecondaryDB,
	})

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	format, err := logging.ParseFormat(cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	logging.InitLogger(level, format)
	return cfg, nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("versedeck"),
		kong.Description("VerseDeck - scripture references to bilingual slide decks"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	cfg, err := loadConfig()
	ctx.FatalIfErrorf(err)

	err = ctx.Run(&runContext{cfg: cfg, in: os.Stdin, out: os.Stdout})
	ctx.FatalIfErrorf(err)
}
