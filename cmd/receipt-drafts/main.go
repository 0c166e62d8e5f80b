package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/peterbourgon/ff/v4/ffyaml"
	"gopkg.in/yaml.v3"

	"github.com/spendsee/receipt-drafts/internal/extraction"
	"github.com/spendsee/receipt-drafts/internal/receipt"
	"github.com/spendsee/receipt-drafts/internal/scanning"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		slog.Error("Exiting", "error", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand
type globalFlags struct {
	timezone    *string
	showVersion *bool
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	rootFlags := ff.NewFlagSet("receipt-drafts")
	global := globalFlags{
		timezone:    rootFlags.StringLong("timezone", "", "IANA time zone receipts are read in (default: local)"),
		showVersion: rootFlags.BoolLong("version", "Show version information"),
	}
	_ = rootFlags.StringLong("config", "", "YAML config file")

	root := &ff.Command{
		Name:      "receipt-drafts",
		Usage:     "receipt-drafts [FLAGS] <SUBCOMMAND>",
		ShortHelp: "draft expense records from receipt photos",
		Flags:     rootFlags,
		Exec: func(ctx context.Context, args []string) error {
			return ff.ErrHelp
		},
	}
	root.Subcommands = append(root.Subcommands,
		newServeCommand(rootFlags, global),
		newExtractCommand(rootFlags, global, stdin, stdout),
	)

	err := root.Parse(args,
		ff.WithEnvVarPrefix("RECEIPT_DRAFTS"),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ffyaml.Parse),
	)
	if err == nil && *global.showVersion {
		fmt.Fprintln(stdout, version)
		return nil
	}
	if err == nil {
		err = root.Run(ctx)
	}
	if err != nil {
		selected := root.GetSelected()
		if selected == nil {
			selected = root
		}
		fmt.Fprintf(stderr, "%s\n", ffhelp.Command(selected))
	}
	if errors.Is(err, ff.ErrHelp) {
		return nil
	}
	return err
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("loading time zone: %w", err)
	}
	return loc, nil
}

// serveConfig holds the flags of the serve subcommand
type serveConfig struct {
	port          *int
	dbPath        *string
	storagePath   *string
	ocr           *string
	tesseractLang *string
	geminiKey     *string
	geminiModel   *string
	ollamaURL     *string
	ollamaModel   *string
	authUser      *string
	authPass      *string
}

func newServeCommand(parent *ff.FlagSet, global globalFlags) *ff.Command {
	fs := ff.NewFlagSet("serve").SetParent(parent)
	cfg := serveConfig{
		port:          fs.IntLong("port", 8080, "HTTP server port"),
		dbPath:        fs.StringLong("db", "receipt-drafts.db", "Database file path"),
		storagePath:   fs.StringLong("storage", "./receipts", "Storage directory path"),
		ocr:           fs.StringLong("ocr", "tesseract", "Text recognizer: 'tesseract', 'gemini' or 'ollama'"),
		tesseractLang: fs.StringLong("tesseract-lang", "eng", "Comma separated Tesseract languages"),
		geminiKey:     fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)"),
		geminiModel:   fs.StringLong("gemini-model", scanning.DefaultGeminiModel, "Google Gemini model name"),
		ollamaURL:     fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL"),
		ollamaModel:   fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, llava-phi3, qwen2-vl)"),
		authUser:      fs.StringLong("auth-user", "", "Basic auth username (optional)"),
		authPass:      fs.StringLong("auth-pass", "", "Basic auth password (optional)"),
	}

	return &ff.Command{
		Name:      "serve",
		Usage:     "receipt-drafts serve [FLAGS]",
		ShortHelp: "run the receipt HTTP service",
		Flags:     fs,
		Exec: func(ctx context.Context, args []string) error {
			loc, err := loadLocation(*global.timezone)
			if err != nil {
				return err
			}
			return serve(ctx, cfg, loc)
		},
	}
}

// newRecognizer builds the configured text recognizer
func newRecognizer(cfg serveConfig) (scanning.TextRecognizer, error) {
	switch *cfg.ocr {
	case "tesseract":
		languages := strings.Split(*cfg.tesseractLang, ",")
		for i := range languages {
			languages[i] = strings.TrimSpace(languages[i])
		}
		slog.Info("Initializing Tesseract recognizer...", "languages", languages)
		return scanning.NewTesseract(languages...), nil
	case "gemini":
		apiKey := *cfg.geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("gemini API key is required: set --gemini-key or GEMINI_API_KEY")
		}
		slog.Info("Initializing Gemini recognizer...", "model", *cfg.geminiModel)
		return scanning.NewGemini(apiKey, *cfg.geminiModel)
	case "ollama":
		slog.Info("Initializing Ollama recognizer...", "url", *cfg.ollamaURL, "model", *cfg.ollamaModel)
		return scanning.NewOllama(*cfg.ollamaURL, *cfg.ollamaModel)
	default:
		return nil, fmt.Errorf("invalid ocr %q: want tesseract, gemini or ollama", *cfg.ocr)
	}
}

func serve(ctx context.Context, cfg serveConfig, loc *time.Location) error {
	slog.Info("Initializing database...", "path", *cfg.dbPath)
	db, err := receipt.NewBoltDB(*cfg.dbPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer db.Close()

	recognizer, err := newRecognizer(cfg)
	if err != nil {
		return fmt.Errorf("initializing recognizer: %w", err)
	}
	scanner, err := scanning.NewTextScanner(recognizer, extraction.New(loc))
	if err != nil {
		return fmt.Errorf("initializing scanner: %w", err)
	}
	defer scanner.Close()

	slog.Info("Initializing storage...", "path", *cfg.storagePath)
	store, err := receipt.NewLocalStorage(*cfg.storagePath)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	server := receipt.NewServer(receipt.NewService(db, scanner, store), receipt.BasicAuth{
		Username: *cfg.authUser,
		Password: *cfg.authPass,
	})
	if *cfg.authUser != "" || *cfg.authPass != "" {
		slog.Info("Basic auth enabled", "user", *cfg.authUser)
	}

	return server.Start(ctx, fmt.Sprintf(":%d", *cfg.port))
}

func newExtractCommand(parent *ff.FlagSet, global globalFlags, stdin io.Reader, stdout io.Writer) *ff.Command {
	fs := ff.NewFlagSet("extract").SetParent(parent)
	format := fs.StringLong("format", "json", "Output format: 'json' or 'yaml'")

	return &ff.Command{
		Name:      "extract",
		Usage:     "receipt-drafts extract [FLAGS] [FILE]",
		ShortHelp: "draft a record from receipt text in FILE or stdin",
		Flags:     fs,
		Exec: func(ctx context.Context, args []string) error {
			loc, err := loadLocation(*global.timezone)
			if err != nil {
				return err
			}

			var text []byte
			switch len(args) {
			case 0:
				text, err = io.ReadAll(stdin)
			case 1:
				text, err = os.ReadFile(args[0])
			default:
				return fmt.Errorf("extract takes at most one file, got %d", len(args))
			}
			if err != nil {
				return fmt.Errorf("reading receipt text: %w", err)
			}

			result := extraction.New(loc).Extract(string(text))
			return writeResult(stdout, result, *format)
		},
	}
}

// writeResult encodes an extraction result in the requested format
func writeResult(w io.Writer, result extraction.Result, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
	default:
		return fmt.Errorf("invalid format %q: want json or yaml", format)
	}
	return nil
}
