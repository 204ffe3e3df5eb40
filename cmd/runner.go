package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jbtracks/internal/manager"
	"github.com/desertthunder/jbtracks/internal/models"
	"github.com/desertthunder/jbtracks/internal/paths"
	"github.com/desertthunder/jbtracks/internal/repositories"
	"github.com/desertthunder/jbtracks/internal/services"
	"github.com/desertthunder/jbtracks/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	sheets     services.SheetSource
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	resolver   *paths.Resolver
	db         *sql.DB
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Sheets     services.SheetSource
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		sheets:     opts.Sheets,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
	r.configure()
	return r
}

// configure derives the resolver and sheet downloader from the current config.
func (r *Runner) configure() {
	r.resolver = paths.NewResolver(paths.SettingsFromConfig(r.config))
	if r.sheets == nil {
		r.sheets = services.NewSheetService(r.config.Sheets, r.httpClient, r.logger)
	}
	if r.config.Logging.Level != "" {
		shared.SetLogLevel(r.logger, shared.ParseLogLevel(r.config.Logging.Level))
	}
}

// Load is the root Before hook. It reads the --config file (falling back to
// the embedded defaults), applies environment overrides and rebuilds the
// dependencies that depend on configuration.
func (r *Runner) Load(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := cmd.String("config")
	config, err := shared.LoadOrDefault(path)
	if err != nil {
		return ctx, err
	}
	if level := cmd.String("log-level"); level != "" {
		config.Logging.Level = level
	}
	if config.Logging.File != "" {
		fileLogger, err := shared.NewFileLogger(config.Logging.File)
		if err != nil {
			return ctx, fmt.Errorf("failed to create file logger: %w", err)
		}
		r.SetLogger(fileLogger)
	}

	r.config = config
	r.configPath = path
	if _, ok := r.sheets.(*services.SheetService); ok {
		r.sheets = nil
	}
	r.configure()
	return ctx, nil
}

// Close releases the run history database when one was opened.
func (r *Runner) Close(ctx context.Context, cmd *cli.Command) error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// SetLogger replaces the runner logger.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, generateCommand, syntenyCommand, syncCommand, tracksCommand, removeCommand, runsCommand, pathsCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// validated checks that the config can place tracks.
func (r *Runner) validated() error {
	if err := r.config.Validate(); err != nil {
		return err
	}
	return r.resolver.CheckMetadataRoot()
}

// manager builds a track manager over the configured site.
func (r *Runner) manager() *manager.Manager {
	return manager.New(r.resolver, nil, r.logger)
}

// runs opens the run history database on first use.
func (r *Runner) runs() (*repositories.RunRepository, error) {
	if r.db == nil {
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			return nil, err
		}
		r.db = db
	}
	return repositories.NewRunRepository(r.db), nil
}

// recordRun persists run. History is best effort: failures are logged and the command still succeeds.
func (r *Runner) recordRun(run *models.GenerationRun) {
	repo, err := r.runs()
	if err == nil {
		err = repo.Create(run)
	}
	if err != nil {
		r.logger.Warn("failed to record run", "kind", run.Kind(), "error", err)
		return
	}
	r.logger.Debug("recorded run", "sequence", run.Sequence(), "status", run.Status())
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

func (r *Runner) writeRaw(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
