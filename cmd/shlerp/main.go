package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/synka777/shlerp-cmd/internal/config"
	"github.com/synka777/shlerp-cmd/internal/detect"
	"github.com/synka777/shlerp-cmd/internal/history"
	"github.com/synka777/shlerp-cmd/internal/logging"
)

const (
	exitFatal      = 1
	exitUnresolved = 2
)

// errUnresolved marks a batch in which some projects were not classified.
var errUnresolved = errors.New("some projects could not be classified")

var (
	configPath string
	rulesPath  string
	verbose    bool
	headless   bool
)

var rootCmd = &cobra.Command{
	Use:   "shlerp",
	Short: "Back up development projects without their dependencies",
	Long: `shlerp detects what kind of project a directory holds and resolves what a
backup of it should leave out: dependency folders, build output and other
files the rule for that project type excludes.

Detection tries framework rules before plain language rules, and rules that
matched recently before the rest of the catalog.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Settings file (default $SHLERP_CONFIG or the user config dir)")
	rootCmd.PersistentFlags().StringVar(&rulesPath, "rules", "", "Rule catalog file (default: built-in catalog)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show every detection step")
	rootCmd.PersistentFlags().BoolVar(&headless, "headless", false, "No console output, log file only")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitFatal)
	}
}

// app holds what the commands share for one invocation.
type app struct {
	settings   *config.Settings
	log        *logging.Logger
	fs         afero.Fs
	store      history.Store
	recorder   *history.Recorder
	classifier *detect.Classifier
}

// loadApp reads settings and applies the persistent flags.
func loadApp() (*app, error) {
	settings, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if rulesPath != "" {
		settings.Rules.Path = rulesPath
	}
	return newApp(settings, afero.NewOsFs(), logging.Options{
		Dir:      settings.Logs.Dir,
		Verbose:  verbose,
		Headless: headless,
	})
}

func newApp(settings *config.Settings, fsys afero.Fs, logOpts logging.Options) (*app, error) {
	log := logging.New(logOpts)
	log.Slog().Debug("settings loaded", "source", settings.Source, "settings", settings.String())

	store, err := history.Open(history.Backend(settings.History.Backend), settings.History.Path)
	if err != nil {
		// History is optional; detection still works without it.
		log.Warn("rule history unavailable, using an in-memory history: %v", err)
		store = history.NewMemoryStore(history.Empty())
	}
	recorder := history.NewRecorder(store, settings.Rules.HistoryLimit)

	classifier, err := detect.New(detect.Config{
		FS:      fsys,
		Catalog: detect.FileCatalog(settings.Rules.Path),
		History: recorder,
		Logger:  log.Slog(),
		Options: settings.DetectOptions(),
	})
	if err != nil {
		_ = store.Close()
		_ = log.Close()
		return nil, err
	}

	return &app{
		settings:   settings,
		log:        log,
		fs:         fsys,
		store:      store,
		recorder:   recorder,
		classifier: classifier,
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("closing rule history: %v", err)
	}
	_ = a.log.Close()
}

// mustLoadApp exits when settings cannot be loaded.
func mustLoadApp() *app {
	a, err := loadApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitFatal)
	}
	return a
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, detect.ErrAmbiguous), errors.Is(err, detect.ErrNoMatch), errors.Is(err, errUnresolved):
		return exitUnresolved
	default:
		return exitFatal
	}
}

// exit reports err and terminates the process with the matching code.
func (a *app) exit(err error) {
	code := exitCode(err)
	a.log.Error("%v", err)
	if code == exitUnresolved {
		a.log.Info("specify a rule manually with --rule")
	}
	a.Close()
	os.Exit(code)
}
