// Package detect classifies a project directory against the rule catalog.
//
// Framework rules are tried before vanilla rules, and within each category
// the rules recently elected are tried before the rest. The flow is a small
// state machine so that every classification terminates after a bounded
// number of transitions.
package detect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/synka777/shlerp-cmd/internal/history"
	"github.com/synka777/shlerp-cmd/internal/rules"
)

// State is a step of the classification.
type State string

const (
	StateInit             State = "INIT"
	StateFrameworkHistory State = "FRAMEWORK_HISTORY"
	StateFrameworkFull    State = "FRAMEWORK_FULL"
	StateVanillaHistory   State = "VANILLA_HISTORY"
	StateVanillaFull      State = "VANILLA_FULL"
	StateResolve          State = "RESOLVE"
	StateRetryFull        State = "RETRY_FULL"
	StateDone             State = "DONE"
	StateAmbiguous        State = "AMBIGUOUS"
	StateNoMatch          State = "NO_MATCH"
)

// Terminal reports whether the classification stops at s.
func (s State) Terminal() bool {
	return s == StateDone || s == StateAmbiguous || s == StateNoMatch
}

// CatalogSource yields the rule catalog. It is called once per
// classification.
type CatalogSource func() (*rules.Catalog, error)

// StaticCatalog returns a source that always yields c.
func StaticCatalog(c *rules.Catalog) CatalogSource {
	return func() (*rules.Catalog, error) { return c, nil }
}

// FileCatalog returns a source loading the catalog at path, or the built-in
// catalog when path is empty.
func FileCatalog(path string) CatalogSource {
	return func() (*rules.Catalog, error) { return rules.LoadCatalog(path) }
}

// Options tune the classification.
type Options struct {
	// Threshold is the minimum total a vanilla winner needs.
	Threshold int
	// TieRetry re-evaluates the whole category once before a tie is final.
	TieRetry bool
	// MaxTransitions caps the state machine. Zero means the default; any
	// other value below MinTransitions is rejected by New.
	MaxTransitions int
	// IncludeHidden crawls dot entries.
	IncludeHidden bool
	// SkipDirs are never crawled.
	SkipDirs []string
	// CacheSize is the number of file contents kept per classification.
	CacheSize int
	// MaxContentBytes caps content reads. Zero reads whole files.
	MaxContentBytes int64
}

// MinTransitions leaves room for the longest path through the state machine,
// a vanilla tie retried once, which visits nine states.
const MinTransitions = 10

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		Threshold:       3,
		MaxTransitions:  16,
		SkipDirs:        append([]string(nil), DefaultSkipDirs...),
		CacheSize:       64,
		MaxContentBytes: 1 << 20,
	}
}

// Config wires a Classifier.
type Config struct {
	// FS defaults to the OS filesystem.
	FS afero.Fs
	// Catalog is required.
	Catalog CatalogSource
	// History is optional; without it every run starts from an empty
	// history and nothing is recorded.
	History *history.Recorder
	// Logger defaults to discarding.
	Logger *slog.Logger

	Options Options
}

// Classifier elects the rule describing a project directory.
type Classifier struct {
	fs      afero.Fs
	catalog CatalogSource
	history *history.Recorder
	logger  *slog.Logger
	opts    Options
}

// New returns a classifier for cfg.
func New(cfg Config) (*Classifier, error) {
	if cfg.Catalog == nil {
		return nil, fmt.Errorf("classifier needs a catalog source")
	}
	if cfg.FS == nil {
		cfg.FS = afero.NewOsFs()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	switch n := cfg.Options.MaxTransitions; {
	case n == 0:
		cfg.Options.MaxTransitions = DefaultOptions().MaxTransitions
	case n < MinTransitions:
		return nil, fmt.Errorf("max transitions must be at least %d (got %d)", MinTransitions, n)
	}
	return &Classifier{
		fs:      cfg.FS,
		catalog: cfg.Catalog,
		history: cfg.History,
		logger:  cfg.Logger,
		opts:    cfg.Options,
	}, nil
}

// Request names the directory to classify. A non-empty Rule skips detection
// and history entirely.
type Request struct {
	Dir  string
	Rule string
}

// Step is one visited state.
type Step struct {
	State      State
	Candidates []string
	Winners    []string
}

// Result describes a classification. It is returned even on failure so the
// trace can be shown.
type Result struct {
	Dir         string
	Rule        *rules.Rule
	Category    rules.Category
	Total       int
	State       State
	Preselected bool
	Retried     bool
	Trace       []Step
	Warnings    []string
	// ReadErrors counts filesystem reads that failed and were treated as
	// unsatisfied criteria.
	ReadErrors int
}

// Classify elects a rule for req.Dir.
func (c *Classifier) Classify(ctx context.Context, req Request) (*Result, error) {
	res := &Result{Dir: req.Dir, State: StateInit}

	cat, err := c.catalog()
	if err != nil {
		return res, err
	}
	if ok, err := afero.DirExists(c.fs, req.Dir); err != nil || !ok {
		return res, fmt.Errorf("%w: %s", ErrInvalidTarget, req.Dir)
	}

	if name := strings.TrimSpace(req.Rule); name != "" {
		rule, ok := cat.Find(name)
		if !ok {
			return res, fmt.Errorf("%w: %q", ErrUnknownRule, name)
		}
		res.Rule = rule
		res.Category = rule.Category
		res.State = StateDone
		res.Preselected = true
		c.logger.Info("rule pre-selected", "dir", req.Dir, "rule", rule.Name)
		return res, nil
	}

	depFolders := cat.DependencyFolders()
	r := &run{
		c:         c,
		ctx:       ctx,
		catalog:   cat,
		hist:      history.Empty(),
		probe:     newProbe(c.fs, req.Dir, c.opts.CacheSize, c.opts.MaxContentBytes),
		framework: FrameworkMatcher{DepFolders: depFolders},
		crawler: Crawler{
			DepFolders:    depFolders,
			SkipDirs:      c.opts.SkipDirs,
			IncludeHidden: c.opts.IncludeHidden,
		},
		res: res,
	}
	return r.execute()
}

// run holds the state of one classification.
type run struct {
	c         *Classifier
	ctx       context.Context
	catalog   *rules.Catalog
	hist      history.History
	probe     *probe
	framework FrameworkMatcher
	crawler   Crawler

	files   []string
	crawled bool

	category rules.Category
	winners  []Lead
	retried  bool

	res *Result
}

func (r *run) execute() (*Result, error) {
	state := StateInit
	for n := 0; ; n++ {
		if n >= r.c.opts.MaxTransitions {
			r.c.logger.Warn("classification gave up", "dir", r.res.Dir, "transitions", n)
			return r.res, &AmbiguousError{Dir: r.res.Dir, Candidates: leadNames(r.winners)}
		}
		if err := r.ctx.Err(); err != nil {
			return r.res, err
		}

		r.res.Trace = append(r.res.Trace, Step{State: state})
		r.res.State = state
		if state.Terminal() {
			return r.finish(state)
		}

		next, err := r.step(state)
		if err != nil {
			return r.res, err
		}
		r.c.logger.Debug("classifier transition",
			"dir", r.res.Dir,
			"state", string(state),
			"next", string(next),
			"candidates", r.current().Candidates,
			"leads", r.current().Winners,
		)
		state = next
	}
}

func (r *run) current() *Step {
	return &r.res.Trace[len(r.res.Trace)-1]
}

func (r *run) step(s State) (State, error) {
	fw, va := rules.CategoryFrameworks, rules.CategoryVanilla

	switch s {
	case StateInit:
		r.loadHistory()
		return StateFrameworkHistory, nil
	case StateFrameworkHistory:
		return r.phase(fw, r.hist.FilterToRecent(fw, r.catalog.Frameworks), StateFrameworkFull)
	case StateFrameworkFull:
		return r.phase(fw, r.hist.Prune(fw, r.catalog.Frameworks), StateVanillaHistory)
	case StateVanillaHistory:
		return r.phase(va, r.hist.FilterToRecent(va, r.catalog.Vanilla), StateVanillaFull)
	case StateVanillaFull:
		return r.phase(va, r.hist.Prune(va, r.catalog.Vanilla), StateNoMatch)
	case StateResolve:
		switch {
		case len(r.winners) == 1:
			return StateDone, nil
		case r.c.opts.TieRetry && !r.retried:
			return StateRetryFull, nil
		default:
			return StateAmbiguous, nil
		}
	case StateRetryFull:
		r.retried = true
		r.res.Retried = true
		return r.phase(r.category, r.catalog.Rules(r.category), StateAmbiguous)
	default:
		return "", fmt.Errorf("unexpected classifier state %s", s)
	}
}

// phase evaluates candidates of one category. It moves to RESOLVE when any
// rule wins and to otherwise when none does.
func (r *run) phase(cat rules.Category, candidates []*rules.Rule, otherwise State) (State, error) {
	cur := r.current()
	cur.Candidates = rules.Names(candidates)
	if len(candidates) == 0 {
		return otherwise, nil
	}

	var winners []Lead
	switch cat {
	case rules.CategoryFrameworks:
		winners = Elect(r.framework.Leads(candidates, r.probe))
	case rules.CategoryVanilla:
		if err := r.crawl(); err != nil {
			return "", err
		}
		winners = Threshold(Elect(r.crawler.Score(candidates, r.files, r.probe)), r.c.opts.Threshold)
	}

	cur.Winners = leadNames(winners)
	if len(winners) == 0 {
		return otherwise, nil
	}
	r.category = cat
	r.winners = winners
	return StateResolve, nil
}

func (r *run) crawl() error {
	if r.crawled {
		return nil
	}
	files, err := r.crawler.walk(r.ctx, r.probe)
	if err != nil {
		return err
	}
	r.files = files
	r.crawled = true
	return nil
}

func (r *run) loadHistory() {
	if r.c.history == nil {
		return
	}
	h, err := r.c.history.Load(r.ctx)
	if err != nil {
		r.warn("rule history unavailable, continuing without it: %v", err)
		return
	}
	r.hist = h
}

func (r *run) finish(s State) (*Result, error) {
	r.res.ReadErrors = r.probe.readErrors

	switch s {
	case StateDone:
		win := r.winners[0]
		r.res.Rule = win.Rule
		r.res.Category = r.category
		r.res.Total = win.Total
		r.c.logger.Info("project classified",
			"dir", r.res.Dir,
			"rule", win.Name(),
			"category", string(r.category),
			"total", win.Total,
		)
		if r.c.history != nil {
			if _, err := r.c.history.Record(r.ctx, win.Name(), r.category); err != nil {
				r.warn("could not record %s in rule history: %v", win.Name(), err)
			}
		}
		return r.res, nil
	case StateAmbiguous:
		r.res.Category = r.category
		return r.res, &AmbiguousError{Dir: r.res.Dir, Candidates: leadNames(r.winners)}
	default:
		return r.res, fmt.Errorf("%w: %s", ErrNoMatch, r.res.Dir)
	}
}

func (r *run) warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.res.Warnings = append(r.res.Warnings, msg)
	r.c.logger.Warn(msg, "dir", r.res.Dir)
}

// BatchItem is the outcome for one sub-directory of a batch.
type BatchItem struct {
	Dir    string
	Result *Result
	Err    error
}

// ClassifyBatch classifies each direct sub-directory of req.Dir, skipping
// dot directories. Directories are handled one after another so each sees
// the history recorded by the previous one. Per-directory failures are
// collected; a missing catalog stops the batch.
func (c *Classifier) ClassifyBatch(ctx context.Context, req Request) ([]BatchItem, error) {
	entries, err := afero.ReadDir(c.fs, req.Dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidTarget, req.Dir, err)
	}

	var items []BatchItem
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return items, err
		}

		dir := filepath.Join(req.Dir, e.Name())
		res, err := c.Classify(ctx, Request{Dir: dir, Rule: req.Rule})
		if errors.Is(err, rules.ErrConfigurationMissing) {
			return items, err
		}
		items = append(items, BatchItem{Dir: dir, Result: res, Err: err})
	}
	return items, nil
}
