package detect

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synka777/shlerp-cmd/internal/history"
	"github.com/synka777/shlerp-cmd/internal/rules"
)

// project builds an in-memory directory from relative path -> content.
// Entries ending with "/" are created as empty directories.
func project(t *testing.T, root string, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(root, 0755))
	for rel, content := range files {
		p := root + "/" + rel
		if rel[len(rel)-1] == '/' {
			require.NoError(t, fs.MkdirAll(p, 0755))
			continue
		}
		require.NoError(t, afero.WriteFile(fs, p, []byte(content), 0644))
	}
	return fs
}

func fileRule(name string, weight int, files ...string) *rules.Rule {
	return &rules.Rule{
		Name: name,
		Detect: rules.Detect{Files: []rules.FileCriterion{
			{Candidates: files, Weight: weight},
		}},
	}
}

func extRule(name string, weight int, exts ...string) *rules.Rule {
	return &rules.Rule{
		Name: name,
		Detect: rules.Detect{Extensions: []rules.ExtensionCriterion{
			{Patterns: exts, Weight: weight},
		}},
	}
}

func catalog(t *testing.T, frameworks, vanilla []*rules.Rule) *rules.Catalog {
	t.Helper()
	cat, err := rules.New(frameworks, vanilla)
	require.NoError(t, err)
	return cat
}

type fixture struct {
	classifier *Classifier
	store      *history.MemoryStore
}

func newFixture(t *testing.T, fs afero.Fs, cat *rules.Catalog, opts Options) fixture {
	t.Helper()
	store := history.NewMemoryStore(history.Empty())
	c, err := New(Config{
		FS:      fs,
		Catalog: StaticCatalog(cat),
		History: history.NewRecorder(store, history.Limits{Frameworks: 5, Vanilla: 5}),
		Options: opts,
	})
	require.NoError(t, err)
	return fixture{classifier: c, store: store}
}

func (f fixture) history(t *testing.T) history.History {
	t.Helper()
	h, err := f.store.Load(context.Background())
	require.NoError(t, err)
	return h
}

func TestClassify_NodeScenario(t *testing.T) {
	fs := project(t, "/p", map[string]string{"package.json": `{"name": "x"}`})
	cat := catalog(t, []*rules.Rule{fileRule("node", 10, "package.json")}, nil)
	f := newFixture(t, fs, cat, DefaultOptions())

	res, err := f.classifier.Classify(context.Background(), Request{Dir: "/p"})
	require.NoError(t, err)
	assert.Equal(t, "node", res.Rule.Name)
	assert.Equal(t, rules.CategoryFrameworks, res.Category)
	assert.Equal(t, 10, res.Total)
	assert.Equal(t, StateDone, res.State)
	assert.Empty(t, res.Warnings)

	assert.Equal(t, history.History{Frameworks: []string{"node"}, Vanilla: []string{}}, f.history(t))
}

func TestClassify_PythonBelowThreshold(t *testing.T) {
	fs := project(t, "/p", map[string]string{"a.py": "", "b.py": ""})
	cat := catalog(t, nil, []*rules.Rule{extRule("python", 1, ".py")})
	opts := DefaultOptions()
	opts.Threshold = 3
	f := newFixture(t, fs, cat, opts)

	res, err := f.classifier.Classify(context.Background(), Request{Dir: "/p"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoMatch))
	assert.Equal(t, StateNoMatch, res.State)
	assert.Nil(t, res.Rule)
	assert.Equal(t, history.Empty(), f.history(t))
}

func TestClassify_VanillaAboveThreshold(t *testing.T) {
	fs := project(t, "/p", map[string]string{"a.py": "", "b.py": "", "lib/c.py": "", "run.sh": ""})
	cat := catalog(t, nil, []*rules.Rule{extRule("python", 1, ".py"), extRule("shell", 1, ".sh")})
	f := newFixture(t, fs, cat, DefaultOptions())

	res, err := f.classifier.Classify(context.Background(), Request{Dir: "/p"})
	require.NoError(t, err)
	assert.Equal(t, "python", res.Rule.Name)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, []string{"python"}, f.history(t).Vanilla)
}

func TestClassify_UniqueFrameworkMatch(t *testing.T) {
	cat := catalog(t, []*rules.Rule{
		fileRule("maven", 10, "pom.xml"),
		fileRule("gradle", 10, "build.gradle", "build.gradle.kts"),
		fileRule("cargo", 10, "Cargo.toml"),
	}, []*rules.Rule{extRule("java", 1, ".java")})

	for _, name := range []string{"maven", "gradle", "cargo"} {
		t.Run(name, func(t *testing.T) {
			marker := map[string]string{"maven": "pom.xml", "gradle": "build.gradle.kts", "cargo": "Cargo.toml"}[name]
			fs := project(t, "/p", map[string]string{marker: "", "src/Main.java": "", "src/App.java": "", "src/B.java": ""})
			f := newFixture(t, fs, cat, DefaultOptions())

			res, err := f.classifier.Classify(context.Background(), Request{Dir: "/p"})
			require.NoError(t, err)
			assert.Equal(t, name, res.Rule.Name)
			assert.Empty(t, f.history(t).Vanilla, "framework matches skip the vanilla phase")
		})
	}
}

func TestClassify_IdenticalFrameworkRulesAreAmbiguous(t *testing.T) {
	fs := project(t, "/p", map[string]string{"package.json": "{}"})
	cat := catalog(t, []*rules.Rule{
		fileRule("node", 10, "package.json"),
		fileRule("bun", 10, "package.json"),
	}, nil)
	f := newFixture(t, fs, cat, DefaultOptions())

	res, err := f.classifier.Classify(context.Background(), Request{Dir: "/p"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAmbiguous))

	var amb *AmbiguousError
	require.True(t, errors.As(err, &amb))
	assert.Equal(t, []string{"node", "bun"}, amb.Candidates)
	assert.Equal(t, StateAmbiguous, res.State)
	assert.Equal(t, history.Empty(), f.history(t), "ties are never recorded")
}

func TestClassify_VanillaTieIsAmbiguous(t *testing.T) {
	fs := project(t, "/p", map[string]string{"a.c": "", "b.c": "", "c.c": "", "a.h": "", "b.h": "", "c.h": ""})
	cat := catalog(t, nil, []*rules.Rule{extRule("c-src", 1, ".c"), extRule("c-headers", 1, ".h")})
	f := newFixture(t, fs, cat, DefaultOptions())

	_, err := f.classifier.Classify(context.Background(), Request{Dir: "/p"})
	assert.True(t, errors.Is(err, ErrAmbiguous))
}

func TestClassify_EmptyDirectoryIsNoMatch(t *testing.T) {
	fs := project(t, "/p", map[string]string{"docs/": ""})
	cat := catalog(t,
		[]*rules.Rule{fileRule("node", 10, "package.json")},
		[]*rules.Rule{extRule("python", 1, ".py")},
	)
	f := newFixture(t, fs, cat, DefaultOptions())

	res, err := f.classifier.Classify(context.Background(), Request{Dir: "/p"})
	assert.True(t, errors.Is(err, ErrNoMatch))

	var visited []State
	for _, s := range res.Trace {
		visited = append(visited, s.State)
	}
	assert.Equal(t, []State{
		StateInit, StateFrameworkHistory, StateFrameworkFull,
		StateVanillaHistory, StateVanillaFull, StateNoMatch,
	}, visited)
}

func TestClassify_ExclusionAwareThreshold(t *testing.T) {
	rule := &rules.Rule{
		Name: "node",
		Detect: rules.Detect{
			Files:   []rules.FileCriterion{{Candidates: []string{"package.json"}, Weight: 10}},
			Folders: []rules.FolderCriterion{{Name: "node_modules", Weight: 5}},
		},
		Actions: rules.Actions{Exclude: rules.Exclusions{DepFolders: []string{"node_modules"}}},
	}
	fs := project(t, "/p", map[string]string{"package.json": "{}"})
	f := newFixture(t, fs, catalog(t, []*rules.Rule{rule}, nil), DefaultOptions())

	res, err := f.classifier.Classify(context.Background(), Request{Dir: "/p"})
	require.NoError(t, err, "node_modules is excluded so a fresh checkout still qualifies")
	assert.Equal(t, "node", res.Rule.Name)
	assert.Equal(t, 10, res.Total)
}

func TestClassify_FrameworkNeedsEveryRequiredCriterion(t *testing.T) {
	rule := &rules.Rule{
		Name: "rails",
		Detect: rules.Detect{
			Files:   []rules.FileCriterion{{Candidates: []string{"Gemfile"}, Pattern: "rails", Weight: 10}},
			Folders: []rules.FolderCriterion{{Name: "config", Files: []string{"routes.rb"}, Weight: 10}},
		},
	}
	cat := catalog(t, []*rules.Rule{rule}, []*rules.Rule{extRule("ruby", 1, ".rb")})

	fs := project(t, "/p", map[string]string{"Gemfile": "gem 'rails'", "a.rb": "", "b.rb": "", "c.rb": ""})
	f := newFixture(t, fs, cat, DefaultOptions())
	res, err := f.classifier.Classify(context.Background(), Request{Dir: "/p"})
	require.NoError(t, err)
	assert.Equal(t, "ruby", res.Rule.Name, "rails is missing config/routes.rb")

	fs = project(t, "/q", map[string]string{"Gemfile": "gem 'rails'", "config/routes.rb": ""})
	f = newFixture(t, fs, cat, DefaultOptions())
	res, err = f.classifier.Classify(context.Background(), Request{Dir: "/q"})
	require.NoError(t, err)
	assert.Equal(t, "rails", res.Rule.Name)
}

func TestClassify_FrameworkPrecedence(t *testing.T) {
	files := map[string]string{"manage.py": ""}
	for i := 0; i < 50; i++ {
		files[fmt.Sprintf("app/m%d.py", i)] = ""
	}
	fs := project(t, "/p", files)
	cat := catalog(t,
		[]*rules.Rule{fileRule("django", 10, "manage.py")},
		[]*rules.Rule{extRule("python", 1, ".py")},
	)
	f := newFixture(t, fs, cat, DefaultOptions())

	res, err := f.classifier.Classify(context.Background(), Request{Dir: "/p"})
	require.NoError(t, err)
	assert.Equal(t, "django", res.Rule.Name)
	for _, s := range res.Trace {
		assert.NotEqual(t, StateVanillaFull, s.State)
	}
}

func TestClassify_HistoryFirst(t *testing.T) {
	// Both rules match; only the one in history is evaluated first and wins
	// even though the other scores higher.
	fs := project(t, "/p", map[string]string{"package.json": `{"dependencies": {"react": "18"}}`})
	cat := catalog(t, []*rules.Rule{
		fileRule("node", 10, "package.json"),
		{
			Name: "react",
			Detect: rules.Detect{Files: []rules.FileCriterion{
				{Candidates: []string{"package.json"}, Pattern: `"react":`, Weight: 20},
			}},
		},
	}, nil)
	f := newFixture(t, fs, cat, DefaultOptions())
	require.NoError(t, f.store.Save(context.Background(), history.History{Frameworks: []string{"node"}, Vanilla: []string{}}))

	res, err := f.classifier.Classify(context.Background(), Request{Dir: "/p"})
	require.NoError(t, err)
	assert.Equal(t, "node", res.Rule.Name)
	assert.Equal(t, []string{"node"}, res.Trace[1].Candidates)

	// Without history the full set is evaluated and react outscores node.
	require.NoError(t, f.store.Save(context.Background(), history.Empty()))
	res, err = f.classifier.Classify(context.Background(), Request{Dir: "/p"})
	require.NoError(t, err)
	assert.Equal(t, "react", res.Rule.Name)
}

func TestClassify_HistoryMissWidensToPrunedSet(t *testing.T) {
	fs := project(t, "/p", map[string]string{"Cargo.toml": ""})
	cat := catalog(t, []*rules.Rule{
		fileRule("node", 10, "package.json"),
		fileRule("cargo", 10, "Cargo.toml"),
	}, nil)
	f := newFixture(t, fs, cat, DefaultOptions())
	require.NoError(t, f.store.Save(context.Background(), history.History{Frameworks: []string{"node"}, Vanilla: []string{}}))

	res, err := f.classifier.Classify(context.Background(), Request{Dir: "/p"})
	require.NoError(t, err)
	assert.Equal(t, "cargo", res.Rule.Name)
	assert.Equal(t, []string{"cargo"}, res.Trace[2].Candidates, "recent rules are not evaluated twice")
	assert.Equal(t, []string{"cargo", "node"}, f.history(t).Frameworks)
}

func TestClassify_TieRetry(t *testing.T) {
	// node and bun tie within history; the full set holds a better rule.
	fs := project(t, "/p", map[string]string{"package.json": `{"workspaces": []}`})
	cat := catalog(t, []*rules.Rule{
		fileRule("node", 10, "package.json"),
		fileRule("bun", 10, "package.json"),
		{
			Name: "workspaces",
			Detect: rules.Detect{Files: []rules.FileCriterion{
				{Candidates: []string{"package.json"}, Pattern: `"workspaces"`, Weight: 30},
			}},
		},
	}, nil)
	seed := history.History{Frameworks: []string{"node", "bun"}, Vanilla: []string{}}

	t.Run("disabled", func(t *testing.T) {
		f := newFixture(t, fs, cat, DefaultOptions())
		require.NoError(t, f.store.Save(context.Background(), seed))

		res, err := f.classifier.Classify(context.Background(), Request{Dir: "/p"})
		assert.True(t, errors.Is(err, ErrAmbiguous))
		assert.False(t, res.Retried)
	})

	t.Run("enabled", func(t *testing.T) {
		opts := DefaultOptions()
		opts.TieRetry = true
		f := newFixture(t, fs, cat, opts)
		require.NoError(t, f.store.Save(context.Background(), seed))

		res, err := f.classifier.Classify(context.Background(), Request{Dir: "/p"})
		require.NoError(t, err)
		assert.Equal(t, "workspaces", res.Rule.Name)
		assert.True(t, res.Retried)
	})

	t.Run("persistent tie retries once", func(t *testing.T) {
		opts := DefaultOptions()
		opts.TieRetry = true
		tied := catalog(t, []*rules.Rule{
			fileRule("node", 10, "package.json"),
			fileRule("bun", 10, "package.json"),
		}, nil)
		f := newFixture(t, fs, tied, opts)

		res, err := f.classifier.Classify(context.Background(), Request{Dir: "/p"})
		assert.True(t, errors.Is(err, ErrAmbiguous))
		retries := 0
		for _, s := range res.Trace {
			if s.State == StateRetryFull {
				retries++
			}
		}
		assert.Equal(t, 1, retries)
	})
}

func TestClassify_TransitionCap(t *testing.T) {
	fs := project(t, "/p", map[string]string{"a.py": "", "b.py": "", "c.py": ""})
	cat := catalog(t, nil, []*rules.Rule{extRule("python", 1, ".py")})
	f := newFixture(t, fs, cat, DefaultOptions())
	// New refuses caps this low; lower it afterwards to reach the guard.
	f.classifier.opts.MaxTransitions = 3

	res, err := f.classifier.Classify(context.Background(), Request{Dir: "/p"})
	assert.True(t, errors.Is(err, ErrAmbiguous))
	assert.Len(t, res.Trace, 3)
}

func TestNew_MaxTransitions(t *testing.T) {
	cat := StaticCatalog(catalog(t, nil, []*rules.Rule{extRule("python", 1, ".py")}))

	tests := []struct {
		name    string
		max     int
		want    int
		wantErr bool
	}{
		{"zero uses default", 0, 16, false},
		{"below longest path", 5, 0, true},
		{"one short", MinTransitions - 1, 0, true},
		{"longest path", MinTransitions, MinTransitions, false},
		{"above", 40, 40, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.MaxTransitions = tt.max
			c, err := New(Config{FS: afero.NewMemMapFs(), Catalog: cat, Options: opts})
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "max transitions")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.opts.MaxTransitions)
		})
	}
}

func TestClassify_MinTransitionsCoversRetryPath(t *testing.T) {
	// Empty history, no framework lead and a vanilla tie retried once is
	// the longest way through the state machine.
	fs := project(t, "/p", map[string]string{"a.py": "", "b.py": "", "c.py": ""})
	tied := catalog(t, nil, []*rules.Rule{
		extRule("python", 1, ".py"),
		extRule("snake", 1, ".py"),
	})
	opts := DefaultOptions()
	opts.TieRetry = true
	opts.MaxTransitions = MinTransitions
	f := newFixture(t, fs, tied, opts)

	res, err := f.classifier.Classify(context.Background(), Request{Dir: "/p"})
	var amb *AmbiguousError
	require.True(t, errors.As(err, &amb))
	assert.Equal(t, []string{"python", "snake"}, amb.Candidates)
	assert.Equal(t, StateAmbiguous, res.State, "the tie is reported, not the cap")
	assert.True(t, res.Retried)
}

func TestClassify_PreselectedRule(t *testing.T) {
	fs := project(t, "/p", map[string]string{"a.py": ""})
	cat := catalog(t, []*rules.Rule{fileRule("node", 10, "package.json")}, []*rules.Rule{extRule("python", 1, ".py")})
	f := newFixture(t, fs, cat, DefaultOptions())

	res, err := f.classifier.Classify(context.Background(), Request{Dir: "/p", Rule: "NODE"})
	require.NoError(t, err)
	assert.Equal(t, "node", res.Rule.Name)
	assert.True(t, res.Preselected)
	assert.Equal(t, history.Empty(), f.history(t), "pre-selection bypasses history")

	_, err = f.classifier.Classify(context.Background(), Request{Dir: "/p", Rule: "cobol"})
	assert.True(t, errors.Is(err, ErrUnknownRule))
}

func TestClassify_MissingCatalogIsFatal(t *testing.T) {
	c, err := New(Config{
		FS:      project(t, "/p", nil),
		Catalog: FileCatalog("/nowhere/rules.yaml"),
	})
	require.NoError(t, err)

	_, err = c.Classify(context.Background(), Request{Dir: "/p"})
	assert.True(t, errors.Is(err, rules.ErrConfigurationMissing))
}

func TestClassify_InvalidTarget(t *testing.T) {
	fs := project(t, "/p", map[string]string{"file.txt": ""})
	f := newFixture(t, fs, catalog(t, nil, []*rules.Rule{extRule("python", 1, ".py")}), DefaultOptions())

	_, err := f.classifier.Classify(context.Background(), Request{Dir: "/p/file.txt"})
	assert.True(t, errors.Is(err, ErrInvalidTarget))
	_, err = f.classifier.Classify(context.Background(), Request{Dir: "/missing"})
	assert.True(t, errors.Is(err, ErrInvalidTarget))
}

// brokenStore fails every operation.
type brokenStore struct{}

func (brokenStore) Load(context.Context) (history.History, error) {
	return history.Empty(), history.ErrHistoryUnavailable
}
func (brokenStore) Save(context.Context, history.History) error { return history.ErrHistoryUnavailable }
func (brokenStore) Location() string                            { return "broken" }
func (brokenStore) Close() error                                { return nil }

func TestClassify_HistoryFailureIsAWarning(t *testing.T) {
	fs := project(t, "/p", map[string]string{"package.json": "{}"})
	c, err := New(Config{
		FS:      fs,
		Catalog: StaticCatalog(catalog(t, []*rules.Rule{fileRule("node", 10, "package.json")}, nil)),
		History: history.NewRecorder(brokenStore{}, history.Limits{Frameworks: 5, Vanilla: 5}),
	})
	require.NoError(t, err)

	res, err := c.Classify(context.Background(), Request{Dir: "/p"})
	require.NoError(t, err)
	assert.Equal(t, "node", res.Rule.Name)
	assert.Len(t, res.Warnings, 2, "one for loading, one for recording")
}

func TestClassify_FreshScoresPerTarget(t *testing.T) {
	cat := catalog(t, nil, []*rules.Rule{extRule("python", 1, ".py"), extRule("go", 1, ".go")})
	fs := project(t, "/a", map[string]string{"1.py": "", "2.py": "", "3.py": "", "4.py": ""})
	require.NoError(t, afero.WriteFile(fs, "/b/main.go", nil, 0644))
	require.NoError(t, afero.WriteFile(fs, "/b/x.go", nil, 0644))
	require.NoError(t, afero.WriteFile(fs, "/b/y.go", nil, 0644))
	f := newFixture(t, fs, cat, DefaultOptions())

	a, err := f.classifier.Classify(context.Background(), Request{Dir: "/a"})
	require.NoError(t, err)
	b, err := f.classifier.Classify(context.Background(), Request{Dir: "/b"})
	require.NoError(t, err)

	assert.Equal(t, 4, a.Total)
	assert.Equal(t, "go", b.Rule.Name)
	assert.Equal(t, 3, b.Total)
}

func TestClassifyBatch(t *testing.T) {
	fs := project(t, "/work", map[string]string{
		"api/package.json":     "{}",
		"web/package.json":     "{}",
		"tools/a.py":           "",
		"tools/b.py":           "",
		"tools/c.py":           "",
		"empty/":               "",
		".hidden/package.json": "{}",
		"notes.txt":            "",
	})
	cat := catalog(t,
		[]*rules.Rule{fileRule("node", 10, "package.json")},
		[]*rules.Rule{extRule("python", 1, ".py")},
	)
	f := newFixture(t, fs, cat, DefaultOptions())

	items, err := f.classifier.ClassifyBatch(context.Background(), Request{Dir: "/work"})
	require.NoError(t, err)
	require.Len(t, items, 4)

	assert.Equal(t, "/work/api", items[0].Dir)
	assert.True(t, errors.Is(items[1].Err, ErrNoMatch), "empty")
	assert.Equal(t, "python", items[2].Result.Rule.Name)
	assert.Equal(t, "node", items[3].Result.Rule.Name)

	// The second node project was found through history recorded by the first.
	assert.Equal(t, []string{"node"}, items[3].Result.Trace[1].Candidates)
	assert.Equal(t, []string{"node"}, items[3].Result.Trace[1].Winners)
}

func TestClassifyBatch_MissingCatalogStops(t *testing.T) {
	fs := project(t, "/work", map[string]string{"a/x.py": "", "b/y.py": ""})
	c, err := New(Config{FS: fs, Catalog: FileCatalog("/nowhere.yaml")})
	require.NoError(t, err)

	items, err := c.ClassifyBatch(context.Background(), Request{Dir: "/work"})
	assert.True(t, errors.Is(err, rules.ErrConfigurationMissing))
	assert.Empty(t, items)
}

func TestClassify_DefaultCatalog(t *testing.T) {
	cat, err := rules.Default()
	require.NoError(t, err)

	tests := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{"plain node", map[string]string{"package.json": `{"name": "x"}`, "index.js": "", "lib/a.js": "", "lib/b.js": ""}, "javascript"},
		{"react", map[string]string{"package.json": `{"dependencies": {"react": "^18", "react-scripts": "5"}}`, "node_modules/": ""}, "react"},
		{"nextjs", map[string]string{"package.json": `{"dependencies": {"next": "14", "react": "^18"}}`, "next.config.js": ""}, "nextjs"},
		{"django", map[string]string{"manage.py": "import django", "requirements.txt": "Django==5"}, "django"},
		{"go", map[string]string{"main.go": "", "a.go": "", "b/c.go": "", "vendor/x/y.go": ""}, "go"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, project(t, "/p", tt.files), cat, DefaultOptions())
			res, err := f.classifier.Classify(context.Background(), Request{Dir: "/p"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Rule.Name)
		})
	}
}

func TestClassifyBatch_DefaultCatalogKeepsFrameworksApart(t *testing.T) {
	cat, err := rules.Default()
	require.NoError(t, err)
	fs := project(t, "/ws", map[string]string{
		"a/package.json":   `{"name": "x"}`,
		"a/index.js":       "",
		"a/lib/a.js":       "",
		"a/lib/b.js":       "",
		"b/package.json":   `{"dependencies": {"react": "^18", "react-scripts": "5"}}`,
		"c/package.json":   `{"dependencies": {"next": "14", "react": "^18"}}`,
		"c/next.config.js": "",
		"d/package.json":   `{"dependencies": {"react": "^18", "react-scripts": "5"}}`,
	})
	f := newFixture(t, fs, cat, DefaultOptions())

	items, err := f.classifier.ClassifyBatch(context.Background(), Request{Dir: "/ws"})
	require.NoError(t, err)
	require.Len(t, items, 4)
	for _, item := range items {
		require.NoError(t, item.Err, item.Dir)
	}

	assert.Equal(t, "javascript", items[0].Result.Rule.Name)
	assert.Equal(t, "react", items[1].Result.Rule.Name)
	assert.Equal(t, "nextjs", items[2].Result.Rule.Name, "react in history must not claim a Next project")
	assert.Equal(t, []string{"react"}, items[2].Result.Trace[1].Candidates)
	assert.Empty(t, items[2].Result.Trace[1].Winners)

	assert.Equal(t, "react", items[3].Result.Rule.Name)
	assert.Equal(t, StateFrameworkHistory, items[3].Result.Trace[1].State)
	assert.Equal(t, []string{"react"}, items[3].Result.Trace[1].Winners)
	assert.Equal(t, []string{"react", "nextjs"}, f.history(t).Frameworks)
}
