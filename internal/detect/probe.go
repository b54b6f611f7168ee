package detect

import (
	"io"
	"os"
	"path/filepath"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spf13/afero"
)

// probe is the filesystem view of one project directory during one
// classification. It implements rules.Target. Every read failure counts as
// "criterion not satisfied" and is tallied rather than returned.
type probe struct {
	fs       afero.Fs
	root     string
	maxBytes int64
	contents *lru.Cache[string, []byte]

	readErrors int
}

func newProbe(fsys afero.Fs, root string, cacheSize int, maxBytes int64) *probe {
	if cacheSize < 1 {
		cacheSize = 1
	}
	// lru.New only fails for a non-positive size.
	cache, _ := lru.New[string, []byte](cacheSize)
	return &probe{
		fs:       fsys,
		root:     root,
		maxBytes: maxBytes,
		contents: cache,
	}
}

func (p *probe) abs(rel string) string {
	return filepath.Join(p.root, filepath.FromSlash(rel))
}

func (p *probe) Exists(rel string) bool {
	ok, err := afero.Exists(p.fs, p.abs(rel))
	if err != nil {
		p.readErrors++
		return false
	}
	return ok
}

func (p *probe) IsDir(rel string) bool {
	ok, err := afero.DirExists(p.fs, p.abs(rel))
	if err != nil {
		p.readErrors++
		return false
	}
	return ok
}

// ReadFile returns at most maxBytes of the file. Contents are cached because
// several rules usually probe the same manifest.
func (p *probe) ReadFile(rel string) ([]byte, error) {
	if data, ok := p.contents.Get(rel); ok {
		return data, nil
	}

	f, err := p.fs.Open(p.abs(rel))
	if err != nil {
		p.readErrors++
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if p.maxBytes > 0 {
		r = io.LimitReader(f, p.maxBytes)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		p.readErrors++
		return nil, err
	}

	p.contents.Add(rel, data)
	return data, nil
}

// walk visits the tree below the root with slash separated relative paths.
// Symbolic links are not followed.
func (p *probe) walk(fn func(rel string, info os.FileInfo, err error) error) error {
	return afero.Walk(p.fs, p.root, func(abs string, info os.FileInfo, err error) error {
		rel, relErr := filepath.Rel(p.root, abs)
		if relErr != nil {
			return nil
		}
		return fn(filepath.ToSlash(rel), info, err)
	})
}

// Files is empty for presence checks; see crawlTarget.
func (p *probe) Files() []string { return nil }

// crawlTarget narrows the crawled file list to what one rule may see.
type crawlTarget struct {
	*probe
	files []string
}

func (t crawlTarget) Files() []string { return t.files }
