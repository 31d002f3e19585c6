package scanner

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"pgsql-check/internal/model"
)

// FileWalker traverses directories and feeds matching files to a channel.
type FileWalker struct {
	Extensions map[string]struct{}
	Excludes   []string
}

func NewFileWalker(exts []string, excludes []string) *FileWalker {
	e := make(map[string]struct{})
	for _, ext := range exts {
		e[strings.ToLower(strings.TrimPrefix(ext, "."))] = struct{}{}
	}
	return &FileWalker{
		Extensions: e,
		Excludes:   excludes,
	}
}

// Walk starts the traversal and returns a channel of file paths.
// It runs in a separate goroutine and closes both channels when done.
func (fw *FileWalker) Walk(ctx context.Context, root string) (<-chan string, <-chan error) {
	paths := make(chan string, 100)
	errs := make(chan error, 1)

	go func() {
		defer close(paths)
		defer close(errs)

		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if d.IsDir() {
				if path == root {
					return nil
				}
				if fw.excluded(path, d.Name()) || skipDir(d.Name()) {
					return filepath.SkipDir
				}
				return nil
			}

			if fw.excluded(path, d.Name()) {
				return nil
			}

			ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
			if _, ok := fw.Extensions[ext]; ok {
				select {
				case paths <- path:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})

		if err != nil {
			errs <- err
		}
	}()

	return paths, errs
}

// excluded matches a name against glob patterns, or a path by containment.
func (fw *FileWalker) excluded(path, name string) bool {
	for _, exclude := range fw.Excludes {
		if matched, _ := filepath.Match(exclude, name); matched {
			return true
		}
		if strings.Contains(filepath.ToSlash(path), exclude) {
			return true
		}
	}
	return false
}

// skipDir mirrors the go tool: hidden, underscore and testdata directories hold no package code.
func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "testdata"
}

type ScanResult struct {
	File        string
	Diagnostics []model.Diagnostic
}

// Processor audits a single file. A returned error aborts the whole scan.
type Processor func(ctx context.Context, path string) ([]model.Diagnostic, error)

// WorkerPool runs a Processor over a stream of paths with bounded concurrency.
type WorkerPool struct {
	Concurrency int
	Processor   Processor
}

func NewWorkerPool(concurrency int, proc Processor) *WorkerPool {
	if concurrency < 1 {
		concurrency = 1
	}
	return &WorkerPool{
		Concurrency: concurrency,
		Processor:   proc,
	}
}

// Run processes every path until the channel closes or a processor fails.
// The first failure cancels the remaining work and is returned. Results are
// sorted by file.
func (wp *WorkerPool) Run(ctx context.Context, paths <-chan string) ([]ScanResult, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(wp.Concurrency)

	var (
		mu      sync.Mutex
		results []ScanResult
	)

loop:
	for {
		select {
		case <-gctx.Done():
			break loop
		case path, ok := <-paths:
			if !ok {
				break loop
			}
			g.Go(func() error {
				diags, err := wp.Processor(gctx, path)
				if err != nil {
					return err
				}
				mu.Lock()
				results = append(results, ScanResult{File: path, Diagnostics: diags})
				mu.Unlock()
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].File < results[j].File })
	return results, nil
}
