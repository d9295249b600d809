// Package assets loads model files off the frame loop and hands the results
// back at a sync point.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"gopkg.in/eapache/queue.v1"
)

// ErrClosed is returned by Load after Close.
var ErrClosed = errors.New("assets: loader closed")

// Request asks for the model at Path for one agent. An empty Path selects
// the procedural mesh.
type Request struct {
	AgentID uuid.UUID
	Path    string
}

// Result is a finished Request.
type Result struct {
	AgentID uuid.UUID
	Path    string
	Info    Info
	Err     error
}

// Loader reads and sniffs model files on background goroutines. Completed
// results queue up until Drain is called.
type Loader struct {
	fsys fs.FS
	log  *zap.Logger
	sem  *semaphore.Weighted

	ctx    context.Context
	cancel context.CancelFunc
	group  errgroup.Group

	mu      sync.Mutex
	done    *queue.Queue
	pending int
	closed  bool
}

// NewLoader creates a loader reading from fsys with at most concurrency
// files in flight.
func NewLoader(fsys fs.FS, concurrency int, log *zap.Logger) *Loader {
	if concurrency < 1 {
		concurrency = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Loader{
		fsys:   fsys,
		log:    log,
		sem:    semaphore.NewWeighted(int64(concurrency)),
		ctx:    ctx,
		cancel: cancel,
		done:   queue.New(),
	}
}

// Load starts req in the background and returns immediately.
func (l *Loader) Load(req Request) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}

	if req.Path == "" {
		l.done.Add(Result{AgentID: req.AgentID, Info: Info{Format: Procedural}})
		return nil
	}

	l.pending++
	l.group.Go(func() error {
		res := Result{AgentID: req.AgentID, Path: req.Path}
		if err := l.sem.Acquire(l.ctx, 1); err != nil {
			res.Err = ErrClosed
		} else {
			res.Info, res.Err = l.load(req.Path)
			l.sem.Release(1)
		}
		l.finish(res)
		return nil
	})
	return nil
}

func (l *Loader) load(name string) (Info, error) {
	data, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if hint := l.suggest(name); hint != "" {
				return Info{}, fmt.Errorf("reading %s (did you mean %s?): %w", name, hint, err)
			}
		}
		return Info{}, fmt.Errorf("reading %s: %w", name, err)
	}
	if err := l.ctx.Err(); err != nil {
		return Info{}, ErrClosed
	}
	return Sniff(name, data)
}

// suggest returns the closest existing model path, or "".
func (l *Loader) suggest(name string) string {
	var candidates []string
	_ = fs.WalkDir(l.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if _, ok := FormatOf(p); ok {
			candidates = append(candidates, p)
		}
		return nil
	})
	stem := strings.TrimSuffix(path.Base(name), path.Ext(name))
	matches := fuzzy.Find(stem, candidates)
	if len(matches) == 0 {
		return ""
	}
	return matches[0].Str
}

func (l *Loader) finish(res Result) {
	if res.Err != nil && !errors.Is(res.Err, ErrClosed) {
		l.log.Warn("asset load failed",
			zap.Stringer("agent", res.AgentID),
			zap.String("path", res.Path),
			zap.Error(res.Err),
		)
	} else if res.Err == nil {
		l.log.Debug("asset loaded",
			zap.Stringer("agent", res.AgentID),
			zap.String("path", res.Path),
			zap.Stringer("format", res.Info.Format),
			zap.Int64("bytes", res.Info.Size),
		)
	}

	l.mu.Lock()
	l.pending--
	l.done.Add(res)
	l.mu.Unlock()
}

// Drain returns every result completed since the last call, oldest first.
func (l *Loader) Drain() []Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done.Length() == 0 {
		return nil
	}
	out := make([]Result, 0, l.done.Length())
	for l.done.Length() > 0 {
		out = append(out, l.done.Remove().(Result))
	}
	return out
}

// Pending returns how many requests are still in flight.
func (l *Loader) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending
}

// Wait blocks until every started request has finished.
func (l *Loader) Wait() {
	_ = l.group.Wait()
}

// Close cancels loads that have not started and waits for the rest.
func (l *Loader) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	l.cancel()
	return l.group.Wait()
}
