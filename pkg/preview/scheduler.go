// Package preview coalesces bursts of scene changes into as few renders as
// possible.
//
// Interactive editing changes the scene many times per second, far faster
// than a full snapshot can be drawn. A [Scheduler] waits until submissions
// have been quiet for a short delay and then renders only the latest frame.
// Renders run on their own goroutines and are never cancelled; when an older
// render finishes after a newer one has been published its result is
// dropped, so the callback always sees generations in increasing order.
//
// # Usage
//
//	s := preview.New(func(r preview.Result) { show(r.Image) }, preview.Options{Size: 512})
//	defer s.Close()
//
//	r.SetLayerColor(scene.LayerTop, c)
//	s.Submit(r.Frame())
package preview

import (
	"context"
	"image"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/skillbreak/kiticon/pkg/renderer"
)

// DefaultDelay is the quiet period before a submitted frame is rendered.
const DefaultDelay = 120 * time.Millisecond

// DefaultSize is the preview edge length in pixels.
const DefaultSize = 512

// Options configures a Scheduler.
type Options struct {
	Delay   time.Duration    // quiet period; DefaultDelay when zero
	Size    int              // output edge length; DefaultSize when zero
	Quality renderer.Quality // QualityQuick unless set
	Logger  *log.Logger      // discards when nil
}

// Result is one finished preview render.
type Result struct {
	JobID      string
	Generation uint64
	Image      *image.NRGBA
	Duration   time.Duration
	Err        error
}

// Scheduler renders the most recent submitted frame once submissions settle.
// It is safe for concurrent use.
type Scheduler struct {
	opts    Options
	publish func(Result)

	mu      sync.Mutex
	timer   *time.Timer
	pending *renderer.Frame
	closed  bool
	wg      sync.WaitGroup

	pubMu     sync.Mutex
	published bool
	last      uint64
}

// New returns a scheduler that hands finished renders to publish. publish is
// called from render goroutines, one call at a time.
func New(publish func(Result), opts Options) *Scheduler {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.Size <= 0 {
		opts.Size = DefaultSize
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Scheduler{opts: opts, publish: publish}
}

// Submit replaces the pending frame and restarts the quiet period. Frames
// submitted after Close are ignored.
func (s *Scheduler) Submit(f *renderer.Frame) {
	if f == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.pending = f
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.opts.Delay, s.fire)
}

// Flush renders the pending frame immediately on the calling goroutine and
// reports whether there was one.
func (s *Scheduler) Flush() (Result, bool) {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	f := s.take()
	s.mu.Unlock()
	if f == nil {
		return Result{}, false
	}
	defer s.wg.Done()
	return s.render(f), true
}

// Close drops any pending frame and waits for renders already running.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.pending = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Scheduler) fire() {
	s.mu.Lock()
	s.timer = nil
	f := s.take()
	s.mu.Unlock()
	if f == nil {
		return
	}
	defer s.wg.Done()
	s.render(f)
}

// take removes the pending frame and registers its render. Callers hold mu.
func (s *Scheduler) take() *renderer.Frame {
	f := s.pending
	s.pending = nil
	if f == nil || s.closed {
		return nil
	}
	s.wg.Add(1)
	return f
}

func (s *Scheduler) render(f *renderer.Frame) Result {
	res := Result{JobID: uuid.NewString(), Generation: f.Generation}
	logger := s.opts.Logger.With("job", res.JobID[:8], "generation", f.Generation)
	logger.Debug("preview render started", "size", s.opts.Size, "quality", s.opts.Quality)

	start := time.Now()
	res.Image, res.Err = f.Render(context.Background(), s.opts.Size, s.opts.Quality)
	res.Duration = time.Since(start)

	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	if s.published && f.Generation <= s.last {
		logger.Debug("preview superseded", "published", s.last)
		return res
	}
	s.published, s.last = true, f.Generation
	if res.Err != nil {
		logger.Warn("preview render failed", "err", res.Err)
	} else {
		logger.Debug("preview render finished", "duration", res.Duration)
	}
	if s.publish != nil {
		s.publish(res)
	}
	return res
}
