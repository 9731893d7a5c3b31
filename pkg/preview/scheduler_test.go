package preview

import (
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/skillbreak/kiticon/pkg/renderer"
	"github.com/skillbreak/kiticon/pkg/scene"
)

type recorder struct {
	mu      sync.Mutex
	results []Result
}

func (r *recorder) publish(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

func (r *recorder) generations() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []uint64
	for _, res := range r.results {
		out = append(out, res.Generation)
	}
	return out
}

func newRenderer(t *testing.T) *renderer.Renderer {
	t.Helper()
	r, err := renderer.New(scene.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestSubmitCoalesces(t *testing.T) {
	rec := &recorder{}
	s := New(rec.publish, Options{Delay: 50 * time.Millisecond, Size: 16})
	r := newRenderer(t)

	for i := 0; i < 5; i++ {
		_ = r.SetLayerColor(scene.LayerMiddle, color.NRGBA{uint8(i * 40), 0, 0, 0xff})
		s.Submit(r.Frame())
	}
	time.Sleep(200 * time.Millisecond)
	s.Close()

	got := rec.generations()
	if len(got) != 1 || got[0] != r.Changes() {
		t.Errorf("published generations = %v, want [%d]", got, r.Changes())
	}
	if res := rec.results[0]; res.Err != nil || res.Image == nil || res.JobID == "" {
		t.Errorf("result = %+v", res)
	}
}

func TestOlderResultsAreDropped(t *testing.T) {
	rec := &recorder{}
	s := New(rec.publish, Options{Size: 8})
	defer s.Close()
	r := newRenderer(t)

	old := r.Frame()
	_ = r.SetLayerColor(scene.LayerTop, color.NRGBA{0, 0, 0xff, 0xff})
	newer := r.Frame()

	s.render(newer)
	s.render(old)
	s.render(newer)

	got := rec.generations()
	if len(got) != 1 || got[0] != newer.Generation {
		t.Errorf("published generations = %v, want [%d]", got, newer.Generation)
	}
}

func TestFlush(t *testing.T) {
	rec := &recorder{}
	s := New(rec.publish, Options{Delay: time.Hour, Size: 8})
	defer s.Close()

	if _, ok := s.Flush(); ok {
		t.Fatal("Flush with nothing pending should report false")
	}
	r := newRenderer(t)
	s.Submit(r.Frame())
	res, ok := s.Flush()
	if !ok || res.Err != nil || res.Image.Bounds().Dx() != 8 {
		t.Fatalf("Flush = %+v, %v", res, ok)
	}
	if got := rec.generations(); len(got) != 1 {
		t.Errorf("published %d results, want 1", len(got))
	}
}

func TestCloseDropsPending(t *testing.T) {
	rec := &recorder{}
	s := New(rec.publish, Options{Delay: 20 * time.Millisecond, Size: 8})
	r := newRenderer(t)

	s.Submit(r.Frame())
	s.Close()
	s.Submit(r.Frame())
	time.Sleep(60 * time.Millisecond)

	if got := rec.generations(); len(got) != 0 {
		t.Errorf("published %v after Close", got)
	}
}
