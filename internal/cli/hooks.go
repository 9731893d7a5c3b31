package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/skillbreak/kiticon/pkg/observability"
)

// logHooks reports renderer and cache events as debug log lines, so -v
// shows where a render spent its time.
type logHooks struct {
	logger *log.Logger
}

func (h logHooks) OnSnapshotStart(_ context.Context, size, samples int) {
	h.logger.Debug("snapshot", "size", size, "samples", samples)
}

func (h logHooks) OnSnapshotComplete(_ context.Context, size, samples int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("snapshot failed", "size", size, "err", err)
		return
	}
	h.logger.Debug("snapshot done", "size", size, "samples", samples, "took", d.Round(time.Microsecond))
}

func (h logHooks) OnColorize(_ context.Context, kind string, d time.Duration, err error) {
	h.logger.Debug("colorize", "kind", kind, "took", d.Round(time.Microsecond), "err", err)
}

func (h logHooks) OnModelAttach(_ context.Context, triangles int, scale float32, err error) {
	h.logger.Debug("model attached", "triangles", triangles, "scale", scale, "err", err)
}

func (h logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

// installHooks routes observability events to the CLI logger.
func (c *CLI) installHooks() {
	h := logHooks{logger: c.Logger}
	observability.SetRenderHooks(h)
	observability.SetCacheHooks(h)
}

var (
	_ observability.RenderHooks = logHooks{}
	_ observability.CacheHooks  = logHooks{}
)
