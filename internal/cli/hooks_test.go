package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/skillbreak/kiticon/pkg/observability"
)

func TestInstallHooks(t *testing.T) {
	t.Cleanup(observability.Reset)

	var buf bytes.Buffer
	c := New(&buf, log.DebugLevel)
	c.installHooks()

	ctx := context.Background()
	observability.Render().OnSnapshotComplete(ctx, 64, 4, time.Millisecond, nil)
	observability.Cache().OnCacheHit(ctx, "render")

	out := buf.String()
	for _, want := range []string{"snapshot done", "cache hit"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestHooksQuietAtInfo(t *testing.T) {
	t.Cleanup(observability.Reset)

	var buf bytes.Buffer
	c := New(&buf, log.InfoLevel)
	c.installHooks()
	observability.Cache().OnCacheMiss(context.Background(), "render")

	if buf.Len() != 0 {
		t.Errorf("hooks should log at debug only, got %q", buf.String())
	}
}
