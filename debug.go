package lodtree

import (
	"fmt"
	"io"
	"os"
	"time"
)

// frameStats holds per-update timing and pipeline metrics.
// Only populated when debug mode is on.
type frameStats struct {
	started   int
	delivered int
	update    time.Duration
}

// SetDebugMode enables per-update stats logging to the debug writer.
func (e *Engine) SetDebugMode(enabled bool) {
	e.debug = enabled
}

// SetDebugOutput sets where debug output goes. Nil restores stderr.
func (e *Engine) SetDebugOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	e.logOut = w
}

// debugLog prints pipeline stats for one update.
func (e *Engine) debugLog(fs frameStats) {
	if !e.debug {
		return
	}
	q := e.queue.Stats()
	c := e.cache.Stats()
	_, _ = fmt.Fprintf(e.logOut,
		"[lodtree] frame %d | update: %v | started: %d | delivered: %d | queued: %d | in flight: %d\n",
		e.frame, fs.update, fs.started, fs.delivered, q.Queued, q.InFlight)
	_, _ = fmt.Fprintf(e.logOut,
		"[lodtree] mounted: %d | drawn: %d | cache: %d entries, %s | hits: %d | misses: %d | evictions: %d | morphs: %d | stale: %d\n",
		len(e.nodes), e.drawn, c.Entries, formatBytes(c.Bytes), c.Hits, c.Misses, c.Evictions, e.morphs.Active(), e.stale)
}

// logf prints a debug message. Silent unless debug mode is on.
func (e *Engine) logf(format string, args ...any) {
	if !e.debug {
		return
	}
	_, _ = fmt.Fprintf(e.logOut, "[lodtree] "+format+"\n", args...)
}

// formatBytes renders n as a short human-readable size.
func formatBytes(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
