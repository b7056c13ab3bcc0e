package internal

import (
	"os"
	"sync"

	"github.com/phuslu/log"
	"github.com/schollz/progressbar/v3"
)

// WorkGuard tracks progress against a known total unit count. Inc
// advances the counter; Release must be called when the unit of work
// this guard was handed out for is done (typically via defer), mirroring
// the drop-releases-the-guard shape of the reference progress API.
type WorkGuard interface {
	Inc(n int)
	Release()
}

// ProgressTracker is the write-only observer the engine reports phase
// transitions and unit-of-work progress to. It carries no cancellation
// signal back to the caller; callers that want a silent tracker can use
// NewProgressTracker(false).
type ProgressTracker struct {
	quiet bool
}

func NewProgressTracker(verbose bool) *ProgressTracker {
	return &ProgressTracker{quiet: !verbose}
}

func (t *ProgressTracker) BeginStep(label string) {
	if t.quiet {
		return
	}
	log.Info().Msg(label)
}

func (t *ProgressTracker) EndStep(label string) {
	if t.quiet {
		return
	}
	log.Info().Msg(label)
}

// DoingWork allocates a guard tracking `total` units of `label` work. The
// returned guard is safe to use from multiple goroutines concurrently.
func (t *ProgressTracker) DoingWork(total int64, label string) WorkGuard {
	if t.quiet || total <= 0 {
		return noopGuard{}
	}
	bar := progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionClearOnFinish(),
	)
	return &barGuard{bar: bar}
}

type barGuard struct {
	mu  sync.Mutex
	bar *progressbar.ProgressBar
}

func (g *barGuard) Inc(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	_ = g.bar.Add(n)
}

func (g *barGuard) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	_ = g.bar.Finish()
}

type noopGuard struct{}

func (noopGuard) Inc(int)  {}
func (noopGuard) Release() {}
