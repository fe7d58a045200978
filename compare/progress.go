package compare

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"imgcompare/logging"
)

// Progress receives one Advance per completed outer index
type Progress interface {
	Start(total int)
	Advance()
	Finish()
}

// NopProgress ignores all updates
type NopProgress struct{}

func (NopProgress) Start(int) {}
func (NopProgress) Advance()  {}
func (NopProgress) Finish()   {}

// BarProgress draws a terminal progress bar
type BarProgress struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

// NewBarProgress renders to out, normally os.Stderr
func NewBarProgress(out io.Writer) *BarProgress {
	return &BarProgress{out: out}
}

func (b *BarProgress) Start(total int) {
	b.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(b.out),
		progressbar.OptionSetDescription("Comparing images"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func (b *BarProgress) Advance() {
	if b.bar != nil {
		_ = b.bar.Add(1)
	}
}

func (b *BarProgress) Finish() {
	if b.bar != nil {
		_ = b.bar.Finish()
	}
}

// LogProgress writes a debug record per completed outer index and an info
// record at the end. Used when stderr is not a terminal.
type LogProgress struct {
	logger *slog.Logger

	mu      sync.Mutex
	total   int
	done    int
	started time.Time
}

func NewLogProgress(logger *slog.Logger) *LogProgress {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &LogProgress{logger: logging.Component(logger, "progress")}
}

func (l *LogProgress) Start(total int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.total = total
	l.done = 0
	l.started = time.Now()
}

func (l *LogProgress) Advance() {
	l.mu.Lock()
	l.done++
	done, total := l.done, l.total
	l.mu.Unlock()
	l.logger.Debug("progress", "done", done, "total", total)
}

func (l *LogProgress) Finish() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Info("comparison finished",
		"done", l.done,
		"total", l.total,
		"elapsed", time.Since(l.started).Round(time.Millisecond))
}

// Done returns the number of Advance calls since Start
func (l *LogProgress) Done() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done
}
