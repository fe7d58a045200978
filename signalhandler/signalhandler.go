package signalhandler

import (
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
)

// ExitCode is the process status after an interrupt
const ExitCode = 130

// exit is replaced in tests
var exit = os.Exit

// Handler runs cleanup hooks and exits when SIGINT or SIGTERM arrives
type Handler struct {
	logger  *slog.Logger
	sigChan chan os.Signal
	done    chan struct{}

	mu    sync.Mutex
	hooks []func()
}

// SetupHandler installs the handler. Hooks registered with OnSignal run in
// reverse order before the process exits with ExitCode.
func SetupHandler(logger *slog.Logger) *Handler {
	h := &Handler{
		logger:  logger,
		sigChan: make(chan os.Signal, 1),
		done:    make(chan struct{}),
	}
	signal.Notify(h.sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-h.sigChan:
			h.handle(sig)
		case <-h.done:
		}
	}()
	return h
}

// OnSignal registers a cleanup hook, for example releasing a cache lock
func (h *Handler) OnSignal(hook func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, hook)
}

// Stop uninstalls the handler
func (h *Handler) Stop() {
	signal.Stop(h.sigChan)
	close(h.done)
}

func (h *Handler) handle(sig os.Signal) {
	if h.logger != nil {
		h.logger.Warn("interrupted, shutting down", "signal", sig.String())
	}
	h.mu.Lock()
	hooks := append([]func(){}, h.hooks...)
	h.mu.Unlock()
	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i]()
	}
	exit(ExitCode)
}

// OptimalWorkers returns the default pool size: one worker per logical CPU
func OptimalWorkers() int {
	return max(runtime.NumCPU(), 1)
}
