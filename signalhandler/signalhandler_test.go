package signalhandler

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imgcompare/logging"
)

func TestHandlerRunsHooksInReverseAndExits(t *testing.T) {
	var codes []int
	orig := exit
	exit = func(code int) { codes = append(codes, code) }
	t.Cleanup(func() { exit = orig })

	h := SetupHandler(logging.NewNop())
	defer h.Stop()

	var order []string
	h.OnSignal(func() { order = append(order, "first") })
	h.OnSignal(func() { order = append(order, "second") })

	h.handle(syscall.SIGINT)

	assert.Equal(t, []string{"second", "first"}, order)
	require.Len(t, codes, 1)
	assert.Equal(t, ExitCode, codes[0])
}

func TestOptimalWorkersIsPositive(t *testing.T) {
	assert.GreaterOrEqual(t, OptimalWorkers(), 1)
}
