//go:build linux || darwin

package loader

import (
	"context"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gruncellka/porto/internal/fixture"
	"gruncellka/porto/pkg/telemetry/logging"
)

// A FIFO without a writer blocks every reader, so the file never finishes
// loading.
func TestLoad_Timeout(t *testing.T) {
	dir := fixture.WriteDir(t, map[string]string{"prices.json": fixture.Missing})
	require.NoError(t, syscall.Mkfifo(filepath.Join(dir, "prices.json"), 0o644))

	l := New(dir, nil, WithLogger(logging.Discard()), WithTimeout(50*time.Millisecond))
	res, err := l.Load(context.Background())

	assert.Nil(t, res)
	var timeoutErr *LoadTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, 50*time.Millisecond, timeoutErr.Timeout)
	assert.Equal(t, []string{"prices.json"}, timeoutErr.Pending)
}
