package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDebounce = 50 * time.Millisecond

func startWatcher(t *testing.T, root string, skip SkipFunc, fn func(context.Context) error) {
	t.Helper()
	logger, _ := logrustest.NewNullLogger()
	w, err := New(root, testDebounce, logger, skip)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, w.Run(ctx, fn))
	}()
	t.Cleanup(func() {
		cancel()
		wg.Wait()
		w.Close()
	})
}

func TestRun_BurstCoalescesIntoOneRun(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "post"), 0o755))

	var runs atomic.Int32
	startWatcher(t, root, nil, func(context.Context) error {
		runs.Add(1)
		return nil
	})

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, "post", "a.md"), []byte{byte('a' + i)}, 0o644))
	}

	require.Eventually(t, func() bool { return runs.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(4 * testDebounce)
	assert.Equal(t, int32(1), runs.Load())
}

func TestRun_SkippedPathsDoNotTrigger(t *testing.T) {
	root := t.TempDir()

	var runs atomic.Int32
	skip := func(rel string) bool { return rel == ".wordup-state.json" }
	startWatcher(t, root, skip, func(context.Context) error {
		runs.Add(1)
		return nil
	})

	require.NoError(t, os.WriteFile(filepath.Join(root, ".wordup-state.json"), []byte("{}"), 0o644))
	time.Sleep(6 * testDebounce)
	assert.Equal(t, int32(0), runs.Load())

	require.NoError(t, os.WriteFile(filepath.Join(root, "page.md"), []byte("x"), 0o644))
	require.Eventually(t, func() bool { return runs.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestRun_NewDirectoriesAreWatched(t *testing.T) {
	root := t.TempDir()

	var runs atomic.Int32
	startWatcher(t, root, nil, func(context.Context) error {
		runs.Add(1)
		return nil
	})

	require.NoError(t, os.Mkdir(filepath.Join(root, "media"), 0o755))
	require.Eventually(t, func() bool { return runs.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(root, "media", "a.jpg"), []byte("x"), 0o644))
	require.Eventually(t, func() bool { return runs.Load() == 2 }, 2*time.Second, 10*time.Millisecond)
}

func TestRun_CallsNeverOverlap(t *testing.T) {
	root := t.TempDir()

	var inFlight, maxInFlight, runs atomic.Int32
	startWatcher(t, root, nil, func(context.Context) error {
		n := inFlight.Add(1)
		for {
			old := maxInFlight.Load()
			if n <= old || maxInFlight.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(3 * testDebounce)
		inFlight.Add(-1)
		runs.Add(1)
		return nil
	})

	for i := 0; i < 4; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(root, "a.md"), []byte{byte(i)}, 0o644))
		time.Sleep(2 * testDebounce)
	}

	require.Eventually(t, func() bool { return runs.Load() >= 2 && inFlight.Load() == 0 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), maxInFlight.Load())
}

func TestNew_MissingRoot(t *testing.T) {
	logger, _ := logrustest.NewNullLogger()
	_, err := New(filepath.Join(t.TempDir(), "absent"), 0, logger, nil)
	require.Error(t, err)
}
