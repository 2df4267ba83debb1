package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const oneCue = "cues:\n  - name: first\n    stages: [{name: only}]\n"
const twoCues = "cues:\n  - name: first\n    stages: [{name: only}]\n  - name: second\n    stages: [{name: only}]\n"

func TestWatcherReloadsOnWrite(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "cues.yaml")
	require.NoError(t, os.WriteFile(path, []byte(oneCue), 0o644))

	reloaded := make(chan *Catalog, 4)
	w, err := NewWatcher(path, func(c *Catalog) { reloaded <- c }, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte(twoCues), 0o644))

	select {
	case c := <-reloaded:
		assert.Equal(t, []string{"first", "second"}, c.Names())
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed")
	}
}

func TestWatcherReportsInvalidCatalog(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "cues.yaml")
	require.NoError(t, os.WriteFile(path, []byte(oneCue), 0o644))

	errs := make(chan error, 4)
	reloads := 0
	w, err := NewWatcher(path, func(*Catalog) { reloads++ },
		WithDebounce(20*time.Millisecond),
		WithErrorHandler(func(err error) { errs <- err }),
	)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	require.NoError(t, os.WriteFile(path, []byte("cues: []\n"), 0o644))

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrEmpty)
	case <-time.After(5 * time.Second):
		t.Fatal("no error reported")
	}
	w.Stop()
	assert.Equal(t, 0, reloads)
}

func TestWatcherIgnoresSiblingFiles(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "cues.yaml")
	require.NoError(t, os.WriteFile(path, []byte(oneCue), 0o644))

	reloaded := make(chan *Catalog, 1)
	w, err := NewWatcher(path, func(c *Catalog) { reloaded <- c }, WithDebounce(10*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0o644))

	select {
	case <-reloaded:
		t.Fatal("sibling write triggered reload")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcherStopWithoutStart(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, err := NewWatcher(filepath.Join(t.TempDir(), "cues.yaml"), nil)
	require.NoError(t, err)
	w.Stop()
}

func TestWatcherContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "cues.yaml")
	require.NoError(t, os.WriteFile(path, []byte(oneCue), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	w, err := NewWatcher(path, nil)
	require.NoError(t, err)
	require.NoError(t, w.Start(ctx))

	cancel()
	w.Stop()
}
