package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/vi-cue/catalog"
	"github.com/lixenwraith/vi-cue/status"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// rows splits command output into whitespace separated fields per line
func rows(out string) [][]string {
	var r [][]string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		r = append(r, strings.Fields(line))
	}
	return r
}

func TestListBuiltinCatalog(t *testing.T) {
	out, err := execute(t, "list")
	require.NoError(t, err)

	r := rows(out)
	require.Len(t, r, 6)
	assert.Equal(t, []string{"NAME", "STAGES", "GESTURES", "GATE", "TIMED"}, r[0])
	assert.Equal(t, []string{"threshold", "5", "1", "all", "4s"}, r[1])
	assert.Equal(t, []string{"breath", "3", "0", "-", "6s"}, r[5])
}

func TestListCatalogFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cues.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`cues:
  - name: solo
    stages:
      - name: arriving
      - name: afterglow
        delay: 250ms
`), 0o644))

	out, err := execute(t, "--catalog", path, "list")
	require.NoError(t, err)
	assert.Equal(t, []string{"solo", "2", "0", "-", "250ms"}, rows(out)[1])
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid", func(t *testing.T) {
		path := filepath.Join(dir, "good.yaml")
		f, err := os.Create(path)
		require.NoError(t, err)
		require.NoError(t, catalog.Encode(f, catalog.Default().Definitions()))
		require.NoError(t, f.Close())

		out, err := execute(t, "validate", path)
		require.NoError(t, err)
		assert.Equal(t, "✓ 5 cues valid\n", out)
	})

	t.Run("gated without gestures", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`cues:
  - name: broken
    stages:
      - name: arriving
      - name: resolved
        gated: true
`), 0o644))

		out, err := execute(t, "validate", path)
		require.Error(t, err)
		assert.True(t, strings.HasPrefix(out, "✗ "), out)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := execute(t, "validate", filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestSimulateThreshold(t *testing.T) {
	out, err := execute(t, "simulate", "threshold", "--steps", "4", "--step-delay", "50ms")
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"0s", "stage", "arriving"},
		{"800ms", "stage", "active"},
		{"1s", "stage", "resolved"},
		{"1s", "drag", "handle", "1.00"},
		{"2.2s", "stage", "resonant"},
		{"4.2s", "stage", "afterglow"},
		{"4.2s", "finished"},
	}, rows(out))
}

func TestSimulateUnknownCue(t *testing.T) {
	_, err := execute(t, "simulate", "nope")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestSimulateEveryBuiltinCue(t *testing.T) {
	for _, def := range catalog.Default().Definitions() {
		t.Run(def.Name, func(t *testing.T) {
			var out bytes.Buffer
			reg := status.NewRegistry()
			require.NoError(t, simulate(&out, def, 5, 20*time.Millisecond, reg, nil))

			lines := rows(out.String())
			assert.Equal(t, []string{"stage", "arriving"}, lines[0][1:])
			assert.Equal(t, []string{"finished"}, lines[len(lines)-1][1:])
			assert.EqualValues(t, 1, reg.Counter(status.SequencesFinished).Load())
			assert.EqualValues(t, 0, reg.Counter(status.TimersScheduled).Load()-
				reg.Counter(status.TimersFired).Load()-reg.Counter(status.TimersCanceled).Load())
		})
	}
}

func TestSimulateDualGateDragsBoth(t *testing.T) {
	def, err := catalog.Default().Lookup("balance")
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, simulate(&out, def, 2, 100*time.Millisecond, nil, nil))

	// Non-sticky faders spring back after release
	assert.Contains(t, out.String(), "drag left 0.00")
	assert.Contains(t, out.String(), "drag right 0.00")
	assert.Equal(t, [][]string{
		{"0s", "stage", "arriving"},
		{"1s", "stage", "active"},
		{"1.2s", "drag", "left", "0.00"},
		{"1.4s", "stage", "resolved"},
		{"1.4s", "drag", "right", "0.00"},
		{"2.9s", "stage", "resonant"},
		{"5.4s", "stage", "afterglow"},
		{"5.4s", "finished"},
	}, rows(out.String()))
}
