package dropzone

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type collector struct {
	mu    sync.Mutex
	paths []string
	err   error
}

func (c *collector) handle(_ context.Context, path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.paths = append(c.paths, filepath.Base(path))
	return c.err
}

func (c *collector) got() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.paths...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newZone(t *testing.T, h Handler) *Zone {
	t.Helper()
	z, err := New(t.TempDir(), h, Options{Settle: 30 * time.Millisecond, Logger: quietLogger()})
	require.NoError(t, err)
	return z
}

func TestAccepts(t *testing.T) {
	z := newZone(t, nil)

	tests := []struct {
		name string
		want bool
	}{
		{"farms.csv", true},
		{"FARMS.CSV", true},
		{"plots.xlsx", true},
		{"old.xls", true},
		{"shapes.geojson", true},
		{"farms.csv.xz", true},
		{"notes.txt", false},
		{".hidden.csv", false},
		{"farms.csv~", false},
		{"farms.csv.part", false},
		{"farms.csv.crdownload", false},
		{"farms.tmp", false},
		{".farms.csv.swp", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, z.Accepts(filepath.Join(z.Dir(), tt.name)))
		})
	}
}

func TestNew_Errors(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"), nil, Options{})
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "f.csv")
	require.NoError(t, os.WriteFile(file, []byte("a"), 0o644))
	_, err = New(file, nil, Options{})
	assert.Error(t, err)

	_, err = New(t.TempDir(), nil, Options{Pattern: "[unclosed"})
	assert.Error(t, err)
}

func TestDrop_ForwardsInOrder(t *testing.T) {
	c := &collector{}
	z := newZone(t, c.handle)

	paths := []string{"b.csv", "notes.txt", "a.xlsx", "gone.csv"}
	for _, p := range paths[:3] {
		require.NoError(t, os.WriteFile(filepath.Join(z.Dir(), p), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(z.Dir(), "dir.csv"), 0o755))

	full := make([]string, 0, len(paths)+1)
	for _, p := range append(paths, "dir.csv") {
		full = append(full, filepath.Join(z.Dir(), p))
	}
	require.NoError(t, z.Drop(context.Background(), full...))

	assert.Equal(t, []string{"b.csv", "a.xlsx"}, c.got())
	assert.Equal(t, Stats{Dropped: 2, Suppressed: 3}, z.Stats())
}

func TestDrop_CollectsHandlerErrors(t *testing.T) {
	c := &collector{err: errors.New("upload failed")}
	z := newZone(t, c.handle)

	for _, p := range []string{"a.csv", "b.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(z.Dir(), p), []byte("x"), 0o644))
	}
	err := z.Drop(context.Background(), filepath.Join(z.Dir(), "a.csv"), filepath.Join(z.Dir(), "b.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a.csv")
	assert.Contains(t, err.Error(), "b.csv")
	assert.Equal(t, 2, z.Stats().Failed)
}

func TestExisting(t *testing.T) {
	c := &collector{}
	z := newZone(t, c.handle)

	for _, p := range []string{"z.geojson", "a.csv", "FARMS.CSV", "readme.md", "NOTES.TXT", ".a.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(z.Dir(), p), []byte("x"), 0o644))
	}

	n, err := z.Existing(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"FARMS.CSV", "a.csv", "z.geojson"}, c.got(), "extensions match in any case")
}

func TestZone_WatchesFolder(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := &collector{}
	z := newZone(t, c.handle)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, z.Start(ctx))
	require.NoError(t, z.Start(ctx))
	assert.Equal(t, Idle, z.State())

	require.NoError(t, os.WriteFile(filepath.Join(z.Dir(), "ignored.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(z.Dir(), "farms.csv.part"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(z.Dir(), "farms.csv"), []byte("a,b\n1,2\n"), 0o644))

	require.Eventually(t, func() bool { return len(c.got()) == 1 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"farms.csv"}, c.got())
	require.Eventually(t, func() bool { return z.State() == Idle }, time.Second, 10*time.Millisecond)

	z.Stop()
	z.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(z.Dir(), "late.csv"), []byte("x"), 0o644))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, []string{"farms.csv"}, c.got())
}

func TestZone_RemovedBeforeSettle(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := &collector{}
	z, err := New(t.TempDir(), c.handle, Options{Settle: 300 * time.Millisecond, Logger: quietLogger()})
	require.NoError(t, err)

	require.NoError(t, z.Start(context.Background()))
	defer z.Stop()

	path := filepath.Join(z.Dir(), "farms.csv")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	require.Eventually(t, func() bool { return z.State() == Highlighted }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, os.Remove(path))
	require.Eventually(t, func() bool { return z.State() == Idle }, 2*time.Second, 5*time.Millisecond)

	time.Sleep(400 * time.Millisecond)
	assert.Empty(t, c.got())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "highlighted", Highlighted.String())
}
