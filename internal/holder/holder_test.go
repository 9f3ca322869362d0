package holder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConfig struct {
	Value string
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func loadFake(ctx context.Context, path string) (*fakeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	content := string(data)
	if content == "bad" {
		return nil, errors.New("cannot bind")
	}
	return &fakeConfig{Value: content}, nil
}

func TestNewLoadsInitialRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	writeFile(t, path, "v1")

	h, err := New(context.Background(), path, loadFake)
	require.NoError(t, err)
	defer h.Close()

	assert.Equal(t, "v1", h.Get().Value)
}

func TestNewFailsWhenInitialLoadFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	writeFile(t, path, "bad")

	_, err := New(context.Background(), path, loadFake)
	require.Error(t, err)
}

func TestReloadSwapsRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	writeFile(t, path, "v1")

	h, err := New(context.Background(), path, loadFake)
	require.NoError(t, err)
	defer h.Close()

	writeFile(t, path, "v2")
	require.NoError(t, h.Reload(context.Background()))
	assert.Equal(t, "v2", h.Get().Value)
}

func TestFailedReloadKeepsPreviousRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	writeFile(t, path, "v1")

	h, err := New(context.Background(), path, loadFake)
	require.NoError(t, err)
	defer h.Close()

	writeFile(t, path, "bad")
	require.Error(t, h.Reload(context.Background()))
	assert.Equal(t, "v1", h.Get().Value, "the previous record must survive a failed reload")
}

func TestOnChangeFiresAfterSuccessfulReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	writeFile(t, path, "v1")

	h, err := New(context.Background(), path, loadFake)
	require.NoError(t, err)
	defer h.Close()

	var got atomic.Value
	h.OnChange(func(c *fakeConfig) { got.Store(c.Value) })

	writeFile(t, path, "v2")
	require.NoError(t, h.Reload(context.Background()))
	assert.Equal(t, "v2", got.Load())
}

func TestOnChangeCallbackMayReadHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	writeFile(t, path, "v1")

	h, err := New(context.Background(), path, loadFake)
	require.NoError(t, err)
	defer h.Close()

	// Callbacks run outside the holder's lock, so re-entering Get here
	// must not deadlock.
	var got atomic.Value
	h.OnChange(func(*fakeConfig) { got.Store(h.Get().Value) })

	writeFile(t, path, "v2")
	require.NoError(t, h.Reload(context.Background()))
	assert.Equal(t, "v2", got.Load())
}

func TestOnChangeSkippedOnFailedReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	writeFile(t, path, "v1")

	h, err := New(context.Background(), path, loadFake)
	require.NoError(t, err)
	defer h.Close()

	var fired atomic.Bool
	h.OnChange(func(*fakeConfig) { fired.Store(true) })

	writeFile(t, path, "bad")
	require.Error(t, h.Reload(context.Background()))
	assert.False(t, fired.Load())
}

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.yaml")
	writeFile(t, path, "v1")

	h, err := New(context.Background(), path, loadFake)
	require.NoError(t, err)
	defer h.Close()

	changed := make(chan string, 4)
	h.OnChange(func(c *fakeConfig) { changed <- c.Value })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, h.Watch(ctx))

	writeFile(t, path, "v2")

	select {
	case v := <-changed:
		assert.Equal(t, "v2", v)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed after file change")
	}
}

func TestWatchIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.yaml")
	writeFile(t, path, "v1")

	h, err := New(context.Background(), path, loadFake)
	require.NoError(t, err)
	defer h.Close()

	changed := make(chan string, 4)
	h.OnChange(func(c *fakeConfig) { changed <- c.Value })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, h.Watch(ctx))

	writeFile(t, filepath.Join(dir, "other.yaml"), "x")

	select {
	case v := <-changed:
		t.Fatalf("unexpected reload to %q from a sibling file", v)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	writeFile(t, path, "v1")

	h, err := New(context.Background(), path, loadFake)
	require.NoError(t, err)
	require.NoError(t, h.Close())
	require.NoError(t, h.Close())
	assert.Equal(t, "v1", h.Get().Value, "the record outlives Close")
}
