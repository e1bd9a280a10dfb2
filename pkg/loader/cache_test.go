package loader

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingReader struct {
	calls atomic.Int32
}

func (c *countingReader) read(path string) ([]byte, error) {
	c.calls.Add(1)
	return os.ReadFile(path)
}

func TestCacheLoadsOncePerPath(t *testing.T) {
	path := writeCSV(t, reportHeader+"\nFLEX,Security Incident Report,2024-01-01,High,Open,Phishing,x,1\n")
	counter := &countingReader{}
	cache := NewCache(WithReadFunc(counter.read))

	first, err := cache.Load(path)
	require.NoError(t, err)
	second, err := cache.Load(path)
	require.NoError(t, err)

	assert.Equal(t, int32(1), counter.calls.Load())
	assert.Same(t, first, second)
	assert.Equal(t, first.Table.Records, second.Table.Records)
	assert.Equal(t, 1, cache.Len())
}

func TestCacheKeysByPath(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.csv")
	b := filepath.Join(dir, "b.csv")
	require.NoError(t, os.WriteFile(a, []byte("mission,date\nFLEX,2024-01-01\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("mission,date\nBIOMASS,2024-01-01\nEARTHCARE,2024-01-02\n"), 0o644))
	counter := &countingReader{}
	cache := NewCache(WithReadFunc(counter.read))

	ra, err := cache.Load(a)
	require.NoError(t, err)
	rb, err := cache.Load(b)
	require.NoError(t, err)

	assert.Equal(t, 1, ra.Table.Len())
	assert.Equal(t, 2, rb.Table.Len())
	assert.Equal(t, int32(2), counter.calls.Load())
}

func TestCacheInvalidateAndReset(t *testing.T) {
	path := writeCSV(t, "mission,date\nFLEX,2024-01-01\n")
	counter := &countingReader{}
	cache := NewCache(WithReadFunc(counter.read))

	_, err := cache.Load(path)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("mission,date\nFLEX,2024-01-01\nFLEX,2024-01-02\n"), 0o644))
	stale, err := cache.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, stale.Table.Len())

	cache.Invalidate(path)
	fresh, err := cache.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.Table.Len())
	assert.Equal(t, int32(2), counter.calls.Load())

	cache.Reset()
	assert.Equal(t, 0, cache.Len())
	_, err = cache.Load(path)
	require.NoError(t, err)
	assert.Equal(t, int32(3), counter.calls.Load())
}

func TestCacheDoesNotCacheErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.csv")
	counter := &countingReader{}
	cache := NewCache(WithReadFunc(counter.read))

	_, err := cache.Load(path)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = cache.Load(path)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, int32(2), counter.calls.Load())
	assert.Equal(t, 0, cache.Len())
}

func TestCacheConcurrentLoadsShareOneRead(t *testing.T) {
	path := writeCSV(t, "mission,date\nFLEX,2024-01-01\n")
	counter := &countingReader{}
	cache := NewCache(WithReadFunc(counter.read))

	const workers = 16
	results := make([]*Result, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := cache.Load(path)
			if err == nil {
				results[i] = res
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), counter.calls.Load())
	for _, res := range results {
		require.NotNil(t, res)
		assert.Same(t, results[0], res)
	}
}

func TestCacheInvalidateDuringLoadDropsStaleResult(t *testing.T) {
	path := writeCSV(t, "mission,date\nFLEX,2024-01-01\n")
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	read := func(p string) ([]byte, error) {
		content, err := os.ReadFile(p)
		if calls.Add(1) == 1 {
			close(started)
			<-release
		}
		return content, err
	}
	cache := NewCache(WithReadFunc(read))

	done := make(chan *Result)
	go func() {
		res, _ := cache.Load(path)
		done <- res
	}()

	<-started
	require.NoError(t, os.WriteFile(path, []byte("mission,date\nFLEX,2024-01-01\nFLEX,2024-01-02\n"), 0o644))
	cache.Invalidate(path)
	close(release)

	stale := <-done
	require.NotNil(t, stale)
	assert.Equal(t, 1, stale.Table.Len())
	assert.Equal(t, 0, cache.Len())

	fresh, err := cache.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.Table.Len())
	assert.Equal(t, int32(2), calls.Load())
}

func TestCacheResetDuringLoadDropsStaleResult(t *testing.T) {
	path := writeCSV(t, "mission,date\nFLEX,2024-01-01\n")
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	read := func(p string) ([]byte, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-release
		}
		return os.ReadFile(p)
	}
	cache := NewCache(WithReadFunc(read))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = cache.Load(path)
	}()

	<-started
	cache.Reset()
	close(release)
	<-done

	assert.Equal(t, 0, cache.Len())
}
