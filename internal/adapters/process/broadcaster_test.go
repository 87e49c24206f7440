package process

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readExactly(t *testing.T, r io.Reader, n int) string {
	t.Helper()

	buf := make([]byte, n)
	done := make(chan error, 1)
	go func() {
		_, err := io.ReadFull(r, buf)
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for broadcast data")
	}
	return string(buf)
}

func TestBroadcaster_FanOut(t *testing.T) {
	b := newBroadcaster()
	defer b.Close()

	first := b.Attach()
	second := b.Attach()

	n, err := b.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	assert.Equal(t, "hello", readExactly(t, first, 5))
	assert.Equal(t, "hello", readExactly(t, second, 5))
}

func TestBroadcaster_AttachSeesOnlyLaterWrites(t *testing.T) {
	b := newBroadcaster()
	defer b.Close()

	_, err := b.Write([]byte("before"))
	require.NoError(t, err)

	reader := b.Attach()
	_, err = b.Write([]byte("after"))
	require.NoError(t, err)

	assert.Equal(t, "after", readExactly(t, reader, 5))
}

func TestBroadcaster_DetachDoesNotAffectOthers(t *testing.T) {
	b := newBroadcaster()
	defer b.Close()

	leaving := b.Attach()
	staying := b.Attach()

	require.NoError(t, leaving.Close())

	_, err := b.Write([]byte("still here"))
	require.NoError(t, err)

	assert.Equal(t, "still here", readExactly(t, staying, 10))
}

func TestBroadcaster_CloseEndsReaders(t *testing.T) {
	b := newBroadcaster()
	reader := b.Attach()

	_, err := b.Write([]byte("bye"))
	require.NoError(t, err)
	b.Close()

	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, "bye", string(data))
}

func TestBroadcaster_AttachAfterClose(t *testing.T) {
	b := newBroadcaster()
	b.Close()

	reader := b.Attach()
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestBroadcaster_DropsLaggingReader(t *testing.T) {
	b := newBroadcaster()
	defer b.Close()

	// Never read from this subscriber; once its channel buffer fills the
	// writer must stay unblocked and cut it loose.
	lagging := b.Attach().(*subscriber)
	draining := b.Attach()

	payload := []byte("x")
	for i := 0; i < subscriberBuffer+16; i++ {
		_, err := b.Write(payload)
		require.NoError(t, err)
		io.CopyN(io.Discard, draining, 1)
	}

	b.mu.Lock()
	_, stillAttached := b.subs[lagging]
	b.mu.Unlock()
	assert.False(t, stillAttached, "lagging reader should have been dropped")
}
