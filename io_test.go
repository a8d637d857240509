package evbuffer

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestWriteToFDWritesAndDrains(t *testing.T) {
	b := New()
	_, _ = b.Add([]byte("hello pipe"))

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()

	n, err := b.WriteToFD(int(w.Fd()), -1)
	w.Close()
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, 0, b.Len())

	got := make([]byte, 10)
	rn, err := r.Read(got)
	require.NoError(t, err)
	assert.Equal(t, "hello pipe", string(got[:rn]))
}

func TestReadFromFDReads(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()

	go func() {
		_, _ = w.Write([]byte("from fd"))
		w.Close()
	}()

	b := New()
	n, err := b.ReadFromFD(int(r.Fd()), 64)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.Equal(t, "from fd", func() string {
		out := make([]byte, 7)
		_, _ = b.Copyout(out)
		return string(out)
	}())
}

func TestWriteFileToFDUsesSendfileOrFallback(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "evb")
	require.NoError(t, err)
	_, err = f.WriteString("file contents here")
	require.NoError(t, err)
	require.NoError(t, f.Sync())

	fd, err := unix.Dup(int(f.Fd()))
	require.NoError(t, err)
	f.Close()

	b := New()
	require.NoError(t, b.AddFile(fd, 0, int64(len("file contents here")), nil))

	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()

	for b.Len() > 0 {
		_, err := b.WriteFileToFD(int(w.Fd()))
		require.NoError(t, err)
	}
	w.Close()

	out := make([]byte, 64)
	n, _ := r.Read(out)
	assert.Equal(t, "file contents here", string(out[:n]))
}
