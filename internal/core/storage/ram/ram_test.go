package ram

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile_ReadWrite(t *testing.T) {
	s := New()
	f, err := s.Open("metadata/data")
	require.NoError(t, err)

	n, err := f.WriteAt([]byte("hello"), 3)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	size, _ := f.Size()
	assert.Equal(t, int64(8), size)

	buf := make([]byte, 8)
	n, err = f.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, []byte("\x00\x00\x00hello"), buf)

	n, err = f.ReadAt(buf, 6)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 2, n)

	_, err = f.ReadAt(buf, 8)
	assert.Equal(t, io.EOF, err)
}

func TestFile_Truncate(t *testing.T) {
	s := New()
	f, _ := s.Open("x")
	_, _ = f.WriteAt([]byte("abcdef"), 0)

	require.NoError(t, f.Truncate(2))
	size, _ := f.Size()
	assert.Equal(t, int64(2), size)

	require.NoError(t, f.Truncate(4))
	buf := make([]byte, 4)
	_, err := f.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte("ab\x00\x00"), buf)
}

func TestStorage_SharedFiles(t *testing.T) {
	s := New()
	a, _ := s.Open("same")
	b, _ := s.Open("same")

	_, _ = a.WriteAt([]byte("x"), 0)
	size, _ := b.Size()
	assert.Equal(t, int64(1), size)
	assert.ElementsMatch(t, []string{"same"}, s.Names())
}

func TestStorage_Close(t *testing.T) {
	s := New()
	f, _ := s.Open("f")

	require.NoError(t, s.Close())

	_, err := s.Open("f")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = f.Size()
	assert.ErrorIs(t, err, ErrClosed)
}
