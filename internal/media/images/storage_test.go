package images

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(filepath.Join(t.TempDir(), "media"))
	require.NoError(t, err)
	return s
}

func TestNewStorage_RequiresRoot(t *testing.T) {
	_, err := NewStorage("")
	assert.Error(t, err)
}

func TestNewKey_Layout(t *testing.T) {
	key := NewKey(time.Date(2025, 3, 7, 12, 0, 0, 0, time.UTC))
	assert.Regexp(t, regexp.MustCompile(`^flavors/2025/03/[0-9a-f]{32}\.jpg$`), key)
	assert.NotEqual(t, key, NewKey(time.Date(2025, 3, 7, 12, 0, 0, 0, time.UTC)))
}

func TestStorage_SaveGetDelete(t *testing.T) {
	s := setupTestStorage(t)
	data := []byte("jpeg bytes")

	key, err := s.Save(time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC), data)
	require.NoError(t, err)
	assert.True(t, s.Exists(key))

	got, err := s.Get(key)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	full, err := s.Path(key)
	require.NoError(t, err)
	_, err = os.Stat(full + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should be gone")

	require.NoError(t, s.Delete(key))
	assert.False(t, s.Exists(key))
	assert.NoError(t, s.Delete(key), "deleting twice is fine")

	_, err = s.Get(key)
	assert.Error(t, err)
}

func TestStorage_SaveRejectsEmptyData(t *testing.T) {
	s := setupTestStorage(t)
	_, err := s.Save(time.Now(), nil)
	assert.Error(t, err)
}

func TestStorage_PathRejectsEscapes(t *testing.T) {
	s := setupTestStorage(t)
	for _, key := range []string{"", "/etc/passwd", "../secret.jpg", "flavors/../../x.jpg", `flavors\x.jpg`, "flavors//a.jpg", "."} {
		_, err := s.Path(key)
		assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
	}

	p, err := s.Path("flavors/2025/06/abc.jpg")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Root(), "flavors", "2025", "06", "abc.jpg"), p)
}
