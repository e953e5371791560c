package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsImage(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"cat.jpg", true},
		{"CAT.JPEG", true},
		{"scan.TiFF", true},
		{"anim.gif", true},
		{"photo.backup.png", true},
		{"archive.png.zip", false},
		{"noext", false},
		{"image.tif", false},
		{".png", true},
		{"trailingdot.", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsImage(tc.name))
		})
	}
}

func TestListImages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.JPG", "notes.txt", "c.gif"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.png"), 0o755))

	names, err := ListImages(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.JPG", "b.png", "c.gif"}, names)

	_, err = ListImages(filepath.Join(dir, "missing"))
	require.Error(t, err)
}
