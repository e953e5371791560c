package extract

import (
	"fmt"
	"os"
	"strings"
)

// AllowedExtensions lists the image file suffixes accepted by IsImage.
var AllowedExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
	"tiff": true,
}

// IsImage reports whether name looks like a supported image. Only the final
// dot-delimited suffix is checked, case-insensitively.
func IsImage(name string) bool {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return false
	}
	return AllowedExtensions[strings.ToLower(name[i+1:])]
}

// ListImages returns the names of supported image files directly inside dir
// in directory-listing order (lexical by file name). Subdirectories are
// ignored.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("extract: list %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !IsImage(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}
