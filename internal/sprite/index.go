package sprite

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// rank orders extensions for the same stem. Formats that carry alpha win
// over JPEG.
var rank = map[string]int{
	".png":  4,
	".webp": 3,
	".tga":  3,
	".gif":  2,
	".tif":  1,
	".tiff": 1,
	".bmp":  1,
	".jpg":  0,
	".jpeg": 0,
}

// Index maps lowercase image stems to filesystem paths.
type Index struct {
	entries map[string]string // stem.lower() → full path
}

// BuildIndex scans dir and its subdirectories for decodable images.
// A missing directory yields an empty index.
func BuildIndex(dir string) *Index {
	idx := &Index{entries: make(map[string]string)}
	if dir == "" {
		return idx
	}

	filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		r, ok := rank[ext]
		if !ok {
			return nil
		}
		stem := strings.ToLower(strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))

		existing, exists := idx.entries[stem]
		if !exists || r > rank[strings.ToLower(filepath.Ext(existing))] {
			idx.entries[stem] = path
		}
		return nil
	})

	return idx
}

// ResolvePath returns the filesystem path for an image name, or ("", false).
// Directory prefixes and extensions in name are ignored.
func (idx *Index) ResolvePath(name string) (string, bool) {
	name = strings.ReplaceAll(name, "\\", "/")
	base := filepath.Base(name)
	stem := strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))

	path, ok := idx.entries[stem]
	return path, ok
}

// Names returns the indexed stems in sorted order.
func (idx *Index) Names() []string {
	names := make([]string, 0, len(idx.entries))
	for stem := range idx.entries {
		names = append(names, stem)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of indexed images.
func (idx *Index) Len() int {
	return len(idx.entries)
}
