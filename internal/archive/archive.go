package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"sort"

	"github.com/darkroom-tools/darkroom/internal/editor"
)

// Build packages the given filename->artifact mapping into a single zip
// blob for bulk download. Entries are written in filename order so the same
// inputs always produce the same archive. Any failure is reported as one
// aggregate ErrArchiveFailed.
func Build(entries map[string]*editor.Artifact) ([]byte, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: nothing to package", editor.ErrArchiveFailed)
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, name := range names {
		f, err := w.Create(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", editor.ErrArchiveFailed, err)
		}
		if _, err := f.Write(entries[name].Data); err != nil {
			return nil, fmt.Errorf("%w: %v", editor.ErrArchiveFailed, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", editor.ErrArchiveFailed, err)
	}

	return buf.Bytes(), nil
}
