// Package zip bundles a batch's exported assets into a single archive.
package zip

import (
	"archive/zip"
	"bytes"
)

// Entry is one file to place in the archive.
type Entry struct {
	Name string
	Data []byte
}

// Archive writes all entries into an in-memory zip. Entries that cannot be
// created are skipped rather than failing the whole bundle.
func Archive(entries []Entry) []byte {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, entry := range entries {
		w, err := zw.Create(entry.Name)
		if err != nil {
			continue
		}
		if _, err := w.Write(entry.Data); err != nil {
			return nil
		}
	}
	_ = zw.Close()
	return buf.Bytes()
}
