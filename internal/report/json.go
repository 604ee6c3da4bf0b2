package report

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/afero"
)

// WriteJSON encodes s as indented JSON.
func WriteJSON(w io.Writer, s Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return nil
}

// WriteJSONFile writes the summary to path, replacing any previous file.
func WriteJSONFile(fsys afero.Fs, path string, s Summary) error {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	f, err := fsys.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create summary %s: %w", path, err)
	}
	if err := WriteJSON(f, s); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close summary %s: %w", path, err)
	}
	return nil
}
