package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/calvinalkan/scandir"
	"github.com/calvinalkan/scandir/internal/config"
)

// entryRecord is one ls row in json and yaml output.
type entryRecord struct {
	Name    string `json:"name" yaml:"name"`
	Kind    string `json:"kind" yaml:"kind"`
	Size    int64  `json:"size,omitempty" yaml:"size,omitempty"`
	Mode    string `json:"mode,omitempty" yaml:"mode,omitempty"`
	ModTime string `json:"mtime,omitempty" yaml:"mtime,omitempty"`
	Target  string `json:"target,omitempty" yaml:"target,omitempty"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// levelRecord is one walk level in json and yaml output.
type levelRecord struct {
	Path  string   `json:"path" yaml:"path"`
	Dirs  []string `json:"dirs" yaml:"dirs"`
	Files []string `json:"files" yaml:"files"`
}

// kindName classifies e for display. Symlinks are reported as such even
// when they point at directories.
func kindName(e *scandir.DirEntry) string {
	switch {
	case e.IsSymlink():
		return scandir.KindSymlink.String()
	case e.IsDir():
		return scandir.KindDir.String()
	case e.IsRegular():
		return scandir.KindRegular.String()
	default:
		return scandir.KindOther.String()
	}
}

func formatTime(st scandir.Stat) string {
	return st.Modified().UTC().Format(time.RFC3339)
}

// recordWriter streams records in json (one object per line) or yaml (one
// document per record).
type recordWriter struct {
	json *json.Encoder
	yaml *yaml.Encoder
}

func newRecordWriter(w io.Writer, format string) (*recordWriter, error) {
	switch format {
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)

		return &recordWriter{json: enc}, nil
	case config.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		return &recordWriter{yaml: enc}, nil
	default:
		return nil, fmt.Errorf("no record encoder for format %q", format)
	}
}

func (r *recordWriter) Write(v any) error {
	if r.json != nil {
		return r.json.Encode(v)
	}

	return r.yaml.Encode(v)
}

func (r *recordWriter) Close() error {
	if r.yaml != nil {
		return r.yaml.Close()
	}

	return nil
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && term.IsTerminal(int(f.Fd()))
}
