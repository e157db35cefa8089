// Package transfer moves the whole record store in and out of a single
// JSON document, the same file the browser client downloads and uploads.
package transfer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/HendryAvila/noisedetox/internal/dates"
	"github.com/HendryAvila/noisedetox/internal/notify"
	"github.com/HendryAvila/noisedetox/internal/records"
)

// User-visible outcome messages.
const (
	MsgExported    = "Данные успешно экспортированы!"
	MsgImported    = "Данные успешно импортированы!"
	MsgImportError = "Ошибка при импорте данных!"
	MsgOddSection  = "Раздел %s имеет неожиданный формат"
)

// ErrNullDocument is returned by Decode for a document that is JSON null.
var ErrNullDocument = errors.New("transfer: document is null")

// Store is the part of records.Store that transfer needs.
type Store interface {
	Export() (*records.ExportDocument, error)
	Import(doc *records.ImportDocument) (*records.ImportResult, error)
}

// FileName returns the export file name for an export taken at t.
func FileName(t time.Time) string {
	return "noise-detox-data-" + dates.ExportStamp(t) + ".json"
}

// Encode writes doc as two-space indented JSON.
func Encode(doc *records.ExportDocument, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("transfer: encode: %w", err)
	}
	return nil
}

// WriteFile exports store into dir and returns the path written. The file
// appears atomically; a failed write leaves no partial file behind.
func WriteFile(store Store, dir string) (string, error) {
	doc, err := store.Export()
	if err != nil {
		return "", fmt.Errorf("transfer: export: %w", err)
	}

	var buf bytes.Buffer
	if err := Encode(doc, &buf); err != nil {
		return "", err
	}

	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("transfer: create %s: %w", dir, err)
	}

	stamp, ok := dates.ParseISO(doc.ExportDate)
	if !ok {
		stamp = timeNow()
	}
	path := filepath.Join(dir, FileName(stamp))
	if err := writeAtomic(path, buf.Bytes()); err != nil {
		return "", fmt.Errorf("transfer: write %s: %w", path, err)
	}
	return path, nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Decode parses an import document. Any valid JSON value is accepted; a
// value that is not an object simply carries no sections. JSON null and
// malformed input are errors.
func Decode(r io.Reader) (*records.ImportDocument, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("transfer: read: %w", err)
	}
	data = bytes.TrimSpace(data)
	if !json.Valid(data) {
		return nil, errors.New("transfer: document is not valid JSON")
	}
	if bytes.Equal(data, []byte("null")) {
		return nil, ErrNullDocument
	}

	doc := &records.ImportDocument{}
	if data[0] != '{' {
		return doc, nil
	}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("transfer: decode: %w", err)
	}
	return doc, nil
}

// Import decodes r and imports it into store. The document is fully parsed
// before anything is written, so a bad document leaves the store as it was.
// The outcome is reported to n.
func Import(store Store, r io.Reader, n notify.Notifier) (*records.ImportResult, error) {
	if n == nil {
		n = notify.Nop{}
	}

	doc, err := Decode(r)
	if err != nil {
		n.Error(MsgImportError)
		return nil, err
	}

	res, err := store.Import(doc)
	if err != nil {
		n.Error(MsgImportError)
		return res, fmt.Errorf("transfer: import: %w", err)
	}

	n.Success(MsgImported)
	for _, name := range oddSections(doc, res) {
		n.Warning(fmt.Sprintf(MsgOddSection, name))
	}
	return res, nil
}

// oddSections names the imported sections whose JSON type differs from what
// the store reads back: arrays for diary and hearing, an object for
// settings. They are imported anyway.
func oddSections(doc *records.ImportDocument, res *records.ImportResult) []string {
	checks := []struct {
		name string
		done bool
		raw  json.RawMessage
		want byte
	}{
		{"diary", res.Diary, doc.Diary, '['},
		{"hearing", res.Hearing, doc.Hearing, '['},
		{"settings", res.Settings, doc.Settings, '{'},
	}

	var out []string
	for _, c := range checks {
		v := bytes.TrimSpace(c.raw)
		if c.done && len(v) > 0 && v[0] != c.want {
			out = append(out, c.name)
		}
	}
	return out
}

// ImportFile is Import reading from the file at path.
func ImportFile(store Store, path string, n notify.Notifier) (*records.ImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		if n != nil {
			n.Error(MsgImportError)
		}
		return nil, fmt.Errorf("transfer: open %s: %w", path, err)
	}
	defer f.Close()
	return Import(store, f, n)
}

// Export writes the export file into dir and reports success to n.
func Export(store Store, dir string, n notify.Notifier) (string, error) {
	path, err := WriteFile(store, dir)
	if err != nil {
		return "", err
	}
	if n != nil {
		n.Success(MsgExported)
	}
	return path, nil
}
