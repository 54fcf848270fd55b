// Package checkpoint persists completed work as a YAML sequence of flat
// records. The file is the durable checkpoint: whatever it holds is done.
package checkpoint

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned by LoadRequired when the store file does not exist.
var ErrNotFound = eris.New("checkpoint: file not found")

// Mode selects how a completed record reaches disk.
type Mode string

const (
	// ModeAppend writes each record as one more sequence item at the end of
	// the file.
	ModeAppend Mode = "append"
	// ModeRewrite writes the whole sequence to a temporary file and renames
	// it over the store.
	ModeRewrite Mode = "rewrite"
)

// ParseMode validates a configured mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeAppend, ModeRewrite:
		return Mode(s), nil
	default:
		return "", eris.Errorf("checkpoint: unknown mode %q", s)
	}
}

// Store is an append-only record file held fully in memory. It is not safe
// for concurrent use.
type Store[T any] struct {
	path    string
	mode    Mode
	fsync   bool
	records []T
}

// Open loads the records at path, creating nothing until the first Append.
// A missing file is an empty store.
func Open[T any](path string, mode Mode, fsync bool) (*Store[T], error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}
	records, err := Load[T](path)
	if err != nil {
		return nil, err
	}
	return &Store[T]{path: path, mode: mode, fsync: fsync, records: records}, nil
}

// Load reads every record in the file at path. A missing file yields no
// records; null entries are ignored.
func Load[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "checkpoint: read %s", path)
	}
	return decode[T](data, path)
}

// LoadRequired reads every record in the file at path and fails with
// ErrNotFound when it does not exist.
func LoadRequired[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrapf(ErrNotFound, "checkpoint: load %s", path)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "checkpoint: read %s", path)
	}
	return decode[T](data, path)
}

func decode[T any](data []byte, path string) ([]T, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var items []*T
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, eris.Wrapf(err, "checkpoint: parse %s", path)
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if it != nil {
			out = append(out, *it)
		}
	}
	return out, nil
}

// Path returns the backing file path.
func (s *Store[T]) Path() string { return s.path }

// Len returns the number of persisted records.
func (s *Store[T]) Len() int { return len(s.records) }

// Records returns the persisted records in file order. The slice must not be
// modified.
func (s *Store[T]) Records() []T { return s.records }

// Append durably persists rec before returning. On error the in-memory view
// is unchanged.
func (s *Store[T]) Append(rec T) error {
	// An empty store may still hold a non-sequence document such as "[]",
	// so the first record always replaces the file.
	if s.mode == ModeRewrite || len(s.records) == 0 {
		next := append(s.records[:len(s.records):len(s.records)], rec)
		if err := s.rewrite(next); err != nil {
			return err
		}
		s.records = next
		return nil
	}

	if err := s.appendItem(rec); err != nil {
		return err
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *Store[T]) appendItem(rec T) error {
	data, err := encode([]T{rec})
	if err != nil {
		return err
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return eris.Wrapf(err, "checkpoint: open %s", s.path)
	}

	needsNewline, err := endsWithoutNewline(s.path)
	if err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	if needsNewline {
		data = append([]byte("\n"), data...)
	}

	if _, err := f.Write(data); err != nil {
		f.Close() //nolint:errcheck
		return eris.Wrapf(err, "checkpoint: append %s", s.path)
	}
	if s.fsync {
		if err := f.Sync(); err != nil {
			f.Close() //nolint:errcheck
			return eris.Wrapf(err, "checkpoint: sync %s", s.path)
		}
	}
	return eris.Wrapf(f.Close(), "checkpoint: close %s", s.path)
}

func (s *Store[T]) rewrite(records []T) error {
	data, err := encode(records)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "checkpoint: create dir %s", dir)
		}
	}

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return eris.Wrapf(err, "checkpoint: create %s", tmp)
	}
	if _, err := f.Write(data); err != nil {
		f.Close() //nolint:errcheck
		return eris.Wrapf(err, "checkpoint: write %s", tmp)
	}
	if s.fsync {
		if err := f.Sync(); err != nil {
			f.Close() //nolint:errcheck
			return eris.Wrapf(err, "checkpoint: sync %s", tmp)
		}
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "checkpoint: close %s", tmp)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return eris.Wrapf(err, "checkpoint: rename %s", tmp)
	}
	return nil
}

func encode[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(records); err != nil {
		return nil, eris.Wrap(err, "checkpoint: encode")
	}
	if err := enc.Close(); err != nil {
		return nil, eris.Wrap(err, "checkpoint: encode")
	}
	return buf.Bytes(), nil
}

func endsWithoutNewline(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, eris.Wrapf(err, "checkpoint: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	info, err := f.Stat()
	if err != nil {
		return false, eris.Wrapf(err, "checkpoint: stat %s", path)
	}
	if info.Size() == 0 {
		return false, nil
	}
	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return false, eris.Wrapf(err, "checkpoint: read %s", path)
	}
	return last[0] != '\n', nil
}
