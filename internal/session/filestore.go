package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps one <identity>.json document per identity. The document is
// the opaque client blob with an optional top-level "proxy" field injected.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("sessions directory required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create sessions directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(identity string) (string, error) {
	if identity == "" || identity != filepath.Base(identity) || strings.HasPrefix(identity, ".") {
		return "", ErrInvalidIdentity
	}
	return filepath.Join(s.dir, identity+".json"), nil
}

func (s *FileStore) Save(ctx context.Context, identity string, state json.RawMessage, proxy string) error {
	path, err := s.path(identity)
	if err != nil {
		return err
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(state, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if proxy != "" {
		raw, err := json.Marshal(proxy)
		if err != nil {
			return err
		}
		doc["proxy"] = raw
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return s.writeAtomic(path, data)
}

// writeAtomic commits via temp file + fsync + rename so a concurrent Load
// never observes a partial record.
func (s *FileStore) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp session file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp session file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp session file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("commit session file: %w", err)
	}
	return nil
}

func (s *FileStore) Load(ctx context.Context, identity string) (Record, error) {
	path, err := s.path(identity)
	if err != nil {
		return Record{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("read session file: %w", err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	rec := Record{State: data}
	if raw, ok := doc["proxy"]; ok {
		if err := json.Unmarshal(raw, &rec.Proxy); err != nil {
			return Record{}, fmt.Errorf("%w: bad proxy field: %v", ErrCorrupt, err)
		}
	}
	return rec, nil
}

func (s *FileStore) Delete(ctx context.Context, identity string) (bool, error) {
	path, err := s.path(identity)
	if err != nil {
		return false, err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("remove session file: %w", err)
	}
	return true, nil
}

func (s *FileStore) Exists(ctx context.Context, identity string) (bool, error) {
	path, err := s.path(identity)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat session file: %w", err)
	}
	return true, nil
}
