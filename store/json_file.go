package store

import (
	"os"
	"path/filepath"
	"sync"
)

// JsonFileStore stores each key as a separate file on disk. The file holds
// the raw value, so a saved dataset can be opened directly.
//
// Layout:
//
//	data_dir/
//	  localServiceRequestsJSON.json   # value of key "localServiceRequestsJSON"
type JsonFileStore struct {
	mu  sync.RWMutex
	dir string
}

func NewJsonFileStore(dir string) (*JsonFileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &JsonFileStore{dir: dir}, nil
}

func (s *JsonFileStore) keyPath(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *JsonFileStore) Get(key string) (string, bool, error) {
	if err := checkKey(key); err != nil {
		return "", false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, err := os.ReadFile(s.keyPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}

// Put writes to a temp file and renames it over the old one so a crash
// never leaves a half-written value behind.
func (s *JsonFileStore) Put(key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tmp, err := os.CreateTemp(s.dir, "."+key+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), s.keyPath(key)); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}

func (s *JsonFileStore) Delete(key string) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.keyPath(key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *JsonFileStore) Close() error { return nil }
