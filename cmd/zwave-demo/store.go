package main

import "os"

// fileStore backs the node cache's persisted blob with a plain file: the
// blob format itself is cache/blob.go's own manual encoding (spec.md §4.E),
// so this layer only needs to move bytes, not understand them.
type fileStore struct {
	path string
}

func newFileStore(path string) *fileStore { return &fileStore{path: path} }

func (s *fileStore) load(offset, length int) []byte {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return make([]byte, length) // spec.md §6: missing/short reads back as zero
	}
	out := make([]byte, length)
	if offset < len(data) {
		copy(out, data[offset:])
	}
	return out
}

func (s *fileStore) save(data []byte) error {
	return os.WriteFile(s.path, data, 0o600)
}

func (s *fileStore) reset() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
