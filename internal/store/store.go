package store

import (
	"encoding/json"
	"os"

	"mairesult/internal/record"
	"mairesult/logger"
	"mairesult/pkg/errors"
)

// Store persists the ordered collection of play results. Implementations
// are not required to be safe for concurrent writers; callers serialize
// ingestion themselves.
type Store interface {
	// Load returns all persisted records, oldest first
	Load() ([]record.Record, error)

	// Save overwrites the persisted collection in full
	Save(records []record.Record) error
}

// FileStore implements Store as a whole-file JSON array
type FileStore struct {
	path string
	log  *logger.Logger
}

// NewFileStore creates a file store at the given path
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: path,
		log:  logger.ForStore(),
	}
}

// Load reads the whole collection. A missing file is an empty
// collection; an unreadable or unparsable file also degrades to an
// empty collection, logged at warn level.
func (s *FileStore) Load() ([]record.Record, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []record.Record{}, nil
		}
		s.log.Warn().Err(err).Str("path", s.path).Msg("Store unreadable, treating as empty")
		return []record.Record{}, nil
	}

	var records []record.Record
	if err := json.Unmarshal(data, &records); err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("Store unparsable, treating as empty")
		return []record.Record{}, nil
	}

	return records, nil
}

// Save overwrites the whole collection. Write errors propagate: a
// silent failure would desynchronize insert counts from durability.
func (s *FileStore) Save(records []record.Record) error {
	data, err := json.Marshal(records)
	if err != nil {
		return errors.NewStore("file_store", "failed to encode records", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return errors.NewStore("file_store", "failed to write "+s.path, err)
	}

	return nil
}
