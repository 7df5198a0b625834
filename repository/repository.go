package repository

import (
	"encoding/json"
	"errors"
	"fmt"

	"vesting-project/db"

	"github.com/syndtr/goleveldb/leveldb"
)

var (
	ErrKeyNotFound        = errors.New("named key not found")
	ErrDictionaryNotFound = errors.New("dictionary not found")
)

const (
	namedPrefix    = "named/"
	dictMetaPrefix = "dictmeta/"
	dictItemPrefix = "dict/"
)

// StateReader is the read side of the host key-value store
type StateReader interface {
	ReadNamed(key string, out interface{}) error
	HasNamed(key string) (bool, error)
	DictionaryGet(dict, itemKey string, out interface{}) (bool, error)
}

// StateWriter stages writes against the host key-value store
type StateWriter interface {
	StateReader
	PutNamed(key string, value interface{}) error
	NewDictionary(name string) error
	DictionaryPut(dict, itemKey string, value interface{}) error
}

// It abstracts the storage layer from the contract logic
type StateRepositoryInterface interface {
	StateReader
	DictionaryKeys(dict string) ([]string, error)
	Begin() *Session
}

// StateRepository implements StateRepositoryInterface using LevelDB as the storage backend
type StateRepository struct {
	db *db.LevelDB
}

// NewStateRepository creates and returns a new StateRepository instance
func NewStateRepository(db *db.LevelDB) *StateRepository {
	return &StateRepository{db: db}
}

func namedKey(key string) []byte {
	return []byte(namedPrefix + key)
}

func dictMetaKey(name string) []byte {
	return []byte(dictMetaPrefix + name)
}

func dictItemKey(dict, itemKey string) []byte {
	return []byte(dictItemPrefix + dict + "/" + itemKey)
}

// ReadNamed decodes the value stored under a named key
func (r *StateRepository) ReadNamed(key string, out interface{}) error {
	data, err := r.db.Get(namedKey(key))
	if db.IsNotFound(err) {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// HasNamed reports whether a named key has been written
func (r *StateRepository) HasNamed(key string) (bool, error) {
	return r.db.Has(namedKey(key))
}

// DictionaryGet decodes a dictionary item; the bool is false when the item is absent
func (r *StateRepository) DictionaryGet(dict, itemKey string, out interface{}) (bool, error) {
	ok, err := r.db.Has(dictMetaKey(dict))
	if err != nil {
		return false, err
	}
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrDictionaryNotFound, dict)
	}
	data, err := r.db.Get(dictItemKey(dict, itemKey))
	if db.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(data, out)
}

// DictionaryKeys lists the committed item keys of a dictionary in byte order
func (r *StateRepository) DictionaryKeys(dict string) ([]string, error) {
	ok, err := r.db.Has(dictMetaKey(dict))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDictionaryNotFound, dict)
	}

	prefix := dictItemKey(dict, "")
	iter := r.db.NewPrefixIterator(prefix)
	defer iter.Release()

	var keys []string
	for iter.Next() {
		keys = append(keys, string(iter.Key()[len(prefix):]))
	}
	return keys, iter.Error()
}

// Begin opens a session whose writes become visible only on Commit
func (r *StateRepository) Begin() *Session {
	return &Session{
		repo:    r,
		batch:   new(leveldb.Batch),
		pending: make(map[string][]byte),
	}
}

// Session stages the writes of one invocation and commits them all at once.
// Reads observe the session's own pending writes. A session is not safe for
// concurrent use.
type Session struct {
	repo    *StateRepository
	batch   *leveldb.Batch
	pending map[string][]byte
	done    bool
}

func (s *Session) get(key []byte) ([]byte, bool, error) {
	if v, ok := s.pending[string(key)]; ok {
		return v, true, nil
	}
	v, err := s.repo.db.Get(key)
	if db.IsNotFound(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (s *Session) put(key []byte, value interface{}) error {
	if s.done {
		return errors.New("session already closed")
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.batch.Put(key, data)
	s.pending[string(key)] = data
	return nil
}

func (s *Session) ReadNamed(key string, out interface{}) error {
	data, ok, err := s.get(namedKey(key))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}
	return json.Unmarshal(data, out)
}

func (s *Session) HasNamed(key string) (bool, error) {
	_, ok, err := s.get(namedKey(key))
	return ok, err
}

func (s *Session) DictionaryGet(dict, itemKey string, out interface{}) (bool, error) {
	_, ok, err := s.get(dictMetaKey(dict))
	if err != nil {
		return false, err
	}
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrDictionaryNotFound, dict)
	}
	data, ok, err := s.get(dictItemKey(dict, itemKey))
	if err != nil || !ok {
		return false, err
	}
	return true, json.Unmarshal(data, out)
}

func (s *Session) PutNamed(key string, value interface{}) error {
	return s.put(namedKey(key), value)
}

// NewDictionary creates the dictionary if it does not exist yet
func (s *Session) NewDictionary(name string) error {
	_, ok, err := s.get(dictMetaKey(name))
	if err != nil || ok {
		return err
	}
	return s.put(dictMetaKey(name), name)
}

func (s *Session) DictionaryPut(dict, itemKey string, value interface{}) error {
	_, ok, err := s.get(dictMetaKey(dict))
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrDictionaryNotFound, dict)
	}
	return s.put(dictItemKey(dict, itemKey), value)
}

// Commit writes every staged change atomically
func (s *Session) Commit() error {
	if s.done {
		return errors.New("session already closed")
	}
	s.done = true
	if s.batch.Len() == 0 {
		return nil
	}
	return s.repo.db.Write(s.batch)
}

// Discard drops the staged changes
func (s *Session) Discard() {
	s.done = true
	s.batch.Reset()
	s.pending = nil
}

// IsDictionaryNotFound reports whether err means the dictionary was never created
func IsDictionaryNotFound(err error) bool {
	return errors.Is(err, ErrDictionaryNotFound)
}
