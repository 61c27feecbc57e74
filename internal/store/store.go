// Package store keeps a local library of saved diagrams in a buntdb file.
// Records are msgpack encoded; the design itself is stored as its JSON
// document so it is validated again on the way out.
package store

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/shopmonkeyus/go-common/logger"
	"github.com/tidwall/buntdb"
	"github.com/tordrt/dbdesigner/internal/codec"
	"github.com/tordrt/dbdesigner/internal/schema"
	"github.com/vmihailenco/msgpack/v5"
)

const keyPrefix = "diagram:"

// Diagram is a saved design plus the metadata shown in the library
type Diagram struct {
	ID                string        `json:"id" msgpack:"id"`
	Name              string        `json:"name" msgpack:"name"`
	Description       string        `json:"description,omitempty" msgpack:"description,omitempty"`
	Engine            schema.Engine `json:"engine" msgpack:"engine"`
	TableCount        int           `json:"tableCount" msgpack:"tableCount"`
	RelationshipCount int           `json:"relationshipCount" msgpack:"relationshipCount"`
	Starred           bool          `json:"starred" msgpack:"starred"`
	CreatedAt         time.Time     `json:"createdAt" msgpack:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt" msgpack:"updatedAt"`
	Fingerprint       string        `json:"fingerprint" msgpack:"fingerprint"`

	// Schema is only populated by Get
	Schema *schema.Schema `json:"schema,omitempty" msgpack:"-"`
}

type record struct {
	Diagram  Diagram `msgpack:"diagram"`
	Document []byte  `msgpack:"document"`
}

// Config configures a Store
type Config struct {
	Logger logger.Logger
	// Dir holds the database file. Empty keeps everything in memory.
	Dir string
	// Now defaults to time.Now
	Now func() time.Time
}

// Store is the diagram library
type Store struct {
	logger logger.Logger
	db     *buntdb.DB
	now    func() time.Time
	once   sync.Once
}

// FilenameFromDir returns the database file used for a directory
func FilenameFromDir(dir string) string {
	return filepath.Join(dir, "dbdesigner-diagrams.db")
}

// Open opens or creates the library
func Open(config Config) (*Store, error) {
	path := ":memory:"
	if config.Dir != "" {
		path = FilenameFromDir(config.Dir)
	}

	db, err := buntdb.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open db")
	}

	var dbcfg buntdb.Config
	if err := db.ReadConfig(&dbcfg); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to read db config")
	}
	dbcfg.SyncPolicy = buntdb.EverySecond
	if err := db.SetConfig(dbcfg); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to set db config")
	}

	s := &Store{db: db, now: config.Now}
	if s.now == nil {
		s.now = time.Now
	}
	if config.Logger != nil {
		s.logger = config.Logger.WithPrefix("[store]")
	}
	return s, nil
}

// Close flushes and closes the database
func (s *Store) Close() error {
	var err error
	s.once.Do(func() {
		s.debug("closing")
		_ = s.db.Shrink()
		err = s.db.Close()
	})
	return err
}

// Create saves a new diagram and returns it without its schema
func (s *Store) Create(name, description string, design schema.Schema) (Diagram, error) {
	doc, err := codec.EncodeJSON(design)
	if err != nil {
		return Diagram{}, errors.Wrap(err, "failed to encode schema")
	}
	now := s.now().UTC()
	rec := record{
		Diagram: Diagram{
			ID:          uuid.NewString(),
			Name:        name,
			Description: description,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		Document: doc,
	}
	if rec.Diagram.Name == "" {
		rec.Diagram.Name = design.Database.Name
	}
	summarize(&rec.Diagram, design, doc)

	if err := s.db.Update(func(tx *buntdb.Tx) error {
		return put(tx, rec)
	}); err != nil {
		return Diagram{}, errors.Wrap(err, "failed to create diagram")
	}
	s.debug("created diagram %s (%s)", rec.Diagram.ID, rec.Diagram.Name)
	return rec.Diagram, nil
}

// Get returns a diagram including its schema
func (s *Store) Get(id string) (Diagram, error) {
	var rec record
	if err := s.db.View(func(tx *buntdb.Tx) error {
		var err error
		rec, err = get(tx, id)
		return err
	}); err != nil {
		return Diagram{}, err
	}
	design, err := codec.DecodeJSON(rec.Document)
	if err != nil {
		return Diagram{}, errors.Wrapf(err, "failed to decode diagram %s", id)
	}
	rec.Diagram.Schema = &design
	return rec.Diagram, nil
}

// List returns every diagram, starred first and then most recently updated
func (s *Store) List() ([]Diagram, error) {
	diagrams := []Diagram{}
	err := s.db.View(func(tx *buntdb.Tx) error {
		var decodeErr error
		err := tx.AscendKeys(keyPrefix+"*", func(key, value string) bool {
			var rec record
			if err := msgpack.Unmarshal([]byte(value), &rec); err != nil {
				decodeErr = errors.Wrapf(err, "failed to decode %s", key)
				return false
			}
			diagrams = append(diagrams, normalizeTimes(rec).Diagram)
			return true
		})
		if err != nil {
			return err
		}
		return decodeErr
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list diagrams")
	}
	sort.SliceStable(diagrams, func(i, j int) bool {
		if diagrams[i].Starred != diagrams[j].Starred {
			return diagrams[i].Starred
		}
		if !diagrams[i].UpdatedAt.Equal(diagrams[j].UpdatedAt) {
			return diagrams[i].UpdatedAt.After(diagrams[j].UpdatedAt)
		}
		return strings.Compare(diagrams[i].ID, diagrams[j].ID) < 0
	})
	return diagrams, nil
}

// SaveSchema replaces a diagram's schema. A schema whose JSON document is
// unchanged is not written; the returned bool reports whether a write happened.
func (s *Store) SaveSchema(id string, design schema.Schema) (Diagram, bool, error) {
	doc, err := codec.EncodeJSON(design)
	if err != nil {
		return Diagram{}, false, errors.Wrap(err, "failed to encode schema")
	}
	fingerprint := Fingerprint(doc)

	var saved Diagram
	var changed bool
	err = s.db.Update(func(tx *buntdb.Tx) error {
		rec, err := get(tx, id)
		if err != nil {
			return err
		}
		if rec.Diagram.Fingerprint == fingerprint {
			saved = rec.Diagram
			return nil
		}
		rec.Document = doc
		rec.Diagram.UpdatedAt = s.now().UTC()
		summarize(&rec.Diagram, design, doc)
		saved, changed = rec.Diagram, true
		return put(tx, rec)
	})
	if err != nil {
		return Diagram{}, false, errors.Wrapf(err, "failed to save diagram %s", id)
	}
	if changed {
		s.debug("saved diagram %s, fingerprint %s", id, fingerprint)
	} else {
		s.debug("diagram %s unchanged", id)
	}
	return saved, changed, nil
}

// SetStarred marks a diagram as a favourite
func (s *Store) SetStarred(id string, starred bool) error {
	err := s.db.Update(func(tx *buntdb.Tx) error {
		rec, err := get(tx, id)
		if err != nil {
			return err
		}
		rec.Diagram.Starred = starred
		return put(tx, rec)
	})
	if err != nil {
		return errors.Wrapf(err, "failed to star diagram %s", id)
	}
	return nil
}

// Delete removes a diagram
func (s *Store) Delete(id string) error {
	err := s.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(keyPrefix + id)
		if err == buntdb.ErrNotFound {
			return schema.NewNotFound(schema.KindDiagram, id)
		}
		return err
	})
	if err != nil {
		return errors.Wrapf(err, "failed to delete diagram %s", id)
	}
	s.debug("deleted diagram %s", id)
	return nil
}

// Fingerprint is the xxhash of a JSON document
func Fingerprint(doc []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(doc))
}

func summarize(d *Diagram, design schema.Schema, doc []byte) {
	d.Engine = design.Database.Engine
	d.TableCount = len(design.Database.Tables)
	d.RelationshipCount = len(design.Database.Relationships)
	d.Fingerprint = Fingerprint(doc)
}

func get(tx *buntdb.Tx, id string) (record, error) {
	val, err := tx.Get(keyPrefix+id, false)
	if err != nil {
		if err == buntdb.ErrNotFound {
			return record{}, schema.NewNotFound(schema.KindDiagram, id)
		}
		return record{}, err
	}
	var rec record
	if err := msgpack.Unmarshal([]byte(val), &rec); err != nil {
		return record{}, errors.Wrapf(err, "failed to decode diagram %s", id)
	}
	return normalizeTimes(rec), nil
}

func put(tx *buntdb.Tx, rec record) error {
	buf, err := msgpack.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "failed to encode diagram")
	}
	_, _, err = tx.Set(keyPrefix+rec.Diagram.ID, string(buf), nil)
	return err
}

// msgpack decodes timestamps in the local zone
func normalizeTimes(rec record) record {
	rec.Diagram.CreatedAt = rec.Diagram.CreatedAt.UTC()
	rec.Diagram.UpdatedAt = rec.Diagram.UpdatedAt.UTC()
	return rec
}

func (s *Store) debug(format string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(format, args...)
	}
}
