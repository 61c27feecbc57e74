package editor

import (
	"github.com/cockroachdb/errors"
	"github.com/shopmonkeyus/go-common/logger"
	"github.com/tordrt/dbdesigner/internal/history"
	"github.com/tordrt/dbdesigner/internal/schema"
)

// State is what the view layer renders: the schema plus the transient selection
type State struct {
	Schema    schema.Schema
	Selection Selection
}

// Session is one editing session. It is not safe for concurrent use; callers
// that share a session between goroutines must serialize access.
type Session struct {
	state  State
	log    *history.Log[schema.Schema]
	ids    IDGenerator
	logger logger.Logger
}

// Option configures a Session
type Option func(*sessionConfig)

type sessionConfig struct {
	initial      schema.Schema
	ids          IDGenerator
	logger       logger.Logger
	historyLimit int
}

// WithInitialSchema starts the session from s instead of an empty design
func WithInitialSchema(s schema.Schema) Option {
	return func(c *sessionConfig) {
		c.initial = s
	}
}

// WithIDGenerator sets the generator used for new tables, columns and relationships
func WithIDGenerator(ids IDGenerator) Option {
	return func(c *sessionConfig) {
		c.ids = ids
	}
}

// WithLogger enables debug logging of every recorded change
func WithLogger(log logger.Logger) Option {
	return func(c *sessionConfig) {
		c.logger = log
	}
}

// WithHistoryLimit bounds the number of snapshots kept for undo
func WithHistoryLimit(n int) Option {
	return func(c *sessionConfig) {
		c.historyLimit = n
	}
}

// NewSession creates a session whose history is seeded with the initial schema,
// so the first change can be undone.
func NewSession(opts ...Option) *Session {
	cfg := sessionConfig{
		initial: schema.Default(),
		ids:     NewUUIDGenerator(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Session{
		state: State{Schema: cfg.initial, Selection: NoSelection{}},
		log:   history.New[schema.Schema](history.WithLimit(cfg.historyLimit)),
		ids:   cfg.ids,
	}
	if cfg.logger != nil {
		s.logger = cfg.logger.WithPrefix("[editor]")
	}
	s.log.Record(cfg.initial)
	return s
}

// State returns the current schema and selection
func (s *Session) State() State {
	return s.state
}

// Schema returns the current schema
func (s *Session) Schema() schema.Schema {
	return s.state.Schema
}

// Selection returns the current selection
func (s *Session) Selection() Selection {
	return s.state.Selection
}

func (s *Session) CanUndo() bool {
	return s.log.CanUndo()
}

func (s *Session) CanRedo() bool {
	return s.log.CanRedo()
}

// Undo restores the previous snapshot. It returns false when there is nothing to undo.
func (s *Session) Undo() bool {
	prev, ok := s.log.Undo()
	if !ok {
		return false
	}
	s.restore(prev)
	s.debug("undo to snapshot %d", s.log.Cursor())
	return true
}

// Redo restores the next snapshot. It returns false when there is nothing to redo.
func (s *Session) Redo() bool {
	next, ok := s.log.Redo()
	if !ok {
		return false
	}
	s.restore(next)
	s.debug("redo to snapshot %d", s.log.Cursor())
	return true
}

// AddTable adds a table at pos and returns its id
func (s *Session) AddTable(pos schema.Position) string {
	next, id := AddTable(s.state.Schema, s.ids, pos)
	s.commit(next, "add table %s", id)
	return id
}

func (s *Session) UpdateTable(id string, fn func(*schema.Table)) error {
	next, err := UpdateTable(s.state.Schema, id, fn)
	if err != nil {
		return errors.Wrap(err, "failed to update table")
	}
	s.commit(next, "update table %s", id)
	return nil
}

func (s *Session) MoveTable(id string, pos schema.Position) error {
	next, err := MoveTable(s.state.Schema, id, pos)
	if err != nil {
		return errors.Wrap(err, "failed to move table")
	}
	s.commit(next, "move table %s to %v,%v", id, pos.X, pos.Y)
	return nil
}

func (s *Session) DeleteTable(id string) error {
	next, err := DeleteTable(s.state.Schema, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete table")
	}
	s.commit(next, "delete table %s", id)
	return nil
}

// AddColumn appends a column to a table and returns its id
func (s *Session) AddColumn(tableID string) (string, error) {
	next, id, err := AddColumn(s.state.Schema, s.ids, tableID)
	if err != nil {
		return "", errors.Wrap(err, "failed to add column")
	}
	s.commit(next, "add column %s to %s", id, tableID)
	return id, nil
}

func (s *Session) UpdateColumn(tableID, columnID string, fn func(*schema.Column)) error {
	next, err := UpdateColumn(s.state.Schema, tableID, columnID, fn)
	if err != nil {
		return errors.Wrap(err, "failed to update column")
	}
	s.commit(next, "update column %s", columnID)
	return nil
}

func (s *Session) DeleteColumn(tableID, columnID string) error {
	next, err := DeleteColumn(s.state.Schema, tableID, columnID)
	if err != nil {
		return errors.Wrap(err, "failed to delete column")
	}
	s.commit(next, "delete column %s", columnID)
	return nil
}

// AddRelationship connects two columns and returns the relationship id
func (s *Session) AddRelationship(e Endpoints) (string, error) {
	next, id, err := AddRelationship(s.state.Schema, s.ids, e)
	if err != nil {
		return "", errors.Wrap(err, "failed to add relationship")
	}
	s.commit(next, "add relationship %s", id)
	return id, nil
}

func (s *Session) UpdateRelationship(id string, fn func(*schema.Relationship)) error {
	next, err := UpdateRelationship(s.state.Schema, id, fn)
	if err != nil {
		return errors.Wrap(err, "failed to update relationship")
	}
	s.commit(next, "update relationship %s", id)
	return nil
}

func (s *Session) DeleteRelationship(id string) error {
	next, err := DeleteRelationship(s.state.Schema, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete relationship")
	}
	s.commit(next, "delete relationship %s", id)
	return nil
}

// UpdateDatabase changes the database name and engine as one recorded step.
// Nothing is recorded when neither value changes.
func (s *Session) UpdateDatabase(name *string, engine *schema.Engine) error {
	next, changed, err := UpdateDatabase(s.state.Schema, name, engine)
	if err != nil {
		return errors.Wrap(err, "failed to update database")
	}
	if changed {
		s.commit(next, "update database %q (%s)", next.Database.Name, next.Database.Engine)
	}
	return nil
}

func (s *Session) SetDatabaseName(name string) {
	_ = s.UpdateDatabase(&name, nil)
}

func (s *Session) SetEngine(engine schema.Engine) error {
	return s.UpdateDatabase(nil, &engine)
}

// SetSelection replaces the selection. It is not recorded in history.
// A selection naming an id that does not exist is rejected.
func (s *Session) SetSelection(sel Selection) error {
	if sel == nil {
		sel = NoSelection{}
	}
	if !sel.Resolves(s.state.Schema) {
		t, c, r := SelectionIDs(sel)
		switch {
		case c != "":
			return schema.NewNotFound(schema.KindColumn, c)
		case t != "":
			return schema.NewNotFound(schema.KindTable, t)
		default:
			return schema.NewNotFound(schema.KindRelationship, r)
		}
	}
	s.state.Selection = sel
	return nil
}

// Select is SetSelection with the three optional ids the view layer tracks
func (s *Session) Select(tableID, columnID, relationshipID string) error {
	sel, err := Select(tableID, columnID, relationshipID)
	if err != nil {
		return err
	}
	return s.SetSelection(sel)
}

// Import replaces the whole schema after validating it. The import is
// recorded, so it can be undone, and the selection is cleared.
func (s *Session) Import(next schema.Schema) error {
	if err := schema.Validate(next); err != nil {
		return errors.Wrap(err, "failed to import schema")
	}
	s.state.Selection = NoSelection{}
	s.commit(next, "import schema %q with %d tables", next.Database.Name, len(next.Database.Tables))
	return nil
}

func (s *Session) commit(next schema.Schema, format string, args ...any) {
	s.log.Record(next)
	s.state.Schema = next
	s.dropStaleSelection()
	s.debug(format, args...)
}

func (s *Session) restore(snapshot schema.Schema) {
	s.state.Schema = snapshot
	s.dropStaleSelection()
}

func (s *Session) dropStaleSelection() {
	if s.state.Selection == nil || !s.state.Selection.Resolves(s.state.Schema) {
		s.state.Selection = NoSelection{}
	}
}

func (s *Session) debug(format string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(format, args...)
	}
}
