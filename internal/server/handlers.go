package server

import (
	"bytes"
	"io"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/tordrt/dbdesigner/internal/codec"
	"github.com/tordrt/dbdesigner/internal/editor"
	"github.com/tordrt/dbdesigner/internal/formatter"
	"github.com/tordrt/dbdesigner/internal/schema"
	"github.com/tordrt/dbdesigner/internal/sqlgen"
)

type selectionView struct {
	Kind           string `json:"kind"`
	TableID        string `json:"tableId,omitempty"`
	ColumnID       string `json:"columnId,omitempty"`
	RelationshipID string `json:"relationshipId,omitempty"`
}

// stateView is what every editing endpoint returns
type stateView struct {
	ID        string        `json:"id,omitempty"`
	Schema    schema.Schema `json:"schema"`
	Selection selectionView `json:"selection"`
	CanUndo   bool          `json:"canUndo"`
	CanRedo   bool          `json:"canRedo"`
	DiagramID string        `json:"diagramId,omitempty"`
}

// view must be called with s.mu held
func (s *Server) view(id string) stateView {
	state := s.session.State()
	tableID, columnID, relationshipID := editor.SelectionIDs(state.Selection)
	return stateView{
		ID:     id,
		Schema: codec.Normalize(state.Schema),
		Selection: selectionView{
			Kind:           state.Selection.Kind(),
			TableID:        tableID,
			ColumnID:       columnID,
			RelationshipID: relationshipID,
		},
		CanUndo:   s.session.CanUndo(),
		CanRedo:   s.session.CanRedo(),
		DiagramID: s.diagramID,
	}
}

// bindOptional binds a JSON body that may be left out entirely
func bindOptional(c *gin.Context, obj any) error {
	if err := c.ShouldBindJSON(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (s *Server) getSchema(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	success(c, http.StatusOK, s.view(""), "")
}

// importSchema replaces the design with a JSON or YAML document
func (s *Server) importSchema(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		fail(c, http.StatusBadRequest, err, "failed to read body")
		return
	}

	var next schema.Schema
	if strings.Contains(c.ContentType(), "yaml") {
		next, err = codec.DecodeYAML(body)
	} else {
		next, err = codec.DecodeJSON(body)
	}
	if err != nil {
		fail(c, http.StatusBadRequest, err, "invalid schema document")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.session.Import(next); err != nil {
		failWith(c, err, "failed to import schema")
		return
	}
	success(c, http.StatusOK, s.view(""), "schema imported")
}

type databasePatch struct {
	Name   *string        `json:"name"`
	Engine *schema.Engine `json:"engine"`
}

func (s *Server) updateDatabase(c *gin.Context) {
	var req databasePatch
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.session.UpdateDatabase(req.Name, req.Engine); err != nil {
		failWith(c, err, "failed to update database")
		return
	}
	success(c, http.StatusOK, s.view(""), "database updated")
}

type addTableRequest struct {
	Position schema.Position `json:"position"`
}

func (s *Server) addTable(c *gin.Context) {
	var req addTableRequest
	if err := bindOptional(c, &req); err != nil {
		fail(c, http.StatusBadRequest, err, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.session.AddTable(req.Position)
	success(c, http.StatusCreated, s.view(id), "table added")
}

// tablePatch fields left out of the body are unchanged
type tablePatch struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Position    *schema.Position `json:"position"`
}

func (p tablePatch) apply(t *schema.Table) {
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Position != nil {
		t.Position = *p.Position
	}
}

func (s *Server) updateTable(c *gin.Context) {
	var req tablePatch
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := c.Param("id")
	if err := s.session.UpdateTable(id, req.apply); err != nil {
		failWith(c, err, "failed to update table")
		return
	}
	success(c, http.StatusOK, s.view(id), "table updated")
}

func (s *Server) deleteTable(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.session.DeleteTable(c.Param("id")); err != nil {
		failWith(c, err, "failed to delete table")
		return
	}
	success(c, http.StatusOK, s.view(""), "table deleted")
}

func (s *Server) addColumn(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.session.AddColumn(c.Param("id"))
	if err != nil {
		failWith(c, err, "failed to add column")
		return
	}
	success(c, http.StatusCreated, s.view(id), "column added")
}

const defaultLength = 255

// columnPatch fields left out of the body are unchanged. Length, precision
// and scale cannot be cleared this way; changing the data type does that.
type columnPatch struct {
	Name          *string          `json:"name"`
	DataType      *schema.DataType `json:"dataType"`
	Length        *int             `json:"length"`
	Precision     *int             `json:"precision"`
	Scale         *int             `json:"scale"`
	Values        []string         `json:"values"`
	Nullable      *bool            `json:"nullable"`
	DefaultValue  *string          `json:"defaultValue"`
	AutoIncrement *bool            `json:"autoIncrement"`
	PrimaryKey    *bool            `json:"primaryKey"`
	Unique        *bool            `json:"unique"`
	Index         *bool            `json:"index"`
	Comment       *string          `json:"comment"`
}

func (p columnPatch) apply(col *schema.Column) {
	if p.Name != nil {
		col.Name = *p.Name
	}
	if p.DataType != nil && *p.DataType != col.DataType {
		col.DataType = *p.DataType
		col.Length, col.Precision, col.Scale = nil, nil, nil
		if col.DataType.UsesLength() {
			col.Length = schema.IntPtr(defaultLength)
		}
	}
	if p.Length != nil {
		col.Length = schema.IntPtr(*p.Length)
	}
	if p.Precision != nil {
		col.Precision = schema.IntPtr(*p.Precision)
	}
	if p.Scale != nil {
		col.Scale = schema.IntPtr(*p.Scale)
	}
	if p.Values != nil {
		col.Values = append([]string(nil), p.Values...)
	}
	if p.Nullable != nil {
		col.Nullable = *p.Nullable
	}
	if p.DefaultValue != nil {
		if *p.DefaultValue == "" {
			col.DefaultValue = nil
		} else {
			col.DefaultValue = schema.StringPtr(*p.DefaultValue)
		}
	}
	if p.AutoIncrement != nil {
		col.AutoIncrement = *p.AutoIncrement
	}
	if p.PrimaryKey != nil {
		col.PrimaryKey = *p.PrimaryKey
	}
	if p.Unique != nil {
		col.Unique = *p.Unique
	}
	if p.Index != nil {
		col.Index = *p.Index
	}
	if p.Comment != nil {
		col.Comment = *p.Comment
	}
}

func (s *Server) updateColumn(c *gin.Context) {
	var req columnPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err, "invalid request body")
		return
	}
	if req.DataType != nil && !req.DataType.IsKnown() {
		fail(c, http.StatusBadRequest, schema.NewValidation("unknown data type %q", *req.DataType), "failed to update column")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	columnID := c.Param("columnId")
	if err := s.session.UpdateColumn(c.Param("id"), columnID, req.apply); err != nil {
		failWith(c, err, "failed to update column")
		return
	}
	success(c, http.StatusOK, s.view(columnID), "column updated")
}

func (s *Server) deleteColumn(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.session.DeleteColumn(c.Param("id"), c.Param("columnId")); err != nil {
		failWith(c, err, "failed to delete column")
		return
	}
	success(c, http.StatusOK, s.view(""), "column deleted")
}

func (s *Server) addRelationship(c *gin.Context) {
	var req editor.Endpoints
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id, err := s.session.AddRelationship(req)
	if err != nil {
		failWith(c, err, "failed to add relationship")
		return
	}
	success(c, http.StatusCreated, s.view(id), "relationship added")
}

type relationshipPatch struct {
	Name         *string                  `json:"name"`
	Type         *schema.RelationshipType `json:"type"`
	SourceTable  *string                  `json:"sourceTable"`
	SourceColumn *string                  `json:"sourceColumn"`
	TargetTable  *string                  `json:"targetTable"`
	TargetColumn *string                  `json:"targetColumn"`
	OnDelete     *schema.CascadeAction    `json:"onDelete"`
	OnUpdate     *schema.CascadeAction    `json:"onUpdate"`
}

func (p relationshipPatch) apply(r *schema.Relationship) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&r.Name, p.Name)
	set(&r.SourceTable, p.SourceTable)
	set(&r.SourceColumn, p.SourceColumn)
	set(&r.TargetTable, p.TargetTable)
	set(&r.TargetColumn, p.TargetColumn)
	if p.Type != nil {
		r.Type = *p.Type
	}
	if p.OnDelete != nil {
		r.OnDelete = *p.OnDelete
	}
	if p.OnUpdate != nil {
		r.OnUpdate = *p.OnUpdate
	}
}

func (s *Server) updateRelationship(c *gin.Context) {
	var req relationshipPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id := c.Param("id")
	if err := s.session.UpdateRelationship(id, req.apply); err != nil {
		failWith(c, err, "failed to update relationship")
		return
	}
	success(c, http.StatusOK, s.view(id), "relationship updated")
}

func (s *Server) deleteRelationship(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.session.DeleteRelationship(c.Param("id")); err != nil {
		failWith(c, err, "failed to delete relationship")
		return
	}
	success(c, http.StatusOK, s.view(""), "relationship deleted")
}

type selectionRequest struct {
	TableID        string `json:"tableId"`
	ColumnID       string `json:"columnId"`
	RelationshipID string `json:"relationshipId"`
}

func (s *Server) setSelection(c *gin.Context) {
	var req selectionRequest
	if err := bindOptional(c, &req); err != nil {
		fail(c, http.StatusBadRequest, err, "invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.session.Select(req.TableID, req.ColumnID, req.RelationshipID); err != nil {
		failWith(c, err, "failed to select")
		return
	}
	success(c, http.StatusOK, s.view(""), "")
}

type dataTypeView struct {
	Name          schema.DataType `json:"name"`
	UsesLength    bool            `json:"usesLength"`
	UsesPrecision bool            `json:"usesPrecision"`
	AutoIncrement bool            `json:"autoIncrement"`
}

type metaView struct {
	Engines   []schema.Engine `json:"engines"`
	DataTypes []dataTypeView  `json:"dataTypes"`
}

// meta lists what the editor offers: engines and column types in display order
func (s *Server) meta(c *gin.Context) {
	types := schema.EditorTypes()
	view := metaView{Engines: schema.Engines(), DataTypes: make([]dataTypeView, len(types))}
	for i, t := range types {
		view.DataTypes[i] = dataTypeView{
			Name:          t,
			UsesLength:    t.UsesLength(),
			UsesPrecision: t.UsesPrecision(),
			AutoIncrement: t.IsIntegerFamily(),
		}
	}
	success(c, http.StatusOK, view, "")
}

func (s *Server) undo(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.session.Undo() {
		success(c, http.StatusOK, s.view(""), "nothing to undo")
		return
	}
	success(c, http.StatusOK, s.view(""), "undone")
}

func (s *Server) redo(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.session.Redo() {
		success(c, http.StatusOK, s.view(""), "nothing to redo")
		return
	}
	success(c, http.StatusOK, s.view(""), "redone")
}

// export downloads the design as sql, json, yaml, markdown, text or mermaid
func (s *Server) export(c *gin.Context) {
	s.mu.Lock()
	current := s.session.Schema()
	s.mu.Unlock()

	format := c.Param("format")
	var (
		body        []byte
		contentType string
		ext         string
		err         error
	)
	switch format {
	case "sql":
		body = []byte(sqlgen.Generate(current, sqlgen.WithClock(s.now)))
		contentType, ext = "application/sql; charset=utf-8", "sql"
	case "json":
		body, err = codec.EncodeJSON(current)
		contentType, ext = "application/json; charset=utf-8", "json"
	case "yaml":
		body, err = codec.EncodeYAML(current)
		contentType, ext = "application/yaml; charset=utf-8", "yaml"
	default:
		var buf bytes.Buffer
		f, ferr := formatter.New(format, &buf)
		if ferr != nil {
			fail(c, http.StatusBadRequest, ferr, "unsupported export format")
			return
		}
		err = f.Format(current)
		body = buf.Bytes()
		contentType = "text/plain; charset=utf-8"
		ext = map[string]string{"markdown": "md", "md": "md", "mermaid": "mmd"}[format]
		if ext == "" {
			ext = "txt"
		}
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, err, "failed to export schema")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+sqlgen.FileName(current, ext)+`"`)
	c.Data(http.StatusOK, contentType, body)
}
