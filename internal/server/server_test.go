package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopmonkeyus/go-common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tordrt/dbdesigner/internal/codec"
	"github.com/tordrt/dbdesigner/internal/editor"
	"github.com/tordrt/dbdesigner/internal/schema"
	"github.com/tordrt/dbdesigner/internal/store"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func fixedClock() time.Time {
	return time.Date(2024, 3, 9, 12, 30, 45, 0, time.UTC)
}

func newServer(t *testing.T, st *store.Store) *Server {
	t.Helper()
	session := editor.NewSession(editor.WithIDGenerator(editor.NewSequenceGenerator()))
	return New(Config{Logger: logger.NewTestLogger(), Session: session, Store: st, Now: fixedClock})
}

func request(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		buf, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func decodeState(t *testing.T, w *httptest.ResponseRecorder) stateView {
	t.Helper()
	env := decode(t, w)
	require.Equal(t, "success", env.Status, env.Error)
	var view stateView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	return view
}

func TestHealth(t *testing.T) {
	s := newServer(t, nil)
	w := request(t, s, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestMeta(t *testing.T) {
	s := newServer(t, nil)
	w := request(t, s, http.MethodGet, "/api/v1/meta", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var meta metaView
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &meta))
	assert.Equal(t, []schema.Engine{schema.EngineMySQL, schema.EnginePostgreSQL, schema.EngineSQLServer}, meta.Engines)
	require.Len(t, meta.DataTypes, 20)
	assert.Equal(t, dataTypeView{Name: schema.Varchar, UsesLength: true}, meta.DataTypes[0])
	for _, dt := range meta.DataTypes {
		if dt.Name == schema.Enum {
			t.Errorf("Expected ENUM to be left out of the editor types")
		}
		if dt.Name == schema.Decimal && !dt.UsesPrecision {
			t.Errorf("Expected DECIMAL to use precision")
		}
		if dt.Name == schema.BigInt && !dt.AutoIncrement {
			t.Errorf("Expected BIGINT to allow auto increment")
		}
	}
}

func TestAddTableUndoRedo(t *testing.T) {
	s := newServer(t, nil)

	w := request(t, s, http.MethodPost, "/api/v1/tables", map[string]any{"position": map[string]any{"x": 100, "y": 50}})
	require.Equal(t, http.StatusCreated, w.Code)
	view := decodeState(t, w)
	assert.Equal(t, "table_1", view.ID)
	require.Len(t, view.Schema.Database.Tables, 1)
	assert.Equal(t, schema.Position{X: 100, Y: 50}, view.Schema.Database.Tables[0].Position)
	assert.True(t, view.CanUndo)
	assert.False(t, view.CanRedo)

	view = decodeState(t, request(t, s, http.MethodPost, "/api/v1/undo", nil))
	assert.Empty(t, view.Schema.Database.Tables)
	assert.False(t, view.CanUndo)
	assert.True(t, view.CanRedo)

	view = decodeState(t, request(t, s, http.MethodPost, "/api/v1/redo", nil))
	assert.Len(t, view.Schema.Database.Tables, 1)

	env := decode(t, request(t, s, http.MethodPost, "/api/v1/redo", nil))
	assert.Equal(t, "nothing to redo", env.Message)
}

func TestAddTableWithoutBody(t *testing.T) {
	s := newServer(t, nil)
	w := request(t, s, http.MethodPost, "/api/v1/tables", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	view := decodeState(t, w)
	assert.Equal(t, schema.Position{}, view.Schema.Database.Tables[0].Position)
}

func TestErrorStatuses(t *testing.T) {
	s := newServer(t, nil)
	decodeState(t, request(t, s, http.MethodPost, "/api/v1/tables", nil))
	view := decodeState(t, request(t, s, http.MethodPost, "/api/v1/tables/table_1/columns", nil))
	columnID := view.ID

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"missing table", http.MethodPatch, "/api/v1/tables/nope", map[string]any{"name": "x"}, http.StatusNotFound},
		{"missing column", http.MethodDelete, "/api/v1/tables/table_1/columns/nope", nil, http.StatusNotFound},
		{"duplicate column name", http.MethodPatch, "/api/v1/tables/table_1/columns/" + columnID, map[string]any{"name": "id"}, http.StatusConflict},
		{"unknown data type", http.MethodPatch, "/api/v1/tables/table_1/columns/" + columnID, map[string]any{"dataType": "NOPE"}, http.StatusBadRequest},
		{"incomplete relationship", http.MethodPost, "/api/v1/relationships", map[string]any{"sourceTable": "table_1"}, http.StatusBadRequest},
		{"unknown engine", http.MethodPatch, "/api/v1/database", map[string]any{"engine": "oracle"}, http.StatusBadRequest},
		{"ambiguous selection", http.MethodPut, "/api/v1/selection", map[string]any{"tableId": "table_1", "relationshipId": "rel_1"}, http.StatusBadRequest},
		{"column without table", http.MethodPut, "/api/v1/selection", map[string]any{"columnId": columnID}, http.StatusBadRequest},
		{"malformed body", http.MethodPatch, "/api/v1/tables/table_1", "{", http.StatusBadRequest},
		{"unsupported export", http.MethodGet, "/api/v1/export/pdf", nil, http.StatusBadRequest},
		{"diagrams disabled", http.MethodGet, "/api/v1/diagrams", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := request(t, s, tt.method, tt.path, tt.body)
			if w.Code != tt.status {
				t.Errorf("Expected status %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
		})
	}
}

func TestUpdateColumn(t *testing.T) {
	s := newServer(t, nil)
	decodeState(t, request(t, s, http.MethodPost, "/api/v1/tables", nil))
	view := decodeState(t, request(t, s, http.MethodPost, "/api/v1/tables/table_1/columns", nil))
	columnID := view.ID

	view = decodeState(t, request(t, s, http.MethodPatch, "/api/v1/tables/table_1/columns/"+columnID, map[string]any{
		"name":         "price",
		"dataType":     "DECIMAL",
		"precision":    10,
		"scale":        2,
		"nullable":     false,
		"defaultValue": "0",
	}))

	col, ok := view.Schema.FindColumn("table_1", columnID)
	require.True(t, ok)
	assert.Equal(t, "price", col.Name)
	assert.Equal(t, schema.Decimal, col.DataType)
	assert.Nil(t, col.Length)
	assert.Equal(t, 10, *col.Precision)
	assert.Equal(t, 2, *col.Scale)
	assert.False(t, col.Nullable)
	assert.Equal(t, "0", *col.DefaultValue)

	view = decodeState(t, request(t, s, http.MethodPatch, "/api/v1/tables/table_1/columns/"+columnID, map[string]any{"dataType": "CHAR"}))
	col, _ = view.Schema.FindColumn("table_1", columnID)
	assert.Equal(t, 255, *col.Length)
	assert.Nil(t, col.Precision)
}

func TestRelationshipsAndSelection(t *testing.T) {
	s := newServer(t, nil)
	decodeState(t, request(t, s, http.MethodPost, "/api/v1/tables", nil))
	view := decodeState(t, request(t, s, http.MethodPost, "/api/v1/tables", map[string]any{"position": map[string]any{"x": 300}}))
	source := view.Schema.Database.Tables[0]
	target := view.Schema.Database.Tables[1]

	w := request(t, s, http.MethodPost, "/api/v1/relationships", editor.Endpoints{
		SourceTable:  source.ID,
		SourceColumn: source.Columns[0].ID,
		TargetTable:  target.ID,
		TargetColumn: target.Columns[0].ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	view = decodeState(t, w)
	relID := view.ID
	require.Len(t, view.Schema.Database.Relationships, 1)

	view = decodeState(t, request(t, s, http.MethodPatch, "/api/v1/relationships/"+relID, map[string]any{"onDelete": "SET_NULL", "type": "ONE_TO_ONE"}))
	assert.Equal(t, schema.SetNull, view.Schema.Database.Relationships[0].OnDelete)
	assert.Equal(t, schema.Cascade, view.Schema.Database.Relationships[0].OnUpdate)
	assert.Equal(t, schema.OneToOne, view.Schema.Database.Relationships[0].Type)

	view = decodeState(t, request(t, s, http.MethodPut, "/api/v1/selection", map[string]any{"relationshipId": relID}))
	assert.Equal(t, selectionView{Kind: "relationship", RelationshipID: relID}, view.Selection)

	view = decodeState(t, request(t, s, http.MethodDelete, "/api/v1/tables/"+target.ID, nil))
	assert.Empty(t, view.Schema.Database.Relationships)
	assert.Equal(t, "none", view.Selection.Kind, "selection of a removed relationship is cleared")

	w = request(t, s, http.MethodPut, "/api/v1/selection", map[string]any{"tableId": target.ID})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateDatabase(t *testing.T) {
	s := newServer(t, nil)
	view := decodeState(t, request(t, s, http.MethodPatch, "/api/v1/database", map[string]any{"name": "shop", "engine": "postgresql"}))
	assert.Equal(t, "shop", view.Schema.Database.Name)
	assert.Equal(t, schema.EnginePostgreSQL, view.Schema.Database.Engine)
	assert.True(t, view.CanUndo)

	view = decodeState(t, request(t, s, http.MethodPost, "/api/v1/undo", nil))
	assert.Equal(t, schema.DefaultDatabaseName, view.Schema.Database.Name)
	assert.Equal(t, schema.EngineMySQL, view.Schema.Database.Engine)
	assert.False(t, view.CanUndo, "one patch is one history step")

	view = decodeState(t, request(t, s, http.MethodPatch, "/api/v1/database", map[string]any{"name": schema.DefaultDatabaseName}))
	assert.False(t, view.CanUndo, "an unchanged name is not recorded")
}

func TestExport(t *testing.T) {
	s := newServer(t, nil)
	decodeState(t, request(t, s, http.MethodPost, "/api/v1/tables", nil))

	w := request(t, s, http.MethodGet, "/api/v1/export/sql", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="New_Database_schema.sql"`, w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "-- Database: New Database\n-- Engine: MYSQL\n-- Generated at: 2024-03-09T12:30:45.000Z\n"))
	assert.Contains(t, w.Body.String(), "CREATE TABLE table_1 (")

	w = request(t, s, http.MethodGet, "/api/v1/export/json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decoded, err := codec.DecodeJSON(w.Body.Bytes())
	require.NoError(t, err)
	assert.Len(t, decoded.Database.Tables, 1)

	w = request(t, s, http.MethodGet, "/api/v1/export/mermaid", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "erDiagram")
	assert.Equal(t, `attachment; filename="New_Database_schema.mmd"`, w.Header().Get("Content-Disposition"))
}

func TestImportSchema(t *testing.T) {
	s := newServer(t, nil)

	other := editor.NewSession(editor.WithIDGenerator(editor.NewSequenceGenerator()))
	other.SetDatabaseName("imported")
	other.AddTable(schema.Position{})
	doc, err := codec.EncodeJSON(other.Schema())
	require.NoError(t, err)

	view := decodeState(t, request(t, s, http.MethodPut, "/api/v1/schema", string(doc)))
	assert.Equal(t, "imported", view.Schema.Database.Name)
	assert.True(t, view.CanUndo)

	w := request(t, s, http.MethodPut, "/api/v1/schema", `{"database":{"name":"x"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "error", decode(t, w).Status)

	view = decodeState(t, request(t, s, http.MethodGet, "/api/v1/schema", nil))
	assert.Equal(t, "imported", view.Schema.Database.Name, "a rejected import leaves the design alone")
}

func TestDiagrams(t *testing.T) {
	st, err := store.Open(store.Config{Logger: logger.NewTestLogger()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	s := newServer(t, st)

	w := request(t, s, http.MethodPost, "/api/v1/diagrams", map[string]any{"name": "shop"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created store.Diagram
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &created))
	assert.Equal(t, "shop", created.Name)
	assert.Equal(t, 0, created.TableCount)

	decodeState(t, request(t, s, http.MethodPost, "/api/v1/tables", nil))
	env := decode(t, request(t, s, http.MethodPut, "/api/v1/diagrams/"+created.ID, nil))
	assert.Equal(t, "diagram saved", env.Message)
	env = decode(t, request(t, s, http.MethodPut, "/api/v1/diagrams/"+created.ID, nil))
	assert.Equal(t, "no changes", env.Message)

	decodeState(t, request(t, s, http.MethodDelete, "/api/v1/tables/table_1", nil))
	view := decodeState(t, request(t, s, http.MethodPost, "/api/v1/diagrams/"+created.ID+"/open", nil))
	assert.Len(t, view.Schema.Database.Tables, 1)
	assert.Equal(t, created.ID, view.DiagramID)

	w = request(t, s, http.MethodPut, "/api/v1/diagrams/"+created.ID+"/star", map[string]any{"starred": true})
	require.Equal(t, http.StatusOK, w.Code)

	var list []store.Diagram
	require.NoError(t, json.Unmarshal(decode(t, request(t, s, http.MethodGet, "/api/v1/diagrams", nil)).Data, &list))
	require.Len(t, list, 1)
	assert.True(t, list[0].Starred)

	assert.Equal(t, http.StatusOK, request(t, s, http.MethodDelete, "/api/v1/diagrams/"+created.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, request(t, s, http.MethodDelete, "/api/v1/diagrams/"+created.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, request(t, s, http.MethodPost, "/api/v1/diagrams/missing/open", nil).Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newServer(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/tables", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
