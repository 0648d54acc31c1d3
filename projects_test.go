package main

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitrender/store"
)

func decodeProject(t *testing.T, body []byte) store.Project {
	t.Helper()
	var p store.Project
	require.NoError(t, json.Unmarshal(body, &p))
	return p
}

func TestProjectsAPI(t *testing.T) {
	ts := newTestServer(t)

	// given a saved draft
	w := ts.do(http.MethodPost, "/projects", `{"customization": {"baseColor": "#FF0000", "pattern": "gradient", "playerName": "zico"}}`, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	draft := decodeProject(t, w.Body.Bytes())
	assert.Equal(t, store.StatusDraft, draft.Status)
	assert.Equal(t, "shirt", draft.CurrentView)
	assert.Equal(t, "#ff0000", draft.Customization.BaseColor)
	assert.Equal(t, "ZICO", draft.Customization.PlayerName)
	assert.Contains(t, draft.Name, "Project ")

	t.Run("should send a design", func(t *testing.T) {
		w := ts.do(http.MethodPost, "/projects/send", `{"name": "Ana", "email": "ana@example.com", "phone": "555-0101", "customization": {"baseColor": "#00ff00"}}`, nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		p := decodeProject(t, w.Body.Bytes())
		assert.Equal(t, store.StatusSent, p.Status)
		assert.Contains(t, p.Name, "Project for Ana - ")
	})
	t.Run("should reject an incomplete send", func(t *testing.T) {
		w := ts.do(http.MethodPost, "/projects/send", `{"name": "Ana", "customization": {"baseColor": "#00ff00"}}`, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
	t.Run("should get a project", func(t *testing.T) {
		w := ts.do(http.MethodGet, "/projects/"+draft.ID, "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, draft.ID, decodeProject(t, w.Body.Bytes()).ID)
	})
	t.Run("should update a project", func(t *testing.T) {
		w := ts.do(http.MethodPut, "/projects/"+draft.ID, `{"status": "in_progress", "current_view": "socks"}`, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		p := decodeProject(t, w.Body.Bytes())
		assert.Equal(t, store.StatusInProgress, p.Status)
		assert.Equal(t, "socks", p.CurrentView)
	})
	t.Run("should reject an invalid update", func(t *testing.T) {
		w := ts.do(http.MethodPut, "/projects/"+draft.ID, `{"status": "archived"}`, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		w = ts.do(http.MethodPut, "/projects/"+draft.ID, `{"customization": {"baseColor": "nope"}}`, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
	t.Run("should list and filter projects", func(t *testing.T) {
		w := ts.do(http.MethodGet, "/projects", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var all []store.Project
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &all))
		assert.Len(t, all, 2)

		w = ts.do(http.MethodGet, "/projects?status=sent", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var sent []store.Project
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sent))
		require.Len(t, sent, 1)
		assert.Equal(t, "Ana", sent[0].CustomerName)

		w = ts.do(http.MethodGet, "/projects?status=lost", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
	t.Run("should count projects per status", func(t *testing.T) {
		w := ts.do(http.MethodGet, "/projects/stats", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"totalProjects":2,"draftProjects":0,"sentProjects":1,"inProgressProjects":1,"completedProjects":0}`, w.Body.String())
	})
	t.Run("should delete a project", func(t *testing.T) {
		w := ts.do(http.MethodDelete, "/projects/"+draft.ID, "", nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
		w = ts.do(http.MethodGet, "/projects/"+draft.ID, "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
	t.Run("should reject unknown routes", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/projects/a/b", "", nil).Code)
		assert.Equal(t, http.StatusMethodNotAllowed, ts.do(http.MethodPatch, "/projects", "", nil).Code)
	})
}
