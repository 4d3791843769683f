package workspace

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/HerbHall/startpage/pkg/models"
)

// NameRequest is the body of create and rename.
type NameRequest struct {
	Name string `json:"name" example:"Side Project"`
}

// OrderRequest is the body of a reorder.
type OrderRequest struct {
	IDs []string `json:"ids"`
}

// handleList returns workspaces by position.
//
//	@Summary	List workspaces
//	@Tags		workspaces
//	@Produce	json
//	@Success	200	{array}	Workspace
//	@Router		/workspaces [get]
func (m *Module) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := m.store.List(r.Context())
	if err != nil {
		m.logger.Error("failed to list workspaces", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list workspaces")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleGet returns one workspace.
//
//	@Summary	Get workspace
//	@Tags		workspaces
//	@Produce	json
//	@Param		id	path		string	true	"Workspace ID"
//	@Success	200	{object}	Workspace
//	@Failure	404	{object}	models.APIProblem
//	@Router		/workspaces/{id} [get]
func (m *Module) handleGet(w http.ResponseWriter, r *http.Request) {
	ws, err := m.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		m.writeStoreError(w, err, "failed to get workspace")
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

// handleCreate adds a workspace at the end of the list.
//
//	@Summary	Create workspace
//	@Tags		workspaces
//	@Accept		json
//	@Produce	json
//	@Param		request	body		NameRequest	true	"Workspace name"
//	@Success	201		{object}	Workspace
//	@Failure	400		{object}	models.APIProblem
//	@Router		/workspaces [post]
func (m *Module) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ws, err := m.store.Create(r.Context(), req.Name)
	if err != nil {
		m.writeStoreError(w, err, "failed to create workspace")
		return
	}
	writeJSON(w, http.StatusCreated, ws)
}

// handleRename renames a workspace.
//
//	@Summary	Rename workspace
//	@Tags		workspaces
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string		true	"Workspace ID"
//	@Param		request	body		NameRequest	true	"New name"
//	@Success	200		{object}	Workspace
//	@Failure	400		{object}	models.APIProblem
//	@Failure	404		{object}	models.APIProblem
//	@Router		/workspaces/{id} [put]
func (m *Module) handleRename(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	ws, err := m.store.Rename(r.Context(), r.PathValue("id"), req.Name)
	if err != nil {
		m.writeStoreError(w, err, "failed to rename workspace")
		return
	}
	writeJSON(w, http.StatusOK, ws)
}

// handleDelete removes a workspace. Its per-workspace theme settings are
// cleaned up by the theme module.
//
//	@Summary	Delete workspace
//	@Tags		workspaces
//	@Param		id	path	string	true	"Workspace ID"
//	@Success	204
//	@Failure	404	{object}	models.APIProblem
//	@Router		/workspaces/{id} [delete]
func (m *Module) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := m.store.Delete(r.Context(), r.PathValue("id")); err != nil {
		m.writeStoreError(w, err, "failed to delete workspace")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleReorder sets the workspace order.
//
//	@Summary	Reorder workspaces
//	@Tags		workspaces
//	@Accept		json
//	@Produce	json
//	@Param		request	body		OrderRequest	true	"Every workspace id in the new order"
//	@Success	200		{array}		Workspace
//	@Failure	400		{object}	models.APIProblem
//	@Router		/workspaces/order [put]
func (m *Module) handleReorder(w http.ResponseWriter, r *http.Request) {
	var req OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	list, err := m.store.Reorder(r.Context(), req.IDs)
	if err != nil {
		m.writeStoreError(w, err, "failed to reorder workspaces")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (m *Module) writeStoreError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidName), errors.Is(err, ErrInvalidOrder):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		m.logger.Error(msg, zap.Error(err))
		writeError(w, http.StatusInternalServerError, msg)
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an RFC 7807 problem detail response.
func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.APIProblem{
		Type:   "https://startpage.dev/problems/workspace-error",
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}
