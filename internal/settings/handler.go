package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/HerbHall/startpage/pkg/tokens"
)

// maxDocumentBytes bounds settings request bodies.
const maxDocumentBytes = 1 << 20

// ProblemDetail is an RFC 7807 error response.
// @Description RFC 7807 Problem Details error response.
type ProblemDetail struct {
	Type   string `json:"type" example:"https://startpage.dev/problems/settings-error"`
	Title  string `json:"title" example:"Bad Request"`
	Status int    `json:"status" example:"400"`
	Detail string `json:"detail" example:"theme.colors.primary: \"blue\" is not a hex color"`
}

// handleGet returns the settings document.
//
//	@Summary		Get settings
//	@Tags			settings
//	@Produce		json
//	@Success		200	{object}	tokens.Settings
//	@Router			/settings [get]
func (m *Module) handleGet(w http.ResponseWriter, _ *http.Request) {
	doc := m.store.Current()
	w.Header().Set("ETag", etag(doc.Revision))
	writeJSON(w, http.StatusOK, doc)
}

// handlePut replaces the settings document. Absent fields take their
// defaults. An If-Match header must name the current revision.
//
//	@Summary		Replace settings
//	@Tags			settings
//	@Accept			json
//	@Produce		json
//	@Param			request	body		tokens.Settings	true	"Settings document"
//	@Success		200		{object}	tokens.Settings
//	@Failure		400		{object}	ProblemDetail
//	@Failure		412		{object}	ProblemDetail
//	@Router			/settings [put]
func (m *Module) handlePut(w http.ResponseWriter, r *http.Request) {
	if match := r.Header.Get("If-Match"); match != "" && match != etag(m.store.Revision()) {
		writeError(w, http.StatusPreconditionFailed, "settings changed since they were read")
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "settings document too large")
		return
	}
	doc, err := tokens.DecodeSettings(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	m.save(w, r, doc)
}

// handleExport downloads the settings document.
//
//	@Summary		Export settings
//	@Tags			settings
//	@Produce		json,application/yaml
//	@Param			format	query	string	false	"json (default) or yaml"
//	@Success		200
//	@Failure		400	{object}	ProblemDetail
//	@Router			/settings/export [get]
func (m *Module) handleExport(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	data, err := Export(m.store.Current(), f)
	if err != nil {
		m.logger.Error("failed to export settings", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to export settings")
		return
	}
	w.Header().Set("Content-Type", f.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="startpage-settings.%s"`, f))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleImport replaces the settings document with an uploaded export.
//
//	@Summary		Import settings
//	@Tags			settings
//	@Accept			json,application/yaml
//	@Produce		json
//	@Param			format	query		string	false	"json (default) or yaml"
//	@Success		200		{object}	tokens.Settings
//	@Failure		400		{object}	ProblemDetail
//	@Router			/settings/import [post]
func (m *Module) handleImport(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "settings document too large")
		return
	}
	doc, err := Import(data, f)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	m.save(w, r, doc)
}

func (m *Module) save(w http.ResponseWriter, r *http.Request, doc tokens.Settings) {
	saved, err := m.store.Save(r.Context(), doc)
	if err != nil {
		if errors.Is(err, ErrInvalidSettings) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		m.logger.Error("failed to save settings", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}
	w.Header().Set("ETag", etag(saved.Revision))
	writeJSON(w, http.StatusOK, saved)
}

func etag(revision uint64) string {
	return `"` + strconv.FormatUint(revision, 10) + `"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an RFC 7807 problem response.
func writeError(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ProblemDetail{
		Type:   "https://startpage.dev/problems/settings-error",
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}
