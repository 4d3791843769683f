package theme

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/HerbHall/startpage/pkg/models"
	"github.com/HerbHall/startpage/pkg/tokens"
)

// baseWorkspace is the path segment that addresses the base page's header
// mode.
const baseWorkspace = "base"

// HeaderModeRequest is the body of a header mode change.
type HeaderModeRequest struct {
	Mode string `json:"mode" example:"accent"`
}

// HeaderModeResponse reports the effective header mode of a workspace.
type HeaderModeResponse struct {
	WorkspaceID string                 `json:"workspaceId"`
	Mode        tokens.HeaderColorMode `json:"mode" example:"text"`
}

// handleTokens resolves the tokens for a path and workspace.
//
//	@Summary		Resolve tokens
//	@Description	Resolves font, text, accent, glow and header colors. Without a workspace the default path uses the last workspace resolved on a workspace path.
//	@Tags			theme
//	@Produce		json
//	@Param			path				query		string	false	"Current URL path"	default(/)
//	@Param			workspace			query		string	false	"Workspace ID"
//	@Param			force				query		bool	false	"Skip the URL gate"
//	@Param			unchangeable_font	query		bool	false	"Pin the base font"
//	@Param			unchangeable_text	query		bool	false	"Pin the base text color"
//	@Param			exclude_background	query		bool	false	"Passed through in _meta"
//	@Success		200					{object}	tokens.Tokens
//	@Failure		400					{object}	models.APIProblem
//	@Router			/theme/tokens [get]
func (m *Module) handleTokens(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var opts tokens.Options
	for name, dst := range map[string]*bool{
		"force":              &opts.ForceWorkspaceTheming,
		"unchangeable_font":  &opts.UnchangeableFont,
		"unchangeable_text":  &opts.UnchangeableTextColor,
		"exclude_background": &opts.ExcludeBackground,
	} {
		v, err := queryBool(q.Get(name))
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%s: %v", name, err))
			return
		}
		*dst = v
	}
	writeJSON(w, http.StatusOK, m.service.Tokens(q.Get("path"), q.Get("workspace"), opts))
}

// handleUnchangeable resolves tokens that ignore workspace theming.
//
//	@Summary	Resolve unchangeable tokens
//	@Tags		theme
//	@Produce	json
//	@Param		path	query		string	false	"Current URL path"	default(/)
//	@Success	200		{object}	tokens.Tokens
//	@Router		/theme/tokens/unchangeable [get]
func (m *Module) handleUnchangeable(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, m.service.Unchangeable(r.URL.Query().Get("path")))
}

// handleWidget resolves tokens for a widget of a workspace.
//
//	@Summary	Resolve widget tokens
//	@Tags		theme
//	@Produce	json
//	@Param		id		path		string	true	"Workspace ID"
//	@Param		path	query		string	false	"Current URL path"	default(/)
//	@Success	200		{object}	tokens.Tokens
//	@Router		/theme/tokens/widget/{id} [get]
func (m *Module) handleWidget(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, m.service.Widget(r.URL.Query().Get("path"), r.PathValue("id")))
}

// handleListHeaderModes returns every stored header mode.
//
//	@Summary	List header modes
//	@Tags		theme
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Router		/theme/header-mode [get]
func (m *Module) handleListHeaderModes(w http.ResponseWriter, _ *http.Request) {
	modes := m.service.headerModes()
	if modes == nil {
		modes = map[string]tokens.HeaderColorMode{}
	}
	writeJSON(w, http.StatusOK, modes)
}

// handleGetHeaderMode returns the header mode of a workspace. The id "base"
// addresses the page without a workspace.
//
//	@Summary	Get header mode
//	@Tags		theme
//	@Produce	json
//	@Param		id	path		string	true	"Workspace ID or base"
//	@Success	200	{object}	HeaderModeResponse
//	@Router		/theme/header-mode/{id} [get]
func (m *Module) handleGetHeaderMode(w http.ResponseWriter, r *http.Request) {
	id := workspaceParam(r)
	writeJSON(w, http.StatusOK, HeaderModeResponse{
		WorkspaceID: id,
		Mode:        m.service.HeaderColorMode(id),
	})
}

// handleSetHeaderMode changes and persists the header mode of a workspace.
//
//	@Summary	Set header mode
//	@Tags		theme
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string				true	"Workspace ID or base"
//	@Param		request	body		HeaderModeRequest	true	"text, accent or glow"
//	@Success	200		{object}	HeaderModeResponse
//	@Failure	400		{object}	models.APIProblem
//	@Failure	404		{object}	models.APIProblem
//	@Router		/theme/header-mode/{id} [put]
func (m *Module) handleSetHeaderMode(w http.ResponseWriter, r *http.Request) {
	var req HeaderModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	mode, ok := tokens.ParseHeaderColorMode(req.Mode)
	if !ok {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown header mode %q", req.Mode))
		return
	}

	id := workspaceParam(r)
	effective, err := m.service.SetHeaderColorMode(r.Context(), id, mode)
	if errors.Is(err, ErrUnknownWorkspace) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("workspace %q not found", id))
		return
	}
	if err != nil {
		m.logger.Error("failed to set header mode", zap.String("workspace_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to set header mode")
		return
	}
	writeJSON(w, http.StatusOK, HeaderModeResponse{WorkspaceID: id, Mode: effective})
}

// handleFonts lists the font presets.
//
//	@Summary	List font presets
//	@Tags		theme
//	@Produce	json
//	@Success	200	{array}	tokens.FontPreset
//	@Router		/theme/fonts [get]
func (m *Module) handleFonts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, tokens.FontPresets)
}

func workspaceParam(r *http.Request) string {
	id := r.PathValue("id")
	if id == baseWorkspace {
		return ""
	}
	return id
}

func queryBool(v string) (bool, error) {
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
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
		Type:   "https://startpage.dev/problems/theme-error",
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}
