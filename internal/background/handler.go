package background

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/docker/go-units"
	"go.uber.org/zap"

	"github.com/HerbHall/startpage/pkg/models"
)

// multipartOverhead is allowed on top of the size limit for form headers.
const multipartOverhead = 64 << 10

// handleList returns every stored background.
//
//	@Summary	List backgrounds
//	@Tags		backgrounds
//	@Produce	json
//	@Success	200	{array}	Record
//	@Router		/backgrounds [get]
func (m *Module) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := m.store.List(r.Context())
	if err != nil {
		m.logger.Error("failed to list backgrounds", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list backgrounds")
		return
	}
	if records == nil {
		records = []Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

// handleGet returns the record of one background.
//
//	@Summary	Get background
//	@Tags		backgrounds
//	@Produce	json
//	@Param		id	path		string	true	"Background ID"
//	@Success	200	{object}	Record
//	@Failure	404	{object}	models.APIProblem
//	@Router		/backgrounds/{id} [get]
func (m *Module) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, _, err := m.store.Open(r.Context(), r.PathValue("id"))
	if err != nil {
		m.writeStoreError(w, err, "failed to get background")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleUpload stores an image sent as the multipart field "file".
//
//	@Summary	Upload background
//	@Tags		backgrounds
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		file	formData	file	true	"Image file"
//	@Success	201		{object}	Record
//	@Failure	400		{object}	models.APIProblem
//	@Failure	413		{object}	models.APIProblem
//	@Failure	415		{object}	models.APIProblem
//	@Router		/backgrounds [post]
func (m *Module) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, m.maxSize+multipartOverhead)
	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			m.writeStoreError(w, ErrTooLarge, "")
			return
		}
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, m.maxSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	if int64(len(data)) > m.maxSize {
		m.writeStoreError(w, ErrTooLarge, "")
		return
	}

	rec, err := m.store.Save(r.Context(), Upload{
		Name: header.Filename,
		Type: header.Header.Get("Content-Type"),
		Data: data,
	})
	if err != nil {
		m.writeStoreError(w, err, "failed to store background")
		return
	}
	m.logger.Info("background stored",
		zap.String("id", rec.ID),
		zap.String("type", rec.Type),
		zap.String("size", units.HumanSize(float64(rec.Size))),
	)
	m.publish(r.Context(), "created", rec)
	writeJSON(w, http.StatusCreated, rec)
}

// handleContent serves the image bytes. The ETag is the content hash.
//
//	@Summary	Get background content
//	@Tags		backgrounds
//	@Produce	image/png,image/jpeg,image/webp,image/gif
//	@Param		id	path	string	true	"Background ID"
//	@Success	200
//	@Success	304
//	@Failure	404	{object}	models.APIProblem
//	@Router		/backgrounds/{id}/content [get]
func (m *Module) handleContent(w http.ResponseWriter, r *http.Request) {
	rec, data, err := m.store.Open(r.Context(), r.PathValue("id"))
	if err != nil {
		m.writeStoreError(w, err, "failed to open background")
		return
	}
	etag := strconv.Quote(rec.Hash)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "private, max-age=31536000, immutable")
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", rec.Type)
	w.Header().Set("Content-Length", strconv.FormatInt(int64(len(data)), 10))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleDelete removes a background.
//
//	@Summary	Delete background
//	@Tags		backgrounds
//	@Param		id	path	string	true	"Background ID"
//	@Success	204
//	@Failure	404	{object}	models.APIProblem
//	@Router		/backgrounds/{id} [delete]
func (m *Module) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, _, err := m.store.Open(r.Context(), id)
	if err != nil {
		m.writeStoreError(w, err, "failed to delete background")
		return
	}
	if err := m.store.Delete(r.Context(), id); err != nil {
		m.writeStoreError(w, err, "failed to delete background")
		return
	}
	m.publish(r.Context(), "deleted", rec)
	w.WriteHeader(http.StatusNoContent)
}

func (m *Module) writeStoreError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("%s of %s", ErrTooLarge, units.BytesSize(float64(m.maxSize))))
	case errors.Is(err, ErrUnsupportedType):
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, ErrEmpty):
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
		Type:   "https://startpage.dev/problems/background-error",
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	})
}
