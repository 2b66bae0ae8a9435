package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/starford/berkana/internal/notestore"
)

// Export handles POST /api/export.
//
//	@Summary		Export notes as a JSON envelope
//	@Tags			transfer
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ExportRequest	false	"Ids to export; omit for all notes"
//	@Success		200		{object}	models.Export
//	@Security		BearerAuth
//	@Router			/export [post]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	data, err := h.svc.Export(r.Context(), req.IDs)
	if err != nil {
		writeError(w, "export", err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="berkana-export.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Import handles POST /api/import. The body is an export envelope;
// overwrite and generateNewIds query flags override the configured defaults.
//
//	@Summary		Import an export envelope
//	@Tags			transfer
//	@Accept			json
//	@Produce		json
//	@Param			overwrite		query		bool	false	"Replace notes whose id already exists"
//	@Param			generateNewIds	query		bool	false	"Import every note under a fresh id"
//	@Success		200				{object}	ImportResponse
//	@Failure		400				{object}	errResponse
//	@Security		BearerAuth
//	@Router			/import [post]
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	opts, err := importOptions(r, h.svc.ImportDefaults())
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	notes, err := h.svc.Import(r.Context(), data, opts)
	if err != nil {
		writeError(w, "import", err)
		return
	}
	writeJSON(w, http.StatusOK, ImportResponse{Imported: len(notes), Notes: notes})
}

func importOptions(r *http.Request, opts notestore.ImportOptions) (notestore.ImportOptions, error) {
	q := r.URL.Query()
	if v := q.Get("overwrite"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New("overwrite must be a boolean")
		}
		opts.Overwrite = b
	}
	if v := q.Get("generateNewIds"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, errors.New("generateNewIds must be a boolean")
		}
		opts.GenerateNewIDs = b
	}
	return opts, nil
}
