package httpapi

import (
	stderrors "errors"
	"io"
	"net/http"

	"github.com/hackcrew/service_layer/internal/app/services/explore"
	"github.com/hackcrew/service_layer/internal/errors"
)

func (h *handler) generateQnA(w http.ResponseWriter, r *http.Request) {
	res, err := h.app.Generation.QnA(r.Context(), pathVar(r, "project_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) generatePRD(w http.ResponseWriter, r *http.Request) {
	res, err := h.app.Generation.PRD(r.Context(), pathVar(r, "project_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) storedPRD(w http.ResponseWriter, r *http.Request) {
	prd, err := h.app.Ideation.PRD(r.Context(), pathVar(r, "project_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"prd": prd})
}

func (h *handler) researchTodo(w http.ResponseWriter, r *http.Request) {
	res, err := h.app.Generation.ResearchTodo(r.Context(), pathVar(r, "project_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) researchOverview(w http.ResponseWriter, r *http.Request) {
	res, err := h.app.Generation.ResearchOverview(r.Context(), pathVar(r, "project_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *handler) generationStatus(w http.ResponseWriter, r *http.Request) {
	projectID := pathVar(r, "project_id")
	state, err := h.app.Generation.Status(r.Context(), pathVar(r, "kind"), projectID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"project_id": projectID,
		"kind":       pathVar(r, "kind"),
		"state":      state,
	})
}

// multipartOverhead leaves room for part headers around the file.
const multipartOverhead = 1 << 20

func (h *handler) uploadPDF(w http.ResponseWriter, r *http.Request) {
	maxBytes := h.app.Uploads.MaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var maxErr *http.MaxBytesError
		if stderrors.As(err, &maxErr) {
			writeError(w, r, errors.Validation("file is too large").WithDetails("max_bytes", maxBytes))
			return
		}
		writeError(w, r, errors.Validation("multipart form with a file field is required"))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, errors.Required("file"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		writeError(w, r, errors.Validation("could not read uploaded file"))
		return
	}

	url, err := h.app.Uploads.Upload(r.Context(), pathVar(r, "project_id"), pathVar(r, "user_id"), header.Header.Get("Content-Type"), data)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "PDF uploaded successfully", "pdf_url": url})
}

func (h *handler) viewPDF(w http.ResponseWriter, r *http.Request) {
	url, exists, err := h.app.Uploads.View(r.Context(), pathVar(r, "project_id"), pathVar(r, "user_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !exists {
		writeJSON(w, http.StatusOK, map[string]interface{}{"exists": false, "message": "No PDF uploaded yet"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"exists": true, "pdf_url": url})
}

func (h *handler) searchHackathons(w http.ResponseWriter, r *http.Request) {
	var q explore.Query
	if !decodeJSON(w, r, &q) {
		return
	}
	page, err := h.app.Explore.Search(q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}
