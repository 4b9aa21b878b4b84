package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"uploadgate/internal/auth"
	"uploadgate/internal/response"
	"uploadgate/internal/upload"
)

// UploadHandler adapts HTTP requests onto the session manager. All
// validation of lifecycle rules lives in the manager; the handler only
// shapes requests and responses.
type UploadHandler struct {
	service *upload.Service
	logger  *slog.Logger
}

func NewUploadHandler(service *upload.Service, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{
		service: service,
		logger:  logger,
	}
}

// Register wires the upload routes onto the mux.
func (h *UploadHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/uploads", h.HandleCreate)
	mux.HandleFunc("GET /api/uploads", h.HandleListMine)
	mux.HandleFunc("GET /api/uploads/{uploadId}", h.HandleGet)
	mux.HandleFunc("GET /api/uploads/{uploadId}/parts/{partNumber}/url", h.HandlePresignPart)
	mux.HandleFunc("POST /api/uploads/{uploadId}/complete", h.HandleComplete)
	mux.HandleFunc("POST /api/uploads/{uploadId}/abort", h.HandleAbort)
}

// HandleCreate handles POST /api/uploads
func (h *UploadHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		response.WriteProblem(w, http.StatusUnauthorized, "unauthorized", "Missing caller identity", "")
		return
	}

	var req upload.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteProblem(w, http.StatusBadRequest, "bad_request", "Invalid request body", "")
		return
	}

	if req.FileName == "" {
		response.WriteProblem(w, http.StatusBadRequest, "bad_request", "file_name is required", "")
		return
	}
	if req.ContentType == "" {
		response.WriteProblem(w, http.StatusBadRequest, "bad_request", "content_type is required", "")
		return
	}
	if req.FileSizeBytes <= 0 {
		response.WriteProblem(w, http.StatusBadRequest, "bad_request", "file_size_bytes must be greater than 0", "")
		return
	}

	resp, err := h.service.Create(r.Context(), identity, &req)
	if err != nil {
		h.logError(r, err)
		response.WriteError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, resp)
}

// HandleListMine handles GET /api/uploads
func (h *UploadHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		response.WriteProblem(w, http.StatusUnauthorized, "unauthorized", "Missing caller identity", "")
		return
	}

	views, err := h.service.ListMine(r.Context(), identity)
	if err != nil {
		h.logError(r, err)
		response.WriteError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, views)
}

// HandleGet handles GET /api/uploads/{uploadId}
func (h *UploadHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		response.WriteProblem(w, http.StatusUnauthorized, "unauthorized", "Missing caller identity", "")
		return
	}

	view, err := h.service.Get(r.Context(), identity, r.PathValue("uploadId"))
	if err != nil {
		h.logError(r, err)
		response.WriteError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, view)
}

// HandlePresignPart handles GET /api/uploads/{uploadId}/parts/{partNumber}/url
func (h *UploadHandler) HandlePresignPart(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		response.WriteProblem(w, http.StatusUnauthorized, "unauthorized", "Missing caller identity", "")
		return
	}

	partNumber, err := strconv.Atoi(r.PathValue("partNumber"))
	if err != nil {
		response.WriteProblem(w, http.StatusBadRequest, "bad_request", "partNumber must be an integer", "")
		return
	}

	presigned, err := h.service.PresignPartURL(r.Context(), identity, r.PathValue("uploadId"), partNumber)
	if err != nil {
		h.logError(r, err)
		response.WriteError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, presigned)
}

// HandleComplete handles POST /api/uploads/{uploadId}/complete
func (h *UploadHandler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		response.WriteProblem(w, http.StatusUnauthorized, "unauthorized", "Missing caller identity", "")
		return
	}

	var req upload.CompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteProblem(w, http.StatusBadRequest, "bad_request", "Invalid request body", "")
		return
	}

	view, err := h.service.Complete(r.Context(), identity, r.PathValue("uploadId"), &req)
	if err != nil {
		h.logError(r, err)
		response.WriteError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, view)
}

// HandleAbort handles POST /api/uploads/{uploadId}/abort
func (h *UploadHandler) HandleAbort(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		response.WriteProblem(w, http.StatusUnauthorized, "unauthorized", "Missing caller identity", "")
		return
	}

	view, err := h.service.Abort(r.Context(), identity, r.PathValue("uploadId"))
	if err != nil {
		h.logError(r, err)
		response.WriteError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, view)
}

func (h *UploadHandler) logError(r *http.Request, err error) {
	kind := upload.KindOf(err)
	if kind == upload.KindUpstream || kind == upload.KindInternal {
		h.logger.Error("upload request failed",
			"method", r.Method, "path", r.URL.Path, "kind", string(kind), "error", err)
	}
}
