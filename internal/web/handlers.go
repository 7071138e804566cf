package web

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/JonMunkholm/datasweeper/internal/core"
	"github.com/JonMunkholm/datasweeper/internal/logging"
	"github.com/JonMunkholm/datasweeper/internal/web/templates"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

// maxFormMemory is how much of a multipart form is held in memory before
// parts spill to temporary files.
const maxFormMemory = 32 << 20

// multipartOverhead allows for boundaries and part headers on top of the
// file bytes themselves.
const multipartOverhead = 1 << 20

// ActionRequest is the JSON body of POST /api/files/{id}/process. It is also
// accepted as the "action" field of an upload form.
type ActionRequest struct {
	Cleaning core.CleaningOptions `json:"cleaning"`
	Columns  []string             `json:"columns" validate:"omitempty,dive,required"`
	Chart    bool                 `json:"chart"`
	Convert  string               `json:"convert" validate:"omitempty,oneof=csv xlsx excel"`
}

// ProcessResponse is a file result plus where to fetch its conversion.
type ProcessResponse struct {
	core.FileResult
	DownloadURL string `json:"downloadUrl,omitempty"`
}

// UploadResponse is the result of POST /api/files.
type UploadResponse struct {
	BatchID  string            `json:"batchId"`
	Files    []ProcessResponse `json:"files"`
	Complete bool              `json:"complete"`
}

// FileListResponse is the result of GET /api/files.
type FileListResponse struct {
	Files []core.FileInfo `json:"files"`
}

// action validates req and turns it into a pipeline action.
func (s *Server) action(req ActionRequest) (core.Action, error) {
	if err := s.validate.Struct(req); err != nil {
		return core.Action{}, validationError(err)
	}
	act := core.Action{
		Cleaning: req.Cleaning,
		Columns:  req.Columns,
		Chart:    req.Chart,
	}
	if req.Convert != "" {
		f, err := core.ParseFormat(req.Convert)
		if err != nil {
			return core.Action{}, fmt.Errorf("%w: %v", errInvalidReq, err)
		}
		act.Convert = f
	}
	return act, nil
}

// validationError names every failing field and its rule.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", errInvalidReq, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", errInvalidReq, strings.Join(fields, "; "))
}

// handleIndex renders the upload page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Page(s.service.Files()).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "error", err)
	}
}

// handleHealth reports stored files and batch slots.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"status":  "ok",
		"service": s.service.Status(),
	})
}

// handleUpload parses every "file" part of a multipart upload, stores the
// files and applies the optional form action to each.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxFile := s.cfg.Upload.MaxFileSize
	limit := maxFile*int64(s.cfg.Upload.MaxFiles) + multipartOverhead
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large") {
			s.respondError(w, r, fmt.Errorf("%w: upload exceeds %d bytes", errFileTooBig, limit), 0)
			return
		}
		s.respondError(w, r, fmt.Errorf("%w: %v", errInvalidReq, err), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	act, err := s.formAction(r)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	headers := r.MultipartForm.File["file"]
	switch {
	case len(headers) == 0:
		s.respondError(w, r, core.ErrNoFiles, 0)
		return
	case len(headers) > s.cfg.Upload.MaxFiles:
		s.respondError(w, r, fmt.Errorf("%w: %d files, limit %d", core.ErrTooManyFiles, len(headers), s.cfg.Upload.MaxFiles), 0)
		return
	}

	reqs := make([]core.FileRequest, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > maxFile {
			s.respondError(w, r, fmt.Errorf("%w: %s is %d bytes, limit %d", errFileTooBig, fh.Filename, fh.Size, maxFile), 0)
			return
		}
		f, err := fh.Open()
		if err != nil {
			s.respondError(w, r, fmt.Errorf("open %s: %w", fh.Filename, err), 0)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			s.respondError(w, r, fmt.Errorf("read %s: %w", fh.Filename, err), 0)
			return
		}
		reqs = append(reqs, core.FileRequest{Name: fh.Filename, Data: data, Action: act})
	}

	batch, err := s.service.Upload(r.Context(), reqs)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	if wantsHTML(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := templates.BatchPage(batch).Render(r.Context(), w); err != nil {
			logging.FromContext(r.Context()).Error("render batch", "error", err)
		}
		return
	}

	resp := UploadResponse{BatchID: batch.ID, Complete: batch.Complete}
	for _, res := range batch.Files {
		resp.Files = append(resp.Files, processResponse(res, act.Convert))
	}
	render.JSON(w, r, resp)
}

// formAction reads the upload's action from a JSON "action" field or, for
// plain HTML forms, from individual fields.
func (s *Server) formAction(r *http.Request) (core.Action, error) {
	if raw := r.FormValue("action"); raw != "" {
		var req ActionRequest
		if err := render.DecodeJSON(strings.NewReader(raw), &req); err != nil {
			return core.Action{}, fmt.Errorf("%w: action: %v", errInvalidReq, err)
		}
		return s.action(req)
	}

	req := ActionRequest{
		Cleaning: core.CleaningOptions{
			RemoveDuplicates: formBool(r, "remove_duplicates"),
			FillMissing:      formBool(r, "fill_missing"),
		},
		Chart:   formBool(r, "chart"),
		Convert: r.FormValue("convert"),
	}
	if cols, ok := r.MultipartForm.Value["columns"]; ok {
		req.Columns = splitColumns(cols)
	}
	return s.action(req)
}

func formBool(r *http.Request, name string) bool {
	switch strings.ToLower(r.FormValue(name)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// splitColumns accepts repeated fields and comma-separated lists. The result
// is non-nil so an empty selection keeps no columns.
func splitColumns(values []string) []string {
	out := []string{}
	for _, v := range values {
		for _, c := range strings.Split(v, ",") {
			if c = strings.TrimSpace(c); c != "" {
				out = append(out, c)
			}
		}
	}
	return out
}

// handleListFiles lists the session's files.
func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, FileListResponse{Files: s.service.Files()})
}

// handleGetFile describes one stored file.
func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	info, err := s.service.File(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	render.JSON(w, r, info)
}

// handleDeleteFile drops a file from the session.
func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Remove(chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	render.NoContent(w, r)
}

// handleProcess applies a JSON ActionRequest to a stored file. A pipeline
// failure still returns the result, with the status of its error.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ActionRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
		s.respondError(w, r, fmt.Errorf("%w: %v", errInvalidReq, err), http.StatusBadRequest)
		return
	}
	act, err := s.action(req)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	res, err := s.service.Process(r.Context(), id, act)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	if res.Failed() {
		logging.FromContext(r.Context()).Info("process failed",
			"file_id", id,
			"code", res.Code,
		)
		render.Status(r, statusFor(res.Err))
	}
	render.JSON(w, r, processResponse(res, act.Convert))
}

// handleDownload streams the file, shaped by its latest action, in the
// requested format. Without ?format the upload's own format is used.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var format core.Format
	if q := r.URL.Query().Get("format"); q != "" {
		f, err := core.ParseFormat(q)
		if err != nil {
			s.respondError(w, r, err, http.StatusBadRequest)
			return
		}
		format = f
	} else {
		info, err := s.service.File(id)
		if err != nil {
			s.respondError(w, r, err, 0)
			return
		}
		format = info.Format
	}

	conv, err := s.service.Download(r.Context(), id, format)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	w.Header().Set("Content-Type", conv.MIMEType)
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": conv.FileName}))
	http.ServeContent(w, r, conv.FileName, time.Time{}, conv.Reader())
}

func processResponse(res core.FileResult, convert core.Format) ProcessResponse {
	resp := ProcessResponse{FileResult: res}
	if res.Conversion != nil && res.ID != "" {
		resp.DownloadURL = fmt.Sprintf("/api/files/%s/download?format=%s", res.ID, convert)
	}
	return resp
}
