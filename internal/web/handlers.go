package web

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/nconklindev/datasweeper/internal/converter"
	"github.com/nconklindev/datasweeper/internal/logging"
	"github.com/nconklindev/datasweeper/internal/pipeline"
)

// multipartMemory is how much of a form is held in memory before spilling to disk.
const multipartMemory = 32 << 20

// InspectEntry is one file in an inspect reply. Exactly one of the summary
// fields and Error is populated.
type InspectEntry struct {
	*pipeline.Summary
	Name     string         `json:"name"`
	UploadID string         `json:"upload_id"`
	Error    *ErrorResponse `json:"error,omitempty"`
}

// InspectResponse is the body of POST /api/inspect.
type InspectResponse struct {
	Files []InspectEntry `json:"files"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleInspect summarises every uploaded file. A file that fails to decode is
// reported in its own entry; the request as a whole still succeeds.
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		respondError(w, r, err)
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		respondError(w, r, errNoFile)
		return
	}
	if len(headers) > s.cfg.Upload.MaxFiles {
		respondError(w, r, fmt.Errorf("%w: %d files, limit %d", errTooManyFiles, len(headers), s.cfg.Upload.MaxFiles))
		return
	}

	resp := InspectResponse{Files: make([]InspectEntry, 0, len(headers))}

	for _, fh := range headers {
		entry := InspectEntry{Name: fh.Filename, UploadID: uuid.New().String()}

		data, err := readUpload(fh)
		if err == nil {
			entry.Summary, err = pipeline.Inspect(r.Context(), data, fh.Filename, s.cfg.Preview.Rows, s.cfg.Preview.ChartColumns)
		}
		if err != nil {
			logging.WithFields(r.Context(), "upload_id", entry.UploadID, "file", fh.Filename).
				Warn("inspect failed", "error", err)
			e := errorResponse(err)
			entry.Error = &e
		}

		resp.Files = append(resp.Files, entry)
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleConvert runs a single uploaded file through the pipeline and replies
// with the converted file as an attachment.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		respondError(w, r, err)
		return
	}

	file, fh, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, errNoFile)
		return
	}
	defer file.Close()

	opts, err := convertOptions(r.MultipartForm)
	if err != nil {
		respondError(w, r, err)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, r, fmt.Errorf("read upload: %w", err))
		return
	}

	uploadID := uuid.New().String()
	logging.WithFields(r.Context(), "upload_id", uploadID, "file", fh.Filename).
		Info("converting", "size", fh.Size, "target", opts.Target)

	res, err := pipeline.Run(r.Context(), data, fh.Filename, opts, nil)
	if err != nil {
		respondError(w, r, err)
		return
	}

	out := res.Output
	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": out.OutputFile}))
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Data)))
	w.Header().Set("X-Upload-ID", uploadID)
	w.Header().Set("X-Rows", strconv.Itoa(out.Rows))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out.Data); err != nil {
		logging.FromContext(r.Context()).Error("write response", "error", err)
	}
}

// parseForm bounds the body and parses it as multipart form data.
func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return fmt.Errorf("%w: limit %d bytes", errFileTooLarge, maxBytes.Limit)
		}
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return errNoFile
		}
		return fmt.Errorf("parse form: %w", err)
	}
	return nil
}

// convertOptions reads pipeline options from the form. Columns may repeat or be
// comma separated; an absent field keeps every column.
func convertOptions(form *multipart.Form) (pipeline.Options, error) {
	var opts pipeline.Options

	if t := formValue(form, "target"); t != "" {
		f, err := converter.ParseFormat(t)
		if err != nil {
			return opts, err
		}
		opts.Target = f
	}

	var err error
	if opts.RemoveDuplicates, err = formBool(form, "remove_duplicates"); err != nil {
		return opts, err
	}
	if opts.FillMissing, err = formBool(form, "fill_missing"); err != nil {
		return opts, err
	}

	if values, ok := form.Value["columns"]; ok {
		opts.Columns = []string{}
		for _, v := range values {
			for _, name := range strings.Split(v, ",") {
				if name = strings.TrimSpace(name); name != "" {
					opts.Columns = append(opts.Columns, name)
				}
			}
		}
		if len(opts.Columns) == 0 {
			opts.Columns = nil
		}
	}

	return opts, nil
}

func formValue(form *multipart.Form, key string) string {
	if v := form.Value[key]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

func formBool(form *multipart.Form, key string) (bool, error) {
	v := formValue(form, key)
	if v == "" {
		return false, nil
	}
	if v == "on" {
		return true, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s=%q", errInvalidOption, key, v)
	}
	return b, nil
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return data, nil
}
