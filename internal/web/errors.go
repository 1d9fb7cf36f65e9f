package web

// errors.go maps technical errors to user-facing messages with codes that can
// be quoted to support:
//
//	FILE001 - file exceeds the upload limit          (413)
//	FILE002 - unsupported file type or target format (400)
//	FILE003 - file could not be parsed               (400)
//	FILE004 - no file in the request                 (400)
//	FILE005 - too many files in one request          (400)
//	COL001  - selected column does not exist         (400)
//	REQ001  - invalid form option                    (400)
//	REQ002  - request timed out                      (503)
//	ERR000  - anything else                          (500)

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/nconklindev/datasweeper/internal/converter"
	"github.com/nconklindev/datasweeper/internal/logging"
	"github.com/nconklindev/datasweeper/internal/transform"
)

var (
	errFileTooLarge  = errors.New("file too large")
	errNoFile        = errors.New("no file provided")
	errTooManyFiles  = errors.New("too many files")
	errInvalidOption = errors.New("invalid option")
)

// UserMessage is a user-friendly rendering of an error.
type UserMessage struct {
	Message string
	Action  string
	Code    string
	Status  int
}

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again",
	Code:    "ERR000",
	Status:  http.StatusInternalServerError,
}

// MapError converts an error to a user message by its kind.
func MapError(err error) UserMessage {
	var maxBytes *http.MaxBytesError

	switch {
	case err == nil:
		return UserMessage{}
	case errors.Is(err, errFileTooLarge), errors.As(err, &maxBytes):
		return UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file or upload fewer files at once",
			Code:    "FILE001",
			Status:  http.StatusRequestEntityTooLarge,
		}
	case errors.Is(err, converter.ErrUnsupportedFormat):
		return UserMessage{
			Message: "Unsupported file type",
			Action:  "Upload a .csv or .xlsx file and convert to csv or xlsx",
			Code:    "FILE002",
			Status:  http.StatusBadRequest,
		}
	case errors.Is(err, converter.ErrDecode):
		return UserMessage{
			Message: "The file could not be read",
			Action:  "Check that the file is a valid CSV or Excel workbook",
			Code:    "FILE003",
			Status:  http.StatusBadRequest,
		}
	case errors.Is(err, errNoFile):
		return UserMessage{
			Message: "No file was uploaded",
			Action:  "Select a CSV or Excel file to upload",
			Code:    "FILE004",
			Status:  http.StatusBadRequest,
		}
	case errors.Is(err, errTooManyFiles):
		return UserMessage{
			Message: "Too many files in one request",
			Action:  "Upload fewer files at once",
			Code:    "FILE005",
			Status:  http.StatusBadRequest,
		}
	case errors.Is(err, transform.ErrUnknownColumn):
		return UserMessage{
			Message: "A selected column does not exist in the file",
			Action:  "Choose columns from the file's header",
			Code:    "COL001",
			Status:  http.StatusBadRequest,
		}
	case errors.Is(err, errInvalidOption):
		return UserMessage{
			Message: "An option in the request is invalid",
			Action:  "Use true or false for cleaning options",
			Code:    "REQ001",
			Status:  http.StatusBadRequest,
		}
	case errors.Is(err, context.DeadlineExceeded):
		return UserMessage{
			Message: "The request timed out",
			Action:  "Try a smaller file",
			Code:    "REQ002",
			Status:  http.StatusServiceUnavailable,
		}
	}

	return defaultMessage
}

// errorResponse builds the JSON body for err. Technical detail is only exposed
// for errors the user can act on.
func errorResponse(err error) ErrorResponse {
	msg := MapError(err)
	resp := ErrorResponse{Code: msg.Code, Message: msg.Message, Action: msg.Action}
	if msg.Code != defaultMessage.Code {
		resp.Detail = err.Error()
	}
	return resp
}

// respondError logs the technical error and writes the mapped JSON reply.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	msg := MapError(err)

	level := slog.LevelWarn
	if msg.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"status", msg.Status,
		"code", msg.Code,
		"error", err.Error(),
	)

	writeJSON(w, msg.Status, errorResponse(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
