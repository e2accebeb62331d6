package web

// errors.go provides unified error response handling for the web layer.
//
// Every failure is logged with its technical detail and the request ID, then
// answered with the coded user message from core.MapError: as JSON for API
// clients, as an HTML fragment for HTMX, or as a full page otherwise.

import (
	"errors"
	"net/http"
	"strings"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/csvutf8/internal/core"
	"github.com/JonMunkholm/csvutf8/internal/logging"
	"github.com/JonMunkholm/csvutf8/internal/web/templates"
)

// errNoFile is returned when a multipart request lacks the "file" field.
var errNoFile = errors.New("no file provided")

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error        string   `json:"error"`
	Message      string   `json:"message"`
	Action       string   `json:"action,omitempty"`
	Code         string   `json:"code"`
	Attempted    []string `json:"attempted,omitempty"`
	ConversionID string   `json:"conversion_id,omitempty"`
}

// statusFor picks the HTTP status for a conversion error.
func statusFor(err error) int {
	var (
		de *core.DetectionError
		ee *core.ExhaustionError
	)
	switch {
	case isTooLarge(err):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errNoFile):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrTooManyConversions):
		return http.StatusServiceUnavailable
	case errors.As(err, &de):
		if de.Reason == core.ReasonEmptySample {
			return http.StatusUnprocessableEntity
		}
		return http.StatusInternalServerError
	case errors.As(err, &ee):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the user-facing response. res may be nil;
// when set its ID is included so the user can quote it.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, res *core.Result) {
	status := statusFor(err)
	userMsg := core.MapError(err)

	resp := ErrorResponse{
		Error:     userMsg.Message,
		Message:   userMsg.Message,
		Action:    userMsg.Action,
		Code:      userMsg.Code,
		Attempted: core.Attempted(err),
	}
	if res != nil {
		resp.ConversionID = res.ID
		w.Header().Set("X-Conversion-ID", res.ID)
	}

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
		"conversion_id", resp.ConversionID,
	)

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}

	switch {
	case isHTMX(r):
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		templates.ErrorAlert(userMsg.Message, userMsg.Action, userMsg.Code).Render(r.Context(), w)
	case wantsJSON(r):
		writeJSONStatus(w, status, resp)
	default:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		templates.ErrorPage(templates.ErrorParams{
			Message:      userMsg.Message,
			Action:       userMsg.Action,
			Code:         userMsg.Code,
			Attempted:    resp.Attempted,
			ConversionID: resp.ConversionID,
		}).Render(r.Context(), w)
	}
}

// isHTMX checks if the request is an HTMX request.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// wantsJSON checks if the client prefers JSON response. API routes always do.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// requestID returns chi's request ID, for responses that echo it.
func requestID(r *http.Request) string {
	return chimw.GetReqID(r.Context())
}
