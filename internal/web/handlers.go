package web

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/JonMunkholm/csvutf8/internal/config"
	"github.com/JonMunkholm/csvutf8/internal/core"
	"github.com/JonMunkholm/csvutf8/internal/logging"
	"github.com/JonMunkholm/csvutf8/internal/web/templates"
)

// multipartMemory is how much of a multipart form is buffered in memory
// before spilling to disk.
const multipartMemory = 32 << 20

// upload is a received file saved under the server's temp dir.
type upload struct {
	path       string
	filename   string
	sampleSize int
	warning    error
}

func (u *upload) cleanup() {
	os.Remove(u.path)
}

// DetectResponse is the body of POST /api/detect.
type DetectResponse struct {
	Filename          string               `json:"filename"`
	SampleSize        int                  `json:"sample_size"`
	SampleSizeWarning string               `json:"sample_size_warning,omitempty"`
	Detection         core.DetectionResult `json:"detection"`
	Candidates        []string             `json:"candidates"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status      string             `json:"status"`
	Conversions core.LimiterStatus `json:"conversions"`
	RequestID   string             `json:"request_id,omitempty"`
}

// handleIndex renders the upload page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	params := templates.IndexParams{
		MaxFileSize: s.cfg.Upload.MaxFileSize,
		SampleSize:  s.sampleSize,
	}
	if s.sampleWarning != nil {
		params.Notice = core.FormatUserError(s.sampleWarning)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Index(params).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render index", "error", err)
	}
}

// handleConvert converts the uploaded file and streams the UTF-8 copy back
// as an attachment. One conversion slot is held for the duration. It serves
// both the HTML form and the API; respondError picks the error format.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	up, err := s.receiveUpload(w, r)
	if err != nil {
		s.respondError(w, r, err, nil)
		return
	}
	defer up.cleanup()

	logger := logging.WithFields(r.Context(), "filename", up.filename)
	ctx := logging.NewContext(r.Context(), logger)
	if up.warning != nil {
		logger.Warn("invalid sample size", "error", up.warning, "using", up.sampleSize)
		w.Header().Set("X-Sample-Size-Warning", core.FormatUserError(up.warning))
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		s.respondError(w, r, err, nil)
		return
	}
	defer s.limiter.Release()

	dst := up.path + core.OutputSuffix + ".csv"
	defer os.Remove(dst)

	conv := core.NewConverter(core.WithSampleSize(up.sampleSize))
	res, err := conv.Convert(ctx, up.path, dst)
	if err != nil {
		s.respondError(w, r, err, res)
		return
	}

	s.sendCSV(w, r, res, downloadName(up.filename))
}

// handleDetect reports the detection and candidate order for an upload
// without converting it.
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	up, err := s.receiveUpload(w, r)
	if err != nil {
		s.respondError(w, r, err, nil)
		return
	}
	defer up.cleanup()

	ctx := logging.NewContext(r.Context(), logging.WithFields(r.Context(), "filename", up.filename))
	conv := core.NewConverter(core.WithSampleSize(up.sampleSize))
	ins, err := conv.Inspect(ctx, up.path)
	if err != nil {
		s.respondError(w, r, err, nil)
		return
	}

	resp := DetectResponse{
		Filename:   up.filename,
		SampleSize: conv.SampleSize(),
		Detection:  ins.Detection,
		Candidates: ins.Candidates,
	}
	if up.warning != nil {
		resp.SampleSizeWarning = core.FormatUserError(up.warning)
	}
	writeJSON(w, resp)
}

// handleHealth reports liveness and conversion slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, HealthResponse{
		Status:      "ok",
		Conversions: s.limiter.Status(),
		RequestID:   requestID(r),
	})
}

// receiveUpload saves the multipart "file" field to the temp dir and reads
// the optional "sample_size" field. The caller must call cleanup.
func (s *Server) receiveUpload(w http.ResponseWriter, r *http.Request) (*upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if isTooLarge(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errNoFile, err)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, errNoFile
	}
	defer file.Close()

	up := &upload{
		path:     filepath.Join(s.tempDir, "csvutf8-"+uuid.NewString()+".upload"),
		filename: header.Filename,
	}

	f, err := os.OpenFile(up.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}
	if _, err := io.Copy(f, file); err != nil {
		f.Close()
		up.cleanup()
		return nil, fmt.Errorf("save upload: %w", err)
	}
	if err := f.Close(); err != nil {
		up.cleanup()
		return nil, fmt.Errorf("save upload: %w", err)
	}

	if raw := r.FormValue("sample_size"); strings.TrimSpace(raw) != "" {
		up.sampleSize, up.warning = config.ParseSampleSize(raw)
	} else {
		up.sampleSize, up.warning = s.sampleSize, s.sampleWarning
	}
	return up, nil
}

// sendCSV streams the converted file with the conversion headers.
func (s *Server) sendCSV(w http.ResponseWriter, r *http.Request, res *core.Result, name string) {
	f, err := os.Open(res.Destination)
	if err != nil {
		s.respondError(w, r, &core.WriteError{Path: res.Destination, Err: err}, res)
		return
	}
	defer f.Close()

	h := w.Header()
	h.Set("Content-Type", "text/csv; charset=utf-8")
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": name})
	if disposition == "" {
		disposition = "attachment"
	}
	h.Set("Content-Disposition", disposition)
	h.Set("X-Conversion-ID", res.ID)
	h.Set("X-Source-Encoding", res.Encoding)
	h.Set("X-Row-Count", strconv.Itoa(res.Rows))
	if res.Detection.Encoding != nil {
		h.Set("X-Detected-Encoding", *res.Detection.Encoding)
		h.Set("X-Detected-Confidence", strconv.FormatFloat(res.Detection.Confidence, 'f', 2, 64))
	} else {
		h.Set("X-Detected-Encoding", "none")
	}
	if info, err := f.Stat(); err == nil {
		h.Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	}

	if _, err := io.Copy(w, f); err != nil {
		logging.FromContext(r.Context()).Warn("send converted file", "conversion_id", res.ID, "error", err)
	}
}

// downloadName is the attachment name for an uploaded file name.
func downloadName(uploaded string) string {
	base := filepath.Base(filepath.ToSlash(uploaded))
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if base == "" || base == "." || base == "/" {
		base = "upload.csv"
	}
	return filepath.Base(core.DefaultOutputPath(base))
}

func isTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe) || strings.Contains(err.Error(), "request body too large")
}

// clientIP strips the port from r.RemoteAddr.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
