// Package server exposes the diary fill engine over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/javajack/diaryfill"
	"github.com/javajack/diaryfill/internal/history"
	"github.com/javajack/diaryfill/internal/logging"
)

// FailureMessage is the only body /process ever returns on failure.
const FailureMessage = "処理に失敗しました。もう一度ファイルをアップロードしてください。"

const (
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	defaultRunsLimit = 20
)

// HTTPServer serves /process, /inspect, /healthz and /runs.
type HTTPServer struct {
	log       *zap.Logger
	history   history.Recorder
	maxUpload int64
	opts      []diaryfill.Option
}

// NewHTTPServer creates a server. Every request runs a fresh Filler built
// from opts on its own copy of the uploaded workbook.
func NewHTTPServer(log *zap.Logger, recorder history.Recorder, maxUpload int64, opts ...diaryfill.Option) *HTTPServer {
	return &HTTPServer{
		log:       log,
		history:   recorder,
		maxUpload: maxUpload,
		opts:      opts,
	}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/healthz":
		if r.Method == http.MethodGet || r.Method == http.MethodHead {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}
	case "/process":
		if r.Method == http.MethodPost {
			s.handleProcess(w, r)
			return
		}
	case "/inspect":
		if r.Method == http.MethodPost {
			s.handleInspect(w, r)
			return
		}
	case "/runs":
		if r.Method == http.MethodGet {
			s.handleRuns(w, r)
			return
		}
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found")
		return
	}
	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
}

// handleProcess fills the uploaded diary and returns it. Any failure,
// including a run that changed nothing, yields FailureMessage.
func (s *HTTPServer) handleProcess(w http.ResponseWriter, r *http.Request) {
	log := s.requestLogger(r)
	up, apiErr := s.readUpload(w, r)
	if apiErr != nil {
		log.Info("process_rejected", zap.String("code", apiErr.Code), zap.String("reason", apiErr.Message))
		s.record(r, log, "/process", up.name, apiErr.Status, nil, apiErr)
		writeText(w, apiErr.Status, FailureMessage)
		return
	}

	var out bytes.Buffer
	sum, err := s.filler(log).FillWriter(bytes.NewReader(up.data), &out)
	if err != nil {
		log.Error("process_error", zap.String("filename", up.name), zap.Error(err))
		s.record(r, log, "/process", up.name, http.StatusInternalServerError, nil, err)
		writeText(w, http.StatusInternalServerError, FailureMessage)
		return
	}
	log.Info("process_done", append(logging.SummaryFields(sum), zap.String("filename", up.name))...)

	if sum.NoOp() {
		s.record(r, log, "/process", up.name, http.StatusUnprocessableEntity, sum, nil)
		writeText(w, http.StatusUnprocessableEntity, FailureMessage)
		return
	}

	s.record(r, log, "/process", up.name, http.StatusOK, sum, nil)
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="processed.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(out.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = out.WriteTo(w)
}

// handleInspect runs the same analysis without writing and reports the
// summary as JSON.
func (s *HTTPServer) handleInspect(w http.ResponseWriter, r *http.Request) {
	log := s.requestLogger(r)
	up, apiErr := s.readUpload(w, r)
	if apiErr != nil {
		s.record(r, log, "/inspect", up.name, apiErr.Status, nil, apiErr)
		writeJSON(w, apiErr.Status, map[string]any{"error": apiErr.Code})
		return
	}

	sum, err := s.filler(log, diaryfill.WithDryRun(true)).FillWriter(bytes.NewReader(up.data), io.Discard)
	if err != nil {
		log.Error("inspect_error", zap.String("filename", up.name), zap.Error(err))
		s.record(r, log, "/inspect", up.name, http.StatusInternalServerError, nil, err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "exception", "message": err.Error()})
		return
	}
	log.Info("inspect_done", append(logging.SummaryFields(sum), zap.String("filename", up.name))...)
	s.record(r, log, "/inspect", up.name, http.StatusOK, sum, nil)
	writeJSON(w, http.StatusOK, sum)
}

func (s *HTTPServer) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := defaultRunsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be a positive integer")
			return
		}
		limit = n
	}
	runs, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.requestLogger(r).Error("runs_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "HISTORY_UNAVAILABLE", "Run history is unavailable")
		return
	}
	if runs == nil {
		runs = []history.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *HTTPServer) filler(log *zap.Logger, extra ...diaryfill.Option) *diaryfill.Filler {
	opts := append([]diaryfill.Option{}, s.opts...)
	opts = append(opts, diaryfill.WithFillListener(logging.NewFillLogger(log)))
	return diaryfill.NewFiller(append(opts, extra...)...)
}

type upload struct {
	name string
	data []byte
}

// readUpload reads the multipart "file" field, which must name an .xlsx file.
func (s *HTTPServer) readUpload(w http.ResponseWriter, r *http.Request) (upload, *apiError) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return upload{}, apiErrorf(http.StatusRequestEntityTooLarge, "too_large", "upload exceeds %d bytes", s.maxUpload)
		}
		return upload{}, apiErrorf(http.StatusBadRequest, "file_required", "invalid multipart body: %v", err)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return upload{}, apiErrorf(http.StatusBadRequest, "file_required", "missing file field")
	}
	defer file.Close()

	up := upload{name: header.Filename}
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".xlsx") {
		return up, apiErrorf(http.StatusBadRequest, "xlsx_only", "not an .xlsx file: %q", header.Filename)
	}
	if up.data, err = io.ReadAll(file); err != nil {
		return up, apiErrorf(http.StatusBadRequest, "file_required", "read upload: %v", err)
	}
	return up, nil
}

// record appends the run to the history. Failures are logged only.
func (s *HTTPServer) record(r *http.Request, log *zap.Logger, endpoint, filename string, status int, sum *diaryfill.Summary, runErr error) {
	e := history.Entry{
		RequestID: requestID(r.Context()),
		Endpoint:  endpoint,
		Filename:  filename,
		Status:    status,
		Summary:   sum,
		At:        time.Now().UTC(),
	}
	if runErr != nil {
		e.Error = runErr.Error()
	}
	if err := s.history.Record(r.Context(), e); err != nil {
		log.Warn("history_record_failed", zap.Error(err))
	}
}

func (s *HTTPServer) requestLogger(r *http.Request) *zap.Logger {
	return s.log.With(zap.String("request_id", requestID(r.Context())))
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id))

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		writer.Header().Set("X-Request-Id", id)

		next.ServeHTTP(writer, r)

		s.log.Info("request",
			zap.String("request_id", id),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", writer.status),
			zap.Duration("duration", time.Since(started)),
		)
	})
}

type requestIDKey struct{}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// apiError is a request failure with the status and code it maps to.
type apiError struct {
	Status  int
	Code    string
	Message string
}

func (e *apiError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func apiErrorf(status int, code, format string, args ...any) *apiError {
	return &apiError{Status: status, Code: code, Message: fmt.Sprintf(format, args...)}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"code":  code,
		"error": message,
	})
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
