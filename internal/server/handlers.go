package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/intel-crawler/internal/job"
	"github.com/sells-group/intel-crawler/internal/model"
	"github.com/sells-group/intel-crawler/internal/report"
)

const maxUploadBytes = 32 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSubmit accepts a multipart upload and starts a batch. A batch
// already in flight yields 409; the caller retries after it finishes.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".xlsx" && ext != ".csv" {
		writeError(w, http.StatusBadRequest, "unsupported file type (want .xlsx or .csv)")
		return
	}

	inputPath, err := s.saveUpload(file, ext)
	if err != nil {
		zap.L().Error("server: failed to save upload", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save upload")
		return
	}

	jobID, err := s.orch.Submit(s.baseCtx, inputPath, s.cfg.OutputPath, s.cfg.SheetName)
	if err != nil {
		if eris.Is(err, job.ErrJobRunning) {
			writeError(w, http.StatusConflict, "a batch is already running")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID})
}

// handleProgress streams job events as SSE until the client goes away.
// There is no replay; late subscribers use /status for current state.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events, cancel := s.orch.Broker().Subscribe()
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := writeSSE(w, ev); err != nil {
				return
			}
			flusher.Flush()
			if ev.Type == model.EventDone || ev.Type == model.EventError {
				return
			}
		}
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.orch.Registry().Snapshot())
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	results := s.orch.Registry().Results()
	if results == nil {
		results = []map[string]string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"columns": report.Columns,
		"rows":    results,
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if _, err := os.Stat(s.cfg.OutputPath); err != nil {
		writeError(w, http.StatusNotFound, "no output file yet")
		return
	}
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", filepath.Base(s.cfg.OutputPath)))
	w.Header().Set("Content-Type",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	http.ServeFile(w, r, s.cfg.OutputPath)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.st == nil {
		writeJSON(w, http.StatusOK, []model.Run{})
		return
	}
	runs, err := s.st.ListRuns(r.Context(), 50)
	if err != nil {
		zap.L().Error("server: failed to list runs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []model.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) saveUpload(src io.Reader, ext string) (string, error) {
	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return "", eris.Wrap(err, "server: create upload dir")
	}

	path := filepath.Join(s.cfg.UploadDir, uuid.New().String()+ext)
	dst, err := os.Create(path)
	if err != nil {
		return "", eris.Wrap(err, "server: create upload file")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", eris.Wrap(err, "server: write upload file")
	}
	return path, nil
}

func writeSSE(w io.Writer, ev model.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
