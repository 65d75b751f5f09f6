package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/dunamismax/pixelconvert/internal/domain"
	"github.com/dunamismax/pixelconvert/internal/pipeline"
	"github.com/dunamismax/pixelconvert/internal/storage"
	"github.com/dunamismax/pixelconvert/internal/webhook"
	"github.com/go-chi/chi/v5"
)

const maxMemory = 32 << 20

type convertResponse struct {
	Success        bool     `json:"success"`
	SingleFile     bool     `json:"single_file"`
	DownloadURL    string   `json:"download_url"`
	Filename       string   `json:"filename"`
	ConvertedCount int      `json:"converted_count,omitempty"`
	Errors         []string `json:"errors"`
}

type historyResponse struct {
	History []domain.HistoryEntry `json:"history"`
}

type capabilitiesResponse struct {
	HeicSupport   bool     `json:"heic_support"`
	Method        string   `json:"method,omitempty"`
	InputFormats  []string `json:"input_formats"`
	OutputFormats []string `json:"output_formats"`
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if s.maxRequestBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxRequestBytes)
	}
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, http.ErrNotMultipart):
			writeError(w, http.StatusBadRequest, domain.ErrNoFilesUploaded.Error())
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "Request too large")
		default:
			s.logger.Warn().Err(err).Msg("failed to parse multipart form")
			writeError(w, http.StatusBadRequest, "Invalid request format", err.Error())
		}
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	// File inputs submitted without a selection arrive as plain values.
	headers := r.MultipartForm.File["files"]
	filenames := make([]string, 0, len(headers))
	for _, fh := range headers {
		filenames = append(filenames, fh.Filename)
	}
	for range r.MultipartForm.Value["files"] {
		filenames = append(filenames, "")
	}

	req := domain.NewConvertRequest(r.FormValue("format"), filenames)
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	target := req.OutputFormat()

	uploads, err := s.readUploads(headers)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to read uploads")
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Server error: %v", err))
		return
	}

	result, err := s.converter.ConvertBatch(ctx, uploads, target)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoConvertibleFiles) {
			s.metrics.batchesTotal.WithLabelValues("failed").Inc()
			writeError(w, http.StatusBadRequest, err.Error(), result.Errors...)
			return
		}
		s.logger.Error().Err(err).Msg("batch conversion failed")
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Server error: %v", err))
		return
	}

	bundle, err := pipeline.Package(result.Outputs(), s.now())
	if err != nil {
		s.logger.Error().Err(err).Msg("packaging outputs failed")
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Server error: %v", err))
		return
	}
	if err := s.outputs.Put(ctx, bundle.Name, bundle.Data, bundle.ContentType()); err != nil {
		s.logger.Error().Err(err).Str("filename", bundle.Name).Msg("storing output failed")
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Server error: %v", err))
		return
	}

	sessionID := sessionFrom(ctx)
	if _, err := s.history.Record(ctx, sessionID, bundle.Count, target, result.ConvertedFilenames()); err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("history append failed")
	}
	s.notify(ctx, webhook.ConversionEvent{
		SessionID:      sessionID,
		ConvertedCount: bundle.Count,
		FailedCount:    len(result.Errors),
		OutputFormat:   string(target),
		Filename:       bundle.Name,
	})

	resp := convertResponse{
		Success:     true,
		SingleFile:  bundle.Single,
		DownloadURL: "/download/" + bundle.Name,
		Filename:    bundle.Name,
		Errors:      result.Errors,
	}
	if bundle.Single {
		s.metrics.batchesTotal.WithLabelValues("single").Inc()
	} else {
		resp.ConvertedCount = bundle.Count
		s.metrics.batchesTotal.WithLabelValues("archive").Inc()
	}

	s.logger.Info().
		Str("session_id", sessionID).
		Str("target", string(target)).
		Int("converted", bundle.Count).
		Int("failed", len(result.Errors)).
		Str("filename", bundle.Name).
		Msg("batch converted")

	writeJSON(w, http.StatusOK, resp)
}

// readUploads skips parts without a filename and does not read parts whose
// declared size is already over the per-file limit.
func (s *Server) readUploads(headers []*multipart.FileHeader) ([]pipeline.Upload, error) {
	uploads := make([]pipeline.Upload, 0, len(headers))
	for _, fh := range headers {
		if fh.Filename == "" {
			continue
		}

		upload := pipeline.Upload{Filename: sanitizeFilename(fh.Filename), Size: fh.Size}
		if fh.Size <= s.converter.MaxFileBytes() {
			data, err := readPart(fh)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", upload.Filename, err)
			}
			upload.Data = data
			upload.Size = int64(len(data))
		}
		uploads = append(uploads, upload)
	}
	return uploads, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (s *Server) notify(ctx context.Context, event webhook.ConversionEvent) {
	if s.notifier == nil {
		return
	}

	s.background.Add(1)
	go func() {
		defer s.background.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
		defer cancel()
		if err := s.notifier.ConversionCompleted(ctx, event); err != nil {
			s.logger.Warn().Err(err).Str("filename", event.Filename).Msg("webhook delivery failed")
		}
	}()
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	if !storage.ValidName(name) {
		s.metrics.downloadsTotal.WithLabelValues("not_found").Inc()
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	obj, err := s.outputs.Open(r.Context(), name)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			s.metrics.downloadsTotal.WithLabelValues("not_found").Inc()
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		s.metrics.downloadsTotal.WithLabelValues("error").Inc()
		s.logger.Error().Err(err).Str("filename", name).Msg("open output failed")
		http.Error(w, fmt.Sprintf("Download error: %v", err), http.StatusInternalServerError)
		return
	}
	defer obj.Body.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = pipeline.ContentTypeForName(name)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if obj.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	s.metrics.downloadsTotal.WithLabelValues("ok").Inc()

	if _, err := io.Copy(w, obj.Body); err != nil {
		s.logger.Warn().Err(err).Str("filename", name).Msg("failed to stream output")
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := s.history.List(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		s.logger.Error().Err(err).Msg("list history failed")
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Server error: %v", err))
		return
	}
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, historyResponse{History: entries})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.history.Clear(r.Context(), sessionFrom(r.Context())); err != nil {
		s.logger.Error().Err(err).Msg("clear history failed")
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Server error: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleCapabilities(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, capabilities(s.capability))
}

func capabilities(c pipeline.HeicCapability) capabilitiesResponse {
	resp := capabilitiesResponse{
		HeicSupport: c != pipeline.HeicNone,
		Method:      c.Method(),
	}
	for _, f := range domain.InputFormats {
		if f.IsHEIC() && !resp.HeicSupport {
			continue
		}
		resp.InputFormats = append(resp.InputFormats, string(f))
	}
	for _, f := range domain.OutputFormats {
		resp.OutputFormats = append(resp.OutputFormats, string(f))
	}
	return resp
}
