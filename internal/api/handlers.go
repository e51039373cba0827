package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"reading-effort/internal/alignment"
	"reading-effort/internal/common/errors"
	"reading-effort/internal/correlation"
	"reading-effort/internal/effort"
)

// maxBodyBytes fits a full 512x512 attention matrix.
const maxBodyBytes = 32 << 20

type scoreRequest struct {
	Tokens    []string    `json:"tokens,omitempty"`
	Attention [][]float64 `json:"attention"`
	Knownness []float64   `json:"knownness,omitempty"`
}

type alignRequest struct {
	Query     []string `json:"query"`
	Reference []string `json:"reference"`
}

type alignResponse struct {
	Indices      []int `json:"indices"`
	MatchedCount int   `json:"matched_count"`
}

type metricsResponse struct {
	Metrics []string `json:"metrics"`
}

// decode reads the body, checks it against the registered schema of
// taskType and unmarshals it into dst.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, taskType string, dst interface{}) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return errors.NewInvalidInputError(fmt.Sprintf("read body: %v", err))
	}
	if err := s.validator.Validate(taskType, body); err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errors.NewInvalidInputError(fmt.Sprintf("decode body: %v", err))
	}
	return nil
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	fields := map[string]interface{}{
		"path":      r.URL.Path,
		"requestID": GetRequestID(r.Context()),
		"error":     err.Error(),
	}
	if stdErr, ok := errors.AsStandardError(err); ok && errors.HTTPStatus(stdErr.Code) < http.StatusInternalServerError {
		s.logger.Warn("request rejected", fields)
	} else {
		s.logger.Error("request failed", fields)
	}
	WriteError(w, err)
}

func (s *Server) handleScoreEffort(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := s.decode(w, r, "score-effort", &req); err != nil {
		s.fail(w, r, err)
		return
	}

	res, err := effort.Analyze(req.Tokens, req.Attention, req.Knownness)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, res, http.StatusOK)
}

func (s *Server) handleAlign(w http.ResponseWriter, r *http.Request) {
	var req alignRequest
	if err := s.decode(w, r, "align-words", &req); err != nil {
		s.fail(w, r, err)
		return
	}

	idx := alignment.Align(req.Query, req.Reference)
	WriteJSON(w, alignResponse{Indices: idx, MatchedCount: alignment.MatchCount(idx)}, http.StatusOK)
}

func (s *Server) handleCorrelate(w http.ResponseWriter, r *http.Request) {
	var req correlation.CorrelateRequest
	if err := s.decode(w, r, "correlate-effort", &req); err != nil {
		s.fail(w, r, err)
		return
	}

	res, err := s.service.Correlate(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, res, http.StatusOK)
}

func (s *Server) handleAlignedSeries(w http.ResponseWriter, r *http.Request) {
	var req correlation.SeriesRequest
	if err := s.decode(w, r, "aligned-series", &req); err != nil {
		s.fail(w, r, err)
		return
	}

	res, err := s.service.AlignedSeries(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, res, http.StatusOK)
}

func (s *Server) handleListParagraphs(w http.ResponseWriter, r *http.Request) {
	res, err := s.service.Paragraphs(r.Context(), r.URL.Query().Get("word_column"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, res, http.StatusOK)
}

func (s *Server) handleGetParagraph(w http.ResponseWriter, r *http.Request) {
	var req correlation.ParagraphRequest
	if err := s.decode(w, r, "get-paragraph", &req); err != nil {
		s.fail(w, r, err)
		return
	}

	res, err := s.service.Paragraph(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, res, http.StatusOK)
}

func (s *Server) handleListMetrics(w http.ResponseWriter, r *http.Request) {
	names, err := s.service.Metrics(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	WriteJSON(w, metricsResponse{Metrics: names}, http.StatusOK)
}
