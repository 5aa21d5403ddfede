// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docscrub/internal/address"
	"docscrub/internal/detector"
	"docscrub/internal/pipeline"
	"docscrub/internal/session"
)

// maxRequestBytes bounds the request body; the engine enforces its own
// document ceiling on top.
const maxRequestBytes = detector.MaxInputBytes + 1<<20

// DetectRequest is the body of POST /v1/detect and /v1/anonymize.
type DetectRequest struct {
	Text         string `json:"text"`
	Language     string `json:"language,omitempty"`
	Country      string `json:"country,omitempty"`
	DocumentType string `json:"document_type,omitempty"`

	// Manual entities come from a reviewer round trip and override
	// whatever detection decides about their spans.
	Manual []detector.Entity `json:"manual,omitempty"`

	DisableDenyList bool `json:"disable_deny_list,omitempty"`
	DisableContext  bool `json:"disable_context,omitempty"`
}

// DetectResponse is the body of a successful /v1/detect call.
type DetectResponse struct {
	RequestID string                  `json:"request_id"`
	Entities  []detector.Entity       `json:"entities"`
	Addresses []address.Grouped       `json:"addresses"`
	Passes    []pipeline.PassMetadata `json:"passes"`
	Degraded  bool                    `json:"degraded"`
}

// AnonymizeResponse is the body of a successful /v1/anonymize call.
type AnonymizeResponse struct {
	RequestID string                 `json:"request_id"`
	SessionID string                 `json:"session_id"`
	Text      string                 `json:"text"`
	Record    *session.MappingRecord `json:"record"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (r *DetectRequest) options() pipeline.Options {
	opts := pipeline.DefaultOptions()
	if r.Language != "" {
		opts.Language = r.Language
	}
	if r.Country != "" {
		opts.Country = r.Country
	}
	if r.DocumentType != "" {
		opts.DocumentType = r.DocumentType
	}
	opts.Manual = r.Manual
	opts.EnableDenyList = !r.DisableDenyList
	opts.EnableContext = !r.DisableContext
	return opts
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	req, requestID, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	start := time.Now()
	result, err := s.engine.Load().Detect(r.Context(), req.Text, req.options())
	if err != nil {
		s.writeEngineError(w, requestID, err)
		return
	}

	s.publishRun(requestID, "detect", result, time.Since(start))
	writeJSON(w, http.StatusOK, DetectResponse{
		RequestID: requestID,
		Entities:  result.Entities,
		Addresses: result.Addresses,
		Passes:    result.Metadata,
		Degraded:  result.Degraded,
	})
}

func (s *Server) handleAnonymize(w http.ResponseWriter, r *http.Request) {
	req, requestID, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	engine := s.engine.Load()
	opts := req.options()

	start := time.Now()
	result, err := engine.Detect(r.Context(), req.Text, opts)
	if err != nil {
		s.writeEngineError(w, requestID, err)
		return
	}
	outcome, err := engine.ApplySession(result, opts)
	if err != nil {
		s.writeEngineError(w, requestID, err)
		return
	}

	s.publishRun(requestID, "anonymize", result, time.Since(start))
	writeJSON(w, http.StatusOK, AnonymizeResponse{
		RequestID: requestID,
		SessionID: outcome.SessionID,
		Text:      outcome.Text,
		Record:    &outcome.Record,
	})
}

// decodeRequest parses and bounds the body. It answers the request itself
// when decoding fails.
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (*DetectRequest, string, bool) {
	requestID := uuid.NewString()
	w.Header().Set("X-Request-ID", requestID)

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	var req DetectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return nil, requestID, false
	}
	if req.Text == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "text is required"})
		return nil, requestID, false
	}
	return &req, requestID, true
}

func (s *Server) writeEngineError(w http.ResponseWriter, requestID string, err error) {
	var inputErr *detector.InputError
	status := http.StatusInternalServerError
	if errors.As(err, &inputErr) {
		status = http.StatusUnprocessableEntity
	}
	s.logger.Warn("engine error",
		zap.String("request_id", requestID),
		zap.Error(err))
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// publishRun emits the sanitized event stream for one finished request:
// one event per pass plus a document summary with per-type counts.
func (s *Server) publishRun(requestID, operation string, result *pipeline.Result, elapsed time.Duration) {
	now := time.Now()
	for _, timing := range result.Timings {
		s.hub.Publish(Event{
			Type:      EventPass,
			Timestamp: now,
			Data: PassEvent{
				RequestID:   requestID,
				Pass:        timing.Pass,
				DurationMS:  timing.Duration.Milliseconds(),
				Success:     timing.Success,
				EntitiesIn:  timing.EntityIn,
				EntitiesOut: timing.EntityOut,
			},
		})
	}

	counts := make(map[string]int)
	for _, e := range result.Entities {
		counts[e.Type]++
	}
	if len(result.Addresses) > 0 {
		counts[detector.TypeAddress] = len(result.Addresses)
	}
	s.hub.Publish(Event{
		Type:      EventDocument,
		Timestamp: now,
		Data: DocumentEvent{
			RequestID:  requestID,
			Operation:  operation,
			DurationMS: elapsed.Milliseconds(),
			Degraded:   result.Degraded,
			Counts:     counts,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Encoding these response types cannot fail; ignore the writer error.
	_ = json.NewEncoder(w).Encode(body)
}
