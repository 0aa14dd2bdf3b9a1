package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"bastion-hq/bastion/pkg/history"
	"bastion-hq/bastion/pkg/server/api"
	"bastion-hq/bastion/pkg/telemetry/logging"
	"bastion-hq/bastion/pkg/validate"

	"github.com/go-chi/chi/v5"
)

// SourceHTTP marks history records created by the validate endpoint.
const SourceHTTP = "http"

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	ctx := logging.WithSchema(r.Context(), name)

	sc, ok := s.opts.Schemas.Get(name)
	if !ok {
		writeSchemaNotFound(w, name)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.Server.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			api.WriteError(w, http.StatusRequestEntityTooLarge, api.NewError(
				api.ErrorTypePayloadTooLarge, api.CodeBodyTooLarge,
				fmt.Sprintf("payload exceeds %d bytes", tooLarge.Limit),
			))
			return
		}
		api.WriteError(w, http.StatusBadRequest, api.NewError(
			api.ErrorTypeInvalidRequest, api.CodeInvalidJSON, "failed to read request body",
		))
		return
	}

	payload, err := validate.DecodePayloadBytes(body)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, api.NewError(
			api.ErrorTypeInvalidRequest, api.CodeInvalidJSON, err.Error(),
		))
		return
	}

	start := time.Now()
	errs := validate.Check(sc, payload)
	duration := time.Since(start)

	if s.opts.Metrics != nil {
		s.opts.Metrics.RecordValidation(name, len(body), errs, duration)
	}
	if s.opts.Recorder != nil {
		err := s.opts.Recorder.Record(ctx, history.Outcome{
			Schema:   sc,
			Payload:  body,
			Errors:   errs,
			Source:   SourceHTTP,
			Duration: duration,
		})
		if err != nil {
			s.logger.WarnContext(ctx, "failed to record validation", "error", err)
		}
	}

	resp := api.NewValidateResponse(name, sc.Fingerprint(), errs)
	status := http.StatusOK
	if !resp.Valid {
		status = http.StatusUnprocessableEntity
	}
	s.logger.DebugContext(ctx, "payload validated",
		"valid", resp.Valid,
		"error_count", resp.ErrorCount,
		"duration_us", duration.Microseconds(),
	)
	api.WriteJSON(w, status, resp)
}

func (s *Server) handleListSchemas(w http.ResponseWriter, _ *http.Request) {
	api.WriteJSON(w, http.StatusOK, &api.SchemaListResponse{
		Version: s.opts.Schemas.Version(),
		Schemas: s.opts.Schemas.List(),
	})
}

// handleGetSchema serves the schema wire form with the fingerprint as ETag.
func (s *Server) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	sc, ok := s.opts.Schemas.Get(name)
	if !ok {
		writeSchemaNotFound(w, name)
		return
	}

	etag := strconv.Quote(sc.Fingerprint())
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	api.WriteJSON(w, http.StatusOK, sc)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	qc := &s.config.History.Query
	q, err := parseHistoryQuery(r)
	if err == nil {
		history.ApplyQueryDefaults(q, qc.DefaultLimit)
		err = history.ValidateQuery(q, qc.MaxLimit)
	}
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, api.NewError(
			api.ErrorTypeInvalidRequest, api.CodeInvalidQuery, err.Error(),
		))
		return
	}

	ctx := r.Context()
	if qc.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, qc.Timeout)
		defer cancel()
	}

	records, err := s.opts.History.Query(ctx, q)
	if err != nil {
		s.writeInternal(w, r, "history query failed", err)
		return
	}
	total, err := s.opts.History.Count(ctx, q)
	if err != nil {
		s.writeInternal(w, r, "history count failed", err)
		return
	}

	if records == nil {
		records = []*history.Record{}
	}
	api.WriteJSON(w, http.StatusOK, &api.HistoryResponse{Total: total, Records: records})
}

// parseHistoryQuery reads schema, valid, source, since, until, limit, offset
// and order from the query string. Times are RFC 3339.
func parseHistoryQuery(r *http.Request) (*history.Query, error) {
	v := r.URL.Query()
	q := &history.Query{
		SchemaName: v.Get("schema"),
		Source:     v.Get("source"),
		SortOrder:  v.Get("order"),
	}

	if s := v.Get("valid"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("invalid valid parameter %q", s)
		}
		q.Valid = &b
	}
	for param, dst := range map[string]**time.Time{"since": &q.StartTime, "until": &q.EndTime} {
		if s := v.Get(param); s != "" {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return nil, fmt.Errorf("invalid %s parameter %q: want RFC 3339", param, s)
			}
			*dst = &t
		}
	}
	for param, dst := range map[string]*int{"limit": &q.Limit, "offset": &q.Offset} {
		if s := v.Get(param); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("invalid %s parameter %q", param, s)
			}
			*dst = n
		}
	}
	return q, nil
}

func writeSchemaNotFound(w http.ResponseWriter, name string) {
	api.WriteError(w, http.StatusNotFound, api.NewError(
		api.ErrorTypeNotFound, api.CodeSchemaNotFound, fmt.Sprintf("schema %q not found", name),
	))
}

func (s *Server) writeInternal(w http.ResponseWriter, r *http.Request, msg string, err error) {
	s.logger.ErrorContext(r.Context(), msg, "error", err)
	api.WriteError(w, http.StatusInternalServerError, api.NewError(
		api.ErrorTypeServerError, api.CodeInternal, msg,
	))
}
