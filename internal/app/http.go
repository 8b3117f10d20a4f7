package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"datavault/api/internal/auth"
	"datavault/api/internal/autosave"
	"datavault/api/internal/draft"
	"datavault/api/internal/gate"
	"datavault/api/internal/identity"
	"datavault/api/internal/search"
	"datavault/api/internal/view"
)

const maxUploadBytes = 64 << 20

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"database": map[string]any{"status": "ok"},
		}

		if err := s.service.Ping(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["database"] = map[string]any{
				"status": "error",
				"error":  err.Error(),
			}
		}

		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	// Gate and session routes (no session required)
	if r.Method == http.MethodPost && r.URL.Path == "/api/gate/submit" {
		s.handleGateSubmit(w, r)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/session" {
		token := bearerToken(r)
		if token == "" {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false, "view": view.Gate})
			return
		}
		claims, err := s.service.SessionFromToken(token)
		if err != nil {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false, "view": view.Gate})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"authenticated": true,
			"email":         claims.Email,
			"role":          claims.Role,
			"view":          view.Route(true, claims.Role),
		})
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/session/refresh" {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		session, err := s.service.Refresh(r.Context(), body.RefreshToken)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Refresh token invalid", nil)
			return
		}
		writeJSON(w, http.StatusOK, sessionPayload(session))
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/session/logout" {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = decodeBody(r, &body)
		if err := s.service.SignOut(r.Context(), body.RefreshToken); err != nil {
			log.Printf("logout: revoke failed: %v", err)
		}
		// clearCodeParam reminds the client to drop any ?code= from its URL
		// so a stale link cannot re-submit.
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "clearCodeParam": true})
		return
	}

	// Everything below requires a session.
	claims, err := s.sessionClaims(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/room" {
		s.handleRoom(w, r, claims)
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/search" {
		s.handleSearch(w, r)
		return
	}

	// Admin-only mutations from here on.
	if claims.Role != gate.RoleAdmin {
		writeError(w, http.StatusForbidden, "FORBIDDEN", "Admin role required", nil)
		return
	}

	switch {
	case r.Method == http.MethodPatch && r.URL.Path == "/api/company/field":
		s.handleSetField(w, r)
	case r.Method == http.MethodPost && r.URL.Path == "/api/company/list/append":
		s.handleListAppend(w, r)
	case r.Method == http.MethodPost && r.URL.Path == "/api/company/list/remove":
		s.handleListRemove(w, r)
	case r.Method == http.MethodPost && r.URL.Path == "/api/company/list/item-field":
		s.handleListItemField(w, r)
	case r.Method == http.MethodPost && r.URL.Path == "/api/company/save":
		s.handleSaveNow(w, r)
	case r.Method == http.MethodGet && r.URL.Path == "/api/company/save-status":
		writeJSON(w, http.StatusOK, s.service.SaveState())
	case r.Method == http.MethodPost && r.URL.Path == "/api/documents/upload":
		s.handleUpload(w, r)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) sessionClaims(r *http.Request) (auth.Claims, error) {
	token := bearerToken(r)
	if token == "" {
		return auth.Claims{}, auth.ErrInvalidToken
	}
	return s.service.SessionFromToken(token)
}

func (s *HTTPServer) handleGateSubmit(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Code string `json:"code"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	// A pre-filled link can auto-submit its code via the query string.
	code := body.Code
	if code == "" {
		code = r.URL.Query().Get("code")
	}

	session, err := s.service.SubmitCode(r.Context(), code)
	if err != nil {
		status, errCode, message, details := mapError(err)
		writeError(w, status, errCode, message, details)
		return
	}
	payload := sessionPayload(session)
	payload["view"] = view.Route(true, session.Role)
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) handleRoom(w http.ResponseWriter, r *http.Request, claims auth.Claims) {
	routed := view.Route(true, claims.Role)
	payload := map[string]any{
		"view": routed,
		"role": claims.Role,
	}
	if routed == view.Admin {
		// Admins see their own pending edits plus where autosave stands.
		payload["company"] = s.service.DraftDocument()
		payload["saveStatus"] = s.service.SaveState()
	} else {
		payload["company"] = s.service.CommittedDocument()
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := search.Query{Text: r.URL.Query().Get("q")}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "INVALID_QUERY", "limit must be a non-negative integer", nil)
			return
		}
		q.Limit = limit
	}
	writeJSON(w, http.StatusOK, s.service.Search(q))
}

func (s *HTTPServer) handleSetField(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Path  []any `json:"path"`
		Value any   `json:"value"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	if err := s.service.SetField(body.Path, body.Value); err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "saveStatus": s.service.SaveState()})
}

func (s *HTTPServer) handleListAppend(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Path []any          `json:"path"`
		Item map[string]any `json:"item"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	entry, err := s.service.AppendListItem(body.Path, body.Item)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "item": entry, "saveStatus": s.service.SaveState()})
}

func (s *HTTPServer) handleListRemove(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Path  []any `json:"path"`
		Index int   `json:"index"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	if err := s.service.RemoveListItem(body.Path, body.Index); err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "saveStatus": s.service.SaveState()})
}

func (s *HTTPServer) handleListItemField(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Path  []any  `json:"path"`
		Index int    `json:"index"`
		Field string `json:"field"`
		Value any    `json:"value"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	if body.Field == "" {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "field is required", nil)
		return
	}
	if err := s.service.ReplaceListItemField(body.Path, body.Index, body.Field, body.Value); err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "saveStatus": s.service.SaveState()})
}

func (s *HTTPServer) handleSaveNow(w http.ResponseWriter, r *http.Request) {
	if err := s.service.SaveNow(r.Context()); err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "saveStatus": s.service.SaveState()})
}

func (s *HTTPServer) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "invalid multipart form", nil)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "file field is required", nil)
		return
	}
	defer file.Close()

	entry, err := s.service.Upload(
		r.Context(),
		header.Filename,
		header.Header.Get("Content-Type"),
		r.FormValue("category"),
		r.FormValue("accessLevel"),
		file,
		header.Size,
	)
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"ok": true, "item": entry, "saveStatus": s.service.SaveState()})
}

func sessionPayload(session identity.Session) map[string]any {
	return map[string]any{
		"token":        session.Token,
		"refreshToken": session.RefreshToken,
		"email":        session.Email,
		"role":         session.Role,
		"expiresAt":    session.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PATCH,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	var lockout *gate.LockedOutError
	if errors.As(err, &lockout) {
		seconds := int(lockout.Remaining().Round(time.Second).Seconds())
		return http.StatusTooManyRequests, "LOCKED_OUT",
			"Too many failed attempts", map[string]any{"retryAfterSeconds": seconds}
	}
	if errors.Is(err, gate.ErrCodeLength) {
		return http.StatusBadRequest, "INVALID_CODE", err.Error(), nil
	}
	if errors.Is(err, gate.ErrInvalidCode) {
		return http.StatusUnauthorized, "INVALID_CODE", "Invalid access code", nil
	}
	if errors.Is(err, draft.ErrEmptyPath) || errors.Is(err, draft.ErrBadPathStep) {
		return http.StatusBadRequest, "INVALID_PATH", err.Error(), nil
	}
	if errors.Is(err, identity.ErrInvalidCredentials) {
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil
	}
	if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrExpiredToken) {
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil
	}
	if errors.Is(err, autosave.ErrClosed) {
		return http.StatusServiceUnavailable, "SHUTTING_DOWN", "Service is shutting down", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
