package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"datavault/api/internal/auth"
	"datavault/api/internal/config"
	"datavault/api/internal/docstore"
	"datavault/api/internal/gate"
	"datavault/api/internal/identity"
)

type fakeRemote struct {
	mu      sync.Mutex
	data    map[string]json.RawMessage
	saveErr error
	saves   int
}

func (f *fakeRemote) UpsertCompanyData(ctx context.Context, id string, data json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.data[id] = append(json.RawMessage(nil), data...)
	return nil
}

func (f *fakeRemote) GetCompanyData(ctx context.Context, id string) (json.RawMessage, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.data[id]
	return raw, ok, nil
}

func (f *fakeRemote) setSaveErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveErr = err
}

func (f *fakeRemote) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

func (f *fakeRemote) stored(t *testing.T) map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.data[docstore.RecordID]
	if !ok {
		t.Fatal("no document stored remotely")
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("stored document is not valid JSON: %v", err)
	}
	return doc
}

type fakePinger struct {
	pingFn func(context.Context) error
}

func (f *fakePinger) Ping(ctx context.Context) error {
	if f.pingFn != nil {
		return f.pingFn(ctx)
	}
	return nil
}

type fakeGateBackend struct {
	mu      sync.Mutex
	signins int
	failErr error
}

func (b *fakeGateBackend) session(email, role string) identity.Session {
	return identity.Session{
		Token:        role + "-token",
		RefreshToken: role + "-rt",
		UserID:       "u-" + role,
		Email:        email,
		Role:         role,
		ExpiresAt:    time.Now().Add(15 * time.Minute),
	}
}

func (b *fakeGateBackend) SignInWithCode(ctx context.Context, email, sharedSecret string) (identity.Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.signins++
	if b.failErr != nil {
		return identity.Session{}, b.failErr
	}
	role := gate.RoleInvestor
	if email == "admin@dataroom.app" {
		role = gate.RoleAdmin
	}
	return b.session(email, role), nil
}

func (b *fakeGateBackend) SignUpWithCode(ctx context.Context, email, sharedSecret, role string) (identity.Session, error) {
	return b.SignInWithCode(ctx, email, sharedSecret)
}

type fakeIdentity struct {
	mu       sync.Mutex
	sessions map[string]auth.Claims
	revoked  []string
}

func (f *fakeIdentity) SessionFromToken(token string) (auth.Claims, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	claims, ok := f.sessions[token]
	if !ok {
		return auth.Claims{}, auth.ErrInvalidToken
	}
	return claims, nil
}

func (f *fakeIdentity) Refresh(ctx context.Context, refreshToken string) (identity.Session, error) {
	if refreshToken == "" {
		return identity.Session{}, identity.ErrInvalidCredentials
	}
	return identity.Session{
		Token:        "rotated-token",
		RefreshToken: "rotated-rt",
		Email:        "admin@dataroom.app",
		Role:         gate.RoleAdmin,
		ExpiresAt:    time.Now().Add(15 * time.Minute),
	}, nil
}

func (f *fakeIdentity) SignOut(ctx context.Context, refreshToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = append(f.revoked, refreshToken)
	return nil
}

type testEnv struct {
	server   *HTTPServer
	service  *Service
	remote   *fakeRemote
	identity *fakeIdentity
	snapPath string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := config.Config{
		InvestorCode: "INV2024ABC",
		AdminCode:    "ADM2024XYZ",
		SharedSecret: "dataroom123",
		MaxAttempts:  3,
		Cooldown:     30 * time.Second,
		SaveDebounce: 40 * time.Millisecond,
		SavingFloor:  0,
		SnapshotPath: filepath.Join(t.TempDir(), "snapshot.json"),
	}

	remote := &fakeRemote{data: map[string]json.RawMessage{}}
	docs := docstore.NewAdapter(remote, docstore.NewSnapshot(cfg.SnapshotPath))
	g := gate.New(&fakeGateBackend{}, gate.Config{
		InvestorCode: cfg.InvestorCode,
		AdminCode:    cfg.AdminCode,
		SharedSecret: cfg.SharedSecret,
		MaxAttempts:  cfg.MaxAttempts,
		Cooldown:     cfg.Cooldown,
	})
	ident := &fakeIdentity{sessions: map[string]auth.Claims{
		"admin-token":    {Sub: "u-admin", Email: "admin@dataroom.app", Role: gate.RoleAdmin},
		"investor-token": {Sub: "u-investor", Email: "investor@dataroom.app", Role: gate.RoleInvestor},
	}}

	svc := New(cfg, &fakePinger{}, docs, g, ident, nil, nil)
	if err := svc.Bootstrap(context.Background()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	t.Cleanup(svc.Close)

	return &testEnv{
		server:   NewHTTPServer(svc, "*"),
		service:  svc,
		remote:   remote,
		identity: ident,
		snapPath: cfg.SnapshotPath,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse response %q: %v", rr.Body.String(), err)
	}
	return payload
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestReadyReportsDatabaseFailure(t *testing.T) {
	env := newTestEnv(t)
	env.service.db = &fakePinger{pingFn: func(context.Context) error {
		return context.DeadlineExceeded
	}}

	rr := env.do(t, http.MethodGet, "/api/ready", "", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	payload := decodeResponse(t, rr)
	if payload["ok"] != false {
		t.Fatalf("expected ok=false, got %v", payload["ok"])
	}
}

func TestGateSubmitRoutesByCode(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		code string
		role string
		view string
	}{
		{"ADM2024XYZ", "admin", "admin"},
		{"INV2024ABC", "investor", "room"},
	}
	for _, tc := range cases {
		rr := env.do(t, http.MethodPost, "/api/gate/submit", "", map[string]any{"code": tc.code})
		if rr.Code != http.StatusOK {
			t.Fatalf("code %s: expected 200, got %d: %s", tc.code, rr.Code, rr.Body.String())
		}
		payload := decodeResponse(t, rr)
		if payload["role"] != tc.role {
			t.Fatalf("code %s: role = %v, want %s", tc.code, payload["role"], tc.role)
		}
		if payload["view"] != tc.view {
			t.Fatalf("code %s: view = %v, want %s", tc.code, payload["view"], tc.view)
		}
		if payload["token"] == "" || payload["refreshToken"] == "" {
			t.Fatalf("code %s: token pair missing: %v", tc.code, payload)
		}
	}
}

func TestGateSubmitAcceptsQueryParam(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodPost, "/api/gate/submit?code=adm-2024-xyz", "", map[string]any{})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	payload := decodeResponse(t, rr)
	if payload["role"] != "admin" {
		t.Fatalf("role = %v, want admin", payload["role"])
	}
}

func TestGateSubmitRejectsWrongLengthWithoutAttempt(t *testing.T) {
	env := newTestEnv(t)
	rr := env.do(t, http.MethodPost, "/api/gate/submit", "", map[string]any{"code": "SHORT"})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	payload := decodeResponse(t, rr)
	if payload["code"] != "INVALID_CODE" {
		t.Fatalf("error code = %v, want INVALID_CODE", payload["code"])
	}
}

func TestGateLockoutAfterThreeFailures(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 2; i++ {
		rr := env.do(t, http.MethodPost, "/api/gate/submit", "", map[string]any{"code": "WRONGCODE1"})
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, rr.Code)
		}
	}

	rr := env.do(t, http.MethodPost, "/api/gate/submit", "", map[string]any{"code": "WRONGCODE1"})
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("third failure: expected 429, got %d", rr.Code)
	}
	payload := decodeResponse(t, rr)
	if payload["code"] != "LOCKED_OUT" {
		t.Fatalf("error code = %v, want LOCKED_OUT", payload["code"])
	}
	details, _ := payload["details"].(map[string]any)
	if retry, _ := details["retryAfterSeconds"].(float64); retry <= 0 {
		t.Fatalf("retryAfterSeconds = %v, want > 0", details["retryAfterSeconds"])
	}

	// Still locked: even the right code is refused during cooldown.
	rr = env.do(t, http.MethodPost, "/api/gate/submit", "", map[string]any{"code": "ADM2024XYZ"})
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("during cooldown: expected 429, got %d", rr.Code)
	}
}

func TestRoomPayloadByRole(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/api/room", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", rr.Code)
	}

	rr = env.do(t, http.MethodGet, "/api/room", "investor-token", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("investor: expected 200, got %d", rr.Code)
	}
	payload := decodeResponse(t, rr)
	if payload["view"] != "room" {
		t.Fatalf("investor view = %v, want room", payload["view"])
	}
	if _, hasStatus := payload["saveStatus"]; hasStatus {
		t.Fatal("investors must not see autosave internals")
	}
	if _, hasDoc := payload["company"]; !hasDoc {
		t.Fatal("investor payload missing company document")
	}

	rr = env.do(t, http.MethodGet, "/api/room", "admin-token", nil)
	payload = decodeResponse(t, rr)
	if payload["view"] != "admin" {
		t.Fatalf("admin view = %v, want admin", payload["view"])
	}
	if _, hasStatus := payload["saveStatus"]; !hasStatus {
		t.Fatal("admin payload missing saveStatus")
	}
}

func TestMutationsForbiddenForInvestors(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]any{"path": []any{"overview", "name"}, "value": "Other Corp"}
	rr := env.do(t, http.MethodPatch, "/api/company/field", "investor-token", body)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
	payload := decodeResponse(t, rr)
	if payload["code"] != "FORBIDDEN" {
		t.Fatalf("error code = %v, want FORBIDDEN", payload["code"])
	}
}

func TestFieldEditDebouncedSaveRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	baseline := env.remote.saveCount() // bootstrap seeds the empty remote

	// Numeric ledger fields coerce string input.
	body := map[string]any{"path": []any{"financials", "revenue"}, "value": "500000"}
	rr := env.do(t, http.MethodPatch, "/api/company/field", "admin-token", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	payload := decodeResponse(t, rr)
	saveStatus, _ := payload["saveStatus"].(map[string]any)
	if saveStatus["dirty"] != true {
		t.Fatalf("expected a dirty draft right after the edit, got %v", saveStatus)
	}

	waitFor(t, 2*time.Second, func() bool {
		return env.remote.saveCount() > baseline
	})
	waitFor(t, 2*time.Second, func() bool {
		return env.service.SaveState().Status == "clean"
	})

	stored := env.remote.stored(t)
	financials, _ := stored["financials"].(map[string]any)
	if financials["revenue"] != 500000.0 {
		t.Fatalf("stored revenue = %v, want 500000", financials["revenue"])
	}

	committed := env.service.CommittedDocument()
	fin, _ := committed["financials"].(map[string]any)
	if fin["revenue"] != 500000.0 {
		t.Fatalf("committed revenue = %v, want 500000", fin["revenue"])
	}
}

func TestInvalidPathRejected(t *testing.T) {
	env := newTestEnv(t)

	cases := []map[string]any{
		{"path": []any{}, "value": "x"},
		{"path": []any{"overview", 1.5}, "value": "x"},
		{"path": []any{true}, "value": "x"},
	}
	for i, body := range cases {
		rr := env.do(t, http.MethodPatch, "/api/company/field", "admin-token", body)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("case %d: expected 400, got %d", i, rr.Code)
		}
		payload := decodeResponse(t, rr)
		if payload["code"] != "INVALID_PATH" {
			t.Fatalf("case %d: error code = %v, want INVALID_PATH", i, payload["code"])
		}
	}
}

func TestSaveFailureSurfacesAndWritesSnapshot(t *testing.T) {
	env := newTestEnv(t)
	env.remote.setSaveErr(context.DeadlineExceeded)

	body := map[string]any{"path": []any{"overview", "name"}, "value": "Renamed Inc"}
	if rr := env.do(t, http.MethodPatch, "/api/company/field", "admin-token", body); rr.Code != http.StatusOK {
		t.Fatalf("edit: expected 200, got %d", rr.Code)
	}

	rr := env.do(t, http.MethodPost, "/api/company/save", "admin-token", nil)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("flush with broken remote: expected 500, got %d", rr.Code)
	}

	status := env.service.SaveState()
	if status.Status != "save_failed" {
		t.Fatalf("status = %s, want save_failed", status.Status)
	}
	if status.LastError == "" {
		t.Fatal("expected a surfaced save error")
	}
	if !status.Dirty {
		t.Fatal("draft must stay dirty after a failed save")
	}

	// The edit survived to the local fallback.
	snap, err := docstore.NewSnapshot(env.snapPath).Read()
	if err != nil {
		t.Fatalf("read fallback snapshot: %v", err)
	}
	overview, _ := snap["overview"].(map[string]any)
	if overview["name"] != "Renamed Inc" {
		t.Fatalf("snapshot name = %v, want Renamed Inc", overview["name"])
	}

	// Backend recovers; a manual flush drains the draft.
	env.remote.setSaveErr(nil)
	rr = env.do(t, http.MethodPost, "/api/company/save", "admin-token", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("flush after recovery: expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	waitFor(t, 2*time.Second, func() bool {
		return env.service.SaveState().Status == "clean"
	})
	stored := env.remote.stored(t)
	overview, _ = stored["overview"].(map[string]any)
	if overview["name"] != "Renamed Inc" {
		t.Fatalf("stored name = %v, want Renamed Inc", overview["name"])
	}
}

func TestListAppendAssignsServerID(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]any{
		"path": []any{"documents"},
		"item": map[string]any{
			"name": "Board Minutes Q4.pdf", "type": "PDF", "size": "1.1 MB",
			"category": "legal", "accessLevel": "confidential",
			"status": "active", "url": "https://example.com/board-minutes.pdf",
		},
	}
	rr := env.do(t, http.MethodPost, "/api/company/list/append", "admin-token", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	payload := decodeResponse(t, rr)
	item, _ := payload["item"].(map[string]any)
	if id, _ := item["id"].(string); id == "" {
		t.Fatal("expected a server-assigned id")
	}
	if date, _ := item["lastModified"].(string); date == "" {
		t.Fatal("expected a server-assigned lastModified date")
	}

	docs, _ := env.service.DraftDocument()["documents"].([]any)
	if len(docs) != 9 {
		t.Fatalf("library length = %d, want 9", len(docs))
	}
}

func TestListRemoveOutOfBoundsIsNoOp(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]any{"path": []any{"documents"}, "index": 99}
	rr := env.do(t, http.MethodPost, "/api/company/list/remove", "admin-token", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if env.service.SaveState().Dirty {
		t.Fatal("out-of-bounds remove must not dirty the draft")
	}
}

func TestSearchRequiresSession(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/api/search?q=pitch", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}

	rr = env.do(t, http.MethodGet, "/api/search?q=pitch+deck", "investor-token", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	payload := decodeResponse(t, rr)
	if total, _ := payload["total"].(float64); total == 0 {
		t.Fatal("expected results for a known document name")
	}
}

func TestUploadUnavailableWithoutBlobStore(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/documents/upload", bytes.NewReader(nil))
	req.Header.Set("Authorization", "Bearer admin-token")
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	rr := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(rr, req)

	// Empty multipart bodies fail parsing first; either way uploads cannot
	// succeed without object storage.
	if rr.Code != http.StatusBadRequest && rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 400 or 503, got %d", rr.Code)
	}
}

func TestLogoutRevokesAndSignalsCodeCleanup(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/api/session/logout", "", map[string]any{"refreshToken": "admin-rt"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	payload := decodeResponse(t, rr)
	if payload["clearCodeParam"] != true {
		t.Fatal("logout response must tell the client to clear the code parameter")
	}
	env.identity.mu.Lock()
	revoked := len(env.identity.revoked)
	env.identity.mu.Unlock()
	if revoked != 1 {
		t.Fatalf("expected 1 revoked session, got %d", revoked)
	}
}
