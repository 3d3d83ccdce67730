package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/leadrail/leadrail/internal/mail"
	"github.com/leadrail/leadrail/internal/model"
	"github.com/leadrail/leadrail/internal/service"
	"github.com/leadrail/leadrail/internal/store"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

const (
	testJWTSecret = "test-secret-for-jwt-integration-tests"
	testPassword  = "supersecretpassword"
)

// testEnv holds all the shared state for integration tests.
type testEnv struct {
	server   *Server
	store    *store.Store
	authSvc  *service.AuthService
	recorder *service.Recorder
}

// newTestEnv creates a fresh test environment with an in-memory store,
// seeded default permission grids, and a fully wired Server.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := store.Open(store.DriverSQLite, "") // in-memory
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	if err := st.SeedDefaultGrants(context.Background()); err != nil {
		t.Fatalf("SeedDefaultGrants: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := service.NewRecorder(st, logger)
	authSvc := service.NewAuthService(st, recorder, testJWTSecret)
	policy := service.NewPolicy(st)
	mailer := mail.New(mail.Config{}, logger)

	cfg := DefaultConfig()
	// Rate limits high enough not to interfere with test volume.
	cfg.SubmitRateLimit = 1000
	cfg.LoginRateLimit = 1000
	srv := New(cfg, st, authSvc, policy, recorder, mailer, logger)

	return &testEnv{
		server:   srv,
		store:    st,
		authSvc:  authSvc,
		recorder: recorder,
	}
}

// seedAdmin creates an active admin account with the given role.
func (e *testEnv) seedAdmin(t *testing.T, username string, role model.Role) *model.Admin {
	t.Helper()
	hash, err := service.HashPassword(testPassword)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	admin := &model.Admin{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
	if err := e.store.CreateAdmin(context.Background(), admin); err != nil {
		t.Fatalf("seedAdmin: %v", err)
	}
	return admin
}

// login exchanges seeded credentials for a bearer token.
func (e *testEnv) login(t *testing.T, username string) string {
	t.Helper()
	body := jsonBody(t, map[string]string{
		"identifier": username,
		"password":   testPassword,
	})
	rr := e.do(t, "POST", "/api/v1/auth/login", body, nil)
	assertStatus(t, rr, http.StatusOK)

	var resp struct {
		Token string `json:"token"`
	}
	decodeJSON(t, rr, &resp)
	if resp.Token == "" {
		t.Fatal("login: got empty token")
	}
	return resp.Token
}

// token issues a session token directly, without going through the login
// endpoint, so tests don't accumulate login history as a side effect.
func (e *testEnv) token(t *testing.T, admin *model.Admin) string {
	t.Helper()
	token, err := e.authSvc.IssueToken(admin)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	return token
}

// seedLead inserts a lead directly into the store.
func (e *testEnv) seedLead(t *testing.T, name, email string, assignedTo *int64) *model.Lead {
	t.Helper()
	lead := &model.Lead{
		Name:       name,
		Email:      email,
		Status:     model.LeadStatusNew,
		AssignedTo: assignedTo,
		Source:     model.LeadSourceAdmin,
	}
	if err := e.store.CreateLead(context.Background(), lead); err != nil {
		t.Fatalf("seedLead: %v", err)
	}
	return lead
}

// do executes an HTTP request against the test server and returns the recorder.
func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	e.server.ServeHTTP(rr, req)
	return rr
}

// doAuth executes an authenticated HTTP request using a bearer token.
func (e *testEnv) doAuth(t *testing.T, method, path string, body io.Reader, token string) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, method, path, body, map[string]string{
		"Authorization": "Bearer " + token,
	})
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		t.Fatalf("jsonBody: %v", err)
	}
	return buf
}

func assertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Errorf("status = %d, want %d; body = %s", rr.Code, want, rr.Body.String())
	}
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decodeJSON: %v; body = %s", err, rr.Body.String())
	}
}

// latestAuditEntries drains pending recorder writes and returns all audit
// entries, newest first.
func (e *testEnv) latestAuditEntries(t *testing.T) []model.AuditLogEntry {
	t.Helper()
	e.recorder.Wait()
	entries, _, err := e.store.ListAuditLogs(context.Background(), model.LogFilter{Limit: 100})
	if err != nil {
		t.Fatalf("ListAuditLogs: %v", err)
	}
	return entries
}

// ---------------------------------------------------------------------------
// Health check tests
// ---------------------------------------------------------------------------

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/healthz", nil, nil)
	assertStatus(t, rr, http.StatusOK)

	var resp map[string]string
	decodeJSON(t, rr, &resp)
	if resp["status"] != "ok" {
		t.Errorf("status = %q, want %q", resp["status"], "ok")
	}
}

func TestReadyz(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/readyz", nil, nil)
	assertStatus(t, rr, http.StatusOK)

	var resp map[string]interface{}
	decodeJSON(t, rr, &resp)
	if resp["status"] != "ok" {
		t.Errorf("status = %q, want %q", resp["status"], "ok")
	}
}

// ---------------------------------------------------------------------------
// Login tests
// ---------------------------------------------------------------------------

func TestLogin_Success(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t, "root", model.RoleSuperAdmin)

	body := jsonBody(t, map[string]string{
		"identifier": "root",
		"password":   testPassword,
	})
	rr := env.do(t, "POST", "/api/v1/auth/login", body, nil)
	assertStatus(t, rr, http.StatusOK)

	var resp struct {
		Token     string `json:"token"`
		TokenType string `json:"token_type"`
		ExpiresIn int64  `json:"expires_in"`
		Admin     struct {
			Username string `json:"username"`
			Role     string `json:"role"`
		} `json:"admin"`
	}
	decodeJSON(t, rr, &resp)

	if resp.Token == "" {
		t.Error("expected non-empty token")
	}
	if resp.TokenType != "Bearer" {
		t.Errorf("token_type = %q, want %q", resp.TokenType, "Bearer")
	}
	if resp.ExpiresIn <= 0 {
		t.Errorf("expires_in = %d, want > 0", resp.ExpiresIn)
	}
	if resp.Admin.Username != "root" {
		t.Errorf("admin.username = %q, want %q", resp.Admin.Username, "root")
	}
	if resp.Admin.Role != "superadmin" {
		t.Errorf("admin.role = %q, want %q", resp.Admin.Role, "superadmin")
	}

	// The password hash must never serialize.
	if bytes.Contains(rr.Body.Bytes(), []byte("password_hash")) {
		t.Error("response leaks password_hash")
	}
}

func TestLogin_ByEmail(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t, "root", model.RoleSuperAdmin)

	body := jsonBody(t, map[string]string{
		"identifier": "ROOT@example.com",
		"password":   testPassword,
	})
	rr := env.do(t, "POST", "/api/v1/auth/login", body, nil)
	assertStatus(t, rr, http.StatusOK)
}

func TestLogin_UniformFailures(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t, "root", model.RoleSuperAdmin)

	inactive := env.seedAdmin(t, "parked", model.RoleAdmin)
	inactive.IsActive = false
	if err := env.store.UpdateAdmin(context.Background(), inactive); err != nil {
		t.Fatalf("UpdateAdmin: %v", err)
	}

	// Unknown account, wrong password, and deactivated account must be
	// indistinguishable from the response alone.
	cases := []struct {
		name       string
		identifier string
		password   string
	}{
		{"unknown identifier", "nobody", testPassword},
		{"wrong password", "root", "not-the-password"},
		{"inactive account", "parked", testPassword},
	}

	var bodies []string
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := jsonBody(t, map[string]string{
				"identifier": tc.identifier,
				"password":   tc.password,
			})
			rr := env.do(t, "POST", "/api/v1/auth/login", body, nil)
			assertStatus(t, rr, http.StatusUnauthorized)
			bodies = append(bodies, rr.Body.String())
		})
	}

	for i := 1; i < len(bodies); i++ {
		if bodies[i] != bodies[0] {
			t.Errorf("failure bodies differ: %q vs %q", bodies[0], bodies[i])
		}
	}
}

func TestLogin_MissingFields(t *testing.T) {
	env := newTestEnv(t)

	body := jsonBody(t, map[string]string{"identifier": "root"})
	rr := env.do(t, "POST", "/api/v1/auth/login", body, nil)
	assertStatus(t, rr, http.StatusBadRequest)

	body = jsonBody(t, map[string]string{"password": testPassword})
	rr = env.do(t, "POST", "/api/v1/auth/login", body, nil)
	assertStatus(t, rr, http.StatusBadRequest)
}

func TestLogin_RecordsHistory(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedAdmin(t, "root", model.RoleSuperAdmin)
	env.login(t, "root")

	body := jsonBody(t, map[string]string{
		"identifier": "root",
		"password":   "wrong-password",
	})
	env.do(t, "POST", "/api/v1/auth/login", body, nil)

	env.recorder.Wait()
	entries, _, err := env.store.ListLoginHistory(context.Background(), model.LogFilter{Limit: 10})
	if err != nil {
		t.Fatalf("ListLoginHistory: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("login history count = %d, want 2", len(entries))
	}

	// Newest first: the failed attempt.
	if entries[0].Success {
		t.Error("entries[0].Success = true, want false")
	}
	if entries[0].ActorID == nil || *entries[0].ActorID != admin.ID {
		t.Errorf("entries[0].ActorID = %v, want %d", entries[0].ActorID, admin.ID)
	}
	if !entries[1].Success {
		t.Error("entries[1].Success = false, want true")
	}
}

// ---------------------------------------------------------------------------
// Authentication middleware tests
// ---------------------------------------------------------------------------

func TestEndpoints_Unauthenticated(t *testing.T) {
	env := newTestEnv(t)

	endpoints := []struct {
		method string
		path   string
	}{
		{"GET", "/api/v1/leads"},
		{"POST", "/api/v1/leads"},
		{"GET", "/api/v1/admins"},
		{"GET", "/api/v1/permissions"},
		{"GET", "/api/v1/settings"},
		{"GET", "/api/v1/audit-logs"},
		{"GET", "/api/v1/analytics/summary"},
	}

	for _, ep := range endpoints {
		t.Run(ep.method+" "+ep.path, func(t *testing.T) {
			var body io.Reader
			if ep.method == "POST" {
				body = jsonBody(t, map[string]string{})
			}
			rr := env.do(t, ep.method, ep.path, body, nil)
			assertStatus(t, rr, http.StatusUnauthorized)
		})
	}
}

func TestEndpoints_InvalidToken(t *testing.T) {
	env := newTestEnv(t)

	rr := env.doAuth(t, "GET", "/api/v1/leads", nil, "invalid.jwt.token")
	assertStatus(t, rr, http.StatusUnauthorized)
}

func TestDeactivatedAdmin_TokenRejected(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedAdmin(t, "root", model.RoleSuperAdmin)
	token := env.token(t, admin)

	// The token works while the account is active.
	rr := env.doAuth(t, "GET", "/api/v1/leads", nil, token)
	assertStatus(t, rr, http.StatusOK)

	// Deactivation cuts off the still-unexpired token immediately.
	admin.IsActive = false
	if err := env.store.UpdateAdmin(context.Background(), admin); err != nil {
		t.Fatalf("UpdateAdmin: %v", err)
	}

	rr = env.doAuth(t, "GET", "/api/v1/leads", nil, token)
	assertStatus(t, rr, http.StatusUnauthorized)
}

func TestDeletedAdmin_TokenRejected(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedAdmin(t, "gone", model.RoleAdmin)
	token := env.token(t, admin)

	if err := env.store.DeleteAdmin(context.Background(), admin.ID); err != nil {
		t.Fatalf("DeleteAdmin: %v", err)
	}

	rr := env.doAuth(t, "GET", "/api/v1/leads", nil, token)
	assertStatus(t, rr, http.StatusUnauthorized)
}

// ---------------------------------------------------------------------------
// Public submission tests
// ---------------------------------------------------------------------------

func TestPublicSubmit(t *testing.T) {
	env := newTestEnv(t)

	body := jsonBody(t, map[string]string{
		"name":   "Ada Prospect",
		"email":  "ada@example.com",
		"phone":  "555-0100",
		"course": "Go Fundamentals",
	})
	rr := env.do(t, "POST", "/api/v1/submit", body, nil)
	assertStatus(t, rr, http.StatusCreated)

	var resp struct {
		Success bool  `json:"success"`
		ID      int64 `json:"id"`
	}
	decodeJSON(t, rr, &resp)
	if !resp.Success {
		t.Error("success = false, want true")
	}
	if resp.ID == 0 {
		t.Error("expected non-zero lead id")
	}

	lead, err := env.store.GetLead(context.Background(), resp.ID)
	if err != nil {
		t.Fatalf("GetLead: %v", err)
	}
	if lead.Status != model.LeadStatusNew {
		t.Errorf("status = %q, want %q", lead.Status, model.LeadStatusNew)
	}
	if lead.Source != model.LeadSourcePublic {
		t.Errorf("source = %q, want %q", lead.Source, model.LeadSourcePublic)
	}
}

func TestPublicSubmit_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing name", map[string]string{"email": "x@example.com"}},
		{"missing contact", map[string]string{"name": "No Contact"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, "POST", "/api/v1/submit", jsonBody(t, tt.body), nil)
			assertStatus(t, rr, http.StatusBadRequest)
		})
	}
}

func TestPublicSubmit_DuplicateContact(t *testing.T) {
	env := newTestEnv(t)

	body := jsonBody(t, map[string]string{
		"name":  "First",
		"email": "dup@example.com",
	})
	rr := env.do(t, "POST", "/api/v1/submit", body, nil)
	assertStatus(t, rr, http.StatusCreated)

	body = jsonBody(t, map[string]string{
		"name":  "Second",
		"email": "dup@example.com",
	})
	rr = env.do(t, "POST", "/api/v1/submit", body, nil)
	assertStatus(t, rr, http.StatusConflict)
}

// ---------------------------------------------------------------------------
// Lead CRUD tests
// ---------------------------------------------------------------------------

func TestLeadCRUD(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t, "root", model.RoleSuperAdmin)
	token := env.login(t, "root")

	// --- Create ---
	createBody := jsonBody(t, map[string]interface{}{
		"name":   "Walk-in",
		"email":  "walkin@example.com",
		"course": "Data Engineering",
	})
	rr := env.doAuth(t, "POST", "/api/v1/leads", createBody, token)
	assertStatus(t, rr, http.StatusCreated)

	var created model.Lead
	decodeJSON(t, rr, &created)
	if created.ID == 0 {
		t.Fatal("expected non-zero lead id")
	}
	if created.Status != model.LeadStatusNew {
		t.Errorf("status = %q, want %q", created.Status, model.LeadStatusNew)
	}
	if created.Source != model.LeadSourceAdmin {
		t.Errorf("source = %q, want %q", created.Source, model.LeadSourceAdmin)
	}

	// --- List ---
	rr = env.doAuth(t, "GET", "/api/v1/leads", nil, token)
	assertStatus(t, rr, http.StatusOK)

	var listResp struct {
		Resource []model.Lead `json:"resource"`
		Meta     struct {
			Count int   `json:"count"`
			Total int64 `json:"total"`
		} `json:"meta"`
	}
	decodeJSON(t, rr, &listResp)
	if len(listResp.Resource) != 1 {
		t.Fatalf("list count = %d, want 1", len(listResp.Resource))
	}
	if listResp.Meta.Total != 1 {
		t.Errorf("meta.total = %d, want 1", listResp.Meta.Total)
	}

	// --- Get ---
	leadURL := fmt.Sprintf("/api/v1/leads/%d", created.ID)
	rr = env.doAuth(t, "GET", leadURL, nil, token)
	assertStatus(t, rr, http.StatusOK)

	// --- PUT replaces ---
	putBody := jsonBody(t, map[string]interface{}{
		"name":   "Walk-in Renamed",
		"email":  "walkin@example.com",
		"status": "Contacted",
	})
	rr = env.doAuth(t, "PUT", leadURL, putBody, token)
	assertStatus(t, rr, http.StatusOK)

	var updated model.Lead
	decodeJSON(t, rr, &updated)
	if updated.Name != "Walk-in Renamed" {
		t.Errorf("name = %q, want %q", updated.Name, "Walk-in Renamed")
	}
	if updated.Status != model.LeadStatusContacted {
		t.Errorf("status = %q, want %q", updated.Status, model.LeadStatusContacted)
	}

	// --- PATCH only touches sent fields ---
	patchBody := jsonBody(t, map[string]interface{}{
		"notes": "called twice",
	})
	rr = env.doAuth(t, "PATCH", leadURL, patchBody, token)
	assertStatus(t, rr, http.StatusOK)

	var patched model.Lead
	decodeJSON(t, rr, &patched)
	if patched.Notes != "called twice" {
		t.Errorf("notes = %q, want %q", patched.Notes, "called twice")
	}
	if patched.Name != "Walk-in Renamed" {
		t.Errorf("patch clobbered name: %q", patched.Name)
	}
	if patched.Status != model.LeadStatusContacted {
		t.Errorf("patch clobbered status: %q", patched.Status)
	}

	// --- Delete ---
	rr = env.doAuth(t, "DELETE", leadURL, nil, token)
	assertStatus(t, rr, http.StatusOK)

	rr = env.doAuth(t, "GET", leadURL, nil, token)
	assertStatus(t, rr, http.StatusNotFound)
}

func TestLeadUpdate_AuditDelta(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedAdmin(t, "root", model.RoleSuperAdmin)
	token := env.token(t, admin)
	lead := env.seedLead(t, "Delta Lead", "delta@example.com", nil)

	patchBody := jsonBody(t, map[string]interface{}{
		"status": "Contacted",
	})
	rr := env.doAuth(t, "PATCH", fmt.Sprintf("/api/v1/leads/%d", lead.ID), patchBody, token)
	assertStatus(t, rr, http.StatusOK)

	entries := env.latestAuditEntries(t)
	if len(entries) == 0 {
		t.Fatal("expected an audit entry")
	}
	entry := entries[0]
	if entry.Action != model.AuditActionUpdate || entry.TargetType != model.TargetLead {
		t.Fatalf("entry = %s/%s, want update/lead", entry.Action, entry.TargetType)
	}
	if entry.ActorID != admin.ID {
		t.Errorf("actor_id = %d, want %d", entry.ActorID, admin.ID)
	}

	fields, ok := entry.Metadata["updateFields"].(map[string]interface{})
	if !ok {
		t.Fatalf("metadata.updateFields missing: %v", entry.Metadata)
	}
	statusChange, ok := fields["status"].(map[string]interface{})
	if !ok {
		t.Fatalf("updateFields.status missing: %v", fields)
	}
	if statusChange["from"] != "New" || statusChange["to"] != "Contacted" {
		t.Errorf("status delta = %v, want New -> Contacted", statusChange)
	}
	if _, present := fields["name"]; present {
		t.Error("unchanged field name should not appear in the delta")
	}
}

func TestLeadPatch_NoChanges_NoAudit(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedAdmin(t, "root", model.RoleSuperAdmin)
	token := env.token(t, admin)
	lead := env.seedLead(t, "Same Lead", "same@example.com", nil)

	rr := env.doAuth(t, "PATCH", fmt.Sprintf("/api/v1/leads/%d", lead.ID), jsonBody(t, map[string]interface{}{}), token)
	assertStatus(t, rr, http.StatusOK)

	entries := env.latestAuditEntries(t)
	for _, entry := range entries {
		if entry.Action == model.AuditActionUpdate {
			t.Errorf("no-op patch produced an audit entry: %v", entry.Metadata)
		}
	}
}

func TestLeadPatch_InvalidStatus(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedAdmin(t, "root", model.RoleSuperAdmin)
	token := env.token(t, admin)
	lead := env.seedLead(t, "Status Lead", "status@example.com", nil)

	body := jsonBody(t, map[string]string{"status": "Bogus"})
	rr := env.doAuth(t, "PATCH", fmt.Sprintf("/api/v1/leads/%d", lead.ID), body, token)
	assertStatus(t, rr, http.StatusBadRequest)
}

func TestLeadList_Filters(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedAdmin(t, "root", model.RoleSuperAdmin)
	token := env.token(t, admin)

	env.seedLead(t, "Alpha", "alpha@example.com", nil)
	lead := env.seedLead(t, "Beta", "beta@example.com", &admin.ID)
	lead.Status = model.LeadStatusContacted
	if err := env.store.UpdateLead(context.Background(), lead); err != nil {
		t.Fatalf("UpdateLead: %v", err)
	}

	var listResp struct {
		Resource []model.Lead `json:"resource"`
	}

	rr := env.doAuth(t, "GET", "/api/v1/leads?status=Contacted", nil, token)
	assertStatus(t, rr, http.StatusOK)
	decodeJSON(t, rr, &listResp)
	if len(listResp.Resource) != 1 || listResp.Resource[0].Name != "Beta" {
		t.Errorf("status filter returned %v", listResp.Resource)
	}

	rr = env.doAuth(t, "GET", fmt.Sprintf("/api/v1/leads?assigned_to=%d", admin.ID), nil, token)
	assertStatus(t, rr, http.StatusOK)
	decodeJSON(t, rr, &listResp)
	if len(listResp.Resource) != 1 || listResp.Resource[0].Name != "Beta" {
		t.Errorf("assigned_to filter returned %v", listResp.Resource)
	}

	rr = env.doAuth(t, "GET", "/api/v1/leads?q=alph", nil, token)
	assertStatus(t, rr, http.StatusOK)
	decodeJSON(t, rr, &listResp)
	if len(listResp.Resource) != 1 || listResp.Resource[0].Name != "Alpha" {
		t.Errorf("q filter returned %v", listResp.Resource)
	}
}

// ---------------------------------------------------------------------------
// Bulk operation tests
// ---------------------------------------------------------------------------

func TestBulkUpdate(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedAdmin(t, "root", model.RoleSuperAdmin)
	token := env.token(t, admin)

	a := env.seedLead(t, "Bulk A", "bulka@example.com", nil)
	b := env.seedLead(t, "Bulk B", "bulkb@example.com", nil)

	// One stale ID: the store reports only the rows actually modified.
	body := jsonBody(t, map[string]interface{}{
		"ids":    []int64{a.ID, b.ID, 99999},
		"status": "Converted",
	})
	rr := env.doAuth(t, "POST", "/api/v1/leads/bulk-update", body, token)
	assertStatus(t, rr, http.StatusOK)

	var resp struct {
		Success       bool  `json:"success"`
		ModifiedCount int64 `json:"modifiedCount"`
	}
	decodeJSON(t, rr, &resp)
	if resp.ModifiedCount != 2 {
		t.Errorf("modifiedCount = %d, want 2", resp.ModifiedCount)
	}

	got, err := env.store.GetLead(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("GetLead: %v", err)
	}
	if got.Status != model.LeadStatusConverted {
		t.Errorf("status = %q, want %q", got.Status, model.LeadStatusConverted)
	}

	entries := env.latestAuditEntries(t)
	if len(entries) == 0 || entries[0].Action != model.AuditActionBulkUpdate {
		t.Fatalf("expected bulk_update audit entry, got %v", entries)
	}
	if count, _ := entries[0].Metadata["count"].(float64); int64(count) != 2 {
		t.Errorf("audit count = %v, want 2", entries[0].Metadata["count"])
	}
}

func TestBulkDelete(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedAdmin(t, "root", model.RoleSuperAdmin)
	token := env.token(t, admin)

	a := env.seedLead(t, "Del A", "dela@example.com", nil)
	b := env.seedLead(t, "Del B", "delb@example.com", nil)

	body := jsonBody(t, map[string]interface{}{
		"ids": []int64{a.ID, b.ID},
	})
	rr := env.doAuth(t, "POST", "/api/v1/leads/bulk-delete", body, token)
	assertStatus(t, rr, http.StatusOK)

	var resp struct {
		DeletedCount int64 `json:"deletedCount"`
	}
	decodeJSON(t, rr, &resp)
	if resp.DeletedCount != 2 {
		t.Errorf("deletedCount = %d, want 2", resp.DeletedCount)
	}

	if _, err := env.store.GetLead(context.Background(), a.ID); err == nil {
		t.Error("lead A still exists after bulk delete")
	}
}

func TestBulkUpdate_EmptyIDs(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedAdmin(t, "root", model.RoleSuperAdmin)
	token := env.token(t, admin)

	body := jsonBody(t, map[string]interface{}{
		"ids":    []int64{},
		"status": "Converted",
	})
	rr := env.doAuth(t, "POST", "/api/v1/leads/bulk-update", body, token)
	assertStatus(t, rr, http.StatusBadRequest)
}

// ---------------------------------------------------------------------------
// Role whitelist tests
// ---------------------------------------------------------------------------

func TestRoleWhitelists(t *testing.T) {
	env := newTestEnv(t)
	viewer := env.seedAdmin(t, "viewer", model.RoleViewMode)
	editor := env.seedAdmin(t, "editor", model.RoleEditMode)
	admin := env.seedAdmin(t, "staff", model.RoleAdmin)

	viewerToken := env.token(t, viewer)
	editorToken := env.token(t, editor)
	adminToken := env.token(t, admin)

	lead := env.seedLead(t, "Gated Lead", "gated@example.com", nil)
	leadURL := fmt.Sprintf("/api/v1/leads/%d", lead.ID)

	// ViewMode reads but never writes.
	rr := env.doAuth(t, "GET", "/api/v1/leads", nil, viewerToken)
	assertStatus(t, rr, http.StatusOK)
	rr = env.doAuth(t, "POST", "/api/v1/leads", jsonBody(t, map[string]string{"name": "X", "email": "x@example.com"}), viewerToken)
	assertStatus(t, rr, http.StatusForbidden)
	rr = env.doAuth(t, "PATCH", leadURL, jsonBody(t, map[string]string{"notes": "n"}), viewerToken)
	assertStatus(t, rr, http.StatusForbidden)

	// EditMode mutates leads but cannot delete them.
	rr = env.doAuth(t, "PATCH", leadURL, jsonBody(t, map[string]string{"notes": "reached out"}), editorToken)
	assertStatus(t, rr, http.StatusOK)
	rr = env.doAuth(t, "DELETE", leadURL, nil, editorToken)
	assertStatus(t, rr, http.StatusForbidden)
	rr = env.doAuth(t, "POST", "/api/v1/leads/bulk-delete", jsonBody(t, map[string]interface{}{"ids": []int64{lead.ID}}), editorToken)
	assertStatus(t, rr, http.StatusForbidden)

	// Non-privileged roles cannot touch admin accounts.
	rr = env.doAuth(t, "GET", "/api/v1/admins", nil, editorToken)
	assertStatus(t, rr, http.StatusForbidden)

	// Admin reads admin accounts but cannot create them.
	rr = env.doAuth(t, "GET", "/api/v1/admins", nil, adminToken)
	assertStatus(t, rr, http.StatusOK)
	rr = env.doAuth(t, "POST", "/api/v1/admins", jsonBody(t, map[string]interface{}{
		"username": "new", "email": "new@example.com", "password": "longenough1", "role": "admin",
	}), adminToken)
	assertStatus(t, rr, http.StatusForbidden)
}

// ---------------------------------------------------------------------------
// Restricted editing tests
// ---------------------------------------------------------------------------

func TestRestrictedEditing(t *testing.T) {
	env := newTestEnv(t)
	super := env.seedAdmin(t, "root", model.RoleSuperAdmin)
	editor := env.seedAdmin(t, "editor", model.RoleEditMode)
	other := env.seedAdmin(t, "other", model.RoleEditMode)

	superToken := env.token(t, super)
	editorToken := env.token(t, editor)

	lead := env.seedLead(t, "Owned Lead", "owned@example.com", nil)
	leadURL := fmt.Sprintf("/api/v1/leads/%d", lead.ID)
	patch := func() *bytes.Buffer {
		return jsonBody(t, map[string]string{"status": "Contacted"})
	}

	// Unrestricted: any editor may mutate any lead.
	rr := env.doAuth(t, "PATCH", leadURL, jsonBody(t, map[string]string{"notes": "pre"}), editorToken)
	assertStatus(t, rr, http.StatusOK)

	// Flip the toggle on.
	rr = env.doAuth(t, "PUT", "/api/v1/settings", jsonBody(t, map[string]bool{"restrictLeadEditing": true}), superToken)
	assertStatus(t, rr, http.StatusOK)

	// Unassigned lead: denied for the editor, with the restriction marker.
	rr = env.doAuth(t, "PATCH", leadURL, patch(), editorToken)
	assertStatus(t, rr, http.StatusForbidden)

	var errResp struct {
		Error struct {
			Message string                 `json:"message"`
			Context map[string]interface{} `json:"context"`
		} `json:"error"`
	}
	decodeJSON(t, rr, &errResp)
	if errResp.Error.Context["restricted"] != true {
		t.Errorf("error.context.restricted = %v, want true", errResp.Error.Context["restricted"])
	}

	// Assigned to someone else: still denied.
	lead.AssignedTo = &other.ID
	if err := env.store.UpdateLead(context.Background(), lead); err != nil {
		t.Fatalf("UpdateLead: %v", err)
	}
	rr = env.doAuth(t, "PATCH", leadURL, patch(), editorToken)
	assertStatus(t, rr, http.StatusForbidden)

	// PUT is gated identically to PATCH.
	rr = env.doAuth(t, "PUT", leadURL, jsonBody(t, map[string]string{"name": "Owned Lead"}), editorToken)
	assertStatus(t, rr, http.StatusForbidden)

	// Privileged roles bypass the gate entirely.
	rr = env.doAuth(t, "PATCH", leadURL, jsonBody(t, map[string]string{"notes": "super note"}), superToken)
	assertStatus(t, rr, http.StatusOK)

	// Assigned to the editor: allowed.
	lead, err := env.store.GetLead(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("GetLead: %v", err)
	}
	lead.AssignedTo = &editor.ID
	if err := env.store.UpdateLead(context.Background(), lead); err != nil {
		t.Fatalf("UpdateLead: %v", err)
	}
	rr = env.doAuth(t, "PATCH", leadURL, patch(), editorToken)
	assertStatus(t, rr, http.StatusOK)

	// Toggle back off: the gate releases.
	rr = env.doAuth(t, "PUT", "/api/v1/settings", jsonBody(t, map[string]bool{"restrictLeadEditing": false}), superToken)
	assertStatus(t, rr, http.StatusOK)
	rr = env.doAuth(t, "PATCH", leadURL, jsonBody(t, map[string]string{"notes": "post"}), editorToken)
	assertStatus(t, rr, http.StatusOK)
}

func TestRestrictedEditing_BulkDeniedByOneLead(t *testing.T) {
	env := newTestEnv(t)
	super := env.seedAdmin(t, "root", model.RoleSuperAdmin)
	editor := env.seedAdmin(t, "editor", model.RoleEditMode)

	superToken := env.token(t, super)
	editorToken := env.token(t, editor)

	mine := env.seedLead(t, "Mine", "mine@example.com", &editor.ID)
	theirs := env.seedLead(t, "Theirs", "theirs@example.com", nil)

	rr := env.doAuth(t, "PUT", "/api/v1/settings", jsonBody(t, map[string]bool{"restrictLeadEditing": true}), superToken)
	assertStatus(t, rr, http.StatusOK)

	// A single unowned lead denies the whole batch.
	body := jsonBody(t, map[string]interface{}{
		"ids":    []int64{mine.ID, theirs.ID},
		"status": "Contacted",
	})
	rr = env.doAuth(t, "POST", "/api/v1/leads/bulk-update", body, editorToken)
	assertStatus(t, rr, http.StatusForbidden)

	// Nothing was modified.
	got, err := env.store.GetLead(context.Background(), mine.ID)
	if err != nil {
		t.Fatalf("GetLead: %v", err)
	}
	if got.Status != model.LeadStatusNew {
		t.Errorf("status = %q, want %q (batch must be all-or-nothing)", got.Status, model.LeadStatusNew)
	}
}

// ---------------------------------------------------------------------------
// Admin management tests
// ---------------------------------------------------------------------------

func TestAdminCRUD(t *testing.T) {
	env := newTestEnv(t)
	super := env.seedAdmin(t, "root", model.RoleSuperAdmin)
	token := env.token(t, super)

	// --- Create ---
	createBody := jsonBody(t, map[string]interface{}{
		"username": "second",
		"email":    "second@example.com",
		"password": "longenoughpw",
		"role":     "editmode",
	})
	rr := env.doAuth(t, "POST", "/api/v1/admins", createBody, token)
	assertStatus(t, rr, http.StatusCreated)

	var created model.Admin
	decodeJSON(t, rr, &created)
	if created.Role != model.RoleEditMode {
		t.Errorf("role = %q, want editmode", created.Role)
	}
	if !created.IsActive {
		t.Error("new admin should be active")
	}

	// The new account can log in.
	body := jsonBody(t, map[string]string{
		"identifier": "second",
		"password":   "longenoughpw",
	})
	rr = env.do(t, "POST", "/api/v1/auth/login", body, nil)
	assertStatus(t, rr, http.StatusOK)

	// --- Update: role change lands in the audit delta ---
	updateBody := jsonBody(t, map[string]interface{}{"role": "admin"})
	rr = env.doAuth(t, "PUT", fmt.Sprintf("/api/v1/admins/%d", created.ID), updateBody, token)
	assertStatus(t, rr, http.StatusOK)

	entries := env.latestAuditEntries(t)
	var found bool
	for _, entry := range entries {
		if entry.Action == model.AuditActionUpdate && entry.TargetType == model.TargetAdmin {
			fields, _ := entry.Metadata["updateFields"].(map[string]interface{})
			if roleChange, ok := fields["role"].(map[string]interface{}); ok {
				if roleChange["from"] == "editmode" && roleChange["to"] == "admin" {
					found = true
				}
			}
		}
	}
	if !found {
		t.Error("expected an admin update audit entry with the role delta")
	}

	// --- Delete ---
	rr = env.doAuth(t, "DELETE", fmt.Sprintf("/api/v1/admins/%d", created.ID), nil, token)
	assertStatus(t, rr, http.StatusOK)
}

func TestAdminSelfProtection(t *testing.T) {
	env := newTestEnv(t)
	super := env.seedAdmin(t, "root", model.RoleSuperAdmin)
	token := env.token(t, super)
	selfURL := fmt.Sprintf("/api/v1/admins/%d", super.ID)

	rr := env.doAuth(t, "DELETE", selfURL, nil, token)
	assertStatus(t, rr, http.StatusBadRequest)

	rr = env.doAuth(t, "PUT", selfURL, jsonBody(t, map[string]interface{}{"role": "viewmode"}), token)
	assertStatus(t, rr, http.StatusBadRequest)

	rr = env.doAuth(t, "PUT", selfURL, jsonBody(t, map[string]interface{}{"is_active": false}), token)
	assertStatus(t, rr, http.StatusBadRequest)
}

func TestCreateAdmin_Validation(t *testing.T) {
	env := newTestEnv(t)
	super := env.seedAdmin(t, "root", model.RoleSuperAdmin)
	token := env.token(t, super)

	tests := []struct {
		name string
		body map[string]interface{}
	}{
		{"missing username", map[string]interface{}{"email": "a@b.com", "password": "longenough1", "role": "admin"}},
		{"short password", map[string]interface{}{"username": "x", "email": "a@b.com", "password": "short", "role": "admin"}},
		{"bad role", map[string]interface{}{"username": "x", "email": "a@b.com", "password": "longenough1", "role": "emperor"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.doAuth(t, "POST", "/api/v1/admins", jsonBody(t, tt.body), token)
			assertStatus(t, rr, http.StatusBadRequest)
		})
	}
}

func TestCreateAdmin_Duplicate(t *testing.T) {
	env := newTestEnv(t)
	super := env.seedAdmin(t, "root", model.RoleSuperAdmin)
	token := env.token(t, super)

	body := map[string]interface{}{
		"username": "root",
		"email":    "other@example.com",
		"password": "longenoughpw",
		"role":     "admin",
	}
	rr := env.doAuth(t, "POST", "/api/v1/admins", jsonBody(t, body), token)
	assertStatus(t, rr, http.StatusConflict)
}

// ---------------------------------------------------------------------------
// Permission grid tests
// ---------------------------------------------------------------------------

func TestPermissions_SuperAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedAdmin(t, "staff", model.RoleAdmin)
	token := env.token(t, admin)

	rr := env.doAuth(t, "GET", "/api/v1/permissions", nil, token)
	assertStatus(t, rr, http.StatusForbidden)

	rr = env.doAuth(t, "PUT", "/api/v1/permissions/viewmode", jsonBody(t, map[string]interface{}{
		"permissions": map[string]interface{}{},
	}), token)
	assertStatus(t, rr, http.StatusForbidden)
}

func TestPermissions_ListSeeded(t *testing.T) {
	env := newTestEnv(t)
	super := env.seedAdmin(t, "root", model.RoleSuperAdmin)
	token := env.token(t, super)

	rr := env.doAuth(t, "GET", "/api/v1/permissions", nil, token)
	assertStatus(t, rr, http.StatusOK)

	var listResp struct {
		Resource []model.PermissionGrant `json:"resource"`
	}
	decodeJSON(t, rr, &listResp)
	if len(listResp.Resource) != 4 {
		t.Fatalf("grant count = %d, want 4", len(listResp.Resource))
	}
}

func TestPermissions_GrantUnlocksAuditView(t *testing.T) {
	env := newTestEnv(t)
	super := env.seedAdmin(t, "root", model.RoleSuperAdmin)
	staff := env.seedAdmin(t, "staff", model.RoleAdmin)

	superToken := env.token(t, super)
	staffToken := env.token(t, staff)

	// Default admin grid has no auditLogs.view.
	rr := env.doAuth(t, "GET", "/api/v1/audit-logs", nil, staffToken)
	assertStatus(t, rr, http.StatusForbidden)

	// Grant it.
	grid := model.DefaultGrants()[model.RoleAdmin]
	grid[model.ResourceAuditLogs][model.ActionView] = true
	rr = env.doAuth(t, "PUT", "/api/v1/permissions/admin", jsonBody(t, map[string]interface{}{
		"permissions": grid,
	}), superToken)
	assertStatus(t, rr, http.StatusOK)

	// The very next request sees the new grid.
	rr = env.doAuth(t, "GET", "/api/v1/audit-logs", nil, staffToken)
	assertStatus(t, rr, http.StatusOK)
}

func TestPermissions_SuperAdminRowImmutable(t *testing.T) {
	env := newTestEnv(t)
	super := env.seedAdmin(t, "root", model.RoleSuperAdmin)
	token := env.token(t, super)

	rr := env.doAuth(t, "PUT", "/api/v1/permissions/superadmin", jsonBody(t, map[string]interface{}{
		"permissions": map[string]interface{}{},
	}), token)
	assertStatus(t, rr, http.StatusBadRequest)
}

func TestPermissions_UnknownRoleAndResource(t *testing.T) {
	env := newTestEnv(t)
	super := env.seedAdmin(t, "root", model.RoleSuperAdmin)
	token := env.token(t, super)

	rr := env.doAuth(t, "PUT", "/api/v1/permissions/emperor", jsonBody(t, map[string]interface{}{
		"permissions": map[string]interface{}{},
	}), token)
	assertStatus(t, rr, http.StatusBadRequest)

	rr = env.doAuth(t, "PUT", "/api/v1/permissions/viewmode", jsonBody(t, map[string]interface{}{
		"permissions": map[string]interface{}{
			"spaceships": map[string]bool{"fly": true},
		},
	}), token)
	assertStatus(t, rr, http.StatusBadRequest)
}

// ---------------------------------------------------------------------------
// Settings tests
// ---------------------------------------------------------------------------

func TestSettings(t *testing.T) {
	env := newTestEnv(t)
	super := env.seedAdmin(t, "root", model.RoleSuperAdmin)
	viewer := env.seedAdmin(t, "viewer", model.RoleViewMode)

	superToken := env.token(t, super)
	viewerToken := env.token(t, viewer)

	// Absent toggle reads as false, for any authenticated role.
	rr := env.doAuth(t, "GET", "/api/v1/settings", nil, viewerToken)
	assertStatus(t, rr, http.StatusOK)

	var resp struct {
		RestrictLeadEditing bool `json:"restrictLeadEditing"`
	}
	decodeJSON(t, rr, &resp)
	if resp.RestrictLeadEditing {
		t.Error("restrictLeadEditing = true, want false by default")
	}

	// Only super admins write.
	rr = env.doAuth(t, "PUT", "/api/v1/settings", jsonBody(t, map[string]bool{"restrictLeadEditing": true}), viewerToken)
	assertStatus(t, rr, http.StatusForbidden)

	rr = env.doAuth(t, "PUT", "/api/v1/settings", jsonBody(t, map[string]bool{"restrictLeadEditing": true}), superToken)
	assertStatus(t, rr, http.StatusOK)

	rr = env.doAuth(t, "GET", "/api/v1/settings", nil, viewerToken)
	assertStatus(t, rr, http.StatusOK)
	decodeJSON(t, rr, &resp)
	if !resp.RestrictLeadEditing {
		t.Error("restrictLeadEditing = false after super admin set it")
	}

	// The flip is audited with from/to.
	entries := env.latestAuditEntries(t)
	var found bool
	for _, entry := range entries {
		if entry.TargetType == model.TargetSetting {
			if entry.Metadata["from"] == false && entry.Metadata["to"] == true {
				found = true
			}
		}
	}
	if !found {
		t.Error("expected a setting audit entry with from=false to=true")
	}
}

// ---------------------------------------------------------------------------
// Log listing tests
// ---------------------------------------------------------------------------

func TestLogListings_Gated(t *testing.T) {
	env := newTestEnv(t)
	super := env.seedAdmin(t, "root", model.RoleSuperAdmin)
	editor := env.seedAdmin(t, "editor", model.RoleEditMode)

	superToken := env.token(t, super)
	editorToken := env.token(t, editor)

	paths := []string{"/api/v1/audit-logs", "/api/v1/activity-logs", "/api/v1/login-history"}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			rr := env.doAuth(t, "GET", path, nil, editorToken)
			assertStatus(t, rr, http.StatusForbidden)

			rr = env.doAuth(t, "GET", path, nil, superToken)
			assertStatus(t, rr, http.StatusOK)
		})
	}
}

func TestActivityBeacon(t *testing.T) {
	env := newTestEnv(t)
	admin := env.seedAdmin(t, "root", model.RoleSuperAdmin)
	token := env.token(t, admin)

	body := jsonBody(t, map[string]string{
		"action":  "page_view",
		"page":    "/dashboard/leads",
		"details": "filtered by status",
	})
	rr := env.doAuth(t, "POST", "/api/v1/activity", body, token)
	assertStatus(t, rr, http.StatusAccepted)

	env.recorder.Wait()
	entries, _, err := env.store.ListActivityLogs(context.Background(), model.LogFilter{Limit: 10})
	if err != nil {
		t.Fatalf("ListActivityLogs: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("activity count = %d, want 1", len(entries))
	}
	if entries[0].Page != "/dashboard/leads" {
		t.Errorf("page = %q, want /dashboard/leads", entries[0].Page)
	}
	if entries[0].ActorID != admin.ID {
		t.Errorf("actor_id = %d, want %d", entries[0].ActorID, admin.ID)
	}
}

// ---------------------------------------------------------------------------
// Analytics tests
// ---------------------------------------------------------------------------

func TestAnalyticsSummary(t *testing.T) {
	env := newTestEnv(t)
	super := env.seedAdmin(t, "root", model.RoleSuperAdmin)
	editor := env.seedAdmin(t, "editor", model.RoleEditMode)

	superToken := env.token(t, super)
	editorToken := env.token(t, editor)

	env.seedLead(t, "One", "one@example.com", nil)
	lead := env.seedLead(t, "Two", "two@example.com", &super.ID)
	lead.Status = model.LeadStatusConverted
	if err := env.store.UpdateLead(context.Background(), lead); err != nil {
		t.Fatalf("UpdateLead: %v", err)
	}

	// analytics.view is grid-gated; the default editmode grid denies it.
	rr := env.doAuth(t, "GET", "/api/v1/analytics/summary", nil, editorToken)
	assertStatus(t, rr, http.StatusForbidden)

	rr = env.doAuth(t, "GET", "/api/v1/analytics/summary", nil, superToken)
	assertStatus(t, rr, http.StatusOK)

	var resp struct {
		TotalLeads int64 `json:"total_leads"`
		ByStatus   []struct {
			Status string `json:"status"`
			Count  int64  `json:"count"`
		} `json:"by_status"`
	}
	decodeJSON(t, rr, &resp)
	if resp.TotalLeads != 2 {
		t.Errorf("total_leads = %d, want 2", resp.TotalLeads)
	}

	counts := make(map[string]int64)
	for _, sc := range resp.ByStatus {
		counts[sc.Status] = sc.Count
	}
	if counts["New"] != 1 || counts["Converted"] != 1 {
		t.Errorf("status counts = %v, want New:1 Converted:1", counts)
	}
}

// ---------------------------------------------------------------------------
// Error envelope tests
// ---------------------------------------------------------------------------

func TestErrorResponseFormat(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/api/v1/leads", nil, nil)
	assertStatus(t, rr, http.StatusUnauthorized)

	var errResp struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	decodeJSON(t, rr, &errResp)

	if errResp.Error.Code != 401 {
		t.Errorf("error.code = %d, want 401", errResp.Error.Code)
	}
	if errResp.Error.Message == "" {
		t.Error("expected non-empty error.message")
	}
}

func TestInvalidJSONBody(t *testing.T) {
	env := newTestEnv(t)

	body := bytes.NewBufferString("{invalid json")
	rr := env.do(t, "POST", "/api/v1/auth/login", body, nil)
	assertStatus(t, rr, http.StatusBadRequest)
}

func TestRequestIDHeader(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/healthz", nil, nil)
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID response header")
	}
}
