package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/custos-id/custos/internal/domain"
)

func guardFixture(t *testing.T) (*Guard, *Codec, *stubDirectory) {
	t.Helper()
	codec := NewCodec("test-secret", time.Hour)
	dir := newStubDirectory()
	return NewGuard(codec, dir, zerolog.Nop()), codec, dir
}

func issueFor(t *testing.T, codec *Codec, principalID int64) string {
	t.Helper()
	token, err := codec.Issue(principalID, 0, nil)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return token.Token
}

func doGuarded(guard *Guard, authorization string, rights ...string) *httptest.ResponseRecorder {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set(AuthorizationHeader, authorization)
	}
	rec := httptest.NewRecorder()
	guard.Require(rights...)(next).ServeHTTP(rec, req)
	return rec
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body
}

func TestGuard_Require_Failures(t *testing.T) {
	guard, codec, dir := guardFixture(t)
	dir.addUser(1, true)
	dir.userRoles[1] = []int64{10}
	dir.roleRights[10] = []string{"view_user"}

	expiredCodec := NewCodec("test-secret", time.Hour)
	expiredCodec.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredToken := issueFor(t, expiredCodec, 1)

	tests := []struct {
		name          string
		authorization string
		rights        []string
		wantStatus    int
		wantCode      ErrorCode
	}{
		{
			name:       "missing header",
			wantStatus: http.StatusUnauthorized,
			wantCode:   CodeMissingCredential,
		},
		{
			name:          "wrong scheme",
			authorization: "Basic dXNlcjpwYXNz",
			wantStatus:    http.StatusBadRequest,
			wantCode:      CodeMalformedAuthorization,
		},
		{
			name:          "scheme without token",
			authorization: "Bearer",
			wantStatus:    http.StatusBadRequest,
			wantCode:      CodeMalformedAuthorization,
		},
		{
			name:          "garbage token",
			authorization: "Bearer not-a-token",
			wantStatus:    http.StatusUnauthorized,
			wantCode:      CodeInvalidToken,
		},
		{
			name:          "expired token",
			authorization: "Bearer " + expiredToken,
			wantStatus:    http.StatusUnauthorized,
			wantCode:      CodeExpiredToken,
		},
		{
			name:          "deleted principal",
			authorization: "Bearer " + issueFor(t, codec, 404),
			wantStatus:    http.StatusUnauthorized,
			wantCode:      CodeUnknownPrincipal,
		},
		{
			name:          "insufficient rights",
			authorization: "Bearer " + issueFor(t, codec, 1),
			rights:        []string{"delete_user"},
			wantStatus:    http.StatusForbidden,
			wantCode:      CodeInsufficientRights,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doGuarded(guard, tt.authorization, tt.rights...)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			body := decodeErrorBody(t, rec)
			if body["code"] != string(tt.wantCode) {
				t.Errorf("expected code %q, got %q", tt.wantCode, body["code"])
			}
			if tt.wantStatus == http.StatusUnauthorized && rec.Header().Get("WWW-Authenticate") != BearerScheme {
				t.Error("expected WWW-Authenticate challenge on 401")
			}
		})
	}
}

func TestGuard_Require_DirectoryFailureIsInternal(t *testing.T) {
	guard, codec, dir := guardFixture(t)
	dir.addUser(1, true)
	dir.rolesErr = errors.New("connection refused")

	rec := doGuarded(guard, "Bearer "+issueFor(t, codec, 1), "view_user")

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rec.Code)
	}
	body := decodeErrorBody(t, rec)
	if body["code"] != string(CodeInternalError) {
		t.Errorf("expected code %q, got %q", CodeInternalError, body["code"])
	}
}

func TestGuard_Require_SuccessPopulatesContext(t *testing.T) {
	guard, codec, dir := guardFixture(t)
	dir.addUser(1, true)
	dir.userRoles[1] = []int64{10}
	dir.roleRights[10] = []string{"view_user", "list_users"}

	var gc *Context
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gc = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(AuthorizationHeader, "Bearer "+issueFor(t, codec, 1))
	rec := httptest.NewRecorder()
	guard.Require("view_user")(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if gc == nil {
		t.Fatal("expected guard context in request")
	}
	if gc.Principal == nil || gc.Principal.ID != 1 {
		t.Errorf("expected principal 1, got %+v", gc.Principal)
	}
	if gc.Claims == nil || gc.Claims.Subject != 1 {
		t.Errorf("expected claims subject 1, got %+v", gc.Claims)
	}
	if _, ok := gc.Rights["list_users"]; !ok {
		t.Errorf("expected resolved rights to carry list_users, got %v", gc.Rights)
	}
	if len(gc.Matched) != 1 || gc.Matched[0] != "view_user" {
		t.Errorf("expected matched [view_user], got %v", gc.Matched)
	}
}

func TestGuard_Require_AuthenticationOnly(t *testing.T) {
	guard, codec, dir := guardFixture(t)
	dir.addUser(1, true)

	var gc *Context
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gc = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set(AuthorizationHeader, "Bearer "+issueFor(t, codec, 1))
	rec := httptest.NewRecorder()
	guard.Require()(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 without a rights requirement, got %d", rec.Code)
	}
	if gc == nil || gc.Principal == nil {
		t.Fatal("expected guard context with principal")
	}
	if gc.Rights != nil {
		t.Errorf("expected no resolved rights for authentication-only check, got %v", gc.Rights)
	}
}

func TestGuard_Observe(t *testing.T) {
	guard, codec, dir := guardFixture(t)
	dir.addUser(1, true)
	dir.userRoles[1] = []int64{10}
	dir.roleRights[10] = []string{"view_user"}

	var codes []ErrorCode
	guard.Observe(func(code ErrorCode) { codes = append(codes, code) })

	doGuarded(guard, "Bearer "+issueFor(t, codec, 1), "view_user")
	doGuarded(guard, "", "view_user")
	doGuarded(guard, "Bearer "+issueFor(t, codec, 1), "delete_user")

	want := []ErrorCode{"", CodeMissingCredential, CodeInsufficientRights}
	if len(codes) != len(want) {
		t.Fatalf("expected codes %v, got %v", want, codes)
	}
	for i, code := range want {
		if codes[i] != code {
			t.Fatalf("expected codes %v, got %v", want, codes)
		}
	}
}

func TestNoLimitsSatisfiesAnyGuard(t *testing.T) {
	guard, codec, dir := guardFixture(t)
	dir.addUser(1, true)
	dir.userRoles[1] = []int64{10}
	dir.roleRights[10] = []string{domain.RightNoLimits}

	rec := doGuarded(guard, "Bearer "+issueFor(t, codec, 1), "delete_user", "manage_roles")
	if rec.Code != http.StatusOK {
		t.Errorf("expected no_limits to pass any requirement, got status %d", rec.Code)
	}
}
