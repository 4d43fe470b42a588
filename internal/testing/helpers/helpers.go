// Package helpers provides common test utilities for HTTP handler tests.
//
// This package includes request builders, token minting, and assertion
// helpers for the JSON API and the HTML pages.
package helpers

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"github.com/forgo/lfg/internal/model"
	"github.com/forgo/lfg/pkg/jwt"
)

// ============================================================================
// JWT Helpers
// ============================================================================

// JWTHelper mints tokens for test users
type JWTHelper struct {
	Service *jwt.Service
}

// NewJWTHelper creates a JWT helper with an in-memory key
func NewJWTHelper(t *testing.T) *JWTHelper {
	t.Helper()
	return &JWTHelper{Service: NewTestJWTService(t)}
}

// GenerateToken creates a valid token carrying the user's id, name and role
func (h *JWTHelper) GenerateToken(t *testing.T, user *model.User) string {
	t.Helper()
	token, err := h.Service.Sign(jwt.Claims{
		RegisteredClaims: gojwt.RegisteredClaims{Subject: user.ID},
		Name:             user.DisplayName,
		Role:             string(user.Role),
	})
	if err != nil {
		t.Fatalf("helpers: sign token: %v", err)
	}
	return token
}

// GenerateExpiredToken creates a token that expired an hour ago
func (h *JWTHelper) GenerateExpiredToken(t *testing.T, user *model.User) string {
	t.Helper()
	past := time.Now().Add(-2 * time.Hour)
	token, err := h.Service.Sign(jwt.Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: gojwt.NewNumericDate(past.Add(time.Hour)),
		},
		Role: string(user.Role),
	})
	if err != nil {
		t.Fatalf("helpers: sign token: %v", err)
	}
	return token
}

// NewTestJWTService creates a JWT service with in-memory keys for testing
func NewTestJWTService(t *testing.T) *jwt.Service {
	t.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("helpers: failed to generate RSA key: %v", err)
	}

	return jwt.NewTestService(privateKey, "lfg-test", 15*time.Minute)
}

// ============================================================================
// HTTP Request Helpers
// ============================================================================

// RequestBuilder helps construct HTTP requests for testing
type RequestBuilder struct {
	t       *testing.T
	method  string
	path    string
	body    interface{}
	form    url.Values
	headers map[string]string
	cookies []*http.Cookie
	token   string
}

// NewRequest creates a new request builder
func NewRequest(t *testing.T, method, path string) *RequestBuilder {
	t.Helper()
	return &RequestBuilder{
		t:       t,
		method:  method,
		path:    path,
		headers: make(map[string]string),
	}
}

// WithBody sets the request body (will be JSON encoded)
func (rb *RequestBuilder) WithBody(body interface{}) *RequestBuilder {
	rb.body = body
	return rb
}

// WithForm sets an urlencoded form body
func (rb *RequestBuilder) WithForm(form url.Values) *RequestBuilder {
	rb.form = form
	return rb
}

// WithHeader adds a header to the request
func (rb *RequestBuilder) WithHeader(key, value string) *RequestBuilder {
	rb.headers[key] = value
	return rb
}

// WithCookie attaches a cookie
func (rb *RequestBuilder) WithCookie(c *http.Cookie) *RequestBuilder {
	rb.cookies = append(rb.cookies, c)
	return rb
}

// WithAuth adds a bearer token for the given user
func (rb *RequestBuilder) WithAuth(h *JWTHelper, user *model.User) *RequestBuilder {
	rb.token = h.GenerateToken(rb.t, user)
	return rb
}

// Build creates the HTTP request
func (rb *RequestBuilder) Build() *http.Request {
	rb.t.Helper()

	var bodyReader io.Reader
	switch {
	case rb.form != nil:
		bodyReader = strings.NewReader(rb.form.Encode())
	case rb.body != nil:
		bodyBytes, err := json.Marshal(rb.body)
		if err != nil {
			rb.t.Fatalf("helpers: failed to marshal body: %v", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req := httptest.NewRequest(rb.method, rb.path, bodyReader)

	switch {
	case rb.form != nil:
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	case rb.body != nil:
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range rb.headers {
		req.Header.Set(k, v)
	}
	for _, c := range rb.cookies {
		req.AddCookie(c)
	}
	if rb.token != "" {
		req.Header.Set("Authorization", "Bearer "+rb.token)
	}

	return req
}

// Serve runs the request through h and returns the recorder
func Serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// ============================================================================
// Response Assertion Helpers
// ============================================================================

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, resp *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if resp.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, resp.Code, resp.Body.String())
	}
}

// AssertRedirect checks for a 303 to location
func AssertRedirect(t *testing.T, resp *httptest.ResponseRecorder, location string) {
	t.Helper()
	AssertStatus(t, resp, http.StatusSeeOther)
	if got := resp.Header().Get("Location"); got != location {
		t.Errorf("expected redirect to %q, got %q", location, got)
	}
}

// AssertProblemDetails validates an RFC 9457 Problem Details error response
func AssertProblemDetails(t *testing.T, resp *httptest.ResponseRecorder, expectedStatus int, expectedCode model.ErrorCode) {
	t.Helper()

	AssertStatus(t, resp, expectedStatus)

	if ct := resp.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("expected problem content type, got %q", ct)
	}

	var problem model.ProblemDetails
	bodyBytes := resp.Body.Bytes()
	if err := json.Unmarshal(bodyBytes, &problem); err != nil {
		t.Fatalf("failed to decode problem details: %v. Body: %s", err, string(bodyBytes))
	}

	if problem.Status != expectedStatus {
		t.Errorf("expected problem.status %d, got %d", expectedStatus, problem.Status)
	}

	if expectedCode != 0 && problem.Code != expectedCode {
		t.Errorf("expected problem.code %d, got %d", expectedCode, problem.Code)
	}
}

// AssertValidationError checks for a validation error on a specific field
func AssertValidationError(t *testing.T, resp *httptest.ResponseRecorder, field string) {
	t.Helper()

	AssertStatus(t, resp, http.StatusUnprocessableEntity)

	var problem model.ProblemDetails
	if err := json.Unmarshal(resp.Body.Bytes(), &problem); err != nil {
		t.Fatalf("failed to decode problem details: %v", err)
	}

	for _, fe := range problem.Errors {
		if fe.Field == field {
			return
		}
	}

	t.Errorf("expected validation error on field %q, but not found. Errors: %+v", field, problem.Errors)
}

// AssertHTML checks for an HTML page containing every fragment
func AssertHTML(t *testing.T, resp *httptest.ResponseRecorder, fragments ...string) {
	t.Helper()

	if ct := resp.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected text/html, got %q", ct)
	}
	body := resp.Body.String()
	for _, f := range fragments {
		if !strings.Contains(body, f) {
			t.Errorf("expected body to contain %q", f)
		}
	}
}

// DecodeData decodes the "data" envelope of a standard response into v
func DecodeData(t *testing.T, resp *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	bodyBytes := resp.Body.Bytes()
	if err := json.Unmarshal(bodyBytes, &envelope); err != nil {
		t.Fatalf("failed to decode response: %v. Body: %s", err, string(bodyBytes))
	}
	if err := json.Unmarshal(envelope.Data, v); err != nil {
		t.Fatalf("failed to decode data: %v. Body: %s", err, string(bodyBytes))
	}
}

// ============================================================================
// Utility Helpers
// ============================================================================

// StringPtr returns a pointer to the string
func StringPtr(s string) *string {
	return &s
}

// IntPtr returns a pointer to the int
func IntPtr(i int) *int {
	return &i
}
