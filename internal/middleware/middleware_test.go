package middleware

import (
	"compress/gzip"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func okHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	})
}

// ============================================================================
// Chain Tests
// ============================================================================

func TestChain_NoMiddlewares_ReturnsHandler(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	Chain(okHandler("board")).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Body.String() != "board" {
		t.Errorf("expected body 'board', got %q", rr.Body.String())
	}
}

func TestChain_MultipleMiddlewares_AppliesInOrder(t *testing.T) {
	t.Parallel()

	tag := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(name + ">"))
				next.ServeHTTP(w, r)
			})
		}
	}

	rr := httptest.NewRecorder()
	Chain(okHandler("h"), tag("a"), tag("b"), tag("c")).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Body.String() != "a>b>c>h" {
		t.Errorf("expected 'a>b>c>h', got %q", rr.Body.String())
	}
}

// ============================================================================
// RequestID Tests
// ============================================================================

func TestRequestID_NoHeader_GeneratesUUID(t *testing.T) {
	t.Parallel()
	handler := &captureHandler{}

	rr := httptest.NewRecorder()
	RequestID(handler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	id := GetRequestID(handler.ctx)
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("expected a UUID request id, got %q", id)
	}
	if rr.Header().Get("X-Request-ID") != id {
		t.Errorf("expected response header %q, got %q", id, rr.Header().Get("X-Request-ID"))
	}
}

func TestRequestID_WithHeader_PreservesExisting(t *testing.T) {
	t.Parallel()
	handler := &captureHandler{}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "req-42")

	RequestID(handler).ServeHTTP(httptest.NewRecorder(), req)

	if got := GetRequestID(handler.ctx); got != "req-42" {
		t.Errorf("expected 'req-42', got %q", got)
	}
}

func TestGetRequestID_Missing_ReturnsEmpty(t *testing.T) {
	t.Parallel()

	if got := GetRequestID(context.Background()); got != "" {
		t.Errorf("expected empty request id, got %q", got)
	}
	ctx := context.WithValue(context.Background(), RequestIDKey, 42)
	if got := GetRequestID(ctx); got != "" {
		t.Errorf("expected empty request id for wrong type, got %q", got)
	}
}

// ============================================================================
// Recovery Tests
// ============================================================================

func TestRecovery_NoPanic_ProceedsNormally(t *testing.T) {
	t.Parallel()

	rr := httptest.NewRecorder()
	Recovery(okHandler("fine")).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusOK || rr.Body.String() != "fine" {
		t.Errorf("expected 200 'fine', got %d %q", rr.Code, rr.Body.String())
	}
}

func TestRecovery_WithPanic_ReturnsProblemJSON(t *testing.T) {
	t.Parallel()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("roster exploded")
	})

	rr := httptest.NewRecorder()
	Recovery(handler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("expected problem+json, got %q", ct)
	}
	if !strings.Contains(rr.Body.String(), "Internal Server Error") {
		t.Errorf("expected title in body, got %q", rr.Body.String())
	}
	if strings.Contains(rr.Body.String(), "roster exploded") {
		t.Error("panic value must not leak to the client")
	}
}

// ============================================================================
// CORS Tests
// ============================================================================

func TestCORS_Origins(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    string
	}{
		{"listed origin", []string{"https://lfg.example", "https://admin.example"}, "https://lfg.example", "https://lfg.example"},
		{"unlisted origin", []string{"https://lfg.example"}, "https://evil.example", ""},
		{"wildcard", []string{"*"}, "https://any.example", "https://any.example"},
		{"no origin header", []string{"*"}, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rr := httptest.NewRecorder()

			CORS(tt.allowed)(okHandler("ok")).ServeHTTP(rr, req)

			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("expected Allow-Origin %q, got %q", tt.want, got)
			}
			if rr.Code != http.StatusOK {
				t.Errorf("expected status 200, got %d", rr.Code)
			}
		})
	}
}

func TestCORS_PreflightRequest_Returns204(t *testing.T) {
	t.Parallel()
	handler := &captureHandler{}
	req := httptest.NewRequest(http.MethodOptions, "/v1/posts", nil)
	req.Header.Set("Origin", "https://lfg.example")
	rr := httptest.NewRecorder()

	CORS([]string{"https://lfg.example"})(handler).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Errorf("expected status 204, got %d", rr.Code)
	}
	if handler.called {
		t.Error("handler should not be called for preflight request")
	}
	if !strings.Contains(rr.Header().Get("Access-Control-Allow-Methods"), "PATCH") {
		t.Errorf("expected PATCH in allowed methods, got %q", rr.Header().Get("Access-Control-Allow-Methods"))
	}
}

// ============================================================================
// Compress Tests
// ============================================================================

func TestCompress_AcceptsGzip_CompressesResponse(t *testing.T) {
	t.Parallel()
	body := "<html>looking for group</html>"
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	rr := httptest.NewRecorder()

	Compress(okHandler(body)).ServeHTTP(rr, req)

	if rr.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip encoding, got %q", rr.Header().Get("Content-Encoding"))
	}
	reader, err := gzip.NewReader(rr.Body)
	if err != nil {
		t.Fatalf("failed to create gzip reader: %v", err)
	}
	defer func() { _ = reader.Close() }()
	decompressed, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("failed to read decompressed data: %v", err)
	}
	if string(decompressed) != body {
		t.Errorf("decompressed content mismatch: %q", string(decompressed))
	}
}

func TestCompress_NoGzipAccept_DoesNotCompress(t *testing.T) {
	t.Parallel()
	rr := httptest.NewRecorder()

	Compress(okHandler("plain")).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Header().Get("Content-Encoding") != "" || rr.Body.String() != "plain" {
		t.Errorf("expected uncompressed 'plain', got %q (%q)", rr.Body.String(), rr.Header().Get("Content-Encoding"))
	}
}

func TestCompress_EventStream_DoesNotCompress(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest(http.MethodGet, "/v1/events/stream", nil)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Accept-Encoding", "gzip")
	rr := httptest.NewRecorder()

	Compress(okHandler("event: connected\n\n")).ServeHTTP(rr, req)

	if rr.Header().Get("Content-Encoding") == "gzip" {
		t.Error("should not compress event streams")
	}
}

// ============================================================================
// responseWriter Tests
// ============================================================================

func TestResponseWriter_CapturesFirstStatusCode(t *testing.T) {
	t.Parallel()
	rr := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rr, statusCode: http.StatusOK}

	rw.WriteHeader(http.StatusSeeOther)
	rw.WriteHeader(http.StatusInternalServerError)

	if rw.statusCode != http.StatusSeeOther {
		t.Errorf("expected captured status 303, got %d", rw.statusCode)
	}
}

func TestResponseWriter_FlushReachesRecorder(t *testing.T) {
	t.Parallel()
	rr := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rr, statusCode: http.StatusOK}

	rw.Flush()

	if !rr.Flushed {
		t.Error("expected flush to pass through the wrapper")
	}
	if rw.Unwrap() != rr {
		t.Error("expected Unwrap to return the underlying writer")
	}
}

func TestLogger_CompletesRequest(t *testing.T) {
	t.Parallel()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("created"))
	})
	rr := httptest.NewRecorder()

	Logger(handler).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/posts", nil))

	if rr.Code != http.StatusCreated || rr.Body.String() != "created" {
		t.Errorf("expected 201 'created', got %d %q", rr.Code, rr.Body.String())
	}
}

// ============================================================================
// Trace Tests
// ============================================================================

func TestTrace_RecordsServerSpan(t *testing.T) {
	t.Parallel()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := provider.Tracer("test")

	failing := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	rr := httptest.NewRecorder()
	Trace(tracer)(failing).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/board", nil))

	spans := recorder.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "GET /v1/board" {
		t.Errorf("expected span name 'GET /v1/board', got %q", spans[0].Name())
	}
	if spans[0].Status().Code != codes.Error {
		t.Errorf("expected error status for 503, got %v", spans[0].Status().Code)
	}
}
