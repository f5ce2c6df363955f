package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type fakeAnswerer struct {
	question string
	answer   string
	err      error
}

func (f *fakeAnswerer) Answer(ctx context.Context, question string) (string, error) {
	f.question = question
	return f.answer, f.err
}

type fakeCounter struct {
	n   int
	err error
}

func (f fakeCounter) Count(ctx context.Context) (int, error) { return f.n, f.err }

func doRequest(h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAsk(t *testing.T) {
	a := &fakeAnswerer{answer: "Yes, see Section 5.2."}
	h := NewServer(a, fakeCounter{}, "byelaws", []string{"*"}).Router()

	rec := doRequest(h, http.MethodPost, "/ask", `{"question":"Can I keep a dog?","extra":1}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp AskResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Answer != "Yes, see Section 5.2." {
		t.Errorf("unexpected answer %q", resp.Answer)
	}
	if a.question != "Can I keep a dog?" {
		t.Errorf("unexpected question %q", a.question)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected request id header")
	}
}

func TestAsk_MissingQuestionPassedThrough(t *testing.T) {
	for _, body := range []string{`{}`, ``, `{"question":""}`} {
		a := &fakeAnswerer{question: "unset", answer: "ok"}
		rec := doRequest(NewServer(a, fakeCounter{}, "byelaws", nil).Router(), http.MethodPost, "/ask", body, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("body %q: expected 200, got %d", body, rec.Code)
		}
		if a.question != "" {
			t.Errorf("body %q: expected empty question, got %q", body, a.question)
		}
	}
}

func TestAsk_Errors(t *testing.T) {
	a := &fakeAnswerer{err: errors.New("groq: 401 invalid api key sk-123")}
	h := NewServer(a, fakeCounter{}, "byelaws", nil).Router()

	rec := doRequest(h, http.MethodPost, "/ask", `{"question":"q"}`, nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "sk-123") {
		t.Error("error details leaked to client")
	}
	if !strings.Contains(rec.Body.String(), "failed to answer question") {
		t.Errorf("unexpected body %s", rec.Body.String())
	}

	rec = doRequest(h, http.MethodPost, "/ask", `{"question":`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed JSON, got %d", rec.Code)
	}

	rec = doRequest(h, http.MethodGet, "/ask", ``, nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for GET /ask, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	h := NewServer(&fakeAnswerer{}, fakeCounter{n: 42}, "byelaws", nil).Router()

	rec := doRequest(h, http.MethodGet, "/health", "", nil)
	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !resp.OK || resp.Chunks != 42 || resp.Collection != "byelaws" {
		t.Errorf("unexpected health %+v", resp)
	}

	h = NewServer(&fakeAnswerer{}, fakeCounter{err: errors.New("closed")}, "byelaws", nil).Router()
	if rec := doRequest(h, http.MethodGet, "/health", "", nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	h := NewServer(&fakeAnswerer{answer: "ok"}, fakeCounter{}, "byelaws", []string{"https://society.example"}).Router()

	rec := doRequest(h, http.MethodOptions, "/ask", "", map[string]string{
		"Origin":                        "https://society.example",
		"Access-Control-Request-Method": "POST",
	})
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204 preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://society.example" {
		t.Errorf("unexpected allow origin %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}

	rec = doRequest(h, http.MethodPost, "/ask", `{"question":"q"}`, map[string]string{"Origin": "https://evil.example"})
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("expected no CORS header for unknown origin")
	}

	wildcard := NewServer(&fakeAnswerer{answer: "ok"}, fakeCounter{}, "byelaws", []string{"*"}).Router()
	rec = doRequest(wildcard, http.MethodPost, "/ask", `{"question":"q"}`, map[string]string{"Origin": "https://any.example"})
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("expected wildcard, got %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestRequestID_Propagated(t *testing.T) {
	h := NewServer(&fakeAnswerer{answer: "ok"}, fakeCounter{}, "byelaws", nil).Router()
	rec := doRequest(h, http.MethodPost, "/ask", `{}`, map[string]string{"X-Request-ID": "abc"})
	if rec.Header().Get("X-Request-ID") != "abc" {
		t.Errorf("expected caller request id, got %q", rec.Header().Get("X-Request-ID"))
	}
}

func TestAsk_RateLimit(t *testing.T) {
	srv := NewServer(&fakeAnswerer{answer: "ok"}, fakeCounter{}, "byelaws", nil)
	srv.SetRateLimit(0.001, 2)
	h := srv.Router()

	for i := 0; i < 2; i++ {
		if rec := doRequest(h, http.MethodPost, "/ask", `{}`, nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}
	if rec := doRequest(h, http.MethodPost, "/ask", `{}`, nil); rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429 after burst, got %d", rec.Code)
	}

	// Health is never limited.
	if rec := doRequest(h, http.MethodGet, "/health", "", nil); rec.Code != http.StatusOK {
		t.Errorf("expected 200 for health, got %d", rec.Code)
	}
}
