package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vietddude/txsubmit/internal/core/domain"
	"github.com/vietddude/txsubmit/internal/infra/storage"
	"github.com/vietddude/txsubmit/internal/submit"
)

type fakeApp struct {
	lastRaw  []byte
	lastOpts domain.SubmissionOptions
	record   *domain.SubmissionRecord
	review   []*domain.SubmissionRecord
	resolved []string
	health   error
}

func (f *fakeApp) Defaults() domain.SubmissionOptions {
	return domain.DefaultSubmissionOptions()
}

func (f *fakeApp) SubmitRaw(ctx context.Context, raw []byte, opts domain.SubmissionOptions) (*domain.SubmissionRecord, error) {
	f.lastRaw = raw
	f.lastOpts = opts
	if opts.MaxRetries < 0 {
		return nil, submit.ErrInvalidOptions
	}
	return f.record, nil
}

func (f *fakeApp) Record(ctx context.Context, id string) (*domain.SubmissionRecord, error) {
	if f.record != nil && f.record.ID == id {
		return f.record, nil
	}
	return nil, storage.ErrNotFound
}

func (f *fakeApp) PendingReview(ctx context.Context) ([]*domain.SubmissionRecord, error) {
	return f.review, nil
}

func (f *fakeApp) Resolve(ctx context.Context, id string) error {
	f.resolved = append(f.resolved, id)
	return nil
}

func (f *fakeApp) Health(ctx context.Context) error {
	return f.health
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return out
}

func TestHandleSubmit_Confirmed(t *testing.T) {
	app := &fakeApp{record: &domain.SubmissionRecord{
		ID:        "id-1",
		Status:    domain.SubmissionStatusConfirmed,
		Signature: "sig-1",
	}}
	h := New(app, 0).Handler()

	rec := do(t, h, http.MethodPost, "/v1/transactions", `{"transaction":"AQID","max_retries":1,"skip_preflight":true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	if body["signature"] != "sig-1" || body["status"] != "confirmed" {
		t.Errorf("unexpected body: %v", body)
	}
	if !bytes.Equal(app.lastRaw, []byte{1, 2, 3}) {
		t.Errorf("unexpected raw payload %v", app.lastRaw)
	}
	if app.lastOpts.MaxRetries != 1 || !app.lastOpts.SendOptions.SkipPreflight {
		t.Errorf("options not forwarded: %+v", app.lastOpts)
	}
}

func TestHandleSubmit_Failed(t *testing.T) {
	app := &fakeApp{record: &domain.SubmissionRecord{
		ID:       "id-2",
		Status:   domain.SubmissionStatusFailed,
		Verdict:  "fatal_program_logic",
		Message:  "This room is no longer available.",
		Attempts: 1,
	}}
	h := New(app, 0).Handler()

	rec := do(t, h, http.MethodPost, "/v1/transactions", `{"transaction":"AQID"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	body := decode(t, rec)
	if body["verdict"] != "fatal_program_logic" || body["error"] != "This room is no longer available." {
		t.Errorf("unexpected body: %v", body)
	}
	if _, ok := body["signature"]; ok {
		t.Errorf("failed submission without signature must not report one: %v", body)
	}
}

func TestHandleSubmit_BadRequest(t *testing.T) {
	h := New(&fakeApp{}, 0).Handler()

	tests := []string{
		`not json`,
		`{"transaction":"%%%"}`,
		`{"transaction":""}`,
		`{"transaction":"AQID","max_retries":-1}`,
	}
	for _, body := range tests {
		if rec := do(t, h, http.MethodPost, "/v1/transactions", body); rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestHandleClassify(t *testing.T) {
	h := New(&fakeApp{}, 0).Handler()

	rec := do(t, h, http.MethodPost, "/v1/classify", `{"error":"User rejected the request."}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decode(t, rec)
	if body["verdict"] != "fatal_user_cancelled" {
		t.Errorf("unexpected verdict: %v", body["verdict"])
	}
	if body["message"] != "Transaction was cancelled in your wallet." {
		t.Errorf("unexpected message: %v", body["message"])
	}
}

func TestHandleGet(t *testing.T) {
	app := &fakeApp{record: &domain.SubmissionRecord{ID: "id-3", Status: domain.SubmissionStatusConfirmed}}
	h := New(app, 0).Handler()

	if rec := do(t, h, http.MethodGet, "/v1/submissions/id-3", ""); rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/v1/submissions/nope", ""); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	app := &fakeApp{}
	h := New(app, 0).Handler()

	if rec := do(t, h, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	app.health = errors.New("node is behind")
	rec := do(t, h, http.MethodGet, "/health", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
	if body := decode(t, rec); body["status"] != "critical" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestHandleReview(t *testing.T) {
	app := &fakeApp{review: []*domain.SubmissionRecord{
		{ID: "f-1", Status: domain.SubmissionStatusFailed, Verdict: "retryable"},
	}}
	h := New(app, 0).Handler()

	rec := do(t, h, http.MethodGet, "/v1/review", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var list []domain.SubmissionRecord
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	if len(list) != 1 || list[0].ID != "f-1" {
		t.Errorf("unexpected review list: %+v", list)
	}

	rec = do(t, h, http.MethodDelete, "/v1/review/f-1", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(app.resolved) != 1 || app.resolved[0] != "f-1" {
		t.Errorf("expected f-1 resolved, got %v", app.resolved)
	}
}

func TestHandleReview_EmptyIsArray(t *testing.T) {
	h := New(&fakeApp{}, 0).Handler()

	rec := do(t, h, http.MethodGet, "/v1/review", "")
	if got := bytes.TrimSpace(rec.Body.Bytes()); string(got) != "[]" {
		t.Errorf("expected empty array, got %s", got)
	}
}
