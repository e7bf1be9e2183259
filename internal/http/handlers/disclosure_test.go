package handlers

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/imarises/TrustScore-FHE/internal/domain/disclosure"
	"github.com/imarises/TrustScore-FHE/internal/fhe"
)

type fakeDisclosureService struct {
	queued    []disclosure.Target
	committed []disclosure.Target
	queueErr  error
	commitErr error
}

func (f *fakeDisclosureService) Queue(_ context.Context, target disclosure.Target, _ string) error {
	if f.queueErr != nil {
		return f.queueErr
	}
	f.queued = append(f.queued, target)
	return nil
}

func (f *fakeDisclosureService) Commit(_ context.Context, target disclosure.Target, _, _ []byte) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	f.committed = append(f.committed, target)
	return nil
}

func disclosureRouter(svc DisclosureService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("principal_id", "principal-1")
		c.Set("principal_role", "borrower")
	})
	h := NewDisclosureHandler(svc)
	r.POST("/v1/loans/:index/disclose", h.DiscloseLoan)
	r.POST("/v1/loans/:index/verify", h.VerifyLoan)
	r.POST("/v1/score/disclose", h.DiscloseScore)
	r.POST("/v1/score/verify", h.VerifyScore)
	return r
}

func commitBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]string{
		"clear_value": "0x" + hex.EncodeToString(fhe.EncodeWord(800)),
		"proof":       "0x" + hex.EncodeToString([]byte(`{"version":"attest-v1"}`)),
	})
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return body
}

func TestDiscloseLoanHTTPQueues(t *testing.T) {
	svc := &fakeDisclosureService{}
	r := disclosureRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/loans/2/disclose", nil))
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
	if len(svc.queued) != 1 {
		t.Fatalf("expected 1 queued disclosure, got %d", len(svc.queued))
	}
	target := svc.queued[0]
	if target.Kind != disclosure.TargetLoan || target.Principal != "principal-1" || target.Index != 2 {
		t.Fatalf("unexpected target: %+v", target)
	}
}

func TestDiscloseScoreHTTPForOtherPrincipal(t *testing.T) {
	svc := &fakeDisclosureService{}
	r := disclosureRouter(svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/score/disclose?principal=other-principal", nil))
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}
	if svc.queued[0].Principal != "other-principal" {
		t.Fatalf("query principal should override the caller, got %+v", svc.queued[0])
	}
}

func TestVerifyLoanHTTPCommits(t *testing.T) {
	svc := &fakeDisclosureService{}
	r := disclosureRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/loans/0/verify", bytes.NewReader(commitBody(t)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(svc.committed) != 1 || svc.committed[0].Kind != disclosure.TargetLoan {
		t.Fatalf("unexpected commit targets: %+v", svc.committed)
	}
}

func TestVerifyHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
		code string
	}{
		{disclosure.ErrAlreadyVerified, http.StatusConflict, "already_verified"},
		{disclosure.ErrNotDisclosable, http.StatusForbidden, "not_disclosable"},
		{disclosure.ErrProofMismatch, http.StatusUnprocessableEntity, "proof_mismatch"},
		{disclosure.ErrInvalidProof, http.StatusUnprocessableEntity, "invalid_proof"},
		{disclosure.ErrMalformedClearValue, http.StatusBadRequest, "malformed_clear_value"},
	}
	for _, tc := range cases {
		r := disclosureRouter(&fakeDisclosureService{commitErr: tc.err})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/score/verify", bytes.NewReader(commitBody(t)))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Fatalf("%v: expected %d, got %d", tc.err, tc.want, w.Code)
		}
		var resp map[string]string
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		if resp["error"] != tc.code {
			t.Fatalf("%v: expected error %s, got %s", tc.err, tc.code, resp["error"])
		}
	}
}

func TestVerifyHTTPRejectsBadPayloads(t *testing.T) {
	svc := &fakeDisclosureService{}
	r := disclosureRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/loans/0/verify", bytes.NewBufferString(`{"clear_value":"zz","proof":"00"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad hex, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/loans/minus-one/verify", bytes.NewReader(commitBody(t)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad index, got %d", w.Code)
	}

	if len(svc.committed) != 0 {
		t.Fatalf("rejected requests must not reach the service")
	}
}
