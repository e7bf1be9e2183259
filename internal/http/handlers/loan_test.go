package handlers

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/imarises/TrustScore-FHE/internal/domain/ledger"
	"github.com/imarises/TrustScore-FHE/internal/fhe"
)

type fakeLoanService struct {
	created []ledger.CreateLoanInput
	records []ledger.Record
	err     error
}

func (f *fakeLoanService) CreateLoan(_ context.Context, in ledger.CreateLoanInput) (*ledger.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, in)
	rec := ledger.Record{
		Borrower:           in.Borrower,
		Index:              int32(len(f.records)),
		EncryptedRepayment: fhe.Handle("0xhandle"),
		LoanAmount:         in.LoanAmount,
		DueDate:            in.DueDate,
		CreatedAt:          time.Now(),
	}
	f.records = append(f.records, rec)
	return &rec, nil
}

func (f *fakeLoanService) GetLoans(_ context.Context, _ string) ([]ledger.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func loanRouter(svc LoanService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("principal_id", "principal-1")
		c.Set("principal_role", "borrower")
	})
	h := NewLoanHandler(svc)
	r.POST("/v1/loans", h.CreateLoan)
	r.GET("/v1/loans", h.ListLoans)
	return r
}

func createLoanBody(t *testing.T, amount int64) []byte {
	t.Helper()
	ct := fhe.EncodeWord(800)
	body, err := json.Marshal(map[string]any{
		"ciphertext":  "0x" + hex.EncodeToString(ct),
		"input_proof": "0x" + hex.EncodeToString(fhe.InputProof(ct)),
		"loan_amount": amount,
		"due_date":    time.Now().UTC().Add(90 * 24 * time.Hour).Format(time.RFC3339),
	})
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return body
}

func TestCreateLoanHTTP(t *testing.T) {
	svc := &fakeLoanService{}
	r := loanRouter(svc)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/loans", bytes.NewReader(createLoanBody(t, 1000)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if len(svc.created) != 1 || svc.created[0].Borrower != "principal-1" {
		t.Fatalf("unexpected create input: %+v", svc.created)
	}
	if len(svc.created[0].Ciphertext) != fhe.WordSize {
		t.Fatalf("ciphertext should be hex-decoded to %d bytes", fhe.WordSize)
	}

	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp["is_verified"] != false {
		t.Fatalf("new loan must answer unverified: %v", resp)
	}
	if _, ok := resp["clear_repayment"]; ok {
		t.Fatalf("unverified loan must not expose clear_repayment: %v", resp)
	}
}

func TestCreateLoanHTTPRejectsBadRequests(t *testing.T) {
	svc := &fakeLoanService{}
	r := loanRouter(svc)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"missing fields", `{}`, http.StatusBadRequest},
		{"bad hex", `{"ciphertext":"zz","input_proof":"00","loan_amount":1,"due_date":"2026-09-01T00:00:00Z"}`, http.StatusBadRequest},
		{"bad date", `{"ciphertext":"00","input_proof":"00","loan_amount":1,"due_date":"tomorrow"}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/loans", bytes.NewBufferString(tc.body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d: %s", tc.name, tc.want, w.Code, w.Body.String())
		}
	}
	if len(svc.created) != 0 {
		t.Fatalf("rejected requests must not reach the service")
	}
}

func TestCreateLoanHTTPMapsDomainErrors(t *testing.T) {
	cases := []struct {
		err  error
		want int
		code string
	}{
		{ledger.ErrInvalidLoanAmount, http.StatusBadRequest, "invalid_loan_amount"},
		{fhe.ErrInvalidCiphertext, http.StatusBadRequest, "invalid_ciphertext"},
	}
	for _, tc := range cases {
		r := loanRouter(&fakeLoanService{err: tc.err})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/loans", bytes.NewReader(createLoanBody(t, 1000)))
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

func TestListLoansHTTP(t *testing.T) {
	svc := &fakeLoanService{}
	r := loanRouter(svc)

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/loans", bytes.NewReader(createLoanBody(t, int64(1000*(i+1)))))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusCreated {
			t.Fatalf("seed loan %d: %d", i, w.Code)
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/loans", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp struct {
		Items []map[string]any `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(resp.Items))
	}
	for i, item := range resp.Items {
		if fmt.Sprintf("%v", item["index"]) != fmt.Sprintf("%d", i) {
			t.Fatalf("expected ascending indexes, got %v", resp.Items)
		}
	}
}
