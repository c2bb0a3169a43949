package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/iho/oilledger/internal/domain"
	"github.com/iho/oilledger/internal/infrastructure/auth"
)

func execute(t *testing.T, srv *httptest.Server, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	if srv != nil {
		args = append([]string{"--url", srv.URL}, args...)
	}
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := printJSON(&buf, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("printJSON failed: %v", err)
	}

	expected := "{\n  \"a\": 1\n}\n"
	if buf.String() != expected {
		t.Fatalf("unexpected json output:\n%s", buf.String())
	}
}

func TestLedgerVerify(t *testing.T) {
	var discrepancies atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/ledger/verify" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("expected bearer token, got %q", r.Header.Get("Authorization"))
		}
		list := "[]"
		if discrepancies.Load() > 0 {
			list = `[{"subject_type":"client","subject_id":"CL-001"}]`
		}
		_, _ = io.WriteString(w, `{"total_subjects":1,"reconciled_subjects":1,"discrepancies":`+list+`}`)
	}))
	defer srv.Close()

	out, err := execute(t, srv, "--token", "tok", "ledger", "verify")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !strings.Contains(out, `"total_subjects": 1`) {
		t.Fatalf("expected report output, got %s", out)
	}

	discrepancies.Store(1)
	if _, err := execute(t, srv, "--token", "tok", "ledger", "verify"); err == nil {
		t.Fatal("expected verify to fail when discrepancies are reported")
	}
}

func TestSequenceNext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/sequences/CL-/next" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if _, err := uuid.Parse(r.Header.Get("Idempotency-Key")); err != nil {
			t.Errorf("expected uuid idempotency key: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"prefix":"CL-","id":"CL-004"}`)
	}))
	defer srv.Close()

	out, err := execute(t, srv, "sequence", "next", "CL-")
	if err != nil {
		t.Fatalf("next failed: %v", err)
	}
	if !strings.Contains(out, `"id": "CL-004"`) {
		t.Fatalf("unexpected output %s", out)
	}

	if _, err := execute(t, srv, "sequence", "next", "CL"); err == nil {
		t.Fatal("expected prefix without dash to be rejected locally")
	}
}

func TestTreasuryPostSendsRequest(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":7}`)
	}))
	defer srv.Close()

	_, err := execute(t, srv, "treasury", "post",
		"--source", "client", "--type", "income", "--subject", "CL-001",
		"--amount", "150.25", "--method", "transfer", "--date", "2026-02-03", "--note", "advance")
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}

	want := map[string]any{
		"source":           "client",
		"transaction_type": "income",
		"subject_id":       "CL-001",
		"amount":           "150.25",
		"payment_method":   "transfer",
		"date":             "2026-02-03",
		"note":             "advance",
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("field %s: expected %v, got %v", k, v, got[k])
		}
	}
}

func TestTreasuryPostReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"error":"insufficient balance","message":"client CL-001 has 10"}`)
	}))
	defer srv.Close()

	_, err := execute(t, srv, "treasury", "post", "--source", "client", "--type", "expense",
		"--subject", "CL-001", "--amount", "50")

	var apiErr *apiError
	if err == nil || !errors.As(err, &apiErr) || apiErr.Status != http.StatusConflict {
		t.Fatalf("expected 409 api error, got %v", err)
	}
	if !strings.Contains(err.Error(), "insufficient balance") {
		t.Fatalf("expected server message in error, got %v", err)
	}

	if _, err := execute(t, srv, "treasury", "post", "--source", "client", "--type", "expense", "--amount", "abc"); err == nil {
		t.Fatal("expected invalid amount to fail")
	}
}

func TestTreasuryImportPostsConcurrently(t *testing.T) {
	var (
		mu   sync.Mutex
		keys = map[string]bool{}
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)

		mu.Lock()
		keys[r.Header.Get("Idempotency-Key")] = true
		mu.Unlock()

		if req["subject_id"] == "CL-BAD" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = io.WriteString(w, `{"error":"validation failed","fields":[{"field":"subject_id","message":"references an unknown client"}]}`)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":1}`)
	}))
	defer srv.Close()

	file := filepath.Join(t.TempDir(), "batch.json")
	batch := `[
		{"source":"client","transaction_type":"income","subject_id":"CL-001","amount":"10","payment_method":"cash"},
		{"source":"client","transaction_type":"income","subject_id":"CL-BAD","amount":"10","payment_method":"cash"},
		{"source":"direct","transaction_type":"expense","amount":"3","payment_method":"cash"}
	]`
	if err := os.WriteFile(file, []byte(batch), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, srv, "treasury", "import", file, "--parallel", "2")
	if err == nil || !strings.Contains(err.Error(), "1 of 3 postings failed") {
		t.Fatalf("expected one failure, got %v", err)
	}

	var results []importResult
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode results: %v\n%s", err, out)
	}
	if len(results) != 3 || results[1].Error == "" || results[0].Error != "" || results[2].Error != "" {
		t.Fatalf("unexpected results %+v", results)
	}
	if !strings.Contains(results[1].Error, "subject_id references an unknown client") {
		t.Fatalf("expected field detail in error, got %q", results[1].Error)
	}
	if len(keys) != 3 {
		t.Fatalf("expected a distinct idempotency key per posting, got %d", len(keys))
	}
}

func TestClientStatement(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/clients/CL-002/statement" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":"client not found"}`)
			return
		}
		_, _ = io.WriteString(w, `{"client_id":"CL-002","final_balance":"40"}`)
	}))
	defer srv.Close()

	out, err := execute(t, srv, "client", "statement", "CL-002")
	if err != nil || !strings.Contains(out, `"final_balance": "40"`) {
		t.Fatalf("unexpected statement result %q %v", out, err)
	}

	if _, err := execute(t, srv, "client", "statement", "CL-404"); err == nil {
		t.Fatal("expected 404 to surface as an error")
	}
}

func TestActivityList(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/activity" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		query = r.URL.RawQuery
		_, _ = io.WriteString(w, `[{"id":"a1","action":"sales.delete"}]`)
	}))
	defer srv.Close()

	out, err := execute(t, srv, "activity", "list", "--actor", "u-1", "--limit", "5")
	if err != nil || !strings.Contains(out, `"action": "sales.delete"`) {
		t.Fatalf("unexpected activity result %q %v", out, err)
	}
	if query != "actor_id=u-1&limit=5" {
		t.Fatalf("unexpected query %q", query)
	}
}

func TestTokenIssue(t *testing.T) {
	out, err := execute(t, nil, "token", "issue", "--secret", "s3cret", "--subject", "op-7", "--role", "treasury_manager")
	if err == nil {
		t.Fatalf("expected unknown role to be rejected, got %q", out)
	}

	out, err = execute(t, nil, "token", "issue", "--secret", "s3cret", "--subject", "op-7", "--name", "Mona",
		"--role", string(domain.RoleTransactionManager), "--ttl", "1h")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	claims, err := auth.NewJWTManager("s3cret", time.Hour).Verify(strings.TrimSpace(out))
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.Actor().ID != "op-7" || claims.Role != domain.RoleTransactionManager {
		t.Fatalf("unexpected claims %+v", claims)
	}
}
