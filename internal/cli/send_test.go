package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// newLedger serves the JSON-RPC calls a send makes. sendErr, when set, is
// returned as the sendTransaction error object.
func newLedger(t *testing.T, sendErr map[string]any) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Method string `json:"method"`
			ID     any    `json:"id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode body: %v", err)
			return
		}

		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		switch req.Method {
		case "getLatestBlockhash":
			resp["result"] = map[string]any{
				"context": map[string]any{"slot": 1},
				"value":   map[string]any{"blockhash": "hash", "lastValidBlockHeight": 100},
			}
		case "sendTransaction":
			if sendErr != nil {
				resp["error"] = sendErr
			} else {
				resp["result"] = "sig-ok"
			}
		case "getSignatureStatuses":
			resp["result"] = map[string]any{
				"value": []any{map[string]any{"slot": 2, "confirmationStatus": "confirmed"}},
			}
		case "getBlockHeight":
			resp["result"] = 1
		default:
			resp["error"] = map[string]any{"code": -32601, "message": "Method not found"}
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)
	return server
}

func writeConfig(t *testing.T, ledgerURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := fmt.Sprintf(`ledger:
  poll_interval: 5ms
  providers:
    - name: test
      url: %s
submit:
  max_retries: 0
  settle_delay: 0s
  resend_delay: 0s
  max_jitter: 0s
`, ledgerURL)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestSendCommand_Confirmed(t *testing.T) {
	path := writeConfig(t, newLedger(t, nil).URL)

	stdout, _, err := execute(t, "send", "--config", path, "--tx", "AQID")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.TrimSpace(stdout) != "sig-ok" {
		t.Errorf("expected signature on stdout, got %q", stdout)
	}
}

func TestSendCommand_FailureReturnsInsteadOfExiting(t *testing.T) {
	ledger := newLedger(t, map[string]any{
		"code":    -32002,
		"message": "Transaction simulation failed: custom program error: 0x1770",
	})
	path := writeConfig(t, ledger.URL)

	_, stderr, err := execute(t, "send", "--config", path, "--tx", "AQID")
	if !errors.Is(err, errSubmissionFailed) {
		t.Fatalf("expected errSubmissionFailed, got %v", err)
	}
	if !strings.Contains(stderr, "no longer available") {
		t.Errorf("expected user message on stderr, got %q", stderr)
	}
}

func TestSendCommand_BadInput(t *testing.T) {
	path := writeConfig(t, newLedger(t, nil).URL)

	_, _, err := execute(t, "send", "--config", path, "--tx", "not base64!")
	if err == nil || errors.Is(err, errSubmissionFailed) {
		t.Errorf("expected an input error, got %v", err)
	}
}
