package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"ajopot/internal/apperr"
)

func TestHTTPGateway(t *testing.T) {
	ctx := context.Background()

	t.Run("create account", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost || r.URL.Path != "/accounts" {
				t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer sk_test" {
				t.Errorf("Authorization = %q, want bearer api key", got)
			}
			var body map[string]string
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("Failed to decode request: %v", err)
			}
			if body["owner"] != "user-1" {
				t.Errorf("owner = %q, want user-1", body["owner"])
			}
			json.NewEncoder(w).Encode(Account{ID: "acct_1", Status: "active"})
		}))
		defer srv.Close()

		account, err := NewHTTP(srv.URL, "sk_test").CreateAccount(ctx, "user-1")
		if err != nil {
			t.Fatalf("CreateAccount failed: %v", err)
		}
		if account.ID != "acct_1" {
			t.Errorf("ID = %s, want acct_1", account.ID)
		}
	})

	t.Run("create transfer", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("Failed to decode request: %v", err)
			}
			json.NewEncoder(w).Encode(Transfer{
				ID:          "tr_1",
				Amount:      body["amount"].(float64),
				Destination: body["destination"].(string),
				Status:      "paid",
			})
		}))
		defer srv.Close()

		transfer, err := NewHTTP(srv.URL, "").CreateTransfer(ctx, 12.5, "acct_1")
		if err != nil {
			t.Fatalf("CreateTransfer failed: %v", err)
		}
		if transfer.Amount != 12.5 || transfer.Destination != "acct_1" {
			t.Errorf("Transfer mismatch: %+v", transfer)
		}
	})

	t.Run("provider error surfaces as bad gateway", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "insufficient balance", http.StatusPaymentRequired)
		}))
		defer srv.Close()

		_, err := NewHTTP(srv.URL, "").CreateTransfer(ctx, 5.0, "acct_1")
		if !apperr.Is(err, apperr.KindBadGateway) {
			t.Errorf("Expected bad gateway, got %v", err)
		}
	})

	t.Run("unreachable provider surfaces as bad gateway", func(t *testing.T) {
		_, err := NewHTTP("http://127.0.0.1:1", "").RetrieveAccount(ctx, "acct_1")
		if !apperr.Is(err, apperr.KindBadGateway) {
			t.Errorf("Expected bad gateway, got %v", err)
		}
	})

	t.Run("malformed response surfaces as bad gateway", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json"))
		}))
		defer srv.Close()

		_, err := NewHTTP(srv.URL, "").RetrieveAccount(ctx, "acct_1")
		if !apperr.Is(err, apperr.KindBadGateway) {
			t.Errorf("Expected bad gateway, got %v", err)
		}
	})
}
