package validator

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"arcvault.com/internal/infrastructure/logger"
)

func signDelivery(secret string, timestamp int64, nonce, body string) string {
	message := strconv.FormatInt(timestamp, 10) + "\n" + nonce + "\n" + body
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestHMACValidator_ValidateDelivery(t *testing.T) {
	secret := "test-secret-key"
	tolerance := 5 * time.Minute
	log := logger.NewLogger()
	v := NewHMACValidator(secret, tolerance, log)

	body := `{"messageId":"msg-1","sourceNetworkId":"netX","sender":"remote-vault","asset":"USDC","amount":"25"}`

	tests := []struct {
		name        string
		timestamp   int64
		nonce       string
		signature   string
		sign        bool
		wantErr     bool
		errContains string
	}{
		{
			name:      "valid delivery",
			timestamp: time.Now().Unix(),
			nonce:     "unique-nonce-1",
			sign:      true,
			wantErr:   false,
		},
		{
			name:        "missing timestamp header",
			timestamp:   0,
			nonce:       "unique-nonce-2",
			signature:   "dummy",
			wantErr:     true,
			errContains: "missing X-Timestamp",
		},
		{
			name:        "missing nonce header",
			timestamp:   time.Now().Unix(),
			nonce:       "",
			signature:   "dummy",
			wantErr:     true,
			errContains: "missing X-Nonce",
		},
		{
			name:        "missing signature header",
			timestamp:   time.Now().Unix(),
			nonce:       "unique-nonce-3",
			wantErr:     true,
			errContains: "missing X-Signature",
		},
		{
			name:        "timestamp in the future",
			timestamp:   time.Now().Add(10 * time.Minute).Unix(),
			nonce:       "unique-nonce-4",
			signature:   "dummy",
			wantErr:     true,
			errContains: "timestamp out of tolerance",
		},
		{
			name:        "timestamp in the past",
			timestamp:   time.Now().Add(-10 * time.Minute).Unix(),
			nonce:       "unique-nonce-5",
			signature:   "dummy",
			wantErr:     true,
			errContains: "timestamp out of tolerance",
		},
		{
			name:        "tampered signature",
			timestamp:   time.Now().Unix(),
			nonce:       "unique-nonce-6",
			signature:   "deadbeef",
			wantErr:     true,
			errContains: "invalid signature",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/bridge/delivery", nil)
			if tt.timestamp != 0 {
				req.Header.Set("X-Timestamp", strconv.FormatInt(tt.timestamp, 10))
			}
			if tt.nonce != "" {
				req.Header.Set("X-Nonce", tt.nonce)
			}
			if tt.sign {
				tt.signature = signDelivery(secret, tt.timestamp, tt.nonce, body)
			}
			if tt.signature != "" {
				req.Header.Set("X-Signature", tt.signature)
			}

			err := v.ValidateDelivery(context.Background(), req, []byte(body))
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDelivery() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && err != nil && !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("ValidateDelivery() error = %v, should contain %q", err, tt.errContains)
			}
		})
	}
}

func TestHMACValidator_TamperedBody(t *testing.T) {
	secret := "test-secret-key"
	v := NewHMACValidator(secret, 5*time.Minute, logger.NewLogger())

	timestamp := time.Now().Unix()
	body := `{"messageId":"msg-1","asset":"USDC","amount":"25"}`

	req := httptest.NewRequest(http.MethodPost, "/bridge/delivery", nil)
	req.Header.Set("X-Timestamp", strconv.FormatInt(timestamp, 10))
	req.Header.Set("X-Nonce", "tamper-nonce-1")
	req.Header.Set("X-Signature", signDelivery(secret, timestamp, "tamper-nonce-1", body))

	tampered := strings.Replace(body, `"25"`, `"2500"`, 1)
	err := v.ValidateDelivery(context.Background(), req, []byte(tampered))
	if err == nil || !strings.Contains(err.Error(), "invalid signature") {
		t.Errorf("ValidateDelivery() with tampered body = %v, want invalid signature", err)
	}
}

func TestHMACValidator_ReplayedDelivery(t *testing.T) {
	secret := "test-secret-key"
	v := NewHMACValidator(secret, 5*time.Minute, logger.NewLogger())

	timestamp := time.Now().Unix()
	nonce := "replay-nonce-1"
	body := `{"messageId":"msg-1","asset":"USDC","amount":"25"}`

	req := httptest.NewRequest(http.MethodPost, "/bridge/delivery", nil)
	req.Header.Set("X-Timestamp", strconv.FormatInt(timestamp, 10))
	req.Header.Set("X-Nonce", nonce)
	req.Header.Set("X-Signature", signDelivery(secret, timestamp, nonce, body))

	if err := v.ValidateDelivery(context.Background(), req, []byte(body)); err != nil {
		t.Fatalf("first delivery should pass, got %v", err)
	}

	err := v.ValidateDelivery(context.Background(), req, []byte(body))
	if err == nil || !strings.Contains(err.Error(), "duplicate nonce") {
		t.Errorf("replayed delivery = %v, want duplicate nonce error", err)
	}
}

func TestNonceStore_Accept(t *testing.T) {
	store := NewNonceStore()
	now := time.Now()

	if !store.Accept("nonce-1", now) {
		t.Error("first use of nonce should be accepted")
	}
	if store.Accept("nonce-1", now) {
		t.Error("reuse of nonce should be rejected")
	}
	if !store.Accept("nonce-2", now) {
		t.Error("different nonce should be accepted")
	}
}
