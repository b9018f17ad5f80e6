package validator

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"arcvault.com/internal/domain/port"
	"arcvault.com/internal/infrastructure/logger"
)

// NonceStore tracks used nonces so a captured delivery callback cannot be
// replayed.
type NonceStore struct {
	mu     sync.Mutex
	nonces map[string]time.Time
}

// NewNonceStore creates a new nonce store
func NewNonceStore() *NonceStore {
	return &NonceStore{
		nonces: make(map[string]time.Time),
	}
}

// Accept records a nonce, reporting false when it was already seen recently.
func (ns *NonceStore) Accept(nonce string, timestamp time.Time) bool {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if existing, seen := ns.nonces[nonce]; seen {
		if time.Since(existing) <= time.Hour {
			return false
		}
		delete(ns.nonces, nonce)
	}

	ns.nonces[nonce] = timestamp

	if len(ns.nonces) > 10000 {
		ns.sweep()
	}

	return true
}

// sweep drops nonces older than one hour. Caller holds the lock.
func (ns *NonceStore) sweep() {
	now := time.Now()
	for nonce, ts := range ns.nonces {
		if now.Sub(ts) > time.Hour {
			delete(ns.nonces, nonce)
		}
	}
}

// HMACValidator implements the DeliveryValidator port. The relay signs every
// delivery callback with HMAC-SHA256 over timestamp, nonce, and raw body;
// anything unsigned, stale, replayed, or tampered with never reaches the
// inbound use case.
type HMACValidator struct {
	secret             string
	nonceStore         *NonceStore
	timestampTolerance time.Duration
	logger             logger.Logger
}

// NewHMACValidator creates a new HMAC validator
func NewHMACValidator(
	secret string,
	timestampTolerance time.Duration,
	logger logger.Logger,
) port.DeliveryValidator {
	return &HMACValidator{
		secret:             secret,
		nonceStore:         NewNonceStore(),
		timestampTolerance: timestampTolerance,
		logger:             logger,
	}
}

// ValidateDelivery authenticates a transport delivery callback.
func (v *HMACValidator) ValidateDelivery(ctx context.Context, r *http.Request, body []byte) error {
	timestampStr := r.Header.Get("X-Timestamp")
	nonce := r.Header.Get("X-Nonce")
	signature := r.Header.Get("X-Signature")

	if timestampStr == "" {
		return fmt.Errorf("missing X-Timestamp header")
	}
	if nonce == "" {
		return fmt.Errorf("missing X-Nonce header")
	}
	if signature == "" {
		return fmt.Errorf("missing X-Signature header")
	}

	timestamp, err := strconv.ParseInt(timestampStr, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid X-Timestamp format: %w", err)
	}
	deliveredAt := time.Unix(timestamp, 0)

	now := time.Now()
	drift := now.Sub(deliveredAt)
	if drift < 0 {
		drift = -drift
	}
	if drift > v.timestampTolerance {
		v.logger.LogWarning(ctx, "Delivery timestamp out of tolerance",
			"timestamp", timestamp,
			"current_time", now.Unix(),
			"drift_seconds", drift.Seconds(),
			"tolerance_seconds", v.timestampTolerance.Seconds())
		return fmt.Errorf("timestamp out of tolerance: drift is %v, max allowed is %v", drift, v.timestampTolerance)
	}

	if !v.nonceStore.Accept(nonce, deliveredAt) {
		v.logger.LogWarning(ctx, "Duplicate delivery nonce",
			"nonce", nonce,
			"timestamp", timestamp)
		return fmt.Errorf("duplicate nonce detected: possible replay attack")
	}

	expected := v.computeSignature(timestampStr, nonce, body)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		v.logger.LogWarning(ctx, "Invalid delivery signature",
			"expected", expected,
			"received", signature)
		return fmt.Errorf("invalid signature")
	}

	return nil
}

// computeSignature computes HMAC-SHA256 over
// X-Timestamp + "\n" + X-Nonce + "\n" + <raw body bytes>.
func (v *HMACValidator) computeSignature(timestamp, nonce string, body []byte) string {
	message := timestamp + "\n" + nonce + "\n" + string(body)
	mac := hmac.New(sha256.New, []byte(v.secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}
