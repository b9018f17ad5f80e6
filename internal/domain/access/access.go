package access

import (
	"fmt"
	"sync"

	"arcvault.com/internal/domain/entity"
)

// Caller is the authenticated identity a request runs under. Every privileged
// mutation receives one explicitly; there is no implicit ambient caller.
type Caller struct {
	Account entity.Account
}

type senderKey struct {
	Network entity.NetworkID
	Sender  entity.Account
}

// Registry holds the control-plane state guarding every operation: the owner
// slot with its two-step transfer, the minter/burner sets for bridge-token
// supply, the inbound sender allow-list, the supported-asset set, and the
// circuit-breaker flag.
type Registry struct {
	mu sync.RWMutex

	owner        entity.Account
	pendingOwner entity.Account

	minters map[entity.Account]struct{}
	burners map[entity.Account]struct{}
	senders map[senderKey]struct{}
	assets  map[entity.Asset]struct{}

	paused bool
}

// NewRegistry creates a registry with the given initial owner and supported
// assets.
func NewRegistry(owner entity.Account, assets []entity.Asset) *Registry {
	r := &Registry{
		owner:   owner,
		minters: make(map[entity.Account]struct{}),
		burners: make(map[entity.Account]struct{}),
		senders: make(map[senderKey]struct{}),
		assets:  make(map[entity.Asset]struct{}),
	}
	for _, a := range assets {
		r.assets[a] = struct{}{}
	}
	return r
}

// Owner returns the current owner account.
func (r *Registry) Owner() entity.Account {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.owner
}

// RequireOwner fails with ErrUnauthorized unless the caller is the current
// owner.
func (r *Registry) RequireOwner(c Caller) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c.Account != r.owner {
		return fmt.Errorf("%w: %s is not the owner", entity.ErrUnauthorized, c.Account)
	}
	return nil
}

// TransferOwnership proposes a new owner. The transfer completes only when the
// proposed owner calls AcceptOwnership, so control can never move to an
// unreachable account in one step.
func (r *Registry) TransferOwnership(c Caller, newOwner entity.Account) error {
	if newOwner == "" {
		return fmt.Errorf("%w: empty new owner", entity.ErrInvalidArgument)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.Account != r.owner {
		return fmt.Errorf("%w: %s is not the owner", entity.ErrUnauthorized, c.Account)
	}
	r.pendingOwner = newOwner
	return nil
}

// AcceptOwnership completes a pending transfer. Only the designated pending
// owner may call it.
func (r *Registry) AcceptOwnership(c Caller) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pendingOwner == "" || c.Account != r.pendingOwner {
		return fmt.Errorf("%w: %s is not the pending owner", entity.ErrUnauthorized, c.Account)
	}
	r.owner = r.pendingOwner
	r.pendingOwner = ""
	return nil
}

// PendingOwner returns the account of an in-flight ownership transfer, empty
// when none is pending.
func (r *Registry) PendingOwner() entity.Account {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pendingOwner
}

// SetMinter adds or removes an account from the minter set.
func (r *Registry) SetMinter(account entity.Account, allowed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if allowed {
		r.minters[account] = struct{}{}
	} else {
		delete(r.minters, account)
	}
}

// SetBurner adds or removes an account from the burner set.
func (r *Registry) SetBurner(account entity.Account, allowed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if allowed {
		r.burners[account] = struct{}{}
	} else {
		delete(r.burners, account)
	}
}

// RequireMinter fails with ErrUnauthorized unless the caller may mint ledger
// credit from bridge deliveries.
func (r *Registry) RequireMinter(c Caller) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.minters[c.Account]; !ok {
		return fmt.Errorf("%w: %s is not a minter", entity.ErrUnauthorized, c.Account)
	}
	return nil
}

// RequireBurner fails with ErrUnauthorized unless the caller may burn local
// supply for outbound bridging.
func (r *Registry) RequireBurner(c Caller) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.burners[c.Account]; !ok {
		return fmt.Errorf("%w: %s is not a burner", entity.ErrUnauthorized, c.Account)
	}
	return nil
}

// SetAuthorizedSender adds or removes a (network, sender) pair from the
// inbound allow-list.
func (r *Registry) SetAuthorizedSender(network entity.NetworkID, sender entity.Account, allowed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := senderKey{Network: network, Sender: sender}
	if allowed {
		r.senders[k] = struct{}{}
	} else {
		delete(r.senders, k)
	}
}

// IsAuthorizedSender reports whether the (network, sender) pair may credit
// this ledger through inbound messages.
func (r *Registry) IsAuthorizedSender(network entity.NetworkID, sender entity.Account) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.senders[senderKey{Network: network, Sender: sender}]
	return ok
}

// SetAssetSupport toggles an asset's eligibility for custody operations.
func (r *Registry) SetAssetSupport(asset entity.Asset, supported bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if supported {
		r.assets[asset] = struct{}{}
	} else {
		delete(r.assets, asset)
	}
}

// IsSupported reports whether an asset is eligible for operations.
func (r *Registry) IsSupported(asset entity.Asset) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.assets[asset]
	return ok
}

// RequireSupported fails with ErrUnsupportedAsset for assets outside the
// registry.
func (r *Registry) RequireSupported(asset entity.Asset) error {
	if !r.IsSupported(asset) {
		return fmt.Errorf("%w: %s", entity.ErrUnsupportedAsset, asset)
	}
	return nil
}

// Pause trips the circuit breaker. User-mutating operations fail ErrPaused
// until Unpause; admin operations stay available.
func (r *Registry) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paused = true
}

// Unpause clears the circuit breaker.
func (r *Registry) Unpause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paused = false
}

// Paused reports the circuit-breaker state.
func (r *Registry) Paused() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.paused
}

// RequireActive fails with ErrPaused while the circuit breaker is tripped.
func (r *Registry) RequireActive() error {
	if r.Paused() {
		return entity.ErrPaused
	}
	return nil
}
