package entity

// Asset identifies a fungible token type held in vault custody.
type Asset string

// Account identifies a ledger account or an external wallet.
type Account string

// NetworkID identifies an independently-administered remote ledger.
type NetworkID string

// BalanceKey addresses a single ledger balance entry.
type BalanceKey struct {
	Asset   Asset
	Account Account
}

// BalanceResponse is the read-side view of one account's holdings.
type BalanceResponse struct {
	Account  Account          `json:"account"`
	Balances map[Asset]string `json:"balances"`
}
