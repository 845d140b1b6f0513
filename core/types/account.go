package types

import "math/big"

// Account is the ledger-side view of a participant: a nonce and a single
// fungible balance. Escrowed value never lives on an account directly; it sits
// on the module holding account until a terminal transition pays it out.
type Account struct {
	Nonce   uint64   `json:"nonce"`
	Balance *big.Int `json:"balance"`
}

// Clone returns a deep copy with a non-nil balance.
func (a *Account) Clone() *Account {
	if a == nil {
		return &Account{Balance: big.NewInt(0)}
	}
	clone := *a
	if a.Balance != nil {
		clone.Balance = new(big.Int).Set(a.Balance)
	} else {
		clone.Balance = big.NewInt(0)
	}
	return &clone
}
