package types

import "math/big"

// Account holds the ledger view of one address. Balance is the freely
// spendable amount; Reserved is earmarked by the creatures module on
// creation and never touched by transfers.
type Account struct {
	Nonce    uint64   `json:"nonce"`
	Balance  *big.Int `json:"balance"`
	Reserved *big.Int `json:"reserved"`
}

// Normalize replaces nil balance fields with zero values so callers can
// operate on the account without nil checks.
func (a *Account) Normalize() *Account {
	if a == nil {
		return &Account{Balance: big.NewInt(0), Reserved: big.NewInt(0)}
	}
	if a.Balance == nil {
		a.Balance = big.NewInt(0)
	}
	if a.Reserved == nil {
		a.Reserved = big.NewInt(0)
	}
	return a
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return (&Account{}).Normalize()
	}
	clone := &Account{Nonce: a.Nonce}
	if a.Balance != nil {
		clone.Balance = new(big.Int).Set(a.Balance)
	}
	if a.Reserved != nil {
		clone.Reserved = new(big.Int).Set(a.Reserved)
	}
	return clone.Normalize()
}
