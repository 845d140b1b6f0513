package state

import (
	"errors"
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"htlcvault/core/types"
	"htlcvault/native/htlc"
	"htlcvault/storage"
)

var (
	accountPrefix   = []byte("account-")
	htlcVaultModule = []byte("htlc-vault-module")
)

// Manager owns all persisted vault state: ledger accounts, escrow records and
// the scalar counters. It is the single writer; the transition engine mutates
// records only through it.
type Manager struct {
	db storage.Database
}

func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func accountStorageKey(addr []byte) []byte {
	buf := make([]byte, len(accountPrefix)+len(addr))
	copy(buf, accountPrefix)
	copy(buf[len(accountPrefix):], addr)
	return ethcrypto.Keccak256(buf)
}

// HoldingAddress returns the module account that custodies escrowed value.
// It is derived from a fixed module tag so no user key can ever control it.
func (m *Manager) HoldingAddress() [20]byte {
	var addr [20]byte
	copy(addr[:], ethcrypto.Keccak256(htlcVaultModule)[:20])
	return addr
}

type storedAccount struct {
	Nonce   uint64
	Balance *big.Int
}

// GetAccount loads the account for an address. A missing account resolves to
// a zero-balance account; any other read error is a storage fault and is
// propagated, so a transient failure can never masquerade as an empty account.
func (m *Manager) GetAccount(addr []byte) (*types.Account, error) {
	data, err := m.db.Get(accountStorageKey(addr))
	if errors.Is(err, storage.ErrNotFound) {
		return &types.Account{Balance: big.NewInt(0)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("state: load account: %w", err)
	}
	if len(data) == 0 {
		return &types.Account{Balance: big.NewInt(0)}, nil
	}
	stored := new(storedAccount)
	if err := rlp.DecodeBytes(data, stored); err != nil {
		return nil, fmt.Errorf("state: decode account: %w", err)
	}
	balance := big.NewInt(0)
	if stored.Balance != nil {
		balance = new(big.Int).Set(stored.Balance)
	}
	return &types.Account{Nonce: stored.Nonce, Balance: balance}, nil
}

// PutAccount persists the account for an address.
func (m *Manager) PutAccount(addr []byte, account *types.Account) error {
	if account == nil {
		return fmt.Errorf("state: nil account")
	}
	balance := big.NewInt(0)
	if account.Balance != nil {
		balance = new(big.Int).Set(account.Balance)
	}
	encoded, err := rlp.EncodeToBytes(&storedAccount{Nonce: account.Nonce, Balance: balance})
	if err != nil {
		return err
	}
	return m.db.Put(accountStorageKey(addr), encoded)
}

// BalanceOf reports the current balance of an address. Read-only.
func (m *Manager) BalanceOf(addr [20]byte) (*big.Int, error) {
	account, err := m.GetAccount(addr[:])
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(account.Balance), nil
}

// Transfer moves amount between two accounts atomically. It reports
// htlc.ErrInsufficientBalance when the source cannot cover the amount and
// restores the source account if persisting the destination fails, so no
// partial transfer is ever observable.
func (m *Manager) Transfer(from, to [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return htlc.ErrInvalidAmount
	}
	if from == to {
		// A self-transfer would double-count against two loaded copies of
		// the same account; it moves nothing, so treat it as a no-op.
		fromAcc, err := m.GetAccount(from[:])
		if err != nil {
			return err
		}
		if fromAcc.Balance.Cmp(amount) < 0 {
			return htlc.ErrInsufficientBalance
		}
		return nil
	}
	fromAcc, err := m.GetAccount(from[:])
	if err != nil {
		return err
	}
	toAcc, err := m.GetAccount(to[:])
	if err != nil {
		return err
	}
	originalFrom := fromAcc.Clone()
	fromAcc = fromAcc.Clone()
	toAcc = toAcc.Clone()
	if fromAcc.Balance.Cmp(amount) < 0 {
		return htlc.ErrInsufficientBalance
	}
	fromAcc.Balance = new(big.Int).Sub(fromAcc.Balance, amount)
	toAcc.Balance = new(big.Int).Add(toAcc.Balance, amount)
	if err := m.PutAccount(from[:], fromAcc); err != nil {
		return err
	}
	if err := m.PutAccount(to[:], toAcc); err != nil {
		if restoreErr := m.PutAccount(from[:], originalFrom); restoreErr != nil {
			return errors.Join(err, fmt.Errorf("state: rollback source account: %w", restoreErr))
		}
		return err
	}
	return nil
}

// SetBalance overwrites the balance for an address. Used by genesis
// allocation only.
func (m *Manager) SetBalance(addr [20]byte, amount *big.Int) error {
	account, err := m.GetAccount(addr[:])
	if err != nil {
		return err
	}
	account = account.Clone()
	account.Balance = new(big.Int).Set(amount)
	return m.PutAccount(addr[:], account)
}
