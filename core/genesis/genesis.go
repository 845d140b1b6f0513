package genesis

import (
	"fmt"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"htlcvault/crypto"
	"htlcvault/state"
)

var appliedKey = ethcrypto.Keccak256([]byte("genesis-applied"))

type markerStore interface {
	Put(key []byte, value []byte) error
	Has(key []byte) (bool, error)
}

// Apply seeds the configured balance allocations into the ledger exactly
// once. Allocations map bech32 addresses to decimal amounts; a repeated start
// against the same database is a no-op.
func Apply(db markerStore, manager *state.Manager, alloc map[string]string) error {
	applied, err := db.Has(appliedKey)
	if err != nil {
		return err
	}
	if applied {
		return nil
	}
	for addrStr, amountStr := range alloc {
		addr, err := crypto.DecodeAddress(addrStr)
		if err != nil {
			return fmt.Errorf("genesis: invalid allocation address %q: %w", addrStr, err)
		}
		amount, ok := new(big.Int).SetString(amountStr, 10)
		if !ok || amount.Sign() < 0 {
			return fmt.Errorf("genesis: invalid allocation amount %q for %s", amountStr, addrStr)
		}
		if err := manager.SetBalance(addr.Bytes(), amount); err != nil {
			return err
		}
	}
	return db.Put(appliedKey, []byte{1})
}
