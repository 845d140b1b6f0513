package genesis

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"htlcvault/crypto"
	"htlcvault/state"
	"htlcvault/storage"
)

func testAddress(t *testing.T) crypto.Address {
	t.Helper()
	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	return key.PubKey().Address()
}

func TestApplySeedsBalancesOnce(t *testing.T) {
	db := storage.NewMemDB()
	manager := state.NewManager(db)
	addr := testAddress(t)

	alloc := map[string]string{addr.String(): "1000000"}
	require.NoError(t, Apply(db, manager, alloc))

	balance, err := manager.BalanceOf(addr.Bytes())
	require.NoError(t, err)
	require.Zero(t, balance.Cmp(big.NewInt(1_000_000)))

	// A second apply with a different allocation is a no-op.
	alloc[addr.String()] = "5"
	require.NoError(t, Apply(db, manager, alloc))
	balance, err = manager.BalanceOf(addr.Bytes())
	require.NoError(t, err)
	require.Zero(t, balance.Cmp(big.NewInt(1_000_000)))
}

func TestApplyRejectsBadInput(t *testing.T) {
	db := storage.NewMemDB()
	manager := state.NewManager(db)

	require.Error(t, Apply(db, manager, map[string]string{"bogus": "1"}))
	addr := testAddress(t)
	require.Error(t, Apply(db, manager, map[string]string{addr.String(): "not-a-number"}))
	require.Error(t, Apply(db, manager, map[string]string{addr.String(): "-5"}))
}
