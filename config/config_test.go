package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"htlcvault/crypto"
)

func TestLoadCreatesDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.FileExists(t, path)
	require.Equal(t, ":8080", cfg.RPCAddress)
	require.Equal(t, "htlcvault-local", cfg.NetworkName)
	require.Positive(t, cfg.BlockIntervalSeconds)
	require.Positive(t, cfg.GenesisTime)

	// The generated owner address must decode.
	_, err = cfg.Owner()
	require.NoError(t, err)

	// Reloading the created file round-trips.
	reloaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.OwnerAddress, reloaded.OwnerAddress)
}

func TestLoadAppliesDefaults(t *testing.T) {
	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	owner := key.PubKey().Address().String()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := "OwnerAddress = \"" + owner + "\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.RPCAddress)
	require.Equal(t, "./htlcvault-data", cfg.DataDir)
	require.Equal(t, int64(5), cfg.BlockIntervalSeconds)
	require.NotNil(t, cfg.GenesisAlloc)
}

func TestValidateRejectsMissingOrBadOwner(t *testing.T) {
	require.Error(t, Validate(&Config{}))
	require.Error(t, Validate(&Config{OwnerAddress: "not-an-address"}))
}

func TestValidateRejectsBadAllocAddress(t *testing.T) {
	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	cfg := &Config{
		OwnerAddress: key.PubKey().Address().String(),
		GenesisAlloc: map[string]string{"bogus": "100"},
	}
	require.Error(t, Validate(cfg))
}
