package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"htlcvault/crypto"
)

type Config struct {
	RPCAddress           string            `toml:"RPCAddress"`
	DataDir              string            `toml:"DataDir"`
	NetworkName          string            `toml:"NetworkName"`
	OwnerAddress         string            `toml:"OwnerAddress"`
	BlockIntervalSeconds int64             `toml:"BlockIntervalSeconds"`
	GenesisTime          int64             `toml:"GenesisTime"`
	GenesisAlloc         map[string]string `toml:"GenesisAlloc"`
	LogFilePath          string            `toml:"LogFilePath"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = ":8080"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./htlcvault-data"
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "htlcvault-local"
	}
	if cfg.BlockIntervalSeconds <= 0 {
		cfg.BlockIntervalSeconds = 5
	}
	if cfg.GenesisTime <= 0 {
		cfg.GenesisTime = time.Now().Unix()
	}
	if cfg.GenesisAlloc == nil {
		cfg.GenesisAlloc = map[string]string{}
	}
}

// Validate rejects configurations the daemon cannot start with.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil configuration")
	}
	if strings.TrimSpace(cfg.OwnerAddress) == "" {
		return fmt.Errorf("config: OwnerAddress is required")
	}
	if _, err := crypto.DecodeAddress(cfg.OwnerAddress); err != nil {
		return fmt.Errorf("config: invalid OwnerAddress: %w", err)
	}
	for addr := range cfg.GenesisAlloc {
		if _, err := crypto.DecodeAddress(addr); err != nil {
			return fmt.Errorf("config: invalid GenesisAlloc address %q: %w", addr, err)
		}
	}
	return nil
}

// Owner returns the decoded privileged owner address.
func (c *Config) Owner() ([20]byte, error) {
	addr, err := crypto.DecodeAddress(c.OwnerAddress)
	if err != nil {
		return [20]byte{}, err
	}
	return addr.Bytes(), nil
}

// BlockInterval returns the configured block interval as a duration.
func (c *Config) BlockInterval() time.Duration {
	return time.Duration(c.BlockIntervalSeconds) * time.Second
}

// createDefault creates and saves a default configuration file. A fresh owner
// key is generated so the default file is immediately usable on a dev network.
func createDefault(path string) (*Config, error) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	owner := key.PubKey().Address()

	cfg := &Config{
		RPCAddress:           ":8080",
		DataDir:              "./htlcvault-data",
		NetworkName:          "htlcvault-local",
		OwnerAddress:         owner.String(),
		BlockIntervalSeconds: 5,
		GenesisTime:          time.Now().Unix(),
		GenesisAlloc:         map[string]string{},
	}

	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return toml.NewEncoder(file).Encode(cfg)
}
