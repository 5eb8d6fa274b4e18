package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"critterchain/crypto"
)

// GenesisAlloc seeds one bech32 address with a starting free balance. The
// balance is decimal text so TOML round-trips arbitrary precision.
type GenesisAlloc struct {
	Address string `toml:"Address"`
	Balance string `toml:"Balance"`
}

type Config struct {
	RPCAddress  string         `toml:"RPCAddress"`
	DataDir     string         `toml:"DataDir"`
	NetworkName string         `toml:"NetworkName"`
	LogFile     string         `toml:"LogFile"`
	GenesisSeed string         `toml:"GenesisSeed"`
	Genesis     []GenesisAlloc `toml:"Genesis"`
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
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{
		RPCAddress:  "127.0.0.1:8645",
		DataDir:     "./critter-data",
		NetworkName: "critterchain-local",
		GenesisSeed: "critterchain-genesis",
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the addresses and balances in the genesis allocation.
func (c *Config) Validate() error {
	if c.RPCAddress == "" {
		return fmt.Errorf("config: RPCAddress must not be empty")
	}
	if c.DataDir == "" {
		return fmt.Errorf("config: DataDir must not be empty")
	}
	for i, alloc := range c.Genesis {
		if _, err := crypto.DecodeAddress(alloc.Address); err != nil {
			return fmt.Errorf("config: genesis entry %d: %w", i, err)
		}
		balance, ok := new(big.Int).SetString(alloc.Balance, 10)
		if !ok || balance.Sign() < 0 {
			return fmt.Errorf("config: genesis entry %d: invalid balance %q", i, alloc.Balance)
		}
	}
	return nil
}

// GenesisBalances decodes the allocation into address/amount pairs.
func (c *Config) GenesisBalances() (map[[20]byte]*big.Int, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	out := make(map[[20]byte]*big.Int, len(c.Genesis))
	for _, alloc := range c.Genesis {
		decoded, err := crypto.DecodeAddress(alloc.Address)
		if err != nil {
			return nil, err
		}
		var addr [20]byte
		copy(addr[:], decoded.Bytes())
		balance, _ := new(big.Int).SetString(alloc.Balance, 10)
		out[addr] = balance
	}
	return out, nil
}
