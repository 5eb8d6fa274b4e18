package core

import (
	"fmt"
	"math/big"

	"critterchain/core/state"
	"critterchain/core/types"
)

// GenesisAccount seeds one address with a starting free balance.
type GenesisAccount struct {
	Address [20]byte
	Balance *big.Int
}

// genesisMarker records that genesis allocation already ran for this database.
var genesisMarker = []byte("genesis-applied")

// SetupGenesis funds the configured accounts once per database. Re-running
// against an initialised database is a no-op so daemon restarts are safe.
func SetupGenesis(manager *state.Manager, allocs []GenesisAccount) error {
	applied, err := manager.GenesisApplied(genesisMarker)
	if err != nil {
		return err
	}
	if applied {
		return nil
	}
	for _, alloc := range allocs {
		if alloc.Balance == nil || alloc.Balance.Sign() < 0 {
			return fmt.Errorf("genesis: invalid balance for %x", alloc.Address)
		}
		account := (&types.Account{Balance: new(big.Int).Set(alloc.Balance)}).Normalize()
		if err := manager.PutAccount(alloc.Address, account); err != nil {
			return err
		}
	}
	if err := manager.MarkGenesisApplied(genesisMarker); err != nil {
		return err
	}
	return manager.Commit()
}
