package main

import (
	"context"
	"errors"
	"flag"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"critterchain/config"
	"critterchain/core"
	"critterchain/core/state"
	"critterchain/observability/logging"
	"critterchain/rpc"
	"critterchain/storage"
)

func main() {
	configPath := flag.String("config", "./config.toml", "path to the TOML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		os.Stderr.WriteString("load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := logging.Setup("critterd", cfg.NetworkName, cfg.LogFile)

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "state"))
	if err != nil {
		logger.Error("open state database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	manager := state.NewManager(db)
	balances, err := cfg.GenesisBalances()
	if err != nil {
		logger.Error("decode genesis allocation", "err", err)
		os.Exit(1)
	}
	allocs := make([]core.GenesisAccount, 0, len(balances))
	for addr, balance := range balances {
		allocs = append(allocs, core.GenesisAccount{Address: addr, Balance: new(big.Int).Set(balance)})
	}
	if err := core.SetupGenesis(manager, allocs); err != nil {
		logger.Error("apply genesis allocation", "err", err)
		os.Exit(1)
	}

	var seed [32]byte
	copy(seed[:], ethcrypto.Keccak256([]byte(cfg.GenesisSeed)))
	executor := core.NewExecutor(manager, core.NewRotatingBeacon(seed))

	server := &http.Server{
		Addr:    cfg.RPCAddress,
		Handler: rpc.NewServer(executor, logger).Handler(),
	}

	go func() {
		logger.Info("starting JSON-RPC server", "addr", cfg.RPCAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("rpc server stopped", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown rpc server", "err", err)
	}
}
