package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"htlcvault/config"
	"htlcvault/core"
	"htlcvault/core/genesis"
	"htlcvault/core/height"
	"htlcvault/observability"
	"htlcvault/observability/logging"
	"htlcvault/rpc"
	"htlcvault/storage"
)

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("HTLCVAULT_ENV"))

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger := logging.Setup("htlcd", env, &logging.Options{FilePath: cfg.LogFilePath})

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	owner, err := cfg.Owner()
	if err != nil {
		logger.Error("Failed to decode owner address", slog.Any("error", err))
		os.Exit(1)
	}

	heights := height.NewIntervalSource(time.Unix(cfg.GenesisTime, 0), cfg.BlockInterval())
	node := core.NewNode(db, heights, owner)
	node.SetEmitter(observability.NewEventRecorder(logger))

	if err := genesis.Apply(db, node.State(), cfg.GenesisAlloc); err != nil {
		logger.Error("Failed to apply genesis allocations", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("Starting JSON-RPC server",
		slog.String("network", cfg.NetworkName),
		slog.String("address", cfg.RPCAddress),
		slog.Uint64("height", node.CurrentHeight()),
	)
	server := rpc.NewServer(node)
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("RPC server terminated", slog.Any("error", err))
		os.Exit(1)
	}
}
