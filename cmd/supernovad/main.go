// Command supernovad runs a full Supernova node: chain state and
// storage, mempool, optional block production, peer bookkeeping, the
// sync state machine, the cross-chain swap monitor, and the JSON-RPC
// operation surface, wired the way daglabs-btcd's kaspad.go wires its
// own equivalent subsystems.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/supernova-chain/supernova/chainstate"
	"github.com/supernova-chain/supernova/htlc"
	"github.com/supernova-chain/supernova/internal/config"
	"github.com/supernova-chain/supernova/internal/logging"
	"github.com/supernova-chain/supernova/mempool"
	"github.com/supernova-chain/supernova/mining"
	"github.com/supernova-chain/supernova/p2pd"
	"github.com/supernova-chain/supernova/rpc"
	"github.com/supernova-chain/supernova/storage"
	"github.com/supernova-chain/supernova/syncmgr"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "supernovad:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	params, err := cfg.Params()
	if err != nil {
		return fmt.Errorf("resolve network params: %w", err)
	}

	rotator, err := logging.NewRotatingFile(filepath.Join(cfg.LogDir, cfg.LogFilename()), 10*1024*1024, 3)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer rotator.Close()
	backend := logging.NewBackend(rotator)
	backend.SetLevels(cfg.LogLevel)

	log := backend.Logger(logging.SubsystemChainState)
	log.Info().Str("network", params.Name).Msg("starting supernovad")

	blockStore, err := storage.OpenBlockStore(filepath.Join(cfg.DataDir, "blocks"))
	if err != nil {
		return fmt.Errorf("open block store: %w", err)
	}
	defer blockStore.Close()

	utxoSet, err := storage.OpenUtxoSet(filepath.Join(cfg.DataDir, "utxo"), 1<<20, time.Hour)
	if err != nil {
		return fmt.Errorf("open utxo set: %w", err)
	}
	defer utxoSet.Close()

	chain := chainstate.New(blockStore, utxoSet, params)
	if chain.Tip() == nil {
		genesisRewardAddr := cfg.MiningAddr
		genesis, err := buildGenesisBlock(params, genesisRewardAddr)
		if err != nil {
			return fmt.Errorf("build genesis block: %w", err)
		}
		if err := chain.AcceptBlock(genesis, genesisTimestamp); err != nil {
			return fmt.Errorf("accept genesis block: %w", err)
		}
		log.Info().Str("hash", genesis.BlockHash().String()).Msg("bootstrapped genesis block")
	}

	pool := mempool.New(mempool.Config{
		MaxSize:         cfg.MempoolMaxSize,
		MinFeeRate:      cfg.MempoolMinFeeRate,
		MaxAncestors:    25,
		MaxAncestorSize: 100 * 1000,
		MaxAge:          14 * 24 * 3600,
		DecayPerHour:    0,
	})

	limits := p2pd.ConnectionLimits{
		MaxPeers:      cfg.MaxPeers,
		MaxInbound:    cfg.MaxInbound,
		MaxOutbound:   cfg.MaxOutbound,
		ReservedSlots: p2pd.DefaultConnectionLimits().ReservedSlots,
	}
	peers := p2pd.NewPeerManager(limits, cfg.ConnectPeer)

	generator := mining.NewGenerator(chain, pool, params, params.MaxBlockSize)

	syncManager := syncmgr.NewManager(
		syncmgr.Config{
			HeaderTimeout: 30 * time.Second,
			BlockTimeout:  60 * time.Second,
			VerifyTimeout: 120 * time.Second,
			StaleAfter:    300,
		},
		peerSelector{peers: peers},
		peers,
		chain,
		noopSteps{},
		backend.Logger(logging.SubsystemSync),
	)

	monitor := htlc.NewMonitor(htlc.MonitorConfig{
		PollInterval:     cfg.SwapPollInterval,
		AutoClaim:        cfg.SwapAutoClaim,
		AutoRefund:       cfg.SwapAutoRefund,
		MinConfirmations: 2,
		Retry:            htlc.DefaultRetryConfig(),
	}, backend.Logger(logging.SubsystemHTLC), nil, nil)

	server := rpc.NewServer(backend.Logger(logging.SubsystemRPC))
	server.Chain = chain
	server.Mempool = pool
	server.Params = params
	server.Generator = generator
	server.Peers = peers
	server.Monitor = monitor
	server.BlockStore = blockStore
	server.Sync = rpc.SyncManagerChecker{Manager: syncManager}
	server.RewardAddress = cfg.MiningAddr
	server.TreasuryAddress = cfg.TreasuryAddr

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var stopSync atomic.Bool
	go func() {
		if err := syncManager.Run(&stopSync, nowUnix); err != nil {
			log.Error().Err(err).Msg("sync manager stopped")
		}
	}()

	go monitor.Run(ctx, func() uint64 { return uint64(chain.Height()) })

	var stopMining atomic.Bool
	if cfg.Mine {
		miner := mining.NewMiner(chain, pool, params, params.MaxBlockSize, cfg.MiningAddr, cfg.TreasuryAddr, mining.SolveConfig{
			Workers:   cfg.MiningWorkers,
			Intensity: cfg.MiningIntensity,
		})
		go func() {
			if err := miner.Run(&stopMining, nowUnix); err != nil {
				log.Error().Err(err).Msg("miner stopped")
			}
		}()
	}

	var httpServer *http.Server
	if !cfg.DisableRPC {
		httpServer = &http.Server{
			Addr:    cfg.RPCListen,
			Handler: server.Handler(),
		}
		go func() {
			log.Info().Str("addr", cfg.RPCListen).Msg("rpc server listening")
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("rpc server stopped")
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	log.Info().Msg("shutting down")

	stopMining.Store(true)
	stopSync.Store(true)
	cancel()

	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("rpc server shutdown")
		}
	}
	return nil
}
