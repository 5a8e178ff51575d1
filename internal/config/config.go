// Package config defines the supernovad process configuration, parsed
// from CLI flags and an optional config file with
// github.com/jessevdk/go-flags, the same library daglabs-btcd's
// kasparovd/config and cmd/kaspawallet configs use.
package config

import (
	"fmt"
	"time"

	flags "github.com/jessevdk/go-flags"

	"github.com/supernova-chain/supernova/chainparams"
)

const (
	defaultDataDir         = "data"
	defaultLogDir          = "logs"
	defaultLogFilename     = "supernovad.log"
	defaultNetwork         = "mainnet"
	defaultMaxPeers        = 125
	defaultMaxInbound      = 117
	defaultMaxOutbound     = 8
	defaultMinPeerCount    = 3
	defaultMempoolMaxSize  = 50000
	defaultMempoolMinFee   = 0.00001
	defaultMiningWorkers   = 1
	defaultRPCListen       = "127.0.0.1:8332"
	defaultBanDuration     = 24 * time.Hour
	defaultPollInterval    = 15 * time.Second
	defaultConnectTimeout  = 10 * time.Second
	defaultMaxOrphanBlocks = 100
)

// Config holds every tunable supernovad accepts, grouped the way
// daglabs-btcd's kasparovd config groups HTTP listen address alongside
// an embedded shared-flags struct, flattened here into one struct since
// this binary has no analogous sub-config to embed.
type Config struct {
	DataDir string `long:"datadir" description:"Directory to store block and chain state"`
	LogDir  string `long:"logdir" description:"Directory to store log files"`
	Network string `short:"n" long:"network" description:"Network to connect to (mainnet, testnet, devnet)"`

	Listen      []string `long:"listen" description:"P2P addresses to listen on"`
	ConnectPeer []string `long:"connect" description:"Connect only to the specified peers at startup"`
	AddPeer     []string `long:"addpeer" description:"Add a peer to connect to in addition to normal peer discovery"`
	MaxPeers    int      `long:"maxpeers" description:"Maximum number of peers"`
	MaxInbound  int      `long:"maxinbound" description:"Maximum number of inbound peer connections"`
	MaxOutbound int      `long:"maxoutbound" description:"Maximum number of outbound peer connections"`
	MinPeers    int      `long:"minpeers" description:"Minimum connected peers required for readiness"`
	BanDuration time.Duration `long:"banduration" description:"How long to ban a misbehaving peer"`
	ConnectTimeout time.Duration `long:"connecttimeout" description:"Timeout when dialing a new peer"`

	MempoolMaxSize    int     `long:"mempoolmaxsize" description:"Maximum number of transactions the mempool may hold"`
	MempoolMinFeeRate float64 `long:"minrelayfee" description:"Minimum fee rate (per byte) for mempool acceptance"`
	MaxOrphanBlocks   int     `long:"maxorphanblocks" description:"Maximum number of orphan blocks kept pending a parent"`

	Mine           bool    `long:"mine" description:"Mine new blocks once synced"`
	MiningAddr     string  `long:"miningaddr" description:"Address to receive coinbase rewards when mining"`
	MiningWorkers  int     `long:"miningworkers" description:"Number of parallel proof-of-work search goroutines"`
	MiningIntensity float64 `long:"miningintensity" description:"Fraction of each mining worker's duty cycle spent hashing"`
	TreasuryAddr   string  `long:"treasuryaddr" description:"Address to receive the consensus-mandated treasury share of each block reward"`

	RPCListen   string   `long:"rpclisten" description:"Address for the JSON RPC server to listen on"`
	RPCUser     string   `long:"rpcuser" description:"Username for RPC basic auth"`
	RPCPass     string   `long:"rpcpass" description:"Password for RPC basic auth"`
	DisableRPC  bool     `long:"norpc" description:"Disable the RPC server"`

	SwapPollInterval time.Duration `long:"swappollinterval" description:"Polling interval for the cross-chain swap monitor"`
	SwapAutoClaim    bool          `long:"swapautoclaim" description:"Automatically claim swaps once the counterparty secret is observed"`
	SwapAutoRefund   bool          `long:"swapautorefund" description:"Automatically refund swaps once their timeout has elapsed"`

	SigScheme string `long:"sigscheme" description:"Default signature scheme for new keys (secp256k1, ed25519, dilithium, falcon, sphincs, hybrid)"`

	LogLevel string `short:"d" long:"debuglevel" description:"Logging level for all subsystems (trace, debug, info, warn, error)"`

	ConfigFile string `short:"C" long:"configfile" description:"Path to a configuration file" no-ini:"true"`
}

// Default returns a Config populated with the same defaults
// daglabs-btcd's own cmd/* configs hard-code before flag parsing.
func Default() *Config {
	return &Config{
		DataDir:           defaultDataDir,
		LogDir:            defaultLogDir,
		Network:           defaultNetwork,
		MaxPeers:          defaultMaxPeers,
		MaxInbound:        defaultMaxInbound,
		MaxOutbound:       defaultMaxOutbound,
		MinPeers:          defaultMinPeerCount,
		BanDuration:       defaultBanDuration,
		ConnectTimeout:    defaultConnectTimeout,
		MempoolMaxSize:    defaultMempoolMaxSize,
		MempoolMinFeeRate: defaultMempoolMinFee,
		MaxOrphanBlocks:   defaultMaxOrphanBlocks,
		MiningWorkers:     defaultMiningWorkers,
		MiningIntensity:   1.0,
		RPCListen:         defaultRPCListen,
		SwapPollInterval:  defaultPollInterval,
		SwapAutoClaim:     true,
		SwapAutoRefund:    true,
		SigScheme:         "secp256k1",
		LogLevel:          "info",
	}
}

// Load parses args (normally os.Args[1:]) against Default, and
// additionally parses ConfigFile as an ini file if set, the same
// two-pass shape daglabs-btcd's own config.Parse uses: defaults, then
// file, then explicit flags so flags always win.
func Load(args []string) (*Config, error) {
	cfg := Default()
	parser := flags.NewParser(cfg, flags.Default)

	preCfg := &Config{}
	preParser := flags.NewParser(preCfg, flags.IgnoreUnknown)
	if _, err := preParser.ParseArgs(args); err != nil {
		return nil, err
	}
	if preCfg.ConfigFile != "" {
		iniParser := flags.NewIniParser(parser)
		if err := iniParser.ParseFile(preCfg.ConfigFile); err != nil {
			return nil, err
		}
	}

	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Params resolves the configured network name to its chainparams.Params.
func (c *Config) Params() (*chainparams.Params, error) {
	switch c.Network {
	case "mainnet":
		return chainparams.MainNetParams, nil
	case "testnet":
		return chainparams.TestNetParams, nil
	case "devnet":
		return chainparams.RegtestParams, nil
	default:
		return nil, fmt.Errorf("config: unknown network %q", c.Network)
	}
}

// LogFilename returns the filename (relative to LogDir) supernovad
// should rotate its log through.
func (c *Config) LogFilename() string {
	return defaultLogFilename
}

func (c *Config) validate() error {
	if _, err := c.Params(); err != nil {
		return err
	}
	if c.MaxInbound+c.MaxOutbound > c.MaxPeers {
		return fmt.Errorf("config: maxinbound+maxoutbound (%d) exceeds maxpeers (%d)", c.MaxInbound+c.MaxOutbound, c.MaxPeers)
	}
	if c.MinPeers < 0 {
		return fmt.Errorf("config: minpeers cannot be negative")
	}
	if c.MempoolMaxSize <= 0 {
		return fmt.Errorf("config: mempoolmaxsize must be positive")
	}
	if c.MiningAddr == "" || c.TreasuryAddr == "" {
		return fmt.Errorf("config: miningaddr and treasuryaddr are required: the former receives genesis and mined-block rewards, the latter the consensus treasury share")
	}
	switch c.SigScheme {
	case "secp256k1", "ed25519", "dilithium", "falcon", "sphincs", "hybrid":
	default:
		return fmt.Errorf("config: unknown sigscheme %q", c.SigScheme)
	}
	return nil
}
