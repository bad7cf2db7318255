package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Flags holds parsed command-line flags.
type Flags struct {
	// Commands
	Help    bool
	Version bool

	// Core
	Network string
	DataDir string
	Config  string

	// Mining (operational only; consensus rules live in genesis)
	Mine         bool
	Coinbase     string
	ValidatorKey string
	Threads      int

	// Logging
	LogLevel string
	LogFile  string
	LogJSON  bool

	// Remaining args
	Args []string

	// Explicitly-set bool flags (for true/false overrides).
	SetMine    bool
	SetLogJSON bool
}

// ParseFlags parses command-line flags.
func ParseFlags() *Flags {
	f := &Flags{}
	fs := flag.NewFlagSet("contrastd", flag.ContinueOnError)

	fs.BoolVar(&f.Help, "help", false, "Show help message")
	fs.BoolVar(&f.Help, "h", false, "Show help message (shorthand)")
	fs.BoolVar(&f.Version, "version", false, "Show version information")
	fs.BoolVar(&f.Version, "v", false, "Show version (shorthand)")

	fs.StringVar(&f.Network, "network", "", "Network type (mainnet or testnet)")
	testnet := fs.Bool("testnet", false, "Use testnet (shorthand for --network=testnet)")
	fs.StringVar(&f.DataDir, "datadir", "", "Data directory path")
	fs.StringVar(&f.Config, "config", "", "Config file path")
	fs.StringVar(&f.Config, "c", "", "Config file path (shorthand)")

	fs.BoolVar(&f.Mine, "mine", false, "Enable block production (miner and/or validator role)")
	fs.StringVar(&f.Coinbase, "coinbase", "", "Address to receive PoW/PoS rewards")
	fs.StringVar(&f.ValidatorKey, "validator-key", "", "Path to the node's signing key")
	fs.IntVar(&f.Threads, "threads", 0, "Number of mining worker threads")

	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFile, "log-file", "", "Log file path")
	fs.BoolVar(&f.LogJSON, "log-json", false, "Output logs as JSON")

	fs.Usage = func() {
		printUsage()
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if *testnet {
		f.Network = "testnet"
	}
	f.SetMine = isFlagSet(fs, "mine")
	f.SetLogJSON = isFlagSet(fs, "log-json")

	f.Args = fs.Args()

	for _, arg := range f.Args {
		if strings.HasPrefix(arg, "-") {
			fmt.Fprintf(os.Stderr, "Error: flag %q was not parsed (positional argument stopped parsing)\n", arg)
			fmt.Fprintf(os.Stderr, "Hint: --mine is a boolean flag. Use --mine (not --mine <name>)\n")
			os.Exit(1)
		}
	}

	return f
}

// ApplyFlags applies command-line flags to a Config struct.
func ApplyFlags(cfg *Config, f *Flags) {
	if f.Network != "" {
		cfg.Network = NetworkType(f.Network)
	}
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}

	if f.SetMine {
		cfg.Mining.Enabled = f.Mine
	}
	if f.Coinbase != "" {
		cfg.Mining.Coinbase = f.Coinbase
	}
	if f.ValidatorKey != "" {
		cfg.Mining.ValidatorKey = f.ValidatorKey
	}
	if f.Threads != 0 {
		cfg.Mining.Threads = f.Threads
	}

	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Log.File = f.LogFile
	}
	if f.SetLogJSON {
		cfg.Log.JSON = f.LogJSON
	}
}

// isFlagSet checks if a flag was explicitly set.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func printUsage() {
	usage := `Contrast - hybrid PoS/PoW blockchain node

Usage:
  contrastd [options]
  contrastd --help

Commands:
  --help, -h      Show this help message
  --version, -v   Show version information

Core Options:
  --network       Network type: mainnet (default) or testnet
  --testnet       Shorthand for --network=testnet
  --datadir       Data directory (default: ~/.contrast)
  --config, -c    Config file path (default: <datadir>/contrast.conf)

Mining Options:
  --mine            Enable block production (mining and/or validating)
  --coinbase        Address to receive PoW/PoS rewards
  --validator-key   Path to the node's signing key
  --threads         Number of mining worker threads

Logging Options:
  --log-level     Log level: debug, info, warn, error (default: info)
  --log-file      Log file path (default: stdout)
  --log-json      Output logs as JSON

Examples:
  # Start mainnet node, validating only
  contrastd

  # Start testnet node, mining and validating
  contrastd --network=testnet --mine --coinbase=<address> --validator-key=~/.contrast/validator.key

Note:
  Protocol rules (block time, reward schedule, fee floor, etc.) are
  hardcoded in the genesis configuration and cannot be changed at runtime.
  Data directories are created automatically on first start. Gossip
  transport, peer discovery, and the dashboard surface are external
  collaborators configured separately from this core.
`
	fmt.Print(usage)
}

// Load loads configuration with the following precedence:
// 1. Default values
// 2. Auto-create data dirs + default config (idempotent)
// 3. Config file
// 4. Command-line flags
func Load() (*Config, *Flags, error) {
	flags := ParseFlags()

	if flags.Help {
		printUsage()
		os.Exit(0)
	}
	if flags.Version {
		fmt.Println("contrastd version 0.1.0")
		os.Exit(0)
	}

	network := Mainnet
	if strings.ToLower(flags.Network) == "testnet" {
		network = Testnet
	}

	cfg := Default(network)

	if flags.DataDir != "" {
		cfg.DataDir = flags.DataDir
	}

	if err := EnsureDataDirs(cfg); err != nil {
		return nil, nil, fmt.Errorf("ensuring data dirs: %w", err)
	}

	configPath := flags.Config
	if configPath == "" {
		configPath = cfg.ConfigFile()
	}

	fileValues, err := LoadFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config file: %w", err)
	}

	if err := ApplyFileConfig(cfg, fileValues); err != nil {
		return nil, nil, fmt.Errorf("applying config file: %w", err)
	}

	ApplyFlags(cfg, flags)
	if err := Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, flags, nil
}

// EnsureDataDirs creates the data directory structure and a default config
// file if they don't already exist. Idempotent: safe to call on every
// startup.
func EnsureDataDirs(cfg *Config) error {
	dirs := []string{
		cfg.DataDir,
		cfg.ChainDataDir(),
		cfg.BlocksDir(),
		cfg.UTXODir(),
		cfg.KeystoreDir(),
		cfg.LogsDir(),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	configPath := cfg.ConfigFile()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := WriteDefaultConfig(configPath, cfg.Network); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}
	}

	return nil
}

// WriteDefaultConfig writes a commented default .conf file for the given
// network to path.
func WriteDefaultConfig(path string, network NetworkType) error {
	cfg := Default(network)
	var b strings.Builder
	fmt.Fprintf(&b, "# Contrast node configuration (%s)\n", network)
	fmt.Fprintf(&b, "network = %s\n", cfg.Network)
	fmt.Fprintf(&b, "\n# Mining / validating\n")
	fmt.Fprintf(&b, "mining.enabled = %s\n", strconv.FormatBool(cfg.Mining.Enabled))
	fmt.Fprintf(&b, "mining.coinbase = %s\n", cfg.Mining.Coinbase)
	fmt.Fprintf(&b, "mining.validatorkey = %s\n", cfg.Mining.ValidatorKey)
	fmt.Fprintf(&b, "mining.threads = %d\n", cfg.Mining.Threads)
	fmt.Fprintf(&b, "\n# Logging\n")
	fmt.Fprintf(&b, "log.level = %s\n", cfg.Log.Level)
	fmt.Fprintf(&b, "log.json = %s\n", strconv.FormatBool(cfg.Log.JSON))
	return os.WriteFile(path, []byte(b.String()), 0644)
}
