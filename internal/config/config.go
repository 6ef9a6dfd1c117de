package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"raffle/internal/logger"

	"github.com/joho/godotenv"
	"github.com/tonkeeper/tongo/tlb"
	"github.com/tonkeeper/tongo/ton"
)

var (
	ErrInvalidDuration     = errors.New("config: duration must be positive")
	ErrWalletOnDevelopment = errors.New("config: wallet mnemonic is not allowed on a development network")
)

type Config struct {
	Network        Network
	DatabasePath   string
	HTTPAddress    string
	KeeperInterval time.Duration
	OracleInterval time.Duration
	Log            logger.Configuration

	WalletMnemonic string
	WalletVersion  string
	TonAPIURL      string
	TonAPIToken    string
	Treasury       *ton.AccountID
}

// Load reads an optional .env file, then the process environment.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load env file: %w", err)
	}

	network, err := LookupNetwork(getEnv("RAFFLE_NETWORK", "local"))
	if err != nil {
		return nil, err
	}

	if value := os.Getenv("RAFFLE_ENTRANCE_FEE"); value != "" {
		fee, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("config: RAFFLE_ENTRANCE_FEE: %w", err)
		}
		network.EntranceFee = tlb.Grams(fee)
	}

	if os.Getenv("RAFFLE_INTERVAL") != "" {
		interval, err := getDuration("RAFFLE_INTERVAL", "")
		if err != nil {
			return nil, err
		}
		network.Interval = interval
	}

	if value := os.Getenv("RAFFLE_KEY_HASH"); value != "" {
		keyHash, err := ParseKeyHash(value)
		if err != nil {
			return nil, err
		}
		network.KeyHash = keyHash
	}

	if value := os.Getenv("RAFFLE_SUBSCRIPTION_ID"); value != "" {
		subscriptionID, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("config: RAFFLE_SUBSCRIPTION_ID: %w", err)
		}
		network.SubscriptionID = subscriptionID
	}

	keeperInterval, err := getDuration("RAFFLE_KEEPER_INTERVAL", "5s")
	if err != nil {
		return nil, err
	}

	oracleInterval, err := getDuration("RAFFLE_ORACLE_INTERVAL", "2s")
	if err != nil {
		return nil, err
	}

	console, err := strconv.ParseBool(getEnv("LOG_CONSOLE", "true"))
	if err != nil {
		return nil, fmt.Errorf("config: LOG_CONSOLE: %w", err)
	}

	var treasury *ton.AccountID
	if value := os.Getenv("TREASURY_ADDRESS"); value != "" {
		accountID, err := ton.ParseAccountID(value)
		if err != nil {
			return nil, fmt.Errorf("config: TREASURY_ADDRESS: %w", err)
		}
		treasury = &accountID
	}

	mnemonic := os.Getenv("WALLET_MNEMONIC")
	if mnemonic != "" && network.IsDevelopment() {
		return nil, fmt.Errorf("%w: %q", ErrWalletOnDevelopment, network.Name)
	}

	return &Config{
		Network:        network,
		DatabasePath:   getEnv("RAFFLE_DATABASE", "persistent.db"),
		HTTPAddress:    getEnv("RAFFLE_HTTP_ADDRESS", ":8080"),
		KeeperInterval: keeperInterval,
		OracleInterval: oracleInterval,
		Log: logger.Configuration{
			LogFile:   os.Getenv("LOG_FILE"),
			ErrorFile: os.Getenv("LOG_ERROR_FILE"),
			Level:     getEnv("LOG_LEVEL", "debug"),
			Console:   console,
		},
		WalletMnemonic: mnemonic,
		WalletVersion:  getEnv("WALLET_VERSION", "V4R2"),
		TonAPIURL:      os.Getenv("TONAPI_URL"),
		TonAPIToken:    os.Getenv("TONAPI_TOKEN"),
		Treasury:       treasury,
	}, nil
}

func getDuration(key string, fallback string) (time.Duration, error) {
	duration, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("%w: %s=%s", ErrInvalidDuration, key, duration)
	}
	return duration, nil
}

func getEnv(key string, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
