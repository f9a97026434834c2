package helloworld

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config carries the environment-driven settings the binaries share.
type Config struct {
	// Network preset: mainnet, testnet or local.
	Network Network

	// OverlayHosts are the overlay nodes used for submit and lookup. Empty
	// means the preset defaults for Network.
	OverlayHosts []string

	// WalletSeed is the BIP-39 mnemonic backing the default wallet.
	WalletSeed string

	// FundingUTXOs points at a JSON file listing spendable wallet outputs.
	FundingUTXOs string

	// Listen is the HTTP server bind address.
	Listen string
}

// ConfigFromEnv loads .env if present and reads the configuration, filling
// in defaults the way the rest of the module expects them.
func ConfigFromEnv() Config {
	godotenv.Load()

	cfg := Config{
		Network:      Network(os.Getenv("HELLOWORLD_NETWORK")),
		WalletSeed:   os.Getenv("WALLET_SEED"),
		FundingUTXOs: os.Getenv("FUNDING_UTXOS"),
		Listen:       os.Getenv("LISTEN"),
	}
	if cfg.Network == "" {
		cfg.Network = NetworkMainnet
	}
	if hosts := os.Getenv("OVERLAY_HOSTS"); hosts != "" {
		for _, h := range strings.Split(hosts, ",") {
			if h = strings.TrimSpace(h); h != "" {
				cfg.OverlayHosts = append(cfg.OverlayHosts, h)
			}
		}
	}
	if cfg.Listen == "" {
		cfg.Listen = "0.0.0.0:8080"
	}
	return cfg
}
