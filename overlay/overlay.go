// Package overlay is the default implementation of the helloworld
// Broadcaster and Resolver capabilities, talking plain HTTP to overlay
// nodes: BEEF submit for topic broadcast, JSON lookup for queries.
package overlay

import (
	"net/http"
	"time"

	helloworld "github.com/bitspv/helloworld-token"
)

// Preset overlay hosts per network.
var defaultHosts = map[helloworld.Network][]string{
	helloworld.NetworkMainnet: {"https://overlay.bitspv.net"},
	helloworld.NetworkTestnet: {"https://testnet-overlay.bitspv.net"},
	helloworld.NetworkLocal:   {"http://localhost:8080"},
}

// HostsFor resolves the host list for a network, preferring overrides.
func HostsFor(network helloworld.Network, overrides []string) []string {
	if len(overrides) > 0 {
		return overrides
	}
	return defaultHosts[network]
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}
