package overlay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/bsv-blockchain/go-sdk/transaction"

	helloworld "github.com/bitspv/helloworld-token"
)

// Broadcaster submits transactions to overlay topics. Each configured host
// is tried in order; the first acceptance wins.
type Broadcaster struct {
	Topics []string
	Hosts  []string
	Client *http.Client
}

// NewBroadcaster builds the default topic broadcaster for a network
// preset. Host overrides replace the preset host list.
func NewBroadcaster(topics []string, network helloworld.Network, hosts ...string) (*Broadcaster, error) {
	if len(topics) == 0 {
		return nil, fmt.Errorf("overlay: no topics")
	}
	resolved := HostsFor(network, hosts)
	if len(resolved) == 0 {
		return nil, fmt.Errorf("overlay: no hosts for network %q", network)
	}
	return &Broadcaster{
		Topics: topics,
		Hosts:  resolved,
		Client: newHTTPClient(),
	}, nil
}

// Broadcast sends the transaction's BEEF to each host's submit endpoint
// until one accepts it. Rejection by every host is a failure result, not
// an error.
func (b *Broadcaster) Broadcast(ctx context.Context, tx *transaction.Transaction) *helloworld.BroadcastResult {
	beef, err := tx.BEEF()
	if err != nil {
		return failure("ERR_BAD_TX", fmt.Sprintf("could not serialize beef: %s", err))
	}
	topicsHeader, err := json.Marshal(b.Topics)
	if err != nil {
		return failure("ERR_BAD_TOPICS", err.Error())
	}

	var lastErr string
	for _, host := range b.Hosts {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, host+"/submit", bytes.NewReader(beef))
		if err != nil {
			lastErr = err.Error()
			continue
		}
		req.Header.Set("Content-Type", "application/octet-stream")
		req.Header.Set("X-Topics", string(topicsHeader))

		resp, err := b.Client.Do(req)
		if err != nil {
			lastErr = err.Error()
			continue
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode < 300 {
			return &helloworld.BroadcastResult{Success: &helloworld.BroadcastSuccess{
				Txid:    tx.TxID().String(),
				Message: fmt.Sprintf("accepted by %s", host),
			}}
		}
		lastErr = fmt.Sprintf("%s: %d %s", host, resp.StatusCode, string(body))
	}

	return failure("ERR_SUBMIT", lastErr)
}

func failure(code, description string) *helloworld.BroadcastResult {
	return &helloworld.BroadcastResult{Failure: &helloworld.BroadcastFailure{
		Code:        code,
		Description: description,
	}}
}
