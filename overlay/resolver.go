package overlay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	helloworld "github.com/bitspv/helloworld-token"
)

// Resolver answers lookup questions by querying overlay hosts over HTTP.
// Hosts are tried in order; the first well-formed answer is returned.
type Resolver struct {
	Hosts  []string
	Client *http.Client
}

// NewResolver builds the default lookup resolver for a network preset.
// Host overrides replace the preset host list.
func NewResolver(network helloworld.Network, hosts ...string) (*Resolver, error) {
	resolved := HostsFor(network, hosts)
	if len(resolved) == 0 {
		return nil, fmt.Errorf("overlay: no hosts for network %q", network)
	}
	return &Resolver{
		Hosts:  resolved,
		Client: newHTTPClient(),
	}, nil
}

// Query posts the question to each host's lookup endpoint under the given
// timeout. Failures of every host propagate as an error; there is no retry
// beyond the host list itself.
func (r *Resolver) Query(ctx context.Context, question *helloworld.LookupQuestion, timeout time.Duration) (*helloworld.LookupAnswer, error) {
	if timeout <= 0 {
		timeout = helloworld.DefaultLookupTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload, err := json.Marshal(question)
	if err != nil {
		return nil, fmt.Errorf("lookup: %w", err)
	}

	var lastErr error
	for _, host := range r.Hosts {
		answer, err := r.queryHost(ctx, host, payload)
		if err != nil {
			lastErr = err
			continue
		}
		return answer, nil
	}
	return nil, fmt.Errorf("lookup failed on all hosts: %w", lastErr)
}

func (r *Resolver) queryHost(ctx context.Context, host string, payload []byte) (*helloworld.LookupAnswer, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, host+"/lookup", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s: status %d", host, resp.StatusCode)
	}
	answer := &helloworld.LookupAnswer{}
	if err := json.NewDecoder(resp.Body).Decode(answer); err != nil {
		return nil, fmt.Errorf("%s: bad answer: %w", host, err)
	}
	return answer, nil
}
