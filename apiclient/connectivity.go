package apiclient

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"
)

// Connectivity is the client's best current knowledge of network
// reachability. IsOfflineNow never blocks, never probes and never errors;
// unknown resolves to online so writes take the direct path and queuing
// stays a deliberate mutation-gate decision rather than a side effect of
// uncertainty.
type Connectivity struct {
	offline  atomic.Bool
	override atomic.Int32 // 0 none, 1 force offline, 2 force online

	probeURL string
	http     *http.Client
}

func NewConnectivity(probeURL string) *Connectivity {
	return &Connectivity{
		probeURL: probeURL,
		http:     &http.Client{Timeout: 3 * time.Second},
	}
}

func (c *Connectivity) IsOfflineNow() bool {
	switch c.override.Load() {
	case 1:
		return true
	case 2:
		return false
	}
	return c.offline.Load()
}

// ForceOffline pins the oracle (airplane mode / tests). ClearOverride
// returns it to probe-driven state.
func (c *Connectivity) ForceOffline()  { c.override.Store(1) }
func (c *Connectivity) ForceOnline()   { c.override.Store(2) }
func (c *Connectivity) ClearOverride() { c.override.Store(0) }

func (c *Connectivity) markOffline() { c.offline.Store(true) }
func (c *Connectivity) markOnline()  { c.offline.Store(false) }

// RunProbe polls the health endpoint until the context ends. API traffic
// already updates the flag passively; the probe exists so a device that
// went quiet still notices the network coming back.
func (c *Connectivity) RunProbe(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
		c.probeOnce(ctx)
	}
}

func (c *Connectivity) probeOnce(ctx context.Context) {
	if c.probeURL == "" {
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.probeURL, nil)
	if err != nil {
		return
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.markOffline()
		return
	}
	resp.Body.Close()
	c.markOnline()
}
