// Package netmon observes network reachability and reports offline→online
// transition edges. Consumers subscribe with OnOnline; callbacks fire on the
// edge only, never on steady-state connectivity, so repeated "still online"
// probe results don't re-trigger work.
package netmon

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"
)

// Reachability is the tri-state answer to "can we reach the internet".
// It stays Unknown until the first probe completes.
type Reachability int

const (
	Unknown Reachability = iota
	Yes
	No
)

func (r Reachability) String() string {
	switch r {
	case Yes:
		return "yes"
	case No:
		return "no"
	default:
		return "unknown"
	}
}

// Pinger performs a cheap reachability check against the backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Monitor polls link state and backend reachability.
type Monitor struct {
	pinger   Pinger
	interval time.Duration

	// linkCheck is injectable for tests; defaults to hasLinkAddr.
	linkCheck func() bool

	mu         sync.Mutex
	connected  bool
	reachable  Reachability
	wasOnline  bool
	subs       []func()
	everProbed bool

	stop chan struct{}
	done chan struct{}
}

// New creates a monitor. It starts classified as offline; the first
// successful probe produces the initial offline→online edge.
func New(pinger Pinger, interval time.Duration) *Monitor {
	return &Monitor{
		pinger:    pinger,
		interval:  interval,
		linkCheck: hasLinkAddr,
		reachable: Unknown,
	}
}

// OnOnline registers a callback fired on each offline→online edge.
// Must be called before Start.
func (m *Monitor) OnOnline(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, fn)
}

// IsConnected reports whether a usable network link exists.
func (m *Monitor) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// IsInternetReachable reports the last probe outcome.
func (m *Monitor) IsInternetReachable() Reachability {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reachable
}

// IsOnline is the derived classification: a link exists and the last probe
// did not answer "no". An Unknown probe result counts as online so a fresh
// link isn't penalized before the first probe finishes.
func (m *Monitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online()
}

func (m *Monitor) online() bool {
	return m.connected && m.reachable != No
}

// Start launches the polling loop. Stop terminates it.
func (m *Monitor) Start(ctx context.Context) {
	m.stop = make(chan struct{})
	m.done = make(chan struct{})

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		m.Check(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.stop:
				return
			case <-ticker.C:
				m.Check(ctx)
			}
		}
	}()
}

// Stop terminates the polling loop and waits for it to exit.
func (m *Monitor) Stop() {
	if m.stop == nil {
		return
	}
	close(m.stop)
	<-m.done
	m.stop = nil
}

// Check performs one classification round: link state, then a backend probe
// when a link exists. Fires subscriber callbacks if this round crossed the
// offline→online edge.
func (m *Monitor) Check(ctx context.Context) {
	connected := m.linkCheck()

	reachable := No
	if connected {
		probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := m.pinger.Ping(probeCtx)
		cancel()
		if err != nil {
			reachable = No
		} else {
			reachable = Yes
		}
	}

	m.mu.Lock()
	if !connected && !m.everProbed {
		// Never probed and no link: reachability is genuinely unknown.
		reachable = Unknown
	}
	if connected {
		m.everProbed = true
	}
	m.connected = connected
	m.reachable = reachable

	nowOnline := m.online()
	edge := nowOnline && !m.wasOnline
	m.wasOnline = nowOnline
	subs := m.subs
	m.mu.Unlock()

	if edge {
		slog.Info("Connectivity restored", "reachable", reachable.String())
		for _, fn := range subs {
			fn()
		}
	}
}

// hasLinkAddr reports whether any non-loopback interface carries an address.
// This is the device-level "connected" bit; it says nothing about whether
// the internet is actually reachable through it.
func hasLinkAddr() bool {
	ifaces, err := net.Interfaces()
	if err != nil {
		return false
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil || len(addrs) == 0 {
			continue
		}
		return true
	}
	return false
}
