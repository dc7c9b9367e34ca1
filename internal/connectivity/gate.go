// Package connectivity defers sync work until a network path exists.
// The gate remembers whether it was the one that brought connectivity
// up and only releases what it acquired, so it never fights network
// state the user established themselves.
package connectivity

import "log"

// Network is the host-supplied connectivity primitive.
type Network interface {
	// IsOnline reports whether a network path currently exists.
	IsOnline() bool
	// RequestOnline brings connectivity up and invokes callback once it
	// is available. The callback may fire immediately.
	RequestOnline(callback func())
	// ReleaseOnline relinquishes connectivity previously requested.
	ReleaseOnline()
}

// Gate runs tasks behind a connectivity check.
type Gate struct {
	network Network
}

// NewGate creates a gate over the given network primitives.
func NewGate(network Network) *Gate {
	return &Gate{network: network}
}

// Run executes task as soon as connectivity exists. If the network is
// already up, the task runs immediately and nothing is released
// afterward. Otherwise the gate requests connectivity, runs the task
// once the callback fires, and releases what it acquired. If the
// callback never fires the task simply never runs.
func (g *Gate) Run(task func()) {
	if g.network.IsOnline() {
		task()
		return
	}

	log.Printf("Connectivity: offline, deferring sync until the network is up")
	g.network.RequestOnline(func() {
		task()
		g.network.ReleaseOnline()
	})
}

// RunOpportunistic executes task only when connectivity already exists.
// It never requests connectivity and never releases it. Returns whether
// the task ran.
func (g *Gate) RunOpportunistic(task func()) bool {
	if !g.network.IsOnline() {
		return false
	}
	task()
	return true
}

// AlwaysOnline is a Network for hosts without connectivity management,
// such as desktop installs with a permanent connection.
type AlwaysOnline struct{}

func (AlwaysOnline) IsOnline() bool                { return true }
func (AlwaysOnline) RequestOnline(callback func()) { callback() }
func (AlwaysOnline) ReleaseOnline()                {}
