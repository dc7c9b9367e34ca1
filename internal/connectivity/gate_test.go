package connectivity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeNetwork struct {
	online    bool
	requested bool
	released  bool
	callback  func()
}

func (n *fakeNetwork) IsOnline() bool { return n.online }

func (n *fakeNetwork) RequestOnline(callback func()) {
	n.requested = true
	n.callback = callback
}

func (n *fakeNetwork) ReleaseOnline() { n.released = true }

// connect simulates connectivity appearing after a request.
func (n *fakeNetwork) connect() {
	n.online = true
	if n.callback != nil {
		n.callback()
	}
}

func TestGate_Run_OnlineRunsImmediatelyWithoutRelease(t *testing.T) {
	network := &fakeNetwork{online: true}
	gate := NewGate(network)

	ran := false
	gate.Run(func() { ran = true })

	assert.True(t, ran)
	assert.False(t, network.requested)
	assert.False(t, network.released, "gate must not release connectivity it did not acquire")
}

func TestGate_Run_OfflineDefersAndReleasesAfterwards(t *testing.T) {
	network := &fakeNetwork{online: false}
	gate := NewGate(network)

	ran := false
	gate.Run(func() { ran = true })

	assert.False(t, ran, "task must wait for connectivity")
	assert.True(t, network.requested)

	network.connect()
	assert.True(t, ran)
	assert.True(t, network.released, "gate acquired connectivity and must release it")
}

func TestGate_Run_ConnectivityNeverAppears(t *testing.T) {
	network := &fakeNetwork{online: false}
	gate := NewGate(network)

	ran := false
	gate.Run(func() { ran = true })

	// Callback never fires; the run simply never happens.
	assert.False(t, ran)
	assert.False(t, network.released)
}

func TestGate_RunOpportunistic(t *testing.T) {
	offline := &fakeNetwork{online: false}
	ran := false
	ok := NewGate(offline).RunOpportunistic(func() { ran = true })
	assert.False(t, ok)
	assert.False(t, ran)
	assert.False(t, offline.requested, "opportunistic path must not request connectivity")

	online := &fakeNetwork{online: true}
	ok = NewGate(online).RunOpportunistic(func() { ran = true })
	assert.True(t, ok)
	assert.True(t, ran)
	assert.False(t, online.released)
}
