package port

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestIsPortAvailable_UsedPort verifies that IsPortAvailable returns false
// when a port is already bound by another listener.
func TestIsPortAvailable_UsedPort(t *testing.T) {
	// ":0" lets the OS pick a free port, which avoids flaky hardcoded ports.
	listener, err := net.Listen("tcp", ":0")
	require.NoError(t, err, "failed to start test listener")
	defer func() { _ = listener.Close() }()

	tcpAddr, ok := listener.Addr().(*net.TCPAddr)
	require.True(t, ok)

	scanner := NewScanner()
	assert.False(t, scanner.IsPortAvailable(tcpAddr.Port),
		"port %d should be in use (we have a listener on it)", tcpAddr.Port)
}

// TestIsPortAvailable_FreePort uses the OS to find a free port, releases it,
// and checks the scanner agrees it can be bound.
func TestIsPortAvailable_FreePort(t *testing.T) {
	listener, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	assert.True(t, NewScanner().IsPortAvailable(port))
}

// TestIsPortAvailable_OutOfRange verifies invalid port numbers are never
// reported as available. Shifting binders can produce ports above 65535.
func TestIsPortAvailable_OutOfRange(t *testing.T) {
	scanner := NewScanner()
	assert.False(t, scanner.IsPortAvailable(0))
	assert.False(t, scanner.IsPortAvailable(70000))
}

// TestBusy uses a stub listen function so the result does not depend on the
// ports in use on the test machine.
func TestBusy(t *testing.T) {
	taken := map[string]bool{":9092": true, ":8080": true}
	probed := 0
	scanner := &Scanner{listen: func(network, address string) (net.Listener, error) {
		probed++
		if taken[address] {
			return nil, &net.OpError{Op: "listen", Net: network}
		}
		return net.Listen("tcp", "127.0.0.1:0")
	}}

	busy := scanner.Busy([]int{9092, 2181, 8080, 9092})

	assert.Equal(t, []int{8080, 9092}, busy, "busy ports should be sorted and unique")
	assert.Equal(t, 3, probed, "duplicate ports should only be probed once")
}

// TestBusy_Empty verifies no probing happens for an empty input.
func TestBusy_Empty(t *testing.T) {
	assert.Empty(t, NewScanner().Busy(nil))
}
