package port

import (
	"fmt"
	"net"
	"sort"
)

// maxPort is the highest valid TCP port number (2^16 - 1).
const maxPort = 65535

// Scanner probes the host for TCP ports that are already taken.
//
// Binders never consult the host: they are pure mappings. The scanner is
// used after composition to warn when a Fixed or Shifting binding would
// land on a port that some other process (often another environment with
// the same offset) already holds.
type Scanner struct {
	// listen is replaceable in tests.
	listen func(network, address string) (net.Listener, error)
}

// NewScanner creates a Scanner that probes with net.Listen.
func NewScanner() *Scanner {
	return &Scanner{listen: net.Listen}
}

// IsPortAvailable reports whether a TCP listener can be opened on port.
// Ports outside 1-65535 are reported as unavailable.
//
// We bind to all interfaces because Docker publishes on 0.0.0.0 by default.
func (s *Scanner) IsPortAvailable(port int) bool {
	if port < 1 || port > maxPort {
		return false
	}
	listener, err := s.listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return false
	}
	_ = listener.Close()
	return true
}

// Busy returns the sorted, de-duplicated subset of hostPorts that cannot be
// bound on this host. Ephemeral bindings must be filtered out by the caller.
func (s *Scanner) Busy(hostPorts []int) []int {
	seen := make(map[int]bool, len(hostPorts))
	var busy []int
	for _, p := range hostPorts {
		if seen[p] {
			continue
		}
		seen[p] = true
		if !s.IsPortAvailable(p) {
			busy = append(busy, p)
		}
	}
	sort.Ints(busy)
	return busy
}
