// Package p2pd implements the handshake, address bookkeeping, anti-Sybil
// challenge, rate limiting, and peer management of the gossip network.
package p2pd

import (
	"fmt"
	"net"
	"sync"

	"github.com/supernova-chain/supernova/wire"
)

// AddressKey is a string key for use in maps, grounded on
// addressmanager.go's netAddressKey.
type AddressKey string

func addressKey(addr *wire.NetAddress) AddressKey {
	return AddressKey(fmt.Sprintf("%s:%d", addr.IP.String(), addr.Port))
}

// IsRoutable reports whether addr's IP is usable as a dial target: not
// unspecified, loopback, multicast, or link-local. Documentation and
// private ranges are accepted.
// Grounded on addressmanager.go's IsRoutable, narrowed to net.IP's own
// classification helpers instead of a hand-maintained reserved-block
// table.
func IsRoutable(ip net.IP) bool {
	if ip == nil {
		return false
	}
	if ip.IsUnspecified() || ip.IsLoopback() || ip.IsMulticast() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return false
	}
	return true
}

// ErrAddressNotFound mirrors addressmanager.go's sentinel for operations
// on an address the manager doesn't know about.
var ErrAddressNotFound = fmt.Errorf("p2pd: address not found")

// AddressManager tracks known and banned peer addresses, concurrency-safe
// since the peer table is shared: read by schedulers, written by
// network handlers, grounded on
// daglabs-btcd/infrastructure/network/addressmanager/addressmanager.go.
type AddressManager struct {
	mu               sync.Mutex
	addresses        map[AddressKey]*wire.NetAddress
	bannedAddresses  map[AddressKey]*wire.NetAddress
	acceptUnroutable bool
}

// NewAddressManager constructs an empty AddressManager. acceptUnroutable
// exists only for tests that need to register loopback peers.
func NewAddressManager(acceptUnroutable bool) *AddressManager {
	return &AddressManager{
		addresses:        make(map[AddressKey]*wire.NetAddress),
		bannedAddresses:  make(map[AddressKey]*wire.NetAddress),
		acceptUnroutable: acceptUnroutable,
	}
}

// Add registers addr if it is routable (or acceptUnroutable is set) and
// not already known.
func (m *AddressManager) Add(addr *wire.NetAddress) {
	if !m.acceptUnroutable && !IsRoutable(addr.IP) {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := addressKey(addr)
	if _, ok := m.addresses[key]; !ok {
		m.addresses[key] = addr
	}
}

// Remove deletes addr from both the known and banned sets.
func (m *AddressManager) Remove(addr *wire.NetAddress) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := addressKey(addr)
	delete(m.addresses, key)
	delete(m.bannedAddresses, key)
}

// Addresses returns every known, non-banned address.
func (m *AddressManager) Addresses() []*wire.NetAddress {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*wire.NetAddress, 0, len(m.addresses))
	for _, a := range m.addresses {
		out = append(out, a)
	}
	return out
}

// Ban moves addr from the known set into the banned set.
func (m *AddressManager) Ban(addr *wire.NetAddress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := addressKey(addr)
	known, ok := m.addresses[key]
	if !ok {
		return ErrAddressNotFound
	}
	delete(m.addresses, key)
	m.bannedAddresses[key] = known
	return nil
}

// Unban reverses Ban.
func (m *AddressManager) Unban(addr *wire.NetAddress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := addressKey(addr)
	banned, ok := m.bannedAddresses[key]
	if !ok {
		return ErrAddressNotFound
	}
	delete(m.bannedAddresses, key)
	m.addresses[key] = banned
	return nil
}

// IsBanned reports whether addr is currently banned.
func (m *AddressManager) IsBanned(addr *wire.NetAddress) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.bannedAddresses[addressKey(addr)]
	return ok
}
