package p2pd

import (
	"net"
	"testing"

	"github.com/supernova-chain/supernova/wire"
)

func addr(ip string, port uint16) *wire.NetAddress {
	return &wire.NetAddress{IP: net.ParseIP(ip), Port: port}
}

func TestIsRoutableRejectsReservedRanges(t *testing.T) {
	cases := []struct {
		ip       string
		routable bool
	}{
		{"8.8.8.8", true},
		{"127.0.0.1", false},
		{"0.0.0.0", false},
		{"169.254.1.1", false},
		{"224.0.0.1", false},
	}
	for _, c := range cases {
		if got := IsRoutable(net.ParseIP(c.ip)); got != c.routable {
			t.Errorf("IsRoutable(%s) = %v, want %v", c.ip, got, c.routable)
		}
	}
}

func TestAddressManagerAddAndBan(t *testing.T) {
	m := NewAddressManager(false)
	a := addr("8.8.8.8", 9000)
	m.Add(a)

	if len(m.Addresses()) != 1 {
		t.Fatalf("expected 1 known address, got %d", len(m.Addresses()))
	}

	if err := m.Ban(a); err != nil {
		t.Fatalf("Ban: %v", err)
	}
	if !m.IsBanned(a) {
		t.Fatal("expected address to be banned")
	}
	if len(m.Addresses()) != 0 {
		t.Fatal("banned address should not appear in Addresses")
	}

	if err := m.Unban(a); err != nil {
		t.Fatalf("Unban: %v", err)
	}
	if m.IsBanned(a) {
		t.Fatal("expected address to no longer be banned")
	}
	if len(m.Addresses()) != 1 {
		t.Fatal("unbanned address should reappear in Addresses")
	}
}

func TestAddressManagerRejectsUnroutableByDefault(t *testing.T) {
	m := NewAddressManager(false)
	m.Add(addr("127.0.0.1", 9000))
	if len(m.Addresses()) != 0 {
		t.Fatal("unroutable address should not be added")
	}
}

func TestAddressManagerBanUnknownFails(t *testing.T) {
	m := NewAddressManager(false)
	if err := m.Ban(addr("8.8.8.8", 9000)); err != ErrAddressNotFound {
		t.Fatalf("expected ErrAddressNotFound, got %v", err)
	}
}
