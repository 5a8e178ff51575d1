package wire

import (
	"encoding/binary"
	"io"
	"net"
)

// Features is a bitflag set advertised during the handshake, grounded
// on daglabs-btcd's appmessage.NetAddress layout.
type Features uint64

const (
	FeatureFullNode Features = 1 << iota
	FeatureHeadersOnly
	FeatureHTLC
)

// NetAddress describes a peer address as gossiped by PeerDiscovery
// messages.
type NetAddress struct {
	IP       net.IP
	Port     uint16
	LastSeen uint64
	Features Features
}

func (a *NetAddress) serialize(w io.Writer) error {
	ip16 := a.IP.To16()
	if ip16 == nil {
		ip16 = make(net.IP, 16)
	}
	if _, err := w.Write(ip16); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, a.Port); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, a.LastSeen); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, uint64(a.Features))
}

func (a *NetAddress) deserialize(r io.Reader) error {
	ip := make(net.IP, 16)
	if _, err := io.ReadFull(r, ip); err != nil {
		return err
	}
	a.IP = ip
	if err := binary.Read(r, binary.LittleEndian, &a.Port); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &a.LastSeen); err != nil {
		return err
	}
	var features uint64
	if err := binary.Read(r, binary.LittleEndian, &features); err != nil {
		return err
	}
	a.Features = Features(features)
	return nil
}

// WriteNetAddressList and ReadNetAddressList (de)serialize the payload of a
// PeerDiscovery::Peers message.
func WriteNetAddressList(w io.Writer, addrs []*NetAddress) error {
	if err := WriteVarInt(w, uint64(len(addrs))); err != nil {
		return err
	}
	for _, a := range addrs {
		if err := a.serialize(w); err != nil {
			return err
		}
	}
	return nil
}

const maxAddrsPerMessage = 1000

func ReadNetAddressList(r io.Reader) ([]*NetAddress, error) {
	count, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if count > maxAddrsPerMessage {
		return nil, ErrVarBytesTooLarge
	}
	addrs := make([]*NetAddress, count)
	for i := range addrs {
		a := &NetAddress{}
		if err := a.deserialize(r); err != nil {
			return nil, err
		}
		addrs[i] = a
	}
	return addrs, nil
}
