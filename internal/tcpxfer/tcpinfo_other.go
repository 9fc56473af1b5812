//go:build !linux

package tcpxfer

import (
	"errors"
	"net"
)

// Stats mirrors the Linux TCP_INFO subset this harness reports; it is
// always zero-valued on platforms where TCP_INFO introspection isn't
// wired up.
type Stats struct {
	State        uint8
	Retransmits  uint8
	RTT          uint32
	RTTVar       uint32
	SndCwnd      uint32
	TotalRetrans uint32
}

func sampleTCPInfo(conn *net.TCPConn) (Stats, error) {
	return Stats{}, errors.New("tcpxfer: TCP_INFO sampling is only implemented on linux")
}
