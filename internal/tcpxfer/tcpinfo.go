//go:build linux

package tcpxfer

import (
	"fmt"
	"net"

	"github.com/higebu/netfd"
	"golang.org/x/sys/unix"
)

// Stats is the subset of Linux's tcp_info the harness cares about for
// comparing RDP/UDP/QUIC against kernel-level TCP behavior.
type Stats struct {
	State        uint8
	Retransmits  uint8
	RTT          uint32 // microseconds
	RTTVar       uint32 // microseconds
	SndCwnd      uint32 // segments
	TotalRetrans uint32
}

// sampleTCPInfo reads TCP_INFO off conn's underlying file descriptor via
// a raw getsockopt(IPPROTO_TCP, TCP_INFO) call, grounded on the same
// fd-extraction-plus-getsockopt pattern used for kernel congestion
// introspection elsewhere in the retrieved corpus.
func sampleTCPInfo(conn *net.TCPConn) (Stats, error) {
	fd, err := netfd.GetFdFromConn(conn)
	if err != nil {
		return Stats{}, fmt.Errorf("tcpxfer: extracting fd: %w", err)
	}
	info, err := unix.GetsockoptTCPInfo(fd, unix.IPPROTO_TCP, unix.TCP_INFO)
	if err != nil {
		return Stats{}, fmt.Errorf("tcpxfer: getsockopt(TCP_INFO): %w", err)
	}
	return Stats{
		State:        info.State,
		Retransmits:  info.Retransmits,
		RTT:          info.Rtt,
		RTTVar:       info.Rttvar,
		SndCwnd:      info.Snd_cwnd,
		TotalRetrans: info.Total_retrans,
	}, nil
}
