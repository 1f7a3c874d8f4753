package tcp

import (
	"github.com/ValentinKolb/dInfer/rpc/common"
	"net"
	"time"
)

// upgradeTCPConn applies tcpConf and sockConf to conn. Zero values keep the
// defaults of the operating system, as does a negative linger.
func upgradeTCPConn(conn net.Conn, tcpConf common.TCPConf, sockConf common.SocketConf) error {
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}

	opts := []struct {
		enabled bool
		apply   func() error
	}{
		{true, func() error { return tc.SetNoDelay(tcpConf.TCPNoDelay) }},
		{sockConf.WriteBufferSize > 0, func() error { return tc.SetWriteBuffer(sockConf.WriteBufferSize) }},
		{sockConf.ReadBufferSize > 0, func() error { return tc.SetReadBuffer(sockConf.ReadBufferSize) }},
		{tcpConf.TCPKeepAliveSec > 0, func() error {
			return tc.SetKeepAliveConfig(net.KeepAliveConfig{
				Enable: true,
				Idle:   time.Duration(tcpConf.TCPKeepAliveSec) * time.Second,
			})
		}},
		{tcpConf.TCPLingerSec >= 0, func() error { return tc.SetLinger(tcpConf.TCPLingerSec) }},
	}
	for _, opt := range opts {
		if !opt.enabled {
			continue
		}
		if err := opt.apply(); err != nil {
			return err
		}
	}
	return nil
}
