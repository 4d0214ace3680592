// Package forwarder implements the connectionful datagram client used to
// push dump requests back to the reporting agent. It connects on demand,
// reconnects after a socket error, and never treats a forwarding failure as
// fatal to the event being processed.
package forwarder

import (
	"fmt"
	"net"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SendResult classifies the outcome of a Send call.
type SendResult int

const (
	// Success means the message was written to the socket.
	Success SendResult = iota
	// SizeTooLong means the message exceeds the transport's datagram
	// size limit and was not sent.
	SizeTooLong
	// SocketError means the write failed; the client disconnects so the
	// next call reconnects.
	SocketError
)

// Socket is the minimal transport this client needs: one best-effort
// datagram write, and close. A real implementation wraps a connected
// net.Conn (e.g. a Unix datagram socket); tests supply an in-memory fake.
type Socket interface {
	Write(p []byte) (int, error)
	Close() error
}

// Dialer opens a Socket on demand. Client calls it lazily from Connect, not
// at construction time, matching the connect-on-demand policy in spec §4.4.
type Dialer func() (Socket, error)

// MaxMessageSize is the default datagram size ceiling enforced by Send
// before attempting a write; messages over this size are classified as
// SizeTooLong without touching the socket.
const MaxMessageSize = 212

// Client is a connectionful client to the dump-request sink. It is shared
// across invocations of the decoder; it is write-only and is not expected
// to be safe for concurrent use, matching the single-worker model in
// spec §5.
type Client struct {
	dial    Dialer
	maxSize int
	logger  *zap.Logger

	conn Socket
}

// New creates a Client that dials connections with dial. Pass zap.NewNop()
// when no logging is desired.
func New(dial Dialer, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{dial: dial, maxSize: MaxMessageSize, logger: logger}
}

// DialUnixgram returns a Dialer that connects to a Unix datagram socket at
// path, the transport used by the real dump-request sink.
func DialUnixgram(path string) Dialer {
	return func() (Socket, error) {
		addr := &net.UnixAddr{Name: path, Net: "unixgram"}
		c, err := net.DialUnix("unixgram", nil, addr)
		if err != nil {
			return nil, fmt.Errorf("forwarder: dial %s: %w", path, err)
		}
		return c, nil
	}
}

// IsConnected reports whether the client currently holds an open socket.
func (c *Client) IsConnected() bool {
	return c.conn != nil
}

// Connect opens the underlying socket if not already connected.
func (c *Client) Connect() error {
	if c.conn != nil {
		return nil
	}
	conn, err := c.dial()
	if err != nil {
		return err
	}
	c.conn = conn
	return nil
}

// Disconnect closes and forgets the current socket, if any. The next Send
// (via PushDumpRequest) will reconnect.
func (c *Client) Disconnect() {
	if c.conn == nil {
		return
	}
	_ = c.conn.Close()
	c.conn = nil
}

// Send writes msg to the socket. It must already be connected.
func (c *Client) Send(msg string) SendResult {
	if len(msg) > c.maxSize {
		return SizeTooLong
	}
	if _, err := c.conn.Write([]byte(msg)); err != nil {
		return SocketError
	}
	return Success
}

// PushDumpRequest implements the dump-request policy from spec §4.4: connect
// if needed (swallowing a connect failure), build the
// "{agentID}:sca-dump:{policyID}:{0|1}" message, send it, and reconnect on
// a socket error. It never returns an error — forwarder transport failures
// are never fatal to the event being processed — and reports whether the
// message was actually sent, plus a correlation ID logged alongside the
// send for operators matching a push to its eventual dump_end event.
func (c *Client) PushDumpRequest(agentID, policyID string, firstScan bool) (sent bool, corrID string) {
	if !c.IsConnected() {
		if err := c.Connect(); err != nil {
			c.logger.Warn("forwarder connect failed", zap.Error(err))
			return false, ""
		}
	}

	flag := "0"
	if firstScan {
		flag = "1"
	}
	msg := fmt.Sprintf("%s:sca-dump:%s:%s", agentID, policyID, flag)
	corrID = uuid.NewString()

	switch c.Send(msg) {
	case Success:
		c.logger.Debug("dump request sent",
			zap.String("agent_id", agentID),
			zap.String("policy_id", policyID),
			zap.Bool("first_scan", firstScan),
			zap.String("correlation_id", corrID))
		return true, corrID
	case SizeTooLong:
		c.logger.Warn("dump request too long", zap.String("policy_id", policyID), zap.Int("size", len(msg)))
		return false, ""
	case SocketError:
		c.logger.Warn("dump request socket error, disconnecting", zap.String("policy_id", policyID))
		c.Disconnect()
		return false, ""
	default:
		return false, ""
	}
}
