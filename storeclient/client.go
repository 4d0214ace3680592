// Package storeclient implements the request/response client used to query
// and mutate the policy-monitoring store. The wire protocol is plain text:
// each query is "agent {agentID} sca {verb} {arg}|{arg}|..." and the store
// replies with a response line starting with a status code.
package storeclient

import (
	"bytes"
	"fmt"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Code is the status prefix of a store reply.
type Code int

const (
	// CodeOK means the store processed the query and the remainder of the
	// reply is meaningful (a "found "/"not found" payload, or an empty
	// payload for a write verb).
	CodeOK Code = iota
	// CodeError means the store rejected or failed the query.
	CodeError
)

// SearchResult classifies a parsed store reply for read-style queries
// (query, query_scan, query_policy, query_results, query_policies, ...).
type SearchResult int

const (
	// Found means the store returned a payload for the query.
	Found SearchResult = iota
	// NotFound means the store has no record matching the query.
	NotFound
	// SearchError means the store returned an error, or a reply this
	// client cannot parse safely (e.g. a truncated "found" prefix).
	SearchError
)

// Conn is the minimal transport this client needs: send one line, receive
// one line. A real implementation wraps a net.Conn with the store's
// length/newline framing (unspecified by this module, per spec); tests
// supply an in-memory fake.
type Conn interface {
	Send(line string) error
	Receive() (string, error)
	Close() error
}

// Client is a request/response client to the policy-monitoring store. A
// single Client is shared across invocations of the decoder using the same
// underlying connection; it is not safe for concurrent use unless the
// caller serializes access, matching the single-worker model in spec §5.
type Client struct {
	conn   Conn
	logger *zap.Logger
}

// New wraps conn as a store Client. Pass zap.NewNop() when no logging is
// desired.
func New(conn Conn, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{conn: conn, logger: logger}
}

// BuildQuery assembles a store query string: "agent {agentID} sca {verb}
// {arg0}|{arg1}|...". With no args, the verb is sent with no trailing
// separator.
func BuildQuery(agentID, verb string, args ...string) string {
	q := fmt.Sprintf("agent %s sca %s", agentID, verb)
	if len(args) == 0 {
		return q
	}
	return q + " " + strings.Join(args, "|")
}

// Query sends q to the store and classifies the reply's status code,
// returning the reply text after the code (trimmed of one leading space) as
// payload.
func (c *Client) Query(q string) (Code, string, error) {
	if err := c.conn.Send(q); err != nil {
		return CodeError, "", fmt.Errorf("storeclient: send: %w", err)
	}
	reply, err := c.conn.Receive()
	if err != nil {
		return CodeError, "", fmt.Errorf("storeclient: receive: %w", err)
	}
	if rest, ok := strings.CutPrefix(reply, "ok "); ok {
		return CodeOK, rest, nil
	}
	if reply == "ok" {
		return CodeOK, "", nil
	}
	return CodeError, reply, nil
}

// SearchAndParse sends q and classifies the reply as Found/NotFound/
// SearchError. When parseTail is true and the reply is a "found " payload,
// the text after the 6-character "found " prefix is returned as the second
// result value; when parseTail is false, the payload is discarded (empty
// string).
//
// A reply that starts with "found" but lacks the space-terminated prefix
// (a truncated frame) is reported as SearchError and logged at warn.
func (c *Client) SearchAndParse(q string, parseTail bool) (SearchResult, string) {
	code, payload, err := c.Query(q)
	if err != nil {
		c.logger.Warn("store query failed", zap.String("query", q), zap.Error(err))
		return SearchError, ""
	}
	if code != CodeOK {
		c.logger.Warn("store returned error", zap.String("query", q), zap.String("reply", payload))
		return SearchError, ""
	}

	switch {
	case payload == "not found":
		return NotFound, ""
	case strings.HasPrefix(payload, "found "):
		if parseTail {
			return Found, payload[len("found "):]
		}
		return Found, ""
	case strings.HasPrefix(payload, "found"):
		c.logger.Warn("truncated found payload", zap.String("query", q), zap.String("reply", payload))
		return SearchError, ""
	default:
		c.logger.Warn("unrecognized store reply", zap.String("query", q), zap.String("reply", payload))
		return SearchError, ""
	}
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// netConn is the default Conn implementation: a newline-framed net.Conn.
type netConn struct {
	c       net.Conn
	timeout time.Duration
	buf     []byte
}

// DialStore opens a TCP connection to addr and wraps it as a Conn for use
// with New. timeout bounds each Send/Receive round-trip; pass 0 for no
// deadline.
func DialStore(addr string, timeout time.Duration) (Conn, error) {
	c, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("storeclient: dial %s: %w", addr, err)
	}
	return &netConn{c: c, timeout: timeout}, nil
}

func (nc *netConn) Send(line string) error {
	if nc.timeout > 0 {
		_ = nc.c.SetWriteDeadline(time.Now().Add(nc.timeout))
	}
	_, err := nc.c.Write([]byte(line + "\n"))
	return err
}

func (nc *netConn) Receive() (string, error) {
	if nc.timeout > 0 {
		_ = nc.c.SetReadDeadline(time.Now().Add(nc.timeout))
	}
	line, err := readLine(nc.c, &nc.buf)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\n"), nil
}

func (nc *netConn) Close() error {
	return nc.c.Close()
}

// readLine reads from r until a newline, using buf as scratch space across
// calls to absorb any bytes read past the line boundary.
func readLine(r net.Conn, buf *[]byte) (string, error) {
	for {
		if i := bytes.IndexByte(*buf, '\n'); i >= 0 {
			line := string((*buf)[:i+1])
			*buf = (*buf)[i+1:]
			return line, nil
		}
		tmp := make([]byte, 4096)
		n, err := r.Read(tmp)
		if n > 0 {
			*buf = append(*buf, tmp[:n]...)
		}
		if err != nil {
			if len(*buf) > 0 {
				line := string(*buf)
				*buf = nil
				return line, nil
			}
			return "", err
		}
	}
}
