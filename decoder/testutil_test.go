package decoder

import (
	"errors"

	"go.uber.org/zap"

	"github.com/wazuh-io/scadecode/forwarder"
	"github.com/wazuh-io/scadecode/storeclient"
)

// scriptConn replays a fixed queue of replies, one per Send/Receive
// round-trip, and records every query sent for assertions.
type scriptConn struct {
	sent    []string
	replies []string
}

func (s *scriptConn) Send(line string) error {
	s.sent = append(s.sent, line)
	return nil
}

func (s *scriptConn) Receive() (string, error) {
	if len(s.replies) == 0 {
		return "", errors.New("scriptConn: no more scripted replies")
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r, nil
}

func (s *scriptConn) Close() error { return nil }

func newStore(replies ...string) (*storeclient.Client, *scriptConn) {
	conn := &scriptConn{replies: replies}
	return storeclient.New(conn, zap.NewNop()), conn
}

// fakeSocket records every datagram written to it.
type fakeSocket struct {
	writes []string
}

func (f *fakeSocket) Write(p []byte) (int, error) {
	f.writes = append(f.writes, string(p))
	return len(p), nil
}

func (f *fakeSocket) Close() error { return nil }

func newForwarder() (*forwarder.Client, *fakeSocket) {
	sock := &fakeSocket{}
	return forwarder.New(func() (forwarder.Socket, error) { return sock, nil }, zap.NewNop()), sock
}
