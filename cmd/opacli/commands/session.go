package commands

import (
	"fmt"
	"net"
	"time"

	"github.com/opatomic/opago/client"
	"github.com/opatomic/opago/decimal"
	"github.com/opatomic/opago/so"
)

// session wires one TCP connection to a client.Client, translating the
// core's non-blocking Read/Write/OnResponse callback contract (spec
// §4.10/§5) onto a plain blocking net.Conn: a blocking socket either
// transfers at least one byte or fails, so a failed Read/Write simply
// reports 0, same as "would block" from the core's point of view. The
// failure (including a --timeout read deadline) is kept in lastErr, which
// ends send's wait for a response.
type session struct {
	conn    net.Conn
	cli     *client.Client
	cfg     *Config
	nextID  int64
	lastErr error
	pending *client.Request
}

func dial(cfg *Config) (*session, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}

	s := &session{conn: conn, cfg: cfg}
	cbs := client.Callbacks{
		Read:  s.read,
		Write: s.write,
		OnResponse: func(r *client.Request) {
			s.pending = r
		},
		ClientErr: func(err error) {
			s.lastErr = err
		},
		ReqErr: func(r *client.Request, reason client.ReqErrReason, cause error) {
			if cause != nil {
				s.lastErr = cause
			} else {
				s.lastErr = fmt.Errorf("opacli: request rejected (%v)", reason)
			}
		},
	}
	s.cli = client.New(cbs, false)
	s.cli.Logger().LogMode(true)
	return s, nil
}

func (s *session) read(buf []byte) int {
	if s.cfg.Timeout > 0 {
		_ = s.conn.SetReadDeadline(time.Now().Add(time.Duration(s.cfg.Timeout) * time.Second))
	}
	n, err := s.conn.Read(buf)
	if err != nil {
		s.lastErr = err
		return 0
	}
	return n
}

func (s *session) write(buf []byte) int {
	n, err := s.conn.Write(buf)
	if err != nil {
		s.lastErr = err
		return 0
	}
	return n
}

func (s *session) close() {
	s.cli.Close()
	_ = s.conn.Close()
}

// nextMainID returns the next request id's SO encoding. KindMain
// requests are matched to their response strictly by FIFO order (spec
// §4.10), so the value only needs to be a number; an incrementing
// counter gives the printed ids a meaning a human reading a transcript
// can follow.
func (s *session) nextMainID() []byte {
	s.nextID++
	return so.Encode(nil, so.Number(decimal.FromU64(uint64(s.nextID), false, 0)))
}

// send queues buf as a KindMain request and pumps Send/ParseResponses
// until a response arrives or the client enters its sticky error
// state.
func (s *session) send(buf []byte) (*client.Request, error) {
	s.pending = nil
	s.lastErr = nil
	if err := s.cli.QueueRequest(buf); err != nil {
		return nil, err
	}
	s.cli.SendRequests()
	for s.pending == nil && s.lastErr == nil {
		s.cli.ParseResponses()
	}
	if s.lastErr != nil {
		return nil, s.lastErr
	}
	r := s.pending
	s.pending = nil
	return r, nil
}
