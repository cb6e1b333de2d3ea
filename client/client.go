// Package client implements the client core (spec C10): it orchestrates
// the framer (C6), request builder output (C7), id map (C8), and FIFO
// queue (C9) over caller-supplied non-blocking read/write callbacks,
// queuing outgoing requests, sending them, and correlating incoming
// responses back to the request that sent them.
package client

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/opatomic/opago/clog"
	"github.com/opatomic/opago/decimal"
	"github.com/opatomic/opago/framer"
	"github.com/opatomic/opago/idmap"
	"github.com/opatomic/opago/opaerr"
	"github.com/opatomic/opago/queue"
	"github.com/opatomic/opago/so"
	"github.com/opatomic/opago/sotag"
	"github.com/opatomic/opago/varint"
)

// readChunkSize is how many bytes ParseResponses asks the read callback
// for per call (matches the original's OPAC_READLEN default).
const readChunkSize = 8 * 1024

// Kind distinguishes how a queued request expects to be tracked and
// matched against its response.
type Kind int

const (
	// KindMain is a synchronous request: it carries a numeric id (any
	// number; the value itself is not used for matching) and is matched
	// to its response strictly by FIFO order.
	KindMain Kind = iota
	// KindAsync carries a client-assigned POS/NEG-VARINT id and is
	// matched to its response by that id, regardless of arrival order.
	KindAsync
	// KindNoResponse carries a NULL id; the server never replies and the
	// client does not track it after it is fully sent.
	KindNoResponse
)

// ReqErrReason explains why a request was handed to the ReqErr callback
// instead of completing normally.
type ReqErrReason int

const (
	// ReqErrClosed means the client was (or became) closed before the
	// request could be sent or answered.
	ReqErrClosed ReqErrReason = iota
	// ReqErrInvalidRequest means the request's wire bytes did not match
	// its declared Kind (spec §4.10's send-time validation).
	ReqErrInvalidRequest
	// ReqErrIDExists means an async request's id collided with one
	// already awaiting a response.
	ReqErrIDExists
	// ReqErrFailed is a catch-all for errors surfaced while queuing
	// (e.g. building the wire-level id header failed).
	ReqErrFailed
)

// RPCError is a parsed server error object: either a bare code, or
// `[code, message, data?]`.
type RPCError struct {
	Code int32
	Msg  string
	Data []byte // raw SO bytes of the optional data field, or nil
}

// Request tracks one queued/sent/answered request. The zero value is not
// useful; Client.QueueRequest/QueueAsyncRequest/QueueNoResponseRequest
// create one internally and hand it to the caller through Callbacks.
type Request struct {
	buf           []byte
	pos           int
	kind          Kind
	asyncID       int64
	sent          bool
	responseRecvd bool
	resultIsErr   bool
	response      []byte
}

// IsSent reports whether the request's bytes have been fully written.
func (r *Request) IsSent() bool { return r.sent }

// ResponseReceived reports whether a response has arrived. It stays
// false for a request handed to ReqErr.
func (r *Request) ResponseReceived() bool { return r.responseRecvd }

// ResponseIsErr reports whether the received response was an error
// object. Calling it before ResponseReceived is true is a caller bug and
// returns false.
func (r *Request) ResponseIsErr() bool { return r.responseRecvd && r.resultIsErr }

// Response returns the raw SO bytes of the result (or error object) once
// received, or nil if no response has arrived yet.
func (r *Request) Response() []byte {
	if !r.responseRecvd {
		return nil
	}
	return r.response
}

// FreeResponse releases the response bytes. Callers must call this (or
// otherwise drop the Request) once done reading Response(), mirroring
// the original's "on_response is obligated to call free_response" rule
// (spec §5's shared-resource policy).
func (r *Request) FreeResponse() { r.response = nil }

// Err parses the response as an RPCError. It is only valid when
// ResponseIsErr is true.
func (r *Request) Err() (*RPCError, error) {
	if !r.responseRecvd || !r.resultIsErr {
		return nil, opaerr.New(opaerr.InvalidState, "client: request has no error response")
	}
	return parseRPCError(r.response)
}

// AsyncID returns the request's client-assigned async id and true, or
// (0, false) if the request is not a KindAsync request.
func (r *Request) AsyncID() (int64, bool) {
	return r.asyncID, r.kind == KindAsync
}

// Callbacks are the caller-supplied hooks a Client is built around. Read
// and Write are required and must be non-blocking: they return the
// number of bytes transferred, with 0 meaning "would block, connection
// closed, or error" (spec §4.10/§5's suspension-point contract). The
// rest are optional.
type Callbacks struct {
	Read  func(buf []byte) int
	Write func(buf []byte) int

	OnSent         func(r *Request)
	OnResponse     func(r *Request)
	ClientErr      func(err error)
	ReqErr         func(r *Request, reason ReqErrReason, cause error)
	UnknownAsyncID func(resp []byte)
}

// Client is the request/response multiplexer. Construct with New.
//
// In single-threaded mode (threadSafe=false to New) every method must be
// called serially by one goroutine; concurrent calls race. In
// multi-threaded mode, SendRequests and ParseResponses may run on
// separate goroutines concurrently and Queue* may be called from any
// goroutine at any time; Close only once the other calls have quiesced
// (spec §5).
type Client struct {
	cbs        Callbacks
	threadSafe bool

	fr *framer.Framer

	reqsToSend *queue.Queue[*Request]
	mainReqs   *queue.Queue[*Request]
	asyncReqs  *idmap.Map[*Request]

	mu           sync.Locker
	currSendReq  *Request
	currResponse []byte
	currID       int64
	err          error
	closed       bool

	log clog.Clog
}

type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}

// New returns a ready-to-use Client. cbs.Read and cbs.Write must be
// non-nil.
func New(cbs Callbacks, threadSafe bool) *Client {
	c := &Client{
		cbs:        cbs,
		threadSafe: threadSafe,
		fr:         framer.New(framer.DefaultOptions()),
		reqsToSend: queue.New[*Request](threadSafe),
		mainReqs:   queue.New[*Request](threadSafe),
		asyncReqs:  idmap.New[*Request](threadSafe),
		log:        clog.NewLogger("client"),
	}
	if threadSafe {
		c.mu = &sync.Mutex{}
	} else {
		c.mu = noopLocker{}
	}
	return c
}

// SetLogProvider installs a custom log backend and enables logging.
// Without a call to SetLogProvider (or Logger().LogMode(true)), the
// client logs nothing.
func (c *Client) SetLogProvider(p clog.LogProvider) {
	c.log.SetLogProvider(p)
	c.log.LogMode(true)
}

// Logger returns the client's log handle, so callers can toggle
// LogMode directly (e.g. to enable the built-in logrus-backed default
// provider without supplying their own).
func (c *Client) Logger() *clog.Clog { return &c.log }

// IsOpen reports whether the client is neither closed nor in the sticky
// error state.
func (c *Client) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed && c.err == nil
}

func (c *Client) isOpenLocked() bool { return !c.closed && c.err == nil }

// allocAsyncID returns the next id: a positive monotonically increasing
// counter value for one-shot requests, or its negation for persistent
// subscriptions (spec §4.10's "Async id generation").
//
// TODO: detect/prevent overflow if the counter ever reaches MaxInt64;
// the original carries the same unresolved TODO.
func (c *Client) allocAsyncID(persistent bool) int64 {
	var id int64
	if c.threadSafe {
		id = atomic.AddInt64(&c.currID, 1)
	} else {
		c.currID++
		id = c.currID
	}
	if persistent {
		return -id
	}
	return id
}

func encodeAsyncIDTag(id int64) []byte {
	var tag sotag.Tag
	var mag uint64
	if id < 0 {
		tag = sotag.NegVarint
		mag = uint64(-id)
	} else {
		tag = sotag.PosVarint
		mag = uint64(id)
	}
	buf := []byte{byte(tag)}
	return varint.Encode(buf, mag)
}

// AllocAsyncID reserves the next async id (see allocAsyncID) for a
// caller that is about to build a request with reqbuilder. Build the
// request with `reqbuilder.New(client.EncodeAsyncID(id))` so the id
// lands in the wire-mandated slot immediately after ARRAY_START, then
// pass the finished buffer and this id to QueueAsyncRequest.
func (c *Client) AllocAsyncID(persistent bool) int64 {
	return c.allocAsyncID(persistent)
}

// EncodeAsyncID returns the SO encoding of id, suitable as the
// `asyncID` argument to reqbuilder.New.
func EncodeAsyncID(id int64) []byte { return encodeAsyncIDTag(id) }

// QueueRequest queues a synchronous request expecting a response,
// matched to it strictly by FIFO order. buf must be a complete,
// reqbuilder-produced request whose id slot (the SO value immediately
// after ARRAY_START) is any number.
func (c *Client) QueueRequest(buf []byte) error {
	return c.enqueue(&Request{buf: buf, kind: KindMain})
}

// QueueNoResponseRequest queues a fire-and-forget request. buf must be a
// complete, reqbuilder-produced request built with
// `reqbuilder.New(reqbuilder.NullAsyncID())`.
func (c *Client) QueueNoResponseRequest(buf []byte) error {
	return c.enqueue(&Request{buf: buf, kind: KindNoResponse})
}

// QueueAsyncRequest queues a request tracked by asyncID, which must be a
// value previously returned by AllocAsyncID and encoded into buf's id
// slot via EncodeAsyncID when the caller built buf with reqbuilder.
func (c *Client) QueueAsyncRequest(buf []byte, asyncID int64) error {
	return c.enqueue(&Request{buf: buf, kind: KindAsync, asyncID: asyncID})
}

func (c *Client) enqueue(r *Request) error {
	c.mu.Lock()
	open := c.isOpenLocked()
	c.mu.Unlock()
	if !open {
		c.handleReqErr(r, ReqErrClosed, nil)
		return opaerr.New(opaerr.InvalidState, "client: closed")
	}
	c.reqsToSend.Push(r)
	return nil
}

func (c *Client) handleReqErr(r *Request, reason ReqErrReason, cause error) {
	if c.cbs.ReqErr != nil {
		c.cbs.ReqErr(r, reason, cause)
	} else {
		r.buf = nil
	}
}

// validateWireShape checks a polled request's bytes against its
// declared Kind immediately before it is tracked and sent (spec §4.10:
// "validate the request's first two bytes... reject if... inconsistent
// with the request's mode flags").
func validateWireShape(buf []byte, kind Kind) error {
	if len(buf) < 3 || sotag.Tag(buf[0]) != sotag.ArrayStart || sotag.Tag(buf[len(buf)-1]) != sotag.ArrayEnd {
		return opaerr.New(opaerr.Parse, "client: malformed request")
	}
	idTag := sotag.Tag(buf[1])
	switch kind {
	case KindNoResponse:
		if idTag != sotag.Null {
			return opaerr.New(opaerr.Parse, "client: no-response request must carry a NULL id")
		}
	case KindAsync:
		if idTag != sotag.PosVarint && idTag != sotag.NegVarint {
			return opaerr.New(opaerr.Parse, "client: async request must carry a varint id")
		}
	case KindMain:
		if !sotag.IsNumeric(idTag) {
			return opaerr.New(opaerr.Parse, "client: request id must be a number")
		}
	}
	return nil
}

// nextQueuedRequest polls reqsToSend, validating and tracking each
// candidate before returning it, skipping (and error-reporting) any
// that fail validation or id uniqueness — mirroring
// opacNextQueuedRequest's "insert into tracking structure before any
// write" ordering, which matters so a concurrent receive thread can
// never see a response for a request not yet tracked.
func (c *Client) nextQueuedRequest() *Request {
	for {
		r, ok := c.reqsToSend.Poll()
		if !ok {
			return nil
		}
		if err := validateWireShape(r.buf, r.kind); err != nil {
			c.handleReqErr(r, ReqErrInvalidRequest, err)
			continue
		}
		switch r.kind {
		case KindMain:
			c.mainReqs.Push(r)
		case KindAsync:
			if !c.asyncReqs.Add(r.asyncID, r) {
				c.handleReqErr(r, ReqErrIDExists, nil)
				continue
			}
		case KindNoResponse:
			// not tracked; the server will never reply.
		}
		return r
	}
}

// SendRequests drains the to-send queue through cbs.Write, resuming a
// previously short-written request first. It returns as soon as Write
// reports 0 (would block), or the queue runs dry.
func (c *Client) SendRequests() {
	c.mu.Lock()
	open := c.isOpenLocked()
	c.mu.Unlock()
	if !open {
		return
	}

	c.mu.Lock()
	r := c.currSendReq
	c.currSendReq = nil
	c.mu.Unlock()
	if r == nil {
		r = c.nextQueuedRequest()
	}

	for r != nil {
		n := c.cbs.Write(r.buf[r.pos:])
		if n == 0 {
			c.mu.Lock()
			c.currSendReq = r
			c.mu.Unlock()
			return
		}
		r.pos += n
		if r.pos == len(r.buf) {
			r.sent = true
			if c.cbs.OnSent != nil {
				c.cbs.OnSent(r)
			} else {
				r.buf = nil
			}
			r = c.nextQueuedRequest()
		}
	}
}

// ParseResponses reads one batch via cbs.Read, feeds it through the
// streaming framer, and dispatches each complete response to its
// matching Request. It returns as soon as Read reports 0 bytes.
func (c *Client) ParseResponses() {
	c.mu.Lock()
	open := c.isOpenLocked()
	c.mu.Unlock()
	if !open {
		return
	}

	buf := make([]byte, readChunkSize)
	n := c.cbs.Read(buf)
	if n == 0 {
		return
	}

	pos := 0
	var err error
	for err == nil && pos < n {
		end, done, ferr := c.fr.FindEnd(buf[pos:n])
		if ferr != nil {
			code := opaerr.Parse
			if oe, ok := ferr.(*opaerr.Error); ok {
				code = oe.Code
			}
			err = opaerr.Wrap(ferr, code, "client: streaming framer rejected response bytes")
			break
		}
		if !done {
			c.mu.Lock()
			c.currResponse = append(c.currResponse, buf[pos:pos+end]...)
			c.mu.Unlock()
			break
		}
		c.mu.Lock()
		c.currResponse = append(c.currResponse, buf[pos:pos+end]...)
		resp := c.currResponse
		c.currResponse = nil
		c.mu.Unlock()
		pos += end
		err = c.onResponse(resp)
	}

	if err != nil {
		c.log.Warn("client: framer/response parse error: %v", err)
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		if c.cbs.ClientErr != nil {
			c.cbs.ClientErr(err)
		}
	}
}

func (c *Client) onResponse(resp []byte) error {
	if len(resp) < 1 || sotag.Tag(resp[0]) != sotag.ArrayStart {
		return opaerr.New(opaerr.Parse, "client: response is not an array")
	}
	buf := resp[1:]

	resultLen, err := so.Len(buf)
	if err != nil {
		return err
	}
	result := buf[:resultLen]
	buf = buf[resultLen:]

	var errObj, asyncID []byte
	if len(buf) == 0 {
		return opaerr.New(opaerr.Parse, "client: truncated response")
	}
	if sotag.Tag(buf[0]) != sotag.ArrayEnd {
		n, err := so.Len(buf)
		if err != nil {
			return err
		}
		errObj = buf[:n]
		buf = buf[n:]
		if len(buf) == 0 {
			return opaerr.New(opaerr.Parse, "client: truncated response")
		}
		if sotag.Tag(buf[0]) != sotag.ArrayEnd {
			n, err := so.Len(buf)
			if err != nil {
				return err
			}
			asyncID = buf[:n]
			buf = buf[n:]
			if len(buf) == 0 || sotag.Tag(buf[0]) != sotag.ArrayEnd {
				return opaerr.New(opaerr.Parse, "client: malformed response array")
			}
		}
	}

	hasErr := errObj != nil && sotag.Tag(errObj[0]) != sotag.Null
	if hasErr {
		if sotag.Tag(result[0]) != sotag.Null {
			return opaerr.New(opaerr.Parse, "client: response has both result and err")
		}
		result = nil
	} else {
		errObj = nil
	}
	if asyncID != nil && sotag.Tag(asyncID[0]) == sotag.Null {
		return opaerr.New(opaerr.Parse, "client: async id cannot be null")
	}
	if errObj != nil {
		if _, err := parseRPCError(errObj); err != nil {
			return err
		}
	}

	var r *Request
	if asyncID != nil {
		switch tag := sotag.Tag(asyncID[0]); tag {
		case sotag.PosVarint:
			if v, _, verr := varint.Decode(asyncID[1:]); verr == nil && v <= math.MaxInt64 {
				r, _ = c.asyncReqs.Get(int64(v), true)
			}
		case sotag.NegVarint:
			if v, _, verr := varint.Decode(asyncID[1:]); verr == nil && v <= math.MaxInt64 {
				r, _ = c.asyncReqs.Get(-int64(v), false)
			}
		default:
			if !sotag.IsNumeric(tag) {
				return opaerr.New(opaerr.Parse, "client: async id is not a number")
			}
			// any other numeric shape: per the protocol the server never
			// changes the id it was given, so a POS/NEG-VARINT id never
			// arrives in another numeric form; nothing to match.
		}
		if r == nil {
			c.log.Debug("client: response for unknown or already-completed async id")
			if c.cbs.UnknownAsyncID != nil {
				c.cbs.UnknownAsyncID(resp)
			}
		}
	} else {
		var ok bool
		r, ok = c.mainReqs.Poll()
		if !ok {
			return opaerr.New(opaerr.Parse, "client: received a response for no pending request")
		}
	}

	if r != nil {
		r.responseRecvd = true
		if errObj == nil {
			r.response = result
			r.resultIsErr = false
		} else {
			r.response = errObj
			r.resultIsErr = true
		}
		if c.cbs.OnResponse != nil {
			c.cbs.OnResponse(r)
		}
	}
	return nil
}

func parseErrCode(b []byte) (int32, int, error) {
	tag := sotag.Tag(b[0])
	if tag != sotag.PosVarint && tag != sotag.NegVarint {
		return 0, 0, opaerr.New(opaerr.Parse, "client: error code must be a varint")
	}
	d, n, err := decimal.LoadSO(b)
	if err != nil {
		return 0, 0, err
	}
	mag, err := d.GetMagU64()
	if err != nil {
		return 0, 0, err
	}
	if d.IsNeg() {
		if mag > uint64(math.MaxInt32)+1 {
			return 0, 0, opaerr.New(opaerr.Parse, "client: error code out of range")
		}
		return int32(-int64(mag)), n, nil
	}
	if mag > uint64(math.MaxInt32) {
		return 0, 0, opaerr.New(opaerr.Parse, "client: error code out of range")
	}
	return int32(mag), n, nil
}

// parseRPCError validates and parses an error object: either a bare
// varint code, or `[code, message, data?]` with message a string (or
// STR_EMPTY) and an optional trailing data value of any kind.
func parseRPCError(errObj []byte) (*RPCError, error) {
	if len(errObj) == 0 {
		return nil, opaerr.New(opaerr.Parse, "client: empty error object")
	}
	if sotag.Tag(errObj[0]) != sotag.ArrayStart {
		code, _, err := parseErrCode(errObj)
		if err != nil {
			return nil, err
		}
		return &RPCError{Code: code}, nil
	}

	rest := errObj[1:]
	code, n, err := parseErrCode(rest)
	if err != nil {
		return nil, err
	}
	rest = rest[n:]
	if len(rest) == 0 {
		return nil, opaerr.New(opaerr.Parse, "client: truncated error object")
	}

	var msg string
	switch sotag.Tag(rest[0]) {
	case sotag.StrEmpty:
		rest = rest[1:]
	case sotag.StrLPVI:
		v, n2, derr := so.Decode(rest)
		if derr != nil {
			return nil, derr
		}
		msg = v.Str
		rest = rest[n2:]
	default:
		return nil, opaerr.New(opaerr.Parse, "client: error message must be a string")
	}

	var data []byte
	if len(rest) > 0 && sotag.Tag(rest[0]) != sotag.ArrayEnd {
		dn, derr := so.Len(rest)
		if derr != nil {
			return nil, derr
		}
		data = rest[:dn]
		rest = rest[dn:]
	}
	if len(rest) == 0 || sotag.Tag(rest[0]) != sotag.ArrayEnd {
		return nil, opaerr.New(opaerr.Parse, "client: malformed error object")
	}
	return &RPCError{Code: code, Msg: msg, Data: data}, nil
}

// Close moves every tracked or queued request into the error path with
// reason ReqErrClosed and discards buffered state. It must be called
// only after SendRequests/ParseResponses/Queue* have quiesced on every
// goroutine (spec §5).
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	cur := c.currSendReq
	c.currSendReq = nil
	c.mu.Unlock()

	c.log.Debug("client: closing, draining queued and tracked requests")

	drained := 0
	if cur != nil {
		c.handleReqErr(cur, ReqErrClosed, nil)
		drained++
	}
	for {
		r, ok := c.reqsToSend.Poll()
		if !ok {
			break
		}
		c.handleReqErr(r, ReqErrClosed, nil)
		drained++
	}
	for {
		r, ok := c.mainReqs.Poll()
		if !ok {
			break
		}
		c.handleReqErr(r, ReqErrClosed, nil)
		drained++
	}
	c.asyncReqs.Iterate(func(id int64, r *Request) {
		c.handleReqErr(r, ReqErrClosed, nil)
		drained++
	})

	if drained > 0 {
		c.log.Debug("client: close drained %d unfinished request(s)", drained)
	}

	c.mu.Lock()
	c.currResponse = nil
	c.mu.Unlock()
}
