package server

import (
	"time"

	"github.com/Trinoooo/eggie_poll/consts"
	"github.com/Trinoooo/eggie_poll/errs"
	"github.com/Trinoooo/eggie_poll/poller"
	"github.com/Trinoooo/eggie_poll/server/connections"
	"go.uber.org/zap"
)

// Handler turns the bytes read from a connection into the bytes written
// back. Returning an error closes the connection.
type Handler func(req []byte) ([]byte, error)

func EchoHandler(req []byte) ([]byte, error) {
	return req, nil
}

const (
	readBufferSize = 4 * consts.KB
	processTimeout = 1 * time.Second
)

// Processor serves one connection. The connection is registered one-shot,
// so at most one worker runs Process for it at any time.
type Processor struct {
	r    *reactor
	conn connections.IConnection
	buf  []byte
}

func newProcessor(r *reactor, conn connections.IConnection) *Processor {
	return &Processor{
		r:    r,
		conn: conn,
		buf:  make([]byte, readBufferSize),
	}
}

func (p *Processor) Process(ready poller.EventMask) {
	if ready&poller.CPOLLIN == 0 && ready&(poller.CPOLLHUP|poller.CPOLLERR) != 0 {
		p.r.release(p, nil)
		return
	}

	for {
		n, err := p.conn.Read(p.buf)
		if n > 0 {
			resp, herr := p.r.srv.handler(p.buf[:n])
			if herr != nil {
				p.r.release(p, herr)
				return
			}
			if werr := p.writeAll(resp); werr != nil {
				p.r.release(p, werr)
				return
			}
			p.r.srv.metrics.EchoedBytesCounter.Add(float64(len(resp)))
		}
		if err != nil {
			if connections.IsWouldBlock(err) {
				break
			}
			if connections.IsInterrupted(err) {
				continue
			}
			p.r.release(p, errs.NewReadSocketErr().WithErr(err))
			return
		}
		if n == 0 {
			// eof
			p.r.release(p, nil)
			return
		}
	}

	if err := p.r.rearm(p.conn); err != nil {
		p.r.release(p, err)
	}
}

func (p *Processor) writeAll(data []byte) error {
	deadline := time.Now().Add(processTimeout)
	for len(data) > 0 {
		n, err := p.conn.Write(data)
		data = data[n:]
		if err == nil {
			continue
		}
		if connections.IsInterrupted(err) {
			continue
		}
		if connections.IsWouldBlock(err) && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
			continue
		}
		return errs.NewWriteSocketErr().WithErr(err)
	}
	return nil
}

func (p *Processor) fields() []zap.Field {
	return []zap.Field{
		zap.Int(consts.LogFieldFd, p.conn.RawFd()),
		zap.Stringer(consts.LogFieldRemote, p.conn.RemoteAddr()),
	}
}
