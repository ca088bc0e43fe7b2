package server

import (
	"net"
	"sync"
	"unsafe"

	"github.com/Trinoooo/eggie_poll/config"
	"github.com/Trinoooo/eggie_poll/consts"
	"github.com/Trinoooo/eggie_poll/errs"
	"github.com/Trinoooo/eggie_poll/logs"
	"github.com/Trinoooo/eggie_poll/poller"
	"github.com/Trinoooo/eggie_poll/server/connections"
	"github.com/Trinoooo/eggie_poll/utils"
	"github.com/bytedance/gopkg/collection/lscq"
	"github.com/bytedance/gopkg/util/gopool"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var logger = logs.Named("server")

// ReactorServer is a small echo server built on a Poller: one acceptor
// watching the listener, a dispatcher spreading new connections and a
// fixed set of reactors, each owning one poll set. Connections are armed
// one-shot and handed to a worker pool when ready; the worker re-arms them
// after draining the socket.
type ReactorServer struct {
	mutex    sync.Mutex
	listener connections.IListener
	poller   poller.Poller
	acceptFd int
	pool     gopool.Pool
	dp       *dispatcher
	reactors []*reactor
	handler  Handler
	stop     chan struct{}
	done     sync.WaitGroup
	serving  bool
	closed   bool
	metrics  *MetricsHelper
}

const (
	acceptWaitTimeoutMs  = 100
	reactorWaitTimeoutMs = 50
	pollCapacity         = 1000
	reactorEventCapacity = 128

	reactorInputBufferSize = 10
)

type Option func(*ReactorServer)

func WithHandler(h Handler) Option {
	return func(rs *ReactorServer) {
		rs.handler = h
	}
}

func WithMetrics(m *MetricsHelper) Option {
	return func(rs *ReactorServer) {
		rs.metrics = m
	}
}

func NewReactorServer(cfg config.ServerConfig, p poller.Poller, opts ...Option) (*ReactorServer, error) {
	ip := net.ParseIP(cfg.Host).To4()
	if ip == nil {
		e := errs.NewInvalidParamErr()
		logger.Error(e.Error(), zap.String(consts.LogFieldParams, "host"), zap.String(consts.LogFieldValue, cfg.Host))
		return nil, e
	}
	// The dispatcher and every reactor hold a pool worker for their whole
	// life, connection work needs at least one more.
	if cfg.Reactors <= 0 || cfg.Workers <= cfg.Reactors+1 {
		return nil, errs.NewInvalidParamErr().WithErr(errors.Errorf("reactors %d, workers %d", cfg.Reactors, cfg.Workers))
	}

	srv := &ReactorServer{
		poller:  p,
		handler: EchoHandler,
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(srv)
	}
	if srv.metrics == nil {
		srv.metrics = NewMetricsHelper(nil)
	}
	srv.pool = gopool.NewPool("handlers", int32(cfg.Workers), gopool.NewConfig())

	var err error
	srv.listener, err = connections.Listen([4]byte{ip[0], ip[1], ip[2], ip[3]}, cfg.Port)
	if err != nil {
		e := errs.NewListenErr().WithErr(err)
		logger.Error(e.Error(), zap.String(consts.LogFieldParams, cfg.Host), zap.Int(consts.LogFieldValue, cfg.Port))
		return nil, e
	}

	if srv.acceptFd, err = p.Create(1); err != nil {
		_ = srv.listener.Close()
		return nil, err
	}
	lfd := srv.listener.RawFd()
	if err = p.Ctl(srv.acceptFd, poller.CPOLL_CTL_ADD, lfd, &poller.Event{Events: poller.CPOLLIN, Data: poller.FdData(lfd)}); err != nil {
		srv.releaseAcceptor()
		return nil, err
	}

	for i := 0; i < cfg.Reactors; i++ {
		cpfd, err := p.Create(pollCapacity)
		if err != nil {
			for _, r := range srv.reactors {
				_ = p.Close(r.cpfd)
			}
			srv.releaseAcceptor()
			return nil, err
		}
		srv.reactors = append(srv.reactors, newReactor(i, srv, cpfd))
	}
	srv.dp = &dispatcher{
		queue:  lscq.NewPointer(),
		wake:   make(chan struct{}, 1),
		parent: srv,
	}
	return srv, nil
}

// Addr is the bound listener address, useful when the port was 0.
func (rs *ReactorServer) Addr() net.Addr {
	return rs.listener.Addr()
}

// Serve runs the acceptor on the calling goroutine until Close.
func (rs *ReactorServer) Serve() error {
	rs.mutex.Lock()
	if rs.closed || rs.serving {
		rs.mutex.Unlock()
		return errors.New("server closed or already serving")
	}
	rs.serving = true
	rs.done.Add(len(rs.reactors) + 2)
	rs.mutex.Unlock()

	defer rs.done.Done()
	defer rs.releaseAcceptor()

	rs.pool.Go(rs.dp.run)
	for _, r := range rs.reactors {
		rs.pool.Go(r.run)
	}
	logger.Info("server start", zap.Stringer(consts.LogFieldRemote, rs.Addr()), zap.Int(consts.LogFieldReactor, len(rs.reactors)))

	evts := make([]poller.Event, 1)
	for {
		select {
		case <-rs.stop:
			logger.Info("acceptor stop")
			return nil
		default:
		}

		n, err := rs.poller.Wait(rs.acceptFd, evts, acceptWaitTimeoutMs)
		if err != nil {
			if connections.IsInterrupted(err) {
				continue
			}
			if rs.stopping() {
				return nil
			}
			logger.Error("acceptor wait failed", zap.Error(err))
			rs.shutdown()
			return err
		}
		if n == 0 {
			continue
		}
		if err = rs.acceptAll(); err != nil {
			rs.shutdown()
			return err
		}
	}
}

func (rs *ReactorServer) acceptAll() error {
	for {
		conn, err := rs.listener.Accept()
		if err != nil {
			if connections.IsWouldBlock(err) {
				return nil
			}
			if connections.IsAbortedAccept(err) {
				logger.Warn("accept aborted, ignore", zap.Error(err))
				continue
			}
			e := errs.NewAcceptErr().WithErr(err)
			logger.Error(e.Error())
			return e
		}
		rs.metrics.ConnectionAcceptCounter.Inc()
		logger.Debug("accept connection", zap.Int(consts.LogFieldFd, conn.RawFd()), zap.Stringer(consts.LogFieldRemote, conn.RemoteAddr()))
		rs.dp.input(conn)
	}
}

func (rs *ReactorServer) stopping() bool {
	select {
	case <-rs.stop:
		return true
	default:
		return false
	}
}

func (rs *ReactorServer) shutdown() {
	rs.mutex.Lock()
	defer rs.mutex.Unlock()
	if !rs.closed {
		rs.closed = true
		close(rs.stop)
	}
}

// Close stops every goroutine, closes all connections and poll sets and
// waits for them to finish.
func (rs *ReactorServer) Close() error {
	rs.mutex.Lock()
	serving := rs.serving
	alreadyClosed := rs.closed
	if !rs.closed {
		rs.closed = true
		close(rs.stop)
	}
	rs.mutex.Unlock()

	if !serving {
		if alreadyClosed {
			return nil
		}
		rs.releaseAcceptor()
		for _, r := range rs.reactors {
			r.shutdown()
		}
		return nil
	}
	rs.done.Wait()
	return nil
}

func (rs *ReactorServer) releaseAcceptor() {
	if err := rs.poller.Close(rs.acceptFd); err != nil {
		logger.Warn("close acceptor poll set failed", zap.Error(err))
	}
	if err := rs.listener.Close(); err != nil {
		logger.Warn("close listener failed", zap.Error(err))
	}
}

// dispatcher moves accepted connections from the acceptor to the reactors
// round robin. The acceptor never blocks on it.
type dispatcher struct {
	queue  *lscq.PointerQueue
	wake   chan struct{}
	parent *ReactorServer
	next   int
}

func (dp *dispatcher) input(conn connections.IConnection) {
	dp.queue.Enqueue(unsafe.Pointer(&conn))
	select {
	case dp.wake <- struct{}{}:
	default:
	}
}

func (dp *dispatcher) run() {
	defer dp.parent.done.Done()
	logger.Debug("dispatcher start")

	for {
		select {
		case <-dp.parent.stop:
			dp.drain()
			logger.Debug("dispatcher stop")
			return
		case <-dp.wake:
		}

		for {
			ptr, ok := dp.queue.Dequeue()
			if !ok {
				break
			}
			conn := *(*connections.IConnection)(ptr)
			r := dp.parent.reactors[dp.next%len(dp.parent.reactors)]
			dp.next++
			select {
			case r.input() <- conn:
			case <-dp.parent.stop:
				_ = conn.Close()
			}
		}
	}
}

func (dp *dispatcher) drain() {
	for {
		ptr, ok := dp.queue.Dequeue()
		if !ok {
			return
		}
		_ = (*(*connections.IConnection)(ptr)).Close()
	}
}

type reactor struct {
	srv        *ReactorServer
	id         int
	cpfd       int
	connects   chan connections.IConnection
	processors sync.Map // fd -> *Processor
	closeOnce  sync.Once
}

func newReactor(id int, srv *ReactorServer, cpfd int) *reactor {
	return &reactor{
		srv:      srv,
		id:       id,
		cpfd:     cpfd,
		connects: make(chan connections.IConnection, reactorInputBufferSize),
	}
}

func (r *reactor) input() chan<- connections.IConnection {
	return r.connects
}

func (r *reactor) run() {
	defer r.srv.done.Done()
	logger.Debug("reactor start", zap.Int(consts.LogFieldReactor, r.id))

	evts := make([]poller.Event, reactorEventCapacity)
	for {
		select {
		case <-r.srv.stop:
			r.shutdown()
			logger.Debug("reactor stop", zap.Int(consts.LogFieldReactor, r.id))
			return
		default:
		}
		r.registerPending()

		n, err := r.srv.poller.Wait(r.cpfd, evts, reactorWaitTimeoutMs)
		if err != nil {
			if connections.IsInterrupted(err) {
				continue
			}
			logger.Error("reactor wait failed", zap.Int(consts.LogFieldReactor, r.id), zap.Error(err))
			r.srv.shutdown()
			r.shutdown()
			return
		}
		for i := 0; i < n; i++ {
			r.dispatch(evts[i])
		}
	}
}

func (r *reactor) registerPending() {
	for {
		select {
		case conn := <-r.connects:
			r.register(conn)
		default:
			return
		}
	}
}

func (r *reactor) register(conn connections.IConnection) {
	fd := conn.RawFd()
	r.processors.Store(fd, newProcessor(r, conn))
	err := r.srv.poller.Ctl(r.cpfd, poller.CPOLL_CTL_ADD, fd, &poller.Event{
		Events: poller.CPOLLIN | poller.CPOLLONESHOT,
		Data:   poller.FdData(fd),
	})
	if err != nil {
		r.processors.Delete(fd)
		logger.Error("register connection failed", zap.Int(consts.LogFieldReactor, r.id), zap.Int(consts.LogFieldFd, fd), zap.Error(err))
		_ = conn.Close()
		return
	}
	r.srv.metrics.ActiveConnectionsGauge.Inc()
}

func (r *reactor) dispatch(ev poller.Event) {
	v, ok := r.processors.Load(ev.Data.Fd())
	if !ok {
		return
	}
	processor := v.(*Processor)
	ready := ev.Events
	r.srv.pool.Go(func() {
		utils.HandlePanic(func() {
			processor.Process(ready)
		})
	})
}

func (r *reactor) rearm(conn connections.IConnection) error {
	return r.srv.poller.Ctl(r.cpfd, poller.CPOLL_CTL_MOD, conn.RawFd(), poller.ModEvents(poller.CPOLLIN|poller.CPOLLONESHOT))
}

// release unregisters and closes the connection behind p. cause is nil for
// an orderly close by the peer.
func (r *reactor) release(p *Processor, cause error) {
	fd := p.conn.RawFd()
	if _, loaded := r.processors.LoadAndDelete(fd); !loaded {
		return
	}
	if cause != nil {
		logger.Warn("close connection on error", append(p.fields(), zap.Error(cause))...)
	} else {
		logger.Debug("connection closed by peer", p.fields()...)
	}
	if err := r.srv.poller.Ctl(r.cpfd, poller.CPOLL_CTL_DEL, fd, nil); err != nil && !r.stopped() {
		logger.Warn("unregister connection failed", append(p.fields(), zap.Error(err))...)
	}
	_ = p.conn.Close()
	r.srv.metrics.ActiveConnectionsGauge.Dec()
}

func (r *reactor) stopped() bool {
	return r.srv.stopping()
}

func (r *reactor) shutdown() {
	r.closeOnce.Do(func() {
		r.processors.Range(func(_, v interface{}) bool {
			r.release(v.(*Processor), nil)
			return true
		})
	drain:
		for {
			select {
			case conn := <-r.connects:
				_ = conn.Close()
			default:
				break drain
			}
		}
		if err := r.srv.poller.Close(r.cpfd); err != nil {
			logger.Warn("close reactor poll set failed", zap.Int(consts.LogFieldReactor, r.id), zap.Error(err))
		}
	})
}
