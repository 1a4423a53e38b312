package net

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"bourse/internal/common"
	"bourse/internal/engine"
	"bourse/internal/ingest"
	"bourse/internal/utils"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

const (
	// Sessions waiting to be read sit in the pool queue. Workers re-queue
	// without blocking, so a full queue drops the session instead.
	maxSessions     = utils.TaskChanSize
	defaultNWorkers = 10
	pollTimeout     = 50 * time.Millisecond
	frameTimeout    = 5 * time.Second
)

var (
	ErrImproperConversion = errors.New("improper type conversion")
	ErrClientDoesNotExist = errors.New("client does not exist")
)

// ClientSession contains relevant information pertaining to an individual
// connected TCP session.
type ClientSession struct {
	address   string
	conn      net.Conn
	reader    *bufio.Reader
	writeLock sync.Mutex
}

func (c *ClientSession) send(body []byte) error {
	c.writeLock.Lock()
	defer c.writeLock.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(frameTimeout)); err != nil {
		return err
	}
	return WriteFrame(c.conn, body)
}

// ClientMessage links a message to the client sending it.
type ClientMessage struct {
	session *ClientSession
	message Message
}

type Server struct {
	address   string
	port      int
	pool      *utils.WorkerPool
	sequencer *engine.Sequencer
	validator *ingest.Validator

	clientSessions     map[string]*ClientSession
	clientSessionsLock sync.Mutex
	clientMessages     chan ClientMessage

	// owners maps resting orders to the session that placed them. Only the
	// session handler touches it.
	owners map[common.OrderID]string
}

func New(address string, port int, workers uint, sequencer *engine.Sequencer, validator *ingest.Validator) *Server {
	if workers == 0 {
		workers = defaultNWorkers
	}
	return &Server{
		address:        address,
		port:           port,
		pool:           utils.NewWorkerPool(workers),
		sequencer:      sequencer,
		validator:      validator,
		clientSessions: make(map[string]*ClientSession),
		clientMessages: make(chan ClientMessage, 1),
		owners:         make(map[common.OrderID]string),
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", fmt.Sprintf("%s:%d", s.address, s.port))
	if err != nil {
		return fmt.Errorf("unable to start listener: %w", err)
	}
	return s.Serve(ctx, listener)
}

// Serve accepts sessions on listener until ctx is done. The listener is
// closed on return.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	t, ctx := tomb.WithContext(ctx)

	t.Go(func() error {
		s.pool.Setup(t, s.handleConnection)
		t.Go(func() error { return s.sessionHandler(ctx, t) })
		t.Go(func() error { return s.accept(t, listener) })

		<-t.Dying()
		log.Info().Msg("server shutting down")
		if err := listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			log.Error().Err(err).Msg("unable to close listener")
		}
		s.closeClientSessions()
		return nil
	})

	log.Info().Str("address", listener.Addr().String()).Msg("server running")

	err := t.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *Server) accept(t *tomb.Tomb, listener net.Listener) error {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || !t.Alive() {
				return nil
			}
			log.Error().Err(err).Msg("error accepting client")
			continue
		}

		session, ok := s.addClientSession(conn)
		if !ok {
			log.Warn().Str("address", conn.RemoteAddr().String()).Msg("too many sessions, client refused")
			_ = conn.Close()
			continue
		}
		log.Info().Str("address", session.address).Msg("new client added")

		// Pass over the session to be read from.
		s.requeue(t, session)
	}
}

// sessionHandler applies client messages one at a time, in arrival order.
func (s *Server) sessionHandler(ctx context.Context, t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case message := <-s.clientMessages:
			if err := s.dispatch(ctx, message); err != nil {
				if errors.Is(err, engine.ErrSequencerStopped) {
					return err
				}
				log.Error().Err(err).Str("address", message.session.address).Msg("error handling message")
			}
		}
	}
}

func (s *Server) dispatch(ctx context.Context, m ClientMessage) error {
	log.Debug().
		Str("address", m.session.address).
		Stringer("type", m.message.GetType()).
		Msg("new message")

	switch m.message.GetType() {
	case Heartbeat:
		return nil
	case EndOfDay:
		day, err := s.sequencer.AdvanceDay(ctx)
		if err != nil {
			return err
		}
		report := Report{MessageType: DayReport, Timestamp: uint64(time.Now().UnixNano()), Day: uint32(day)}
		return s.Report(m.session.address, report)
	case NewOrder:
		msg, ok := m.message.(NewOrderMessage)
		if !ok {
			return ErrImproperConversion
		}
		return s.placeOrder(ctx, m.session, msg.Order())
	}
	return fmt.Errorf("%w: %d", ErrInvalidMessageType, m.message.GetType())
}

func (s *Server) placeOrder(ctx context.Context, session *ClientSession, order common.Order) error {
	if err := s.validator.Check(order); err != nil {
		return s.reportError(session.address, order.ID, err)
	}
	outcome, err := s.sequencer.Submit(ctx, order)
	if err != nil {
		return err
	}

	if !outcome.Matched() && order.TimeInForce == common.GoodTillCancelled {
		s.owners[order.ID] = session.address
	}
	for _, agreement := range outcome.Agreements {
		s.reportAgreement(order, session.address, agreement)
	}
	return nil
}

// reportAgreement sends an execution report to the session of each party
// still connected.
func (s *Server) reportAgreement(incoming common.Order, submitter string, agreement common.Agreement) {
	parties := []struct {
		id           common.OrderID
		side         common.Side
		counterparty string
	}{
		{agreement.BuyOrderID, common.Buy, agreement.Seller},
		{agreement.SellOrderID, common.Sell, agreement.Buyer},
	}
	for _, party := range parties {
		address := submitter
		if party.id != incoming.ID {
			var ok bool
			if address, ok = s.owners[party.id]; !ok {
				continue
			}
			delete(s.owners, party.id)
		}

		report := Report{
			MessageType:  ExecutionReport,
			Side:         party.side,
			Timestamp:    uint64(time.Now().UnixNano()),
			OrderID:      uint64(party.id),
			Quantity:     agreement.Quantity,
			Price:        agreement.Price,
			Day:          uint32(agreement.Date),
			Ticker:       agreement.Ticker,
			UUID:         agreement.UUID,
			Counterparty: party.counterparty,
		}
		if err := s.Report(address, report); err != nil {
			log.Warn().Err(err).Str("uuid", agreement.UUID).Msg("execution report not delivered")
		}
	}
}

func (s *Server) reportError(address string, id common.OrderID, err error) error {
	report := Report{
		MessageType: ErrorReport,
		Timestamp:   uint64(time.Now().UnixNano()),
		OrderID:     uint64(id),
		Err:         err.Error(),
	}
	return s.Report(address, report)
}

// Report sends a report to a connected client.
func (s *Server) Report(clientAddress string, report Report) error {
	s.clientSessionsLock.Lock()
	client, ok := s.clientSessions[clientAddress]
	s.clientSessionsLock.Unlock()
	if !ok {
		return ErrClientDoesNotExist
	}

	if err := client.send(report.Serialize()); err != nil {
		s.deleteClientSession(clientAddress)
		return fmt.Errorf("unable to send report: %w", err)
	}
	return nil
}

// handleConnection is a short-lived worker method which reads the next message off the
// session, parses and passes it forward to sessionHandler. An idle session is pushed
// back to the pool; a dead one is cleaned up. Any error returned from here is fatal.
func (s *Server) handleConnection(t *tomb.Tomb, task any) error {
	session, ok := task.(*ClientSession)
	if !ok {
		return ErrImproperConversion
	}

	if err := session.conn.SetReadDeadline(time.Now().Add(pollTimeout)); err != nil {
		s.dropClientSession(session, err)
		return nil
	}
	if _, err := session.reader.Peek(1); err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			s.requeue(t, session)
			return nil
		}
		s.dropClientSession(session, err)
		return nil
	}

	// A frame has started; give the rest of it time to arrive.
	if err := session.conn.SetReadDeadline(time.Now().Add(frameTimeout)); err != nil {
		s.dropClientSession(session, err)
		return nil
	}
	body, err := ReadFrame(session.reader)
	if err != nil {
		s.dropClientSession(session, err)
		return nil
	}

	message, err := ParseMessage(body)
	if err != nil {
		log.Error().Err(err).Str("address", session.address).Msg("error parsing message")
		if err := s.reportError(session.address, 0, err); err != nil {
			return nil
		}
		s.requeue(t, session)
		return nil
	}

	select {
	case <-t.Dying():
		return nil
	case s.clientMessages <- ClientMessage{session: session, message: message}:
	}

	// Push the session back to handle the next message.
	s.requeue(t, session)
	return nil
}

// requeue hands a session back to the pool. Workers must never block on the
// queue they drain, so a session that does not fit is dropped.
func (s *Server) requeue(t *tomb.Tomb, session *ClientSession) {
	if s.pool.TryAddTask(t, session) {
		return
	}
	if t.Alive() {
		log.Warn().Str("address", session.address).Msg("session queue full, client dropped")
	}
	s.deleteClientSession(session.address)
}

// addClientSession is an atomic map add
func (s *Server) addClientSession(conn net.Conn) (*ClientSession, bool) {
	s.clientSessionsLock.Lock()
	defer s.clientSessionsLock.Unlock()

	if len(s.clientSessions) >= maxSessions {
		return nil, false
	}
	session := &ClientSession{
		address: conn.RemoteAddr().String(),
		conn:    conn,
		reader:  bufio.NewReaderSize(conn, MaxFrameSize+frameHeaderLen),
	}
	s.clientSessions[session.address] = session
	return session, true
}

func (s *Server) dropClientSession(session *ClientSession, err error) {
	if errors.Is(err, io.EOF) {
		log.Info().Str("address", session.address).Msg("client disconnected")
	} else {
		log.Error().Err(err).Str("address", session.address).Msg("error reading from connection")
	}
	s.deleteClientSession(session.address)
}

// deleteClientSession is an atomic map remove that closes the connection.
func (s *Server) deleteClientSession(address string) {
	s.clientSessionsLock.Lock()
	defer s.clientSessionsLock.Unlock()

	session, ok := s.clientSessions[address]
	if !ok {
		return
	}
	delete(s.clientSessions, address)
	if err := session.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		log.Error().Err(err).Str("address", address).Msg("unable to close connection")
	}
}

func (s *Server) closeClientSessions() {
	s.clientSessionsLock.Lock()
	addresses := make([]string, 0, len(s.clientSessions))
	for address := range s.clientSessions {
		addresses = append(addresses, address)
	}
	s.clientSessionsLock.Unlock()

	for _, address := range addresses {
		s.deleteClientSession(address)
	}
}
