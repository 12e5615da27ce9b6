package libemit

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const defaultWriteTimeout = time.Second

type (
	CloseChan chan struct{}

	WsSourceOption func(*WsSource)

	// WsSource publishes the frames read from a websocket connection as events on an
	// emitter: text frames as EventData, binary as EventBinary, control frames as
	// EventPing/EventPong, and the end of the connection as EventClose, preceded by
	// EventError when the connection failed. Consumers subscribe through a Registry
	// wrapping the same emitter and drop their listeners with Destroy.
	WsSource struct {
		logger       logger
		dialer       *websocket.Dialer
		url          string
		header       http.Header
		sink         eventSink[EventType, Frame]
		replyPings   bool
		writeTimeout time.Duration
		pingInterval time.Duration
		pingPayload  func() []byte

		conn    *websocket.Conn
		writeMu sync.Mutex
		group   *errgroup.Group

		closeC          CloseChan
		closeOnce       sync.Once
		closeReason     error
		closeReasonOnce sync.Once
	}
)

// WithPingReply controls whether inbound pings are answered with a pong. Enabled by default.
func WithPingReply(reply bool) WsSourceOption {
	return func(w *WsSource) {
		w.replyPings = reply
	}
}

// WithKeepAlive sends a ping every interval while the connection is open. payload may be
// nil.
func WithKeepAlive(interval time.Duration, payload func() []byte) WsSourceOption {
	return func(w *WsSource) {
		w.pingInterval = interval
		w.pingPayload = payload
	}
}

func WithWriteTimeout(d time.Duration) WsSourceOption {
	return func(w *WsSource) {
		if d > 0 {
			w.writeTimeout = d
		}
	}
}

func NewWsSource(
	logger logger,
	dialer *websocket.Dialer,
	url string,
	header http.Header,
	sink eventSink[EventType, Frame],
	opts ...WsSourceOption,
) *WsSource {
	if logger == nil {
		logger = nopLogger{}
	}
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	w := &WsSource{
		logger:       logger.WithField("net", "ws_source"),
		dialer:       dialer,
		url:          url,
		header:       header,
		sink:         sink,
		replyPings:   true,
		writeTimeout: defaultWriteTimeout,
		closeC:       make(CloseChan),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Open dials the server, emits EventConnect and starts reading. It returns once the
// connection is established; reading stops when ctx is done or Close is called.
func (w *WsSource) Open(ctx context.Context) error {
	conn, resp, err := w.dialer.DialContext(ctx, w.url, w.header)
	if err = w.handleDialError(resp, err); err != nil {
		w.logger.Errorf("cannot open connection: %s", err)
		return err
	}

	w.logger.Debugf("success opening connection to %s", w.url)
	w.conn = conn

	// Control frames are published too, so the default handlers are replaced.
	conn.SetPingHandler(func(appData string) error {
		w.logger.Debugln("<= [PING]")
		w.sink.Emit(EventPing, NewPingFrame([]byte(appData)))
		if !w.replyPings {
			return nil
		}
		err := w.writeControl(websocket.PongMessage, []byte(appData))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})

	conn.SetPongHandler(func(appData string) error {
		w.logger.Debugln("<= [PONG]")
		w.sink.Emit(EventPong, NewPongFrame([]byte(appData)))
		return nil
	})

	conn.SetCloseHandler(func(code int, text string) error {
		w.logger.Debugf("<= [CLOSE] %d %s", code, text)
		_ = w.writeControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, ""))
		return nil
	})

	w.sink.Emit(EventConnect, Frame{})

	group, gctx := errgroup.WithContext(ctx)
	w.group = group

	group.Go(w.read)
	group.Go(func() error {
		select {
		case <-gctx.Done():
		case <-w.closeC:
		}
		w.safeClose()
		return nil
	})
	if w.pingInterval > 0 {
		group.Go(func() error {
			w.keepAlive(gctx)
			return nil
		})
	}

	return nil
}

// keepAlive sends periodic pings until ctx is done or the connection is closed.
func (w *WsSource) keepAlive(ctx context.Context) {
	ticker := time.NewTicker(w.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.closeC:
			return
		case <-ticker.C:
			var payload []byte
			if w.pingPayload != nil {
				payload = w.pingPayload()
			}
			if err := w.Send(NewPingFrame(payload)); err != nil {
				w.logger.Warnf("keep alive ping failed: %s", err)
			}
		}
	}
}

// Send writes f to the connection.
func (w *WsSource) Send(f Frame) error {
	if w.conn == nil {
		return errors.Wrap(ErrConnectionClosed, "connection not open")
	}
	select {
	case <-w.closeC:
		return ErrConnectionClosed
	default:
	}

	var err error
	switch f.Type {
	case PingMessage:
		w.logger.Debugln("=> [PING]")
		err = w.writeControl(websocket.PingMessage, f.Data)
	case PongMessage:
		w.logger.Debugln("=> [PONG]")
		err = w.writeControl(websocket.PongMessage, f.Data)
	case BinaryMessage:
		w.logger.Debugln("=> [BIN]")
		err = w.writeMessage(websocket.BinaryMessage, f.Data)
	default:
		w.logger.Debugf("=> [DATA] %s", f.Data)
		err = w.writeMessage(websocket.TextMessage, f.Data)
	}

	if err != nil {
		return errors.Wrap(ErrConnectionClosed, err.Error())
	}
	return nil
}

// Close terminates the connection. It is safe to call more than once.
func (w *WsSource) Close() {
	w.safeClose()
}

// CloseChan is closed once the connection is terminated.
func (w *WsSource) CloseChan() CloseChan {
	return w.closeC
}

// CloseErr explains why the connection ended, nil while it is alive.
func (w *WsSource) CloseErr() error {
	select {
	case <-w.closeC:
	default:
		return nil
	}
	return w.closeReason
}

// Wait blocks until the read loop exits and returns the error that ended it, if the
// connection failed rather than being closed.
func (w *WsSource) Wait() error {
	if w.group == nil {
		return nil
	}
	return w.group.Wait()
}

func (w *WsSource) read() error {
	var closeFrame = Frame{Type: CloseMessage}

	defer func() {
		w.safeClose()
		closeFrame.Err = w.closeReason
		w.sink.Emit(EventClose, closeFrame)
	}()

	for {
		messageType, bts, err := w.conn.ReadMessage()
		if err != nil {
			return w.readFailed(err, &closeFrame)
		}

		// message types from ReadMessage are either text or binary
		switch messageType {
		case websocket.BinaryMessage:
			w.logger.Debugln("<= [BIN]")
			w.sink.Emit(EventBinary, NewBinaryFrame(bts))
		default:
			w.logger.Debugf("<= [DATA] %s", bts)
			w.sink.Emit(EventData, NewDataFrame(bts))
		}
	}
}

func (w *WsSource) readFailed(err error, closeFrame *Frame) error {
	select {
	case <-w.closeC:
		w.setCloseReason(ErrTerminated)
		return nil
	default:
	}

	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		closeFrame.Code = closeErr.Code
		closeFrame.Data = []byte(closeErr.Text)

		if closeErr.Code == websocket.CloseNormalClosure || closeErr.Code == websocket.CloseGoingAway {
			w.setCloseReason(ErrConnectionClosed)
			return nil
		}
	}

	w.logger.Errorf("error occurred on websocket read: %s", err)
	reason := errors.Wrap(ErrConnectionClosed, "error occurred on websocket read: "+err.Error())
	w.setCloseReason(reason)
	w.sink.Emit(EventError, Frame{Err: reason})

	return reason
}

func (w *WsSource) writeControl(messageType int, data []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	return w.conn.WriteControl(messageType, data, time.Now().Add(w.writeTimeout))
}

func (w *WsSource) writeMessage(messageType int, data []byte) error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	_ = w.conn.SetWriteDeadline(time.Now().Add(w.writeTimeout))
	return w.conn.WriteMessage(messageType, data)
}

func (w *WsSource) safeClose() {
	w.closeOnce.Do(w.close)
}

func (w *WsSource) close() {
	w.setCloseReason(ErrTerminated)
	close(w.closeC)

	if w.conn == nil {
		return
	}

	w.logger.Debugln("closing connection")
	_ = w.writeControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = w.conn.Close()
}

func (w *WsSource) setCloseReason(err error) {
	w.closeReasonOnce.Do(func() {
		w.closeReason = err
	})
}

func (w *WsSource) handleDialError(resp *http.Response, err error) error {
	// 1. HTTP errors first
	if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
		var msg string
		if resp.Body != nil {
			if bts, rerr := io.ReadAll(resp.Body); rerr == nil {
				msg = string(bts)
			}
		}
		return wrapErrDial(errors.Wrap(ErrRateLimit, msg), w.url)
	}

	// 2. Network errors
	if err != nil {
		return wrapErrDial(errors.Wrap(ErrCannotConnect, err.Error()), w.url)
	}

	return nil
}
