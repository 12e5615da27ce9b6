package libemit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	event EventType
	frame Frame
}

func newTestWsServer(t *testing.T, handler func(*websocket.Conn)) string {
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handler(conn)
	}))
	t.Cleanup(srv.Close)

	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func drain(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// recordEvents subscribes to every WsSource event through a registry.
func recordEvents(t *testing.T, emitter *EventEmitter[EventType, Frame]) <-chan recorded {
	ch := make(chan recorded, 64)
	registry := New[EventType, Frame](emitter)
	t.Cleanup(func() { registry.Destroy() })

	for _, event := range []EventType{
		EventConnect, EventData, EventBinary, EventPing, EventPong, EventClose, EventError,
	} {
		require.NoError(t, registry.On(event, NewListener(func(f Frame) {
			ch <- recorded{event: event, frame: f}
		})))
	}
	return ch
}

func nextEvent(t *testing.T, ch <-chan recorded) recorded {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return recorded{}
	}
}

func TestWsSourcePublishesFrames(t *testing.T) {
	pong := make(chan string, 1)
	url := newTestWsServer(t, func(conn *websocket.Conn) {
		conn.SetPongHandler(func(data string) error {
			pong <- data
			return nil
		})
		_ = conn.WriteMessage(websocket.TextMessage, []byte("hello"))
		_ = conn.WriteControl(websocket.PingMessage, []byte("p"), time.Now().Add(time.Second))
		_ = conn.WriteMessage(websocket.BinaryMessage, []byte{1, 2})
		drain(conn)
	})

	emitter := NewEventEmitter[EventType, Frame]()
	events := recordEvents(t, emitter)
	source := NewWsSource(nil, nil, url, nil, emitter)
	t.Cleanup(source.Close)

	require.NoError(t, source.Open(context.Background()))

	assert.Equal(t, EventConnect, nextEvent(t, events).event)

	r := nextEvent(t, events)
	assert.Equal(t, EventData, r.event)
	assert.Equal(t, "hello", string(r.frame.Data))

	r = nextEvent(t, events)
	assert.Equal(t, EventPing, r.event)
	assert.Equal(t, "p", string(r.frame.Data))

	r = nextEvent(t, events)
	assert.Equal(t, EventBinary, r.event)
	assert.Equal(t, []byte{1, 2}, r.frame.Data)

	select {
	case data := <-pong:
		assert.Equal(t, "p", data)
	case <-time.After(2 * time.Second):
		t.Fatal("ping was not answered")
	}

	require.NoError(t, source.Send(NewDataFrame([]byte("bye"))))

	source.Close()
	r = nextEvent(t, events)
	assert.Equal(t, EventClose, r.event)
	assert.ErrorIs(t, r.frame.Err, ErrTerminated)

	assert.NoError(t, source.Wait())
	assert.ErrorIs(t, source.CloseErr(), ErrTerminated)
	assert.ErrorIs(t, source.Send(NewDataFrame(nil)), ErrConnectionClosed)
}

func TestWsSourceServerClose(t *testing.T) {
	url := newTestWsServer(t, func(conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
		drain(conn)
	})

	emitter := NewEventEmitter[EventType, Frame]()
	events := recordEvents(t, emitter)
	source := NewWsSource(nil, nil, url, nil, emitter)

	require.NoError(t, source.Open(context.Background()))
	assert.Equal(t, EventConnect, nextEvent(t, events).event)

	r := nextEvent(t, events)
	require.Equal(t, EventClose, r.event)
	assert.Equal(t, websocket.CloseNormalClosure, r.frame.Code)
	assert.Equal(t, "bye", string(r.frame.Data))
	assert.ErrorIs(t, r.frame.Err, ErrConnectionClosed)

	assert.NoError(t, source.Wait())

	select {
	case <-source.CloseChan():
	default:
		t.Fatal("close chan still open")
	}
}

func TestWsSourceBrokenConnection(t *testing.T) {
	url := newTestWsServer(t, func(conn *websocket.Conn) {
		_ = conn.UnderlyingConn().Close()
	})

	emitter := NewEventEmitter[EventType, Frame]()
	events := recordEvents(t, emitter)
	source := NewWsSource(nil, nil, url, nil, emitter)

	require.NoError(t, source.Open(context.Background()))
	assert.Equal(t, EventConnect, nextEvent(t, events).event)

	r := nextEvent(t, events)
	require.Equal(t, EventError, r.event)
	assert.ErrorIs(t, r.frame.Err, ErrConnectionClosed)

	assert.Equal(t, EventClose, nextEvent(t, events).event)
	assert.ErrorIs(t, source.Wait(), ErrConnectionClosed)
}

func TestWsSourceContextCancel(t *testing.T) {
	url := newTestWsServer(t, drain)

	emitter := NewEventEmitter[EventType, Frame]()
	events := recordEvents(t, emitter)
	source := NewWsSource(nil, nil, url, nil, emitter)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, source.Open(ctx))
	assert.Equal(t, EventConnect, nextEvent(t, events).event)

	cancel()

	assert.Equal(t, EventClose, nextEvent(t, events).event)
	assert.NoError(t, source.Wait())
}

func TestWsSourceDialErrors(t *testing.T) {
	t.Run("rate limited", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte("slow down"))
		}))
		t.Cleanup(srv.Close)

		source := NewWsSource(nil, nil, "ws"+strings.TrimPrefix(srv.URL, "http"), nil, NewEventEmitter[EventType, Frame]())
		err := source.Open(context.Background())

		assert.ErrorIs(t, err, ErrRateLimit)
		var dialErr ErrDial
		assert.True(t, errors.As(err, &dialErr))
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := "ws://user:secret@" + strings.TrimPrefix(srv.URL, "http://")
		srv.Close()

		source := NewWsSource(nil, nil, url, nil, NewEventEmitter[EventType, Frame]())
		err := source.Open(context.Background())

		assert.ErrorIs(t, err, ErrCannotConnect)
		assert.NotContains(t, err.Error(), "secret")
	})

	t.Run("send before open", func(t *testing.T) {
		source := NewWsSource(nil, nil, "ws://localhost", nil, NewEventEmitter[EventType, Frame]())
		assert.ErrorIs(t, source.Send(NewPingFrame(nil)), ErrConnectionClosed)
		assert.NoError(t, source.Wait())
		source.Close()
	})
}

func TestWsSourceKeepAlive(t *testing.T) {
	pings := make(chan string, 8)
	url := newTestWsServer(t, func(conn *websocket.Conn) {
		conn.SetPingHandler(func(data string) error {
			select {
			case pings <- data:
			default:
			}
			return nil
		})
		drain(conn)
	})

	source := NewWsSource(nil, nil, url, nil, NewEventEmitter[EventType, Frame](),
		WithKeepAlive(10*time.Millisecond, func() []byte { return []byte("alive") }),
	)
	t.Cleanup(source.Close)

	require.NoError(t, source.Open(context.Background()))

	for i := 0; i < 2; i++ {
		select {
		case data := <-pings:
			assert.Equal(t, "alive", data)
		case <-time.After(2 * time.Second):
			t.Fatal("no keep alive ping received")
		}
	}

	source.Close()
	assert.NoError(t, source.Wait())
}
