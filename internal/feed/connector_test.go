package feed

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/boomslang777/ram2/internal/cache"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// feedServer upgrades every request and hands the connection to serve.
func feedServer(t *testing.T, serve func(*websocket.Conn)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		serve(conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestConnectorAppliesDataFrames(t *testing.T) {
	srv := feedServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte(
			`{"type":"data","data":{"positions":[{"contract":{"conId":711,"symbol":"SPY","secType":"OPT","localSymbol":"SPY 250117C00600000"},"position":2}],"spyPrice":600.25}}`))
		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	c := cache.New(zerolog.Nop())
	connector := New(Config{URL: wsURL(srv), ReconnectDelay: 50 * time.Millisecond}, c, zerolog.Nop())

	connector.Acquire()
	defer func() {
		connector.Release()
		connector.Wait()
	}()

	waitFor(t, 2*time.Second, func() bool {
		_, ok := c.ReferencePrice()
		return ok
	})

	positions, ok := c.Positions()
	if !ok || len(positions) != 1 || positions[0].Contract.ConID != 711 {
		t.Errorf("positions = %v, %v", positions, ok)
	}
	price, _ := c.ReferencePrice()
	if price != 600.25 {
		t.Errorf("price = %v, want 600.25", price)
	}
}

// A malformed frame is dropped without killing the connection; frames after
// it still apply.
func TestConnectorDropsMalformedFrames(t *testing.T) {
	srv := feedServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte(`{not json`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"heartbeat"}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"data","data":{"spyPrice":601.5}}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	c := cache.New(zerolog.Nop())
	connector := New(Config{URL: wsURL(srv), ReconnectDelay: 50 * time.Millisecond}, c, zerolog.Nop())

	connector.Acquire()
	defer func() {
		connector.Release()
		connector.Wait()
	}()

	waitFor(t, 2*time.Second, func() bool {
		price, ok := c.ReferencePrice()
		return ok && price == 601.5
	})
}

func TestConnectorReconnectsAfterDrop(t *testing.T) {
	var dials atomic.Int32
	srv := feedServer(t, func(conn *websocket.Conn) {
		n := dials.Add(1)
		if n == 1 {
			// Drop the first connection immediately to force a reconnect.
			return
		}
		conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"data","data":{"spyPrice":599.0}}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	c := cache.New(zerolog.Nop())
	connector := New(Config{URL: wsURL(srv), ReconnectDelay: 20 * time.Millisecond}, c, zerolog.Nop())

	connector.Acquire()
	defer func() {
		connector.Release()
		connector.Wait()
	}()

	waitFor(t, 3*time.Second, func() bool {
		_, ok := c.ReferencePrice()
		return ok
	})
	if dials.Load() < 2 {
		t.Errorf("dials = %d, want at least 2", dials.Load())
	}
}

// An Acquire right after the last Release starts a fresh loop while the old
// one is still unwinding. The old loop's teardown must not clobber the state
// or connection of the new loop once it is open.
func TestConnectorReacquireAfterRelease(t *testing.T) {
	srv := feedServer(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	c := cache.New(zerolog.Nop())
	connector := New(Config{URL: wsURL(srv), ReconnectDelay: 20 * time.Millisecond}, c, zerolog.Nop())

	connector.Acquire()
	waitFor(t, 2*time.Second, func() bool { return connector.State() == StateOpen })

	connector.Release()
	connector.Acquire()
	defer func() {
		connector.Release()
		connector.Wait()
	}()

	waitFor(t, 2*time.Second, func() bool { return connector.State() == StateOpen })

	// Give the first loop's deferred teardown time to run; it must not
	// overwrite the live state of the second loop.
	time.Sleep(100 * time.Millisecond)
	if got := connector.State(); got != StateOpen {
		t.Errorf("state = %v after reacquire, want open", got)
	}
}

// Acquire/Release are reference counted: a second consumer shares the
// connection and the loop only stops on the last release.
func TestConnectorRefCounting(t *testing.T) {
	var dials atomic.Int32
	srv := feedServer(t, func(conn *websocket.Conn) {
		dials.Add(1)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	c := cache.New(zerolog.Nop())
	connector := New(Config{URL: wsURL(srv), ReconnectDelay: 20 * time.Millisecond}, c, zerolog.Nop())

	connector.Acquire()
	connector.Acquire()

	waitFor(t, 2*time.Second, func() bool { return connector.State() == StateOpen })
	if dials.Load() != 1 {
		t.Errorf("dials = %d, want 1 shared connection", dials.Load())
	}

	connector.Release()
	time.Sleep(50 * time.Millisecond)
	if connector.State() != StateOpen {
		t.Error("connection must stay open while a consumer remains")
	}

	connector.Release()
	connector.Wait()
	if connector.State() != StateDisconnected {
		t.Errorf("state after last release = %v", connector.State())
	}
}
