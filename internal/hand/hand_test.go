package hand

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestSnapshotDefaultsInactive(t *testing.T) {
	tr := NewTracker(nil)
	assert.False(t, tr.Snapshot().Active)
}

func TestFeedUpdatesSnapshot(t *testing.T) {
	tr := NewTracker(nil)
	srv := httptest.NewServer(tr)
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"x":120.5,"y":64,"active":true}`)))
	require.Eventually(t, func() bool { return tr.Snapshot().Active }, time.Second, time.Millisecond)

	assert.Equal(t, Position{X: 120.5, Y: 64, Active: true}, tr.Snapshot())
}

func TestMalformedFramesAreIgnored(t *testing.T) {
	tr := NewTracker(nil)
	srv := httptest.NewServer(tr)
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"x":1,"y":2,"active":true}`)))
	require.Eventually(t, func() bool { return tr.Snapshot().Active }, time.Second, time.Millisecond)
	assert.Equal(t, 1.0, tr.Snapshot().X)
}

func TestDisconnectDeactivatesHand(t *testing.T) {
	tr := NewTracker(nil)
	var counts []int
	done := make(chan struct{})
	tr.OnConnections = func(n int) {
		counts = append(counts, n)
		if n == 0 {
			close(done)
		}
	}
	srv := httptest.NewServer(tr)
	defer srv.Close()

	conn := dial(t, srv)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"x":5,"y":5,"active":true}`)))
	require.Eventually(t, func() bool { return tr.Snapshot().Active }, time.Second, time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	conn.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("feed did not disconnect")
	}
	assert.False(t, tr.Snapshot().Active)
	assert.Equal(t, []int{1, 0}, counts)
}
