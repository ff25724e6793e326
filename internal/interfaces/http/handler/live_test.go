package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/inventrack/backend/internal/application/livequery"
	"github.com/inventrack/backend/internal/interfaces/http/dto"
	"github.com/inventrack/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sseEvent struct {
	name string
	data string
}

// openStream connects to a live query and returns its parsed events
func openStream(t *testing.T, server *httptest.Server, path, user string) <-chan sseEvent {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+path, nil)
	require.NoError(t, err)
	req.Header.Set(middleware.DefaultUserHeader, user)
	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	events := make(chan sseEvent, 16)
	go func() {
		defer close(events)
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		var current sseEvent
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case line == "":
				if current.name != "" {
					select {
					case events <- current:
					case <-ctx.Done():
						return
					}
				}
				current = sseEvent{}
			case strings.HasPrefix(line, "event:"):
				current.name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				current.data += strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			}
		}
	}()
	return events
}

// waitForSnapshot reads snapshots until match accepts one
func waitForSnapshot(t *testing.T, events <-chan sseEvent, match func(livequery.Snapshot) bool) livequery.Snapshot {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		var s livequery.Snapshot
		require.NoError(t, json.Unmarshal([]byte(nextEvent(t, events, EventSnapshot).data), &s))
		if match(s) {
			return s
		}
	}
	t.Fatal("no matching snapshot delivered")
	return livequery.Snapshot{}
}

// nextEvent waits for the next event with the given name, skipping heartbeats
func nextEvent(t *testing.T, events <-chan sseEvent, name string) sseEvent {
	t.Helper()

	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "stream closed while waiting for %s", name)
			if ev.name == name {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s event", name)
		}
	}
}

func TestLiveHandler_StreamsSnapshots(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.router)
	t.Cleanup(server.Close)

	env.createItem(t, userA, "Widget", 10)
	events := openStream(t, server, "/api/v1/live/items", userA)

	nextEvent(t, events, EventConnected)
	var first livequery.Snapshot
	require.NoError(t, json.Unmarshal([]byte(nextEvent(t, events, EventSnapshot).data), &first))
	assert.Equal(t, livequery.QueryItems, first.Query.Kind)
	require.Len(t, first.Items, 1)
	assert.Equal(t, "Widget", first.Items[0].Name)

	env.createItem(t, userA, "Gadget", 1)
	env.createItem(t, userB, "Elsewhere", 1)

	waitForSnapshot(t, events, func(s livequery.Snapshot) bool { return len(s.Items) == 2 })

	nextEvent(t, events, EventHeartbeat)
	assert.Equal(t, 1, env.hub.SubscriptionCount())
}

func TestLiveHandler_SalesAndLowStock(t *testing.T) {
	env := newTestEnv(t)
	server := httptest.NewServer(env.router)
	t.Cleanup(server.Close)

	widget := env.createItem(t, userA, "Widget", 6)
	lowStock := openStream(t, server, "/api/v1/live/low-stock", userA)
	salesToday := openStream(t, server, "/api/v1/live/sales", userA)

	var initial livequery.Snapshot
	require.NoError(t, json.Unmarshal([]byte(nextEvent(t, lowStock, EventSnapshot).data), &initial))
	assert.Empty(t, initial.Items)
	initial = livequery.Snapshot{}
	require.NoError(t, json.Unmarshal([]byte(nextEvent(t, salesToday, EventSnapshot).data), &initial))
	require.NotNil(t, initial.Sales)
	assert.Empty(t, initial.Sales.Sales)

	createSale(t, env, userA, widget.ID, 2)

	low := waitForSnapshot(t, lowStock, func(s livequery.Snapshot) bool { return len(s.Items) == 1 })
	assert.Equal(t, 4, low.Items[0].Quantity)
	waitForSnapshot(t, salesToday, func(s livequery.Snapshot) bool {
		return s.Sales != nil && s.Sales.Totals.ItemsSold == 2
	})
}

func TestLiveHandler_RejectsUnknownQuery(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/live/customers", userA, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidInput, decode(t, w, nil).Error.Code)

	w = env.do(t, http.MethodGet, "/api/v1/live/sales?start=2026-01-01", userA, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, env.hub.SubscriptionCount())
}
