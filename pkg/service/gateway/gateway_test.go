package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	mu       sync.Mutex
	requests []rpcRequest
	sessions []string
	results  map[string]string
	errors   map[string]string
	players  string
	gameIDs  []string
}

func (f *fakeGateway) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/jsonrpc", func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.requests = append(f.requests, req)
		f.sessions = append(f.sessions, r.Header.Get(sessionHeader))
		f.mu.Unlock()

		if msg, ok := f.errors[req.Method]; ok {
			w.Write([]byte(`{"jsonrpc":"2.0","id":"` + req.ID + `","error":{"code":-32501,"message":"` + msg + `"}}`))
			return
		}
		result, ok := f.results[req.Method]
		if !ok {
			result = "null"
		}
		w.Write([]byte(`{"jsonrpc":"2.0","id":"` + req.ID + `","result":` + result + `}`))
	})
	mux.HandleFunc("/players", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.gameIDs = append(f.gameIDs, r.URL.Query().Get("gameID"))
		f.mu.Unlock()
		w.Write([]byte(f.players))
	})
	return mux
}

func (f *fakeGateway) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.requests))
	for i, r := range f.requests {
		out[i] = r.Method
	}
	return out
}

func newTestClient(t *testing.T, f *fakeGateway) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return NewClient(Config{
		RPCURL:     srv.URL + "/jsonrpc",
		PlayersURL: srv.URL + "/players",
		Session:    "session-1",
	})
}

const serverDetails = `{
	"gameId": "7410",
	"name": "![VG] No SMG",
	"mapNamePretty": "Amiens",
	"slots": {
		"Soldier": {"current": 3, "max": 64},
		"Spectator": {"current": 1, "max": 4},
		"Queue": {"current": 2, "max": 10}
	}
}`

const players = `{
	"teams": [
		{"name": "Royal Marines", "players": [
			{"name": "Alice", "player_id": 1001, "platoon": "VG"},
			{"name": "Bob", "player_id": 1002, "platoon": ""}
		]},
		{"name": "Kaiserliche Marine", "players": [
			{"name": "Carl", "player_id": 1003},
			{"player_id": 1004}
		]}
	]
}`

func TestKick(t *testing.T) {
	f := &fakeGateway{results: map[string]string{"RSP.kickPlayer": `"success"`}}
	c := newTestClient(t, f)

	require.NoError(t, c.Kick(context.Background(), "7410", "1002", "No SMG08/18, Read Rules"))

	require.Len(t, f.requests, 1)
	req := f.requests[0]
	assert.Equal(t, "2.0", req.JSONRPC)
	assert.Equal(t, "RSP.kickPlayer", req.Method)
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, map[string]any{
		"game":      "tunguska",
		"gameId":    "7410",
		"personaId": "1002",
		"reason":    "No SMG08/18, Read Rules",
	}, req.Params)
	assert.Equal(t, []string{"session-1"}, f.sessions)
}

func TestKick_RPCError(t *testing.T) {
	f := &fakeGateway{errors: map[string]string{"RSP.kickPlayer": "InsufficientPermissions"}}
	c := newTestClient(t, f)

	err := c.Kick(context.Background(), "7410", "1002", "reason")
	assert.ErrorIs(t, err, ErrRPC)
	assert.Contains(t, err.Error(), "InsufficientPermissions")
}

func TestKick_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "session expired", http.StatusForbidden)
	}))
	defer srv.Close()
	c := NewClient(Config{RPCURL: srv.URL})

	err := c.Kick(context.Background(), "7410", "1002", "reason")
	assert.ErrorIs(t, err, ErrRequest)
	assert.Contains(t, err.Error(), "403")
}

func TestRefresh(t *testing.T) {
	f := &fakeGateway{
		results: map[string]string{"GameServer.getServerDetails": serverDetails},
		players: players,
	}
	c := newTestClient(t, f)

	r, err := c.Refresh(context.Background(), "7410")
	require.NoError(t, err)

	assert.Equal(t, "7410", r.GameID)
	assert.Equal(t, "![VG] No SMG", r.ServerName)
	assert.Equal(t, "Amiens", r.MapName)
	assert.Equal(t, 64, r.MaxPlayers)
	assert.Equal(t, 1, r.Spectators)
	assert.Equal(t, 2, r.Queue)
	assert.Equal(t, "Royal Marines", r.Team1Name)
	assert.Equal(t, map[string]string{"[VG]Alice": "1001", "Bob": "1002"}, r.Team1)
	assert.Equal(t, map[string]string{"Carl": "1003"}, r.Team2)
	assert.Equal(t, 3, r.PlayerCount())
	assert.False(t, r.FetchedAt.IsZero())
	assert.Equal(t, []string{"7410"}, f.gameIDs)
}

func TestRefresh_MalformedPlayers(t *testing.T) {
	f := &fakeGateway{
		results: map[string]string{"GameServer.getServerDetails": serverDetails},
		players: `{"teams": []}`,
	}
	c := newTestClient(t, f)

	_, err := c.Refresh(context.Background(), "7410")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestRefresh_MissingSlots(t *testing.T) {
	f := &fakeGateway{results: map[string]string{"GameServer.getServerDetails": `{"gameId": "7410"}`}}
	c := newTestClient(t, f)

	_, err := c.Refresh(context.Background(), "7410")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestFindServer(t *testing.T) {
	f := &fakeGateway{results: map[string]string{
		"GameServer.searchServers": `{"gameservers": [{"gameId": "7410", "name": "![VG] No SMG"}]}`,
	}}
	c := newTestClient(t, f)
	ctx := context.Background()

	id, err := c.FindServer(ctx, "![VG]")
	require.NoError(t, err)
	assert.Equal(t, "7410", id)

	// Second lookup is served from the cache.
	id, err = c.FindServer(ctx, "![VG]")
	require.NoError(t, err)
	assert.Equal(t, "7410", id)
	assert.Equal(t, []string{"GameServer.searchServers"}, f.methods())

	assert.Equal(t, `{"name":"![VG]","version":6}`, f.requests[0].Params["filterJson"])
}

func TestFindServer_NoMatch(t *testing.T) {
	f := &fakeGateway{results: map[string]string{"GameServer.searchServers": `{"gameservers": []}`}}
	c := newTestClient(t, f)

	_, err := c.FindServer(context.Background(), "nothing")
	assert.ErrorIs(t, err, ErrServerNotFound)
}
