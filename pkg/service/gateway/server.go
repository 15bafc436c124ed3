package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/tidwall/gjson"

	"github.com/specbot/kickbot/pkg/roster"
)

const searchProtocolVersion = "3779779"

// FindServer returns the game id of the first server whose name matches name.
// Results are cached since a server keeps its id until it restarts.
func (c *Client) FindServer(ctx context.Context, name string) (string, error) {
	if id, ok := c.servers.Get(name); ok {
		return id.(string), nil
	}

	filter, err := jsonString(map[string]any{"version": 6, "name": name})
	if err != nil {
		return "", err
	}
	result, err := c.call(ctx, "GameServer.searchServers", map[string]any{
		"filterJson":      filter,
		"game":            GameTitle,
		"limit":           "30",
		"protocolVersion": searchProtocolVersion,
	})
	if err != nil {
		return "", err
	}

	id := gjson.GetBytes(result, "gameservers.0.gameId").String()
	if id == "" {
		return "", fmt.Errorf("%w: %q", ErrServerNotFound, name)
	}
	c.servers.Set(name, id, cache.DefaultExpiration)
	return id, nil
}

// Refresh fetches the server details and both team lists.
func (c *Client) Refresh(ctx context.Context, gameID string) (*roster.TeamRoster, error) {
	details, err := c.call(ctx, "GameServer.getServerDetails", map[string]any{
		"game":   GameTitle,
		"gameId": gameID,
	})
	if err != nil {
		return nil, err
	}

	r, err := decodeServerDetails(details)
	if err != nil {
		return nil, err
	}
	if r.GameID == "" {
		r.GameID = gameID
	}

	if err := c.fetchPlayers(ctx, r); err != nil {
		return nil, err
	}
	r.FetchedAt = time.Now()
	return r, nil
}

func decodeServerDetails(data []byte) (*roster.TeamRoster, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: server details are not json", ErrMalformed)
	}
	res := gjson.ParseBytes(data)
	slots := res.Get("slots")
	if !slots.Exists() {
		return nil, fmt.Errorf("%w: server details without slots", ErrMalformed)
	}

	return &roster.TeamRoster{
		GameID:         res.Get("gameId").String(),
		ServerName:     res.Get("name").String(),
		MapName:        res.Get("mapNamePretty").String(),
		CurrentPlayers: int(slots.Get("Soldier.current").Int()),
		MaxPlayers:     int(slots.Get("Soldier.max").Int()),
		Spectators:     int(slots.Get("Spectator.current").Int()),
		Queue:          int(slots.Get("Queue.current").Int()),
	}, nil
}

// fetchPlayers fills in the team lists from the player list endpoint.
func (c *Client) fetchPlayers(ctx context.Context, r *roster.TeamRoster) error {
	u, err := url.Parse(c.cfg.PlayersURL)
	if err != nil {
		return fmt.Errorf("invalid players url %q: %w", c.cfg.PlayersURL, err)
	}
	q := u.Query()
	q.Set("gameID", r.GameID)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("%w: players: %w", ErrRequest, err)
	}
	data, err := c.do(req)
	if err != nil {
		return fmt.Errorf("players: %w", err)
	}

	teams := gjson.GetBytes(data, "teams").Array()
	if len(teams) < 2 {
		return fmt.Errorf("%w: expected two teams, got %d", ErrMalformed, len(teams))
	}

	r.Team1Name = teams[0].Get("name").String()
	r.Team1 = decodeTeam(teams[0])
	r.Team2Name = teams[1].Get("name").String()
	r.Team2 = decodeTeam(teams[1])
	return nil
}

// decodeTeam maps names to persona ids. Platoon tags are part of the name
// shown in the spectator view, so they are prefixed here too.
func decodeTeam(team gjson.Result) map[string]string {
	players := make(map[string]string)
	team.Get("players").ForEach(func(_, p gjson.Result) bool {
		name := p.Get("name").String()
		id := p.Get("player_id").String()
		if name == "" || id == "" {
			return true
		}
		if platoon := p.Get("platoon").String(); platoon != "" {
			name = "[" + platoon + "]" + name
		}
		players[name] = id
		return true
	})
	return players
}
