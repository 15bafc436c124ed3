package gateway

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Kick removes a player from the server.
func (c *Client) Kick(ctx context.Context, gameID, playerID, reason string) error {
	_, err := c.call(ctx, "RSP.kickPlayer", map[string]any{
		"game":      GameTitle,
		"gameId":    gameID,
		"personaId": playerID,
		"reason":    reason,
	})
	if err != nil {
		return err
	}
	logrus.Debugf("gateway accepted kick of %s from %s", playerID, gameID)
	return nil
}
