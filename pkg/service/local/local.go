// Package local holds the adapters used when no game client is attached:
// input and process control are logged instead of performed.
package local

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/specbot/kickbot/pkg/state"
)

// LogKeys logs key presses.
type LogKeys struct{}

func (LogKeys) Press(ctx context.Context, key state.Key) error {
	logrus.Debugf("press %s", key)
	return nil
}

func (LogKeys) Release(ctx context.Context, key state.Key) error {
	logrus.Debugf("release %s", key)
	return nil
}

// AlwaysFocused reports the game window as focused.
type AlwaysFocused struct{}

func (AlwaysFocused) Focused(ctx context.Context) bool {
	return true
}

// gameIDPlaceholder is replaced by the game id in launch arguments.
const gameIDPlaceholder = "{gameId}"

// DefaultLaunchArgs join the watched server as a spectator.
var DefaultLaunchArgs = []string{"-gameMode", "MP", "-role", "soldier", "-asSpectator", "true", "-gameId", gameIDPlaceholder}

// CommandProcess restarts the game by running external commands. With no
// commands configured it only logs, which is what dry runs use.
type CommandProcess struct {
	// Stop is run first to kill the client, e.g. ["taskkill", "/IM", "bf1.exe", "/F"].
	Stop []string
	// Launch starts the client; LaunchArgs are appended with the game id filled in.
	Launch     []string
	LaunchArgs []string
}

// Restart kills and relaunches the game into gameID.
func (p CommandProcess) Restart(ctx context.Context, gameID string) error {
	if len(p.Stop) > 0 {
		if err := run(ctx, p.Stop); err != nil {
			logrus.Warnf("failed to stop game: %v", err)
		}
	}

	if len(p.Launch) == 0 {
		logrus.Infof("dry run: would relaunch game into %s", gameID)
		return nil
	}

	args := p.LaunchArgs
	if args == nil {
		args = DefaultLaunchArgs
	}
	cmd := append([]string(nil), p.Launch...)
	for _, a := range args {
		cmd = append(cmd, strings.ReplaceAll(a, gameIDPlaceholder, gameID))
	}
	return run(ctx, cmd)
}

func run(ctx context.Context, argv []string) error {
	out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", argv[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}
