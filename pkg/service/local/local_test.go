package local

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specbot/kickbot/pkg/perception"
	"github.com/specbot/kickbot/pkg/perception/replay"
	"github.com/specbot/kickbot/pkg/state"
)

func TestLogKeysAndWindow(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, LogKeys{}.Press(ctx, state.KeyE))
	assert.NoError(t, LogKeys{}.Release(ctx, state.KeyE))
	assert.True(t, AlwaysFocused{}.Focused(ctx))
}

func TestCommandProcess_DryRun(t *testing.T) {
	assert.NoError(t, CommandProcess{}.Restart(context.Background(), "7410"))
}

func TestCommandProcess_LaunchArgs(t *testing.T) {
	out := filepath.Join(t.TempDir(), "args")
	p := CommandProcess{
		// A failing stop command is logged and does not block the launch.
		Stop:   []string{"false"},
		Launch: []string{"sh", "-c", `echo "$@" > "$0"`, out},
	}

	require.NoError(t, p.Restart(context.Background(), "7410"))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "-gameMode MP -role soldier -asSpectator true -gameId 7410", strings.TrimSpace(string(data)))
}

func TestCommandProcess_LaunchFailure(t *testing.T) {
	p := CommandProcess{Launch: []string{"false"}}
	assert.Error(t, p.Restart(context.Background(), "7410"))
}

type opaqueImage struct{}

func (opaqueImage) Crop(r perception.Rect) (perception.Image, error) {
	return opaqueImage{}, nil
}

func TestDirArchiver(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	a, err := NewDirArchiver(dir)
	require.NoError(t, err)

	scenario, err := replay.ParseScenario([]byte("frames:\n  - player_name: Alice\n    slot1: MG 08/18\n"))
	require.NoError(t, err)
	frame, err := replay.NewSource(scenario).Capture(context.Background())
	require.NoError(t, err)

	require.NoError(t, a.Save(context.Background(), "Alice-SMG08/18-2024-03-09 14:05:07", frame))

	data, err := os.ReadFile(filepath.Join(dir, "Alice-SMG08_18-2024-03-09_14-05-07.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "player_name: Alice")

	err = a.Save(context.Background(), "x", opaqueImage{})
	assert.ErrorIs(t, err, ErrNotEncodable)
}
