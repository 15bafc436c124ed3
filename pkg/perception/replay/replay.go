// Package replay drives perception from a recorded scenario file instead of
// a live game window. Each scenario frame lists what the HUD showed.
package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/specbot/kickbot/pkg/perception"
	"github.com/specbot/kickbot/pkg/weapon"
)

// ErrExhausted is returned by Capture once a non-looping scenario has played.
var ErrExhausted = errors.New("replay scenario exhausted")

// Icon is the classifier output recorded for a frame.
type Icon struct {
	Probability float32         `yaml:"probability"`
	Category    weapon.Category `yaml:"category"`
}

// Frame is one recorded HUD state.
type Frame struct {
	PlayerName string `yaml:"player_name"`
	Icon       Icon   `yaml:"icon"`
	Slot1      string `yaml:"slot1"`
	Slot2      string `yaml:"slot2"`
	// Fail makes the capture of this frame fail.
	Fail bool `yaml:"fail"`
}

// Team lists players by name with their persona id.
type Team map[string]string

// Roster is the server roster served in dry-run mode.
type Roster struct {
	ServerName string `yaml:"server_name"`
	MapName    string `yaml:"map_name"`
	MaxPlayers int    `yaml:"max_players"`
	Team1      Team   `yaml:"team1"`
	Team2      Team   `yaml:"team2"`
}

// Scenario is a replayable recording.
type Scenario struct {
	Loop   bool    `yaml:"loop"`
	Frames []Frame `yaml:"frames"`
	Roster Roster  `yaml:"roster"`
}

// LoadScenario reads a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file %s: %w", path, err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes a YAML scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if len(s.Frames) == 0 {
		return nil, errors.New("scenario has no frames")
	}
	return &s, nil
}

// Source plays scenario frames in order.
type Source struct {
	mu       sync.Mutex
	scenario *Scenario
	next     int
}

// NewSource creates an image source over s.
func NewSource(s *Scenario) *Source {
	return &Source{scenario: s}
}

// Capture returns the next recorded frame.
func (s *Source) Capture(ctx context.Context) (perception.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.next >= len(s.scenario.Frames) {
		if !s.scenario.Loop {
			return nil, ErrExhausted
		}
		s.next = 0
	}

	frame := s.scenario.Frames[s.next]
	s.next++
	if frame.Fail {
		return nil, fmt.Errorf("recorded capture failure at frame %d", s.next-1)
	}
	return &image{frame: frame}, nil
}

// image is a frame, optionally narrowed to one region.
type image struct {
	frame  Frame
	region *perception.Rect
}

// Extension and Encode let archivers save a replay frame as YAML.
func (i *image) Extension() string {
	return ".yaml"
}

func (i *image) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	if err := enc.Encode(i.frame); err != nil {
		return err
	}
	return enc.Close()
}

func (i *image) Crop(r perception.Rect) (perception.Image, error) {
	if r.Empty() {
		return nil, fmt.Errorf("empty crop region %s", r)
	}
	return &image{frame: i.frame, region: &r}, nil
}

// Recognizer answers OCR requests from the recorded frame fields.
type Recognizer struct {
	layout perception.Layout
}

// NewRecognizer creates a recognizer that maps layout regions to frame fields.
func NewRecognizer(layout perception.Layout) *Recognizer {
	return &Recognizer{layout: layout}
}

func (r *Recognizer) Recognize(ctx context.Context, img perception.Image) (string, error) {
	i, ok := img.(*image)
	if !ok || i.region == nil {
		return "", errors.New("replay recognizer needs a cropped replay frame")
	}

	switch *i.region {
	case r.layout.PlayerName:
		return i.frame.PlayerName, nil
	case r.layout.WeaponSlot1:
		return i.frame.Slot1, nil
	case r.layout.WeaponSlot2:
		return i.frame.Slot2, nil
	default:
		return "", fmt.Errorf("no recorded text for region %s", *i.region)
	}
}

func (r *Recognizer) Close() error {
	return nil
}

// Classifier answers icon inference from the recorded frame.
type Classifier struct{}

func (Classifier) Infer(ctx context.Context, img perception.Image) (float32, weapon.Category, error) {
	i, ok := img.(*image)
	if !ok {
		return 0, 0, errors.New("replay classifier needs a replay frame")
	}
	return i.frame.Icon.Probability, i.frame.Icon.Category, nil
}
