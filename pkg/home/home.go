// Package home holds the in-memory smart home device state.
//
// The state lives for one session and is owned by a single orchestration
// path: commands are the only writer, the dashboard reads snapshots. There
// is no persistence; a new process starts from defaults.
package home

import "sync"

// Scene identifies a preset home ambience.
type Scene string

// Known scenes. SceneNone means no scene is active.
const (
	SceneMorning Scene = "morning"
	SceneEvening Scene = "evening"
	SceneParty   Scene = "party"
	SceneNone    Scene = "none"
)

// Snapshot is the full device state at a point in time.
// All fields are always populated; there are no partial snapshots.
type Snapshot struct {
	// Lights is true when the smart lights are on.
	Lights bool `json:"lights"`

	// Temperature is the thermostat target in degrees Fahrenheit.
	Temperature float64 `json:"temperature"`

	// IsLocked is true when the front door lock is engaged.
	IsLocked bool `json:"isLocked"`

	// MusicPlaying is true when the media system is playing.
	MusicPlaying bool `json:"musicPlaying"`

	// ActiveScene is the currently active scene preset.
	ActiveScene Scene `json:"activeScene"`
}

// Default device state for a fresh session.
func defaults() Snapshot {
	return Snapshot{
		Lights:       false,
		Temperature:  72,
		IsLocked:     true,
		MusicPlaying: false,
		ActiveScene:  SceneNone,
	}
}

// State is the mutable session-scoped home state.
// Mutations replace exactly one field; reads return a copy.
type State struct {
	mu sync.RWMutex
	s  Snapshot
}

// NewState creates a State with session defaults:
// lights off, 72°F, door locked, music paused, no scene.
func NewState() *State {
	return &State{s: defaults()}
}

// Snapshot returns a copy of the current device state.
func (st *State) Snapshot() Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.s
}

// SetLights turns the smart lights on or off.
func (st *State) SetLights(on bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.Lights = on
}

// SetTemperature sets the thermostat target in degrees Fahrenheit.
func (st *State) SetTemperature(degrees float64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.Temperature = degrees
}

// SetLocked engages or releases the front door lock.
func (st *State) SetLocked(locked bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.IsLocked = locked
}

// SetMusicPlaying plays or pauses the media system.
func (st *State) SetMusicPlaying(playing bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.MusicPlaying = playing
}

// SetScene activates a scene preset.
func (st *State) SetScene(scene Scene) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.s.ActiveScene = scene
}
