// Package command maps assistant function invocations onto home state
// mutations.
//
// The dispatcher recognizes four commands. Each one mutates exactly one
// field of the home state and returns a short confirmation string that is
// fed back to the model. Unknown command names mutate nothing and return a
// fixed "not recognized" string; that path is not an error. Malformed or
// missing arguments are rejected with a structured *ArgError before any
// mutation happens.
package command

import (
	"strconv"
	"sync"

	"github.com/omnihome/omnihome/pkg/home"
)

// Command names the dispatcher recognizes.
const (
	ToggleLights   = "toggle_lights"
	SetTemperature = "set_temperature"
	ToggleLock     = "toggle_lock"
	ToggleMusic    = "toggle_music"
)

// NotRecognized is returned for unknown command names.
const NotRecognized = "Command not recognized."

// Dispatcher executes smart home commands against a single home state.
// It holds no state of its own beyond the binding.
type Dispatcher struct {
	state *home.State

	mu    sync.Mutex
	calls []Call
}

// Call records one dispatched invocation, for observability and tests.
type Call struct {
	Name string
	Args map[string]any
}

// NewDispatcher creates a dispatcher bound to the given home state.
func NewDispatcher(state *home.State) *Dispatcher {
	return &Dispatcher{state: state}
}

// Execute runs a named command with the given argument bag.
//
// On success it returns the confirmation string for the model. Unknown
// commands return NotRecognized with a nil error. A non-nil error is always
// an *ArgError and means no mutation was performed.
func (d *Dispatcher) Execute(name string, args map[string]any) (string, error) {
	d.record(name, args)

	switch name {
	case ToggleLights:
		on, err := boolArg(name, args, "state")
		if err != nil {
			return "", err
		}
		d.state.SetLights(on)
		if on {
			return "Lights turned ON.", nil
		}
		return "Lights turned OFF.", nil

	case SetTemperature:
		degrees, err := numberArg(name, args, "temperature")
		if err != nil {
			return "", err
		}
		d.state.SetTemperature(degrees)
		return "Thermostat set to " + formatDegrees(degrees) + " degrees.", nil

	case ToggleLock:
		locked, err := boolArg(name, args, "locked")
		if err != nil {
			return "", err
		}
		d.state.SetLocked(locked)
		if locked {
			return "Front door LOCKED.", nil
		}
		return "Front door UNLOCKED.", nil

	case ToggleMusic:
		playing, err := boolArg(name, args, "playing")
		if err != nil {
			return "", err
		}
		d.state.SetMusicPlaying(playing)
		if playing {
			return "Music playing.", nil
		}
		return "Music paused.", nil

	default:
		return NotRecognized, nil
	}
}

// Calls returns all recorded invocations in dispatch order.
func (d *Dispatcher) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Call, len(d.calls))
	copy(out, d.calls)
	return out
}

func (d *Dispatcher) record(name string, args map[string]any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, Call{Name: name, Args: args})
}

// formatDegrees renders a temperature without a trailing ".0" so whole
// values read as "72 degrees" and fractional values as "71.5 degrees".
func formatDegrees(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
