package assistant

import (
	"github.com/omnihome/omnihome/pkg/command"
	"github.com/omnihome/omnihome/pkg/inference"
)

// Tools returns the smart home function declarations offered to the model
// on the first request of each exchange.
func Tools() []inference.Tool {
	return []inference.Tool{
		{
			Name:        command.ToggleLights,
			Description: "Turn the smart lights on or off.",
			Parameters: map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"state": map[string]any{
						"type":        "BOOLEAN",
						"description": "True for ON, False for OFF.",
					},
				},
				"required": []string{"state"},
			},
		},
		{
			Name:        command.SetTemperature,
			Description: "Set the thermostat temperature in degrees Fahrenheit.",
			Parameters: map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"temperature": map[string]any{
						"type":        "NUMBER",
						"description": "The target temperature.",
					},
				},
				"required": []string{"temperature"},
			},
		},
		{
			Name:        command.ToggleLock,
			Description: "Lock or unlock the front door security system.",
			Parameters: map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"locked": map[string]any{
						"type":        "BOOLEAN",
						"description": "True to LOCK, False to UNLOCK.",
					},
				},
				"required": []string{"locked"},
			},
		},
		{
			Name:        command.ToggleMusic,
			Description: "Play or pause the music system.",
			Parameters: map[string]any{
				"type": "OBJECT",
				"properties": map[string]any{
					"playing": map[string]any{
						"type":        "BOOLEAN",
						"description": "True to PLAY, False to PAUSE.",
					},
				},
				"required": []string{"playing"},
			},
		},
	}
}
