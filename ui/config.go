package ui

// Config contains monitor settings read from the environment.
type Config struct {
	// Lines is how many recent events the monitor keeps on screen.
	Lines int `env:"SPEAKFLOW_UI_LINES" envDefault:"12"`
	// Compact hides the event log and shows only the status panel.
	Compact bool `env:"SPEAKFLOW_UI_COMPACT"`
	// EnableMouse is passed through to the Bubble Tea program.
	EnableMouse bool `env:"SPEAKFLOW_UI_MOUSE"`
}
