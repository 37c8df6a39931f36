package config

func Default() Config {
	return Config{
		Terminal:  []string{"xterm"},
		Autostart: [][]string{},
		Helpers: Helpers{
			Move:   "y_move",
			Resize: "y_resize",
		},
		LogDir: "/tmp",
		HTTP:   "",
	}
}

type Config struct {
	// Terminal is launched by Mod4+Return.
	Terminal []string `json:"terminal" yaml:"terminal"`
	// Autostart commands are launched once the window manager is ready.
	Autostart [][]string `json:"autostart" yaml:"autostart"`
	Helpers   Helpers    `json:"helpers" yaml:"helpers"`
	// LogDir holds the per-display diagnostic log.
	LogDir string `json:"log_dir" yaml:"log_dir"`
	// HTTP is the listen address of the introspection API. Empty disables it.
	HTTP string `json:"http" yaml:"http"`
}

// Helpers name the pointer-tracking executables, resolved through PATH.
type Helpers struct {
	Move   string `json:"move" yaml:"move"`
	Resize string `json:"resize" yaml:"resize"`
}

// Normalize fills unset fields with their defaults and drops empty autostart
// entries.
func (c Config) Normalize() Config {
	def := Default()

	if len(c.Terminal) == 0 {
		c.Terminal = def.Terminal
	}
	if c.Helpers.Move == "" {
		c.Helpers.Move = def.Helpers.Move
	}
	if c.Helpers.Resize == "" {
		c.Helpers.Resize = def.Helpers.Resize
	}
	if c.LogDir == "" {
		c.LogDir = def.LogDir
	}

	autostart := make([][]string, 0, len(c.Autostart))
	for _, argv := range c.Autostart {
		if len(argv) > 0 {
			autostart = append(autostart, argv)
		}
	}
	c.Autostart = autostart

	return c
}
