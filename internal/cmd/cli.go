// Package cmd defines the CLI command tree.
package cmd

// LogConfig holds the logging flags shared by all commands.
type LogConfig struct {
	Level   string `help:"Log level: trace, debug, info, warn, error" default:"info" env:"HECATE_LOG_LEVEL"`
	File    string `help:"Also write logs to this file" env:"HECATE_LOG_FILE"`
	RawFile string `help:"Write a hex dump of PS/2 wire traffic to this file" env:"HECATE_LOG_RAW_FILE"`
}

// CLI is the root kong command structure.
type CLI struct {
	Log    LogConfig `embed:"" prefix:"log."`
	Config string    `help:"Path to a configuration file (JSON, YAML or TOML)" env:"HECATE_CONFIG"`

	Bridge    Bridge        `cmd:"" help:"Run the HID to PS/2 converter"`
	ConfigCmd ConfigCommand `cmd:"" name:"config" help:"Configuration file utilities"`
	Install   Install       `cmd:"" help:"Install the bridge as a system service"`
	Uninstall Uninstall     `cmd:"" help:"Remove the installed system service"`
}
