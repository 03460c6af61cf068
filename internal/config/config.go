// Package config defines the CLI surface shared by all padlink commands.
package config

import "github.com/padlink/padlink/internal/cmd"

// LogConfig holds the logging flags shared by every command.
type LogConfig struct {
	Level   string `help:"Log level" enum:"trace,debug,info,warn,error" default:"info" env:"PADLINK_LOG_LEVEL"`
	File    string `help:"Log file path (stdout/stderr when empty)" env:"PADLINK_LOG_FILE"`
	RawFile string `help:"Raw wire traffic dump file" env:"PADLINK_LOG_RAW_FILE"`
}

// CLI is the root kong command tree.
type CLI struct {
	Log    LogConfig `embed:"" prefix:"log."`
	Config string    `help:"Path to a configuration file" env:"PADLINK_CONFIG"`

	Node      cmd.Node          `cmd:"" help:"Run a bridge node" default:"withargs"`
	ConfigCmd cmd.ConfigCommand `cmd:"" name:"config" help:"Configuration utilities"`
}
