package commands

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds the connection and formatting options a session runs
// with, resolved from flags, OPACLI_* environment variables, and an
// optional config file, in that order of precedence (the same
// viper-driven layering marmos91-dittofs uses for its CLI flags).
type Config struct {
	Host    string
	Port    int
	Indent  string
	Timeout int // seconds; 0 means no deadline
}

// Flags stores the resolved configuration for the running command,
// populated by initConfig via cobra.OnInitialize before any command's
// RunE runs.
var Flags = &Config{}

func bindConfig(v *viper.Viper) {
	v.SetEnvPrefix("OPACLI")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("host", "127.0.0.1")
	v.SetDefault("port", 9876)
	v.SetDefault("indent", "")
	v.SetDefault("timeout", 0)
}

func loadConfig(v *viper.Viper) *Config {
	return &Config{
		Host:    v.GetString("host"),
		Port:    v.GetInt("port"),
		Indent:  v.GetString("indent"),
		Timeout: v.GetInt("timeout"),
	}
}
