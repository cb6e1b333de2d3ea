// Package commands implements the opacli command tree: a REPL-style
// client for the Opatomic wire protocol, built on cmdparse (C11) and
// client (C10) over a plain TCP connection.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "opacli",
	Short: "Opatomic command-line client",
	Long: `opacli is an interactive command-line client for an Opatomic server.

Each line typed at the prompt is parsed as one request (spec C11's
human command-line syntax: quoted strings, 'binary blobs', [nested
arrays], bareword numbers/reserved words) and sent over the wire; the
server's response is printed in the same syntax.

Use "opacli [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRepl(Flags)
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/opacli/config.yaml)")
	rootCmd.PersistentFlags().String("host", "127.0.0.1", "server host")
	rootCmd.PersistentFlags().Int("port", 9876, "server port")
	rootCmd.PersistentFlags().String("indent", "", "indent string for printed responses (default: compact one-line)")
	rootCmd.PersistentFlags().Int("timeout", 0, "per-read timeout in seconds (0: no deadline)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(sendCmd)

	cobra.OnInitialize(initConfig)
}

func initConfig() {
	v := viper.New()
	bindConfig(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(dir + "/opacli")
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			fmt.Fprintf(os.Stderr, "opacli: warning: %v\n", err)
		}
	}

	_ = v.BindPFlag("host", rootCmd.PersistentFlags().Lookup("host"))
	_ = v.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	_ = v.BindPFlag("indent", rootCmd.PersistentFlags().Lookup("indent"))
	_ = v.BindPFlag("timeout", rootCmd.PersistentFlags().Lookup("timeout"))

	*Flags = *loadConfig(v)
}
