package cmd

import (
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/remotekit/remotekit/pkg/logger"
	"github.com/remotekit/remotekit/pkg/registry"
	"github.com/remotekit/remotekit/pkg/sshutils"
)

var (
	cfgFile string

	flagHost       string
	flagPort       int
	flagUser       string
	flagPassword   string
	flagKeyPath    string
	flagPassphrase string
)

var rootCmd = &cobra.Command{
	Use:   "remotekit",
	Short: "remotekit runs commands and transfers files over managed SSH sessions",
	Long: `remotekit maintains a bounded pool of authenticated SSH sessions and
executes commands and file operations against them, reclaiming idle
connections automatically.`,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.remotekit.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagHost, "host", "", "remote host")
	rootCmd.PersistentFlags().IntVar(&flagPort, "port", 0, "remote port (default 22)")
	rootCmd.PersistentFlags().StringVar(&flagUser, "user", "", "remote username")
	rootCmd.PersistentFlags().StringVar(&flagPassword, "password", "", "password authentication")
	rootCmd.PersistentFlags().StringVar(&flagKeyPath, "key", "", "private key path")
	rootCmd.PersistentFlags().StringVar(&flagPassphrase, "passphrase", "", "private key passphrase")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err == nil {
			viper.AddConfigPath(home)
			viper.SetConfigName(".remotekit")
			viper.SetConfigType("yaml")
		}
	}

	viper.SetEnvPrefix("REMOTEKIT")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()

	logger.InitLoggerOutputs()
}

// newRegistry builds a registry from viper-backed settings.
func newRegistry() *registry.Registry {
	opts := registry.Options{}
	if viper.IsSet("ssh.max_sessions") {
		opts.MaxSessions = viper.GetInt("ssh.max_sessions")
	}
	if viper.IsSet("ssh.idle_timeout") {
		opts.IdleTimeout = viper.GetDuration("ssh.idle_timeout")
	}
	return registry.New(opts)
}

// credsFromFlags merges connection flags with config-file defaults.
func credsFromFlags() *sshutils.Credentials {
	creds := &sshutils.Credentials{
		Host:           flagHost,
		Port:           flagPort,
		User:           flagUser,
		Password:       flagPassword,
		PrivateKeyPath: flagKeyPath,
		Passphrase:     flagPassphrase,
	}
	if creds.Host == "" {
		creds.Host = viper.GetString("ssh.host")
	}
	if creds.Port == 0 {
		creds.Port = viper.GetInt("ssh.port")
	}
	if creds.User == "" {
		creds.User = viper.GetString("ssh.user")
	}
	if creds.PrivateKeyPath == "" && creds.Password == "" {
		creds.PrivateKeyPath = viper.GetString("ssh.private_key_path")
	}
	return creds
}

func commandTimeout() time.Duration {
	if viper.IsSet("ssh.command_timeout") {
		return viper.GetDuration("ssh.command_timeout")
	}
	return sshutils.DefaultCommandTimeout
}
