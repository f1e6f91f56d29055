package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/kkyr/fig"
	"github.com/spf13/pflag"
)

const EnvPrefix = "FRAMEFADE"

// LoadConfig loads a configuration file into the given struct.
// The path param specifies a custom directory of the config.yaml file.
// Variables from an optional .env file and the environment with the
// prefix FRAMEFADE_ override file values.
func LoadConfig(config any, path string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	dirs := []string{path}
	if path == "" {
		dirs = append(dirs, ".", "configs")
		if home, err := os.UserHomeDir(); err == nil {
			dirs = append(dirs, home+"/.framefade")
		}
	}
	err := fig.Load(config, fig.Dirs(dirs...), fig.UseEnv(EnvPrefix))
	if errors.Is(err, fig.ErrFileNotFound) {
		return LoadConfigEnv(config)
	}
	return err
}

func LoadConfigEnv(config any) error {
	return fig.Load(config, fig.IgnoreFile(), fig.UseEnv(EnvPrefix))
}

// Load builds the config for a binary: file and env first, then any
// command line flags registered by with.
func Load(name string, args []string, with func(*Config, *pflag.FlagSet)) (*Config, error) {
	var path string
	pre := pflag.NewFlagSet(name, pflag.ContinueOnError)
	pre.ParseErrorsWhitelist.UnknownFlags = true
	pre.Usage = func() {}
	pre.StringVarP(&path, "conf", "c", "", "Set custom configuration file path")
	_ = pre.Parse(args)

	var conf Config
	if err := LoadConfig(&conf, path); err != nil {
		return nil, err
	}

	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringVarP(&path, "conf", "c", path, "Set custom configuration file path")
	conf.Log.WithFlags(fs)
	conf.Monitoring.WithFlags(fs)
	if with != nil {
		with(&conf, fs)
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	conf.EnsureIDs()
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}
