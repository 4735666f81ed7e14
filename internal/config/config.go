// Package config loads soltool settings from an optional YAML file and
// SOLTOOL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/maloquacious/soltool/internal/viewmodel"
	"github.com/spf13/viper"
)

// Config holds the settings used by the CLI and the save/load session.
type Config struct {
	DocDir      string // default directory offered by dialogs
	DefaultName string // default file name offered by dialogs
	RootName    string // name of the root item of a new solution
	FileFilter  string
	LogLevel    string
}

// Load reads cfgFile, or $HOME/.config/soltool/config.yaml when cfgFile is
// empty. A missing default file is not an error.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	home, _ := os.UserHomeDir()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(filepath.Join(home, ".config", "soltool"))
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("SOLTOOL")
	v.AutomaticEnv()

	v.SetDefault("doc_dir", home)
	v.SetDefault("default_name", "New Solution")
	v.SetDefault("root_name", "Solution")
	v.SetDefault("file_filter", viewmodel.DefaultFileFilter)
	v.SetDefault("log_level", "info")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return &Config{
		DocDir:      v.GetString("doc_dir"),
		DefaultName: v.GetString("default_name"),
		RootName:    v.GetString("root_name"),
		FileFilter:  v.GetString("file_filter"),
		LogLevel:    v.GetString("log_level"),
	}, nil
}
