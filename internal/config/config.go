package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/grafana/create-plugin/internal/codemods/document"
	"github.com/grafana/create-plugin/internal/fs"
)

const (
	// Exit codes
	ExitSuccess = iota
	ExitGeneralError
	ExitInvalidArguments
	ExitPreconditionFailed
	ExitGitOperationFailed
	ExitConfigurationError
	ExitCodemodFailed
)

const (
	RootConfigPath = ".config/.cprc.json"
	UserConfigPath = ".cprc.json"
	PluginJSONPath = "src/plugin.json"
)

// VersionUnknown is reported when the project has no root config.
const VersionUnknown = "n/a"

const EnvPrefix = "CREATE_PLUGIN"

// FeatureFlags toggles optional template behaviour.
type FeatureFlags struct {
	BundleGrafanaUI bool `mapstructure:"bundleGrafanaUI" json:"bundleGrafanaUI"`
}

// ProjectConfig is the create-plugin configuration of a plugin project: the
// root config written by the tool merged with the optional user config.
type ProjectConfig struct {
	Version  string       `mapstructure:"version"`
	Features FeatureFlags `mapstructure:"features"`
}

// RunConfig carries everything a migration run needs. The CLI builds it
// from flags and the project config.
type RunConfig struct {
	FromVersion         string
	ToVersion           string
	CommitEachMigration bool
	Force               bool
	DryRun              bool
}

// Load reads .config/.cprc.json and merges .cprc.json over it. The version
// always comes from the root config. A project without a root config gets
// VersionUnknown and default features.
func Load(root string) (*ProjectConfig, error) {
	v := viper.New()
	v.SetConfigType("json")
	v.SetDefault("version", VersionUnknown)
	v.SetDefault("features.bundleGrafanaUI", false)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	version := VersionUnknown
	v.SetConfigFile(filepath.Join(root, filepath.FromSlash(RootConfigPath)))
	if err := v.ReadInConfig(); err != nil {
		if !isNotExist(err) {
			return nil, fmt.Errorf("reading %s: %w", RootConfigPath, err)
		}
	} else {
		version = v.GetString("version")
	}

	v.SetConfigFile(filepath.Join(root, UserConfigPath))
	if err := v.MergeInConfig(); err != nil && !isNotExist(err) {
		return nil, fmt.Errorf("reading %s: %w", UserConfigPath, err)
	}

	var cfg ProjectConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Version = version

	return &cfg, nil
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}

// SetRootConfig records version in .config/.cprc.json, keeping every other
// key of the existing file in place.
func SetRootConfig(fsys fs.FS, root, version string) error {
	configPath := filepath.Join(root, filepath.FromSlash(RootConfigPath))

	cfg := document.Mapping()
	if content, err := fsys.ReadFile(configPath); err == nil {
		cfg, err = document.Parse(string(content))
		if err != nil {
			return fmt.Errorf("parsing existing config: %w", err)
		}
		if cfg.Kind != yaml.MappingNode {
			return fmt.Errorf("parsing existing config: %s is not a JSON object", RootConfigPath)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reading existing config: %w", err)
	}

	document.Set(cfg, "version", document.String(version))
	if document.Get(cfg, "features") == nil {
		document.Set(cfg, "features", document.Mapping())
	}

	content, err := document.EncodeJSON(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := fs.WriteFileAtomic(fsys, configPath, []byte(content+"\n")); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}
