package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/kbukum/getfnative/errors"
)

// FileSystem interface for file operations (useful for testing).
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
	UserConfigDir() (string, error)
}

// RealFileSystem implements FileSystem using actual file operations.
type RealFileSystem struct{}

func (rfs *RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (rfs *RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

func (rfs *RealFileSystem) UserConfigDir() (string, error) {
	return os.UserConfigDir()
}

// Resolver handles finding and resolving config and env files.
type Resolver struct {
	FileSystem FileSystem
}

// ResolvedFiles contains the resolved config and env file paths.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles finds config and env files for an application.
// Returns explicit paths if provided, otherwise searches for them.
func (cr *Resolver) ResolveFiles(appName string, opts LoaderConfig) ResolvedFiles {
	resolved := ResolvedFiles{
		ConfigFile: opts.ConfigFile,
		EnvFile:    opts.EnvFile,
	}

	if resolved.ConfigFile == "" {
		resolved.ConfigFile = cr.findConfigFile(appName)
	}
	if resolved.EnvFile == "" {
		resolved.EnvFile = cr.findEnvFile(appName)
	}

	return resolved
}

// findConfigFile searches the working directory, then the user config dir.
func (cr *Resolver) findConfigFile(appName string) string {
	searchPaths := []string{
		fmt.Sprintf("./%s.yml", appName),
		fmt.Sprintf("./%s.yaml", appName),
		"./config.yml",
		"./config.yaml",
	}
	searchPaths = append(searchPaths, cr.userPaths(appName, "config.yml", "config.yaml")...)

	for _, path := range searchPaths {
		if cr.FileSystem.Exists(path) {
			return path
		}
	}
	return ""
}

// findEnvFile searches for .env files in the same locations.
func (cr *Resolver) findEnvFile(appName string) string {
	searchPaths := []string{
		fmt.Sprintf("./.env.%s", appName),
		"./.env",
	}
	searchPaths = append(searchPaths, cr.userPaths(appName, ".env")...)

	for _, path := range searchPaths {
		if cr.FileSystem.Exists(path) {
			return path
		}
	}
	return ""
}

func (cr *Resolver) userPaths(appName string, names ...string) []string {
	dir, err := cr.FileSystem.UserConfigDir()
	if err != nil || dir == "" {
		return nil
	}
	paths := make([]string, len(names))
	for i, name := range names {
		paths[i] = filepath.Join(dir, appName, name)
	}
	return paths
}

// LoaderConfig holds dependencies and optional file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string // Direct config file path (optional)
	EnvFile    string // Direct env file path (optional)
	// EnvPrefix selects the environment variables that override the
	// config. Defaults to the upper-cased application name.
	EnvPrefix string
	Defaults  map[string]any
	Flags     *pflag.FlagSet
	// FlagKeys maps flag names to configuration keys.
	FlagKeys map[string]string
}

// LoaderOption is a functional option for Load.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path. Unlike a discovered
// file, an explicit one must exist.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithEnvPrefix overrides the environment variable prefix.
func WithEnvPrefix(prefix string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvPrefix = prefix }
}

// WithDefaults sets the lowest-precedence values, keyed by config path.
func WithDefaults(defaults map[string]any) LoaderOption {
	return func(lc *LoaderConfig) { lc.Defaults = defaults }
}

// WithFlags binds command-line flags. A flag overrides every other source
// when it was set explicitly.
func WithFlags(fs *pflag.FlagSet, keys map[string]string) LoaderOption {
	return func(lc *LoaderConfig) {
		lc.Flags = fs
		lc.FlagKeys = keys
	}
}

// Load loads configuration for an application into cfg. Precedence, from
// lowest: defaults, config file, .env file and environment, explicit flags.
func Load(appName string, cfg any, opts ...LoaderOption) error {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = &RealFileSystem{}
	}
	if lc.EnvPrefix == "" {
		lc.EnvPrefix = strings.ToUpper(strings.ReplaceAll(appName, "-", "_"))
	}

	if lc.ConfigFile != "" && !lc.FileSystem.Exists(lc.ConfigFile) {
		return errors.InvalidConfig("config", "config file not found: "+lc.ConfigFile)
	}

	resolver := &Resolver{FileSystem: lc.FileSystem}
	files := resolver.ResolveFiles(appName, lc)

	return loadFromResolvedFiles(appName, cfg, files, lc)
}

// loadFromResolvedFiles loads configuration from specific files.
func loadFromResolvedFiles(appName string, cfg any, files ResolvedFiles, lc LoaderConfig) error {
	v := viper.New()

	for key, val := range lc.Defaults {
		v.SetDefault(key, val)
	}

	// 1. Load YAML config first (base configuration)
	if files.ConfigFile != "" && lc.FileSystem.Exists(files.ConfigFile) {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return errors.InvalidConfig("config", "cannot read config file "+files.ConfigFile).WithCause(err)
		}
	}

	// 2. Load .env so its variables are visible to the env bindings
	if files.EnvFile != "" && lc.FileSystem.Exists(files.EnvFile) {
		if err := lc.FileSystem.LoadEnv(files.EnvFile); err != nil {
			return errors.InvalidConfig("config", "cannot read env file "+files.EnvFile).WithCause(err)
		}
	}

	// 3. Bind prefixed environment variables
	if err := bindEnvVars(v, lc.EnvPrefix); err != nil {
		return err
	}

	// 4. Bind flags
	for name, key := range lc.FlagKeys {
		flag := lc.Flags.Lookup(name)
		if flag == nil {
			return errors.InvalidConfig(key, fmt.Sprintf("flag --%s is not defined", name))
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return errors.InvalidConfig(key, err.Error()).WithCause(err)
		}
	}

	// 5. Unmarshal into config struct
	if err := v.Unmarshal(cfg, decodeHooks); err != nil {
		return errors.InvalidConfig("config", fmt.Sprintf("failed to unmarshal config for %s", appName)).WithCause(err)
	}

	return nil
}

// bindEnvVars binds every PREFIX_* environment variable to the config
// keys it may spell, leaving precedence to viper.
func bindEnvVars(v *viper.Viper, prefix string) error {
	prefix += "_"
	for _, env := range os.Environ() {
		name, _, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(name, prefix) {
			continue
		}
		for _, key := range generateEnvKeyVariants(strings.TrimPrefix(name, prefix)) {
			if err := v.BindEnv(key, name); err != nil {
				return errors.InvalidConfig(key, err.Error()).WithCause(err)
			}
		}
	}
	return nil
}

// generateEnvKeyVariants creates all possible key variants for environment variable binding.
// Examples:
//
//	ENGINE_MAX_CONCURRENT -> [engine_max_concurrent, engine.max.concurrent, engine.max_concurrent, engine_max.concurrent]
//	DESCALE_CROP_TOP      -> [descale_crop_top, descale.crop.top, descale.crop_top, descale_crop.top]
func generateEnvKeyVariants(envKey string) []string {
	lowerKey := strings.ToLower(envKey)
	parts := strings.Split(lowerKey, "_")

	if len(parts) <= 1 {
		return []string{lowerKey}
	}

	variants := []string{
		lowerKey,
		strings.ReplaceAll(lowerKey, "_", "."),
	}

	// Section prefix with an underscored leaf
	for i := 1; i < len(parts); i++ {
		prefix := strings.Join(parts[:i], ".")
		suffix := strings.Join(parts[i:], "_")
		variants = append(variants, prefix+"."+suffix)
	}

	// Underscored section with a dotted leaf
	if len(parts) >= 3 {
		prefix := strings.Join(parts[:len(parts)-1], "_")
		variants = append(variants, prefix+"."+parts[len(parts)-1])
	}

	return removeDuplicates(variants)
}

// removeDuplicates removes duplicate strings from a slice.
func removeDuplicates(items []string) []string {
	seen := make(map[string]bool, len(items))
	result := make([]string, 0, len(items))

	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}

	return result
}
