package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/kbukum/forge/logger"
)

// EnvPrefix marks the environment variables that override settings.
const EnvPrefix = "FORGE_"

// Resolver finds config and env files.
type Resolver struct {
	FS afero.Fs
}

// ResolvedFiles contains the resolved config and env file paths. Empty
// means not found.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles returns the explicit paths in opts, searching for whichever
// is missing.
func (r *Resolver) ResolveFiles(name string, opts LoaderConfig) ResolvedFiles {
	resolved := ResolvedFiles{
		ConfigFile: opts.ConfigFile,
		EnvFile:    opts.EnvFile,
	}
	if resolved.ConfigFile == "" {
		resolved.ConfigFile = r.first(
			fmt.Sprintf("./%s.yml", name),
			fmt.Sprintf("./%s.yaml", name),
			fmt.Sprintf("./config/%s.yml", name),
			fmt.Sprintf("../%s.yml", name),
		)
	}
	if resolved.EnvFile == "" {
		resolved.EnvFile = r.first(
			fmt.Sprintf("./.env.%s", name),
			"./.env",
			fmt.Sprintf("../.env.%s", name),
			"../.env",
		)
	}
	return resolved
}

func (r *Resolver) first(paths ...string) string {
	for _, p := range paths {
		if r.exists(p) {
			return p
		}
	}
	return ""
}

func (r *Resolver) exists(path string) bool {
	ok, err := afero.Exists(r.FS, path)
	return err == nil && ok
}

// LoaderConfig holds the filesystem and optional file overrides.
type LoaderConfig struct {
	FS         afero.Fs
	ConfigFile string
	EnvFile    string
	// Environ replaces os.Environ as the source of overrides.
	Environ []string
}

// LoaderOption is a functional option for LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFS reads config and env files from fs instead of the OS.
func WithFS(fs afero.Fs) LoaderOption {
	return func(lc *LoaderConfig) { lc.FS = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithEnviron sets the KEY=value pairs used instead of the process
// environment.
func WithEnviron(environ []string) LoaderOption {
	return func(lc *LoaderConfig) { lc.Environ = environ }
}

// LoadConfig loads settings named name into cfg. A missing or unreadable
// file is logged and skipped; only decoding into cfg can fail.
func LoadConfig(name string, cfg interface{}, opts ...LoaderOption) error {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FS == nil {
		lc.FS = afero.NewOsFs()
	}
	if lc.Environ == nil {
		lc.Environ = os.Environ()
	}

	resolver := &Resolver{FS: lc.FS}
	files := resolver.ResolveFiles(name, lc)
	log := logger.Get("config")

	v := viper.New()
	v.SetFs(lc.FS)

	if files.ConfigFile != "" && resolver.exists(files.ConfigFile) {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			log.Warn("failed to load config file", logger.Fields(logger.FieldPath, files.ConfigFile, logger.FieldError, err.Error()))
		}
	}

	overrides := make(map[string]string)
	if files.EnvFile != "" && resolver.exists(files.EnvFile) {
		env, err := readEnvFile(lc.FS, files.EnvFile)
		if err != nil {
			log.Warn("failed to load .env file", logger.Fields(logger.FieldPath, files.EnvFile, logger.FieldError, err.Error()))
		}
		for k, val := range env {
			overrides[k] = val
		}
	}
	for _, kv := range lc.Environ {
		if k, val, ok := strings.Cut(kv, "="); ok {
			overrides[k] = val
		}
	}
	bindOverrides(v, overrides)

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config %s: %w", name, err)
	}
	return nil
}

func readEnvFile(fs afero.Fs, path string) (map[string]string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return godotenv.Parse(f)
}

// bindOverrides sets every FORGE_ variable under all the nested key forms
// it may stand for.
func bindOverrides(v *viper.Viper, env map[string]string) {
	for key, value := range env {
		if !strings.HasPrefix(key, EnvPrefix) {
			continue
		}
		for _, variant := range generateEnvKeyVariants(strings.TrimPrefix(key, EnvPrefix)) {
			v.Set(variant, value)
		}
	}
}

// generateEnvKeyVariants returns the nested keys an environment variable
// name may stand for:
//
//	BUILD_MAX_CONCURRENT -> [build_max_concurrent, build.max.concurrent, build.max_concurrent, build_max.concurrent]
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
	for i := 1; i < len(parts); i++ {
		prefix := strings.Join(parts[:i], ".")
		suffix := strings.Join(parts[i:], "_")
		variants = append(variants, prefix+"."+suffix)
	}
	if len(parts) >= 3 {
		prefix := strings.Join(parts[:len(parts)-1], "_")
		variants = append(variants, prefix+"."+parts[len(parts)-1])
	}
	return removeDuplicates(variants)
}

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
