/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package config loads the user configuration for csvedit.
//
// The YAML file in the user scope is merged over Defaults, then environment
// variables override individual fields at runtime. The PostgreSQL DSN is a
// secret and never lands in the file: it lives in the OS keyring.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"

	"csvedit/internal/log"
	"csvedit/internal/storage"
)

// DefaultHeaders seed new sheets created without explicit headers.
var DefaultHeaders = []string{
	"Type Parent Requirement", "ID", "Name", "Text",
	"Traced To", "Verified By", "Class", "Story",
}

type EditorConfig struct {
	DefaultHeaders []string `yaml:"default_headers"`
	ViewRows       int      `yaml:"view_rows"`
	ViewWidth      int      `yaml:"view_width"`
	CRLF           bool     `yaml:"crlf"`
	WriteBOM       bool     `yaml:"write_bom"`
	Backups        bool     `yaml:"backups"`
	KeepBackups    int      `yaml:"keep_backups"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type DatabaseConfig struct {
	Table   string `yaml:"table"`
	Replace bool   `yaml:"replace"`
	// DSN is not stored on disk; it lives in the OS keychain.
}

type GeneralConfig struct {
	TelemetryOptIn bool   `yaml:"telemetry_opt_in"`
	Theme          string `yaml:"theme"` // "system" | "light" | "dark"
}

type AppConfig struct {
	ConfigVersion int            `yaml:"config_version"`
	Editor        EditorConfig   `yaml:"editor"`
	Logging       LoggingConfig  `yaml:"logging"`
	Database      DatabaseConfig `yaml:"database"`
	General       GeneralConfig  `yaml:"general"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		Editor: EditorConfig{
			DefaultHeaders: append([]string(nil), DefaultHeaders...),
			ViewRows:       20,
			ViewWidth:      20,
			CRLF:           true,
			Backups:        true,
			KeepBackups:    10,
		},
		Logging:  LoggingConfig{Level: "warn", Format: "console"},
		Database: DatabaseConfig{Table: "sheet"},
		General:  GeneralConfig{Theme: "system"},
	}
}

// Env var names used as overrides.
const (
	EnvConfigFile     = "CSVEDIT_CONFIG"
	EnvPGDSN          = "CSVEDIT_PG_DSN"
	EnvTelemetryOptIn = "CSVEDIT_TELEMETRY_OPT_IN"
	EnvWriteBOM       = "CSVEDIT_WRITE_BOM"
	EnvBackups        = "CSVEDIT_BACKUPS"
)

// Service/keys for OS keyring.
const (
	keyringService = "csvedit"
	keyringDSN     = "pg_dsn"
)

// SecretStore abstracts the keyring so tests can stub it.
type SecretStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error    { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error        { return keyring.Delete(service, key) }

var secrets SecretStore = osKeyring{}

// ConfigPath returns the per-user config file path. CSVEDIT_CONFIG wins when set.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigFile)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "csvedit")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "csvedit")
	default:
		if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
			base = filepath.Join(x, "csvedit")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "csvedit")
		}
	}
	if base == "" || base == "csvedit" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults and merges
// environment overrides. A malformed file is reported as a warning and ignored.
func Load() (AppConfig, error) {
	cfg, path, err := loadFile()
	switch {
	case errors.Is(err, errMalformed):
		log.WithComponent("config").Warn("ignoring malformed config", "path", path, "err", err)
		cfg = Defaults()
	case err != nil:
		return cfg, err
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

var errMalformed = errors.New("malformed config file")

// loadFile returns defaults merged with the config file, without env overrides.
func loadFile() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		// a missing file means defaults
		return cfg, path, nil
	}
	// start from defaults so absent keys keep their default values
	fileCfg := Defaults()
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return cfg, path, fmt.Errorf("%w: %v", errMalformed, err)
	}
	mergeInto(&cfg, &fileCfg)
	return cfg, path, nil
}

var (
	ErrUnknownKey   = errors.New("unknown config key")
	ErrInvalidValue = errors.New("invalid config value")
)

// Keys lists the settings accepted by Set, in file order.
var Keys = []string{
	"editor.default_headers", "editor.view_rows", "editor.view_width", "editor.crlf",
	"editor.write_bom", "editor.backups", "editor.keep_backups",
	"logging.level", "logging.format", "logging.source", "logging.file",
	"database.dsn", "database.table", "database.replace",
	"general.telemetry_opt_in", "general.theme",
}

// Set changes one setting and persists it. "database.dsn" goes to the
// keyring; everything else is written to the config file. Environment
// overrides are not folded into the file.
func Set(key, value string) error {
	if key == "database.dsn" {
		return SetDSN(value)
	}
	cfg, _, err := loadFile()
	if err != nil {
		return err
	}
	if err := cfg.set(key, value); err != nil {
		return err
	}
	return Save(cfg)
}

func (c *AppConfig) set(key, value string) error {
	value = strings.TrimSpace(value)
	var err error
	switch key {
	case "editor.default_headers":
		var hs []string
		for _, h := range strings.Split(value, ",") {
			hs = append(hs, strings.TrimSpace(h))
		}
		c.Editor.DefaultHeaders = hs
	case "editor.view_rows":
		c.Editor.ViewRows, err = positive(value)
	case "editor.view_width":
		c.Editor.ViewWidth, err = positive(value)
	case "editor.crlf":
		c.Editor.CRLF, err = boolValue(value)
	case "editor.write_bom":
		c.Editor.WriteBOM, err = boolValue(value)
	case "editor.backups":
		c.Editor.Backups, err = boolValue(value)
	case "editor.keep_backups":
		c.Editor.KeepBackups, err = positive(value)
	case "logging.level":
		err = oneOf(value, "debug", "info", "warn", "error")
		c.Logging.Level = value
	case "logging.format":
		err = oneOf(value, "console", "json")
		c.Logging.Format = value
	case "logging.source":
		c.Logging.Source, err = boolValue(value)
	case "logging.file":
		c.Logging.File = value
	case "database.table":
		if value == "" {
			err = fmt.Errorf("%w: table name is empty", ErrInvalidValue)
		}
		c.Database.Table = value
	case "database.replace":
		c.Database.Replace, err = boolValue(value)
	case "general.telemetry_opt_in":
		c.General.TelemetryOptIn, err = boolValue(value)
	case "general.theme":
		err = oneOf(value, "system", "light", "dark")
		c.General.Theme = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

func positive(v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%w: want a positive integer, got %q", ErrInvalidValue, v)
	}
	return n, nil
}

func boolValue(v string) (bool, error) {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: want true or false, got %q", ErrInvalidValue, v)
	}
	return b, nil
}

func oneOf(v string, allowed ...string) error {
	for _, a := range allowed {
		if v == a {
			return nil
		}
	}
	return fmt.Errorf("%w: want one of %s, got %q", ErrInvalidValue, strings.Join(allowed, "|"), v)
}

// Save writes the user config YAML.
func Save(cfg AppConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// DSN resolves the PostgreSQL connection string: the explicit value, then
// CSVEDIT_PG_DSN, then the keyring. An empty result is not an error.
func DSN(explicit string) string {
	if s := strings.TrimSpace(explicit); s != "" {
		return s
	}
	if s := strings.TrimSpace(os.Getenv(EnvPGDSN)); s != "" {
		return s
	}
	s, err := secrets.Get(keyringService, keyringDSN)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		log.WithComponent("config").Debug("keyring lookup failed", "err", err)
	}
	return strings.TrimSpace(s)
}

// SetDSN stores dsn in the keyring; an empty dsn removes the entry.
func SetDSN(dsn string) error {
	if strings.TrimSpace(dsn) == "" {
		err := secrets.Delete(keyringService, keyringDSN)
		if errors.Is(err, keyring.ErrNotFound) {
			return nil
		}
		return err
	}
	return secrets.Set(keyringService, keyringDSN, dsn)
}

// SaveOptions maps the editor section onto storage save options.
func (e EditorConfig) SaveOptions() storage.SaveOptions {
	return storage.SaveOptions{CRLF: e.CRLF, BOM: e.WriteBOM, Backup: e.Backups, KeepBackups: e.KeepBackups}
}

// LogOptions maps the logging section onto logger options.
func (l LoggingConfig) LogOptions() log.Options {
	return log.Options{Level: l.Level, Format: l.Format, AddSource: l.Source, File: l.File}
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	// editor
	if len(src.Editor.DefaultHeaders) > 0 {
		dst.Editor.DefaultHeaders = append([]string(nil), src.Editor.DefaultHeaders...)
	}
	if src.Editor.ViewRows > 0 {
		dst.Editor.ViewRows = src.Editor.ViewRows
	}
	if src.Editor.ViewWidth > 0 {
		dst.Editor.ViewWidth = src.Editor.ViewWidth
	}
	dst.Editor.CRLF = src.Editor.CRLF
	dst.Editor.WriteBOM = src.Editor.WriteBOM
	dst.Editor.Backups = src.Editor.Backups
	if src.Editor.KeepBackups > 0 {
		dst.Editor.KeepBackups = src.Editor.KeepBackups
	}
	// logging
	if v := strings.TrimSpace(src.Logging.Level); v != "" {
		dst.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(src.Logging.Format); v != "" {
		dst.Logging.Format = strings.ToLower(v)
	}
	dst.Logging.Source = src.Logging.Source
	if v := strings.TrimSpace(src.Logging.File); v != "" {
		dst.Logging.File = v
	}
	// database
	if v := strings.TrimSpace(src.Database.Table); v != "" {
		dst.Database.Table = v
	}
	dst.Database.Replace = src.Database.Replace
	// general
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	if src.General.Theme != "" {
		dst.General.Theme = src.General.Theme
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v, ok := envBool(EnvTelemetryOptIn); ok {
		cfg.General.TelemetryOptIn = v
	}
	if v, ok := envBool(EnvWriteBOM); ok {
		cfg.Editor.WriteBOM = v
	}
	if v, ok := envBool(EnvBackups); ok {
		cfg.Editor.Backups = v
	}
	// logging overrides share the logger's variables
	if v := strings.TrimSpace(os.Getenv(log.EnvLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(log.EnvFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v, ok := envBool(log.EnvSource); ok {
		cfg.Logging.Source = v
	}
	if v := strings.TrimSpace(os.Getenv(log.EnvFile)); v != "" {
		cfg.Logging.File = v
	}
}

func envBool(name string) (bool, bool) {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(name)))
	if v == "" {
		return false, false
	}
	switch v {
	case "on", "yes":
		return true, true
	case "off", "no":
		return false, true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	names := map[string]string{
		"general.telemetry_opt_in": EnvTelemetryOptIn,
		"editor.write_bom":         EnvWriteBOM,
		"editor.backups":           EnvBackups,
		"logging.level":            log.EnvLevel,
		"logging.format":           log.EnvFormat,
		"logging.source":           log.EnvSource,
		"logging.file":             log.EnvFile,
		"database.dsn":             EnvPGDSN,
	}
	if env, ok := names[key]; ok && os.Getenv(env) != "" {
		return env, true
	}
	return "", false
}
