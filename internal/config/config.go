// Package config loads the daemon configuration from the environment, after
// merging an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adhocore/gronx"
	"github.com/joho/godotenv"

	"github.com/muezzin/muezzin/common"
)

const (
	DefaultAddr       = "127.0.0.1:7860"
	DefaultTick       = time.Second
	DefaultUpdateCron = "0 12 * * *"
	DefaultUpdateRepo = "muezzin/muezzin"
	DefaultMQTTTopic  = "muezzin"
	DefaultLogFormat  = "console"
	dbFileName        = "muezzin.db"
	appDirName        = "muezzin"
	maxTick           = 30 * time.Second
)

// Config is the resolved daemon configuration.
type Config struct {
	Addr          string
	DataDir       string
	DBPath        string
	RedisAddr     string
	RedisPassword string
	MQTTBroker    string
	MQTTTopic     string
	ResourcesDir  string
	AudioCmd      string
	IPGeoKey      string
	RPCSecret     string
	CORSOrigins   []string
	LogFormat     string
	Tick          time.Duration
	UpdateCron    string
	UpdateRepo    string
	DesktopNotify bool
	Debug         bool
}

// Load merges envFiles (".env" when none are given; missing files are
// ignored) into the process environment without overriding variables that
// are already set, then reads the configuration.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: loading %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv reads the configuration through getenv.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	dataDir := get(common.DataDirEnv, "")
	if dataDir == "" {
		dataDir = defaultDataDir()
	}

	cfg := &Config{
		Addr:          get(common.AddrEnv, DefaultAddr),
		DataDir:       dataDir,
		DBPath:        get(common.DBEnv, filepath.Join(dataDir, dbFileName)),
		RedisAddr:     get(common.RedisAddrEnv, ""),
		RedisPassword: getenv(common.RedisPasswordEnv),
		MQTTBroker:    get(common.MQTTBrokerEnv, ""),
		MQTTTopic:     get(common.MQTTTopicEnv, DefaultMQTTTopic),
		ResourcesDir:  get(common.ResourcesDirEnv, dataDir),
		AudioCmd:      get(common.AudioCmdEnv, ""),
		IPGeoKey:      get(common.IPGeoKeyEnv, ""),
		RPCSecret:     get(common.RPCSecretEnv, ""),
		CORSOrigins:   splitList(getenv(common.CORSOriginsEnv)),
		LogFormat:     strings.ToLower(get(common.LogFormatEnv, DefaultLogFormat)),
		Tick:          DefaultTick,
		UpdateCron:    get(common.UpdateCronEnv, DefaultUpdateCron),
		UpdateRepo:    get(common.UpdateRepoEnv, DefaultUpdateRepo),
		DesktopNotify: parseBool(get(common.DesktopNotifyEnv, "true"), true),
		Debug:         parseBool(get(common.DebugEnv, "false"), false),
	}

	if v := get(common.TickEnv, ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("config: %s: %w", common.TickEnv, err)
		}
		cfg.Tick = d
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Tick <= 0 || c.Tick > maxTick {
		return fmt.Errorf("config: %s must be in (0, %s], got %s", common.TickEnv, maxTick, c.Tick)
	}
	switch c.LogFormat {
	case "json", "console", "plain":
	default:
		return fmt.Errorf("config: %s must be json, console or plain, got %q", common.LogFormatEnv, c.LogFormat)
	}
	if c.UpdateCron != "off" && !gronx.New().IsValid(c.UpdateCron) {
		return fmt.Errorf("config: %s: invalid cron expression %q", common.UpdateCronEnv, c.UpdateCron)
	}
	if c.UpdateRepo != "" && strings.Count(c.UpdateRepo, "/") != 1 {
		return fmt.Errorf("config: %s must be owner/name, got %q", common.UpdateRepoEnv, c.UpdateRepo)
	}
	return nil
}

// UpdatesEnabled reports whether the periodic update check is scheduled.
func (c *Config) UpdatesEnabled() bool {
	return c.UpdateCron != "off" && c.UpdateRepo != ""
}

// SecretPath is the fallback file holding the RPC bearer token.
func (c *Config) SecretPath() string {
	return filepath.Join(c.DataDir, "rpc.secret")
}

func defaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, appDirName)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "."+appDirName)
	}
	return "." + appDirName
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseBool(s string, def bool) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return def
	}
	return b
}
