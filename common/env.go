// Package common provides shared types and constants used across the muezzin
// daemon and its JSON-RPC clients.
package common

// Environment variable names for configuration.
const (
	// AddrEnv is the listen address of the daemon's HTTP server.
	AddrEnv = "MUEZZIN_ADDR"

	// DataDirEnv overrides the directory holding the database and secrets.
	DataDirEnv = "MUEZZIN_DATA_DIR"

	// DBEnv overrides the SQLite database path.
	DBEnv = "MUEZZIN_DB"

	// RedisAddrEnv selects the Redis settings store when set.
	RedisAddrEnv     = "MUEZZIN_REDIS_ADDR"
	RedisPasswordEnv = "MUEZZIN_REDIS_PASSWORD"

	// MQTTBrokerEnv enables the MQTT notifier when set.
	MQTTBrokerEnv = "MUEZZIN_MQTT_BROKER"
	MQTTTopicEnv  = "MUEZZIN_MQTT_TOPIC"

	// ResourcesDirEnv is the base directory of relative audio paths.
	ResourcesDirEnv = "MUEZZIN_RESOURCES_DIR"
	AudioCmdEnv     = "MUEZZIN_AUDIO_CMD"

	// IPGeoKeyEnv is the ipgeolocation.io API key used at first run.
	IPGeoKeyEnv = "MUEZZIN_IPGEO_KEY"

	// CORSOriginsEnv is a comma-separated list of extra browser origins
	// allowed to call the HTTP API.
	CORSOriginsEnv = "MUEZZIN_CORS_ORIGINS"

	// RPCSecretEnv overrides the bearer token of the JSON-RPC endpoints.
	RPCSecretEnv = "MUEZZIN_RPC_SECRET"

	// LogFormatEnv is "json", "console" or "plain".
	LogFormatEnv = "MUEZZIN_LOG_FORMAT"

	// TickEnv is the watcher polling interval, as a Go duration.
	TickEnv = "MUEZZIN_TICK"

	UpdateCronEnv = "MUEZZIN_UPDATE_CRON"
	UpdateRepoEnv = "MUEZZIN_UPDATE_REPO"

	// DesktopNotifyEnv disables desktop notifications when "0" or "false".
	DesktopNotifyEnv = "MUEZZIN_DESKTOP_NOTIFY"

	// DebugEnv is the environment variable to enable debug logging.
	DebugEnv = "MUEZZIN_DEBUG"
)
