package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "aware.cfg.json"

// WorldConfig selects and addresses the world service transport.
type WorldConfig struct {
	Transport  string `json:"transport" mapstructure:"transport"`
	URL        string `json:"url" mapstructure:"url"`
	GRPCTarget string `json:"grpcTarget" mapstructure:"grpcTarget"`
}

// StreamConfig holds the reconciler batching and reconnect timings.
type StreamConfig struct {
	BatchInterval        time.Duration
	ReconnectDelay       time.Duration
	MaxReconnectDuration time.Duration
}

// MapConfig holds renderer settings.
type MapConfig struct {
	BaseLayer       string
	SceneMode       string
	SectorMinZoom   float64
	IconSize        int
	SymbolCacheSize int
	Coverage        bool
}

// OTelConfig holds OpenTelemetry settings.
type OTelConfig struct {
	Enabled        bool
	ServiceName    string
	BatchTimeout   time.Duration
	MetricInterval time.Duration
	Endpoint       string
	Insecure       bool
}

// GraylogConfig holds the optional GELF log sink settings.
type GraylogConfig struct {
	Enabled bool
	Address string
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "")

	viper.SetDefault("world.transport", "websocket")
	viper.SetDefault("world.url", "ws://localhost:50051/world")
	viper.SetDefault("world.grpcTarget", "localhost:50051")

	viper.SetDefault("stream.batchInterval", "100ms")
	viper.SetDefault("stream.reconnectDelay", "1s")
	viper.SetDefault("stream.maxReconnectDuration", "60s")

	viper.SetDefault("map.baseLayer", "dark")
	viper.SetDefault("map.sceneMode", "2d")
	viper.SetDefault("map.sectorMinZoom", 14)
	viper.SetDefault("map.iconSize", 28)
	viper.SetDefault("map.symbolCacheSize", 500)
	viper.SetDefault("map.coverage", false)

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "aware")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.metricInterval", "30s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("http.addr", "")
	viper.SetDefault("statusFile", "")
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	setDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// LoadDefaults registers default values without reading a file.
func LoadDefaults() {
	setDefaults()
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetWorldConfig returns the world service transport settings.
func GetWorldConfig() WorldConfig {
	return WorldConfig{
		Transport:  viper.GetString("world.transport"),
		URL:        viper.GetString("world.url"),
		GRPCTarget: viper.GetString("world.grpcTarget"),
	}
}

// GetStreamConfig returns reconciler timings.
func GetStreamConfig() StreamConfig {
	return StreamConfig{
		BatchInterval:        viper.GetDuration("stream.batchInterval"),
		ReconnectDelay:       viper.GetDuration("stream.reconnectDelay"),
		MaxReconnectDuration: viper.GetDuration("stream.maxReconnectDuration"),
	}
}

// GetMapConfig returns renderer settings.
func GetMapConfig() MapConfig {
	return MapConfig{
		BaseLayer:       viper.GetString("map.baseLayer"),
		SceneMode:       viper.GetString("map.sceneMode"),
		SectorMinZoom:   viper.GetFloat64("map.sectorMinZoom"),
		IconSize:        viper.GetInt("map.iconSize"),
		SymbolCacheSize: viper.GetInt("map.symbolCacheSize"),
		Coverage:        viper.GetBool("map.coverage"),
	}
}

// GetOTelConfig returns OpenTelemetry settings.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:        viper.GetBool("otel.enabled"),
		ServiceName:    viper.GetString("otel.serviceName"),
		BatchTimeout:   viper.GetDuration("otel.batchTimeout"),
		MetricInterval: viper.GetDuration("otel.metricInterval"),
		Endpoint:       viper.GetString("otel.endpoint"),
		Insecure:       viper.GetBool("otel.insecure"),
	}
}

// GetGraylogConfig returns the GELF sink settings.
func GetGraylogConfig() GraylogConfig {
	return GraylogConfig{
		Enabled: viper.GetBool("graylog.enabled"),
		Address: viper.GetString("graylog.address"),
	}
}
