package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Placeholder destinations in shipped example configs are treated as unset.
const placeholder = "CHANGE_ME"

// Sink kinds recognized by the loader.
const (
	SinkMongo = "mongo"
	SinkMQTT  = "mqtt"
	SinkRedis = "redis"
	SinkHTTP  = "http"
)

// Config is the full configuration surface of the simulator.
type Config struct {
	FleetSize             int     `mapstructure:"fleet_size"`
	CenterLat             float64 `mapstructure:"center_lat"`
	CenterLon             float64 `mapstructure:"center_lon"`
	MaxRadiusKm           float64 `mapstructure:"max_radius_km"`
	TripMinSeconds        int     `mapstructure:"trip_min_seconds"`
	TripMaxSeconds        int     `mapstructure:"trip_max_seconds"`
	TickSeconds           float64 `mapstructure:"tick_seconds"`
	RequestCadenceSeconds int     `mapstructure:"request_cadence_seconds"`
	BucketPrecision       uint    `mapstructure:"bucket_precision"`
	TripStartProbability  float64 `mapstructure:"trip_start_probability"`
	MoveProbability       float64 `mapstructure:"move_probability"`
	HeartbeatSeconds      int     `mapstructure:"heartbeat_seconds"`
	CooldownSeconds       int     `mapstructure:"cooldown_seconds"`
	ReportSeconds         int     `mapstructure:"report_seconds"`
	ErrorBackoffSeconds   int     `mapstructure:"error_backoff_seconds"`
	Seed                  int64   `mapstructure:"seed"`
	LogLevel              string  `mapstructure:"log_level"`
	SupplyStream          string  `mapstructure:"supply_stream"`
	DemandStream          string  `mapstructure:"demand_stream"`
	Sink                  Sink    `mapstructure:"sink"`
}

// Sink selects the destination and its connection settings. Only the fields
// of the chosen kind are consulted.
type Sink struct {
	Kind            string `mapstructure:"kind"`
	MongoURI        string `mapstructure:"mongo_uri"`
	MongoDatabase   string `mapstructure:"mongo_database"`
	MQTTBroker      string `mapstructure:"mqtt_broker"`
	MQTTClientID    string `mapstructure:"mqtt_client_id"`
	RedisAddr       string `mapstructure:"redis_addr"`
	RedisPassword   string `mapstructure:"redis_password"`
	RedisDB         int    `mapstructure:"redis_db"`
	HTTPBaseURL     string `mapstructure:"http_base_url"`
	HTTPTokenSecret string `mapstructure:"http_token_secret"`
}

// Load reads an optional taxistream.yaml plus TAXISTREAM_* environment
// variables into a validated Config.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("taxistream")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("TAXISTREAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("fleet_size", 100)
	v.SetDefault("center_lat", 40.7128)
	v.SetDefault("center_lon", -74.0060)
	v.SetDefault("max_radius_km", 15.0)
	v.SetDefault("trip_min_seconds", 120)
	v.SetDefault("trip_max_seconds", 900)
	v.SetDefault("tick_seconds", 1.0)
	v.SetDefault("request_cadence_seconds", 10)
	v.SetDefault("bucket_precision", 6)
	v.SetDefault("trip_start_probability", 0.03)
	v.SetDefault("move_probability", 0.15)
	v.SetDefault("heartbeat_seconds", 60)
	v.SetDefault("cooldown_seconds", 120)
	v.SetDefault("report_seconds", 10)
	v.SetDefault("error_backoff_seconds", 5)
	v.SetDefault("seed", 0)
	v.SetDefault("log_level", "info")
	v.SetDefault("supply_stream", "taxirides")
	v.SetDefault("demand_stream", "riderequests")
	v.SetDefault("sink.kind", "")
	v.SetDefault("sink.mongo_uri", "")
	v.SetDefault("sink.mongo_database", "taxistream")
	v.SetDefault("sink.mqtt_broker", "")
	v.SetDefault("sink.mqtt_client_id", "taxistream")
	v.SetDefault("sink.redis_addr", "")
	v.SetDefault("sink.redis_password", "")
	v.SetDefault("sink.redis_db", 0)
	v.SetDefault("sink.http_base_url", "")
	v.SetDefault("sink.http_token_secret", "")
}

// Validate rejects configurations that must not start the loop, in
// particular a missing or placeholder sink destination.
func (c *Config) Validate() error {
	if c.FleetSize <= 0 {
		return fmt.Errorf("fleet_size must be positive, got %d", c.FleetSize)
	}
	if c.TickSeconds <= 0 {
		return fmt.Errorf("tick_seconds must be positive, got %v", c.TickSeconds)
	}
	// |lat| = 90 degenerates the longitude scale at the poles.
	if c.CenterLat <= -90 || c.CenterLat >= 90 {
		return fmt.Errorf("center_lat must be strictly between -90 and 90, got %v", c.CenterLat)
	}
	if c.CenterLon < -180 || c.CenterLon > 180 {
		return fmt.Errorf("center_lon must be within [-180, 180], got %v", c.CenterLon)
	}
	if c.MaxRadiusKm <= 0 {
		return fmt.Errorf("max_radius_km must be positive, got %v", c.MaxRadiusKm)
	}
	if c.RequestCadenceSeconds <= 0 {
		return fmt.Errorf("request_cadence_seconds must be positive, got %d", c.RequestCadenceSeconds)
	}
	if c.HeartbeatSeconds <= 0 {
		return fmt.Errorf("heartbeat_seconds must be positive, got %d", c.HeartbeatSeconds)
	}
	if c.CooldownSeconds < 0 {
		return fmt.Errorf("cooldown_seconds must not be negative, got %d", c.CooldownSeconds)
	}
	if c.ReportSeconds <= 0 {
		return fmt.Errorf("report_seconds must be positive, got %d", c.ReportSeconds)
	}
	if c.ErrorBackoffSeconds < 0 {
		return fmt.Errorf("error_backoff_seconds must not be negative, got %d", c.ErrorBackoffSeconds)
	}
	if c.TripMinSeconds <= 0 || c.TripMaxSeconds < c.TripMinSeconds {
		return fmt.Errorf("invalid trip duration range [%d, %d]", c.TripMinSeconds, c.TripMaxSeconds)
	}
	if c.TripStartProbability < 0 || c.TripStartProbability > 1 {
		return fmt.Errorf("trip_start_probability out of range: %v", c.TripStartProbability)
	}
	if c.MoveProbability < 0 || c.MoveProbability > 1 {
		return fmt.Errorf("move_probability out of range: %v", c.MoveProbability)
	}
	if c.BucketPrecision == 0 || c.BucketPrecision > 12 {
		return fmt.Errorf("bucket_precision out of range: %d", c.BucketPrecision)
	}
	if c.SupplyStream == "" || c.DemandStream == "" {
		return errors.New("supply_stream and demand_stream must be set")
	}
	return c.Sink.validate()
}

func (s *Sink) validate() error {
	switch s.Kind {
	case SinkMongo:
		return requireDestination("sink.mongo_uri", s.MongoURI)
	case SinkMQTT:
		return requireDestination("sink.mqtt_broker", s.MQTTBroker)
	case SinkRedis:
		return requireDestination("sink.redis_addr", s.RedisAddr)
	case SinkHTTP:
		return requireDestination("sink.http_base_url", s.HTTPBaseURL)
	case "":
		return errors.New("sink.kind must be set (mongo, mqtt, redis or http)")
	default:
		return fmt.Errorf("unknown sink kind %q", s.Kind)
	}
}

func requireDestination(key, value string) error {
	if value == "" || value == placeholder {
		return fmt.Errorf("%s must be configured", key)
	}
	return nil
}

// Tick returns the loop cadence as a duration.
func (c *Config) Tick() time.Duration {
	return time.Duration(c.TickSeconds * float64(time.Second))
}

// RequestCadence returns the demand generation interval.
func (c *Config) RequestCadence() time.Duration {
	return time.Duration(c.RequestCadenceSeconds) * time.Second
}

// ReportInterval returns the throughput reporting interval.
func (c *Config) ReportInterval() time.Duration {
	return time.Duration(c.ReportSeconds) * time.Second
}

// ErrorBackoff returns the pause after an unexpected per-tick failure.
func (c *Config) ErrorBackoff() time.Duration {
	return time.Duration(c.ErrorBackoffSeconds) * time.Second
}
