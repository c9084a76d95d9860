package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TAXISTREAM_SINK_KIND", "http")
	t.Setenv("TAXISTREAM_SINK_HTTP_BASE_URL", "http://localhost:8081/ingest")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.FleetSize)
	assert.Equal(t, 15.0, cfg.MaxRadiusKm)
	assert.Equal(t, 120, cfg.TripMinSeconds)
	assert.Equal(t, 900, cfg.TripMaxSeconds)
	assert.Equal(t, time.Second, cfg.Tick())
	assert.Equal(t, 10*time.Second, cfg.RequestCadence())
	assert.Equal(t, uint(6), cfg.BucketPrecision)
	assert.Equal(t, 0.03, cfg.TripStartProbability)
	assert.Equal(t, 0.15, cfg.MoveProbability)
	assert.Equal(t, 60, cfg.HeartbeatSeconds)
	assert.Equal(t, 120, cfg.CooldownSeconds)
	assert.Equal(t, 10*time.Second, cfg.ReportInterval())
	assert.Equal(t, 5*time.Second, cfg.ErrorBackoff())
	assert.Equal(t, "taxirides", cfg.SupplyStream)
	assert.Equal(t, "riderequests", cfg.DemandStream)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TAXISTREAM_SINK_KIND", "redis")
	t.Setenv("TAXISTREAM_SINK_REDIS_ADDR", "localhost:6379")
	t.Setenv("TAXISTREAM_FLEET_SIZE", "25")
	t.Setenv("TAXISTREAM_TICK_SECONDS", "0.5")
	t.Setenv("TAXISTREAM_SEED", "42")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.FleetSize)
	assert.Equal(t, 500*time.Millisecond, cfg.Tick())
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, SinkRedis, cfg.Sink.Kind)
}

func TestLoad_MissingDestinationIsFatal(t *testing.T) {
	t.Setenv("TAXISTREAM_SINK_KIND", "mongo")
	// mongo_uri left unset

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink.mongo_uri")
}

func TestLoad_PlaceholderDestinationIsFatal(t *testing.T) {
	t.Setenv("TAXISTREAM_SINK_KIND", "mqtt")
	t.Setenv("TAXISTREAM_SINK_MQTT_BROKER", "CHANGE_ME")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_MissingKindIsFatal(t *testing.T) {
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sink.kind")
}

func TestLoad_UnknownKindIsFatal(t *testing.T) {
	t.Setenv("TAXISTREAM_SINK_KIND", "kafka")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate_Ranges(t *testing.T) {
	base := func() *Config {
		return &Config{
			FleetSize:             1,
			CenterLat:             40.7128,
			CenterLon:             -74.0060,
			MaxRadiusKm:           15.0,
			TickSeconds:           1,
			TripMinSeconds:        120,
			TripMaxSeconds:        900,
			RequestCadenceSeconds: 10,
			TripStartProbability:  0.03,
			MoveProbability:       0.15,
			BucketPrecision:       6,
			HeartbeatSeconds:      60,
			CooldownSeconds:       120,
			ReportSeconds:         10,
			ErrorBackoffSeconds:   5,
			SupplyStream:          "taxirides",
			DemandStream:          "riderequests",
			Sink:                  Sink{Kind: SinkHTTP, HTTPBaseURL: "http://localhost"},
		}
	}

	cfg := base()
	require.NoError(t, cfg.Validate())

	cfg = base()
	cfg.FleetSize = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.TickSeconds = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.TripMaxSeconds = 60 // below min
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.TripStartProbability = 1.5
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.MoveProbability = -0.1
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.BucketPrecision = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.SupplyStream = ""
	assert.Error(t, cfg.Validate())

	// A polar center degenerates longitude sampling.
	cfg = base()
	cfg.CenterLat = 90
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.CenterLat = -91
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.CenterLon = 181
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.MaxRadiusKm = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.RequestCadenceSeconds = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.HeartbeatSeconds = -1
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.CooldownSeconds = -1
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.ReportSeconds = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.ErrorBackoffSeconds = -1
	assert.Error(t, cfg.Validate())
}
