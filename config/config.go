package config

import (
	"time"

	"safemove/utils"

	"go.mongodb.org/mongo-driver/mongo/options"
)

type DatabaseConfig struct {
	URI             string
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
	DatabaseName    string
	RetryWrites     bool
}

func LoadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URI:             utils.GetEnvAsString("MONGO_URI", "mongodb://localhost:27017"),
		MaxPoolSize:     utils.GetEnvAsUint64("MONGO_MAX_POOL_SIZE", 100),
		MinPoolSize:     utils.GetEnvAsUint64("MONGO_MIN_POOL_SIZE", 10),
		MaxConnIdleTime: time.Duration(utils.GetEnvAsInt("MONGO_MAX_CONN_IDLE_TIME", 60)) * time.Second,
		DatabaseName:    utils.GetEnvAsString("MONGO_DB", "safemove"),
		RetryWrites:     utils.GetEnvAsBool("MONGO_RETRY_WRITES", true),
	}
}

// ClientOptions renders the config as mongo-driver connection options
func (c DatabaseConfig) ClientOptions() *options.ClientOptions {
	return options.Client().
		ApplyURI(c.URI).
		SetMaxPoolSize(c.MaxPoolSize).
		SetMinPoolSize(c.MinPoolSize).
		SetMaxConnIdleTime(c.MaxConnIdleTime).
		SetRetryWrites(c.RetryWrites)
}

type RelayConfig struct {
	// SendBuffer is the per-connection outbound queue depth. Only the latest
	// position matters, so this stays shallow and overflow drops frames.
	SendBuffer     int
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
	MaxMessageSize int64
	TickInterval   time.Duration
}

func LoadRelayConfig() RelayConfig {
	pongWait := utils.GetEnvAsDuration("RELAY_PONG_WAIT", 60*time.Second)
	return RelayConfig{
		SendBuffer:     utils.GetEnvAsInt("RELAY_SEND_BUFFER", 8),
		WriteWait:      utils.GetEnvAsDuration("RELAY_WRITE_WAIT", 10*time.Second),
		PongWait:       pongWait,
		PingPeriod:     (pongWait * 9) / 10,
		MaxMessageSize: int64(utils.GetEnvAsInt("RELAY_MAX_MESSAGE_SIZE", 1024)),
		TickInterval:   utils.GetEnvAsDuration("RELAY_TICK_INTERVAL", time.Second),
	}
}

type TripConfig struct {
	// Planning-time duration controls: hours stepped and clamped before a
	// session is minted
	MinDurationHours  float64
	MaxDurationHours  float64
	DurationStepHours float64
	QRSize            int
}

func LoadTripConfig() TripConfig {
	return TripConfig{
		MinDurationHours:  utils.GetEnvAsFloat("TRIP_MIN_DURATION_HOURS", 0.5),
		MaxDurationHours:  utils.GetEnvAsFloat("TRIP_MAX_DURATION_HOURS", 24),
		DurationStepHours: utils.GetEnvAsFloat("TRIP_DURATION_STEP_HOURS", 0.5),
		QRSize:            utils.GetEnvAsInt("TRIP_QR_SIZE", 256),
	}
}
