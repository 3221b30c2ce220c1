package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// ESPN draft session
	DraftWSURL   string
	DraftAPIBase string
	Season       int
	SWID         string // ESPN session cookie, doubles as our actor id
	ESPNS2       string

	// League setup
	LeaguePath string

	// Frame archive
	ArchivePath      string
	ArchiveMaxFrames int

	// Timing
	HeartbeatTimeout time.Duration
	HealthInterval   time.Duration

	// Dispatch
	ConsumerBuffer int

	// Telemetry
	LogLevel string
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DraftWSURL:   envStr("DRAFT_WS_URL", ""),
		DraftAPIBase: envStr("DRAFT_API_BASE", "https://lm-api-reads.fantasy.espn.com/apis/v3/games/ffl"),
		Season:       envInt("SEASON", time.Now().Year()),
		SWID:         envStr("ESPN_SWID", ""),
		ESPNS2:       envStr("ESPN_S2", ""),

		LeaguePath: envStr("LEAGUE_PATH", "internal/config/league.yaml"),

		ArchivePath:      envStr("ARCHIVE_PATH", "frames.db"),
		ArchiveMaxFrames: envInt("ARCHIVE_MAX_FRAMES", 50000),

		// A healthy draft socket chats constantly (CLOCK ticks every
		// second); 30s of total silence means the connection is dead.
		HeartbeatTimeout: time.Duration(envInt("HEARTBEAT_TIMEOUT_SEC", 30)) * time.Second,
		HealthInterval:   time.Duration(envInt("HEALTH_INTERVAL_SEC", 5)) * time.Second,

		ConsumerBuffer: envInt("CONSUMER_BUFFER", 64),

		LogLevel: envStr("LOG_LEVEL", "info"),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
