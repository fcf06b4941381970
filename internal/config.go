package internal

import (
	"fmt"
	"time"
)

const (
	PresenceMemory = "memory"
	PresenceRedis  = "redis"
)

type Config struct {
	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true"`
	ObjectStoreDir    string        `env:"OBJECT_STORE_DIR,required=true"`
	LogLevel          string        `env:"LOG_LEVEL,default=INFO"`
	Host              string        `env:"HOST,default=localhost"`
	GrpcPort          int           `env:"GRPC_PORT,default=9090"`
	HttpPort          int           `env:"HTTP_PORT,default=8080"`
	JwtSecret         string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	SignedURLTTL      time.Duration `env:"SIGNED_URL_TTL,default=15m"`
	LimitMessages     *int          `env:"LIMIT_MESSAGES"`
	MaxContentLength  int           `env:"MAX_CONTENT_LENGTH,default=4000"`
	CharReplacement   string        `env:"CHARACTER_REPLACEMENT,default=*"`

	BufferSize           int           `env:"BUFFER_SIZE,default=1024"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,default=2s"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=1s"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=30s"`

	PresenceBackend string        `env:"PRESENCE_BACKEND,default=memory"`
	RedisURL        string        `env:"REDIS_URL"`
	TypingTimeout   time.Duration `env:"TYPING_TIMEOUT,default=3s"`
}

// PublicURL is the base of signed object URLs.
func (c Config) PublicURL() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.HttpPort)
}

func (c Config) Limit() int {
	if c.LimitMessages == nil {
		return 0
	}
	return *c.LimitMessages
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
