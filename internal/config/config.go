package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

type Config struct {
	App         AppConfig
	Sync        SyncConfig
	Interaction InteractionConfig
	Features    FeatureConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	InstanceID         string
	LogFilePath        string
	SocketLogFilePath  string
	CorsAllowedOrigins string
	NatsURL            string
	NatsDurable        string
	RedisURL           string
	JwtSecret          string
	TickRate           int
}

type SyncConfig struct {
	SocketURL             string
	CacheDir              string
	ManifestURL           string
	ReconcileInterval     time.Duration
	FetchTimeout          time.Duration
	ResourceCacheTTL      time.Duration
	ResourceCacheMaxBytes int
	SpawnDistance         float32
}

type InteractionConfig struct {
	GrabThreshold           float32
	ReleaseThreshold        float32
	HapticIntensity         float32
	HapticDuration          time.Duration
	GrabRange               float32
	ProximityHapticDistance float32
	EyeGazeDistance         float32
	GazeLookahead           float32
	GrabHapticIntensity     float32
	ReleaseHapticIntensity  float32
}

// FeatureConfig mirrors the immersive feature toggles of the viewer.
type FeatureConfig struct {
	GestureRecognition bool
	EyeTracking        bool
	SpatialAudio       bool
	HapticFeedback     bool
	ProximityDetection bool
	ImmersivePhysics   bool
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8080"),
			Environment:        getEnv("GO_ENV", "development"),
			InstanceID:         getEnv("INSTANCE_ID", uuid.NewString()),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/viewer.log"),
			SocketLogFilePath:  getEnv("SOCKET_LOG_FILE_PATH", "logs/scene_socket.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", ""),
			NatsDurable:        getEnv("NATS_DURABLE", "vr-scene-viewer"),
			RedisURL:           getEnv("REDIS_URL", ""),
			JwtSecret:          getEnv("JWT_SECRET", ""),
			TickRate:           getEnvAsInt("TICK_RATE", 60),
		},
		Sync: SyncConfig{
			SocketURL:             getEnv("SOCKET_URL", "ws://localhost:3000"),
			CacheDir:              getEnv("CACHE_DIR", "cache/models"),
			ManifestURL:           getEnv("MANIFEST_URL", ""),
			ReconcileInterval:     getEnvAsDuration("RECONCILE_INTERVAL", 5*time.Second),
			FetchTimeout:          getEnvAsDuration("FETCH_TIMEOUT", 30*time.Second),
			ResourceCacheTTL:      getEnvAsDuration("RESOURCE_CACHE_TTL", 10*time.Minute),
			ResourceCacheMaxBytes: getEnvAsInt("RESOURCE_CACHE_MAX_BYTES", 8*1024*1024),
			SpawnDistance:         getEnvAsFloat("SPAWN_DISTANCE", 1.5),
		},
		Interaction: InteractionConfig{
			GrabThreshold:           getEnvAsFloat("GRAB_THRESHOLD", 0.8),
			ReleaseThreshold:        getEnvAsFloat("RELEASE_THRESHOLD", 0.2),
			HapticIntensity:         getEnvAsFloat("HAPTIC_INTENSITY", 0.5),
			HapticDuration:          getEnvAsDuration("HAPTIC_DURATION", 100*time.Millisecond),
			GrabRange:               getEnvAsFloat("GRAB_RANGE", 1),
			ProximityHapticDistance: getEnvAsFloat("PROXIMITY_HAPTIC_DISTANCE", 2),
			EyeGazeDistance:         getEnvAsFloat("EYE_GAZE_DISTANCE", 5),
			GazeLookahead:           getEnvAsFloat("GAZE_LOOKAHEAD", 5),
			GrabHapticIntensity:     getEnvAsFloat("GRAB_HAPTIC_INTENSITY", 0.7),
			ReleaseHapticIntensity:  getEnvAsFloat("RELEASE_HAPTIC_INTENSITY", 0.3),
		},
		Features: FeatureConfig{
			GestureRecognition: getEnvAsBool("ENABLE_GESTURE_RECOGNITION", true),
			EyeTracking:        getEnvAsBool("ENABLE_EYE_TRACKING", false),
			SpatialAudio:       getEnvAsBool("ENABLE_SPATIAL_AUDIO", true),
			HapticFeedback:     getEnvAsBool("ENABLE_HAPTIC_FEEDBACK", true),
			ProximityDetection: getEnvAsBool("ENABLE_PROXIMITY_DETECTION", true),
			ImmersivePhysics:   getEnvAsBool("ENABLE_IMMERSIVE_PHYSICS", true),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float32) float32 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 32); err == nil {
		return float32(value)
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
