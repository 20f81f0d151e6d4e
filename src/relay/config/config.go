package config

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"os"

	"gorm.io/gorm"

	"github.com/formgate/formgate/src/relay/data"
)

type Config struct {
	Port              string
	RedisURL          string
	JWTSecret         string
	AdminPasswordHash string
}

// Load reads configuration from database settings with env fallbacks, the
// DB itself having been opened from env beforehand.
func Load(db *gorm.DB) Config {
	if err := data.LoadSettings(db); err != nil {
		log.Printf("Failed to load settings: %v", err)
	}

	jwtSecret := data.GetSetting("jwt_secret")
	if jwtSecret == "" {
		jwtSecret = os.Getenv("JWT_SECRET")
	}
	if jwtSecret == "" {
		// Random per-process secret: tokens stop working across restarts,
		// which is acceptable for a single-admin panel.
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			log.Fatalf("jwt secret: %v", err)
		}
		jwtSecret = hex.EncodeToString(b)
		log.Printf("JWT_SECRET not set; generated an ephemeral secret")
	}

	adminHash := data.GetSetting("admin_password_hash")
	if adminHash == "" {
		adminHash = os.Getenv("ADMIN_PASSWORD_HASH")
	}
	if adminHash == "" {
		log.Printf("ADMIN_PASSWORD_HASH not set; admin login disabled")
	}

	return Config{
		Port:              getenv("PORT", "8080"),
		RedisURL:          getenv("REDIS_URL", ""),
		JWTSecret:         jwtSecret,
		AdminPasswordHash: adminHash,
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
