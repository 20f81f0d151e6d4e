package data

import (
	"log"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/formgate/formgate/src/relay/types"
)

// MustDB opens the config store and runs migrations. The relay ships with
// sqlite so a single binary works out of the box; mysql is available for
// shared deployments.
func MustDB(driver, dsn string) *gorm.DB {
	var dial gorm.Dialector
	switch driver {
	case "mysql":
		dial = mysql.Open(dsn)
	case "sqlite", "":
		dial = sqlite.Open(dsn)
	default:
		log.Fatalf("db: unknown driver %q", driver)
	}

	db, err := gorm.Open(dial, &gorm.Config{})
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := db.AutoMigrate(&types.Form{}, &types.RelayLog{}, &types.Setting{}); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	return db
}

func MustRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	return redis.NewClient(opt)
}
