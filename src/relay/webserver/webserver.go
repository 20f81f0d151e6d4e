package webserver

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/formgate/formgate/src/relay/config"
	"github.com/formgate/formgate/src/relay/discord"
)

func New(cfg config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	g := gin.New()
	g.Use(gin.Logger(), gin.Recovery())
	attachRoutes(g, cfg, db, rdb)
	return g
}

func attachRoutes(r *gin.Engine, cfg config.Config, db *gorm.DB, rdb *redis.Client) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})

	subH := NewSubmissions(db, rdb, discord.NewClient(0))
	r.POST("/submit/:formId", subH.Submit)
	r.POST("/rpc", subH.SubmitRPC)

	authH := NewAuth(cfg)
	r.POST("/admin/login", authH.Login)

	admin := r.Group("/admin")
	admin.Use(JWTMiddleware([]byte(cfg.JWTSecret)))
	{
		formH := NewForms(db)
		admin.GET("/forms", formH.List)
		admin.POST("/forms", formH.Create)
		admin.GET("/forms/:formId", formH.Get)
		admin.PUT("/forms/:formId", formH.Update)
		admin.DELETE("/forms/:formId", formH.Delete)

		logH := NewLogs(db)
		admin.GET("/logs", logH.List)
		admin.DELETE("/logs", logH.Purge)

		backupH := NewBackup(db)
		admin.GET("/backup", backupH.Export)
		admin.POST("/backup", backupH.Import)
	}
}
