package webserver

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/formgate/formgate/src/relay/config"
)

const tokenTTL = 12 * time.Hour

type Auth struct {
	jwtSecret    []byte
	passwordHash string
}

func NewAuth(cfg config.Config) Auth {
	return Auth{jwtSecret: []byte(cfg.JWTSecret), passwordHash: cfg.AdminPasswordHash}
}

func (a Auth) Login(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	if a.passwordHash == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"err": "admin login disabled"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(a.passwordHash), []byte(req.Password)); err != nil {
		log.Printf("Failed admin login from %s", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"err": "invalid password"})
		return
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"role": "admin",
		"jti":  uuid.NewString(),
		"iat":  now.Unix(),
		"exp":  now.Add(tokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}
