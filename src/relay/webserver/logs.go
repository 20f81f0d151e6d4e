package webserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/formgate/formgate/src/relay/types"
)

type Logs struct {
	db *gorm.DB
}

func NewLogs(db *gorm.DB) Logs {
	return Logs{db: db}
}

func (l Logs) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	q := l.db.Order("created_at desc").Limit(limit)
	if formID := c.Query("form_id"); formID != "" {
		q = q.Where("form_id = ?", formID)
	}

	var logs []types.RelayLog
	if err := q.Find(&logs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, logs)
}

func (l Logs) Purge(c *gin.Context) {
	q := l.db
	if formID := c.Query("form_id"); formID != "" {
		q = q.Where("form_id = ?", formID)
	} else {
		q = q.Where("1 = 1")
	}

	res := q.Delete(&types.RelayLog{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": res.Error.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": res.RowsAffected})
}
