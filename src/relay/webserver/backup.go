package webserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/OneOfOne/xxhash"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/formgate/formgate/src/relay/types"
)

type Backup struct {
	db *gorm.DB
}

func NewBackup(db *gorm.DB) Backup {
	return Backup{db: db}
}

// backupFile is the export envelope. Checksum covers the serialized forms
// so a mangled or hand-edited file is rejected on import.
type backupFile struct {
	ID        string       `json:"id"`
	CreatedAt time.Time    `json:"created_at"`
	Checksum  string       `json:"checksum"`
	Forms     []types.Form `json:"forms"`
}

func formsChecksum(forms []types.Form) (string, error) {
	raw, err := json.Marshal(forms)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", xxhash.Checksum64(raw)), nil
}

func (b Backup) Export(c *gin.Context) {
	var forms []types.Form
	if err := b.db.Order("form_id asc").Find(&forms).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	sum, err := formsChecksum(forms)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	c.JSON(http.StatusOK, backupFile{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Checksum:  sum,
		Forms:     forms,
	})
}

func (b Backup) Import(c *gin.Context) {
	var file backupFile
	if err := c.ShouldBindJSON(&file); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	sum, err := formsChecksum(file.Forms)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	if sum != file.Checksum {
		c.JSON(http.StatusBadRequest, gin.H{"err": "checksum mismatch"})
		return
	}

	var created, updated int64
	for _, form := range file.Forms {
		if form.FormID == "" || form.WebhookURL == "" {
			continue
		}

		var existing types.Form
		err := b.db.First(&existing, "form_id = ?", form.FormID).Error
		switch {
		case err == gorm.ErrRecordNotFound:
			form.ID = 0
			if err := b.db.Create(&form).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
				return
			}
			created++
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
			return
		default:
			form.ID = existing.ID
			form.CreatedAt = existing.CreatedAt
			if err := b.db.Save(&form).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
				return
			}
			updated++
		}
	}

	c.JSON(http.StatusOK, gin.H{"created": created, "updated": updated})
}
