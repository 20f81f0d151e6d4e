package webserver

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"

	"github.com/formgate/formgate/src/relay/types"
)

var colorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

type Forms struct {
	db        *gorm.DB
	sanitizer *bluemonday.Policy
}

func NewForms(db *gorm.DB) Forms {
	// Display strings end up verbatim in Discord embeds; strip any markup.
	return Forms{db: db, sanitizer: bluemonday.StrictPolicy()}
}

type formRequest struct {
	FormID              string `json:"form_id" binding:"required,max=128"`
	FormName            string `json:"form_name" binding:"max=255"`
	WebhookURL          string `json:"webhook_url" binding:"required,url,max=512"`
	Title               string `json:"title" binding:"max=255"`
	Description         string `json:"description" binding:"max=4096"`
	Color               string `json:"color" binding:"max=16"`
	Footer              string `json:"footer" binding:"max=255"`
	Mentions            string `json:"mentions"`
	DiscordIDFields     string `json:"discord_id_fields"`
	ConditionalMentions string `json:"conditional_mentions"`
	QuestionTitles      string `json:"question_titles"`
}

func (f Forms) apply(dst *types.Form, req formRequest) {
	dst.FormID = req.FormID
	dst.FormName = f.sanitizer.Sanitize(req.FormName)
	dst.WebhookURL = req.WebhookURL
	dst.Title = f.sanitizer.Sanitize(req.Title)
	dst.Description = f.sanitizer.Sanitize(req.Description)
	dst.Color = req.Color
	dst.Footer = f.sanitizer.Sanitize(req.Footer)
	dst.Mentions = req.Mentions
	dst.DiscordIDFields = req.DiscordIDFields
	dst.ConditionalMentions = req.ConditionalMentions
	dst.QuestionTitles = req.QuestionTitles
}

func validateFormRequest(req formRequest) string {
	if req.Color != "" && !colorRe.MatchString(req.Color) {
		return "color must be #RRGGBB"
	}
	if !strings.HasPrefix(req.WebhookURL, "https://") {
		return "webhook_url must be https"
	}
	return ""
}

func (f Forms) Create(c *gin.Context) {
	var req formRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	if msg := validateFormRequest(req); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"err": msg})
		return
	}

	var existing types.Form
	if err := f.db.First(&existing, "form_id = ?", req.FormID).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"err": "form already registered"})
		return
	}

	var form types.Form
	f.apply(&form, req)
	if err := f.db.Create(&form).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, form)
}

func (f Forms) List(c *gin.Context) {
	var forms []types.Form
	if err := f.db.Order("form_id asc").Find(&forms).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, forms)
}

func (f Forms) Get(c *gin.Context) {
	var form types.Form
	if err := f.db.First(&form, "form_id = ?", c.Param("formId")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "form not found"})
		return
	}
	c.JSON(http.StatusOK, form)
}

func (f Forms) Update(c *gin.Context) {
	var form types.Form
	if err := f.db.First(&form, "form_id = ?", c.Param("formId")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "form not found"})
		return
	}

	var req formRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	if msg := validateFormRequest(req); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"err": msg})
		return
	}
	req.FormID = form.FormID // identifier is immutable

	f.apply(&form, req)
	if err := f.db.Save(&form).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, form)
}

func (f Forms) Delete(c *gin.Context) {
	res := f.db.Delete(&types.Form{}, "form_id = ?", c.Param("formId"))
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": res.Error.Error()})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"err": "form not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
