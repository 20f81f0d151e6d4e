package webserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/formgate/formgate/src/relay/components/answers"
	"github.com/formgate/formgate/src/relay/components/embeds"
	"github.com/formgate/formgate/src/relay/components/mentions"
	"github.com/formgate/formgate/src/relay/data"
	"github.com/formgate/formgate/src/relay/types"
)

// Sender delivers the final payload to a webhook URL.
type Sender interface {
	Execute(ctx context.Context, webhookURL string, params *discordgo.WebhookParams) error
}

type Submissions struct {
	db     *gorm.DB
	rdb    *redis.Client
	sender Sender
}

func NewSubmissions(db *gorm.DB, rdb *redis.Client, sender Sender) Submissions {
	return Submissions{db: db, rdb: rdb, sender: sender}
}

// envelope tolerates every inbound shape the form provider and its proxies
// emit. Answers stays raw so key order survives until normalization.
type envelope struct {
	FormID     string `json:"formId"`
	FormIDAlt  string `json:"form_id"`
	FormTitle  string `json:"formTitle"`
	FormTitle2 string `json:"form_title"`
	Form       *struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"form"`
	Answers json.RawMessage `json:"answers"`
}

func (e envelope) formID() string {
	switch {
	case e.FormID != "":
		return e.FormID
	case e.FormIDAlt != "":
		return e.FormIDAlt
	case e.Form != nil:
		return e.Form.ID
	}
	return ""
}

func (e envelope) formTitle() string {
	switch {
	case e.FormTitle != "":
		return e.FormTitle
	case e.FormTitle2 != "":
		return e.FormTitle2
	case e.Form != nil:
		return e.Form.Title
	}
	return ""
}

// Submit handles the plain webhook endpoint. The form id comes from the URL
// when present, the envelope otherwise.
func (s Submissions) Submit(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "unreadable body"})
		return
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": "invalid JSON"})
		return
	}

	formID := c.Param("formId")
	if formID == "" {
		formID = env.formID()
	}
	if formID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"err": "missing form id"})
		return
	}

	// With no answers key the whole body may be a flat key/value payload.
	raw := env.Answers
	if len(raw) == 0 {
		raw = body
	}

	form, ok := s.findForm(c, formID)
	if !ok {
		return
	}

	if err := s.relay(c.Request.Context(), form, env.formTitle(), raw); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// SubmitRPC handles the JSON-RPC 2.0 envelope some provider integrations
// send instead of a plain POST.
func (s Submissions) SubmitRPC(c *gin.Context) {
	var req struct {
		Jsonrpc string          `json:"jsonrpc"`
		Method  string          `json:"method"`
		ID      json.RawMessage `json:"id"`
		Params  struct {
			FormID    string          `json:"formId"`
			FormTitle string          `json:"formTitle"`
			Answers   json.RawMessage `json:"answers"`
		} `json:"params"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, rpcError(nil, -32700, "parse error"))
		return
	}
	if req.Method != "submitForm" {
		c.JSON(http.StatusOK, rpcError(req.ID, -32601, "method not found"))
		return
	}
	if req.Params.FormID == "" {
		c.JSON(http.StatusOK, rpcError(req.ID, -32602, "missing formId"))
		return
	}

	var form types.Form
	if err := s.db.First(&form, "form_id = ?", req.Params.FormID).Error; err != nil {
		c.JSON(http.StatusOK, rpcError(req.ID, -32001, "form not found"))
		return
	}

	if err := s.relay(c.Request.Context(), form, req.Params.FormTitle, req.Params.Answers); err != nil {
		c.JSON(http.StatusOK, rpcError(req.ID, -32000, err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"jsonrpc": "2.0", "result": gin.H{"ok": true}, "id": req.ID})
}

func (s Submissions) findForm(c *gin.Context, formID string) (types.Form, bool) {
	var form types.Form
	if err := s.db.First(&form, "form_id = ?", formID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"err": "form not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		}
		return types.Form{}, false
	}
	return form, true
}

// relay runs the normalize → resolve → build → deliver pipeline for one
// submission and records the outcome.
func (s Submissions) relay(ctx context.Context, form types.Form, formTitle string, raw json.RawMessage) error {
	ans := answers.Normalize(raw)
	set, content := mentions.Resolve(form, ans)
	embed := embeds.Build(form, formTitle, ans, mentions.ParseIDFields(form.DiscordIDFields))

	params := &discordgo.WebhookParams{
		Content: content,
		Embeds:  []*discordgo.MessageEmbed{embed},
	}

	if err := s.sender.Execute(ctx, form.WebhookURL, params); err != nil {
		data.WriteLog(s.db, form.FormID, "error", err.Error())
		return err
	}

	data.WriteLog(s.db, form.FormID, "ok",
		fmt.Sprintf("relayed %d answers (%d role, %d user mentions)", len(ans), len(set.RoleIDs), len(set.UserIDs)))

	if err := data.PublishRelay(context.Background(), s.rdb, map[string]interface{}{
		"form_id": form.FormID,
		"answers": len(ans),
		"roles":   len(set.RoleIDs),
		"users":   len(set.UserIDs),
	}); err != nil {
		// event stream is best effort
		log.Printf("publish relay event: %v", err)
	}
	return nil
}

func rpcError(id json.RawMessage, code int, message string) gin.H {
	return gin.H{
		"jsonrpc": "2.0",
		"error":   gin.H{"code": code, "message": message},
		"id":      id,
	}
}
