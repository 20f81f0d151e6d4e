package webserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/formgate/formgate/src/relay/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testDBSeq atomic.Int64

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	// cache=shared keys the in-memory database by name, so each call needs a
	// distinct name or two testDB calls in one test share state.
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"), testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&types.Form{}, &types.RelayLog{}, &types.Setting{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type fakeSender struct {
	calls  int
	url    string
	params *discordgo.WebhookParams
	err    error
}

func (f *fakeSender) Execute(ctx context.Context, webhookURL string, params *discordgo.WebhookParams) error {
	f.calls++
	f.url = webhookURL
	f.params = params
	return f.err
}

func submitRouter(db *gorm.DB, sender Sender) *gin.Engine {
	r := gin.New()
	s := NewSubmissions(db, nil, sender)
	r.POST("/submit/:formId", s.Submit)
	r.POST("/rpc", s.SubmitRPC)
	return r
}

func seedForm(t *testing.T, db *gorm.DB, form types.Form) types.Form {
	t.Helper()
	if form.FormID == "" {
		form.FormID = "f1"
	}
	if form.WebhookURL == "" {
		form.WebhookURL = "https://discord.test/webhook"
	}
	if err := db.Create(&form).Error; err != nil {
		t.Fatalf("seed form: %v", err)
	}
	return form
}

func TestSubmitRelaysToWebhook(t *testing.T) {
	db := testDB(t)
	seedForm(t, db, types.Form{FormID: "f1", Mentions: "999999999999999999"})
	sender := &fakeSender{}
	router := submitRouter(db, sender)

	payload := `{"formTitle":"Apply","answers":[{"question_id":"q0","text":"123456789012345678"}]}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/submit/f1", strings.NewReader(payload))
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if sender.calls != 1 {
		t.Fatalf("expected one delivery, got %d", sender.calls)
	}
	if sender.url != "https://discord.test/webhook" {
		t.Fatalf("unexpected webhook url %q", sender.url)
	}
	if sender.params.Content != "<@&999999999999999999> <@123456789012345678>" {
		t.Fatalf("unexpected content %q", sender.params.Content)
	}
	if len(sender.params.Embeds) != 1 || sender.params.Embeds[0].Title != "📋 Apply" {
		t.Fatalf("unexpected embeds %+v", sender.params.Embeds)
	}

	var logs []types.RelayLog
	db.Find(&logs)
	if len(logs) != 1 || logs[0].Status != "ok" {
		t.Fatalf("expected one ok log, got %+v", logs)
	}
}

func TestSubmitUnknownFormIs404(t *testing.T) {
	db := testDB(t)
	sender := &fakeSender{}
	router := submitRouter(db, sender)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/submit/nope", strings.NewReader(`{"answers":[]}`))
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if sender.calls != 0 {
		t.Fatalf("sender must not be called for unknown forms")
	}
}

func TestSubmitAcceptsStringEncodedAnswers(t *testing.T) {
	db := testDB(t)
	seedForm(t, db, types.Form{FormID: "f1"})
	sender := &fakeSender{}
	router := submitRouter(db, sender)

	payload := `{"answers":"[{\"question_id\":\"q0\",\"text\":\"hello\"}]"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/submit/f1", strings.NewReader(payload))
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	fields := sender.params.Embeds[0].Fields
	if len(fields) != 1 || fields[0].Value != "hello" {
		t.Fatalf("unexpected embed fields %+v", fields)
	}
}

func TestSubmitFlatBodyWithoutAnswersKey(t *testing.T) {
	db := testDB(t)
	seedForm(t, db, types.Form{FormID: "f1", DiscordIDFields: "[]"})
	sender := &fakeSender{}
	router := submitRouter(db, sender)

	payload := `{"formId":"f1","name":"Bob","city":"Oslo"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/submit/f1", strings.NewReader(payload))
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	fields := sender.params.Embeds[0].Fields
	if len(fields) != 2 || fields[0].Value != "Bob" || fields[1].Value != "Oslo" {
		t.Fatalf("unexpected embed fields %+v", fields)
	}
}

func TestSubmitDeliveryFailureLogsAndReturns502(t *testing.T) {
	db := testDB(t)
	seedForm(t, db, types.Form{FormID: "f1"})
	sender := &fakeSender{err: fmt.Errorf("webhook returned 404")}
	router := submitRouter(db, sender)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/submit/f1", strings.NewReader(`{"answers":[]}`))
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}

	var logs []types.RelayLog
	db.Find(&logs)
	if len(logs) != 1 || logs[0].Status != "error" {
		t.Fatalf("expected one error log, got %+v", logs)
	}
}

func TestSubmitRPCEnvelope(t *testing.T) {
	db := testDB(t)
	seedForm(t, db, types.Form{FormID: "f1"})
	sender := &fakeSender{}
	router := submitRouter(db, sender)

	payload := `{"jsonrpc":"2.0","method":"submitForm","id":7,
		"params":{"formId":"f1","formTitle":"T","answers":[{"text":"hi"}]}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/rpc", strings.NewReader(payload))
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"result"`) {
		t.Fatalf("expected rpc result, got %s", w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"id":7`) {
		t.Fatalf("rpc id must echo back, got %s", w.Body.String())
	}
	if sender.calls != 1 {
		t.Fatalf("expected one delivery, got %d", sender.calls)
	}
}

func TestSubmitRPCRejectsUnknownMethod(t *testing.T) {
	db := testDB(t)
	sender := &fakeSender{}
	router := submitRouter(db, sender)

	payload := `{"jsonrpc":"2.0","method":"other","id":1,"params":{"formId":"f1"}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/rpc", strings.NewReader(payload))
	router.ServeHTTP(w, req)

	if !strings.Contains(w.Body.String(), "-32601") {
		t.Fatalf("expected method-not-found error, got %s", w.Body.String())
	}
}
