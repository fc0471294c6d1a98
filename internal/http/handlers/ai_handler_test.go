package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/devconnect/chat-service/internal/http/middleware"
)

type fakeAssistant struct {
	respondFn  func(sessionID, content string) (string, error)
	suggestFn  func(sessionID string) (string, error)
	resets     []string
	configured bool
	provider   string
	model      string
	lastStatus int
}

func (f *fakeAssistant) Respond(_ context.Context, sessionID, content string) (string, error) {
	if f.respondFn != nil {
		return f.respondFn(sessionID, content)
	}
	return "ответ", nil
}

func (f *fakeAssistant) Suggest(_ context.Context, sessionID string) (string, error) {
	if f.suggestFn != nil {
		return f.suggestFn(sessionID)
	}
	return "подсказка", nil
}

func (f *fakeAssistant) Reset(sessionID string) { f.resets = append(f.resets, sessionID) }
func (f *fakeAssistant) Configured() bool       { return f.configured }
func (f *fakeAssistant) ProviderName() string   { return f.provider }
func (f *fakeAssistant) ModelName() string      { return f.model }
func (f *fakeAssistant) LastErrorStatus() int   { return f.lastStatus }

func newAIRouter(fa *fakeAssistant) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := &AIHandler{Assistant: fa}
	g := r.Group("/", middleware.Identity())
	g.POST("/ai/reply", h.Reply)
	g.POST("/ai/suggest", h.Suggest)
	g.POST("/ai/reset", h.Reset)
	g.GET("/ai/check", h.Check)
	return r
}

func doReq(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "42")
	req.Header.Set("X-Username", "alice")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAIReply(t *testing.T) {
	fa := &fakeAssistant{
		respondFn: func(sessionID, content string) (string, error) {
			if sessionID != "42" {
				t.Errorf("sessionID = %q; want user-derived %q", sessionID, "42")
			}
			return "эхо: " + content, nil
		},
	}
	w := doReq(t, newAIRouter(fa), http.MethodPost, "/ai/reply", `{"message":"привет"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body %s", w.Code, w.Body.String())
	}
	var resp AIReplyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Response != "эхо: привет" {
		t.Errorf("Response = %q", resp.Response)
	}
	if resp.Proactive {
		t.Error("Reply must not be marked proactive")
	}
}

func TestAIReplyRejectsEmptyMessage(t *testing.T) {
	r := newAIRouter(&fakeAssistant{})
	for _, body := range []string{`{}`, `{"message":""}`, `not json`} {
		w := doReq(t, r, http.MethodPost, "/ai/reply", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d; want 400", body, w.Code)
			continue
		}
		var envelope ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if envelope.Code != ErrCodeEmpty {
			t.Errorf("body %q: code = %q; want %q", body, envelope.Code, ErrCodeEmpty)
		}
	}
}

func TestAISuggestMarkedProactive(t *testing.T) {
	w := doReq(t, newAIRouter(&fakeAssistant{}), http.MethodPost, "/ai/suggest", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp AIReplyResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.Proactive || resp.Response != "подсказка" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestAIResetClearsCallerSession(t *testing.T) {
	fa := &fakeAssistant{}
	w := doReq(t, newAIRouter(fa), http.MethodPost, "/ai/reset", "")

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d; want 204", w.Code)
	}
	if len(fa.resets) != 1 || fa.resets[0] != "42" {
		t.Errorf("resets = %v", fa.resets)
	}
}

func TestAICheck(t *testing.T) {
	t.Run("configured", func(t *testing.T) {
		fa := &fakeAssistant{configured: true, provider: "deepseek", model: "deepseek-chat", lastStatus: 429}
		w := doReq(t, newAIRouter(fa), http.MethodGet, "/ai/check", "")

		var resp AICheckResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if !resp.Configured || resp.Provider != "deepseek" || resp.LastErrorStatus != 429 {
			t.Errorf("resp = %+v", resp)
		}
		if resp.Code != "" {
			t.Errorf("Code = %q; want empty when configured", resp.Code)
		}
	})

	t.Run("unconfigured", func(t *testing.T) {
		w := doReq(t, newAIRouter(&fakeAssistant{}), http.MethodGet, "/ai/check", "")

		var resp AICheckResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if resp.Configured || resp.Code != ErrCodeCfgMissing {
			t.Errorf("resp = %+v", resp)
		}
	})
}

func TestIdentityRequired(t *testing.T) {
	r := newAIRouter(&fakeAssistant{})
	for _, id := range []string{"", "0", "abc", "-1"} {
		req := httptest.NewRequest(http.MethodGet, "/ai/check", nil)
		if id != "" {
			req.Header.Set("X-User-ID", id)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("X-User-ID=%q: status = %d; want 401", id, w.Code)
		}
	}
}
