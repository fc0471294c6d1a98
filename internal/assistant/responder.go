// Package assistant orchestrates one assistant turn: pacing gate, small-talk
// short circuit, provider call with assembled context, layered fallbacks,
// contextual site suggestions, and the bounded history commit. Provider
// failures never reach the user as errors; the fallback ladder always yields
// a textual reply.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/devconnect/chat-service/internal/ai"
	"github.com/devconnect/chat-service/internal/history"
)

// ErrEmptyInput is returned when the user content is blank.
var ErrEmptyInput = errors.New("assistant: empty input")

// Responder runs the reply pipeline for the dedicated assistant chat.
//
// Provider may be nil (no credentials resolved); every path then lands on the
// rule-based fallbacks. All exported fields are set once at construction and
// never mutated afterwards.
type Responder struct {
	History  *history.Store
	Provider ai.Provider // nil when not configured
	Opts     ai.Options

	// MinInterval is the pacing window between provider calls per session;
	// 0 disables the gate. The window is anchored to the last provider
	// call, so waiting it out always recovers the session.
	MinInterval time.Duration

	// KnowledgePath points at the optional site-knowledge markdown file.
	KnowledgePath string

	// RouteMap supplies the capped route summary for the system context.
	// Wired by the HTTP layer after routes are registered; may be nil.
	RouteMap func() string

	kbState

	mu         sync.Mutex
	rng        *rand.Rand
	lastStatus int
	lastCall   map[string]time.Time

	// now is the clock used by the pacing gate; injectable in tests.
	now func() time.Time
}

// New constructs a Responder. A nil rng seeds one from the wall clock;
// tests inject a fixed seed for deterministic variant picks.
func New(hist *history.Store, provider ai.Provider, opts ai.Options, rng *rand.Rand) *Responder {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Responder{
		History:  hist,
		Provider: provider,
		Opts:     opts,
		rng:      rng,
		lastCall: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Configured reports whether a provider resolved at startup.
func (r *Responder) Configured() bool { return r.Provider != nil }

// ProviderName returns the active provider variant, or "".
func (r *Responder) ProviderName() string {
	if r.Provider == nil {
		return ""
	}
	return r.Provider.Name()
}

// ModelName returns the active model/deployment identifier, or "".
func (r *Responder) ModelName() string {
	if r.Provider == nil {
		return ""
	}
	return r.Provider.Model()
}

// LastErrorStatus returns the HTTP status of the most recent provider
// failure, or 0. Surfaced by the diagnostics endpoint.
func (r *Responder) LastErrorStatus() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastStatus
}

// pick returns a random index below n.
func (r *Responder) pick(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(n)
}

// gate reports whether the session is still inside the pacing window after
// its last provider call, and how long remains. Gated attempts do not extend
// the window: only markCall advances it, so a hammering user recovers as soon
// as MinInterval elapses from the last real provider call.
func (r *Responder) gate(sessionID string) (time.Duration, bool) {
	if r.MinInterval <= 0 {
		return 0, false
	}
	r.mu.Lock()
	last, ok := r.lastCall[sessionID]
	r.mu.Unlock()
	if !ok {
		return 0, false
	}
	elapsed := r.now().Sub(last)
	if elapsed >= r.MinInterval {
		return 0, false
	}
	return r.MinInterval - elapsed, true
}

// markCall stamps the session's last provider call. Called on the provider
// path only; small-talk and fallback turns never consume the window.
func (r *Responder) markCall(sessionID string) {
	r.mu.Lock()
	r.lastCall[sessionID] = r.now()
	r.mu.Unlock()
}

func (r *Responder) setLastStatus(status int) {
	r.mu.Lock()
	r.lastStatus = status
	r.mu.Unlock()
}

// Respond runs the full pipeline for one user turn and returns the reply.
// The only error is ErrEmptyInput; everything else degrades to fallback text.
func (r *Responder) Respond(ctx context.Context, sessionID, content string) (string, error) {
	tr := otel.Tracer("assistant/Responder")
	ctx, span := tr.Start(ctx, "Respond",
		trace.WithAttributes(attribute.String("session.id", sessionID)),
	)
	defer span.End()

	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrEmptyInput
	}

	// 1. Pacing gate: canned wait reply with the remaining time, history
	// untouched.
	if remaining, gated := r.gate(sessionID); gated {
		secs := int(remaining.Seconds()) + 1
		return fmt.Sprintf("Похоже, запросов слишком много. Подождите %d сек и попробуйте снова.", secs), nil
	}

	// 2. Small-talk short circuit: no provider, but history still advances.
	if st, ok := r.smallTalk(content); ok {
		r.History.Append(sessionID, ai.User(content))
		lastAssistant := r.History.LastAssistant(sessionID)
		reply := appendSuggestions(st, content, lastAssistant)
		r.History.Append(sessionID, ai.Assistant(reply))
		return reply, nil
	}

	// 3. Provider path. The user turn joins history before the call so the
	// provider sees it as the latest exchange.
	r.History.Append(sessionID, ai.User(content))
	lastAssistant := r.History.LastAssistant(sessionID)

	status := 0
	if r.Provider != nil {
		msgs := append(r.systemMessages(), fewShots()...)
		msgs = append(msgs, r.History.Get(sessionID)...)

		r.markCall(sessionID)
		text, err := r.Provider.Complete(ctx, msgs, r.Opts)
		if err == nil && strings.TrimSpace(text) != "" {
			reply := appendSuggestions(strings.TrimSpace(text), content+" "+text, lastAssistant)
			r.History.Append(sessionID, ai.Assistant(reply))
			return reply, nil
		}
		if err != nil {
			status = ai.StatusCode(err)
			r.setLastStatus(status)
		}
	}

	// 4. Rule-based fallback: keyword tips, then guidance keyed by this
	// turn's provider error status only.
	local, matched := keywordReply(content)
	if !matched {
		local = errorFallback(status)
	}
	reply := appendSuggestions(local, content, lastAssistant)
	r.History.Append(sessionID, ai.Assistant(reply))
	return reply, nil
}

// Suggest proactively produces the assistant's next helpful move based on the
// session history alone. When the generated text duplicates the previous
// assistant turn (trimmed, case-insensitive) it retries once with a stronger
// anti-repeat instruction; without a provider it rotates canned variants so
// two consecutive calls never return identical text.
func (r *Responder) Suggest(ctx context.Context, sessionID string) (string, error) {
	tr := otel.Tracer("assistant/Responder")
	ctx, span := tr.Start(ctx, "Suggest",
		trace.WithAttributes(attribute.String("session.id", sessionID)),
	)
	defer span.End()

	if _, gated := r.gate(sessionID); gated {
		return "Секунду… Давайте не слишком часто запрашивать подсказки, чтобы не упереться в лимиты.", nil
	}

	lastAssistant := strings.TrimSpace(r.History.LastAssistant(sessionID))
	equalsLast := func(text string) bool {
		return lastAssistant != "" &&
			strings.EqualFold(strings.TrimSpace(text), lastAssistant)
	}

	var text string
	if r.Provider != nil {
		msgs := append(r.systemMessages(), fewShots()...)
		msgs = append(msgs, r.History.Get(sessionID)...)
		msgs = append(msgs, ai.User(proactiveGuide))

		r.markCall(sessionID)
		got, err := r.Provider.Complete(ctx, msgs, r.Opts)
		if err == nil {
			text = strings.TrimSpace(got)
		} else {
			r.setLastStatus(ai.StatusCode(err))
		}

		if text != "" && equalsLast(text) {
			retry := append(msgs, ai.User(antiRepeatGuide))
			if got, err := r.Provider.Complete(ctx, retry, r.Opts); err == nil && strings.TrimSpace(got) != "" {
				text = strings.TrimSpace(got)
			}
		}
	}

	if text == "" || equalsLast(text) {
		text = r.pickProactiveFallback(lastAssistant)
	}

	reply := appendSuggestions(text, text, lastAssistant)
	r.History.Append(sessionID, ai.Assistant(reply))
	return reply, nil
}

// pickProactiveFallback selects a canned proactive variant distinct from the
// previous assistant turn.
func (r *Responder) pickProactiveFallback(lastAssistant string) string {
	i := r.pick(len(proactiveFallbacks))
	candidate := proactiveFallbacks[i]
	if lastAssistant != "" && strings.HasPrefix(lastAssistant, candidate) {
		candidate = proactiveFallbacks[(i+1)%len(proactiveFallbacks)]
	}
	return candidate
}

// QuickReply is the cheap generator used for automatic replies inside human
// chats: small talk, then keyword tips, then the generic steer. It never
// performs network I/O, keeping the messaging path synchronous and fast.
func (r *Responder) QuickReply(text string) string {
	if st, ok := r.smallTalk(text); ok {
		return st
	}
	if tip, ok := keywordReply(text); ok {
		return tip
	}
	return genericSteer
}

// Reset clears the session's conversation memory.
func (r *Responder) Reset(sessionID string) {
	r.History.Reset(sessionID)
}
