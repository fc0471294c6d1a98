package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/devconnect/chat-service/internal/domain"
	"github.com/devconnect/chat-service/internal/repo"
)

// fakeBroadcaster records published events in order.
type fakeBroadcaster struct {
	events []publishedEvent
}

type publishedEvent struct {
	Room  string
	Event string
	Data  any
}

func (f *fakeBroadcaster) Publish(room, event string, data any) {
	f.events = append(f.events, publishedEvent{Room: room, Event: event, Data: data})
}

func (f *fakeBroadcaster) byEvent(event string) []publishedEvent {
	var out []publishedEvent
	for _, e := range f.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *domain.User {
	t.Helper()
	u := &domain.User{Username: username}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return u
}

// newTestService seeds two humans plus the assistant and returns the wired
// service. Reply echoes a canned assistant line.
func newTestService(t *testing.T) (*Service, *fakeBroadcaster, *domain.User, *domain.User, *domain.User) {
	t.Helper()
	db := testDB(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	bot, err := repo.EnsureAssistantUser(context.Background(), db)
	if err != nil {
		t.Fatalf("ensure assistant: %v", err)
	}

	hub := &fakeBroadcaster{}
	svc := &Service{
		DB:          db,
		Hub:         hub,
		AssistantID: bot.ID,
		Reply:       func(text string) string { return "Автоответ: " + text },
	}
	return svc, hub, alice, bob, bot
}

func TestSendMessageHumanChat(t *testing.T) {
	svc, hub, alice, bob, _ := newTestService(t)
	ctx := context.Background()

	ch, err := svc.StartChat(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("StartChat: %v", err)
	}

	msg, reply, err := svc.SendMessage(ctx, ch.ID, alice.ID, "привет, Боб")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if reply != nil {
		t.Fatal("human chat must not auto-reply")
	}
	if msg.SenderID != alice.ID || msg.Content != "привет, Боб" {
		t.Fatalf("persisted message = %+v", msg)
	}

	news := hub.byEvent(EventMessageNew)
	if len(news) != 1 {
		t.Fatalf("message:new events = %d; want 1", len(news))
	}
	if news[0].Room != RoomName(ch.ID) {
		t.Fatalf("room = %q; want %q", news[0].Room, RoomName(ch.ID))
	}
}

func TestSendMessageAssistantChatAutoReplies(t *testing.T) {
	svc, hub, alice, _, _ := newTestService(t)
	ctx := context.Background()

	ch, err := svc.AssistantChat(ctx, alice.ID)
	if err != nil {
		t.Fatalf("AssistantChat: %v", err)
	}

	msg, reply, err := svc.SendMessage(ctx, ch.ID, alice.ID, "помоги с кодом")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if reply == nil {
		t.Fatal("assistant chat must auto-reply")
	}
	if reply.SenderID != svc.AssistantID {
		t.Fatalf("reply sender = %d; want assistant %d", reply.SenderID, svc.AssistantID)
	}
	if !strings.Contains(reply.Content, "помоги с кодом") {
		t.Fatalf("reply content = %q", reply.Content)
	}

	// Both messages broadcast to the same room, human first.
	news := hub.byEvent(EventMessageNew)
	if len(news) != 2 {
		t.Fatalf("message:new events = %d; want 2", len(news))
	}
	first, ok := news[0].Data.(*domain.Message)
	if !ok || first.ID != msg.ID {
		t.Fatalf("first broadcast = %+v; want the human message", news[0].Data)
	}
	second, ok := news[1].Data.(*domain.Message)
	if !ok || second.ID != reply.ID {
		t.Fatalf("second broadcast = %+v; want the assistant reply", news[1].Data)
	}
}

func TestSendMessageEmptyContentPersistsNothing(t *testing.T) {
	svc, hub, alice, bob, _ := newTestService(t)
	ctx := context.Background()

	ch, _ := svc.StartChat(ctx, alice.ID, bob.ID)
	if _, _, err := svc.SendMessage(ctx, ch.ID, alice.ID, "   \n "); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("err = %v; want ErrEmptyContent", err)
	}

	var count int64
	svc.DB.Model(&domain.Message{}).Count(&count)
	if count != 0 {
		t.Fatalf("messages persisted = %d; want 0", count)
	}
	if len(hub.events) != 0 {
		t.Fatalf("events = %d; want 0", len(hub.events))
	}
}

func TestSendMessageValidation(t *testing.T) {
	svc, _, alice, bob, _ := newTestService(t)
	ctx := context.Background()

	if _, _, err := svc.SendMessage(ctx, 9999, alice.ID, "hi"); !errors.Is(err, ErrChatNotFound) {
		t.Fatalf("unknown chat err = %v; want ErrChatNotFound", err)
	}

	ch, _ := svc.StartChat(ctx, alice.ID, bob.ID)
	outsider := seedUser(t, svc.DB, "mallory")
	if _, _, err := svc.SendMessage(ctx, ch.ID, outsider.ID, "hi"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("outsider err = %v; want ErrForbidden", err)
	}
}

func TestListMessagesMarksReadOnce(t *testing.T) {
	svc, hub, alice, bob, _ := newTestService(t)
	ctx := context.Background()

	ch, _ := svc.StartChat(ctx, alice.ID, bob.ID)
	if _, _, err := svc.SendMessage(ctx, ch.ID, alice.ID, "один"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if _, _, err := svc.SendMessage(ctx, ch.ID, alice.ID, "два"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	// Bob fetches: both of Alice's messages flip to read, one receipt.
	msgs, err := svc.ListMessages(ctx, ch.ID, bob.ID, 100)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("messages = %d; want 2", len(msgs))
	}
	if msgs[0].Content != "один" || msgs[1].Content != "два" {
		t.Fatalf("order wrong: %q, %q", msgs[0].Content, msgs[1].Content)
	}
	for _, m := range msgs {
		if !m.IsRead {
			t.Fatalf("message %d not marked read", m.ID)
		}
	}

	receipts := hub.byEvent(EventMessageRead)
	if len(receipts) != 1 {
		t.Fatalf("message:read events = %d; want 1 batched receipt", len(receipts))
	}
	rr, ok := receipts[0].Data.(ReadReceipt)
	if !ok {
		t.Fatalf("receipt payload = %T", receipts[0].Data)
	}
	if rr.ReaderID != bob.ID || len(rr.MessageIDs) != 2 {
		t.Fatalf("receipt = %+v", rr)
	}

	// A second fetch finds nothing unread and emits no further receipts.
	if _, err := svc.ListMessages(ctx, ch.ID, bob.ID, 100); err != nil {
		t.Fatalf("second ListMessages: %v", err)
	}
	if got := hub.byEvent(EventMessageRead); len(got) != 1 {
		t.Fatalf("message:read events after refetch = %d; want still 1", len(got))
	}

	// The sender's own fetch never marks their counterpart's flags.
	unread, err := repo.CountUnread(ctx, svc.DB, ch.ID, alice.ID)
	if err != nil {
		t.Fatalf("CountUnread: %v", err)
	}
	if unread != 0 {
		t.Fatalf("unread for alice = %d; want 0", unread)
	}
}

func TestListMessagesLimitKeepsNewest(t *testing.T) {
	svc, _, alice, bob, _ := newTestService(t)
	ctx := context.Background()

	ch, _ := svc.StartChat(ctx, alice.ID, bob.ID)
	for _, text := range []string{"один", "два", "три"} {
		if _, _, err := svc.SendMessage(ctx, ch.ID, alice.ID, text); err != nil {
			t.Fatalf("SendMessage(%q): %v", text, err)
		}
	}

	// A capped fetch keeps the newest messages, still in chronological order.
	msgs, err := svc.ListMessages(ctx, ch.ID, bob.ID, 2)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("messages = %d; want 2", len(msgs))
	}
	if msgs[0].Content != "два" || msgs[1].Content != "три" {
		t.Fatalf("got %q, %q; want the two newest in order", msgs[0].Content, msgs[1].Content)
	}

	// Read marking reaches the newest message even though the fetch is capped.
	for _, m := range msgs {
		if !m.IsRead {
			t.Fatalf("message %q not marked read", m.Content)
		}
	}
	unread, err := repo.CountUnread(ctx, svc.DB, ch.ID, bob.ID)
	if err != nil {
		t.Fatalf("CountUnread: %v", err)
	}
	if unread != 1 {
		t.Fatalf("unread = %d; want 1 (only the oldest, outside the window)", unread)
	}
}

func TestStartChatIdempotentAndValidated(t *testing.T) {
	svc, _, alice, bob, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.StartChat(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatalf("StartChat: %v", err)
	}
	// Either participant order resolves to the same chat.
	second, err := svc.StartChat(ctx, bob.ID, alice.ID)
	if err != nil {
		t.Fatalf("StartChat reversed: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("chats %d and %d; want the same chat", first.ID, second.ID)
	}

	if _, err := svc.StartChat(ctx, alice.ID, alice.ID); !errors.Is(err, ErrSelfChat) {
		t.Fatalf("self chat err = %v; want ErrSelfChat", err)
	}
	if _, err := svc.StartChat(ctx, alice.ID, 4242); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("unknown user err = %v; want ErrUserNotFound", err)
	}
}

func TestListChatsSummaries(t *testing.T) {
	svc, _, alice, bob, bot := newTestService(t)
	ctx := context.Background()

	human, _ := svc.StartChat(ctx, alice.ID, bob.ID)
	assistant, _ := svc.AssistantChat(ctx, alice.ID)
	if _, _, err := svc.SendMessage(ctx, human.ID, bob.ID, "пинг"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}

	sums, err := svc.ListChats(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListChats: %v", err)
	}
	if len(sums) != 2 {
		t.Fatalf("chats = %d; want 2", len(sums))
	}
	// Most recently active first: the human chat got the message.
	if sums[0].Chat.ID != human.ID {
		t.Fatalf("first chat = %d; want %d (most recent activity)", sums[0].Chat.ID, human.ID)
	}
	if sums[0].LastMessage == nil || sums[0].LastMessage.Content != "пинг" {
		t.Fatalf("last message = %+v", sums[0].LastMessage)
	}
	if sums[0].Unread != 1 {
		t.Fatalf("unread = %d; want 1", sums[0].Unread)
	}
	if sums[1].Chat.ID != assistant.ID || sums[1].LastMessage != nil {
		t.Fatalf("assistant chat summary = %+v", sums[1])
	}
	if sums[1].Chat.Other(alice.ID) != bot.ID {
		t.Fatalf("assistant chat counterpart = %d; want %d", sums[1].Chat.Other(alice.ID), bot.ID)
	}
}

func TestTypingBroadcastIncludesSender(t *testing.T) {
	svc, hub, alice, bob, _ := newTestService(t)
	ch, _ := svc.StartChat(context.Background(), alice.ID, bob.ID)

	svc.Typing(ch.ID, alice.ID, alice.Username, true)

	events := hub.byEvent(EventTyping)
	if len(events) != 1 {
		t.Fatalf("typing events = %d; want 1", len(events))
	}
	if events[0].Room != RoomName(ch.ID) {
		t.Fatalf("room = %q", events[0].Room)
	}
	payload, ok := events[0].Data.(map[string]any)
	if !ok {
		t.Fatalf("payload = %T", events[0].Data)
	}
	if payload["user_id"] != alice.ID || payload["typing"] != true {
		t.Fatalf("payload = %+v", payload)
	}
	if payload["username"] != "alice" {
		t.Fatalf("username = %v; want alice", payload["username"])
	}
}
