package chat

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"portfolio-backend/backend/internal/repository"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) repository.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "chat.db")), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	store := repository.NewSQLiteStore(db)
	t.Cleanup(func() { _ = store.Close() })
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func TestServiceReply_StoresChatAndAnalytics(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(NewGenerator(nil, 0, nil), store, nil)
	ctx := context.Background()

	reply, err := svc.Reply(ctx, "  héllo services  ", nil)
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if reply != replyServices {
		t.Fatalf("unexpected reply %q", reply)
	}

	chats, _ := store.ListChats(ctx, 10)
	if len(chats) != 1 || chats[0].UserMessage != "héllo services" || chats[0].AIReply != reply {
		t.Fatalf("unexpected chats %+v", chats)
	}

	events, _ := store.ListAnalytics(ctx, 10)
	if len(events) != 1 || events[0].Event != EventChat {
		t.Fatalf("unexpected events %+v", events)
	}
	var data map[string]int
	if err := json.Unmarshal(events[0].Data, &data); err != nil {
		t.Fatalf("decode analytics data: %v", err)
	}
	if data["message_length"] != 14 {
		t.Fatalf("expected rune length 14, got %d", data["message_length"])
	}
}

func TestServiceReply_EmptyMessage(t *testing.T) {
	svc := NewService(NewGenerator(nil, 0, nil), newTestStore(t), nil)
	if _, err := svc.Reply(context.Background(), "   ", nil); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}
