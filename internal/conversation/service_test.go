package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/medicothink/medicothink-backend/internal/models"
	"github.com/medicothink/medicothink-backend/internal/testutil"
)

func newTestService() (*Service, *testutil.MockConversationRepository, *testutil.MockMessageRepository) {
	convs := testutil.NewMockConversationRepository()
	msgs := testutil.NewMockMessageRepository(convs)
	return NewService(convs, msgs), convs, msgs
}

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"short text kept as is", "What is hypertension?", "What is hypertension?"},
		{"empty text gets default", "   ", "New Conversation"},
		{
			"long text truncated with ellipsis",
			"Explain the pathophysiology of congestive heart failure in detail",
			"Explain the pathophysiology of...",
		},
		{
			"arabic truncated at rune boundary",
			"اشرح لي الفسيولوجيا المرضية لقصور القلب الاحتقاني بالتفصيل الممل",
			string([]rune("اشرح لي الفسيولوجيا المرضية لقصور القلب الاحتقاني بالتفصيل الممل")[:30]) + "...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveTitle(tt.text)
			if got != tt.want {
				t.Errorf("DeriveTitle(%q) = %q, want %q", tt.text, got, tt.want)
			}
			if tt.text != "   " && len([]rune(got)) > 33 {
				t.Errorf("title too long: %d runes", len([]rune(got)))
			}
		})
	}
}

func TestGetOrCreate_NewConversationTitledFromMessage(t *testing.T) {
	svc, _, _ := newTestService()
	userID := uuid.New()

	conv, created, err := svc.GetOrCreate(context.Background(), userID, nil, "What causes migraines?")
	if err != nil {
		t.Fatal(err)
	}
	if !created {
		t.Error("created = false for new conversation")
	}
	if conv.Title != "What causes migraines?" {
		t.Errorf("title = %q", conv.Title)
	}
}

func TestCreate_ExplicitTitle(t *testing.T) {
	svc, _, _ := newTestService()
	userID := uuid.New()

	conv, err := svc.Create(context.Background(), userID, "Study notes")
	if err != nil {
		t.Fatal(err)
	}
	if conv.Title != "Study notes" {
		t.Errorf("title = %q", conv.Title)
	}
	if conv.UserID != userID {
		t.Error("conversation not bound to creator")
	}

	// An empty title falls back to the default.
	conv, err = svc.Create(context.Background(), userID, "")
	if err != nil {
		t.Fatal(err)
	}
	if conv.Title != "New Conversation" {
		t.Errorf("title = %q", conv.Title)
	}
}

func TestGetOrCreate_EnforcesOwnership(t *testing.T) {
	svc, _, _ := newTestService()
	owner := uuid.New()

	conv, _, err := svc.GetOrCreate(context.Background(), owner, nil, "hello")
	if err != nil {
		t.Fatal(err)
	}

	stranger := uuid.New()
	_, _, err = svc.GetOrCreate(context.Background(), stranger, &conv.ID, "hello")
	if !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("err = %v, want ErrConversationNotFound", err)
	}
}

func TestRecentContext_WindowsLastTenChronologically(t *testing.T) {
	svc, _, msgs := newTestService()
	userID := uuid.New()
	conv, _, err := svc.GetOrCreate(context.Background(), userID, nil, "start")
	if err != nil {
		t.Fatal(err)
	}

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 15; i++ {
		msg := &models.Message{
			ConversationID: conv.ID,
			Content:        fmt.Sprintf("message %d", i),
			IsFromUser:     i%2 == 0,
			MessageType:    models.MessageText,
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}
		if err := msgs.Append(context.Background(), msg); err != nil {
			t.Fatal(err)
		}
	}

	window, err := svc.RecentContext(context.Background(), conv.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(window) != 10 {
		t.Fatalf("window = %d messages, want 10", len(window))
	}
	if window[0].Content != "message 5" {
		t.Errorf("first = %q, want message 5", window[0].Content)
	}
	if window[9].Content != "message 14" {
		t.Errorf("last = %q, want message 14", window[9].Content)
	}
	for i := 1; i < len(window); i++ {
		if window[i].CreatedAt.Before(window[i-1].CreatedAt) {
			t.Fatal("window not in chronological order")
		}
	}
}

func TestAppendMessage_BumpsConversationRecency(t *testing.T) {
	svc, convs, _ := newTestService()
	userID := uuid.New()
	conv, _, err := svc.GetOrCreate(context.Background(), userID, nil, "hello")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.AppendUserMessage(context.Background(), conv.ID, "hello", models.MessageText, ""); err != nil {
		t.Fatal(err)
	}

	stored, err := convs.FindByIDForUser(context.Background(), conv.ID, userID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.LastMessageAt == nil {
		t.Fatal("last_message_at not set after append")
	}
}

func TestArchiveAndList(t *testing.T) {
	svc, _, _ := newTestService()
	userID := uuid.New()
	ctx := context.Background()

	a, _, _ := svc.GetOrCreate(ctx, userID, nil, "first")
	b, _, _ := svc.GetOrCreate(ctx, userID, nil, "second")

	if err := svc.SetArchived(ctx, userID, a.ID, true); err != nil {
		t.Fatal(err)
	}

	active, _, err := svc.List(ctx, userID, false, 1, 20)
	if err != nil {
		t.Fatal(err)
	}
	if len(active) != 1 || active[0].ID != b.ID {
		t.Errorf("active list = %d conversations", len(active))
	}

	archived, _, err := svc.List(ctx, userID, true, 1, 20)
	if err != nil {
		t.Fatal(err)
	}
	if len(archived) != 1 || archived[0].ID != a.ID {
		t.Errorf("archived list = %d conversations", len(archived))
	}
}

func TestDelete_ScopedToOwner(t *testing.T) {
	svc, _, _ := newTestService()
	owner := uuid.New()
	ctx := context.Background()
	conv, _, _ := svc.GetOrCreate(ctx, owner, nil, "mine")

	if err := svc.Delete(ctx, uuid.New(), conv.ID); !errors.Is(err, ErrConversationNotFound) {
		t.Fatalf("stranger delete err = %v, want ErrConversationNotFound", err)
	}
	if err := svc.Delete(ctx, owner, conv.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Messages(ctx, owner, conv.ID); !errors.Is(err, ErrConversationNotFound) {
		t.Fatal("conversation still readable after delete")
	}
}

func TestDeriveTitle_TrimsWhitespace(t *testing.T) {
	got := DeriveTitle("  chest pain  ")
	if got != "chest pain" {
		t.Errorf("got %q", got)
	}
	if strings.HasSuffix(got, "...") {
		t.Error("short title should not be truncated")
	}
}
