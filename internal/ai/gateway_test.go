package ai_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/medicothink/medicothink-backend/internal/ai"
	"github.com/medicothink/medicothink-backend/internal/testutil"
)

func TestIsArabic(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"english", "What is hypertension?", false},
		{"arabic", "ما هو ارتفاع ضغط الدم؟", true},
		{"mixed", "Explain مرض السكري please", true},
		{"empty", "", false},
		{"digits and punctuation", "123 !?", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ai.IsArabic(tt.text); got != tt.want {
				t.Errorf("IsArabic(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestChat_FallsThroughToSecondProvider(t *testing.T) {
	primary := &testutil.ScriptedChatProvider{Id: "openai", Err: errors.New("rate limited")}
	backup := &testutil.ScriptedChatProvider{Id: "gemini", Reply: "Hypertension is elevated blood pressure."}
	gw := ai.NewGateway(ai.GatewayConfig{Chat: []ai.ChatProvider{primary, backup}})

	res := gw.Chat(context.Background(), "What is hypertension?", nil)
	if res.Degraded {
		t.Fatal("degraded with a healthy backup provider")
	}
	if res.Provider != "gemini" {
		t.Errorf("provider = %q, want gemini", res.Provider)
	}
	if primary.Calls != 1 || backup.Calls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", primary.Calls, backup.Calls)
	}
	if res.Text != "Hypertension is elevated blood pressure." {
		t.Errorf("text = %q", res.Text)
	}
}

func TestChat_PrependsSystemPromptAndHistory(t *testing.T) {
	p := &testutil.ScriptedChatProvider{Id: "openai", Reply: "ok"}
	gw := ai.NewGateway(ai.GatewayConfig{Chat: []ai.ChatProvider{p}})

	history := []ai.ChatMessage{
		{Role: ai.RoleUser, Content: "earlier question"},
		{Role: ai.RoleAssistant, Content: "earlier answer"},
	}
	gw.Chat(context.Background(), "follow up", history)

	msgs := p.LastMsgs
	if len(msgs) != 4 {
		t.Fatalf("got %d messages, want 4", len(msgs))
	}
	if msgs[0].Role != ai.RoleSystem || !strings.Contains(msgs[0].Content, "MedicoThink") {
		t.Errorf("first message is not the persona prompt: %+v", msgs[0])
	}
	if msgs[1].Content != "earlier question" || msgs[2].Content != "earlier answer" {
		t.Error("history not replayed in order")
	}
	if msgs[3].Role != ai.RoleUser || msgs[3].Content != "follow up" {
		t.Errorf("last message = %+v", msgs[3])
	}
}

func TestChat_DegradesWithLanguageMatchedApology(t *testing.T) {
	down := errors.New("upstream down")
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"english apology", "What is diabetes?", "Sorry, I'm experiencing technical difficulties. Please try again later."},
		{"arabic apology", "ما هو مرض السكري؟", "عذراً، أواجه صعوبة تقنية حالياً. يرجى المحاولة مرة أخرى لاحقاً."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := ai.NewGateway(ai.GatewayConfig{Chat: []ai.ChatProvider{
				&testutil.ScriptedChatProvider{Id: "openai", Err: down},
				&testutil.ScriptedChatProvider{Id: "gemini", Err: down},
			}})
			res := gw.Chat(context.Background(), tt.message, nil)
			if !res.Degraded {
				t.Fatal("degraded = false after chain exhaustion")
			}
			if res.Text != tt.want {
				t.Errorf("apology = %q, want %q", res.Text, tt.want)
			}
		})
	}
}

func TestAnalyzeImage_DegradesWithVisionApology(t *testing.T) {
	gw := ai.NewGateway(ai.GatewayConfig{Vision: []ai.VisionProvider{
		&testutil.ScriptedVisionProvider{Id: "openai", Err: errors.New("down")},
	}})
	res := gw.AnalyzeImage(context.Background(), "What does this X-ray show?", []byte{0xff})
	if !res.Degraded {
		t.Fatal("degraded = false")
	}
	if res.Text != "Sorry, I cannot analyze this image at the moment. Please try again later." {
		t.Errorf("apology = %q", res.Text)
	}
}

func TestGenerateImage_StoresResultAndReportsURL(t *testing.T) {
	store := testutil.NewMemoryStore()
	gw := ai.NewGateway(ai.GatewayConfig{
		Image: []ai.ImageProvider{&testutil.ScriptedImageProvider{Id: "openai", Data: []byte("png-bytes")}},
		Store: store,
	})

	res, err := gw.GenerateImage(context.Background(), "the human heart")
	if err != nil {
		t.Fatal(err)
	}
	if res.Provider != "openai" {
		t.Errorf("provider = %q", res.Provider)
	}
	if !strings.HasPrefix(res.Path, "generated_images/") || !strings.HasSuffix(res.Path, ".png") {
		t.Errorf("path = %q", res.Path)
	}
	if string(store.Files[res.Path]) != "png-bytes" {
		t.Error("stored bytes do not match provider output")
	}
	if res.URL != "http://test.local/media/"+res.Path {
		t.Errorf("url = %q", res.URL)
	}
}

func TestGenerateImage_ChainExhaustedReturnsProviderUnavailable(t *testing.T) {
	store := testutil.NewMemoryStore()
	gw := ai.NewGateway(ai.GatewayConfig{
		Image: []ai.ImageProvider{&testutil.ScriptedImageProvider{Id: "openai", Err: errors.New("down")}},
		Store: store,
	})
	_, err := gw.GenerateImage(context.Background(), "the human heart")
	if !errors.Is(err, ai.ErrProviderUnavailable) {
		t.Fatalf("err = %v, want ErrProviderUnavailable", err)
	}
	if len(store.Files) != 0 {
		t.Error("nothing should be stored on failure")
	}
}

func TestGenerateVideo_StoresResult(t *testing.T) {
	store := testutil.NewMemoryStore()
	gw := ai.NewGateway(ai.GatewayConfig{
		Video: []ai.VideoProvider{&testutil.ScriptedVideoProvider{Id: "heygen", Data: []byte("mp4-bytes")}},
		Store: store,
	})
	res, err := gw.GenerateVideo(context.Background(), "blood circulation")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(res.Path, "generated_videos/") || !strings.HasSuffix(res.Path, ".mp4") {
		t.Errorf("path = %q", res.Path)
	}
}

func TestFlashcards_ParsesProviderJSON(t *testing.T) {
	p := &testutil.ScriptedChatProvider{
		Id:    "openai",
		Reply: `[{"question":"What is the normal resting heart rate?","answer":"60 to 100 beats per minute."}]`,
	}
	gw := ai.NewGateway(ai.GatewayConfig{Chat: []ai.ChatProvider{p}})

	res := gw.Flashcards(context.Background(), "cardiology", 1)
	if res.Degraded {
		t.Fatal("degraded with parseable output")
	}
	if len(res.Cards) != 1 || res.Cards[0].Question != "What is the normal resting heart rate?" {
		t.Errorf("cards = %+v", res.Cards)
	}
	if res.Provider != "openai" {
		t.Errorf("provider = %q", res.Provider)
	}
}

func TestFlashcards_UnparseableOutputFallsBackToPlaceholders(t *testing.T) {
	p := &testutil.ScriptedChatProvider{Id: "openai", Reply: "I cannot help with that."}
	gw := ai.NewGateway(ai.GatewayConfig{Chat: []ai.ChatProvider{p}})

	res := gw.Flashcards(context.Background(), "cardiology", 3)
	if !res.Degraded {
		t.Fatal("degraded = false for unparseable output")
	}
	if len(res.Cards) != 3 {
		t.Fatalf("got %d placeholder cards, want 3", len(res.Cards))
	}
	if !strings.Contains(res.Cards[0].Question, "cardiology") {
		t.Errorf("placeholder does not reference the topic: %q", res.Cards[0].Question)
	}
}

func TestFlashcards_ArabicTopicGetsArabicPlaceholders(t *testing.T) {
	gw := ai.NewGateway(ai.GatewayConfig{Chat: []ai.ChatProvider{
		&testutil.ScriptedChatProvider{Id: "openai", Err: errors.New("down")},
	}})
	res := gw.Flashcards(context.Background(), "أمراض القلب", 2)
	if !res.Degraded || len(res.Cards) != 2 {
		t.Fatalf("degraded=%v cards=%d", res.Degraded, len(res.Cards))
	}
	if !ai.IsArabic(res.Cards[0].Question) {
		t.Errorf("placeholder not in Arabic: %q", res.Cards[0].Question)
	}
}

func TestFlashcards_DefaultCountWhenUnset(t *testing.T) {
	gw := ai.NewGateway(ai.GatewayConfig{Chat: []ai.ChatProvider{
		&testutil.ScriptedChatProvider{Id: "openai", Err: errors.New("down")},
	}})
	res := gw.Flashcards(context.Background(), "anatomy", 0)
	if len(res.Cards) != 5 {
		t.Errorf("got %d cards, want default 5", len(res.Cards))
	}
}
