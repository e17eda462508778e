package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// Flashcard is one question/answer study card.
type Flashcard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

var listItemRe = regexp.MustCompile(`^(\d+\.|\*|-)\s*(.+)`)

// ParseFlashcards extracts cards from a model response. Structured JSON
// is tried first, then loose numbered or bulleted text where each item
// line opens a question and the following line answers it.
func ParseFlashcards(content string) []Flashcard {
	content = stripCodeFence(content)

	if start, end := strings.Index(content, "["), strings.LastIndex(content, "]"); start >= 0 && end > start {
		var cards []Flashcard
		if err := json.Unmarshal([]byte(content[start:end+1]), &cards); err == nil && len(cards) > 0 {
			return cards
		}
	}

	var cards []Flashcard
	var current *Flashcard
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := listItemRe.FindStringSubmatch(line); m != nil {
			if current != nil {
				cards = append(cards, *current)
			}
			current = &Flashcard{Question: m[2]}
			continue
		}
		if current != nil && current.Answer == "" {
			current.Answer = line
		}
	}
	if current != nil {
		cards = append(cards, *current)
	}
	return cards
}

// PlaceholderFlashcards produces topic-referencing cards when no
// provider output could be parsed, so the client always gets the
// requested count.
func PlaceholderFlashcards(topic string, count int, arabic bool) []Flashcard {
	cards := make([]Flashcard, 0, count)
	for i := 1; i <= count; i++ {
		if arabic {
			cards = append(cards, Flashcard{
				Question: fmt.Sprintf("ما هو %s؟ (السؤال %d)", topic, i),
				Answer:   fmt.Sprintf("هذا سؤال تعليمي حول %s. يرجى استشارة مختص طبي للحصول على معلومات دقيقة.", topic),
			})
			continue
		}
		cards = append(cards, Flashcard{
			Question: fmt.Sprintf("What is %s? (Question %d)", topic, i),
			Answer:   fmt.Sprintf("This is an educational question about %s. Please consult a medical professional for accurate information.", topic),
		})
	}
	return cards
}

// FlashcardsPrompt asks for JSON-structured cards in the topic's language.
func FlashcardsPrompt(topic string, count int) string {
	if IsArabic(topic) {
		return fmt.Sprintf("أنشئ %d بطاقات تعليمية طبية حول '%s'. أرجع النتيجة كمصفوفة JSON مع حقول 'question' و 'answer'. ركز على المفاهيم الطبية الرئيسية والأعراض والعلاجات أو معايير التشخيص. استخدم اللغة العربية.", count, topic)
	}
	return fmt.Sprintf("Create %d medical flashcards about '%s'. Return as JSON array with 'question' and 'answer' fields. Focus on key medical concepts, symptoms, treatments, or diagnostic criteria. Use English language.", count, topic)
}

func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
	}
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}
