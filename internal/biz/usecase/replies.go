package usecase

import (
	"context"
	"math/rand"
	"strings"

	"github.com/acheronbot/acheron/internal/biz/domain"
)

// Stock lines per mood, picked at random for greetings and fallbacks
var moodLines = map[domain.Mood][]string{
	domain.MoodCalm: {
		"The void listens. Speak.",
		"Ever watchful. Ever still.",
		"I am Acheron — your dark companion.",
	},
	domain.MoodCold: {
		"Silence suits you. Speak quickly.",
		"I watch. Do not test the dark.",
		"I am Acheron. Consider this a warning.",
	},
	domain.MoodCryptic: {
		"Shadows whisper your name.",
		"The path forks; I know one route.",
		"Ask, and the void shall answer mildly.",
	},
}

const (
	identityLine  = "I am Acheron — your dark companion."
	gratitudeLine = "Do not thank the darkness; it is simply here."
)

// ReplyUsecase generates mood-conditioned scripted replies for
// non-command messages. It is a closed decision table, not an NLP engine.
type ReplyUsecase struct {
	pick func(n int) int // index picker, swappable in tests
}

// NewReplyUsecase creates a new reply usecase
func NewReplyUsecase() *ReplyUsecase {
	return &ReplyUsecase{pick: rand.Intn}
}

// Generate produces a reply for the given text and mood.
// An unknown mood falls back to calm.
func (uc *ReplyUsecase) Generate(text string, mood domain.Mood) string {
	t := strings.ToLower(text)

	lines, ok := moodLines[mood]
	if !ok {
		lines = moodLines[domain.MoodCalm]
	}

	if strings.Contains(t, "hello") || strings.Contains(t, "hi") || strings.Contains(t, "hey") {
		return uc.choose(lines)
	}
	if strings.Contains(t, "how are you") || strings.Contains(t, "how r you") {
		return uc.choose(lines)
	}
	if strings.Contains(t, "who are you") || strings.Contains(t, "what are you") {
		return identityLine
	}
	if strings.Contains(t, "thanks") || strings.Contains(t, "thank you") {
		return gratitudeLine
	}
	return uc.choose(lines)
}

// Reply implements the replier interface so the generator can serve as
// the default (and fallback) chat-mode responder
func (uc *ReplyUsecase) Reply(_ context.Context, text string, mood domain.Mood) (string, error) {
	return uc.Generate(text, mood), nil
}

func (uc *ReplyUsecase) choose(lines []string) string {
	return lines[uc.pick(len(lines))]
}
