package chatbot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"orbitlend-backend/internal/domain/apperr"
	"orbitlend-backend/internal/infrastructure/cache"
	"orbitlend-backend/internal/infrastructure/logger"
	"orbitlend-backend/pkg/id"
)

const (
	SourceFAQ      = "faq"
	SourceAI       = "ai"
	SourceCache    = "cache"
	SourceFallback = "fallback"

	maxHistory = 50

	persona = "You are the OrbitLend support assistant. OrbitLend is an NFT-backed peer-to-peer lending platform: " +
		"borrowers pass KYC, request loans, admins approve them, approved loans are minted as NFTs that can be traded on an in-app marketplace. " +
		"Answer briefly and only about OrbitLend. Never give financial advice."

	FallbackReply = "Sorry, I can't answer that right now. Please try again later or contact support."
)

// Completer is the generative text provider.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type ChatInput struct {
	SessionID string `json:"sessionId" validate:"omitempty,max=64"`
	Message   string `json:"message" validate:"required,max=1000"`
}

type Reply struct {
	Reply      string  `json:"reply"`
	Source     string  `json:"source"`
	Confidence float64 `json:"confidence"`
	Topic      string  `json:"topic,omitempty"`
	SessionID  string  `json:"sessionId"`
}

type Turn struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	Source  string    `json:"source,omitempty"`
	At      time.Time `json:"timestamp"`
}

type Usecase struct {
	ai        Completer
	responses cache.KV
	history   cache.KV
	entries   []Entry
	now       func() time.Time
}

// NewUsecase wires the bot. ai may be nil, in which case unmatched questions
// get the fallback reply.
func NewUsecase(ai Completer, responses, history cache.KV) *Usecase {
	return &Usecase{ai: ai, responses: responses, history: history, entries: knowledge, now: time.Now}
}

func historyKey(owner, session string) string { return owner + ":" + session }

func (u *Usecase) Chat(ctx context.Context, owner string, in ChatInput) (*Reply, error) {
	msg := strings.TrimSpace(in.Message)
	if msg == "" {
		return nil, apperr.Validation("message is required")
	}
	session := in.SessionID
	if session == "" {
		session = id.New()
	}

	r := u.answer(ctx, msg)
	r.SessionID = session

	now := u.now().UTC()
	if err := u.appendHistory(ctx, historyKey(owner, session),
		Turn{Role: "user", Content: msg, At: now},
		Turn{Role: "assistant", Content: r.Reply, Source: r.Source, At: now},
	); err != nil {
		logger.FromContext(ctx).Warn("chat history not saved", "session", session, "err", err)
	}
	return r, nil
}

func (u *Usecase) answer(ctx context.Context, msg string) *Reply {
	m := Best(u.entries, msg)
	r := &Reply{Confidence: m.Score}
	if m.Entry != nil && m.Score >= MinConfidence {
		r.Topic = m.Entry.Topic
	}
	if m.Entry != nil && m.Score >= HighConfidence {
		r.Reply, r.Source = m.Entry.Answer, SourceFAQ
		return r
	}

	key := strings.ToLower(msg)
	if v, ok, err := u.responses.Get(ctx, key); err == nil && ok {
		r.Reply, r.Source = v, SourceCache
		return r
	}

	if u.ai == nil {
		r.Reply, r.Source = FallbackReply, SourceFallback
		return r
	}
	out, err := u.ai.Complete(ctx, u.prompt(m), msg)
	if err != nil {
		logger.FromContext(ctx).Warn("chat completion failed", "err", err)
		r.Reply, r.Source = FallbackReply, SourceFallback
		return r
	}
	if err := u.responses.Set(ctx, key, out, 0); err != nil {
		logger.FromContext(ctx).Warn("chat response not cached", "err", err)
	}
	r.Reply, r.Source = out, SourceAI
	return r
}

func (u *Usecase) prompt(m Match) string {
	var b strings.Builder
	b.WriteString(persona)
	if m.Entry != nil && m.Score >= MinConfidence {
		fmt.Fprintf(&b, "\n\nThe question is about: %s.", m.Entry.Topic)
	}
	if m.Entry != nil {
		fmt.Fprintf(&b, "\nA related question and its approved answer:\nQ: %s\nA: %s", m.Entry.Question, m.Entry.Answer)
	}
	return b.String()
}

func (u *Usecase) History(ctx context.Context, owner, session string) ([]Turn, error) {
	raw, ok, err := u.history.Get(ctx, historyKey(owner, session))
	if err != nil {
		return nil, err
	}
	if !ok {
		return []Turn{}, nil
	}
	var turns []Turn
	if err := json.Unmarshal([]byte(raw), &turns); err != nil {
		return nil, err
	}
	return turns, nil
}

func (u *Usecase) Clear(ctx context.Context, owner, session string) error {
	return u.history.Delete(ctx, historyKey(owner, session))
}

// Suggestions returns one sample question per topic.
func (u *Usecase) Suggestions() []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range u.entries {
		if seen[e.Topic] {
			continue
		}
		seen[e.Topic] = true
		out = append(out, e.Question)
	}
	return out
}

func (u *Usecase) appendHistory(ctx context.Context, key string, turns ...Turn) error {
	var all []Turn
	raw, ok, err := u.history.Get(ctx, key)
	if err != nil {
		return err
	}
	if ok {
		if err := json.Unmarshal([]byte(raw), &all); err != nil {
			return err
		}
	}
	all = append(all, turns...)
	if len(all) > maxHistory {
		all = all[len(all)-maxHistory:]
	}
	b, err := json.Marshal(all)
	if err != nil {
		return err
	}
	return u.history.Set(ctx, key, string(b), 0)
}
