package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/organlink/internal/ai"
	"github.com/sakif/organlink/internal/apperror"
	"github.com/sakif/organlink/internal/model"
	"github.com/sakif/organlink/internal/repository"
)

const (
	MsgChatMessageRequired = "message is required"

	// RefusalMessage is returned instead of a reply when the message hits
	// the denylist.
	RefusalMessage = "This chatbot is for general medical information and organ donation guidance only."

	// FallbackReply stands in when the generator answers with nothing.
	FallbackReply = "Sorry, I could not generate a response."

	chatPreamble = "You are a helpful assistant for medical triage and organ donation info. " +
		"Provide general guidance only, not a diagnosis. " +
		"Encourage contacting healthcare professionals for urgent or complex cases. " +
		"Never reveal API keys. Keep responses under 120 words. " +
		"When helpful, end with exactly one short relevant follow-up question to clarify the user's need."
)

// ErrChatUnavailable means no text generator is configured.
var ErrChatUnavailable = errors.New("chat is not configured: set GOOGLE_API_KEY or enable application default credentials")

// Lower-case substrings that make a message off-topic.
var chatDenylist = []string{"hack", "password", "credit card", "violence", "hate", "explicit", "sex"}

// ChatService forwards user messages to the text generator and keeps each
// user's chat history.
type ChatService struct {
	users     repository.UserRepository
	generator ai.TextGenerator
	logger    *slog.Logger
	now       func() time.Time
}

// NewChatService wires the service. generator may be nil, in which case Send
// fails with ErrChatUnavailable and History still works.
func NewChatService(users repository.UserRepository, generator ai.TextGenerator, logger *slog.Logger) *ChatService {
	return &ChatService{
		users:     users,
		generator: generator,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Denied reports whether message contains a denylisted keyword, ignoring case.
func Denied(message string) bool {
	lower := strings.ToLower(message)
	for _, k := range chatDenylist {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

// BuildPrompt prefixes message with the assistant's role preamble.
func BuildPrompt(message string) string {
	return chatPreamble + "\n\nUser message: " + message
}

// Send answers message for userID and appends both turns to the user's
// history.
//
// A denylisted message is refused with a validation error carrying
// RefusalMessage; the generator is never called and nothing is stored.
func (s *ChatService) Send(ctx context.Context, userID, message string) (string, error) {
	if s.generator == nil {
		return "", ErrChatUnavailable
	}
	if strings.TrimSpace(message) == "" {
		return "", apperror.ValidationFailed("message", MsgChatMessageRequired)
	}
	if Denied(message) {
		s.logger.Info("chat refused", slog.String("user_id", userID))
		return "", apperror.ValidationFailed("message", RefusalMessage)
	}

	reply, err := s.generator.GenerateText(ctx, BuildPrompt(message))
	if err != nil {
		s.logger.Error("text generation failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("generating reply: %w", err)
	}
	if strings.TrimSpace(reply) == "" {
		reply = FallbackReply
	}

	now := s.now()
	err = s.users.AppendChatTurns(ctx, userID,
		model.ChatTurn{Role: model.ChatRoleUser, Message: message, Timestamp: now},
		model.ChatTurn{Role: model.ChatRoleBot, Message: reply, Timestamp: now},
	)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", apperror.NotFoundMessage(MsgUserNotFound)
		}
		return "", fmt.Errorf("storing chat history: %w", err)
	}

	return reply, nil
}

// History returns every stored turn for userID, oldest first.
func (s *ChatService) History(ctx context.Context, userID string) ([]model.ChatTurn, error) {
	turns, err := s.users.ChatHistory(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFoundMessage(MsgUserNotFound)
		}
		return nil, fmt.Errorf("reading chat history: %w", err)
	}
	return turns, nil
}
