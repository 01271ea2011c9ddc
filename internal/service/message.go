package service

import (
	"context"
	"fmt"
	"time"

	"github.com/msomdec/skill-match/internal/domain"
)

// MessageView is one entry of a conversation as seen by one participant.
type MessageView struct {
	FromSelf   bool
	Message    string
	Attachment string
	Timestamp  time.Time
}

// MessageService persists direct messages and reads conversation history.
type MessageService struct {
	messages domain.MessageRepository
	now      func() time.Time
}

func NewMessageService(messages domain.MessageRepository) *MessageService {
	return &MessageService{messages: messages, now: time.Now}
}

// Add validates and stores a message stamped with the server clock. It does
// not push the message to a live connection.
func (s *MessageService) Add(ctx context.Context, from, to string, body domain.MessageBody) (*domain.Message, error) {
	msg, err := domain.NewMessage(from, to, body)
	if err != nil {
		return nil, err
	}
	msg.CreatedAt = s.now().UTC()

	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("store message: %w", err)
	}
	return msg, nil
}

// History returns the conversation between self and other, oldest first,
// with FromSelf set from self's point of view. It is never nil.
func (s *MessageService) History(ctx context.Context, self, other string) ([]MessageView, error) {
	if self == "" || other == "" {
		return nil, fmt.Errorf("%w: from and to are required", domain.ErrInvalidInput)
	}

	msgs, err := s.messages.ListConversation(ctx, self, other)
	if err != nil {
		return nil, err
	}

	views := make([]MessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, MessageView{
			FromSelf:   m.SenderID == self,
			Message:    m.Body.Text,
			Attachment: m.Body.Attachment,
			Timestamp:  m.CreatedAt,
		})
	}
	return views, nil
}
