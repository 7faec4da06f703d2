package service

import (
	"context"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"opsportal/internal/apperror"
	"opsportal/internal/model"
	"opsportal/internal/repository"
	"opsportal/pkg/pagination"
	"opsportal/pkg/timefmt"

	"go.uber.org/zap"
)

const (
	maxRoomLength    = 100
	maxMessageLength = 4000
)

type PostMessageRequest struct {
	Body string `json:"body" binding:"required"`
}

type MessageResponse struct {
	ID        string `json:"id"`
	Room      string `json:"room"`
	SenderID  string `json:"sender_id"`
	Sender    string `json:"sender"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
}

type MessagePage struct {
	Messages   []MessageResponse `json:"messages"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
}

// RoomBroadcaster fans a payload out to the live subscribers of one room
type RoomBroadcaster interface {
	BroadcastToRoom(room string, payload []byte)
}

type MessageService interface {
	ListMessages(ctx context.Context, room string, page, limit int) (*MessagePage, error)
	PostMessage(ctx context.Context, userID, room string, req PostMessageRequest) (*MessageResponse, error)
}

type messageService struct {
	repo        repository.MessageRepository
	userRepo    repository.UserRepository
	broadcaster RoomBroadcaster
	logger      *zap.Logger
}

func NewMessageService(
	repo repository.MessageRepository,
	userRepo repository.UserRepository,
	broadcaster RoomBroadcaster,
	logger *zap.Logger,
) MessageService {
	return &messageService{repo: repo, userRepo: userRepo, broadcaster: broadcaster, logger: logger}
}

// NormalizeRoom trims a room name and rejects empty or oversized ones
func NormalizeRoom(room string) (string, error) {
	room = strings.TrimSpace(room)
	if room == "" {
		return "", apperror.Validation("room is required")
	}
	if utf8.RuneCountInString(room) > maxRoomLength {
		return "", apperror.Validation("room name is too long")
	}
	return room, nil
}

func (s *messageService) ListMessages(ctx context.Context, room string, page, limit int) (*MessagePage, error) {
	room, err := NormalizeRoom(room)
	if err != nil {
		return nil, err
	}
	params := pagination.New(page, limit)

	messages, total, err := s.repo.ListByRoom(ctx, room, params.Offset, params.Limit)
	if err != nil {
		return nil, apperror.Internal(err)
	}

	res := make([]MessageResponse, 0, len(messages))
	for i := range messages {
		res = append(res, toMessageResponse(&messages[i]))
	}

	return &MessagePage{
		Messages:   res,
		Total:      total,
		Page:       params.Page,
		Limit:      params.Limit,
		TotalPages: pagination.TotalPages(total, params.Limit),
	}, nil
}

func (s *messageService) PostMessage(ctx context.Context, userID, room string, req PostMessageRequest) (*MessageResponse, error) {
	room, err := NormalizeRoom(room)
	if err != nil {
		return nil, err
	}
	body := strings.TrimSpace(req.Body)
	if body == "" {
		return nil, apperror.Validation("body is required")
	}
	if utf8.RuneCountInString(body) > maxMessageLength {
		return nil, apperror.Validation("message is too long")
	}

	sender, err := loadActor(ctx, s.userRepo, userID)
	if err != nil {
		return nil, err
	}

	msg := model.Message{Room: room, SenderID: sender.ID, Body: body}
	if err := s.repo.Create(ctx, &msg); err != nil {
		return nil, apperror.Internal(err)
	}
	msg.Sender = sender

	resp := toMessageResponse(&msg)
	if s.broadcaster != nil {
		payload, err := json.Marshal(map[string]interface{}{"type": "message", "data": resp})
		if err != nil {
			s.logger.Warn("Failed to encode chat broadcast", zap.Error(err))
		} else {
			s.broadcaster.BroadcastToRoom(room, payload)
		}
	}
	return &resp, nil
}

func toMessageResponse(m *model.Message) MessageResponse {
	resp := MessageResponse{
		ID:        m.ID.String(),
		Room:      m.Room,
		SenderID:  m.SenderID.String(),
		Body:      m.Body,
		CreatedAt: timefmt.Format(m.CreatedAt),
	}
	if m.Sender != nil {
		resp.Sender = m.Sender.Username
	}
	return resp
}
