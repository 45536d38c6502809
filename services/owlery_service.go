//go:generate go run go.uber.org/mock/mockgen -source=owlery_service.go -destination=../mocks/mock_owlery_service.go -package=mocks
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/T4snimul/owlery/contract"
	"github.com/T4snimul/owlery/domain"
	"github.com/T4snimul/owlery/errors"
)

var validate = validator.New()

// IOwleryService is the facade the transport talks to. Requests are
// validated here, at the boundary, before they become domain commands;
// nothing behind this interface trusts a payload.
type IOwleryService interface {
	JoinGroup(ctx context.Context, req JoinGroupRequest, sink contract.EventSink) error
	Leave(sessionID string)
	PostGroupMessage(ctx context.Context, req GroupMessageRequest) error
	PostDirectMessage(ctx context.Context, req DirectMessageRequest) error
	ReplayDirectHistory(ctx context.Context, req DirectHistoryRequest) error
}

// User ids feed the canonical pair key, so the separator rune is banned
// here once and for all.
type JoinGroupRequest struct {
	SessionID string `validate:"required"`
	UserID    string `validate:"required,max=64,excludesall=0x7C"`
	UserName  string `validate:"required,max=120"`
	Roll      string `validate:"omitempty,max=32"`
	Avatar    string `validate:"omitempty,max=512"`
}

type GroupMessageRequest struct {
	SenderID     string `validate:"required,max=64,excludesall=0x7C"`
	SenderName   string `validate:"required,max=120"`
	SenderAvatar string `validate:"omitempty,max=512"`
	Text         string `validate:"required"`
}

type DirectMessageRequest struct {
	SessionID    string `validate:"required"`
	SenderID     string `validate:"required,max=64,excludesall=0x7C"`
	SenderName   string `validate:"omitempty,max=120"`
	SenderAvatar string `validate:"omitempty,max=512"`
	RecipientID  string `validate:"required,max=64,excludesall=0x7C"`
	Text         string `validate:"required"`
}

type DirectHistoryRequest struct {
	SessionID string `validate:"required"`
	UserID    string `validate:"required,max=64,excludesall=0x7C"`
	With      string `validate:"required,max=64,excludesall=0x7C"`
}

type OwleryService struct {
	orchestrator contract.IOrchestrator
}

func NewOwleryService(o contract.IOrchestrator) *OwleryService {
	return &OwleryService{orchestrator: o}
}

func (s *OwleryService) JoinGroup(ctx context.Context, req JoinGroupRequest, sink contract.EventSink) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}
	session := domain.Session{
		ID:          req.SessionID,
		UserID:      req.UserID,
		DisplayName: req.UserName,
		AvatarRef:   req.Avatar,
		ConnectedAt: time.Now().UTC(),
	}
	profile := domain.Profile{
		ID:     req.UserID,
		Name:   req.UserName,
		Roll:   req.Roll,
		Avatar: req.Avatar,
	}
	return s.orchestrator.JoinGroup(ctx, session, profile, sink)
}

func (s *OwleryService) Leave(sessionID string) {
	s.orchestrator.Leave(sessionID)
}

func (s *OwleryService) PostGroupMessage(ctx context.Context, req GroupMessageRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}
	return s.orchestrator.PostGroupMessage(ctx, domain.PostGroupMessageCommand{
		SenderID:     req.SenderID,
		SenderName:   req.SenderName,
		SenderAvatar: req.SenderAvatar,
		Text:         req.Text,
		CreatedAt:    time.Now().UTC(),
	})
}

func (s *OwleryService) PostDirectMessage(ctx context.Context, req DirectMessageRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}
	return s.orchestrator.PostDirectMessage(ctx, domain.PostDirectMessageCommand{
		SenderID:     req.SenderID,
		SenderName:   req.SenderName,
		SenderAvatar: req.SenderAvatar,
		RecipientID:  req.RecipientID,
		Text:         req.Text,
		CreatedAt:    time.Now().UTC(),
	})
}

func (s *OwleryService) ReplayDirectHistory(ctx context.Context, req DirectHistoryRequest) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidRequest, err)
	}
	return s.orchestrator.ReplayDirectHistory(ctx, req.SessionID, req.UserID, req.With)
}
