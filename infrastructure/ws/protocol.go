// Package ws is the WebSocket transport of the chat core: one socket per
// session, JSON envelopes, loosely-typed payloads decoded and validated at
// this boundary and nowhere else.
package ws

import (
	"encoding/json"
	"time"

	"github.com/samber/lo"

	"github.com/T4snimul/owlery/domain"
	"github.com/T4snimul/owlery/domain/event"
)

// Client -> server event names.
const (
	EventJoinGroup         = "join-group"
	EventSendGroupMessage  = "send-group-message"
	EventSendMessage       = "send-message"
	EventGetMessageHistory = "get-message-history"
)

// Server -> client event names.
const (
	EventOnlineUsers         = "online-users"
	EventNewMessage          = "new-message"
	EventMessageHistory      = "message-history"
	EventGroupMessageHistory = "group-message-history"
	EventError               = "error"
)

// Envelope frames every message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type JoinGroupPayload struct {
	UserID     string `json:"userId"`
	UserName   string `json:"userName"`
	UserAvatar string `json:"userAvatar,omitempty"`
	Roll       string `json:"roll,omitempty"`
}

type SendGroupMessagePayload struct {
	Text       string `json:"text"`
	UserID     string `json:"userId"`
	UserName   string `json:"userName"`
	UserAvatar string `json:"userAvatar,omitempty"`
}

type SendMessagePayload struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

type GetMessageHistoryPayload struct {
	With string `json:"with"`
}

type MessagePayload struct {
	ID           string    `json:"id"`
	Seq          uint64    `json:"seq"`
	Scope        string    `json:"scope"`
	SenderID     string    `json:"senderId"`
	SenderName   string    `json:"senderName"`
	SenderAvatar string    `json:"senderAvatarRef,omitempty"`
	RecipientID  string    `json:"recipientId,omitempty"`
	Text         string    `json:"text"`
	Timestamp    time.Time `json:"timestamp"`
}

type OnlineUser struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Roll   string `json:"roll,omitempty"`
	Avatar string `json:"avatar,omitempty"`
	Online bool   `json:"online"`
}

type OnlineUsersPayload struct {
	Users []OnlineUser `json:"users"`
}

type NewMessagePayload struct {
	Message MessagePayload `json:"message"`
}

type MessageHistoryPayload struct {
	With     string           `json:"with"`
	Messages []MessagePayload `json:"messages"`
}

type GroupMessageHistoryPayload struct {
	Messages []MessagePayload `json:"messages"`
}

type ErrorPayload struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

func toMessagePayload(m domain.Message) MessagePayload {
	return MessagePayload{
		ID:           m.ID.String(),
		Seq:          m.Seq,
		Scope:        string(m.Scope),
		SenderID:     m.SenderID,
		SenderName:   m.SenderName,
		SenderAvatar: m.SenderAvatar,
		RecipientID:  m.RecipientID,
		Text:         m.Text,
		Timestamp:    m.CreatedAt,
	}
}

func toMessagePayloads(messages []domain.Message) []MessagePayload {
	return lo.Map(messages, func(item domain.Message, _ int) MessagePayload {
		return toMessagePayload(item)
	})
}

func toOnlineUsers(entries []domain.PresenceEntry) []OnlineUser {
	return lo.Map(entries, func(item domain.PresenceEntry, _ int) OnlineUser {
		return OnlineUser{
			ID:     item.ID,
			Name:   item.Name,
			Roll:   item.Roll,
			Avatar: item.Avatar,
			Online: item.Online,
		}
	})
}

// encodeEvent renders a domain event as its wire envelope. ok is false for
// internal events that never leave the process.
func encodeEvent(evt event.DomainEvent) (Envelope, bool) {
	switch e := evt.(type) {
	case event.PresenceChanged:
		return marshalEnvelope(EventOnlineUsers, OnlineUsersPayload{Users: toOnlineUsers(e.Entries)})
	case event.SanitizedMessage:
		return marshalEnvelope(EventNewMessage, NewMessagePayload{Message: toMessagePayload(e.Message)})
	case event.GroupHistoryReplay:
		return marshalEnvelope(EventGroupMessageHistory, GroupMessageHistoryPayload{Messages: toMessagePayloads(e.Messages)})
	case event.DirectHistoryReplay:
		return marshalEnvelope(EventMessageHistory, MessageHistoryPayload{With: e.With, Messages: toMessagePayloads(e.Messages)})
	case event.ErrorRaised:
		return marshalEnvelope(EventError, ErrorPayload{Code: e.Code, Reason: e.Reason})
	default:
		return Envelope{}, false
	}
}

func marshalEnvelope(name string, payload any) (Envelope, bool) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, false
	}
	return Envelope{Event: name, Data: data}, true
}
