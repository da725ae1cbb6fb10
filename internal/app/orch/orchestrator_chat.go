package orch

import (
	"fmt"

	"github.com/NikolasNeofytou/task-flow/internal/app"
	"github.com/NikolasNeofytou/task-flow/internal/core"
	"github.com/NikolasNeofytou/task-flow/internal/domain"
)

type typingEvent struct {
	ChannelID string        `json:"channelId"`
	UserID    domain.UserID `json:"userId"`
	UserName  string        `json:"userName"`
	IsTyping  bool          `json:"isTyping"`
}

func (o *Orchestrator) JoinChat(conn core.ConnID, channelID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, err := o.Session(conn); err != nil {
		return err
	}
	if channelID == "" {
		return fmt.Errorf("%w: channelId required", domain.ErrValidation)
	}
	o.Router.JoinChannel(conn, domain.ChatChannel(channelID))
	return nil
}

func (o *Orchestrator) LeaveChat(conn core.ConnID, channelID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, err := o.Session(conn); err != nil {
		return err
	}
	o.Router.LeaveChannel(conn, domain.ChatChannel(channelID))
	return nil
}

func (o *Orchestrator) SendMessage(conn core.ConnID, channelID string, content domain.MessageContent) (domain.Message, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	var author *app.Session
	if sess, err := o.Session(conn); err == nil {
		author = &sess
	}
	return o.Messages.Append(channelID, author, content)
}

// Typing relays a typing indicator to the rest of the channel. Nothing is stored.
func (o *Orchestrator) Typing(conn core.ConnID, channelID string, isTyping bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	sess, err := o.Session(conn)
	if err != nil {
		return err
	}
	o.Router.Broadcast(domain.ChatChannel(channelID), core.EventChatTyping, typingEvent{
		ChannelID: channelID,
		UserID:    sess.Identity.UserID,
		UserName:  sess.Identity.UserName,
		IsTyping:  isTyping,
	}, conn)
	return nil
}

func (o *Orchestrator) MarkViewed(conn core.ConnID, channelID, messageID string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	sess, err := o.Session(conn)
	if err != nil {
		return err
	}
	_, _, err = o.Messages.MarkViewed(channelID, messageID, sess.Identity)
	return err
}

func (o *Orchestrator) SetPinned(conn core.ConnID, channelID, messageID string, pinned bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	sess, err := o.Session(conn)
	if err != nil {
		return err
	}
	_, err = o.Messages.SetPinned(channelID, messageID, pinned, sess.Identity)
	return err
}
