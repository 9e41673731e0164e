// Package telegram implements notify.Sink plus a small set of control
// commands (/status, /pause, /resume), grounded in the teacher's
// internal/telegram Bot/CommandHandler pattern, adapted from its
// session/position-query commands to toggle internal/live's AppState.
package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// Controller is the subset of internal/live.Engine a command handler
// needs, kept narrow so this package doesn't import internal/live
// directly (notify must not depend on the engine it notifies for).
type Controller interface {
	Stop()
	Resume() error
	Status() string
}

// Sink sends engine notifications to a configured chat and, if wired
// to a Controller, answers /status /pause /resume commands.
type Sink struct {
	api        *tgbotapi.BotAPI
	chatID     int64
	controller Controller
}

// New builds a Telegram sink authorized with token, posting to chatID.
func New(token string, chatID int64, controller Controller) (*Sink, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: authorize bot: %w", err)
	}
	log.Info().Str("username", api.Self.UserName).Msg("telegram: bot authorized")
	return &Sink{api: api, chatID: chatID, controller: controller}, nil
}

func (s *Sink) Notify(_ context.Context, text string) error {
	msg := tgbotapi.NewMessage(s.chatID, text)
	_, err := s.api.Send(msg)
	if err != nil {
		return fmt.Errorf("telegram: send: %w", err)
	}
	return nil
}

// ListenCommands blocks, dispatching /status /pause /resume to the
// wired Controller until ctx is cancelled. Any other chat is ignored.
func (s *Sink) ListenCommands(ctx context.Context) {
	if s.controller == nil {
		return
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := s.api.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			return
		case update := <-updates:
			if update.Message == nil || update.Message.Chat.ID != s.chatID {
				continue
			}
			s.handle(update.Message)
		}
	}
}

func (s *Sink) handle(msg *tgbotapi.Message) {
	reply := ""
	switch msg.Command() {
	case "status":
		reply = s.controller.Status()
	case "pause":
		s.controller.Stop()
		reply = "trading paused"
	case "resume":
		if err := s.controller.Resume(); err != nil {
			reply = fmt.Sprintf("resume failed: %v", err)
		} else {
			reply = "trading resumed"
		}
	default:
		return
	}
	if _, err := s.api.Send(tgbotapi.NewMessage(msg.Chat.ID, reply)); err != nil {
		log.Error().Err(err).Msg("telegram: reply failed")
	}
}
