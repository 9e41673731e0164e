// Package fcm implements notify.Sink for a companion mobile app via
// Firebase Cloud Messaging, grounded in the teacher's
// internal/notifications/fcm.go FCMBackend (mock-when-unconfigured
// fallback, single-message Send call).
package fcm

import (
	"context"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// Sink sends engine notifications to a set of registered device tokens.
type Sink struct {
	client       *messaging.Client
	deviceTokens []string
	mock         bool
}

// New builds an FCM sink. If credentialsPath is empty or unreadable it
// falls back to a mock sink that only logs, matching the teacher's
// graceful-degradation behavior for missing credentials.
func New(ctx context.Context, credentialsPath string, deviceTokens []string) (*Sink, error) {
	if credentialsPath == "" {
		log.Warn().Msg("fcm: no credentials path provided, using mock sink")
		return &Sink{mock: true, deviceTokens: deviceTokens}, nil
	}
	if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
		log.Warn().Str("path", credentialsPath).Msg("fcm: credentials file not found, using mock sink")
		return &Sink{mock: true, deviceTokens: deviceTokens}, nil
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("fcm: create app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("fcm: messaging client: %w", err)
	}
	return &Sink{client: client, deviceTokens: deviceTokens}, nil
}

func (s *Sink) Notify(ctx context.Context, text string) error {
	if s.mock {
		log.Info().Str("notify", text).Msg("fcm: mock send")
		return nil
	}
	var lastErr error
	for _, token := range s.deviceTokens {
		msg := &messaging.Message{
			Token:        token,
			Notification: &messaging.Notification{Title: "freqtrade", Body: text},
		}
		if _, err := s.client.Send(ctx, msg); err != nil {
			lastErr = fmt.Errorf("fcm: send to %s: %w", token, err)
			log.Error().Err(lastErr).Msg("fcm: send failed")
		}
	}
	return lastErr
}
