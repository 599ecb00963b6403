package notify

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// Sender pushes a message to one user.
type Sender interface {
	Send(ctx context.Context, userID uint, title, body string, data map[string]string) error
}

// FCMSender publishes to the per-user topic the mobile apps subscribe to.
type FCMSender struct {
	client *messaging.Client
}

func NewFCMSender(ctx context.Context, credentialsFile string) (*FCMSender, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase messaging: %w", err)
	}
	return &FCMSender{client: client}, nil
}

func UserTopic(userID uint) string {
	return fmt.Sprintf("user-%d", userID)
}

func (s *FCMSender) Send(ctx context.Context, userID uint, title, body string, data map[string]string) error {
	_, err := s.client.Send(ctx, &messaging.Message{
		Topic: UserTopic(userID),
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	})
	return err
}
