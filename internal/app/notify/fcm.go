package notify

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strconv"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/genyouth/wellness/internal/domain"
)

// ─── Firebase Cloud Messaging ───────────────────────────────────────────────

// messenger is the slice of *messaging.Client the pusher needs.
type messenger interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMPusher sends notifications through Firebase Cloud Messaging.
type FCMPusher struct {
	client messenger
}

// NewFCMPusher builds a pusher from service-account credentials. creds is
// either base64-encoded JSON (the FCM_SERVICE_ACCOUNT_JSON form) or a path
// to a key file.
func NewFCMPusher(ctx context.Context, creds string) (*FCMPusher, error) {
	var opt option.ClientOption
	if decoded, err := base64.StdEncoding.DecodeString(creds); err == nil && len(decoded) > 0 && decoded[0] == '{' {
		opt = option.WithCredentialsJSON(decoded)
	} else {
		if _, err := os.Stat(creds); err != nil {
			return nil, fmt.Errorf("firebase credentials %q: %w", creds, err)
		}
		opt = option.WithCredentialsFile(creds)
	}

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("messaging client: %w", err)
	}
	return &FCMPusher{client: client}, nil
}

// Push sends n to each token individually. Unregistered tokens are
// returned as stale. An error is returned only if every send failed.
func (p *FCMPusher) Push(ctx context.Context, tokens []string, n domain.Notification) ([]string, error) {
	var stale []string
	var lastErr error
	sent := 0
	for _, tok := range tokens {
		_, err := p.client.Send(ctx, buildMessage(tok, n))
		switch {
		case err == nil:
			sent++
		case messaging.IsUnregistered(err):
			stale = append(stale, tok)
		default:
			lastErr = err
		}
	}
	if sent == 0 && lastErr != nil {
		return stale, fmt.Errorf("all pushes failed: %w", lastErr)
	}
	return stale, nil
}

func buildMessage(token string, n domain.Notification) *messaging.Message {
	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: map[string]string{
			"type":            string(n.Type),
			"ref_id":          n.RefID,
			"notification_id": strconv.FormatInt(n.ID, 10),
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound: "default",
			},
		},
	}
}
