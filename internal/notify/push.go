package notify

import (
	"context"

	"github.com/google/uuid"
	"github.com/muezzin/muezzin/common"
)

// Broadcaster sends a push message to every connected RPC client.
type Broadcaster interface {
	Broadcast(method string, params any)
}

// PushNotifier forwards notifications to connected front ends as
// notification.show pushes.
type PushNotifier struct {
	b Broadcaster
}

func NewPushNotifier(b Broadcaster) *PushNotifier {
	return &PushNotifier{b: b}
}

func (n *PushNotifier) Show(_ context.Context, title, body string) error {
	n.b.Broadcast(string(common.PushNotificationShow), common.NotificationShowNotification{
		ID:    uuid.NewString(),
		Title: title,
		Body:  body,
	})
	return nil
}
