package notify

import (
	"context"

	"github.com/sirupsen/logrus"

	"delivery-dispatch-service/internal/ports"
)

// LogNotifier writes messages to the log instead of a gateway. Used in local
// runs without SMS credentials.
type LogNotifier struct {
	Log logrus.FieldLogger
}

func (n *LogNotifier) Send(ctx context.Context, phone string, msg ports.Message) error {
	n.Log.WithFields(logrus.Fields{
		"phone": phone,
		"kind":  msg.Kind,
		"retry": msg.Retry,
	}).Info(Render(msg))
	return nil
}
