package notify

import (
	"fmt"

	"delivery-dispatch-service/internal/domain"
	"delivery-dispatch-service/internal/ports"
)

// Render produces the customer-facing text for one of the four message
// variants: (pickup|delivery) x (first attempt|retry).
func Render(msg ports.Message) string {
	switch {
	case msg.Kind == domain.KindPickup && !msg.Retry:
		return fmt.Sprintf("Hola %s! %s va en camino a recoger tu calzado.", msg.ClientName, msg.Driver)
	case msg.Kind == domain.KindPickup && msg.Retry:
		return fmt.Sprintf("Hola %s! %s va en camino nuevamente a recoger tu calzado.", msg.ClientName, msg.Driver)
	case msg.Kind == domain.KindDelivery && !msg.Retry:
		return fmt.Sprintf("Hola %s! %s va en camino a entregar tu calzado.", msg.ClientName, msg.Driver)
	default:
		return fmt.Sprintf("Hola %s! %s va en camino nuevamente a entregar tu calzado.", msg.ClientName, msg.Driver)
	}
}
