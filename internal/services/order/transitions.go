package order

import "github.com/magabrotheeeer/storefront/internal/models"

// transitions - допустимые переходы статусов заказа. delivered и cancelled
// конечные.
var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderPending:    {models.OrderConfirmed, models.OrderCancelled},
	models.OrderConfirmed:  {models.OrderProcessing, models.OrderCancelled},
	models.OrderProcessing: {models.OrderShipped, models.OrderCancelled},
	models.OrderShipped:    {models.OrderDelivered, models.OrderCancelled},
	models.OrderDelivered:  nil,
	models.OrderCancelled:  nil,
}

// CanTransition сообщает, разрешён ли переход from → to.
func CanTransition(from, to models.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func knownStatus(s models.OrderStatus) bool {
	_, ok := transitions[s]
	return ok
}

func knownPaymentStatus(s models.PaymentStatus) bool {
	switch s {
	case models.PaymentPending, models.PaymentPaid, models.PaymentFailed, models.PaymentRefunded:
		return true
	default:
		return false
	}
}
