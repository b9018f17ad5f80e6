package port

import (
	"context"
	"net/http"
)

// DeliveryValidator authenticates transport delivery callbacks before the
// inbound use case sees them. The sender allow-list inside the use case is
// the second, independent layer.
type DeliveryValidator interface {
	ValidateDelivery(ctx context.Context, r *http.Request, body []byte) error
}
