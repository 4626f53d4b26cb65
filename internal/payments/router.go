package payments

import (
	"context"
	"fmt"

	"github.com/pnpbots/pnptv-app-sub003/internal/domain"
	"github.com/pnpbots/pnptv-app-sub003/internal/models"

	"github.com/shopspring/decimal"
)

// Router picks a payment provider by method name. Both the charge
// initiation and the eventual refund go through the same provider.
type Router struct {
	providers map[string]domain.PaymentProvider
}

func NewRouter() *Router {
	return &Router{providers: make(map[string]domain.PaymentProvider)}
}

// Register binds a payment method to a provider.
func (r *Router) Register(method string, provider domain.PaymentProvider) {
	r.providers[method] = provider
}

// Provider returns the provider for a payment method.
func (r *Router) Provider(method string) (domain.PaymentProvider, error) {
	p, ok := r.providers[method]
	if !ok {
		return nil, fmt.Errorf("no payment provider registered for method %q", method)
	}
	return p, nil
}

// InitiateCharge routes the charge to the provider for the given method.
func (r *Router) InitiateChargeVia(ctx context.Context, method string, amount decimal.Decimal, currency, reference string) (*domain.ChargeSession, error) {
	p, err := r.Provider(method)
	if err != nil {
		return nil, err
	}
	return p.InitiateCharge(ctx, amount, currency, reference)
}

// RefundVia routes the refund to the provider for the given method.
func (r *Router) RefundVia(ctx context.Context, method string, bookingID int64, amount decimal.Decimal, currency, reason string) error {
	p, err := r.Provider(method)
	if err != nil {
		return err
	}
	return p.ProcessRefund(ctx, bookingID, amount, currency, reason)
}

// DefaultMethod falls back to card when the caller did not pick one.
func DefaultMethod(method string) string {
	if method == "" {
		return models.PaymentMethodCard
	}
	return method
}
