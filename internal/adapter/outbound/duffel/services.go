package duffel

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tripforge/tripforge/internal/domain/provider"
)

// fetchServices retrieves the current ancillary service catalogue for an
// offer. Service availability and prices drift between calls, so callers
// must re-fetch immediately before building an order.
func (c *Client) fetchServices(ctx context.Context, offerID string) ([]rawService, error) {
	var raw struct {
		AvailableServices []rawService `json:"available_services"`
	}
	path := fmt.Sprintf("/air/offers/%s?return_available_services=true", offerID)
	if err := c.do(ctx, "GET", path, nil, &raw); err != nil {
		return nil, err
	}
	return raw.AvailableServices, nil
}

// reconcileServices re-prices requested selections against the live
// catalogue. Selections whose service id is no longer offered are dropped;
// quantities above the service maximum are clamped.
func reconcileServices(selections []provider.ServiceSelection, available []rawService, logger *slog.Logger) (provider.ServiceQuote, []serviceSelection) {
	quote := provider.ServiceQuote{
		Honored: make([]provider.ServiceSelection, 0, len(selections)),
		Dropped: make([]string, 0),
	}

	byID := make(map[string]rawService, len(available))
	for _, svc := range available {
		byID[svc.ID] = svc
	}

	var inputs []serviceSelection
	for _, sel := range selections {
		svc, ok := byID[sel.ServiceID]
		if !ok {
			quote.Dropped = append(quote.Dropped, sel.ServiceID)
			logger.Warn("requested service no longer offered, dropping",
				"service_id", sel.ServiceID)
			continue
		}
		qty := sel.Quantity
		if qty < 1 {
			qty = 1
		}
		if svc.MaximumQuantity > 0 && qty > svc.MaximumQuantity {
			logger.Warn("clamping service quantity to upstream maximum",
				"service_id", sel.ServiceID, "requested", qty, "maximum", svc.MaximumQuantity)
			qty = svc.MaximumQuantity
		}
		quote.Total += parseAmount(svc.TotalAmount) * float64(qty)
		if quote.Currency == "" {
			quote.Currency = svc.TotalCurrency
		}
		quote.Honored = append(quote.Honored, provider.ServiceSelection{ServiceID: sel.ServiceID, Quantity: qty})
		inputs = append(inputs, serviceSelection{ID: sel.ServiceID, Quantity: qty})
	}
	return quote, inputs
}

// toServices converts the raw catalogue to the canonical shape.
func toServices(raw []rawService) []provider.Service {
	out := make([]provider.Service, 0, len(raw))
	for _, svc := range raw {
		out = append(out, provider.Service{
			ID:              svc.ID,
			Type:            svc.Type,
			UnitAmount:      parseAmount(svc.TotalAmount),
			Currency:        svc.TotalCurrency,
			MaximumQuantity: svc.MaximumQuantity,
		})
	}
	return out
}
