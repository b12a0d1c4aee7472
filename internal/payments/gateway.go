package payments

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"github.com/shopspring/decimal"
)

var ErrMissingAccessToken = errors.New("missing MERCADOPAGO_ACCESS_TOKEN")
var ErrGatewayNotConfigured = errors.New("payment gateway not configured")

// PixRequest asks the provider for a pix charge.
type PixRequest struct {
	Reference   string
	Description string
	Amount      decimal.Decimal
}

// PixCharge is the provider's answer: scan the QR code (or follow the
// ticket URL) to pay.
type PixCharge struct {
	ProviderID string `json:"provider_id"`
	Status     string `json:"status"`
	QRCode     string `json:"qr_code"`
	TicketURL  string `json:"ticket_url"`
}

// Gateway creates pix charges with an external payment provider.
type Gateway interface {
	CreatePixCharge(ctx context.Context, req PixRequest) (*PixCharge, error)
}

// MercadoPagoGateway implements Gateway against the Mercado Pago API.
// With PAYMENT_GATEWAY_MOCK set it fabricates approved charges locally,
// which keeps development and tests off the real provider.
type MercadoPagoGateway struct {
	client   payment.Client
	mockMode bool
}

func NewMercadoPagoGateway(accessToken string) (*MercadoPagoGateway, error) {
	if mockEnabled() {
		log.Printf("[payments] mock mode enabled")
		return &MercadoPagoGateway{mockMode: true}, nil
	}
	if accessToken == "" {
		return nil, ErrMissingAccessToken
	}
	cfg, err := config.New(accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to configure payment sdk: %w", err)
	}
	return &MercadoPagoGateway{client: payment.NewClient(cfg)}, nil
}

func (g *MercadoPagoGateway) CreatePixCharge(ctx context.Context, req PixRequest) (*PixCharge, error) {
	if g != nil && g.mockMode {
		id := strconv.FormatInt(time.Now().UTC().UnixNano(), 10)
		log.Printf("[payments] mock pix charge reference=%s amount=%s provider_id=%s",
			req.Reference, req.Amount.StringFixed(2), id)
		return &PixCharge{
			ProviderID: id,
			Status:     "pending",
			QRCode:     "mock-qr-" + id,
			TicketURL:  "https://example.invalid/pix/" + id,
		}, nil
	}
	if g == nil || g.client == nil {
		return nil, ErrGatewayNotConfigured
	}

	amount, _ := req.Amount.Round(2).Float64()
	resp, err := g.client.Create(ctx, payment.Request{
		TransactionAmount: amount,
		Description:       req.Description,
		PaymentMethodID:   "pix",
		ExternalReference: req.Reference,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pix charge: %w", err)
	}

	charge := &PixCharge{
		ProviderID: strconv.Itoa(resp.ID),
		Status:     resp.Status,
	}
	if td := resp.PointOfInteraction.TransactionData; td.QRCode != "" || td.TicketURL != "" {
		charge.QRCode = td.QRCode
		charge.TicketURL = td.TicketURL
	}
	log.Printf("[payments] pix charge created reference=%s provider_id=%s status=%s",
		req.Reference, charge.ProviderID, charge.Status)
	return charge, nil
}

func mockEnabled() bool {
	for _, key := range []string{"PAYMENT_GATEWAY_MOCK", "MERCADOPAGO_MOCK"} {
		v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
		switch v {
		case "1", "true", "yes", "on", "mock":
			return true
		}
	}
	return false
}
