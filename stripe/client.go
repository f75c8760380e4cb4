package stripe

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	stripeapi "github.com/stripe/stripe-go/v82"
	stripecheckoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	stripewebhook "github.com/stripe/stripe-go/v82/webhook"
)

// webhookTolerance is the accepted clock skew between the signature
// timestamp and the time of verification.
const webhookTolerance = 5 * time.Minute

// API is the Stripe surface the webhook service depends on. It exists so
// tests can substitute a double for signature verification and session
// creation.
type API interface {
	VerifyWebhookEvent(payload []byte, signatureHeader string) (*stripeapi.Event, error)
	CreateCheckoutSession(params *CheckoutSessionParams) (*stripeapi.CheckoutSession, error)
	GetCheckoutSession(sessionID string) (*CheckoutSessionStatus, error)
}

// CheckoutSessionParams holds parameters for creating a checkout session.
// Price and quantity are taken from configuration, never from the caller.
type CheckoutSessionParams struct {
	UserID     string
	Package    *CreditPackage
	SuccessURL string
	CancelURL  string
}

// CheckoutSessionStatus represents the status of a checkout session
type CheckoutSessionStatus struct {
	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus"`
	CustomerEmail string `json:"customerEmail,omitempty"`
}

// Client wraps the Stripe API client with additional functionality
type Client struct {
	config *Config
}

// NewClient creates a new Stripe client with the given configuration.
// Outbound calls carry a 30 second timeout and the SDK's bounded
// exponential-backoff retries.
func NewClient(config *Config) *Client {
	stripeapi.Key = config.APIKey
	stripeapi.SetBackend(stripeapi.APIBackend, stripeapi.GetBackendWithConfig(
		stripeapi.APIBackend,
		&stripeapi.BackendConfig{
			HTTPClient:        &http.Client{Timeout: 30 * time.Second},
			MaxNetworkRetries: stripeapi.Int64(2),
		},
	))

	return &Client{
		config: config,
	}
}

// VerifyWebhookEvent validates a webhook delivery against the signing secret
// and the tolerance window, and parses the event. The payload must be the
// exact raw bytes the provider sent.
func (c *Client) VerifyWebhookEvent(payload []byte, signatureHeader string) (*stripeapi.Event, error) {
	// Deliveries carry the API version the webhook endpoint is pinned to,
	// not the SDK's. A strict version match would reject every event from
	// an endpoint pinned elsewhere.
	event, err := stripewebhook.ConstructEventWithOptions(payload, signatureHeader, c.config.WebhookSecret,
		stripewebhook.ConstructEventOptions{
			Tolerance:                webhookTolerance,
			IgnoreAPIVersionMismatch: true,
		})
	if err != nil {
		return nil, NewStripeError("webhook_validation", "webhook signature validation failed", err)
	}
	return &event, nil
}

// CreateCheckoutSession creates a new checkout session in payment mode for
// the configured price. The user id, package id and credit count travel as
// metadata on the session and on its payment intent, so the webhook can
// correlate the completed payment back to the right ledger entry.
// Overview of stripe checkout mechanics: https://docs.stripe.com/checkout/custom/quickstart
func (c *Client) CreateCheckoutSession(params *CheckoutSessionParams) (*stripeapi.CheckoutSession, error) {
	metadata := map[string]string{
		"userId":    params.UserID,
		"packageId": params.Package.ID,
		"credits":   strconv.FormatInt(params.Package.Credits, 10),
	}

	checkoutParams := &stripeapi.CheckoutSessionParams{
		// One-shot payment mode, not subscription
		Mode: stripeapi.String(string(stripeapi.CheckoutSessionModePayment)),
		LineItems: []*stripeapi.CheckoutSessionLineItemParams{
			{
				Price:    stripeapi.String(c.config.PriceID),
				Quantity: stripeapi.Int64(1),
			},
		},
		SuccessURL: stripeapi.String(params.SuccessURL),
		CancelURL:  stripeapi.String(params.CancelURL),
		// The same correlation metadata goes on the payment intent, since
		// payment_intent.succeeded events carry the intent, not the session
		PaymentIntentData: &stripeapi.CheckoutSessionPaymentIntentDataParams{
			Metadata: metadata,
		},
	}
	checkoutParams.Metadata = metadata
	checkoutParams.SetIdempotencyKey(uuid.NewString())

	session, err := stripecheckoutsession.New(checkoutParams)
	if err != nil {
		return nil, NewStripeError("api_call_failed", "failed to create checkout session", err)
	}

	return session, nil
}

// GetCheckoutSession retrieves a checkout session by ID
func (*Client) GetCheckoutSession(sessionID string) (*CheckoutSessionStatus, error) {
	params := &stripeapi.CheckoutSessionParams{}
	params.AddExpand("line_items")

	session, err := stripecheckoutsession.Get(sessionID, params)
	if err != nil {
		return nil, NewStripeError("api_call_failed", "failed to get checkout session", err)
	}

	status := &CheckoutSessionStatus{
		Status:        string(session.Status),
		PaymentStatus: string(session.PaymentStatus),
	}
	if session.CustomerDetails != nil {
		status.CustomerEmail = session.CustomerDetails.Email
	}

	return status, nil
}
