// Package stripe provides integration with the Stripe payment service,
// handling checkout sessions and webhook events that credit the ledger.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	stripeapi "github.com/stripe/stripe-go/v82"
	"go.uber.org/zap"

	"github.com/zkerkeb-class/payment-services-MalicknND/ledger"
)

// eventHandler applies a single webhook event. Handlers are registered in
// the event map at service construction, keeping event dispatch open for
// extension without a central switch.
type eventHandler func(ctx context.Context, event *stripeapi.Event) error

// Service provides the main business logic for Stripe operations
type Service struct {
	client      API
	ledger      ledger.Store
	events      EventStore
	lockManager *LockManager
	config      *Config
	handlers    map[stripeapi.EventType]eventHandler
}

// NewService creates a new Stripe service
func NewService(config *Config, client API, store ledger.Store, events EventStore) (*Service, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if client == nil {
		return nil, fmt.Errorf("stripe client is required")
	}
	if store == nil {
		return nil, fmt.Errorf("ledger store is required")
	}
	if events == nil {
		return nil, fmt.Errorf("event store is required")
	}

	s := &Service{
		client:      client,
		ledger:      store,
		events:      events,
		lockManager: NewLockManager(),
		config:      config,
	}
	s.handlers = map[stripeapi.EventType]eventHandler{
		stripeapi.EventTypeCheckoutSessionCompleted: s.handleCheckoutSessionCompleted,
		stripeapi.EventTypePaymentIntentSucceeded:   s.handlePaymentIntentSucceeded,
	}
	return s, nil
}

// ProcessWebhookEvent verifies and applies a webhook delivery with
// at-most-once semantics per event id.
func (s *Service) ProcessWebhookEvent(ctx context.Context, payload []byte, signatureHeader string) error {
	// Validate the signature over the raw payload and parse the event
	event, err := s.client.VerifyWebhookEvent(payload, signatureHeader)
	if err != nil {
		return err
	}

	handler, ok := s.handlers[event.Type]
	if !ok {
		// Acknowledged without side effects, not an error
		zap.L().Debug("stripe webhook: unhandled event type",
			zap.String("type", string(event.Type)), zap.String("event", event.ID))
		return nil
	}

	// Claim the event id before touching the ledger. Redeliveries of an
	// already-applied event stop here.
	claimed, err := s.events.Claim(ctx, event.ID)
	if err != nil {
		return NewStripeError("ledger_unavailable", "event store claim failed", err)
	}
	if !claimed {
		zap.L().Debug("stripe webhook: event already processed, skipping",
			zap.String("event", event.ID))
		return nil
	}

	if err := handler(ctx, event); err != nil {
		// Free the claim so the provider's redelivery can retry
		if rerr := s.events.Release(ctx, event.ID); rerr != nil {
			zap.L().Error("stripe webhook: failed to release event claim",
				zap.String("event", event.ID), zap.Error(rerr))
		}
		return err
	}

	return nil
}

// handleCheckoutSessionCompleted credits the ledger when a checkout session
// finishes with a paid status.
func (s *Service) handleCheckoutSessionCompleted(ctx context.Context, event *stripeapi.Event) error {
	var session stripeapi.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return NewStripeError("invalid_event", "failed to parse checkout session from event", err)
	}

	if session.PaymentStatus == stripeapi.CheckoutSessionPaymentStatusUnpaid {
		zap.L().Debug("stripe webhook: checkout session completed but unpaid, skipping",
			zap.String("session", session.ID), zap.String("event", event.ID))
		return nil
	}

	var intentID string
	if session.PaymentIntent != nil {
		intentID = session.PaymentIntent.ID
	}
	return s.applyCredit(ctx, event.ID, intentID, session.Metadata)
}

// handlePaymentIntentSucceeded credits the ledger from the payment intent
// metadata. This is the event the original integration listened for.
func (s *Service) handlePaymentIntentSucceeded(ctx context.Context, event *stripeapi.Event) error {
	var intent stripeapi.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return NewStripeError("invalid_event", "failed to parse payment intent from event", err)
	}

	return s.applyCredit(ctx, event.ID, intent.ID, intent.Metadata)
}

// applyCredit extracts the correlation metadata and applies exactly one
// ledger mutation under the per-user lock. Stripe emits both a
// checkout.session.completed and a payment_intent.succeeded event for one
// checkout payment, each with its own event id, so the per-event dedup
// alone would credit twice. The payment intent id appears on both objects
// and is claimed as a second, payment-scoped key before the credit.
func (s *Service) applyCredit(ctx context.Context, eventID, paymentID string, metadata map[string]string) error {
	userID, credits, err := parseCreditMetadata(metadata)
	if err != nil {
		// Missing metadata is an integration bug, not an attack
		return err
	}

	unlock := s.lockManager.LockUser(userID)
	defer unlock()

	if paymentID != "" {
		claimed, err := s.events.Claim(ctx, paymentKey(paymentID))
		if err != nil {
			return NewStripeError("ledger_unavailable", "payment claim failed", err)
		}
		if !claimed {
			zap.L().Debug("stripe webhook: payment already credited, skipping",
				zap.String("event", eventID), zap.String("payment", paymentID))
			return nil
		}
	}

	balance, err := s.ledger.Credit(ctx, userID, credits)
	if err != nil {
		if paymentID != "" {
			if rerr := s.events.Release(ctx, paymentKey(paymentID)); rerr != nil {
				zap.L().Error("stripe webhook: failed to release payment claim",
					zap.String("payment", paymentID), zap.Error(rerr))
			}
		}
		return NewStripeError("ledger_unavailable",
			fmt.Sprintf("failed to credit user %s", userID), err)
	}

	zap.L().Info("stripe webhook: payment applied to ledger",
		zap.String("event", eventID),
		zap.String("user", userID),
		zap.Int64("credits", credits),
		zap.Int64("balance", balance))
	return nil
}

// paymentKey namespaces payment intent ids in the event store so they
// cannot collide with event ids.
func paymentKey(paymentID string) string {
	return "payment:" + paymentID
}

// parseCreditMetadata extracts the user id and credit count the checkout
// initiator attached to the payment.
func parseCreditMetadata(metadata map[string]string) (string, int64, error) {
	userID := metadata["userId"]
	if userID == "" {
		return "", 0, NewStripeError("malformed_metadata", "event metadata is missing userId", nil)
	}
	rawCredits := metadata["credits"]
	if rawCredits == "" {
		return "", 0, NewStripeError("malformed_metadata", "event metadata is missing credits", nil)
	}
	credits, err := strconv.ParseInt(rawCredits, 10, 64)
	if err != nil || credits < 1 {
		return "", 0, NewStripeError("malformed_metadata",
			fmt.Sprintf("event metadata carries invalid credits %q", rawCredits), err)
	}
	return userID, credits, nil
}

// CreateCheckoutSession creates a checkout session for the configured
// package, carrying the user id as opaque correlation metadata.
func (s *Service) CreateCheckoutSession(userID string) (*stripeapi.CheckoutSession, error) {
	pkg, err := s.config.DefaultPackage()
	if err != nil {
		return nil, NewStripeError("invalid_configuration", "cannot resolve credit package", err)
	}

	return s.client.CreateCheckoutSession(&CheckoutSessionParams{
		UserID:     userID,
		Package:    pkg,
		SuccessURL: s.config.FrontendURL + "/payment/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.config.FrontendURL + "/payment/cancel",
	})
}

// GetCheckoutSession retrieves a checkout session status
func (s *Service) GetCheckoutSession(sessionID string) (*CheckoutSessionStatus, error) {
	return s.client.GetCheckoutSession(sessionID)
}

// Packages returns the static credit package catalog.
func (s *Service) Packages() []CreditPackage {
	return s.config.Packages
}

// PackageByID returns a single catalog entry, or nil when unknown.
func (s *Service) PackageByID(id string) *CreditPackage {
	return s.config.PackageByID(id)
}
