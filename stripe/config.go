package stripe

import (
	"fmt"
	"os"
)

// CreditPackage is a static catalog entry. The catalog is built at process
// start and never mutated per request.
type CreditPackage struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Credits  int64  `json:"credits"`
	Price    int64  `json:"price"` // minor units
	Currency string `json:"currency"`
}

// Config holds the complete Stripe configuration
type Config struct {
	APIKey        string `yaml:"api_key" json:"api_key"`
	WebhookSecret string `yaml:"webhook_secret" json:"webhook_secret"`
	// PriceID is the Stripe price the checkout session sells. Price and
	// quantity are never caller-supplied.
	PriceID string `yaml:"price_id" json:"price_id"`
	// PackageID selects the catalog entry bound to PriceID.
	PackageID string `yaml:"package_id" json:"package_id"`
	// FrontendURL is the base URL the checkout session redirects back to.
	FrontendURL string          `yaml:"frontend_url" json:"frontend_url"`
	Packages    []CreditPackage `yaml:"packages" json:"packages"`
}

// NewConfig creates a new Stripe configuration from environment variables.
// The process must refuse to start without an API secret, a webhook secret
// and a price identifier.
func NewConfig() (*Config, error) {
	apiKey := os.Getenv("PAYMENT_STRIPEAPISECRET")
	if apiKey == "" {
		return nil, fmt.Errorf("PAYMENT_STRIPEAPISECRET environment variable is required")
	}

	webhookSecret := os.Getenv("PAYMENT_STRIPEWEBHOOKSECRET")
	if webhookSecret == "" {
		return nil, fmt.Errorf("PAYMENT_STRIPEWEBHOOKSECRET environment variable is required")
	}

	priceID := os.Getenv("PAYMENT_STRIPEPRICEID")
	if priceID == "" {
		return nil, fmt.Errorf("PAYMENT_STRIPEPRICEID environment variable is required")
	}

	packages := []CreditPackage{
		{
			ID:       "starter",
			Name:     "Starter Pack",
			Credits:  50,
			Price:    499,
			Currency: "eur",
		},
		{
			ID:       "standard",
			Name:     "Standard Pack",
			Credits:  100,
			Price:    899,
			Currency: "eur",
		},
		{
			ID:       "pro",
			Name:     "Pro Pack",
			Credits:  250,
			Price:    1999,
			Currency: "eur",
		},
	}

	return &Config{
		APIKey:        apiKey,
		WebhookSecret: webhookSecret,
		PriceID:       priceID,
		PackageID:     getEnvOrDefault("PAYMENT_STRIPEPACKAGEID", "standard"),
		FrontendURL:   getEnvOrDefault("PAYMENT_FRONTENDURL", "http://localhost:3000"),
		Packages:      packages,
	}, nil
}

// PackageByID returns the catalog entry with the given id, or nil.
func (c *Config) PackageByID(id string) *CreditPackage {
	for i := range c.Packages {
		if c.Packages[i].ID == id {
			return &c.Packages[i]
		}
	}
	return nil
}

// DefaultPackage returns the catalog entry sold by checkout sessions.
func (c *Config) DefaultPackage() (*CreditPackage, error) {
	if pkg := c.PackageByID(c.PackageID); pkg != nil {
		return pkg, nil
	}
	return nil, fmt.Errorf("configured package %q not found in catalog", c.PackageID)
}

// getEnvOrDefault returns the environment variable value or a default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
