package api

const (
	// webhook routes

	// POST /api/webhook/stripe to receive signed provider events
	webhookEndpoint = "/api/webhook/stripe"

	// credit routes

	// GET /api/credits/{userId} to read a user balance
	creditsUserEndpoint = "/api/credits/{userId}"
	// POST /api/credits/use to debit a user balance
	creditsUseEndpoint = "/api/credits/use"

	// payment routes

	// POST /api/payment/create-session to start a checkout flow
	paymentCreateSessionEndpoint = "/api/payment/create-session"
	// GET /api/payment/session/{sessionID} to read a checkout session status
	paymentSessionEndpoint = "/api/payment/session/{sessionID}"

	// catalog routes

	// GET /api/packages to list the credit packages
	packagesEndpoint = "/api/packages"
	// GET /api/packages/{packageId} to read one credit package
	packageInfoEndpoint = "/api/packages/{packageId}"

	// GET /health liveness probe
	healthEndpoint = "/health"
)
