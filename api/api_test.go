package api

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	stripewebhook "github.com/stripe/stripe-go/v82/webhook"

	"github.com/zkerkeb-class/payment-services-MalicknND/ledger"
	"github.com/zkerkeb-class/payment-services-MalicknND/stripe"
)

const testWebhookSecret = "whsec_api_test_secret"

type testEnv struct {
	server *httptest.Server
	ledger *ledger.MemoryStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	config := &stripe.Config{
		APIKey:        "sk_test_123",
		WebhookSecret: testWebhookSecret,
		PriceID:       "price_test_123",
		PackageID:     "standard",
		FrontendURL:   "http://localhost:3000",
		Packages: []stripe.CreditPackage{
			{ID: "starter", Name: "Starter Pack", Credits: 50, Price: 499, Currency: "eur"},
			{ID: "standard", Name: "Standard Pack", Credits: 100, Price: 899, Currency: "eur"},
		},
	}
	store := ledger.NewMemoryStore()
	service, err := stripe.NewService(config, stripe.NewClient(config), store,
		stripe.NewMemoryEventStore(24*time.Hour))
	qt.Assert(t, err, qt.IsNil)

	a := New(&Config{
		Host:   "127.0.0.1",
		Port:   0,
		Ledger: store,
		Stripe: service,
	})
	server := httptest.NewServer(a.Router())
	t.Cleanup(server.Close)
	return &testEnv{server: server, ledger: store}
}

// request performs an HTTP call against the test server and returns the
// status code and raw body.
func (e *testEnv) request(t *testing.T, method, path string, body []byte, headers map[string]string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, e.server.URL+path, bytes.NewReader(body))
	qt.Assert(t, err, qt.IsNil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	qt.Assert(t, err, qt.IsNil)
	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.Errorf("error closing response body: %v", err)
		}
	}()
	data, err := io.ReadAll(resp.Body)
	qt.Assert(t, err, qt.IsNil)
	return resp.StatusCode, data
}

func signPayload(ts time.Time, payload []byte, secret string) string {
	sig := stripewebhook.ComputeSignature(ts, payload, secret)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(sig))
}

func checkoutCompletedPayload(eventID, userID, credits string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": %q,
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": "cs_test_1",
				"object": "checkout.session",
				"payment_status": "paid",
				"payment_intent": "pi_%s",
				"metadata": {"userId": %q, "credits": %q, "packageId": "standard"}
			}
		}
	}`, eventID, eventID, userID, credits))
}

// deliverEvent posts a correctly signed webhook event.
func (e *testEnv) deliverEvent(t *testing.T, payload []byte) (int, []byte) {
	t.Helper()
	return e.request(t, http.MethodPost, "/api/webhook/stripe", payload, map[string]string{
		"Stripe-Signature": signPayload(time.Now(), payload, testWebhookSecret),
	})
}

func decodeEnvelope(t *testing.T, body []byte) map[string]json.RawMessage {
	t.Helper()
	envelope := map[string]json.RawMessage{}
	qt.Assert(t, json.Unmarshal(body, &envelope), qt.IsNil)
	return envelope
}

func TestWebhookCreditsAndDebitFlow(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(t)

	// deliver a paid checkout session worth 100 credits
	status, body := env.deliverEvent(t, checkoutCompletedPayload("evt_flow_1", "u1", "100"))
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(string(body), qt.JSONEquals, map[string]bool{"received": true})

	// the balance endpoint reflects the credit
	status, body = env.request(t, http.MethodGet, "/api/credits/u1", nil, nil)
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(string(body), qt.JSONEquals, map[string]any{
		"success": true,
		"data": map[string]any{
			"userId":      "u1",
			"credits":     100,
			"canGenerate": true,
		},
	})

	// a debit of 30 leaves 70
	debitBody, err := json.Marshal(map[string]any{"userId": "u1", "amount": 30})
	c.Assert(err, qt.IsNil)
	status, body = env.request(t, http.MethodPost, "/api/credits/use", debitBody, nil)
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(string(body), qt.JSONEquals, map[string]any{
		"success": true,
		"data": map[string]any{
			"userId":           "u1",
			"creditsUsed":      30,
			"remainingCredits": 70,
			"canGenerate":      true,
		},
	})

	// over-debit beyond the remaining balance is a 402 with the balance
	debitBody, err = json.Marshal(map[string]any{"userId": "u1", "amount": 150})
	c.Assert(err, qt.IsNil)
	status, body = env.request(t, http.MethodPost, "/api/credits/use", debitBody, nil)
	c.Assert(status, qt.Equals, http.StatusPaymentRequired)
	envelope := decodeEnvelope(t, body)
	c.Assert(string(envelope["success"]), qt.Equals, "false")
	c.Assert(string(envelope["code"]), qt.Equals, "40201")
	c.Assert(string(envelope["data"]), qt.JSONEquals, map[string]any{
		"currentCredits":  70,
		"requiredCredits": 150,
		"canGenerate":     false,
	})

	// the failed debit did not touch the balance
	balance, err := env.ledger.Balance(context.Background(), "u1")
	c.Assert(err, qt.IsNil)
	c.Assert(balance, qt.Equals, int64(70))
}

func TestWebhookInvalidSignature(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(t)

	payload := checkoutCompletedPayload("evt_bad_sig", "u2", "100")

	// a forged signature is rejected and credits nothing
	status, body := env.request(t, http.MethodPost, "/api/webhook/stripe", payload, map[string]string{
		"Stripe-Signature": signPayload(time.Now(), payload, "whsec_wrong_secret"),
	})
	c.Assert(status, qt.Equals, http.StatusBadRequest)
	envelope := decodeEnvelope(t, body)
	c.Assert(string(envelope["code"]), qt.Equals, "40005")

	// a missing header is rejected before any verification work
	status, _ = env.request(t, http.MethodPost, "/api/webhook/stripe", payload, nil)
	c.Assert(status, qt.Equals, http.StatusBadRequest)

	balance, err := env.ledger.Balance(context.Background(), "u2")
	c.Assert(err, qt.IsNil)
	c.Assert(balance, qt.Equals, int64(0))
}

func TestWebhookRedeliveryIsIdempotent(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(t)

	payload := checkoutCompletedPayload("evt_redelivered", "u3", "50")
	for i := 0; i < 3; i++ {
		status, _ := env.deliverEvent(t, payload)
		c.Assert(status, qt.Equals, http.StatusOK)
	}

	balance, err := env.ledger.Balance(context.Background(), "u3")
	c.Assert(err, qt.IsNil)
	c.Assert(balance, qt.Equals, int64(50))
}

func TestGetCreditsUnknownUser(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(t)

	status, body := env.request(t, http.MethodGet, "/api/credits/never-seen", nil, nil)
	c.Assert(status, qt.Equals, http.StatusOK)
	c.Assert(string(body), qt.JSONEquals, map[string]any{
		"success": true,
		"data": map[string]any{
			"userId":      "never-seen",
			"credits":     0,
			"canGenerate": false,
		},
	})
}

func TestUseCreditsValidation(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(t)

	// seed a balance to prove rejected requests leave it alone
	_, err := env.ledger.Credit(context.Background(), "u4", 10)
	c.Assert(err, qt.IsNil)

	cases := []struct {
		name string
		body string
		code string
	}{
		{"malformed body", `{not json`, "40002"},
		{"missing user", `{"amount": 1}`, "40001"},
		{"zero amount", `{"userId": "u4", "amount": 0}`, "40003"},
		{"negative amount", `{"userId": "u4", "amount": -5}`, "40003"},
	}
	for _, tc := range cases {
		status, body := env.request(t, http.MethodPost, "/api/credits/use", []byte(tc.body), nil)
		c.Assert(status, qt.Equals, http.StatusBadRequest, qt.Commentf("case %q", tc.name))
		envelope := decodeEnvelope(t, body)
		c.Assert(string(envelope["code"]), qt.Equals, tc.code, qt.Commentf("case %q", tc.name))
	}

	// omitted amount defaults to a single credit
	status, body := env.request(t, http.MethodPost, "/api/credits/use", []byte(`{"userId": "u4"}`), nil)
	c.Assert(status, qt.Equals, http.StatusOK)
	envelope := decodeEnvelope(t, body)
	c.Assert(string(envelope["data"]), qt.JSONEquals, map[string]any{
		"userId":           "u4",
		"creditsUsed":      1,
		"remainingCredits": 9,
		"canGenerate":      true,
	})
}

func TestPackagesCatalog(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(t)

	status, body := env.request(t, http.MethodGet, "/api/packages", nil, nil)
	c.Assert(status, qt.Equals, http.StatusOK)
	envelope := decodeEnvelope(t, body)
	var packages []stripe.CreditPackage
	c.Assert(json.Unmarshal(envelope["data"], &packages), qt.IsNil)
	c.Assert(packages, qt.HasLen, 2)

	status, body = env.request(t, http.MethodGet, "/api/packages/standard", nil, nil)
	c.Assert(status, qt.Equals, http.StatusOK)
	envelope = decodeEnvelope(t, body)
	c.Assert(string(envelope["data"]), qt.JSONEquals, map[string]any{
		"id":       "standard",
		"name":     "Standard Pack",
		"credits":  100,
		"price":    899,
		"currency": "eur",
	})

	status, body = env.request(t, http.MethodGet, "/api/packages/nonexistent", nil, nil)
	c.Assert(status, qt.Equals, http.StatusNotFound)
	envelope = decodeEnvelope(t, body)
	c.Assert(string(envelope["code"]), qt.Equals, "40401")
}

func TestCreateSessionValidation(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(t)

	status, body := env.request(t, http.MethodPost, "/api/payment/create-session",
		[]byte(`{}`), nil)
	c.Assert(status, qt.Equals, http.StatusBadRequest)
	envelope := decodeEnvelope(t, body)
	c.Assert(string(envelope["code"]), qt.Equals, "40001")
}

func TestRouteNotFoundEnvelope(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(t)

	status, body := env.request(t, http.MethodGet, "/api/nope", nil, nil)
	c.Assert(status, qt.Equals, http.StatusNotFound)
	envelope := decodeEnvelope(t, body)
	c.Assert(string(envelope["success"]), qt.Equals, "false")
	c.Assert(string(envelope["code"]), qt.Equals, "40402")

	status, body = env.request(t, http.MethodDelete, "/api/packages", nil, nil)
	c.Assert(status, qt.Equals, http.StatusMethodNotAllowed)
	envelope = decodeEnvelope(t, body)
	c.Assert(string(envelope["code"]), qt.Equals, "40501")
}

func TestHealthEndpoint(t *testing.T) {
	c := qt.New(t)
	env := newTestEnv(t)

	status, body := env.request(t, http.MethodGet, "/health", nil, nil)
	c.Assert(status, qt.Equals, http.StatusOK)
	var health HealthInfo
	c.Assert(json.Unmarshal(body, &health), qt.IsNil)
	c.Assert(health.Status, qt.Equals, "ok")
	c.Assert(health.Service, qt.Equals, "payment-service")
}
