//go:build !integration

package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"subscription-ledger/internal/domain/model"
	"subscription-ledger/internal/infra/db/memory"
	"subscription-ledger/internal/usecase"
)

const (
	testSecret    = "test-secret"
	testAuthority = "authority-1"
)

func newTestServer(t *testing.T) (*httptest.Server, *AuthManager) {
	t.Helper()

	store := memory.NewStore()
	tm := memory.NewTxManager(store)
	registryRepo := memory.NewRegistryRepo(store)
	planRepo := memory.NewPlanRepo(store)
	intentRepo := memory.NewIntentRepo(store)
	subRepo := memory.NewSubscriptionRepo(store)
	payRepo := memory.NewPaymentRepo(store)

	logger := zerolog.New(io.Discard)

	registryUC := usecase.NewRegistryUseCase(registryRepo, tm, &logger)
	planUC := usecase.NewPlanUseCase(registryRepo, planRepo, tm, &logger)
	intentUC := usecase.NewIntentUseCase(registryRepo, planRepo, intentRepo, subRepo, tm, &logger)
	subUC := usecase.NewSubscriptionUseCase(registryRepo, planRepo, subRepo, payRepo, tm, &logger)

	auth := NewAuthManager(testSecret, time.Hour)
	srv := NewServer(registryUC, planUC, intentUC, subUC, auth, nil, 0, time.Minute, &logger)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, auth
}

func doJSON(t *testing.T, ts *httptest.Server, auth *AuthManager, identity, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if identity != "" {
		tok, err := auth.Mint(identity)
		if err != nil {
			t.Fatalf("mint token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, raw
}

func errorKind(t *testing.T, raw []byte) string {
	t.Helper()
	var body errResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode error body %q: %v", raw, err)
	}
	return body.Error.Kind
}

func initAndSeedPlan(t *testing.T, ts *httptest.Server, auth *AuthManager, planID string, price int64) {
	t.Helper()
	if resp, raw := doJSON(t, ts, auth, testAuthority, http.MethodPost, "/api/v1/registry/init",
		map[string]string{"authority": testAuthority}); resp.StatusCode != http.StatusCreated {
		t.Fatalf("init registry: %d %s", resp.StatusCode, raw)
	}
	body := map[string]any{
		"plan_id":          planID,
		"name":             "Plan " + planID,
		"price_per_period": price,
		"period_seconds":   3600,
	}
	if resp, raw := doJSON(t, ts, auth, testAuthority, http.MethodPost, "/api/v1/plans/", body); resp.StatusCode != http.StatusCreated {
		t.Fatalf("create plan: %d %s", resp.StatusCode, raw)
	}
}

func TestServer_Authentication(t *testing.T) {
	ts, auth := newTestServer(t)

	t.Run("should serve healthz without a token", func(t *testing.T) {
		resp, _ := doJSON(t, ts, auth, "", http.MethodGet, "/healthz", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
	})

	t.Run("should reject API calls without a token", func(t *testing.T) {
		resp, _ := doJSON(t, ts, auth, "", http.MethodGet, "/api/v1/plans/", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", resp.StatusCode)
		}
	})

	t.Run("should reject a token signed with the wrong secret", func(t *testing.T) {
		other := NewAuthManager("wrong-secret", time.Hour)
		tok, err := other.Mint("alice")
		if err != nil {
			t.Fatalf("mint: %v", err)
		}
		req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/plans/", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("do: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", resp.StatusCode)
		}
	})
}

func TestServer_RegistryEndpoints(t *testing.T) {
	t.Run("should initialize once and surface AlreadyInitialized after", func(t *testing.T) {
		ts, auth := newTestServer(t)

		resp, raw := doJSON(t, ts, auth, testAuthority, http.MethodPost, "/api/v1/registry/init",
			map[string]string{"authority": testAuthority})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("status = %d %s, want 201", resp.StatusCode, raw)
		}

		resp, raw = doJSON(t, ts, auth, testAuthority, http.MethodPost, "/api/v1/registry/init",
			map[string]string{"authority": "other"})
		if resp.StatusCode != http.StatusConflict {
			t.Fatalf("status = %d, want 409", resp.StatusCode)
		}
		if kind := errorKind(t, raw); kind != "AlreadyInitialized" {
			t.Errorf("kind = %q, want AlreadyInitialized", kind)
		}
	})

	t.Run("should pause and report 503 for mutations while paused", func(t *testing.T) {
		ts, auth := newTestServer(t)
		initAndSeedPlan(t, ts, auth, "plan-1", 500)

		resp, raw := doJSON(t, ts, auth, testAuthority, http.MethodPost, "/api/v1/registry/pause",
			map[string]bool{"paused": true})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("pause: %d %s", resp.StatusCode, raw)
		}

		resp, raw = doJSON(t, ts, auth, "alice", http.MethodPost, "/api/v1/subscriptions/",
			map[string]string{"plan_id": "plan-1", "subscription_id": "sub-1"})
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", resp.StatusCode)
		}
		if kind := errorKind(t, raw); kind != "SystemPaused" {
			t.Errorf("kind = %q, want SystemPaused", kind)
		}

		// Reads stay available while paused.
		resp, _ = doJSON(t, ts, auth, "alice", http.MethodGet, "/api/v1/plans/", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("list plans while paused: %d", resp.StatusCode)
		}
	})

	t.Run("should reject pause from a non-authority caller", func(t *testing.T) {
		ts, auth := newTestServer(t)
		initAndSeedPlan(t, ts, auth, "plan-1", 500)

		resp, raw := doJSON(t, ts, auth, "mallory", http.MethodPost, "/api/v1/registry/pause",
			map[string]bool{"paused": true})
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", resp.StatusCode)
		}
		if kind := errorKind(t, raw); kind != "Unauthorized" {
			t.Errorf("kind = %q, want Unauthorized", kind)
		}
	})
}

func TestServer_PlanEndpoints(t *testing.T) {
	t.Run("should create, list and patch plans", func(t *testing.T) {
		ts, auth := newTestServer(t)
		initAndSeedPlan(t, ts, auth, "plan-1", 500)

		resp, raw := doJSON(t, ts, auth, "alice", http.MethodGet, "/api/v1/plans/plan-1", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("get plan: %d %s", resp.StatusCode, raw)
		}
		var plan model.SubscriptionPlan
		if err := json.Unmarshal(raw, &plan); err != nil {
			t.Fatalf("decode plan: %v", err)
		}
		if plan.PricePerPeriod != 500 || !plan.IsActive {
			t.Errorf("plan = %+v", plan)
		}

		resp, raw = doJSON(t, ts, auth, testAuthority, http.MethodPatch, "/api/v1/plans/plan-1",
			map[string]any{"price_per_period": 750})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("patch plan: %d %s", resp.StatusCode, raw)
		}
		if err := json.Unmarshal(raw, &plan); err != nil {
			t.Fatalf("decode patched plan: %v", err)
		}
		if plan.PricePerPeriod != 750 {
			t.Errorf("patched price = %d, want 750", plan.PricePerPeriod)
		}
	})

	t.Run("should surface InvalidPrice on a bad create", func(t *testing.T) {
		ts, auth := newTestServer(t)
		initAndSeedPlan(t, ts, auth, "plan-1", 500)

		resp, raw := doJSON(t, ts, auth, testAuthority, http.MethodPost, "/api/v1/plans/",
			map[string]any{"plan_id": "plan-2", "name": "Bad", "price_per_period": -1, "period_seconds": 3600})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", resp.StatusCode)
		}
		if kind := errorKind(t, raw); kind != "InvalidPrice" {
			t.Errorf("kind = %q, want InvalidPrice", kind)
		}
	})

	t.Run("should reject plan creation from a non-authority caller", func(t *testing.T) {
		ts, auth := newTestServer(t)
		initAndSeedPlan(t, ts, auth, "plan-1", 500)

		resp, _ := doJSON(t, ts, auth, "mallory", http.MethodPost, "/api/v1/plans/",
			map[string]any{"plan_id": "plan-2", "name": "X", "price_per_period": 100, "period_seconds": 3600})
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", resp.StatusCode)
		}
	})

	t.Run("should reject a malformed body", func(t *testing.T) {
		ts, auth := newTestServer(t)
		initAndSeedPlan(t, ts, auth, "plan-1", 500)

		tok, err := auth.Mint(testAuthority)
		if err != nil {
			t.Fatalf("mint: %v", err)
		}
		req, _ := http.NewRequest(http.MethodPost, ts.URL+"/api/v1/plans/", bytes.NewBufferString("{not json"))
		req.Header.Set("Authorization", "Bearer "+tok)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("do: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", resp.StatusCode)
		}
	})
}

func TestServer_IntentEndpoints(t *testing.T) {
	t.Run("should create and fulfill an intent", func(t *testing.T) {
		ts, auth := newTestServer(t)
		initAndSeedPlan(t, ts, auth, "plan-1", 500)

		createBody := map[string]any{
			"intent_id":  "intent-1",
			"plan_id":    "plan-1",
			"amount":     500,
			"expires_at": time.Now().Add(time.Hour).Format(time.RFC3339),
		}
		resp, raw := doJSON(t, ts, auth, "alice", http.MethodPost, "/api/v1/intents/", createBody)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("create intent: %d %s", resp.StatusCode, raw)
		}

		resp, raw = doJSON(t, ts, auth, "alice", http.MethodPost, "/api/v1/intents/intent-1/fulfill",
			map[string]string{"subscription_id": "sub-1"})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("fulfill: %d %s", resp.StatusCode, raw)
		}
		var out intentFulfillResponse
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("decode fulfill response: %v", err)
		}
		if out.Intent.Status != model.IntentStatusCompleted {
			t.Errorf("intent status = %q, want completed", out.Intent.Status)
		}
		if out.Intent.Payer != "alice" {
			t.Errorf("payer = %q, want alice", out.Intent.Payer)
		}
		if out.Subscription == nil || !out.Subscription.AutoPayEnabled {
			t.Error("expected an autopay subscription in the response")
		}
	})

	t.Run("should surface InvalidPaymentAmount on a mismatched amount", func(t *testing.T) {
		ts, auth := newTestServer(t)
		initAndSeedPlan(t, ts, auth, "plan-1", 500)

		resp, raw := doJSON(t, ts, auth, "alice", http.MethodPost, "/api/v1/intents/", map[string]any{
			"intent_id":  "intent-1",
			"plan_id":    "plan-1",
			"amount":     499,
			"expires_at": time.Now().Add(time.Hour).Format(time.RFC3339),
		})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", resp.StatusCode)
		}
		if kind := errorKind(t, raw); kind != "InvalidPaymentAmount" {
			t.Errorf("kind = %q, want InvalidPaymentAmount", kind)
		}
	})

	t.Run("should let only the authority cancel an intent", func(t *testing.T) {
		ts, auth := newTestServer(t)
		initAndSeedPlan(t, ts, auth, "plan-1", 500)

		doJSON(t, ts, auth, "alice", http.MethodPost, "/api/v1/intents/", map[string]any{
			"intent_id":  "intent-1",
			"plan_id":    "plan-1",
			"amount":     500,
			"expires_at": time.Now().Add(time.Hour).Format(time.RFC3339),
		})

		resp, _ := doJSON(t, ts, auth, "alice", http.MethodPost, "/api/v1/intents/intent-1/cancel", nil)
		if resp.StatusCode != http.StatusForbidden {
			t.Fatalf("non-authority cancel: %d, want 403", resp.StatusCode)
		}
		resp, raw := doJSON(t, ts, auth, testAuthority, http.MethodPost, "/api/v1/intents/intent-1/cancel", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("authority cancel: %d %s", resp.StatusCode, raw)
		}
	})

	t.Run("should return 404 for an unknown intent", func(t *testing.T) {
		ts, auth := newTestServer(t)
		initAndSeedPlan(t, ts, auth, "plan-1", 500)

		resp, raw := doJSON(t, ts, auth, "alice", http.MethodGet, "/api/v1/intents/nope", nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", resp.StatusCode)
		}
		if kind := errorKind(t, raw); kind != "IntentNotFound" {
			t.Errorf("kind = %q, want IntentNotFound", kind)
		}
	})
}

func TestServer_SubscriptionEndpoints(t *testing.T) {
	t.Run("should run the direct subscribe, pay, cancel flow", func(t *testing.T) {
		ts, auth := newTestServer(t)
		initAndSeedPlan(t, ts, auth, "plan-1", 500)

		resp, raw := doJSON(t, ts, auth, "alice", http.MethodPost, "/api/v1/subscriptions/",
			map[string]string{"plan_id": "plan-1", "subscription_id": "sub-1"})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("subscribe: %d %s", resp.StatusCode, raw)
		}
		var sub model.UserSubscription
		if err := json.Unmarshal(raw, &sub); err != nil {
			t.Fatalf("decode sub: %v", err)
		}
		if sub.AutoPayEnabled {
			t.Error("direct subscription must not enable autopay")
		}

		resp, raw = doJSON(t, ts, auth, "alice", http.MethodPost, "/api/v1/subscriptions/sub-1/payments",
			map[string]int64{"amount": 500})
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("payment: %d %s", resp.StatusCode, raw)
		}

		resp, raw = doJSON(t, ts, auth, "alice", http.MethodGet, "/api/v1/payments", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("list payments: %d %s", resp.StatusCode, raw)
		}
		var recs []model.PaymentRecord
		if err := json.Unmarshal(raw, &recs); err != nil {
			t.Fatalf("decode payments: %v", err)
		}
		if len(recs) != 1 {
			t.Fatalf("payments = %d, want 1", len(recs))
		}

		resp, raw = doJSON(t, ts, auth, "alice", http.MethodDelete, "/api/v1/subscriptions/sub-1", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("cancel: %d %s", resp.StatusCode, raw)
		}

		resp, raw = doJSON(t, ts, auth, "alice", http.MethodPost, "/api/v1/subscriptions/sub-1/payments",
			map[string]int64{"amount": 500})
		if resp.StatusCode != http.StatusConflict {
			t.Fatalf("payment after cancel: %d, want 409", resp.StatusCode)
		}
		if kind := errorKind(t, raw); kind != "SubscriptionInactive" {
			t.Errorf("kind = %q, want SubscriptionInactive", kind)
		}
	})

	t.Run("should scope listings to the caller identity", func(t *testing.T) {
		ts, auth := newTestServer(t)
		initAndSeedPlan(t, ts, auth, "plan-1", 500)

		for i, user := range []string{"alice", "bob"} {
			resp, raw := doJSON(t, ts, auth, user, http.MethodPost, "/api/v1/subscriptions/",
				map[string]string{"plan_id": "plan-1", "subscription_id": fmt.Sprintf("sub-%d", i)})
			if resp.StatusCode != http.StatusCreated {
				t.Fatalf("subscribe %s: %d %s", user, resp.StatusCode, raw)
			}
		}

		resp, raw := doJSON(t, ts, auth, "alice", http.MethodGet, "/api/v1/subscriptions/", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("list: %d %s", resp.StatusCode, raw)
		}
		var subs []model.UserSubscription
		if err := json.Unmarshal(raw, &subs); err != nil {
			t.Fatalf("decode subs: %v", err)
		}
		if len(subs) != 1 || subs[0].User != "alice" {
			t.Fatalf("alice sees %d subs", len(subs))
		}
	})
}
