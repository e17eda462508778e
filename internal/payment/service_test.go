package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/medicothink/medicothink-backend/internal/dto"
	"github.com/medicothink/medicothink-backend/internal/models"
	"github.com/medicothink/medicothink-backend/internal/subscription"
	"github.com/medicothink/medicothink-backend/internal/testutil"
)

const webhookSecret = "test-webhook-secret"

type paymentFixture struct {
	svc      *Service
	payments *testutil.MockPaymentRepository
	subs     *testutil.MockSubscriptionRepository
	subSvc   *subscription.Service
	userID   uuid.UUID
	planID   uint
}

func newPaymentFixture(t *testing.T, baseURL string) *paymentFixture {
	t.Helper()

	plans := testutil.NewMockPlanRepository()
	plans.Plans[1] = &models.SubscriptionPlan{
		ID: 1, Name: "Pro", DisplayNameEn: "Pro", Price: 29.99, Currency: "USD",
		Duration: "monthly", TokensLimit: 1000, ImagesLimit: 50, VideosLimit: 10,
		ConversationsLimit: 100, IsActive: true,
	}
	subRepo := testutil.NewMockSubscriptionRepository()
	payRepo := testutil.NewMockPaymentRepository()
	subSvc := subscription.NewService(subRepo, plans)
	client := NewPayClickClient("api-key", "secret-key", baseURL, webhookSecret)

	return &paymentFixture{
		svc:      NewService(payRepo, plans, subSvc, client, "https://app.medicothink.com"),
		payments: payRepo,
		subs:     subRepo,
		subSvc:   subSvc,
		userID:   uuid.New(),
		planID:   1,
	}
}

// pendingPayment seeds a pending subscription and payment the way
// Subscribe would, without a live checkout call.
func (f *paymentFixture) pendingPayment(t *testing.T, ref string) *models.Payment {
	t.Helper()
	sub, err := f.subSvc.CreatePending(context.Background(), f.userID, f.planID, ref)
	if err != nil {
		t.Fatal(err)
	}
	payment := &models.Payment{
		ID:             uuid.New(),
		UserID:         f.userID,
		SubscriptionID: sub.ID,
		Amount:         29.99,
		Currency:       "USD",
		Method:         "payclick",
		ProviderRef:    ref,
		Status:         models.PaymentPending,
	}
	if err := f.payments.Create(context.Background(), payment); err != nil {
		t.Fatal(err)
	}
	return payment
}

// signWebhook computes the signature over the key-sorted fields.
func signWebhook(hook *dto.PayClickWebhook) {
	fields := map[string]string{
		"payment_id": hook.PaymentID,
		"status":     hook.Status,
	}
	if hook.Amount != "" {
		fields["amount"] = hook.Amount
	}
	if hook.Currency != "" {
		fields["currency"] = hook.Currency
	}
	if hook.Timestamp != "" {
		fields["timestamp"] = hook.Timestamp
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+fields[k])
	}
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write([]byte(strings.Join(pairs, "&")))
	hook.Signature = hex.EncodeToString(mac.Sum(nil))
}

func TestSubscribe_OpensCheckoutAndRecordsPending(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/payments" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Error(err)
		}
		if req["amount"] != 29.99 || req["currency"] != "USD" {
			t.Errorf("checkout request = %v", req)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"id":           "pay_123",
			"checkout_url": "https://pay.example.com/pay_123",
		})
	}))
	defer server.Close()

	f := newPaymentFixture(t, server.URL)
	resp, err := f.svc.Subscribe(context.Background(), f.userID, f.planID)
	if err != nil {
		t.Fatal(err)
	}
	if gotAuth != "Bearer api-key" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if resp.CheckoutURL != "https://pay.example.com/pay_123" {
		t.Errorf("checkout url = %q", resp.CheckoutURL)
	}

	payment, err := f.payments.FindByProviderRef(context.Background(), "pay_123")
	if err != nil {
		t.Fatal(err)
	}
	if payment.Status != models.PaymentPending {
		t.Errorf("payment status = %q", payment.Status)
	}
	sub, err := f.subs.FindByID(context.Background(), payment.SubscriptionID)
	if err != nil {
		t.Fatal(err)
	}
	if sub.Status != models.SubscriptionPending {
		t.Errorf("subscription status = %q, activation must wait for the webhook", sub.Status)
	}
}

func TestSubscribe_UnknownPlanRejected(t *testing.T) {
	f := newPaymentFixture(t, "http://127.0.0.1:0")
	_, err := f.svc.Subscribe(context.Background(), f.userID, 99)
	if !errors.Is(err, subscription.ErrPlanNotFound) {
		t.Fatalf("err = %v, want ErrPlanNotFound", err)
	}
}

func TestHandleWebhook_CompletedActivatesSubscription(t *testing.T) {
	f := newPaymentFixture(t, "")
	payment := f.pendingPayment(t, "pay_123")

	hook := &dto.PayClickWebhook{
		PaymentID: "pay_123",
		Status:    "completed",
		Amount:    "29.99",
		Currency:  "USD",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	signWebhook(hook)

	if err := f.svc.HandleWebhook(context.Background(), hook); err != nil {
		t.Fatal(err)
	}

	stored, _ := f.payments.FindByProviderRef(context.Background(), "pay_123")
	if stored.Status != models.PaymentCompleted {
		t.Errorf("payment status = %q", stored.Status)
	}
	sub, _ := f.subs.FindByID(context.Background(), payment.SubscriptionID)
	if sub.Status != models.SubscriptionActive {
		t.Errorf("subscription status = %q, want active", sub.Status)
	}
}

func TestHandleWebhook_FailureRejectsPendingSubscription(t *testing.T) {
	statuses := []string{"failed", "cancelled", "expired"}
	for _, status := range statuses {
		t.Run(status, func(t *testing.T) {
			f := newPaymentFixture(t, "")
			payment := f.pendingPayment(t, "pay_fail")

			hook := &dto.PayClickWebhook{PaymentID: "pay_fail", Status: status}
			signWebhook(hook)

			if err := f.svc.HandleWebhook(context.Background(), hook); err != nil {
				t.Fatal(err)
			}
			sub, _ := f.subs.FindByID(context.Background(), payment.SubscriptionID)
			if sub.Status != models.SubscriptionCancelled {
				t.Errorf("subscription status = %q, want cancelled", sub.Status)
			}
		})
	}
}

func TestHandleWebhook_BadSignatureRejected(t *testing.T) {
	f := newPaymentFixture(t, "")
	f.pendingPayment(t, "pay_123")

	hook := &dto.PayClickWebhook{PaymentID: "pay_123", Status: "completed", Signature: "deadbeef"}
	err := f.svc.HandleWebhook(context.Background(), hook)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("err = %v, want ErrInvalidSignature", err)
	}

	stored, _ := f.payments.FindByProviderRef(context.Background(), "pay_123")
	if stored.Status != models.PaymentPending {
		t.Error("payment mutated despite bad signature")
	}
}

func TestHandleWebhook_UnknownReference(t *testing.T) {
	f := newPaymentFixture(t, "")
	hook := &dto.PayClickWebhook{PaymentID: "pay_unknown", Status: "completed"}
	signWebhook(hook)

	if err := f.svc.HandleWebhook(context.Background(), hook); !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("err = %v, want ErrPaymentNotFound", err)
	}
}

func TestHandleWebhook_ReplayIsIdempotent(t *testing.T) {
	f := newPaymentFixture(t, "")
	payment := f.pendingPayment(t, "pay_123")

	hook := &dto.PayClickWebhook{PaymentID: "pay_123", Status: "success"}
	signWebhook(hook)

	if err := f.svc.HandleWebhook(context.Background(), hook); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.HandleWebhook(context.Background(), hook); err != nil {
		t.Fatalf("replay err = %v", err)
	}
	sub, _ := f.subs.FindByID(context.Background(), payment.SubscriptionID)
	if sub.Status != models.SubscriptionActive {
		t.Errorf("subscription status = %q", sub.Status)
	}
}

func TestVerifySignature_EmptySignatureRejected(t *testing.T) {
	client := NewPayClickClient("", "", "", webhookSecret)
	if client.VerifySignature(map[string]string{"payment_id": "x"}, "") {
		t.Error("empty signature accepted")
	}
}

func TestMapStatus(t *testing.T) {
	tests := []struct {
		provider string
		want     string
	}{
		{"completed", models.PaymentCompleted},
		{"success", models.PaymentCompleted},
		{"failed", models.PaymentFailed},
		{"cancelled", models.PaymentFailed},
		{"expired", models.PaymentFailed},
		{"refunded", models.PaymentRefunded},
		{"partially_refunded", models.PaymentRefunded},
		{"processing", models.PaymentPending},
	}
	for _, tt := range tests {
		if got := MapStatus(tt.provider); got != tt.want {
			t.Errorf("MapStatus(%q) = %q, want %q", tt.provider, got, tt.want)
		}
	}
}
