package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/medicothink/medicothink-backend/internal/config"
	"github.com/medicothink/medicothink-backend/internal/dto"
	"github.com/medicothink/medicothink-backend/internal/testutil"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:         "test-secret",
		JWTAccessExpiry:   15 * time.Minute,
		JWTRefreshExpiry:  720 * time.Hour,
		OtpExpiry:         10 * time.Minute,
		OtpResendCooldown: time.Minute,
	}
}

type authFixture struct {
	svc    *Service
	users  *testutil.MockUserRepository
	tokens *testutil.MockRefreshTokenRepository
	otps   *testutil.MockOtpRepository
	sender *testutil.RecordingSender
	cool   *testutil.FakeCooldown
}

func newAuthFixture() *authFixture {
	users := testutil.NewMockUserRepository()
	tokens := testutil.NewMockRefreshTokenRepository()
	otps := testutil.NewMockOtpRepository()
	sender := &testutil.RecordingSender{}
	cool := testutil.NewFakeCooldown()
	return &authFixture{
		svc:    NewService(users, tokens, otps, sender, cool, testConfig()),
		users:  users,
		tokens: tokens,
		otps:   otps,
		sender: sender,
		cool:   cool,
	}
}

// sentCode extracts the 6-digit code from the last delivered SMS.
func (f *authFixture) sentCode(t *testing.T) string {
	t.Helper()
	if len(f.sender.Messages) == 0 {
		t.Fatal("no SMS delivered")
	}
	msg := f.sender.Messages[len(f.sender.Messages)-1].Message
	for _, word := range strings.Fields(msg) {
		trimmed := strings.Trim(word, ".،")
		if len(trimmed) == 6 && strings.IndexFunc(trimmed, func(r rune) bool { return r < '0' || r > '9' }) < 0 {
			return trimmed
		}
	}
	t.Fatalf("no code found in %q", msg)
	return ""
}

func TestRegister_RejectsDuplicateEmail(t *testing.T) {
	f := newAuthFixture()
	req := &dto.RegisterRequest{Name: "Alice", Email: "alice@example.com", Password: "longenough"}

	if _, err := f.svc.Register(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Register(context.Background(), req); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
}

func TestLogin_WrongPasswordRejected(t *testing.T) {
	f := newAuthFixture()
	if _, err := f.svc.Register(context.Background(), &dto.RegisterRequest{
		Name: "Alice", Email: "alice@example.com", Password: "longenough",
	}); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.Login(context.Background(), &dto.LoginRequest{
		Email: "alice@example.com", Password: "wrongpassword",
	}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}

	resp, err := f.svc.Login(context.Background(), &dto.LoginRequest{
		Email: "alice@example.com", Password: "longenough",
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Error("token pair incomplete")
	}
}

func TestRefresh_RotatesAndRevokesOldToken(t *testing.T) {
	f := newAuthFixture()
	reg, err := f.svc.Register(context.Background(), &dto.RegisterRequest{
		Name: "Alice", Email: "alice@example.com", Password: "longenough",
	})
	if err != nil {
		t.Fatal(err)
	}

	fresh, err := f.svc.Refresh(context.Background(), &dto.RefreshRequest{RefreshToken: reg.RefreshToken})
	if err != nil {
		t.Fatal(err)
	}
	if fresh.RefreshToken == reg.RefreshToken {
		t.Error("refresh token not rotated")
	}

	// The presented token is now revoked and cannot be replayed.
	if _, err := f.svc.Refresh(context.Background(), &dto.RefreshRequest{RefreshToken: reg.RefreshToken}); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("replay err = %v, want ErrInvalidToken", err)
	}
}

func TestRefresh_ExpiredTokenRejected(t *testing.T) {
	f := newAuthFixture()
	reg, err := f.svc.Register(context.Background(), &dto.RegisterRequest{
		Name: "Alice", Email: "alice@example.com", Password: "longenough",
	})
	if err != nil {
		t.Fatal(err)
	}

	f.svc.WithClock(func() time.Time { return time.Now().Add(721 * time.Hour) })
	if _, err := f.svc.Refresh(context.Background(), &dto.RefreshRequest{RefreshToken: reg.RefreshToken}); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestRequestOtp_CooldownBlocksImmediateResend(t *testing.T) {
	f := newAuthFixture()
	phone := "+966501234567"

	if err := f.svc.RequestOtp(context.Background(), phone); err != nil {
		t.Fatal(err)
	}
	if len(f.sender.Messages) != 1 {
		t.Fatalf("delivered %d messages, want 1", len(f.sender.Messages))
	}

	if err := f.svc.RequestOtp(context.Background(), phone); !errors.Is(err, ErrOtpCooldown) {
		t.Fatalf("err = %v, want ErrOtpCooldown", err)
	}
	if len(f.sender.Messages) != 1 {
		t.Error("second SMS delivered inside cooldown window")
	}

	// After the window lapses a new code goes out.
	f.cool.Now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if err := f.svc.RequestOtp(context.Background(), phone); err != nil {
		t.Fatal(err)
	}
	if len(f.sender.Messages) != 2 {
		t.Errorf("delivered %d messages, want 2", len(f.sender.Messages))
	}
}

func TestVerifyOtp_FirstLoginCreatesAccount(t *testing.T) {
	f := newAuthFixture()
	phone := "+966501234567"

	if err := f.svc.RequestOtp(context.Background(), phone); err != nil {
		t.Fatal(err)
	}
	resp, err := f.svc.VerifyOtp(context.Background(), phone, f.sentCode(t))
	if err != nil {
		t.Fatal(err)
	}

	user, err := f.users.FindByID(context.Background(), resp.User.ID)
	if err != nil {
		t.Fatal(err)
	}
	if user.Name != "User 966501234567" {
		t.Errorf("name = %q", user.Name)
	}
	if user.Email != "966501234567@phone.medicothink.com" {
		t.Errorf("email = %q", user.Email)
	}
	if user.PhoneVerifiedAt == nil {
		t.Error("phone not marked verified")
	}
	// OTP SMS plus the welcome message.
	if len(f.sender.Messages) != 2 {
		t.Errorf("delivered %d messages, want 2", len(f.sender.Messages))
	}
}

func TestVerifyOtp_SecondLoginReusesAccount(t *testing.T) {
	f := newAuthFixture()
	phone := "+966501234567"

	if err := f.svc.RequestOtp(context.Background(), phone); err != nil {
		t.Fatal(err)
	}
	first, err := f.svc.VerifyOtp(context.Background(), phone, f.sentCode(t))
	if err != nil {
		t.Fatal(err)
	}

	f.cool.Now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if err := f.svc.RequestOtp(context.Background(), phone); err != nil {
		t.Fatal(err)
	}
	second, err := f.svc.VerifyOtp(context.Background(), phone, f.sentCode(t))
	if err != nil {
		t.Fatal(err)
	}
	if first.User.ID != second.User.ID {
		t.Error("second login created a new account")
	}
	if len(f.users.Users) != 1 {
		t.Errorf("%d users stored, want 1", len(f.users.Users))
	}
}

func TestVerifyOtp_CodeIsSingleUse(t *testing.T) {
	f := newAuthFixture()
	phone := "+966501234567"

	if err := f.svc.RequestOtp(context.Background(), phone); err != nil {
		t.Fatal(err)
	}
	code := f.sentCode(t)

	if _, err := f.svc.VerifyOtp(context.Background(), phone, code); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.VerifyOtp(context.Background(), phone, code); !errors.Is(err, ErrInvalidOtp) {
		t.Fatalf("replay err = %v, want ErrInvalidOtp", err)
	}
}

func TestVerifyOtp_WrongGuessesConsumeAttempts(t *testing.T) {
	f := newAuthFixture()
	phone := "+966501234567"

	if err := f.svc.RequestOtp(context.Background(), phone); err != nil {
		t.Fatal(err)
	}
	code := f.sentCode(t)
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	for i := 0; i < 3; i++ {
		if _, err := f.svc.VerifyOtp(context.Background(), phone, wrong); !errors.Is(err, ErrInvalidOtp) {
			t.Fatalf("guess %d err = %v, want ErrInvalidOtp", i+1, err)
		}
	}

	// The correct code is dead once the attempt budget is spent.
	if _, err := f.svc.VerifyOtp(context.Background(), phone, code); !errors.Is(err, ErrOtpAttemptsExceeded) {
		t.Fatalf("err = %v, want ErrOtpAttemptsExceeded", err)
	}
}

func TestVerifyOtp_ExpiredCodeRejected(t *testing.T) {
	f := newAuthFixture()
	phone := "+966501234567"

	if err := f.svc.RequestOtp(context.Background(), phone); err != nil {
		t.Fatal(err)
	}
	code := f.sentCode(t)

	f.svc.WithClock(func() time.Time { return time.Now().Add(11 * time.Minute) })
	if _, err := f.svc.VerifyOtp(context.Background(), phone, code); !errors.Is(err, ErrInvalidOtp) {
		t.Fatalf("err = %v, want ErrInvalidOtp", err)
	}
}

func TestVerifyOtp_NewCodeInvalidatesOldOne(t *testing.T) {
	f := newAuthFixture()
	phone := "+966501234567"

	if err := f.svc.RequestOtp(context.Background(), phone); err != nil {
		t.Fatal(err)
	}
	oldCode := f.sentCode(t)

	f.cool.Now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if err := f.svc.RequestOtp(context.Background(), phone); err != nil {
		t.Fatal(err)
	}
	newCode := f.sentCode(t)

	if oldCode != newCode {
		if _, err := f.svc.VerifyOtp(context.Background(), phone, oldCode); !errors.Is(err, ErrInvalidOtp) {
			t.Fatalf("old code err = %v, want ErrInvalidOtp", err)
		}
	}
	if _, err := f.svc.VerifyOtp(context.Background(), phone, newCode); err != nil {
		t.Fatal(err)
	}
}

func TestUpdateProfile_PatchesOnlyProvidedFields(t *testing.T) {
	f := newAuthFixture()
	reg, err := f.svc.Register(context.Background(), &dto.RegisterRequest{
		Name: "Alice", Email: "alice@example.com", Password: "longenough",
	})
	if err != nil {
		t.Fatal(err)
	}

	spec := "Cardiology"
	user, err := f.svc.UpdateProfile(context.Background(), reg.User.ID, &dto.UpdateProfileRequest{
		Specialization: &spec,
	})
	if err != nil {
		t.Fatal(err)
	}
	if user.Specialization != "Cardiology" {
		t.Errorf("specialization = %q", user.Specialization)
	}
	if user.Name != "Alice" {
		t.Errorf("name changed to %q", user.Name)
	}
}
