package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ivan2214/ecommerce/internal/model"
)

func authSetup(t *testing.T) (AuthService, TokenService, *mailRecorder, *authService) {
	t.Helper()
	db := testDB(t)
	mails := &mailRecorder{}
	tokens := NewTokenService(db, TokenConfig{})
	svc := NewAuthService(db, tokens, mails, SessionConfig{Secret: []byte("test-secret")})
	return svc, tokens, mails, svc.(*authService)
}

func TestRegisterThenVerifyThenLogin(t *testing.T) {
	svc, _, mails, impl := authSetup(t)
	ctx := context.Background()

	if err := svc.Register(ctx, "Ana", "ana@example.com", "password123"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(mails.verifications) != 1 {
		t.Fatalf("expected 1 verification mail, got %d", len(mails.verifications))
	}

	// Unverified login is blocked no matter how right the password is,
	// and a fresh token goes out.
	_, err := svc.Login(ctx, "ana@example.com", "password123", "")
	if !errors.Is(err, ErrEmailNotVerified) {
		t.Fatalf("expected ErrEmailNotVerified, got %v", err)
	}
	if len(mails.verifications) != 2 {
		t.Fatalf("expected a reissued verification mail, got %d sends", len(mails.verifications))
	}

	// The reissue invalidated the first token.
	if err := svc.VerifyEmail(ctx, mails.verifications[0]); !errors.Is(err, ErrCodeInvalid) {
		t.Fatalf("expected stale token to be rejected, got %v", err)
	}
	if err := svc.VerifyEmail(ctx, mails.verifications[1]); err != nil {
		t.Fatalf("verify: %v", err)
	}

	res, err := svc.Login(ctx, "ana@example.com", "password123", "")
	if err != nil {
		t.Fatalf("login after verify: %v", err)
	}
	if res.TwoFactor || res.Token == "" {
		t.Fatalf("expected a session, got %+v", res)
	}

	uid, role, err := svc.ParseSession(res.Token)
	if err != nil {
		t.Fatalf("parsing session: %v", err)
	}
	if uid != res.User.ID || role != model.RoleUser {
		t.Errorf("session claims mismatch: uid=%s role=%s", uid, role)
	}
	var u model.User
	if err := impl.db.First(&u, "id = ?", uid).Error; err != nil {
		t.Fatalf("loading user: %v", err)
	}
	if u.EmailVerifiedAt == nil {
		t.Error("expected EmailVerifiedAt to be set")
	}
}

func TestLoginErrorsAreOpaque(t *testing.T) {
	svc, _, _, impl := authSetup(t)
	ctx := context.Background()
	createUser(t, impl.db, "known@example.com", "rightpassword", true)

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "nobody@example.com", "whatever123"},
		{"wrong password", "known@example.com", "wrongpassword"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tc.email, tc.password, "")
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestLoginTwoFactorFlow(t *testing.T) {
	svc, _, mails, impl := authSetup(t)
	ctx := context.Background()

	u := createUser(t, impl.db, "2fa@example.com", "password123", true)
	if err := impl.db.Model(u).Update("two_factor_enabled", true).Error; err != nil {
		t.Fatalf("enabling 2FA: %v", err)
	}

	// No code: a code is mailed and login stays incomplete.
	res, err := svc.Login(ctx, "2fa@example.com", "password123", "")
	if err != nil {
		t.Fatalf("first login step: %v", err)
	}
	if !res.TwoFactor || res.Token != "" {
		t.Fatalf("expected two-factor challenge, got %+v", res)
	}
	if len(mails.twoFactors) != 1 {
		t.Fatalf("expected 1 code mail, got %d", len(mails.twoFactors))
	}

	// Wrong code.
	if _, err := svc.Login(ctx, "2fa@example.com", "password123", "999999x"); !errors.Is(err, ErrCodeInvalid) {
		t.Fatalf("expected ErrCodeInvalid, got %v", err)
	}

	// Right code completes login and records the confirmation.
	res, err = svc.Login(ctx, "2fa@example.com", "password123", mails.twoFactors[0])
	if err != nil {
		t.Fatalf("second login step: %v", err)
	}
	if res.Token == "" {
		t.Fatal("expected a session token")
	}
	var confirmation model.TwoFactorConfirmation
	if err := impl.db.First(&confirmation, "user_id = ?", u.ID).Error; err != nil {
		t.Fatalf("expected a two-factor confirmation: %v", err)
	}

	// The code is spent.
	if _, err := svc.Login(ctx, "2fa@example.com", "password123", mails.twoFactors[0]); !errors.Is(err, ErrCodeInvalid) {
		t.Fatalf("expected spent code to be rejected, got %v", err)
	}
}

func TestLoginTwoFactorExpiredCode(t *testing.T) {
	svc, _, mails, impl := authSetup(t)
	ctx := context.Background()

	u := createUser(t, impl.db, "2fa@example.com", "password123", true)
	if err := impl.db.Model(u).Update("two_factor_enabled", true).Error; err != nil {
		t.Fatalf("enabling 2FA: %v", err)
	}
	if _, err := svc.Login(ctx, "2fa@example.com", "password123", ""); err != nil {
		t.Fatalf("requesting code: %v", err)
	}
	expired := time.Now().Add(-time.Second)
	if err := impl.db.Model(&model.TwoFactorToken{}).Where("email = ?", "2fa@example.com").
		Update("expires_at", expired).Error; err != nil {
		t.Fatalf("aging code: %v", err)
	}

	_, err := svc.Login(ctx, "2fa@example.com", "password123", mails.twoFactors[0])
	if !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("expected ErrCodeExpired, not ErrCodeInvalid or success: %v", err)
	}
}

func TestRegisterTakenEmail(t *testing.T) {
	svc, _, mails, impl := authSetup(t)
	ctx := context.Background()

	createUser(t, impl.db, "taken@example.com", "password123", true)
	err := svc.Register(ctx, "Dup", "taken@example.com", "password456")
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken for a verified holder, got %v", err)
	}

	// An unverified holder gets a resend instead of an error.
	createUser(t, impl.db, "pending@example.com", "password123", false)
	if err := svc.Register(ctx, "Dup", "pending@example.com", "password456"); err != nil {
		t.Fatalf("expected resend for unverified holder, got %v", err)
	}
	if len(mails.verifications) != 1 {
		t.Fatalf("expected 1 verification mail, got %d", len(mails.verifications))
	}
}

func TestPasswordResetFlow(t *testing.T) {
	svc, _, mails, impl := authSetup(t)
	ctx := context.Background()

	createUser(t, impl.db, "reset@example.com", "oldpassword1", true)

	// Unknown addresses look identical to known ones.
	if err := svc.RequestPasswordReset(ctx, "ghost@example.com"); err != nil {
		t.Fatalf("expected silence for unknown email, got %v", err)
	}
	if len(mails.resets) != 0 {
		t.Fatal("no mail should go to unknown addresses")
	}

	if err := svc.RequestPasswordReset(ctx, "reset@example.com"); err != nil {
		t.Fatalf("requesting reset: %v", err)
	}
	if len(mails.resets) != 1 {
		t.Fatalf("expected 1 reset mail, got %d", len(mails.resets))
	}

	if err := svc.ResetPassword(ctx, "reset@example.com", "000000x", "newpassword1"); !errors.Is(err, ErrCodeInvalid) {
		t.Fatalf("expected ErrCodeInvalid, got %v", err)
	}
	if err := svc.ResetPassword(ctx, "reset@example.com", mails.resets[0], "newpassword1"); err != nil {
		t.Fatalf("resetting password: %v", err)
	}

	if _, err := svc.Login(ctx, "reset@example.com", "oldpassword1", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password should no longer work: %v", err)
	}
	if _, err := svc.Login(ctx, "reset@example.com", "newpassword1", ""); err != nil {
		t.Fatalf("new password should work: %v", err)
	}
}

func TestLoginOAuth(t *testing.T) {
	svc, _, _, impl := authSetup(t)
	ctx := context.Background()

	// The credentials provider cannot come through the OAuth door.
	if _, err := svc.LoginOAuth(ctx, CredentialsProvider, "x@example.com", "X"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected credentials provider to be refused, got %v", err)
	}

	res, err := svc.LoginOAuth(ctx, "github", "oauth@example.com", "Octo")
	if err != nil {
		t.Fatalf("oauth sign-in: %v", err)
	}
	if res.Token == "" {
		t.Fatal("expected a session token")
	}
	var u model.User
	if err := impl.db.First(&u, "email = ?", "oauth@example.com").Error; err != nil {
		t.Fatalf("loading user: %v", err)
	}
	if u.EmailVerifiedAt == nil {
		t.Error("linking an external account should stamp verification")
	}

	// An existing unverified credentials account becomes verified on link.
	createUser(t, impl.db, "linked@example.com", "password123", false)
	if _, err := svc.LoginOAuth(ctx, "github", "linked@example.com", "L"); err != nil {
		t.Fatalf("linking: %v", err)
	}
	// A fresh destination: reusing u would smuggle its primary key into
	// the query conditions.
	var linked model.User
	if err := impl.db.First(&linked, "email = ?", "linked@example.com").Error; err != nil {
		t.Fatalf("loading user: %v", err)
	}
	if linked.EmailVerifiedAt == nil {
		t.Error("expected linked account to be verified")
	}
}

func TestParseSessionRejectsNonSessionTokens(t *testing.T) {
	svc, _, _, _ := authSetup(t)

	if _, _, err := svc.ParseSession("not-a-jwt"); err == nil {
		t.Error("expected garbage to be rejected")
	}
}
