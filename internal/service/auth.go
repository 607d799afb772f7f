package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ivan2214/ecommerce/internal/model"
)

const CredentialsProvider = "credentials"

// LoginResult is the outcome of a credentials login. TwoFactor true means
// the password checked out but a code was mailed and login is not complete;
// otherwise Token carries the session.
type LoginResult struct {
	TwoFactor bool
	Token     string
	User      *model.User
}

type AuthService interface {
	Register(ctx context.Context, name, email, password string) error
	Login(ctx context.Context, email, password, code string) (*LoginResult, error)
	// LoginOAuth signs in an identity already verified by an external
	// provider. It trusts the email it is given, so only the gated OAuth
	// callback endpoint may call it. The credentials provider must not
	// come through here: it would bypass the email-verification gate.
	LoginOAuth(ctx context.Context, provider, email, name string) (*LoginResult, error)
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, email string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
	CurrentUser(ctx context.Context, userID string) (*model.User, error)
	ParseSession(token string) (userID string, role model.Role, err error)
}

type SessionConfig struct {
	Secret []byte
	TTL    time.Duration
}

type authService struct {
	db      *gorm.DB
	tokens  TokenService
	mailer  Mailer
	session SessionConfig
}

func NewAuthService(db *gorm.DB, tokens TokenService, mailer Mailer, session SessionConfig) AuthService {
	if session.TTL == 0 {
		session.TTL = 7 * 24 * time.Hour
	}
	return &authService{db: db, tokens: tokens, mailer: mailer, session: session}
}

func (a *authService) Register(ctx context.Context, name, email, password string) error {
	var existing model.User
	err := a.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	switch {
	case err == nil:
		if existing.EmailVerifiedAt != nil {
			return ErrEmailTaken
		}
		// Unverified holder re-registering: treat as a resend.
		return a.sendVerification(ctx, existing.Email)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u := model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleUser,
	}
	if err := a.db.WithContext(ctx).Create(&u).Error; err != nil {
		return err
	}
	return a.sendVerification(ctx, u.Email)
}

// sendVerification issues a fresh token and mails it. A failed send does not
// undo the token: it stays valid and the resend endpoint covers retries.
func (a *authService) sendVerification(ctx context.Context, email string) error {
	t, err := a.tokens.IssueVerification(ctx, email)
	if err != nil {
		return err
	}
	if err := a.mailer.SendVerificationEmail(email, t.Token); err != nil {
		slog.Error("sending verification email failed", "to", email, "error", err)
	}
	return nil
}

func (a *authService) Login(ctx context.Context, email, password, code string) (*LoginResult, error) {
	var u model.User
	err := a.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Same error as a bad password so accounts cannot be enumerated.
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if u.PasswordHash == "" {
		// OAuth-only account.
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	if u.EmailVerifiedAt == nil {
		if err := a.sendVerification(ctx, u.Email); err != nil {
			return nil, err
		}
		return nil, ErrEmailNotVerified
	}

	if u.TwoFactorEnabled {
		if code == "" {
			t, err := a.tokens.IssueTwoFactor(ctx, u.Email)
			if err != nil {
				return nil, err
			}
			// Without the mail the user cannot finish logging in, so a
			// send failure here is fatal, unlike verification sends.
			if err := a.mailer.SendTwoFactorTokenEmail(u.Email, t.Token); err != nil {
				return nil, err
			}
			return &LoginResult{TwoFactor: true}, nil
		}
		if err := a.tokens.ConsumeTwoFactor(ctx, u.Email, code); err != nil {
			return nil, err
		}
		if err := a.recordTwoFactorConfirmation(ctx, u.ID); err != nil {
			return nil, err
		}
	}

	tok, err := a.issueSession(&u)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: tok, User: &u}, nil
}

func (a *authService) recordTwoFactorConfirmation(ctx context.Context, userID string) error {
	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&model.TwoFactorConfirmation{}).Error; err != nil {
			return err
		}
		return tx.Create(&model.TwoFactorConfirmation{UserID: userID}).Error
	})
}

func (a *authService) LoginOAuth(ctx context.Context, provider, email, name string) (*LoginResult, error) {
	if provider == "" || provider == CredentialsProvider {
		return nil, ErrInvalidCredentials
	}

	var u model.User
	err := a.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		now := time.Now()
		u = model.User{
			Name:            name,
			Email:           email,
			Role:            model.RoleUser,
			EmailVerifiedAt: &now,
		}
		if err := a.db.WithContext(ctx).Create(&u).Error; err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if u.EmailVerifiedAt == nil {
			// Linking an external account proves control of the address.
			now := time.Now()
			if err := a.db.WithContext(ctx).Model(&u).Update("email_verified_at", &now).Error; err != nil {
				return nil, err
			}
			u.EmailVerifiedAt = &now
		}
	}

	tok, err := a.issueSession(&u)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: tok, User: &u}, nil
}

func (a *authService) VerifyEmail(ctx context.Context, token string) error {
	email, err := a.tokens.ConsumeVerification(ctx, token)
	if err != nil {
		return err
	}
	now := time.Now()
	return a.db.WithContext(ctx).Model(&model.User{}).
		Where("email = ?", email).
		Update("email_verified_at", &now).Error
}

// ResendVerification never reports whether the account exists or is already
// verified; callers always see success.
func (a *authService) ResendVerification(ctx context.Context, email string) error {
	var u model.User
	err := a.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if u.EmailVerifiedAt != nil {
		return nil
	}
	return a.sendVerification(ctx, u.Email)
}

// RequestPasswordReset is non-enumerable the same way.
func (a *authService) RequestPasswordReset(ctx context.Context, email string) error {
	var u model.User
	err := a.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	t, err := a.tokens.IssueReset(ctx, u.Email)
	if err != nil {
		return err
	}
	if err := a.mailer.SendPasswordResetEmail(u.Email, t.Token); err != nil {
		slog.Error("sending password reset email failed", "to", u.Email, "error", err)
	}
	return nil
}

func (a *authService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if err := a.tokens.ConsumeReset(ctx, email, code); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return a.db.WithContext(ctx).Model(&model.User{}).
		Where("email = ?", email).
		Update("password_hash", string(hash)).Error
}

func (a *authService) CurrentUser(ctx context.Context, userID string) (*model.User, error) {
	var u model.User
	err := a.db.WithContext(ctx).First(&u, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (a *authService) issueSession(u *model.User) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  u.ID,
		"typ":  "session",
		"role": string(u.Role),
		"exp":  time.Now().Add(a.session.TTL).Unix(),
	})
	return t.SignedString(a.session.Secret)
}

func (a *authService) ParseSession(token string) (string, model.Role, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.session.Secret, nil
	})
	if err != nil {
		return "", "", err
	}
	if claims["typ"] != "session" {
		return "", "", errors.New("invalid token type")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", "", errors.New("invalid sub")
	}
	role, _ := claims["role"].(string)
	return sub, model.Role(role), nil
}
