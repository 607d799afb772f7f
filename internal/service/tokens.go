package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"math/big"
	"time"

	"gorm.io/gorm"

	"github.com/ivan2214/ecommerce/internal/model"
)

// TokenService issues and consumes the single-use credentials behind email
// verification, password reset and two-factor login. A token lives in the
// database (never process memory) so it is valid across instances, and
// consumption is guarded by the delete's affected-row count so concurrent
// attempts can never both succeed.
type TokenService interface {
	IssueVerification(ctx context.Context, email string) (*model.VerificationToken, error)
	ConsumeVerification(ctx context.Context, token string) (string, error) // returns email
	IssueReset(ctx context.Context, email string) (*model.PasswordResetToken, error)
	ConsumeReset(ctx context.Context, email, code string) error
	IssueTwoFactor(ctx context.Context, email string) (*model.TwoFactorToken, error)
	ConsumeTwoFactor(ctx context.Context, email, code string) error
}

type TokenConfig struct {
	VerificationTTL time.Duration // link tokens, hours-scale
	ResetTTL        time.Duration // numeric codes, up to an hour
	TwoFactorTTL    time.Duration // numeric codes, minutes-scale
	OTPDigits       int
}

func (c *TokenConfig) defaults() {
	if c.VerificationTTL == 0 {
		c.VerificationTTL = 24 * time.Hour
	}
	if c.ResetTTL == 0 {
		c.ResetTTL = time.Hour
	}
	if c.TwoFactorTTL == 0 {
		c.TwoFactorTTL = 5 * time.Minute
	}
	if c.OTPDigits == 0 {
		c.OTPDigits = 6
	}
}

type tokenService struct {
	db  *gorm.DB
	cfg TokenConfig
}

func NewTokenService(db *gorm.DB, cfg TokenConfig) TokenService {
	cfg.defaults()
	return &tokenService{db: db, cfg: cfg}
}

func (s *tokenService) IssueVerification(ctx context.Context, email string) (*model.VerificationToken, error) {
	raw, err := randomHex(32)
	if err != nil {
		return nil, err
	}
	t := &model.VerificationToken{
		Email:     email,
		Token:     raw,
		ExpiresAt: time.Now().Add(s.cfg.VerificationTTL),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// A reissue invalidates any outstanding token for the address.
		if err := tx.Where("email = ?", email).Delete(&model.VerificationToken{}).Error; err != nil {
			return err
		}
		return tx.Create(t).Error
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *tokenService) ConsumeVerification(ctx context.Context, token string) (string, error) {
	var rec model.VerificationToken
	err := s.db.WithContext(ctx).Where("token = ?", token).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrCodeInvalid
	}
	if err != nil {
		return "", err
	}
	return s.finishConsume(ctx, &model.VerificationToken{}, rec.ID, rec.Email, rec.ExpiresAt)
}

func (s *tokenService) IssueReset(ctx context.Context, email string) (*model.PasswordResetToken, error) {
	code, err := randomOTP(s.cfg.OTPDigits)
	if err != nil {
		return nil, err
	}
	t := &model.PasswordResetToken{
		Email:     email,
		Token:     code,
		ExpiresAt: time.Now().Add(s.cfg.ResetTTL),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", email).Delete(&model.PasswordResetToken{}).Error; err != nil {
			return err
		}
		return tx.Create(t).Error
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *tokenService) ConsumeReset(ctx context.Context, email, code string) error {
	var rec model.PasswordResetToken
	err := s.db.WithContext(ctx).Where("email = ? AND token = ?", email, code).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCodeInvalid
	}
	if err != nil {
		return err
	}
	_, err = s.finishConsume(ctx, &model.PasswordResetToken{}, rec.ID, rec.Email, rec.ExpiresAt)
	return err
}

func (s *tokenService) IssueTwoFactor(ctx context.Context, email string) (*model.TwoFactorToken, error) {
	code, err := randomOTP(s.cfg.OTPDigits)
	if err != nil {
		return nil, err
	}
	t := &model.TwoFactorToken{
		Email:     email,
		Token:     code,
		ExpiresAt: time.Now().Add(s.cfg.TwoFactorTTL),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", email).Delete(&model.TwoFactorToken{}).Error; err != nil {
			return err
		}
		return tx.Create(t).Error
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *tokenService) ConsumeTwoFactor(ctx context.Context, email, code string) error {
	var rec model.TwoFactorToken
	err := s.db.WithContext(ctx).Where("email = ? AND token = ?", email, code).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrCodeInvalid
	}
	if err != nil {
		return err
	}
	_, err = s.finishConsume(ctx, &model.TwoFactorToken{}, rec.ID, rec.Email, rec.ExpiresAt)
	return err
}

// finishConsume deletes the located token row by primary key. Expired tokens
// are removed and reported as such. The affected-row count decides a race:
// whoever deletes the row owns the token, everyone else gets ErrCodeInvalid.
func (s *tokenService) finishConsume(ctx context.Context, dest any, id, email string, expiresAt time.Time) (string, error) {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(dest)
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		return "", ErrCodeInvalid
	}
	if time.Now().After(expiresAt) {
		return "", ErrCodeExpired
	}
	return email, nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// randomOTP returns a zero-padded numeric code of the given length.
func randomOTP(digits int) (string, error) {
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	s := n.String()
	for len(s) < digits {
		s = "0" + s
	}
	return s, nil
}
