package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ivan2214/ecommerce/internal/model"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	if err := db.AutoMigrate(model.All()...); err != nil {
		t.Fatalf("migrating schema: %v", err)
	}
	// Each in-memory sqlite connection is its own database; keep the pool
	// at one so concurrent queries all see the migrated schema.
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	return db
}

// mailRecorder is a Mailer that remembers what it was asked to send.
type mailRecorder struct {
	mu            sync.Mutex
	verifications []string // tokens
	resets        []string // codes
	twoFactors    []string // codes
	confirmations []string // order IDs
	fail          error    // returned from every send when set
}

func (m *mailRecorder) SendVerificationEmail(to, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.verifications = append(m.verifications, token)
	return nil
}

func (m *mailRecorder) SendPasswordResetEmail(to, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.resets = append(m.resets, code)
	return nil
}

func (m *mailRecorder) SendTwoFactorTokenEmail(to, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.twoFactors = append(m.twoFactors, code)
	return nil
}

func (m *mailRecorder) SendOrderConfirmationEmail(to, orderID, total string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.confirmations = append(m.confirmations, orderID)
	return nil
}

func createUser(t *testing.T, db *gorm.DB, email, password string, verified bool) *model.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	u := &model.User{
		Name:         "Test User",
		Email:        email,
		PasswordHash: string(hash),
		Role:         model.RoleUser,
	}
	if verified {
		now := time.Now()
		u.EmailVerifiedAt = &now
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("creating user: %v", err)
	}
	return u
}

func createProduct(t *testing.T, db *gorm.DB, name string, price string, stock int) *model.Product {
	t.Helper()
	p := &model.Product{
		Name:  name,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("creating product: %v", err)
	}
	return p
}

func addCartLine(t *testing.T, db *gorm.DB, userID, productID string, qty int) {
	t.Helper()
	svc := NewCartService(db)
	if err := svc.AddItem(context.Background(), userID, productID, qty); err != nil {
		t.Fatalf("adding %d of %s to cart: %v", qty, productID, err)
	}
}
