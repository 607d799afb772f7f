package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

type OrderStatus string

const (
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipped    OrderStatus = "SHIPPED"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "CASH_ON_DELIVERY"
	PaymentCard           PaymentMethod = "CARD"
	PaymentTransfer       PaymentMethod = "TRANSFER"
)

type User struct {
	ID               string `gorm:"primaryKey;size:36"`
	Name             string
	Email            string `gorm:"uniqueIndex;not null"`
	PasswordHash     string
	EmailVerifiedAt  *time.Time
	Role             Role `gorm:"size:16;not null;default:USER"`
	TwoFactorEnabled bool `gorm:"not null;default:false"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

type Category struct {
	ID        string `gorm:"primaryKey;size:36"`
	Name      string `gorm:"not null"`
	Slug      string `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type Product struct {
	ID          string          `gorm:"primaryKey;size:36"`
	Name        string          `gorm:"not null"`
	Description string
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Stock       int             `gorm:"not null;default:0;check:stock >= 0"`
	CategoryID  string          `gorm:"size:36;index"`
	Category    *Category
	ImageURL    string
	Featured    bool `gorm:"not null;default:false"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Cart is the per-user shell; lines live in CartItem. The shell survives
// checkout, only its items are cleared.
type Cart struct {
	ID        string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"size:36;uniqueIndex;not null"`
	Items     []CartItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type CartItem struct {
	ID        string `gorm:"primaryKey;size:36"`
	CartID    string `gorm:"size:36;uniqueIndex:idx_cart_product;not null"`
	ProductID string `gorm:"size:36;uniqueIndex:idx_cart_product;not null"`
	Product   *Product
	Quantity  int `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (i *CartItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

type Order struct {
	ID              string          `gorm:"primaryKey;size:36"`
	UserID          string          `gorm:"size:36;index;not null"`
	Total           decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	ShippingAddress string          `gorm:"not null"`
	PaymentMethod   PaymentMethod   `gorm:"size:32;not null"`
	Status          OrderStatus     `gorm:"size:16;not null;default:PROCESSING"`
	Items           []OrderItem
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// OrderItem snapshots name and unit price at purchase time; it is never
// recomputed from the live product.
type OrderItem struct {
	ID        string          `gorm:"primaryKey;size:36"`
	OrderID   string          `gorm:"size:36;index;not null"`
	ProductID string          `gorm:"size:36;not null"`
	Name      string          `gorm:"not null"`
	Price     decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Quantity  int             `gorm:"not null"`
	CreatedAt time.Time
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// VerificationToken is a single-use link token proving control of an email
// address. At most one live token per email; reissuing deletes priors.
type VerificationToken struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Email     string    `gorm:"index;not null"`
	Token     string    `gorm:"uniqueIndex;not null"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time
}

func (t *VerificationToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

type PasswordResetToken struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Email     string    `gorm:"uniqueIndex:idx_reset_email_token;not null"`
	Token     string    `gorm:"uniqueIndex:idx_reset_email_token;not null"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time
}

func (t *PasswordResetToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

type TwoFactorToken struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Email     string    `gorm:"uniqueIndex:idx_twofactor_email_token;not null"`
	Token     string    `gorm:"uniqueIndex:idx_twofactor_email_token;not null"`
	ExpiresAt time.Time `gorm:"not null"`
	CreatedAt time.Time
}

func (t *TwoFactorToken) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// TwoFactorConfirmation marks that a user completed the second factor for
// the current login.
type TwoFactorConfirmation struct {
	ID        string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"size:36;uniqueIndex;not null"`
	CreatedAt time.Time
}

func (c *TwoFactorConfirmation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type Favorite struct {
	ID        string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"size:36;uniqueIndex:idx_favorite_user_product;not null"`
	ProductID string `gorm:"size:36;uniqueIndex:idx_favorite_user_product;not null"`
	Product   *Product
	CreatedAt time.Time
}

func (f *Favorite) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

type Review struct {
	ID        string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"size:36;uniqueIndex:idx_review_user_product;not null"`
	ProductID string `gorm:"size:36;uniqueIndex:idx_review_user_product;not null"`
	Rating    int    `gorm:"not null"`
	Comment   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// All returns every model, in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&User{}, &Category{}, &Product{},
		&Cart{}, &CartItem{},
		&Order{}, &OrderItem{},
		&VerificationToken{}, &PasswordResetToken{},
		&TwoFactorToken{}, &TwoFactorConfirmation{},
		&Favorite{}, &Review{},
	}
}
