package store

import (
	"context"
	"errors"
	"time"

	"veira/backend/internal/domain"
)

// Sentinel errors for the failure taxonomy shared by every repository
// implementation. Callers branch with errors.Is; implementations may
// wrap these to name the offending entity.
var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrAlreadyVoided     = errors.New("sale already voided")
)

// Repository is the persistence contract for the POS core. CreateSale
// and VoidSale are the two operations with an atomicity guarantee: each
// must apply its stock mutation and ledger write inside one critical
// section (mutex or SQL transaction), all-or-nothing.
type Repository interface {
	// Catalog.
	ListProducts(ctx context.Context, branchID string) ([]domain.ProductWithStock, error)
	GetProduct(ctx context.Context, branchID string, id string) (*domain.ProductWithStock, error)
	CreateProduct(ctx context.Context, product domain.Product, branchID string, initialStock int) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	// IncreaseStock is for restocks; decrements happen only inside
	// CreateSale and increments for reversals only inside VoidSale.
	IncreaseStock(ctx context.Context, branchID string, productID string, qty int) (int, error)

	// Sale ledger.
	CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error)
	VoidSale(ctx context.Context, id string, voidedBy string, reason string, at time.Time) (*domain.Sale, error)
	GetSale(ctx context.Context, id string) (*domain.Sale, error)
	ListSales(ctx context.Context, branchID string, limit int) ([]domain.Sale, error)

	// Staff directory.
	ListStaff(ctx context.Context) ([]domain.StaffMember, error)
	CreateStaff(ctx context.Context, member domain.StaffMember) (*domain.StaffMember, error)
	DeleteStaff(ctx context.Context, id string) error

	// Activity log: append must never fail the operation it documents;
	// the backing log is bounded and evicts oldest-first.
	AppendActivity(ctx context.Context, entry domain.ActivityLogEntry) error
	ListActivity(ctx context.Context, limit int) ([]domain.ActivityLogEntry, error)

	// Business profile.
	GetBusinessProfile(ctx context.Context) (*domain.BusinessProfile, error)
	SaveBusinessProfile(ctx context.Context, profile domain.BusinessProfile) (*domain.BusinessProfile, error)
}
