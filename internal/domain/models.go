package domain

import "time"

// Money is carried as int64 cents of the business currency (KES by
// default). All arithmetic in the pricing engine and the ledger is
// integer arithmetic; rounding happens exactly once per derived value.

type Product struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Category          string `json:"category"`
	PriceCents        int64  `json:"price_cents"`
	CostCents         int64  `json:"cost_cents"`
	LowStockThreshold int    `json:"low_stock_threshold,omitempty"`
}

// ProductWithStock is the read projection of a product for one branch.
// Stock is never stored on Product itself; it lives in the per-branch
// inventory and is joined in at query time.
type ProductWithStock struct {
	Product
	Stock int `json:"stock"`
}

type ProductCreateRequest struct {
	BranchID          string `json:"branch_id,omitempty"`
	Name              string `json:"name"`
	Category          string `json:"category"`
	PriceCents        int64  `json:"price_cents"`
	CostCents         int64  `json:"cost_cents"`
	InitialStock      int    `json:"initial_stock"`
	LowStockThreshold int    `json:"low_stock_threshold,omitempty"`
}

type ProductUpdateRequest struct {
	Name              *string `json:"name,omitempty"`
	Category          *string `json:"category,omitempty"`
	PriceCents        *int64  `json:"price_cents,omitempty"`
	CostCents         *int64  `json:"cost_cents,omitempty"`
	LowStockThreshold *int    `json:"low_stock_threshold,omitempty"`
}

type RestockRequest struct {
	BranchID string `json:"branch_id,omitempty"`
	Qty      int    `json:"qty"`
}

// CartLine is an ephemeral line in an operator's cart. Name, price and
// cost are denormalized at add time; checkout re-validates stock against
// the live catalog before committing.
type CartLine struct {
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	UnitCostCents  int64  `json:"unit_cost_cents"`
	Qty            int    `json:"qty"`
	LineTotalCents int64  `json:"line_total_cents"`
}

type DiscountType string

const (
	DiscountFixed      DiscountType = "fixed"
	DiscountPercentage DiscountType = "percentage"
)

func (t DiscountType) Valid() bool {
	return t == DiscountFixed || t == DiscountPercentage
}

// DiscountConfig describes the discount applied at checkout. For Fixed
// the value is an absolute amount in cents; for Percentage it is a
// percent of the subtotal. The resolved discount is always clamped to
// [0, subtotal], so a percentage above 100 floors the total at zero
// rather than going negative.
type DiscountConfig struct {
	Type  DiscountType `json:"type"`
	Value float64      `json:"value"`
}

// Totals is the output of the pricing engine. Tax is the component of
// the tax-inclusive total attributable to VAT: total * rate / (1+rate).
type Totals struct {
	SubtotalCents int64 `json:"subtotal_cents"`
	DiscountCents int64 `json:"discount_cents"`
	TotalCents    int64 `json:"total_cents"`
	TaxCents      int64 `json:"tax_cents"`
}

type PaymentMethod string

const (
	PaymentCash        PaymentMethod = "cash"
	PaymentMpesa       PaymentMethod = "mpesa"
	PaymentCard        PaymentMethod = "card"
	PaymentMethodSplit PaymentMethod = "split"
	PaymentCredit      PaymentMethod = "credit"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentMpesa, PaymentCard, PaymentMethodSplit, PaymentCredit:
		return true
	}
	return false
}

type PaymentSplit struct {
	Method      PaymentMethod `json:"method"`
	AmountCents int64         `json:"amount_cents"`
	Reference   string        `json:"reference,omitempty"`
}

type SaleStatus string

const (
	SaleActive SaleStatus = "active"
	SaleVoided SaleStatus = "voided"
)

// SaleItem is an immutable snapshot of a cart line at checkout time.
// It copies name, price and cost so later catalog edits or deletions
// never alter history.
type SaleItem struct {
	ProductID      string `json:"product_id"`
	Name           string `json:"name"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	UnitCostCents  int64  `json:"unit_cost_cents"`
	Qty            int    `json:"qty"`
	LineTotalCents int64  `json:"line_total_cents"`
}

// Sale is the immutable record of a completed checkout. The only fields
// that ever change after creation are the void markers (status flips
// active -> voided exactly once, never back, never deleted).
type Sale struct {
	ID            string         `json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	Items         []SaleItem     `json:"items"`
	SubtotalCents int64          `json:"subtotal_cents"`
	DiscountCents int64          `json:"discount_cents"`
	Discount      DiscountConfig `json:"discount_config"`
	TotalCents    int64          `json:"total_cents"`
	TaxCents      int64          `json:"tax_cents"`
	PaymentMethod PaymentMethod  `json:"payment_method"`
	PaymentSplits []PaymentSplit `json:"payment_splits,omitempty"`
	StaffID       string         `json:"staff_id"`
	StaffName     string         `json:"staff_name"`
	BranchID      string         `json:"branch_id"`
	CustomerRef   string         `json:"customer_ref,omitempty"`
	ControlNumber string         `json:"etims_control_number"`
	Status        SaleStatus     `json:"status"`
	VoidedAt      *time.Time     `json:"voided_at,omitempty"`
	VoidedBy      string         `json:"voided_by,omitempty"`
	VoidReason    string         `json:"void_reason,omitempty"`
}

type CheckoutRequest struct {
	BranchID      string         `json:"branch_id,omitempty"`
	PaymentMethod PaymentMethod  `json:"payment_method"`
	PaymentSplits []PaymentSplit `json:"payment_splits,omitempty"`
	Discount      DiscountConfig `json:"discount"`
	CustomerRef   string         `json:"customer_ref,omitempty"`
}

type VoidRequest struct {
	Reason string `json:"reason"`
}

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCashier Role = "cashier"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleCashier
}

// CanVoid reports whether the role may reverse a committed sale. This is
// the one permission enforced inside the ledger boundary; everything
// else only gates which views are reachable.
func (r Role) CanVoid() bool {
	return r == RoleAdmin
}

type StaffMember struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	PINHash   string    `json:"-"`
	Role      Role      `json:"role"`
	BranchID  string    `json:"branch_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type StaffCreateRequest struct {
	Name     string `json:"name"`
	PIN      string `json:"pin"`
	Role     Role   `json:"role"`
	BranchID string `json:"branch_id,omitempty"`
}

type LoginRequest struct {
	PIN string `json:"pin"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	StaffID     string `json:"staff_id"`
	StaffName   string `json:"staff_name"`
	Role        Role   `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

// Actor identifies the authenticated operator for the current request.
type Actor struct {
	ID   string
	Name string
	Role Role
}

type ActivityLogEntry struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	StaffName string    `json:"staff_name"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail"`
}

type BusinessProfile struct {
	Name           string `json:"name"`
	KRAPin         string `json:"kra_pin"`
	Address        string `json:"address"`
	WhatsAppNumber string `json:"whatsapp_number,omitempty"`
	Currency       string `json:"currency"`
}

// StateSnapshot is the whole-state payload exchanged with the host
// persistence boundary. There is no migration logic; snapshots are
// written and restored wholesale, and writing one is fire-and-forget
// relative to the in-memory source of truth.
type StateSnapshot struct {
	Business BusinessProfile           `json:"business"`
	Products []Product                 `json:"products"`
	Stock    map[string]map[string]int `json:"stock"`
	Staff    []StaffMember             `json:"staff"`
	PINHash  map[string]string         `json:"pin_hashes"`
	Sales    []Sale                    `json:"sales"`
	Logs     []ActivityLogEntry        `json:"logs"`
}

type DailySummary struct {
	Date             string `json:"date"`
	TotalCents       int64  `json:"total_cents"`
	TransactionCount int    `json:"transaction_count"`
	TopProduct       string `json:"top_product"`
	Message          string `json:"message"`
	Generated        bool   `json:"generated"`
}
