// Package postgres implements store.Repository on PostgreSQL via the
// pgx stdlib driver. Schema is provisioned out of band; see the table
// list in DESIGN.md. CreateSale and VoidSale run as serializable
// transactions with row locks on branch_stock, mirroring the in-memory
// store's single-critical-section guarantee.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"veira/backend/internal/domain"
	"veira/backend/internal/store"
	"veira/backend/internal/xid"
)

const maxActivityLogEntries = 500

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListProducts(ctx context.Context, branchID string) ([]domain.ProductWithStock, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, p.name, p.category, p.price_cents, p.cost_cents, p.low_stock_threshold,
			COALESCE(bs.qty, 0)
		FROM products p
		LEFT JOIN branch_stock bs ON bs.product_id = p.id AND bs.branch_id = $1
		ORDER BY p.category, p.name
	`, branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.ProductWithStock, 0, 128)
	for rows.Next() {
		var p domain.ProductWithStock
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.PriceCents, &p.CostCents, &p.LowStockThreshold, &p.Stock); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) GetProduct(ctx context.Context, branchID string, id string) (*domain.ProductWithStock, error) {
	var p domain.ProductWithStock
	err := s.db.QueryRowContext(ctx, `
		SELECT p.id, p.name, p.category, p.price_cents, p.cost_cents, p.low_stock_threshold,
			COALESCE(bs.qty, 0)
		FROM products p
		LEFT JOIN branch_stock bs ON bs.product_id = p.id AND bs.branch_id = $1
		WHERE p.id = $2
	`, branchID, id).Scan(&p.ID, &p.Name, &p.Category, &p.PriceCents, &p.CostCents, &p.LowStockThreshold, &p.Stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product, branchID string, initialStock int) (*domain.Product, error) {
	if product.ID == "" || product.Name == "" {
		return nil, fmt.Errorf("%w: product requires id and name", store.ErrValidation)
	}
	if product.PriceCents < 0 || product.CostCents < 0 || initialStock < 0 {
		return nil, fmt.Errorf("%w: price, cost and stock must not be negative", store.ErrValidation)
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO products (id, name, category, price_cents, cost_cents, low_stock_threshold, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,now(),now())
	`, product.ID, product.Name, product.Category, product.PriceCents, product.CostCents, product.LowStockThreshold)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: duplicate product id %s", store.ErrValidation, product.ID)
		}
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO branch_stock (branch_id, product_id, qty, updated_at)
		VALUES ($1,$2,$3,now())
		ON CONFLICT (branch_id, product_id)
		DO UPDATE SET qty = EXCLUDED.qty, updated_at = now()
	`, branchID, product.ID, initialStock)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.ID == "" || product.Name == "" {
		return nil, fmt.Errorf("%w: product requires id and name", store.ErrValidation)
	}
	if product.PriceCents < 0 || product.CostCents < 0 {
		return nil, fmt.Errorf("%w: price and cost must not be negative", store.ErrValidation)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, category = $3, price_cents = $4, cost_cents = $5, low_stock_threshold = $6, updated_at = now()
		WHERE id = $1
	`, product.ID, product.Name, product.Category, product.PriceCents, product.CostCents, product.LowStockThreshold)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	updated := product
	return &updated, nil
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	// Sale items snapshot product data, so deletion never touches history.
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM branch_stock WHERE product_id = $1`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) IncreaseStock(ctx context.Context, branchID string, productID string, qty int) (int, error) {
	if qty < 1 {
		return 0, fmt.Errorf("%w: restock quantity must be at least 1", store.ErrValidation)
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists); err != nil {
		return 0, err
	}
	if !exists {
		return 0, store.ErrNotFound
	}

	var level int
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO branch_stock (branch_id, product_id, qty, updated_at)
		VALUES ($1,$2,$3,now())
		ON CONFLICT (branch_id, product_id)
		DO UPDATE SET qty = branch_stock.qty + EXCLUDED.qty, updated_at = now()
		RETURNING qty
	`, branchID, productID, qty).Scan(&level)
	if err != nil {
		return 0, err
	}
	return level, nil
}

// CreateSale decrements stock and writes the sale plus its items in one
// serializable transaction. Stock rows are locked with FOR UPDATE and
// re-checked inside the transaction, so an insufficient line rolls the
// whole settlement back.
func (s *Store) CreateSale(ctx context.Context, sale domain.Sale) (*domain.Sale, error) {
	if len(sale.Items) == 0 {
		return nil, fmt.Errorf("%w: sale has no items", store.ErrValidation)
	}
	if sale.StaffID == "" {
		return nil, fmt.Errorf("%w: sale has no operator", store.ErrValidation)
	}
	if sale.ID == "" {
		sale.ID = xid.New("sale")
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}
	if sale.Status == "" {
		sale.Status = domain.SaleActive
	}

	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	for _, item := range sale.Items {
		if item.Qty < 1 {
			return nil, fmt.Errorf("%w: quantity for %s must be at least 1", store.ErrValidation, item.Name)
		}
		var exists bool
		if err := pgTx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, item.ProductID).Scan(&exists); err != nil {
			return nil, err
		}
		if !exists {
			return nil, fmt.Errorf("%w: product %s no longer exists", store.ErrNotFound, item.Name)
		}

		var qty int
		err := pgTx.QueryRowContext(ctx, `
			SELECT qty FROM branch_stock
			WHERE branch_id = $1 AND product_id = $2
			FOR UPDATE
		`, sale.BranchID, item.ProductID).Scan(&qty)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		if qty < item.Qty {
			return nil, fmt.Errorf("%w: %s", store.ErrInsufficientStock, item.Name)
		}
		_, err = pgTx.ExecContext(ctx, `
			UPDATE branch_stock
			SET qty = qty - $1, updated_at = now()
			WHERE branch_id = $2 AND product_id = $3
		`, item.Qty, sale.BranchID, item.ProductID)
		if err != nil {
			return nil, err
		}
	}

	splits, err := marshalSplits(sale.PaymentSplits)
	if err != nil {
		return nil, err
	}
	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO sales (
			id, branch_id, staff_id, staff_name, subtotal_cents, discount_cents,
			discount_type, discount_value, total_cents, tax_cents, payment_method,
			payment_splits, customer_ref, control_number, status, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
	`, sale.ID, sale.BranchID, sale.StaffID, sale.StaffName, sale.SubtotalCents, sale.DiscountCents,
		nullIfEmpty(string(sale.Discount.Type)), sale.Discount.Value, sale.TotalCents, sale.TaxCents,
		sale.PaymentMethod, splits, nullIfEmpty(sale.CustomerRef), sale.ControlNumber, sale.Status, sale.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: duplicate sale id %s", store.ErrValidation, sale.ID)
		}
		return nil, err
	}

	for _, item := range sale.Items {
		_, err := pgTx.ExecContext(ctx, `
			INSERT INTO sale_items (sale_id, product_id, name, qty, unit_price_cents, unit_cost_cents, line_total_cents)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, sale.ID, item.ProductID, item.Name, item.Qty, item.UnitPriceCents, item.UnitCostCents, item.LineTotalCents)
		if err != nil {
			return nil, err
		}
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}
	return &sale, nil
}

// VoidSale flips the sale row to voided and restores stock in the same
// transaction. A product deleted since the sale gets no restock.
func (s *Store) VoidSale(ctx context.Context, id string, voidedBy string, reason string, at time.Time) (*domain.Sale, error) {
	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	var branchID string
	var status domain.SaleStatus
	err = pgTx.QueryRowContext(ctx, `
		SELECT branch_id, status
		FROM sales
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&branchID, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if status != domain.SaleActive {
		return nil, store.ErrAlreadyVoided
	}

	rows, err := pgTx.QueryContext(ctx, `
		SELECT product_id, qty
		FROM sale_items
		WHERE sale_id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	type restock struct {
		productID string
		qty       int
	}
	restocks := make([]restock, 0, 8)
	for rows.Next() {
		var r restock
		if err := rows.Scan(&r.productID, &r.qty); err != nil {
			_ = rows.Close()
			return nil, err
		}
		restocks = append(restocks, r)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	for _, r := range restocks {
		_, err := pgTx.ExecContext(ctx, `
			UPDATE branch_stock
			SET qty = qty + $1, updated_at = now()
			WHERE branch_id = $2 AND product_id = $3
				AND EXISTS (SELECT 1 FROM products WHERE id = $3)
		`, r.qty, branchID, r.productID)
		if err != nil {
			return nil, err
		}
	}

	voidedAt := at.UTC()
	_, err = pgTx.ExecContext(ctx, `
		UPDATE sales
		SET status = $2, voided_at = $3, voided_by = $4, void_reason = $5
		WHERE id = $1 AND status = $6
	`, id, domain.SaleVoided, voidedAt, voidedBy, reason, domain.SaleActive)
	if err != nil {
		return nil, err
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}
	return s.GetSale(ctx, id)
}

func (s *Store) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	sale, err := scanSale(s.db.QueryRowContext(ctx, saleSelect+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	items, err := s.saleItems(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	sale.Items = items[id]
	return sale, nil
}

func (s *Store) ListSales(ctx context.Context, branchID string, limit int) ([]domain.Sale, error) {
	if limit < 1 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, saleSelect+`
		WHERE ($1 = '' OR branch_id = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, branchID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, limit)
	ids := make([]string, 0, limit)
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, *sale)
		ids = append(ids, sale.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	itemsByID, err := s.saleItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range sales {
		sales[i].Items = itemsByID[sales[i].ID]
	}
	return sales, nil
}

const saleSelect = `
	SELECT id, branch_id, staff_id, staff_name, subtotal_cents, discount_cents,
		COALESCE(discount_type,''), discount_value, total_cents, tax_cents, payment_method,
		payment_splits, COALESCE(customer_ref,''), control_number, status,
		voided_at, COALESCE(voided_by,''), COALESCE(void_reason,''), created_at
	FROM sales
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSale(row rowScanner) (*domain.Sale, error) {
	var sale domain.Sale
	var discountType string
	var splits []byte
	var voidedAt sql.NullTime
	err := row.Scan(
		&sale.ID,
		&sale.BranchID,
		&sale.StaffID,
		&sale.StaffName,
		&sale.SubtotalCents,
		&sale.DiscountCents,
		&discountType,
		&sale.Discount.Value,
		&sale.TotalCents,
		&sale.TaxCents,
		&sale.PaymentMethod,
		&splits,
		&sale.CustomerRef,
		&sale.ControlNumber,
		&sale.Status,
		&voidedAt,
		&sale.VoidedBy,
		&sale.VoidReason,
		&sale.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	sale.Discount.Type = domain.DiscountType(discountType)
	sale.CreatedAt = sale.CreatedAt.UTC()
	if voidedAt.Valid {
		at := voidedAt.Time.UTC()
		sale.VoidedAt = &at
	}
	if len(splits) > 0 {
		if err := json.Unmarshal(splits, &sale.PaymentSplits); err != nil {
			return nil, err
		}
	}
	return &sale, nil
}

func (s *Store) saleItems(ctx context.Context, saleIDs []string) (map[string][]domain.SaleItem, error) {
	result := make(map[string][]domain.SaleItem, len(saleIDs))
	if len(saleIDs) == 0 {
		return result, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT sale_id, product_id, name, qty, unit_price_cents, unit_cost_cents, line_total_cents
		FROM sale_items
		WHERE sale_id = ANY($1)
		ORDER BY id ASC
	`, saleIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var saleID string
		var item domain.SaleItem
		if err := rows.Scan(&saleID, &item.ProductID, &item.Name, &item.Qty, &item.UnitPriceCents, &item.UnitCostCents, &item.LineTotalCents); err != nil {
			return nil, err
		}
		result[saleID] = append(result[saleID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) ListStaff(ctx context.Context) ([]domain.StaffMember, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, pin_hash, role, COALESCE(branch_id,''), created_at
		FROM staff
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	staff := make([]domain.StaffMember, 0, 16)
	for rows.Next() {
		var m domain.StaffMember
		if err := rows.Scan(&m.ID, &m.Name, &m.PINHash, &m.Role, &m.BranchID, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.CreatedAt = m.CreatedAt.UTC()
		staff = append(staff, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return staff, nil
}

func (s *Store) CreateStaff(ctx context.Context, member domain.StaffMember) (*domain.StaffMember, error) {
	if member.Name == "" || member.PINHash == "" || !member.Role.Valid() {
		return nil, fmt.Errorf("%w: staff member requires name, PIN and role", store.ErrValidation)
	}
	if member.ID == "" {
		member.ID = xid.New("staff")
	}
	if member.CreatedAt.IsZero() {
		member.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO staff (id, name, pin_hash, role, branch_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, member.ID, member.Name, member.PINHash, member.Role, nullIfEmpty(member.BranchID), member.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: duplicate staff id %s", store.ErrValidation, member.ID)
		}
		return nil, err
	}
	created := member
	return &created, nil
}

func (s *Store) DeleteStaff(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM staff WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return store.ErrNotFound
	}

	var total int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM staff`).Scan(&total); err != nil {
		return err
	}
	if total <= 1 {
		return fmt.Errorf("%w: cannot remove the last staff member", store.ErrValidation)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM staff WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) AppendActivity(ctx context.Context, entry domain.ActivityLogEntry) error {
	if entry.ID == "" {
		entry.ID = xid.New("log")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO activity_log (id, staff_name, action, detail, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, entry.ID, entry.StaffName, entry.Action, entry.Detail, entry.CreatedAt)
	if err != nil {
		return err
	}

	// Evict oldest rows beyond the cap.
	_, err = tx.ExecContext(ctx, `
		DELETE FROM activity_log
		WHERE id IN (
			SELECT id FROM activity_log
			ORDER BY created_at DESC, id DESC
			OFFSET $1
		)
	`, maxActivityLogEntries)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) ListActivity(ctx context.Context, limit int) ([]domain.ActivityLogEntry, error) {
	if limit < 1 {
		limit = maxActivityLogEntries
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, staff_name, action, detail, created_at
		FROM activity_log
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]domain.ActivityLogEntry, 0, limit)
	for rows.Next() {
		var entry domain.ActivityLogEntry
		if err := rows.Scan(&entry.ID, &entry.StaffName, &entry.Action, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entry.CreatedAt = entry.CreatedAt.UTC()
		logs = append(logs, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

func (s *Store) GetBusinessProfile(ctx context.Context) (*domain.BusinessProfile, error) {
	var profile domain.BusinessProfile
	err := s.db.QueryRowContext(ctx, `
		SELECT name, kra_pin, address, COALESCE(whatsapp_number,''), currency
		FROM business_profile
		WHERE singleton = true
	`).Scan(&profile.Name, &profile.KRAPin, &profile.Address, &profile.WhatsAppNumber, &profile.Currency)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &domain.BusinessProfile{Currency: "KES"}, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (s *Store) SaveBusinessProfile(ctx context.Context, profile domain.BusinessProfile) (*domain.BusinessProfile, error) {
	if profile.Name == "" {
		return nil, fmt.Errorf("%w: business name is required", store.ErrValidation)
	}
	if profile.Currency == "" {
		profile.Currency = "KES"
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO business_profile (singleton, name, kra_pin, address, whatsapp_number, currency, updated_at)
		VALUES (true,$1,$2,$3,$4,$5,now())
		ON CONFLICT (singleton)
		DO UPDATE SET name = EXCLUDED.name, kra_pin = EXCLUDED.kra_pin, address = EXCLUDED.address,
			whatsapp_number = EXCLUDED.whatsapp_number, currency = EXCLUDED.currency, updated_at = now()
	`, profile.Name, profile.KRAPin, profile.Address, nullIfEmpty(profile.WhatsAppNumber), profile.Currency)
	if err != nil {
		return nil, err
	}
	saved := profile
	return &saved, nil
}

func marshalSplits(splits []domain.PaymentSplit) ([]byte, error) {
	if len(splits) == 0 {
		return nil, nil
	}
	return json.Marshal(splits)
}

func nullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
