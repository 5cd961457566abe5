package activation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/alovak/card-activation/activation/models"
	"github.com/lib/pq"
)

var (
	ErrNotFound = fmt.Errorf("not found")
	ErrConflict = fmt.Errorf("conflict")
)

// feeSeedLock serializes concurrent fee seeding across processes.
const feeSeedLock = 740_215

// Repository stores activations, fees and admins. It is backed by postgres
// when constructed with NewPGRepository and by memory otherwise.
type Repository struct {
	Activations []*models.Activation
	Fees        []*models.FeeLineItem
	Admins      []*models.Admin

	mu sync.RWMutex
	db *sql.DB
}

func NewRepository() *Repository {
	return &Repository{
		Activations: make([]*models.Activation, 0),
		Fees:        make([]*models.FeeLineItem, 0),
		Admins:      make([]*models.Admin, 0),
	}
}

// NewPGRepository constructs a db-backed repository.
func NewPGRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Ping(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	return r.db.PingContext(ctx)
}

func (r *Repository) CreateActivation(ctx context.Context, a *models.Activation) error {
	if r.db == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		cp := *a
		r.Activations = append(r.Activations, &cp)
		return nil
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activations(activation_id, card_type, last_six_digits, holder_name, currency, daily_limit, accept, pin_hash, user_ip, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, a.ID, a.CardType, a.LastSixDigits, a.HolderName, a.Currency, a.DailyLimit, a.Accept, a.PINHash, a.UserIP, a.CreatedAt)
	return err
}

// ReplaceFees swaps the whole fee ledger for items. Readers see either the
// old set or the new one.
func (r *Repository) ReplaceFees(ctx context.Context, items []*models.FeeLineItem) error {
	if r.db == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.Fees = copyFees(items)
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM fee_line_items`); err != nil {
		return fmt.Errorf("deleting fees: %w", err)
	}
	if err := insertFees(ctx, tx, items); err != nil {
		return err
	}
	return tx.Commit()
}

// ListFees returns the ledger, newest first and then in display order.
func (r *Repository) ListFees(ctx context.Context) ([]*models.FeeLineItem, error) {
	if r.db == nil {
		r.mu.RLock()
		defer r.mu.RUnlock()
		items := copyFees(r.Fees)
		sortFees(items)
		return items, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT fee_id, label, price::text, position, updated_at
		FROM fee_line_items
		ORDER BY updated_at DESC, position ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]*models.FeeLineItem, 0, len(models.FeeLabels))
	for rows.Next() {
		var (
			item  models.FeeLineItem
			price string
		)
		if err := rows.Scan(&item.ID, &item.Label, &price, &item.Position, &item.UpdatedAt); err != nil {
			return nil, err
		}
		if item.Price, err = parsePrice(price); err != nil {
			return nil, fmt.Errorf("fee %s: %w", item.ID, err)
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

// SeedFees stores items only when the ledger is empty. It reports whether
// anything was written.
func (r *Repository) SeedFees(ctx context.Context, items []*models.FeeLineItem) (bool, error) {
	if r.db == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		if len(r.Fees) > 0 {
			return false, nil
		}
		r.Fees = copyFees(items)
		return true, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, feeSeedLock); err != nil {
		return false, fmt.Errorf("locking fee seed: %w", err)
	}

	var n int
	if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM fee_line_items`).Scan(&n); err != nil {
		return false, fmt.Errorf("counting fees: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	if err := insertFees(ctx, tx, items); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Repository) CountAdmins(ctx context.Context) (int, error) {
	if r.db == nil {
		r.mu.RLock()
		defer r.mu.RUnlock()
		return len(r.Admins), nil
	}
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM admins`).Scan(&n)
	return n, err
}

func (r *Repository) CreateAdmin(ctx context.Context, admin *models.Admin) error {
	if r.db == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		for _, a := range r.Admins {
			if a.Username == admin.Username {
				return fmt.Errorf("admin %q exists: %w", admin.Username, ErrConflict)
			}
		}
		cp := *admin
		r.Admins = append(r.Admins, &cp)
		return nil
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO admins(admin_id, username, password_hash, ip_address, created_at)
		VALUES ($1,$2,$3,$4,$5)
	`, admin.ID, admin.Username, admin.PasswordHash, admin.IPAddress, admin.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("admin %q exists: %w", admin.Username, ErrConflict)
	}
	return err
}

func (r *Repository) FindAdminByUsername(ctx context.Context, username string) (*models.Admin, error) {
	if r.db == nil {
		r.mu.RLock()
		defer r.mu.RUnlock()
		for _, a := range r.Admins {
			if a.Username == username {
				cp := *a
				return &cp, nil
			}
		}
		return nil, ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `
		SELECT admin_id, username, password_hash, ip_address, created_at
		FROM admins WHERE username=$1
	`, username)
	var a models.Admin
	if err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.IPAddress, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// UpdateAdminIP records the address of the admin's latest login.
func (r *Repository) UpdateAdminIP(ctx context.Context, adminID, ip string) error {
	if r.db == nil {
		r.mu.Lock()
		defer r.mu.Unlock()
		for _, a := range r.Admins {
			if a.ID == adminID {
				a.IPAddress = ip
				return nil
			}
		}
		return ErrNotFound
	}
	res, err := r.db.ExecContext(ctx, `UPDATE admins SET ip_address=$2 WHERE admin_id=$1`, adminID, ip)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func insertFees(ctx context.Context, tx *sql.Tx, items []*models.FeeLineItem) error {
	for _, item := range items {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO fee_line_items(fee_id, position, label, price, updated_at)
			VALUES ($1,$2,$3,$4,$5)
		`, item.ID, item.Position, item.Label, item.Price.String(), item.UpdatedAt)
		if err != nil {
			return fmt.Errorf("inserting fee %q: %w", item.Label, err)
		}
	}
	return nil
}

func copyFees(items []*models.FeeLineItem) []*models.FeeLineItem {
	out := make([]*models.FeeLineItem, 0, len(items))
	for _, item := range items {
		cp := *item
		out = append(out, &cp)
	}
	return out
}

func sortFees(items []*models.FeeLineItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].UpdatedAt.Equal(items[j].UpdatedAt) {
			return items[i].UpdatedAt.After(items[j].UpdatedAt)
		}
		return items[i].Position < items[j].Position
	})
}

func truncateToMicro(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func isUniqueViolation(err error) bool {
	var pe *pq.Error
	if errors.As(err, &pe) && pe.Code == "23505" {
		return true
	}
	return false
}
