package subscription

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/oficaz/billing-engine/pkg/catalog"
	"github.com/oficaz/billing-engine/pkg/feature"
	"github.com/oficaz/billing-engine/pkg/pg"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrations holds the schema for the Postgres store, rooted so it can be
// passed straight to pg.Migrate.
var Migrations = func() fs.FS {
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}()

// PGStore is the production Store backed by PostgreSQL. Mutations run inside
// a transaction holding SELECT ... FOR UPDATE on the subscription row, which
// gives the same single-writer-per-company discipline as MemoryStore.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a Postgres-backed store. Panics on nil pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	if pool == nil {
		panic("subscription: pgxpool.Pool is required")
	}
	return &PGStore{pool: pool}
}

const subscriptionColumns = `company_id, plan, status,
	trial_start_date, trial_end_date, trial_duration_days, has_payment_method,
	base_monthly_price::text, custom_monthly_price::text,
	use_custom_feature_overrides, custom_features,
	extra_employees, extra_managers, extra_admins,
	current_period_start, current_period_end, cancellation_effective_date,
	created_at, updated_at`

func (s *PGStore) Create(ctx context.Context, snap *Snapshot) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := insertSubscription(ctx, tx, &snap.Subscription); err != nil {
		if pg.IsDuplicateKeyError(err) {
			return ErrAlreadyExists
		}
		return err
	}
	for i := range snap.Addons {
		if err := upsertAddon(ctx, tx, &snap.Addons[i]); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *PGStore) Load(ctx context.Context, companyID uuid.UUID) (*Snapshot, error) {
	sub, err := scanSubscription(s.pool.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE company_id = $1`, companyID))
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	addons, err := loadAddons(ctx, s.pool, companyID)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Subscription: *sub, Addons: addons}, nil
}

func (s *PGStore) Mutate(ctx context.Context, companyID uuid.UUID, fn func(ctx context.Context, snap *Snapshot) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	sub, err := scanSubscription(tx.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE company_id = $1 FOR UPDATE`, companyID))
	if err != nil {
		if pg.IsNotFoundError(err) {
			return ErrNotFound
		}
		return err
	}

	addons, err := loadAddons(ctx, tx, companyID)
	if err != nil {
		return err
	}

	snap := &Snapshot{Subscription: *sub, Addons: addons}
	if err := fn(ctx, snap); err != nil {
		return err
	}

	if err := updateSubscription(ctx, tx, &snap.Subscription); err != nil {
		return err
	}
	for i := range snap.Addons {
		if err := upsertAddon(ctx, tx, &snap.Addons[i]); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *PGStore) CompanyIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, `SELECT company_id FROM subscriptions ORDER BY company_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// querier covers pool and transaction for the shared read helpers.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func insertSubscription(ctx context.Context, tx pgx.Tx, sub *Subscription) error {
	custom, err := encodeFeatures(sub.CustomFeatures)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `INSERT INTO subscriptions (
			company_id, plan, status,
			trial_start_date, trial_end_date, trial_duration_days, has_payment_method,
			base_monthly_price, custom_monthly_price,
			use_custom_feature_overrides, custom_features,
			extra_employees, extra_managers, extra_admins,
			current_period_start, current_period_end, cancellation_effective_date,
			created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8::numeric,$9::numeric,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
		sub.CompanyID, string(sub.Plan), string(sub.Status),
		sub.TrialStartDate, sub.TrialEndDate, sub.TrialDurationDays, sub.HasPaymentMethod,
		sub.BaseMonthlyPrice.String(), decimalPtrString(sub.CustomMonthlyPrice),
		sub.UseCustomFeatureOverrides, custom,
		sub.ExtraSeats.Employees, sub.ExtraSeats.Managers, sub.ExtraSeats.Admins,
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.CancellationEffectiveDate,
		sub.CreatedAt, sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert subscription: %w", err)
	}
	return nil
}

func updateSubscription(ctx context.Context, tx pgx.Tx, sub *Subscription) error {
	custom, err := encodeFeatures(sub.CustomFeatures)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `UPDATE subscriptions SET
			plan = $2, status = $3,
			trial_start_date = $4, trial_end_date = $5, trial_duration_days = $6, has_payment_method = $7,
			base_monthly_price = $8::numeric, custom_monthly_price = $9::numeric,
			use_custom_feature_overrides = $10, custom_features = $11,
			extra_employees = $12, extra_managers = $13, extra_admins = $14,
			current_period_start = $15, current_period_end = $16, cancellation_effective_date = $17,
			updated_at = $18
		WHERE company_id = $1`,
		sub.CompanyID, string(sub.Plan), string(sub.Status),
		sub.TrialStartDate, sub.TrialEndDate, sub.TrialDurationDays, sub.HasPaymentMethod,
		sub.BaseMonthlyPrice.String(), decimalPtrString(sub.CustomMonthlyPrice),
		sub.UseCustomFeatureOverrides, custom,
		sub.ExtraSeats.Employees, sub.ExtraSeats.Managers, sub.ExtraSeats.Admins,
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.CancellationEffectiveDate,
		sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	return nil
}

func upsertAddon(ctx context.Context, tx pgx.Tx, a *CompanyAddon) error {
	_, err := tx.Exec(ctx, `INSERT INTO company_addons (
			company_id, addon_key, status, activated_at,
			cancellation_effective_date, cooldown_ends_at, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (company_id, addon_key) DO UPDATE SET
			status = EXCLUDED.status,
			activated_at = EXCLUDED.activated_at,
			cancellation_effective_date = EXCLUDED.cancellation_effective_date,
			cooldown_ends_at = EXCLUDED.cooldown_ends_at,
			updated_at = EXCLUDED.updated_at`,
		a.CompanyID, a.AddonKey, string(a.Status), a.ActivatedAt,
		a.CancellationEffectiveDate, a.CooldownEndsAt, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert addon %s: %w", a.AddonKey, err)
	}
	return nil
}

func loadAddons(ctx context.Context, q querier, companyID uuid.UUID) ([]CompanyAddon, error) {
	rows, err := q.Query(ctx, `SELECT company_id, addon_key, status, activated_at,
			cancellation_effective_date, cooldown_ends_at, created_at, updated_at
		FROM company_addons WHERE company_id = $1 ORDER BY addon_key`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to load addons: %w", err)
	}
	defer rows.Close()

	var out []CompanyAddon
	for rows.Next() {
		var a CompanyAddon
		var status string
		if err := rows.Scan(&a.CompanyID, &a.AddonKey, &status, &a.ActivatedAt,
			&a.CancellationEffectiveDate, &a.CooldownEndsAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		a.Status = AddonStatus(status)
		out = append(out, a)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (*Subscription, error) {
	var (
		sub         Subscription
		plan        string
		status      string
		basePrice   string
		customPrice *string
		customJSON  []byte
	)
	err := row.Scan(&sub.CompanyID, &plan, &status,
		&sub.TrialStartDate, &sub.TrialEndDate, &sub.TrialDurationDays, &sub.HasPaymentMethod,
		&basePrice, &customPrice,
		&sub.UseCustomFeatureOverrides, &customJSON,
		&sub.ExtraSeats.Employees, &sub.ExtraSeats.Managers, &sub.ExtraSeats.Admins,
		&sub.CurrentPeriodStart, &sub.CurrentPeriodEnd, &sub.CancellationEffectiveDate,
		&sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return nil, err
	}

	sub.Plan = catalog.PlanKey(plan)
	sub.Status = Status(status)

	sub.BaseMonthlyPrice, err = decimal.NewFromString(basePrice)
	if err != nil {
		return nil, fmt.Errorf("invalid base price %q: %w", basePrice, err)
	}
	if customPrice != nil {
		price, err := decimal.NewFromString(*customPrice)
		if err != nil {
			return nil, fmt.Errorf("invalid custom price %q: %w", *customPrice, err)
		}
		sub.CustomMonthlyPrice = &price
	}
	if len(customJSON) > 0 {
		if err := json.Unmarshal(customJSON, &sub.CustomFeatures); err != nil {
			return nil, fmt.Errorf("invalid custom features: %w", err)
		}
	}

	sub.TrialStartDate = sub.TrialStartDate.UTC()
	sub.TrialEndDate = sub.TrialEndDate.UTC()
	sub.CurrentPeriodStart = sub.CurrentPeriodStart.UTC()
	sub.CurrentPeriodEnd = sub.CurrentPeriodEnd.UTC()
	sub.CancellationEffectiveDate = utcPtr(sub.CancellationEffectiveDate)
	return &sub, nil
}

func encodeFeatures(set feature.Set) ([]byte, error) {
	if set == nil {
		return nil, nil
	}
	data, err := json.Marshal(set)
	if err != nil {
		return nil, errors.Join(errors.New("failed to encode custom features"), err)
	}
	return data, nil
}

func decimalPtrString(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

var _ Store = (*PGStore)(nil)
