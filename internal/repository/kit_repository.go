package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/cocreate-backend/internal/models"
	"github.com/ignatzorin/cocreate-backend/internal/pkg/apperror"
	"github.com/ignatzorin/cocreate-backend/internal/repository/common"
)

var (
	ErrKitNotFound = apperror.New(apperror.ErrCodeNotFound, "набор не найден")
	ErrKitExists   = apperror.New(apperror.ErrCodeConflict, "набор с таким slug уже существует")
)

const kitColumns = `id, title, slug, description, short_description, kit_type, price, market_price,
	quantity_available, quantity_sold, max_quantity_per_order, start_date, end_date, status, specifications,
	views, orders_count, created_at, updated_at`

// KitFilter задаёт выборку наборов.
type KitFilter struct {
	KitType string
	Status  string
	// ActiveAt выбирает наборы, доступные к покупке в указанный момент.
	ActiveAt *time.Time
	// UpcomingAt выбирает наборы, которые начнутся позже указанного момента.
	UpcomingAt *time.Time
}

type KitRepository struct {
	db *sqlx.DB
}

func NewKitRepository(db *sqlx.DB) *KitRepository {
	return &KitRepository{db: db}
}

func (r *KitRepository) List(ctx context.Context, f KitFilter) ([]models.Kit, error) {
	query := `SELECT ` + kitColumns + ` FROM kits WHERE 1=1`
	args := []interface{}{}
	argNum := 1

	if f.KitType != "" {
		query += fmt.Sprintf(` AND kit_type = $%d`, argNum)
		args = append(args, f.KitType)
		argNum++
	}
	if f.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argNum)
		args = append(args, f.Status)
		argNum++
	}
	if f.ActiveAt != nil {
		query += fmt.Sprintf(` AND status = 'active' AND start_date <= $%d AND end_date >= $%d AND quantity_available > 0`, argNum, argNum)
		args = append(args, *f.ActiveAt)
		argNum++
	}
	if f.UpcomingAt != nil {
		query += fmt.Sprintf(` AND status = 'upcoming' AND start_date > $%d`, argNum)
		args = append(args, *f.UpcomingAt)
	}
	query += ` ORDER BY start_date`

	kits := []models.Kit{}
	if err := r.db.SelectContext(ctx, &kits, query, args...); err != nil {
		return nil, fmt.Errorf("kit repository: list %w", err)
	}
	if err := r.attachItems(ctx, kits); err != nil {
		return nil, err
	}
	return kits, nil
}

func (r *KitRepository) GetBySlug(ctx context.Context, slug string) (*models.Kit, error) {
	var k models.Kit
	err := r.db.GetContext(ctx, &k, `SELECT `+kitColumns+` FROM kits WHERE slug = $1`, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKitNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("kit repository: get by slug %w", err)
	}

	kits := []models.Kit{k}
	if err := r.attachItems(ctx, kits); err != nil {
		return nil, err
	}
	return &kits[0], nil
}

func (r *KitRepository) attachItems(ctx context.Context, kits []models.Kit) error {
	if len(kits) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(kits))
	for i := range kits {
		ids[i] = kits[i].ID
	}

	var items []models.KitItem
	if err := r.db.SelectContext(ctx, &items, `
		SELECT id, kit_id, name, description, quantity, sort_order
		FROM kit_items WHERE kit_id = ANY($1) ORDER BY kit_id, sort_order
	`, pq.Array(ids)); err != nil {
		return fmt.Errorf("kit repository: list items %w", err)
	}

	byKit := make(map[uuid.UUID][]models.KitItem, len(kits))
	for _, it := range items {
		byKit[it.KitID] = append(byKit[it.KitID], it)
	}
	for i := range kits {
		kits[i].Items = byKit[kits[i].ID]
		if kits[i].Items == nil {
			kits[i].Items = []models.KitItem{}
		}
	}
	return nil
}

// Create сохраняет набор вместе с составом.
func (r *KitRepository) Create(ctx context.Context, k *models.Kit) error {
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := tx.QueryRowxContext(ctx, `
			INSERT INTO kits (title, slug, description, short_description, kit_type, price, market_price,
				quantity_available, max_quantity_per_order, start_date, end_date, status, specifications)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			RETURNING id, quantity_sold, views, orders_count, created_at, updated_at
		`, k.Title, k.Slug, k.Description, k.ShortDescription, k.KitType, k.Price, k.MarketPrice,
			k.QuantityAvailable, k.MaxQuantityPerOrder, k.StartDate, k.EndDate, k.Status, k.Specifications,
		).Scan(&k.ID, &k.QuantitySold, &k.Views, &k.OrdersCount, &k.CreatedAt, &k.UpdatedAt); err != nil {
			if common.IsUniqueViolation(err) {
				return ErrKitExists
			}
			return err
		}
		return insertKitItems(ctx, tx, k)
	})
	if err != nil {
		return wrapTxError("kit repository: create", err)
	}
	return nil
}

// Update перезаписывает набор и его состав.
func (r *KitRepository) Update(ctx context.Context, slug string, k *models.Kit) error {
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := tx.QueryRowxContext(ctx, `
			UPDATE kits
			SET title = $2, slug = $3, description = $4, short_description = $5, kit_type = $6, price = $7,
				market_price = $8, quantity_available = $9, max_quantity_per_order = $10, start_date = $11,
				end_date = $12, status = $13, specifications = $14, updated_at = NOW()
			WHERE slug = $1
			RETURNING id, quantity_sold, views, orders_count, created_at, updated_at
		`, slug, k.Title, k.Slug, k.Description, k.ShortDescription, k.KitType, k.Price, k.MarketPrice,
			k.QuantityAvailable, k.MaxQuantityPerOrder, k.StartDate, k.EndDate, k.Status, k.Specifications,
		).Scan(&k.ID, &k.QuantitySold, &k.Views, &k.OrdersCount, &k.CreatedAt, &k.UpdatedAt); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrKitNotFound
			}
			if common.IsUniqueViolation(err) {
				return ErrKitExists
			}
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM kit_items WHERE kit_id = $1`, k.ID); err != nil {
			return err
		}
		return insertKitItems(ctx, tx, k)
	})
	if err != nil {
		return wrapTxError("kit repository: update", err)
	}
	return nil
}

func insertKitItems(ctx context.Context, tx *sqlx.Tx, k *models.Kit) error {
	inserter := common.NewBatchInserter(tx,
		`INSERT INTO kit_items (id, kit_id, name, description, quantity, sort_order)`, 6, 50)
	for i := range k.Items {
		it := &k.Items[i]
		it.ID = uuid.New()
		it.KitID = k.ID
		if it.SortOrder == 0 {
			it.SortOrder = i
		}
		if err := inserter.Add(ctx, it.ID, it.KitID, it.Name, it.Description, it.Quantity, it.SortOrder); err != nil {
			return err
		}
	}
	return inserter.Flush(ctx)
}

func (r *KitRepository) Delete(ctx context.Context, slug string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM kits WHERE slug = $1`, slug)
	if err != nil {
		return fmt.Errorf("kit repository: delete %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrKitNotFound
	}
	return nil
}

// IncrementViews увеличивает счётчик просмотров набора.
func (r *KitRepository) IncrementViews(ctx context.Context, slug string) (int, error) {
	var views int
	err := r.db.GetContext(ctx, &views, `UPDATE kits SET views = views + 1 WHERE slug = $1 RETURNING views`, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrKitNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("kit repository: increment views %w", err)
	}
	return views, nil
}
