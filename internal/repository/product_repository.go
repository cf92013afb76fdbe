package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/cocreate-backend/internal/domain/alertmatch"
	"github.com/ignatzorin/cocreate-backend/internal/models"
	"github.com/ignatzorin/cocreate-backend/internal/pkg/apperror"
	"github.com/ignatzorin/cocreate-backend/internal/repository/common"
)

// ErrProductNotFound возвращается, когда объявление не найдено.
var ErrProductNotFound = apperror.New(apperror.ErrCodeNotFound, "объявление не найдено")

const productColumns = `id, seller_id, category_id, title, description, condition, quantity, unit_of_measure,
	price, market_price, weight_per_unit, dimensions, location_lat, location_long, location_name,
	status, views, saves, created_at, updated_at`

var productOrdering = map[string]string{
	"created_at":  "created_at ASC",
	"-created_at": "created_at DESC",
	"price":       "price ASC",
	"-price":      "price DESC",
	"views":       "views DESC",
}

// ProductRepository работает с таблицей products.
type ProductRepository struct {
	db *sqlx.DB
}

// NewProductRepository создаёт экземпляр репозитория.
func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create сохраняет новое объявление.
func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (seller_id, category_id, title, description, condition, quantity, unit_of_measure,
			price, market_price, weight_per_unit, dimensions, location_lat, location_long, location_name, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, views, saves, created_at, updated_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		p.SellerID, p.CategoryID, p.Title, p.Description, p.Condition, p.Quantity, p.UnitOfMeasure,
		p.Price, p.MarketPrice, p.WeightPerUnit, p.Dimensions, p.LocationLat, p.LocationLong, p.LocationName, p.Status,
	).Scan(&p.ID, &p.Views, &p.Saves, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if common.IsForeignKeyViolation(err) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("product repository: create %w", err)
	}
	return nil
}

// GetByID возвращает объявление по идентификатору.
func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	if err := r.db.GetContext(ctx, &p, `SELECT `+productColumns+` FROM products WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("product repository: get by id %w", err)
	}
	return &p, nil
}

// Update сохраняет изменения объявления.
func (r *ProductRepository) Update(ctx context.Context, p *models.Product) error {
	query := `
		UPDATE products
		SET category_id = $2, title = $3, description = $4, condition = $5, quantity = $6,
			unit_of_measure = $7, price = $8, market_price = $9, weight_per_unit = $10, dimensions = $11,
			location_lat = $12, location_long = $13, location_name = $14, status = $15, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		p.ID, p.CategoryID, p.Title, p.Description, p.Condition, p.Quantity,
		p.UnitOfMeasure, p.Price, p.MarketPrice, p.WeightPerUnit, p.Dimensions,
		p.LocationLat, p.LocationLong, p.LocationName, p.Status,
	).Scan(&p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProductNotFound
		}
		if common.IsForeignKeyViolation(err) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("product repository: update %w", err)
	}
	return nil
}

// SetStatus меняет статус объявления. Физически объявления не удаляются.
func (r *ProductRepository) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE products SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("product repository: set status %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}

// IncrementViews увеличивает счётчик просмотров и возвращает новое значение.
func (r *ProductRepository) IncrementViews(ctx context.Context, id uuid.UUID) (int, error) {
	var views int
	err := r.db.GetContext(ctx, &views, `UPDATE products SET views = views + 1 WHERE id = $1 RETURNING views`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrProductNotFound
		}
		return 0, fmt.Errorf("product repository: increment views %w", err)
	}
	return views, nil
}

// List возвращает объявления по фильтру.
func (r *ProductRepository) List(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE 1=1`
	args := []interface{}{}
	argNum := 1

	if f.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argNum)
		args = append(args, f.Status)
		argNum++
	}
	if f.CategoryID != nil {
		query += fmt.Sprintf(` AND category_id = $%d`, argNum)
		args = append(args, *f.CategoryID)
		argNum++
	}
	if f.SellerID != nil {
		query += fmt.Sprintf(` AND seller_id = $%d`, argNum)
		args = append(args, *f.SellerID)
		argNum++
	}
	if f.Condition != "" {
		query += fmt.Sprintf(` AND condition = $%d`, argNum)
		args = append(args, f.Condition)
		argNum++
	}
	if f.MinPrice != nil {
		query += fmt.Sprintf(` AND price >= $%d`, argNum)
		args = append(args, *f.MinPrice)
		argNum++
	}
	if f.MaxPrice != nil {
		query += fmt.Sprintf(` AND price <= $%d`, argNum)
		args = append(args, *f.MaxPrice)
		argNum++
	}
	if f.Query != "" {
		query += fmt.Sprintf(` AND (title ILIKE $%d OR description ILIKE $%d)`, argNum, argNum)
		args = append(args, "%"+f.Query+"%")
		argNum++
	}

	order, ok := productOrdering[f.Ordering]
	if !ok {
		order = productOrdering["-created_at"]
	}
	query += ` ORDER BY ` + order
	query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, argNum, argNum+1)
	args = append(args, f.Limit, f.Offset)

	var products []models.Product
	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, fmt.Errorf("product repository: list %w", err)
	}
	return products, nil
}

// ListMatchCandidates возвращает активные объявления других продавцов, прошедшие
// SQL-фильтр по категории, цене, состоянию и ключевым словам алерта.
// Радиус проверяется уже в памяти через alertmatch.Match.
func (r *ProductRepository) ListMatchCandidates(ctx context.Context, alert *models.Alert) ([]models.Product, error) {
	query, args := matchCandidatesQuery(alert)
	var products []models.Product
	if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
		return nil, fmt.Errorf("product repository: list match candidates %w", err)
	}
	return products, nil
}

func matchCandidatesQuery(alert *models.Alert) (string, []any) {
	conds := []string{"status = 'active'", "seller_id <> $1"}
	args := []any{alert.UserID}
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if alert.CategoryID != nil {
		conds = append(conds, "category_id = "+next(*alert.CategoryID))
	}
	if alert.MaxPrice.Valid {
		conds = append(conds, "price <= "+next(alert.MaxPrice.Decimal))
	}
	if alert.Condition != nil && *alert.Condition != "" {
		conds = append(conds, "condition = "+next(*alert.Condition))
	}
	if kws := alertmatch.Keywords(alert.Keywords); len(kws) > 0 {
		patterns := make([]string, len(kws))
		for i, kw := range kws {
			patterns[i] = "%" + likeEscaper.Replace(kw) + "%"
		}
		conds = append(conds, "(title || ' ' || description) ILIKE ANY("+next(pq.Array(patterns))+")")
	}

	query := "SELECT " + productColumns + " FROM products WHERE " +
		strings.Join(conds, " AND ") + " ORDER BY created_at DESC"
	return query, args
}

// likeEscaper экранирует спецсимволы шаблона LIKE.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// lockProducts блокирует строки объявлений внутри транзакции.
func lockProducts(ctx context.Context, tx *sqlx.Tx, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	var rows []models.Product
	if err := tx.SelectContext(ctx, &rows,
		`SELECT `+productColumns+` FROM products WHERE id = ANY($1) ORDER BY id FOR UPDATE`, pq.Array(ids),
	); err != nil {
		return nil, err
	}

	out := make(map[uuid.UUID]models.Product, len(rows))
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}
