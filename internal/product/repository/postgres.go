package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-voice-intake/internal/model"
	"github.com/fekuna/omnipos-voice-intake/internal/product"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
        INSERT INTO products (
            owner_id, name, category, firma, code,
            quantity, cost_price, sale_price, currency
        )
        VALUES (
            :owner_id, :name, :category, :firma, :code,
            :quantity, :cost_price, :sale_price, :currency
        )
        RETURNING id, created_at
    `
	rows, err := r.DB.NamedQueryContext(ctx, query, p)
	if err != nil {
		return err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}
		return errors.New("insert returned no id")
	}
	return rows.Scan(&p.ID, &p.CreatedAt)
}

func (r *PGRepository) FindByID(ctx context.Context, id int64) (*model.Product, error) {
	var p model.Product
	err := r.DB.GetContext(ctx, &p, `SELECT * FROM products WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) ListByOwner(ctx context.Context, ownerID int64) ([]model.Product, error) {
	products := []model.Product{}
	query := `SELECT * FROM products WHERE owner_id = $1 ORDER BY created_at DESC, id DESC`
	if err := r.DB.SelectContext(ctx, &products, query, ownerID); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *PGRepository) GetLast(ctx context.Context, ownerID int64) (*model.Product, error) {
	var p model.Product
	err := r.DB.GetContext(ctx, &p, `SELECT * FROM products WHERE owner_id = $1 ORDER BY id DESC LIMIT 1`, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	return err
}

func (r *PGRepository) UpdateField(ctx context.Context, id int64, field model.Field, value any) error {
	// The column name is interpolated, so it must come from the editable whitelist.
	if _, err := model.ParseField(string(field)); err != nil {
		return err
	}

	query := fmt.Sprintf("UPDATE products SET %s = $1 WHERE id = $2", field.Column())
	res, err := r.DB.ExecContext(ctx, query, value, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return product.ErrNotFound
	}
	return nil
}

func (r *PGRepository) Search(ctx context.Context, ownerID int64, query string) ([]model.Product, error) {
	products := []model.Product{}
	args := map[string]interface{}{
		"owner_id": ownerID,
		"search":   "%" + escapeLike(query) + "%",
	}
	q := `
        SELECT * FROM products
        WHERE owner_id = :owner_id
          AND (name ILIKE :search OR code ILIKE :search OR category ILIKE :search)
        ORDER BY created_at DESC, id DESC
    `
	nstmt, err := r.DB.PrepareNamedContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer nstmt.Close()

	if err := nstmt.SelectContext(ctx, &products, args); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *PGRepository) Categories(ctx context.Context, ownerID int64) ([]string, error) {
	categories := []string{}
	query := `
        SELECT DISTINCT category FROM products
        WHERE owner_id = $1 AND category IS NOT NULL AND category <> ''
        ORDER BY category
    `
	if err := r.DB.SelectContext(ctx, &categories, query, ownerID); err != nil {
		return nil, err
	}
	return categories, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
