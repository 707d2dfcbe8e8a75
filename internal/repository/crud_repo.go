package repository

import (
	"context"
	"errors"

	"github.com/maurobense/ShingekiNoAPP/internal/model"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// CrudRepository is the generic persistence capability shared by every
// soft-deletable entity. Default lookups and listings skip deleted rows;
// FindByIDIncluyendoEliminados still resolves them.
type CrudRepository[T model.Eliminable] interface {
	FindByID(ctx context.Context, id uint) (*T, error)
	FindByIDIncluyendoEliminados(ctx context.Context, id uint) (*T, error)
	Create(ctx context.Context, e *T) error
	SoftDelete(ctx context.Context, id uint) error
	List(ctx context.Context) ([]T, error)
}

type crudRepo[T model.Eliminable] struct{ db *gorm.DB }

func NewCrudRepository[T model.Eliminable](db *gorm.DB) CrudRepository[T] {
	return &crudRepo[T]{db: db}
}

func (r *crudRepo[T]) FindByID(ctx context.Context, id uint) (*T, error) {
	var e T
	if err := r.db.WithContext(ctx).First(&e, id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *crudRepo[T]) FindByIDIncluyendoEliminados(ctx context.Context, id uint) (*T, error) {
	var e T
	if err := r.db.WithContext(ctx).Unscoped().First(&e, id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *crudRepo[T]) Create(ctx context.Context, e *T) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *crudRepo[T]) SoftDelete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(new(T), id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *crudRepo[T]) List(ctx context.Context) ([]T, error) {
	var out []T
	err := r.db.WithContext(ctx).Order("id ASC").Find(&out).Error
	return out, err
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// conn returns tx when the caller runs inside a transaction, or a
// context-bound session on db otherwise.
func conn(ctx context.Context, db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// isUniqueViolation detects SQLSTATE 23505 coming from the pgx driver.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
