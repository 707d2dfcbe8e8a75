package repository

import (
	"context"
	"time"

	"github.com/maurobense/ShingekiNoAPP/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockRepository persists per-branch ingredient balances.
// Methods taking tx run inside the caller's transaction when tx != nil.
type StockRepository interface {
	// FindBalance locks the row (SELECT … FOR UPDATE) when called inside a tx.
	FindBalance(ctx context.Context, tx *gorm.DB, sucursalID, ingredienteID uint) (*model.StockSucursal, error)
	// CrearBalance inserts a zero balance. If the pair already exists (a concurrent
	// insert or a soft-deleted row) the existing balance is kept and undeleted.
	CrearBalance(ctx context.Context, tx *gorm.DB, sucursalID, ingredienteID uint) error
	AplicarDelta(ctx context.Context, tx *gorm.DB, id uint, delta decimal.Decimal) error
	UpsertUmbral(ctx context.Context, tx *gorm.DB, sucursalID, ingredienteID uint, umbral decimal.Decimal) error
	ListBySucursal(ctx context.Context, sucursalID uint) ([]model.StockSucursal, error)
	// ListBajoMinimo returns rows with cantidad <= stock_minimo; sucursalID 0 means every branch.
	ListBajoMinimo(ctx context.Context, sucursalID uint) ([]model.StockSucursal, error)
	DB() *gorm.DB
}

type stockRepo struct{ db *gorm.DB }

func NewStockRepository(db *gorm.DB) StockRepository { return &stockRepo{db: db} }

func (r *stockRepo) DB() *gorm.DB { return r.db }

func (r *stockRepo) FindBalance(ctx context.Context, tx *gorm.DB, sucursalID, ingredienteID uint) (*model.StockSucursal, error) {
	q := conn(ctx, r.db, tx)
	if tx != nil {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var s model.StockSucursal
	err := q.Where("sucursal_id = ? AND ingrediente_id = ?", sucursalID, ingredienteID).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *stockRepo) CrearBalance(ctx context.Context, tx *gorm.DB, sucursalID, ingredienteID uint) error {
	s := model.StockSucursal{
		SucursalID:    sucursalID,
		IngredienteID: ingredienteID,
		Cantidad:      decimal.Zero,
		StockMinimo:   decimal.Zero,
	}
	return conn(ctx, r.db, tx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "sucursal_id"}, {Name: "ingrediente_id"}},
			DoUpdates: clause.Assignments(map[string]any{"deleted_at": nil}),
		}).
		Create(&s).Error
}

func (r *stockRepo) AplicarDelta(ctx context.Context, tx *gorm.DB, id uint, delta decimal.Decimal) error {
	return conn(ctx, r.db, tx).
		Model(&model.StockSucursal{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"cantidad":   gorm.Expr("cantidad + ?", delta),
			"updated_at": time.Now(),
		}).Error
}

func (r *stockRepo) UpsertUmbral(ctx context.Context, tx *gorm.DB, sucursalID, ingredienteID uint, umbral decimal.Decimal) error {
	s := model.StockSucursal{
		SucursalID:    sucursalID,
		IngredienteID: ingredienteID,
		Cantidad:      decimal.Zero,
		StockMinimo:   umbral,
	}
	return conn(ctx, r.db, tx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "sucursal_id"}, {Name: "ingrediente_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"stock_minimo": umbral,
				"deleted_at":   nil,
				"updated_at":   time.Now(),
			}),
		}).
		Create(&s).Error
}

func (r *stockRepo) ListBySucursal(ctx context.Context, sucursalID uint) ([]model.StockSucursal, error) {
	var out []model.StockSucursal
	err := r.db.WithContext(ctx).
		Preload("Ingrediente").
		Where("sucursal_id = ?", sucursalID).
		Order("ingrediente_id ASC").
		Find(&out).Error
	return out, err
}

func (r *stockRepo) ListBajoMinimo(ctx context.Context, sucursalID uint) ([]model.StockSucursal, error) {
	q := r.db.WithContext(ctx).Preload("Ingrediente").Where("cantidad <= stock_minimo")
	if sucursalID != 0 {
		q = q.Where("sucursal_id = ?", sucursalID)
	}
	var out []model.StockSucursal
	err := q.Order("sucursal_id ASC, ingrediente_id ASC").Find(&out).Error
	return out, err
}
