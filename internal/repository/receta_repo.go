package repository

import (
	"context"

	"github.com/maurobense/ShingekiNoAPP/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RecetaRepository interface {
	// FindLinea returns the (producto, ingrediente) line even when soft-deleted.
	FindLinea(ctx context.Context, productoID, ingredienteID uint) (*model.ProductoIngrediente, error)
	Create(ctx context.Context, l *model.ProductoIngrediente) error
	// Revivir clears the delete flag and sets a new quantity.
	Revivir(ctx context.Context, l *model.ProductoIngrediente, cantidad decimal.Decimal) error
	SoftDelete(ctx context.Context, id uint) error
	ListByProducto(ctx context.Context, productoID uint) ([]model.ProductoIngrediente, error)
}

type recetaRepo struct{ db *gorm.DB }

func NewRecetaRepository(db *gorm.DB) RecetaRepository { return &recetaRepo{db: db} }

func (r *recetaRepo) FindLinea(ctx context.Context, productoID, ingredienteID uint) (*model.ProductoIngrediente, error) {
	var l model.ProductoIngrediente
	err := r.db.WithContext(ctx).Unscoped().
		Where("producto_id = ? AND ingrediente_id = ?", productoID, ingredienteID).
		First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *recetaRepo) Create(ctx context.Context, l *model.ProductoIngrediente) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *recetaRepo) Revivir(ctx context.Context, l *model.ProductoIngrediente, cantidad decimal.Decimal) error {
	err := r.db.WithContext(ctx).Unscoped().Model(l).Updates(map[string]any{
		"deleted_at": nil,
		"cantidad":   cantidad,
	}).Error
	if err != nil {
		return err
	}
	l.DeletedAt = gorm.DeletedAt{}
	l.Cantidad = cantidad
	return nil
}

func (r *recetaRepo) SoftDelete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&model.ProductoIngrediente{}, id).Error
}

func (r *recetaRepo) ListByProducto(ctx context.Context, productoID uint) ([]model.ProductoIngrediente, error) {
	var lineas []model.ProductoIngrediente
	err := r.db.WithContext(ctx).
		Preload("Ingrediente").
		Where("producto_id = ?", productoID).
		Order("id ASC").
		Find(&lineas).Error
	return lineas, err
}
