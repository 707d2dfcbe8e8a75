package repository

import (
	"context"

	"github.com/maurobense/ShingekiNoAPP/internal/model"

	"gorm.io/gorm"
)

type SucursalRepository = CrudRepository[model.Sucursal]
type ClienteRepository = CrudRepository[model.Cliente]
type DireccionRepository = CrudRepository[model.Direccion]
type IngredienteRepository = CrudRepository[model.Ingrediente]

func NewSucursalRepository(db *gorm.DB) SucursalRepository {
	return NewCrudRepository[model.Sucursal](db)
}

func NewClienteRepository(db *gorm.DB) ClienteRepository {
	return NewCrudRepository[model.Cliente](db)
}

func NewDireccionRepository(db *gorm.DB) DireccionRepository {
	return NewCrudRepository[model.Direccion](db)
}

func NewIngredienteRepository(db *gorm.DB) IngredienteRepository {
	return NewCrudRepository[model.Ingrediente](db)
}

// ProductoRepository adds the recipe-aware lookup the order flow needs.
type ProductoRepository interface {
	CrudRepository[model.Producto]
	// FindConReceta loads the product with its active recipe lines.
	FindConReceta(ctx context.Context, tx *gorm.DB, id uint) (*model.Producto, error)
}

type productoRepo struct {
	CrudRepository[model.Producto]
	db *gorm.DB
}

func NewProductoRepository(db *gorm.DB) ProductoRepository {
	return &productoRepo{CrudRepository: NewCrudRepository[model.Producto](db), db: db}
}

func (r *productoRepo) FindConReceta(ctx context.Context, tx *gorm.DB, id uint) (*model.Producto, error) {
	var p model.Producto
	err := conn(ctx, r.db, tx).
		Preload("Receta").
		Preload("Receta.Ingrediente").
		First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}
