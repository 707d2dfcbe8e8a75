package repository

import (
	"context"
	"time"

	"github.com/maurobense/ShingekiNoAPP/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PedidoRepository interface {
	// Create inserts the order together with its items.
	Create(ctx context.Context, tx *gorm.DB, p *model.Pedido) error
	FindByID(ctx context.Context, id uint) (*model.Pedido, error)
	FindByTracking(ctx context.Context, tracking uuid.UUID) (*model.Pedido, error)
	// ListByEstado lists orders newest first; a nil estado lists every status.
	ListByEstado(ctx context.Context, estado *model.EstadoPedido) ([]model.Pedido, error)
	ListByCliente(ctx context.Context, clienteID uint) ([]model.Pedido, error)
	// ListEnVentana returns orders with desde <= fecha (<= hasta when given), items not loaded.
	ListEnVentana(ctx context.Context, desde time.Time, hasta *time.Time) ([]model.Pedido, error)
	// UpdateEstado moves the order from desde to hacia. It reports false when the
	// order is no longer in desde (a concurrent transition won).
	UpdateEstado(ctx context.Context, tx *gorm.DB, id uint, desde, hacia model.EstadoPedido) (bool, error)
	CreateHistorial(ctx context.Context, tx *gorm.DB, h *model.HistorialEstado) error
	ListHistorial(ctx context.Context, pedidoID uint) ([]model.HistorialEstado, error)
	DB() *gorm.DB
}

type pedidoRepo struct{ db *gorm.DB }

func NewPedidoRepository(db *gorm.DB) PedidoRepository { return &pedidoRepo{db: db} }

func (r *pedidoRepo) DB() *gorm.DB { return r.db }

// Create writes the order and its items only. Items carry their resolved
// Producto (with recipe) for pricing, which must not be saved back.
func (r *pedidoRepo) Create(ctx context.Context, tx *gorm.DB, p *model.Pedido) error {
	db := conn(ctx, r.db, tx)
	if err := db.Omit("Items").Create(p).Error; err != nil {
		return err
	}
	if len(p.Items) == 0 {
		return nil
	}
	for i := range p.Items {
		p.Items[i].PedidoID = p.ID
	}
	return db.Omit("Producto").Create(&p.Items).Error
}

func (r *pedidoRepo) FindByID(ctx context.Context, id uint) (*model.Pedido, error) {
	var p model.Pedido
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Producto").
		First(&p, id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pedidoRepo) FindByTracking(ctx context.Context, tracking uuid.UUID) (*model.Pedido, error) {
	var p model.Pedido
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Items.Producto").
		Where("tracking_id = ?", tracking).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pedidoRepo) ListByEstado(ctx context.Context, estado *model.EstadoPedido) ([]model.Pedido, error) {
	q := r.db.WithContext(ctx).Preload("Items").Preload("Items.Producto")
	if estado != nil {
		q = q.Where("estado = ?", *estado)
	}
	var out []model.Pedido
	err := q.Order("fecha DESC, id DESC").Find(&out).Error
	return out, err
}

func (r *pedidoRepo) ListByCliente(ctx context.Context, clienteID uint) ([]model.Pedido, error) {
	var out []model.Pedido
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Producto").
		Where("cliente_id = ?", clienteID).
		Order("fecha DESC, id DESC").
		Find(&out).Error
	return out, err
}

func (r *pedidoRepo) ListEnVentana(ctx context.Context, desde time.Time, hasta *time.Time) ([]model.Pedido, error) {
	q := r.db.WithContext(ctx).Where("fecha >= ?", desde)
	if hasta != nil {
		q = q.Where("fecha <= ?", *hasta)
	}
	var out []model.Pedido
	err := q.Order("fecha ASC, id ASC").Find(&out).Error
	return out, err
}

func (r *pedidoRepo) UpdateEstado(ctx context.Context, tx *gorm.DB, id uint, desde, hacia model.EstadoPedido) (bool, error) {
	res := conn(ctx, r.db, tx).
		Model(&model.Pedido{}).
		Where("id = ? AND estado = ?", id, desde).
		Updates(map[string]any{"estado": hacia, "updated_at": time.Now()})
	return res.RowsAffected > 0, res.Error
}

func (r *pedidoRepo) CreateHistorial(ctx context.Context, tx *gorm.DB, h *model.HistorialEstado) error {
	return conn(ctx, r.db, tx).Create(h).Error
}

func (r *pedidoRepo) ListHistorial(ctx context.Context, pedidoID uint) ([]model.HistorialEstado, error) {
	var out []model.HistorialEstado
	err := r.db.WithContext(ctx).
		Where("pedido_id = ?", pedidoID).
		Order("fecha ASC, id ASC").
		Find(&out).Error
	return out, err
}
