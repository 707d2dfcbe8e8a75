package repository

import (
	"context"
	"errors"

	"github.com/maurobense/ShingekiNoAPP/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrSesionAbiertaExistente is returned by CreateSesion when the partial
// unique index uq_sesion_caja_abierta rejects a second open session.
var ErrSesionAbiertaExistente = errors.New("ya existe una sesion de caja abierta")

type CajaRepository interface {
	DB() *gorm.DB
	CreateSesion(ctx context.Context, s *model.SesionCaja) error
	// FindSesionAbierta returns the most recent unclosed session. Inside a tx
	// the row is locked (SELECT … FOR UPDATE), which serializes movements
	// against the close.
	FindSesionAbierta(ctx context.Context, tx *gorm.DB) (*model.SesionCaja, error)
	FindSesionByID(ctx context.Context, id uint) (*model.SesionCaja, error)
	// CerrarSesion persists the closing figures only if the session is still
	// open. It reports false when another request closed it first.
	CerrarSesion(ctx context.Context, tx *gorm.DB, s *model.SesionCaja) (bool, error)
	CreateMovimiento(ctx context.Context, tx *gorm.DB, m *model.MovimientoCaja) error
	ListMovimientos(ctx context.Context, tx *gorm.DB, sesionCajaID uint) ([]model.MovimientoCaja, error)
	// ListCerradas returns the last closed sessions, newest close first.
	ListCerradas(ctx context.Context, limit int) ([]model.SesionCaja, error)
}

type cajaRepo struct{ db *gorm.DB }

func NewCajaRepository(db *gorm.DB) CajaRepository { return &cajaRepo{db: db} }

func (r *cajaRepo) DB() *gorm.DB { return r.db }

func (r *cajaRepo) CreateSesion(ctx context.Context, s *model.SesionCaja) error {
	err := r.db.WithContext(ctx).Create(s).Error
	if isUniqueViolation(err) {
		return ErrSesionAbiertaExistente
	}
	return err
}

func (r *cajaRepo) FindSesionAbierta(ctx context.Context, tx *gorm.DB) (*model.SesionCaja, error) {
	q := conn(ctx, r.db, tx)
	if tx != nil {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var s model.SesionCaja
	err := q.Where("cerrada = ?", false).Order("id DESC").First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *cajaRepo) FindSesionByID(ctx context.Context, id uint) (*model.SesionCaja, error) {
	var s model.SesionCaja
	err := r.db.WithContext(ctx).
		Preload("Movimientos", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, id ASC") }).
		First(&s, id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *cajaRepo) CerrarSesion(ctx context.Context, tx *gorm.DB, s *model.SesionCaja) (bool, error) {
	res := conn(ctx, r.db, tx).
		Model(&model.SesionCaja{}).
		Where("id = ? AND cerrada = ?", s.ID, false).
		Updates(map[string]any{
			"cierre":         s.Cierre,
			"monto_final":    s.MontoFinal,
			"monto_esperado": s.MontoEsperado,
			"diferencia":     s.Diferencia,
			"notas":          s.Notas,
			"cerrada":        true,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *cajaRepo) CreateMovimiento(ctx context.Context, tx *gorm.DB, m *model.MovimientoCaja) error {
	return conn(ctx, r.db, tx).Create(m).Error
}

func (r *cajaRepo) ListMovimientos(ctx context.Context, tx *gorm.DB, sesionCajaID uint) ([]model.MovimientoCaja, error) {
	var movs []model.MovimientoCaja
	err := conn(ctx, r.db, tx).Where("sesion_caja_id = ?", sesionCajaID).Order("created_at ASC, id ASC").Find(&movs).Error
	return movs, err
}

func (r *cajaRepo) ListCerradas(ctx context.Context, limit int) ([]model.SesionCaja, error) {
	var out []model.SesionCaja
	err := r.db.WithContext(ctx).
		Where("cerrada = ?", true).
		Order("cierre DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
