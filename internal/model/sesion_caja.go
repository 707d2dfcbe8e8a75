package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SesionCaja represents the lifecycle of the cash register.
// Only one row may have Cerrada=false at any time (partial unique index
// uq_sesion_caja_abierta). Closing is terminal.
type SesionCaja struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	Apertura       time.Time       `gorm:"not null" json:"apertura"`
	Cierre         *time.Time      `json:"cierre,omitempty"`
	FechaOperativa time.Time       `gorm:"type:date;not null" json:"fecha_operativa"`
	MontoInicial   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"monto_inicial"`
	// MontoEsperado is computed on close: inicial + ventas efectivo + ingresos - egresos
	MontoEsperado *decimal.Decimal `gorm:"type:decimal(12,2)" json:"monto_esperado,omitempty"`
	MontoFinal    *decimal.Decimal `gorm:"type:decimal(12,2)" json:"monto_final,omitempty"`
	Diferencia    *decimal.Decimal `gorm:"type:decimal(12,2)" json:"diferencia,omitempty"`
	Notas         *string          `json:"notas,omitempty"`
	Cerrada       bool             `gorm:"not null;default:false" json:"cerrada"`
	UsuarioID     *uint            `json:"usuario_id,omitempty"`

	Movimientos []MovimientoCaja `gorm:"foreignKey:SesionCajaID" json:"movimientos,omitempty"`
}

func (SesionCaja) TableName() string { return "sesiones_caja" }

const (
	MovimientoIngreso = "IN"
	MovimientoEgreso  = "OUT"
)

// MovimientoCaja is an immutable manual entry in the cash register ledger.
// Tipo: "IN" | "OUT". Movements are NEVER modified or deleted.
type MovimientoCaja struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	SesionCajaID uint            `gorm:"index;not null" json:"sesion_caja_id"`
	Tipo         string          `gorm:"type:varchar(3);not null" json:"tipo"`
	Monto        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"monto"`
	Descripcion  string          `gorm:"not null" json:"descripcion"`
	CreatedAt    time.Time       `json:"created_at"`
}

func (MovimientoCaja) TableName() string { return "movimientos_caja" }
