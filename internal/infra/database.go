package infra

import (
	"fmt"

	"github.com/maurobense/ShingekiNoAPP/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate to
// create / update all tables, then applies the idempotent SQL patches that GORM
// cannot express (partial indexes, check constraints).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// RunMigrations creates the schema from the models and applies the patches.
// Safe to call repeatedly; integration tests call it on a fresh container.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Sucursal{},
		&model.Ingrediente{},
		&model.Cliente{},
		&model.Direccion{},
		&model.Producto{},
		&model.ProductoIngrediente{},
		&model.StockSucursal{},
		&model.MovimientoStock{},
		&model.Pedido{},
		&model.PedidoItem{},
		&model.HistorialEstado{},
		&model.SesionCaja{},
		&model.MovimientoCaja{},
	); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs idempotent DDL statements that GORM AutoMigrate cannot
// handle on its own. Each statement is guarded by an existence check so
// re-running on an already-patched DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// At most one unclosed cash session system-wide. The index is on a
		// constant expression, so a second row with cerrada=false collides.
		{"uq_sesion_caja_abierta", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_indexes WHERE indexname = 'uq_sesion_caja_abierta') THEN
    CREATE UNIQUE INDEX uq_sesion_caja_abierta ON sesiones_caja ((true)) WHERE cerrada = false;
  END IF;
END $$`},
		{"chk_movimientos_caja_tipo", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_movimientos_caja_tipo') THEN
    ALTER TABLE movimientos_caja
      ADD CONSTRAINT chk_movimientos_caja_tipo CHECK (tipo IN ('IN', 'OUT') AND monto > 0);
  END IF;
END $$`},
		{"chk_producto_ingredientes_cantidad", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_producto_ingredientes_cantidad') THEN
    ALTER TABLE producto_ingredientes
      ADD CONSTRAINT chk_producto_ingredientes_cantidad CHECK (cantidad > 0);
  END IF;
END $$`},
		{"chk_pedido_items_cantidad", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_pedido_items_cantidad') THEN
    ALTER TABLE pedido_items
      ADD CONSTRAINT chk_pedido_items_cantidad CHECK (cantidad > 0 AND descuento >= 0);
  END IF;
END $$`},
		// cash close reads orders by date window and payment method
		{"idx_pedidos_fecha_metodo", `
CREATE INDEX IF NOT EXISTS idx_pedidos_fecha_metodo ON pedidos (fecha, metodo_pago)`},
	}
	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
