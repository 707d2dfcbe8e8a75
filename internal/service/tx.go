package service

import (
	"context"
	"time"

	"github.com/maurobense/ShingekiNoAPP/internal/apierror"
	"github.com/maurobense/ShingekiNoAPP/internal/repository"
	"github.com/maurobense/ShingekiNoAPP/internal/worker"

	"gorm.io/gorm"
)

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// lookupErr maps a repository lookup error: a missing row becomes notFound,
// anything else an infrastructure error.
func lookupErr(err error, notFound *apierror.Error, op string) error {
	if repository.IsNotFound(err) {
		return notFound
	}
	return apierror.Infra(op, err)
}

// JobDispatcher is the async queue the services enqueue into.
// *worker.Dispatcher satisfies it.
type JobDispatcher interface {
	EnqueueAlertaStock(ctx context.Context, p worker.AlertaStockPayload) error
	EnqueueReporteCaja(ctx context.Context, p worker.ReporteCajaPayload) error
}

// usuarioActor normalizes the acting user: nil and 0 both mean "system".
func usuarioActor(id *uint) *uint {
	if id == nil || *id == 0 {
		return nil
	}
	v := *id
	return &v
}

func inicioDelDia(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
