package router

import (
	"time"

	"github.com/maurobense/ShingekiNoAPP/internal/config"
	"github.com/maurobense/ShingekiNoAPP/internal/handler"
	"github.com/maurobense/ShingekiNoAPP/internal/infra"
	"github.com/maurobense/ShingekiNoAPP/internal/middleware"
	"github.com/maurobense/ShingekiNoAPP/internal/realtime"
	"github.com/maurobense/ShingekiNoAPP/internal/repository"
	"github.com/maurobense/ShingekiNoAPP/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// hub is the local delivery end of the real-time broker behind notifier.
func New(
	cfg *config.Config,
	db *gorm.DB,
	rdb *redis.Client,
	hub *realtime.Hub,
	notifier realtime.Notificador,
	realtimeCB *infra.CircuitBreaker,
	dispatcher service.JobDispatcher,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Infrastructure ───────────────────────────────────────────────────────
	seguimientoCache := infra.NewSeguimientoCache(rdb, time.Duration(cfg.TrackingCacheSeconds)*time.Second)

	// ── Repositories ─────────────────────────────────────────────────────────
	pedidoRepo := repository.NewPedidoRepository(db)
	productoRepo := repository.NewProductoRepository(db)
	clienteRepo := repository.NewClienteRepository(db)
	direccionRepo := repository.NewDireccionRepository(db)
	sucursalRepo := repository.NewSucursalRepository(db)
	ingredienteRepo := repository.NewIngredienteRepository(db)
	stockRepo := repository.NewStockRepository(db)
	movimientoStockRepo := repository.NewMovimientoStockRepository(db)
	recetaRepo := repository.NewRecetaRepository(db)
	cajaRepo := repository.NewCajaRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	stockSvc := service.NewStockService(stockRepo, movimientoStockRepo, sucursalRepo, ingredienteRepo, dispatcher)
	pedidoSvc := service.NewPedidoService(
		pedidoRepo, productoRepo, clienteRepo, direccionRepo, sucursalRepo,
		stockSvc, notifier, seguimientoCache,
	)
	recetaSvc := service.NewRecetaService(recetaRepo, productoRepo, ingredienteRepo)
	cajaSvc := service.NewCajaService(cajaRepo, pedidoRepo, dispatcher, service.CajaOptions{
		ReportEmail:    cfg.CajaReportEmail,
		PDFStoragePath: cfg.PDFStoragePath,
		NombreLocal:    cfg.NombreLocal,
	})

	// ── Handlers ─────────────────────────────────────────────────────────────
	pedidosH := handler.NewPedidosHandler(pedidoSvc)
	seguimientoH := handler.NewSeguimientoHandler(pedidoSvc, hub, seguimientoCache)
	stockH := handler.NewStockHandler(stockSvc)
	recetasH := handler.NewRecetasHandler(recetaSvc)
	cajaH := handler.NewCajaHandler(cajaSvc)
	tiempoRealH := handler.NewTiempoRealHandler(hub)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, realtimeCB))

	// Order tracking (public, polled by customers)
	seguimiento := r.Group("/v1/seguimiento", middleware.RateLimiter(120, time.Minute))
	{
		seguimiento.GET("/:tracking", seguimientoH.Obtener)
		seguimiento.GET("/:tracking/stream", seguimientoH.Stream)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	staff := middleware.RequireRole(middleware.RolCajero, middleware.RolCocinero, middleware.RolRepartidor)
	v1 := r.Group("/v1", jwtMW)
	{
		pedidos := v1.Group("/pedidos")
		{
			pedidos.POST("", middleware.RequireRole(middleware.RolCajero), pedidosH.Crear)
			pedidos.GET("", staff, pedidosH.Listar)
			pedidos.GET("/:id", staff, pedidosH.Obtener)
			pedidos.GET("/:id/historial", staff, pedidosH.Historial)
			pedidos.PATCH("/:id/estado", staff, pedidosH.CambiarEstado)
			pedidos.POST("/:id/avanzar", staff, pedidosH.Avanzar)
			pedidos.POST("/:id/cancelar", middleware.RequireRole(middleware.RolCajero), pedidosH.Cancelar)
		}
		v1.GET("/clientes/:id/pedidos", middleware.RequireRole(middleware.RolCajero), pedidosH.PorCliente)

		// Driver GPS relay
		v1.POST("/seguimiento/:tracking/ubicacion", middleware.RequireRole(middleware.RolRepartidor), seguimientoH.Ubicacion)

		stock := v1.Group("/stock", middleware.RequireRole(middleware.RolCocinero))
		{
			stock.POST("/movimientos", stockH.RegistrarMovimiento)
			stock.GET("/movimientos", stockH.ListarMovimientos)
		}
		sucursales := v1.Group("/sucursales/:id", middleware.RequireRole(middleware.RolCocinero, middleware.RolCajero))
		{
			sucursales.GET("/stock", stockH.PorSucursal)
			sucursales.GET("/stock/alertas", stockH.Alertas)
		}

		// Recetas: staff can read, only administrador edits
		v1.GET("/productos/:id/receta", staff, recetasH.Obtener)
		recetas := v1.Group("/productos/:id/receta", middleware.RequireRole())
		{
			recetas.POST("", recetasH.Agregar)
			recetas.DELETE("/:ingredienteId", recetasH.Quitar)
		}

		caja := v1.Group("/caja", middleware.RequireRole(middleware.RolCajero))
		{
			caja.POST("/abrir", cajaH.Abrir)
			caja.GET("/estado", cajaH.Estado)
			caja.POST("/movimientos", cajaH.RegistrarMovimiento)
			caja.POST("/cerrar", cajaH.Cerrar)
			caja.GET("/historial", cajaH.Historial)
			caja.GET("/sesiones/:id", cajaH.Detalle)
			caja.GET("/sesiones/:id/reporte", cajaH.Reporte)
		}

		v1.GET("/tiempo-real/stream", staff, tiempoRealH.Stream)
	}

	// Swagger UI, only enabled outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
