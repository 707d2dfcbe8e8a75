// Seeds a demo branch with ingredients, stock, recipes and a client.
// Uso: go run ./cmd/seed
package main

import (
	"context"
	"os"
	"time"

	"github.com/maurobense/ShingekiNoAPP/internal/config"
	"github.com/maurobense/ShingekiNoAPP/internal/dto"
	"github.com/maurobense/ShingekiNoAPP/internal/infra"
	"github.com/maurobense/ShingekiNoAPP/internal/model"
	"github.com/maurobense/ShingekiNoAPP/internal/repository"
	"github.com/maurobense/ShingekiNoAPP/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type ingredienteSeed struct {
	nombre string
	unidad string
	stock  string
	umbral string
}

type productoSeed struct {
	nombre string
	precio string
	receta map[string]string // ingrediente -> cantidad por unidad
}

var ingredientesSeed = []ingredienteSeed{
	{"Arroz", "kg", "20", "5"},
	{"Alga nori", "unidad", "200", "50"},
	{"Salmón", "kg", "8", "2"},
	{"Queso crema", "kg", "4", "1"},
	{"Harina", "kg", "25", "5"},
	{"Carne picada", "kg", "10", "3"},
}

var productosSeed = []productoSeed{
	{"Roll Filadelfia", "5400", map[string]string{"Arroz": "0.15", "Alga nori": "1", "Salmón": "0.08", "Queso crema": "0.04"}},
	{"Onigiri", "2100", map[string]string{"Arroz": "0.12", "Alga nori": "1"}},
	{"Empanada de carne", "1500", map[string]string{"Harina": "0.06", "Carne picada": "0.05"}},
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	ctx := context.Background()

	sucursales := repository.NewSucursalRepository(db)
	existentes, err := sucursales.List(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to list branches")
	}
	if len(existentes) > 0 {
		log.Info().Int("sucursales", len(existentes)).Msg("seed: database already has data, nothing to do")
		return
	}

	ingredientes := repository.NewIngredienteRepository(db)
	productos := repository.NewProductoRepository(db)
	stockSvc := service.NewStockService(
		repository.NewStockRepository(db),
		repository.NewMovimientoStockRepository(db),
		sucursales,
		ingredientes,
		nil,
	)
	recetaSvc := service.NewRecetaService(repository.NewRecetaRepository(db), productos, ingredientes)

	suc := model.Sucursal{Nombre: "Shingeki Centro", Direccion: "Av. Paradis 104"}
	must(sucursales.Create(ctx, &suc), "create branch")

	ids := make(map[string]uint, len(ingredientesSeed))
	for _, is := range ingredientesSeed {
		ing := model.Ingrediente{Nombre: is.nombre, Unidad: is.unidad}
		must(ingredientes.Create(ctx, &ing), "create ingredient "+is.nombre)
		ids[is.nombre] = ing.ID

		_, err := stockSvc.Ajustar(ctx, suc.ID, ing.ID, decimal.RequireFromString(is.stock))
		must(err, "seed stock "+is.nombre)
		must(stockSvc.SetUmbral(ctx, suc.ID, ing.ID, decimal.RequireFromString(is.umbral)), "seed threshold "+is.nombre)
	}

	for _, ps := range productosSeed {
		p := model.Producto{Nombre: ps.nombre, Precio: decimal.RequireFromString(ps.precio), Activo: true}
		must(productos.Create(ctx, &p), "create product "+ps.nombre)
		for ing, cant := range ps.receta {
			_, err := recetaSvc.Agregar(ctx, p.ID, dto.AgregarIngredienteRequest{
				IngredienteID: ids[ing],
				Cantidad:      decimal.RequireFromString(cant),
			})
			must(err, "add recipe line "+ps.nombre+"/"+ing)
		}
	}

	cli := model.Cliente{Nombre: "Cliente Demo", Telefono: "1155550000"}
	must(repository.NewClienteRepository(db).Create(ctx, &cli), "create client")
	dir := model.Direccion{ClienteID: &cli.ID, Calle: "Calle Falsa 123", Referencia: "Timbre 2B"}
	must(repository.NewDireccionRepository(db).Create(ctx, &dir), "create address")

	log.Info().
		Uint("sucursal_id", suc.ID).
		Uint("cliente_id", cli.ID).
		Uint("direccion_id", dir.ID).
		Int("productos", len(productosSeed)).
		Msg("seed: demo data created")
}

func must(err error, what string) {
	if err != nil {
		log.Fatal().Err(err).Msg("seed: " + what)
	}
}
