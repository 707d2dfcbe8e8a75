package service

import (
	"context"

	"github.com/maurobense/ShingekiNoAPP/internal/apierror"
	"github.com/maurobense/ShingekiNoAPP/internal/dto"
	"github.com/maurobense/ShingekiNoAPP/internal/model"
	"github.com/maurobense/ShingekiNoAPP/internal/repository"

	"github.com/rs/zerolog/log"
)

// RecetaService manages the ingredient lines of a product.
type RecetaService interface {
	Agregar(ctx context.Context, productoID uint, req dto.AgregarIngredienteRequest) (*dto.RecetaResponse, error)
	Quitar(ctx context.Context, productoID, ingredienteID uint) error
	Obtener(ctx context.Context, productoID uint) (*dto.RecetaResponse, error)
}

type recetaService struct {
	repo         repository.RecetaRepository
	productos    repository.ProductoRepository
	ingredientes repository.IngredienteRepository
}

func NewRecetaService(
	repo repository.RecetaRepository,
	productos repository.ProductoRepository,
	ingredientes repository.IngredienteRepository,
) RecetaService {
	return &recetaService{repo: repo, productos: productos, ingredientes: ingredientes}
}

// Agregar adds an ingredient line. A previously removed line for the same
// ingredient is revived with the new quantity.
func (s *recetaService) Agregar(ctx context.Context, productoID uint, req dto.AgregarIngredienteRequest) (*dto.RecetaResponse, error) {
	if !req.Cantidad.IsPositive() {
		return nil, apierror.Validation("La cantidad debe ser mayor a cero")
	}
	if _, err := s.productos.FindByID(ctx, productoID); err != nil {
		return nil, lookupErr(err, apierror.NotFound("Producto no encontrado"), "No se pudo leer el producto")
	}
	if _, err := s.ingredientes.FindByID(ctx, req.IngredienteID); err != nil {
		return nil, lookupErr(err, apierror.Validation("Ingrediente no encontrado"), "No se pudo leer el ingrediente")
	}

	linea, err := s.repo.FindLinea(ctx, productoID, req.IngredienteID)
	switch {
	case err == nil && !linea.EstaEliminado():
		return nil, apierror.Conflict("El ingrediente ya forma parte de la receta")
	case err == nil:
		if err := s.repo.Revivir(ctx, linea, req.Cantidad); err != nil {
			return nil, apierror.Infra("No se pudo agregar el ingrediente", err)
		}
	case repository.IsNotFound(err):
		nueva := &model.ProductoIngrediente{
			ProductoID:    productoID,
			IngredienteID: req.IngredienteID,
			Cantidad:      req.Cantidad,
		}
		if err := s.repo.Create(ctx, nueva); err != nil {
			return nil, apierror.Infra("No se pudo agregar el ingrediente", err)
		}
	default:
		return nil, apierror.Infra("No se pudo leer la receta", err)
	}

	log.Info().Uint("producto_id", productoID).Uint("ingrediente_id", req.IngredienteID).Msg("receta: ingrediente agregado")
	return s.Obtener(ctx, productoID)
}

func (s *recetaService) Quitar(ctx context.Context, productoID, ingredienteID uint) error {
	linea, err := s.repo.FindLinea(ctx, productoID, ingredienteID)
	if err != nil {
		return lookupErr(err, apierror.NotFound("El ingrediente no forma parte de la receta"), "No se pudo leer la receta")
	}
	if linea.EstaEliminado() {
		return apierror.NotFound("El ingrediente no forma parte de la receta")
	}
	if err := s.repo.SoftDelete(ctx, linea.ID); err != nil {
		return apierror.Infra("No se pudo quitar el ingrediente", err)
	}
	return nil
}

func (s *recetaService) Obtener(ctx context.Context, productoID uint) (*dto.RecetaResponse, error) {
	p, err := s.productos.FindByID(ctx, productoID)
	if err != nil {
		return nil, lookupErr(err, apierror.NotFound("Producto no encontrado"), "No se pudo leer el producto")
	}
	lineas, err := s.repo.ListByProducto(ctx, productoID)
	if err != nil {
		return nil, apierror.Infra("No se pudo leer la receta", err)
	}

	out := &dto.RecetaResponse{
		ProductoID: p.ID,
		Producto:   p.Nombre,
		Lineas:     make([]dto.RecetaLineaResponse, 0, len(lineas)),
	}
	for _, l := range lineas {
		r := dto.RecetaLineaResponse{IngredienteID: l.IngredienteID, Cantidad: l.Cantidad}
		if l.Ingrediente != nil {
			r.Ingrediente = l.Ingrediente.Nombre
			r.Unidad = l.Ingrediente.Unidad
		}
		out.Lineas = append(out.Lineas, r)
	}
	return out, nil
}
