package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"licoreria-service/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PostgresCatalog implementa Provider sobre la tabla precios_emisiones,
// con PrecioCache al frente para las consultas calientes del POS.
type PostgresCatalog struct {
	db     *sql.DB
	cache  *PrecioCache
	logger *zap.Logger
	stmts  map[string]*sql.Stmt
}

// NewPostgresCatalog crea una nueva instancia del catálogo. El caché es
// opcional (nil lo desactiva, útil en tests de integración).
func NewPostgresCatalog(db *sql.DB, cache *PrecioCache, logger *zap.Logger) (*PostgresCatalog, error) {
	c := &PostgresCatalog{
		db:     db,
		cache:  cache,
		logger: logger,
		stmts:  make(map[string]*sql.Stmt),
	}

	if err := c.prepareStatements(); err != nil {
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return c, nil
}

func (c *PostgresCatalog) prepareStatements() error {
	statements := map[string]string{
		"get_entrada": `
			SELECT id, producto, subtipo, emision, unidades, precio_usd,
				   precio_usd_local, precio_bs, precio_bs_local, costo, updated_at
			FROM precios_emisiones
			WHERE producto = $1 AND subtipo = $2 AND emision = $3
		`,
		"get_unidades": `
			SELECT unidades
			FROM precios_emisiones
			WHERE emision = $1 AND subtipo = $2
			LIMIT 1
		`,
		"get_emisiones": `
			SELECT id, producto, subtipo, emision, unidades, precio_usd,
				   precio_usd_local, precio_bs, precio_bs_local, costo, updated_at
			FROM precios_emisiones
			WHERE producto = $1 AND subtipo = $2
			ORDER BY unidades DESC
		`,
	}

	for name, query := range statements {
		stmt, err := c.db.Prepare(query)
		if err != nil {
			return fmt.Errorf("failed to prepare %s: %w", name, err)
		}
		c.stmts[name] = stmt
	}

	return nil
}

func (c *PostgresCatalog) Entrada(ctx context.Context, producto, subtipo, emision string) (*models.PrecioEmision, error) {
	if c.cache != nil {
		if entrada, err := c.cache.Get(ctx, producto, subtipo, emision); err == nil && entrada != nil {
			return entrada, nil
		}
	}

	var e models.PrecioEmision
	err := c.stmts["get_entrada"].QueryRowContext(ctx, producto, subtipo, emision).Scan(
		&e.ID, &e.Producto, &e.Subtipo, &e.Emision, &e.Unidades,
		&e.PrecioUsd, &e.PrecioUsdLocal, &e.PrecioBs, &e.PrecioBsLocal,
		&e.Costo, &e.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s/%s/%s", ErrPrecioNoEncontrado, producto, subtipo, emision)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get precio: %w", err)
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, &e); err != nil {
			c.logger.Warn("No se pudo cachear entrada del catálogo",
				zap.String("producto", producto), zap.Error(err))
		}
	}

	return &e, nil
}

func (c *PostgresCatalog) PrecioUnitario(ctx context.Context, producto, emision, subtipo string, tier models.Tier) (decimal.Decimal, error) {
	e, err := c.Entrada(ctx, producto, subtipo, emision)
	if err != nil {
		return decimal.Zero, err
	}
	return precioPorTier(e, tier, false), nil
}

func (c *PostgresCatalog) PrecioBs(ctx context.Context, producto, emision, subtipo string, tier models.Tier) (decimal.Decimal, error) {
	e, err := c.Entrada(ctx, producto, subtipo, emision)
	if err != nil {
		return decimal.Zero, err
	}
	return precioPorTier(e, tier, true), nil
}

func (c *PostgresCatalog) Costo(ctx context.Context, producto, emision, subtipo string) (decimal.Decimal, error) {
	e, err := c.Entrada(ctx, producto, subtipo, emision)
	if err != nil {
		return decimal.Zero, err
	}
	return e.Costo, nil
}

func (c *PostgresCatalog) UnidadesPorEmision(ctx context.Context, emision, subtipo string) int {
	if emision == models.EmisionUnidad {
		return 1
	}

	var unidades int
	err := c.stmts["get_unidades"].QueryRowContext(ctx, emision, subtipo).Scan(&unidades)
	if err != nil {
		// Combinación desconocida: 1 unidad por convención.
		return 1
	}
	return unidades
}

func (c *PostgresCatalog) EmisionesConfiguradas(ctx context.Context, producto, subtipo string) ([]models.PrecioEmision, error) {
	rows, err := c.stmts["get_emisiones"].QueryContext(ctx, producto, subtipo)
	if err != nil {
		return nil, fmt.Errorf("failed to get emisiones: %w", err)
	}
	defer rows.Close()

	var result []models.PrecioEmision
	for rows.Next() {
		var e models.PrecioEmision
		err := rows.Scan(
			&e.ID, &e.Producto, &e.Subtipo, &e.Emision, &e.Unidades,
			&e.PrecioUsd, &e.PrecioUsdLocal, &e.PrecioBs, &e.PrecioBsLocal,
			&e.Costo, &e.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan emision: %w", err)
		}
		result = append(result, e)
	}

	return result, nil
}
