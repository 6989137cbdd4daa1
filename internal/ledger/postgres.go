package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"licoreria-service/internal/catalog"
	"licoreria-service/internal/models"

	"go.uber.org/zap"
)

// PostgresLedger implementa Ledger sobre stock_licoreria con un
// decremento condicional en SQL: la verificación y el descuento ocurren
// en el mismo UPDATE, así dos sesiones concurrentes no pueden pasar
// ambas la verificación antes de que alguna descuente.
type PostgresLedger struct {
	db       *sql.DB
	catalogo catalog.Provider
	logger   *zap.Logger
	stmts    map[string]*sql.Stmt
}

// NewPostgresLedger crea una nueva instancia del ledger.
func NewPostgresLedger(db *sql.DB, catalogo catalog.Provider, logger *zap.Logger) (*PostgresLedger, error) {
	l := &PostgresLedger{
		db:       db,
		catalogo: catalogo,
		logger:   logger,
		stmts:    make(map[string]*sql.Stmt),
	}

	if err := l.prepareStatements(); err != nil {
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return l, nil
}

func (l *PostgresLedger) prepareStatements() error {
	statements := map[string]string{
		"get_stock": `
			SELECT cantidad_actual
			FROM stock_licoreria
			WHERE producto = $1 AND subtipo = $2
		`,
		"descontar_condicional": `
			UPDATE stock_licoreria
			SET cantidad_actual = cantidad_actual - $1, updated_at = NOW()
			WHERE producto = $2 AND subtipo = $3 AND cantidad_actual >= $1
			RETURNING cantidad_actual
		`,
		"reponer": `
			INSERT INTO stock_licoreria (producto, subtipo, cantidad_actual, cantidad_minima)
			VALUES ($1, $2, $3, 0)
			ON CONFLICT (producto, subtipo)
			DO UPDATE SET cantidad_actual = stock_licoreria.cantidad_actual + $3, updated_at = NOW()
			RETURNING cantidad_actual
		`,
		"get_stock_completo": `
			SELECT id, producto, subtipo, cantidad_actual, cantidad_minima, created_at, updated_at
			FROM stock_licoreria
			ORDER BY producto, subtipo
		`,
		"create_movimiento": `
			INSERT INTO stock_movimientos
			(producto, subtipo, tipo_movimiento, cantidad, cantidad_anterior,
			 cantidad_nueva, motivo, referencia)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, created_at
		`,
	}

	for name, query := range statements {
		stmt, err := l.db.Prepare(query)
		if err != nil {
			return fmt.Errorf("failed to prepare %s: %w", name, err)
		}
		l.stmts[name] = stmt
	}

	return nil
}

func (l *PostgresLedger) VerificarStock(ctx context.Context, producto, emision, subtipo string, cantidadPacks int) (bool, error) {
	requerido := cantidadPacks * l.catalogo.UnidadesPorEmision(ctx, emision, subtipo)

	disponible, err := l.Disponible(ctx, producto, subtipo)
	if err != nil {
		return false, err
	}
	return disponible >= requerido, nil
}

func (l *PostgresLedger) TryDescontar(ctx context.Context, producto, emision, subtipo string, cantidadPacks int, motivo string) error {
	requerido := cantidadPacks * l.catalogo.UnidadesPorEmision(ctx, emision, subtipo)

	var nueva int
	err := l.stmts["descontar_condicional"].QueryRowContext(ctx, requerido, producto, subtipo).Scan(&nueva)
	if err == sql.ErrNoRows {
		// El UPDATE no aplicó: fila inexistente o cantidad insuficiente.
		disponible, _ := l.Disponible(ctx, producto, subtipo)
		return fmt.Errorf("%w: %s/%s disponible %d, solicitado %d",
			ErrStockInsuficiente, producto, subtipo, disponible, requerido)
	}
	if err != nil {
		return fmt.Errorf("failed to descontar stock: %w", err)
	}

	if err := l.registrar(ctx, producto, subtipo, models.MovimientoSalida, requerido, nueva+requerido, nueva, motivo); err != nil {
		l.logger.Error("No se pudo registrar movimiento de salida", zap.Error(err))
	}

	return nil
}

func (l *PostgresLedger) Reponer(ctx context.Context, producto, emision, subtipo string, cantidadPacks int, motivo string) error {
	unidades := cantidadPacks * l.catalogo.UnidadesPorEmision(ctx, emision, subtipo)

	var nueva int
	err := l.stmts["reponer"].QueryRowContext(ctx, producto, subtipo, unidades).Scan(&nueva)
	if err != nil {
		return fmt.Errorf("failed to reponer stock: %w", err)
	}

	if err := l.registrar(ctx, producto, subtipo, models.MovimientoEntrada, unidades, nueva-unidades, nueva, motivo); err != nil {
		l.logger.Error("No se pudo registrar movimiento de entrada", zap.Error(err))
	}

	return nil
}

func (l *PostgresLedger) Disponible(ctx context.Context, producto, subtipo string) (int, error) {
	var cantidad int
	err := l.stmts["get_stock"].QueryRowContext(ctx, producto, subtipo).Scan(&cantidad)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get stock: %w", err)
	}
	return cantidad, nil
}

func (l *PostgresLedger) StockActual(ctx context.Context) ([]*models.Stock, error) {
	rows, err := l.stmts["get_stock_completo"].QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get stock: %w", err)
	}
	defer rows.Close()

	var stocks []*models.Stock
	for rows.Next() {
		var stock models.Stock
		err := rows.Scan(
			&stock.ID, &stock.Producto, &stock.Subtipo, &stock.CantidadActual,
			&stock.CantidadMinima, &stock.CreatedAt, &stock.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock: %w", err)
		}
		stocks = append(stocks, &stock)
	}

	return stocks, nil
}

func (l *PostgresLedger) Movimientos(ctx context.Context, filter *models.MovimientoFilter) ([]*models.Movimiento, error) {
	query := `
		SELECT id, producto, subtipo, tipo_movimiento, cantidad, cantidad_anterior,
			   cantidad_nueva, motivo, referencia, created_at
		FROM stock_movimientos
		WHERE 1=1
	`
	args := []interface{}{}
	idx := 1

	if filter != nil {
		if filter.Producto != nil {
			query += fmt.Sprintf(" AND producto = $%d", idx)
			args = append(args, *filter.Producto)
			idx++
		}
		if filter.Subtipo != nil {
			query += fmt.Sprintf(" AND subtipo = $%d", idx)
			args = append(args, *filter.Subtipo)
			idx++
		}
		if filter.TipoMovimiento != nil {
			query += fmt.Sprintf(" AND tipo_movimiento = $%d", idx)
			args = append(args, *filter.TipoMovimiento)
			idx++
		}
	}

	query += " ORDER BY created_at DESC"
	if filter != nil && filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", idx)
		args = append(args, filter.Limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get movimientos: %w", err)
	}
	defer rows.Close()

	var movimientos []*models.Movimiento
	for rows.Next() {
		var mov models.Movimiento
		err := rows.Scan(
			&mov.ID, &mov.Producto, &mov.Subtipo, &mov.TipoMovimiento,
			&mov.Cantidad, &mov.CantidadAnterior, &mov.CantidadNueva,
			&mov.Motivo, &mov.Referencia, &mov.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan movimiento: %w", err)
		}
		movimientos = append(movimientos, &mov)
	}

	return movimientos, nil
}

func (l *PostgresLedger) registrar(ctx context.Context, producto, subtipo, tipo string, cantidad, anterior, nueva int, motivo string) error {
	var mov models.Movimiento
	return l.stmts["create_movimiento"].QueryRowContext(ctx,
		producto, subtipo, tipo, cantidad, anterior, nueva, motivo, "",
	).Scan(&mov.ID, &mov.CreatedAt)
}
