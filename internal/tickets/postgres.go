package tickets

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"licoreria-service/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PostgresRepository implementa Repository sobre las tablas tickets y
// ventas. Las líneas viajan como JSONB: el ticket se reescribe completo
// en cada mutación (snapshot, último escritor gana).
type PostgresRepository struct {
	db     *sql.DB
	logger *zap.Logger
	stmts  map[string]*sql.Stmt
}

// NewPostgresRepository crea una nueva instancia del repositorio.
func NewPostgresRepository(db *sql.DB, logger *zap.Logger) (*PostgresRepository, error) {
	r := &PostgresRepository{
		db:     db,
		logger: logger,
		stmts:  make(map[string]*sql.Stmt),
	}

	if err := r.prepareStatements(); err != nil {
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}

	return r, nil
}

func (r *PostgresRepository) prepareStatements() error {
	statements := map[string]string{
		"upsert_ticket": `
			INSERT INTO tickets
			(id, organizacion, cliente, estado, tipo, lineas, metodo_pago, referencia, creado_en, cerrado_en)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (id)
			DO UPDATE SET estado = $4, lineas = $6, metodo_pago = $7,
			              referencia = $8, cerrado_en = $10
		`,
		"get_ticket": `
			SELECT id, organizacion, cliente, estado, tipo, lineas,
				   metodo_pago, referencia, creado_en, cerrado_en
			FROM tickets
			WHERE id = $1
		`,
		"create_venta": `
			INSERT INTO ventas
			(id, ticket_id, organizacion, cliente, tipo, metodo_pago, referencia,
			 total_usd, total_bs, lineas, detalles, creado_en)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`,
		"get_venta": `
			SELECT id, ticket_id, organizacion, cliente, tipo, metodo_pago, referencia,
				   total_usd, total_bs, lineas, detalles, creado_en
			FROM ventas
			WHERE id = $1
		`,
		"delete_venta": `
			DELETE FROM ventas WHERE id = $1
		`,
	}

	for name, query := range statements {
		stmt, err := r.db.Prepare(query)
		if err != nil {
			return fmt.Errorf("failed to prepare %s: %w", name, err)
		}
		r.stmts[name] = stmt
	}

	return nil
}

func (r *PostgresRepository) GuardarTicket(ctx context.Context, t *models.Ticket) error {
	lineas, err := json.Marshal(t.Lineas)
	if err != nil {
		return fmt.Errorf("failed to marshal lineas: %w", err)
	}

	_, err = r.stmts["upsert_ticket"].ExecContext(ctx,
		t.ID, t.Organizacion, t.Cliente, t.Estado, t.Tipo, lineas,
		t.MetodoPago, t.Referencia, t.CreadoEn, t.CerradoEn,
	)
	if err != nil {
		return fmt.Errorf("failed to guardar ticket: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ObtenerTicket(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	var t models.Ticket
	var lineas []byte

	err := r.stmts["get_ticket"].QueryRowContext(ctx, id).Scan(
		&t.ID, &t.Organizacion, &t.Cliente, &t.Estado, &t.Tipo, &lineas,
		&t.MetodoPago, &t.Referencia, &t.CreadoEn, &t.CerradoEn,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrTicketNoEncontrado, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}

	if err := json.Unmarshal(lineas, &t.Lineas); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lineas: %w", err)
	}
	return &t, nil
}

func (r *PostgresRepository) ListarTickets(ctx context.Context, organizacion, estado string) ([]*models.Ticket, error) {
	query := `
		SELECT id, organizacion, cliente, estado, tipo, lineas,
			   metodo_pago, referencia, creado_en, cerrado_en
		FROM tickets
		WHERE 1=1
	`
	args := []interface{}{}
	idx := 1

	if organizacion != "" {
		query += fmt.Sprintf(" AND organizacion = $%d", idx)
		args = append(args, organizacion)
		idx++
	}
	if estado != "" {
		query += fmt.Sprintf(" AND estado = $%d", idx)
		args = append(args, estado)
	}
	query += " ORDER BY creado_en"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to listar tickets: %w", err)
	}
	defer rows.Close()

	var result []*models.Ticket
	for rows.Next() {
		var t models.Ticket
		var lineas []byte
		err := rows.Scan(
			&t.ID, &t.Organizacion, &t.Cliente, &t.Estado, &t.Tipo, &lineas,
			&t.MetodoPago, &t.Referencia, &t.CreadoEn, &t.CerradoEn,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		if err := json.Unmarshal(lineas, &t.Lineas); err != nil {
			return nil, fmt.Errorf("failed to unmarshal lineas: %w", err)
		}
		result = append(result, &t)
	}

	return result, nil
}

// GuardarCierre inserta la venta y marca el ticket como pagado dentro de
// una transacción. Un fallo en cualquiera de las dos escrituras revierte
// ambas: nunca queda una venta registrada contra un ticket abierto.
func (r *PostgresRepository) GuardarCierre(ctx context.Context, t *models.Ticket, v *models.Venta) error {
	lineasTicket, err := json.Marshal(t.Lineas)
	if err != nil {
		return fmt.Errorf("failed to marshal lineas del ticket: %w", err)
	}
	lineasVenta, err := json.Marshal(v.Lineas)
	if err != nil {
		return fmt.Errorf("failed to marshal lineas de la venta: %w", err)
	}
	detalles, err := json.Marshal(v.Detalles)
	if err != nil {
		return fmt.Errorf("failed to marshal detalles: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.StmtContext(ctx, r.stmts["create_venta"]).ExecContext(ctx,
		v.ID, v.TicketID, v.Organizacion, v.Cliente, v.Tipo, v.MetodoPago,
		v.Referencia, v.TotalUsd, v.TotalBs, lineasVenta, detalles, v.CreadoEn,
	)
	if err != nil {
		return fmt.Errorf("failed to guardar venta: %w", err)
	}

	_, err = tx.StmtContext(ctx, r.stmts["upsert_ticket"]).ExecContext(ctx,
		t.ID, t.Organizacion, t.Cliente, t.Estado, t.Tipo, lineasTicket,
		t.MetodoPago, t.Referencia, t.CreadoEn, t.CerradoEn,
	)
	if err != nil {
		return fmt.Errorf("failed to guardar ticket cerrado: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cierre: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ObtenerVenta(ctx context.Context, id uuid.UUID) (*models.Venta, error) {
	var v models.Venta
	var lineas, detalles []byte

	err := r.stmts["get_venta"].QueryRowContext(ctx, id).Scan(
		&v.ID, &v.TicketID, &v.Organizacion, &v.Cliente, &v.Tipo, &v.MetodoPago,
		&v.Referencia, &v.TotalUsd, &v.TotalBs, &lineas, &detalles, &v.CreadoEn,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrVentaNoEncontrada, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get venta: %w", err)
	}

	if err := json.Unmarshal(lineas, &v.Lineas); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lineas: %w", err)
	}
	if err := json.Unmarshal(detalles, &v.Detalles); err != nil {
		return nil, fmt.Errorf("failed to unmarshal detalles: %w", err)
	}
	return &v, nil
}

func (r *PostgresRepository) ListarVentas(ctx context.Context, organizacion string) ([]*models.Venta, error) {
	query := `
		SELECT id, ticket_id, organizacion, cliente, tipo, metodo_pago, referencia,
			   total_usd, total_bs, lineas, detalles, creado_en
		FROM ventas
	`
	args := []interface{}{}
	if organizacion != "" {
		query += " WHERE organizacion = $1"
		args = append(args, organizacion)
	}
	query += " ORDER BY creado_en"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to listar ventas: %w", err)
	}
	defer rows.Close()

	var result []*models.Venta
	for rows.Next() {
		var v models.Venta
		var lineas, detalles []byte
		err := rows.Scan(
			&v.ID, &v.TicketID, &v.Organizacion, &v.Cliente, &v.Tipo, &v.MetodoPago,
			&v.Referencia, &v.TotalUsd, &v.TotalBs, &lineas, &detalles, &v.CreadoEn,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan venta: %w", err)
		}
		if err := json.Unmarshal(lineas, &v.Lineas); err != nil {
			return nil, fmt.Errorf("failed to unmarshal lineas: %w", err)
		}
		if err := json.Unmarshal(detalles, &v.Detalles); err != nil {
			return nil, fmt.Errorf("failed to unmarshal detalles: %w", err)
		}
		result = append(result, &v)
	}

	return result, nil
}

func (r *PostgresRepository) EliminarVenta(ctx context.Context, id uuid.UUID) error {
	res, err := r.stmts["delete_venta"].ExecContext(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to eliminar venta: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrVentaNoEncontrada, id)
	}
	return nil
}
