package tickets

import (
	"context"
	"errors"

	"licoreria-service/internal/models"

	"github.com/google/uuid"
)

var (
	// ErrTicketNoEncontrado indica que el ticket no existe.
	ErrTicketNoEncontrado = errors.New("ticket no encontrado")

	// ErrVentaNoEncontrada indica que la venta no existe.
	ErrVentaNoEncontrada = errors.New("venta no encontrada")

	// ErrTicketNoAbierto indica que se intentó mutar un ticket que ya no
	// está ABIERTO. PAGADO y CANCELADO son terminales; el doble cierre y
	// la doble cancelación caen acá.
	ErrTicketNoAbierto = errors.New("el ticket no está abierto")

	// ErrOrganizacionFaltante indica que la petición llegó sin contexto
	// de organización.
	ErrOrganizacionFaltante = errors.New("organización no especificada")

	// ErrLineaInvalida indica un índice de línea fuera de rango o una
	// línea que no admite la operación pedida.
	ErrLineaInvalida = errors.New("línea inválida")

	// ErrSlotInvalido indica un índice de slot fuera de rango para la
	// capacidad de la línea.
	ErrSlotInvalido = errors.New("slot inválido")
)

// Repository persiste tickets y ventas. El ticket se guarda completo en
// cada mutación (snapshot, último escritor gana); la venta es inmutable
// una vez escrita salvo su eliminación compensatoria.
type Repository interface {
	GuardarTicket(ctx context.Context, t *models.Ticket) error
	ObtenerTicket(ctx context.Context, id uuid.UUID) (*models.Ticket, error)
	ListarTickets(ctx context.Context, organizacion, estado string) ([]*models.Ticket, error)

	// GuardarCierre persiste la venta y el ticket pagado como una sola
	// escritura: o quedan ambos o no queda ninguno. Es la única vía por
	// la que se crea una venta.
	GuardarCierre(ctx context.Context, t *models.Ticket, v *models.Venta) error
	ObtenerVenta(ctx context.Context, id uuid.UUID) (*models.Venta, error)
	ListarVentas(ctx context.Context, organizacion string) ([]*models.Venta, error)
	EliminarVenta(ctx context.Context, id uuid.UUID) error
}
