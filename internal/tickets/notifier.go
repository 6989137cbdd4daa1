package tickets

import (
	"licoreria-service/internal/models"

	"go.uber.org/zap"
)

// Notifier publica los cambios de estado hacia las cajas conectadas.
// Los avisos son best-effort: un fallo de notificación nunca afecta la
// operación que lo originó.
type Notifier interface {
	TicketActualizado(t *models.Ticket)
	VentaRegistrada(v *models.Venta)
}

// LogNotifier es la implementación mínima: deja traza y nada más. Útil
// en tests y cuando el hub de websockets está deshabilitado.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier crea un notificador de solo log.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) TicketActualizado(t *models.Ticket) {
	n.logger.Debug("Ticket actualizado",
		zap.String("ticket_id", t.ID.String()),
		zap.String("estado", t.Estado),
		zap.Int("lineas", len(t.Lineas)))
}

func (n *LogNotifier) VentaRegistrada(v *models.Venta) {
	n.logger.Debug("Venta registrada",
		zap.String("venta_id", v.ID.String()),
		zap.String("total_usd", v.TotalUsd.String()))
}
