package realtime

import (
	"net/http"
	"sync"
	"time"

	"licoreria-service/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Permitir todas las conexiones para desarrollo
	},
}

// Evento es el mensaje que el hub difunde a las cajas conectadas. Se
// envía el snapshot completo del ticket o la venta, nunca deltas: el
// último snapshot recibido es el estado vigente (último escritor gana).
type Evento struct {
	Tipo      string         `json:"tipo"`
	Ticket    *models.Ticket `json:"ticket,omitempty"`
	Venta     *models.Venta  `json:"venta,omitempty"`
	Timestamp string         `json:"timestamp"`
}

// Hub mantiene las conexiones WebSocket activas y difunde eventos de
// tickets y ventas. Implementa tickets.Notifier.
type Hub struct {
	logger *zap.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]chan Evento
}

// NewHub crea un nuevo hub de difusión.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*websocket.Conn]chan Evento),
	}
}

// ServeWS actualiza la petición a WebSocket y bombea eventos hasta que
// la conexión o el contexto se cierren.
func (h *Hub) ServeWS(c *gin.Context) {
	logger := h.logger.With(zap.String("handler", "websocket_tickets"))

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("Error actualizando a WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	eventos := h.registrar(conn)
	defer h.desregistrar(conn)

	logger.Info("Conexión WebSocket establecida",
		zap.String("remote", conn.RemoteAddr().String()))

	for {
		select {
		case evento, ok := <-eventos:
			if !ok {
				return
			}
			if err := conn.WriteJSON(evento); err != nil {
				logger.Error("Error enviando evento por WebSocket", zap.Error(err))
				return
			}
		case <-c.Request.Context().Done():
			logger.Info("Conexión WebSocket cerrada por contexto")
			return
		}
	}
}

// TicketActualizado difunde el snapshot completo de un ticket.
func (h *Hub) TicketActualizado(t *models.Ticket) {
	h.difundir(Evento{
		Tipo:      "ticket",
		Ticket:    t,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// VentaRegistrada difunde una venta recién cerrada.
func (h *Hub) VentaRegistrada(v *models.Venta) {
	h.difundir(Evento{
		Tipo:      "venta",
		Venta:     v,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Hub) registrar(conn *websocket.Conn) chan Evento {
	h.mu.Lock()
	defer h.mu.Unlock()

	eventos := make(chan Evento, 16)
	h.clients[conn] = eventos
	return eventos
}

func (h *Hub) desregistrar(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if eventos, ok := h.clients[conn]; ok {
		close(eventos)
		delete(h.clients, conn)
	}
}

// difundir entrega el evento a cada cliente sin bloquear: si el buffer
// de un cliente está lleno, ese cliente pierde el evento y se entera
// del estado con el siguiente snapshot.
func (h *Hub) difundir(evento Evento) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn, eventos := range h.clients {
		select {
		case eventos <- evento:
		default:
			h.logger.Warn("Cliente WebSocket lento, evento descartado",
				zap.String("remote", conn.RemoteAddr().String()))
		}
	}
}
