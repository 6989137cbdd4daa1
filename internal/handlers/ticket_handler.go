package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"licoreria-service/internal/catalog"
	"licoreria-service/internal/ledger"
	"licoreria-service/internal/models"
	"licoreria-service/internal/tickets"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TicketHandler maneja las peticiones HTTP del ciclo de vida de tickets
type TicketHandler struct {
	ticketService tickets.Service
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewTicketHandler crea una nueva instancia del handler
func NewTicketHandler(ticketService tickets.Service, logger *zap.Logger) *TicketHandler {
	return &TicketHandler{
		ticketService: ticketService,
		validator:     validator.New(),
		logger:        logger,
	}
}

// logError logs errores en todos los modos
func (h *TicketHandler) logError(msg string, fields ...zap.Field) {
	h.logger.Error("❌ "+msg, fields...)
}

// logSuccess logs de éxito en todos los modos
func (h *TicketHandler) logSuccess(msg string, fields ...zap.Field) {
	h.logger.Info("✅ "+msg, fields...)
}

// responder traduce los errores de dominio a códigos HTTP. Los
// sentinelas recuperables nunca llegan como 500.
func (h *TicketHandler) responder(c *gin.Context, err error, msg string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, tickets.ErrTicketNoEncontrado),
		errors.Is(err, tickets.ErrVentaNoEncontrada):
		status = http.StatusNotFound
	case errors.Is(err, tickets.ErrTicketNoAbierto),
		errors.Is(err, ledger.ErrStockInsuficiente):
		status = http.StatusConflict
	case errors.Is(err, tickets.ErrOrganizacionFaltante),
		errors.Is(err, tickets.ErrLineaInvalida),
		errors.Is(err, tickets.ErrSlotInvalido):
		status = http.StatusBadRequest
	case errors.Is(err, catalog.ErrPrecioNoEncontrado):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		h.logError(msg, zap.Error(err))
	}
	c.JSON(status, gin.H{
		"success": false,
		"message": "❌ " + msg,
		"error":   err.Error(),
	})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "❌ ID inválido",
			"error":   err.Error(),
		})
		return uuid.Nil, false
	}
	return id, true
}

// CrearTicket abre un ticket nuevo para la organización de la petición
func (h *TicketHandler) CrearTicket(c *gin.Context) {
	var req models.CrearTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "❌ Error en el formato de datos",
			"error":   err.Error(),
		})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "❌ Datos de entrada inválidos",
			"error":   err.Error(),
		})
		return
	}

	organizacion := c.GetString("organizacion")
	ticket, err := h.ticketService.CrearTicket(c.Request.Context(), organizacion, &req)
	if err != nil {
		h.responder(c, err, "Error creando ticket")
		return
	}

	h.logSuccess("Ticket creado",
		zap.String("ticket_id", ticket.ID.String()),
		zap.String("cliente", ticket.Cliente))
	c.JSON(http.StatusCreated, models.TicketResponse{
		Success: true,
		Message: "✅ Ticket creado",
		Ticket:  ticket,
	})
}

// ObtenerTicket retorna un ticket por ID
func (h *TicketHandler) ObtenerTicket(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	ticket, err := h.ticketService.ObtenerTicket(c.Request.Context(), id)
	if err != nil {
		h.responder(c, err, "Error obteniendo ticket")
		return
	}

	c.JSON(http.StatusOK, models.TicketResponse{
		Success: true,
		Message: "Ticket encontrado",
		Ticket:  ticket,
	})
}

// ListarTickets retorna los tickets de la organización, opcionalmente
// filtrados por estado
func (h *TicketHandler) ListarTickets(c *gin.Context) {
	organizacion := c.GetString("organizacion")
	estado := c.Query("estado")

	lista, err := h.ticketService.ListarTickets(c.Request.Context(), organizacion, estado)
	if err != nil {
		h.responder(c, err, "Error listando tickets")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"total_tickets": len(lista),
			"tickets":       lista,
			"timestamp":     time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// AgregarLinea agrega una línea al ticket
func (h *TicketHandler) AgregarLinea(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req models.LineaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "❌ Error en el formato de datos",
			"error":   err.Error(),
		})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "❌ Datos de entrada inválidos",
			"error":   err.Error(),
		})
		return
	}

	ticket, err := h.ticketService.AgregarLinea(c.Request.Context(), id, &req)
	if err != nil {
		h.responder(c, err, "Error agregando línea")
		return
	}

	c.JSON(http.StatusOK, models.TicketResponse{
		Success: true,
		Message: "✅ Línea agregada",
		Ticket:  ticket,
	})
}

// QuitarLinea elimina una línea del ticket por índice
func (h *TicketHandler) QuitarLinea(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	indice, err := strconv.Atoi(c.Param("indice"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "❌ Índice de línea inválido",
			"error":   err.Error(),
		})
		return
	}

	ticket, err := h.ticketService.QuitarLinea(c.Request.Context(), id, indice)
	if err != nil {
		h.responder(c, err, "Error quitando línea")
		return
	}

	c.JSON(http.StatusOK, models.TicketResponse{
		Success: true,
		Message: "✅ Línea quitada",
		Ticket:  ticket,
	})
}

// FijarSlot asigna o libera un slot de una línea de consumo local
func (h *TicketHandler) FijarSlot(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req models.FijarSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "❌ Error en el formato de datos",
			"error":   err.Error(),
		})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "❌ Datos de entrada inválidos",
			"error":   err.Error(),
		})
		return
	}

	ticket, err := h.ticketService.FijarSlot(c.Request.Context(), id, &req)
	if err != nil {
		h.responder(c, err, "Error fijando slot")
		return
	}

	c.JSON(http.StatusOK, models.TicketResponse{
		Success: true,
		Message: "✅ Slot actualizado",
		Ticket:  ticket,
	})
}

// CalcularTotal retorna el total vigente del ticket sin cerrarlo
func (h *TicketHandler) CalcularTotal(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	resultado, err := h.ticketService.CalcularTotal(c.Request.Context(), id)
	if err != nil {
		h.responder(c, err, "Error calculando total")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"total_usd": resultado.TotalUsd.Round(2),
		"total_bs":  resultado.TotalBs.Round(2),
		"lineas":    resultado.Lineas,
		"detalles":  resultado.Detalles,
	})
}

// CerrarTicket cobra el ticket y lo congela como venta
func (h *TicketHandler) CerrarTicket(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req models.CerrarTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "❌ Error en el formato de datos",
			"error":   err.Error(),
		})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "❌ Datos de entrada inválidos",
			"error":   err.Error(),
		})
		return
	}

	venta, err := h.ticketService.CerrarTicket(c.Request.Context(), id, &req)
	if err != nil {
		h.responder(c, err, "Error cerrando ticket")
		return
	}

	h.logSuccess("Venta registrada",
		zap.String("venta_id", venta.ID.String()),
		zap.String("total_usd", venta.TotalUsd.String()))
	c.JSON(http.StatusOK, models.VentaResponse{
		Success: true,
		Message: "✅ Ticket cerrado",
		Venta:   venta,
	})
}

// CancelarTicket cancela el ticket y repone el stock consumido
func (h *TicketHandler) CancelarTicket(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	ticket, err := h.ticketService.CancelarTicket(c.Request.Context(), id)
	if err != nil {
		h.responder(c, err, "Error cancelando ticket")
		return
	}

	c.JSON(http.StatusOK, models.TicketResponse{
		Success: true,
		Message: "✅ Ticket cancelado",
		Ticket:  ticket,
	})
}

// ObtenerVenta retorna una venta por ID
func (h *TicketHandler) ObtenerVenta(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	venta, err := h.ticketService.ObtenerVenta(c.Request.Context(), id)
	if err != nil {
		h.responder(c, err, "Error obteniendo venta")
		return
	}

	c.JSON(http.StatusOK, models.VentaResponse{
		Success: true,
		Message: "Venta encontrada",
		Venta:   venta,
	})
}

// ListarVentas retorna las ventas de la organización
func (h *TicketHandler) ListarVentas(c *gin.Context) {
	organizacion := c.GetString("organizacion")

	lista, err := h.ticketService.ListarVentas(c.Request.Context(), organizacion)
	if err != nil {
		h.responder(c, err, "Error listando ventas")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"total_ventas": len(lista),
			"ventas":       lista,
			"timestamp":    time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// EliminarVenta borra una venta y repone el stock de sus líneas
func (h *TicketHandler) EliminarVenta(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.ticketService.EliminarVenta(c.Request.Context(), id); err != nil {
		h.responder(c, err, "Error eliminando venta")
		return
	}

	h.logSuccess("Venta eliminada", zap.String("venta_id", id.String()))
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "✅ Venta eliminada con reposición de stock",
	})
}
