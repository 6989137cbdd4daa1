package routes

import (
	"licoreria-service/internal/handlers"
	"licoreria-service/internal/middleware"
	"licoreria-service/internal/realtime"

	"github.com/gin-gonic/gin"
)

// SetupRoutes configura todas las rutas de la aplicación
func SetupRoutes(router *gin.Engine, ticketHandler *handlers.TicketHandler, stockHandler *handlers.StockHandler, hub *realtime.Hub, healthChecker *middleware.HealthChecker) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Tickets: ciclo de vida completo
		tickets := v1.Group("/tickets")
		{
			tickets.POST("", ticketHandler.CrearTicket)
			tickets.GET("", ticketHandler.ListarTickets)
			tickets.GET("/:id", ticketHandler.ObtenerTicket)
			tickets.GET("/:id/total", ticketHandler.CalcularTotal)

			tickets.POST("/:id/lineas", ticketHandler.AgregarLinea)
			tickets.DELETE("/:id/lineas/:indice", ticketHandler.QuitarLinea)
			tickets.PUT("/:id/slots", ticketHandler.FijarSlot)

			tickets.POST("/:id/cerrar", ticketHandler.CerrarTicket)
			tickets.POST("/:id/cancelar", ticketHandler.CancelarTicket)
		}

		// Difusión en tiempo real hacia las cajas. Fuera del grupo
		// /tickets para no chocar con la ruta parametrizada /:id.
		v1.GET("/ws/tickets", hub.ServeWS)

		// Ventas: consulta y eliminación compensatoria
		ventas := v1.Group("/ventas")
		{
			ventas.GET("", ticketHandler.ListarVentas)
			ventas.GET("/:id", ticketHandler.ObtenerVenta)
			ventas.DELETE("/:id", ticketHandler.EliminarVenta)
		}

		// Stock: ledger de inventario
		stock := v1.Group("/stock")
		{
			stock.POST("/entrada", stockHandler.EntradaStock)
			stock.GET("", stockHandler.GetStock)
			stock.GET("/:producto/:subtipo", stockHandler.GetDisponible)
		}

		// Movimientos del ledger
		movimientos := v1.Group("/movimientos")
		{
			movimientos.GET("", stockHandler.GetMovimientos)
		}

		// Catálogo de precios por emisión
		catalogo := v1.Group("/catalogo")
		{
			catalogo.GET("/precio", stockHandler.GetPrecio)
			catalogo.GET("/emisiones", stockHandler.GetEmisiones)
		}
	}

	// Health check (mantener en raíz para compatibilidad)
	router.GET("/health", healthChecker.HealthCheck)

	// API info en raíz
	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "Licorería Service API",
			"version": "1.0.0",
			"status":  "running",
			"endpoints": gin.H{
				"health": "/health",
				"api":    "/api/v1",
				"tickets": gin.H{
					"crear":    "POST /api/v1/tickets",
					"lineas":   "POST /api/v1/tickets/:id/lineas",
					"slots":    "PUT /api/v1/tickets/:id/slots",
					"total":    "GET /api/v1/tickets/:id/total",
					"cerrar":   "POST /api/v1/tickets/:id/cerrar",
					"cancelar": "POST /api/v1/tickets/:id/cancelar",
					"ws":       "GET /api/v1/ws/tickets",
				},
				"ventas": gin.H{
					"listar":   "GET /api/v1/ventas",
					"eliminar": "DELETE /api/v1/ventas/:id",
				},
				"stock": gin.H{
					"entrada":    "POST /api/v1/stock/entrada",
					"inventario": "GET /api/v1/stock",
					"disponible": "GET /api/v1/stock/:producto/:subtipo",
				},
				"movimientos": "GET /api/v1/movimientos",
				"catalogo": gin.H{
					"precio":    "GET /api/v1/catalogo/precio",
					"emisiones": "GET /api/v1/catalogo/emisiones",
				},
			},
		})
	})
}
