package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"licoreria-service/internal/catalog"
	"licoreria-service/internal/ledger"
	"licoreria-service/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// StockHandler maneja las peticiones HTTP del ledger de inventario y
// las consultas de catálogo
type StockHandler struct {
	stock     ledger.Ledger
	catalogo  catalog.Provider
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStockHandler crea una nueva instancia del handler
func NewStockHandler(stock ledger.Ledger, catalogo catalog.Provider, logger *zap.Logger) *StockHandler {
	return &StockHandler{
		stock:     stock,
		catalogo:  catalogo,
		validator: validator.New(),
		logger:    logger,
	}
}

// logError logs errores en todos los modos
func (h *StockHandler) logError(msg string, fields ...zap.Field) {
	h.logger.Error("❌ "+msg, fields...)
}

// logSuccess logs de éxito en todos los modos
func (h *StockHandler) logSuccess(msg string, fields ...zap.Field) {
	h.logger.Info("✅ "+msg, fields...)
}

// EntradaStock registra una entrada de inventario
func (h *StockHandler) EntradaStock(c *gin.Context) {
	var req models.EntradaStockRequest
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

	ctx := c.Request.Context()
	if err := h.stock.Reponer(ctx, req.Producto, req.Emision, req.Subtipo, req.Cantidad, req.Motivo); err != nil {
		h.logError("Error registrando entrada", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "❌ Error registrando entrada de stock",
			"error":   err.Error(),
		})
		return
	}

	disponible, err := h.stock.Disponible(ctx, req.Producto, req.Subtipo)
	if err != nil {
		h.logError("Error consultando disponible", zap.Error(err))
	}

	h.logSuccess("Entrada de stock registrada",
		zap.String("producto", req.Producto),
		zap.String("emision", req.Emision),
		zap.Int("cantidad", req.Cantidad),
		zap.Int("disponible", disponible))
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "✅ Entrada registrada",
		"disponible": disponible,
	})
}

// GetStock retorna el inventario completo
func (h *StockHandler) GetStock(c *gin.Context) {
	stocks, err := h.stock.StockActual(c.Request.Context())
	if err != nil {
		h.logError("Error obteniendo stock", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "❌ Error obteniendo stock",
			"error":   err.Error(),
		})
		return
	}

	response := models.StockResponse{
		Success: true,
		Message: "Stock obtenido exitosamente",
	}
	response.Data.TotalItems = len(stocks)
	response.Data.Stock = stocks
	response.Data.Timestamp = time.Now().UTC().Format(time.RFC3339)

	c.JSON(http.StatusOK, response)
}

// GetDisponible retorna las unidades disponibles de un producto
func (h *StockHandler) GetDisponible(c *gin.Context) {
	producto := c.Param("producto")
	subtipo := c.Param("subtipo")

	disponible, err := h.stock.Disponible(c.Request.Context(), producto, subtipo)
	if err != nil {
		h.logError("Error consultando disponible", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "❌ Error consultando disponible",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"producto":   producto,
		"subtipo":    subtipo,
		"disponible": disponible,
	})
}

// GetMovimientos retorna el historial de movimientos con filtros
// opcionales por producto, subtipo y tipo
func (h *StockHandler) GetMovimientos(c *gin.Context) {
	filter := &models.MovimientoFilter{}

	if producto := c.Query("producto"); producto != "" {
		filter.Producto = &producto
	}
	if subtipo := c.Query("subtipo"); subtipo != "" {
		filter.Subtipo = &subtipo
	}
	if tipo := c.Query("tipo"); tipo != "" {
		filter.TipoMovimiento = &tipo
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}

	movimientos, err := h.stock.Movimientos(c.Request.Context(), filter)
	if err != nil {
		h.logError("Error obteniendo movimientos", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "❌ Error obteniendo movimientos",
			"error":   err.Error(),
		})
		return
	}

	response := models.MovimientosResponse{
		Success: true,
		Message: "Movimientos obtenidos exitosamente",
	}
	response.Data.TotalMovimientos = len(movimientos)
	response.Data.Movimientos = movimientos
	response.Data.Timestamp = time.Now().UTC().Format(time.RFC3339)

	c.JSON(http.StatusOK, response)
}

// GetPrecio retorna la entrada de catálogo de una emisión. Con el
// parámetro tier (standard o local) resuelve los precios del tier, que
// es lo que la caja muestra al momento de cobrar.
func (h *StockHandler) GetPrecio(c *gin.Context) {
	producto := c.Query("producto")
	subtipo := c.Query("subtipo")
	emision := c.Query("emision")
	if producto == "" || subtipo == "" || emision == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "❌ producto, subtipo y emision son requeridos",
		})
		return
	}

	ctx := c.Request.Context()

	if tierStr := c.Query("tier"); tierStr != "" {
		tier := models.Tier(tierStr)
		if tier != models.TierEstandar && tier != models.TierLocal {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "❌ tier debe ser standard o local",
			})
			return
		}

		precioUsd, err := h.catalogo.PrecioUnitario(ctx, producto, emision, subtipo, tier)
		if err != nil {
			h.responderErrorPrecio(c, err)
			return
		}
		precioBs, err := h.catalogo.PrecioBs(ctx, producto, emision, subtipo, tier)
		if err != nil {
			h.responderErrorPrecio(c, err)
			return
		}
		costo, err := h.catalogo.Costo(ctx, producto, emision, subtipo)
		if err != nil {
			h.responderErrorPrecio(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"tier":       tier,
			"precio_usd": precioUsd,
			"precio_bs":  precioBs,
			"costo":      costo,
		})
		return
	}

	entrada, err := h.catalogo.Entrada(ctx, producto, subtipo, emision)
	if err != nil {
		h.responderErrorPrecio(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"precio":  entrada,
	})
}

func (h *StockHandler) responderErrorPrecio(c *gin.Context, err error) {
	if errors.Is(err, catalog.ErrPrecioNoEncontrado) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"message": "❌ Precio no encontrado",
			"error":   err.Error(),
		})
		return
	}
	h.logError("Error consultando precio", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"message": "❌ Error consultando precio",
		"error":   err.Error(),
	})
}

// GetEmisiones retorna las emisiones configuradas de un producto
func (h *StockHandler) GetEmisiones(c *gin.Context) {
	producto := c.Query("producto")
	subtipo := c.Query("subtipo")
	if producto == "" || subtipo == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "❌ producto y subtipo son requeridos",
		})
		return
	}

	emisiones, err := h.catalogo.EmisionesConfiguradas(c.Request.Context(), producto, subtipo)
	if err != nil {
		h.logError("Error consultando emisiones", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "❌ Error consultando emisiones",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"total":     len(emisiones),
		"emisiones": emisiones,
	})
}
