package models

// ===== REQUEST DTOs =====

// CrearTicketRequest DTO para abrir un ticket
type CrearTicketRequest struct {
	Cliente string `json:"cliente" validate:"required"`
	Tipo    string `json:"tipo" validate:"required,oneof=Local ParaLlevar"`
}

// LineaRequest DTO para agregar una línea; el tipo discrimina qué campos
// aplican y la resolución a la unión etiquetada ocurre una sola vez aquí.
type LineaRequest struct {
	Tipo        string         `json:"tipo" validate:"required,oneof=empaquetada consumo_local variado"`
	Producto    string         `json:"producto"`
	Subtipo     string         `json:"subtipo" validate:"required"`
	Emision     string         `json:"emision"`
	Cantidad    int            `json:"cantidad" validate:"gte=0"`
	Variedad    string         `json:"variedad"`
	Capacidad   int            `json:"capacidad" validate:"gte=0"`
	Nombre      string         `json:"nombre"`
	Composicion map[string]int `json:"composicion"`
}

// FijarSlotRequest DTO para asignar o vaciar un slot de consumo local.
// Producto vacío ("") libera el slot.
type FijarSlotRequest struct {
	Linea    int    `json:"linea" validate:"gte=0"`
	Slot     int    `json:"slot" validate:"gte=0"`
	Producto string `json:"producto"`
}

// CerrarTicketRequest DTO para cerrar (cobrar) un ticket
type CerrarTicketRequest struct {
	MetodoPago string `json:"metodo_pago" validate:"required"`
	Referencia string `json:"referencia"`
}

// EntradaStockRequest DTO para entrada de inventario
type EntradaStockRequest struct {
	Producto string `json:"producto" validate:"required"`
	Subtipo  string `json:"subtipo" validate:"required"`
	Emision  string `json:"emision" validate:"required"`
	Cantidad int    `json:"cantidad" validate:"required,gt=0"`
	Motivo   string `json:"motivo" validate:"required"`
}

// ===== RESPONSE DTOs =====

// TicketResponse respuesta estándar con un ticket
type TicketResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	Ticket  *Ticket `json:"ticket,omitempty"`
}

// VentaResponse respuesta al cerrar un ticket
type VentaResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Venta   *Venta `json:"venta,omitempty"`
}

// StockResponse respuesta para consultas de stock
type StockResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		TotalItems int      `json:"total_items"`
		Stock      []*Stock `json:"stock"`
		Timestamp  string   `json:"timestamp"`
	} `json:"data"`
}

// MovimientosResponse respuesta para consultas de movimientos
type MovimientosResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		TotalMovimientos int           `json:"total_movimientos"`
		Movimientos      []*Movimiento `json:"movimientos"`
		Timestamp        string        `json:"timestamp"`
	} `json:"data"`
}
