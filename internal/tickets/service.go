package tickets

import (
	"context"
	"fmt"
	"sort"
	"time"

	"licoreria-service/internal/catalog"
	"licoreria-service/internal/engine"
	"licoreria-service/internal/ledger"
	"licoreria-service/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service orquesta el ciclo de vida de tickets y ventas. Reglas de
// descuento de stock:
//
//   - consumo local: una unidad por slot, al momento de asignar el slot
//   - empaquetada y variado en ticket Local: al agregar la línea
//   - empaquetada y variado en ticket ParaLlevar: al cerrar el ticket
//
// Un ticket Local llega al cierre con todo su stock ya descontado; el
// cierre solo calcula y congela. Toda mutación de stock tiene su
// reverso simétrico (quitar línea, cancelar, eliminar venta), de modo
// que revertir la acción del usuario deja el inventario exactamente
// donde estaba.
type Service interface {
	CrearTicket(ctx context.Context, organizacion string, req *models.CrearTicketRequest) (*models.Ticket, error)
	ObtenerTicket(ctx context.Context, id uuid.UUID) (*models.Ticket, error)
	ListarTickets(ctx context.Context, organizacion, estado string) ([]*models.Ticket, error)

	AgregarLinea(ctx context.Context, id uuid.UUID, req *models.LineaRequest) (*models.Ticket, error)
	QuitarLinea(ctx context.Context, id uuid.UUID, indice int) (*models.Ticket, error)
	FijarSlot(ctx context.Context, id uuid.UUID, req *models.FijarSlotRequest) (*models.Ticket, error)

	CalcularTotal(ctx context.Context, id uuid.UUID) (*engine.Resultado, error)
	CerrarTicket(ctx context.Context, id uuid.UUID, req *models.CerrarTicketRequest) (*models.Venta, error)
	CancelarTicket(ctx context.Context, id uuid.UUID) (*models.Ticket, error)

	ObtenerVenta(ctx context.Context, id uuid.UUID) (*models.Venta, error)
	ListarVentas(ctx context.Context, organizacion string) ([]*models.Venta, error)
	EliminarVenta(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo     Repository
	stock    ledger.Ledger
	catalogo catalog.Provider
	motor    *engine.Engine
	notifier Notifier
	logger   *zap.Logger
}

// NewService crea una nueva instancia del servicio de tickets.
func NewService(repo Repository, stock ledger.Ledger, catalogo catalog.Provider, motor *engine.Engine, notifier Notifier, logger *zap.Logger) Service {
	return &service{
		repo:     repo,
		stock:    stock,
		catalogo: catalogo,
		motor:    motor,
		notifier: notifier,
		logger:   logger,
	}
}

func (s *service) CrearTicket(ctx context.Context, organizacion string, req *models.CrearTicketRequest) (*models.Ticket, error) {
	if organizacion == "" {
		return nil, ErrOrganizacionFaltante
	}

	t := &models.Ticket{
		ID:           uuid.New(),
		Organizacion: organizacion,
		Cliente:      req.Cliente,
		Estado:       models.EstadoAbierto,
		Tipo:         req.Tipo,
		Lineas:       []models.Linea{},
		CreadoEn:     time.Now(),
	}

	if err := s.repo.GuardarTicket(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info("✅ Ticket creado",
		zap.String("ticket_id", t.ID.String()),
		zap.String("organizacion", organizacion),
		zap.String("tipo", t.Tipo))
	s.notifier.TicketActualizado(t)

	return t, nil
}

func (s *service) ObtenerTicket(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	return s.repo.ObtenerTicket(ctx, id)
}

func (s *service) ListarTickets(ctx context.Context, organizacion, estado string) ([]*models.Ticket, error) {
	return s.repo.ListarTickets(ctx, organizacion, estado)
}

// abierto carga el ticket y verifica que admite mutaciones.
func (s *service) abierto(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	t, err := s.repo.ObtenerTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Estado != models.EstadoAbierto {
		return nil, fmt.Errorf("%w: %s está %s", ErrTicketNoAbierto, id, t.Estado)
	}
	return t, nil
}

func (s *service) AgregarLinea(ctx context.Context, id uuid.UUID, req *models.LineaRequest) (*models.Ticket, error) {
	t, err := s.abierto(ctx, id)
	if err != nil {
		return nil, err
	}

	linea, err := s.resolverLinea(ctx, req)
	if err != nil {
		return nil, err
	}

	// En tickets locales las líneas empaquetadas y variados descuentan
	// al agregarse; en ParaLlevar el descuento se difiere al cierre y
	// acá solo se verifica disponibilidad.
	motivo := fmt.Sprintf("línea agregada al ticket %s", id)
	pendientes := descuentosDeLinea(linea)
	if t.Tipo == models.TicketLocal {
		for i, d := range pendientes {
			if err := s.stock.TryDescontar(ctx, d.producto, d.emision, d.subtipo, d.cantidad, motivo); err != nil {
				s.revertir(ctx, pendientes[:i], motivo)
				return nil, err
			}
		}
	} else {
		for _, d := range pendientes {
			ok, err := s.stock.VerificarStock(ctx, d.producto, d.emision, d.subtipo, d.cantidad)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, fmt.Errorf("%w: %s/%s para %d %s",
					ledger.ErrStockInsuficiente, d.producto, d.subtipo, d.cantidad, d.emision)
			}
		}
	}

	t.Lineas = append(t.Lineas, *linea)
	if err := s.repo.GuardarTicket(ctx, t); err != nil {
		if t.Tipo == models.TicketLocal {
			s.revertir(ctx, pendientes, motivo)
		}
		return nil, err
	}

	s.notifier.TicketActualizado(t)
	return t, nil
}

// resolverLinea convierte el DTO discriminado en la unión etiquetada.
// La resolución del caso ocurre una sola vez acá; el resto del sistema
// despacha por Tipo sin volver a inspeccionar campos.
func (s *service) resolverLinea(ctx context.Context, req *models.LineaRequest) (*models.Linea, error) {
	switch models.TipoLinea(req.Tipo) {
	case models.TipoEmpaquetada:
		if req.Producto == "" || req.Emision == "" || req.Cantidad <= 0 {
			return nil, fmt.Errorf("%w: empaquetada requiere producto, emisión y cantidad", ErrLineaInvalida)
		}
		return &models.Linea{
			Tipo: models.TipoEmpaquetada,
			Empaquetada: &models.LineaEmpaquetada{
				Producto: req.Producto,
				Subtipo:  req.Subtipo,
				Emision:  req.Emision,
				Cantidad: req.Cantidad,
			},
		}, nil

	case models.TipoConsumoLocal:
		slots := []string{}
		if req.Capacidad > 0 {
			slots = make([]string, req.Capacidad)
		}
		return &models.Linea{
			Tipo: models.TipoConsumoLocal,
			ConsumoLocal: &models.LineaConsumoLocal{
				Variedad:  req.Variedad,
				Subtipo:   req.Subtipo,
				Capacidad: req.Capacidad,
				Slots:     slots,
			},
		}, nil

	case models.TipoVariado:
		if req.Nombre == "" || req.Emision == "" || req.Cantidad <= 0 || len(req.Composicion) == 0 {
			return nil, fmt.Errorf("%w: variado requiere nombre, emisión, cantidad y composición", ErrLineaInvalida)
		}
		unidades := s.catalogo.UnidadesPorEmision(ctx, req.Emision, req.Subtipo)
		suma := 0
		for _, n := range req.Composicion {
			if n < 0 {
				return nil, fmt.Errorf("%w: composición con cantidad negativa", ErrLineaInvalida)
			}
			suma += n
		}
		if suma != unidades {
			return nil, fmt.Errorf("%w: la composición suma %d y la emisión %s tiene %d unidades",
				ErrLineaInvalida, suma, req.Emision, unidades)
		}
		return &models.Linea{
			Tipo: models.TipoVariado,
			Variado: &models.LineaVariado{
				Nombre:      req.Nombre,
				Subtipo:     req.Subtipo,
				Emision:     req.Emision,
				Cantidad:    req.Cantidad,
				Composicion: req.Composicion,
			},
		}, nil
	}

	return nil, fmt.Errorf("%w: tipo desconocido %q", ErrLineaInvalida, req.Tipo)
}

func (s *service) QuitarLinea(ctx context.Context, id uuid.UUID, indice int) (*models.Ticket, error) {
	t, err := s.abierto(ctx, id)
	if err != nil {
		return nil, err
	}
	if indice < 0 || indice >= len(t.Lineas) {
		return nil, fmt.Errorf("%w: índice %d de %d líneas", ErrLineaInvalida, indice, len(t.Lineas))
	}

	if err := s.reponerLinea(ctx, t, &t.Lineas[indice], fmt.Sprintf("línea quitada del ticket %s", id)); err != nil {
		return nil, err
	}

	t.Lineas = append(t.Lineas[:indice], t.Lineas[indice+1:]...)
	if err := s.repo.GuardarTicket(ctx, t); err != nil {
		return nil, err
	}

	s.notifier.TicketActualizado(t)
	return t, nil
}

func (s *service) FijarSlot(ctx context.Context, id uuid.UUID, req *models.FijarSlotRequest) (*models.Ticket, error) {
	t, err := s.abierto(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Linea < 0 || req.Linea >= len(t.Lineas) {
		return nil, fmt.Errorf("%w: índice %d de %d líneas", ErrLineaInvalida, req.Linea, len(t.Lineas))
	}
	linea := &t.Lineas[req.Linea]
	if linea.Tipo != models.TipoConsumoLocal {
		return nil, fmt.Errorf("%w: la línea %d no es de consumo local", ErrLineaInvalida, req.Linea)
	}
	cl := linea.ConsumoLocal

	if req.Slot < 0 {
		return nil, fmt.Errorf("%w: índice %d", ErrSlotInvalido, req.Slot)
	}
	if cl.Capacidad > 0 {
		if req.Slot >= cl.Capacidad {
			return nil, fmt.Errorf("%w: índice %d con capacidad %d", ErrSlotInvalido, req.Slot, cl.Capacidad)
		}
		for len(cl.Slots) <= req.Slot {
			cl.Slots = append(cl.Slots, "")
		}
	} else {
		// Línea libre: la lista crece de a un slot.
		if req.Slot > len(cl.Slots) {
			return nil, fmt.Errorf("%w: índice %d con %d slots", ErrSlotInvalido, req.Slot, len(cl.Slots))
		}
		if req.Slot == len(cl.Slots) {
			cl.Slots = append(cl.Slots, "")
		}
	}

	anterior := cl.Slots[req.Slot]
	nuevo := req.Producto
	motivo := fmt.Sprintf("slot %d/%d del ticket %s", req.Linea, req.Slot, id)

	if anterior != nuevo {
		// Reponer antes de descontar: reemplazar un slot por el mismo
		// producto debe funcionar aunque el stock restante sea cero,
		// porque la unidad repuesta cubre el nuevo descuento.
		if anterior != "" {
			if err := s.stock.Reponer(ctx, anterior, models.EmisionUnidad, cl.Subtipo, 1, motivo); err != nil {
				return nil, err
			}
		}
		if nuevo != "" {
			if err := s.stock.TryDescontar(ctx, nuevo, models.EmisionUnidad, cl.Subtipo, 1, motivo); err != nil {
				if anterior != "" {
					if rbErr := s.stock.TryDescontar(ctx, anterior, models.EmisionUnidad, cl.Subtipo, 1, motivo); rbErr != nil {
						s.logger.Error("❌ No se pudo revertir la reposición del slot",
							zap.String("producto", anterior), zap.Error(rbErr))
					}
				}
				return nil, err
			}
		}

		cl.Slots[req.Slot] = nuevo
	}

	// En líneas libres los vacíos al final no aportan información.
	if cl.Capacidad == 0 {
		for len(cl.Slots) > 0 && cl.Slots[len(cl.Slots)-1] == "" {
			cl.Slots = cl.Slots[:len(cl.Slots)-1]
		}
	}

	if err := s.repo.GuardarTicket(ctx, t); err != nil {
		// El cambio de slot no se persistió: deshacer el par reponer y
		// descontar para que el ledger no diverja del ticket guardado.
		if anterior != nuevo {
			if nuevo != "" {
				s.revertir(ctx, []descuento{{nuevo, models.EmisionUnidad, cl.Subtipo, 1}}, motivo)
			}
			if anterior != "" {
				if rbErr := s.stock.TryDescontar(ctx, anterior, models.EmisionUnidad, cl.Subtipo, 1, "reverso: "+motivo); rbErr != nil {
					s.logger.Error("❌ No se pudo volver a descontar el slot anterior",
						zap.String("producto", anterior), zap.Error(rbErr))
				}
			}
		}
		return nil, err
	}

	s.notifier.TicketActualizado(t)
	return t, nil
}

func (s *service) CalcularTotal(ctx context.Context, id uuid.UUID) (*engine.Resultado, error) {
	t, err := s.repo.ObtenerTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.motor.Calcular(ctx, t)
}

func (s *service) CerrarTicket(ctx context.Context, id uuid.UUID, req *models.CerrarTicketRequest) (*models.Venta, error) {
	t, err := s.abierto(ctx, id)
	if err != nil {
		return nil, err
	}

	resultado, err := s.motor.Calcular(ctx, t)
	if err != nil {
		return nil, err
	}

	// Un ticket Local llega acá con todo su stock descontado; el cierre
	// no toca el ledger. En ParaLlevar el descuento diferido ocurre
	// ahora, todo o nada: si una línea no alcanza, se repone lo ya
	// descontado y el ticket queda ABIERTO e intacto.
	motivo := fmt.Sprintf("cierre del ticket %s", id)
	var pendientes []descuento
	if t.Tipo == models.TicketParaLlevar {
		pendientes = descuentosDiferidos(t)
	}
	for i, d := range pendientes {
		if err := s.stock.TryDescontar(ctx, d.producto, d.emision, d.subtipo, d.cantidad, motivo); err != nil {
			s.revertir(ctx, pendientes[:i], motivo)
			return nil, err
		}
	}

	// El id de la venta deriva del id del ticket: un reintento del cierre
	// produce siempre la misma venta, nunca una duplicada.
	venta := &models.Venta{
		ID:           uuid.NewSHA1(uuid.NameSpaceOID, t.ID[:]),
		TicketID:     t.ID,
		Organizacion: t.Organizacion,
		Cliente:      t.Cliente,
		Tipo:         t.Tipo,
		MetodoPago:   req.MetodoPago,
		Referencia:   req.Referencia,
		TotalUsd:     resultado.TotalUsd.Round(2),
		TotalBs:      resultado.TotalBs.Round(2),
		Lineas:       resultado.Lineas,
		Detalles:     resultado.Detalles,
		CreadoEn:     time.Now(),
	}

	ahora := time.Now()
	t.Estado = models.EstadoPagado
	t.MetodoPago = req.MetodoPago
	t.Referencia = req.Referencia
	t.CerradoEn = &ahora

	// Venta y ticket pagado se persisten como una sola escritura. Si
	// falla, los descuentos diferidos se reponen y el ticket persistido
	// sigue ABIERTO e intacto, listo para reintentar el cierre.
	if err := s.repo.GuardarCierre(ctx, t, venta); err != nil {
		s.revertir(ctx, pendientes, motivo)
		return nil, err
	}

	s.logger.Info("✅ Ticket cerrado",
		zap.String("ticket_id", t.ID.String()),
		zap.String("venta_id", venta.ID.String()),
		zap.String("total_usd", venta.TotalUsd.String()),
		zap.String("total_bs", venta.TotalBs.String()))
	s.notifier.TicketActualizado(t)
	s.notifier.VentaRegistrada(venta)

	return venta, nil
}

func (s *service) CancelarTicket(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	t, err := s.abierto(ctx, id)
	if err != nil {
		return nil, err
	}

	// Devolver todo lo que el ticket descontó mientras estuvo abierto:
	// slots ocupados siempre; packs y variados solo en tickets locales,
	// donde descontaron al agregarse.
	motivo := fmt.Sprintf("cancelación del ticket %s", id)
	for i := range t.Lineas {
		if err := s.reponerLinea(ctx, t, &t.Lineas[i], motivo); err != nil {
			return nil, err
		}
	}

	ahora := time.Now()
	t.Estado = models.EstadoCancelado
	t.CerradoEn = &ahora
	if err := s.repo.GuardarTicket(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info("Ticket cancelado", zap.String("ticket_id", t.ID.String()))
	s.notifier.TicketActualizado(t)
	return t, nil
}

func (s *service) ObtenerVenta(ctx context.Context, id uuid.UUID) (*models.Venta, error) {
	return s.repo.ObtenerVenta(ctx, id)
}

func (s *service) ListarVentas(ctx context.Context, organizacion string) ([]*models.Venta, error) {
	return s.repo.ListarVentas(ctx, organizacion)
}

// EliminarVenta borra una venta cerrada y compensa el inventario: cada
// línea normalizada de la venta vuelve al ledger. Las líneas expandidas
// de variados llevan su cantidad real de unidades, así la reposición
// cubre exactamente lo que el cierre descontó.
func (s *service) EliminarVenta(ctx context.Context, id uuid.UUID) error {
	venta, err := s.repo.ObtenerVenta(ctx, id)
	if err != nil {
		return err
	}

	motivo := fmt.Sprintf("eliminación de la venta %s", id)
	for _, l := range venta.Lineas {
		if err := s.stock.Reponer(ctx, l.Producto, l.Emision, l.Subtipo, l.Cantidad, motivo); err != nil {
			return err
		}
	}

	if err := s.repo.EliminarVenta(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Venta eliminada con reposición de stock",
		zap.String("venta_id", id.String()),
		zap.Int("lineas", len(venta.Lineas)))
	return nil
}

// reponerSlots devuelve al ledger una unidad por cada slot ocupado.
func (s *service) reponerSlots(ctx context.Context, cl *models.LineaConsumoLocal, motivo string) error {
	for _, slot := range cl.Slots {
		if slot == "" {
			continue
		}
		if err := s.stock.Reponer(ctx, slot, models.EmisionUnidad, cl.Subtipo, 1, motivo); err != nil {
			return err
		}
	}
	return nil
}

// reponerLinea devuelve el stock que una línea tiene descontado: los
// slots ocupados siempre; packs y variados solo en tickets locales,
// porque en ParaLlevar aún no descontaron nada.
func (s *service) reponerLinea(ctx context.Context, t *models.Ticket, linea *models.Linea, motivo string) error {
	if linea.Tipo == models.TipoConsumoLocal {
		return s.reponerSlots(ctx, linea.ConsumoLocal, motivo)
	}
	if t.Tipo != models.TicketLocal {
		return nil
	}
	for _, d := range descuentosDeLinea(linea) {
		if err := s.stock.Reponer(ctx, d.producto, d.emision, d.subtipo, d.cantidad, motivo); err != nil {
			return err
		}
	}
	return nil
}

type descuento struct {
	producto string
	emision  string
	subtipo  string
	cantidad int
}

// descuentosDeLinea lista el stock que una línea empaquetada o variada
// consume: packs completos o unidades por constituyente. Las líneas de
// consumo local retornan vacío; descuentan slot a slot.
func descuentosDeLinea(linea *models.Linea) []descuento {
	var result []descuento
	switch linea.Tipo {
	case models.TipoEmpaquetada:
		e := linea.Empaquetada
		result = append(result, descuento{e.Producto, e.Emision, e.Subtipo, e.Cantidad})
	case models.TipoVariado:
		v := linea.Variado
		for _, producto := range productosOrdenados(v.Composicion) {
			unidades := v.Composicion[producto] * v.Cantidad
			if unidades > 0 {
				result = append(result, descuento{producto, models.EmisionUnidad, v.Subtipo, unidades})
			}
		}
	}
	return result
}

// descuentosDiferidos lista lo que el cierre de un ticket ParaLlevar
// debe descontar. El consumo local no aparece nunca: descuenta al
// asignar cada slot.
func descuentosDiferidos(t *models.Ticket) []descuento {
	var result []descuento
	for i := range t.Lineas {
		result = append(result, descuentosDeLinea(&t.Lineas[i])...)
	}
	return result
}

// productosOrdenados retorna las claves de una composición en orden
// estable, para que los descuentos y sus reversos sean deterministas.
func productosOrdenados(composicion map[string]int) []string {
	productos := make([]string, 0, len(composicion))
	for p := range composicion {
		productos = append(productos, p)
	}
	sort.Strings(productos)
	return productos
}

// revertir repone descuentos ya aplicados cuando una operación falla a
// mitad de camino. Best-effort con log: el ledger admite reposición sin
// tope.
func (s *service) revertir(ctx context.Context, aplicados []descuento, motivo string) {
	for _, d := range aplicados {
		if err := s.stock.Reponer(ctx, d.producto, d.emision, d.subtipo, d.cantidad, "reverso: "+motivo); err != nil {
			s.logger.Error("❌ No se pudo revertir descuento",
				zap.String("producto", d.producto), zap.Error(err))
		}
	}
}
