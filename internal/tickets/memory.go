package tickets

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"licoreria-service/internal/models"

	"github.com/google/uuid"
)

// MemoryRepository implementa Repository en memoria. Las lecturas y
// escrituras trabajan sobre copias profundas: el caller nunca comparte
// slices internos con el almacén.
type MemoryRepository struct {
	mu      sync.RWMutex
	tickets map[uuid.UUID]*models.Ticket
	ventas  map[uuid.UUID]*models.Venta
}

// NewMemoryRepository crea una nueva instancia del repositorio en memoria.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		tickets: make(map[uuid.UUID]*models.Ticket),
		ventas:  make(map[uuid.UUID]*models.Venta),
	}
}

func (r *MemoryRepository) GuardarTicket(_ context.Context, t *models.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tickets[t.ID] = copiarTicket(t)
	return nil
}

func (r *MemoryRepository) ObtenerTicket(_ context.Context, id uuid.UUID) (*models.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tickets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTicketNoEncontrado, id)
	}
	return copiarTicket(t), nil
}

func (r *MemoryRepository) ListarTickets(_ context.Context, organizacion, estado string) ([]*models.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.Ticket
	for _, t := range r.tickets {
		if organizacion != "" && t.Organizacion != organizacion {
			continue
		}
		if estado != "" && t.Estado != estado {
			continue
		}
		result = append(result, copiarTicket(t))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreadoEn.Before(result[j].CreadoEn)
	})

	return result, nil
}

func (r *MemoryRepository) GuardarCierre(_ context.Context, t *models.Ticket, v *models.Venta) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copia := *v
	copia.Lineas = append([]models.LineaVenta(nil), v.Lineas...)
	copia.Detalles = append([]string(nil), v.Detalles...)
	r.ventas[v.ID] = &copia
	r.tickets[t.ID] = copiarTicket(t)
	return nil
}

func (r *MemoryRepository) ObtenerVenta(_ context.Context, id uuid.UUID) (*models.Venta, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.ventas[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrVentaNoEncontrada, id)
	}

	copia := *v
	copia.Lineas = append([]models.LineaVenta(nil), v.Lineas...)
	copia.Detalles = append([]string(nil), v.Detalles...)
	return &copia, nil
}

func (r *MemoryRepository) ListarVentas(_ context.Context, organizacion string) ([]*models.Venta, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*models.Venta
	for _, v := range r.ventas {
		if organizacion != "" && v.Organizacion != organizacion {
			continue
		}
		copia := *v
		copia.Lineas = append([]models.LineaVenta(nil), v.Lineas...)
		copia.Detalles = append([]string(nil), v.Detalles...)
		result = append(result, &copia)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreadoEn.Before(result[j].CreadoEn)
	})

	return result, nil
}

func (r *MemoryRepository) EliminarVenta(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ventas[id]; !ok {
		return fmt.Errorf("%w: %s", ErrVentaNoEncontrada, id)
	}
	delete(r.ventas, id)
	return nil
}

// copiarTicket devuelve una copia profunda del ticket, incluyendo los
// slices de slots y los mapas de composición.
func copiarTicket(t *models.Ticket) *models.Ticket {
	copia := *t
	copia.Lineas = make([]models.Linea, len(t.Lineas))
	for i, l := range t.Lineas {
		nueva := models.Linea{Tipo: l.Tipo}
		switch {
		case l.Empaquetada != nil:
			e := *l.Empaquetada
			nueva.Empaquetada = &e
		case l.ConsumoLocal != nil:
			cl := *l.ConsumoLocal
			cl.Slots = append([]string(nil), l.ConsumoLocal.Slots...)
			nueva.ConsumoLocal = &cl
		case l.Variado != nil:
			v := *l.Variado
			v.Composicion = make(map[string]int, len(l.Variado.Composicion))
			for k, n := range l.Variado.Composicion {
				v.Composicion[k] = n
			}
			nueva.Variado = &v
		}
		copia.Lineas[i] = nueva
	}
	return &copia
}
