package catalog

import (
	"context"
	"testing"
	"time"

	"licoreria-service/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func TestPrecioCacheStats(t *testing.T) {
	ctx := context.Background()
	pc := NewPrecioCache(nil, 10, time.Minute, zap.NewNop())

	// Miss inicial
	entrada, err := pc.Get(ctx, "Polar", models.SubtipoLata, models.EmisionSixPack)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entrada != nil {
		t.Fatalf("entrada = %+v, esperaba nil en caché vacío", entrada)
	}

	if err := pc.Set(ctx, &models.PrecioEmision{
		Producto: "Polar", Subtipo: models.SubtipoLata, Emision: models.EmisionSixPack,
		Unidades: 6, PrecioUsd: decimal.NewFromInt(8),
	}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	entrada, err = pc.Get(ctx, "Polar", models.SubtipoLata, models.EmisionSixPack)
	if err != nil {
		t.Fatalf("Get tras Set: %v", err)
	}
	if entrada == nil || entrada.Unidades != 6 {
		t.Fatalf("entrada = %+v, esperaba el six pack cacheado", entrada)
	}

	stats := pc.GetStats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("hits/misses = %d/%d, esperaba 1/1", stats.Hits, stats.Misses)
	}
	if stats.TotalRequests != 2 {
		t.Errorf("total_requests = %d, esperaba 2", stats.TotalRequests)
	}
	if stats.TotalKeys != 1 {
		t.Errorf("l1 keys = %d, esperaba 1", stats.TotalKeys)
	}
}

func TestPrecioCacheEvictaConL1Lleno(t *testing.T) {
	ctx := context.Background()
	pc := NewPrecioCache(nil, 2, time.Minute, zap.NewNop())

	for _, producto := range []string{"Polar", "Zulia", "Regional"} {
		if err := pc.Set(ctx, &models.PrecioEmision{
			Producto: producto, Subtipo: models.SubtipoLata, Emision: models.EmisionUnidad,
			Unidades: 1,
		}); err != nil {
			t.Fatalf("Set %s: %v", producto, err)
		}
	}

	if stats := pc.GetStats(); stats.TotalKeys > 2 {
		t.Errorf("l1 keys = %d, esperaba a lo sumo 2", stats.TotalKeys)
	}
}
