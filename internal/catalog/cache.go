package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"licoreria-service/internal/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// CacheStats estadísticas del caché
type CacheStats struct {
	Hits          int64
	Misses        int64
	TotalRequests int64
	TotalKeys     int
}

// PrecioCache implementa caché multi-nivel para entradas del catálogo:
// L1 en memoria local (más rápido) y L2 en Redis (compartido entre
// instancias). Las claves son (producto, subtipo, emisión). Con cliente
// Redis nil el caché opera solo con L1.
type PrecioCache struct {
	l1Cache map[string]*models.PrecioEmision
	l1Mutex sync.RWMutex

	redisClient *redis.Client

	maxL1Size int
	ttl       time.Duration

	logger *zap.Logger

	statsMutex sync.RWMutex
	hits       int64
	misses     int64
}

// NewPrecioCache crea una nueva instancia del caché
func NewPrecioCache(redisClient *redis.Client, maxL1Size int, ttl time.Duration, logger *zap.Logger) *PrecioCache {
	return &PrecioCache{
		l1Cache:     make(map[string]*models.PrecioEmision),
		redisClient: redisClient,
		maxL1Size:   maxL1Size,
		ttl:         ttl,
		logger:      logger,
	}
}

// GetStats retorna estadísticas del caché
func (pc *PrecioCache) GetStats() CacheStats {
	pc.statsMutex.RLock()
	defer pc.statsMutex.RUnlock()

	pc.l1Mutex.RLock()
	totalKeys := len(pc.l1Cache)
	pc.l1Mutex.RUnlock()

	return CacheStats{
		Hits:          pc.hits,
		Misses:        pc.misses,
		TotalRequests: pc.hits + pc.misses,
		TotalKeys:     totalKeys,
	}
}

// Get busca una entrada del catálogo con caché multi-nivel. Retorna nil
// sin error en caso de miss; el caller resuelve contra la base de datos.
func (pc *PrecioCache) Get(ctx context.Context, producto, subtipo, emision string) (*models.PrecioEmision, error) {
	key := clavePrecio(producto, subtipo, emision)
	start := time.Now()

	// 1. L1 Cache (memoria local)
	if entrada := pc.getFromL1(key); entrada != nil {
		pc.recordHit()
		pc.logger.Debug("L1 cache hit",
			zap.String("clave", key),
			zap.Duration("latency", time.Since(start)))
		return entrada, nil
	}

	// 2. L2 Cache (Redis)
	if entrada, err := pc.getFromL2(ctx, key); err == nil && entrada != nil {
		// Mover a L1 para futuras consultas
		pc.setToL1(key, entrada)
		pc.recordHit()
		pc.logger.Debug("L2 cache hit",
			zap.String("clave", key),
			zap.Duration("latency", time.Since(start)))
		return entrada, nil
	}

	pc.recordMiss()
	return nil, nil
}

// Set almacena una entrada en ambos niveles de caché
func (pc *PrecioCache) Set(ctx context.Context, entrada *models.PrecioEmision) error {
	key := clavePrecio(entrada.Producto, entrada.Subtipo, entrada.Emision)
	pc.setToL1(key, entrada)
	return pc.setToL2(ctx, key, entrada)
}

func (pc *PrecioCache) recordHit() {
	pc.statsMutex.Lock()
	pc.hits++
	pc.statsMutex.Unlock()
}

func (pc *PrecioCache) recordMiss() {
	pc.statsMutex.Lock()
	pc.misses++
	pc.statsMutex.Unlock()
}

func (pc *PrecioCache) getFromL1(key string) *models.PrecioEmision {
	pc.l1Mutex.RLock()
	defer pc.l1Mutex.RUnlock()
	return pc.l1Cache[key]
}

func (pc *PrecioCache) setToL1(key string, entrada *models.PrecioEmision) {
	pc.l1Mutex.Lock()
	defer pc.l1Mutex.Unlock()

	if len(pc.l1Cache) >= pc.maxL1Size {
		pc.evict()
	}

	pc.l1Cache[key] = entrada
}

// evict elimina una entrada arbitraria cuando L1 está lleno.
func (pc *PrecioCache) evict() {
	for key := range pc.l1Cache {
		delete(pc.l1Cache, key)
		break
	}
}

func (pc *PrecioCache) getFromL2(ctx context.Context, key string) (*models.PrecioEmision, error) {
	if pc.redisClient == nil {
		return nil, nil
	}

	data, err := pc.redisClient.Get(ctx, "precio:"+key).Result()
	if err != nil {
		return nil, err
	}

	var entrada models.PrecioEmision
	if err := json.Unmarshal([]byte(data), &entrada); err != nil {
		return nil, err
	}

	return &entrada, nil
}

func (pc *PrecioCache) setToL2(ctx context.Context, key string, entrada *models.PrecioEmision) error {
	if pc.redisClient == nil {
		return nil
	}

	data, err := json.Marshal(entrada)
	if err != nil {
		return err
	}

	return pc.redisClient.Set(ctx, fmt.Sprintf("precio:%s", key), data, pc.ttl).Err()
}
