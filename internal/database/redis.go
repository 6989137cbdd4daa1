package database

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisDB envuelve el cliente de Redis que respalda el nivel L2 del
// caché de precios.
type RedisDB struct {
	Client *redis.Client
}

// NewRedisDB conecta contra Redis a partir de una URL. La contraseña
// separada, si viene, pisa la embebida en la URL (algunos despliegues la
// inyectan como secreto aparte).
func NewRedisDB(url, password string, db int, logger *zap.Logger) (*RedisDB, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	if password != "" {
		opt.Password = password
	}
	opt.DB = db

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	logger.Info("✅ Conexión a Redis establecida",
		zap.String("addr", opt.Addr),
		zap.Int("db", db))

	return &RedisDB{Client: client}, nil
}

func (r *RedisDB) Close() error {
	return r.Client.Close()
}

func (r *RedisDB) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx).Err()
}

// GetStats retorna la sección stats del INFO de Redis para el health
// check.
func (r *RedisDB) GetStats(ctx context.Context) (string, error) {
	return r.Client.Info(ctx, "stats").Result()
}
