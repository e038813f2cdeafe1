package rdx

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"wayfare/models"

	"github.com/redis/go-redis/v9"
)

const packageTTL = 5 * time.Minute

// Cache is a read-through cache for package lookups, the hot path when
// bookings expand their package reference. A nil *Cache is valid and does
// nothing, so Redis stays optional.
type Cache struct {
	conn *redis.Client
}

// New connects to Redis at addr. It returns nil when addr is empty or the
// server is unreachable; callers keep working against Mongo alone.
func New(addr string) *Cache {
	if addr == "" {
		return nil
	}
	conn := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := conn.Ping(ctx).Err(); err != nil {
		log.Printf("Redis unavailable at %s, running without cache: %v", addr, err)
		return nil
	}
	return &Cache{conn: conn}
}

func packageKey(id string) string {
	return "package:" + id
}

// GetPackage returns the cached package for id, if any.
func (c *Cache) GetPackage(ctx context.Context, id string) (*models.Package, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.conn.Get(ctx, packageKey(id)).Result()
	if err != nil {
		return nil, false
	}
	var pkg models.Package
	if err := json.Unmarshal([]byte(raw), &pkg); err != nil {
		return nil, false
	}
	return &pkg, true
}

// SetPackage stores pkg under its id with a short TTL.
func (c *Cache) SetPackage(ctx context.Context, pkg *models.Package) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(pkg)
	if err != nil {
		return
	}
	if err := c.conn.Set(ctx, packageKey(pkg.ID.Hex()), raw, packageTTL).Err(); err != nil {
		log.Println("Redis set error:", err)
	}
}

// DropPackage invalidates the cache entry after an update or delete.
func (c *Cache) DropPackage(ctx context.Context, id string) {
	if c == nil {
		return
	}
	if err := c.conn.Del(ctx, packageKey(id)).Err(); err != nil {
		log.Println("Redis del error:", err)
	}
}

// Close shuts the connection down.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.conn.Close()
}
