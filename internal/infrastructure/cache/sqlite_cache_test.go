package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"revpipe/internal/infrastructure/persistence/sqlite/model"
)

func setupCache(t *testing.T) *SQLiteCache {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "cache.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := db.AutoMigrate(&model.StatusKV{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return NewSQLiteCache(db)
}

func TestCacheSetGetDelete(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	if _, found, err := c.Get(ctx, "queue_status:parse"); err != nil || found {
		t.Fatalf("Get() on empty cache = found %v, err %v", found, err)
	}

	if err := c.Set(ctx, "queue_status:parse", `{"messageCount":3}`, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	value, found, err := c.Get(ctx, "queue_status:parse")
	if err != nil || !found {
		t.Fatalf("Get() after set = found %v, err %v", found, err)
	}
	if value != `{"messageCount":3}` {
		t.Fatalf("Get() value = %q", value)
	}

	// Same key overwrites in place.
	if err := c.Set(ctx, "queue_status:parse", `{"messageCount":9}`, time.Minute); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	value, _, _ = c.Get(ctx, "queue_status:parse")
	if value != `{"messageCount":9}` {
		t.Fatalf("Get() after overwrite = %q", value)
	}

	if err := c.Delete(ctx, "queue_status:parse"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, found, _ := c.Get(ctx, "queue_status:parse"); found {
		t.Fatalf("key survived delete")
	}
}

func TestCacheEntryExpiresAfterTTL(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "queue_status:parse", `{"messageCount":3}`, time.Millisecond); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	time.Sleep(50 * time.Millisecond)

	if _, found, err := c.Get(ctx, "queue_status:parse"); err != nil || found {
		t.Fatalf("Get() after TTL elapsed = found %v, err %v; want expired entry to read as missing", found, err)
	}

	// A fresh Set on the same key revives it with a new deadline.
	if err := c.Set(ctx, "queue_status:parse", `{"messageCount":4}`, time.Minute); err != nil {
		t.Fatalf("Set() after expiry error = %v", err)
	}
	value, found, err := c.Get(ctx, "queue_status:parse")
	if err != nil || !found {
		t.Fatalf("Get() after re-set = found %v, err %v", found, err)
	}
	if value != `{"messageCount":4}` {
		t.Fatalf("Get() after re-set = %q", value)
	}
}

func TestCacheZeroTTLNeverExpires(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "pinned", "v", 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if _, found, err := c.Get(ctx, "pinned"); err != nil || !found {
		t.Fatalf("Get() on ttl-less entry = found %v, err %v", found, err)
	}
}

func TestCacheRejectsBlankKey(t *testing.T) {
	c := setupCache(t)
	ctx := context.Background()

	if _, _, err := c.Get(ctx, "  "); err == nil {
		t.Fatalf("Get() with blank key expected error")
	}
	if err := c.Set(ctx, "", "v", 0); err == nil {
		t.Fatalf("Set() with blank key expected error")
	}
	if err := c.Delete(ctx, ""); err == nil {
		t.Fatalf("Delete() with blank key expected error")
	}
}
