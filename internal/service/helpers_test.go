package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/msomdec/swirl-rewards/internal/domain"
	"github.com/msomdec/swirl-rewards/internal/repository/sqlite"
	"github.com/msomdec/swirl-rewards/internal/service"
)

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// newTestStores returns identity and loyalty stores for a single client
// backed by a migrated database with the initial catalog.
func newTestStores(t *testing.T) (*service.IdentityStore, *service.LoyaltyStore, *sqlite.DB) {
	t.Helper()
	db := newTestDB(t)
	if err := service.SeedCatalog(context.Background(), db.Rewards()); err != nil {
		t.Fatalf("SeedCatalog: %v", err)
	}
	identity := service.NewIdentityStore(db.LocalStorage("client"), nil)
	return identity, service.NewLoyaltyStore(identity, db.Rewards()), db
}

// failingStorage fails every write.
type failingStorage struct{}

var errStorageDown = errors.New("storage down")

func (failingStorage) Get(context.Context, string) (string, error) { return "", domain.ErrNotFound }
func (failingStorage) Set(context.Context, string, string) error  { return errStorageDown }
func (failingStorage) Delete(context.Context, string) error       { return errStorageDown }
