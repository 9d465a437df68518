package repository

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/fekuna/omnipos-voice-intake/internal/model"
	"github.com/fekuna/omnipos-voice-intake/internal/product"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

func str(s string) *string { return &s }

// exercise runs the same contract checks against any Repository.
func exercise(t *testing.T, repo product.Repository) {
	t.Helper()
	ctx := context.Background()
	owner := int64(4242)

	a := &model.Product{OwnerID: owner, Name: "Kallektor", Category: str("Spark"), Code: str("5499"), Quantity: 10, Currency: model.CurrencyUSD}
	b := &model.Product{OwnerID: owner, Name: "Amortizator", Category: str("Cobalt"), Currency: model.CurrencyUZS}
	other := &model.Product{OwnerID: owner + 1, Name: "Kallektor", Currency: model.CurrencyUZS}
	for _, p := range []*model.Product{a, b, other} {
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if p.ID == 0 || p.CreatedAt.IsZero() {
			t.Fatalf("Create must assign id and timestamp: %+v", p)
		}
	}

	list, err := repo.ListByOwner(ctx, owner)
	if err != nil {
		t.Fatalf("ListByOwner: %v", err)
	}
	if len(list) != 2 || list[0].ID != b.ID {
		t.Fatalf("ListByOwner must return newest first for the owner only, got %+v", list)
	}

	last, err := repo.GetLast(ctx, owner)
	if err != nil || last == nil || last.ID != b.ID {
		t.Fatalf("GetLast = %+v, %v", last, err)
	}

	found, err := repo.Search(ctx, owner, "KALLEK")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(found) != 1 || found[0].ID != a.ID {
		t.Fatalf("Search by name = %+v", found)
	}
	if found, _ := repo.Search(ctx, owner, "cobal"); len(found) != 1 || found[0].ID != b.ID {
		t.Fatalf("Search by category = %+v", found)
	}
	if found, _ := repo.Search(ctx, owner, "549"); len(found) != 1 {
		t.Fatalf("Search by code = %+v", found)
	}
	if found, _ := repo.Search(ctx, owner, "%"); len(found) != 0 {
		t.Fatalf("wildcards must be literal, got %+v", found)
	}

	if err := repo.UpdateField(ctx, a.ID, model.FieldSalePrice, 8.5); err != nil {
		t.Fatalf("UpdateField: %v", err)
	}
	got, _ := repo.FindByID(ctx, a.ID)
	if got.SalePrice == nil || *got.SalePrice != 8.5 {
		t.Fatalf("sale price not updated: %+v", got)
	}
	if err := repo.UpdateField(ctx, a.ID, model.FieldQuantity, int64(12)); err != nil {
		t.Fatalf("UpdateField quantity: %v", err)
	}
	if err := repo.UpdateField(ctx, 1<<40, model.FieldName, "x"); err != product.ErrNotFound {
		t.Fatalf("UpdateField on missing id = %v, want ErrNotFound", err)
	}

	cats, err := repo.Categories(ctx, owner)
	if err != nil || strings.Join(cats, ",") != "Cobalt,Spark" {
		t.Fatalf("Categories = %v, %v", cats, err)
	}

	if err := repo.Delete(ctx, b.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if gone, _ := repo.FindByID(ctx, b.ID); gone != nil {
		t.Fatalf("product still present after Delete: %+v", gone)
	}
}

func TestMemoryRepository_Contract(t *testing.T) {
	exercise(t, NewMemoryRepository())
}

func TestPGRepository_Contract(t *testing.T) {
	dsn := strings.TrimSpace(os.Getenv("POSTGRES_TEST_DSN"))
	if os.Getenv("INTEGRATION_TESTS") == "" || dsn == "" {
		t.Skip("set INTEGRATION_TESTS=1 and POSTGRES_TEST_DSN to run postgres tests")
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := Migrate(ctx, db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM products WHERE owner_id IN (4242, 4243)"); err != nil {
		t.Fatalf("cleanup: %v", err)
	}

	exercise(t, NewPGRepository(db))
}
