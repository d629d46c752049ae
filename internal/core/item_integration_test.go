package core_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/yurrJC/mercania-wms-sub000/internal/core"
	"github.com/yurrJC/mercania-wms-sub000/internal/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping a live warehouse.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := migrations.Run(ctx, pool); err != nil {
		t.Fatalf("Failed to apply schema: %v", err)
	}

	// RESTART IDENTITY keeps item ids deterministic within a test.
	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE cog_record_items, cog_records, item_status_history, items, lots, catalog_records
		RESTART IDENTITY CASCADE;
	`)
	if err != nil {
		t.Fatalf("Failed to clean test database: %v", err)
	}

	return pool
}

// setupItemTestDB wires the item service and its catalog dependency against
// the cleaned test database.
func setupItemTestDB(t *testing.T) (*pgxpool.Pool, core.ItemService, core.CatalogService, context.Context) {
	t.Helper()
	pool := setupTestDB(t)
	catalog := core.NewCatalogService(pool)
	items := core.NewItemService(pool, catalog, time.UTC)
	return pool, items, catalog, context.Background()
}

// intakeBook receives one book copy under the given identifier.
func intakeBook(t *testing.T, ctx context.Context, items core.ItemService, isbn, title string) *core.Item {
	t.Helper()
	receipt, err := items.Intake(ctx, core.IntakeParams{
		CatalogID:      isbn,
		ConditionGrade: "GOOD",
		Catalog: &core.CatalogFields{
			Title:   title,
			Creator: "Test Author",
			Format:  core.FormatBook,
		},
	})
	if err != nil {
		t.Fatalf("Intake of %q failed: %v", title, err)
	}
	return receipt.Item
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestItemService_IntakeAndDuplicateSentinel(t *testing.T) {
	pool, items, _, ctx := setupItemTestDB(t)
	defer pool.Close()

	// 1. First copy of an identifier: no duplicates yet.
	first, err := items.Intake(ctx, core.IntakeParams{
		CatalogID:      "9780575094185",
		ConditionGrade: "GOOD",
		CostMinor:      450,
		Catalog: &core.CatalogFields{
			Title:   "The Dispossessed",
			Creator: "Ursula K. Le Guin",
			Format:  core.FormatBook,
		},
	})
	if err != nil {
		t.Fatalf("First intake failed: %v", err)
	}
	if first.Item.Status != core.StatusIntake {
		t.Errorf("Expected status INTAKE, got %s", first.Item.Status)
	}
	if first.SKU != "1" {
		t.Errorf("Unlocated item should be labelled by bare id, got %q", first.SKU)
	}
	if first.Duplicate == nil {
		t.Fatal("Expected a duplicate report for an identified intake")
	}
	if first.Duplicate.IsDuplicate {
		t.Error("First copy must not be flagged as duplicate")
	}

	// 2. Second copy of the same identifier: flagged, shares the catalog
	// record, and the new descriptors are ignored.
	second, err := items.Intake(ctx, core.IntakeParams{
		CatalogID: "9780575094185",
		Catalog: &core.CatalogFields{
			Title:  "Wrong Title That Must Be Ignored",
			Format: core.FormatBook,
		},
	})
	if err != nil {
		t.Fatalf("Second intake failed: %v", err)
	}
	if !second.Duplicate.IsDuplicate {
		t.Error("Second copy must be flagged as duplicate")
	}
	if len(second.Duplicate.Existing) != 1 || second.Duplicate.Existing[0].ItemID != first.Item.ID {
		t.Errorf("Expected existing copy %d, got %+v", first.Item.ID, second.Duplicate.Existing)
	}
	if second.Item.CatalogRecordID != first.Item.CatalogRecordID {
		t.Error("Copies of one identifier must share a catalog record")
	}
	detail, err := items.Get(ctx, second.Item.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if detail.Title != "The Dispossessed" {
		t.Errorf("Catalog descriptors of a known identifier must be ignored, got title %q", detail.Title)
	}

	// 3. Catalog-less manual entry: sentinel does not apply.
	manual, err := items.Intake(ctx, core.IntakeParams{
		Catalog: &core.CatalogFields{Title: "Unlabelled box find", Format: core.FormatDVD},
	})
	if err != nil {
		t.Fatalf("Manual intake failed: %v", err)
	}
	if manual.Duplicate != nil {
		t.Errorf("Manual entries carry no duplicate report, got %+v", manual.Duplicate)
	}

	// 4. Negative cost is rejected outright.
	_, err = items.Intake(ctx, core.IntakeParams{
		CatalogID: "9780575094185",
		CostMinor: -1,
	})
	if !core.IsKind(err, core.KindValidation) {
		t.Errorf("Expected Validation error for negative cost, got %v", err)
	}
}

func TestItemService_PutawayAdvancesIntake(t *testing.T) {
	pool, items, _, ctx := setupItemTestDB(t)
	defer pool.Close()

	item := intakeBook(t, ctx, items, "9780141439518", "Pride and Prejudice")

	// Putaway: location plus the INTAKE→STORED side effect.
	updated, err := items.AssignLocation(ctx, item.ID, "A3")
	if err != nil {
		t.Fatalf("AssignLocation failed: %v", err)
	}
	if updated.Status != core.StatusStored {
		t.Errorf("Expected STORED after putaway, got %s", updated.Status)
	}
	if updated.Location != "A3" {
		t.Errorf("Expected location A3, got %q", updated.Location)
	}
	if updated.StoredDate == nil {
		t.Error("Putaway must stamp the stored date")
	}
	if updated.SKU() != core.SKU("A3", item.ID) {
		t.Errorf("Expected SKU %q, got %q", core.SKU("A3", item.ID), updated.SKU())
	}

	history, err := items.History(ctx, item.ID)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 1 || history[0].From != core.StatusIntake || history[0].To != core.StatusStored {
		t.Errorf("Expected one INTAKE→STORED history entry, got %+v", history)
	}

	// Relocation afterwards moves the item without another transition.
	moved, err := items.AssignLocation(ctx, item.ID, "B1")
	if err != nil {
		t.Fatalf("Relocation failed: %v", err)
	}
	if moved.Status != core.StatusStored || moved.Location != "B1" {
		t.Errorf("Expected STORED at B1, got %s at %q", moved.Status, moved.Location)
	}
	history, _ = items.History(ctx, item.ID)
	if len(history) != 1 {
		t.Errorf("Relocation must not add history entries, got %d", len(history))
	}

	// Blank locations are rejected.
	if _, err := items.AssignLocation(ctx, item.ID, "   "); !core.IsKind(err, core.KindValidation) {
		t.Errorf("Expected Validation error for blank location, got %v", err)
	}
}

func TestItemService_StatusMachine(t *testing.T) {
	pool, items, _, ctx := setupItemTestDB(t)
	defer pool.Close()

	item := intakeBook(t, ctx, items, "9780007117116", "The Hobbit")

	// Skipping STORED is a violation.
	if _, err := items.UpdateStatus(ctx, item.ID, core.StatusListed); !core.IsKind(err, core.KindInvalidTransition) {
		t.Errorf("Expected InvalidTransition for INTAKE→LISTED, got %v", err)
	}

	// Main line, one step at a time.
	if _, err := items.UpdateStatus(ctx, item.ID, core.StatusStored); err != nil {
		t.Fatalf("INTAKE→STORED failed: %v", err)
	}
	updated, err := items.UpdateStatus(ctx, item.ID, core.StatusListed)
	if err != nil {
		t.Fatalf("STORED→LISTED failed: %v", err)
	}
	if updated.ListedDate == nil {
		t.Error("LISTED transition must stamp the listed date")
	}

	// Re-applying the current status is a clean no-op.
	again, err := items.UpdateStatus(ctx, item.ID, core.StatusListed)
	if err != nil {
		t.Fatalf("Idempotent re-apply failed: %v", err)
	}
	if again.Status != core.StatusListed {
		t.Errorf("Expected LISTED, got %s", again.Status)
	}
	history, _ := items.History(ctx, item.ID)
	if len(history) != 2 {
		t.Errorf("No-op must not add history entries, got %d", len(history))
	}

	// Absorbing branch, then nothing more.
	if _, err := items.UpdateStatus(ctx, item.ID, core.StatusDiscarded); err != nil {
		t.Fatalf("LISTED→DISCARDED failed: %v", err)
	}
	if _, err := items.UpdateStatus(ctx, item.ID, core.StatusStored); !core.IsKind(err, core.KindInvalidTransition) {
		t.Errorf("Expected InvalidTransition out of DISCARDED, got %v", err)
	}

	// Unknown target status.
	if _, err := items.UpdateStatus(ctx, item.ID, core.Status("LOST")); !core.IsKind(err, core.KindValidation) {
		t.Errorf("Expected Validation error for unknown status, got %v", err)
	}

	// Unknown item.
	if _, err := items.UpdateStatus(ctx, 99999, core.StatusStored); !core.IsKind(err, core.KindNotFound) {
		t.Errorf("Expected NotFound, got %v", err)
	}
}

func TestItemService_MarkListedAndSold(t *testing.T) {
	pool, items, _, ctx := setupItemTestDB(t)
	defer pool.Close()

	item := intakeBook(t, ctx, items, "9780553386790", "A Game of Thrones")
	if _, err := items.AssignLocation(ctx, item.ID, "C2"); err != nil {
		t.Fatalf("Putaway failed: %v", err)
	}

	// STORED→LISTED with an explicit date.
	listed, changed, err := items.MarkListed(ctx, item.ID, "2026-08-01")
	if err != nil {
		t.Fatalf("MarkListed failed: %v", err)
	}
	if !changed {
		t.Error("Expected a status change on first listing")
	}
	if listed.ListedDate == nil || listed.ListedDate.Format("2006-01-02") != "2026-08-01" {
		t.Errorf("Expected listed date 2026-08-01, got %v", listed.ListedDate)
	}

	// Second listing only corrects the date.
	relisted, changed, err := items.MarkListed(ctx, item.ID, "2026-08-05")
	if err != nil {
		t.Fatalf("Listed-date correction failed: %v", err)
	}
	if changed {
		t.Error("Date correction must not report a status change")
	}
	if relisted.ListedDate.Format("2006-01-02") != "2026-08-05" {
		t.Errorf("Expected corrected date 2026-08-05, got %v", relisted.ListedDate)
	}

	// LISTED→SOLD.
	sold, changed, err := items.MarkSold(ctx, item.ID, "2026-08-10")
	if err != nil {
		t.Fatalf("MarkSold failed: %v", err)
	}
	if !changed || sold.Status != core.StatusSold {
		t.Errorf("Expected SOLD with a status change, got %s (changed=%v)", sold.Status, changed)
	}

	// Selling a sold item is a violation, not an idempotent success.
	if _, _, err := items.MarkSold(ctx, item.ID, "2026-08-11"); !core.IsKind(err, core.KindInvalidTransition) {
		t.Errorf("Expected InvalidTransition on double sale, got %v", err)
	}

	// Malformed dates never reach the database.
	if _, _, err := items.MarkListed(ctx, item.ID, "10/08/2026"); !core.IsKind(err, core.KindValidation) {
		t.Errorf("Expected Validation error for malformed date, got %v", err)
	}
}

func TestItemService_BulkUpdateDates(t *testing.T) {
	pool, items, _, ctx := setupItemTestDB(t)
	defer pool.Close()

	ready := intakeBook(t, ctx, items, "9781", "Ready To List")
	if _, err := items.AssignLocation(ctx, ready.ID, "A1"); err != nil {
		t.Fatalf("Putaway failed: %v", err)
	}
	fresh := intakeBook(t, ctx, items, "9782", "Still In Intake")

	result, err := items.BulkUpdateDates(ctx, []int64{ready.ID, fresh.ID, 99999}, "listed", "2026-08-12")
	if err != nil {
		t.Fatalf("BulkUpdateDates failed: %v", err)
	}
	if result.ItemsUpdated != 1 || result.StatusChanges != 1 {
		t.Errorf("Expected 1 update / 1 status change, got %d / %d", result.ItemsUpdated, result.StatusChanges)
	}
	if len(result.Failures) != 2 {
		t.Fatalf("Expected 2 failures, got %+v", result.Failures)
	}
	codes := map[int64]core.ErrorKind{}
	for _, f := range result.Failures {
		codes[f.ItemID] = f.Code
	}
	if codes[fresh.ID] != core.KindInvalidTransition {
		t.Errorf("Expected InvalidTransition for the intake item, got %s", codes[fresh.ID])
	}
	if codes[99999] != core.KindNotFound {
		t.Errorf("Expected NotFound for the unknown id, got %s", codes[99999])
	}

	// The whole batch is rejected on a bad date type.
	if _, err := items.BulkUpdateDates(ctx, []int64{ready.ID}, "received", "2026-08-12"); !core.IsKind(err, core.KindValidation) {
		t.Errorf("Expected Validation error for bad date type, got %v", err)
	}
}

func TestItemService_ListFilters(t *testing.T) {
	pool, items, _, ctx := setupItemTestDB(t)
	defer pool.Close()

	dune := intakeBook(t, ctx, items, "9780340960196", "Dune")
	intakeBook(t, ctx, items, "9780575094185", "The Dispossessed")
	if _, err := items.AssignLocation(ctx, dune.ID, "A1"); err != nil {
		t.Fatalf("Putaway failed: %v", err)
	}

	stored := core.StatusStored
	details, info, err := items.List(ctx, core.ItemFilter{Status: &stored}, core.Page{})
	if err != nil {
		t.Fatalf("List by status failed: %v", err)
	}
	if info.TotalCount != 1 || len(details) != 1 || details[0].ID != dune.ID {
		t.Errorf("Expected only the stored item, got %+v", details)
	}

	// Search matches the catalog title case-insensitively.
	details, _, err = items.List(ctx, core.ItemFilter{Search: "dUnE"}, core.Page{})
	if err != nil {
		t.Fatalf("List by search failed: %v", err)
	}
	if len(details) != 1 || details[0].Title != "Dune" {
		t.Errorf("Expected the Dune item, got %+v", details)
	}

	// Unfiltered listing is newest-first.
	details, info, err = items.List(ctx, core.ItemFilter{}, core.Page{})
	if err != nil {
		t.Fatalf("Unfiltered list failed: %v", err)
	}
	if info.TotalCount != 2 || details[0].ID < details[1].ID {
		t.Errorf("Expected 2 items newest-first, got %+v", details)
	}
}

func TestItemService_Remove(t *testing.T) {
	pool, items, _, ctx := setupItemTestDB(t)
	defer pool.Close()
	lots := core.NewLotService(pool)

	a := intakeBook(t, ctx, items, "9781001", "Boxed Set Vol 1")
	b := intakeBook(t, ctx, items, "9781002", "Boxed Set Vol 2")
	if _, _, err := lots.CreateLot(ctx, []int64{a.ID, b.ID}); err != nil {
		t.Fatalf("CreateLot failed: %v", err)
	}

	// Removing a lot member detaches it; the lot survives with the rest.
	if err := items.Remove(ctx, b.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := items.Get(ctx, b.ID); !core.IsKind(err, core.KindNotFound) {
		t.Errorf("Expected NotFound for removed item, got %v", err)
	}
	detail, err := lots.GetLot(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetLot failed: %v", err)
	}
	if len(detail.Members) != 1 {
		t.Errorf("Expected 1 remaining member, got %d", len(detail.Members))
	}

	// Removing the last member dissolves the lot with it.
	if err := items.Remove(ctx, a.ID); err != nil {
		t.Fatalf("Remove of last member failed: %v", err)
	}
	if _, err := lots.GetLot(ctx, a.ID); !core.IsKind(err, core.KindNotFound) {
		t.Errorf("Expected the emptied lot to dissolve, got %v", err)
	}

	if err := items.Remove(ctx, 99999); !core.IsKind(err, core.KindNotFound) {
		t.Errorf("Expected NotFound for unknown item, got %v", err)
	}
}
