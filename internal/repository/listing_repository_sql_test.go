package repository

import (
	"context"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"listing-service/internal/apperr"
	"listing-service/internal/models"
)

type capturedStatement struct {
	SQL  string
	Vars []interface{}
}

// dryRunRepository returns a repository whose statements are built but never
// sent, together with the statements it has produced so far.
func dryRunRepository(t *testing.T) (*ListingRepositoryImpl, *[]capturedStatement) {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=listing dbname=listing sslmode=disable",
	}), &gorm.Config{
		DryRun:                 true,
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
	})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}

	var captured []capturedStatement
	capture := func(tx *gorm.DB) {
		captured = append(captured, capturedStatement{
			SQL:  tx.Statement.SQL.String(),
			Vars: append([]interface{}(nil), tx.Statement.Vars...),
		})
	}
	if err := db.Callback().Create().After("gorm:create").Register("test:capture_create", capture); err != nil {
		t.Fatalf("register create callback: %v", err)
	}
	if err := db.Callback().Query().After("gorm:query").Register("test:capture_query", capture); err != nil {
		t.Fatalf("register query callback: %v", err)
	}
	return NewListingRepository(db), &captured
}

// insertColumns returns the quoted column list of an INSERT statement.
func insertColumns(t *testing.T, sql string) []string {
	t.Helper()
	open := strings.Index(sql, "(")
	end := strings.Index(sql, ") VALUES")
	if open < 0 || end < open {
		t.Fatalf("not an insert statement: %s", sql)
	}
	var cols []string
	for _, c := range strings.Split(sql[open+1:end], ",") {
		cols = append(cols, strings.Trim(strings.TrimSpace(c), `"`))
	}
	return cols
}

func TestCreateBindsUnpublishedFlag(t *testing.T) {
	repo, captured := dryRunRepository(t)
	l := &models.Listing{
		ID:        "8a3c1f0e-0000-4000-8000-000000000001",
		Slug:      "house-sell-1",
		Address:   "1 Main St",
		Price:     "500000",
		OwnerID:   "8a3c1f0e-0000-4000-8000-000000000002",
		Published: false,
	}
	l.ApplyDefaults()
	if err := repo.Create(context.Background(), l); err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(*captured) != 1 {
		t.Fatalf("expected one insert, got %d", len(*captured))
	}
	stmt := (*captured)[0]
	cols := insertColumns(t, stmt.SQL)
	if len(cols) != len(stmt.Vars) {
		t.Fatalf("expected one var per column, got %d columns and %d vars: %s", len(cols), len(stmt.Vars), stmt.SQL)
	}
	for i, c := range cols {
		if c == "published" {
			if stmt.Vars[i] != false {
				t.Fatalf("expected published bound to false, got %v", stmt.Vars[i])
			}
			return
		}
	}
	t.Fatalf("published column missing from insert: %s", stmt.SQL)
}

func TestFindOrdersByCreationThenID(t *testing.T) {
	repo, captured := dryRunRepository(t)
	if _, _, err := repo.Find(context.Background(), models.ListingQuery{Action: "Sell"}, 2, 10); err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(*captured) != 2 {
		t.Fatalf("expected count and select statements, got %d", len(*captured))
	}
	stmt := (*captured)[1]
	if !strings.Contains(stmt.SQL, "ORDER BY created_at DESC, id DESC LIMIT") {
		t.Fatalf("expected id tie-breaker in order clause: %s", stmt.SQL)
	}
	n := len(stmt.Vars)
	if n < 2 || stmt.Vars[n-2] != 10 || stmt.Vars[n-1] != 10 {
		t.Fatalf("expected limit 10 offset 10, got vars %v", stmt.Vars)
	}
}

func TestTranslateErrorKeepsMessageVerbatim(t *testing.T) {
	err := translateError(errors.New("connection reset"), "failed to apply 50% discount")
	if apperr.KindOf(err) != apperr.KindStorage {
		t.Fatalf("expected storage error, got %v", apperr.KindOf(err))
	}
	if got := apperr.MessageOf(err); got != "failed to apply 50% discount" {
		t.Fatalf("unexpected message %q", got)
	}
}
