//go:build integration
// +build integration

package db

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"

	"schnorrd/internal/infra/db/testdb"
	"schnorrd/pkg/schnorr"
)

func setupRepo(t *testing.T) (*KeyRecordRepository, *testdb.Database) {
	t.Helper()
	database := testdb.NewDatabase(t)
	gdb, err := Open(database.DSN)
	if err != nil {
		t.Fatalf("open gorm: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewKeyRecordRepository(gdb), database
}

func TestKeyRecordRepository_SaveGet(t *testing.T) {
	repo, database := setupRepo(t)
	ctx := context.Background()

	e, _ := new(big.Int).SetString(strings.Repeat("fe", 64), 16)
	rec := schnorr.KeyRecord{
		PublicKey:  new(big.Int).Lsh(big.NewInt(1), 1023),
		PrivateKey: big.NewInt(42),
		FactorE:    e,
		FactorY:    big.NewInt(0),
	}
	id, err := repo.Save(ctx, rec)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != id {
		t.Fatalf("expected id %s, got %s", id, got.ID)
	}
	if got.PublicKey.Cmp(rec.PublicKey) != 0 || got.PrivateKey.Cmp(rec.PrivateKey) != 0 ||
		got.FactorE.Cmp(rec.FactorE) != 0 || got.FactorY.Cmp(rec.FactorY) != 0 {
		t.Fatalf("record changed across save/get")
	}

	var stored string
	if err := database.Pool.QueryRow(ctx, "SELECT factor_e FROM key_records WHERE id = $1", id).Scan(&stored); err != nil {
		t.Fatalf("query raw row: %v", err)
	}
	if stored != e.Text(16) {
		t.Fatalf("expected hex column, got %q", stored)
	}

	n, err := repo.Count(ctx)
	if err != nil || n != 1 {
		t.Fatalf("expected one row, got %d (%v)", n, err)
	}
}

func TestKeyRecordRepository_NotFound(t *testing.T) {
	repo, _ := setupRepo(t)
	_, err := repo.Get(context.Background(), newUUID())
	if !errors.Is(err, schnorr.ErrRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestKeyRecordRepository_SignVerify(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	var params *schnorr.Parameters
	var err error
	for i := 0; i < 5 && params == nil; i++ {
		params, err = schnorr.NewGenerator().Generate(ctx, schnorr.Level1024)
	}
	if params == nil {
		t.Fatalf("generate: %v", err)
	}
	engine, err := schnorr.NewEngine(params)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	rec, err := engine.SignTo(ctx, repo, strings.NewReader("persisted"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	ok, err := engine.VerifyFrom(ctx, repo, rec.ID, strings.NewReader("persisted"))
	if err != nil || !ok {
		t.Fatalf("expected valid signature, got %v (%v)", ok, err)
	}
}
