package repository

import (
	"coding_quiz_backend/internal/model"
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&model.Subject{},
		&model.Problem{},
		&model.UserProgress{},
		&model.UserSubjectProgress{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func TestUpsertAttemptInsertsThenOverwrites(t *testing.T) {
	db := newTestDB(t)
	repo := NewProgressRepository(db)

	if err := repo.UpsertAttempt(1, 10, "B", false); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	if err := repo.UpsertAttempt(1, 10, "A", true); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	var count int64
	if err := db.Model(&model.UserProgress{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one row after upsert, got %d", count)
	}

	attempt, err := repo.FindAttempt(1, 10)
	if err != nil {
		t.Fatalf("FindAttempt failed: %v", err)
	}
	if attempt.SelectedAnswer != "A" || !attempt.IsCorrect {
		t.Fatalf("attempt not overwritten: %+v", attempt)
	}
}

func TestUpsertAttemptKeepsUsersSeparate(t *testing.T) {
	db := newTestDB(t)
	repo := NewProgressRepository(db)

	if err := repo.UpsertAttempt(1, 10, "A", true); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := repo.UpsertAttempt(2, 10, "B", false); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	var count int64
	if err := db.Model(&model.UserProgress{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected two rows, got %d", count)
	}
}

func TestUpsertSubjectPointerMovesForward(t *testing.T) {
	db := newTestDB(t)
	repo := NewProgressRepository(db)

	first := uint(10)
	second := uint(20)
	if err := repo.UpsertSubjectPointer(1, 5, &first); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := repo.UpsertSubjectPointer(1, 5, &second); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	pointer, err := repo.FindSubjectPointer(1, 5)
	if err != nil {
		t.Fatalf("FindSubjectPointer failed: %v", err)
	}
	if pointer.LastProblemID == nil || *pointer.LastProblemID != second {
		t.Fatalf("pointer not updated: %+v", pointer)
	}

	var count int64
	if err := db.Model(&model.UserSubjectProgress{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one pointer row, got %d", count)
	}
}

func TestUsersPointingAt(t *testing.T) {
	db := newTestDB(t)
	repo := NewProgressRepository(db)

	target := uint(10)
	other := uint(20)
	if err := repo.UpsertSubjectPointer(1, 5, &target); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := repo.UpsertSubjectPointer(2, 5, &target); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := repo.UpsertSubjectPointer(3, 5, &other); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	users, err := repo.UsersPointingAt(target)
	if err != nil {
		t.Fatalf("UsersPointingAt failed: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %v", users)
	}
}

func TestSetPointerClears(t *testing.T) {
	db := newTestDB(t)
	repo := NewProgressRepository(db)

	id := uint(10)
	if err := repo.UpsertSubjectPointer(1, 5, &id); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := repo.SetPointer(1, 5, nil); err != nil {
		t.Fatalf("SetPointer failed: %v", err)
	}

	pointer, err := repo.FindSubjectPointer(1, 5)
	if err != nil {
		t.Fatalf("FindSubjectPointer failed: %v", err)
	}
	if pointer.LastProblemID != nil {
		t.Fatalf("expected cleared pointer, got %v", *pointer.LastProblemID)
	}
}

func TestAttemptedProblemIDsFiltersToSequence(t *testing.T) {
	db := newTestDB(t)
	repo := NewProgressRepository(db)

	for _, problemID := range []uint{10, 20, 99} {
		if err := repo.UpsertAttempt(1, problemID, "A", true); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
	}

	attempted, err := repo.AttemptedProblemIDs(1, []uint{10, 20, 30})
	if err != nil {
		t.Fatalf("AttemptedProblemIDs failed: %v", err)
	}
	if len(attempted) != 2 || !attempted[10] || !attempted[20] {
		t.Fatalf("unexpected attempted set: %v", attempted)
	}
}

func TestAttemptedProblemIDsEmptySequence(t *testing.T) {
	db := newTestDB(t)
	repo := NewProgressRepository(db)

	attempted, err := repo.AttemptedProblemIDs(1, nil)
	if err != nil {
		t.Fatalf("AttemptedProblemIDs failed: %v", err)
	}
	if len(attempted) != 0 {
		t.Fatalf("expected empty set, got %v", attempted)
	}
}
