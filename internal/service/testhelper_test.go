package service

import (
	"coding_quiz_backend/internal/model"
	"coding_quiz_backend/internal/repository"
	"fmt"
	"strings"
	"testing"
	"time"

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
	// 内存库必须限制在单连接上，否则新连接看到的是空库
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&model.User{},
		&model.Subject{},
		&model.Problem{},
		&model.UserProgress{},
		&model.UserSubjectProgress{},
		&model.EmailVerification{},
		&model.PasswordResetToken{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func seedSubject(t *testing.T, db *gorm.DB, name string) *model.Subject {
	t.Helper()
	subject := &model.Subject{Name: name, IsPublic: true}
	if err := db.Create(subject).Error; err != nil {
		t.Fatalf("failed to seed subject: %v", err)
	}
	return subject
}

// seedProblems 为科目创建 n 道题，正确答案均为 A
func seedProblems(t *testing.T, db *gorm.DB, subjectID uint, n int) []model.Problem {
	t.Helper()
	problems := make([]model.Problem, 0, n)
	for i := 0; i < n; i++ {
		p := model.Problem{
			SubjectID:     subjectID,
			Content:       fmt.Sprintf("question %d", i+1),
			OptionA:       "a",
			OptionB:       "b",
			OptionC:       "c",
			OptionD:       "d",
			CorrectAnswer: "A",
			Difficulty:    "easy",
		}
		if err := db.Create(&p).Error; err != nil {
			t.Fatalf("failed to seed problem: %v", err)
		}
		problems = append(problems, p)
	}
	return problems
}

func seedUser(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()
	user := &model.User{Username: "tester", Email: email, Password: "x", Role: model.Student}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func seedAttempt(t *testing.T, db *gorm.DB, userID, problemID uint, answer string, correct bool) {
	t.Helper()
	attempt := &model.UserProgress{
		UserID:         userID,
		ProblemID:      problemID,
		SelectedAnswer: answer,
		IsCorrect:      correct,
		AnsweredAt:     time.Now(),
	}
	if err := db.Create(attempt).Error; err != nil {
		t.Fatalf("failed to seed attempt: %v", err)
	}
}

func setPointer(t *testing.T, db *gorm.DB, userID, subjectID uint, problemID *uint) {
	t.Helper()
	pointer := &model.UserSubjectProgress{UserID: userID, SubjectID: subjectID, LastProblemID: problemID}
	if err := db.Create(pointer).Error; err != nil {
		t.Fatalf("failed to seed pointer: %v", err)
	}
}

func newProblemService(db *gorm.DB) *ProblemService {
	return NewProblemService(
		repository.NewSubjectRepository(db),
		repository.NewProblemRepository(db),
		repository.NewProgressRepository(db),
		db,
		nil,
	)
}

func newAdminService(db *gorm.DB) *AdminService {
	return NewAdminService(
		repository.NewSubjectRepository(db),
		repository.NewProblemRepository(db),
		repository.NewProgressRepository(db),
		repository.NewUserRepository(db),
		db,
		nil,
		newProblemService(db),
	)
}
