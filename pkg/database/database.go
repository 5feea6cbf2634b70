package database

import (
	"coding_quiz_backend/internal/config"
	"coding_quiz_backend/internal/model"
	"fmt"
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	err = db.AutoMigrate(
		&model.User{},
		&model.Subject{},
		&model.Problem{},
		&model.UserProgress{},
		&model.UserSubjectProgress{},
		&model.EmailVerification{},
		&model.PasswordResetToken{},
	)

	if err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	// 首次启动时写入默认科目
	var count int64
	db.Model(&model.Subject{}).Count(&count)
	if count == 0 {
		defaultSubjects := []model.Subject{
			{Name: "JavaScript 기초", Description: "JavaScript의 기본 문법과 개념을 학습합니다.", Category: "frontend", IsPublic: true, SortOrder: 1},
			{Name: "Python 기초", Description: "Python의 기본 문법과 개념을 학습합니다.", Category: "backend", IsPublic: true, SortOrder: 2},
			{Name: "Java 기초", Description: "Java의 기본 문법과 개념을 학습합니다.", Category: "backend", IsPublic: true, SortOrder: 3},
			{Name: "C++ 기초", Description: "C++의 기본 문법과 개념을 학습합니다.", Category: "backend", IsPublic: true, SortOrder: 4},
		}
		for _, s := range defaultSubjects {
			db.Create(&s)
		}
	}

	return db, nil
}
