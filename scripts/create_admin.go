// 创建管理员账号脚本
//
// 首次部署后执行一次，生成可登录管理端的账号。
//
// 用法: go run scripts/create_admin.go <邮箱> <密码> [用户名]

package main

import (
	"coding_quiz_backend/internal/config"
	"coding_quiz_backend/internal/model"
	"coding_quiz_backend/pkg/database"
	"coding_quiz_backend/pkg/logger"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

func main() {
	if len(os.Args) < 3 {
		log.Fatalf("用法: go run scripts/create_admin.go <邮箱> <密码> [用户名]")
	}
	email := os.Args[1]
	password := os.Args[2]
	username := "admin"
	if len(os.Args) > 3 {
		username = os.Args[3]
	}

	data, err := os.ReadFile("configs/config.yaml")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("解析配置文件失败: %v", err)
	}

	logger.InitLogger(&cfg)

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	var existing model.User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		// 已存在则提升为管理员并重置密码
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("密码加密失败: %v", err)
		}
		existing.Role = model.Admin
		existing.Password = string(hashed)
		if err := db.Save(&existing).Error; err != nil {
			log.Fatalf("更新账号失败: %v", err)
		}
		log.Printf("账号 %s 已提升为管理员", email)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("密码加密失败: %v", err)
	}

	admin := &model.User{
		Username:      username,
		Email:         email,
		Password:      string(hashed),
		Role:          model.Admin,
		EmailVerified: true,
	}
	if err := db.Create(admin).Error; err != nil {
		log.Fatalf("创建账号失败: %v", err)
	}
	log.Printf("管理员账号 %s 创建完成", email)
}
