package service

import (
	"coding_quiz_backend/internal/model"
	"coding_quiz_backend/internal/repository"
	"coding_quiz_backend/internal/util"
	"coding_quiz_backend/pkg/logger"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AdminService 管理端科目与题目维护
type AdminService struct {
	SubjectRepo  *repository.SubjectRepository
	ProblemRepo  *repository.ProblemRepository
	ProgressRepo *repository.ProgressRepository
	UserRepo     *repository.UserRepository
	DB           *gorm.DB
	Storage      StorageProvider
	Problems     *ProblemService
}

func NewAdminService(
	subjectRepo *repository.SubjectRepository,
	problemRepo *repository.ProblemRepository,
	progressRepo *repository.ProgressRepository,
	userRepo *repository.UserRepository,
	db *gorm.DB,
	storage StorageProvider,
	problems *ProblemService,
) *AdminService {
	return &AdminService{
		SubjectRepo:  subjectRepo,
		ProblemRepo:  problemRepo,
		ProgressRepo: progressRepo,
		UserRepo:     userRepo,
		DB:           db,
		Storage:      storage,
		Problems:     problems,
	}
}

// ProblemInput 管理端创建/更新题目的请求体
type ProblemInput struct {
	SubjectID     uint   `json:"subject_id" binding:"required"`
	Content       string `json:"content" binding:"required"`
	OptionA       string `json:"option_a" binding:"required"`
	OptionB       string `json:"option_b" binding:"required"`
	OptionC       string `json:"option_c" binding:"required"`
	OptionD       string `json:"option_d" binding:"required"`
	CorrectAnswer string `json:"correct_answer" binding:"required"`
	Explanation   string `json:"explanation"`
	Difficulty    string `json:"difficulty"`
}

func (in *ProblemInput) toModel() (*model.Problem, error) {
	answer, err := model.NormalizeAnswer(in.CorrectAnswer)
	if err != nil {
		return nil, err
	}
	difficulty := in.Difficulty
	if difficulty == "" {
		difficulty = "medium"
	}
	if !model.IsValidDifficulty(difficulty) {
		return nil, fmt.Errorf("无效的难度: %s", difficulty)
	}
	return &model.Problem{
		SubjectID:     in.SubjectID,
		Content:       in.Content,
		OptionA:       in.OptionA,
		OptionB:       in.OptionB,
		OptionC:       in.OptionC,
		OptionD:       in.OptionD,
		CorrectAnswer: answer,
		Explanation:   in.Explanation,
		Difficulty:    difficulty,
	}, nil
}

// AdminProblemView 管理端返回的题目，重新声明 CorrectAnswer 以绕过 json:"-"
type AdminProblemView struct {
	model.Problem
	CorrectAnswer string `json:"correct_answer"`
}

func newAdminProblemView(p *model.Problem) *AdminProblemView {
	return &AdminProblemView{Problem: *p, CorrectAnswer: p.CorrectAnswer}
}

func (s *AdminService) CreateProblem(ctx context.Context, in *ProblemInput) (*AdminProblemView, error) {
	if _, err := s.SubjectRepo.FindByID(in.SubjectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSubjectNotFound
		}
		return nil, err
	}

	problem, err := in.toModel()
	if err != nil {
		return nil, err
	}
	if err := s.ProblemRepo.Create(problem); err != nil {
		return nil, err
	}
	if err := s.SubjectRepo.RefreshTotalProblems(in.SubjectID); err != nil {
		logger.Log.Warn("failed to refresh subject problem count",
			zap.Uint("subjectID", in.SubjectID), zap.Error(err))
	}
	s.Problems.InvalidateStatsCache(ctx)
	return newAdminProblemView(problem), nil
}

func (s *AdminService) UpdateProblem(id uint, in *ProblemInput) (*AdminProblemView, error) {
	existing, err := s.ProblemRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrProblemNotFound
		}
		return nil, err
	}

	updated, err := in.toModel()
	if err != nil {
		return nil, err
	}
	updated.ID = existing.ID
	if err := s.ProblemRepo.Update(updated); err != nil {
		return nil, err
	}
	if existing.SubjectID != updated.SubjectID {
		// 题目换了科目，两边的计数都要刷
		for _, sid := range []uint{existing.SubjectID, updated.SubjectID} {
			if err := s.SubjectRepo.RefreshTotalProblems(sid); err != nil {
				logger.Log.Warn("failed to refresh subject problem count",
					zap.Uint("subjectID", sid), zap.Error(err))
			}
		}
	}
	return newAdminProblemView(updated), nil
}

func (s *AdminService) ListProblems() ([]repository.ProblemWithSubject, error) {
	return s.ProblemRepo.ListAllWithSubject()
}

// DeleteProblem 删除题目并修复所有受影响用户的续做游标
//
// 删除、作答记录清理和游标修复在同一事务内完成，任何一步失败整体回滚。
// 游标修复规则：指向第一道未作答的剩余题目；全部答过则指向最后一题；
// 科目已无题目则置空。
func (s *AdminService) DeleteProblem(ctx context.Context, problemID uint) error {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		problemRepo := repository.NewProblemRepository(tx)
		progressRepo := repository.NewProgressRepository(tx)

		problem, err := problemRepo.FindByID(problemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrProblemNotFound
			}
			return err
		}

		// 删除前先拿到受影响用户和删除后的剩余题目序列
		affected, err := progressRepo.UsersPointingAt(problem.ID)
		if err != nil {
			return err
		}
		all, err := problemRepo.ListBySubject(problem.SubjectID)
		if err != nil {
			return err
		}
		remaining := make([]model.Problem, 0, len(all))
		for _, p := range all {
			if p.ID != problem.ID {
				remaining = append(remaining, p)
			}
		}

		if err := tx.Unscoped().
			Where("problem_id = ?", problem.ID).
			Delete(&model.UserProgress{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Delete(&model.Problem{}, problem.ID).Error; err != nil {
			return err
		}

		ids := problemIDs(remaining)
		for _, userID := range affected {
			if len(remaining) == 0 {
				if err := progressRepo.SetPointer(userID, problem.SubjectID, nil); err != nil {
					return err
				}
				continue
			}
			attempted, err := progressRepo.AttemptedProblemIDs(userID, ids)
			if err != nil {
				return err
			}
			index, found := firstUnattempted(remaining, attempted)
			if !found {
				index = len(remaining) - 1
			}
			next := remaining[index].ID
			if err := progressRepo.SetPointer(userID, problem.SubjectID, &next); err != nil {
				return err
			}
		}

		return repository.NewSubjectRepository(tx).RefreshTotalProblems(problem.SubjectID)
	})
	if err != nil {
		return err
	}
	s.Problems.InvalidateStatsCache(ctx)
	return nil
}

// SubjectInput 管理端创建/更新科目的请求体
// 排序不走这里，调整顺序有单独的接口
type SubjectInput struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Category    string `json:"category"`
	IsPublic    *bool  `json:"is_public"`
}

func (s *AdminService) CreateSubject(in *SubjectInput) (*model.Subject, error) {
	subject := &model.Subject{
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		IsPublic:    true,
	}
	if in.IsPublic != nil {
		subject.IsPublic = *in.IsPublic
	}
	if err := s.SubjectRepo.Create(subject); err != nil {
		return nil, err
	}
	return subject, nil
}

func (s *AdminService) UpdateSubject(id uint, in *SubjectInput) (*model.Subject, error) {
	subject, err := s.SubjectRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSubjectNotFound
		}
		return nil, err
	}
	subject.Name = in.Name
	subject.Description = in.Description
	subject.Category = in.Category
	if in.IsPublic != nil {
		subject.IsPublic = *in.IsPublic
	}
	if err := s.SubjectRepo.Update(subject); err != nil {
		return nil, err
	}
	return subject, nil
}

// DeleteSubject 只允许删除空科目，避免孤儿题目
func (s *AdminService) DeleteSubject(id uint) error {
	if _, err := s.SubjectRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrSubjectNotFound
		}
		return err
	}
	count, err := s.ProblemRepo.CountBySubject(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return util.ErrSubjectNotEmpty
	}
	return s.SubjectRepo.Delete(id)
}

func (s *AdminService) SetSubjectPublic(id uint, isPublic bool) error {
	if _, err := s.SubjectRepo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrSubjectNotFound
		}
		return err
	}
	return s.SubjectRepo.UpdatePublicStatus(id, isPublic)
}

func (s *AdminService) ReorderSubjects(orders map[uint]int) error {
	return s.SubjectRepo.UpdateSortOrders(orders)
}

func (s *AdminService) ListSubjects() ([]repository.SubjectWithCount, error) {
	return s.SubjectRepo.ListAllWithCounts()
}

// AdminStats 管理端仪表盘统计
type AdminStats struct {
	TotalUsers       int64 `json:"totalUsers"`
	TotalSubjects    int64 `json:"totalSubjects"`
	TotalProblems    int64 `json:"totalProblems"`
	TotalSubmissions int64 `json:"totalSubmissions"`
}

func (s *AdminService) GetStats() (*AdminStats, error) {
	stats := &AdminStats{}
	var err error
	if stats.TotalUsers, err = s.UserRepo.Count(); err != nil {
		return nil, err
	}
	if stats.TotalSubjects, err = s.SubjectRepo.Count(); err != nil {
		return nil, err
	}
	if stats.TotalProblems, err = s.ProblemRepo.Count(); err != nil {
		return nil, err
	}
	if stats.TotalSubmissions, err = s.ProgressRepo.CountAttempts(); err != nil {
		return nil, err
	}
	return stats, nil
}

// ExportPayload 数据导出的 JSON 结构
type ExportPayload struct {
	ExportedAt time.Time       `json:"exportedAt"`
	Subjects   []model.Subject `json:"subjects"`
	Problems   []model.Problem `json:"problems"`
}

// ExportData 把科目与题目打包成 JSON 存入配置的存储后端，返回对象名
func (s *AdminService) ExportData(ctx context.Context) (string, error) {
	subjects, err := s.SubjectRepo.ListAll()
	if err != nil {
		return "", err
	}

	payload := ExportPayload{
		ExportedAt: time.Now(),
		Subjects:   subjects,
	}

	// 导出带答案的完整题目，绕过 json:"-"
	type exportProblem struct {
		model.Problem
		CorrectAnswer string `json:"correct_answer"`
	}
	var problems []model.Problem
	if err := s.DB.Order("subject_id ASC, id ASC").Find(&problems).Error; err != nil {
		return "", err
	}
	full := make([]exportProblem, 0, len(problems))
	for _, p := range problems {
		full = append(full, exportProblem{Problem: p, CorrectAnswer: p.CorrectAnswer})
	}

	data, err := json.MarshalIndent(struct {
		ExportPayload
		Problems []exportProblem `json:"problems"`
	}{ExportPayload: payload, Problems: full}, "", "  ")
	if err != nil {
		return "", err
	}

	objectName := fmt.Sprintf("exports/quiz-data-%s.json", time.Now().Format("20060102-150405"))
	if err := s.Storage.Put(ctx, objectName, data, "application/json"); err != nil {
		return "", err
	}
	logger.Log.Info("data export completed",
		zap.String("object", objectName), zap.Int("problems", len(problems)))
	return objectName, nil
}
