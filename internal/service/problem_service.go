package service

import (
	"coding_quiz_backend/internal/model"
	"coding_quiz_backend/internal/repository"
	"coding_quiz_backend/internal/util"
	"coding_quiz_backend/pkg/logger"
	"coding_quiz_backend/pkg/monitoring"
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	statsCacheKey = "quiz:platform_stats"
	statsCacheTTL = 5 * time.Minute
)

// ProblemService 负责题目下发、续做定位与答案判定
type ProblemService struct {
	SubjectRepo  *repository.SubjectRepository
	ProblemRepo  *repository.ProblemRepository
	ProgressRepo *repository.ProgressRepository
	DB           *gorm.DB
	Redis        *redis.Client
}

func NewProblemService(
	subjectRepo *repository.SubjectRepository,
	problemRepo *repository.ProblemRepository,
	progressRepo *repository.ProgressRepository,
	db *gorm.DB,
	rdb *redis.Client,
) *ProblemService {
	return &ProblemService{
		SubjectRepo:  subjectRepo,
		ProblemRepo:  problemRepo,
		ProgressRepo: progressRepo,
		DB:           db,
		Redis:        rdb,
	}
}

// ProblemView 下发给前端的题目信息，不携带答案与解析
type ProblemView struct {
	ID         uint   `json:"id"`
	Content    string `json:"content"`
	OptionA    string `json:"option_a"`
	OptionB    string `json:"option_b"`
	OptionC    string `json:"option_c"`
	OptionD    string `json:"option_d"`
	Difficulty string `json:"difficulty"`
}

func newProblemView(p *model.Problem) ProblemView {
	return ProblemView{
		ID:         p.ID,
		Content:    p.Content,
		OptionA:    p.OptionA,
		OptionB:    p.OptionB,
		OptionC:    p.OptionC,
		OptionD:    p.OptionD,
		Difficulty: p.Difficulty,
	}
}

// ResolvedProblem 题目下发结果，ProblemNumber 为科目内 1 起始的序号
type ResolvedProblem struct {
	Subject       *model.Subject      `json:"subject"`
	Problem       ProblemView         `json:"problem"`
	ProblemNumber int                 `json:"problemNumber"`
	TotalProblems int                 `json:"totalProblems"`
	UserProgress  *model.UserProgress `json:"userProgress"`
}

// ResolveProblem 决定某科目下该下发哪道题
//
// 优先级：显式序号 > 登录用户的续做游标 > 第一题。
// 游标指向的题目已被删除时就地修复：跳到第一道未作答的题目并回写游标。
func (s *ProblemService) ResolveProblem(subjectName, rawOrdinal string, userID uint) (*ResolvedProblem, error) {
	subject, err := s.SubjectRepo.FindByName(subjectName, true)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSubjectNotFound
		}
		return nil, err
	}

	problems, err := s.ProblemRepo.ListBySubject(subject.ID)
	if err != nil {
		return nil, err
	}
	if len(problems) == 0 {
		return nil, util.ErrProblemNotFound
	}

	index := 0
	if ordinal, convErr := strconv.Atoi(rawOrdinal); rawOrdinal != "" && rawOrdinal != "null" && convErr == nil {
		// 显式指定序号时忽略续做游标
		index = ordinal - 1
	} else if userID != 0 {
		index = s.resumeIndex(userID, subject.ID, problems)
	}

	index = clampIndex(index, len(problems))
	problem := problems[index]

	var attempt *model.UserProgress
	if userID != 0 {
		if a, err := s.ProgressRepo.FindAttempt(userID, problem.ID); err == nil {
			attempt = a
		}
	}

	return &ResolvedProblem{
		Subject:       subject,
		Problem:       newProblemView(&problem),
		ProblemNumber: index + 1,
		TotalProblems: len(problems),
		UserProgress:  attempt,
	}, nil
}

// resumeIndex 根据续做游标计算应下发的下标
func (s *ProblemService) resumeIndex(userID, subjectID uint, problems []model.Problem) int {
	pointer, err := s.ProgressRepo.FindSubjectPointer(userID, subjectID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Log.Error("failed to load subject pointer",
				zap.Uint("userID", userID), zap.Uint("subjectID", subjectID), zap.Error(err))
		}
		return 0
	}
	if pointer.LastProblemID == nil {
		// 游标被删除修复置空，从头开始
		return 0
	}

	p := indexOfProblem(problems, *pointer.LastProblemID)
	if p >= 0 {
		attempt, err := s.ProgressRepo.FindAttempt(userID, *pointer.LastProblemID)
		if err == nil && attempt.IsCorrect {
			// 该题已答对，推进到下一题；已是最后一题则停在原地
			return clampIndex(p+1, len(problems))
		}
		// 未作答或答错，继续停在该题
		return p
	}

	// 游标指向的题目已不在序列中（被管理端删除），做一次智能修复
	return s.repairPointer(userID, subjectID, problems)
}

// repairPointer 把悬空游标修复到第一道未作答题目并回写
func (s *ProblemService) repairPointer(userID, subjectID uint, problems []model.Problem) int {
	attempted, err := s.ProgressRepo.AttemptedProblemIDs(userID, problemIDs(problems))
	if err != nil {
		logger.Log.Error("failed to load attempted problems for pointer repair",
			zap.Uint("userID", userID), zap.Error(err))
		return 0
	}

	index, found := firstUnattempted(problems, attempted)
	if !found {
		// 全部作答过，停在最后一题
		index = len(problems) - 1
	}

	repaired := problems[index].ID
	if err := s.ProgressRepo.SetPointer(userID, subjectID, &repaired); err != nil {
		logger.Log.Error("failed to repair subject pointer",
			zap.Uint("userID", userID), zap.Uint("subjectID", subjectID), zap.Error(err))
	}
	return index
}

// SubmitResult 答案判定结果，CorrectAnswer 用前端的 1-4 表示
type SubmitResult struct {
	IsCorrect     bool   `json:"isCorrect"`
	CorrectAnswer string `json:"correctAnswer"`
	Explanation   string `json:"explanation"`
}

// SubmitAnswer 判定答案并记录作答进度
//
// 登录用户的作答记录与续做游标在同一事务内写入；
// 写入失败只记日志，判定结果照常返回，不把进度落库失败上抛给答题方。
func (s *ProblemService) SubmitAnswer(problemID uint, rawAnswer string, userID uint) (*SubmitResult, error) {
	problem, err := s.ProblemRepo.FindByID(problemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrProblemNotFound
		}
		return nil, err
	}

	normalized, err := model.NormalizeAnswer(rawAnswer)
	if err != nil {
		return nil, err
	}
	isCorrect := normalized == problem.CorrectAnswer

	if userID != 0 {
		txErr := s.DB.Transaction(func(tx *gorm.DB) error {
			pr := repository.NewProgressRepository(tx)
			if err := pr.UpsertAttempt(userID, problem.ID, normalized, isCorrect); err != nil {
				return err
			}
			lastID := problem.ID
			return pr.UpsertSubjectPointer(userID, problem.SubjectID, &lastID)
		})
		if txErr != nil {
			// 进度保存失败不阻断判定结果
			logger.Log.Error("failed to persist answer progress",
				zap.Uint("userID", userID), zap.Uint("problemID", problem.ID), zap.Error(txErr))
		}
	}

	monitoring.ObserveAnswer(isCorrect, false)

	return &SubmitResult{
		IsCorrect:     isCorrect,
		CorrectAnswer: model.DisplayAnswer(problem.CorrectAnswer),
		Explanation:   problem.Explanation,
	}, nil
}

// SubmitWrongAnswer 错题重练模式的判定，只判不写
// 不触碰作答记录和续做游标，避免复习打乱正常进度
func (s *ProblemService) SubmitWrongAnswer(subjectName string, problemID uint, rawAnswer string) (*SubmitResult, error) {
	subject, err := s.SubjectRepo.FindByName(subjectName, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSubjectNotFound
		}
		return nil, err
	}

	problem, err := s.ProblemRepo.FindByIDAndSubject(problemID, subject.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrProblemNotFound
		}
		return nil, err
	}

	normalized, err := model.NormalizeAnswer(rawAnswer)
	if err != nil {
		return nil, err
	}
	isCorrect := normalized == problem.CorrectAnswer

	monitoring.ObserveAnswer(isCorrect, true)

	return &SubmitResult{
		IsCorrect:     isCorrect,
		CorrectAnswer: model.DisplayAnswer(problem.CorrectAnswer),
		Explanation:   problem.Explanation,
	}, nil
}

// SaveProgress 页面离开时落一次续做游标，尽力而为
func (s *ProblemService) SaveProgress(userID, problemID uint) {
	problem, err := s.ProblemRepo.FindByID(problemID)
	if err != nil {
		return
	}
	lastID := problem.ID
	if err := s.ProgressRepo.UpsertSubjectPointer(userID, problem.SubjectID, &lastID); err != nil {
		logger.Log.Error("failed to save progress pointer",
			zap.Uint("userID", userID), zap.Uint("problemID", problemID), zap.Error(err))
	}
}

// WrongProblemView 错题回顾条目
type WrongProblemView struct {
	ID             uint   `json:"id"`
	Question       string `json:"question"`
	OptionA        string `json:"option_a"`
	OptionB        string `json:"option_b"`
	OptionC        string `json:"option_c"`
	OptionD        string `json:"option_d"`
	SelectedAnswer string `json:"selectedAnswer"`
	CorrectAnswer  string `json:"correctAnswer"`
	Explanation    string `json:"explanation,omitempty"`
	AnsweredAt     string `json:"answeredAt,omitempty"`
	SubjectName    string `json:"subjectName,omitempty"`
}

func newWrongProblemView(w repository.WrongAttempt) WrongProblemView {
	return WrongProblemView{
		ID:             w.Problem.ID,
		Question:       w.Problem.Content,
		OptionA:        w.Problem.OptionA,
		OptionB:        w.Problem.OptionB,
		OptionC:        w.Problem.OptionC,
		OptionD:        w.Problem.OptionD,
		SelectedAnswer: w.SelectedAnswer,
		CorrectAnswer:  model.DisplayAnswer(w.Problem.CorrectAnswer),
		Explanation:    w.Problem.Explanation,
		AnsweredAt:     w.AnsweredAt.Format(time.RFC3339),
		SubjectName:    w.SubjectName,
	}
}

// SubjectProgressSummary 用户在单个科目下的进度汇总
type SubjectProgressSummary struct {
	Total         int64              `json:"total"`
	Answered      int64              `json:"answered"`
	Correct       int64              `json:"correct"`
	Accuracy      int                `json:"accuracy"`
	WrongProblems []WrongProblemView `json:"wrongProblems"`
}

func (s *ProblemService) SubjectProgress(userID uint, subjectName string) (*model.Subject, *SubjectProgressSummary, error) {
	subject, err := s.SubjectRepo.FindByName(subjectName, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, util.ErrSubjectNotFound
		}
		return nil, nil, err
	}

	stats, err := s.ProgressRepo.SubjectStats(userID, subject.ID)
	if err != nil {
		return nil, nil, err
	}

	wrong, err := s.ProgressRepo.ListWrongBySubject(userID, subject.ID)
	if err != nil {
		return nil, nil, err
	}

	summary := &SubjectProgressSummary{
		Total:         stats.Total,
		Answered:      stats.Answered,
		Correct:       stats.Correct,
		WrongProblems: make([]WrongProblemView, 0, len(wrong)),
	}
	if stats.Answered > 0 {
		summary.Accuracy = int(float64(stats.Correct)/float64(stats.Answered)*100 + 0.5)
	}
	for _, w := range wrong {
		summary.WrongProblems = append(summary.WrongProblems, newWrongProblemView(w))
	}
	return subject, summary, nil
}

// PlatformStats 平台公开统计，带 Redis 缓存
type PlatformStats struct {
	TotalProblems int64      `json:"totalProblems"`
	TotalSubjects int64      `json:"totalSubjects"`
	LatestUpdate  *time.Time `json:"latestUpdate"`
}

func (s *ProblemService) GetPlatformStats(ctx context.Context) (*PlatformStats, error) {
	if s.Redis != nil {
		if cached, err := s.Redis.Get(ctx, statsCacheKey).Result(); err == nil {
			var stats PlatformStats
			if json.Unmarshal([]byte(cached), &stats) == nil {
				return &stats, nil
			}
		}
	}

	totalProblems, err := s.ProblemRepo.Count()
	if err != nil {
		return nil, err
	}
	totalSubjects, err := s.SubjectRepo.CountPublic()
	if err != nil {
		return nil, err
	}
	latest, err := s.ProblemRepo.LatestCreatedAt()
	if err != nil {
		return nil, err
	}

	stats := &PlatformStats{
		TotalProblems: totalProblems,
		TotalSubjects: totalSubjects,
		LatestUpdate:  latest,
	}

	if s.Redis != nil {
		if payload, err := json.Marshal(stats); err == nil {
			if err := s.Redis.Set(ctx, statsCacheKey, payload, statsCacheTTL).Err(); err != nil {
				logger.Log.Warn("failed to cache platform stats", zap.Error(err))
			}
		}
	}
	return stats, nil
}

// InvalidateStatsCache 管理端增删题目后清掉统计缓存
func (s *ProblemService) InvalidateStatsCache(ctx context.Context) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, statsCacheKey).Err(); err != nil {
		logger.Log.Warn("failed to invalidate stats cache", zap.Error(err))
	}
}

// ListPublicSubjects 公开科目及题目数
func (s *ProblemService) ListPublicSubjects() ([]repository.SubjectWithCount, error) {
	return s.SubjectRepo.ListPublicWithCounts()
}
