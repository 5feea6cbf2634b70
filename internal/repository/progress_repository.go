package repository

import (
	"coding_quiz_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProgressRepository 管理作答记录与科目续做游标两张表
// 两者角色不同：user_progress 是每题一行的作答日志，
// user_subject_progress 是每科一行的续做指针，互不推导
type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

func (r *ProgressRepository) FindAttempt(userID, problemID uint) (*model.UserProgress, error) {
	var attempt model.UserProgress
	err := r.DB.Where("user_id = ? AND problem_id = ?", userID, problemID).First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

// UpsertAttempt 写入作答记录，同一 (user, problem) 重复提交覆盖旧答案
func (r *ProgressRepository) UpsertAttempt(userID, problemID uint, selectedAnswer string, isCorrect bool) error {
	attempt := model.UserProgress{
		UserID:         userID,
		ProblemID:      problemID,
		SelectedAnswer: selectedAnswer,
		IsCorrect:      isCorrect,
		AnsweredAt:     time.Now(),
	}
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "problem_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"selected_answer", "is_correct", "answered_at"}),
	}).Create(&attempt).Error
}

// AttemptedProblemIDs 返回用户在给定题目集合中已作答的题目 ID
func (r *ProgressRepository) AttemptedProblemIDs(userID uint, problemIDs []uint) (map[uint]bool, error) {
	attempted := make(map[uint]bool)
	if len(problemIDs) == 0 {
		return attempted, nil
	}

	var ids []uint
	err := r.DB.Model(&model.UserProgress{}).
		Where("user_id = ? AND problem_id IN ?", userID, problemIDs).
		Pluck("problem_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		attempted[id] = true
	}
	return attempted, nil
}

func (r *ProgressRepository) FindSubjectPointer(userID, subjectID uint) (*model.UserSubjectProgress, error) {
	var pointer model.UserSubjectProgress
	err := r.DB.Where("user_id = ? AND subject_id = ?", userID, subjectID).First(&pointer).Error
	if err != nil {
		return nil, err
	}
	return &pointer, nil
}

// UpsertSubjectPointer 写入续做游标，同一 (user, subject) 重复写入覆盖
func (r *ProgressRepository) UpsertSubjectPointer(userID, subjectID uint, lastProblemID *uint) error {
	pointer := model.UserSubjectProgress{
		UserID:        userID,
		SubjectID:     subjectID,
		LastProblemID: lastProblemID,
	}
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "subject_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_problem_id"}),
	}).Create(&pointer).Error
}

// UsersPointingAt 游标停留在指定题目上的全部用户
func (r *ProgressRepository) UsersPointingAt(problemID uint) ([]uint, error) {
	var userIDs []uint
	err := r.DB.Model(&model.UserSubjectProgress{}).
		Where("last_problem_id = ?", problemID).
		Pluck("user_id", &userIDs).Error
	return userIDs, err
}

// SetPointer 更新已存在的游标行，题目删除修复时使用
func (r *ProgressRepository) SetPointer(userID, subjectID uint, lastProblemID *uint) error {
	return r.DB.Model(&model.UserSubjectProgress{}).
		Where("user_id = ? AND subject_id = ?", userID, subjectID).
		Update("last_problem_id", lastProblemID).Error
}

// WrongAttempt 错题及对应作答
type WrongAttempt struct {
	Problem        model.Problem
	SelectedAnswer string
	AnsweredAt     time.Time
	SubjectName    string
}

// ListWrongBySubject 某科目下答错的题目，按作答时间倒序
func (r *ProgressRepository) ListWrongBySubject(userID, subjectID uint) ([]WrongAttempt, error) {
	var attempts []model.UserProgress
	err := r.DB.
		Joins("JOIN problems ON problems.id = user_progress.problem_id").
		Where("user_progress.user_id = ? AND user_progress.is_correct = ? AND problems.subject_id = ?", userID, false, subjectID).
		Order("user_progress.answered_at DESC").
		Find(&attempts).Error
	if err != nil {
		return nil, err
	}
	return r.attachProblems(attempts)
}

// ListRecentWrong 全科目最近答错的题目
func (r *ProgressRepository) ListRecentWrong(userID uint, limit int) ([]WrongAttempt, error) {
	var attempts []model.UserProgress
	err := r.DB.
		Where("user_id = ? AND is_correct = ?", userID, false).
		Order("answered_at DESC").
		Limit(limit).
		Find(&attempts).Error
	if err != nil {
		return nil, err
	}
	return r.attachProblems(attempts)
}

func (r *ProgressRepository) attachProblems(attempts []model.UserProgress) ([]WrongAttempt, error) {
	result := make([]WrongAttempt, 0, len(attempts))
	for _, a := range attempts {
		var problem model.Problem
		if err := r.DB.First(&problem, a.ProblemID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				continue // 题目已被删除，跳过
			}
			return nil, err
		}
		var subject model.Subject
		subjectName := ""
		if err := r.DB.First(&subject, problem.SubjectID).Error; err == nil {
			subjectName = subject.Name
		}
		result = append(result, WrongAttempt{
			Problem:        problem,
			SelectedAnswer: a.SelectedAnswer,
			AnsweredAt:     a.AnsweredAt,
			SubjectName:    subjectName,
		})
	}
	return result, nil
}

// SubjectStats 用户在某科目下的累计作答统计
type SubjectStats struct {
	Total    int64 `json:"total"`
	Answered int64 `json:"answered"`
	Correct  int64 `json:"correct"`
}

func (r *ProgressRepository) SubjectStats(userID, subjectID uint) (*SubjectStats, error) {
	var stats SubjectStats
	if err := r.DB.Model(&model.Problem{}).Where("subject_id = ?", subjectID).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	err := r.DB.Model(&model.UserProgress{}).
		Joins("JOIN problems ON problems.id = user_progress.problem_id").
		Where("user_progress.user_id = ? AND problems.subject_id = ?", userID, subjectID).
		Count(&stats.Answered).Error
	if err != nil {
		return nil, err
	}
	err = r.DB.Model(&model.UserProgress{}).
		Joins("JOIN problems ON problems.id = user_progress.problem_id").
		Where("user_progress.user_id = ? AND problems.subject_id = ? AND user_progress.is_correct = ?", userID, subjectID, true).
		Count(&stats.Correct).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// DailyStat 按天聚合的作答量
type DailyStat struct {
	Date           string `json:"date"`
	ProblemsSolved int64  `json:"problemsSolved"`
	CorrectAnswers int64  `json:"correctAnswers"`
}

// DailyStats 最近 days 天的每日作答统计，按日期倒序
func (r *ProgressRepository) DailyStats(userID uint, days int) ([]DailyStat, error) {
	since := time.Now().AddDate(0, 0, -days)
	var stats []DailyStat
	err := r.DB.Model(&model.UserProgress{}).
		Select("DATE(answered_at) as date, COUNT(*) as problems_solved, SUM(CASE WHEN is_correct THEN 1 ELSE 0 END) as correct_answers").
		Where("user_id = ? AND answered_at >= ?", userID, since).
		Group("DATE(answered_at)").
		Order("date DESC").
		Scan(&stats).Error
	return stats, err
}

// SubjectAccuracy 按科目的作答正确率
type SubjectAccuracy struct {
	SubjectName    string  `json:"subjectName"`
	TotalAttempts  int64   `json:"totalAttempts"`
	CorrectAnswers int64   `json:"correctAnswers"`
	Accuracy       float64 `json:"accuracy"`
}

func (r *ProgressRepository) SubjectAccuracies(userID uint) ([]SubjectAccuracy, error) {
	var stats []SubjectAccuracy
	err := r.DB.Model(&model.UserProgress{}).
		Select("subjects.name as subject_name, COUNT(*) as total_attempts, SUM(CASE WHEN user_progress.is_correct THEN 1 ELSE 0 END) as correct_answers").
		Joins("JOIN problems ON problems.id = user_progress.problem_id").
		Joins("JOIN subjects ON subjects.id = problems.subject_id").
		Where("user_progress.user_id = ?", userID).
		Group("subjects.id, subjects.name").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	for i := range stats {
		if stats[i].TotalAttempts > 0 {
			stats[i].Accuracy = float64(stats[i].CorrectAnswers) / float64(stats[i].TotalAttempts) * 100
		}
	}
	return stats, nil
}

func (r *ProgressRepository) CountAttempts() (int64, error) {
	var count int64
	err := r.DB.Model(&model.UserProgress{}).Count(&count).Error
	return count, err
}
