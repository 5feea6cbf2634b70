package service

import (
	"coding_quiz_backend/internal/repository"
	"coding_quiz_backend/internal/util"
	"errors"

	"gorm.io/gorm"
)

// DashboardService 用户学习面板数据聚合
type DashboardService struct {
	SubjectRepo  *repository.SubjectRepository
	ProgressRepo *repository.ProgressRepository
}

func NewDashboardService(subjectRepo *repository.SubjectRepository, progressRepo *repository.ProgressRepository) *DashboardService {
	return &DashboardService{SubjectRepo: subjectRepo, ProgressRepo: progressRepo}
}

// SubjectOverview 面板里的单科目进度行
type SubjectOverview struct {
	SubjectID   uint   `json:"subjectId"`
	SubjectName string `json:"subjectName"`
	Total       int64  `json:"total"`
	Answered    int64  `json:"answered"`
	Correct     int64  `json:"correct"`
	Accuracy    int    `json:"accuracy"`
}

// Overview 学习面板首页数据
type Overview struct {
	Subjects       []SubjectOverview            `json:"subjects"`
	DailyStats     []repository.DailyStat       `json:"dailyStats"`
	Accuracies     []repository.SubjectAccuracy `json:"subjectAccuracies"`
	TotalAnswered  int64                        `json:"totalAnswered"`
	TotalCorrect   int64                        `json:"totalCorrect"`
	RecentWrongTop []WrongProblemView           `json:"recentWrong"`
}

func (s *DashboardService) GetOverview(userID uint) (*Overview, error) {
	subjects, err := s.SubjectRepo.ListAll()
	if err != nil {
		return nil, err
	}

	overview := &Overview{Subjects: make([]SubjectOverview, 0, len(subjects))}
	for _, subject := range subjects {
		stats, err := s.ProgressRepo.SubjectStats(userID, subject.ID)
		if err != nil {
			return nil, err
		}
		row := SubjectOverview{
			SubjectID:   subject.ID,
			SubjectName: subject.Name,
			Total:       stats.Total,
			Answered:    stats.Answered,
			Correct:     stats.Correct,
		}
		if stats.Answered > 0 {
			row.Accuracy = int(float64(stats.Correct)/float64(stats.Answered)*100 + 0.5)
		}
		overview.TotalAnswered += stats.Answered
		overview.TotalCorrect += stats.Correct
		overview.Subjects = append(overview.Subjects, row)
	}

	if overview.DailyStats, err = s.ProgressRepo.DailyStats(userID, 30); err != nil {
		return nil, err
	}
	if overview.Accuracies, err = s.ProgressRepo.SubjectAccuracies(userID); err != nil {
		return nil, err
	}

	wrong, err := s.ProgressRepo.ListRecentWrong(userID, 10)
	if err != nil {
		return nil, err
	}
	overview.RecentWrongTop = make([]WrongProblemView, 0, len(wrong))
	for _, w := range wrong {
		overview.RecentWrongTop = append(overview.RecentWrongTop, newWrongProblemView(w))
	}
	return overview, nil
}

// GetWrongProblemsBySubject 单科目错题本
func (s *DashboardService) GetWrongProblemsBySubject(userID uint, subjectName string) ([]WrongProblemView, error) {
	subject, err := s.SubjectRepo.FindByName(subjectName, false)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSubjectNotFound
		}
		return nil, err
	}
	wrong, err := s.ProgressRepo.ListWrongBySubject(userID, subject.ID)
	if err != nil {
		return nil, err
	}
	views := make([]WrongProblemView, 0, len(wrong))
	for _, w := range wrong {
		views = append(views, newWrongProblemView(w))
	}
	return views, nil
}

// StatsView 面板统计页数据
type StatsView struct {
	DailyStats []repository.DailyStat       `json:"dailyStats"`
	Accuracies []repository.SubjectAccuracy `json:"subjectAccuracies"`
}

// GetStats 最近 7 天作答量与分科目正确率
func (s *DashboardService) GetStats(userID uint) (*StatsView, error) {
	daily, err := s.ProgressRepo.DailyStats(userID, 7)
	if err != nil {
		return nil, err
	}
	accuracies, err := s.ProgressRepo.SubjectAccuracies(userID)
	if err != nil {
		return nil, err
	}
	return &StatsView{DailyStats: daily, Accuracies: accuracies}, nil
}

// GetWrongProblems 全科目错题本
func (s *DashboardService) GetWrongProblems(userID uint, limit int) ([]WrongProblemView, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	wrong, err := s.ProgressRepo.ListRecentWrong(userID, limit)
	if err != nil {
		return nil, err
	}
	views := make([]WrongProblemView, 0, len(wrong))
	for _, w := range wrong {
		views = append(views, newWrongProblemView(w))
	}
	return views, nil
}
