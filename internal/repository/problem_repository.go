package repository

import (
	"coding_quiz_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type ProblemRepository struct {
	DB *gorm.DB
}

func NewProblemRepository(db *gorm.DB) *ProblemRepository {
	return &ProblemRepository{DB: db}
}

func (r *ProblemRepository) Create(problem *model.Problem) error {
	return r.DB.Create(problem).Error
}

func (r *ProblemRepository) FindByID(id uint) (*model.Problem, error) {
	var problem model.Problem
	err := r.DB.First(&problem, id).Error
	if err != nil {
		return nil, err
	}
	return &problem, nil
}

func (r *ProblemRepository) FindByIDAndSubject(id, subjectID uint) (*model.Problem, error) {
	var problem model.Problem
	err := r.DB.Where("id = ? AND subject_id = ?", id, subjectID).First(&problem).Error
	if err != nil {
		return nil, err
	}
	return &problem, nil
}

// ListBySubject 返回科目内全部题目，按 ID 升序（即出题顺序）
func (r *ProblemRepository) ListBySubject(subjectID uint) ([]model.Problem, error) {
	var problems []model.Problem
	err := r.DB.Where("subject_id = ?", subjectID).Order("id ASC").Find(&problems).Error
	return problems, err
}

func (r *ProblemRepository) Update(problem *model.Problem) error {
	return r.DB.Model(problem).Updates(map[string]interface{}{
		"subject_id":     problem.SubjectID,
		"content":        problem.Content,
		"option_a":       problem.OptionA,
		"option_b":       problem.OptionB,
		"option_c":       problem.OptionC,
		"option_d":       problem.OptionD,
		"correct_answer": problem.CorrectAnswer,
		"explanation":    problem.Explanation,
		"difficulty":     problem.Difficulty,
	}).Error
}

func (r *ProblemRepository) Count() (int64, error) {
	var count int64
	err := r.DB.Model(&model.Problem{}).Count(&count).Error
	return count, err
}

func (r *ProblemRepository) CountBySubject(subjectID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Problem{}).Where("subject_id = ?", subjectID).Count(&count).Error
	return count, err
}

func (r *ProblemRepository) LatestCreatedAt() (*time.Time, error) {
	var problem model.Problem
	err := r.DB.Order("created_at DESC").First(&problem).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &problem.CreatedAt, nil
}

// ListRecent 最新创建的题目，RSS 订阅用
func (r *ProblemRepository) ListRecent(limit int) ([]model.Problem, error) {
	var problems []model.Problem
	err := r.DB.Order("created_at DESC").Limit(limit).Find(&problems).Error
	return problems, err
}

// ProblemWithSubject 管理端列表行，附带科目名与科目内序号
// CorrectAnswer 在这里重新声明，管理端要看到被 json:"-" 隐藏的正确答案
type ProblemWithSubject struct {
	model.Problem
	CorrectAnswer        string `json:"correct_answer"`
	SubjectName          string `json:"subjectName"`
	SubjectProblemNumber int    `json:"subjectProblemNumber"`
}

// ListAllWithSubject 管理端全量列表，按科目排序再按 ID 升序
func (r *ProblemRepository) ListAllWithSubject() ([]ProblemWithSubject, error) {
	var problems []model.Problem
	err := r.DB.
		Joins("JOIN subjects ON subjects.id = problems.subject_id").
		Order("subjects.sort_order ASC, problems.id ASC").
		Find(&problems).Error
	if err != nil {
		return nil, err
	}

	subjects, err := NewSubjectRepository(r.DB).ListAll()
	if err != nil {
		return nil, err
	}
	names := make(map[uint]string, len(subjects))
	for _, s := range subjects {
		names[s.ID] = s.Name
	}

	// 科目内序号按出现顺序编号（题目已按 ID 升序）
	counters := make(map[uint]int)
	rows := make([]ProblemWithSubject, 0, len(problems))
	for _, p := range problems {
		counters[p.SubjectID]++
		rows = append(rows, ProblemWithSubject{
			Problem:              p,
			CorrectAnswer:        p.CorrectAnswer,
			SubjectName:          names[p.SubjectID],
			SubjectProblemNumber: counters[p.SubjectID],
		})
	}
	return rows, nil
}
