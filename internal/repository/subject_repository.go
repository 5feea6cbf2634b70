package repository

import (
	"coding_quiz_backend/internal/model"

	"gorm.io/gorm"
)

type SubjectRepository struct {
	DB *gorm.DB
}

func NewSubjectRepository(db *gorm.DB) *SubjectRepository {
	return &SubjectRepository{DB: db}
}

func (r *SubjectRepository) Create(subject *model.Subject) error {
	return r.DB.Create(subject).Error
}

func (r *SubjectRepository) FindByID(id uint) (*model.Subject, error) {
	var subject model.Subject
	err := r.DB.First(&subject, id).Error
	if err != nil {
		return nil, err
	}
	return &subject, nil
}

// FindByName 按展示名查找科目，publicOnly 时仅返回公开科目
func (r *SubjectRepository) FindByName(name string, publicOnly bool) (*model.Subject, error) {
	var subject model.Subject
	query := r.DB.Where("name = ?", name)
	if publicOnly {
		query = query.Where("is_public = ?", true)
	}
	err := query.First(&subject).Error
	if err != nil {
		return nil, err
	}
	return &subject, nil
}

// SubjectWithCount 科目及其题目数
type SubjectWithCount struct {
	model.Subject
	ProblemCount int64 `json:"problemCount"`
}

func (r *SubjectRepository) listWithCounts(publicOnly bool) ([]SubjectWithCount, error) {
	var subjects []model.Subject
	query := r.DB.Order("sort_order ASC, name ASC")
	if publicOnly {
		query = query.Where("is_public = ?", true)
	}
	if err := query.Find(&subjects).Error; err != nil {
		return nil, err
	}

	result := make([]SubjectWithCount, 0, len(subjects))
	for _, s := range subjects {
		var count int64
		if err := r.DB.Model(&model.Problem{}).Where("subject_id = ?", s.ID).Count(&count).Error; err != nil {
			return nil, err
		}
		result = append(result, SubjectWithCount{Subject: s, ProblemCount: count})
	}
	return result, nil
}

func (r *SubjectRepository) ListPublicWithCounts() ([]SubjectWithCount, error) {
	return r.listWithCounts(true)
}

func (r *SubjectRepository) ListAllWithCounts() ([]SubjectWithCount, error) {
	return r.listWithCounts(false)
}

func (r *SubjectRepository) ListAll() ([]model.Subject, error) {
	var subjects []model.Subject
	err := r.DB.Order("name ASC").Find(&subjects).Error
	return subjects, err
}

func (r *SubjectRepository) Update(subject *model.Subject) error {
	return r.DB.Model(subject).Updates(map[string]interface{}{
		"name":        subject.Name,
		"description": subject.Description,
		"category":    subject.Category,
		"is_public":   subject.IsPublic,
	}).Error
}

func (r *SubjectRepository) UpdatePublicStatus(id uint, isPublic bool) error {
	return r.DB.Model(&model.Subject{}).Where("id = ?", id).Update("is_public", isPublic).Error
}

// UpdateSortOrders 批量更新排序，整体成功或整体失败
func (r *SubjectRepository) UpdateSortOrders(orders map[uint]int) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		for id, order := range orders {
			if err := tx.Model(&model.Subject{}).Where("id = ?", id).Update("sort_order", order).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SubjectRepository) Delete(id uint) error {
	return r.DB.Unscoped().Delete(&model.Subject{}, id).Error
}

func (r *SubjectRepository) Count() (int64, error) {
	var count int64
	err := r.DB.Model(&model.Subject{}).Count(&count).Error
	return count, err
}

func (r *SubjectRepository) CountPublic() (int64, error) {
	var count int64
	err := r.DB.Model(&model.Subject{}).Where("is_public = ?", true).Count(&count).Error
	return count, err
}

// RefreshTotalProblems 重新统计并持久化科目的题目数
func (r *SubjectRepository) RefreshTotalProblems(id uint) error {
	var count int64
	if err := r.DB.Model(&model.Problem{}).Where("subject_id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	return r.DB.Model(&model.Subject{}).Where("id = ?", id).Update("total_problems", count).Error
}
