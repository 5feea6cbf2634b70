package model

import "time"

// UserProgress 记录用户对某道题目的最近一次作答
// 每个 (user_id, problem_id) 至多一行，重复提交覆盖旧答案
type UserProgress struct {
	BaseModel
	UserID         uint      `gorm:"uniqueIndex:idx_user_problem;not null" json:"userId"`
	ProblemID      uint      `gorm:"uniqueIndex:idx_user_problem;not null" json:"problemId"`
	SelectedAnswer string    `gorm:"size:1;not null" json:"selectedAnswer"` // 字母 A-D
	IsCorrect      bool      `gorm:"default:false" json:"isCorrect"`
	AnsweredAt     time.Time `json:"answeredAt"`
}

func (UserProgress) TableName() string {
	return "user_progress"
}

// UserSubjectProgress 是每个用户在每个科目下的续做游标
// 只记录"最后停留的题目"，不是作答日志；题目被删除时由管理端修复
type UserSubjectProgress struct {
	BaseModel
	UserID        uint  `gorm:"uniqueIndex:idx_user_subject;not null" json:"userId"`
	SubjectID     uint  `gorm:"uniqueIndex:idx_user_subject;not null" json:"subjectId"`
	LastProblemID *uint `json:"lastProblemId"`
}

func (UserSubjectProgress) TableName() string {
	return "user_subject_progress"
}
