package model

// Subject 表示一个题库科目，题目按科目分组展示
// swagger:model Subject
type Subject struct {
	BaseModel
	Name          string `gorm:"size:255;uniqueIndex;not null" json:"name"`
	Description   string `gorm:"type:text" json:"description"`
	Category      string `gorm:"size:100" json:"category"`
	IsPublic      bool   `gorm:"default:true" json:"isPublic"`
	SortOrder     int    `gorm:"default:0" json:"sortOrder"`
	TotalProblems int    `gorm:"default:0" json:"totalProblems"` // 冗余计数，管理端增删题目时维护
}

func (Subject) TableName() string {
	return "subjects"
}
