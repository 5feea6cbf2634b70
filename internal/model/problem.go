package model

// Problem 表示一道四选一的编程题目
// 同一科目内题目按 ID 升序构成固定的出题顺序
// swagger:model Problem
type Problem struct {
	BaseModel
	SubjectID     uint   `gorm:"index;not null" json:"subjectId"`
	Content       string `gorm:"type:text;not null" json:"content"`
	OptionA       string `gorm:"type:text;not null" json:"option_a"`
	OptionB       string `gorm:"type:text;not null" json:"option_b"`
	OptionC       string `gorm:"type:text;not null" json:"option_c"`
	OptionD       string `gorm:"type:text;not null" json:"option_d"`
	CorrectAnswer string `gorm:"size:1;not null" json:"-"` // 存储字母 A-D
	Explanation   string `gorm:"type:text" json:"explanation,omitempty"`
	Difficulty    string `gorm:"size:50;default:'easy'" json:"difficulty"` // easy, medium, hard
}

func (Problem) TableName() string {
	return "problems"
}

var validDifficulties = map[string]bool{
	"easy":   true,
	"medium": true,
	"hard":   true,
}

func IsValidDifficulty(d string) bool {
	return validDifficulties[d]
}
