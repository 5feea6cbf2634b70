package service

import (
	"coding_quiz_backend/internal/model"
)

// 续做位置计算的纯函数部分，方便脱离数据库做单元测试

// clampIndex 把索引收敛到 [0, n-1]
func clampIndex(index, n int) int {
	if index >= n {
		return n - 1
	}
	if index < 0 {
		return 0
	}
	return index
}

// indexOfProblem 返回题目在序列中的下标，不存在时返回 -1
func indexOfProblem(problems []model.Problem, problemID uint) int {
	for i, p := range problems {
		if p.ID == problemID {
			return i
		}
	}
	return -1
}

// firstUnattempted 返回序列中第一道未作答题目的下标
// 全部作答过时返回 (0, false)
func firstUnattempted(problems []model.Problem, attempted map[uint]bool) (int, bool) {
	for i, p := range problems {
		if !attempted[p.ID] {
			return i, true
		}
	}
	return 0, false
}

// problemIDs 提取序列中的题目 ID
func problemIDs(problems []model.Problem) []uint {
	ids := make([]uint, 0, len(problems))
	for _, p := range problems {
		ids = append(ids, p.ID)
	}
	return ids
}
