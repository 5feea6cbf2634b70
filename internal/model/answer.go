package model

import (
	"errors"
	"strings"
)

// 前端用 1-4 表示选项，数据库存储字母 A-D
// 两张映射表必须互为逆映射
var (
	displayToLetter = map[string]string{"1": "A", "2": "B", "3": "C", "4": "D"}
	letterToDisplay = map[string]string{"A": "1", "B": "2", "C": "3", "D": "4"}
)

var ErrUnrecognizedAnswer = errors.New("unrecognized answer token")

// NormalizeAnswer 把提交的答案统一成存储用的字母 A-D
// 接受 "1"-"4" 或不区分大小写的 "a"-"d"，其余 token 视为非法
func NormalizeAnswer(raw string) (string, error) {
	token := strings.ToUpper(strings.TrimSpace(raw))
	if letter, ok := displayToLetter[token]; ok {
		return letter, nil
	}
	if _, ok := letterToDisplay[token]; ok {
		return token, nil
	}
	return "", ErrUnrecognizedAnswer
}

// DisplayAnswer 把存储字母转回展示用的 "1"-"4"
// 遇到历史脏数据时原样返回，不让展示路径报错
func DisplayAnswer(letter string) string {
	if display, ok := letterToDisplay[strings.ToUpper(letter)]; ok {
		return display
	}
	return letter
}
