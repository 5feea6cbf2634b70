package service

import (
	"coding_quiz_backend/internal/config"
	"coding_quiz_backend/internal/model"
	"coding_quiz_backend/internal/util"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func pointerOf(t *testing.T, db *gorm.DB, userID, subjectID uint) *model.UserSubjectProgress {
	t.Helper()
	var pointer model.UserSubjectProgress
	require.NoError(t, db.Where("user_id = ? AND subject_id = ?", userID, subjectID).First(&pointer).Error)
	return &pointer
}

func TestDeleteProblemRepairsPointerToFirstUnattempted(t *testing.T) {
	db := newTestDB(t)
	subject := seedSubject(t, db, "javascript")
	problems := seedProblems(t, db, subject.ID, 4)
	user := seedUser(t, db, "a@test.com")

	// 用户做过第 1 题，停在第 2 题，管理员删掉第 2 题
	seedAttempt(t, db, user.ID, problems[0].ID, "A", true)
	setPointer(t, db, user.ID, subject.ID, &problems[1].ID)
	svc := newAdminService(db)

	require.NoError(t, svc.DeleteProblem(context.Background(), problems[1].ID))

	pointer := pointerOf(t, db, user.ID, subject.ID)
	require.NotNil(t, pointer.LastProblemID)
	assert.Equal(t, problems[2].ID, *pointer.LastProblemID)

	// 被删题目的作答记录一并清理
	var count int64
	require.NoError(t, db.Model(&model.UserProgress{}).Where("problem_id = ?", problems[1].ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestDeleteProblemAllAttemptedFallsBackToLast(t *testing.T) {
	db := newTestDB(t)
	subject := seedSubject(t, db, "javascript")
	problems := seedProblems(t, db, subject.ID, 3)
	user := seedUser(t, db, "a@test.com")

	seedAttempt(t, db, user.ID, problems[0].ID, "A", true)
	seedAttempt(t, db, user.ID, problems[1].ID, "A", true)
	seedAttempt(t, db, user.ID, problems[2].ID, "B", false)
	setPointer(t, db, user.ID, subject.ID, &problems[1].ID)
	svc := newAdminService(db)

	require.NoError(t, svc.DeleteProblem(context.Background(), problems[1].ID))

	pointer := pointerOf(t, db, user.ID, subject.ID)
	require.NotNil(t, pointer.LastProblemID)
	assert.Equal(t, problems[2].ID, *pointer.LastProblemID)
}

func TestDeleteLastProblemClearsPointer(t *testing.T) {
	db := newTestDB(t)
	subject := seedSubject(t, db, "javascript")
	problems := seedProblems(t, db, subject.ID, 1)
	user := seedUser(t, db, "a@test.com")
	setPointer(t, db, user.ID, subject.ID, &problems[0].ID)
	svc := newAdminService(db)

	require.NoError(t, svc.DeleteProblem(context.Background(), problems[0].ID))

	pointer := pointerOf(t, db, user.ID, subject.ID)
	assert.Nil(t, pointer.LastProblemID)
}

func TestDeleteProblemLeavesUnrelatedPointersAlone(t *testing.T) {
	db := newTestDB(t)
	subject := seedSubject(t, db, "javascript")
	problems := seedProblems(t, db, subject.ID, 3)
	user := seedUser(t, db, "a@test.com")
	other := seedUser(t, db, "b@test.com")

	setPointer(t, db, user.ID, subject.ID, &problems[1].ID)
	setPointer(t, db, other.ID, subject.ID, &problems[2].ID)
	svc := newAdminService(db)

	require.NoError(t, svc.DeleteProblem(context.Background(), problems[1].ID))

	// 没指向被删题目的用户不受影响
	pointer := pointerOf(t, db, other.ID, subject.ID)
	require.NotNil(t, pointer.LastProblemID)
	assert.Equal(t, problems[2].ID, *pointer.LastProblemID)
}

func TestDeleteProblemRefreshesSubjectCount(t *testing.T) {
	db := newTestDB(t)
	subject := seedSubject(t, db, "javascript")
	problems := seedProblems(t, db, subject.ID, 3)
	svc := newAdminService(db)

	require.NoError(t, svc.DeleteProblem(context.Background(), problems[0].ID))

	var refreshed model.Subject
	require.NoError(t, db.First(&refreshed, subject.ID).Error)
	assert.Equal(t, 2, refreshed.TotalProblems)
}

func TestDeleteProblemRollsBackOnFailure(t *testing.T) {
	db := newTestDB(t)
	subject := seedSubject(t, db, "javascript")
	problems := seedProblems(t, db, subject.ID, 3)
	user := seedUser(t, db, "a@test.com")
	seedAttempt(t, db, user.ID, problems[1].ID, "B", false)
	setPointer(t, db, user.ID, subject.ID, &problems[1].ID)
	svc := newAdminService(db)

	// 让事务最后一步的科目计数刷新失败，前面的删除必须整体回滚
	require.NoError(t, db.Migrator().DropTable(&model.Subject{}))

	err := svc.DeleteProblem(context.Background(), problems[1].ID)
	require.Error(t, err)

	var problem model.Problem
	require.NoError(t, db.First(&problem, problems[1].ID).Error)

	var attempts int64
	require.NoError(t, db.Model(&model.UserProgress{}).Where("problem_id = ?", problems[1].ID).Count(&attempts).Error)
	assert.Equal(t, int64(1), attempts)

	pointer := pointerOf(t, db, user.ID, subject.ID)
	require.NotNil(t, pointer.LastProblemID)
	assert.Equal(t, problems[1].ID, *pointer.LastProblemID)
}

func TestDeleteProblemNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := newAdminService(db)

	err := svc.DeleteProblem(context.Background(), 777)
	assert.True(t, errors.Is(err, util.ErrProblemNotFound))
}

func TestCreateProblemNormalizesAnswer(t *testing.T) {
	db := newTestDB(t)
	subject := seedSubject(t, db, "javascript")
	svc := newAdminService(db)

	problem, err := svc.CreateProblem(context.Background(), &ProblemInput{
		SubjectID:     subject.ID,
		Content:       "q",
		OptionA:       "a",
		OptionB:       "b",
		OptionC:       "c",
		OptionD:       "d",
		CorrectAnswer: "3",
	})
	require.NoError(t, err)
	assert.Equal(t, "C", problem.CorrectAnswer)
	assert.Equal(t, "medium", problem.Difficulty)

	var refreshed model.Subject
	require.NoError(t, db.First(&refreshed, subject.ID).Error)
	assert.Equal(t, 1, refreshed.TotalProblems)
}

func TestAdminProblemResponsesCarryCorrectAnswer(t *testing.T) {
	db := newTestDB(t)
	subject := seedSubject(t, db, "javascript")
	seedProblems(t, db, subject.ID, 1)
	svc := newAdminService(db)

	created, err := svc.CreateProblem(context.Background(), &ProblemInput{
		SubjectID:     subject.ID,
		Content:       "q",
		OptionA:       "a",
		OptionB:       "b",
		OptionC:       "c",
		OptionD:       "d",
		CorrectAnswer: "2",
	})
	require.NoError(t, err)

	// 题目模型对外隐藏答案，管理端响应必须重新带上
	data, err := json.Marshal(created)
	require.NoError(t, err)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "B", body["correct_answer"])

	rows, err := svc.ListProblems()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	data, err = json.Marshal(rows[0])
	require.NoError(t, err)
	body = nil
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "A", body["correct_answer"])
}

func TestCreateProblemRejectsBadAnswer(t *testing.T) {
	db := newTestDB(t)
	subject := seedSubject(t, db, "javascript")
	svc := newAdminService(db)

	_, err := svc.CreateProblem(context.Background(), &ProblemInput{
		SubjectID:     subject.ID,
		Content:       "q",
		OptionA:       "a",
		OptionB:       "b",
		OptionC:       "c",
		OptionD:       "d",
		CorrectAnswer: "7",
	})
	assert.True(t, errors.Is(err, model.ErrUnrecognizedAnswer))
}

func TestUpdateSubjectKeepsSortOrder(t *testing.T) {
	db := newTestDB(t)
	subject := seedSubject(t, db, "javascript")
	svc := newAdminService(db)
	require.NoError(t, svc.ReorderSubjects(map[uint]int{subject.ID: 5}))

	updated, err := svc.UpdateSubject(subject.ID, &SubjectInput{Name: "javascript", Category: "frontend"})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.SortOrder)

	var refreshed model.Subject
	require.NoError(t, db.First(&refreshed, subject.ID).Error)
	assert.Equal(t, 5, refreshed.SortOrder)
}

func TestDeleteSubjectRefusedWhileNotEmpty(t *testing.T) {
	db := newTestDB(t)
	subject := seedSubject(t, db, "javascript")
	seedProblems(t, db, subject.ID, 1)
	svc := newAdminService(db)

	err := svc.DeleteSubject(subject.ID)
	assert.True(t, errors.Is(err, util.ErrSubjectNotEmpty))
}

func TestDeleteEmptySubject(t *testing.T) {
	db := newTestDB(t)
	subject := seedSubject(t, db, "javascript")
	svc := newAdminService(db)

	require.NoError(t, svc.DeleteSubject(subject.ID))

	var count int64
	require.NoError(t, db.Model(&model.Subject{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestExportDataWritesJSON(t *testing.T) {
	db := newTestDB(t)
	subject := seedSubject(t, db, "javascript")
	seedProblems(t, db, subject.ID, 2)

	dir := t.TempDir()
	svc := newAdminService(db)
	svc.Storage = &LocalStorageProvider{Config: &config.StorageConfig{LocalPath: dir}}

	objectName, err := svc.ExportData(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, objectName))
	require.NoError(t, err)

	var payload struct {
		Subjects []model.Subject   `json:"subjects"`
		Problems []json.RawMessage `json:"problems"`
	}
	require.NoError(t, json.Unmarshal(data, &payload))
	assert.Len(t, payload.Subjects, 1)
	assert.Len(t, payload.Problems, 2)

	// 导出文件必须带正确答案
	var first map[string]interface{}
	require.NoError(t, json.Unmarshal(payload.Problems[0], &first))
	assert.Equal(t, "A", first["correct_answer"])
}
