package service

import (
	"coding_quiz_backend/internal/model"
	"coding_quiz_backend/internal/util"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveProblemDefaultsToFirst(t *testing.T) {
	db := newTestDB(t)
	subject := seedSubject(t, db, "javascript")
	problems := seedProblems(t, db, subject.ID, 3)
	svc := newProblemService(db)

	// 匿名访问，没有序号也没有进度
	resolved, err := svc.ResolveProblem("javascript", "", 0)
	require.NoError(t, err)
	assert.Equal(t, problems[0].ID, resolved.Problem.ID)
	assert.Equal(t, 1, resolved.ProblemNumber)
	assert.Equal(t, 3, resolved.TotalProblems)
	assert.Nil(t, resolved.UserProgress)
}

func TestResolveProblemExplicitOrdinalWins(t *testing.T) {
	db := newTestDB(t)
	subject := seedSubject(t, db, "javascript")
	problems := seedProblems(t, db, subject.ID, 3)
	user := seedUser(t, db, "a@test.com")
	setPointer(t, db, user.ID, subject.ID, &problems[2].ID)
	svc := newProblemService(db)

	// 显式题号优先于续做游标
	resolved, err := svc.ResolveProblem("javascript", "2", user.ID)
	require.NoError(t, err)
	assert.Equal(t, problems[1].ID, resolved.Problem.ID)
	assert.Equal(t, 2, resolved.ProblemNumber)
}

func TestResolveProblemClampsOrdinal(t *testing.T) {
	db := newTestDB(t)
	subject := seedSubject(t, db, "javascript")
	problems := seedProblems(t, db, subject.ID, 3)
	svc := newProblemService(db)

	resolved, err := svc.ResolveProblem("javascript", "99", 0)
	require.NoError(t, err)
	assert.Equal(t, problems[2].ID, resolved.Problem.ID)

	resolved, err = svc.ResolveProblem("javascript", "0", 0)
	require.NoError(t, err)
	assert.Equal(t, problems[0].ID, resolved.Problem.ID)
}

func TestResolveProblemResumeStaysOnUnansweredPointer(t *testing.T) {
	db := newTestDB(t)
	subject := seedSubject(t, db, "javascript")
	problems := seedProblems(t, db, subject.ID, 3)
	user := seedUser(t, db, "a@test.com")
	setPointer(t, db, user.ID, subject.ID, &problems[1].ID)
	svc := newProblemService(db)

	resolved, err := svc.ResolveProblem("javascript", "", user.ID)
	require.NoError(t, err)
	assert.Equal(t, problems[1].ID, resolved.Problem.ID)
}

func TestResolveProblemResumeAdvancesPastCorrectAnswer(t *testing.T) {
	db := newTestDB(t)
	subject := seedSubject(t, db, "javascript")
	problems := seedProblems(t, db, subject.ID, 3)
	user := seedUser(t, db, "a@test.com")
	setPointer(t, db, user.ID, subject.ID, &problems[1].ID)
	seedAttempt(t, db, user.ID, problems[1].ID, "A", true)
	svc := newProblemService(db)

	resolved, err := svc.ResolveProblem("javascript", "", user.ID)
	require.NoError(t, err)
	assert.Equal(t, problems[2].ID, resolved.Problem.ID)
}

func TestResolveProblemResumeStaysOnWrongAnswer(t *testing.T) {
	db := newTestDB(t)
	subject := seedSubject(t, db, "javascript")
	problems := seedProblems(t, db, subject.ID, 3)
	user := seedUser(t, db, "a@test.com")
	setPointer(t, db, user.ID, subject.ID, &problems[1].ID)
	seedAttempt(t, db, user.ID, problems[1].ID, "B", false)
	svc := newProblemService(db)

	// 答错的题不放行，继续停在原地
	resolved, err := svc.ResolveProblem("javascript", "", user.ID)
	require.NoError(t, err)
	assert.Equal(t, problems[1].ID, resolved.Problem.ID)
	require.NotNil(t, resolved.UserProgress)
	assert.Equal(t, "B", resolved.UserProgress.SelectedAnswer)
}

func TestResolveProblemResumeStopsAtLastProblem(t *testing.T) {
	db := newTestDB(t)
	subject := seedSubject(t, db, "javascript")
	problems := seedProblems(t, db, subject.ID, 3)
	user := seedUser(t, db, "a@test.com")
	setPointer(t, db, user.ID, subject.ID, &problems[2].ID)
	seedAttempt(t, db, user.ID, problems[2].ID, "A", true)
	svc := newProblemService(db)

	// 最后一题答对也不会越界
	resolved, err := svc.ResolveProblem("javascript", "", user.ID)
	require.NoError(t, err)
	assert.Equal(t, problems[2].ID, resolved.Problem.ID)
}

func TestResolveProblemRepairsDanglingPointer(t *testing.T) {
	db := newTestDB(t)
	subject := seedSubject(t, db, "javascript")
	problems := seedProblems(t, db, subject.ID, 3)
	user := seedUser(t, db, "a@test.com")

	ghost := uint(9999)
	setPointer(t, db, user.ID, subject.ID, &ghost)
	seedAttempt(t, db, user.ID, problems[0].ID, "A", true)
	svc := newProblemService(db)

	resolved, err := svc.ResolveProblem("javascript", "", user.ID)
	require.NoError(t, err)
	// 第一道未作答的题
	assert.Equal(t, problems[1].ID, resolved.Problem.ID)

	// 游标已回写修复
	var pointer model.UserSubjectProgress
	require.NoError(t, db.Where("user_id = ? AND subject_id = ?", user.ID, subject.ID).First(&pointer).Error)
	require.NotNil(t, pointer.LastProblemID)
	assert.Equal(t, problems[1].ID, *pointer.LastProblemID)
}

func TestResolveProblemUnknownSubject(t *testing.T) {
	db := newTestDB(t)
	svc := newProblemService(db)

	_, err := svc.ResolveProblem("nope", "", 0)
	assert.True(t, errors.Is(err, util.ErrSubjectNotFound))
}

func TestResolveProblemHiddenSubjectNotServed(t *testing.T) {
	db := newTestDB(t)
	subject := &model.Subject{Name: "secret", IsPublic: false}
	require.NoError(t, db.Create(subject).Error)
	seedProblems(t, db, subject.ID, 1)
	svc := newProblemService(db)

	_, err := svc.ResolveProblem("secret", "", 0)
	assert.True(t, errors.Is(err, util.ErrSubjectNotFound))
}

func TestSubmitAnswerCorrectPersistsAttemptAndPointer(t *testing.T) {
	db := newTestDB(t)
	subject := seedSubject(t, db, "javascript")
	problems := seedProblems(t, db, subject.ID, 3)
	user := seedUser(t, db, "a@test.com")
	svc := newProblemService(db)

	result, err := svc.SubmitAnswer(problems[0].ID, "1", user.ID)
	require.NoError(t, err)
	assert.True(t, result.IsCorrect)
	assert.Equal(t, "1", result.CorrectAnswer)

	var attempt model.UserProgress
	require.NoError(t, db.Where("user_id = ? AND problem_id = ?", user.ID, problems[0].ID).First(&attempt).Error)
	assert.Equal(t, "A", attempt.SelectedAnswer)
	assert.True(t, attempt.IsCorrect)

	var pointer model.UserSubjectProgress
	require.NoError(t, db.Where("user_id = ? AND subject_id = ?", user.ID, subject.ID).First(&pointer).Error)
	require.NotNil(t, pointer.LastProblemID)
	assert.Equal(t, problems[0].ID, *pointer.LastProblemID)
}

func TestSubmitAnswerWrongRecordsAttempt(t *testing.T) {
	db := newTestDB(t)
	subject := seedSubject(t, db, "javascript")
	problems := seedProblems(t, db, subject.ID, 1)
	user := seedUser(t, db, "a@test.com")
	svc := newProblemService(db)

	result, err := svc.SubmitAnswer(problems[0].ID, "b", user.ID)
	require.NoError(t, err)
	assert.False(t, result.IsCorrect)
	assert.Equal(t, "1", result.CorrectAnswer)

	var attempt model.UserProgress
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&attempt).Error)
	assert.Equal(t, "B", attempt.SelectedAnswer)
	assert.False(t, attempt.IsCorrect)
}

func TestSubmitAnswerResubmitOverwrites(t *testing.T) {
	db := newTestDB(t)
	subject := seedSubject(t, db, "javascript")
	problems := seedProblems(t, db, subject.ID, 1)
	user := seedUser(t, db, "a@test.com")
	svc := newProblemService(db)

	_, err := svc.SubmitAnswer(problems[0].ID, "2", user.ID)
	require.NoError(t, err)
	_, err = svc.SubmitAnswer(problems[0].ID, "1", user.ID)
	require.NoError(t, err)

	// 同一题只保留最近一次作答
	var count int64
	require.NoError(t, db.Model(&model.UserProgress{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var attempt model.UserProgress
	require.NoError(t, db.Where("user_id = ?", user.ID).First(&attempt).Error)
	assert.Equal(t, "A", attempt.SelectedAnswer)
	assert.True(t, attempt.IsCorrect)
}

func TestSubmitAnswerReturnsVerdictWhenPersistenceFails(t *testing.T) {
	db := newTestDB(t)
	subject := seedSubject(t, db, "javascript")
	problems := seedProblems(t, db, subject.ID, 1)
	user := seedUser(t, db, "a@test.com")
	svc := newProblemService(db)

	// 进度表写不进去时判定结果照常返回，不向答题方报错
	require.NoError(t, db.Migrator().DropTable(&model.UserSubjectProgress{}))

	result, err := svc.SubmitAnswer(problems[0].ID, "1", user.ID)
	require.NoError(t, err)
	assert.True(t, result.IsCorrect)
	assert.Equal(t, "1", result.CorrectAnswer)

	// 作答记录与游标同一事务，事务失败后作答记录也不能落库
	var count int64
	require.NoError(t, db.Model(&model.UserProgress{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestSubmitAnswerAnonymousEvaluatesWithoutWriting(t *testing.T) {
	db := newTestDB(t)
	subject := seedSubject(t, db, "javascript")
	problems := seedProblems(t, db, subject.ID, 1)
	svc := newProblemService(db)

	result, err := svc.SubmitAnswer(problems[0].ID, "1", 0)
	require.NoError(t, err)
	assert.True(t, result.IsCorrect)

	var count int64
	require.NoError(t, db.Model(&model.UserProgress{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
	require.NoError(t, db.Model(&model.UserSubjectProgress{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestSubmitAnswerRejectsUnknownToken(t *testing.T) {
	db := newTestDB(t)
	subject := seedSubject(t, db, "javascript")
	problems := seedProblems(t, db, subject.ID, 1)
	user := seedUser(t, db, "a@test.com")
	svc := newProblemService(db)

	_, err := svc.SubmitAnswer(problems[0].ID, "5", user.ID)
	assert.True(t, errors.Is(err, model.ErrUnrecognizedAnswer))

	// 非法提交不留痕
	var count int64
	require.NoError(t, db.Model(&model.UserProgress{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestSubmitAnswerUnknownProblem(t *testing.T) {
	db := newTestDB(t)
	svc := newProblemService(db)

	_, err := svc.SubmitAnswer(12345, "1", 0)
	assert.True(t, errors.Is(err, util.ErrProblemNotFound))
}

func TestSubmitWrongAnswerNeverWrites(t *testing.T) {
	db := newTestDB(t)
	subject := seedSubject(t, db, "javascript")
	problems := seedProblems(t, db, subject.ID, 1)
	seedUser(t, db, "a@test.com")
	svc := newProblemService(db)

	result, err := svc.SubmitWrongAnswer("javascript", problems[0].ID, "1")
	require.NoError(t, err)
	assert.True(t, result.IsCorrect)

	var count int64
	require.NoError(t, db.Model(&model.UserProgress{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
	require.NoError(t, db.Model(&model.UserSubjectProgress{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestSubmitWrongAnswerChecksSubjectMembership(t *testing.T) {
	db := newTestDB(t)
	seedSubject(t, db, "javascript")
	other := seedSubject(t, db, "python")
	problems := seedProblems(t, db, other.ID, 1)
	svc := newProblemService(db)

	// 题目属于别的科目
	_, err := svc.SubmitWrongAnswer("javascript", problems[0].ID, "1")
	assert.True(t, errors.Is(err, util.ErrProblemNotFound))
}

func TestSaveProgressUpdatesPointer(t *testing.T) {
	db := newTestDB(t)
	subject := seedSubject(t, db, "javascript")
	problems := seedProblems(t, db, subject.ID, 2)
	user := seedUser(t, db, "a@test.com")
	svc := newProblemService(db)

	svc.SaveProgress(user.ID, problems[1].ID)

	var pointer model.UserSubjectProgress
	require.NoError(t, db.Where("user_id = ? AND subject_id = ?", user.ID, subject.ID).First(&pointer).Error)
	require.NotNil(t, pointer.LastProblemID)
	assert.Equal(t, problems[1].ID, *pointer.LastProblemID)
}

func TestSubjectProgressSummary(t *testing.T) {
	db := newTestDB(t)
	subject := seedSubject(t, db, "javascript")
	problems := seedProblems(t, db, subject.ID, 4)
	user := seedUser(t, db, "a@test.com")
	seedAttempt(t, db, user.ID, problems[0].ID, "A", true)
	seedAttempt(t, db, user.ID, problems[1].ID, "B", false)
	seedAttempt(t, db, user.ID, problems[2].ID, "A", true)
	svc := newProblemService(db)

	_, summary, err := svc.SubjectProgress(user.ID, "javascript")
	require.NoError(t, err)
	assert.Equal(t, int64(4), summary.Total)
	assert.Equal(t, int64(3), summary.Answered)
	assert.Equal(t, int64(2), summary.Correct)
	assert.Equal(t, 67, summary.Accuracy)
	require.Len(t, summary.WrongProblems, 1)
	assert.Equal(t, problems[1].ID, summary.WrongProblems[0].ID)
	assert.Equal(t, "B", summary.WrongProblems[0].SelectedAnswer)
	assert.Equal(t, "1", summary.WrongProblems[0].CorrectAnswer)
}

func TestPlatformStatsWithoutRedis(t *testing.T) {
	db := newTestDB(t)
	subject := seedSubject(t, db, "javascript")
	seedProblems(t, db, subject.ID, 5)
	svc := newProblemService(db)

	stats, err := svc.GetPlatformStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(5), stats.TotalProblems)
	assert.Equal(t, int64(1), stats.TotalSubjects)
	require.NotNil(t, stats.LatestUpdate)
}
