package service

import (
	"coding_quiz_backend/internal/model"
	"testing"
)

func makeProblems(ids ...uint) []model.Problem {
	problems := make([]model.Problem, 0, len(ids))
	for _, id := range ids {
		p := model.Problem{}
		p.ID = id
		problems = append(problems, p)
	}
	return problems
}

func TestClampIndex(t *testing.T) {
	cases := []struct {
		index, n, want int
	}{
		{0, 5, 0},
		{4, 5, 4},
		{5, 5, 4},
		{100, 5, 4},
		{-1, 5, 0},
		{-100, 5, 0},
		{0, 1, 0},
	}
	for _, c := range cases {
		if got := clampIndex(c.index, c.n); got != c.want {
			t.Fatalf("clampIndex(%d, %d) = %d, want %d", c.index, c.n, got, c.want)
		}
	}
}

func TestIndexOfProblem(t *testing.T) {
	problems := makeProblems(10, 20, 30)
	if got := indexOfProblem(problems, 20); got != 1 {
		t.Fatalf("indexOfProblem = %d, want 1", got)
	}
	if got := indexOfProblem(problems, 99); got != -1 {
		t.Fatalf("indexOfProblem for missing id = %d, want -1", got)
	}
	if got := indexOfProblem(nil, 10); got != -1 {
		t.Fatalf("indexOfProblem on empty slice = %d, want -1", got)
	}
}

func TestFirstUnattempted(t *testing.T) {
	problems := makeProblems(10, 20, 30)

	index, found := firstUnattempted(problems, map[uint]bool{})
	if !found || index != 0 {
		t.Fatalf("no attempts: got (%d, %v), want (0, true)", index, found)
	}

	index, found = firstUnattempted(problems, map[uint]bool{10: true})
	if !found || index != 1 {
		t.Fatalf("first attempted: got (%d, %v), want (1, true)", index, found)
	}

	// 中间有空洞时取最靠前的未作答
	index, found = firstUnattempted(problems, map[uint]bool{10: true, 30: true})
	if !found || index != 1 {
		t.Fatalf("gap in attempts: got (%d, %v), want (1, true)", index, found)
	}

	_, found = firstUnattempted(problems, map[uint]bool{10: true, 20: true, 30: true})
	if found {
		t.Fatalf("all attempted: found = true, want false")
	}
}

func TestProblemIDs(t *testing.T) {
	ids := problemIDs(makeProblems(3, 1, 2))
	if len(ids) != 3 || ids[0] != 3 || ids[1] != 1 || ids[2] != 2 {
		t.Fatalf("problemIDs = %v, want [3 1 2]", ids)
	}
}
