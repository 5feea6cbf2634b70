package model

import (
	"errors"
	"testing"
)

func TestNormalizeAnswerDigits(t *testing.T) {
	cases := map[string]string{"1": "A", "2": "B", "3": "C", "4": "D"}
	for raw, want := range cases {
		got, err := NormalizeAnswer(raw)
		if err != nil {
			t.Fatalf("NormalizeAnswer(%q) returned error: %v", raw, err)
		}
		if got != want {
			t.Fatalf("NormalizeAnswer(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestNormalizeAnswerLetters(t *testing.T) {
	cases := map[string]string{"a": "A", "B": "B", " c ": "C", "d": "D"}
	for raw, want := range cases {
		got, err := NormalizeAnswer(raw)
		if err != nil {
			t.Fatalf("NormalizeAnswer(%q) returned error: %v", raw, err)
		}
		if got != want {
			t.Fatalf("NormalizeAnswer(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestNormalizeAnswerRejectsUnknownTokens(t *testing.T) {
	for _, raw := range []string{"", "0", "5", "e", "AB", "10", "正确", "true"} {
		if _, err := NormalizeAnswer(raw); !errors.Is(err, ErrUnrecognizedAnswer) {
			t.Fatalf("NormalizeAnswer(%q) error = %v, want ErrUnrecognizedAnswer", raw, err)
		}
	}
}

func TestDisplayAnswer(t *testing.T) {
	cases := map[string]string{"A": "1", "B": "2", "C": "3", "D": "4", "b": "2"}
	for letter, want := range cases {
		if got := DisplayAnswer(letter); got != want {
			t.Fatalf("DisplayAnswer(%q) = %q, want %q", letter, got, want)
		}
	}
}

func TestDisplayAnswerPassesThroughDirtyData(t *testing.T) {
	// 历史脏数据不应让展示路径崩溃
	if got := DisplayAnswer("X"); got != "X" {
		t.Fatalf("DisplayAnswer(\"X\") = %q, want passthrough", got)
	}
}

func TestAnswerMappingsAreInverse(t *testing.T) {
	for display, letter := range displayToLetter {
		if letterToDisplay[letter] != display {
			t.Fatalf("mapping mismatch: %q -> %q -> %q", display, letter, letterToDisplay[letter])
		}
	}
}
