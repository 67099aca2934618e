package model

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestAnswerListUnmarshal(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantPresent bool
		want        []AnswerSubmission
	}{
		{
			name:        "bare labels align by position",
			body:        `{"answers": ["a", " D "]}`,
			wantPresent: true,
			want:        []AnswerSubmission{{QuestionID: 0, Answer: "A"}, {QuestionID: 1, Answer: "D"}},
		},
		{
			name:        "objects with questionId",
			body:        `{"answers": [{"questionId": 1, "answer": "b"}, {"questionId": "0", "answer": "c"}]}`,
			wantPresent: true,
			want:        []AnswerSubmission{{QuestionID: 1, Answer: "B"}, {QuestionID: 0, Answer: "C"}},
		},
		{
			name:        "id is accepted as an alias",
			body:        `{"answers": [{"id": 2, "answer": "a"}]}`,
			wantPresent: true,
			want:        []AnswerSubmission{{QuestionID: 2, Answer: "A"}},
		},
		{
			name:        "missing questionId defaults to zero",
			body:        `{"answers": [{"answer": "c"}]}`,
			wantPresent: true,
			want:        []AnswerSubmission{{QuestionID: 0, Answer: "C"}},
		},
		{
			name:        "single scalar becomes one answer",
			body:        `{"answers": "b"}`,
			wantPresent: true,
			want:        []AnswerSubmission{{QuestionID: 0, Answer: "B"}},
		},
		{
			name:        "single object",
			body:        `{"answers": {"questionId": 3, "answer": "d"}}`,
			wantPresent: true,
			want:        []AnswerSubmission{{QuestionID: 3, Answer: "D"}},
		},
		{
			name:        "non-numeric questionId is flagged",
			body:        `{"answers": [{"questionId": "abc", "answer": "a"}]}`,
			wantPresent: true,
			want:        []AnswerSubmission{{QuestionID: 0, Answer: "A", BadID: true}},
		},
		{
			name:        "empty array is present",
			body:        `{"answers": []}`,
			wantPresent: true,
			want:        []AnswerSubmission{},
		},
		{name: "null is absent", body: `{"answers": null}`},
		{name: "empty string is absent", body: `{"answers": ""}`},
		{name: "missing key is absent", body: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req CheckAnswersRequest
			if err := json.Unmarshal([]byte(tt.body), &req); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if req.Answers.Present != tt.wantPresent {
				t.Fatalf("Present = %v, want %v", req.Answers.Present, tt.wantPresent)
			}
			if !tt.wantPresent {
				return
			}
			if !reflect.DeepEqual(req.Answers.Items, tt.want) {
				t.Errorf("Items = %+v, want %+v", req.Answers.Items, tt.want)
			}
		})
	}
}

func TestQuizRefAcceptsStringOrNumber(t *testing.T) {
	var a, b, c CheckAnswersRequest
	_ = json.Unmarshal([]byte(`{"quizId": "0190f3a2-7c1e"}`), &a)
	_ = json.Unmarshal([]byte(`{"quizId": 1714550400000}`), &b)
	_ = json.Unmarshal([]byte(`{"quizId": null}`), &c)

	if a.QuizID != "0190f3a2-7c1e" {
		t.Errorf("string id = %q", a.QuizID)
	}
	if b.QuizID != "1714550400000" {
		t.Errorf("numeric id = %q", b.QuizID)
	}
	if c.QuizID != "" {
		t.Errorf("null id = %q", c.QuizID)
	}

	var zero, zeroStr CheckAnswersRequest
	_ = json.Unmarshal([]byte(`{"quizId": 0}`), &zero)
	_ = json.Unmarshal([]byte(`{"quizId": "0"}`), &zeroStr)
	if zero.QuizID != "" {
		t.Errorf("numeric zero id = %q, want empty", zero.QuizID)
	}
	if zeroStr.QuizID != "0" {
		t.Errorf("string zero id = %q, want \"0\"", zeroStr.QuizID)
	}
}
