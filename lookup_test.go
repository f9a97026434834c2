package helloworld

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestBuildQueryDateExpansion(t *testing.T) {
	q, err := buildQuery(QueryParams{
		Limit:     5,
		StartDate: "2024-01-01",
		EndDate:   "2024-01-01",
	})
	if err != nil {
		t.Fatalf("buildQuery: %v", err)
	}
	if q.StartDate != "2024-01-01T00:00:00.000Z" {
		t.Fatalf("StartDate = %q", q.StartDate)
	}
	if q.EndDate != "2024-01-01T23:59:59.999Z" {
		t.Fatalf("EndDate = %q", q.EndDate)
	}
}

func TestBuildQueryDefaults(t *testing.T) {
	q, err := buildQuery(QueryParams{Limit: 1})
	if err != nil {
		t.Fatalf("buildQuery: %v", err)
	}
	if q.SortOrder != "desc" {
		t.Fatalf("SortOrder = %q, want desc", q.SortOrder)
	}
	if q.Skip != 0 {
		t.Fatalf("Skip = %d", q.Skip)
	}
}

func TestBuildQueryValidation(t *testing.T) {
	bad := []QueryParams{
		{Limit: 0},
		{Limit: -1},
		{Limit: 1, Skip: -1},
		{Limit: 1, SortOrder: "sideways"},
		{Limit: 1, StartDate: "01/01/2024"},
		{Limit: 1, EndDate: "not-a-date"},
	}
	for i, p := range bad {
		if _, err := buildQuery(p); !errors.Is(err, ErrInvalidQuery) {
			t.Fatalf("case %d: err = %v, want ErrInvalidQuery", i, err)
		}
	}
}

func TestBuildQueryBlankMessageOmitted(t *testing.T) {
	for _, msg := range []string{"", "   ", "\t\n"} {
		q, err := buildQuery(QueryParams{Limit: 1, Message: msg})
		if err != nil {
			t.Fatalf("buildQuery(%q): %v", msg, err)
		}
		raw, err := json.Marshal(q)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var decoded map[string]any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if _, present := decoded["message"]; present {
			t.Fatalf("message key present for filter %q: %s", msg, raw)
		}
	}
}

func TestBuildQueryTrimsMessage(t *testing.T) {
	q, err := buildQuery(QueryParams{Limit: 1, Message: "  hello  "})
	if err != nil {
		t.Fatalf("buildQuery: %v", err)
	}
	if q.Message != "hello" {
		t.Fatalf("Message = %q", q.Message)
	}
}

func TestDecodeAnswerNonOutputList(t *testing.T) {
	cases := []*LookupAnswer{
		nil,
		{Type: AnswerTypeFreeform},
		{Type: "something-else"},
		{Type: AnswerTypeOutputList}, // empty list
	}
	for i, answer := range cases {
		tokens, err := DecodeAnswer(answer, false)
		if err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
		if len(tokens) != 0 {
			t.Fatalf("case %d: got %d tokens, want 0", i, len(tokens))
		}
		if tokens == nil {
			t.Fatalf("case %d: want empty slice, not nil", i)
		}
	}
}

func TestDecodeAnswerBadBeef(t *testing.T) {
	answer := &LookupAnswer{
		Type:    AnswerTypeOutputList,
		Outputs: []*OutputListItem{{Beef: []byte{0xde, 0xad}, OutputIndex: 0}},
	}
	if _, err := DecodeAnswer(answer, false); err == nil {
		t.Fatal("expected error for malformed beef")
	}
}

// recordingResolver captures the question and returns a canned answer.
type recordingResolver struct {
	question *LookupQuestion
	timeout  time.Duration
	answer   *LookupAnswer
	err      error
}

func (r *recordingResolver) Query(ctx context.Context, q *LookupQuestion, timeout time.Duration) (*LookupAnswer, error) {
	r.question = q
	r.timeout = timeout
	return r.answer, r.err
}

func TestFindByMessageQueryShape(t *testing.T) {
	resolver := &recordingResolver{answer: &LookupAnswer{Type: AnswerTypeFreeform}}
	client := &Client{Resolver: resolver}

	tokens, err := client.FindByMessage(context.Background(), "Hello")
	if err != nil {
		t.Fatalf("FindByMessage: %v", err)
	}
	if len(tokens) != 0 {
		t.Fatalf("got %d tokens", len(tokens))
	}

	if resolver.question.Service != LookupService {
		t.Fatalf("Service = %q", resolver.question.Service)
	}
	if resolver.timeout != DefaultLookupTimeout {
		t.Fatalf("timeout = %v", resolver.timeout)
	}
	var q map[string]any
	if err := json.Unmarshal(resolver.question.Query, &q); err != nil {
		t.Fatalf("unmarshal query: %v", err)
	}
	if q["limit"] != float64(DefaultFindLimit) {
		t.Fatalf("limit = %v, want %d", q["limit"], DefaultFindLimit)
	}
	if q["sortOrder"] != "desc" {
		t.Fatalf("sortOrder = %v", q["sortOrder"])
	}
	if q["message"] != "Hello" {
		t.Fatalf("message = %v", q["message"])
	}
}

func TestQueryResolverFailurePropagates(t *testing.T) {
	resolver := &recordingResolver{err: errors.New("lookup host down")}
	client := &Client{Resolver: resolver}

	if _, err := client.Query(context.Background(), QueryParams{Limit: 1}); err == nil {
		t.Fatal("expected resolver error to propagate")
	}
}
