package helloworld

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bsv-blockchain/go-sdk/transaction"
)

// ErrInvalidQuery marks query parameter validation failures.
var ErrInvalidQuery = errors.New("invalid query")

// SortOrder orders query results by indexing time.
type SortOrder string

const (
	SortAscending  SortOrder = "asc"
	SortDescending SortOrder = "desc"
)

// QueryParams filters a token query. Limit is required; everything else is
// optional. StartDate and EndDate are calendar dates (YYYY-MM-DD) expanded
// to inclusive full-day UTC bounds. A blank or whitespace-only Message is
// treated as absent. IncludeBeef attaches each token's proof bundle to the
// result, which is required if the caller intends to spend it.
type QueryParams struct {
	Limit       int
	Skip        int
	SortOrder   SortOrder
	Message     string
	StartDate   string
	EndDate     string
	IncludeBeef bool
	Timeout     time.Duration
}

// tokenQuery is the wire shape sent to the lookup service.
type tokenQuery struct {
	Limit     int    `json:"limit"`
	Skip      int    `json:"skip"`
	SortOrder string `json:"sortOrder"`
	Message   string `json:"message,omitempty"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

const calendarDate = "2006-01-02"

// buildQuery validates params and expands them into the wire query.
func buildQuery(p QueryParams) (*tokenQuery, error) {
	if p.Limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", ErrInvalidQuery)
	}
	if p.Skip < 0 {
		return nil, fmt.Errorf("%w: negative skip", ErrInvalidQuery)
	}
	order := p.SortOrder
	if order == "" {
		order = SortDescending
	}
	if order != SortAscending && order != SortDescending {
		return nil, fmt.Errorf("%w: bad sort order %q", ErrInvalidQuery, order)
	}

	q := &tokenQuery{
		Limit:     p.Limit,
		Skip:      p.Skip,
		SortOrder: string(order),
		Message:   strings.TrimSpace(p.Message),
	}
	if p.StartDate != "" {
		day, err := time.Parse(calendarDate, p.StartDate)
		if err != nil {
			return nil, fmt.Errorf("%w: bad startDate: %s", ErrInvalidQuery, err)
		}
		q.StartDate = day.UTC().Format("2006-01-02T15:04:05.000Z")
	}
	if p.EndDate != "" {
		day, err := time.Parse(calendarDate, p.EndDate)
		if err != nil {
			return nil, fmt.Errorf("%w: bad endDate: %s", ErrInvalidQuery, err)
		}
		endOfDay := day.UTC().Add(24*time.Hour - time.Millisecond)
		q.EndDate = endOfDay.Format("2006-01-02T15:04:05.000Z")
	}
	return q, nil
}

// Query asks the token lookup service for matching outputs and decodes them
// into tokens. An answer that is not an output list, or an empty one, is an
// empty result, not an error. Resolver failures and timeouts propagate.
func (c *Client) Query(ctx context.Context, params QueryParams) ([]*Token, error) {
	q, err := buildQuery(params)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	timeout := params.Timeout
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	answer, err := c.Resolver.Query(ctx, &LookupQuestion{
		Service: LookupService,
		Query:   raw,
	}, timeout)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return DecodeAnswer(answer, params.IncludeBeef)
}

// FindByMessage is an exact-message search: newest first, at most
// DefaultFindLimit results.
func (c *Client) FindByMessage(ctx context.Context, message string) ([]*Token, error) {
	return c.Query(ctx, QueryParams{
		Limit:     DefaultFindLimit,
		SortOrder: SortDescending,
		Message:   message,
	})
}

// DecodeAnswer turns an output-list answer into tokens. Each output's BEEF
// is parsed, the referenced output located, and the push-drop message
// decoded. The proof bundle is attached only when includeBeef is set.
func DecodeAnswer(answer *LookupAnswer, includeBeef bool) ([]*Token, error) {
	tokens := []*Token{}
	if answer == nil || answer.Type != AnswerTypeOutputList {
		return tokens, nil
	}
	for _, item := range answer.Outputs {
		token, err := decodeOutputListItem(item, includeBeef)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	return tokens, nil
}

func decodeOutputListItem(item *OutputListItem, includeBeef bool) (*Token, error) {
	tx, err := transaction.NewTransactionFromBEEF(item.Beef)
	if err != nil {
		return nil, fmt.Errorf("decode output: bad beef: %w", err)
	}
	if int(item.OutputIndex) >= len(tx.Outputs) {
		return nil, fmt.Errorf("decode output: index %d out of range for %s", item.OutputIndex, tx.TxID())
	}
	out := tx.Outputs[item.OutputIndex]

	fields, err := DecodePushDrop(out.LockingScript)
	if err != nil {
		return nil, fmt.Errorf("decode output %s:%d: %w", tx.TxID(), item.OutputIndex, err)
	}

	token := &Token{
		Message: fields.Message(),
		Outpoint: transaction.Outpoint{
			Txid:  *tx.TxID(),
			Index: item.OutputIndex,
		},
		LockingScript: out.LockingScript,
		Satoshis:      out.Satoshis,
	}
	if includeBeef {
		token.Beef = item.Beef
	}
	return token, nil
}
