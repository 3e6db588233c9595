package query

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/collection"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/internal/posting"
	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/tracing"
)

// DefaultSnippetLength is the display limit for snippets, in characters.
const DefaultSnippetLength = 100

// Hit is one matching document and the start of its line.
type Hit struct {
	DocID   posting.DocumentID `json:"doc_id"`
	Snippet string             `json:"snippet"`
}

// Result is an evaluated query with hits in ascending document order.
type Result struct {
	Query string   `json:"query"`
	Terms []string `json:"terms"`
	Hits  []Hit    `json:"hits"`
}

// Evaluator runs postfix queries. It keeps no per-query state, so one
// Evaluator may serve concurrent queries as long as its stores do.
type Evaluator struct {
	postings      posting.Store
	docs          collection.Store
	snippetLength int
	logger        *slog.Logger
}

type Option func(*Evaluator)

// WithSnippetLength overrides DefaultSnippetLength.
func WithSnippetLength(n int) Option {
	return func(e *Evaluator) {
		if n > 0 {
			e.snippetLength = n
		}
	}
}

func New(postings posting.Store, docs collection.Store, opts ...Option) *Evaluator {
	e := &Evaluator{
		postings:      postings,
		docs:          docs,
		snippetLength: DefaultSnippetLength,
		logger:        slog.Default().With("component", "query-evaluator"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate resolves q to its result set. Lookup failures come back as
// retrieval errors; a bad token sequence as *MalformedQueryError.
func (e *Evaluator) Evaluate(ctx context.Context, q string) (*posting.Set, error) {
	tokens := Tokenize(q)
	stack := make([]*posting.Set, 0, len(tokens))

	for i, tok := range tokens {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !IsOperator(tok) {
			_, span := tracing.StartChild(ctx, "lookup")
			span.Set("term", tok)
			set, err := e.postings.Lookup(ctx, tok)
			span.End()
			if err != nil {
				return nil, apperrors.Retrieval(fmt.Sprintf("looking up %q", tok), err)
			}
			span.Set("docs", set.Len())
			stack = append(stack, set)
			continue
		}

		if len(stack) < 2 {
			return nil, &MalformedQueryError{
				Query:    q,
				Position: i + 1,
				Token:    tok,
				Reason:   fmt.Sprintf("operator needs two operands, found %d", len(stack)),
			}
		}
		s1 := stack[len(stack)-1]
		s2 := stack[len(stack)-2]
		stack = stack[:len(stack)-2]

		var combined *posting.Set
		if tok == OpAnd {
			combined = posting.Intersect(s1, s2)
		} else {
			combined = posting.Union(s1, s2)
		}
		stack = append(stack, combined)
	}

	switch len(stack) {
	case 1:
		return stack[0], nil
	case 0:
		return nil, &MalformedQueryError{Query: q, Reason: "query has no terms"}
	default:
		return nil, &MalformedQueryError{
			Query:  q,
			Reason: fmt.Sprintf("%d operands left after the last token, missing operators", len(stack)),
		}
	}
}

// Run evaluates q and fetches a snippet for every matching document.
func (e *Evaluator) Run(ctx context.Context, q string) (*Result, error) {
	set, err := e.Evaluate(ctx, q)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Query: q,
		Terms: Terms(q),
		Hits:  make([]Hit, 0, set.Len()),
	}
	_, span := tracing.StartChild(ctx, "snippets")
	defer span.End()
	span.Set("docs", set.Len())
	for id := range set.All() {
		snippet, err := e.docs.Snippet(ctx, id, e.snippetLength)
		if err != nil {
			return nil, apperrors.Retrieval(fmt.Sprintf("fetching snippet of document %s", id), err)
		}
		res.Hits = append(res.Hits, Hit{DocID: id, Snippet: snippet})
	}

	e.logger.Debug("query evaluated",
		"run_id", logger.RunID(ctx),
		"query", q,
		"hits", len(res.Hits),
	)
	return res, nil
}
