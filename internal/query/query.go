// Package query evaluates flat postfix boolean queries such as
// "white red OR rose AND" against a posting store.
package query

import (
	"fmt"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/Boolean-Retrieval-Engine/pkg/errors"
)

// Operator tokens. Matching is case-sensitive: "and" is a term.
const (
	OpAnd = "AND"
	OpOr  = "OR"
)

// IsOperator reports whether tok is AND or OR.
func IsOperator(tok string) bool {
	return tok == OpAnd || tok == OpOr
}

// Tokenize splits a query on whitespace.
func Tokenize(q string) []string {
	return strings.Fields(q)
}

// Terms returns the non-operator tokens of q in order of appearance.
func Terms(q string) []string {
	terms := make([]string, 0)
	for _, tok := range Tokenize(q) {
		if !IsOperator(tok) {
			terms = append(terms, tok)
		}
	}
	return terms
}

// MalformedQueryError describes a query whose tokens do not form a valid
// postfix expression.
type MalformedQueryError struct {
	Query string
	// Position is the 1-based index of the offending token, or 0 when the
	// problem is the stack depth after the last token.
	Position int
	Token    string
	Reason   string
}

func (e *MalformedQueryError) Error() string {
	if e.Position > 0 {
		return fmt.Sprintf("%s %q: token %d (%s): %s", apperrors.ErrMalformedQuery, e.Query, e.Position, e.Token, e.Reason)
	}
	return fmt.Sprintf("%s %q: %s", apperrors.ErrMalformedQuery, e.Query, e.Reason)
}

func (e *MalformedQueryError) Unwrap() error {
	return apperrors.ErrMalformedQuery
}
