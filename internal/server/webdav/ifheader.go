package webdav

import (
	"strings"
)

// If header grammar, RFC 4918 section 10.4:
//
//	If           = "If" ":" ( 1*No-tag-list | 1*Tagged-list )
//	No-tag-list  = List
//	Tagged-list  = Resource-Tag 1*List
//	List         = "(" 1*Condition ")"
//	Condition    = ["Not"] (State-token | "[" entity-tag "]")
//	State-token  = Coded-URL
//	Coded-URL    = "<" absolute-URI ">"
//
// The header is a disjunction of conjunctive lists: it holds if every
// condition of at least one list holds against that list's resource.

type ifHeader struct {
	lists []ifList
}

type ifList struct {
	resourceTag string // "" means the request URI
	conditions  []ifCondition
}

// Exactly one of token or etag is set.
type ifCondition struct {
	not   bool
	token string
	etag  string
}

// tokens returns every state token the header mentions, which is the
// set the client counts as submitted for lock purposes.
func (h ifHeader) tokens() []string {
	var out []string
	for _, l := range h.lists {
		for _, c := range l.conditions {
			if c.token != "" {
				out = append(out, c.token)
			}
		}
	}
	return out
}

// parseIfHeader parses the full header value. ok is false on any
// syntax violation.
func parseIfHeader(s string) (h ifHeader, ok bool) {
	tok := &ifTokenizer{rest: s}

	first, ok := tok.peek()
	if !ok || first.kind == tokenEOF {
		return ifHeader{}, false
	}

	if first.kind == tokenAngle {
		// Tagged-lists.
		for {
			t, ok := tok.peek()
			if !ok {
				return ifHeader{}, false
			}
			if t.kind == tokenEOF {
				break
			}
			if t.kind != tokenAngle {
				return ifHeader{}, false
			}
			tok.next()
			lists, ok := parseLists(tok, t.value)
			if !ok || len(lists) == 0 {
				return ifHeader{}, false
			}
			h.lists = append(h.lists, lists...)
		}
	} else {
		// No-tag-lists.
		lists, ok := parseLists(tok, "")
		if !ok || len(lists) == 0 {
			return ifHeader{}, false
		}
		t, _ := tok.peek()
		if t.kind != tokenEOF {
			return ifHeader{}, false
		}
		h.lists = lists
	}
	return h, true
}

// parseLists consumes consecutive parenthesized lists, stopping before
// the next resource tag or end of input.
func parseLists(tok *ifTokenizer, resourceTag string) ([]ifList, bool) {
	var lists []ifList
	for {
		t, ok := tok.peek()
		if !ok {
			return nil, false
		}
		if t.kind != tokenLParen {
			return lists, true
		}
		tok.next()

		list := ifList{resourceTag: resourceTag}
		for {
			c, ok := tok.peek()
			if !ok {
				return nil, false
			}
			if c.kind == tokenRParen {
				tok.next()
				break
			}
			cond, ok := parseCondition(tok)
			if !ok {
				return nil, false
			}
			list.conditions = append(list.conditions, cond)
		}
		if len(list.conditions) == 0 {
			return nil, false
		}
		lists = append(lists, list)
	}
}

func parseCondition(tok *ifTokenizer) (ifCondition, bool) {
	var cond ifCondition

	t, ok := tok.next()
	if !ok {
		return cond, false
	}
	if t.kind == tokenNot {
		cond.not = true
		t, ok = tok.next()
		if !ok {
			return cond, false
		}
	}
	switch t.kind {
	case tokenAngle:
		cond.token = t.value
	case tokenSquare:
		cond.etag = t.value
	default:
		return cond, false
	}
	return cond, true
}

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenLParen
	tokenRParen
	tokenNot
	tokenAngle  // <...>, value without brackets
	tokenSquare // [...], value without brackets
	tokenError
)

type ifToken struct {
	kind  tokenKind
	value string
}

type ifTokenizer struct {
	rest   string
	peeked *ifToken
}

func (t *ifTokenizer) peek() (ifToken, bool) {
	if t.peeked == nil {
		tok := t.scan()
		if tok.kind == tokenError {
			return tok, false
		}
		t.peeked = &tok
	}
	return *t.peeked, true
}

func (t *ifTokenizer) next() (ifToken, bool) {
	tok, ok := t.peek()
	t.peeked = nil
	return tok, ok
}

func (t *ifTokenizer) scan() ifToken {
	t.rest = strings.TrimLeft(t.rest, " \t")
	if t.rest == "" {
		return ifToken{kind: tokenEOF}
	}
	switch t.rest[0] {
	case '(':
		t.rest = t.rest[1:]
		return ifToken{kind: tokenLParen}
	case ')':
		t.rest = t.rest[1:]
		return ifToken{kind: tokenRParen}
	case '<':
		end := strings.IndexByte(t.rest, '>')
		if end < 0 {
			return ifToken{kind: tokenError}
		}
		value := t.rest[1:end]
		t.rest = t.rest[end+1:]
		return ifToken{kind: tokenAngle, value: value}
	case '[':
		end := strings.IndexByte(t.rest, ']')
		if end < 0 {
			return ifToken{kind: tokenError}
		}
		value := t.rest[1:end]
		t.rest = t.rest[end+1:]
		return ifToken{kind: tokenSquare, value: value}
	}
	if len(t.rest) >= 3 && strings.EqualFold(t.rest[:3], "Not") {
		t.rest = t.rest[3:]
		return ifToken{kind: tokenNot}
	}
	return ifToken{kind: tokenError}
}
