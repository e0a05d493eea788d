// Package parser turns flow script text into an ast.Tree.
//
// The grammar is small enough for a hand-written lexer and a recursive
// descent parser. Parsing stops at the first error, which is always a
// *SyntaxError.
package parser

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/vk/fluxflow/internal/ast"
)

// Parse parses a complete script.
func Parse(filename string, src []byte) (*ast.Tree, error) {
	return ParseAt(filename, src, hcl.InitialPos)
}

// ParseAt parses src as if it started at pos inside filename. It is used for
// script fragments embedded in other files, so that reported locations point
// into the enclosing file.
func ParseAt(filename string, src []byte, pos hcl.Pos) (*ast.Tree, error) {
	p := &parser{
		lex:  newLexer(filename, src, pos),
		tree: ast.New(filename),
	}
	root, err := p.parseScript()
	if err != nil {
		return nil, err
	}
	p.tree.Root = root
	return p.tree, nil
}

type parser struct {
	lex  *lexer
	buf  []token
	tree *ast.Tree
}

func (p *parser) peek(n int) token {
	for len(p.buf) <= n {
		if len(p.buf) > 0 {
			last := p.buf[len(p.buf)-1].typ
			if last == tokEOF || last == tokError {
				return p.buf[len(p.buf)-1]
			}
		}
		tok, err := p.lex.next()
		if err != nil {
			tok = token{typ: tokError, err: err, rng: err.(*SyntaxError).Range}
		}
		p.buf = append(p.buf, tok)
	}
	return p.buf[n]
}

func (p *parser) next() token {
	tok := p.peek(0)
	if tok.typ != tokEOF && tok.typ != tokError {
		p.buf = p.buf[1:]
	}
	return tok
}

func (p *parser) unexpected(tok token, want string) error {
	if tok.typ == tokError {
		return tok.err
	}
	return &SyntaxError{Range: tok.rng, Message: "expected " + want + ", found " + tok.describe()}
}

func (p *parser) expect(typ tokenType) (token, error) {
	tok := p.next()
	if tok.typ != typ {
		return tok, p.unexpected(tok, typ.String())
	}
	return tok, nil
}

func (p *parser) skipNewlines() {
	for p.peek(0).typ == tokNewline {
		p.next()
	}
}

// pipeAhead reports whether the next non-newline token is a pipe, which
// continues the current pipeline across line breaks.
func (p *parser) pipeAhead() bool {
	for i := 0; ; i++ {
		switch p.peek(i).typ {
		case tokNewline:
			continue
		case tokPipe:
			return true
		default:
			return false
		}
	}
}

func (p *parser) add(kind ast.Kind, rng hcl.Range, value string, children ...ast.NodeID) ast.NodeID {
	return p.tree.Add(ast.Node{Kind: kind, Range: rng, Value: value, Children: children})
}

func (p *parser) rangeOf(id ast.NodeID) hcl.Range {
	return p.tree.Node(id).Range
}

func isSep(t tokenType) bool { return t == tokNewline || t == tokSemi }

func (p *parser) parseScript() (ast.NodeID, error) {
	start := p.peek(0).rng
	var stmts []ast.NodeID
	for {
		for isSep(p.peek(0).typ) {
			p.next()
		}
		if p.peek(0).typ == tokEOF {
			break
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return ast.NoNode, err
		}
		stmts = append(stmts, stmt)

		if tok := p.peek(0); !isSep(tok.typ) && tok.typ != tokEOF {
			return ast.NoNode, p.unexpected(tok, "';' or newline")
		}
	}
	end := p.peek(0).rng
	return p.add(ast.KindScript, hcl.RangeBetween(start, end), "", stmts...), nil
}

func (p *parser) parseStatement() (ast.NodeID, error) {
	t0, t1 := p.peek(0), p.peek(1)
	if t0.typ == tokIdent && t0.text == "default" && t1.typ == tokIdent && p.peek(2).typ == tokEquals {
		p.next()
		return p.parseAssignment(ast.KindDefaultAssign, t0.rng)
	}
	if t0.typ == tokIdent && t1.typ == tokEquals {
		return p.parseAssignment(ast.KindAssign, t0.rng)
	}
	return p.parsePipeline()
}

func (p *parser) parseAssignment(kind ast.Kind, start hcl.Range) (ast.NodeID, error) {
	name := p.next()
	p.next() // '='
	expr, err := p.parseExpr()
	if err != nil {
		return ast.NoNode, err
	}
	return p.add(kind, hcl.RangeBetween(start, p.rangeOf(expr)), name.text, expr), nil
}

func (p *parser) parsePipeline() (ast.NodeID, error) {
	var head ast.NodeID
	var err error
	switch tok := p.peek(0); tok.typ {
	case tokString:
		head, err = p.parseExpr()
	case tokIdent:
		head, err = p.parseCommand()
	default:
		return ast.NoNode, p.unexpected(tok, "string or component name")
	}
	if err != nil {
		return ast.NoNode, err
	}

	elems := []ast.NodeID{head}
	for p.pipeAhead() {
		p.skipNewlines()
		p.next() // '|'
		p.skipNewlines()
		el, err := p.parseElement()
		if err != nil {
			return ast.NoNode, err
		}
		elems = append(elems, el)
	}
	rng := hcl.RangeBetween(p.rangeOf(head), p.rangeOf(elems[len(elems)-1]))
	return p.add(ast.KindPipeline, rng, "", elems...), nil
}

func (p *parser) parseElement() (ast.NodeID, error) {
	switch tok := p.peek(0); tok.typ {
	case tokIdent:
		return p.parseCommand()
	case tokLBrace:
		return p.parseTee()
	default:
		return ast.NoNode, p.unexpected(tok, "component name or '{'")
	}
}

func (p *parser) parseTee() (ast.NodeID, error) {
	start := p.peek(0).rng
	var branches []ast.NodeID
	end := start
	for p.peek(0).typ == tokLBrace {
		branch, closing, err := p.parseBranch()
		if err != nil {
			return ast.NoNode, err
		}
		branches = append(branches, branch)
		end = closing
	}
	return p.add(ast.KindTee, hcl.RangeBetween(start, end), "", branches...), nil
}

// parseBranch reads one '{' ... '}' block. Newlines inside braces are
// insignificant.
func (p *parser) parseBranch() (ast.NodeID, hcl.Range, error) {
	open := p.next()
	p.skipNewlines()
	var elems []ast.NodeID
	for {
		el, err := p.parseElement()
		if err != nil {
			return ast.NoNode, hcl.Range{}, err
		}
		elems = append(elems, el)
		p.skipNewlines()
		if p.peek(0).typ != tokPipe {
			break
		}
		p.next()
		p.skipNewlines()
	}
	closing, err := p.expect(tokRBrace)
	if err != nil {
		return ast.NoNode, hcl.Range{}, p.unexpected(closing, "'|' or '}'")
	}
	return p.add(ast.KindPipeline, hcl.RangeBetween(open.rng, closing.rng), "", elems...), closing.rng, nil
}

func (p *parser) parseCommand() (ast.NodeID, error) {
	first := p.next()
	name, label := first, ""
	if p.peek(0).typ == tokColon {
		p.next()
		tok, err := p.expect(tokIdent)
		if err != nil {
			return ast.NoNode, p.unexpected(tok, "component name after label")
		}
		name, label = tok, first.text
	}
	rng := hcl.RangeBetween(first.rng, name.rng)

	var args []ast.NodeID
	if p.peek(0).typ == tokLParen {
		p.next()
		p.skipNewlines()
		for p.peek(0).typ != tokRParen {
			arg, err := p.parseArg()
			if err != nil {
				return ast.NoNode, err
			}
			args = append(args, arg)
			p.skipNewlines()
			if p.peek(0).typ != tokComma {
				break
			}
			p.next()
			p.skipNewlines()
		}
		closing := p.next()
		if closing.typ != tokRParen {
			return ast.NoNode, p.unexpected(closing, "',' or ')'")
		}
		rng = hcl.RangeBetween(rng, closing.rng)
	}

	return p.tree.Add(ast.Node{
		Kind:     ast.KindCommand,
		Range:    rng,
		Value:    name.text,
		Label:    label,
		Children: args,
	}), nil
}

func (p *parser) parseArg() (ast.NodeID, error) {
	if t0 := p.peek(0); t0.typ == tokIdent && p.peek(1).typ == tokEquals {
		p.next()
		p.next()
		p.skipNewlines()
		expr, err := p.parseExpr()
		if err != nil {
			return ast.NoNode, err
		}
		return p.add(ast.KindArg, hcl.RangeBetween(t0.rng, p.rangeOf(expr)), t0.text, expr), nil
	}
	expr, err := p.parseExpr()
	if err != nil {
		return ast.NoNode, err
	}
	return p.add(ast.KindArg, p.rangeOf(expr), "", expr), nil
}

// parseExpr reads primary { '+' primary } and flattens the result into a
// single literal, a single reference or one concatenation.
func (p *parser) parseExpr() (ast.NodeID, error) {
	var leaves []ast.NodeID
	start := p.peek(0).rng
	end := start
	for {
		tok := p.next()
		switch tok.typ {
		case tokString:
			leaves = append(leaves, p.stringLeaves(tok)...)
		case tokIdent:
			leaves = append(leaves, p.add(ast.KindVarRef, tok.rng, tok.text))
		default:
			return ast.NoNode, p.unexpected(tok, "string or variable name")
		}
		end = tok.rng
		if p.peek(0).typ != tokPlus {
			break
		}
		p.next()
	}
	if len(leaves) == 1 {
		return leaves[0], nil
	}
	return p.add(ast.KindConcat, hcl.RangeBetween(start, end), "", leaves...), nil
}

func (p *parser) stringLeaves(tok token) []ast.NodeID {
	if len(tok.parts) == 0 {
		return []ast.NodeID{p.add(ast.KindLiteral, tok.rng, "")}
	}
	if len(tok.parts) == 1 && !tok.parts[0].isRef {
		return []ast.NodeID{p.add(ast.KindLiteral, tok.rng, tok.parts[0].text)}
	}
	out := make([]ast.NodeID, 0, len(tok.parts))
	for _, part := range tok.parts {
		kind := ast.KindLiteral
		if part.isRef {
			kind = ast.KindVarRef
		}
		out = append(out, p.add(kind, part.rng, part.text))
	}
	return out
}
