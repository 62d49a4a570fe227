package bid

import "fmt"

// Parser is a Pratt-style precedence-climbing parser over a Lexer's token
// stream, producing a typed Bid AST.
type Parser struct {
	lex     *Lexer
	current Token
}

// Parse lexes and parses a complete "ON <cond> BID <value>" source string.
func Parse(src string) (*Bid, error) {
	lex := NewLexer(src)
	p := &Parser{lex: lex}
	if err := p.next(); err != nil {
		return nil, err
	}
	return p.parseBid()
}

func (p *Parser) next() error {
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.current = tok
	return nil
}

func tokenDescription(t Token) string {
	switch t.Type {
	case TokEndOfInput:
		return "end of input"
	case TokIdentifier:
		return fmt.Sprintf("identifier %q", t.Text)
	case TokOn:
		return "ON"
	case TokBid:
		return "BID"
	default:
		return fmt.Sprintf("token %q", t.Text)
	}
}

func (p *Parser) expect(tt TokenType, expected string) (Token, error) {
	if p.current.Type != tt {
		return Token{}, &ParseError{
			Kind:     UnexpectedToken,
			Found:    tokenDescription(p.current),
			Expected: expected,
			Pos:      p.current.Position,
		}
	}
	tok := p.current
	if err := p.next(); err != nil {
		return Token{}, err
	}
	return tok, nil
}

func (p *Parser) parseBid() (*Bid, error) {
	startPos := p.current.Position

	if p.current.Type != TokOn {
		return nil, &ParseError{Kind: MissingOnKeyword, Pos: startPos}
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	if p.current.Type == TokBid {
		return nil, &ParseError{Kind: EmptyExpression, Pos: p.current.Position}
	}

	cond, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}

	if p.current.Type != TokBid {
		return nil, &ParseError{Kind: MissingBidKeyword, Pos: p.current.Position}
	}
	if err := p.next(); err != nil {
		return nil, err
	}

	value, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}

	if p.current.Type != TokEndOfInput {
		return nil, &ParseError{
			Kind:     UnexpectedToken,
			Found:    tokenDescription(p.current),
			Expected: "end of input",
			Pos:      p.current.Position,
		}
	}

	return &Bid{OnCondition: cond, BidValue: value}, nil
}

// binaryOpFor maps a token type to a BinaryOp, or ok=false if tt is not a
// binary operator token.
func binaryOpFor(tt TokenType) (BinaryOp, bool) {
	switch tt {
	case TokPlus:
		return OpAdd, true
	case TokMinus:
		return OpSubtract, true
	case TokMultiply:
		return OpMultiply, true
	case TokDivide:
		return OpDivide, true
	case TokModulo:
		return OpModulo, true
	case TokPower:
		return OpPower, true
	case TokEqual:
		return OpEqual, true
	case TokNotEqual:
		return OpNotEqual, true
	case TokRegexMatch:
		return OpRegexMatch, true
	case TokLessThan:
		return OpLessThan, true
	case TokLessThanOrEqual:
		return OpLessThanOrEqual, true
	case TokGreaterThan:
		return OpGreaterThan, true
	case TokGreaterThanOrEqual:
		return OpGreaterThanOrEqual, true
	case TokLogicalAnd:
		return OpLogicalAnd, true
	case TokLogicalOr:
		return OpLogicalOr, true
	default:
		return 0, false
	}
}

// parseExpr implements precedence climbing: minPrec is the minimum
// precedence this call is willing to consume. Power is right-associative,
// everything else left-associative.
func (p *Parser) parseExpr(minPrec int) (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		op, ok := binaryOpFor(p.current.Type)
		if !ok {
			return left, nil
		}
		prec := op.precedence()
		if prec < minPrec {
			return left, nil
		}
		pos := p.current.Position
		if err := p.next(); err != nil {
			return nil, err
		}

		nextMin := prec + 1
		if op.rightAssociative() {
			nextMin = prec
		}
		right, err := p.parseExpr(nextMin)
		if err != nil {
			return nil, err
		}

		left = &Binary{Left: left, Op: op, Right: right, Pos: pos}
	}
}

func (p *Parser) parseUnary() (Expr, error) {
	pos := p.current.Position
	switch p.current.Type {
	case TokMinus:
		if err := p.next(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: OpNegate, Operand: operand, Pos: pos}, nil
	case TokLogicalNot:
		if err := p.next(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: OpLogicalNot, Operand: operand, Pos: pos}, nil
	case TokMultiply:
		if err := p.next(); err != nil {
			return nil, err
		}
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: OpDereference, Operand: operand, Pos: pos}, nil
	default:
		return p.parsePrimary()
	}
}

func (p *Parser) parsePrimary() (Expr, error) {
	pos := p.current.Position

	switch p.current.Type {
	case TokIntegerLiteral:
		v := p.current.Int
		if err := p.next(); err != nil {
			return nil, err
		}
		return &IntegerLiteral{Value: v, Pos: pos}, nil

	case TokFloatLiteral:
		v := p.current.Float
		if err := p.next(); err != nil {
			return nil, err
		}
		return &FloatLiteral{Value: v, Pos: pos}, nil

	case TokStringLiteral:
		v := p.current.Text
		if err := p.next(); err != nil {
			return nil, err
		}
		return &StringLiteral{Value: v, Pos: pos}, nil

	case TokBooleanLiteral:
		v := p.current.Bool
		if err := p.next(); err != nil {
			return nil, err
		}
		return &BooleanLiteral{Value: v, Pos: pos}, nil

	case TokIdentifier:
		path := []string{p.current.Text}
		if err := p.next(); err != nil {
			return nil, err
		}
		for p.current.Type == TokDot {
			if err := p.next(); err != nil {
				return nil, err
			}
			seg, err := p.expect(TokIdentifier, "identifier")
			if err != nil {
				return nil, err
			}
			path = append(path, seg.Text)
		}
		return &Variable{Path: path, Pos: pos}, nil

	case TokLeftParen:
		if err := p.next(); err != nil {
			return nil, err
		}
		inner, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRightParen, "')'"); err != nil {
			return nil, err
		}

		var expr Expr = inner
		for p.current.Type == TokDot {
			dotPos := p.current.Position
			if err := p.next(); err != nil {
				return nil, err
			}
			prop, err := p.expect(TokIdentifier, "identifier")
			if err != nil {
				return nil, err
			}
			expr = &MemberAccess{Object: expr, Property: prop.Text, Pos: dotPos}
		}
		return expr, nil

	case TokEndOfInput:
		return nil, &ParseError{Kind: EmptyExpression, Pos: pos}

	default:
		return nil, &ParseError{
			Kind:     UnexpectedToken,
			Found:    tokenDescription(p.current),
			Expected: "expression",
			Pos:      pos,
		}
	}
}
