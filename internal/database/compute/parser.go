package compute

import (
	"github.com/neekrasov/typedkv/internal/database/models"
	"github.com/neekrasov/typedkv/internal/database/types"
)

// Parser - recursive descent over a token stream, emitting one statement
// per command keyword. Semicolons are optional separators and are stripped
// between statements.
type Parser struct {
	tokens  []AnnotatedToken
	current int
}

// NewParser - builds a parser over tokens.
func NewParser(tokens []AnnotatedToken) *Parser {
	return &Parser{tokens: tokens}
}

// ParseQuery - tokenizes and parses a whole query.
func ParseQuery(query string) ([]Statement, error) {
	tokens, err := NewTokenizer(query).Tokenize()
	if err != nil {
		return nil, err
	}

	return NewParser(tokens).Parse()
}

// Parse - parses every statement in the stream.
func (p *Parser) Parse() ([]Statement, error) {
	var statements []Statement
	for {
		p.stripSemicolons()
		if p.isAtEnd() {
			return statements, nil
		}

		statement, err := p.nextStatement()
		if err != nil {
			return nil, err
		}

		statements = append(statements, statement)
	}
}

func (p *Parser) isAtEnd() bool {
	return p.current >= len(p.tokens)
}

// view - looks at the current token without consuming it.
func (p *Parser) view() AnnotatedToken {
	return p.tokens[p.current]
}

// advance - consumes the current token and returns it.
func (p *Parser) advance() AnnotatedToken {
	p.current++
	return p.tokens[p.current-1]
}

// atStatementEnd - reports whether the current statement has no more tokens.
func (p *Parser) atStatementEnd() bool {
	return p.isAtEnd() || p.view().Token.Kind == TokenSemicolon
}

// stripSemicolons - removes any run of semicolons at the current position.
// They may separate or terminate statements but carry no other meaning.
func (p *Parser) stripSemicolons() {
	for !p.isAtEnd() && p.view().Token.Kind == TokenSemicolon {
		p.advance()
	}
}

func (p *Parser) nextStatement() (Statement, error) {
	token := p.advance()
	switch token.Token.Kind {
	case TokenGet:
		return p.keyOnly(StatementGet)
	case TokenExists:
		return p.keyOnly(StatementExists)
	case TokenGetOrNone:
		return p.keyOnly(StatementGetIfExists)
	case TokenDelete:
		return p.keyOnly(StatementDelete)
	case TokenValueType:
		return p.keyOnly(StatementValueType)
	case TokenShutdown:
		return Statement{Kind: StatementShutdown}, nil
	case TokenSet:
		return p.setLike(StatementSet)
	case TokenSetIfNotExists:
		return p.setLike(StatementSetIfNotExists)
	case TokenUpdate:
		return p.setLike(StatementUpdate)
	case TokenLifetime:
		return p.updateLifetime()
	case TokenVectorGet:
		return p.vectorGet()
	case TokenVectorLength:
		return p.keyOnly(StatementVectorLength)
	case TokenVectorPop:
		return p.keyOnly(StatementVectorPop)
	case TokenVectorAppend:
		return p.vectorAppend()
	case TokenVectorSet:
		return p.vectorSet()
	case TokenMapGet:
		return p.mapKeyed(StatementMapGet)
	case TokenMapExists:
		return p.mapKeyed(StatementMapExists)
	case TokenMapDelete:
		return p.mapKeyed(StatementMapDelete)
	case TokenMapLength:
		return p.keyOnly(StatementMapLength)
	case TokenMapSet:
		return p.mapSet()
	}

	return Statement{}, models.ParseErrorf(
		"Cannot parse %s at position %d. Expected a command keyword", token.Lexeme, token.Position)
}

// expectIdentifier - consumes the next token, which must be an identifier;
// its text is the storage key.
func (p *Parser) expectIdentifier() (string, error) {
	if p.isAtEnd() {
		return "", models.ParseErrorf("Expected an identifier. Got end of query")
	}

	token := p.advance()
	if token.Token.Kind != TokenIdentifier {
		return "", models.ParseErrorf(
			"Expected an identifier. Got %s at %d", token.Lexeme, token.Position)
	}

	return token.Token.Text, nil
}

// keyOnly - parses statements of the form `<keyword> <key>`.
func (p *Parser) keyOnly(kind StatementKind) (Statement, error) {
	key, err := p.expectIdentifier()
	if err != nil {
		return Statement{}, err
	}

	return Statement{Kind: kind, Key: key}, nil
}

// setLike - parses `set`/`try_set`/`upd`: a key, an optional value
// (defaulting to null), and an optional lifetime in seconds.
func (p *Parser) setLike(kind StatementKind) (Statement, error) {
	key, err := p.expectIdentifier()
	if err != nil {
		return Statement{}, err
	}

	statement := Statement{Kind: kind, Key: key, Value: types.Null()}
	if p.atStatementEnd() {
		return statement, nil
	}

	value, err := p.parseValue()
	if err != nil {
		return Statement{}, err
	}
	statement.Value = value

	if p.atStatementEnd() {
		return statement, nil
	}

	lifetime, err := p.parseLifetime()
	if err != nil {
		return Statement{}, err
	}
	statement.Lifetime = lifetime
	statement.HasLifetime = true

	return statement, nil
}

// updateLifetime - parses `lt <key> [seconds]`; a missing lifetime clears
// the expiration.
func (p *Parser) updateLifetime() (Statement, error) {
	key, err := p.expectIdentifier()
	if err != nil {
		return Statement{}, err
	}

	statement := Statement{Kind: StatementUpdateLifetime, Key: key}
	if p.atStatementEnd() {
		return statement, nil
	}

	lifetime, err := p.parseLifetime()
	if err != nil {
		return Statement{}, err
	}
	statement.Lifetime = lifetime
	statement.HasLifetime = true

	return statement, nil
}

// parseLifetime - consumes a non-negative integer literal of seconds.
func (p *Parser) parseLifetime() (uint64, error) {
	if p.isAtEnd() {
		return 0, models.ParseErrorf("Expected a lifetime. Got end of query")
	}

	token := p.advance()
	if token.Token.Kind != TokenInteger || token.Token.Int < 0 {
		return 0, models.ParseErrorf(
			"Expected a non-negative lifetime. Got %s at %d", token.Lexeme, token.Position)
	}

	return uint64(token.Token.Int), nil
}

// parseValue - the value grammar after the key identifier: a leading
// scalar-type word introduces an empty vector, a map (second type word), or
// a vector literal (left bracket); anything else must be a scalar literal.
func (p *Parser) parseValue() (types.Value, error) {
	token := p.view()
	if scalar, ok := scalarTypeOf(token.Token.Kind); ok {
		p.advance()
		return p.parseTypedValue(scalar, token)
	}

	return p.parseScalarOrNone()
}

func (p *Parser) parseTypedValue(first types.ScalarType, firstToken AnnotatedToken) (types.Value, error) {
	if p.atStatementEnd() {
		return types.VectorValue(types.NewVector(first)), nil
	}

	next := p.view()
	if elem, ok := scalarTypeOf(next.Token.Kind); ok {
		p.advance()
		return p.parseMapValue(first, elem, firstToken)
	}

	if next.Token.Kind == TokenLeftBracket {
		p.advance()
		return p.parseVectorLiteral(first)
	}

	return types.Value{}, models.ParseErrorf(
		"Expected a type word, '[' or end of statement. Got %s at %d", next.Lexeme, next.Position)
}

func (p *Parser) parseMapValue(key, elem types.ScalarType, keyToken AnnotatedToken) (types.Value, error) {
	keyType, ok := keyTypeOf(key)
	if !ok {
		return types.Value{}, models.ParseErrorf(
			"Expected a map key type (int or str). Got %s at %d", keyToken.Lexeme, keyToken.Position)
	}

	m := types.NewMap(keyType, elem)
	if !p.atStatementEnd() && p.view().Token.Kind == TokenLeftCurly {
		p.advance()
		if err := p.parseMapLiteral(m); err != nil {
			return types.Value{}, err
		}
	}

	return types.MapValue(m), nil
}

// parseVectorLiteral - `[` (scalar `,`)* scalar? `]`, elements validated
// against the declared element type.
func (p *Parser) parseVectorLiteral(elem types.ScalarType) (types.Value, error) {
	vector := types.NewVector(elem)
	for {
		if p.isAtEnd() {
			return types.Value{}, models.ParseErrorf("Unterminated vector literal.")
		}
		if p.view().Token.Kind == TokenRightBracket {
			p.advance()
			return types.VectorValue(vector), nil
		}

		value, err := p.parseScalarLiteral()
		if err != nil {
			return types.Value{}, err
		}
		if err := vector.Push(value); err != nil {
			return types.Value{}, err
		}

		if p.isAtEnd() {
			return types.Value{}, models.ParseErrorf("Unterminated vector literal.")
		}
		if p.view().Token.Kind == TokenComma {
			p.advance()
			continue
		}
		if p.view().Token.Kind != TokenRightBracket {
			next := p.view()
			return types.Value{}, models.ParseErrorf(
				"Expected ',' or ']'. Got %s at %d", next.Lexeme, next.Position)
		}
	}
}

// parseMapLiteral - `{` (scalar `:` scalar `,`)* (scalar `:` scalar)? `}`,
// entries validated against the declared key and element types.
func (p *Parser) parseMapLiteral(m *types.Map) error {
	for {
		if p.isAtEnd() {
			return models.ParseErrorf("Unterminated map literal.")
		}
		if p.view().Token.Kind == TokenRightCurly {
			p.advance()
			return nil
		}

		key, err := p.parseScalarLiteral()
		if err != nil {
			return err
		}

		if p.isAtEnd() || p.view().Token.Kind != TokenColon {
			return models.ParseErrorf("Expected ':' after map key.")
		}
		p.advance()

		value, err := p.parseScalarLiteral()
		if err != nil {
			return err
		}
		if err := m.Set(key, value); err != nil {
			return err
		}

		if p.isAtEnd() {
			return models.ParseErrorf("Unterminated map literal.")
		}
		if p.view().Token.Kind == TokenComma {
			p.advance()
			continue
		}
		if p.view().Token.Kind != TokenRightCurly {
			next := p.view()
			return models.ParseErrorf(
				"Expected ',' or '}'. Got %s at %d", next.Lexeme, next.Position)
		}
	}
}

// parseScalarOrNone - a scalar literal or the `none` keyword.
func (p *Parser) parseScalarOrNone() (types.Value, error) {
	if !p.isAtEnd() && p.view().Token.Kind == TokenNone {
		p.advance()
		return types.Null(), nil
	}

	return p.parseScalarLiteral()
}

// parseScalarLiteral - consumes a bool, int, float or string literal.
func (p *Parser) parseScalarLiteral() (types.Value, error) {
	if p.isAtEnd() {
		return types.Value{}, models.ParseErrorf("Expected a value. Got end of query")
	}

	token := p.advance()
	switch token.Token.Kind {
	case TokenBool:
		return types.Bool(token.Token.Bool), nil
	case TokenInteger:
		return types.Int(token.Token.Int), nil
	case TokenFloat:
		return types.Float(token.Token.Float), nil
	case TokenString:
		return types.String(token.Token.Text), nil
	}

	return types.Value{}, models.ParseErrorf(
		"Expected a value. Got %s at %d", token.Lexeme, token.Position)
}

// parseMapKey - consumes an int or string literal addressing a map element.
func (p *Parser) parseMapKey() (types.Value, error) {
	if p.isAtEnd() {
		return types.Value{}, models.ParseErrorf("Expected a valid map key. Got end of query")
	}

	token := p.advance()
	switch token.Token.Kind {
	case TokenInteger:
		return types.Int(token.Token.Int), nil
	case TokenString:
		return types.String(token.Token.Text), nil
	}

	return types.Value{}, models.ParseErrorf(
		"Expected a valid map key. Got %s at %d", token.Lexeme, token.Position)
}

// parseIndex - consumes a non-negative integer vector index.
func (p *Parser) parseIndex() (int, error) {
	if p.isAtEnd() {
		return 0, models.ParseErrorf("Expected a valid vector index. Got end of query")
	}

	token := p.advance()
	if token.Token.Kind != TokenInteger || token.Token.Int < 0 {
		return 0, models.ParseErrorf(
			"Expected a valid vector index. Got %s at %d", token.Lexeme, token.Position)
	}

	return int(token.Token.Int), nil
}

// vectorGet - `vget <key> <index>`.
func (p *Parser) vectorGet() (Statement, error) {
	key, err := p.expectIdentifier()
	if err != nil {
		return Statement{}, err
	}

	index, err := p.parseIndex()
	if err != nil {
		return Statement{}, err
	}

	return Statement{Kind: StatementVectorGet, Key: key, Index: index}, nil
}

// vectorAppend - `vpush <key> <scalar>`.
func (p *Parser) vectorAppend() (Statement, error) {
	key, err := p.expectIdentifier()
	if err != nil {
		return Statement{}, err
	}

	value, err := p.parseScalarLiteral()
	if err != nil {
		return Statement{}, err
	}

	return Statement{Kind: StatementVectorAppend, Key: key, Value: value}, nil
}

// vectorSet - `vset <key> <index> <scalar>`.
func (p *Parser) vectorSet() (Statement, error) {
	key, err := p.expectIdentifier()
	if err != nil {
		return Statement{}, err
	}

	index, err := p.parseIndex()
	if err != nil {
		return Statement{}, err
	}

	value, err := p.parseScalarLiteral()
	if err != nil {
		return Statement{}, err
	}

	return Statement{Kind: StatementVectorSet, Key: key, Index: index, Value: value}, nil
}

// mapKeyed - `mget`/`mex`/`mdel`: a key and a map element key.
func (p *Parser) mapKeyed(kind StatementKind) (Statement, error) {
	key, err := p.expectIdentifier()
	if err != nil {
		return Statement{}, err
	}

	mapKey, err := p.parseMapKey()
	if err != nil {
		return Statement{}, err
	}

	return Statement{Kind: kind, Key: key, MapKey: mapKey}, nil
}

// mapSet - `mset <key> <map key> <scalar>`.
func (p *Parser) mapSet() (Statement, error) {
	key, err := p.expectIdentifier()
	if err != nil {
		return Statement{}, err
	}

	mapKey, err := p.parseMapKey()
	if err != nil {
		return Statement{}, err
	}

	value, err := p.parseScalarLiteral()
	if err != nil {
		return Statement{}, err
	}

	return Statement{Kind: StatementMapSet, Key: key, MapKey: mapKey, Value: value}, nil
}

// scalarTypeOf - maps a type-word token to its scalar type.
func scalarTypeOf(kind TokenKind) (types.ScalarType, bool) {
	switch kind {
	case TokenIntType:
		return types.ScalarInt, true
	case TokenFloatType:
		return types.ScalarFloat, true
	case TokenStringType:
		return types.ScalarString, true
	case TokenBoolType:
		return types.ScalarBool, true
	}

	return 0, false
}

// keyTypeOf - maps a scalar type to a map key type; floats and bools are
// not valid key types.
func keyTypeOf(scalar types.ScalarType) (types.KeyType, bool) {
	switch scalar {
	case types.ScalarInt:
		return types.KeyInt, true
	case types.ScalarString:
		return types.KeyString, true
	}

	return 0, false
}
