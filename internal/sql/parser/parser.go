package parser

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/cabewaldrop/rowdb/internal/table"
)

// commandGrammar splits a line into a keyword and its arguments.
type commandGrammar struct {
	Keyword string   `parser:"@Word"`
	Args    []string `parser:"@Word*"`
}

// commandLexer splits on whitespace only; arguments may contain any other
// character, including punctuation such as '@'.
var commandLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Word", Pattern: `\S+`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var commandParser = participle.MustBuild[commandGrammar](
	participle.Lexer(commandLexer),
	participle.Elide("Whitespace"),
)

// Prepare parses and validates one line of input.
func Prepare(input string) (Statement, error) {
	if strings.TrimSpace(input) == "" {
		return nil, &PrepareError{Kind: UnrecognizedStatement, Input: input}
	}

	cmd, err := commandParser.ParseString("", input)
	if err != nil {
		return nil, &PrepareError{Kind: SyntaxError, Input: input}
	}

	switch cmd.Keyword {
	case "insert":
		return prepareInsert(input, cmd.Args)
	case "select":
		// Trailing words after select are ignored.
		return &SelectStatement{}, nil
	default:
		return nil, &PrepareError{Kind: UnrecognizedStatement, Input: input}
	}
}

func prepareInsert(input string, args []string) (Statement, error) {
	if len(args) != 3 {
		return nil, &PrepareError{Kind: SyntaxError, Input: input}
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) && strings.HasPrefix(args[0], "-") {
			return nil, &PrepareError{Kind: NegativeID, Input: input}
		}
		return nil, &PrepareError{Kind: SyntaxError, Input: input}
	}

	stmt, err := NewInsert(id, args[1], args[2])
	var pe *PrepareError
	if errors.As(err, &pe) {
		pe.Input = input
		return nil, pe
	}
	if err != nil {
		return nil, err
	}
	return stmt, nil
}

// NewInsert validates the fields of a row and builds an insert statement.
// Validation order: id sign and range, then username length, then email length.
func NewInsert(id int64, username, email string) (*InsertStatement, error) {
	input := fmt.Sprintf("insert %d %s %s", id, username, email)
	if id < 0 {
		return nil, &PrepareError{Kind: NegativeID, Input: input}
	}
	if id > math.MaxUint32 {
		return nil, &PrepareError{Kind: SyntaxError, Input: input}
	}
	if len(username) > table.UsernameSize || len(email) > table.EmailSize {
		return nil, &PrepareError{Kind: StringTooLong, Input: input}
	}

	return &InsertStatement{
		Row: table.NewRow(uint32(id), username, email),
	}, nil
}
