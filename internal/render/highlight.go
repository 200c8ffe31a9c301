package render

import (
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenKind classifies a highlighted token.
type TokenKind int

const (
	TokenPlain TokenKind = iota
	TokenComment
	TokenString
	TokenKeyword
	TokenLiteral
	TokenNumber
	TokenFunction
	TokenProperty
	TokenType
	TokenOperator
	TokenPunctuation
	TokenTag
	TokenIdentifier
	TokenWhitespace
)

var tokenColors = map[TokenKind]string{
	TokenComment:     "#6A9955",
	TokenString:      "#CE9178",
	TokenKeyword:     "#C586C0",
	TokenLiteral:     "#569CD6",
	TokenNumber:      "#B5CEA8",
	TokenFunction:    "#DCDCAA",
	TokenProperty:    "#9CDCFE",
	TokenType:        "#4EC9B0",
	TokenOperator:    "#D4D4D4",
	TokenPunctuation: "#808080",
	TokenTag:         "#569CD6",
	TokenIdentifier:  "#9CDCFE",
}

// Token is a run of source text with one kind.
type Token struct {
	Kind TokenKind
	Text string
}

type rule struct {
	kind  TokenKind
	match func(line string, i int) int
}

var (
	reComment    = regexp.MustCompile(`^(?://.*|/\*.*?(?:\*/|$))`)
	reDouble     = regexp.MustCompile(`^"(?:[^"\\]|\\.)*"?`)
	reSingle     = regexp.MustCompile(`^'(?:[^'\\]|\\.)*'?`)
	reBacktick   = regexp.MustCompile("^`(?:[^`\\\\]|\\\\.)*`?")
	reKeyword    = regexp.MustCompile(`^(?:abstract|as|async|await|break|case|catch|class|const|continue|debugger|default|defer|delete|do|else|enum|export|extends|finally|for|from|func|function|go|if|implements|import|in|instanceof|interface|let|map|new|of|package|private|protected|public|range|readonly|return|select|static|struct|super|switch|this|throw|try|type|typeof|var|void|while|with|yield)\b`)
	reLiteral    = regexp.MustCompile(`^(?:true|false|null|undefined|nil|NaN|None|True|False)\b`)
	reNumber     = regexp.MustCompile(`^(?:0[xX][0-9a-fA-F_]+|0[bB][01_]+|\d[\d_]*(?:\.\d+)?(?:[eE][+-]?\d+)?n?)\b`)
	reIdent      = regexp.MustCompile(`^[A-Za-z_$][\w$]*`)
	reOperator   = regexp.MustCompile(`^(?:=>|===|!==|\.\.\.|==|!=|<=|>=|&&|\|\||\?\?|\?\.|\+\+|--|\+=|-=|\*=|/=|:=|[-+*/%=<>!&|^~?])`)
	rePunct      = regexp.MustCompile(`^[{}()\[\];,.:]`)
	reTag        = regexp.MustCompile(`^</?[A-Za-z][\w.-]*`)
	reWhitespace = regexp.MustCompile(`^\s+`)
)

// rules are tried in order at every offset; the first match wins.
var rules = []rule{
	{TokenComment, matchRegexp(reComment)},
	{TokenString, matchRegexp(reDouble)},
	{TokenString, matchRegexp(reSingle)},
	{TokenString, matchRegexp(reBacktick)},
	{TokenKeyword, matchRegexp(reKeyword)},
	{TokenLiteral, matchRegexp(reLiteral)},
	{TokenNumber, matchRegexp(reNumber)},
	{TokenFunction, matchFunctionCall},
	{TokenProperty, matchPropertyAccess},
	{TokenType, matchTypeAnnotation},
	{TokenOperator, matchOperator},
	{TokenPunctuation, matchRegexp(rePunct)},
	{TokenTag, matchRegexp(reTag)},
	{TokenIdentifier, matchRegexp(reIdent)},
	{TokenWhitespace, matchRegexp(reWhitespace)},
}

func matchRegexp(re *regexp.Regexp) func(string, int) int {
	return func(line string, i int) int {
		loc := re.FindStringIndex(line[i:])
		if loc == nil {
			return 0
		}
		return loc[1]
	}
}

// matchFunctionCall matches an identifier followed by optional spaces and "(".
func matchFunctionCall(line string, i int) int {
	n := matchRegexp(reIdent)(line, i)
	if n == 0 {
		return 0
	}
	rest := strings.TrimLeft(line[i+n:], " \t")
	if !strings.HasPrefix(rest, "(") {
		return 0
	}
	return n
}

func matchPropertyAccess(line string, i int) int {
	if i == 0 || line[i-1] != '.' {
		return 0
	}
	return matchRegexp(reIdent)(line, i)
}

// matchTypeAnnotation matches a capitalised identifier after a colon.
func matchTypeAnnotation(line string, i int) int {
	before := strings.TrimRight(line[:i], " \t")
	if !strings.HasSuffix(before, ":") {
		return 0
	}
	n := matchRegexp(reIdent)(line, i)
	if n == 0 {
		return 0
	}
	first, _ := utf8.DecodeRuneInString(line[i:])
	if !unicode.IsUpper(first) {
		return 0
	}
	return n
}

// matchOperator leaves "<" to the tag rule when it opens an element.
func matchOperator(line string, i int) int {
	if line[i] == '<' && reTag.MatchString(line[i:]) {
		return 0
	}
	return matchRegexp(reOperator)(line, i)
}

// Tokenize splits one line of source into classified tokens. Characters no
// rule matches become plain tokens.
func Tokenize(line string) []Token {
	var tokens []Token
	i := 0
	for i < len(line) {
		matched := false
		for _, r := range rules {
			if n := r.match(line, i); n > 0 {
				tokens = append(tokens, Token{Kind: r.kind, Text: line[i : i+n]})
				i += n
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		_, w := utf8.DecodeRuneInString(line[i:])
		if last := len(tokens) - 1; last >= 0 && tokens[last].Kind == TokenPlain {
			tokens[last].Text += line[i : i+w]
		} else {
			tokens = append(tokens, Token{Kind: TokenPlain, Text: line[i : i+w]})
		}
		i += w
	}
	return tokens
}

// Highlight renders code as escaped HTML with colored spans, line by line.
// It has no notion of language and never fails.
func Highlight(code string) string {
	lines := strings.Split(code, "\n")
	var b strings.Builder
	for li, line := range lines {
		if li > 0 {
			b.WriteString("\n")
		}
		for _, tok := range Tokenize(line) {
			color, ok := tokenColors[tok.Kind]
			if !ok {
				b.WriteString(html.EscapeString(tok.Text))
				continue
			}
			b.WriteString(`<span style="color:`)
			b.WriteString(color)
			b.WriteString(`">`)
			b.WriteString(html.EscapeString(tok.Text))
			b.WriteString("</span>")
		}
	}
	return b.String()
}
