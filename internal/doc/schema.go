package doc

import (
	"errors"
	"fmt"
	"strings"
)

// Node types.
const (
	TypeDoc            = "doc"
	TypeParagraph      = "paragraph"
	TypeHeading        = "heading"
	TypeBlockquote     = "blockquote"
	TypeBulletList     = "bulletList"
	TypeOrderedList    = "orderedList"
	TypeListItem       = "listItem"
	TypeTaskList       = "taskList"
	TypeTaskItem       = "taskItem"
	TypeCodeBlock      = "codeBlock"
	TypeImage          = "image"
	TypeHorizontalRule = "horizontalRule"
	TypeTable          = "table"
	TypeTableRow       = "tableRow"
	TypeTableCell      = "tableCell"
	TypeTableHeader    = "tableHeader"
	TypeYoutube        = "youtube"
	TypeLinkPreview    = "linkPreview"
	TypeText           = "text"
	TypeHardBreak      = "hardBreak"
)

// Mark types.
const (
	MarkBold        = "bold"
	MarkItalic      = "italic"
	MarkUnderline   = "underline"
	MarkStrike      = "strike"
	MarkSubscript   = "subscript"
	MarkSuperscript = "superscript"
	MarkTextStyle   = "textStyle"
	MarkCode        = "code"
	MarkLink        = "link"
	MarkHighlight   = "highlight"
)

var (
	ErrNotDocument    = errors.New("not a document")
	ErrInvalidContent = errors.New("invalid content")
	ErrInvalidAttrs   = errors.New("invalid attributes")
	ErrUnknownType    = errors.New("unknown node type")
)

// ValidationError locates a grammar violation inside a tree.
type ValidationError struct {
	Path string
	Err  error
	Msg  string
}

func (e *ValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", e.Err, e.Msg)
	}
	return fmt.Sprintf("%s at %s: %s", e.Err, e.Path, e.Msg)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

type group int

const (
	groupNone group = iota
	groupBlock
	groupInline
)

type contentRule struct {
	allow   func(typ string) bool
	min     int
	inline  bool
	noMarks bool
}

type nodeType struct {
	group   group
	atom    bool
	content contentRule
	attrs   func(Node) error
}

var (
	blockContent = contentRule{allow: inGroup(groupBlock)}
	blockPlus    = contentRule{allow: inGroup(groupBlock), min: 1}
	inlineStar   = contentRule{allow: inGroup(groupInline), inline: true}
)

var nodeTypes map[string]nodeType

func init() {
	nodeTypes = map[string]nodeType{
		TypeDoc:            {content: blockContent},
		TypeParagraph:      {group: groupBlock, content: inlineStar, attrs: checkAlign},
		TypeHeading:        {group: groupBlock, content: inlineStar, attrs: checkHeading},
		TypeBlockquote:     {group: groupBlock, content: blockPlus, attrs: checkAlign},
		TypeBulletList:     {group: groupBlock, content: only(1, TypeListItem)},
		TypeOrderedList:    {group: groupBlock, content: only(1, TypeListItem), attrs: checkOrderedList},
		TypeListItem:       {content: blockPlus},
		TypeTaskList:       {group: groupBlock, content: only(1, TypeTaskItem)},
		TypeTaskItem:       {content: blockPlus, attrs: checkTaskItem},
		TypeCodeBlock:      {group: groupBlock, content: contentRule{allow: is(TypeText), inline: true, noMarks: true}, attrs: checkCodeBlock},
		TypeImage:          {group: groupBlock, atom: true, attrs: checkImage},
		TypeHorizontalRule: {group: groupBlock, atom: true},
		TypeTable:          {group: groupBlock, content: only(1, TypeTableRow)},
		TypeTableRow:       {content: only(1, TypeTableCell, TypeTableHeader)},
		TypeTableCell:      {content: blockPlus, attrs: checkCell},
		TypeTableHeader:    {content: blockPlus, attrs: checkCell},
		TypeYoutube:        {group: groupBlock, atom: true, attrs: optionalStrings("src")},
		TypeLinkPreview:    {group: groupBlock, atom: true, attrs: optionalStrings("url")},
		TypeText:           {group: groupInline},
		TypeHardBreak:      {group: groupInline, atom: true},
	}
}

var knownMarks = map[string]bool{
	MarkBold: true, MarkItalic: true, MarkUnderline: true, MarkStrike: true,
	MarkSubscript: true, MarkSuperscript: true, MarkTextStyle: true, MarkCode: true,
	MarkLink: true, MarkHighlight: true,
}

var alignments = map[string]bool{"left": true, "center": true, "right": true, "justify": true}

func inGroup(g group) func(string) bool {
	return func(typ string) bool {
		nt, ok := nodeTypes[typ]
		return ok && nt.group == g
	}
}

func is(types ...string) func(string) bool {
	return func(typ string) bool {
		for _, t := range types {
			if t == typ {
				return true
			}
		}
		return false
	}
}

func only(min int, types ...string) contentRule {
	return contentRule{allow: is(types...), min: min}
}

// Known reports whether typ is part of the grammar.
func Known(typ string) bool {
	_, ok := nodeTypes[typ]
	return ok
}

// IsBlock reports whether typ may appear where block content is expected.
func IsBlock(typ string) bool {
	return inGroup(groupBlock)(typ)
}

// Allows reports whether a node of type child may appear directly inside parent.
func Allows(parent, child string) bool {
	nt, ok := nodeTypes[parent]
	if !ok || nt.content.allow == nil {
		return false
	}
	return nt.content.allow(child)
}

// Validate checks a whole document against the grammar.
func Validate(n Node) error {
	if n.Type != TypeDoc {
		return &ValidationError{Err: ErrNotDocument, Msg: fmt.Sprintf("root type is %q", n.Type)}
	}
	return validateNode(n, "")
}

// ValidateNode checks a subtree that is not necessarily a document.
func ValidateNode(n Node) error {
	return validateNode(n, "")
}

func validateNode(n Node, path string) error {
	nt, ok := nodeTypes[n.Type]
	if !ok {
		return &ValidationError{Path: path, Err: ErrUnknownType, Msg: fmt.Sprintf("%q", n.Type)}
	}
	if n.IsText() {
		if n.Text == "" {
			return &ValidationError{Path: path, Err: ErrInvalidContent, Msg: "empty text node"}
		}
		if len(n.Content) > 0 {
			return &ValidationError{Path: path, Err: ErrInvalidContent, Msg: "text node with children"}
		}
		for _, m := range n.Marks {
			if err := validateMark(m); err != nil {
				return &ValidationError{Path: path, Err: ErrInvalidAttrs, Msg: err.Error()}
			}
		}
		return nil
	}
	if len(n.Marks) > 0 {
		return &ValidationError{Path: path, Err: ErrInvalidContent, Msg: fmt.Sprintf("marks on %s", n.Type)}
	}
	if n.Text != "" {
		return &ValidationError{Path: path, Err: ErrInvalidContent, Msg: fmt.Sprintf("text on %s", n.Type)}
	}
	if nt.attrs != nil {
		if err := nt.attrs(n); err != nil {
			return &ValidationError{Path: path, Err: ErrInvalidAttrs, Msg: err.Error()}
		}
	}
	if nt.atom {
		if len(n.Content) > 0 {
			return &ValidationError{Path: path, Err: ErrInvalidContent, Msg: fmt.Sprintf("%s cannot have children", n.Type)}
		}
		return nil
	}
	if err := checkContent(n.Type, n.Content); err != nil {
		return &ValidationError{Path: path, Err: ErrInvalidContent, Msg: err.Error()}
	}
	for i, child := range n.Content {
		if err := validateNode(child, childPath(path, i)); err != nil {
			return err
		}
	}
	return nil
}

// checkContent applies the parent's content rule to a child list without
// descending into the children.
func checkContent(parent string, children []Node) error {
	nt, ok := nodeTypes[parent]
	if !ok {
		return fmt.Errorf("unknown parent %q", parent)
	}
	if nt.atom {
		if len(children) > 0 {
			return fmt.Errorf("%s cannot have children", parent)
		}
		return nil
	}
	for _, child := range children {
		if !nt.content.allow(child.Type) {
			return fmt.Errorf("%s not allowed in %s", child.Type, parent)
		}
		if nt.content.noMarks && len(child.Marks) > 0 {
			return fmt.Errorf("marks not allowed in %s", parent)
		}
	}
	if len(children) < nt.content.min {
		return fmt.Errorf("%s requires at least %d child", parent, nt.content.min)
	}
	return nil
}

func childPath(path string, i int) string {
	if path == "" {
		return fmt.Sprintf("content[%d]", i)
	}
	return fmt.Sprintf("%s.content[%d]", path, i)
}

func validateMark(m Mark) error {
	if !knownMarks[m.Type] {
		return fmt.Errorf("unknown mark %q", m.Type)
	}
	if m.Type == MarkLink {
		if strings.TrimSpace(m.AttrString("href")) == "" {
			return errors.New("link mark requires href")
		}
	}
	return nil
}

func checkAlign(n Node) error {
	v, ok := n.Attrs["textAlign"]
	if !ok || v == nil {
		return nil
	}
	s, isString := v.(string)
	if !isString || !alignments[s] {
		return fmt.Errorf("textAlign %v", v)
	}
	return nil
}

func checkHeading(n Node) error {
	level, ok := attrInt(n.Attrs, "level")
	if !ok || level < 1 || level > 3 {
		return fmt.Errorf("heading level %v", n.Attr("level"))
	}
	return checkAlign(n)
}

func checkOrderedList(n Node) error {
	v, ok := n.Attrs["start"]
	if !ok || v == nil {
		return nil
	}
	if start, isInt := attrInt(n.Attrs, "start"); !isInt || start < 0 {
		return fmt.Errorf("start %v", v)
	}
	return nil
}

func checkTaskItem(n Node) error {
	v, ok := n.Attrs["checked"]
	if !ok || v == nil {
		return nil
	}
	if _, isBool := v.(bool); !isBool {
		return fmt.Errorf("checked %v", v)
	}
	return nil
}

func checkCodeBlock(n Node) error {
	return optionalStrings("language", "filename")(n)
}

func checkImage(n Node) error {
	if strings.TrimSpace(n.AttrString("src")) == "" {
		return errors.New("image requires src")
	}
	return optionalStrings("alt", "title")(n)
}

func checkCell(n Node) error {
	for _, key := range []string{"colspan", "rowspan"} {
		v, ok := n.Attrs[key]
		if !ok || v == nil {
			continue
		}
		if span, isInt := attrInt(n.Attrs, key); !isInt || span < 1 {
			return fmt.Errorf("%s %v", key, v)
		}
	}
	return nil
}

func optionalStrings(keys ...string) func(Node) error {
	return func(n Node) error {
		for _, key := range keys {
			v, ok := n.Attrs[key]
			if !ok || v == nil {
				continue
			}
			if _, isString := v.(string); !isString {
				return fmt.Errorf("%s must be a string", key)
			}
		}
		return nil
	}
}
