package editor

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"folio/api/internal/doc"
)

var (
	ErrEmptyURL   = errors.New("url is empty")
	ErrNotPreview = errors.New("node is not a link preview")
	ErrDetached   = errors.New("link preview was replaced")
)

var bareURLPattern = regexp.MustCompile(`^https?://\S+$`)

// PreviewState is the mode of a link-preview node.
type PreviewState int

const (
	PreviewEditing PreviewState = iota
	PreviewDisplaying
)

func (s PreviewState) String() string {
	if s == PreviewDisplaying {
		return "displaying"
	}
	return "editing"
}

// LinkPreview controls one link-preview node. A node without a url is being
// edited; once a url is submitted it displays as a card.
type LinkPreview struct {
	session  *Session
	pos      int
	editing  bool
	input    string
	detached bool
}

// OpenLinkPreview attaches a controller to the link-preview node at pos.
func OpenLinkPreview(s *Session, pos int) (*LinkPreview, error) {
	n, err := doc.NodeAt(s.doc, pos)
	if err != nil {
		return nil, err
	}
	if n.Type != doc.TypeLinkPreview {
		return nil, fmt.Errorf("%w: %s at %d", ErrNotPreview, n.Type, pos)
	}
	url := n.AttrString("url")
	return &LinkPreview{session: s, pos: pos, editing: url == "", input: url}, nil
}

// InsertLinkPreview inserts an empty link-preview node at pos and returns its
// controller in the editing state.
func InsertLinkPreview(s *Session, pos int) (*LinkPreview, error) {
	if err := s.Apply(InsertAt(pos, doc.LinkPreview(""))); err != nil {
		return nil, err
	}
	return &LinkPreview{session: s, pos: pos, editing: true}, nil
}

func (lp *LinkPreview) node() (doc.Node, error) {
	if lp.detached {
		return doc.Node{}, ErrDetached
	}
	n, err := doc.NodeAt(lp.session.doc, lp.pos)
	if err != nil || n.Type != doc.TypeLinkPreview {
		return doc.Node{}, fmt.Errorf("%w at %d", ErrStaleBlock, lp.pos)
	}
	return n, nil
}

func (lp *LinkPreview) State() PreviewState {
	if lp.editing {
		return PreviewEditing
	}
	return PreviewDisplaying
}

// Pos is where the node starts.
func (lp *LinkPreview) Pos() int {
	return lp.pos
}

// URL is the stored url of the node.
func (lp *LinkPreview) URL() string {
	n, err := lp.node()
	if err != nil {
		return ""
	}
	return n.AttrString("url")
}

// SetInput replaces the text in the url field.
func (lp *LinkPreview) SetInput(v string) {
	lp.input = v
}

// KeyDown handles a key in the url field; Enter submits.
func (lp *LinkPreview) KeyDown(key string) error {
	if key != "Enter" {
		return nil
	}
	return lp.Submit()
}

// Submit stores the trimmed input as the url and switches to displaying.
func (lp *LinkPreview) Submit() error {
	if _, err := lp.node(); err != nil {
		return err
	}
	if !lp.editing {
		return fmt.Errorf("%w: submit while displaying", ErrInvalidState)
	}
	url := strings.TrimSpace(lp.input)
	if url == "" {
		return ErrEmptyURL
	}
	if err := lp.session.Apply(SetAttributes(lp.pos, map[string]any{"url": url})); err != nil {
		return err
	}
	lp.editing = false
	return nil
}

// Edit returns a displaying node to the editing state with its url prefilled.
func (lp *LinkPreview) Edit() error {
	n, err := lp.node()
	if err != nil {
		return err
	}
	lp.editing = true
	lp.input = n.AttrString("url")
	return nil
}

// ToLink replaces the node with a paragraph holding the url as a link.
func (lp *LinkPreview) ToLink() error {
	return lp.replace(func(url string) doc.Node {
		return doc.Paragraph(doc.Text(url, doc.Link(url)))
	})
}

// ToText replaces the node with a paragraph holding the url as plain text.
func (lp *LinkPreview) ToText() error {
	return lp.replace(func(url string) doc.Node {
		return doc.Paragraph(doc.Text(url))
	})
}

func (lp *LinkPreview) replace(build func(url string) doc.Node) error {
	n, err := lp.node()
	if err != nil {
		return err
	}
	url := n.AttrString("url")
	if lp.editing || url == "" {
		return fmt.Errorf("%w: convert without a url", ErrInvalidState)
	}
	caret := lp.pos + 1 + utf8.RuneCountInString(url)
	if err := lp.session.Apply(
		Replace(lp.pos, lp.pos+n.Size(), build(url)),
		SetSelection(caret, caret),
	); err != nil {
		return err
	}
	lp.detached = true
	return nil
}

// PasteResult reports how a paste was handled.
type PasteResult int

const (
	PastedNothing PasteResult = iota
	PastedText
	PastedLinkPreview
)

func (r PasteResult) String() string {
	switch r {
	case PastedText:
		return "text"
	case PastedLinkPreview:
		return "linkPreview"
	default:
		return "nothing"
	}
}

// Paste handles pasted plain text at the session's selection. A bare http(s)
// url pasted with the caret in an empty paragraph turns that paragraph into a
// link preview; anything else is inserted as text, replacing the selection.
func Paste(s *Session, text string) (PasteResult, error) {
	if text == "" {
		return PastedNothing, nil
	}
	sel := s.Selection()

	if sel.Empty() && bareURLPattern.MatchString(text) {
		r, err := doc.Resolve(s.doc, sel.Head)
		if err == nil && r.Depth >= 1 && r.Parent().Type == doc.TypeParagraph && len(r.Parent().Content) == 0 {
			before := r.Before(r.Depth)
			if err := s.Apply(
				Replace(before, before+2, doc.LinkPreview(text)),
				SetSelection(before+1, before+1),
			); err != nil {
				return PastedNothing, err
			}
			return PastedLinkPreview, nil
		}
	}

	from, to := sel.From(), sel.To()
	caret := from + utf8.RuneCountInString(text)
	cmds := []Command{}
	if from != to {
		cmds = append(cmds, DeleteRange(from, to))
	}
	cmds = append(cmds, InsertAt(from, doc.Text(text)), SetSelection(caret, caret))
	if err := s.Apply(cmds...); err != nil {
		return PastedNothing, err
	}
	return PastedText, nil
}
