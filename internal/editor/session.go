// Package editor implements the editing contract of the block editor: a
// session owning one live document, block location from pointer geometry,
// the block handle with its drag and drop, and the link-preview node.
//
// A Session is not safe for concurrent use. Each one is driven from a single
// goroutine the way a browser drives its editor from one event loop.
package editor

import (
	"errors"
	"fmt"

	"folio/api/internal/doc"
)

var (
	ErrNoBlock      = errors.New("no block")
	ErrStaleBlock   = errors.New("block changed since it was located")
	ErrInvalidState = errors.New("action not allowed in current state")
	ErrSelection    = errors.New("selection out of range")
)

// Selection is an anchor and head position pair. Equal positions form a caret.
type Selection struct {
	Anchor int `json:"anchor"`
	Head   int `json:"head"`
}

// Caret returns a collapsed selection at pos.
func Caret(pos int) Selection {
	return Selection{Anchor: pos, Head: pos}
}

func (s Selection) From() int { return min(s.Anchor, s.Head) }
func (s Selection) To() int   { return max(s.Anchor, s.Head) }
func (s Selection) Empty() bool {
	return s.Anchor == s.Head
}

// Map moves the selection through a step.
func (s Selection) Map(m doc.StepMap) Selection {
	return Selection{Anchor: m.Map(s.Anchor), Head: m.Map(s.Head)}
}

// Transaction is the working state a batch of commands runs against.
type Transaction struct {
	Doc       doc.Node
	Selection Selection
}

// Command is one editing step. A failing command aborts the whole batch.
type Command func(tx *Transaction) error

// Session owns a live document and its selection.
type Session struct {
	doc       doc.Node
	sel       Selection
	version   int
	listeners []func(doc.Node)
}

// New starts a session on an empty document.
func New() *Session {
	return &Session{doc: doc.New()}
}

// Open starts a session on stored content, which must be a valid document.
func Open(data []byte) (*Session, error) {
	d, err := doc.Parse(data)
	if err != nil {
		return nil, err
	}
	if err := doc.Validate(d); err != nil {
		return nil, err
	}
	return &Session{doc: d}, nil
}

// NewWithDoc starts a session on a copy of d.
func NewWithDoc(d doc.Node) (*Session, error) {
	if err := doc.Validate(d); err != nil {
		return nil, err
	}
	return &Session{doc: d.Clone()}, nil
}

// Doc returns a deep copy of the current document.
func (s *Session) Doc() doc.Node {
	return s.doc.Clone()
}

func (s *Session) Selection() Selection {
	return s.sel
}

// Version counts applied batches.
func (s *Session) Version() int {
	return s.version
}

// OnChange registers a listener called once per applied batch with a copy of
// the new document.
func (s *Session) OnChange(fn func(doc.Node)) {
	s.listeners = append(s.listeners, fn)
}

// JSON serialises the current document.
func (s *Session) JSON() ([]byte, error) {
	return doc.Serialize(s.doc)
}

// Apply runs cmds in order. Either every command succeeds and the result is
// committed, or nothing changes.
func (s *Session) Apply(cmds ...Command) error {
	tx := &Transaction{Doc: s.doc, Selection: s.sel}
	for i, cmd := range cmds {
		if err := cmd(tx); err != nil {
			return fmt.Errorf("command %d: %w", i, err)
		}
	}
	s.doc = tx.Doc
	s.sel = tx.Selection
	s.version++
	for _, fn := range s.listeners {
		fn(s.doc.Clone())
	}
	return nil
}

func step(tx *Transaction, out doc.Node, m doc.StepMap, err error) error {
	if err != nil {
		return err
	}
	tx.Doc = out
	tx.Selection = tx.Selection.Map(m)
	return nil
}

// InsertAt inserts nodes at pos.
func InsertAt(pos int, nodes ...doc.Node) Command {
	return func(tx *Transaction) error {
		out, m, err := doc.InsertAt(tx.Doc, pos, nodes...)
		return step(tx, out, m, err)
	}
}

// DeleteRange removes [from, to).
func DeleteRange(from, to int) Command {
	return func(tx *Transaction) error {
		out, m, err := doc.DeleteRange(tx.Doc, from, to)
		return step(tx, out, m, err)
	}
}

// Replace swaps [from, to) for nodes.
func Replace(from, to int, nodes ...doc.Node) Command {
	return func(tx *Transaction) error {
		out, m, err := doc.Replace(tx.Doc, from, to, nodes...)
		return step(tx, out, m, err)
	}
}

// SetNodeType changes the type of the node at pos.
func SetNodeType(pos int, typ string, attrs map[string]any) Command {
	return func(tx *Transaction) error {
		out, m, err := doc.SetNodeType(tx.Doc, pos, typ, attrs)
		return step(tx, out, m, err)
	}
}

// SetAttributes merges attrs into the node at pos.
func SetAttributes(pos int, attrs map[string]any) Command {
	return func(tx *Transaction) error {
		out, m, err := doc.SetAttributes(tx.Doc, pos, attrs)
		return step(tx, out, m, err)
	}
}

// SetSelection moves the selection.
func SetSelection(anchor, head int) Command {
	return func(tx *Transaction) error {
		size := tx.Doc.ContentSize()
		if anchor < 0 || head < 0 || anchor > size || head > size {
			return fmt.Errorf("%w: [%d, %d] in document of size %d", ErrSelection, anchor, head, size)
		}
		tx.Selection = Selection{Anchor: anchor, Head: head}
		return nil
	}
}
