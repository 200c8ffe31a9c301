package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"folio/api/internal/doc"
	"folio/api/internal/editor"
	"folio/api/internal/render"
)

// BlockOp is one step of an admin edit batch. Positions are document
// positions as reported by the editor.
type BlockOp struct {
	Op     string         `json:"op"`
	Pos    int            `json:"pos"`
	Target int            `json:"target"`
	Kind   string         `json:"kind"`
	Anchor int            `json:"anchor"`
	Head   int            `json:"head"`
	Text   string         `json:"text"`
	URL    string         `json:"url"`
	Attrs  map[string]any `json:"attrs"`
}

type EditPostInput struct {
	Ops     []BlockOp `json:"ops"`
	Message string    `json:"message"`
}

type EditResult struct {
	SaveResult
	Selection editor.Selection `json:"selection"`
	// Outcomes holds one entry per op, in order.
	Outcomes []string `json:"outcomes"`
}

var errUnknownOp = errors.New("unknown op")

// EditPost applies a batch of block operations to a post and saves the result
// as a document. The batch stops at the first failing op and nothing is
// saved.
func (s *Service) EditPost(ctx context.Context, slug string, input EditPostInput, author string) (EditResult, error) {
	if len(input.Ops) == 0 {
		return EditResult{}, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "At least one op is required", nil)
	}
	post, err := s.store.GetPost(ctx, slug)
	if err != nil {
		return EditResult{}, err
	}

	d, _ := render.Decode(post.Content)
	if len(d.Content) == 0 {
		d = doc.Doc(doc.Paragraph())
	}
	session, err := editor.NewWithDoc(d)
	if err != nil {
		return EditResult{}, err
	}

	outcomes := make([]string, 0, len(input.Ops))
	for i, op := range input.Ops {
		outcome, err := applyBlockOp(session, op)
		if err != nil {
			s.metrics.EditorOps.WithLabelValues(opLabel(op.Op), "error").Inc()
			return EditResult{}, domainError(http.StatusUnprocessableEntity, "INVALID_EDIT", "Edit could not be applied", map[string]any{
				"index":  i,
				"op":     op.Op,
				"reason": err.Error(),
			})
		}
		s.metrics.EditorOps.WithLabelValues(op.Op, "ok").Inc()
		outcomes = append(outcomes, outcome)
	}

	data, err := session.JSON()
	if err != nil {
		return EditResult{}, err
	}
	post.Content = string(data)
	message := input.Message
	if message == "" {
		message = fmt.Sprintf("Edit %s (%d ops)", slug, len(input.Ops))
	}
	saved, err := s.storePost(ctx, post, author, message)
	if err != nil {
		return EditResult{}, err
	}
	return EditResult{SaveResult: saved, Selection: session.Selection(), Outcomes: outcomes}, nil
}

func opLabel(op string) string {
	switch op {
	case "delete", "duplicate", "turnInto", "move", "select", "paste", "setAttributes",
		"insertLinkPreview", "submitLinkPreview", "linkPreviewToLink", "linkPreviewToText":
		return op
	}
	return "unknown"
}

func applyBlockOp(session *editor.Session, op BlockOp) (string, error) {
	switch op.Op {
	case "delete":
		return "deleted", editor.DeleteBlock(session, op.Pos)
	case "duplicate":
		return "duplicated", editor.DuplicateBlock(session, op.Pos)
	case "turnInto":
		kind, err := doc.ParseKind(op.Kind)
		if err != nil {
			return "", err
		}
		return "converted", editor.TurnBlockInto(session, op.Pos, kind)
	case "move":
		moved, err := editor.MoveBlock(session, op.Pos, op.Target)
		if err != nil {
			return "", err
		}
		if !moved {
			return "unchanged", nil
		}
		return "moved", nil
	case "select":
		return "selected", session.Apply(editor.SetSelection(op.Anchor, op.Head))
	case "paste":
		result, err := editor.Paste(session, op.Text)
		if err != nil {
			return "", err
		}
		return result.String(), nil
	case "setAttributes":
		return "updated", session.Apply(editor.SetAttributes(op.Pos, op.Attrs))
	case "insertLinkPreview":
		lp, err := editor.InsertLinkPreview(session, op.Pos)
		if err != nil {
			return "", err
		}
		if op.URL == "" {
			return lp.State().String(), nil
		}
		lp.SetInput(op.URL)
		if err := lp.Submit(); err != nil {
			return "", err
		}
		return lp.State().String(), nil
	case "submitLinkPreview":
		lp, err := editor.OpenLinkPreview(session, op.Pos)
		if err != nil {
			return "", err
		}
		if lp.State() == editor.PreviewDisplaying {
			if err := lp.Edit(); err != nil {
				return "", err
			}
		}
		lp.SetInput(op.URL)
		if err := lp.Submit(); err != nil {
			return "", err
		}
		return lp.State().String(), nil
	case "linkPreviewToLink":
		lp, err := editor.OpenLinkPreview(session, op.Pos)
		if err != nil {
			return "", err
		}
		return "link", lp.ToLink()
	case "linkPreviewToText":
		lp, err := editor.OpenLinkPreview(session, op.Pos)
		if err != nil {
			return "", err
		}
		return "text", lp.ToText()
	default:
		return "", fmt.Errorf("%w %q", errUnknownOp, op.Op)
	}
}
