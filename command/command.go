// Package command implements the editing commands applied to documents.
//
// A command is a pure function from a document and a selection to a new
// document and selection. Commands never fail: a command that does not apply
// leaves the document untouched, optionally with a notice for the user.
package command

import "github.com/rgonek/blogpen/document"

// Command is one entry of the editing catalog.
type Command interface {
	Name() string
	Apply(doc document.Document, sel Selection) Outcome
}

// Outcome is the result of applying a command.
type Outcome struct {
	Document  document.Document
	Selection Selection
	// Notice is a user-facing message explaining a no-op.
	Notice string
	// Changed reports whether Document differs from the input.
	Changed bool
}

func unchanged(doc document.Document, sel Selection) Outcome {
	return Outcome{Document: doc, Selection: sel}
}

func changed(doc document.Document, sel Selection) Outcome {
	return Outcome{Document: doc, Selection: sel, Changed: true}
}

func changedIfDifferent(before, after document.Document, sel Selection) Outcome {
	if document.Equal(before, after) {
		return unchanged(before, sel)
	}
	return changed(after, sel)
}
