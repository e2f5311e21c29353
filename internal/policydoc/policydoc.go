// Package policydoc serves the human-readable change policy document that
// accompanies the rule table. The document is markdown with one
// "### <STATUS> State" section per order status; customer-facing surfaces
// show the section for the order's current status alongside the engine's
// structured decision.
package policydoc

import (
	"context"
	"fmt"
	"strings"

	"github.com/brandonvio/brightthread/internal/model"
)

// Loader loads the policy document from a backing store.
type Loader interface {
	// Load reads and parses the policy document at the given path or key.
	Load(ctx context.Context, path string) (*Document, error)
}

// Document is a parsed policy document.
type Document struct {
	raw      string
	sections map[model.OrderStatus]string
}

// Parse splits the markdown document into per-status sections. Headings
// that do not name a known status are folded into the preceding section.
func Parse(raw string) *Document {
	doc := &Document{
		raw:      raw,
		sections: make(map[model.OrderStatus]string),
	}

	var (
		current model.OrderStatus
		buf     strings.Builder
	)

	flush := func() {
		if current != "" {
			doc.sections[current] = strings.TrimSpace(buf.String())
		}
		buf.Reset()
	}

	for _, line := range strings.Split(raw, "\n") {
		if status, ok := sectionStatus(line); ok {
			flush()
			current = status
			continue
		}
		if current != "" {
			buf.WriteString(line)
			buf.WriteString("\n")
		}
	}
	flush()

	return doc
}

// sectionStatus matches headings of the form "### CREATED State".
func sectionStatus(line string) (model.OrderStatus, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "### ") {
		return "", false
	}
	name := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(trimmed, "### "), "State"))
	for _, status := range model.AllStatuses {
		if string(status) == name {
			return status, true
		}
	}
	return "", false
}

// Raw returns the full document text.
func (d *Document) Raw() string {
	return d.raw
}

// Summary returns the section for the given status.
func (d *Document) Summary(status model.OrderStatus) (string, error) {
	section, ok := d.sections[status]
	if !ok {
		return "", fmt.Errorf("no policy section for status %s", status)
	}
	return section, nil
}

// Statuses returns the statuses that have a section, in lifecycle order.
func (d *Document) Statuses() []model.OrderStatus {
	var statuses []model.OrderStatus
	for _, status := range model.AllStatuses {
		if _, ok := d.sections[status]; ok {
			statuses = append(statuses, status)
		}
	}
	return statuses
}
