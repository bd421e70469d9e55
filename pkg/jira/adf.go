package jira

import (
	"encoding/json"
	"strings"
)

// Document is an Atlassian Document Format (ADF) rich-text document.
// Only the subset the pipelines touch is modeled: paragraphs containing
// text nodes and hard breaks.
type Document struct {
	Type    string `json:"type"`
	Version int    `json:"version"`
	Content []Node `json:"content"`
}

// Node is one ADF content node.
type Node struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	Content []Node `json:"content,omitempty"`
}

// MarshalJSON always emits the text field for text nodes, empty string
// included, and never for other node types. Jira rejects text nodes
// without a text field.
func (n Node) MarshalJSON() ([]byte, error) {
	type wire struct {
		Type    string  `json:"type"`
		Text    *string `json:"text,omitempty"`
		Content []Node  `json:"content,omitempty"`
	}
	w := wire{Type: n.Type, Content: n.Content}
	if n.Type == "text" {
		w.Text = &n.Text
	}
	return json.Marshal(w)
}

// PlainText flattens the document: paragraphs joined by blank lines,
// hard breaks preserved as newlines within a paragraph. Non-paragraph
// nodes are ignored.
func (d *Document) PlainText() string {
	if d == nil {
		return ""
	}
	var paragraphs []string
	for _, node := range d.Content {
		if node.Type != "paragraph" {
			continue
		}
		var b strings.Builder
		for _, child := range node.Content {
			switch child.Type {
			case "text":
				b.WriteString(child.Text)
			case "hardBreak":
				b.WriteString("\n")
			}
		}
		paragraphs = append(paragraphs, strings.TrimSpace(b.String()))
	}
	return strings.TrimSpace(strings.Join(paragraphs, "\n\n"))
}

// DocumentFromText builds a minimal ADF document from plain text:
// blank-line-separated blocks become paragraphs, single newlines become
// hard breaks within a paragraph. Empty paragraphs still render.
func DocumentFromText(text string) *Document {
	doc := &Document{Type: "doc", Version: 1}
	for _, para := range strings.Split(text, "\n\n") {
		lines := strings.Split(para, "\n")
		var nodes []Node
		for i, line := range lines {
			if line != "" {
				nodes = append(nodes, Node{Type: "text", Text: line})
			}
			if i < len(lines)-1 {
				nodes = append(nodes, Node{Type: "hardBreak"})
			}
		}
		if len(nodes) == 0 {
			nodes = []Node{{Type: "text", Text: ""}}
		}
		doc.Content = append(doc.Content, Node{Type: "paragraph", Content: nodes})
	}
	if len(doc.Content) == 0 {
		doc.Content = []Node{{Type: "paragraph", Content: []Node{{Type: "text", Text: ""}}}}
	}
	return doc
}
