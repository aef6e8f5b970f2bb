//-------------------------------------------------------------------------
//
// FinSight Summary Server
//
// Copyright (c) 2025 - 2026, FinSight AI, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package assemble builds the final summary document: it converts agent
// JSON outputs to markdown and splices fragments into the narrative at
// named section headings.
package assemble

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
)

// maxAnchorLevel bounds which heading levels qualify as section anchors.
// Deeper headings are sub-structure within a section.
const maxAnchorLevel = 4

// InsertBeforeSection inserts fragment, under a new "## insertedHeading"
// block, immediately before the first markdown heading whose text contains
// sectionLabel case-insensitively. When no heading matches, the block is
// appended at the end. A whitespace-only fragment leaves doc untouched.
func InsertBeforeSection(doc, fragment, sectionLabel, insertedHeading string) string {
	if strings.TrimSpace(fragment) == "" {
		return doc
	}

	if offset, ok := findSectionStart(doc, sectionLabel); ok {
		block := fmt.Sprintf("\n---\n\n## %s\n\n%s\n\n---\n\n", insertedHeading, fragment)
		return doc[:offset] + block + doc[offset:]
	}

	block := fmt.Sprintf("\n\n---\n\n## %s\n\n%s\n", insertedHeading, fragment)
	return doc + block
}

// findSectionStart locates the byte offset of the start of the line
// holding the first matching heading.
func findSectionStart(doc, sectionLabel string) (int, bool) {
	source := []byte(doc)
	root := goldmark.New().Parser().Parse(gmtext.NewReader(source))

	label := strings.ToLower(collapseSpaces(sectionLabel))
	offset := -1

	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		heading, ok := n.(*gmast.Heading)
		if !ok || heading.Level > maxAnchorLevel {
			return gmast.WalkContinue, nil
		}
		if heading.Lines().Len() == 0 {
			return gmast.WalkContinue, nil
		}

		text := strings.ToLower(collapseSpaces(headingText(heading, source)))
		if !strings.Contains(text, label) {
			return gmast.WalkContinue, nil
		}

		// Back up from the heading content to the start of its line,
		// which precedes the '#' markers.
		contentStart := heading.Lines().At(0).Start
		offset = bytes.LastIndexByte(source[:contentStart], '\n') + 1
		return gmast.WalkStop, nil
	})

	if offset < 0 {
		return 0, false
	}
	return offset, true
}

// headingText concatenates the raw text of a heading's inline children.
func headingText(heading *gmast.Heading, source []byte) string {
	var sb strings.Builder
	for c := heading.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*gmast.Text); ok {
			sb.Write(t.Segment.Value(source))
			continue
		}
		// Styled spans (emphasis, code) keep their inner text.
		for g := c.FirstChild(); g != nil; g = g.NextSibling() {
			if t, ok := g.(*gmast.Text); ok {
				sb.Write(t.Segment.Value(source))
			}
		}
	}
	return sb.String()
}

// collapseSpaces normalizes runs of whitespace to single spaces so labels
// match headings regardless of spacing.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TimestampHeader returns the metadata header prepended to the final
// document.
func TimestampHeader(t time.Time) string {
	return fmt.Sprintf("---\nDate: %s\n---\n\n", t.Format("02/01/2006, 03:04:05 PM"))
}
