// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/ods-harvester/pkg/types"
)

const blockSelector = "p, li, h1, h2, h3, h4, h5, h6, pre, blockquote"

// NormalizeTags merges keywords and comma-separated themes into a sorted,
// deduplicated list of lowercased tags with inner whitespace hyphenated.
func NormalizeTags(keywords, themes []string) []string {
	lower := cases.Lower(language.Und)
	seen := make(map[string]bool)
	tags := []string{}

	add := func(raw string) {
		t := lower.String(norm.NFC.String(raw))
		t = strings.Join(strings.Fields(t), "-")
		if t == "" || seen[t] {
			return
		}
		seen[t] = true
		tags = append(tags, t)
	}

	for _, k := range keywords {
		add(k)
	}
	for _, theme := range themes {
		for _, part := range strings.Split(theme, ",") {
			add(part)
		}
	}
	sort.Strings(tags)
	return tags
}

// CleanDescription converts a published HTML description to plain text,
// one paragraph per block element. Plain text passes through trimmed.
func CleanDescription(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "<") {
		return raw
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return raw
	}
	doc.Find("br").Each(func(_ int, s *goquery.Selection) {
		s.ReplaceWithNodes(&html.Node{Type: html.TextNode, Data: "\n"})
	})

	var blocks []string
	doc.Find(blockSelector).Each(func(_ int, s *goquery.Selection) {
		if s.Find(blockSelector).Length() > 0 {
			return
		}
		text := collapseSpaces(s.Text())
		if text == "" {
			return
		}
		if goquery.NodeName(s) == "li" {
			text = "- " + text
		}
		blocks = append(blocks, text)
	})
	if len(blocks) == 0 {
		return collapseSpaces(doc.Text())
	}
	return strings.Join(blocks, "\n\n")
}

// collapseSpaces trims each line and squeezes runs of blanks.
func collapseSpaces(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		l = strings.Join(strings.Fields(l), " ")
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

// FieldsDescription documents an API export with the dataset's fields as a
// markdown list. It is never empty.
func FieldsDescription(label string, fields []types.RemoteField) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Records exported in %s format.", label)
	if len(fields) == 0 {
		return b.String()
	}
	b.WriteString("\n\nFields:")
	for _, f := range fields {
		name := f.Label
		if name == "" {
			name = f.Name
		}
		fmt.Fprintf(&b, "\n- **%s** (%s, %s)", name, f.Name, f.Type)
		if f.Description != "" {
			fmt.Fprintf(&b, ": %s", f.Description)
		}
	}
	return b.String()
}
