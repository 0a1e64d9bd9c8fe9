// ABOUTME: Markdown rendering and lint checks for SEO pages
// ABOUTME: goldmark with GFM; raw HTML in page bodies is dropped, never passed through

package seo

import (
	"bytes"
	"fmt"
	"html/template"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/2389/shop-admin/internal/store"
)

// Length limits search engines display without truncation.
const (
	MaxTitleLength       = 60
	MaxDescriptionLength = 160
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

// Render converts a markdown body to HTML.
func Render(body string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// Preview is a rendered page plus any problems worth fixing before publishing.
type Preview struct {
	Slug            string        `json:"slug"`
	Title           string        `json:"title"`
	MetaDescription string        `json:"meta_description"`
	HTML            template.HTML `json:"html"`
	Warnings        []string      `json:"warnings"`
}

// BuildPreview renders p and lints its metadata.
func BuildPreview(p *store.SEOPage) (*Preview, error) {
	html, err := Render(p.BodyMarkdown)
	if err != nil {
		return nil, err
	}
	return &Preview{
		Slug:            p.Slug,
		Title:           p.Title,
		MetaDescription: p.MetaDescription,
		HTML:            html,
		Warnings:        Lint(p),
	}, nil
}

// Lint reports metadata problems. An empty result means nothing to fix.
func Lint(p *store.SEOPage) []string {
	warnings := []string{}

	switch n := utf8.RuneCountInString(p.Title); {
	case n == 0:
		warnings = append(warnings, "title is empty")
	case n > MaxTitleLength:
		warnings = append(warnings, fmt.Sprintf("title is %d characters; search results show about %d", n, MaxTitleLength))
	}

	switch n := utf8.RuneCountInString(p.MetaDescription); {
	case n == 0:
		warnings = append(warnings, "meta description is empty")
	case n > MaxDescriptionLength:
		warnings = append(warnings, fmt.Sprintf("meta description is %d characters; search results show about %d", n, MaxDescriptionLength))
	}

	if p.BodyMarkdown == "" {
		warnings = append(warnings, "body is empty")
	}
	return warnings
}
