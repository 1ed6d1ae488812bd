// Package parser extracts catalog records from listing, detail and
// directory pages. Every function here is a pure read of the document
// except for diagnostic logging; none of them perform I/O.
package parser

import (
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/IshaanNene/catalogcrawl/internal/config"
	"github.com/IshaanNene/catalogcrawl/internal/types"
)

// linkSep splits "<code> - <title>" anchors. The dash must touch whitespace
// on at least one side so hyphenated words ("Pre-Calculus", "no-title") are
// not separators. Unicode spaces count, since catalogs pad with &nbsp;.
var linkSep = regexp.MustCompile(`[\s\p{Zs}]+-[\s\p{Zs}]*|[\s\p{Zs}]*-[\s\p{Zs}]+`)

// Parser holds the selectors and base URL for one catalog.
type Parser struct {
	base           *url.URL
	coursePattern  string
	programPattern string
	logger         *slog.Logger
}

// New creates a Parser for the given catalog.
func New(cat config.CatalogConfig, logger *slog.Logger) (*Parser, error) {
	base, err := url.Parse(cat.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", cat.BaseURL, err)
	}
	return &Parser{
		base:           base,
		coursePattern:  cat.CourseLinkPattern,
		programPattern: cat.ProgramLinkPattern,
		logger:         logger.With("component", "parser"),
	}, nil
}

// SplitLinkText splits anchor text into a course code and title. The title
// is every segment after the first, rejoined with " - ".
func SplitLinkText(text string) (code, title string, err error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", "", types.ErrMalformedLink
	}
	parts := linkSep.Split(text, -1)
	if len(parts) < 2 {
		return "", "", types.ErrMalformedLink
	}
	code = strings.TrimSpace(parts[0])
	title = strings.TrimSpace(strings.Join(parts[1:], " - "))
	return code, title, nil
}

// resolve turns an href into an absolute URL against the catalog base.
func (p *Parser) resolve(href string) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", types.ErrNoHref
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrInvalidURL, err)
	}
	return p.base.ResolveReference(ref).String(), nil
}

func linkSelector(pattern string) string {
	return fmt.Sprintf(`a[href*=%q]`, pattern)
}
