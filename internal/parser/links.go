package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// CourseLink is a course anchor harvested from a listing page.
type CourseLink struct {
	Code  string
	Title string
	URL   string
}

// ProgramLink is a program anchor harvested from the directory page.
type ProgramLink struct {
	Name string
	URL  string
}

// CourseLinks returns every well-formed course anchor on a listing page, in
// document order. Anchors whose text cannot be split into code and title,
// or that have no usable href, are logged and left out.
func (p *Parser) CourseLinks(doc *goquery.Document) []CourseLink {
	var links []CourseLink

	doc.Find(linkSelector(p.coursePattern)).Each(func(i int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		code, title, err := SplitLinkText(text)
		if err != nil {
			p.logger.Warn("skipping course link", "index", i, "text", text, "error", err)
			return
		}

		href, _ := sel.Attr("href")
		abs, err := p.resolve(href)
		if err != nil {
			p.logger.Warn("skipping course link", "index", i, "code", code, "error", err)
			return
		}

		links = append(links, CourseLink{Code: code, Title: title, URL: abs})
	})

	return links
}

// CourseCodes returns the code segment of every well-formed course anchor,
// in document order. Duplicates are kept.
func (p *Parser) CourseCodes(doc *goquery.Document) []string {
	codes := []string{}

	doc.Find(linkSelector(p.coursePattern)).Each(func(i int, sel *goquery.Selection) {
		code, _, err := SplitLinkText(sel.Text())
		if err != nil {
			p.logger.Debug("ignoring course reference", "index", i, "text", strings.TrimSpace(sel.Text()))
			return
		}
		codes = append(codes, code)
	})

	return codes
}

// ProgramLinks returns every program anchor with a non-empty name.
func (p *Parser) ProgramLinks(doc *goquery.Document) []ProgramLink {
	var links []ProgramLink

	doc.Find(linkSelector(p.programPattern)).Each(func(i int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		name := strings.TrimSpace(sel.Text())
		if name == "" {
			return
		}
		abs, err := p.resolve(href)
		if err != nil {
			p.logger.Warn("skipping program link", "name", name, "error", err)
			return
		}
		links = append(links, ProgramLink{Name: name, URL: abs})
	})

	return links
}
