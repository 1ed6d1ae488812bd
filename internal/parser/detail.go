package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const courseHeading = "h1#course_preview_title"

// Restriction labels on a course detail page. Each value is the <em> that
// immediately follows the labelled <em>.
const (
	labelGrading      = "Grading Restriction:"
	labelRepeatable   = "Repeatability:"
	labelCredit       = "Credit Restriction:"
	labelRegistration = "Registration Restriction(s):"
)

// CourseDetail holds the fields read from a course detail page.
type CourseDetail struct {
	Title                   string
	CreditHoursText         string
	CreditHours             *float64
	Description             string
	GradingRestriction      string
	Repeatability           string
	CreditRestriction       string
	RegistrationRestriction string
}

// CourseDetail extracts a course detail page. Missing elements yield empty
// strings and a nil CreditHours; it never fails.
func (p *Parser) CourseDetail(doc *goquery.Document) CourseDetail {
	heading := doc.Find(courseHeading).First()

	d := CourseDetail{
		Title:           strings.TrimSpace(heading.Text()),
		CreditHoursText: strings.TrimSpace(heading.NextAllFiltered("strong").First().Text()),
		Description:     description(doc, heading),

		GradingRestriction:      labelled(doc, labelGrading),
		Repeatability:           labelled(doc, labelRepeatable),
		CreditRestriction:       labelled(doc, labelCredit),
		RegistrationRestriction: labelled(doc, labelRegistration),
	}
	d.CreditHours = ParseCreditHours(d.CreditHoursText)

	if heading.Length() == 0 {
		p.logger.Debug("course heading not found", "selector", courseHeading)
	}
	if d.CreditHours == nil && d.CreditHoursText != "" {
		p.logger.Warn("unparsable credit hours", "title", d.Title, "text", d.CreditHoursText)
	}

	return d
}

// description collects the text between the first <hr> after the heading
// and the next <br>.
func description(doc *goquery.Document, heading *goquery.Selection) string {
	hr := heading.NextAllFiltered("hr").First()
	if hr.Length() == 0 {
		return ""
	}

	var parts []string
	for n := hr.Nodes[0].NextSibling; n != nil; n = n.NextSibling {
		var text string
		switch n.Type {
		case html.TextNode:
			text = n.Data
		case html.ElementNode:
			if n.Data == "br" {
				return strings.Join(parts, " ")
			}
			text = doc.FindNodes(n).Text()
		default:
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// labelled returns the text of the <em> right after the first <em>
// containing label, or "" when the label is absent.
func labelled(doc *goquery.Document, label string) string {
	em := doc.Find("em").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(s.Text(), label)
	}).First()
	if em.Length() == 0 {
		return ""
	}
	return strings.TrimSpace(em.NextFiltered("em").Text())
}

// ProgramDescription returns the first paragraph of the .content region,
// or the region's text without headings and tables when that paragraph is
// empty. The document is not modified.
func (p *Parser) ProgramDescription(doc *goquery.Document) string {
	content := doc.Find(".content")
	if content.Length() == 0 {
		return ""
	}

	if first := strings.TrimSpace(content.Find("p").First().Text()); first != "" {
		return first
	}

	stripped := content.Clone()
	stripped.Children().Filter("h1, h2, h3, table").Remove()
	return strings.TrimSpace(stripped.Text())
}
