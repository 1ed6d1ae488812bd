package parser

import (
	"bytes"
	"regexp"
	"strconv"

	"github.com/antchfx/htmlquery"
)

// paginationCell matches the innermost table cell holding the "Page:" marker,
// so a layout table wrapping the pager does not contribute its numbers.
const paginationCell = `//td[contains(., 'Page:') and not(.//td[contains(., 'Page:')])]`

var digits = regexp.MustCompile(`\d+`)

// PageCount infers the number of listing pages from the first listing page.
// It returns 1 when there is no pagination cell or no number in it, and
// never more than limit. capped reports whether limit was applied.
func (p *Parser) PageCount(body []byte, limit int) (count int, capped bool) {
	count = 1

	doc, err := htmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		p.logger.Warn("pagination: unparsable page, assuming one page", "error", err)
		return count, false
	}

	cell, err := htmlquery.Query(doc, paginationCell)
	if err != nil || cell == nil {
		p.logger.Debug("pagination: no page marker, assuming one page")
		return count, false
	}

	for _, m := range digits.FindAllString(htmlquery.InnerText(cell), -1) {
		n, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		if n > count {
			count = n
		}
	}

	if limit > 0 && count > limit {
		p.logger.Info("capping page count", "discovered", count, "cap", limit)
		return limit, true
	}
	return count, false
}
