package parser

import (
	"fmt"
	"strings"
	"testing"
)

func TestPageCount(t *testing.T) {
	p := newTestParser(t)

	tests := []struct {
		name   string
		body   string
		limit  int
		want   int
		capped bool
	}{
		{"listing fixture", listingHTML, 50, 12, false},
		{"no marker", "<html><body><table><tr><td>1 2 3</td></tr></table></body></html>", 50, 1, false},
		{"marker without digits", "<table><tr><td>Page: none</td></tr></table>", 50, 1, false},
		{"marker outside a cell", "<p>Page: 1 2 3</p>", 50, 1, false},
		{"empty body", "", 50, 1, false},
		{"over cap", "<table><tr><td>Page: 1 2 3 ... 87</td></tr></table>", 50, 50, true},
		{"at cap", "<table><tr><td>Page: 1 2 ... 50</td></tr></table>", 50, 50, false},
		{"no limit", "<table><tr><td>Page: 1 ... 87</td></tr></table>", 0, 87, false},
		{
			"nested layout table",
			`<table><tr><td>Layout 999<table><tr><td>Page: 1 | 2 | 4</td></tr></table></td></tr></table>`,
			50, 4, false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, capped := p.PageCount([]byte(tt.body), tt.limit)
			if got != tt.want || capped != tt.capped {
				t.Errorf("got (%d, %v), want (%d, %v)", got, capped, tt.want, tt.capped)
			}
		})
	}
}

func TestPageCountSequence(t *testing.T) {
	p := newTestParser(t)

	for _, k := range []int{1, 2, 7, 49} {
		var nums []string
		for i := 1; i <= k; i++ {
			nums = append(nums, fmt.Sprint(i))
		}
		body := "<table><tr><td>Page: " + strings.Join(nums, " | ") + "</td></tr></table>"

		if got, _ := p.PageCount([]byte(body), 50); got != k {
			t.Errorf("k=%d: got %d", k, got)
		}
	}
}
