// Package crop implements the margin arithmetic of pdfcropmargins: page
// selection, per-page crop boxes derived from content bounding boxes, and the
// uniforming rules that tie pages together.
package crop

import (
	"fmt"
	"strconv"
	"strings"
)

// ParsePageSpec parses a 1-based page range specifier such as "1,3-5,8-"
// against a document with numPages pages. The returned slice has one entry
// per page; entry i is true when page i+1 was selected. An empty spec selects
// every page.
func ParsePageSpec(spec string, numPages int) ([]bool, error) {
	selected := make([]bool, numPages)
	if strings.TrimSpace(spec) == "" {
		for i := range selected {
			selected[i] = true
		}
		return selected, nil
	}

	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("empty page range in %q", spec)
		}
		lo, hi, err := parseRange(part, numPages)
		if err != nil {
			return nil, err
		}
		for p := lo; p <= hi; p++ {
			selected[p-1] = true
		}
	}
	return selected, nil
}

func parseRange(part string, numPages int) (int, int, error) {
	dash := strings.Index(part, "-")
	if dash < 0 {
		p, err := parsePageNum(part, numPages)
		if err != nil {
			return 0, 0, err
		}
		return p, p, nil
	}

	loStr := strings.TrimSpace(part[:dash])
	hiStr := strings.TrimSpace(part[dash+1:])

	lo := 1
	hi := numPages
	var err error
	if loStr != "" {
		if lo, err = parsePageNum(loStr, numPages); err != nil {
			return 0, 0, err
		}
	}
	if hiStr != "" {
		if hi, err = parsePageNum(hiStr, numPages); err != nil {
			return 0, 0, err
		}
	}
	if lo > hi {
		return 0, 0, fmt.Errorf("reversed page range %q", part)
	}
	return lo, hi, nil
}

func parsePageNum(s string, numPages int) (int, error) {
	p, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad page number %q", s)
	}
	if p < 1 || p > numPages {
		return 0, fmt.Errorf("page %d out of range 1-%d", p, numPages)
	}
	return p, nil
}
