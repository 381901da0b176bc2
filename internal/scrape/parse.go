package scrape

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	domain "github.com/donaldgifford/listing-tracker/pkg/types"
)

// ParseRecords runs the container and field selectors over html. Containers
// that yield no non-empty field are dropped.
func ParseRecords(html, container string, fields map[string]string) ([]domain.RawRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	var records []domain.RawRecord
	doc.Find(container).Each(func(_ int, s *goquery.Selection) {
		rec := make(domain.RawRecord, len(fields))
		empty := true
		for key, sel := range fields {
			v := selectValue(s, sel)
			if v != "" {
				empty = false
			}
			rec[key] = v
		}
		if !empty {
			records = append(records, rec)
		}
	})
	return records, nil
}

func selectValue(s *goquery.Selection, sel string) string {
	sel, attr, hasAttr := strings.Cut(sel, "@")
	sel = strings.TrimSpace(sel)

	target := s
	if sel != "" {
		target = s.Find(sel).First()
	}
	if target.Length() == 0 {
		return ""
	}
	if hasAttr {
		v, _ := target.Attr(strings.TrimSpace(attr))
		return strings.TrimSpace(v)
	}
	return collapseSpace(target.Text())
}

// VisibleText returns the body text of html without scripts and styles.
func VisibleText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parsing html: %w", err)
	}
	doc.Find("script, style, noscript, template").Remove()
	return collapseSpace(doc.Find("body").Text()), nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
