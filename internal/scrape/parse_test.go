package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/donaldgifford/listing-tracker/pkg/types"
)

const searchPage = `<html><body>
<ul>
  <li class="ad" data-id="101">
    <a class="title" href="/ad/101">  Bright
      loft  </a>
    <span class="price">950 €</span>
    <span class="addr">Main St 1</span>
    <img src="https://img.test/101.jpg">
  </li>
  <li class="ad" data-id="102">
    <a class="title" href="/ad/102">Studio</a>
  </li>
  <li class="ad"></li>
</ul>
</body></html>`

func TestParseRecords(t *testing.T) {
	t.Parallel()

	fields := map[string]string{
		"id":      "@data-id",
		"title":   "a.title",
		"link":    "a.title@href",
		"price":   ".price",
		"address": ".addr",
		"image":   "img@src",
	}

	records, err := ParseRecords(searchPage, "li.ad", fields)
	require.NoError(t, err)
	require.Len(t, records, 2, "empty containers are dropped")

	assert.Equal(t, domain.RawRecord{
		"id":      "101",
		"title":   "Bright loft",
		"link":    "/ad/101",
		"price":   "950 €",
		"address": "Main St 1",
		"image":   "https://img.test/101.jpg",
	}, records[0])

	assert.Equal(t, "102", records[1]["id"])
	assert.Equal(t, "", records[1]["price"], "missing fields are present and empty")
}

func TestParseRecords_NoMatches(t *testing.T) {
	t.Parallel()

	records, err := ParseRecords(searchPage, "div.nothing", map[string]string{"id": "@id"})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestVisibleText(t *testing.T) {
	t.Parallel()

	text, err := VisibleText(`<html><head><style>p{}</style></head><body>
		<h1>Flat</h1><script>var x = 1;</script>
		<p>Pets   allowed.</p></body></html>`)
	require.NoError(t, err)
	assert.Equal(t, "Flat Pets allowed.", text)
}
