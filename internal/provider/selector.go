package provider

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"slices"
	"strings"

	"github.com/donaldgifford/listing-tracker/internal/config"
	"github.com/donaldgifford/listing-tracker/internal/scrape"
	domain "github.com/donaldgifford/listing-tracker/pkg/types"
)

// SelectorProvider is a provider fully described by configuration: a sort
// parameter, CSS selectors and the fields its listing ID is derived from.
type SelectorProvider struct {
	cfg  config.ProviderConfig
	base *url.URL
}

// NewSelectorProvider creates a provider from its configuration.
func NewSelectorProvider(cfg config.ProviderConfig) *SelectorProvider {
	p := &SelectorProvider{cfg: cfg}
	if u, err := url.Parse(cfg.BaseURL); err == nil && u.IsAbs() {
		p.base = u
	}
	return p
}

// FromConfig builds a registry of selector providers.
func FromConfig(cfgs []config.ProviderConfig) (*Registry, error) {
	providers := make([]Provider, 0, len(cfgs))
	for _, c := range cfgs {
		providers = append(providers, NewSelectorProvider(c))
	}
	return NewRegistry(providers...)
}

func (p *SelectorProvider) Info() Info {
	return Info{ID: p.cfg.ID, Name: p.cfg.Name, BaseURL: p.cfg.BaseURL}
}

// NewestFirstURL sets the configured sort parameter. URLs that do not
// parse are returned unchanged.
func (p *SelectorProvider) NewestFirstURL(searchURL string) string {
	if p.cfg.SortParam == "" {
		return searchURL
	}
	u, err := url.Parse(searchURL)
	if err != nil {
		return searchURL
	}
	q := u.Query()
	q.Set(p.cfg.SortParam, p.cfg.SortValue)
	u.RawQuery = q.Encode()
	return u.String()
}

func (p *SelectorProvider) Query(searchURL string) scrape.Query {
	return scrape.Query{
		URL:          searchURL,
		WaitSelector: p.cfg.WaitSelector,
		Container:    p.cfg.Container,
		Fields:       p.cfg.Fields,
		Browser:      p.cfg.Browser,
	}
}

func (p *SelectorProvider) RequiredFields() []string {
	return slices.Clone(p.cfg.RequiredFields)
}

// Normalize maps the record's well-known keys onto a listing and resolves
// relative links against the base URL.
func (p *SelectorProvider) Normalize(rec domain.RawRecord) (domain.Listing, error) {
	l := domain.Listing{
		ID:          p.hash(rec),
		Title:       rec["title"],
		Price:       rec["price"],
		Size:        rec["size"],
		Address:     rec["address"],
		Link:        p.absolute(rec["link"]),
		Description: rec["description"],
		Image:       p.absolute(rec["image"]),
	}
	return l, nil
}

// hash digests the provider ID and the configured ID fields. A record
// whose ID fields are all empty has no identity.
func (p *SelectorProvider) hash(rec domain.RawRecord) string {
	h := sha256.New()
	h.Write([]byte(p.cfg.ID))
	empty := true
	for _, f := range p.cfg.IDFields {
		v := strings.TrimSpace(rec[f])
		if v != "" {
			empty = false
		}
		h.Write([]byte{0x1f})
		h.Write([]byte(v))
	}
	if empty {
		return ""
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (p *SelectorProvider) absolute(ref string) string {
	if ref == "" || p.base == nil {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return p.base.ResolveReference(u).String()
}
