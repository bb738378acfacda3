package tenant

import (
	"regexp"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL slug from a church name: lowercase, accents
// removed, every run of other characters collapsed to one hyphen.
//
//	Slugify("Igreja Batista Central") == "igreja-batista-central"
//	Slugify("  Comunidade São João!! ") == "comunidade-sao-joao"
func Slugify(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plain, _, err := transform.String(t, name)
	if err != nil {
		plain = name
	}
	s := nonAlnum.ReplaceAllString(strings.ToLower(plain), "-")
	return strings.Trim(s, "-")
}

// SlugField tracks a slug input paired with a name input. The slug follows
// the name until the user edits it; from then on it is left alone.
type SlugField struct {
	mu     sync.Mutex
	slug   string
	manual bool
}

// NewSlugField starts a field. A non-empty initial slug, as when editing an
// existing church, counts as manual.
func NewSlugField(initial string) *SlugField {
	return &SlugField{slug: initial, manual: initial != ""}
}

// SetName re-derives the slug unless it was edited by hand
func (f *SlugField) SetName(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.manual {
		f.slug = Slugify(name)
	}
}

// SetSlug records a manual edit
func (f *SlugField) SetSlug(slug string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slug = slug
	f.manual = true
}

func (f *SlugField) Value() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.slug
}

func (f *SlugField) Manual() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.manual
}
