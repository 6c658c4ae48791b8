// internal/engine/translate/expander.go
package translate

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"github.com/vviyott/recall-engine/internal/common/logger"
	"github.com/vviyott/recall-engine/internal/engine/cache"
)

// ErrEmptyCompletion is returned when the model replies with no choices.
var ErrEmptyCompletion = errors.New("translation returned no completion")

// Metrics is the observability hook for translation fallbacks.
type Metrics interface {
	RecordTranslationFallback(ctx context.Context)
}

// Domain vocabulary keyed by Korean term. Each entry lists the English
// variants fanned out during semantic search.
var synonymTable = []struct {
	korean   string
	variants []string
}{
	// contaminants
	{"살모넬라", []string{"Salmonella", "salmonella contamination"}},
	{"리스테리아", []string{"Listeria", "Listeria monocytogenes"}},
	{"대장균", []string{"E.coli", "E. coli", "Escherichia coli"}},
	{"클로스트리듐", []string{"Clostridium", "clostridium botulinum"}},

	// allergens
	{"우유", []string{"milk", "dairy", "undeclared milk"}},
	{"계란", []string{"egg", "eggs", "undeclared egg"}},
	{"견과류", []string{"tree nuts", "nuts", "undeclared nuts"}},
	{"땅콩", []string{"peanut", "peanuts", "undeclared peanut"}},
	{"콩", []string{"soy", "soybean", "undeclared soy"}},
	{"밀", []string{"wheat", "gluten", "undeclared wheat"}},

	// product categories
	{"복합 가공식품", []string{"processed foods", "processed products"}},
	{"소스 복합식품", []string{"sauce processed food", "sauce products"}},
	{"과자", []string{"snacks", "crackers", "cookies"}},
	{"유제품", []string{"dairy products", "milk products"}},
	{"해산물", []string{"seafood", "fish products"}},
	{"육류", []string{"meat products", "meat"}},

	// general terms
	{"알레르겐", []string{"allergen", "undeclared allergen"}},
	{"오염", []string{"contamination", "contaminated"}},
	{"리콜", []string{"recall", "voluntary recall"}},
	{"사례", []string{"cases", "incidents"}},
}

// Expander resolves a term to its English form, caching results so repeated
// terms never hit the translation service twice. A service failure degrades to
// the original term; the engine keeps working monolingually.
type Expander struct {
	translator Translator
	cache      cache.Store
	log        logger.Logger
	metrics    Metrics
}

func NewExpander(translator Translator, store cache.Store, log logger.Logger, metrics Metrics) *Expander {
	return &Expander{
		translator: translator,
		cache:      store,
		log:        log.With(map[string]interface{}{"component": "termexpander"}),
		metrics:    metrics,
	}
}

// Expand returns the distinct search forms of term: the term itself, and its
// English translation when the term contains Korean. English input expands to
// itself alone.
func (e *Expander) Expand(ctx context.Context, term string) []string {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}
	if !ContainsKorean(term) {
		return []string{term}
	}

	english := e.TranslateCached(ctx, term)
	if english == "" || strings.EqualFold(english, term) {
		return []string{term}
	}
	return []string{term, english}
}

// TranslateCached returns the English translation of text, consulting the
// cache first. On service failure it returns text unchanged and records the
// fallback.
func (e *Expander) TranslateCached(ctx context.Context, text string) string {
	if cached, ok := e.cache.Get(ctx, text); ok {
		return cached
	}

	english, err := e.translator.Translate(ctx, text)
	if err != nil {
		e.log.WithError(err).Warn("translation failed, keeping original term", map[string]interface{}{
			"term": text,
		})
		if e.metrics != nil {
			e.metrics.RecordTranslationFallback(ctx)
		}
		return text
	}

	e.cache.Put(ctx, text, english)
	return english
}

// SynonymVariants returns the table-driven English variants for every Korean
// domain term contained in query, in table order.
func SynonymVariants(query string) []string {
	var variants []string
	for _, entry := range synonymTable {
		if strings.Contains(query, entry.korean) {
			variants = append(variants, entry.variants...)
		}
	}
	return variants
}

// ContainsKorean reports whether s contains at least one Hangul rune.
func ContainsKorean(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Hangul, r) {
			return true
		}
	}
	return false
}
