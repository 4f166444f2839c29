package index

import "github.com/woodway-ua/photoindex/internal/tokenizer"

// Vocabulary is the fixed keyword vocabulary that drives record flagging and
// query-intent detection. It is constructed once at startup and injected into
// the scanner and the search engine; it is never mutated afterwards.
type Vocabulary struct {
	// Stock tokens mark generic/background imagery (the Stock tree).
	Stock tokenizer.Set
	// Brand tokens identify manufacturers whose assets are surfaced first.
	Brand tokenizer.Set
	// Logo tokens mark brand-mark files in any script.
	Logo tokenizer.Set
}

// DefaultVocabulary returns the vocabulary observed on the production share:
// English, Ukrainian, and transliterated variants of the stock and brand
// terms.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Stock: tokenizer.NewSet("stock", "сток", "склад", "sklad"),
		Brand: tokenizer.NewSet("woodway", "ww", "байкал", "baykal", "шпон", "shpon"),
		Logo:  tokenizer.NewSet("logo", "лого", "логотип", "logotip"),
	}
}

// WantsStock reports whether a query token set explicitly asks for stock
// imagery.
func (v Vocabulary) WantsStock(tokens tokenizer.Set) bool {
	return tokens.Intersects(v.Stock)
}

// WantsBrand reports whether a query token set is brand related.
func (v Vocabulary) WantsBrand(tokens tokenizer.Set) bool {
	return tokens.Intersects(v.Brand)
}

// IsLogo reports whether a record token set contains a logo marker.
func (v Vocabulary) IsLogo(tokens tokenizer.Set) bool {
	return tokens.Intersects(v.Logo)
}
