package translation

import "context"

// Result is the outcome of a batch translation: either a positionally
// aligned list of outputs, or unavailable.
type Result struct {
	outputs   []string
	available bool
}

// Translated wraps outputs, where outputs[i] is the translation of texts[i].
func Translated(outputs []string) Result {
	return Result{outputs: outputs, available: true}
}

// Unavailable signals that the caller should fall back to source text.
func Unavailable() Result {
	return Result{}
}

// Outputs returns the translated strings and whether they are usable.
func (r Result) Outputs() ([]string, bool) {
	return r.outputs, r.available
}

// Available reports whether r carries translations.
func (r Result) Available() bool {
	return r.available
}

// Translator translates an ordered batch of short strings. Implementations
// never fail the caller: upstream problems degrade to Unavailable.
type Translator interface {
	TranslateBatch(ctx context.Context, texts []string, sourceLang, targetLang string) Result
}
