package registry

// ProviderLookup exposes the identifiers of the active default compute and
// embedding providers. The executor copies them into the run scope at start;
// step executors that call a model read them from there.
type ProviderLookup interface {
	DefaultModel() string
	DefaultEmbedder() string
}

// StaticProviders is a fixed ProviderLookup, used by the CLI and by tests.
type StaticProviders struct {
	Model    string
	Embedder string
}

// DefaultModel implements ProviderLookup.
func (p StaticProviders) DefaultModel() string { return p.Model }

// DefaultEmbedder implements ProviderLookup.
func (p StaticProviders) DefaultEmbedder() string { return p.Embedder }
