package hotstate

import "github.com/goliatone/go-hotstate/reactive"

// Option configures Serialize and Revive.
type Option func(*config)

type config struct {
	classifier  Classifier
	cellFactory func() reactive.Writable
	logger      Logger
}

func applyOptions(opts []Option) config {
	cfg := config{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.classifier == nil {
		cfg.classifier = DefaultClassifier
	}
	if cfg.cellFactory == nil {
		cfg.cellFactory = newRef
	}
	if cfg.logger == nil {
		cfg.logger = noopLogger{}
	}
	return cfg
}

// WithClassifier replaces DefaultClassifier. Hosts use it to mark their own
// types as opaque (KindCallable, KindDerived) or to expose other cell types.
func WithClassifier(classifier Classifier) Option {
	return func(cfg *config) {
		cfg.classifier = classifier
	}
}

// WithCellFactory sets the constructor used when Revive has to allocate a cell
// because none could be located in the destination.
func WithCellFactory(factory func() reactive.Writable) Option {
	return func(cfg *config) {
		cfg.cellFactory = factory
	}
}

func newRef() reactive.Writable {
	return reactive.NewRef(nil)
}
