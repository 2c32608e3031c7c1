package instrument

import (
	"log/slog"

	"github.com/rickgao/ibmirror/internal/market"
	"github.com/rickgao/ibmirror/internal/model"
)

// Default routing for the contract shortcuts.
const (
	DefaultExchange       = "SMART"
	DefaultFutureExchange = "GLOBEX"
	DefaultCurrency       = "USD"
)

// ContractOption overrides a field of a shortcut-built instrument.
type ContractOption func(*model.Instrument)

// WithExchange sets the routing venue.
func WithExchange(exchange string) ContractOption {
	return func(i *model.Instrument) {
		i.Exchange = exchange
	}
}

// WithCurrency sets the currency.
func WithCurrency(currency string) ContractOption {
	return func(i *model.Instrument) {
		i.Currency = currency
	}
}

// Builder constructs instruments and binds them to subscription ids.
type Builder struct {
	registry *market.Registry
	logger   *slog.Logger
}

// NewBuilder creates a Builder backed by registry.
func NewBuilder(registry *market.Registry, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		registry: registry,
		logger:   logger,
	}
}

// Key derives the canonical key for inst, falling back to the bare symbol
// when the class rule cannot be applied.
func (b *Builder) Key(inst model.Instrument) string {
	key, err := CanonicalKey(inst)
	if err != nil {
		b.logger.Warn("falling back to bare symbol for instrument key",
			"symbol", inst.Symbol,
			"sec_type", inst.SecType,
			"error", err,
		)
		return inst.Symbol
	}
	return key
}

// Build stamps inst with its canonical key, resolves the subscription id
// and binds the instrument to it.
func (b *Builder) Build(inst model.Instrument) (model.Instrument, int) {
	inst.Key = b.Key(inst)
	id := b.registry.Resolve(inst.Key)
	b.registry.Bind(id, inst)
	return inst, id
}

// Stock builds an equity contract.
func (b *Builder) Stock(symbol string, opts ...ContractOption) (model.Instrument, int) {
	inst := model.Instrument{
		Symbol:   symbol,
		SecType:  model.SecTypeStock,
		Exchange: DefaultExchange,
		Currency: DefaultCurrency,
	}
	return b.build(inst, opts)
}

// Future builds a futures contract.
func (b *Builder) Future(symbol, expiry string, opts ...ContractOption) (model.Instrument, int) {
	inst := model.Instrument{
		Symbol:   symbol,
		SecType:  model.SecTypeFuture,
		Exchange: DefaultFutureExchange,
		Currency: DefaultCurrency,
		Expiry:   expiry,
	}
	return b.build(inst, opts)
}

// Option builds an equity option contract.
func (b *Builder) Option(symbol, expiry string, strike float64, right string, opts ...ContractOption) (model.Instrument, int) {
	return b.option(model.SecTypeOption, symbol, expiry, strike, right, opts)
}

// FutureOption builds an option on a future.
func (b *Builder) FutureOption(symbol, expiry string, strike float64, right string, opts ...ContractOption) (model.Instrument, int) {
	return b.option(model.SecTypeFutureOption, symbol, expiry, strike, right, opts)
}

// Cash builds an FX pair, e.g. Cash("EUR", WithCurrency("USD")).
func (b *Builder) Cash(symbol string, opts ...ContractOption) (model.Instrument, int) {
	inst := model.Instrument{
		Symbol:   symbol,
		SecType:  model.SecTypeCash,
		Exchange: DefaultExchange,
		Currency: DefaultCurrency,
	}
	return b.build(inst, opts)
}

func (b *Builder) option(secType, symbol, expiry string, strike float64, right string, opts []ContractOption) (model.Instrument, int) {
	if right == "" {
		right = model.RightCall
	}
	inst := model.Instrument{
		Symbol:   symbol,
		SecType:  secType,
		Exchange: DefaultExchange,
		Currency: DefaultCurrency,
		Expiry:   expiry,
		Strike:   strike,
		Right:    right,
	}
	return b.build(inst, opts)
}

func (b *Builder) build(inst model.Instrument, opts []ContractOption) (model.Instrument, int) {
	for _, opt := range opts {
		opt(&inst)
	}
	return b.Build(inst)
}
