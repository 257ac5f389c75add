// Package market fetches the exchange and gold rates used to value
// portfolios.
package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"spendwise/internal/cache"
	"spendwise/internal/core"
)

const (
	DefaultFiatURL   = "https://open.er-api.com/v6/latest/USD"
	DefaultCryptoURL = "https://api.coingecko.com/api/v3/simple/price?ids=pax-gold,bitcoin,ethereum&vs_currencies=usd"
	DefaultTimeout   = 10 * time.Second
	DefaultCacheTTL  = 15 * time.Minute

	goldCoinID = "pax-gold"

	// maxCachedBases bounds the currencies whose rates are cached at once.
	maxCachedBases = 16
)

// GramsPerTroyOunce converts the ounce price of PAXG to a gram price.
var GramsPerTroyOunce = decimal.RequireFromString("31.1035")

// ErrUpstream reports that a rate source failed or answered nonsense.
var ErrUpstream = errors.New("market data unavailable")

type Config struct {
	FiatURL   string
	CryptoURL string
	// Base is the currency used when a caller passes none.
	Base     string
	Timeout  time.Duration
	CacheTTL time.Duration
}

func (c Config) withDefaults() Config {
	if c.FiatURL == "" {
		c.FiatURL = DefaultFiatURL
	}
	if c.CryptoURL == "" {
		c.CryptoURL = DefaultCryptoURL
	}
	if c.Base == "" {
		c.Base = core.DefaultCurrency
	}
	c.Base = strings.ToUpper(c.Base)
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	return c
}

// Client fetches both sources concurrently. Concurrent fetches of one
// base currency share a single upstream round trip and results are cached
// per base for CacheTTL.
type Client struct {
	cfg   Config
	http  *http.Client
	group singleflight.Group
	cache *cache.LRUCache[core.MarketRates]
	now   func() time.Time
}

func New(cfg Config) *Client {
	cfg = cfg.withDefaults()
	return &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: cfg.Timeout},
		cache: cache.NewLRUCache[core.MarketRates](maxCachedBases, cfg.CacheTTL),
		now:   time.Now,
	}
}

// Rates returns the cached rates of base, fetching them when the cache is
// cold or expired. An empty base means Config.Base.
func (c *Client) Rates(ctx context.Context, base string) (core.MarketRates, error) {
	base = c.baseOf(base)
	if r, ok := c.cache.Get(base); ok {
		return r, nil
	}
	return c.Refresh(ctx, base)
}

// Refresh bypasses the cache and stores the fetched rates in it.
func (c *Client) Refresh(ctx context.Context, base string) (core.MarketRates, error) {
	base = c.baseOf(base)
	v, err, _ := c.group.Do(base, func() (any, error) {
		r, err := c.fetch(ctx, base)
		if err != nil {
			return core.MarketRates{}, err
		}
		c.cache.Set(base, r)
		return r, nil
	})
	if err != nil {
		return core.MarketRates{}, err
	}
	return v.(core.MarketRates), nil
}

func (c *Client) baseOf(base string) string {
	base = strings.ToUpper(strings.TrimSpace(base))
	if base == "" {
		return c.cfg.Base
	}
	return base
}

type fiatResponse struct {
	Result string                     `json:"result"`
	Rates  map[string]decimal.Decimal `json:"rates"`
}

type priceResponse map[string]map[string]decimal.Decimal

func (c *Client) fetch(ctx context.Context, base string) (core.MarketRates, error) {
	var (
		fiat   fiatResponse
		prices priceResponse
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.getJSON(gctx, c.cfg.FiatURL, &fiat) })
	g.Go(func() error { return c.getJSON(gctx, c.cfg.CryptoURL, &prices) })
	if err := g.Wait(); err != nil {
		return core.MarketRates{}, err
	}

	if fiat.Result != "" && fiat.Result != "success" {
		return core.MarketRates{}, fmt.Errorf("%w: fiat result %q", ErrUpstream, fiat.Result)
	}
	paxg, ok := prices[goldCoinID]["usd"]
	if !ok {
		return core.MarketRates{}, fmt.Errorf("%w: no %s price", ErrUpstream, goldCoinID)
	}
	return Compute(fiat.Rates, paxg, base, c.now().UTC())
}

// Compute derives the base-currency rates from USD-based fiat rates and
// the USD ounce price of gold:
//
//	usd  = rates[base]
//	eur  = usd / rates["EUR"]
//	gold = paxg / 31.1035 * usd
//
// Gold is rounded to 2 places, usd and eur to 4.
func Compute(rates map[string]decimal.Decimal, paxgUSD decimal.Decimal, base string, at time.Time) (core.MarketRates, error) {
	usd, ok := rates[strings.ToUpper(base)]
	if !ok || !usd.IsPositive() {
		return core.MarketRates{}, fmt.Errorf("%w: no %s rate", ErrUpstream, base)
	}
	eurPerUSD, ok := rates["EUR"]
	if !ok || !eurPerUSD.IsPositive() {
		return core.MarketRates{}, fmt.Errorf("%w: no EUR rate", ErrUpstream)
	}
	if !paxgUSD.IsPositive() {
		return core.MarketRates{}, fmt.Errorf("%w: non-positive gold price", ErrUpstream)
	}
	return core.MarketRates{
		Gold:      paxgUSD.Div(GramsPerTroyOunce).Mul(usd).Round(2),
		USD:       usd.Round(4),
		EUR:       usd.Div(eurPerUSD).Round(4),
		UpdatedAt: at,
	}, nil
}

func (c *Client) getJSON(ctx context.Context, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		return fmt.Errorf("%w: %s answered %d", ErrUpstream, req.URL.Host, resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(dst); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrUpstream, req.URL.Host, err)
	}
	return nil
}
