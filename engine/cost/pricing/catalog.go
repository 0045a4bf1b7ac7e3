// Package pricing holds per-model token prices and the cheaper-model
// downgrade map used by the cost estimator.
package pricing

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGoogle    Provider = "google"
	ProviderGroq      Provider = "groq"
	ProviderDeepSeek  Provider = "deepseek"
)

var thousand = decimal.NewFromInt(1000)

// Price is the USD cost of one thousand tokens for a model.
type Price struct {
	Provider        Provider        `json:"provider"          yaml:"provider"`
	Model           string          `json:"model"             yaml:"model"`
	PromptPer1K     decimal.Decimal `json:"prompt_per_1k"     yaml:"prompt_per_1k"`
	CompletionPer1K decimal.Decimal `json:"completion_per_1k" yaml:"completion_per_1k"`
}

// Usage counts the tokens of one call.
type Usage struct {
	PromptTokens     int64 `json:"prompt_tokens"     yaml:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens" yaml:"completion_tokens"`
}

func (u Usage) Total() int64 { return u.PromptTokens + u.CompletionTokens }

// Cost returns the USD cost of one call with the given usage.
func (p Price) Cost(u Usage) decimal.Decimal {
	prompt := p.PromptPer1K.Mul(decimal.NewFromInt(u.PromptTokens)).Div(thousand)
	completion := p.CompletionPer1K.Mul(decimal.NewFromInt(u.CompletionTokens)).Div(thousand)
	return prompt.Add(completion)
}

type priceKey struct {
	provider Provider
	model    string
}

type Catalog struct {
	prices     map[priceKey]Price
	byModel    map[string]Price
	downgrades map[string]string
}

// NormalizeModel lowercases the model name and unifies separators so that
// "gpt:4o", "GPT-4o" and "gpt.4o" resolve to the same entry.
func NormalizeModel(model string) string {
	m := strings.ToLower(strings.TrimSpace(model))
	return strings.NewReplacer(":", "-", ".", "-", "_", "-", " ", "-").Replace(m)
}

func normalizeProvider(p Provider) Provider {
	return Provider(strings.ToLower(strings.TrimSpace(string(p))))
}

// NewCatalog indexes prices and validates the downgrade map: both sides must
// be priced, and no target may itself be downgraded again.
func NewCatalog(prices []Price, downgrades map[string]string) (*Catalog, error) {
	c := &Catalog{
		prices:     make(map[priceKey]Price, len(prices)),
		byModel:    make(map[string]Price, len(prices)),
		downgrades: make(map[string]string, len(downgrades)),
	}
	sorted := make([]Price, len(prices))
	copy(sorted, prices)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Provider < sorted[j].Provider })
	for _, p := range sorted {
		if p.Model == "" || p.Provider == "" {
			return nil, fmt.Errorf("price entry requires provider and model")
		}
		if p.PromptPer1K.IsNegative() || p.CompletionPer1K.IsNegative() {
			return nil, fmt.Errorf("price for %s/%s must not be negative", p.Provider, p.Model)
		}
		key := priceKey{normalizeProvider(p.Provider), NormalizeModel(p.Model)}
		if _, dup := c.prices[key]; dup {
			return nil, fmt.Errorf("duplicate price for %s/%s", p.Provider, p.Model)
		}
		c.prices[key] = p
		if _, ok := c.byModel[key.model]; !ok {
			c.byModel[key.model] = p
		}
	}
	for from, to := range downgrades {
		f, t := NormalizeModel(from), NormalizeModel(to)
		if _, ok := c.byModel[f]; !ok {
			return nil, fmt.Errorf("downgrade source %q has no price", from)
		}
		if _, ok := c.byModel[t]; !ok {
			return nil, fmt.Errorf("downgrade target %q has no price", to)
		}
		c.downgrades[f] = t
	}
	for from, to := range c.downgrades {
		if _, chained := c.downgrades[to]; chained {
			return nil, fmt.Errorf("downgrade target %q of %q is itself downgraded", to, from)
		}
	}
	return c, nil
}

// Lookup returns the price of model at provider.
func (c *Catalog) Lookup(provider Provider, model string) (Price, bool) {
	p, ok := c.prices[priceKey{normalizeProvider(provider), NormalizeModel(model)}]
	return p, ok
}

// LookupModel returns the price of model regardless of provider. When several
// providers serve the model, the alphabetically first provider wins.
func (c *Catalog) LookupModel(model string) (Price, bool) {
	p, ok := c.byModel[NormalizeModel(model)]
	return p, ok
}

// Downgrade returns the catalog name of the cheaper replacement for model.
func (c *Catalog) Downgrade(model string) (string, bool) {
	to, ok := c.downgrades[NormalizeModel(model)]
	if !ok {
		return "", false
	}
	return c.byModel[to].Model, true
}

// EstimateCost prices a call. Unknown models and empty usage report false.
func (c *Catalog) EstimateCost(provider Provider, model string, usage *Usage) (decimal.Decimal, bool) {
	if usage == nil || usage.Total() == 0 {
		return decimal.Zero, false
	}
	price, ok := c.Lookup(provider, model)
	if !ok {
		return decimal.Zero, false
	}
	return price.Cost(*usage), true
}

type catalogFile struct {
	Prices []struct {
		Provider        Provider `yaml:"provider"`
		Model           string   `yaml:"model"`
		PromptPer1K     string   `yaml:"prompt_per_1k"`
		CompletionPer1K string   `yaml:"completion_per_1k"`
	} `yaml:"prices"`
	Downgrades map[string]string `yaml:"downgrades"`
}

// ParseCatalog decodes a YAML catalog. Prices are decimal strings so that no
// precision is lost to float parsing.
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse pricing catalog: %w", err)
	}
	prices := make([]Price, 0, len(file.Prices))
	for _, entry := range file.Prices {
		prompt, err := decimal.NewFromString(entry.PromptPer1K)
		if err != nil {
			return nil, fmt.Errorf("model %s: invalid prompt price: %w", entry.Model, err)
		}
		completion, err := decimal.NewFromString(entry.CompletionPer1K)
		if err != nil {
			return nil, fmt.Errorf("model %s: invalid completion price: %w", entry.Model, err)
		}
		prices = append(prices, Price{
			Provider:        entry.Provider,
			Model:           entry.Model,
			PromptPer1K:     prompt,
			CompletionPer1K: completion,
		})
	}
	return NewCatalog(prices, file.Downgrades)
}

func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pricing catalog: %w", err)
	}
	return ParseCatalog(data)
}
