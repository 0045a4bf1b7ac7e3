package pricing

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

func price(provider Provider, model, prompt, completion string) Price {
	return Price{
		Provider:        provider,
		Model:           model,
		PromptPer1K:     decimal.RequireFromString(prompt),
		CompletionPer1K: decimal.RequireFromString(completion),
	}
}

func defaultPrices() []Price {
	return []Price{
		price(ProviderOpenAI, "gpt-4o", "0.005", "0.015"),
		price(ProviderOpenAI, "gpt-4o-mini", "0.00015", "0.0006"),
		price(ProviderOpenAI, "gpt-4-turbo", "0.01", "0.03"),
		price(ProviderOpenAI, "o1", "0.015", "0.06"),
		price(ProviderOpenAI, "text-embedding-3-small", "0.00002", "0"),
		price(ProviderOpenAI, "text-embedding-3-large", "0.00013", "0"),
		price(ProviderAnthropic, "claude-3-opus", "0.015", "0.075"),
		price(ProviderAnthropic, "claude-3-5-sonnet", "0.003", "0.015"),
		price(ProviderAnthropic, "claude-3-haiku", "0.00025", "0.00125"),
		price(ProviderGoogle, "gemini-1.5-pro", "0.00125", "0.005"),
		price(ProviderGoogle, "gemini-1.5-flash", "0.000075", "0.0003"),
		price(ProviderGroq, "llama-3.1-70b", "0.00059", "0.00079"),
		price(ProviderGroq, "llama-3.1-8b", "0.00005", "0.00008"),
		price(ProviderDeepSeek, "deepseek-chat", "0.00027", "0.0011"),
	}
}

func defaultDowngrades() map[string]string {
	return map[string]string{
		"gpt-4o":                 "gpt-4o-mini",
		"gpt-4-turbo":            "gpt-4o-mini",
		"o1":                     "gpt-4o-mini",
		"text-embedding-3-large": "text-embedding-3-small",
		"claude-3-opus":          "claude-3-haiku",
		"claude-3-5-sonnet":      "claude-3-haiku",
		"gemini-1.5-pro":         "gemini-1.5-flash",
		"llama-3.1-70b":          "llama-3.1-8b",
	}
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the built-in catalog.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := NewCatalog(defaultPrices(), defaultDowngrades())
		if err != nil {
			panic(fmt.Sprintf("pricing: invalid default catalog: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Lookup resolves a price in the default catalog.
func Lookup(provider Provider, model string) (Price, bool) {
	return Default().Lookup(provider, model)
}

// EstimateCostUSD prices a call against the default catalog.
func EstimateCostUSD(provider Provider, model string, usage *Usage) (decimal.Decimal, bool) {
	return Default().EstimateCost(provider, model, usage)
}
