package usecase

import (
	"fmt"
	"math/rand"

	"github.com/shopspring/decimal"
)

// Generation modes.
const (
	ModeFixed  = "fixed"
	ModeRandom = "random"
)

// Tier is a balance band for randomly generated agents.
type Tier struct {
	Name string
	Min  decimal.Decimal
	Max  decimal.Decimal
}

var (
	randomPrefixes = []string{"Apex", "Quantum", "Global", "Vanguard", "Horizon", "Titan"}
	randomSuffixes = []string{"Holdings", "Partners", "Capital", "Networks", "Systems"}
	randomAssets   = []string{"CRUDE_OIL", "GOLD_BULLION", "RARE_EARTH", "GRAIN", "SILICON"}

	defaultTiers = []Tier{
		{Name: "S", Min: decimal.NewFromInt(800_000_000), Max: decimal.NewFromInt(1_500_000_000)},
		{Name: "A", Min: decimal.NewFromInt(200_000_000), Max: decimal.NewFromInt(800_000_000)},
		{Name: "B", Min: decimal.NewFromInt(50_000_000), Max: decimal.NewFromInt(200_000_000)},
		{Name: "C", Min: decimal.NewFromInt(10_000_000), Max: decimal.NewFromInt(50_000_000)},
	}
)

const (
	minAssetQty = 100_000
	maxAssetQty = 5_000_000
)

// GeneratorConfig drives plan generation.
type GeneratorConfig struct {
	Mode           string
	Count          int
	NamePrefix     string // fixed mode: "<prefix> <i>"
	Suffix         string // fixed mode
	InitialBalance decimal.Decimal
	Bonus          decimal.Decimal // fixed mode credit after funding; zero skips it
}

// MarketGenerator produces onboarding plans.
type MarketGenerator struct {
	cfg   GeneratorConfig
	rng   *rand.Rand
	tiers []Tier
}

func NewMarketGenerator(cfg GeneratorConfig, rng *rand.Rand) *MarketGenerator {
	return &MarketGenerator{cfg: cfg, rng: rng, tiers: defaultTiers}
}

// Plans returns cfg.Count plans for the configured mode.
func (g *MarketGenerator) Plans() ([]AgentPlan, error) {
	if g.cfg.Count < 0 {
		return nil, fmt.Errorf("agent count must not be negative: %d", g.cfg.Count)
	}
	switch g.cfg.Mode {
	case ModeFixed, "":
		return g.fixed(), nil
	case ModeRandom:
		return g.random(), nil
	default:
		return nil, fmt.Errorf("unknown generation mode %q", g.cfg.Mode)
	}
}

func (g *MarketGenerator) fixed() []AgentPlan {
	plans := make([]AgentPlan, 0, g.cfg.Count)
	for i := 1; i <= g.cfg.Count; i++ {
		p := AgentPlan{
			Name:           fmt.Sprintf("%s %d", g.cfg.NamePrefix, i),
			Suffix:         g.cfg.Suffix,
			InitialBalance: g.cfg.InitialBalance,
		}
		if g.cfg.Bonus.IsPositive() {
			p.Adjustments = []LedgerAdjustment{{Op: AdjustCredit, Amount: g.cfg.Bonus}}
		}
		plans = append(plans, p)
	}
	return plans
}

func (g *MarketGenerator) random() []AgentPlan {
	plans := make([]AgentPlan, 0, g.cfg.Count)
	for i := 0; i < g.cfg.Count; i++ {
		tier := g.tiers[g.rng.Intn(len(g.tiers))]
		plans = append(plans, AgentPlan{
			Name:           fmt.Sprintf("%s %s", pick(g.rng, randomPrefixes), pick(g.rng, randomSuffixes)),
			Suffix:         "Tier " + tier.Name,
			InitialBalance: g.balanceIn(tier),
			Stocks:         g.stocks(),
		})
	}
	return plans
}

// balanceIn draws a whole amount in [tier.Min, tier.Max).
func (g *MarketGenerator) balanceIn(t Tier) decimal.Decimal {
	span := t.Max.Sub(t.Min).IntPart()
	if span <= 0 {
		return t.Min
	}
	return t.Min.Add(decimal.NewFromInt(g.rng.Int63n(span)))
}

// stocks picks 2 to 4 distinct assets.
func (g *MarketGenerator) stocks() []StockPlan {
	n := 2 + g.rng.Intn(3)
	order := g.rng.Perm(len(randomAssets))
	out := make([]StockPlan, 0, n)
	for _, idx := range order[:n] {
		out = append(out, StockPlan{
			Symbol:   randomAssets[idx],
			Quantity: minAssetQty + g.rng.Int63n(maxAssetQty-minAssetQty),
		})
	}
	return out
}

func pick(rng *rand.Rand, from []string) string {
	return from[rng.Intn(len(from))]
}
