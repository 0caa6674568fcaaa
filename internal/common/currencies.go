package common

import (
	"fmt"
	"os"
	"path/filepath"

	"wallet-node-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

// NodeSeed is the node endpoint section of a currency entry.
type NodeSeed struct {
	RpcUrl      string            `yaml:"rpc_url"`
	RpcUsername string            `yaml:"rpc_username"`
	RpcPassword string            `yaml:"rpc_password"`
	Headers     map[string]string `yaml:"headers"`
}

// CurrencySeed is one entry of the currencies file.
type CurrencySeed struct {
	Code      string    `yaml:"code"`
	Name      string    `yaml:"name"`
	Precision int       `yaml:"precision"`
	Crypto    bool      `yaml:"crypto"`
	Network   string    `yaml:"network"`
	Node      *NodeSeed `yaml:"node"`
}

// PlanSeed is one membership plan entry of the currencies file.
type PlanSeed struct {
	Id           string `yaml:"id"`
	Name         string `yaml:"name"`
	Currency     string `yaml:"currency"`
	Amount       string `yaml:"amount"`
	DurationDays int    `yaml:"duration_days"`
}

// UpgradeRuleSeed permits an upgrade path between two seeded plans.
type UpgradeRuleSeed struct {
	FromPlan       string `yaml:"from_plan"`
	ToPlan         string `yaml:"to_plan"`
	AdditionalCost string `yaml:"additional_cost"`
}

type seedFile struct {
	Currencies   []CurrencySeed    `yaml:"currencies"`
	Plans        []PlanSeed        `yaml:"plans"`
	UpgradeRules []UpgradeRuleSeed `yaml:"upgrade_rules"`
}

// SeedData is the parsed contents of the currencies file.
type SeedData struct {
	Currencies   []CurrencySeed
	Plans        []models.MembershipPlan
	UpgradeRules []models.MembershipUpgradeRule
}

// LoadSeedData reads and validates the currencies YAML file used by setup.
func LoadSeedData(currenciesFile string) (*SeedData, error) {
	var path string
	if filepath.IsAbs(currenciesFile) {
		path = currenciesFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		path = filepath.Join(wd, currenciesFile)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", currenciesFile, err)
	}

	var parsed seedFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", currenciesFile, err)
	}

	seed := &SeedData{Currencies: parsed.Currencies}
	for i, currency := range parsed.Currencies {
		if currency.Code == "" {
			return nil, fmt.Errorf("currency at index %d missing code", i)
		}
		if currency.Node != nil && currency.Node.RpcUrl == "" {
			return nil, fmt.Errorf("currency %s has a node section without rpc_url", currency.Code)
		}
	}

	for i, plan := range parsed.Plans {
		if plan.Id == "" || plan.Currency == "" {
			return nil, fmt.Errorf("plan at index %d missing id or currency", i)
		}
		amount, err := decimal.NewFromString(plan.Amount)
		if err != nil {
			return nil, fmt.Errorf("plan %s has invalid amount %q: %w", plan.Id, plan.Amount, err)
		}
		durationDays := plan.DurationDays
		if durationDays <= 0 {
			durationDays = 30
		}
		seed.Plans = append(seed.Plans, models.MembershipPlan{
			Id:           plan.Id,
			Name:         plan.Name,
			CurrencyCode: plan.Currency,
			Amount:       amount,
			DurationDays: durationDays,
			IsActive:     true,
		})
	}

	for i, rule := range parsed.UpgradeRules {
		if rule.FromPlan == "" || rule.ToPlan == "" {
			return nil, fmt.Errorf("upgrade rule at index %d missing plan ids", i)
		}
		cost := decimal.Zero
		if rule.AdditionalCost != "" {
			if cost, err = decimal.NewFromString(rule.AdditionalCost); err != nil {
				return nil, fmt.Errorf("upgrade rule %s -> %s has invalid cost %q: %w",
					rule.FromPlan, rule.ToPlan, rule.AdditionalCost, err)
			}
		}
		seed.UpgradeRules = append(seed.UpgradeRules, models.MembershipUpgradeRule{
			FromPlanId:     rule.FromPlan,
			ToPlanId:       rule.ToPlan,
			AdditionalCost: cost,
			IsActive:       true,
		})
	}

	return seed, nil
}
