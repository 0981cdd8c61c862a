package treasury

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/artgap/treasury/pass"
	"github.com/artgap/treasury/rate"
	"github.com/artgap/treasury/types"
)

// FromViper builds engine options from a viper configuration. Every key
// is optional; absent keys keep their defaults.
//
// Recognized keys:
//
//	rates.<currency>            USD value of one unit (string decimal)
//	fees.platform               platform fee fraction
//	fees.network                network fee fraction
//	fees.platform_account       user ID credited with platform fees
//	fees.network_account        user ID credited with network fees
//	starter.<currency>          starter balance granted on account creation
//	mining.cooldown             quick-mine cooldown window (duration)
//	mining.session_duration     mining session length (duration)
//	mining.claim_reward         ARTC credited on session claim
//	mining.reward_min           lower bound of the quick-mine reward (whole ARTC)
//	mining.reward_max           upper bound of the quick-mine reward (whole ARTC)
//	nft.cost_artc               ARTC charge for a paid NFT creation
//	generation.ia               IA charge per generation
//	generation.artc             ARTC fallback charge per generation
//	passes.genesis_free_nft     free-NFT allowance on a genesis pass
//	passes.<tier>.<period>      USD price of a pass
func FromViper(v *viper.Viper) ([]Option, error) {
	var opts []Option

	dec := func(key string) (decimal.Decimal, error) {
		raw := v.GetString(key)
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("treasury: config %s: invalid decimal %q", key, raw)
		}
		return d, nil
	}

	var rateOpts []rate.Option
	for _, c := range types.Currencies() {
		key := "rates." + string(c)
		if !v.IsSet(key) {
			continue
		}
		d, err := dec(key)
		if err != nil {
			return nil, err
		}
		rateOpts = append(rateOpts, rate.WithRate(c, d))
	}
	if v.IsSet("fees.network") {
		d, err := dec("fees.network")
		if err != nil {
			return nil, err
		}
		rateOpts = append(rateOpts, rate.WithNetworkRate(d))
	}
	if len(rateOpts) > 0 {
		opts = append(opts, WithRateTable(rate.New(rateOpts...)))
	}

	if v.IsSet("fees.platform") {
		d, err := dec("fees.platform")
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithPlatformRate(d))
	}
	if v.IsSet("fees.platform_account") || v.IsSet("fees.network_account") {
		platform := v.GetString("fees.platform_account")
		network := v.GetString("fees.network_account")
		if platform == "" {
			platform = "platform"
		}
		if network == "" {
			network = "network"
		}
		opts = append(opts, WithFeeAccounts(platform, network))
	}

	starter := DefaultStarterBalances()
	starterSet := false
	for _, c := range types.Currencies() {
		key := "starter." + string(c)
		if !v.IsSet(key) {
			continue
		}
		d, err := dec(key)
		if err != nil {
			return nil, err
		}
		starter.Set(c, d)
		starterSet = true
	}
	if starterSet {
		opts = append(opts, WithStarterBalances(starter))
	}

	if v.IsSet("mining.cooldown") {
		opts = append(opts, WithCooldown(v.GetDuration("mining.cooldown")))
	}
	if v.IsSet("mining.session_duration") {
		opts = append(opts, WithSessionDuration(v.GetDuration("mining.session_duration")))
	}
	if v.IsSet("mining.claim_reward") {
		d, err := dec("mining.claim_reward")
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithClaimReward(d))
	}
	if v.IsSet("mining.reward_min") || v.IsSet("mining.reward_max") {
		min := DefaultMineRewardMin
		max := DefaultMineRewardMax
		if v.IsSet("mining.reward_min") {
			min = v.GetInt("mining.reward_min")
		}
		if v.IsSet("mining.reward_max") {
			max = v.GetInt("mining.reward_max")
		}
		opts = append(opts, WithRewardSource(RandomReward(min, max)))
	}

	if v.IsSet("nft.cost_artc") {
		d, err := dec("nft.cost_artc")
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithNFTCost(d))
	}
	if v.IsSet("generation.ia") || v.IsSet("generation.artc") {
		ia := DefaultGenerationIA
		artc := DefaultGenerationARTC
		var err error
		if v.IsSet("generation.ia") {
			if ia, err = dec("generation.ia"); err != nil {
				return nil, err
			}
		}
		if v.IsSet("generation.artc") {
			if artc, err = dec("generation.artc"); err != nil {
				return nil, err
			}
		}
		opts = append(opts, WithGenerationCosts(ia, artc))
	}

	if v.IsSet("passes.genesis_free_nft") {
		opts = append(opts, WithGenesisAllowance(v.GetInt("passes.genesis_free_nft")))
	}
	for _, tier := range []pass.Tier{pass.TierGenesis, pass.TierAurum, pass.TierEternum} {
		for _, period := range []pass.Period{pass.PeriodMonthly, pass.PeriodAnnual} {
			key := fmt.Sprintf("passes.%s.%s", tier, period)
			if !v.IsSet(key) {
				continue
			}
			d, err := dec(key)
			if err != nil {
				return nil, err
			}
			opts = append(opts, WithPassPrice(tier, period, d))
		}
	}

	return opts, nil
}
