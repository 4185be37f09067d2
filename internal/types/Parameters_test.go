package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validParams() SimulationParameters {
	return SimulationParameters{
		Seed:               1,
		NumAgents:          10,
		Days:               365,
		PricePath:          PricePathRandomWalk,
		InitialRefPriceUSD: 1500,
		FinalRefPriceUSD:   2500,
		LowerRefPriceUSD:   800,
		UpperRefPriceUSD:   5000,
		RandomWalkStd:      10,
		RewardTokensPerDay: 334,
		RewardTokenSupply:  1_000_000,
		InitialPoolStable:  10_000_000,
		InitialPoolRef:     20_940,
		TwapHorizonSteps:   16,
		Proportions: AgentProportions{
			LiquidityApePercent: 60,
			ShorterPercent:      20,
			TrendLongPercent:    20,
		},
		Controller: ControllerParameters{Kp: 0.00023, UpdatePeriodSteps: 4},
	}
}

func TestValidate_AcceptsReferenceConfiguration(t *testing.T) {
	require.NoError(t, validParams().Validate())
}

func TestValidate_RejectsBadFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*SimulationParameters)
	}{
		{"zero agents", func(p *SimulationParameters) { p.NumAgents = 0 }},
		{"zero days", func(p *SimulationParameters) { p.Days = 0 }},
		{"empty pool", func(p *SimulationParameters) { p.InitialPoolStable = 0 }},
		{"zero twap horizon", func(p *SimulationParameters) { p.TwapHorizonSteps = 0 }},
		{"zero reward supply", func(p *SimulationParameters) { p.RewardTokenSupply = 0 }},
		{"negative emission", func(p *SimulationParameters) { p.RewardTokensPerDay = -1 }},
		{"proportions under 100", func(p *SimulationParameters) { p.Proportions.TrendLongPercent = 10 }},
		{"negative proportion", func(p *SimulationParameters) {
			p.Proportions.ShorterPercent = -20
			p.Proportions.TrendLongPercent = 60
		}},
		{"unknown price path", func(p *SimulationParameters) { p.PricePath = "sinusoid" }},
		{"walk start out of bounds", func(p *SimulationParameters) { p.InitialRefPriceUSD = 100 }},
		{"walk end out of bounds", func(p *SimulationParameters) { p.FinalRefPriceUSD = 9000 }},
		{"zero walk std", func(p *SimulationParameters) { p.RandomWalkStd = 0 }},
		{"zero controller period", func(p *SimulationParameters) { p.Controller.UpdatePeriodSteps = 0 }},
		{"negative redemption price", func(p *SimulationParameters) { p.Controller.InitialRedemptionPrice = -1 }},
		{"inverted agent range", func(p *SimulationParameters) {
			p.Shorter.StopLoss = UniformRange{Lower: 20, Upper: 5}
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validParams()
			tc.mutate(&p)
			require.ErrorIs(t, p.Validate(), ErrInvalidConfiguration)
		})
	}
}

func TestValidate_ConstantPathIgnoresWalkFields(t *testing.T) {
	p := validParams()
	p.PricePath = PricePathConstant
	p.RandomWalkStd = 0
	p.LowerRefPriceUSD = 0
	p.UpperRefPriceUSD = 0

	require.NoError(t, p.Validate())
}
