package reporting

import (
	"fmt"
	"strings"

	"github.com/pegdyn/pegsim/internal/types"
)

// RenderSeriesCSV renders a run's primary time series as a CSV string.
func RenderSeriesCSV(points []types.SeriesPoint) string {
	var sb strings.Builder

	sb.WriteString("step,ref_price_usd,spot_price,market_price_usd,twap_usd,redemption_price,redemption_rate\n")

	for _, p := range points {
		sb.WriteString(fmt.Sprintf("%d,%.6f,%.10f,%.6f,%.6f,%.6f,%.10f\n",
			p.Step,
			p.RefPriceUSD,
			p.SpotPrice,
			p.MarketPriceUSD,
			p.TwapUSD,
			p.RedemptionPrice,
			p.RedemptionRate,
		))
	}

	return sb.String()
}

// RenderDiagnosticsCSV renders the optional per-agent diagnostic series.
func RenderDiagnosticsCSV(diags []types.AgentDiagnostic) string {
	var sb strings.Builder

	sb.WriteString("step,agent_id,kind,expected_return,pool_share\n")

	for _, d := range diags {
		sb.WriteString(fmt.Sprintf("%d,%s,%s,%.6f,%.10f\n",
			d.Step,
			d.AgentID,
			d.Kind,
			d.ExpectedReturn,
			d.PoolShare,
		))
	}

	return sb.String()
}
