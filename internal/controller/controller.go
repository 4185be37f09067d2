/*

Feedback controller adjusting the redemption rate from the error between
redemption price and TWAP, and compounding the redemption price forward every
step. Rate updates happen on their own period; the rate is held between them.

*/

package controller

import (
	"fmt"
	"math"

	"github.com/pegdyn/pegsim/internal/logger"
	"github.com/pegdyn/pegsim/internal/types"
)

var ctrlLogger = logger.GetForComponent("controller")

// Controller holds the redemption price/rate state machine. With Ki and Kd
// zero it reduces to a pure proportional controller.
type Controller struct {
	kp, ki, kd   float64
	updatePeriod int

	redemptionPrice float64
	rate            float64 // per-step fraction

	integral   float64
	lastError  float64
	hasHistory bool
}

// New creates a controller from its tuning. updatePeriod is in steps.
func New(p types.ControllerParameters) (*Controller, error) {
	if p.UpdatePeriodSteps <= 0 {
		return nil, fmt.Errorf("%w: controller update period %d", types.ErrInvalidConfiguration, p.UpdatePeriodSteps)
	}
	if p.InitialRedemptionPrice <= 0 {
		return nil, fmt.Errorf("%w: initial redemption price %f", types.ErrInvalidConfiguration, p.InitialRedemptionPrice)
	}
	return &Controller{
		kp:              p.Kp,
		ki:              p.Ki,
		kd:              p.Kd,
		updatePeriod:    p.UpdatePeriodSteps,
		redemptionPrice: p.InitialRedemptionPrice,
	}, nil
}

// RedemptionPrice returns the current redemption price in USD.
func (c *Controller) RedemptionPrice() float64 {
	return c.redemptionPrice
}

// Rate returns the current per-step redemption rate.
func (c *Controller) Rate() float64 {
	return c.rate
}

// Advance runs one step of the controller: the redemption price compounds by
// the held rate, and on steps matching the update period the rate is
// recomputed from the supplied TWAP (USD). Returns ErrNumericDivergence if
// either quantity leaves the finite range or the redemption price is driven
// to zero or below.
func (c *Controller) Advance(step int, twapUSD float64) error {
	if !isFinite(twapUSD) {
		return fmt.Errorf("%w: twap %g at step %d", types.ErrNumericDivergence, twapUSD, step)
	}

	c.redemptionPrice *= 1 + c.rate
	if !isFinite(c.redemptionPrice) || c.redemptionPrice <= 0 {
		return fmt.Errorf("%w: redemption price %g at step %d", types.ErrNumericDivergence, c.redemptionPrice, step)
	}

	if step%c.updatePeriod == 0 {
		elapsed := float64(c.updatePeriod)
		err := c.redemptionPrice - twapUSD

		c.integral += err * elapsed
		var derivative float64
		if c.hasHistory {
			derivative = (err - c.lastError) / elapsed
		}
		c.lastError = err
		c.hasHistory = true

		c.rate = c.kp*err + c.ki*c.integral + c.kd*derivative
		if !isFinite(c.rate) {
			return fmt.Errorf("%w: redemption rate %g at step %d", types.ErrNumericDivergence, c.rate, step)
		}
		ctrlLogger.Debug().
			Int("step", step).
			Float64("error", err).
			Float64("rate", c.rate).
			Float64("redemptionPrice", c.redemptionPrice).
			Msg("Redemption rate updated")
	}
	return nil
}

// Project returns the redemption price compounded forward n steps at the
// current rate, redemption_price * (1 + rate)^n.
func (c *Controller) Project(n int) float64 {
	return c.redemptionPrice * math.Pow(1+c.rate, float64(n))
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
