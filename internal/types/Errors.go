/*

This file contains the error taxonomy shared by the simulation engine.

*/

package types

import "errors"

var (
	// ErrInvalidAmount indicates a non-positive or malformed swap/deposit amount.
	// A correct agent never requests one, so callers treat it as a programming
	// error and abort the run.
	ErrInvalidAmount = errors.New("invalid amount: must be strictly positive")

	// ErrPoolDepleted indicates an operation on a pool whose reserves are zero
	// or would be driven to zero/negative. A legitimate emergent end state.
	ErrPoolDepleted = errors.New("pool depleted: operation would exhaust reserves")

	// ErrInsufficientShares indicates a share burn exceeding the recorded balance.
	ErrInsufficientShares = errors.New("insufficient liquidity shares for burn")

	// ErrInvalidConfiguration indicates malformed simulation parameters,
	// detected before any step executes.
	ErrInvalidConfiguration = errors.New("invalid simulation configuration")

	// ErrNumericDivergence indicates a non-finite price, rate, or redemption
	// price. Surfaced as a terminal condition of the run, never swallowed.
	ErrNumericDivergence = errors.New("numeric divergence: non-finite value produced")

	// ErrSafeNotFound indicates a lookup of a safe ID that was never opened
	// or has already been closed.
	ErrSafeNotFound = errors.New("safe not found")

	// ErrUndercollateralized indicates a safe mutation that would leave it
	// below the minimum collateralization ratio.
	ErrUndercollateralized = errors.New("safe would fall below minimum collateralization")
)
