package simulated

import (
	"errors"
	"math/big"
)

var (
	ErrInsufficientLiquidity   = errors.New("insufficient liquidity")
	ErrInsufficientInputAmount = errors.New("insufficient input amount")
)

// feeDenominator is the unit of pool fees: hundredths of a bip.
var feeDenominator = big.NewInt(1_000_000)

// getAmountOut prices an exact input against constant-product reserves.
func getAmountOut(amountIn, reserveIn, reserveOut *big.Int, fee uint64) (*big.Int, error) {
	if amountIn.Sign() <= 0 {
		return nil, ErrInsufficientInputAmount
	}
	if reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, ErrInsufficientLiquidity
	}
	withFee := new(big.Int).Mul(amountIn, new(big.Int).Sub(feeDenominator, new(big.Int).SetUint64(fee)))
	num := new(big.Int).Mul(withFee, reserveOut)
	den := new(big.Int).Add(new(big.Int).Mul(reserveIn, feeDenominator), withFee)
	return num.Quo(num, den), nil
}

// getAmountIn prices an exact output, rounding the input up.
func getAmountIn(amountOut, reserveIn, reserveOut *big.Int, fee uint64) (*big.Int, error) {
	if amountOut.Sign() <= 0 {
		return nil, ErrInsufficientLiquidity
	}
	if reserveIn.Sign() <= 0 || amountOut.Cmp(reserveOut) >= 0 {
		return nil, ErrInsufficientLiquidity
	}
	num := new(big.Int).Mul(new(big.Int).Mul(reserveIn, amountOut), feeDenominator)
	den := new(big.Int).Mul(new(big.Int).Sub(reserveOut, amountOut), new(big.Int).Sub(feeDenominator, new(big.Int).SetUint64(fee)))
	num.Quo(num, den)
	return num.Add(num, big.NewInt(1)), nil
}
