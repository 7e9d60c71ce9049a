package utils

import (
	"fmt"
	"math/big"
	"strings"
)

var ten = big.NewInt(10)

// ScaleTo18 rescales an integer amount expressed with the given decimal
// precision to the 18-decimal fixed-point representation used on-chain.
// Precisions below 18 multiply; precisions above 18 integer-divide, truncating
// toward zero.
func ScaleTo18(value *big.Int, decimals int) *big.Int {
	if value == nil {
		return big.NewInt(0)
	}
	if decimals == 18 {
		return new(big.Int).Set(value)
	}
	if decimals < 18 {
		factor := new(big.Int).Exp(ten, big.NewInt(int64(18-decimals)), nil)
		return new(big.Int).Mul(value, factor)
	}
	factor := new(big.Int).Exp(ten, big.NewInt(int64(decimals-18)), nil)
	return new(big.Int).Quo(value, factor)
}

// FormatBigInt converts a big.Int value to a human-readable string,
// considering the given number of decimals.
// Example: amount=1234500000000000000, decimals=18 => "1.2345"
func FormatBigInt(amount *big.Int, decimals uint8) (string, error) {
	if amount == nil {
		return "0.0", nil
	}

	if decimals == 0 {
		return amount.String(), nil
	}

	amountFloat := new(big.Float).SetInt(amount)
	divisor := new(big.Float).SetInt(new(big.Int).Exp(ten, big.NewInt(int64(decimals)), nil))
	value := new(big.Float).Quo(amountFloat, divisor)

	formattedStr := value.Text('f', int(decimals))

	if strings.Contains(formattedStr, ".") {
		formattedStr = strings.TrimRight(formattedStr, "0")
		formattedStr = strings.TrimRight(formattedStr, ".")
	}
	if strings.HasPrefix(formattedStr, ".") {
		formattedStr = "0" + formattedStr
	}
	if formattedStr == "" && amount.Sign() == 0 {
		return "0", nil
	}
	if formattedStr == "" && amount.Sign() != 0 {
		return value.Text('f', 2), fmt.Errorf("formatting resulted in empty string for non-zero value")
	}

	return formattedStr, nil
}
