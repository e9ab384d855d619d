package growth

import "math"

// safeDivide returns a/b, or ok=false when the denominator is zero or
// either operand is not finite.
func safeDivide(a, b float64) (float64, bool) {
	if b == 0 || math.IsNaN(a) || math.IsNaN(b) || math.IsInf(a, 0) || math.IsInf(b, 0) {
		return 0, false
	}
	return a / b, true
}

// ROE is net profit over shareholders' equity, as a percentage.
func ROE(netProfit, equity float64) (float64, bool) {
	v, ok := safeDivide(netProfit, equity)
	return v * 100, ok
}

// ROCE is EBIT over capital employed (total assets minus current
// liabilities), as a percentage.
func ROCE(ebit, capitalEmployed float64) (float64, bool) {
	v, ok := safeDivide(ebit, capitalEmployed)
	return v * 100, ok
}

func DebtEquity(totalDebt, equity float64) (float64, bool) {
	return safeDivide(totalDebt, equity)
}

func CurrentRatio(currentAssets, currentLiabilities float64) (float64, bool) {
	return safeDivide(currentAssets, currentLiabilities)
}

// InterestCoverage is EBIT over interest expense. A zero interest expense
// with positive EBIT has no meaningful ratio and is reported undefined.
func InterestCoverage(ebit, interestExpense float64) (float64, bool) {
	return safeDivide(ebit, interestExpense)
}

func PriceToBook(price, bookValue float64) (float64, bool) {
	return safeDivide(price, bookValue)
}

func PriceToEarnings(price, eps float64) (float64, bool) {
	return safeDivide(price, eps)
}

func EVEBITDA(enterpriseValue, ebitda float64) (float64, bool) {
	return safeDivide(enterpriseValue, ebitda)
}

// OPM is operating profit margin as a percentage.
func OPM(operatingProfit, revenue float64) (float64, bool) {
	v, ok := safeDivide(operatingProfit, revenue)
	return v * 100, ok
}

// NPM is net profit margin as a percentage.
func NPM(netProfit, revenue float64) (float64, bool) {
	v, ok := safeDivide(netProfit, revenue)
	return v * 100, ok
}

// OCFToNetProfit measures earnings quality: operating cash flow per unit
// of reported profit.
func OCFToNetProfit(ocf, netProfit float64) (float64, bool) {
	return safeDivide(ocf, netProfit)
}

// AltmanZ computes the Altman Z-Score:
// Z = 1.2(WC/TA) + 1.4(RE/TA) + 3.3(EBIT/TA) + 0.6(MVE/TL) + 1.0(Sales/TA).
// Missing component ratios contribute zero; a zero total-assets or
// total-liabilities base makes the whole score undefined.
func AltmanZ(workingCapital, retainedEarnings, ebit, marketValueEquity, sales, totalAssets, totalLiabilities float64) (float64, bool) {
	if totalAssets == 0 || totalLiabilities == 0 {
		return 0, false
	}
	term := func(num, den, weight float64) float64 {
		v, ok := safeDivide(num, den)
		if !ok {
			return 0
		}
		return weight * v
	}
	z := term(workingCapital, totalAssets, 1.2) +
		term(retainedEarnings, totalAssets, 1.4) +
		term(ebit, totalAssets, 3.3) +
		term(marketValueEquity, totalLiabilities, 0.6) +
		term(sales, totalAssets, 1.0)
	return z, true
}
