// Package indicators provides rolling statistics over price series. All
// functions return a slice aligned to the input length, with NaN for the
// warmup bars that do not yet have a full look-back window.
package indicators

import "math"

// SMA computes the simple moving average over the last p points.
func SMA(x []float64, p int) []float64 {
	if p <= 0 {
		return nil
	}
	out := make([]float64, len(x))
	var sum float64
	for i := range x {
		sum += x[i]
		if i < p-1 {
			out[i] = math.NaN()
			continue
		}
		if i >= p {
			sum -= x[i-p]
		}
		out[i] = sum / float64(p)
	}
	return out
}

// RollingStd computes the rolling sample standard deviation over window p.
func RollingStd(x []float64, p int) []float64 {
	if p <= 1 {
		return nil
	}
	out := make([]float64, len(x))
	var sum, sum2 float64
	for i := range x {
		sum += x[i]
		sum2 += x[i] * x[i]
		if i < p-1 {
			out[i] = math.NaN()
			continue
		}
		if i >= p {
			sum -= x[i-p]
			sum2 -= x[i-p] * x[i-p]
		}
		n := float64(p)
		v := (sum2 - sum*sum/n) / (n - 1)
		if v < 0 {
			v = 0
		}
		out[i] = math.Sqrt(v)
	}
	return out
}

// ZScore computes (x - SMA(x,p)) / RollingStd(x,p). Bars with zero or
// undefined deviation yield NaN.
func ZScore(x []float64, p int) []float64 {
	mean := SMA(x, p)
	std := RollingStd(x, p)
	if mean == nil || std == nil {
		return nil
	}
	out := make([]float64, len(x))
	for i := range x {
		if math.IsNaN(mean[i]) || math.IsNaN(std[i]) || std[i] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = (x[i] - mean[i]) / std[i]
	}
	return out
}

// RSI computes the relative strength index over period p using rolling mean
// gains and losses. When there are no losses in the window the value
// saturates at 100.
func RSI(x []float64, p int) []float64 {
	if p <= 0 || len(x) == 0 {
		return nil
	}
	out := make([]float64, len(x))
	gains := make([]float64, len(x))
	losses := make([]float64, len(x))
	out[0] = math.NaN()
	for i := 1; i < len(x); i++ {
		d := x[i] - x[i-1]
		if d > 0 {
			gains[i] = d
		} else {
			losses[i] = -d
		}
	}
	var gainSum, lossSum float64
	for i := 1; i < len(x); i++ {
		gainSum += gains[i]
		lossSum += losses[i]
		if i < p {
			out[i] = math.NaN()
			continue
		}
		if i > p {
			gainSum -= gains[i-p]
			lossSum -= losses[i-p]
		}
		avgGain := gainSum / float64(p)
		avgLoss := lossSum / float64(p)
		switch {
		case avgLoss == 0 && avgGain == 0:
			out[i] = 50
		case avgLoss == 0:
			out[i] = 100
		default:
			rs := avgGain / avgLoss
			out[i] = 100 - 100/(1+rs)
		}
	}
	return out
}

// WilliamsR computes Williams %R over period p:
// ((highestHigh - close) / (highestHigh - lowestLow)) * -100.
// A zero price range yields NaN.
func WilliamsR(high, low, close []float64, p int) []float64 {
	if p <= 0 || len(close) == 0 || len(high) != len(close) || len(low) != len(close) {
		return nil
	}
	out := make([]float64, len(close))
	for i := range close {
		if i < p-1 {
			out[i] = math.NaN()
			continue
		}
		hh := math.Inf(-1)
		ll := math.Inf(1)
		for j := i - p + 1; j <= i; j++ {
			if high[j] > hh {
				hh = high[j]
			}
			if low[j] < ll {
				ll = low[j]
			}
		}
		if hh == ll {
			out[i] = math.NaN()
			continue
		}
		out[i] = (hh - close[i]) / (hh - ll) * -100
	}
	return out
}

// RollingVolatility computes the rolling sample standard deviation of simple
// returns over window p.
func RollingVolatility(x []float64, p int) []float64 {
	if p <= 1 || len(x) == 0 {
		return nil
	}
	rets := make([]float64, len(x))
	rets[0] = math.NaN()
	for i := 1; i < len(x); i++ {
		if x[i-1] == 0 {
			rets[i] = math.NaN()
			continue
		}
		rets[i] = x[i]/x[i-1] - 1
	}
	out := make([]float64, len(x))
	for i := range x {
		// window needs p returns, the first of which exists at index 1
		if i < p {
			out[i] = math.NaN()
			continue
		}
		var sum, sum2 float64
		ok := true
		for j := i - p + 1; j <= i; j++ {
			if math.IsNaN(rets[j]) {
				ok = false
				break
			}
			sum += rets[j]
			sum2 += rets[j] * rets[j]
		}
		if !ok {
			out[i] = math.NaN()
			continue
		}
		n := float64(p)
		v := (sum2 - sum*sum/n) / (n - 1)
		if v < 0 {
			v = 0
		}
		out[i] = math.Sqrt(v)
	}
	return out
}
