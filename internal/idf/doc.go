// Package idf estimates rainfall Intensity-Duration-Frequency relations from
// annual maximum precipitation series.
//
// # Method
//
// Annual maxima are modeled per duration with the Gumbel extreme-value
// distribution, fitted by the method of moments:
//
//	beta = sqrt(6 * variance) / pi
//	mu   = mean - beta * gamma        (gamma = Euler-Mascheroni constant)
//
// For a return period T (years), the non-exceedance probability is
// F = 1 - 1/T and the reduced Gumbel variate Y = -ln(-ln(F)). The estimated
// rainfall depth for a duration is mu + beta*Y, and the intensity is depth
// divided by the duration in hours.
//
// The intensity-duration relation for a fixed return period is then
// summarized with the Montana power law
//
//	I = b * t^(-a)
//
// where a and b come from an ordinary least-squares regression of ln(I)
// against ln(t): a = -slope, b = exp(intercept). The fit quality is reported
// as the squared Pearson correlation of the log-log points.
//
// # Degenerate Inputs
//
// A duration column with non-positive sample variance (constant or
// single-point series) has no meaningful Gumbel scale. Fitting such a column
// does not fail; it produces NaN parameters which propagate through depth,
// intensity and Montana tables, and the affected durations are reported so
// callers can surface a data-quality warning. Likewise the Montana fitter
// excludes non-positive and NaN intensities (their logarithm is undefined)
// and reports return periods with fewer than two usable points as skipped.
package idf
