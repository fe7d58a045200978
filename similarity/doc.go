// Package similarity scores pairs of normalized images. A Scorer applies the
// aspect ratio pre-filter before calling the structural similarity Metric.
package similarity
