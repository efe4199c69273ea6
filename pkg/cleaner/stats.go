// pkg/cleaner/stats.go
package cleaner

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/David-Botos/customer-ingress/pkg/model"
)

// toString converts a value to string
func toString(v interface{}) string {
	if v == nil {
		return ""
	}

	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case model.Category:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

// toFloat coerces a value to float64. ok is false for missing or non-numeric values.
func toFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case nil:
		return 0, false
	case float64:
		if math.IsNaN(val) {
			return 0, false
		}
		return val, true
	case float32:
		return toFloat(float64(val))
	case int64:
		return float64(val), true
	case int:
		return float64(val), true
	case int32:
		return float64(val), true
	case string:
		cleaned := strings.TrimSpace(val)
		if cleaned == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// median returns the middle value of xs, averaging the two middle values for even lengths.
// xs must not be empty.
func median(xs []float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// quantile returns the p-quantile of sorted by linear interpolation between
// order statistics at h = (n-1)p (numpy's default, R type 7)
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}

	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// quantileEdges returns the q+1 edges splitting sorted into q equal-frequency buckets
func quantileEdges(sorted []float64, q int) []float64 {
	edges := make([]float64, q+1)
	for i := 0; i <= q; i++ {
		edges[i] = quantile(sorted, float64(i)/float64(q))
	}
	return edges
}

// bucketFor returns the bucket of x given ascending edges. Buckets are right-closed,
// the first one also includes its left edge, so a value on an edge falls in the lower bucket.
// It returns -1 when x lies outside the edges.
func bucketFor(edges []float64, x float64) int {
	if x < edges[0] || x > edges[len(edges)-1] {
		return -1
	}
	for i := 1; i < len(edges); i++ {
		if x <= edges[i] {
			return i - 1
		}
	}
	return len(edges) - 2
}
