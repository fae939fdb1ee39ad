package telemetry

import (
	"context"
	"sort"
	"strings"

	"github.com/grafana/pyroscope-go"
)

// Profiling label names attached to request samples.
const (
	ProfilingLabelRoute   = "route"
	ProfilingLabelMethod  = "method"
	ProfilingLabelHandler = "handler"
)

// maxProfilingLabelLength truncates label values so a stray path cannot
// blow up profile cardinality.
const maxProfilingLabelLength = 128

// WithProfilingLabels runs fn with pyroscope labels set on ctx. Empty keys
// and values are dropped; without labels fn runs on ctx unchanged.
func WithProfilingLabels(ctx context.Context, labels map[string]string, fn func(context.Context)) {
	pairs := profilingLabelPairs(labels)
	if len(pairs) == 0 {
		fn(ctx)
		return
	}
	pyroscope.TagWrapper(ctx, pyroscope.Labels(pairs...), fn)
}

func profilingLabelPairs(labels map[string]string) []string {
	keys := make([]string, 0, len(labels))
	for k, v := range labels {
		if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		v := labels[k]
		if len(v) > maxProfilingLabelLength {
			v = v[:maxProfilingLabelLength]
		}
		pairs = append(pairs, k, v)
	}
	return pairs
}
