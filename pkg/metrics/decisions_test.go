package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestDecisionMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewDecisionMetrics(reg)

	metrics.ObserveDuration("dealer", 120*time.Millisecond)
	metrics.IncDecision("dealer", "approve")
	metrics.IncDecision("distributor", "reject")
	metrics.IncLimitShortfall()
	metrics.IncSubmitted()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "decisions_total", "stage", "dealer"); err != nil {
		t.Fatalf("fetch decisions: %v", err)
	} else if got != 1 {
		t.Fatalf("expected dealer decisions=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "transition_duration_seconds", "stage", "dealer"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}

	if mf := findMetricFamily(mfs, "limit_shortfalls_total"); mf == nil {
		t.Fatal("limit_shortfalls_total not exported")
	} else if mf.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatal("expected one limit shortfall")
	}
}

func TestDecisionMetricsNilRegistererIsNoop(t *testing.T) {
	metrics := NewDecisionMetrics(nil)
	metrics.ObserveDuration("dealer", time.Second)
	metrics.IncDecision("dealer", "approve")
	metrics.IncLimitShortfall()
	metrics.IncSubmitted()
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
