package utils

import "github.com/prometheus/client_golang/prometheus"

type Metric struct {
	Registry *prometheus.Registry

	SplitInputFiles *prometheus.CounterVec
	SplitLines      prometheus.Counter
	SplitChunks     prometheus.Counter

	IcsEvents       prometheus.Counter
	IcsReportEvents prometheus.Counter
}

// Count one processed input file, result is "ok" or "error".
func (m *Metric) IncSplitInputFile(result string) {
	if m == nil {
		return
	}
	m.SplitInputFiles.WithLabelValues(result).Inc()
}

func (m *Metric) AddSplitLines(n int) {
	if m == nil {
		return
	}
	m.SplitLines.Add(float64(n))
}

func (m *Metric) IncSplitChunks() {
	if m == nil {
		return
	}
	m.SplitChunks.Inc()
}

func (m *Metric) AddIcsEvents(n int) {
	if m == nil {
		return
	}
	m.IcsEvents.Add(float64(n))
}

func (m *Metric) AddIcsReportEvents(n int) {
	if m == nil {
		return
	}
	m.IcsReportEvents.Add(float64(n))
}
