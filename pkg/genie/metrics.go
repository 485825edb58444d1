package genie

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Collector exports the link diagnostics of a Device
type Collector struct {
	dev *Device

	checksumErrors  *prometheus.Desc
	frameTimeouts   *prometheus.Desc
	frames          *prometheus.Desc
	dropped         *prometheus.Desc
	requestTimeouts *prometheus.Desc
	naks            *prometheus.Desc
	queued          *prometheus.Desc
}

// NewCollector returns a prometheus.Collector reading dev.Stats on every scrape
func NewCollector(dev *Device) *Collector {
	return &Collector{
		dev:             dev,
		checksumErrors:  prometheus.NewDesc("genie_checksum_errors_total", "Frames dropped for a bad checksum.", nil, nil),
		frameTimeouts:   prometheus.NewDesc("genie_frame_timeouts_total", "Frames abandoned after an inter-byte timeout.", nil, nil),
		frames:          prometheus.NewDesc("genie_frames_total", "Valid report frames received.", []string{"kind"}, nil),
		dropped:         prometheus.NewDesc("genie_dropped_total", "Valid report frames dropped on a full queue.", []string{"kind"}, nil),
		requestTimeouts: prometheus.NewDesc("genie_request_timeouts_total", "Commands that got no ACK, NAK or reply in time.", nil, nil),
		naks:            prometheus.NewDesc("genie_naks_total", "Commands rejected by the display.", nil, nil),
		queued:          prometheus.NewDesc("genie_queued_replies", "Reports waiting to be consumed.", []string{"kind"}, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.checksumErrors
	ch <- c.frameTimeouts
	ch <- c.frames
	ch <- c.dropped
	ch <- c.requestTimeouts
	ch <- c.naks
	ch <- c.queued
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.dev.Stats()
	ch <- prometheus.MustNewConstMetric(c.checksumErrors, prometheus.CounterValue, float64(s.ChecksumErrors))
	ch <- prometheus.MustNewConstMetric(c.frameTimeouts, prometheus.CounterValue, float64(s.FrameTimeouts))
	ch <- prometheus.MustNewConstMetric(c.frames, prometheus.CounterValue, float64(s.Frames), "report")
	ch <- prometheus.MustNewConstMetric(c.frames, prometheus.CounterValue, float64(s.MagicFrames), "magic")
	ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue, float64(s.Dropped), "report")
	ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue, float64(s.MagicDropped), "magic")
	ch <- prometheus.MustNewConstMetric(c.requestTimeouts, prometheus.CounterValue, float64(s.RequestTimeouts))
	ch <- prometheus.MustNewConstMetric(c.naks, prometheus.CounterValue, float64(s.Naks))
	ch <- prometheus.MustNewConstMetric(c.queued, prometheus.GaugeValue, float64(c.dev.replies.Len()), "report")
	ch <- prometheus.MustNewConstMetric(c.queued, prometheus.GaugeValue, float64(c.dev.magic.Len()), "magic")
}

// NewRegistry returns a registry with the Go runtime, process and device collectors
func NewRegistry(dev *Device) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		NewCollector(dev),
	)
	return reg
}
