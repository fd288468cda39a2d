package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector exports one Counters instance. Register it on the registry of
// the process that owns the controller.
type Collector struct {
	counters *Counters
	running  func() bool
	now      func() time.Time

	up         *prometheus.Desc
	bytesIn    *prometheus.Desc
	bytesOut   *prometheus.Desc
	reconnects *prometheus.Desc
	rtt        *prometheus.Desc
	uptime     *prometheus.Desc
	backoff    *prometheus.Desc
}

func NewCollector(c *Counters, running func() bool) *Collector {
	d := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "engine", name), help, nil, nil)
	}
	return &Collector{
		counters:   c,
		running:    running,
		now:        time.Now,
		up:         d("running", "1 when the engine is running"),
		bytesIn:    d("bytes_in_total", "Bytes received through the tunnel"),
		bytesOut:   d("bytes_out_total", "Bytes sent through the tunnel"),
		reconnects: d("reconnects_total", "Session re-establishment attempts"),
		rtt:        d("quic_rtt_ms", "Last measured QUIC handshake round trip in milliseconds"),
		uptime:     d("uptime_seconds", "Seconds since the engine started"),
		backoff:    d("last_backoff_ms", "Last reconnect backoff in milliseconds"),
	}
}

func (col *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{col.up, col.bytesIn, col.bytesOut, col.reconnects, col.rtt, col.uptime, col.backoff} {
		ch <- d
	}
}

func (col *Collector) Collect(ch chan<- prometheus.Metric) {
	c := col.counters
	up := 0.0
	if col.running != nil && col.running() {
		up = 1
	}
	ch <- prometheus.MustNewConstMetric(col.up, prometheus.GaugeValue, up)
	ch <- prometheus.MustNewConstMetric(col.bytesIn, prometheus.CounterValue, float64(c.BytesIn.Load()))
	ch <- prometheus.MustNewConstMetric(col.bytesOut, prometheus.CounterValue, float64(c.BytesOut.Load()))
	ch <- prometheus.MustNewConstMetric(col.reconnects, prometheus.CounterValue, float64(c.Reconnects.Load()))
	ch <- prometheus.MustNewConstMetric(col.rtt, prometheus.GaugeValue, float64(c.QuicRttMs.Load()))
	ch <- prometheus.MustNewConstMetric(col.uptime, prometheus.GaugeValue, float64(c.Uptime(col.now())))
	ch <- prometheus.MustNewConstMetric(col.backoff, prometheus.GaugeValue, float64(c.LastBackoffMs.Load()))
}
