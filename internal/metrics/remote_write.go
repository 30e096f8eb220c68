package metrics

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang/snappy"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/prometheus/prompb"
	"go.uber.org/zap"
)

// only application series are forwarded
const remotePrefix = "vitals_"

// StartRemoteWrite pushes the registry to the configured endpoint every
// FlushInterval until ctx is done. It returns immediately when no URL is set.
func (c *Collector) StartRemoteWrite(ctx context.Context) {
	if c.config.URL == "" {
		return
	}
	interval := c.config.FlushInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Push(ctx); err != nil {
				c.logger.Error("Remote write failed", zap.Error(err))
			}
		}
	}
}

// Push gathers the registry once and sends it in batches.
func (c *Collector) Push(ctx context.Context) error {
	mfs, err := c.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	series := toTimeSeries(mfs, time.Now().UnixMilli())
	if len(series) == 0 {
		return nil
	}

	size := c.config.BatchSize
	if size <= 0 {
		size = len(series)
	}
	for i := 0; i < len(series); i += size {
		end := i + size
		if end > len(series) {
			end = len(series)
		}
		if err := c.sendBatch(ctx, series[i:end]); err != nil {
			return fmt.Errorf("failed to send batch: %w", err)
		}
	}
	return nil
}

func toTimeSeries(mfs []*dto.MetricFamily, ts int64) []prompb.TimeSeries {
	var out []prompb.TimeSeries

	for _, mf := range mfs {
		name := mf.GetName()
		if !strings.HasPrefix(name, remotePrefix) {
			continue
		}

		for _, m := range mf.Metric {
			labels := make([]prompb.Label, 0, len(m.Label)+1)
			for _, l := range m.Label {
				labels = append(labels, prompb.Label{Name: l.GetName(), Value: l.GetValue()})
			}

			sample := func(metricName string, value float64, extra ...prompb.Label) {
				ls := make([]prompb.Label, 0, len(labels)+len(extra)+1)
				ls = append(ls, prompb.Label{Name: "__name__", Value: metricName})
				ls = append(ls, labels...)
				ls = append(ls, extra...)
				out = append(out, prompb.TimeSeries{
					Labels:  ls,
					Samples: []prompb.Sample{{Value: value, Timestamp: ts}},
				})
			}

			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				sample(name, m.GetCounter().GetValue())
			case dto.MetricType_GAUGE:
				sample(name, m.GetGauge().GetValue())
			case dto.MetricType_HISTOGRAM:
				hist := m.GetHistogram()
				for _, bucket := range hist.GetBucket() {
					sample(name+"_bucket", float64(bucket.GetCumulativeCount()),
						prompb.Label{Name: "le", Value: fmt.Sprintf("%g", bucket.GetUpperBound())})
				}
				sample(name+"_bucket", float64(hist.GetSampleCount()), prompb.Label{Name: "le", Value: "+Inf"})
				sample(name+"_sum", hist.GetSampleSum())
				sample(name+"_count", float64(hist.GetSampleCount()))
			}
		}
	}

	return out
}

func (c *Collector) sendBatch(ctx context.Context, series []prompb.TimeSeries) error {
	req := &prompb.WriteRequest{Timeseries: series}
	data, err := req.Marshal()
	if err != nil {
		return err
	}
	compressed := snappy.Encode(nil, data)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL+"/api/v1/push", bytes.NewReader(compressed))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/x-protobuf")
	httpReq.Header.Set("Content-Encoding", "snappy")
	httpReq.Header.Set("X-Prometheus-Remote-Write-Version", "0.1.0")
	if c.config.TenantHeader != "" && c.config.TenantID != "" {
		httpReq.Header.Set(c.config.TenantHeader, c.config.TenantID)
	}
	if c.config.AuthToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.AuthToken)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("remote write failed: %s", resp.Status)
	}
	return nil
}
