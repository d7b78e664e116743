package metrics

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectOne(t *testing.T, c Collector) Family {
	t.Helper()
	fams, err := c.Collect()
	require.NoError(t, err)
	require.Len(t, fams, 1)
	return fams[0]
}

func TestCounter(t *testing.T) {
	c := NewCounter(CounterOpts{Name: "requests_total", Help: "Requests."})
	c.Inc()
	c.Add(2.5)
	c.Add(3)

	fam := collectOne(t, c)
	assert.Equal(t, CounterType, fam.Type)
	assert.Equal(t, 6.5, fam.Samples[0].Value)
	assert.Nil(t, fam.Samples[0].Labels)

	assert.Panics(t, func() { c.Add(-1) })
}

func TestCounterNeverDecreasesAcrossCollections(t *testing.T) {
	c := NewCounter(CounterOpts{Name: "work_total"})

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				c.Add(0.5)
				c.Inc()
			}
		}
	}()

	prev := -1.0
	for i := 0; i < 200; i++ {
		fam := collectOne(t, c)
		v := fam.Samples[0].Value
		assert.GreaterOrEqual(t, v, prev)
		prev = v
	}
	close(stop)
	wg.Wait()
}

func TestCollectDoesNotMutate(t *testing.T) {
	g := NewGauge(GaugeOpts{Name: "temperature"})
	g.Set(21)
	for i := 0; i < 3; i++ {
		assert.Equal(t, 21.0, collectOne(t, g).Samples[0].Value)
	}
	g.Inc()
	g.Sub(3)
	assert.Equal(t, 19.0, g.Value())
}

func TestHistogramCumulativeBuckets(t *testing.T) {
	h := NewHistogram(HistogramOpts{Name: "latency_seconds", Buckets: []float64{0.1, 0.5, 1}})
	for _, v := range []float64{0.05, 0.1, 0.3, 0.7, 2, 5} {
		h.Observe(v)
	}

	hv := collectOne(t, h).Samples[0].Histogram
	require.NotNil(t, hv)
	require.Len(t, hv.Buckets, 4)
	assert.Equal(t, []uint64{2, 3, 4, 6}, []uint64{
		hv.Buckets[0].CumulativeCount, hv.Buckets[1].CumulativeCount,
		hv.Buckets[2].CumulativeCount, hv.Buckets[3].CumulativeCount,
	})
	assert.True(t, math.IsInf(hv.Buckets[3].UpperBound, +1))
	assert.Equal(t, uint64(6), hv.Count)
	assert.InDelta(t, 8.15, hv.Sum, 1e-9)
}

func TestHistogramStaysCumulativeUnderConcurrency(t *testing.T) {
	h := NewHistogram(HistogramOpts{Name: "size_bytes", Buckets: ExponentialBuckets(1, 2, 8)})

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(seed int) {
			defer wg.Done()
			for i := 0; i < 2000; i++ {
				h.Observe(float64((i * seed) % 300))
			}
		}(w + 1)
	}

	for i := 0; i < 100; i++ {
		hv := collectOne(t, h).Samples[0].Histogram
		for j := 1; j < len(hv.Buckets); j++ {
			assert.LessOrEqual(t, hv.Buckets[j-1].CumulativeCount, hv.Buckets[j].CumulativeCount)
		}
		assert.Equal(t, hv.Count, hv.Buckets[len(hv.Buckets)-1].CumulativeCount)
	}
	wg.Wait()
}

func TestHistogramRejectsUnsortedBuckets(t *testing.T) {
	assert.Panics(t, func() {
		NewHistogram(HistogramOpts{Name: "bad", Buckets: []float64{1, 0.5}})
	})
	h := NewHistogram(HistogramOpts{Name: "with_inf", Buckets: []float64{1, math.Inf(+1)}})
	hv := collectOne(t, h).Samples[0].Histogram
	assert.Len(t, hv.Buckets, 2)
}

func TestHistogramVecRejectsLeLabel(t *testing.T) {
	assert.Panics(t, func() {
		NewHistogramVec(HistogramOpts{Name: "x_seconds", Buckets: []float64{1}}, []string{"op", "le"})
	})
	assert.NotPanics(t, func() {
		NewHistogramVec(HistogramOpts{Name: "x_seconds", Buckets: []float64{1}}, []string{"op"})
	})
}

func TestSummaryQuantiles(t *testing.T) {
	s := NewSummary(SummaryOpts{Name: "rpc_seconds", Objectives: []float64{0.9, 0.5}, Window: 100})
	for i := 1; i <= 100; i++ {
		s.Observe(float64(i))
	}
	sv := collectOne(t, s).Samples[0].Summary
	require.NotNil(t, sv)
	assert.Equal(t, uint64(100), sv.Count)
	assert.Equal(t, 5050.0, sv.Sum)
	require.Len(t, sv.Quantiles, 2)
	assert.Equal(t, Quantile{Quantile: 0.5, Value: 50}, sv.Quantiles[0])
	assert.Equal(t, Quantile{Quantile: 0.9, Value: 90}, sv.Quantiles[1])

	empty := NewSummary(SummaryOpts{Name: "idle_seconds", Objectives: []float64{0.5}})
	ev := collectOne(t, empty).Samples[0].Summary
	assert.True(t, math.IsNaN(ev.Quantiles[0].Value))

	assert.Panics(t, func() { NewSummary(SummaryOpts{Name: "bad", Objectives: []float64{1.5}}) })
}

func TestVecKeepsCreationOrder(t *testing.T) {
	v := NewCounterVec(CounterOpts{Name: "hits_total"}, []string{"path", "code"})
	v.WithLabelValues("/b", "200").Inc()
	v.WithLabelValues("/a", "500").Add(2)
	v.WithLabelValues("/b", "200").Inc()

	fam := collectOne(t, v)
	require.Len(t, fam.Samples, 2)
	assert.Equal(t, Labels{{"path", "/b"}, {"code", "200"}}, fam.Samples[0].Labels)
	assert.Equal(t, 2.0, fam.Samples[0].Value)
	assert.Equal(t, Labels{{"path", "/a"}, {"code", "500"}}, fam.Samples[1].Labels)

	_, err := v.GetMetricWithLabelValues("/only-one")
	assert.Error(t, err)
	assert.Panics(t, func() { v.WithLabelValues() })

	v.Reset()
	assert.Empty(t, collectOne(t, v).Samples)
}

func TestFuncCollectorsReadLazily(t *testing.T) {
	n := 1.0
	g := NewGaugeFunc(GaugeOpts{Name: "queue_depth"}, func() float64 { return n })
	assert.Equal(t, 1.0, collectOne(t, g).Samples[0].Value)
	n = 7
	assert.Equal(t, 7.0, collectOne(t, g).Samples[0].Value)

	c := NewCounterFunc(CounterOpts{Name: "bytes_total"}, func() float64 { return 42 })
	assert.Equal(t, CounterType, collectOne(t, c).Type)
}

type recordingRegisterer struct {
	got []Collector
}

func (r *recordingRegisterer) Register(c Collector) error {
	r.got = append(r.got, c)
	return nil
}

func (r *recordingRegisterer) MustRegister(cs ...Collector) {
	for _, c := range cs {
		_ = r.Register(c)
	}
}

func TestMetricFactoryRegisters(t *testing.T) {
	reg := &recordingRegisterer{}
	f := NewMetricFactory(reg)

	f.NewAgentCollectErrorsTotal()
	f.NewAgentCollectDurationSeconds()
	f.NewCPUUsageRatio()
	f.NewRegisteredTargets(func() float64 { return 0 })

	require.Len(t, reg.got, 4)
	assert.Equal(t, "agent_collect_errors_total", reg.got[0].Describe()[0].Name)
	assert.Equal(t, HistogramType, reg.got[1].Describe()[0].Type)
	assert.Equal(t, "health_monitor_registered_targets", reg.got[3].Describe()[0].Name)
}

func TestLabelsKeyDistinguishesPairs(t *testing.T) {
	a := Labels{{"a", "b,c"}}
	b := Labels{{"a", "b"}, {"c", ""}}
	assert.NotEqual(t, a.Key(), b.Key())
	assert.Equal(t, a.Key(), Labels{{"a", "b,c"}}.Key())
	assert.Equal(t, Labels{{"a", "b,c"}, {"le", "1"}}, a.With("le", "1"))
}
