// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層から利用する。
type MetricsCollector interface {
	RecordProvisioning(outcome string)
	RecordSignInSuccess()
	RecordSignInFailure()
	RecordSignOut(method string)
	RecordHTTPStatus(statusCode int)
	RecordProviderLatency(operation string, duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	provisioning    *prometheus.CounterVec
	signInSuccess   prometheus.Counter
	signInFailure   prometheus.Counter
	signOut         *prometheus.CounterVec
	httpStatus      *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		provisioning: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nat20_provisioning_total",
			Help: "アカウントプロビジョニングの結果別合計数",
		}, []string{"outcome"}),
		signInSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nat20_signin_success_total",
			Help: "サインイン成功の合計数",
		}),
		signInFailure: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "nat20_signin_failure_total",
			Help: "サインイン失敗の合計数",
		}),
		signOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nat20_signout_total",
			Help: "サインアウトの方式別合計数",
		}, []string{"method"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nat20_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nat20_provider_latency_seconds",
			Help:    "IdP呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	reg.MustRegister(
		c.provisioning,
		c.signInSuccess,
		c.signInFailure,
		c.signOut,
		c.httpStatus,
		c.providerLatency,
	)

	return c
}

// RecordProvisioning はアカウントプロビジョニングの結果を記録する。
// outcomeはaccountパッケージが定義する結果ラベル。
func (c *Collector) RecordProvisioning(outcome string) {
	c.provisioning.WithLabelValues(outcome).Inc()
}

// RecordSignInSuccess はサインイン成功を記録する。
func (c *Collector) RecordSignInSuccess() {
	c.signInSuccess.Inc()
}

// RecordSignInFailure はサインイン失敗を記録する。
func (c *Collector) RecordSignInFailure() {
	c.signInFailure.Inc()
}

// RecordSignOut はサインアウトを方式別に記録する。
func (c *Collector) RecordSignOut(method string) {
	c.signOut.WithLabelValues(method).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordProviderLatency はIdP呼び出しのレイテンシを操作別に記録する。
func (c *Collector) RecordProviderLatency(operation string, duration time.Duration) {
	c.providerLatency.WithLabelValues(operation).Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}
