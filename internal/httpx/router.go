package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/orderlab/order-service/internal/pkg/metrics"
)

func NewRouter(handler *Handler, m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(requestMetrics(m))

	r.Post("/order", handler.CreateOrder)
	r.Get("/order", handler.ProcessOrders)
	r.Get("/order/{id}", handler.GetOrderByID)
	r.Get("/healthz", handler.Healthz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	return otelhttp.NewHandler(r, "order-service")
}

// requestMetrics counts each request and observes its latency, labelled by
// the chi route pattern so /order/{id} stays one series per route.
func requestMetrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			m.HTTPRequest(route, ww.Status(), time.Since(start))
		})
	}
}
