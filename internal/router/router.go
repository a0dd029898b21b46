package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/qubicnetwork/go-universe/internal/gateway"
	"github.com/qubicnetwork/go-universe/internal/ledger"
	ledgerimpl "github.com/qubicnetwork/go-universe/internal/ledger/impl"
	"github.com/qubicnetwork/go-universe/internal/router/controllers"
	"github.com/qubicnetwork/go-universe/internal/router/middlewares"
)

// ConfiguredRouter returns a fully configured Router that can be used as an http handler.
func ConfiguredRouter(
	maxRPI uint64,
	rateLimInterval time.Duration,
	gatewayService gateway.Gateway,
	ledgerService ledger.Ledger,
) (*Router, error) {
	instrGateway, err := gateway.NewInstrumentedGateway(gatewayService)
	if err != nil {
		return nil, fmt.Errorf("instrumenting gateway: %s", err)
	}
	instrLedger, err := ledgerimpl.NewInstrumentedLedgerService(ledgerService)
	if err != nil {
		return nil, fmt.Errorf("instrumenting ledger: %s", err)
	}

	assetController := controllers.NewAssetController(instrGateway)
	ledgerController := controllers.NewLedgerController(instrLedger)
	infraController := controllers.NewInfraController()

	router := newRouter()
	router.use(middlewares.CORS, middlewares.TraceID)

	rateLim, err := middlewares.RateLimitController(middlewares.RateLimiterConfig{
		MaxRPI:   maxRPI,
		Interval: rateLimInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("creating rate limit controller middleware: %s", err)
	}

	// Asset universe queries.
	router.get("/asset/{issuer}/{name}", assetController.GetAsset, middlewares.WithLogging, middlewares.OtelHTTP("GetAsset"), rateLim)                      // nolint
	router.get("/asset/{issuer}/{name}/ownerships", assetController.GetOwnerships, middlewares.WithLogging, middlewares.OtelHTTP("GetOwnerships"), rateLim) // nolint
	router.get("/asset/{issuer}/{name}/possessions", assetController.GetPossessions, middlewares.WithLogging, middlewares.OtelHTTP("GetPossessions"), rateLim) // nolint
	router.get("/asset/{issuer}/{name}/shares", assetController.GetShares, middlewares.WithLogging, middlewares.OtelHTTP("GetShares"), rateLim)             // nolint
	router.get("/universe/stats", assetController.GetStats, middlewares.WithLogging, middlewares.OtelHTTP("GetStats"), rateLim)                             // nolint
	router.get("/version", infraController.Version, middlewares.WithLogging, middlewares.OtelHTTP("Version"), rateLim)                                      // nolint

	// Contract-call relay used by operators and local simulation.
	router.post("/ledger/issue", ledgerController.IssueAsset, middlewares.WithLogging, middlewares.OtelHTTP("IssueAsset"), rateLim)                    // nolint
	router.post("/ledger/transfer", ledgerController.Transfer, middlewares.WithLogging, middlewares.OtelHTTP("Transfer"), rateLim)                     // nolint
	router.post("/ledger/acquire", ledgerController.AcquireShares, middlewares.WithLogging, middlewares.OtelHTTP("AcquireShares"), rateLim)            // nolint
	router.post("/ledger/release", ledgerController.ReleaseShares, middlewares.WithLogging, middlewares.OtelHTTP("ReleaseShares"), rateLim)            // nolint
	router.post("/ledger/dividends", ledgerController.DistributeDividends, middlewares.WithLogging, middlewares.OtelHTTP("DistributeDividends"), rateLim) // nolint

	// Health endpoint configuration.
	router.get("/healthz", controllers.HealthHandler)
	router.get("/health", controllers.HealthHandler)

	return router, nil
}

// Router provides a nice api around mux.Router.
type Router struct {
	r *mux.Router
}

// newRouter is a Mux HTTP router constructor.
func newRouter() *Router {
	r := mux.NewRouter()
	r.PathPrefix("/").Methods(http.MethodOptions) // accept OPTIONS on all routes and do nothing
	return &Router{r: r}
}

// get creates a subroute on the specified URI that only accepts GET. You can provide specific middlewares.
func (r *Router) get(uri string, f http.HandlerFunc, mid ...mux.MiddlewareFunc) {
	sub := r.r.Path(uri).Subrouter()
	sub.HandleFunc("", f).Methods(http.MethodGet)
	sub.Use(mid...)
}

// post creates a subroute on the specified URI that only accepts POST. You can provide specific middlewares.
func (r *Router) post(uri string, f http.HandlerFunc, mid ...mux.MiddlewareFunc) {
	sub := r.r.Path(uri).Subrouter()
	sub.HandleFunc("", f).Methods(http.MethodPost)
	sub.Use(mid...)
}

// use adds middlewares to all routes. Should be used when a middleware should be execute all all routes (e.g. CORS).
func (r *Router) use(mid ...mux.MiddlewareFunc) {
	r.r.Use(mid...)
}

// Handler returns the configured router http handler.
func (r *Router) Handler() http.Handler {
	return r.r
}
