package pgcrud

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/edgeflare/pgcrud/pkg/auth"
	"github.com/edgeflare/pgcrud/pkg/crud"
	"github.com/edgeflare/pgcrud/pkg/httputil"
	mw "github.com/edgeflare/pgcrud/pkg/httputil/middleware"
	"github.com/edgeflare/pgcrud/pkg/metrics"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the CRUD REST server",
	Long:  `Starts a REST server exposing the registered table descriptors as HTTP endpoints`,
	Run:   runServer,
}

func init() {
	f := serveCmd.Flags()
	f.StringP("rest.pg.connString", "c", "", "PostgreSQL connection string")
	f.StringP("rest.listenAddr", "l", "", "REST server listen address")
	f.String("rest.metricsAddr", "", "Prometheus metrics listen address")
	f.String("rest.baseURL", "", "Base URL for API endpoints")
	f.String("auth.issuer", "", "JWT issuer URL for primary tokens")
	f.String("auth.audience", "", "Expected audience of primary tokens")
	f.String("auth.secret", "", "HMAC secret for subscription tokens")
	f.String("auth.adminIssuer", "", "JWT issuer URL for admin tokens")
	f.String("auth.adminAudience", "", "Expected audience of admin tokens")

	viper.BindPFlags(f)
	rootCmd.AddCommand(serveCmd)
}

func runServer(cmd *cobra.Command, args []string) {
	if cfg == nil {
		log.Fatal("Configuration not loaded")
	}

	connString := cfg.REST.PG.ConnString
	if connString == "" {
		connString = os.Getenv("PGCRUD_REST_PG_CONN_STRING")
		if connString == "" {
			log.Fatal("PostgreSQL connection string required")
		}
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	// flag overrides
	if listenAddr := viper.GetString("rest.listenAddr"); listenAddr != "" {
		cfg.REST.ListenAddr = listenAddr
	}

	verifier := auth.NewVerifier(cfg.Auth)

	reg := crud.NewRegistry()
	reg.Register(peopleResource{})

	server := crud.NewServer(pool, verifier, reg, logger)

	router := httputil.NewRouter()
	router.Use(
		mw.RequestID,
		mw.CORSWithOptions(nil),
	)
	if logLevel != "none" {
		router.Use(mw.LoggerWithOptions(&mw.LoggerOptions{Logger: logger}))
	}

	api := router.Group(cfg.REST.BaseURL)
	server.Mount(api)
	server.MountTables(api)

	metricsCtx, cancelMetrics := context.WithCancel(ctx)
	var wg sync.WaitGroup
	metrics.StartPrometheusServer(metricsCtx, &wg, &metrics.PromServerOpts{Addr: cfg.REST.MetricsAddr})

	// Handle graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := router.ListenAndServe(cfg.REST.ListenAddr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := router.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}
	cancelMetrics()
	wg.Wait()

	log.Println("Server gracefully stopped")
}
