package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mmdatafocus/warehouse_client/apiclient"
	"github.com/mmdatafocus/warehouse_client/config"
	"github.com/mmdatafocus/warehouse_client/models"
	"github.com/mmdatafocus/warehouse_client/offline"
	"github.com/mmdatafocus/warehouse_client/utils"
	"github.com/mmdatafocus/warehouse_client/workflow"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8090"

func main() {
	logger := config.GetLogger()

	db, err := config.OpenLocalStore()
	if err != nil {
		log.Fatalf("failed to open local store: %v", err)
	}
	if err := models.MigrateTable(db); err != nil {
		log.Fatalf("failed to migrate local store: %v", err)
	}

	apiBase := strings.TrimSpace(os.Getenv("API_BASE_URL"))
	if apiBase == "" {
		apiBase = "http://localhost:3000"
	}
	conn := apiclient.NewConnectivity(strings.TrimRight(apiBase, "/") + "/health")
	api := apiclient.NewClientWithBase(apiBase, conn)

	store := offline.NewStore(db, logger)
	gate := offline.NewGate(conn)
	ops := workflow.NewOperations(api, store, gate, conn, logger)
	replay := offline.NewReplayEngine(db, api, logger, conn)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go conn.RunProbe(ctx, 15*time.Second)
	go replay.Run(ctx)

	router := newRouter(ops, store, replay, api, logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Printf("warehouse client listening on :%s (api %s)", port, apiBase)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
}

func newRouter(ops *workflow.Operations, store *offline.Store, replay *offline.ReplayEngine, api *apiclient.Client, logger *logrus.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders,
		"Authorization", "X-Correlation-Id", "X-Device-Id", "X-Warehouse-Id")
	router.Use(cors.New(corsConfig))
	router.Use(correlationMiddleware())
	router.Use(deviceContextMiddleware())
	router.Use(requestLogMiddleware(logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := &handlers{ops: ops, store: store, replay: replay, api: api}
	h.register(router)
	return router
}

// correlationMiddleware threads a correlation id through the request
// context so queued mutations carry the id the UI initiated them with.
func correlationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationId := strings.TrimSpace(c.GetHeader("X-Correlation-Id"))
		if correlationId == "" {
			correlationId = uuid.NewString()
		}
		ctx := utils.SetCorrelationIdInContext(c.Request.Context(), correlationId)
		c.Request = c.Request.WithContext(ctx)
		c.Header("X-Correlation-Id", correlationId)
		c.Next()
	}
}

// deviceContextMiddleware threads the device and warehouse identity headers
// the UI sends with every request, so logs from one scanner can be pulled
// apart from the rest of the fleet.
func deviceContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if deviceId := strings.TrimSpace(c.GetHeader("X-Device-Id")); deviceId != "" {
			ctx = utils.SetDeviceIdInContext(ctx, deviceId)
		}
		if v := strings.TrimSpace(c.GetHeader("X-Warehouse-Id")); v != "" {
			if warehouseId, err := strconv.Atoi(v); err == nil {
				ctx = utils.SetWarehouseIdInContext(ctx, warehouseId)
			}
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func requestLogMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if logger == nil {
			return
		}
		ctx := c.Request.Context()
		correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
		fields := logrus.Fields{
			"method":         c.Request.Method,
			"path":           c.Request.URL.Path,
			"status":         c.Writer.Status(),
			"duration_ms":    time.Since(start).Milliseconds(),
			"correlation_id": correlationId,
		}
		if deviceId, ok := utils.GetDeviceIdFromContext(ctx); ok {
			fields["device_id"] = deviceId
		}
		if warehouseId, ok := utils.GetWarehouseIdFromContext(ctx); ok {
			fields["warehouse_id"] = warehouseId
		}
		logger.WithFields(fields).Info("request")
	}
}
