package main

import (
	"context"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"dumpwatch/internal/api"
	"dumpwatch/internal/api/handlers"
	"dumpwatch/internal/config"
	"dumpwatch/internal/repository"
	"dumpwatch/internal/repository/firestorestore"
	"dumpwatch/internal/repository/memory"
	"dumpwatch/internal/services"
)

func main() {
	cfg := config.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
	log.SetOutput(os.Stdout)

	// Select the backing store: Firestore when a project is configured,
	// otherwise the in-memory store (local runs, demos).
	var store repository.ReportStore
	if cfg.Store.FirestoreProjectID != "" {
		fs, err := firestorestore.New(context.Background(), cfg.Store.FirestoreProjectID)
		if err != nil {
			log.WithError(err).Fatal("firestore init failed")
		}
		defer fs.Close()
		store = fs
		log.WithField("project", cfg.Store.FirestoreProjectID).Info("using firestore store")
	} else {
		store = memory.NewReportStore()
		log.Info("using in-memory store")
	}

	// Optional Redis for reward points; nil degrades to log-only awards.
	var rdb *redis.Client
	if cfg.Store.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Store.RedisAddr})
	}

	// Initialize services
	rewardService := services.NewRewardService(rdb, log)
	reportService := services.NewReportService(store, cfg, log)
	nearbyService := services.NewNearbyService(store, cfg, log)
	consensusService := services.NewConsensusService(store, rewardService, cfg, log)

	// Initialize handlers
	reportHandler := handlers.NewReportHandler(reportService, nearbyService)
	voteHandler := handlers.NewVoteHandler(consensusService)

	// Setup router
	router := api.NewRouter(reportHandler, voteHandler)
	engine := gin.Default()
	router.Setup(engine)

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	log.WithField("addr", cfg.Server.Port).Info("starting dumpwatch server")
	if err := server.ListenAndServe(); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}
