package main

import (
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"gridplan/internal/api/handlers"
	"gridplan/internal/api/middleware"
	"gridplan/internal/config"
	"gridplan/internal/logger"
	"gridplan/internal/solve"
	"gridplan/internal/store"
)

func main() {
	defer logger.Close()
	log := logger.L()

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalw("load config", "error", err)
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())

	var st *store.Store
	if cfg.Store.Path != "" {
		st, err = store.Open(cfg.Store.Path)
		if err != nil {
			log.Fatalw("open runs database", "path", cfg.Store.Path, "error", err)
		}
		defer st.Close()
		log.Infow("runs database ready", "path", cfg.Store.Path)
	}

	timeout := time.Duration(cfg.Solver.TimeLimitSeconds * float64(time.Second))
	solveHandler := handlers.NewSolveHandler(solve.NewHiGHS(log), st, timeout)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	{
		api.POST("/solve", solveHandler.Solve)
		if st != nil {
			runsHandler := handlers.NewRunsHandler(st)
			api.GET("/runs", runsHandler.List)
			api.GET("/runs/:id/series/:name", runsHandler.Series)
		}
	}

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Infow("starting API server", "addr", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalw("server stopped", "error", err)
	}
}
