// file: commands.go
package main

import (
	"DaliCTF/config"
	"DaliCTF/controllers"
	"DaliCTF/database"
	"DaliCTF/flags"
	"DaliCTF/metrics"
	"DaliCTF/routes"
	"DaliCTF/scoring"
	"DaliCTF/services"
	"DaliCTF/utils"
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// app 装配好的依赖
type app struct {
	cfg      config.Config
	log      *slog.Logger
	db       *gorm.DB
	registry *prometheus.Registry
	handler  *controllers.Handler
	engine   *services.Engine
}

func newRootCmd() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:          "dalictf",
		Short:        "DaliCTF platform with delayed-result challenges",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", os.Getenv("DALICTF_CONFIG"), "path to YAML config file")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP server",
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := buildApp(cfgPath)
				if err != nil {
					return err
				}
				return a.serve(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or upgrade database tables",
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := buildApp(cfgPath)
				if err != nil {
					return err
				}
				if err := database.MigrateTables(a.db); err != nil {
					return err
				}
				a.log.Info("database migration completed")
				return nil
			},
		},
		&cobra.Command{
			Use:   "reconcile",
			Short: "Run one reconciliation pass over expired delayed challenges",
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := buildApp(cfgPath)
				if err != nil {
					return err
				}
				res, err := a.engine.OnDemand(cmd.Context())
				if err != nil {
					return err
				}
				for _, p := range res.Promotions {
					fmt.Fprintf(cmd.OutOrStdout(), "challenge=%d user=%d team=%d submission=%d date=%s\n",
						p.ChallengeID, p.UserID, p.TeamID, p.SubmissionID, p.Date.Format("2006-01-02 15:04:05"))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "run %s: %d promotion(s)\n", res.RunID, len(res.Promotions))
				return nil
			},
		},
	)
	return root
}

func buildApp(cfgPath string) (*app, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	log := utils.NewLogger(cfg.Log, os.Stdout)
	slog.SetDefault(log)

	db, err := database.Connect(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	rdb, err := database.NewRedis(cfg.Redis, log)
	if err != nil {
		return nil, err
	}
	var cache services.ResponseCache = services.NopCache{}
	if rdb != nil {
		cache = services.NewRedisCache(rdb)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	flagRegistry := flags.DefaultRegistry()
	deps := services.Deps{
		DB:      db,
		Types:   services.NewTypeRegistry(flagRegistry, scoring.DefaultFunctions()),
		Flags:   flagRegistry,
		Cache:   cache,
		Metrics: metrics.New(registry),
		Logger:  log,
	}
	engine := services.NewEngine(deps)

	handler := &controllers.Handler{
		DB:          db,
		Challenges:  services.NewChallengeService(deps),
		Submissions: services.NewSubmissionService(deps),
		Engine:      engine,
		Scoreboard:  services.NewScoreboardService(deps, cache, cfg.Redis.ScoreboardTTL),
		Teams:       services.NewTeamService(deps),
		Cache:       cache,
		Tokens:      utils.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.TTL),
		Logger:      log,
		ListTTL:     cfg.Redis.ScoreboardTTL,
	}

	return &app{cfg: cfg, log: log, db: db, registry: registry, handler: handler, engine: engine}, nil
}

func (a *app) serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if a.cfg.Reconcile.OnStartup {
		// 启动补判失败不影响服务启动，下一次触发会重试
		if err := a.engine.OnStartup(ctx); err != nil {
			a.log.Error("startup reconciliation failed", "error", err)
		}
	}

	gin.SetMode(gin.ReleaseMode)
	r := routes.SetupRouter(a.handler, a.registry)

	a.log.Info("starting server", "addr", a.cfg.Server.Addr)
	if err := r.Run(a.cfg.Server.Addr); err != nil {
		return fmt.Errorf("run server: %w", err)
	}
	return nil
}
