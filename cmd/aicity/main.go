package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/bezata/aicity-backend-sub002/internal/agent"
	"github.com/bezata/aicity-backend-sub002/internal/api"
	"github.com/bezata/aicity-backend-sub002/internal/city"
	"github.com/bezata/aicity-backend-sub002/internal/config"
	"github.com/bezata/aicity-backend-sub002/internal/conversation"
	"github.com/bezata/aicity-backend-sub002/internal/embedding"
	"github.com/bezata/aicity-backend-sub002/internal/event"
	"github.com/bezata/aicity-backend-sub002/internal/notify"
	"github.com/bezata/aicity-backend-sub002/internal/scheduler"
	"github.com/bezata/aicity-backend-sub002/internal/sim"
	"github.com/bezata/aicity-backend-sub002/internal/social"
	pgstore "github.com/bezata/aicity-backend-sub002/internal/store"
	"github.com/bezata/aicity-backend-sub002/internal/textgen"
	"github.com/bezata/aicity-backend-sub002/internal/vectorstore"
)

func main() {
	_ = godotenv.Load()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	logger.Info("Starting AI City...")

	// Load configuration
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/aicity.json"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.String("path", cfgPath), zap.Error(err))
	}
	logger.Info("Config loaded", zap.String("path", cfgPath))

	seed := cfg.World.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := sim.NewRand(seed)

	// Text generation backend
	var gen textgen.Generator = textgen.NewStaticGenerator()
	if cfg.TextGen.Enabled && cfg.TextGen.Endpoint != "" {
		gen = textgen.NewOpenAIGenerator(textgen.Config{
			Endpoint:    cfg.TextGen.Endpoint,
			Model:       cfg.TextGen.Model,
			APIKey:      cfg.TextGen.APIKey,
			Temperature: cfg.TextGen.Temperature,
			MaxTokens:   cfg.TextGen.MaxTokens,
		}, logger)
	}

	// Initialize PostgreSQL store
	var pgStore *pgstore.Store
	if cfg.Database.Postgres.DSN != "" {
		ps, pgErr := pgstore.New(cfg.Database.Postgres.DSN, logger)
		if pgErr != nil {
			logger.Warn("PostgreSQL unavailable, running without persistence", zap.Error(pgErr))
		} else {
			if mErr := ps.Migrate(context.Background(), "migrations"); mErr != nil {
				logger.Fatal("migration failed", zap.Error(mErr))
			}
			pgStore = ps
		}
	}

	// Social graph: Neo4j mirror when reachable, in-memory otherwise.
	var graph social.GraphStore
	neoGraph, neoErr := social.NewNeo4jGraph(context.Background(),
		cfg.Database.Neo4j.URI, cfg.Database.Neo4j.User, cfg.Database.Neo4j.Password, logger)
	if neoErr != nil {
		logger.Warn("Neo4j unavailable, using in-memory social graph", zap.Error(neoErr))
		graph = social.NewMemoryGraph()
	} else {
		graph = neoGraph
	}

	// Notification bus and sinks
	bus := notify.NewBus(logger)
	sinkCtx, sinkCancel := context.WithCancel(context.Background())
	defer sinkCancel()

	var redisSink *notify.RedisSink
	if cfg.Database.Redis.URL != "" {
		rs, rErr := notify.NewRedisSink(cfg.Database.Redis.URL, logger)
		if rErr != nil {
			logger.Warn("Redis unavailable, running without notification stream", zap.Error(rErr))
		} else {
			redisSink = rs
			go rs.Run(sinkCtx, bus.Subscribe())
		}
	}

	if cfg.Notify.Slack.Enabled && cfg.Notify.Slack.BotToken != "" {
		slackSink := notify.NewSlackSink(cfg.Notify.Slack.BotToken, cfg.Notify.Slack.Channel, logger)
		go slackSink.Run(sinkCtx, bus.Subscribe(notify.TopicEventGenerated, notify.TopicEventResolved))
	}

	var discordSink *notify.DiscordSink
	if cfg.Notify.Discord.Enabled && cfg.Notify.Discord.BotToken != "" {
		ds, dErr := notify.NewDiscordSink(cfg.Notify.Discord.BotToken, cfg.Notify.Discord.ChannelID, logger)
		if dErr != nil {
			logger.Warn("Discord unavailable", zap.Error(dErr))
		} else {
			discordSink = ds
			go ds.Run(sinkCtx, bus.Subscribe(notify.TopicEventGenerated, notify.TopicEventResolved))
		}
	}

	// Core state
	registry := agent.NewRegistry(logger)
	directory := city.NewDirectory(logger)
	culture := city.NewCulture()
	metrics := city.NewMetrics(city.DefaultMetrics(), logger)

	seedWorld(registry, directory)

	// District vector index for event targeting
	var index *city.DistrictIndex
	if cfg.Embedding.Enabled && cfg.Database.Qdrant.Host != "" {
		vs, vErr := vectorstore.NewClient(vectorstore.Config{
			Host: cfg.Database.Qdrant.Host,
			Port: cfg.Database.Qdrant.Port,
		})
		if vErr != nil {
			logger.Warn("Qdrant unavailable, using random district targeting", zap.Error(vErr))
		} else {
			embCfg := embedding.Config{
				Provider:  cfg.Embedding.Provider,
				Endpoint:  cfg.Embedding.Endpoint,
				Model:     cfg.Embedding.Model,
				APIKey:    cfg.Embedding.APIKey,
				Dimension: cfg.Embedding.Dimension,
			}
			var embedder embedding.Provider
			if cfg.Embedding.Provider == "local" {
				embedder = embedding.NewLocalProvider(embCfg)
			} else {
				embedder = embedding.NewAPIProvider(embCfg)
			}
			idx, iErr := city.NewDistrictIndex(context.Background(), embedder, vs, logger)
			if iErr != nil {
				logger.Warn("district index init failed, using random district targeting", zap.Error(iErr))
				vs.Close()
			} else {
				index = idx
				for _, d := range directory.All() {
					if err := idx.Index(context.Background(), d); err != nil {
						logger.Warn("district indexing failed", zap.String("district", d.ID), zap.Error(err))
					}
				}
			}
		}
	}

	// World clock
	tickInterval := time.Duration(cfg.World.TickIntervalMS) * time.Millisecond
	clock := sim.NewWorldClock(tickInterval, cfg.World.TimeSpeed, logger)

	// Conversation engine
	var convPersister conversation.Persister
	if pgStore != nil {
		convPersister = pgStore
	}
	manager := conversation.NewManager(registry, directory, gen, graph, convPersister, bus, clock, rng, logger)

	// Event pipeline
	catalog := event.DefaultCatalog()
	var finder event.DistrictFinder
	if index != nil {
		finder = index
	}
	var eventPersister event.Persister
	if pgStore != nil {
		eventPersister = pgStore
	}
	engine := event.NewEngine(
		event.NewSelector(catalog, rng),
		event.NewTargeter(directory, finder, rng, logger),
		event.NewPropagator(metrics, logger),
		event.NewCascadeScheduler(rng, cfg.World.MaxCascadeDepth, logger),
		bus, clock, eventPersister, logger,
	)
	engine.SetTimeSpeed(cfg.World.TimeSpeed)

	// Periodic tasks
	routines := agent.NewRoutineGenerator(gen, logger)
	scorer := social.NewScorer(rng)
	maintainer := social.NewMaintainer(registry, graph, logger)
	sched := scheduler.New(logger)
	tasks := scheduler.NewTasks(registry, routines, scorer, maintainer, manager, engine, culture, rng,
		time.Duration(cfg.World.RetentionHours)*time.Hour, logger)
	tasks.RegisterAll(sched)
	clock.AddListener(sched)

	clock.Start()
	logger.Info("City simulation started",
		zap.Int64("seed", seed),
		zap.Float64("time_speed", cfg.World.TimeSpeed))

	// Build HTTP handler
	handler := api.NewHandler(registry, directory, culture, metrics, manager, engine, catalog, clock, sched, logger)

	port := fmt.Sprintf("%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("AI City listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down AI City...")
	clock.Stop()
	sinkCancel()
	srv.Shutdown(context.Background())
	if pgStore != nil {
		pgStore.Close()
	}
	if redisSink != nil {
		redisSink.Close()
	}
	if discordSink != nil {
		discordSink.Close()
	}
	if index != nil {
		index.Close()
	}
	graph.Close(context.Background())
}

// seedWorld registers the starting districts and residents so the
// simulation has something to run against before any API calls arrive.
func seedWorld(registry *agent.Registry, directory *city.Directory) {
	districts := []*city.District{
		{ID: "downtown", Name: "Downtown", Type: city.DistrictCommercial,
			Description: "Dense commercial core with offices, shops and transit hubs", Population: 12000},
		{ID: "riverside", Name: "Riverside", Type: city.DistrictResidential,
			Description: "Quiet residential neighborhood along the river with parks and schools", Population: 8500},
		{ID: "old-town", Name: "Old Town", Type: city.DistrictCultural,
			Description: "Historic quarter with museums, galleries and theaters", Population: 4200},
		{ID: "harbor", Name: "Harbor", Type: city.DistrictIndustrial,
			Description: "Industrial waterfront with warehouses, docks and factories", Population: 3100},
		{ID: "midtown", Name: "Midtown", Type: city.DistrictMixed,
			Description: "Mixed-use blocks with apartments above street-level restaurants and shops", Population: 9800},
	}
	for _, d := range districts {
		directory.Register(d)
	}

	residents := []*agent.Profile{
		{Name: "Maya Chen", DistrictID: "downtown",
			Traits: agent.Traits{Analytical: 0.8, Creativity: 0.5, Empathy: 0.6, Curiosity: 0.7,
				Enthusiasm: 0.6, Extroversion: 0.7, CulturalOpenness: 0.8, CommunityOrientation: 0.5},
			Interests: []string{"technology", "food", "urban planning"}},
		{Name: "Theo Okafor", DistrictID: "riverside",
			Traits: agent.Traits{Analytical: 0.4, Creativity: 0.8, Empathy: 0.9, Curiosity: 0.6,
				Enthusiasm: 0.8, Extroversion: 0.9, CulturalOpenness: 0.7, CommunityOrientation: 0.9},
			Interests: []string{"music", "gardening", "community"}},
		{Name: "Ingrid Larsen", DistrictID: "old-town",
			Traits: agent.Traits{Analytical: 0.7, Creativity: 0.9, Empathy: 0.5, Curiosity: 0.9,
				Enthusiasm: 0.4, Extroversion: 0.3, CulturalOpenness: 0.9, CommunityOrientation: 0.4},
			Interests: []string{"art", "history", "architecture"}},
		{Name: "Rafael Soto", DistrictID: "harbor",
			Traits: agent.Traits{Analytical: 0.6, Creativity: 0.3, Empathy: 0.7, Curiosity: 0.5,
				Enthusiasm: 0.7, Extroversion: 0.6, CulturalOpenness: 0.5, CommunityOrientation: 0.8},
			Interests: []string{"sports", "food", "logistics"}},
		{Name: "Amara Diallo", DistrictID: "midtown",
			Traits: agent.Traits{Analytical: 0.5, Creativity: 0.7, Empathy: 0.8, Curiosity: 0.8,
				Enthusiasm: 0.9, Extroversion: 0.8, CulturalOpenness: 0.9, CommunityOrientation: 0.7},
			Interests: []string{"music", "art", "food"}},
		{Name: "Jonas Weber", DistrictID: "downtown",
			Traits: agent.Traits{Analytical: 0.9, Creativity: 0.4, Empathy: 0.4, Curiosity: 0.6,
				Enthusiasm: 0.3, Extroversion: 0.2, CulturalOpenness: 0.4, CommunityOrientation: 0.3},
			Interests: []string{"technology", "finance", "chess"}},
	}
	for _, p := range residents {
		registry.Register(p)
	}
}
