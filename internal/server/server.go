package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/Jayshxd/Open-Feast/internal/config"
	"github.com/Jayshxd/Open-Feast/internal/expiry"
	"github.com/Jayshxd/Open-Feast/internal/foodspot"
	"github.com/Jayshxd/Open-Feast/internal/storage"
	"github.com/Jayshxd/Open-Feast/internal/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

const defaultMaxImageBytes = 10 << 20

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Mongo  *mongo.Database
	Log    *slog.Logger
	Stream *stream.Hub
	Spots  *foodspot.Service
	Images *storage.Service
	Expiry *expiry.Scheduler
}

// NewServer wires the listing service onto whatever backends are available.
// Without Postgres listings live in memory; without Mongo image uploads fail
// and listings fall back to the placeholder only when no image is sent.
func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client, mongoDB *mongo.Database, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	if cfg.MaxImageBytes <= 0 {
		cfg.MaxImageBytes = defaultMaxImageBytes
	}

	app := fiber.New(fiber.Config{
		BodyLimit:             cfg.MaxImageBytes + 1<<20,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: "GET,POST,OPTIONS",
	}))

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Mongo:  mongoDB,
		Log:    log,
		Stream: stream.NewHub(redisClient, log),
	}

	blobs := s.blobs()
	store := foodspot.Store(foodspot.NewMemoryStore())
	if db != nil {
		s.ensureSchema()
		store = foodspot.NewPostgresStore(db)
		s.Images = storage.NewService(db, blobs, cfg.PublicBaseURL)
	} else {
		log.Warn("postgres unavailable, listings are kept in memory")
		s.Images = storage.NewService(nil, blobs, cfg.PublicBaseURL)
	}

	s.Spots = foodspot.NewService(store, s.Images, s.Stream, foodspot.DefaultRules(cfg.PlaceholderImageURL), log)
	s.Expiry = expiry.NewScheduler(expiry.NewSweeper(store, s.Stream, log), redisClient, log)

	registerRoutes(s)
	return s
}

func (s *Server) blobs() storage.Blobs {
	if s.Mongo == nil {
		return nil
	}
	blobs, err := storage.NewGridFS(s.Mongo, s.Cfg.ImageBucket)
	if err != nil {
		s.Log.Error("gridfs bucket unavailable", "error", err, "bucket", s.Cfg.ImageBucket)
		return nil
	}
	return blobs
}

func (s *Server) ensureSchema() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := foodspot.EnsureSchema(ctx, s.DB); err != nil {
		s.Log.Error("food_spots schema setup failed", "error", err)
	}
	if err := storage.EnsureSchema(ctx, s.DB); err != nil {
		s.Log.Error("storage schema setup failed", "error", err)
	}
}

// Close releases background resources owned by the server.
func (s *Server) Close() {
	s.Stream.Close()
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	foodspot.RegisterRoutes(s.App.Group("/food-spots"), s.Spots, int64(s.Cfg.MaxImageBytes))
	storage.RegisterRoutes(s.App.Group("/images"), s.Images)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
