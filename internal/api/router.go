package api

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shahadulhaider/meeting-note-taker/internal/api/handler"
	"github.com/shahadulhaider/meeting-note-taker/internal/api/middleware"
	"github.com/shahadulhaider/meeting-note-taker/internal/config"
	"github.com/shahadulhaider/meeting-note-taker/internal/identity"
	"github.com/shahadulhaider/meeting-note-taker/internal/logger"
	"github.com/shahadulhaider/meeting-note-taker/internal/realtime"
	"github.com/shahadulhaider/meeting-note-taker/internal/repository"
	"github.com/shahadulhaider/meeting-note-taker/internal/storage"
	"gorm.io/gorm"
)

// Deps bundles everything the router needs.
type Deps struct {
	Config      *config.Config
	Log         *logger.Logger
	DB          *gorm.DB
	Redis       *redis.Client
	Meetings    *repository.MeetingRepository
	Transcripts *repository.TranscriptRepository
	Storage     storage.ObjectStorage
	Queue       handler.JobEnqueuer
	Verifier    *identity.Verifier
	Hub         *realtime.Hub
}

// meetingGate adapts the meeting repository to the realtime ownership
// check.
type meetingGate struct {
	meetings *repository.MeetingRepository
}

func (g meetingGate) Owns(ctx context.Context, meetingID, userID string) (bool, error) {
	_, err := g.meetings.GetOwned(ctx, meetingID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(deps Deps) *gin.Engine {
	switch deps.Config.Server.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(deps.Log))
	r.Use(middleware.CORS(deps.Config.Server.CORS))

	healthHandler := handler.NewHealthHandler(deps.DB, deps.Redis)
	authHandler := handler.NewAuthHandler(deps.Verifier)
	meetingHandler := handler.NewMeetingHandler(
		deps.Meetings, deps.Transcripts, deps.Storage, deps.Queue, &deps.Config.Storage)

	r.GET("/health", healthHandler.Health)

	// WebSocket progress channel; auth happens on the first frame, not
	// via headers, since browser WebSocket clients cannot set them.
	gate := meetingGate{meetings: deps.Meetings}
	r.GET("/ws", func(c *gin.Context) {
		realtime.ServeWS(deps.Hub, deps.Verifier, gate, c.Writer, c.Request)
	})

	api := r.Group("/api")
	api.Use(middleware.RequireAuth(deps.Verifier))
	{
		api.GET("/auth/me", authHandler.Me)
		api.POST("/auth/logout", authHandler.Logout)

		api.GET("/meetings", meetingHandler.List)
		api.POST("/meetings", meetingHandler.Create)
		api.GET("/meetings/:id", meetingHandler.Get)
		api.DELETE("/meetings/:id", meetingHandler.Delete)
		api.POST("/meetings/:id/upload", meetingHandler.Upload)
	}

	return r
}
