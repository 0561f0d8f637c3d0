package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/karaokeforge/queueing-proxy/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	// Usage page
	r.GET("/", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, "<p>Queueing Proxy Server API</p><p>POST /queue_request to queue a song for processing.</p>")
	})

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "queueing-proxy-service",
		})
	})

	songHandler := handler.NewSongHandler(deps)

	// Create a song and dispatch its background unit
	r.POST("/queue_request", songHandler.QueueRequest)

	// Read-side operations; clients poll these while processing runs
	r.GET("/list_available_songs", songHandler.ListAvailableSongs)
	r.GET("/get_song_data", songHandler.GetSongData)
	r.GET("/find_song_by_title", songHandler.FindSongByTitle)
	r.GET("/find_songs_by_original_artist", songHandler.FindSongsByOriginalArtist)
	r.GET("/stream_audio", songHandler.StreamAudio)
	r.GET("/remove_song_data", songHandler.RemoveSongData)

	return r
}
