package api

import "github.com/gin-gonic/gin"

// SetupRouter builds the memory service's gin engine. ratePerSecond and
// burst configure the shared token bucket; 0 disables rate limiting.
func SetupRouter(h *Handler, ratePerSecond float64, burst int) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", h.Health)

	limited := r.Group("/")
	if ratePerSecond > 0 {
		limited.Use(RateLimitMiddleware(ratePerSecond, burst))
	}
	{
		limited.POST("/retrieve-context", h.RetrieveContext)

		memory := limited.Group("/memory")
		{
			memory.POST("/facts", h.StoreFact)
			memory.GET("/facts/:user_id/:character_id", h.ListFacts)
			memory.POST("/search", h.SearchMemory)
			memory.GET("/stats/:user_id/:character_id", h.Stats)
			memory.DELETE("/conversations/:user_id", h.PurgeConversations)
		}
	}

	return r
}
