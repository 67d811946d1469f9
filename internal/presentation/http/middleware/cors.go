package middleware

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSMiddleware allows credentialed requests from the configured origins.
// fallback is used when origins is empty.
func CORSMiddleware(origins []string, fallback string) gin.HandlerFunc {
	if len(origins) == 0 {
		origins = []string{fallback}
	}

	config := cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{
			"GET", "POST", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization",
			"X-Requested-With", "Cache-Control",
		},
		AllowCredentials: true,
		ExposeHeaders: []string{
			"Content-Type", "Cache-Control",
		},
	}

	return cors.New(config)
}

// OriginAllowed reports whether origin is one of allowed. Websocket upgrades
// use it since CORS does not apply to them.
func OriginAllowed(allowed []string, origin string) bool {
	origin = strings.TrimRight(origin, "/")
	for _, o := range allowed {
		if strings.EqualFold(strings.TrimRight(o, "/"), origin) {
			return true
		}
	}
	return false
}
