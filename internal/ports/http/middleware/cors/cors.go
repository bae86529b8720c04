package cors

import (
	"net/http"

	"github.com/rs/cors"
)

// AddCorsPolicy allows browser clients from origins; none means any origin.
func AddCorsPolicy(handler http.Handler, origins []string) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowCredentials: true,
		Debug:            false,
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
	})

	return c.Handler(handler)
}
