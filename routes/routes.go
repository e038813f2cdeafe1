package routes

import (
	"net/http"
	"path/filepath"

	"wayfare/bookings"
	"wayfare/catalog"
	"wayfare/live"
	"wayfare/ratelim"

	"github.com/julienschmidt/httprouter"
)

func AddPackageRoutes(router *httprouter.Router, api *catalog.API, rl *ratelim.RateLimiter) {
	router.GET("/api/packages", api.ListPackages)
	router.GET("/api/packages/:id", api.GetPackage)
	router.POST("/api/packages", rl.Limit(api.CreatePackage))
	router.PUT("/api/packages/:id", rl.Limit(api.UpdatePackage))
	router.DELETE("/api/packages/:id", rl.Limit(api.DeletePackage))
	router.POST("/api/packages/:id/image", rl.Limit(api.UploadImage))
}

func AddBookingRoutes(router *httprouter.Router, api *bookings.API, rl *ratelim.RateLimiter) {
	router.GET("/api/bookings", api.ListBookings)
	router.GET("/api/bookings/:id", api.GetBooking)
	router.GET("/api/bookings/:id/receipt", api.PrintReceipt)
	router.POST("/api/bookings", rl.Limit(api.CreateBooking))
	router.PUT("/api/bookings/:id", rl.Limit(api.UpdateBooking))
	router.DELETE("/api/bookings/:id", rl.Limit(api.DeleteBooking))
}

func AddLiveRoutes(router *httprouter.Router, hub *live.Hub) {
	router.GET("/api/ws/updates", hub.HandleWS)
}

func AddStaticRoutes(router *httprouter.Router, uploadDir string) {
	router.ServeFiles("/static/packagepic/*filepath", http.Dir(filepath.Join(uploadDir, "packagepic")))
}
