package handlers

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	authgin "github.com/connelaide/connelaide-api/adapters/gin"
	"github.com/connelaide/connelaide-api/auth0"
	"github.com/connelaide/connelaide-api/jobs"
	jwtkit "github.com/connelaide/connelaide-api/jwt"
	"github.com/connelaide/connelaide-api/ratelimit"
	pgstore "github.com/connelaide/connelaide-api/storage/postgres"
)

// Deps carries everything the route table needs. Mgmt may be nil when
// machine-to-machine credentials are not configured.
type Deps struct {
	Verifier *jwtkit.Verifier
	Store    *pgstore.Store
	Runner   *jobs.Runner
	Mgmt     *auth0.ManagementClient
	Limiter  ratelimit.Limiter
	Origins  []string
	Log      logrus.FieldLogger
}

// NewRouter builds the full route table.
func NewRouter(d Deps) *gin.Engine {
	log := d.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(authgin.RequestID())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     d.Origins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/", HandleRootGET())
	r.GET("/health", HandleHealthGET())

	api := r.Group("/api/v1")
	api.Use(authgin.AuthRequired(d.Verifier, log))
	{
		read := authgin.RateLimit(d.Limiter, ratelimit.BucketRead, log)
		write := authgin.RateLimit(d.Limiter, ratelimit.BucketWrite, log)

		api.GET("/me", read, HandleMeGET())

		api.GET("/transactions", read, HandleTransactionsGET(d.Store))
		api.PATCH("/transactions/:id", write, HandleTransactionPATCH(d.Store))

		api.GET("/categories", read, HandleCategoriesGET(d.Store))
		api.POST("/categories", write, HandleCategoryPOST(d.Store))
		api.DELETE("/categories/:id", write, HandleCategoryDELETE(d.Store))

		api.GET("/pay-periods", read, HandlePayPeriodsGET(d.Store))
		api.GET("/expenses", read, HandleExpensesGET(d.Store))

		api.GET("/refresh", read, HandleRefreshStatusGET(d.Store))
		api.POST("/refresh",
			authgin.RateLimit(d.Limiter, ratelimit.BucketRefresh, log),
			authgin.RequirePermission("write:refresh"),
			HandleRefreshPOST(d.Runner))

		api.GET("/admin/users/:user_id",
			read,
			authgin.RequirePermission("read:users"),
			HandleAdminUserGET(d.Mgmt))
	}
	return r
}
