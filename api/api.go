/*
Copyright 2025 Tradepost Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package api

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tradepost-hq/tradepost"
	"github.com/tradepost-hq/tradepost/api/middleware"
	"github.com/tradepost-hq/tradepost/config"
	"github.com/tradepost-hq/tradepost/internal/apierror"
)

type Api struct {
	tradepost *tradepost.Tradepost
	router    *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router

	router.POST("/changes", a.GetChanges)

	router.POST("/listings", a.CreateListing)
	router.GET("/listings/:id", a.GetListing)
	router.GET("/listings", a.GetAllListings)
	router.POST("/listings/:id/approve", a.ApproveListing)
	router.POST("/listings/:id/reject", a.RejectListing)
	router.POST("/listings/:id/resolve", a.ResolveListingOffers)
	router.GET("/listings/:id/offers", a.GetOffersByListing)

	router.POST("/offers", a.CreateOffer)
	router.GET("/offers/:id", a.GetOffer)
	router.POST("/offers/:id/accept", a.AcceptOffer)
	router.POST("/offers/:id/reject", a.RejectOffer)

	router.GET("/orders/:id", a.GetOrder)
	router.GET("/orders", a.GetAllOrders)

	router.POST("/payments", a.RecordPayment)
	router.GET("/payments", a.GetAllPayments)

	router.GET("/logs", a.GetAuditLogs)

	return a.router
}

func NewAPI(t *tradepost.Tradepost) *Api {
	gin.SetMode(gin.ReleaseMode)
	conf, err := config.Fetch()
	if err != nil {
		return nil
	}
	r := gin.Default()
	r.Use(middleware.RateLimitMiddleware(conf))
	if conf.Server.Secure {
		r.Use(middleware.SecretKeyAuthMiddleware())
	}

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, "server running...")
	})

	return &Api{tradepost: t, router: r}
}

// respondError maps service errors onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	c.JSON(apierror.MapErrorToHTTPStatus(err), gin.H{"error": err.Error()})
}

// actorID identifies the operator performing a mutation, for the audit trail.
func actorID(c *gin.Context) string {
	return c.GetHeader("X-Tradepost-Actor")
}

func paginationParams(c *gin.Context) (int, int) {
	limit := 50
	offset := 0
	if v, ok := c.GetQuery("limit"); ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if v, ok := c.GetQuery("offset"); ok {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}
