// Package api exposes the price-history engines over HTTP.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"grocery-price-lab/internal/deals"
	"grocery-price-lab/internal/logging"
	"grocery-price-lab/internal/observability"
	"grocery-price-lab/internal/storage"
	"grocery-price-lab/internal/timeline"
)

// Server holds the handlers' dependencies.
type Server struct {
	products storage.ProductStore
	prices   storage.PriceStore
	runs     storage.RunStore // optional
	timeline *timeline.Engine
	deals    *deals.Engine
	logger   logrus.FieldLogger
}

// Options contains configuration for creating a Server.
type Options struct {
	Products storage.ProductStore
	Prices   storage.PriceStore
	Runs     storage.RunStore
	Timeline *timeline.Engine
	Deals    *deals.Engine
	Logger   logrus.FieldLogger
}

// NewServer creates a new API server.
func NewServer(opts Options) *Server {
	return &Server{
		products: opts.Products,
		prices:   opts.Prices,
		runs:     opts.Runs,
		timeline: opts.Timeline,
		deals:    opts.Deals,
		logger:   logging.OrDiscard(opts.Logger).WithField("component", "api"),
	}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), metricsMiddleware())

	r.GET("/health", s.health)
	r.GET("/status", s.status)
	r.GET("/metrics", gin.WrapH(observability.Handler()))

	r.GET("/prices/:product_id", s.productPrices)

	discount := r.Group("/discount")
	{
		discount.GET("/", s.advertisedProducts)
		discount.GET("/departments", s.departmentDeals)
		discount.GET("/departments/:department_id", s.departmentDealList)
		discount.GET("/top", s.topDeals)
		discount.GET("/threshold", s.thresholdDeals)
	}

	department := r.Group("/department")
	{
		department.GET("/", s.departments)
		department.GET("/:department_id/count", s.departmentCount)
		department.GET("/:department_id", s.departmentProducts)
	}

	r.GET("/product/", s.productsByParams)

	return r
}
