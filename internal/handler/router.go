package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handlers bundles the route handlers for registration.
type Handlers struct {
	Courses     *CourseHandler
	Categories  *CategoryHandler
	Enrollments *EnrollmentHandler
	Students    *StudentHandler
	Stats       *StatsHandler
	Exports     *ExportHandler
	Metrics     *MetricsHandler
	Ready       gin.HandlerFunc
}

// Ready builds the readiness handler. The fallback tiers keep the API
// serving when the primary database is down, so the route always answers
// ready and reports the primary state alongside.
func Ready(primaryPing func() error) gin.HandlerFunc {
	return func(c *gin.Context) {
		primary := "up"
		if primaryPing == nil || primaryPing() != nil {
			primary = "down"
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "primary": primary})
	}
}

// RegisterRoutes mounts the API surface under the given prefix.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if h.Ready != nil {
		r.GET("/ready", h.Ready)
	}
	if h.Metrics != nil {
		r.GET("/metrics", h.Metrics.Prometheus)
	}

	api := r.Group(prefix)

	courses := api.Group("/courses")
	courses.GET("", h.Courses.List)
	courses.GET("/:id", h.Courses.Get)
	courses.POST("", h.Courses.Create)
	courses.PUT("", h.Courses.Update)
	courses.DELETE("", h.Courses.Delete)

	categories := api.Group("/categories")
	categories.GET("", h.Categories.List)
	categories.GET("/:id/courses", h.Categories.Courses)
	categories.POST("", h.Categories.Create)
	categories.PUT("", h.Categories.Update)
	categories.PUT("/:id", h.Categories.Update)
	categories.DELETE("", h.Categories.Delete)
	categories.DELETE("/:id", h.Categories.Delete)

	enrollments := api.Group("/enrollments")
	enrollments.GET("", h.Enrollments.List)
	enrollments.POST("", h.Enrollments.Submit)
	enrollments.DELETE("", h.Enrollments.Delete)

	students := api.Group("/students")
	students.GET("", h.Students.List)
	students.GET("/:id", h.Students.Get)
	students.POST("", h.Students.Create)
	students.PUT("/:id", h.Students.Update)
	students.DELETE("/:id", h.Students.Delete)

	api.GET("/stats", h.Stats.Get)

	if h.Exports != nil {
		exports := api.Group("/exports")
		exports.POST("", h.Exports.Create)
		exports.GET("/jobs/:id", h.Exports.Status)
		exports.GET("/download/:token", h.Exports.Download)
	}
}
