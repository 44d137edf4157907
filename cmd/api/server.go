package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bookexchange-backend/pkg/container"
)

// healthCheckHandler báo trạng thái các dependency chính
func healthCheckHandler(c *container.Container) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := gin.H{}

		if err := c.DB.HealthCheck(checkCtx); err != nil {
			checks["database"] = "down"
			status = http.StatusServiceUnavailable
		} else {
			checks["database"] = "up"
		}

		// Redis là optional dependency - down không kéo status xuống
		if err := c.Redis.HealthCheck(checkCtx); err != nil {
			checks["redis"] = "down"
		} else {
			checks["redis"] = "up"
		}

		ctx.JSON(status, gin.H{
			"status":  http.StatusText(status),
			"version": c.Config.App.Version,
			"checks":  checks,
		})
	}
}
