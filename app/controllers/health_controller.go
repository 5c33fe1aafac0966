package controllers

import (
	"net/http"

	"github.com/shashiranjanraj/nearcart/pkg/ctx"
)

// Health answers liveness probes.
func Health(c *ctx.Context) {
	c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
