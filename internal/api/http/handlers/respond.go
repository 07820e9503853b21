package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// respond writes the uniform success envelope:
// { success, message, ...payload, timestamp }.
func respond(c *fiber.Ctx, status int, message string, payload fiber.Map) error {
	body := fiber.Map{
		"success":   true,
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range payload {
		body[k] = v
	}
	return c.Status(status).JSON(body)
}
