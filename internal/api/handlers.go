package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/S4DIB/startup-world-cup/internal/auth"
	"github.com/S4DIB/startup-world-cup/internal/logging"
	"github.com/S4DIB/startup-world-cup/internal/models"
	"github.com/S4DIB/startup-world-cup/internal/relay"
	"github.com/S4DIB/startup-world-cup/internal/waitlist"
)

const signupMessage = "Thank you! You've been added to our waitlist. We'll notify you when we launch!"

// Waitlist is the part of the waitlist store the handlers need.
type Waitlist interface {
	AddEmail(ctx context.Context, email, source string) (bool, error)
	AllEmails(ctx context.Context) []models.WaitlistEntry
	EmailCount(ctx context.Context) int
	ExportCSV(ctx context.Context) string
}

// Relay answers chat messages.
type Relay interface {
	Reply(ctx context.Context, message string, history []models.Turn) (string, error)
	Label() string
}

// Handler wires HTTP routes to the waitlist store and the chat relay.
type Handler struct {
	waitlist Waitlist
	relay    Relay
	gate     *auth.Gate
}

func NewHandler(wl Waitlist, rl Relay, gate *auth.Gate) *Handler {
	return &Handler{waitlist: wl, relay: rl, gate: gate}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", h.healthz)

	api := router.Group("/api")
	api.POST("/waitlist", h.joinWaitlist)
	api.POST("/chat", h.chat)

	admin := api.Group("/waitlist/admin")
	admin.Use(h.gate.Middleware())
	admin.GET("", h.listWaitlist)
	admin.POST("", h.adminAction)
}

func (h *Handler) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type waitlistRequest struct {
	Email string `json:"email"`
}

func (h *Handler) joinWaitlist(c *gin.Context) {
	var req waitlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email is required"})
		return
	}
	if !waitlist.ValidEmail(req.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please enter a valid email address"})
		return
	}
	added, err := h.waitlist.AddEmail(c.Request.Context(), req.Email, waitlist.DefaultSource)
	if err != nil {
		logging.FromContext(c.Request.Context()).WithError(err).Error("add waitlist entry")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add to waitlist. Please try again."})
		return
	}
	if !added {
		c.JSON(http.StatusBadRequest, gin.H{"error": "This email is already on our waitlist!"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": signupMessage})
}

func (h *Handler) listWaitlist(c *gin.Context) {
	ctx := c.Request.Context()
	emails := h.waitlist.AllEmails(ctx)
	if emails == nil {
		emails = []models.WaitlistEntry{}
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   h.waitlist.EmailCount(ctx),
		"emails":  emails,
	})
}

type adminRequest struct {
	Action string `json:"action"`
}

func (h *Handler) adminAction(c *gin.Context) {
	var req adminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Action != "export-csv" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid action"})
		return
	}
	csv := h.waitlist.ExportCSV(c.Request.Context())
	c.Header("Content-Disposition", `attachment; filename="waitlist.csv"`)
	c.Data(http.StatusOK, "text/csv", []byte(csv))
}

type chatRequest struct {
	Message             string        `json:"message"`
	ConversationHistory []models.Turn `json:"conversationHistory"`
}

func (h *Handler) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message is required"})
		return
	}

	reply, err := h.relay.Reply(c.Request.Context(), req.Message, req.ConversationHistory)
	if err != nil {
		status, msg := h.relayError(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": reply})
}

// relayError maps relay failures onto the status and message sent to the client.
func (h *Handler) relayError(err error) (int, string) {
	label := h.relay.Label()
	var upstream *relay.UpstreamError
	switch {
	case errors.Is(err, relay.ErrNotConfigured):
		return http.StatusInternalServerError, fmt.Sprintf("%s API key not configured", label)
	case errors.As(err, &upstream):
		status := upstream.Code
		if status < http.StatusBadRequest || status > 599 {
			status = http.StatusBadGateway
		}
		return status, fmt.Sprintf("Failed to get response from %s API", label)
	case errors.Is(err, relay.ErrBadResponse):
		return http.StatusInternalServerError, fmt.Sprintf("Invalid response format from %s API", label)
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
