package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/feedworks/refinery/app/database"
	"github.com/feedworks/refinery/app/jobs"
	"github.com/feedworks/refinery/app/websub"
)

type Handler struct {
	feeds         database.FeedRepository
	users         database.UserRepository
	refresher     *jobs.TwitterFeedRefresherJob
	secretKeyBase string
	version       string
}

func NewHandler(feeds database.FeedRepository, users database.UserRepository,
	refresher *jobs.TwitterFeedRefresherJob, secretKeyBase, version string) *Handler {
	return &Handler{
		feeds:         feeds,
		users:         users,
		refresher:     refresher,
		secretKeyBase: secretKeyBase,
		version:       version,
	}
}

func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": h.version,
	})
}

// VerifyWebSub answers the hub's subscription confirmation. The signature
// is recomputed from the feed id; a mismatch means the callback URL was not
// produced by us.
func (h *Handler) VerifyWebSub(c *gin.Context) {
	feedID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	if !websub.VerifySignature(feedID, h.secretKeyBase, c.Query("signature")) {
		slog.Info("Rejected push verification with bad signature", "feed_id", feedID)
		c.Status(http.StatusNotFound)
		return
	}

	challenge := c.Query("hub.challenge")
	if challenge == "" {
		c.Status(http.StatusBadRequest)
		return
	}

	c.String(http.StatusOK, challenge)
}

// RefreshFeed triggers a user-initiated priority refresh of one feed.
func (h *Handler) RefreshFeed(c *gin.Context) {
	feedID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	feed, err := h.feeds.GetFeed(feedID)
	if errors.Is(err, database.ErrNotFound) {
		c.Status(http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("Database error", "operation", "get_feed", "feed_id", feedID, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	var user *database.User
	if rawUserID := c.Query("user_id"); rawUserID != "" {
		userID, err := strconv.ParseInt(rawUserID, 10, 64)
		if err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		user, err = h.users.GetUser(userID)
		if errors.Is(err, database.ErrNotFound) {
			c.Status(http.StatusNotFound)
			return
		}
		if err != nil {
			slog.Error("Database error", "operation", "get_user", "user_id", userID, "error", err)
			c.Status(http.StatusInternalServerError)
			return
		}
	}

	if err := h.refresher.PriorityRefresh(c.Request.Context(), feed, user); err != nil {
		slog.Error("Failed to dispatch priority refresh", "feed_id", feedID, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}
