package api

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"chatminder/internal/convstate"
	"chatminder/internal/models"
	"chatminder/internal/service/assistant"
	"chatminder/internal/service/intent"
)

const fallbackReply = "I'm having trouble processing that. Let me know if you'd like to try again."

// Handler wires HTTP routes to the slot-filling engine and the stores.
type Handler struct {
	assistant     *assistant.Service
	engine        *intent.Engine
	state         *convstate.Store
	windowMinutes int
}

// NewHandler constructs a Handler instance.
func NewHandler(service *assistant.Service, engine *intent.Engine, state *convstate.Store, windowMinutes int) *Handler {
	if windowMinutes <= 0 {
		windowMinutes = 10
	}
	return &Handler{
		assistant:     service,
		engine:        engine,
		state:         state,
		windowMinutes: windowMinutes,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	api := router.Group("/api")
	chat := api.Group("/chats/:chat_id")
	chat.POST("/messages", h.postMessage)
	chat.GET("/reminders", h.listReminders)
	chat.GET("/context", h.getContext)
}

func chatIDParam(c *gin.Context) (int64, bool) {
	chatID, err := strconv.ParseInt(c.Param("chat_id"), 10, 64)
	if err != nil || chatID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return 0, false
	}
	return chatID, true
}

type inboundMessage struct {
	UserName string `json:"user_name"`
	Text     string `json:"text"`
}

func (h *Handler) postMessage(c *gin.Context) {
	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}
	var req inboundMessage
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}
	userName := req.UserName
	if userName == "" {
		userName = "User"
	}

	ctx := c.Request.Context()
	now := time.Now().UTC()

	// The user's turn goes into history even when handling fails below.
	if _, err := h.assistant.AppendMessage(ctx, models.Message{
		ChatID:    chatID,
		Author:    userName,
		Role:      models.RoleUser,
		Text:      req.Text,
		CreatedAt: now,
	}); err != nil {
		log.Printf("store message for chat %d: %v", chatID, err)
	}

	reply, created := h.handleMessage(c, chatID, userName, req.Text, now)

	if _, err := h.assistant.AppendMessage(ctx, models.Message{
		ChatID: chatID,
		Role:   models.RoleAssistant,
		Text:   reply,
	}); err != nil {
		log.Printf("store reply for chat %d: %v", chatID, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"reply":            reply,
		"reminder_created": created,
	})
}

func (h *Handler) handleMessage(c *gin.Context, chatID int64, userName, text string, now time.Time) (string, bool) {
	if intent.IsListRequest(text) {
		listing, err := h.assistant.FormatActiveReminders(c.Request.Context(), chatID)
		if err != nil {
			log.Printf("list reminders for chat %d: %v", chatID, err)
			return fallbackReply, false
		}
		return listing, false
	}

	inFlow := false
	if st := h.state.Get(chatID); st != nil && st.Intent == models.IntentReminder {
		inFlow = true
	}
	if intent.IsReminderTrigger(text) || inFlow {
		decision := h.engine.Process(chatID, userName, text, now)
		created, reply := h.engine.CreateReminder(c.Request.Context(), decision)
		return reply, created
	}

	// Free-text response generation lives outside this service; plain
	// acknowledgement keeps the conversation moving.
	return "I understand. How else can I help you, " + userName + "?", false
}

func (h *Handler) listReminders(c *gin.Context) {
	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}
	reminders, err := h.assistant.ActiveReminders(c.Request.Context(), chatID)
	if err != nil {
		log.Printf("active reminders for chat %d: %v", chatID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list reminders"})
		return
	}
	if reminders == nil {
		reminders = []models.Reminder{}
	}
	c.JSON(http.StatusOK, gin.H{"reminders": reminders})
}

func (h *Handler) getContext(c *gin.Context) {
	chatID, ok := chatIDParam(c)
	if !ok {
		return
	}
	minutes := h.windowMinutes
	if raw := c.Query("minutes"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid minutes"})
			return
		}
		minutes = parsed
	}
	narrative := h.assistant.WindowContext(c.Request.Context(), chatID, minutes, time.Now().UTC())
	c.JSON(http.StatusOK, gin.H{"context": narrative})
}
