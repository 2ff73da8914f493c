package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/anonto42/socialpulse/backend/internal/logging"
	"github.com/anonto42/socialpulse/backend/internal/models"
	"github.com/anonto42/socialpulse/backend/internal/notify"
	"github.com/anonto42/socialpulse/backend/internal/realtime"
	"github.com/anonto42/socialpulse/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// MessageHandler handles direct conversations and their messages
type MessageHandler struct {
	conversationRepository repositories.ConversationRepository
	messageRepository      repositories.MessageRepository
	notificationRepository repositories.NotificationRepository
	userRepository         repositories.UserRepository
	publisher              notify.Publisher
	notifier               *notify.Service
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(
	convRepo repositories.ConversationRepository,
	msgRepo repositories.MessageRepository,
	notifRepo repositories.NotificationRepository,
	userRepo repositories.UserRepository,
	publisher notify.Publisher,
	notifier *notify.Service,
) *MessageHandler {
	return &MessageHandler{
		conversationRepository: convRepo,
		messageRepository:      msgRepo,
		notificationRepository: notifRepo,
		userRepository:         userRepo,
		publisher:              publisher,
		notifier:               notifier,
	}
}

// RegisterMessageRoutes registers conversation and message routes
func (h *MessageHandler) RegisterMessageRoutes(g *echo.Group) {
	g.POST("/conversations", h.StartConversation)
	g.GET("/conversations", h.GetConversations)
	g.GET("/conversations/:id/messages", h.GetMessages)
	g.POST("/conversations/:id/messages", h.SendMessage)
	g.PUT("/conversations/:id/read", h.MarkConversationRead)
}

// participantConversation loads the conversation and checks that the caller takes part in it.
func (h *MessageHandler) participantConversation(c echo.Context, me string) (*models.Conversation, error) {
	conv, err := h.conversationRepository.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return nil, repoError(err, "Conversation")
	}
	if !conv.HasParticipant(me) {
		return nil, echo.NewHTTPError(http.StatusForbidden, "You are not a participant of this conversation")
	}
	return conv, nil
}

// StartConversation opens (or returns) the direct conversation with another user
func (h *MessageHandler) StartConversation(c echo.Context) error {
	me := getIdentityFromContext(c)
	if me == "" {
		return unauthenticated()
	}

	var req models.StartConversationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.Peer == me {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot start a conversation with yourself")
	}
	if _, err := h.userRepository.GetUserByIdentity(req.Peer); err != nil {
		return repoError(err, "User")
	}

	conv, err := h.conversationRepository.FindOrCreateDirect(c.Request().Context(), me, req.Peer)
	if err != nil {
		return repoError(err, "Conversation")
	}
	return success(c, http.StatusOK, conv)
}

// GetConversations lists the caller's conversations
func (h *MessageHandler) GetConversations(c echo.Context) error {
	me := getIdentityFromContext(c)
	if me == "" {
		return unauthenticated()
	}

	skip, limit := paging(c)
	conversations, err := h.conversationRepository.ListForUser(c.Request().Context(), me, skip, limit)
	if err != nil {
		return repoError(err, "Conversation")
	}
	return success(c, http.StatusOK, conversations)
}

// GetMessages lists a conversation's messages, newest first
func (h *MessageHandler) GetMessages(c echo.Context) error {
	me := getIdentityFromContext(c)
	if me == "" {
		return unauthenticated()
	}

	conv, err := h.participantConversation(c, me)
	if err != nil {
		return err
	}

	skip, limit := paging(c)
	messages, err := h.messageRepository.ListByConversation(c.Request().Context(), conv.ID, skip, limit)
	if err != nil {
		return repoError(err, "Message")
	}
	return success(c, http.StatusOK, messages)
}

// SendMessage stores a message, pushes it to the peer and refreshes the
// peer's unread message notification for the conversation.
func (h *MessageHandler) SendMessage(c echo.Context) error {
	me := getIdentityFromContext(c)
	if me == "" {
		return unauthenticated()
	}

	var req models.SendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	conv, err := h.participantConversation(c, me)
	if err != nil {
		return err
	}
	peer := conv.Peer(me)
	ctx := c.Request().Context()

	msg := &models.Message{
		ConversationID: conv.ID,
		Sender:         me,
		Recipient:      peer,
		Text:           req.Text,
		CreatedAt:      time.Now(),
	}
	if err := h.messageRepository.Create(ctx, msg); err != nil {
		return repoError(err, "Message")
	}

	last := models.LastMessage{Text: msg.Text, Sender: me, SentAt: msg.CreatedAt}
	if err := h.conversationRepository.UpdateLastMessage(ctx, conv.ID, last); err != nil {
		logging.Warn().Err(err).Str("conversation", conv.ID.Hex()).Msg("failed to update last message")
	}

	senderName := ""
	if sender, err := h.userRepository.GetUserByID(getUserIDFromContext(c)); err == nil {
		senderName = sender.Label()
	}
	if _, err := h.notifier.UpsertMessageNotification(ctx, peer, me, senderName, msg.Text, conv.ID.Hex()); err != nil {
		return repoError(err, "Notification")
	}

	h.publisher.PublishToUser(peer, realtime.EventReceiveMessage, msg)

	return success(c, http.StatusCreated, msg)
}

// MarkConversationRead marks the peer's messages to the caller as read,
// tells the peer, and clears the caller's message notification.
func (h *MessageHandler) MarkConversationRead(c echo.Context) error {
	me := getIdentityFromContext(c)
	if me == "" {
		return unauthenticated()
	}

	conv, err := h.participantConversation(c, me)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	updated, err := h.messageRepository.MarkRead(ctx, conv.ID, me)
	if err != nil {
		return repoError(err, "Message")
	}

	if _, err := h.notificationRepository.MarkConversationRead(ctx, me, conv.ID.Hex()); err != nil {
		return repoError(err, "Notification")
	}

	if updated > 0 {
		h.publisher.PublishToUser(conv.Peer(me), realtime.EventMessagesRead, realtime.MessagesRead{
			ConversationID: conv.ID.Hex(),
			ReaderID:       me,
		})
	}

	return success(c, http.StatusOK, echo.Map{"updated": updated})
}

// paging reads skip and limit query parameters, defaulting limit to 20.
func paging(c echo.Context) (int64, int64) {
	skip, _ := strconv.ParseInt(c.QueryParam("skip"), 10, 64)
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return skip, limit
}
