package handlers

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/wazadio/bot/bot"
	"github.com/wazadio/bot/pkg/monitoring"
	"github.com/wazadio/bot/v1/models"
	"github.com/wazadio/bot/v1/services"
)

// User-facing reply texts
const (
	msgStart         = "Hi! Please share your phone number to join the group."
	msgShareButton   = "Share my phone number"
	msgAlreadyJoined = "ℹ️ Link already sent, or you have already joined the group."
	msgExpired       = "❌ Your membership has expired. Please renew to join the group."
	msgNotRegistered = "❌ You are not registered. Cannot add to the group."
	msgPhoneNotFound = "❌ Phone number not found in our records. Please make sure you're using the correct phone number."
	msgInviteFailed  = "❌ Failed to create invite link. Please contact admin."
	msgGenericError  = "❌ Something went wrong. Please try again later."
	msgPhoneHelp     = "Please send your phone number in one of these formats:\n" +
		"• +628123456789\n" +
		"• 08123456789\n" +
		"• 628123456789\n\n" +
		"Or use the 'Share my phone number' button by typing /start"
)

// TelegramHandler dispatches long-polled updates to the admission engine.
// Each update runs on its own goroutine so a slow admission (invite creation
// is a network call) never stalls the poll loop.
type TelegramHandler struct {
	bot         bot.API
	admission   *services.AdmissionService
	groupID     int64
	pollTimeout time.Duration
}

// NewTelegramHandler creates a new update dispatcher
func NewTelegramHandler(botAPI bot.API, admission *services.AdmissionService, groupID int64) *TelegramHandler {
	return &TelegramHandler{
		bot:         botAPI,
		admission:   admission,
		groupID:     groupID,
		pollTimeout: 30 * time.Second,
	}
}

// Run long-polls for updates until ctx is cancelled. It returns after every
// in-flight update handler has finished.
func (h *TelegramHandler) Run(ctx context.Context) {
	slog.Info("Starting update poll loop")

	var wg sync.WaitGroup
	defer wg.Wait()

	var offset int64
	for {
		if ctx.Err() != nil {
			slog.Info("Update poll loop stopped")
			return
		}

		updates, err := h.bot.GetUpdates(ctx, offset, h.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("Update poll loop stopped")
				return
			}
			slog.Error("Failed to fetch updates", "error", err)
			time.Sleep(3 * time.Second)
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			u := update
			wg.Add(1)
			go func() {
				defer wg.Done()
				h.handleUpdate(ctx, u)
			}()
		}
	}
}

func (h *TelegramHandler) handleUpdate(ctx context.Context, update bot.Update) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Update handler panic recovered", "updateID", update.UpdateID, "panic", r)
		}
	}()

	switch {
	case update.ChatJoinRequest != nil:
		monitoring.RecordUpdate(ctx, "chat_join_request")
		h.handleJoinRequest(ctx, update.ChatJoinRequest)
	case update.ChatMember != nil:
		monitoring.RecordUpdate(ctx, "chat_member")
		h.handleChatMemberUpdate(ctx, update.ChatMember)
	case update.Message != nil:
		h.handleMessage(ctx, update.Message)
	}
}

func (h *TelegramHandler) handleMessage(ctx context.Context, msg *bot.Message) {
	// Only private conversations with the bot are served; chatter inside
	// the managed group is ignored.
	if msg.From == nil || msg.Chat.Type != "private" {
		return
	}
	chatID := msg.Chat.ID
	userID := msg.From.ID

	switch {
	case msg.Contact != nil:
		monitoring.RecordUpdate(ctx, "contact")
		slog.Info("Received contact", "telegramUserID", userID)
		result := h.admission.AdmitByPhone(ctx, msg.Contact.PhoneNumber, userID)
		h.reply(ctx, chatID, h.admissionReply(result, true))

	case strings.HasPrefix(msg.Text, "/start"):
		monitoring.RecordUpdate(ctx, "command")
		if err := h.bot.SendContactPrompt(ctx, chatID, msgStart, msgShareButton); err != nil {
			slog.Error("Failed to send contact prompt", "telegramUserID", userID, "error", err)
		}

	case msg.Text != "":
		monitoring.RecordUpdate(ctx, "text")
		slog.Info("Received message", "telegramUserID", userID)
		result := h.admission.AdmitByPhone(ctx, strings.TrimSpace(msg.Text), userID)
		h.reply(ctx, chatID, h.admissionReply(result, false))
	}
}

// admissionReply maps an admission outcome to the user-facing reply text.
// The contact path and the typed-phone path word a few cases differently.
func (h *TelegramHandler) admissionReply(result models.AdmissionResult, fromContact bool) string {
	switch result.Outcome {
	case models.AdmissionAccepted:
		return "✅ Approved! Here's your one-time group link:\n" + result.InviteLink +
			"\n\nThis link will expire in 1 hour or after one use."
	case models.AdmissionAlreadyJoined:
		return msgAlreadyJoined
	case models.AdmissionExpired:
		return msgExpired
	case models.AdmissionNotFound:
		if fromContact {
			return msgNotRegistered
		}
		return msgPhoneNotFound
	case models.AdmissionInvalidPhone:
		if fromContact {
			return msgNotRegistered
		}
		return msgPhoneHelp
	case models.AdmissionTransportFailed:
		return msgInviteFailed
	default:
		return msgGenericError
	}
}

func (h *TelegramHandler) handleJoinRequest(ctx context.Context, req *bot.ChatJoinRequest) {
	if req.Chat.ID != h.groupID {
		return
	}
	result := h.admission.AdmitJoinRequest(ctx, req.From.ID)
	slog.Info("Handled join request", "telegramUserID", req.From.ID, "outcome", result.Outcome)
}

func (h *TelegramHandler) handleChatMemberUpdate(ctx context.Context, upd *bot.ChatMemberUpdated) {
	if upd.Chat.ID != h.groupID {
		return
	}

	userID := upd.NewChatMember.User.ID
	oldIn := isInGroup(upd.OldChatMember.Status)
	newIn := isInGroup(upd.NewChatMember.Status)
	if oldIn == newIn {
		return
	}

	slog.Info("Group membership changed", "telegramUserID", userID, "joined", newIn)
	if err := h.admission.TrackMembershipChange(ctx, userID, newIn); err != nil {
		slog.Error("Failed to track membership change", "telegramUserID", userID, "error", err)
	}
}

func isInGroup(status string) bool {
	switch status {
	case "member", "administrator", "creator":
		return true
	}
	return false
}

func (h *TelegramHandler) reply(ctx context.Context, chatID int64, text string) {
	if err := h.bot.SendMessage(ctx, chatID, text); err != nil {
		slog.Error("Failed to send reply", "chatID", chatID, "error", err)
	}
}
