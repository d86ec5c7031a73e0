package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/train-status-bot/internal/domain/access"
	"github.com/Spok95/train-status-bot/internal/trains"
)

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	caller := callerID(msg.From)

	switch msg.Command() {
	case "start":
		b.handleStart(ctx, chatID, msg)

	case "help":
		b.reply(chatID, "Commands:\n/start — request access\n/single <TrainNo> <DD/MM/YYYY> — live status\n/list — train list")

	case "single":
		b.handleSingle(ctx, chatID, caller, msg.CommandArguments())

	case "list":
		b.handleList(ctx, chatID, caller)

	case "approve":
		b.handleApprove(ctx, chatID, caller, msg.CommandArguments())

	case "ban":
		b.handleBan(ctx, chatID, caller, msg.CommandArguments())

	case "reset", "delete":
		b.handleReset(ctx, chatID, caller, msg.CommandArguments())

	case "pending":
		b.handleListState(ctx, chatID, caller, access.StatePending, "🕒 Pending users")

	case "approved":
		b.handleListState(ctx, chatID, caller, access.StateApproved, "✅ Approved users")

	case "banned":
		b.handleListState(ctx, chatID, caller, access.StateBanned, "🚫 Banned users")

	case "admin":
		b.handleBroadcast(ctx, chatID, caller, msg.CommandArguments())

	case "export":
		b.handleExport(ctx, chatID, caller)

	default:
		b.reply(chatID, "Unknown command. Try /help")
	}
}

func (b *Bot) handleStart(ctx context.Context, chatID int64, msg *tgbotapi.Message) {
	caller := callerID(msg.From)
	decision, err := b.engine.Register(ctx, caller, profileOf(msg.From))
	if err != nil {
		b.replyWorkflowError(chatID, err)
		return
	}

	switch decision {
	case access.DecisionBanned:
		// забаненным не отвечаем вовсе
		return
	case access.DecisionAwaitingApproval:
		b.reply(chatID, "⏳ Waiting for admin approval")
	default:
		m := tgbotapi.NewMessage(chatID,
			"🤖 Bot Status: ONLINE 🟢\n⚡ Service: Active\n\n📱 Please Send Train No.\nTo get live Running status")
		m.ReplyMarkup = mainKeyboard(b.engine.IsAdmin(caller))
		b.send(m)
	}
}

// gate пропускает только approved/админов; false — ответ уже отправлен.
func (b *Bot) gate(ctx context.Context, chatID int64, caller string) bool {
	decision, err := b.engine.CheckAccess(ctx, caller)
	if err != nil {
		b.replyWorkflowError(chatID, err)
		return false
	}
	switch decision {
	case access.DecisionAllowed:
		return true
	case access.DecisionBanned:
		return false
	default:
		b.reply(chatID, "⏳ Waiting for admin approval")
		return false
	}
}

func (b *Bot) handleSingle(ctx context.Context, chatID int64, caller, args string) {
	if !b.gate(ctx, chatID, caller) {
		return
	}

	fields := strings.Fields(args)
	if len(fields) != 2 {
		b.reply(chatID, "❌ Format:\n/single 22222 03/02/2026")
		return
	}

	st, err := b.trains.RunningStatus(ctx, fields[0], fields[1])
	if err != nil {
		if errors.Is(err, trains.ErrUnavailable) {
			b.reply(chatID, "❌ Live status source is not available right now")
		} else {
			b.reply(chatID, fmt.Sprintf("❌ %v", err))
		}
		return
	}

	if st.Terminated {
		b.reply(chatID, fmt.Sprintf(
			"🚆 Train: %s\n📅 Date: %s\n\n⛔ Status: TERMINATED\n📍 At: %s\n🕒 Time: %s",
			st.TrainNo, st.Date, st.LastStation, st.LastTime))
		return
	}
	b.reply(chatID, fmt.Sprintf(
		"🚆 Train: %s\n📅 Date: %s\n\n🚉 Last Station: %s\n🕒 Passed Time: %s\n⏱ Delay: %s\n📍 Status: Running",
		st.TrainNo, st.Date, st.LastStation, st.LastTime, minutesToHM(st.DelayMin)))
}

func (b *Bot) handleList(ctx context.Context, chatID int64, caller string) {
	if !b.gate(ctx, chatID, caller) {
		return
	}
	b.reply(chatID, "📋 Train List\n\nUse:\n/single <TrainNo> <DD/MM/YYYY>")
}

func (b *Bot) handleApprove(ctx context.Context, chatID int64, caller, args string) {
	target, ok := parseTargetID(args)
	if !ok {
		b.reply(chatID, "❌ Format:\n/approve <numeric id>")
		return
	}
	if err := b.engine.Approve(ctx, caller, target); err != nil {
		b.replyWorkflowError(chatID, err)
		return
	}
	b.reply(chatID, fmt.Sprintf("✅ Approved: %s", target))
}

func (b *Bot) handleBan(ctx context.Context, chatID int64, caller, args string) {
	target, ok := parseTargetID(args)
	if !ok {
		b.reply(chatID, "❌ Format:\n/ban <numeric id>")
		return
	}
	if err := b.engine.Ban(ctx, caller, target); err != nil {
		b.replyWorkflowError(chatID, err)
		return
	}
	b.reply(chatID, fmt.Sprintf("🚫 Banned: %s", target))
}

func (b *Bot) handleReset(ctx context.Context, chatID int64, caller, args string) {
	target, ok := parseTargetID(args)
	if !ok {
		b.reply(chatID, "❌ Format:\n/reset <numeric id>")
		return
	}
	if err := b.engine.Reset(ctx, caller, target); err != nil {
		b.replyWorkflowError(chatID, err)
		return
	}
	b.reply(chatID, fmt.Sprintf("🗑 Removed: %s", target))
}

func (b *Bot) handleListState(ctx context.Context, chatID int64, caller string, st access.State, title string) {
	items, err := b.engine.List(ctx, caller, st)
	if err != nil {
		b.replyWorkflowError(chatID, err)
		return
	}
	if len(items) == 0 {
		b.reply(chatID, title+": none")
		return
	}

	var sb strings.Builder
	sb.WriteString(title + ":\n")
	for _, it := range items {
		sb.WriteString(it.ID)
		if it.Profile.Name != "" {
			sb.WriteString(" — " + it.Profile.Name)
		}
		if it.Profile.Handle != "" {
			sb.WriteString(" (@" + it.Profile.Handle + ")")
		}
		sb.WriteString("\n")
	}
	b.reply(chatID, sb.String())
}

func (b *Bot) handleBroadcast(ctx context.Context, chatID int64, caller, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		b.reply(chatID, "❌ Format:\n/admin <message>")
		return
	}

	ids, err := b.engine.Recipients(ctx, caller)
	if err != nil {
		b.replyWorkflowError(chatID, err)
		return
	}
	delivered := b.dispatcher.NotifyMany(ctx, ids, text)
	b.reply(chatID, fmt.Sprintf("📢 Sent to %d of %d users", delivered, len(ids)))
}

func (b *Bot) replyWorkflowError(chatID int64, err error) {
	var storageErr *access.StorageError
	switch {
	case errors.Is(err, access.ErrUnauthorized):
		b.reply(chatID, "⛔ Unauthorized")
	case errors.Is(err, access.ErrNotFound):
		b.reply(chatID, "❌ Not found")
	case errors.Is(err, access.ErrMalformedInput):
		b.reply(chatID, "❌ Invalid id")
	case errors.As(err, &storageErr):
		b.log.Error("storage failure", "err", err)
		b.reply(chatID, "⚠️ Temporary storage failure, please retry")
	default:
		b.log.Error("workflow error", "err", err)
		b.reply(chatID, "⚠️ Internal error")
	}
}

func minutesToHM(m int) string {
	if m <= 0 {
		return "On Time"
	}
	return fmt.Sprintf("%dh %dm", m/60, m%60)
}
