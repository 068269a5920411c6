package telegram

import (
	"context"
	"errors"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/bnema/shiftlog/internal/application"
	"github.com/bnema/shiftlog/internal/domain"
)

type Sessions interface {
	Start(ctx context.Context, cmd application.StartSessionCommand) (application.SessionResult, error)
	Pause(ctx context.Context, cmd application.PauseSessionCommand) (application.SessionResult, error)
	Resume(ctx context.Context, cmd application.ResumeSessionCommand) (application.SessionResult, error)
	Close(ctx context.Context, cmd application.CloseSessionCommand) (application.SessionResult, error)
	Get(ctx context.Context, id domain.SessionID) (domain.Session, error)
	OnShift(ctx context.Context, tenant domain.TenantID) ([]domain.Session, error)
}

type Liveness interface {
	Acknowledge(ctx context.Context, id domain.SessionID) (application.SessionResult, error)
	CloseFromPing(ctx context.Context, id domain.SessionID) (application.SessionResult, error)
}

type Reports interface {
	PeriodRange(ctx context.Context, tenant domain.TenantID, period domain.Period) (domain.Interval, error)
	ComputeTotals(ctx context.Context, tenant domain.TenantID, user domain.UserID, from, to time.Time) (application.Totals, error)
	Top(ctx context.Context, tenant domain.TenantID, from, to time.Time, limit int) ([]application.Standing, error)
}

// Router maps Telegram updates onto the session, liveness and report
// services. A group chat is a tenant; the sender is the user.
type Router struct {
	api      API
	log      *zap.Logger
	sessions Sessions
	liveness Liveness
	reports  Reports
}

func NewRouter(api API, log *zap.Logger, sessions Sessions, liveness Liveness, reports Reports) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{api: api, log: log.Named("telegram"), sessions: sessions, liveness: liveness, reports: reports}
}

// Run handles updates until ctx is done or the channel closes.
func (r *Router) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			r.HandleUpdate(ctx, upd)
		}
	}
}

func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message != nil && upd.Message.IsCommand() {
		r.handleCommand(ctx, upd.Message)
		return
	}
	if upd.CallbackQuery != nil {
		r.handleCallback(ctx, upd.CallbackQuery)
	}
}

func (r *Router) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	command := msg.Command()

	if command == "start" || command == "help" {
		r.reply(chatID, helpText)
		return
	}
	if msg.From == nil {
		return
	}
	if msg.Chat.IsPrivate() {
		r.reply(chatID, groupOnlyText)
		return
	}

	tenant := domain.TenantID(chatKey(chatID))
	user := domain.UserID(chatKey(msg.From.ID))

	switch command {
	case "start_shift":
		_, err := r.sessions.Start(ctx, application.StartSessionCommand{TenantID: tenant, UserID: user})
		r.replyResult(chatID, startedText, err)
	case "pause":
		_, err := r.sessions.Pause(ctx, application.PauseSessionCommand{TenantID: tenant, UserID: user})
		r.replyResult(chatID, pausedText, err)
	case "resume":
		_, err := r.sessions.Resume(ctx, application.ResumeSessionCommand{TenantID: tenant, UserID: user})
		r.replyResult(chatID, resumedText, err)
	case "stop":
		result, err := r.sessions.Close(ctx, application.CloseSessionCommand{TenantID: tenant, UserID: user, Reason: domain.CloseReasonUser})
		r.replyResult(chatID, stoppedText(result), err)
	case "on_shift":
		r.handleOnShift(ctx, chatID, tenant)
	case "top":
		r.handleTop(ctx, chatID, tenant, msg.CommandArguments())
	case "total":
		r.handleTotal(ctx, chatID, tenant, user, msg.CommandArguments())
	default:
		r.reply(chatID, helpText)
	}
}

// handleOnShift posts the roster panel. Its buttons act for whoever presses
// them and the message is edited after every change.
func (r *Router) handleOnShift(ctx context.Context, chatID int64, tenant domain.TenantID) {
	sessions, err := r.sessions.OnShift(ctx, tenant)
	if err != nil {
		r.replyError(chatID, err)
		return
	}

	msg := tgbotapi.NewMessage(chatID, rosterText(sessions))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = panelKeyboard()
	if _, err := r.api.Send(msg); err != nil {
		r.log.Warn("send roster failed", zap.Int64("chat", chatID), zap.Error(err))
	}
}

func (r *Router) handlePanel(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		r.answer(cb.ID, "")
		return
	}
	chatID := cb.Message.Chat.ID
	tenant := domain.TenantID(chatKey(chatID))
	user := domain.UserID(chatKey(cb.From.ID))

	var (
		text string
		err  error
	)
	switch strings.TrimPrefix(cb.Data, panelPrefix) {
	case panelStart:
		_, err = r.sessions.Start(ctx, application.StartSessionCommand{TenantID: tenant, UserID: user})
		text = startedText
	case panelPause:
		_, err = r.sessions.Pause(ctx, application.PauseSessionCommand{TenantID: tenant, UserID: user})
		text = pausedText
	case panelResume:
		_, err = r.sessions.Resume(ctx, application.ResumeSessionCommand{TenantID: tenant, UserID: user})
		text = resumedText
	case panelStop:
		var result application.SessionResult
		result, err = r.sessions.Close(ctx, application.CloseSessionCommand{TenantID: tenant, UserID: user, Reason: domain.CloseReasonUser})
		text = stoppedText(result)
	default:
		r.answer(cb.ID, "")
		return
	}
	if err != nil {
		text = friendlyError(err)
		if text == genericFailText {
			r.log.Error("panel action failed", zap.String("action", cb.Data), zap.Error(err))
		}
		r.answer(cb.ID, text)
		return
	}

	r.answer(cb.ID, text)
	r.refreshRoster(ctx, chatID, cb.Message.MessageID, tenant)
}

func (r *Router) refreshRoster(ctx context.Context, chatID int64, messageID int, tenant domain.TenantID) {
	sessions, err := r.sessions.OnShift(ctx, tenant)
	if err != nil {
		r.log.Warn("load roster failed", zap.Int64("chat", chatID), zap.Error(err))
		return
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, rosterText(sessions), panelKeyboard())
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := r.api.Send(edit); err != nil {
		r.log.Warn("edit roster failed", zap.Int64("chat", chatID), zap.Error(err))
	}
}

func (r *Router) handleTop(ctx context.Context, chatID int64, tenant domain.TenantID, args string) {
	period, window, err := r.period(ctx, tenant, args, domain.PeriodWeek)
	if err != nil {
		r.replyError(chatID, err)
		return
	}

	standings, err := r.reports.Top(ctx, tenant, window.Start, window.End, application.DefaultTopLimit)
	if err != nil {
		r.replyError(chatID, err)
		return
	}
	r.replyHTML(chatID, topText(period, standings))
}

func (r *Router) handleTotal(ctx context.Context, chatID int64, tenant domain.TenantID, user domain.UserID, args string) {
	period, window, err := r.period(ctx, tenant, args, domain.PeriodAll)
	if err != nil {
		r.replyError(chatID, err)
		return
	}

	totals, err := r.reports.ComputeTotals(ctx, tenant, user, window.Start, window.End)
	if err != nil {
		r.replyError(chatID, err)
		return
	}
	r.replyHTML(chatID, totalText(period, totals))
}

func (r *Router) period(ctx context.Context, tenant domain.TenantID, args string, fallback domain.Period) (domain.Period, domain.Interval, error) {
	period := fallback
	if raw := strings.TrimSpace(args); raw != "" {
		parsed, err := domain.ParsePeriod(raw)
		if err != nil {
			return "", domain.Interval{}, err
		}
		period = parsed
	}

	window, err := r.reports.PeriodRange(ctx, tenant, period)
	if err != nil {
		return "", domain.Interval{}, err
	}
	return period, window, nil
}

func (r *Router) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if strings.HasPrefix(cb.Data, panelPrefix) {
		r.handlePanel(ctx, cb)
		return
	}

	action, err := domain.ParseActionPayload(cb.Data)
	if err != nil {
		r.answer(cb.ID, "")
		return
	}

	session, err := r.sessions.Get(ctx, action.SessionID)
	if err != nil {
		r.answer(cb.ID, friendlyError(err))
		return
	}
	if cb.From == nil || string(session.UserID) != chatKey(cb.From.ID) {
		r.answer(cb.ID, notYourShift)
		return
	}

	var text string
	switch action.Kind {
	case domain.ActionAcknowledge:
		_, err = r.liveness.Acknowledge(ctx, action.SessionID)
		text = ackText
	case domain.ActionCloseNow:
		_, err = r.liveness.CloseFromPing(ctx, action.SessionID)
		text = closedFromPing
	}
	if err != nil {
		r.log.Info("ping action rejected",
			zap.String("action", cb.Data),
			zap.Error(err),
		)
		text = friendlyError(err)
	}

	r.answer(cb.ID, text)
	if cb.Message != nil {
		edit := tgbotapi.NewEditMessageText(cb.Message.Chat.ID, cb.Message.MessageID, text)
		if _, err := r.api.Send(edit); err != nil {
			r.log.Warn("edit ping message failed", zap.Error(err))
		}
	}
}

func (r *Router) replyResult(chatID int64, success string, err error) {
	if err != nil {
		r.replyError(chatID, err)
		return
	}
	r.reply(chatID, success)
}

func (r *Router) replyError(chatID int64, err error) {
	text := friendlyError(err)
	if text == genericFailText {
		r.log.Error("command failed", zap.Int64("chat", chatID), zap.Error(err))
	}
	r.reply(chatID, text)
}

func (r *Router) reply(chatID int64, text string) {
	if _, err := r.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		r.log.Warn("send reply failed", zap.Int64("chat", chatID), zap.Error(err))
	}
}

func (r *Router) replyHTML(chatID int64, html string) {
	msg := tgbotapi.NewMessage(chatID, html)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := r.api.Send(msg); err != nil {
		r.log.Warn("send reply failed", zap.Int64("chat", chatID), zap.Error(err))
	}
}

func (r *Router) answer(callbackID, text string) {
	if _, err := r.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		r.log.Warn("answer callback failed", zap.Error(err))
	}
}

func friendlyError(err error) string {
	switch {
	case errors.Is(err, domain.ErrAlreadyClosed):
		return "That shift is already closed."
	case errors.Is(err, domain.ErrSessionNotFound):
		return "You have no open shift."
	case errors.Is(err, domain.ErrInvalidState):
		return "That does not apply to your shift right now."
	case errors.Is(err, domain.ErrConflict):
		return "You already have an open shift."
	case errors.Is(err, domain.ErrValidation):
		return err.Error()
	default:
		return genericFailText
	}
}
