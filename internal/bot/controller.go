// Package bot maps Telegram menu choices and free-text symbols to analysis requests.
package bot

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"BistRadar/internal/engine"
	"BistRadar/internal/model"
	"BistRadar/internal/notifier"

	"github.com/rs/zerolog"
)

// Messenger delivers replies. *notifier.TelegramNotifier satisfies it.
type Messenger interface {
	SendTo(ctx context.Context, chatID, text string, keyboard notifier.InlineKeyboard) error
	AnswerCallback(ctx context.Context, callbackID string) error
}

// Analyzer runs analyses. *engine.Engine satisfies it.
type Analyzer interface {
	AnalyzeOne(ctx context.Context, symbol string, mode model.Mode) (*model.SymbolReport, error)
	AnalyzeUniverse(ctx context.Context, mode model.Mode) (*model.UniverseReport, error)
}

// State is a chat's position in the conversation: Idle, or awaiting a symbol for Mode.
type State struct {
	Awaiting bool
	Mode     model.Mode
}

// Idle is the state of a new chat.
var Idle = State{}

// AwaitingSymbol is the state after a single-symbol menu choice.
func AwaitingSymbol(mode model.Mode) State { return State{Awaiting: true, Mode: mode} }

func (s State) String() string {
	if !s.Awaiting {
		return "idle"
	}
	return "awaiting_symbol(" + string(s.Mode) + ")"
}

// session serializes requests of one chat.
type session struct {
	mu    sync.Mutex
	state State
}

// Controller owns per-chat session state.
type Controller struct {
	analyzer  Analyzer
	messenger Messenger
	formatter *notifier.Formatter
	suffix    string

	mu       sync.Mutex
	sessions map[int64]*session

	log zerolog.Logger
}

// NewController creates a Controller. suffix is appended to typed symbols that lack it.
func NewController(a Analyzer, m Messenger, f *notifier.Formatter, suffix string, log zerolog.Logger) *Controller {
	return &Controller{
		analyzer:  a,
		messenger: m,
		formatter: f,
		suffix:    suffix,
		sessions:  make(map[int64]*session),
		log:       log.With().Str("component", "bot").Logger(),
	}
}

func (c *Controller) session(chatID int64) *session {
	c.mu.Lock()
	defer c.mu.Unlock()
	s, ok := c.sessions[chatID]
	if !ok {
		s = &session{}
		c.sessions[chatID] = s
	}
	return s
}

// State returns the current state of chatID.
func (c *Controller) State(chatID int64) State {
	s := c.session(chatID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// HandleUpdate processes one update. Updates of the same chat run one at a time.
func (c *Controller) HandleUpdate(ctx context.Context, u notifier.Update) {
	ctx = engine.WithSource(ctx, model.SourceTelegram)
	switch {
	case u.CallbackQuery != nil:
		c.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil:
		c.handleMessage(ctx, u.Message)
	}
}

func (c *Controller) handleCallback(ctx context.Context, q *notifier.CallbackQuery) {
	if err := c.messenger.AnswerCallback(ctx, q.ID); err != nil {
		c.log.Warn().Err(err).Msg("answer callback")
	}
	if q.Message == nil {
		return
	}
	chatID := q.Message.Chat.ID
	s := c.session(chatID)
	s.mu.Lock()
	defer s.mu.Unlock()

	l := c.log.With().Int64("chat_id", chatID).Str("choice", q.Data).Logger()
	if q.Data == notifier.MenuCallback {
		s.state = Idle
		c.reply(ctx, chatID, c.formatter.MenuPrompt(), notifier.MenuKeyboard())
		return
	}
	item, ok := notifier.LookupMenu(q.Data)
	if !ok {
		l.Warn().Msg("unknown menu choice")
		return
	}
	if !item.Universe {
		s.state = AwaitingSymbol(item.Mode)
		l.Debug().Stringer("state", s.state).Msg("awaiting symbol")
		c.reply(ctx, chatID, notifier.SymbolPrompt(item.Mode), nil)
		return
	}

	s.state = Idle
	c.reply(ctx, chatID, notifier.BusyText, nil)
	report, err := c.analyzer.AnalyzeUniverse(ctx, item.Mode)
	if err != nil {
		l.Error().Err(err).Msg("universe scan")
		c.reply(ctx, chatID, notifier.ScanFailedText, nil)
	} else {
		c.reply(ctx, chatID, notifier.FormatUniverseReport(report), nil)
	}
	c.reply(ctx, chatID, c.formatter.MenuPrompt(), notifier.MenuKeyboard())
}

func (c *Controller) handleMessage(ctx context.Context, m *notifier.Message) {
	text := strings.TrimSpace(m.Text)
	if text == "" {
		return
	}
	chatID := m.Chat.ID
	s := c.session(chatID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.HasPrefix(text, "/") {
		switch command(text) {
		case "/start":
			s.state = Idle
			c.reply(ctx, chatID, c.formatter.Welcome(), notifier.MenuKeyboard())
		case "/menu":
			s.state = Idle
			c.reply(ctx, chatID, c.formatter.MenuPrompt(), notifier.MenuKeyboard())
		}
		return
	}
	if !s.state.Awaiting {
		return
	}

	symbol := model.NormalizeSymbol(text, c.suffix)
	l := c.log.With().Int64("chat_id", chatID).Str("symbol", symbol).Str("mode", string(s.state.Mode)).Logger()
	if symbol == "" {
		c.reply(ctx, chatID, notifier.NoDataText, nil)
		return
	}
	report, err := c.analyzer.AnalyzeOne(ctx, symbol, s.state.Mode)
	if err != nil {
		if model.IsAbsent(err) {
			l.Info().Err(err).Msg("no data for symbol")
		} else {
			l.Error().Err(err).Msg("analyze symbol")
		}
		c.reply(ctx, chatID, notifier.NoDataText, nil)
		return
	}
	c.reply(ctx, chatID, notifier.FormatSymbolReport(report), nil)
	c.reply(ctx, chatID, notifier.BackToMenuText, notifier.BackToMenuKeyboard())
}

func (c *Controller) reply(ctx context.Context, chatID int64, text string, kb notifier.InlineKeyboard) {
	if err := c.messenger.SendTo(ctx, strconv.FormatInt(chatID, 10), text, kb); err != nil {
		c.log.Error().Err(err).Int64("chat_id", chatID).Msg("send reply")
	}
}

// command strips arguments and a @botname suffix: "/start@BistBot foo" -> "/start".
func command(text string) string {
	cmd, _, _ := strings.Cut(text, " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return strings.ToLower(cmd)
}
