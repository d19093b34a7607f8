package notifier

import (
	"context"
	"sync"
	"time"
)

// Chat identifies a conversation.
type Chat struct {
	ID int64 `json:"id"`
}

// User is the sender of a message or callback.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

// Message is an incoming chat message.
type Message struct {
	MessageID int    `json:"message_id"`
	From      *User  `json:"from"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text"`
}

// CallbackQuery is an inline keyboard button press.
type CallbackQuery struct {
	ID      string   `json:"id"`
	From    *User    `json:"from"`
	Message *Message `json:"message"`
	Data    string   `json:"data"`
}

// Update is one item returned by getUpdates.
type Update struct {
	UpdateID      int            `json:"update_id"`
	Message       *Message       `json:"message"`
	CallbackQuery *CallbackQuery `json:"callback_query"`
}

// UpdateHandler processes one update. It may block; each update runs on its own goroutine.
type UpdateHandler func(ctx context.Context, u Update)

// PollTimeout is the long-poll window passed to getUpdates.
var PollTimeout = 30 * time.Second

type getUpdatesRequest struct {
	Offset         int      `json:"offset"`
	Timeout        int      `json:"timeout"`
	AllowedUpdates []string `json:"allowed_updates"`
}

// StartPolling long-polls for updates and dispatches them to handler. Blocks until ctx
// is cancelled and every dispatched handler has returned.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler UpdateHandler) {
	var wg sync.WaitGroup
	defer wg.Wait()

	offset := 0
	for {
		select {
		case <-ctx.Done():
			t.log.Info().Msg("telegram polling stopped")
			return
		default:
		}

		var updates []Update
		err := t.call(ctx, "getUpdates", getUpdatesRequest{
			Offset:         offset,
			Timeout:        int(PollTimeout / time.Second),
			AllowedUpdates: []string{"message", "callback_query"},
		}, &updates)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			t.log.Warn().Err(err).Msg("polling request failed")
			select {
			case <-ctx.Done():
			case <-time.After(5 * t.RetryBase):
			}
			continue
		}

		for _, u := range updates {
			offset = u.UpdateID + 1
			if u.Message == nil && u.CallbackQuery == nil {
				continue
			}
			wg.Add(1)
			go func(u Update) {
				defer wg.Done()
				handler(ctx, u)
			}(u)
		}
	}
}
