package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/qbitremote/qbitremote/internal/models"
)

const helpText = `*qbitremote*

/search - search for movies and TV shows
/downloads - your recent downloads
/status - qBittorrent transfer status
/rules - RSS auto-download rules
/help - this message

Pick a category, type your query, then choose a result to download. Future releases can be turned into RSS auto-download rules that grab them when they appear.`

// handleMessage processes commands and free-text input
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	session := b.session(userID)

	if msg.IsCommand() {
		b.handleCommand(ctx, msg, session)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	// Free text only means something while a query is expected
	if !session.State.AcceptsText() {
		b.sendWithKeyboard(msg.Chat.ID, "Pick an action first:", mainMenuKeyboard())
		return
	}

	switch session.State {
	case models.StateAwaitingQuery:
		b.runSearch(msg.Chat.ID, session, text, 1)

	case models.StateAwaitingFutureQuery:
		b.mu.Lock()
		b.pendingRules[userID] = &pendingRule{kind: session.FutureType, query: text}
		b.mu.Unlock()

		b.transition(session, models.StateIdle)
		b.sendWithKeyboard(msg.Chat.ID,
			fmt.Sprintf("Which quality should the rule for *%s* target?", escapeMarkdown(text)),
			qualityKeyboard("rq"))
	}
}

// handleCommand processes slash commands. Commands are accepted in any
// dialog state and reset the conversation.
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, session *models.UserSession) {
	b.logger.WithFields(logrus.Fields{
		"user_id": msg.From.ID,
		"command": msg.Command(),
	}).Debug("Handling command")

	switch msg.Command() {
	case "start":
		b.resetSession(session)
		b.sendWithKeyboard(msg.Chat.ID, "What would you like to do?", mainMenuKeyboard())

	case "help":
		b.send(msg.Chat.ID, helpText)

	case "search":
		b.resetSession(session)
		b.sendWithKeyboard(msg.Chat.ID, "What are you looking for?", mainMenuKeyboard())

	case "downloads":
		b.showDownloads(msg.Chat.ID, msg.From.ID)

	case "status":
		b.showStatus(msg.Chat.ID)

	case "rules":
		b.showRules(msg.Chat.ID, msg.From.ID)

	case "debug":
		b.showDebug(msg.Chat.ID, session)

	default:
		b.send(msg.Chat.ID, "Unknown command. Try /help.")
	}
}

// runSearch executes a search and renders the requested page
func (b *Bot) runSearch(chatID int64, session *models.UserSession, query string, page int) {
	results, err := b.search.Search(query, session.SearchType, page)
	if err != nil {
		b.logger.WithError(err).Error("Search failed")
		b.sendWithKeyboard(chatID, "Search failed, try again later.", backKeyboard())
		return
	}

	if results.TotalResults == 0 {
		b.resetSession(session)
		b.sendWithKeyboard(chatID,
			fmt.Sprintf("No results for *%s*.", escapeMarkdown(query)), mainMenuKeyboard())
		return
	}

	session.SearchQuery = query
	session.CurrentPage = page
	b.transition(session, models.StateShowingResults)

	b.mu.Lock()
	b.pages[session.UserID] = results
	b.mu.Unlock()

	text, keyboard := renderResultsPage(results)
	b.sendWithKeyboard(chatID, text, keyboard)
}

func (b *Bot) showDownloads(chatID, userID int64) {
	records, err := b.downloads.UserDownloads(userID)
	if err != nil {
		b.logger.WithError(err).Error("Failed to list downloads")
		b.send(chatID, "Could not load your downloads.")
		return
	}
	b.sendWithKeyboard(chatID, renderDownloads(records), backKeyboard())
}

func (b *Bot) showStatus(chatID int64) {
	stats, err := b.downloads.TransferInfo()
	if err != nil {
		b.logger.WithError(err).Error("Failed to get transfer info")
		b.send(chatID, "qBittorrent is not reachable.")
		return
	}

	torrents, err := b.downloads.ActiveTorrents()
	if err != nil {
		b.logger.WithError(err).Error("Failed to list torrents")
		torrents = nil
	}

	b.sendWithKeyboard(chatID, renderStatus(stats, torrents), backKeyboard())
}

func (b *Bot) showRules(chatID, userID int64) {
	rules, err := b.rules.ListRules()
	if err != nil {
		b.logger.WithError(err).Error("Failed to list rules")
		b.send(chatID, "Could not load the rule list.")
		return
	}

	b.mu.Lock()
	b.ruleLists[userID] = rules
	b.mu.Unlock()

	text, keyboard := renderRules(rules)
	b.sendWithKeyboard(chatID, text, keyboard)
}

// showDebug dumps the dialog state. Works in every state so a stuck
// conversation can still be inspected.
func (b *Bot) showDebug(chatID int64, session *models.UserSession) {
	b.mu.Lock()
	page := b.pages[session.UserID]
	pending := b.pendingRules[session.UserID]
	b.mu.Unlock()

	var sb strings.Builder
	sb.WriteString("*Debug*\n\n")
	sb.WriteString(fmt.Sprintf("your id: `%d`\n", session.UserID))
	sb.WriteString("authorized: `true`\n")
	sb.WriteString(fmt.Sprintf("state: `%s`\n", session.State))
	sb.WriteString(fmt.Sprintf("search type: `%s`\n", session.SearchType))
	sb.WriteString(fmt.Sprintf("query: `%s`\n", session.SearchQuery))
	sb.WriteString(fmt.Sprintf("page: `%d`\n", session.CurrentPage))
	if page != nil {
		sb.WriteString(fmt.Sprintf("cached results: `%d`\n", len(page.Results)))
	}
	if pending != nil {
		sb.WriteString(fmt.Sprintf("pending rule: `%s %s %s`\n", pending.kind, pending.query, pending.quality))
	}
	b.send(chatID, sb.String())
}
