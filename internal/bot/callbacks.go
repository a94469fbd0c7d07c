package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/qbitremote/qbitremote/internal/controllers"
	"github.com/qbitremote/qbitremote/internal/models"
	"github.com/qbitremote/qbitremote/internal/services/prowlarr"
)

// handleCallback routes inline keyboard presses
func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	// Ack immediately so the client stops its spinner
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.logger.WithError(err).Debug("Failed to ack callback")
	}

	userID := cb.From.ID
	chatID := cb.Message.Chat.ID
	session := b.session(userID)
	data := cb.Data

	b.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"data":    data,
	}).Debug("Handling callback")

	switch {
	case data == "back_to_main":
		b.resetSession(session)
		b.sendWithKeyboard(chatID, "What would you like to do?", mainMenuKeyboard())

	case data == "search_movies":
		b.promptQuery(chatID, session, models.CategoryMovies, "Movie title to search for?")
	case data == "search_tv_episodes":
		b.promptQuery(chatID, session, models.CategoryTVEpisodes, "Episode to search for? (e.g. `Show Name S03E05`)")
	case data == "search_tv_boxsets":
		b.promptQuery(chatID, session, models.CategoryTVBoxsets, "Show or season to search for?")

	case data == "future_menu":
		b.sendWithKeyboard(chatID, "Set up a rule for a future release:", futureMenuKeyboard())
	case data == "future_movie":
		b.promptFutureQuery(chatID, session, "movie", "Which movie should be grabbed when it appears?")
	case data == "future_tv":
		b.promptFutureQuery(chatID, session, "tv", "Which show? An `S03` or `S03E05` suffix narrows the rule.")
	case data == "future_upcoming":
		b.showUpcoming(ctx, chatID, userID)

	case strings.HasPrefix(data, "upcoming_"):
		b.handleUpcomingPick(chatID, userID, strings.TrimPrefix(data, "upcoming_"))

	case strings.HasPrefix(data, "page_"):
		b.handlePageTurn(chatID, session, strings.TrimPrefix(data, "page_"))

	case strings.HasPrefix(data, "dl_"):
		b.handleDownloadPick(chatID, session, strings.TrimPrefix(data, "dl_"))

	case strings.HasPrefix(data, "confirm_dl_"):
		b.handleDownloadConfirm(chatID, session, strings.TrimPrefix(data, "confirm_dl_"))

	case data == "cancel_dl":
		b.handleDownloadCancel(chatID, session)

	case strings.HasPrefix(data, "rq_"):
		b.handleRuleQuality(ctx, chatID, userID, strings.TrimPrefix(data, "rq_"))

	case data == "replace_rule":
		b.handleRuleReplace(ctx, chatID, userID)

	case data == "my_downloads":
		b.showDownloads(chatID, userID)
	case data == "download_status":
		b.showStatus(chatID)
	case data == "list_rules":
		b.showRules(chatID, userID)

	case strings.HasPrefix(data, "rule_del_"):
		b.handleRuleDelete(chatID, userID, strings.TrimPrefix(data, "rule_del_"))

	default:
		b.logger.WithField("data", data).Warn("Unknown callback data")
	}
}

// promptQuery enters the awaiting-query state for a search category
func (b *Bot) promptQuery(chatID int64, session *models.UserSession, category models.Category, prompt string) {
	session.SearchType = category
	b.transition(session, models.StateAwaitingQuery)
	b.send(chatID, prompt)
}

// promptFutureQuery enters the awaiting-future-query state
func (b *Bot) promptFutureQuery(chatID int64, session *models.UserSession, kind, prompt string) {
	session.FutureType = kind
	b.transition(session, models.StateAwaitingFutureQuery)
	b.send(chatID, prompt)
}

// cachedPage returns the user's current results page, or nil when the
// conversation context is gone
func (b *Bot) cachedPage(userID int64) *prowlarr.SearchPage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pages[userID]
}

// cachedResult resolves a result index against the cached page
func (b *Bot) cachedResult(userID int64, rawIndex string) *prowlarr.Result {
	index, err := strconv.Atoi(rawIndex)
	if err != nil {
		return nil
	}
	page := b.cachedPage(userID)
	if page == nil || index < 0 || index >= len(page.Results) {
		return nil
	}
	return &page.Results[index]
}

func (b *Bot) handlePageTurn(chatID int64, session *models.UserSession, rawPage string) {
	page, err := strconv.Atoi(rawPage)
	if err != nil || session.SearchQuery == "" {
		b.sendWithKeyboard(chatID, "That search has expired, start a new one.", mainMenuKeyboard())
		return
	}
	b.runSearch(chatID, session, session.SearchQuery, page)
}

func (b *Bot) handleDownloadPick(chatID int64, session *models.UserSession, rawIndex string) {
	result := b.cachedResult(session.UserID, rawIndex)
	if result == nil {
		b.sendWithKeyboard(chatID, "That result has expired, start a new search.", mainMenuKeyboard())
		return
	}

	index, _ := strconv.Atoi(rawIndex)
	b.transition(session, models.StateConfirmingDownload)

	text, keyboard := renderConfirmation(*result, index)
	b.sendWithKeyboard(chatID, text, keyboard)
}

func (b *Bot) handleDownloadConfirm(chatID int64, session *models.UserSession, rawIndex string) {
	result := b.cachedResult(session.UserID, rawIndex)
	if result == nil {
		b.sendWithKeyboard(chatID, "That result has expired, start a new search.", mainMenuKeyboard())
		return
	}

	record, err := b.downloads.StartDownload(session.UserID, *result)
	if err != nil {
		b.logger.WithError(err).Error("Failed to start download")
		b.sendWithKeyboard(chatID, "Could not start the download.", backKeyboard())
		return
	}

	b.resetSession(session)
	b.sendWithKeyboard(chatID,
		fmt.Sprintf("📥 Downloading to `%s`. You will be notified when it completes.",
			record.SavePath),
		mainMenuKeyboard())
}

// handleDownloadCancel abandons the confirmation and re-renders the
// results the user was looking at
func (b *Bot) handleDownloadCancel(chatID int64, session *models.UserSession) {
	page := b.cachedPage(session.UserID)
	if page == nil {
		b.resetSession(session)
		b.sendWithKeyboard(chatID, "What would you like to do?", mainMenuKeyboard())
		return
	}

	b.transition(session, models.StateShowingResults)
	text, keyboard := renderResultsPage(page)
	b.sendWithKeyboard(chatID, text, keyboard)
}

func (b *Bot) showUpcoming(ctx context.Context, chatID, userID int64) {
	movies, err := b.rules.UpcomingMovies(ctx)
	if err != nil {
		b.logger.WithError(err).Error("Failed to list upcoming movies")
		b.sendWithKeyboard(chatID, "Could not load upcoming movies.", backKeyboard())
		return
	}

	b.mu.Lock()
	b.upcoming[userID] = movies
	b.mu.Unlock()

	text, keyboard := renderUpcomingMovies(movies)
	b.sendWithKeyboard(chatID, text, keyboard)
}

func (b *Bot) handleUpcomingPick(chatID, userID int64, rawIndex string) {
	index, err := strconv.Atoi(rawIndex)
	if err != nil {
		return
	}

	b.mu.Lock()
	movies := b.upcoming[userID]
	b.mu.Unlock()

	if index < 0 || index >= len(movies) {
		b.sendWithKeyboard(chatID, "That list has expired, browse again.", backKeyboard())
		return
	}

	movie := movies[index]
	b.mu.Lock()
	b.pendingRules[userID] = &pendingRule{kind: "movie", query: movie.Title}
	b.mu.Unlock()

	b.sendWithKeyboard(chatID,
		fmt.Sprintf("Which quality should the rule for *%s* target?", escapeMarkdown(movie.Title)),
		qualityKeyboard("rq"))
}

// handleRuleQuality finishes a pending rule request once the quality is
// known. A collision keeps the request pending and offers a replace.
func (b *Bot) handleRuleQuality(ctx context.Context, chatID, userID int64, quality string) {
	b.mu.Lock()
	pending := b.pendingRules[userID]
	b.mu.Unlock()

	if pending == nil {
		b.sendWithKeyboard(chatID, "That request has expired, start again.", mainMenuKeyboard())
		return
	}
	pending.quality = quality

	outcome, err := b.createRule(ctx, pending)
	if err != nil {
		b.logger.WithError(err).Error("Failed to create rule")
		b.sendWithKeyboard(chatID, "Could not create the rule.", backKeyboard())
		return
	}

	if !outcome.Created {
		pending.existingName = outcome.Existing.Name
		b.sendWithKeyboard(chatID,
			fmt.Sprintf("A rule for this title already exists: `%s`.\nReplace it?",
				outcome.Existing.Name),
			replaceKeyboard())
		return
	}

	b.finishRule(chatID, userID, outcome)
}

// handleRuleReplace replaces the colliding rule recorded on the pending
// request
func (b *Bot) handleRuleReplace(ctx context.Context, chatID, userID int64) {
	b.mu.Lock()
	pending := b.pendingRules[userID]
	b.mu.Unlock()

	if pending == nil || pending.existingName == "" {
		b.sendWithKeyboard(chatID, "That request has expired, start again.", mainMenuKeyboard())
		return
	}

	var outcome *controllers.RuleOutcome
	var err error
	if pending.kind == "tv" {
		outcome, err = b.rules.ReplaceTVRule(ctx, pending.existingName, pending.query, pending.quality)
	} else {
		outcome, err = b.rules.ReplaceMovieRule(ctx, pending.existingName, pending.query, pending.quality)
	}
	if err != nil {
		b.logger.WithError(err).Error("Failed to replace rule")
		b.sendWithKeyboard(chatID, "Could not replace the rule.", backKeyboard())
		return
	}

	b.finishRule(chatID, userID, outcome)
}

func (b *Bot) createRule(ctx context.Context, pending *pendingRule) (*controllers.RuleOutcome, error) {
	if pending.kind == "tv" {
		return b.rules.CreateTVRule(ctx, pending.query, pending.quality)
	}
	return b.rules.CreateMovieRule(ctx, pending.query, pending.quality)
}

func (b *Bot) finishRule(chatID, userID int64, outcome *controllers.RuleOutcome) {
	b.mu.Lock()
	delete(b.pendingRules, userID)
	b.mu.Unlock()

	b.sendWithKeyboard(chatID,
		fmt.Sprintf("✅ Rule `%s` created (%s).", outcome.RuleName, outcome.Detail),
		mainMenuKeyboard())
}

func (b *Bot) handleRuleDelete(chatID, userID int64, rawIndex string) {
	index, err := strconv.Atoi(rawIndex)
	if err != nil {
		return
	}

	b.mu.Lock()
	rules := b.ruleLists[userID]
	b.mu.Unlock()

	if index < 0 || index >= len(rules) {
		b.sendWithKeyboard(chatID, "That list has expired, open it again.", backKeyboard())
		return
	}

	name := rules[index].Name
	if err := b.rules.DeleteRule(name); err != nil {
		b.logger.WithError(err).Error("Failed to delete rule")
		b.sendWithKeyboard(chatID, "Could not delete the rule.", backKeyboard())
		return
	}

	b.send(chatID, fmt.Sprintf("🗑 Rule `%s` deleted.", name))
	b.showRules(chatID, userID)
}
