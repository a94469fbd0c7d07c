package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/qbitremote/qbitremote/internal/models"
	"github.com/qbitremote/qbitremote/internal/services/prowlarr"
	"github.com/qbitremote/qbitremote/internal/services/qbittorrent"
	"github.com/qbitremote/qbitremote/internal/services/tmdb"
	"github.com/qbitremote/qbitremote/internal/utils"
)

var markdownEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "`", "\\`", "[", `\[`)

// escapeMarkdown neutralizes release names so Telegram's Markdown parser
// does not choke on underscores and brackets
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎬 Movies", "search_movies"),
			tgbotapi.NewInlineKeyboardButtonData("📺 TV Episodes", "search_tv_episodes"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📦 TV Boxsets", "search_tv_boxsets"),
			tgbotapi.NewInlineKeyboardButtonData("🔮 Future Releases", "future_menu"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📥 My Downloads", "my_downloads"),
			tgbotapi.NewInlineKeyboardButtonData("📊 Status", "download_status"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📜 My Rules", "list_rules"),
		),
	)
}

func futureMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎬 Movie Rule", "future_movie"),
			tgbotapi.NewInlineKeyboardButtonData("📺 TV Rule", "future_tv"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗓 Browse Upcoming Movies", "future_upcoming"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("« Back", "back_to_main"),
		),
	)
}

func backKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("« Back", "back_to_main"),
		),
	)
}

// renderResultsPage formats one page of search results with per-result
// download buttons and pagination controls
func renderResultsPage(page *prowlarr.SearchPage) (string, tgbotapi.InlineKeyboardMarkup) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("*Results* (page %d/%d, %d total)\n\n",
		page.CurrentPage, page.TotalPages, page.TotalResults))

	var rows [][]tgbotapi.InlineKeyboardButton
	var pickRow []tgbotapi.InlineKeyboardButton

	for i, r := range page.Results {
		sb.WriteString(fmt.Sprintf("*%d.* %s\n", i+1, escapeMarkdown(r.Name)))
		sb.WriteString(fmt.Sprintf("    %s · %d seeders", utils.FormatSize(r.SizeBytes), r.Seeders))
		if r.Freeleech {
			sb.WriteString(" · 🆓 freeleech")
		}
		sb.WriteString("\n")

		pickRow = append(pickRow, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("%d", i+1), fmt.Sprintf("dl_%d", i)))
		if len(pickRow) == 4 {
			rows = append(rows, pickRow)
			pickRow = nil
		}
	}
	if len(pickRow) > 0 {
		rows = append(rows, pickRow)
	}

	var navRow []tgbotapi.InlineKeyboardButton
	if page.CurrentPage > 1 {
		navRow = append(navRow, tgbotapi.NewInlineKeyboardButtonData(
			"« Prev", fmt.Sprintf("page_%d", page.CurrentPage-1)))
	}
	if page.CurrentPage < page.TotalPages {
		navRow = append(navRow, tgbotapi.NewInlineKeyboardButtonData(
			"Next »", fmt.Sprintf("page_%d", page.CurrentPage+1)))
	}
	if len(navRow) > 0 {
		rows = append(rows, navRow)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("« Main Menu", "back_to_main")))

	return sb.String(), tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// renderConfirmation formats the download confirmation card
func renderConfirmation(r prowlarr.Result, index int) (string, tgbotapi.InlineKeyboardMarkup) {
	var sb strings.Builder
	sb.WriteString("*Confirm download*\n\n")
	sb.WriteString(escapeMarkdown(r.Name) + "\n\n")
	sb.WriteString(fmt.Sprintf("Size: %s\n", utils.FormatSize(r.SizeBytes)))
	sb.WriteString(fmt.Sprintf("Seeders: %d / Leechers: %d\n", r.Seeders, r.Leechers))
	sb.WriteString(fmt.Sprintf("Category: %s\n", r.Category))
	if r.Quality != "" {
		sb.WriteString(fmt.Sprintf("Quality: %s\n", r.Quality))
	}
	if r.Resolution != "" {
		sb.WriteString(fmt.Sprintf("Resolution: %s\n", r.Resolution))
	}
	if r.Freeleech {
		sb.WriteString("Freeleech: yes\n")
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Download", fmt.Sprintf("confirm_dl_%d", index)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancel", "cancel_dl"),
		),
	)
	return sb.String(), keyboard
}

// renderDownloads formats a user's recorded downloads
func renderDownloads(records []*models.DownloadRecord) string {
	if len(records) == 0 {
		return "No downloads recorded in the current retention window."
	}

	var sb strings.Builder
	sb.WriteString("*Your downloads*\n\n")
	for _, r := range records {
		icon := "⏳"
		if r.Status == models.DownloadStatusCompleted {
			icon = "✅"
		}
		sb.WriteString(fmt.Sprintf("%s %s\n", icon, escapeMarkdown(utils.ExtractTitle(r.Title))))
	}
	return sb.String()
}

// renderStatus formats the global transfer status and active torrents
func renderStatus(stats *qbittorrent.TransferStats, torrents []qbittorrent.Torrent) string {
	var sb strings.Builder
	sb.WriteString("*qBittorrent status*\n\n")
	sb.WriteString(fmt.Sprintf("Connection: %s\n", stats.Connection))
	sb.WriteString(fmt.Sprintf("↓ %s   ↑ %s\n\n",
		utils.FormatSpeed(stats.DownloadSpeed), utils.FormatSpeed(stats.UploadSpeed)))

	active := 0
	for _, t := range torrents {
		if t.IsComplete() {
			continue
		}
		active++
		sb.WriteString(fmt.Sprintf("⏳ %s (%.0f%%)\n",
			escapeMarkdown(utils.ExtractTitle(t.Name)), t.Progress*100))
	}
	if active == 0 {
		sb.WriteString("No active downloads.")
	}
	return sb.String()
}

// renderRules formats the rule list with per-rule delete buttons
func renderRules(rules []qbittorrent.Rule) (string, tgbotapi.InlineKeyboardMarkup) {
	if len(rules) == 0 {
		return "No auto-download rules configured.", backKeyboard()
	}

	var sb strings.Builder
	sb.WriteString("*Auto-download rules*\n\n")

	var rows [][]tgbotapi.InlineKeyboardButton
	for i, rule := range rules {
		state := "enabled"
		if !rule.Def.Enabled {
			state = "disabled"
		}
		sb.WriteString(fmt.Sprintf("*%d.* %s (%s)\n", i+1, escapeMarkdown(rule.Name), state))
		if rule.Def.EpisodeFilter != "" {
			sb.WriteString(fmt.Sprintf("    episodes: `%s`\n", rule.Def.EpisodeFilter))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("🗑 Delete %d", i+1), fmt.Sprintf("rule_del_%d", i))))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("« Back", "back_to_main")))

	return sb.String(), tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// renderUpcomingMovies formats the next-30-days movie list with per-movie
// rule buttons
func renderUpcomingMovies(movies []tmdb.Movie) (string, tgbotapi.InlineKeyboardMarkup) {
	if len(movies) == 0 {
		return "No upcoming movies found for the next 30 days.", backKeyboard()
	}

	if len(movies) > 10 {
		movies = movies[:10]
	}

	var sb strings.Builder
	sb.WriteString("*Upcoming movies* (next 30 days)\n\n")

	var rows [][]tgbotapi.InlineKeyboardButton
	var pickRow []tgbotapi.InlineKeyboardButton
	for i, m := range movies {
		sb.WriteString(fmt.Sprintf("*%d.* %s (%s)\n", i+1, escapeMarkdown(m.Title), m.ReleaseDate))
		pickRow = append(pickRow, tgbotapi.NewInlineKeyboardButtonData(
			fmt.Sprintf("%d", i+1), fmt.Sprintf("upcoming_%d", i)))
		if len(pickRow) == 5 {
			rows = append(rows, pickRow)
			pickRow = nil
		}
	}
	if len(pickRow) > 0 {
		rows = append(rows, pickRow)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("« Back", "back_to_main")))

	return sb.String(), tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// qualityKeyboard offers the resolutions a rule can target. The prefix
// distinguishes the flow that asked for it.
func qualityKeyboard(prefix string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("1080p", prefix+"_1080p"),
			tgbotapi.NewInlineKeyboardButtonData("2160p", prefix+"_2160p"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("« Cancel", "back_to_main"),
		),
	)
}

// replaceKeyboard offers replacing a colliding rule or backing out
func replaceKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("♻️ Replace", "replace_rule"),
			tgbotapi.NewInlineKeyboardButtonData("❌ Keep Existing", "back_to_main"),
		),
	)
}
