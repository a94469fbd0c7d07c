package models

// Category is the normalized indexer category label of a search result
type Category string

const (
	CategoryMovies     Category = "movies"
	CategoryTV         Category = "tv"
	CategoryTVBoxsets  Category = "tv_boxsets"
	CategoryTVEpisodes Category = "tv_episodes"
	CategoryOther      Category = "other"
	CategoryUnknown    Category = "unknown"
)

// IsTV reports whether the category denotes TV content
func (c Category) IsTV() bool {
	return c == CategoryTV || c == CategoryTVBoxsets || c == CategoryTVEpisodes
}

// DownloadStatus represents the lifecycle of a user-initiated download
type DownloadStatus string

const (
	DownloadStatusDownloading DownloadStatus = "downloading"
	DownloadStatusCompleted   DownloadStatus = "completed"
)

// DialogState is the current step of a user's conversation with the bot.
// Text input is only accepted in the two awaiting states; everything else
// is driven by inline-keyboard callbacks.
type DialogState string

const (
	StateIdle                DialogState = "idle"
	StateAwaitingQuery       DialogState = "awaiting_query"
	StateAwaitingFutureQuery DialogState = "awaiting_future_query"
	StateShowingResults      DialogState = "showing_results"
	StateConfirmingDownload  DialogState = "confirming_download"
)

// AcceptsText reports whether the state expects a free-text message
func (s DialogState) AcceptsText() bool {
	return s == StateAwaitingQuery || s == StateAwaitingFutureQuery
}
