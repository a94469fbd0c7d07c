package bot

import (
	"github.com/qbitremote/qbitremote/internal/models"
)

// session loads a user's dialog session, synthesizing an idle one when
// the user has none yet
func (b *Bot) session(userID int64) *models.UserSession {
	session, err := b.db.GetSession(userID)
	if err != nil {
		b.logger.WithError(err).WithField("user_id", userID).Error("Failed to load session")
	}
	if session == nil {
		session = &models.UserSession{
			UserID: userID,
			State:  models.StateIdle,
		}
	}
	return session
}

// transition moves a user to a new dialog state and persists it
func (b *Bot) transition(session *models.UserSession, state models.DialogState) {
	session.State = state
	if err := b.db.SaveSession(session); err != nil {
		b.logger.WithError(err).WithField("user_id", session.UserID).Error("Failed to save session")
	}
}

// resetSession drops a user back to idle and clears search context
func (b *Bot) resetSession(session *models.UserSession) {
	session.State = models.StateIdle
	session.SearchType = ""
	session.SearchQuery = ""
	session.CurrentPage = 0
	session.FutureType = ""
	if err := b.db.SaveSession(session); err != nil {
		b.logger.WithError(err).WithField("user_id", session.UserID).Error("Failed to save session")
	}

	b.mu.Lock()
	delete(b.pages, session.UserID)
	delete(b.pendingRules, session.UserID)
	b.mu.Unlock()
}
