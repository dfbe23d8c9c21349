// Package preferences keeps per-account display preferences in cookies.
// Values are client-held and unsigned and affect display only.
package preferences

import (
	"net/http"
	"strconv"
	"time"
)

const showCompletedPrefix = "show_completed_"

// cookieTTL keeps preferences for a year.
const cookieTTL = 365 * 24 * time.Hour

func showCompletedCookie(accountID int64) string {
	return showCompletedPrefix + strconv.FormatInt(accountID, 10)
}

// ShowCompleted reports the account's completed-visibility preference.
// Accounts that never set it see completed todos hidden.
func ShowCompleted(r *http.Request, accountID int64) bool {
	c, err := r.Cookie(showCompletedCookie(accountID))
	if err != nil {
		return false
	}
	show, err := strconv.ParseBool(c.Value)
	return err == nil && show
}

// SetShowCompleted stores the account's completed-visibility preference.
func SetShowCompleted(w http.ResponseWriter, accountID int64, show bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     showCompletedCookie(accountID),
		Value:    strconv.FormatBool(show),
		Path:     "/",
		Expires:  time.Now().Add(cookieTTL),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ParseBool reads an HTML form or query value. Checked checkboxes send
// "on" by default; anything unrecognised is false.
func ParseBool(v string) bool {
	switch v {
	case "on", "yes", "y":
		return true
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
