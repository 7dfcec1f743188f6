package phh

import "time"

// HandHistory is a single hand in PHH format. Keys starting with an
// underscore are user-defined fields carrying the fairness audit trail.
type HandHistory struct {
	Variant           string   `toml:"variant"`
	Table             string   `toml:"table,omitempty"`
	SeatCount         int      `toml:"seat_count,omitempty"`
	Seats             []int    `toml:"seats,omitempty"`
	Antes             []int64  `toml:"antes"`
	BlindsOrStraddles []int64  `toml:"blinds_or_straddles"`
	MinBet            int64    `toml:"min_bet"`
	StartingStacks    []int64  `toml:"starting_stacks"`
	FinishingStacks   []int64  `toml:"finishing_stacks,omitempty"`
	Winnings          []int64  `toml:"winnings,omitempty"`
	Actions           []string `toml:"actions"`
	Players           []string `toml:"players,omitempty"`
	HandID            string   `toml:"hand"`
	Time              string   `toml:"time,omitempty"`
	TimeZone          string   `toml:"time_zone,omitempty"`
	Day               int      `toml:"day,omitempty"`
	Month             int      `toml:"month,omitempty"`
	Year              int      `toml:"year,omitempty"`

	Reason        string `toml:"_reason,omitempty"`
	Commitment    string `toml:"_commitment,omitempty"`
	Salt          string `toml:"_salt,omitempty"`
	AuditRequired bool   `toml:"_audit_required,omitempty"`

	Timestamp time.Time `toml:"-"`
}

// SetTime fills the PHH date and time fields from t in UTC.
func (h *HandHistory) SetTime(t time.Time) {
	h.Timestamp = t
	if t.IsZero() {
		return
	}
	utc := t.UTC()
	h.Time = utc.Format("15:04:05")
	h.TimeZone = "UTC"
	h.Day = utc.Day()
	h.Month = int(utc.Month())
	h.Year = utc.Year()
}
