package models

import "time"

// Offender is an entry in the Red Flag Zone: a party reported for bad
// trading behaviour. Entries are added and removed, never edited.
type Offender struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"not null" json:"name"`
	Company    string    `gorm:"not null;index" json:"company"`
	Email      string    `json:"email"`
	Telephone  string    `json:"telephone"`
	Reason     string    `gorm:"type:text;not null" json:"reason"`
	ReportedBy string    `gorm:"not null;index" json:"reported_by"` // email of the authenticated reporter
	DateAdded  time.Time `gorm:"not null" json:"date_added"`
}

// TableName specifies the table name for the Offender model
func (Offender) TableName() string {
	return "offenders"
}
