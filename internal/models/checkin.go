package models

import "time"

// CheckIn records a member entering the gym. At most one check-in per member
// per calendar day.
type CheckIn struct {
	ID          string    `db:"id" json:"id"`
	MemberID    string    `db:"member_id" json:"member_id"`
	CheckedInAt time.Time `db:"checked_in_at" json:"checked_in_at"`
}

// CheckInDetail enriches CheckIn with member info.
type CheckInDetail struct {
	CheckIn
	MemberName     string `db:"member_name" json:"member_name"`
	MemberDocument string `db:"member_document" json:"member_document"`
}

// CheckInFilter provides filters for listing check-ins.
type CheckInFilter struct {
	MemberID string
	Date     *time.Time
	Page     int
	PageSize int
}
