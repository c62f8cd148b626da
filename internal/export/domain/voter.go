package domain

import "time"

// Voter is one source record of the export dataset. Scalar attributes only;
// phone numbers live in PhoneEntry and are looked up in bulk per job run.
type Voter struct {
	VoterID     string    `db:"voter_id"`
	VoterNumber string    `db:"voter_number"`
	FullName    string    `db:"full_name"`
	Gender      string    `db:"gender"`
	DateOfBirth time.Time `db:"date_of_birth"`
	City        string    `db:"city"`
	District    string    `db:"district"`
	Address     string    `db:"address"`
}

// PhoneEntry is one multi-valued phone attribute of a voter, carrying an
// explicit sort order.
type PhoneEntry struct {
	VoterID     string `db:"voter_id"`
	PhoneNumber string `db:"phone_number"`
	SortOrder   int    `db:"sort_order"`
}

// FlatRow is one exportable output line: a voter merged with at most one
// phone entry. In-memory only, never persisted.
type FlatRow struct {
	Voter
	PhoneNumber string
	PhoneOrder  *int
}
