package export

import "github.com/rollcall-hq/constituent-export/internal/export/domain"

// ExpandRows projects voters into flat output rows. When the resolved column
// selection includes a phone column, each voter fans out into one row per
// phone entry (entry order preserved); a voter without phones still emits a
// single row with empty phone fields. When no phone column is selected, every
// voter emits exactly one row and the phone fields stay empty regardless of
// how many entries exist.
//
// The fan-out decision is derived from the selection on every call; there is
// no separate mode flag.
func ExpandRows(voters []domain.Voter, phones map[string][]domain.PhoneEntry, cols []Column) []domain.FlatRow {
	expand := includesPhoneColumns(cols)

	rows := make([]domain.FlatRow, 0, len(voters))
	for _, voter := range voters {
		if !expand {
			rows = append(rows, domain.FlatRow{Voter: voter})
			continue
		}

		entries := phones[voter.VoterID]
		if len(entries) == 0 {
			rows = append(rows, domain.FlatRow{Voter: voter})
			continue
		}

		for _, entry := range entries {
			order := entry.SortOrder
			rows = append(rows, domain.FlatRow{
				Voter:       voter,
				PhoneNumber: entry.PhoneNumber,
				PhoneOrder:  &order,
			})
		}
	}

	return rows
}
