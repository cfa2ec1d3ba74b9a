package peakapi

import (
	"fmt"

	"github.com/google/uuid"
)

// summitNamespace is the fixed UUID namespace for manually logged summits.
// It must never change: the backend treats creation as an upsert keyed by
// the derived id, which is what makes re-submission after an ambiguous
// outcome safe.
var summitNamespace = uuid.MustParse("9f2c1a44-5b8e-4d1f-9c63-2a7de0c11f5b")

// DeterministicSummitID derives the summit resource id from stable business
// fields. The same (user, peak, date) triple always yields the same id.
func DeterministicSummitID(userID, peakID, summitDate string) string {
	name := fmt.Sprintf("%s|%s|%s", userID, peakID, summitDate)
	return uuid.NewSHA1(summitNamespace, []byte(name)).String()
}
