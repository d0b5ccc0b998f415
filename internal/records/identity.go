package records

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
)

// idLength is the number of hex characters kept from the digest. Collisions
// at this length are resolved by the store's upsert, not assumed impossible.
const idLength = 16

// AssignID computes the stable listing identifier from the source kind, the
// provider's natural key, and the ISO date. The same raw snapshot always
// hashes to the same id, which is what makes re-running ingestion safe.
func AssignID(l *Listing) {
	l.ListingID = ListingID(l.SourceKind, l.NaturalKey, l.Date.Format("2006-01-02"))
}

// ListingID derives the truncated content hash used as the listings natural
// key. Exposed for tests and for backfill tooling.
func ListingID(sourceKind, naturalKey, isoDate string) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s_%s_%s", sourceKind, naturalKey, isoDate)))
	return hex.EncodeToString(sum[:])[:idLength]
}
