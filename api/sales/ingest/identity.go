package ingest

import (
	"log"
	"regexp"
	"strings"
)

var (
	slugStripRe    = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugCollapseRe = regexp.MustCompile(`[\s-]+`)
)

// Slugify derives the store key from a free-text location name. It must stay
// pure and deterministic: the slug is the store's primary key, so
// Slugify("Downtown Showroom") and Slugify("  downtown SHOWROOM ") have to
// agree forever.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, "&", "and")
	s = slugStripRe.ReplaceAllString(s, "")
	s = slugCollapseRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// StorageKey rewrites sale identifiers that contain a path separator, which
// the storage layer forbids in keys. The original identifier stays on the
// record; only the key is rewritten.
func StorageKey(saleID string) (string, bool) {
	if !strings.Contains(saleID, "/") {
		return saleID, false
	}
	return strings.ReplaceAll(saleID, "/", "_"), true
}

func logKeyRewrite(saleID, key, sourceFile string) {
	log.Printf("[WARN] sale id %q contains '/', stored under key %q (file %s)", saleID, key, sourceFile)
}
