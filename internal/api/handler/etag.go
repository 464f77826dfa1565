package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/bcnelson/cidr-group-central/internal/domain"
)

// GenerateETag derives a strong ETag from a group's content.
// Format: "group-<first 16 hex chars of sha256(name, description, cidr)>"
func GenerateETag(group *domain.CIDRGroup) string {
	h := sha256.New()
	for _, field := range []string{group.Name, group.Description, group.CIDR} {
		h.Write([]byte(field))
		h.Write([]byte{0})
	}
	return `"group-` + hex.EncodeToString(h.Sum(nil))[:16] + `"`
}

// SetGroupETag sets the ETag header on the response.
func SetGroupETag(w http.ResponseWriter, group *domain.CIDRGroup) {
	w.Header().Set("ETag", GenerateETag(group))
}

// CheckGroupIfMatch checks the If-Match header against the group's ETag.
// Returns true if:
//   - No If-Match header is present (ETag checking is optional)
//   - If-Match is "*"
//   - Any listed ETag matches the current one
func CheckGroupIfMatch(r *http.Request, group *domain.CIDRGroup) bool {
	ifMatch := strings.TrimSpace(r.Header.Get("If-Match"))
	if ifMatch == "" || ifMatch == "*" {
		return true
	}

	current := GenerateETag(group)
	for _, candidate := range strings.Split(ifMatch, ",") {
		if strings.TrimSpace(candidate) == current {
			return true
		}
	}
	return false
}

// RespondPreconditionFailed writes a 412 Precondition Failed response.
func RespondPreconditionFailed(w http.ResponseWriter, group *domain.CIDRGroup) {
	respondStandardError(w, http.StatusPreconditionFailed, domain.ErrCodePreconditionFailed,
		"resource has been modified", "", map[string]any{
			"currentETag": GenerateETag(group),
		})
}
