package service

import (
	"fmt"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/sgirs-cali/portal/internal/core/domain"
)

// DefaultMaxAttachmentBytes caps a single upload when no limit is configured.
const DefaultMaxAttachmentBytes int64 = 10 << 20

var allowedAttachmentTypes = []string{"application/pdf", "image/jpeg", "image/png"}

// AttachmentPolicy validates citizen uploads.
type AttachmentPolicy struct {
	MaxBytes int64
}

// Inspect checks the file and returns its attachment descriptor, minus the
// storage key. The content type is sniffed from the bytes; the client's
// claim is ignored.
func (p AttachmentPolicy) Inspect(name string, data []byte) (domain.Attachment, error) {
	limit := p.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxAttachmentBytes
	}
	name = strings.TrimSpace(path.Base(strings.ReplaceAll(name, "\\", "/")))
	if len(data) == 0 || name == "" || name == "." || name == "/" {
		return domain.Attachment{}, domain.ErrAttachmentInvalid
	}
	if int64(len(data)) > limit {
		return domain.Attachment{}, fmt.Errorf("%w: %d bytes, limit %d", domain.ErrAttachmentTooLarge, len(data), limit)
	}

	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), allowedAttachmentTypes...) {
		return domain.Attachment{}, fmt.Errorf("%w: content type %s not accepted", domain.ErrAttachmentInvalid, mt.String())
	}

	return domain.Attachment{
		Name:        name,
		ContentType: mt.String(),
		Size:        int64(len(data)),
	}, nil
}

// AttachmentPrefix is the storage prefix owned by one citizen in a period.
func AttachmentPrefix(periodID, userID string) string {
	return "attachments/" + periodID + "/" + userID + "/"
}

// attachmentOwner extracts the user id from a key under the period's
// attachment prefix.
func attachmentOwner(periodID, key string) (string, bool) {
	rest, ok := strings.CutPrefix(key, "attachments/"+periodID+"/")
	if !ok {
		return "", false
	}
	owner, _, ok := strings.Cut(rest, "/")
	if !ok || owner == "" {
		return "", false
	}
	return owner, true
}

// NewAttachmentKey returns a fresh storage key for a file answering
// questionID. Keys are chosen before upload so answers and files can be
// sent independently.
func NewAttachmentKey(periodID, userID, questionID, name string) string {
	return AttachmentPrefix(periodID, userID) + questionID + "/" + uuid.NewString() + "-" + name
}
