package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
)

// ArtifactRepository stores payout artifacts (PIX QR code images and
// their thumbnails) in object storage. Objects are private; access goes
// through presigned URLs generated on demand.
type ArtifactRepository interface {
	Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error)
	Delete(ctx context.Context, objectPath string) error
	GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error)
}

// ArtifactObjectPath creates a unique object path for a payout artifact,
// namespaced by organization so presigned access stays scoped.
func ArtifactObjectPath(organizationID int32, kind string, variant string, ext string) string {
	id := uuid.New().String()
	filename := fmt.Sprintf("%s_%s%s", id, variant, ext)
	return path.Join(fmt.Sprintf("%d", organizationID), kind, filename)
}
