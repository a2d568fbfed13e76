package storage

import (
	"errors"
	"strings"

	"github.com/minio/minio-go/v7"
)

// ErrObjectNotFound marks a read of an object that does not exist, as opposed
// to a transport failure. Match with errors.Is.
var ErrObjectNotFound = errors.New("object not found")

// IsNotFound reports whether err means the object never existed.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound) || IsNoSuchKey(err)
}

// IsNoSuchKey reports whether the underlying S3/MinIO error is NoSuchKey/NotFound.
func IsNoSuchKey(err error) bool {
	if err == nil {
		return false
	}

	var minioErr minio.ErrorResponse
	if errors.As(err, &minioErr) {
		switch strings.ToLower(strings.TrimSpace(minioErr.Code)) {
		case "nosuchkey", "notfound":
			return true
		}
	}

	// Some gateways/proxies flatten the error into a plain string.
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "nosuchkey") ||
		strings.Contains(lower, "specified key does not exist")
}
