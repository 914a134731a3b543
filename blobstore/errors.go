package blobstore

import "errors"

var (
	ErrBlobNotFound    = errors.New("the blob was not found")
	ErrAssetPathFormat = errors.New("the blob path does not name an asset")
	ErrMetadataDecode  = errors.New("the asset metadata could not be decoded")
	ErrConditionNotMet = errors.New("the blob was modified since it was read")
)
