package blobstore

import (
	"fmt"
	"strings"
)

// The container layout follows the asset store's storage types, one prefix
// per type with the asset id as the blob name.
const (
	MetadataPrefix  = "metadata/"
	ThumbPrefix     = "thumb/"
	ThumbPagePrefix = "thumb-page/"

	ThumbPageBlobNameFmt = "%08d"

	// CBORSuffix marks metadata blobs that are CBOR rather than JSON encoded
	CBORSuffix = ".cbor"

	// ContentTypeTag is the blob index tag recording a thumbnail's content
	// type.
	ContentTypeTag = "contentType"
)

func MetadataPath(assetID string) string {
	return MetadataPrefix + assetID
}

func MetadataCBORPath(assetID string) string {
	return MetadataPrefix + assetID + CBORSuffix
}

func ThumbPath(assetID string) string {
	return ThumbPrefix + assetID
}

func ThumbPagePath(pageIndex uint32) string {
	return ThumbPagePrefix + fmt.Sprintf(ThumbPageBlobNameFmt, pageIndex)
}

// ParseMetadataPath returns the asset id named by a metadata blob path and
// whether the blob is CBOR encoded.
func ParseMetadataPath(blobPath string) (string, bool, error) {
	name, ok := strings.CutPrefix(blobPath, MetadataPrefix)
	if !ok {
		return "", false, fmt.Errorf("%w: %s", ErrAssetPathFormat, blobPath)
	}
	id, isCBOR := strings.CutSuffix(name, CBORSuffix)
	if id == "" || strings.Contains(id, "/") {
		return "", false, fmt.Errorf("%w: %s", ErrAssetPathFormat, blobPath)
	}
	return id, isCBOR, nil
}
