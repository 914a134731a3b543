package blobstore

import (
	"errors"
	"fmt"

	azStorageBlob "github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
)

const (
	azblobBlobNotFound = "BlobNotFound"
)

func AsStorageError(err error) (azStorageBlob.StorageError, bool) {
	serr := &azStorageBlob.StorageError{}
	//nolint
	ierr, ok := err.(*azStorageBlob.InternalError)
	if ierr == nil || !ok {
		return azStorageBlob.StorageError{}, false
	}
	if !ierr.As(&serr) {
		return azStorageBlob.StorageError{}, false
	}
	return *serr, true
}

// WrapBlobNotFound translates err to ErrBlobNotFound when it is the azure sdk
// BlobNotFound error, and wraps target too when one is provided so callers can
// test for their own sentinel. Any other err, including nil, is returned
// unchanged.
func WrapBlobNotFound(err error, target error) error {
	if err == nil {
		return nil
	}
	if !IsBlobNotFound(err) {
		return err
	}
	if errors.Is(err, ErrBlobNotFound) {
		if target == nil {
			return err
		}
		return fmt.Errorf("%w: %w", target, err)
	}
	if target == nil {
		return fmt.Errorf("%s: %w", err.Error(), ErrBlobNotFound)
	}
	return fmt.Errorf("%s: %w: %w", err.Error(), target, ErrBlobNotFound)
}

func IsBlobNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrBlobNotFound) {
		return true
	}
	serr, ok := AsStorageError(err)
	if !ok {
		return false
	}
	return serr.ErrorCode == azblobBlobNotFound
}
