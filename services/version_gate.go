package services

import (
	"fmt"

	"github.com/obsandbox/paygate/models"
	"github.com/obsandbox/paygate/utils"
)

// CheckResourceVersion gates access to a resource by the protocol version it
// was created under. Access is allowed iff the requesting version is at least
// the resource's creation version; an older caller gets a conflict naming the
// actual creation version rather than a partially populated representation.
//
// resourceVersion comes from the resource's own ob_version column and was
// validated when the resource was created, so a parse failure here is a store
// inconsistency, not a caller error.
func CheckResourceVersion(requestVersion models.VersionTag, resourceVersion string) error {
	resV, err := models.ParseVersion(resourceVersion)
	if err != nil {
		return &utils.InternalError{
			Op:  "resource version parse",
			Err: fmt.Errorf("stored version %q: %w", resourceVersion, err),
		}
	}
	if !requestVersion.AtLeast(resV) {
		return &utils.VersionConflictError{
			RequestVersion:  requestVersion.String(),
			ResourceVersion: resourceVersion,
		}
	}
	return nil
}
