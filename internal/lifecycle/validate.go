package lifecycle

import (
	"regexp"

	"github.com/cloudmasa/engine/internal/errdefs"
)

var (
	clusterNameRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9-]{0,99}$`)
	vpcIDRe       = regexp.MustCompile(`^vpc-[0-9a-f]+$`)
	subnetIDRe    = regexp.MustCompile(`^subnet-[0-9a-f]+$`)
	accountIDRe   = regexp.MustCompile(`^[0-9]{12}$`)
)

func validateClusterName(name string) error {
	if !clusterNameRe.MatchString(name) {
		return errdefs.Validation("invalid cluster name %q: must start with a letter and contain only letters, digits and hyphens", name)
	}
	return nil
}

func validateAccountID(id string) error {
	if !accountIDRe.MatchString(id) {
		return errdefs.Validation("invalid account id %q: must be 12 digits", id)
	}
	return nil
}

func validateCreate(req CreateRequest) error {
	if err := validateClusterName(req.Name); err != nil {
		return err
	}
	if err := validateAccountID(req.AccountID); err != nil {
		return err
	}
	if !vpcIDRe.MatchString(req.VPCID) {
		return errdefs.Validation("invalid network id %q", req.VPCID)
	}
	if len(req.SubnetIDs) < 2 {
		return errdefs.Validation("at least 2 subnet ids are required, got %d", len(req.SubnetIDs))
	}
	for _, id := range req.SubnetIDs {
		if !subnetIDRe.MatchString(id) {
			return errdefs.Validation("invalid subnet id %q", id)
		}
	}
	if req.DesiredSize < 1 {
		return errdefs.Validation("desired node count must be at least 1")
	}
	if req.MinSize > req.DesiredSize || req.DesiredSize > req.MaxSize {
		return errdefs.Validation("node counts must satisfy min <= desired <= max")
	}
	return nil
}
