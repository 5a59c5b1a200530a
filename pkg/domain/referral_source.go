package domain

import dErrors "clientele/pkg/domain-errors"

// ReferralSource records how a client found the business.
// Invariant: the value must be one of the supported sources. The string form
// is wire-stable and round-trips exactly.
//
// Usage: construct via ParseReferralSource at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type ReferralSource string

const (
	ReferralSourceReferral      ReferralSource = "Referral"
	ReferralSourceSocialMedia   ReferralSource = "Social Media"
	ReferralSourceGoogle        ReferralSource = "Google"
	ReferralSourceWalkIn        ReferralSource = "Walk-in"
	ReferralSourceAdvertisement ReferralSource = "Advertisement"
	ReferralSourceOther         ReferralSource = "Other"
)

var validReferralSources = map[ReferralSource]bool{
	ReferralSourceReferral:      true,
	ReferralSourceSocialMedia:   true,
	ReferralSourceGoogle:        true,
	ReferralSourceWalkIn:        true,
	ReferralSourceAdvertisement: true,
	ReferralSourceOther:         true,
}

// ParseReferralSource constructs a ReferralSource from external input.
func ParseReferralSource(s string) (ReferralSource, error) {
	src := ReferralSource(s)
	if !src.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "invalid referral source")
	}
	return src, nil
}

// IsValid reports whether the source is in the allowlist.
func (r ReferralSource) IsValid() bool {
	return validReferralSources[r]
}

func (r ReferralSource) String() string {
	return string(r)
}

// ReferralSources lists the accepted values in display order.
func ReferralSources() []ReferralSource {
	return []ReferralSource{
		ReferralSourceReferral,
		ReferralSourceSocialMedia,
		ReferralSourceGoogle,
		ReferralSourceWalkIn,
		ReferralSourceAdvertisement,
		ReferralSourceOther,
	}
}
