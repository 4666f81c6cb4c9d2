package providers

import (
	"errors"
	"ntpbg/internal/structures"

	"github.com/gookit/validate"
)

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

// Validate runs the struct tag rules, then the checks that span fields.
func (cv *CnfValidator) Validate() error {
	v := validate.Struct(cv.conf)
	if !v.Validate() {
		return v.Errors
	}

	var errs []error
	c := cv.conf.Component
	if c.Watch && c.SponsoredImagesDir == "" && c.SuperReferralDir == "" && c.BackgroundImagesDir == "" {
		errs = append(errs, errors.New("component.watch needs at least one component directory"))
	}
	p := cv.conf.P3A
	if p.ExpressRotationInterval > 0 && p.TypicalRotationInterval > 0 && p.TypicalRotationInterval < p.ExpressRotationInterval {
		errs = append(errs, errors.New("p3a.typicalRotationInterval must not be shorter than p3a.expressRotationInterval"))
	}
	return errors.Join(errs...)
}
