package services

import (
	"strings"

	"golang.org/x/text/language"
)

// IsSupportedLocale reports whether the region of locale is one of regions.
// A locale without an explicit region uses the most likely region for its
// language, so "en" resolves to US.
func IsSupportedLocale(locale string, regions []string) bool {
	if locale == "" || len(regions) == 0 {
		return false
	}
	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return false
	}
	region, confidence := tag.Region()
	if confidence == language.No {
		return false
	}
	for _, r := range regions {
		supported, err := language.ParseRegion(r)
		if err != nil {
			continue
		}
		if supported == region {
			return true
		}
	}
	return false
}
