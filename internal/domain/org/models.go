package org

import (
	"fmt"
	"strings"
)

// Id of an organisation (tenant). Every record operation is scoped
// to exactly one of these.
type Id string

var invalidChars = `\/*?"<>| ,#:`

var illegalPrefixes = []string{
	"_",
	"-",
	"+",
}

var illegals = []string{
	".",
	"..",
}

// IdFromString takes a string and returns an org Id if valid, otherwise returns an InvalidId error.
//
// The constraints mirror what the backing store allows in index names, since
// org Ids end up embedded in them.
func IdFromString(s string) (*Id, error) {
	var errs []error

	if len(s) == 0 {
		errs = append(errs, fmt.Errorf("empty string"))
	}
	if strings.ContainsAny(s, invalidChars) {
		errs = append(errs, fmt.Errorf("contains invalid chars [%v]", invalidChars))
	}
	for _, illegalPrefix := range illegalPrefixes {
		if strings.HasPrefix(s, illegalPrefix) {
			errs = append(errs, fmt.Errorf("starts with illegal char [%v]", illegalPrefix))
		}
	}
	for _, illegalStr := range illegals {
		if s == illegalStr {
			errs = append(errs, fmt.Errorf("equal to illegal string sequence [%v]", illegalStr))
		}
	}
	if s != strings.ToLower(s) {
		errs = append(errs, fmt.Errorf("not lower case [%v]", s))
	}
	if len(errs) == 0 {
		id := Id(s)
		return &id, nil
	} else {
		return nil, &InvalidId{
			Errors: errs,
		}
	}

}

type InvalidId struct {
	Errors []error
}

func (i *InvalidId) Error() string {
	return fmt.Sprintf("Illegal org id: [%v]", i.Errors)
}
