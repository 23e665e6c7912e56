package lifecycle

import "strings"

// ExceptionList holds account names exempt from quarantine. Matching is
// case-insensitive, like directory names themselves. The list governs only
// the move/disable step: accounts already inside the quarantine container are
// still reconciled and reaped regardless of listing here.
type ExceptionList map[string]struct{}

func NewExceptionList(names ...string) ExceptionList {
	l := make(ExceptionList, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		l[strings.ToLower(n)] = struct{}{}
	}
	return l
}

func (l ExceptionList) Contains(name string) bool {
	_, ok := l[strings.ToLower(name)]
	return ok
}
