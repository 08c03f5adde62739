package optimization

import "errors"

// ErrRuleNotFound is returned when a rule id does not exist for the shop.
var ErrRuleNotFound = errors.New("optimization rule not found")
