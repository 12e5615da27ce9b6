package libemit

import (
	"reflect"
	"strings"
)

const eventNameSeparator = ","

// splitEventNames expands a single comma separated event name into its parts. It only
// applies to events whose dynamic kind is string; anything else is returned unchanged.
func splitEventNames[K comparable](events []K) []K {
	if len(events) != 1 {
		return events
	}

	v := reflect.ValueOf(events[0])
	if !v.IsValid() || v.Kind() != reflect.String || !strings.Contains(v.String(), eventNameSeparator) {
		return events
	}

	parts := strings.Split(v.String(), eventNameSeparator)
	split := make([]K, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		name, ok := reflect.ValueOf(part).Convert(v.Type()).Interface().(K)
		if !ok {
			return events
		}
		split = append(split, name)
	}

	if len(split) == 0 {
		return events
	}
	return split
}
