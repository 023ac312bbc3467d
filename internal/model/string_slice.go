package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// StringSlice is a []string stored as a single comma separated column. It's
// used for keyword sets, which is why elements can never contain a comma.
type StringSlice []string

// Value implements the driver.Valuer interface.
func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "", nil
	}

	for _, v := range s {
		if strings.Contains(v, ",") {
			return "", fmt.Errorf("unsafe string, %q", v)
		}
	}

	return strings.Join(s, ","), nil
}

// Scan implements the sql.Scanner interface.
func (s *StringSlice) Scan(value any) error {
	var str string

	switch v := value.(type) {
	case nil:
		*s = StringSlice{}
		return nil
	case string:
		str = v
	case []byte:
		str = string(v)
	default:
		return fmt.Errorf("failed to scan StringSlice, %v", value)
	}

	if str == "" {
		*s = StringSlice{}
		return nil
	}

	*s = strings.Split(str, ",")
	return nil
}

// Union appends every keyword not already present, comparing
// case-insensitively. Entries are trimmed, empty ones are dropped and an entry
// containing commas is split on them. The first spelling of a keyword wins.
// The returned flag reports whether anything was added.
func (s StringSlice) Union(keywords ...string) (StringSlice, bool) {
	seen := make(map[string]struct{}, len(s)+len(keywords))
	out := make(StringSlice, 0, len(s)+len(keywords))

	for _, k := range s {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}

		key := strings.ToLower(k)
		if _, ok := seen[key]; ok {
			continue
		}

		seen[key] = struct{}{}
		out = append(out, k)
	}

	base := len(out)

	for _, raw := range keywords {
		for k := range strings.SplitSeq(raw, ",") {
			k = strings.TrimSpace(k)
			if k == "" {
				continue
			}

			key := strings.ToLower(k)
			if _, ok := seen[key]; ok {
				continue
			}

			seen[key] = struct{}{}
			out = append(out, k)
		}
	}

	return out, len(out) > base
}
