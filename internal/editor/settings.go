package editor

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// SettingKey names a global share setting.
type SettingKey string

const (
	SettingReorder            SettingKey = "reorder"
	SettingExpireDate         SettingKey = "expireDate"
	SettingEmailNotifications SettingKey = "emailNotifications"
	SettingReminder           SettingKey = "reminder"
)

// SettingSpec describes a catalog entry.
type SettingSpec struct {
	Key         SettingKey
	Label       string
	Description string
	DefaultDays int
	DefaultOn   bool
}

// Numeric reports whether the setting carries a day count.
func (s SettingSpec) Numeric() bool {
	return s.DefaultDays > 0
}

// SettingCatalog is the fixed set of share settings.
var SettingCatalog = []SettingSpec{
	{
		Key:         SettingReorder,
		Label:       "Set signing order",
		Description: "Recipients sign one after another in list order.",
	},
	{
		Key:         SettingExpireDate,
		Label:       "Expiration",
		Description: "The document expires {days} days after it is sent.",
		DefaultDays: 15,
	},
	{
		Key:         SettingEmailNotifications,
		Label:       "Email notifications",
		Description: "Recipients are notified by email when the document is shared.",
		DefaultOn:   true,
	},
	{
		Key:         SettingReminder,
		Label:       "Reminders",
		Description: "Pending recipients are reminded every {days} days.",
		DefaultDays: 1,
		DefaultOn:   true,
	},
}

// LookupSetting finds a catalog entry.
func LookupSetting(key SettingKey) (SettingSpec, bool) {
	for _, s := range SettingCatalog {
		if s.Key == key {
			return s, true
		}
	}
	return SettingSpec{}, false
}

// Setting is an enabled share setting. Value holds a day count for numeric
// settings and is empty otherwise.
type Setting struct {
	Key   SettingKey `json:"key"`
	Value string     `json:"value"`
}

// ShareSettings is the sparse set of enabled settings; absence means
// disabled.
type ShareSettings []Setting

// DefaultShareSettings enables the catalog entries marked DefaultOn.
func DefaultShareSettings() ShareSettings {
	out := ShareSettings{}
	for _, spec := range SettingCatalog {
		if spec.DefaultOn {
			out = append(out, Setting{Key: spec.Key, Value: defaultValue(spec)})
		}
	}
	return out
}

// Enabled reports whether key is present.
func (s ShareSettings) Enabled(key SettingKey) bool {
	return slices.ContainsFunc(s, func(st Setting) bool { return st.Key == key })
}

// Toggle enables key with its default value or disables it.
func (s ShareSettings) Toggle(key SettingKey) (ShareSettings, error) {
	spec, ok := LookupSetting(key)
	if !ok {
		return s, fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}
	out := s.clone()
	if out.Enabled(key) {
		return slices.DeleteFunc(out, func(st Setting) bool { return st.Key == key }), nil
	}
	return append(out, Setting{Key: key, Value: defaultValue(spec)}), nil
}

// SetValue changes the value of an enabled setting.
func (s ShareSettings) SetValue(key SettingKey, value string) ShareSettings {
	out := s.clone()
	for i := range out {
		if out[i].Key == key {
			out[i].Value = value
		}
	}
	return out
}

// Days returns the day count of a numeric setting, falling back to the
// catalog default when the stored value is missing or not a number.
func (s ShareSettings) Days(key SettingKey) int {
	spec, _ := LookupSetting(key)
	for _, st := range s {
		if st.Key == key {
			if n, err := strconv.Atoi(strings.TrimSpace(st.Value)); err == nil && n > 0 {
				return n
			}
		}
	}
	return spec.DefaultDays
}

// Describe renders the human readable description of key with its day count.
func (s ShareSettings) Describe(key SettingKey) string {
	spec, ok := LookupSetting(key)
	if !ok {
		return ""
	}
	return strings.ReplaceAll(spec.Description, "{days}", strconv.Itoa(s.Days(key)))
}

// Validate rejects unknown keys, duplicates and non-positive day counts.
func (s ShareSettings) Validate() error {
	seen := make(map[SettingKey]bool, len(s))
	for _, st := range s {
		spec, ok := LookupSetting(st.Key)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownSetting, st.Key)
		}
		if seen[st.Key] {
			return fmt.Errorf("%w: duplicate %s", ErrInvalidSetting, st.Key)
		}
		seen[st.Key] = true
		if spec.Numeric() && strings.TrimSpace(st.Value) != "" {
			n, err := strconv.Atoi(strings.TrimSpace(st.Value))
			if err != nil || n < 1 {
				return fmt.Errorf("%w: %s=%q", ErrInvalidSetting, st.Key, st.Value)
			}
		}
	}
	return nil
}

func (s ShareSettings) clone() ShareSettings {
	if s == nil {
		return ShareSettings{}
	}
	return slices.Clone(s)
}

func defaultValue(spec SettingSpec) string {
	if spec.Numeric() {
		return strconv.Itoa(spec.DefaultDays)
	}
	return ""
}
