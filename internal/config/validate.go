package config

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Validate checks the configuration for invalid or missing values. All
// problems are reported at once so a broken deploy fails with the full list.
func (c *Config) Validate() error {
	if errs := c.validate(); len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func (c *Config) validate() []string {
	var errs []string

	if c.Slack.BotToken == "" {
		errs = append(errs, "slack.botToken is required")
	}
	if c.Slack.Maintainer == "" {
		errs = append(errs, "slack.maintainer is required")
	}
	if c.Monitor.URL == "" {
		errs = append(errs, "monitor.url is required")
	}
	if c.Monitor.Token == "" {
		errs = append(errs, "monitor.token is required")
	}
	if c.Monitor.TimeoutS < 0 {
		errs = append(errs, "monitor.timeoutSeconds must be non-negative")
	}
	if c.Bot.ReadDelayS < 0 {
		errs = append(errs, "bot.readDelaySeconds must be non-negative")
	}
	if c.Bot.ReconnectDelayS < 0 {
		errs = append(errs, "bot.reconnectDelaySeconds must be non-negative")
	}
	if c.Watch.Enabled && c.Watch.IntervalS <= 0 {
		errs = append(errs, "watch.intervalSeconds must be positive when enabled")
	}

	return errs
}

// CheckUnknownFields walks the raw config map and returns paths of any keys
// that do not correspond to known Config struct fields.
func CheckUnknownFields(raw map[string]any) []string {
	result := checkUnknownFields(raw, reflect.TypeOf(Config{}), "")
	sort.Strings(result)
	return result
}

func checkUnknownFields(data map[string]any, t reflect.Type, prefix string) []string {
	t = derefType(t)
	if t.Kind() != reflect.Struct {
		return nil
	}

	known := jsonFieldMap(t)
	var unknown []string
	for key, val := range data {
		ft, ok := known[key]
		if !ok {
			unknown = append(unknown, joinPath(prefix, key))
			continue
		}
		if nested, ok := val.(map[string]any); ok {
			unknown = append(unknown, checkUnknownFields(nested, ft, joinPath(prefix, key))...)
		}
	}
	return unknown
}

func jsonFieldMap(t reflect.Type) map[string]reflect.Type {
	m := make(map[string]reflect.Type, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "" || tag == "-" {
			continue
		}
		name := strings.Split(tag, ",")[0]
		if name != "" {
			m[name] = f.Type
		}
	}
	return m
}

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
