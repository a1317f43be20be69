package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Field kinds accepted in a partial update, keyed by protocol field name.
const (
	kindInt = iota
	kindFloat
	kindTime
	kindString
	kindBool
)

var updateFields = map[string]int{
	"type":          kindString,
	"ssid":          kindString,
	"cloaked":       kindBool,
	"llcpackets":    kindInt,
	"datapackets":   kindInt,
	"cryptpackets":  kindInt,
	"dupeivpackets": kindInt,
	"fragments":     kindInt,
	"retries":       kindInt,
	"newpackets":    kindInt,
	"datasize":      kindInt,
	"channel":       kindInt,
	"maxseenrate":   kindInt,
	"clients":       kindInt,
	"cryptset":      kindInt,
	"carrierset":    kindInt,
	"firsttime":     kindTime,
	"lasttime":      kindTime,
	"signal_dbm":    kindInt,
	"noise_dbm":     kindInt,
	"minsignal_dbm": kindInt,
	"maxsignal_dbm": kindInt,
	"minnoise_dbm":  kindInt,
	"maxnoise_dbm":  kindInt,
	"gpsfixed":      kindBool,
	"minlat":        kindFloat,
	"minlon":        kindFloat,
	"minalt":        kindFloat,
	"minspd":        kindFloat,
	"maxlat":        kindFloat,
	"maxlon":        kindFloat,
	"maxalt":        kindFloat,
	"maxspd":        kindFloat,
	"rangeip":       kindString,
	"manuf":         kindString,
	"model":         kindString,
}

// ErrMissingAddress is returned for updates without a usable bssid field.
var ErrMissingAddress = errors.New("update has no bssid")

// Update is a partial field update for one network as delivered by a remote feed.
// Field values carry absolute (not delta) semantics.
type Update struct {
	Addr   MAC
	Fields map[string]any
}

// ParseUpdate builds an Update from a decoded event. Unknown fields are kept but
// ignored downstream; known fields must convert to their expected kind.
func ParseUpdate(evt map[string]any) (Update, error) {
	raw, ok := evt["bssid"].(string)
	if !ok || raw == "" {
		return Update{}, ErrMissingAddress
	}
	addr, err := ParseMAC(raw)
	if err != nil {
		return Update{}, fmt.Errorf("invalid bssid %q: %w", raw, err)
	}

	u := Update{Addr: addr, Fields: make(map[string]any, len(evt))}
	for k, v := range evt {
		k = strings.ToLower(k)
		if k == "bssid" {
			continue
		}
		if kind, known := updateFields[k]; known {
			if err := checkKind(kind, v); err != nil {
				return Update{}, fmt.Errorf("field %s: %w", k, err)
			}
		}
		u.Fields[k] = v
	}
	return u, nil
}

func checkKind(kind int, v any) error {
	var err error
	switch kind {
	case kindInt:
		_, err = toFloat(v)
	case kindFloat:
		_, err = toFloat(v)
	case kindTime:
		_, err = toTime(v)
	case kindString:
		if _, ok := v.(string); !ok {
			err = fmt.Errorf("expected string, got %T", v)
		}
	case kindBool:
		_, err = toBool(v)
	}
	return err
}

// Int64 returns an integer field.
func (u Update) Int64(name string) (int64, bool) {
	v, ok := u.Fields[name]
	if !ok {
		return 0, false
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, false
	}
	return int64(math.Round(f)), true
}

// Float64 returns a floating point field.
func (u Update) Float64(name string) (float64, bool) {
	v, ok := u.Fields[name]
	if !ok {
		return 0, false
	}
	f, err := toFloat(v)
	return f, err == nil
}

// Time returns a timestamp field given as unix seconds or RFC 3339 text.
func (u Update) Time(name string) (time.Time, bool) {
	v, ok := u.Fields[name]
	if !ok {
		return time.Time{}, false
	}
	t, err := toTime(v)
	return t, err == nil
}

// String returns a text field.
func (u Update) String(name string) (string, bool) {
	s, ok := u.Fields[name].(string)
	return s, ok
}

// Bool returns a boolean field.
func (u Update) Bool(name string) (bool, bool) {
	v, ok := u.Fields[name]
	if !ok {
		return false, false
	}
	b, err := toBool(v)
	return b, err == nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}

func toTime(v any) (time.Time, error) {
	if s, ok := v.(string); ok {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t, nil
		}
	}
	f, err := toFloat(v)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected unix time or RFC 3339, got %v", v)
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)), nil
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		return strconv.ParseBool(b)
	default:
		f, err := toFloat(v)
		if err != nil {
			return false, fmt.Errorf("expected bool, got %T", v)
		}
		return f != 0, nil
	}
}
