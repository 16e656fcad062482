package redis

import (
	"testing"
	"time"
)

func TestParseTime(t *testing.T) {
	want := time.Date(2025, 2, 14, 9, 30, 0, 5, time.UTC)
	fields := map[string]string{
		"ok":    formatTime(want.In(time.FixedZone("CET", 3600))),
		"empty": "",
		"bad":   "yesterday",
	}

	got, err := parseTime(fields, "ok")
	if err != nil || got == nil || !got.Equal(want) || got.Location() != time.UTC {
		t.Errorf("parseTime(ok) = %v, %v", got, err)
	}
	if got, err := parseTime(fields, "empty"); got != nil || err != nil {
		t.Errorf("parseTime(empty) = %v, %v", got, err)
	}
	if got, err := parseTime(fields, "missing"); got != nil || err != nil {
		t.Errorf("parseTime(missing) = %v, %v", got, err)
	}
	if _, err := parseTime(fields, "bad"); err == nil {
		t.Error("parseTime(bad) should fail")
	}
}

func TestNewDefaultsPrefix(t *testing.T) {
	s := New(nil, "")
	if got := s.hashKey("love-contract"); got != DefaultPrefix+"love-contract" {
		t.Errorf("hashKey = %q", got)
	}
}
