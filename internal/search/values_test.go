package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDurationValue(t *testing.T) {
	cfg := Config{Parse: true}
	cases := map[string]float64{
		"100ms": 100,
		"1.5s":  1500,
		"5m":    300000,
		"5min":  300000,
		"2h":    7200000,
		"1d":    86400000,
		"1w":    604800000,
		"250us": 0.25,
	}
	for raw, want := range cases {
		v := ParseDurationValue(raw, cfg)
		require.NotNil(t, v, raw)
		require.NotNil(t, v.Parsed, raw)
		assert.InDelta(t, want, *v.Parsed, 1e-9, raw)
	}

	for _, raw := range []string{"", "5", "ms", "5 ms", "-5s", "5parsecs"} {
		assert.Nil(t, ParseDurationValue(raw, cfg), raw)
	}
}

func TestParseSizeValue(t *testing.T) {
	cfg := Config{Parse: true}
	cases := map[string]float64{
		"16bit":   2,
		"4nb":     2,
		"10b":     10,
		"10bytes": 10,
		"1kb":     1000,
		"2KiB":    2048,
		"1.5MB":   1500000,
		"1gib":    1 << 30,
	}
	for raw, want := range cases {
		v := ParseSizeValue(raw, cfg)
		require.NotNil(t, v, raw)
		require.NotNil(t, v.Parsed, raw)
		assert.InDelta(t, want, *v.Parsed, 1e-6, raw)
	}

	assert.Nil(t, ParseSizeValue("10", cfg))
	assert.Nil(t, ParseSizeValue("kb", cfg))

	v := ParseSizeValue("1ZB", Config{})
	require.NotNil(t, v)
	assert.Equal(t, "zb", v.Unit)
	assert.Nil(t, v.Parsed)
}

func TestParsePercentageValue(t *testing.T) {
	v := ParsePercentageValue("12.5%", Config{Parse: true})
	require.NotNil(t, v)
	assert.InDelta(t, 0.125, *v.Parsed, 1e-9)

	assert.Nil(t, ParsePercentageValue("12.5", Config{}))
	assert.Nil(t, ParsePercentageValue("%", Config{}))
}

func TestParseNumberValue(t *testing.T) {
	cfg := Config{Parse: true}
	cases := map[string]float64{
		"42":   42,
		"-3.5": -3.5,
		".5":   0.5,
		"2k":   2000,
		"1.5m": 1500000,
		"3B":   3e9,
	}
	for raw, want := range cases {
		v := ParseNumberValue(raw, cfg)
		require.NotNil(t, v, raw)
		assert.InDelta(t, want, *v.Parsed, 1e-6, raw)
	}

	for _, raw := range []string{"", "k", "1x", "1,000", "one"} {
		assert.Nil(t, ParseNumberValue(raw, cfg), raw)
	}
}

func TestParseBooleanValue(t *testing.T) {
	for raw, want := range map[string]bool{"true": true, "TRUE": true, "1": true, "false": false, "False": false, "0": false} {
		v := ParseBooleanValue(raw)
		require.NotNil(t, v, raw)
		assert.Equal(t, want, v.Value, raw)
	}
	assert.Nil(t, ParseBooleanValue("yes"))
}

func TestParseDateValue(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cfg := Config{Parse: true, Now: func() time.Time { return now }}

	t.Run("iso", func(t *testing.T) {
		for raw, want := range map[string]time.Time{
			"2024-01-02":                time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
			"2024-01-02T10:30":          time.Date(2024, 1, 2, 10, 30, 0, 0, time.UTC),
			"2024-01-02T10:30:15Z":      time.Date(2024, 1, 2, 10, 30, 15, 0, time.UTC),
			"2024-01-02 10:30:15.5":     time.Date(2024, 1, 2, 10, 30, 15, 5e8, time.UTC),
			"2024-01-02T10:30:15+02:00": time.Date(2024, 1, 2, 8, 30, 15, 0, time.UTC),
			"2024-01-02T10:30:15+0200":  time.Date(2024, 1, 2, 8, 30, 15, 0, time.UTC),
		} {
			v, ok := ParseDateValue(raw, cfg).(*ValueISO8601Date)
			require.True(t, ok, raw)
			require.NotNil(t, v.Parsed, raw)
			assert.True(t, want.Equal(*v.Parsed), "%s: got %s", raw, v.Parsed)
		}
	})

	t.Run("relative", func(t *testing.T) {
		v, ok := ParseDateValue("-7d", cfg).(*ValueRelativeDate)
		require.True(t, ok)
		assert.Equal(t, "-", v.Sign)
		assert.Equal(t, "7", v.Value)
		assert.Equal(t, "d", v.Unit)
		assert.Equal(t, now.Add(-7*24*time.Hour), *v.Parsed)

		v, ok = ParseDateValue("+2w", cfg).(*ValueRelativeDate)
		require.True(t, ok)
		assert.Equal(t, "+", v.Sign)
		assert.Equal(t, now.Add(-14*24*time.Hour), *v.Parsed)
	})

	t.Run("no match", func(t *testing.T) {
		for _, raw := range []string{"", "yesterday", "7d", "-7y", "2024-13-01", "2024-1-2", "24h"} {
			assert.Nil(t, ParseDateValue(raw, cfg), raw)
		}
	})
}

func TestParseNumberListValue(t *testing.T) {
	v := ParseNumberListValue("[1, 2k,3]", Config{Parse: true})
	require.NotNil(t, v)
	require.Len(t, v.Items, 3)
	assert.Equal(t, "", v.Items[0].Separator)
	assert.Equal(t, ", ", v.Items[1].Separator)
	assert.Equal(t, ",", v.Items[2].Separator)
	assert.InDelta(t, 2000, *v.Items[1].Value.Parsed, 1e-9)
	assert.Equal(t, "2k", v.Items[1].Value.Text())

	assert.Nil(t, ParseNumberListValue("[1,a]", Config{}))
	assert.Nil(t, ParseNumberListValue("1,2", Config{}))
	assert.Nil(t, ParseNumberListValue("[1,,2]", Config{}))
}
