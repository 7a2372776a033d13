package utils

// time.go - утилиты для работы со временем

import "time"

// UnixMillis возвращает текущее время в миллисекундах Unix.
// Временные метки снимков и возможностей публикуются в этом формате.
func UnixMillis() int64 {
	return time.Now().UnixMilli()
}

// FromUnixMillis конвертирует миллисекунды Unix в time.Time (UTC)
func FromUnixMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// FormatDuration форматирует продолжительность в человекочитаемый
// формат: "45s", "5m30s", "2h15m0s"
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	d = d.Round(time.Second)

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	switch {
	case hours > 0 && minutes > 0:
		return (time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute).String()
	case hours > 0:
		return (time.Duration(hours) * time.Hour).String()
	case minutes > 0 && seconds > 0:
		return (time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second).String()
	case minutes > 0:
		return (time.Duration(minutes) * time.Minute).String()
	default:
		return (time.Duration(seconds) * time.Second).String()
	}
}
