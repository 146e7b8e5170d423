package dto

import (
	"bytes"
	"fmt"
	"time"
)

// DateTimeLayout - формат dueDate на проводе, без зоны, в локальном времени сервера
const DateTimeLayout = "2006-01-02T15:04:05"

type DateTime struct {
	time.Time
}

func NewDateTime(t time.Time) DateTime {
	return DateTime{Time: t.Truncate(time.Second)}
}

// FromTime возвращает nil для nil, чтобы поле ушло в JSON как null
func FromTime(t *time.Time) *DateTime {
	if t == nil {
		return nil
	}
	dt := NewDateTime(*t)
	return &dt
}

// ToTime обратное преобразование для маппера
func (d *DateTime) ToTime() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

func (d DateTime) String() string {
	return d.In(time.Local).Format(DateTimeLayout)
}

func (d DateTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *DateTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("dueDate должен быть строкой формата %s", DateTimeLayout)
	}

	parsed, err := time.ParseInLocation(DateTimeLayout, string(data[1:len(data)-1]), time.Local)
	if err != nil {
		return fmt.Errorf("dueDate должен быть в формате %s: %w", DateTimeLayout, err)
	}
	d.Time = parsed
	return nil
}
