package calendar

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekOf(t *testing.T) {
	tests := []struct {
		name string
		date Date
		want WeekID
	}{
		{name: "mid year", date: NewDate(2024, time.January, 31), want: WeekID{2024, 5}},
		{name: "monday starts the week", date: NewDate(2024, time.January, 29), want: WeekID{2024, 5}},
		{name: "sunday ends the week", date: NewDate(2024, time.February, 4), want: WeekID{2024, 5}},
		{name: "53-week year", date: NewDate(2020, time.December, 31), want: WeekID{2020, 53}},
		{name: "january belongs to previous year", date: NewDate(2021, time.January, 3), want: WeekID{2020, 53}},
		{name: "december belongs to next year", date: NewDate(2019, time.December, 30), want: WeekID{2020, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WeekOf(tt.date))
		})
	}
}

func TestWeekID_StartEnd(t *testing.T) {
	tests := []struct {
		week      WeekID
		wantStart Date
		wantEnd   Date
	}{
		{week: WeekID{2024, 5}, wantStart: NewDate(2024, time.January, 29), wantEnd: NewDate(2024, time.February, 4)},
		{week: WeekID{2020, 1}, wantStart: NewDate(2019, time.December, 30), wantEnd: NewDate(2020, time.January, 5)},
		{week: WeekID{2020, 53}, wantStart: NewDate(2020, time.December, 28), wantEnd: NewDate(2021, time.January, 3)},
	}
	for _, tt := range tests {
		t.Run(tt.week.String(), func(t *testing.T) {
			assert.Equal(t, tt.wantStart, tt.week.Start())
			assert.Equal(t, tt.wantEnd, tt.week.End())
			assert.Equal(t, time.Monday, tt.week.Start().Weekday())

			days := tt.week.Days()
			assert.Equal(t, tt.wantStart, days[0])
			assert.Equal(t, tt.wantEnd, days[6])
			for _, d := range days {
				assert.True(t, tt.week.Contains(d), d.String())
			}
			assert.False(t, tt.week.Contains(tt.wantEnd.AddDays(1)))
		})
	}
}

func TestWeekID_NextPrev(t *testing.T) {
	assert.Equal(t, WeekID{2021, 1}, WeekID{2020, 53}.Next())
	assert.Equal(t, WeekID{2020, 53}, WeekID{2021, 1}.Prev())
	assert.Equal(t, WeekID{2024, 6}, WeekID{2024, 5}.Next())
	assert.True(t, WeekID{2023, 52}.Before(WeekID{2024, 1}))
	assert.False(t, WeekID{2024, 1}.Before(WeekID{2024, 1}))
}

func TestWeekID_IsClosed(t *testing.T) {
	w := WeekID{2024, 5}
	assert.False(t, w.IsClosed(NewDate(2024, time.January, 29)))
	assert.False(t, w.IsClosed(NewDate(2024, time.February, 4)))
	assert.True(t, w.IsClosed(NewDate(2024, time.February, 5)))
}

func TestParseWeekID(t *testing.T) {
	tests := []struct {
		in      string
		want    WeekID
		wantErr bool
	}{
		{in: "2024-W05", want: WeekID{2024, 5}},
		{in: "2024-w5", want: WeekID{2024, 5}},
		{in: "2020-W53", want: WeekID{2020, 53}},
		{in: "2021-W53", wantErr: true},
		{in: "2024-W00", wantErr: true},
		{in: "2024-05", wantErr: true},
		{in: "lol", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseWeekID(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDate_Text(t *testing.T) {
	type payload struct {
		Date Date   `json:"date"`
		Week WeekID `json:"week"`
	}
	in := payload{Date: NewDate(2024, time.March, 9), Week: WeekID{2024, 10}}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-03-09","week":"2024-W10"}`, string(data))

	var out payload
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)

	assert.Error(t, json.Unmarshal([]byte(`{"date":"09/03/2024"}`), &out))
}

func TestDate_Scan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2024, time.March, 9, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, NewDate(2024, time.March, 9), d)
	require.NoError(t, d.Scan([]byte("2024-03-10T00:00:00Z")))
	assert.Equal(t, NewDate(2024, time.March, 10), d)
	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsZero())
	assert.Error(t, d.Scan(42))
}

func TestDate_Arithmetic(t *testing.T) {
	d := NewDate(2024, time.February, 28)
	assert.Equal(t, NewDate(2024, time.March, 1), d.AddDays(2))
	assert.Equal(t, 2, d.AddDays(2).DaysSince(d))
	assert.Equal(t, -2, d.DaysSince(d.AddDays(2)))
	assert.True(t, d.Before(d.AddDays(1)))
	assert.True(t, d.AddDays(1).After(d))

	now := time.Date(2024, time.March, 1, 23, 30, 0, 0, time.UTC)
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err == nil {
		assert.Equal(t, NewDate(2024, time.March, 2), Today(tokyo, now))
	}
	assert.Equal(t, NewDate(2024, time.March, 1), Today(nil, now))
}
