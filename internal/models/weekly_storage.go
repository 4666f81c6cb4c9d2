package models

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/spf13/cast"
)

const (
	weeklyStorageDays = 7
	dayLayout         = "2006-01-02"
)

type dailyValue struct {
	day   time.Time
	value uint64
}

// WeeklyStorage keeps one sample per calendar day for the trailing week in a
// list pref, most recent day first. Writes on the same day add up.
type WeeklyStorage struct {
	mu    sync.Mutex
	prefs *PrefStore
	name  string
	clock clock.Clock
}

func NewWeeklyStorage(prefs *PrefStore, name string, clk clock.Clock) *WeeklyStorage {
	return &WeeklyStorage{prefs: prefs, name: name, clock: clk}
}

func (w *WeeklyStorage) today() time.Time {
	now := w.clock.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (w *WeeklyStorage) load() []dailyValue {
	today := w.today()
	var values []dailyValue
	for _, item := range w.prefs.GetList(w.name) {
		entry := cast.ToStringMap(item)
		day, err := time.Parse(dayLayout, cast.ToString(entry["day"]))
		if err != nil {
			continue
		}
		age := int(today.Sub(day).Hours() / 24)
		if age < 0 || age >= weeklyStorageDays {
			continue
		}
		values = append(values, dailyValue{day: day, value: cast.ToUint64(entry["value"])})
	}
	return values
}

func (w *WeeklyStorage) save(values []dailyValue) {
	list := make([]any, 0, len(values))
	for _, v := range values {
		list = append(list, map[string]any{
			"day":   v.day.Format(dayLayout),
			"value": v.value,
		})
	}
	w.prefs.SetList(w.name, list)
}

func (w *WeeklyStorage) update(fn func(current uint64) uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	today := w.today()
	values := w.load()
	if len(values) == 0 || !values[0].day.Equal(today) {
		values = append([]dailyValue{{day: today}}, values...)
	}
	values[0].value = fn(values[0].value)
	w.save(values)
}

func (w *WeeklyStorage) AddDelta(delta uint64) {
	w.update(func(current uint64) uint64 { return current + delta })
}

func (w *WeeklyStorage) ReplaceTodaysValueIfGreater(value uint64) {
	w.update(func(current uint64) uint64 { return max(current, value) })
}

func (w *WeeklyStorage) GetWeeklySum() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	var sum uint64
	for _, v := range w.load() {
		sum += v.value
	}
	return sum
}

func (w *WeeklyStorage) GetHighestValueInWeek() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	var highest uint64
	for _, v := range w.load() {
		highest = max(highest, v.value)
	}
	return highest
}
