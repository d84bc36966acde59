package calendar

import "github.com/julianstephens/fleetcal/internal/models"

// ClampIndex bounds i to [0, length-1]. An empty sequence clamps to 0.
func ClampIndex(i, length int) int {
	if length <= 0 || i < 0 {
		return 0
	}
	if i >= length {
		return length - 1
	}
	return i
}

// FirstIndexOfMonth returns the index of day 1 of month, or NotFound, false.
func FirstIndexOfMonth(days []models.Day, month int) (int, bool) {
	for i, d := range days {
		if d.Month == month {
			return i, true
		}
	}
	return NotFound, false
}

// MonthAtIndex returns the month of the day at the clamped index, or 0 for an
// empty sequence.
func MonthAtIndex(days []models.Day, index int) int {
	if len(days) == 0 {
		return 0
	}
	return days[ClampIndex(index, len(days))].Month
}

// Navigator tracks the day currently on screen. It never reads record data.
type Navigator struct {
	days  []models.Day
	index int
}

func NewNavigator(days []models.Day, start int) *Navigator {
	return &Navigator{
		days:  days,
		index: ClampIndex(start, len(days)),
	}
}

func (n *Navigator) Index() int {
	return n.index
}

func (n *Navigator) Len() int {
	return len(n.days)
}

// Current returns the day on screen. ok is false for an empty index.
func (n *Navigator) Current() (models.Day, bool) {
	if len(n.days) == 0 {
		return models.Day{}, false
	}
	return n.days[n.index], true
}

// Month returns the month of the day on screen.
func (n *Navigator) Month() int {
	return MonthAtIndex(n.days, n.index)
}

// Set moves to index i, clamped.
func (n *Navigator) Set(i int) {
	n.index = ClampIndex(i, len(n.days))
}

// Move shifts the position by delta days, clamped.
func (n *Navigator) Move(delta int) {
	n.Set(n.index + delta)
}

func (n *Navigator) Next() { n.Move(1) }

func (n *Navigator) Prev() { n.Move(-1) }

// JumpToMonth moves to day 1 of month. A month that is not in the index leaves
// the position unchanged and returns false.
func (n *Navigator) JumpToMonth(month int) bool {
	i, ok := FirstIndexOfMonth(n.days, month)
	if !ok {
		return false
	}
	n.index = i
	return true
}

// JumpToToday moves to today, or to the first day when today is not indexed.
func (n *Navigator) JumpToToday(today models.DateKey) {
	n.index = ClampIndex(TodayOrFirst(n.days, today), len(n.days))
}

// Window returns up to size days starting at the current position, shifted
// back when the end of the year is reached so the window stays full.
func (n *Navigator) Window(size int) []models.Day {
	if size <= 0 || len(n.days) == 0 {
		return nil
	}
	if size > len(n.days) {
		size = len(n.days)
	}
	start := n.index
	if start+size > len(n.days) {
		start = len(n.days) - size
	}
	return n.days[start : start+size]
}
