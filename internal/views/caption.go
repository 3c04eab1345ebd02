package views

import (
	"fmt"
	"time"

	"github.com/rewired-gh/quakelens/internal/models"
)

const captionDate = "Jan 2, 2006"

// Caption describes the current window, e.g.
// "Year: 2020 | Week: Jan 1, 2020 to Jan 8, 2020 | Earthquakes: 42".
// The count is the window census, not the filtered set.
func Caption(mode models.Mode, w *models.TimeWindow, loc *time.Location) string {
	if w == nil {
		return "No earthquakes in this selection"
	}
	if loc == nil {
		loc = time.UTC
	}
	start := w.Start.In(loc).Format(captionDate)
	end := w.End.In(loc).Format(captionDate)

	switch mode {
	case models.ModeStaticRange:
		return fmt.Sprintf("Range: %s to %s | Earthquakes: %d", start, end, len(w.Events))
	case models.ModeYearly:
		return fmt.Sprintf("Year: %s | %s to %s | Earthquakes: %d", w.Label, start, end, len(w.Events))
	}
	return fmt.Sprintf("Year: %s | %s: %s to %s | Earthquakes: %d",
		w.Label, mode.StepLabel(), start, end, len(w.Events))
}

// Position renders "window i of n".
func Position(index, count int) string {
	if count == 0 {
		return "window 0 of 0"
	}
	return fmt.Sprintf("window %d of %d", index+1, count)
}
