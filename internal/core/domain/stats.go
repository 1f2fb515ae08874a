package domain

import "time"

type Metric string

const (
	MetricViews    Metric = "views"
	MetricLikes    Metric = "likes"
	MetricComments Metric = "comments"
)

func ParseMetric(raw string) (Metric, error) {
	switch Metric(raw) {
	case MetricViews, MetricLikes, MetricComments:
		return Metric(raw), nil
	default:
		return "", ErrInvalidMetric
	}
}

type PostStats struct {
	PostID        int64
	ViewsCount    int64
	LikesCount    int64
	CommentsCount int64
}

// DailyCount is one point of a dynamics series. Days with no activity produce
// no point at all, so a series is sparse.
type DailyCount struct {
	Date  string // YYYY-MM-DD
	Count int64
}

// DateRange is an inclusive [Start, End] range of calendar days.
type DateRange struct {
	Start string
	End   string
}

const dateFormat = "2006-01-02"

func (r DateRange) Validate() error {
	start, err := time.Parse(dateFormat, r.Start)
	if err != nil {
		return ErrInvalidDateRange
	}
	end, err := time.Parse(dateFormat, r.End)
	if err != nil {
		return ErrInvalidDateRange
	}
	if end.Before(start) {
		return ErrInvalidDateRange
	}
	return nil
}

type TopPost struct {
	PostID int64
	Count  int64
}

type TopUser struct {
	UserID int64
	Count  int64
}
