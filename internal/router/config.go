package router

import (
	"time"

	"github.com/rickgao/ibmirror/internal/model"
	"github.com/rickgao/ibmirror/internal/notify"
)

// Date layouts for historical bars.
const (
	DailyInputLayout    = "20060102"
	DailyLayout         = "2006-01-02"
	IntradayLayout      = "2006-01-02 15:04:05"
	RTVolumeTimeLayout  = "2006-01-02 15:04:05.000"
	dailyDateMaxLength  = 8
	finishedMarkerWidth = 8
)

// Config holds classifier configuration.
type Config struct {
	RestampDelay time.Duration  // Delay before an order record is restamped with gateway time
	Location     *time.Location // Zone for intraday bar timestamps
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		RestampDelay: time.Millisecond,
		Location:     time.Local,
	}
}

// Publisher receives notifications. notify.Hub implements it.
type Publisher interface {
	Publish(n notify.Notification) bool
}

// HistorySink receives finished historical series. It must not block.
type HistorySink interface {
	Submit(series []model.Series)
}

// TimeRequester asks the gateway for its clock.
type TimeRequester interface {
	RequestCurrentTime() error
}

// Stats contains classifier counters.
type Stats struct {
	Received    int64
	Duplicates  int64
	Unknown     int64
	ParseErrors int64
	Discarded   int64
}
