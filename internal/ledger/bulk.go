package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/quickcourt/internal/apperr"
	"github.com/codr1/quickcourt/internal/courts"
	"github.com/codr1/quickcourt/internal/db"
	dbgen "github.com/codr1/quickcourt/internal/db/generated"
	"github.com/codr1/quickcourt/internal/timeslot"
)

type Action string

const (
	ActionMakeAvailable  Action = "make_available"
	ActionBlock          Action = "block"
	ActionSetMaintenance Action = "set_maintenance"
)

func ParseAction(raw string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(raw))); a {
	case ActionMakeAvailable, ActionBlock, ActionSetMaintenance:
		return a, nil
	default:
		return "", apperr.Field("action", fmt.Sprintf("must be one of %s, %s, %s", ActionMakeAvailable, ActionBlock, ActionSetMaintenance))
	}
}

func (a Action) status() Status {
	switch a {
	case ActionBlock:
		return StatusBlocked
	case ActionSetMaintenance:
		return StatusMaintenance
	default:
		return StatusAvailable
	}
}

// BulkRequest applies Action to Window on every date in [From, To] whose
// weekday is not listed in ExcludeWeekdays (English names, any case).
type BulkRequest struct {
	CourtID         int64
	From            time.Time
	To              time.Time
	Window          timeslot.Interval
	Action          Action
	ExcludeWeekdays []string
	Reason          string
}

// BulkResult counts written slots and slots left alone because they were reserved.
type BulkResult struct {
	Affected int `json:"affected"`
	Skipped  int `json:"skipped"`
	Dates    int `json:"dates"`
}

// ApplyBulk runs the whole request in one transaction. Reserved slots, and
// hours covered by a confirmed or completed booking, are skipped and never
// overwritten. Bookings themselves are never written.
func (l *Ledger) ApplyBulk(ctx context.Context, req BulkRequest) (BulkResult, error) {
	if _, err := ParseAction(string(req.Action)); err != nil {
		return BulkResult{}, err
	}
	from, to := timeslot.Date(req.From), timeslot.Date(req.To)
	if err := l.checkRange(from, to); err != nil {
		return BulkResult{}, err
	}
	if err := validateWindow(req.Window); err != nil {
		return BulkResult{}, err
	}
	excluded, err := parseExcluded(req.ExcludeWeekdays)
	if err != nil {
		return BulkResult{}, err
	}

	var dates []time.Time
	for _, d := range timeslot.Dates(from, to) {
		if !excluded[d.Weekday()] {
			dates = append(dates, d)
		}
	}

	status := req.Action.status()
	reason := req.Reason
	if req.Action == ActionMakeAvailable {
		reason = ""
	}

	var result BulkResult
	err = l.db.RunInTx(ctx, func(txdb *db.DB) error {
		q := txdb.Queries
		court, _, err := courts.Load(ctx, q, req.CourtID)
		if err != nil {
			return err
		}
		if !court.Covers(req.Window) {
			return fmt.Errorf("window %s outside %s: %w", req.Window, court.Hours, apperr.ErrOutOfOperatingHours)
		}

		fromDay, toDay := timeslot.FormatDate(from), timeslot.FormatDate(to)
		bookings, err := q.ListActiveBookingsForCourtRange(ctx, dbgen.ListActiveBookingsForCourtRangeParams{
			CourtID: req.CourtID, FromDate: fromDay, ToDate: toDay,
		})
		if err != nil {
			return fmt.Errorf("list bookings: %w", err)
		}
		bookedByDate := make(map[string]bookedRanges)
		for _, b := range bookings {
			bookedByDate[b.BookingDate] = append(bookedByDate[b.BookingDate], bookingIntervals([]dbgen.Booking{b})...)
		}

		rows, err := q.ListSlotsForCourtRange(ctx, dbgen.ListSlotsForCourtRangeParams{
			CourtID: req.CourtID, FromDate: fromDay, ToDate: toDay,
		})
		if err != nil {
			return fmt.Errorf("list slots: %w", err)
		}
		reserved := make(map[string]bool)
		for _, row := range rows {
			if Status(row.Status) == StatusReserved {
				reserved[row.SlotDate+" "+row.StartTime] = true
			}
		}

		for _, d := range dates {
			day := timeslot.FormatDate(d)
			for _, h := range req.Window.Hours() {
				if reserved[day+" "+h.Start.String()] {
					result.Skipped++
					continue
				}
				if _, covered := bookedByDate[day].covering(h); covered {
					result.Skipped++
					continue
				}
				n, err := q.UpsertSlotStatus(ctx, dbgen.UpsertSlotStatusParams{
					CourtID:     req.CourtID,
					SlotDate:    day,
					StartTime:   h.Start.String(),
					EndTime:     h.End.String(),
					Status:      string(status),
					BlockReason: nullString(reason),
				})
				if err != nil {
					return fmt.Errorf("write slot %s %s: %w", day, h, err)
				}
				if n == 0 {
					result.Skipped++
					continue
				}
				result.Affected++
			}
		}
		result.Dates = len(dates)
		return nil
	})
	if err != nil {
		return BulkResult{}, err
	}

	l.Invalidate(ctx, req.CourtID, dates...)
	l.metrics.BulkSlots(string(req.Action), result.Affected)
	log.Ctx(ctx).Info().
		Int64("court_id", req.CourtID).
		Str("action", string(req.Action)).
		Str("from", timeslot.FormatDate(from)).
		Str("to", timeslot.FormatDate(to)).
		Str("window", req.Window.String()).
		Int("affected", result.Affected).
		Int("skipped", result.Skipped).
		Msg("Bulk slot update applied")
	return result, nil
}

func parseExcluded(names []string) (map[time.Weekday]bool, error) {
	excluded := make(map[time.Weekday]bool, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		wd, err := timeslot.ParseWeekday(name)
		if err != nil {
			return nil, apperr.Field("exclude_days", err.Error())
		}
		excluded[wd] = true
	}
	return excluded, nil
}
