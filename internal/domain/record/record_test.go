package record_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/fahstats/internal/domain/model"
	"github.com/okian/fahstats/internal/domain/record"
	"github.com/smartystreets/goconvey/convey"
)

func sampleSnapshot() model.Snapshot {
	return model.Snapshot{
		CapturedAt: time.Date(2026, 10, 17, 22, 45, 13, 0, time.Local),
		Rank:       5000,
		TotalUsers: 2000000,
		Credit:     45000000,
		WorkUnits:  120,
	}
}

func TestNewRow(t *testing.T) {
	convey.Convey("Given a snapshot", t, func() {
		row := record.NewRow(sampleSnapshot())

		convey.Convey("Then the row uses the MM/DD/YYYY date and the snapshot values", func() {
			convey.So(row, convey.ShouldResemble, record.Row{
				Date:  "10/17/2026",
				Rank:  5000,
				OutOf: 2000000,
				Score: 45000000,
				WU:    120,
			})
		})

		convey.Convey("Then the record follows the fixed column order", func() {
			convey.So(row.Record(), convey.ShouldResemble, []string{"10/17/2026", "5000", "2000000", "45000000", "120"})
			convey.So(record.Columns, convey.ShouldResemble, []string{"Date", "Rank", "Out Of", "Score", "WU"})
		})
	})
}

func TestNewPoint(t *testing.T) {
	convey.Convey("Given a snapshot taken late in the day", t, func() {
		p := record.NewPoint("fah_history", sampleSnapshot())

		convey.Convey("Then the point time is pinned to 11:00Z on the capture date", func() {
			convey.So(p.Measurement, convey.ShouldEqual, "fah_history")
			convey.So(p.Time, convey.ShouldEqual, "2026-10-17T11:00:00Z")

			ts, err := p.Timestamp()
			convey.So(err, convey.ShouldBeNil)
			convey.So(ts.Equal(time.Date(2026, 10, 17, 11, 0, 0, 0, time.UTC)), convey.ShouldBeTrue)
		})

		convey.Convey("Then the fields use the sink field names", func() {
			convey.So(p.Fields, convey.ShouldResemble, map[string]interface{}{
				"Rank":   int64(5000),
				"Out Of": int64(2000000),
				"Score":  int64(45000000),
				"WU":     int64(120),
			})
		})

		convey.Convey("Then the string form lists every field", func() {
			s := p.String()
			convey.So(s, convey.ShouldContainSubstring, "fah_history")
			convey.So(s, convey.ShouldContainSubstring, "Out Of:2000000")
			convey.So(s, convey.ShouldContainSubstring, "WU:120")
		})
	})
}

func TestRowAndPointAgree(t *testing.T) {
	convey.Convey("Given several snapshots", t, func() {
		for _, s := range []model.Snapshot{
			sampleSnapshot(),
			{CapturedAt: time.Now(), Rank: 1, TotalUsers: 1, Credit: 0, WorkUnits: 0},
			{CapturedAt: time.Now(), Rank: 987654, TotalUsers: 3141592, Credit: 98765432101234, WorkUnits: 77777},
		} {
			row := record.NewRow(s)
			p := record.NewPoint("m", s)

			convey.So(p.Fields["Rank"], convey.ShouldEqual, row.Rank)
			convey.So(p.Fields["Out Of"], convey.ShouldEqual, row.OutOf)
			convey.So(p.Fields["Score"], convey.ShouldEqual, row.Score)
			convey.So(p.Fields["WU"], convey.ShouldEqual, row.WU)
		}
	})
}

func TestParseRow(t *testing.T) {
	convey.Convey("Given a stored record", t, func() {
		convey.Convey("When it was produced by Record", func() {
			want := record.Row{Date: "01/02/2026", Rank: 12, OutOf: 3456789, Score: 98765432101234, WU: 4321}
			got, err := record.ParseRow(want.Record())

			convey.Convey("Then the values round-trip exactly", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(got, convey.ShouldResemble, want)
			})
		})

		convey.Convey("When the column count is wrong", func() {
			_, err := record.ParseRow([]string{"01/02/2026", "1"})
			convey.So(errors.Is(err, record.ErrMalformedRow), convey.ShouldBeTrue)
		})

		convey.Convey("When the date is not MM/DD/YYYY", func() {
			_, err := record.ParseRow([]string{"2026-01-02", "1", "2", "3", "4"})
			convey.So(errors.Is(err, record.ErrMalformedRow), convey.ShouldBeTrue)
		})

		convey.Convey("When a number is a float", func() {
			_, err := record.ParseRow([]string{"01/02/2026", "1", "2", "3.5", "4"})
			convey.So(errors.Is(err, record.ErrMalformedRow), convey.ShouldBeTrue)
		})
	})
}

func TestIsHeader(t *testing.T) {
	convey.Convey("Given candidate header lines", t, func() {
		convey.So(record.IsHeader([]string{"Date", "Rank", "Out Of", "Score", "WU"}), convey.ShouldBeTrue)
		convey.So(record.IsHeader([]string{"\ufeffDate", "Rank", "Out Of", "Score", "WU"}), convey.ShouldBeTrue)
		convey.So(record.IsHeader([]string{"10/17/2026", "1", "2", "3", "4"}), convey.ShouldBeFalse)
		convey.So(record.IsHeader([]string{"Date"}), convey.ShouldBeFalse)
	})
}
