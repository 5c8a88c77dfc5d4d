package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeExecer struct {
	sql  string
	args []any
	tag  string
	err  error
}

func (f *fakeExecer) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.sql = sql
	f.args = args
	if f.err != nil {
		return pgconn.CommandTag{}, f.err
	}
	return pgconn.NewCommandTag(f.tag), nil
}

func sinkWith(db *fakeExecer, connectErr error, opts ...PostgresOption) (*PostgresSink, *bool) {
	closed := false
	s := NewPostgresSink("postgres://localhost/fah", opts...)
	s.connect = func(context.Context) (execer, func(), error) {
		if connectErr != nil {
			return nil, nil, connectErr
		}
		return db, func() { closed = true }, nil
	}
	return s, &closed
}

func TestPostgresSink_Insert(t *testing.T) {
	Convey("Given a history table sink", t, func() {
		ctx := context.Background()

		Convey("When the row is inserted", func() {
			db := &fakeExecer{tag: "INSERT 0 1"}
			sink, closed := sinkWith(db, nil)

			err := sink.Insert(ctx, sampleRow())

			Convey("Then the values are bound in column order and the pool is closed", func() {
				So(err, ShouldBeNil)
				So(*closed, ShouldBeTrue)
				So(db.sql, ShouldContainSubstring, `INSERT INTO "fah_history"`)
				So(db.args, ShouldHaveLength, 5)
				So(db.args[0], ShouldEqual, time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC))
				So(db.args[1:], ShouldResemble, []any{int64(5000), int64(2000000), int64(45000000), int64(120)})
			})
		})

		Convey("When the table is schema-qualified", func() {
			sink := NewPostgresSink("postgres://localhost/fah", WithTable("stats.donor_history"))
			So(sink.InsertSQL(), ShouldContainSubstring, `INSERT INTO "stats"."donor_history"`)
		})

		Convey("When the table name carries SQL", func() {
			sink := NewPostgresSink("postgres://localhost/fah", WithTable(`x"; DROP TABLE y; --`))
			So(sink.InsertSQL(), ShouldStartWith, `INSERT INTO "x""; DROP TABLE y; --"`)
		})
	})
}

func TestPostgresSink_Failures(t *testing.T) {
	Convey("Given a history table sink", t, func() {
		ctx := context.Background()

		Convey("When the connection fails", func() {
			sink, _ := sinkWith(nil, errors.New("connection refused"))
			So(errors.Is(sink.Insert(ctx, sampleRow()), ErrPostgresWrite), ShouldBeTrue)
		})

		Convey("When the insert fails", func() {
			db := &fakeExecer{err: errors.New(`relation "fah_history" does not exist`)}
			sink, closed := sinkWith(db, nil)

			err := sink.Insert(ctx, sampleRow())
			So(errors.Is(err, ErrPostgresWrite), ShouldBeTrue)
			So(*closed, ShouldBeTrue)
		})

		Convey("When no row is affected", func() {
			sink, _ := sinkWith(&fakeExecer{tag: "INSERT 0 0"}, nil)
			So(errors.Is(sink.Insert(ctx, sampleRow()), ErrPostgresWrite), ShouldBeTrue)
		})

		Convey("When the row date is not MM/DD/YYYY", func() {
			sink, _ := sinkWith(&fakeExecer{tag: "INSERT 0 1"}, nil)
			row := sampleRow()
			row.Date = "2026-10-17"
			So(errors.Is(sink.Insert(ctx, row), ErrPostgresWrite), ShouldBeTrue)
		})

		Convey("When the DSN is invalid", func() {
			sink := NewPostgresSink("not a dsn ::", WithConnectTimeout(time.Second))
			So(errors.Is(sink.Insert(ctx, sampleRow()), ErrPostgresWrite), ShouldBeTrue)
		})
	})
}
