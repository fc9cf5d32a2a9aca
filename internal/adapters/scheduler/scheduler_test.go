package scheduler

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/cfcoach/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSpecs(t *testing.T) {
	Convey("Given daily times", t, func() {
		spec, err := DailySpec("08:00")
		So(err, ShouldBeNil)
		So(spec, ShouldEqual, "0 8 * * *")

		spec, err = DailySpec("23:59")
		So(err, ShouldBeNil)
		So(spec, ShouldEqual, "59 23 * * *")

		for _, bad := range []string{"8:00", "24:00", "12:60", "noon", ""} {
			_, err := DailySpec(bad)
			So(errors.Is(err, ErrInvalidSchedule), ShouldBeTrue)
		}
	})

	Convey("Given intervals", t, func() {
		spec, err := IntervalSpec(5 * time.Minute)
		So(err, ShouldBeNil)
		So(spec, ShouldEqual, "@every 5m0s")

		_, err = IntervalSpec(0)
		So(errors.Is(err, ErrInvalidSchedule), ShouldBeTrue)
	})
}

func TestScheduler(t *testing.T) {
	Convey("Given a scheduler in UTC", t, func() {
		s := New(WithLocation(time.UTC), WithLogger(logger.Discard()))

		Convey("When nothing is scheduled", func() {
			So(s.Next().IsZero(), ShouldBeTrue)
		})

		Convey("When a daily job is scheduled and started", func() {
			spec, _ := DailySpec("08:00")
			So(s.Schedule(spec, func() {}), ShouldBeNil)
			s.Start()
			s.Start()
			defer func() { _ = s.Stop(context.Background()) }()

			Convey("Then the next run should be at 08:00 UTC", func() {
				next := s.Next()
				So(next.IsZero(), ShouldBeFalse)
				So(next.UTC().Hour(), ShouldEqual, 8)
				So(next.UTC().Minute(), ShouldEqual, 0)
			})
		})

		Convey("When an invalid spec is scheduled", func() {
			err := s.Schedule("not a spec", func() {})

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, ErrInvalidSchedule), ShouldBeTrue)
			})
		})

		Convey("When a short interval job runs", func() {
			var runs atomic.Int32
			spec, _ := IntervalSpec(time.Second)
			So(s.Schedule(spec, func() { runs.Add(1) }), ShouldBeNil)
			s.Start()
			time.Sleep(2200 * time.Millisecond)
			So(s.Stop(context.Background()), ShouldBeNil)

			Convey("Then it should have fired", func() {
				So(runs.Load(), ShouldBeGreaterThanOrEqualTo, 1)
			})
		})

		Convey("When the job panics", func() {
			var buf bytes.Buffer
			So(logger.InitWithWriter(&buf), ShouldBeNil)
			s := New(WithLocation(time.UTC))
			var runs atomic.Int32
			spec, _ := IntervalSpec(time.Second)
			So(s.Schedule(spec, func() {
				runs.Add(1)
				panic("boom")
			}), ShouldBeNil)
			s.Start()
			time.Sleep(1500 * time.Millisecond)
			So(s.Stop(context.Background()), ShouldBeNil)

			Convey("Then the panic should be recovered and logged", func() {
				So(runs.Load(), ShouldBeGreaterThanOrEqualTo, 1)
				So(buf.String(), ShouldContainSubstring, "panic")
			})
		})

		Convey("When stopping a scheduler that never started", func() {
			So(s.Stop(context.Background()), ShouldBeNil)
		})
	})
}
