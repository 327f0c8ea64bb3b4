package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/goleak"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Add(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestMemoryStore(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()

	Convey("Given a memory store with a one hour TTL", t, func() {
		clock := &fakeClock{now: time.Date(2024, 12, 1, 9, 0, 0, 0, time.UTC)}
		s := NewMemoryStore(ctx, WithTTL(time.Hour), WithClock(clock.Now), WithSweepInterval(time.Hour))
		defer s.Close()

		Convey("When a marker is issued", func() {
			token, err := s.Issue(ctx)
			So(err, ShouldBeNil)
			So(token, ShouldNotBeEmpty)

			Convey("Then it is valid", func() {
				ok, err := s.Valid(ctx, token)
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
			})

			Convey("Then revoking it invalidates it", func() {
				So(s.Revoke(ctx, token), ShouldBeNil)
				ok, _ := s.Valid(ctx, token)
				So(ok, ShouldBeFalse)
				So(s.Revoke(ctx, token), ShouldBeNil)
			})

			Convey("Then it expires after the TTL and is swept", func() {
				clock.Add(time.Hour)
				ok, _ := s.Valid(ctx, token)
				So(ok, ShouldBeFalse)
				So(s.Len(), ShouldEqual, 1)
				So(s.Sweep(), ShouldEqual, 1)
				So(s.Len(), ShouldEqual, 0)
			})
		})

		Convey("Then unknown and empty markers are invalid", func() {
			ok, _ := s.Valid(ctx, "forged")
			So(ok, ShouldBeFalse)
			ok, _ = s.Valid(ctx, "")
			So(ok, ShouldBeFalse)
		})

		Convey("When the store is closed", func() {
			So(s.Close(), ShouldBeNil)

			Convey("Then issuing fails", func() {
				_, err := s.Issue(ctx)
				So(err, ShouldEqual, ErrClosed)
			})
		})
	})
}

func TestRedisStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given a redis store backed by miniredis", t, func() {
		mr := miniredis.RunT(t)
		s, err := NewRedisStore(ctx, "redis://"+mr.Addr(), WithRedisTTL(time.Hour), WithKeyPrefix("test:"))
		So(err, ShouldBeNil)
		defer s.Close()

		Convey("When a marker is issued", func() {
			token, err := s.Issue(ctx)
			So(err, ShouldBeNil)

			Convey("Then it is stored with a TTL under the prefix", func() {
				So(mr.Exists("test:"+token), ShouldBeTrue)
				So(mr.TTL("test:"+token), ShouldEqual, time.Hour)
				ok, err := s.Valid(ctx, token)
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
			})

			Convey("Then revoking removes it", func() {
				So(s.Revoke(ctx, token), ShouldBeNil)
				ok, _ := s.Valid(ctx, token)
				So(ok, ShouldBeFalse)
			})

			Convey("Then it lapses when Redis expires it", func() {
				mr.FastForward(2 * time.Hour)
				ok, _ := s.Valid(ctx, token)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("Then an unknown marker is invalid", func() {
			ok, err := s.Valid(ctx, "forged")
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
			So(s.Ping(ctx), ShouldBeNil)
		})
	})

	Convey("Given an unreachable redis", t, func() {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		Convey("Then connecting fails", func() {
			_, err := NewRedisStore(ctx, "redis://"+addr)
			So(err, ShouldNotBeNil)
		})
	})

	Convey("Given a malformed URL", t, func() {
		_, err := NewRedisStore(ctx, "not a url")
		So(err, ShouldNotBeNil)
	})
}
