package pointcloud

import (
	"bytes"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestCloudLogRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	mock := clock.NewMock()
	logger := NewCloudLoggerWithClock(&buf, mock)

	first := NewFromPoints([]r3.Vector{{X: 1, Y: 2, Z: 3}, {X: -0.5, Y: 0.25, Z: 0}})
	second := NewFromPoints([]r3.Vector{{X: 4, Y: 5, Z: 6}})

	test.That(t, logger.Log(first), test.ShouldBeNil)
	mock.Add(40 * time.Millisecond)
	test.That(t, logger.Log(second), test.ShouldBeNil)

	player, err := ReadCloudLog(&buf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, player.Len(), test.ShouldEqual, 2)

	stamp0, cloud0 := player.Cloud(0)
	stamp1, cloud1 := player.Cloud(1)
	test.That(t, stamp1.Sub(stamp0), test.ShouldEqual, 40*time.Millisecond)
	test.That(t, cloud0.Size(), test.ShouldEqual, 2)
	test.That(t, cloud1.Size(), test.ShouldEqual, 1)
	// coordinates survive the float32 narrowing exactly for these values
	test.That(t, cloud0.At(1), test.ShouldResemble, r3.Vector{X: -0.5, Y: 0.25, Z: 0})
	test.That(t, cloud1.At(0), test.ShouldResemble, r3.Vector{X: 4, Y: 5, Z: 6})
}

func TestCloudLogEmptyCloud(t *testing.T) {
	var buf bytes.Buffer
	logger := NewCloudLogger(&buf)
	test.That(t, logger.LogAt(7, New()), test.ShouldBeNil)

	player, err := ReadCloudLog(&buf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, player.Len(), test.ShouldEqual, 1)
	_, cloud := player.Cloud(0)
	test.That(t, cloud.Size(), test.ShouldEqual, 0)
}

func TestCloudLogTruncated(t *testing.T) {
	var buf bytes.Buffer
	logger := NewCloudLogger(&buf)
	test.That(t, logger.LogAt(0, NewFromPoints([]r3.Vector{{X: 1}, {X: 2}})), test.ShouldBeNil)

	full := buf.Bytes()
	// cut the stream mid-record
	_, err := ReadCloudLog(bytes.NewReader(full[:len(full)-5]))
	test.That(t, err, test.ShouldNotBeNil)

	// cut after the timestamp, before the count
	_, err = ReadCloudLog(bytes.NewReader(full[:6]))
	test.That(t, err, test.ShouldNotBeNil)

	// a clean record boundary is not an error
	player, err := ReadCloudLog(bytes.NewReader(full))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, player.Len(), test.ShouldEqual, 1)
}

func TestCloudPlayerPlay(t *testing.T) {
	var buf bytes.Buffer
	logger := NewCloudLogger(&buf)
	test.That(t, logger.LogAt(0, NewFromPoints([]r3.Vector{{X: 1}})), test.ShouldBeNil)
	test.That(t, logger.LogAt(25, NewFromPoints([]r3.Vector{{X: 2}})), test.ShouldBeNil)

	player, err := ReadCloudLog(&buf)
	test.That(t, err, test.ShouldBeNil)

	var stamps []time.Time
	var sizes []int
	player.Play(func(stamp time.Time, cloud *PointCloud) {
		stamps = append(stamps, stamp)
		sizes = append(sizes, cloud.Size())
	})
	test.That(t, sizes, test.ShouldResemble, []int{1, 1})
	test.That(t, stamps[1].Sub(stamps[0]), test.ShouldEqual, 25*time.Millisecond)
}
