package pointcloud

import (
	"encoding/binary"
	"io"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Cloud log stream format: an unframed sequence of records, each
//
//	timestamp (milliseconds) : uint32
//	point count              : uint32
//	x y z, x y z, ...        : float32
//
// all little-endian. The format matches what external capture rigs record, so
// logs can be replayed through a tracker offline.

// CloudLogger appends timestamped clouds to a stream. Timestamps are measured
// in milliseconds since the first Log call.
type CloudLogger struct {
	w     io.Writer
	clock clock.Clock
	start time.Time
}

// NewCloudLogger returns a logger writing to w, stamping records with the wall
// clock.
func NewCloudLogger(w io.Writer) *CloudLogger {
	return NewCloudLoggerWithClock(w, clock.New())
}

// NewCloudLoggerWithClock returns a logger stamping records with the given clock.
func NewCloudLoggerWithClock(w io.Writer, c clock.Clock) *CloudLogger {
	return &CloudLogger{w: w, clock: c}
}

// Log writes one cloud record, stamped relative to the first logged cloud.
func (l *CloudLogger) Log(cloud *PointCloud) error {
	now := l.clock.Now()
	if l.start.IsZero() {
		l.start = now
	}
	return l.LogAt(uint32(now.Sub(l.start).Milliseconds()), cloud)
}

// LogAt writes one cloud record with an explicit millisecond timestamp.
func (l *CloudLogger) LogAt(millis uint32, cloud *PointCloud) error {
	if err := binary.Write(l.w, binary.LittleEndian, millis); err != nil {
		return errors.Wrap(err, "writing cloud log timestamp")
	}
	if err := binary.Write(l.w, binary.LittleEndian, uint32(cloud.Size())); err != nil {
		return errors.Wrap(err, "writing cloud log point count")
	}
	buf := make([]float32, 0, 3*cloud.Size())
	cloud.Iterate(func(_ int, p r3.Vector) bool {
		buf = append(buf, float32(p.X), float32(p.Y), float32(p.Z))
		return true
	})
	if err := binary.Write(l.w, binary.LittleEndian, buf); err != nil {
		return errors.Wrap(err, "writing cloud log points")
	}
	return nil
}

// CloudPlayer holds a loaded cloud log for offline replay.
type CloudPlayer struct {
	stamps []time.Time
	clouds []*PointCloud
}

// ReadCloudLog loads an entire cloud log from r. A stream ending cleanly on a
// record boundary is well formed; anything truncated mid-record is a hard
// error, surfaced before any tracking begins.
func ReadCloudLog(r io.Reader) (*CloudPlayer, error) {
	player := &CloudPlayer{}
	for {
		var millis uint32
		if err := binary.Read(r, binary.LittleEndian, &millis); err != nil {
			if errors.Is(err, io.EOF) {
				return player, nil
			}
			return nil, errors.Wrap(err, "reading cloud log timestamp")
		}
		var count uint32
		if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
			return nil, errors.Wrap(noEOF(err), "reading cloud log point count")
		}
		coords := make([]float32, 3*count)
		if err := binary.Read(r, binary.LittleEndian, coords); err != nil {
			return nil, errors.Wrap(noEOF(err), "reading cloud log points")
		}
		cloud := NewWithPrealloc(int(count))
		for i := 0; i < int(count); i++ {
			cloud.Add(r3.Vector{
				X: float64(coords[3*i]),
				Y: float64(coords[3*i+1]),
				Z: float64(coords[3*i+2]),
			})
		}
		player.stamps = append(player.stamps, time.UnixMilli(int64(millis)))
		player.clouds = append(player.clouds, cloud)
	}
}

// noEOF converts a bare EOF into ErrUnexpectedEOF; inside a record, running
// out of bytes means the stream is truncated.
func noEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// Len returns the number of loaded records.
func (p *CloudPlayer) Len() int {
	return len(p.clouds)
}

// Cloud returns the i'th recorded cloud and its timestamp.
func (p *CloudPlayer) Cloud(i int) (time.Time, *PointCloud) {
	return p.stamps[i], p.clouds[i]
}

// Play feeds every recorded cloud, in order, to update. It is how a recorded
// stream is driven through a tracker's UpdateAt.
func (p *CloudPlayer) Play(update func(stamp time.Time, cloud *PointCloud)) {
	for i := range p.clouds {
		update(p.stamps[i], p.clouds[i])
	}
}
