package wire

import (
	"io"
	"strconv"

	"go.uber.org/multierr"

	"racejudge/internal/race/course"
	appErr "racejudge/pkg/errors"
)

// Masked is sent for squares beyond the visibility depth.
const Masked = -1

// Handshake is the one-shot course description sent at player start.
type Handshake struct {
	ThinkTime int64
	StepLimit int
	Width     int
	Length    int
	Vision    int
}

// Kinematics is the public position and velocity of one player.
type Kinematics struct {
	Position course.Vec
	Velocity course.Vec
}

// Turn is the per-step request sent to a player.
type Turn struct {
	Step     int
	TimeLeft int64
	Self     Kinematics
	// Opponent is nil when the opponent is no longer racing.
	Opponent   *Kinematics
	Course     *course.RaceCourse
	Visibility int
}

// Encoder buffers one outbound message and writes it to the player and,
// when configured, to a log of everything the player was sent.
type Encoder struct {
	dst io.Writer
	tee io.Writer
	buf []byte
}

// NewEncoder returns an Encoder writing to dst; tee may be nil.
func NewEncoder(dst, tee io.Writer) *Encoder {
	return &Encoder{dst: dst, tee: tee, buf: make([]byte, 0, 256)}
}

// Int appends v followed by sep.
func (e *Encoder) Int(v int64, sep byte) *Encoder {
	e.buf = strconv.AppendInt(e.buf, v, 10)
	e.buf = append(e.buf, sep)
	return e
}

// Line appends vals separated by spaces and terminated by a newline.
func (e *Encoder) Line(vals ...int) *Encoder {
	for i, v := range vals {
		if i > 0 {
			e.buf = append(e.buf, ' ')
		}
		e.buf = strconv.AppendInt(e.buf, int64(v), 10)
	}
	e.buf = append(e.buf, '\n')
	return e
}

// Pending returns the bytes not yet flushed.
func (e *Encoder) Pending() []byte {
	return e.buf
}

// Flush sends the buffered bytes to the player and the tee. The buffer is
// reset even when a write fails: a dead player gets no second chance.
func (e *Encoder) Flush() error {
	defer func() { e.buf = e.buf[:0] }()

	var err error
	if e.dst != nil {
		_, werr := e.dst.Write(e.buf)
		err = multierr.Append(err, werr)
		err = multierr.Append(err, flush(e.dst))
	}
	if e.tee != nil {
		_, werr := e.tee.Write(e.buf)
		err = multierr.Append(err, werr)
		err = multierr.Append(err, flush(e.tee))
	}
	if err != nil {
		return appErr.Wrap(err, appErr.ProtocolWrite)
	}
	return nil
}

type flusher interface {
	Flush() error
}

func flush(w io.Writer) error {
	if f, ok := w.(flusher); ok {
		return f.Flush()
	}
	return nil
}

// EncodeHandshake writes thinkTime, stepLimit, "width length" and vision, one per line.
func (e *Encoder) EncodeHandshake(h Handshake) *Encoder {
	e.Int(h.ThinkTime, '\n')
	e.Int(int64(h.StepLimit), '\n')
	e.Line(h.Width, h.Length)
	e.Int(int64(h.Vision), '\n')
	return e
}

// EncodeTurn writes the step number, the remaining time, both players'
// kinematics and the course rows. Rows at or beyond the visibility depth are
// masked. An absent opponent is encoded as "0 length 0 0".
func (e *Encoder) EncodeTurn(t Turn) *Encoder {
	e.Int(int64(t.Step), '\n')
	e.Int(t.TimeLeft, '\n')
	e.Line(t.Self.Position.X, t.Self.Position.Y, t.Self.Velocity.X, t.Self.Velocity.Y)
	if t.Opponent != nil {
		op := t.Opponent
		e.Line(op.Position.X, op.Position.Y, op.Velocity.X, op.Velocity.Y)
	} else {
		e.Line(0, t.Course.Length, 0, 0)
	}

	c := t.Course
	for y := 0; y < c.Length; y++ {
		for x := 0; x < c.Width; x++ {
			if x != 0 {
				e.buf = append(e.buf, ' ')
			}
			v := Masked
			if y < t.Visibility {
				v = c.Squares[y][x]
			}
			e.buf = strconv.AppendInt(e.buf, int64(v), 10)
		}
		e.buf = append(e.buf, '\n')
	}
	return e
}
