// Package course describes the race course consumed read-only by the player engine.
package course

import (
	"bufio"
	"io"
	"os"
	"strconv"

	appErr "racejudge/pkg/errors"
)

// Cell values stored in RaceCourse.Squares.
const (
	Empty    = 0
	Obstacle = 1
)

// Vec is an integer 2-vector used for positions, velocities and accelerations.
type Vec struct {
	X int
	Y int
}

// Add returns v+o.
func (v Vec) Add(o Vec) Vec {
	return Vec{X: v.X + o.X, Y: v.Y + o.Y}
}

// RaceCourse is the course geometry together with the per-player budgets.
type RaceCourse struct {
	ThinkTime int64 // per-player budget for the whole match, in milliseconds
	StepLimit int
	Width     int
	Length    int
	Vision    int
	Squares   [][]int // Squares[y][x]
}

// Cell returns the square at (x, y) and whether it lies on the course.
func (c *RaceCourse) Cell(x, y int) (int, bool) {
	if x < 0 || x >= c.Width || y < 0 || y >= c.Length {
		return 0, false
	}
	return c.Squares[y][x], true
}

// Validate checks that the header agrees with the grid.
func (c *RaceCourse) Validate() error {
	if c.Width <= 0 || c.Length <= 0 {
		return appErr.Newf(appErr.CourseInvalid, "course size must be positive, got %dx%d", c.Width, c.Length)
	}
	if c.ThinkTime <= 0 {
		return appErr.Newf(appErr.CourseInvalid, "think time must be positive, got %d", c.ThinkTime)
	}
	if c.StepLimit <= 0 {
		return appErr.Newf(appErr.CourseInvalid, "step limit must be positive, got %d", c.StepLimit)
	}
	if c.Vision < 0 {
		return appErr.Newf(appErr.CourseInvalid, "vision must not be negative, got %d", c.Vision)
	}
	if len(c.Squares) != c.Length {
		return appErr.Newf(appErr.CourseInvalid, "expected %d rows, got %d", c.Length, len(c.Squares))
	}
	for y, row := range c.Squares {
		if len(row) != c.Width {
			return appErr.Newf(appErr.CourseInvalid, "row %d has %d cells, expected %d", y, len(row), c.Width)
		}
	}
	return nil
}

// Load reads a course file.
//
// Format, whitespace separated: thinkTime stepLimit width length vision,
// followed by length rows of width integers.
func Load(path string) (*RaceCourse, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, appErr.Wrapf(err, appErr.CourseLoadFailed, "open course %s failed", path)
	}
	defer file.Close()

	c, err := Parse(file)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CourseLoadFailed).WithDetail("path", path)
	}
	return c, nil
}

// Parse decodes a course from r.
func Parse(r io.Reader) (*RaceCourse, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	sc.Split(bufio.ScanWords)

	next := func(what string) (int, error) {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return 0, appErr.Wrapf(err, appErr.CourseInvalid, "read %s failed", what)
			}
			return 0, appErr.Newf(appErr.CourseInvalid, "unexpected end of course while reading %s", what)
		}
		v, err := strconv.Atoi(sc.Text())
		if err != nil {
			return 0, appErr.Wrapf(err, appErr.CourseInvalid, "invalid %s %q", what, sc.Text())
		}
		return v, nil
	}

	c := &RaceCourse{}
	think, err := next("think time")
	if err != nil {
		return nil, err
	}
	c.ThinkTime = int64(think)
	if c.StepLimit, err = next("step limit"); err != nil {
		return nil, err
	}
	if c.Width, err = next("width"); err != nil {
		return nil, err
	}
	if c.Length, err = next("length"); err != nil {
		return nil, err
	}
	if c.Vision, err = next("vision"); err != nil {
		return nil, err
	}
	if c.Width <= 0 || c.Length <= 0 {
		return nil, appErr.Newf(appErr.CourseInvalid, "course size must be positive, got %dx%d", c.Width, c.Length)
	}

	c.Squares = make([][]int, c.Length)
	for y := 0; y < c.Length; y++ {
		row := make([]int, c.Width)
		for x := 0; x < c.Width; x++ {
			if row[x], err = next("cell (" + strconv.Itoa(x) + "," + strconv.Itoa(y) + ")"); err != nil {
				return nil, err
			}
		}
		c.Squares[y] = row
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
