// Package match runs one race between two players on a course.
package match

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"racejudge/internal/race/course"
	"racejudge/internal/race/player"
	"racejudge/internal/race/result"
	appErr "racejudge/pkg/errors"
	"racejudge/pkg/utils/logger"
)

// Entry describes one contestant.
type Entry struct {
	Name    string
	Command string
	// StartX is the starting column; nil picks a default lane.
	StartX  *int
	Options player.Options
}

// Config holds everything needed to run a match.
type Config struct {
	Course  *course.RaceCourse
	Entries [2]Entry
}

// Turn is one step of one player as recorded by the match.
type Turn struct {
	Step     int
	Category result.Category
	Accel    course.Vec
	Position course.Vec
	Velocity course.Vec
	TimeUsed int64
}

// Outcome is the final standing of one player.
type Outcome struct {
	Name string
	// Category is Normal when the player was still racing at the step limit.
	Category result.Category
	// Step is the step the race ended for the player, or -1.
	Step        int
	Position    course.Vec
	TimeLeft    int64
	Turns       []Turn
	Diagnostics []string
}

// Report is the result of a match.
type Report struct {
	Steps    int
	Outcomes [2]Outcome
}

// Winner returns the index of the player that finished first, or -1 for a
// draw or when nobody finished.
func (r *Report) Winner() int {
	a, b := r.Outcomes[0], r.Outcomes[1]
	aDone := a.Category == result.Finished
	bDone := b.Category == result.Finished
	switch {
	case aDone && (!bDone || a.Step < b.Step):
		return 0
	case bDone && (!aDone || b.Step < a.Step):
		return 1
	default:
		return -1
	}
}

// DefaultStartX returns the default starting column of player i.
func DefaultStartX(width, i int) int {
	if i == 0 {
		return (width - 1) / 3
	}
	return width - 1 - (width-1)/3
}

// Run starts both players, races them until both are out or the step limit
// is reached, and terminates them.
func Run(ctx context.Context, cfg Config) (*Report, error) {
	c := cfg.Course
	if c == nil {
		return nil, appErr.New(appErr.MatchSetupFailed).WithMessage("course is required")
	}
	if err := c.Validate(); err != nil {
		return nil, appErr.Wrap(err, appErr.MatchSetupFailed)
	}

	var starts [2]int
	for i, e := range cfg.Entries {
		starts[i] = DefaultStartX(c.Width, i)
		if e.StartX != nil {
			starts[i] = *e.StartX
		}
		if starts[i] < 0 || starts[i] >= c.Width {
			return nil, appErr.Newf(appErr.MatchSetupFailed, "start column %d of player %q is outside the course", starts[i], e.Name)
		}
	}

	var players [2]*player.Player
	report := &Report{}
	for i, e := range cfg.Entries {
		players[i] = player.New(ctx, e.Command, e.Name, c, starts[i], e.Options)
		report.Outcomes[i] = Outcome{Name: e.Name, Category: result.Normal, Step: -1}
		if !players[i].Racing() {
			report.Outcomes[i].Category = result.NoPlay
			report.Outcomes[i].Diagnostics = players[i].Diagnostics()
		}
	}
	defer func() {
		for _, p := range players {
			p.Terminate(ctx)
		}
	}()

	step := 0
	for ; step < c.StepLimit && (players[0].Racing() || players[1].Racing()); step++ {
		var decisions [2]player.Decision
		for i, p := range players {
			if p.Racing() {
				decisions[i] = p.Plan(ctx, step, players[1-i], c, c.Vision)
			}
		}
		for i, p := range players {
			if !p.Racing() {
				continue
			}
			o := &report.Outcomes[i]
			cat := advance(p, decisions[i], c)
			st := p.State()
			o.Turns = append(o.Turns, Turn{
				Step:     step,
				Category: cat,
				Accel:    decisions[i].Accel,
				Position: st.Position,
				Velocity: st.Velocity,
				TimeUsed: decisions[i].TimeUsed,
			})
			if cat.Terminal() {
				p.Retire()
				o.Category = cat
				o.Step = step
				o.Diagnostics = decisions[i].Diagnostics
				logger.Info(ctx, "player is out of the race",
					zap.String("player", p.Name()),
					zap.Int("step", step),
					zap.String("category", cat.String()),
				)
			}
		}
	}

	report.Steps = step
	for i, p := range players {
		st := p.State()
		report.Outcomes[i].Position = st.Position
		report.Outcomes[i].TimeLeft = st.TimeLeft
	}
	logger.Info(ctx, "match finished", zap.Int("steps", step), zap.Int("winner", report.Winner()))
	return report, nil
}

// advance applies a decision to the player and classifies the move. A move
// landing on an obstacle is cancelled and the player stops.
func advance(p *player.Player, d player.Decision, c *course.RaceCourse) result.Category {
	if d.Category != result.Normal {
		return d.Category
	}
	st := p.State()
	vel := st.Velocity.Add(d.Accel)
	pos := st.Position.Add(vel)

	switch {
	case pos.Y >= c.Length:
		p.Move(pos, vel)
		return result.Finished
	case pos.X < 0 || pos.X >= c.Width || pos.Y < 0:
		p.Move(pos, vel)
		return result.GoneOff
	}
	if cell, _ := c.Cell(pos.X, pos.Y); cell == course.Obstacle {
		p.Move(st.Position, course.Vec{})
		return result.Obstacled
	}
	p.Move(pos, vel)
	return result.Normal
}

// Summary renders a short human readable report.
func (r *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "steps: %d\n", r.Steps)
	for i, o := range r.Outcomes {
		fmt.Fprintf(&b, "player %d %q: %s", i, o.Name, o.Category)
		if o.Step >= 0 {
			fmt.Fprintf(&b, " at step %d", o.Step)
		}
		fmt.Fprintf(&b, ", position (%d, %d), time left %d ms\n", o.Position.X, o.Position.Y, o.TimeLeft)
	}
	if w := r.Winner(); w >= 0 {
		fmt.Fprintf(&b, "winner: %q\n", r.Outcomes[w].Name)
	} else {
		b.WriteString("winner: none\n")
	}
	return b.String()
}
