// Package player drives one AI program through the race protocol: spawn,
// handshake, and one timed request/response exchange per turn.
package player

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/shlex"
	"go.uber.org/zap"

	"racejudge/internal/race/capture"
	"racejudge/internal/race/course"
	"racejudge/internal/race/exchange"
	"racejudge/internal/race/hook"
	"racejudge/internal/race/process"
	"racejudge/internal/race/result"
	"racejudge/internal/race/wire"
	"racejudge/pkg/utils/contextkey"
	"racejudge/pkg/utils/logger"
)

// exitGrace is how long a closed reply stream may precede the player's exit
// before the player is considered alive.
const exitGrace = 100 * time.Millisecond

// Options configures optional collaborators of a Player.
type Options struct {
	// StdinLog receives a copy of everything sent to the player.
	StdinLog io.Writer
	// StderrLog receives the player's stderr merged with "[system] " lines.
	StderrLog io.Writer
	// PauseCommand and ResumeCommand run around every wait on the player.
	PauseCommand  string
	ResumeCommand string
	// StderrMaxBytes caps captured stderr; zero means capture.DefaultMaxBytes.
	StderrMaxBytes int
	// Env is appended to the judge's environment for the player process.
	Env []string
	// Hooks runs pause/resume commands; nil means hook.NewRunner().
	Hooks *hook.Runner
}

// State is the mutable race state of a player.
type State struct {
	Phase    result.Phase
	Position course.Vec
	Velocity course.Vec
	// TimeLeft is the remaining think time in milliseconds.
	TimeLeft int64
}

// Decision is the outcome of one turn.
type Decision struct {
	Category result.Category
	// Accel is only meaningful when Category is result.Normal.
	Accel       course.Vec
	TimeUsed    int64
	Diagnostics []string
}

// Player owns one AI process and its protocol state.
type Player struct {
	name  string
	opt   Options
	state State

	proc   *process.Process
	enc    *wire.Encoder
	in     *bufio.Reader // nil while lent to an exchange, or for good after a timeout
	gate   *capture.Gate
	stderr *capture.Capture
	hooks  *hook.Runner

	notes      []string
	terminated bool
}

// New starts the AI program given by command and performs the handshake.
// Failures never surface as errors: a player that cannot race is returned
// in phase AlreadyDisqualified. An empty command is an absent contestant.
func New(ctx context.Context, command, name string, c *course.RaceCourse, xpos int, opt Options) *Player {
	if opt.StderrMaxBytes == 0 {
		opt.StderrMaxBytes = capture.DefaultMaxBytes
	}
	if opt.Hooks == nil {
		opt.Hooks = hook.NewRunner()
	}
	p := &Player{
		name: name,
		opt:  opt,
		state: State{
			Phase:    result.Racing,
			Position: course.Vec{X: xpos},
			TimeLeft: c.ThinkTime,
		},
		gate:  &capture.Gate{},
		hooks: opt.Hooks,
	}
	ctx = p.logContext(ctx)

	if strings.TrimSpace(command) == "" {
		p.state.Phase = result.AlreadyDisqualified
		logger.Info(ctx, "no command given, player is absent")
		return p
	}
	argv, err := shlex.Split(command)
	if err != nil || len(argv) == 0 {
		p.report(ctx, fmt.Sprintf("player %q has an unparsable command %q", name, command), zap.Error(err))
		p.state.Phase = result.AlreadyDisqualified
		return p
	}
	proc, err := process.Start(argv, opt.Env)
	if err != nil {
		p.report(ctx, fmt.Sprintf("player %q failed to start: %v", name, err))
		p.state.Phase = result.AlreadyDisqualified
		return p
	}
	p.proc = proc
	p.systemf("Try: hand shake")
	p.stderr = capture.Start(proc.Stderr, opt.StderrLog, p.gate, opt.StderrMaxBytes)
	p.enc = wire.NewEncoder(proc.Stdin, opt.StdinLog)
	p.in = bufio.NewReader(proc.Stdout)

	p.handshake(ctx, c)
	return p
}

func (p *Player) handshake(ctx context.Context, c *course.RaceCourse) {
	p.send(ctx, p.enc.EncodeHandshake(wire.Handshake{
		ThinkTime: c.ThinkTime,
		StepLimit: c.StepLimit,
		Width:     c.Width,
		Length:    c.Length,
		Vision:    c.Vision,
	}))

	out := exchange.Run(p.lend(), p.budget(), wire.ReadInt, p.proc.InterruptRead)
	used := p.consume(out.Elapsed)
	p.gate.Pause()
	p.systemf("spend time: %d, remain: %d", used, p.state.TimeLeft)
	p.runHook(ctx, "pause", p.opt.PauseCommand)

	if out.TimedOut {
		p.state.Phase = result.AlreadyDisqualified
		p.report(ctx, fmt.Sprintf("player %q did not respond in time during initiation", p.name))
		return
	}
	p.in = out.Reader
	p.surface(ctx, out.Value.Diagnostics)

	ack := out.Value
	if ack.OK && ack.Value == 0 {
		p.systemf("Success!: hand shake")
		logger.Info(ctx, "handshake succeeded", zap.Int64("time_used_ms", used), zap.Int64("time_left_ms", p.state.TimeLeft))
		return
	}

	p.systemf("Failed...: hand shake")
	p.state.Phase = result.AlreadyDisqualified
	if !p.alive(ack.EOF) {
		p.report(ctx, fmt.Sprintf("player %q died.", p.name))
		p.report(ctx, "\t"+p.proc.ExitDescription())
		return
	}
	if ack.OK {
		p.report(ctx, fmt.Sprintf("Response at initialization of player %q: (%d) is non-zero", p.name, ack.Value))
	}
}

// Plan sends the turn state to the player and waits for its acceleration.
// The time spent waiting is always charged to the player's budget.
func (p *Player) Plan(ctx context.Context, step int, op *Player, c *course.RaceCourse, visibility int) Decision {
	ctx = p.logContext(ctx)
	p.notes = nil

	if p.state.Phase != result.Racing {
		p.notes = append(p.notes, fmt.Sprintf("player %q is not racing", p.name))
		return Decision{Category: result.Invalid, Diagnostics: p.notes}
	}

	p.systemf("================================")
	p.systemf("turn: %d", step)
	if p.in == nil {
		p.report(ctx, fmt.Sprintf("player %q has no reply stream left after an earlier timeout", p.name))
		return Decision{Category: result.TimedOut, Diagnostics: p.notes}
	}

	turn := wire.Turn{
		Step:       step,
		TimeLeft:   p.state.TimeLeft,
		Self:       p.Kinematics(),
		Course:     c,
		Visibility: visibility,
	}
	if op != nil && op.state.Phase == result.Racing {
		k := op.Kinematics()
		turn.Opponent = &k
	}
	p.send(ctx, p.enc.EncodeTurn(turn))

	p.gate.Resume()
	p.runHook(ctx, "resume", p.opt.ResumeCommand)
	out := exchange.Run(p.lend(), p.budget(), wire.ReadAccel, p.proc.InterruptRead)
	used := p.consume(out.Elapsed)
	p.gate.Pause()
	p.systemf("spend time: %d, remain: %d", used, p.state.TimeLeft)
	p.runHook(ctx, "pause", p.opt.PauseCommand)

	d := Decision{TimeUsed: used}
	logger.Debug(ctx, "turn exchanged",
		zap.Int("step", step),
		zap.Int64("time_used_ms", used),
		zap.Int64("time_left_ms", p.state.TimeLeft),
		zap.Bool("timed_out", out.TimedOut),
	)
	if out.TimedOut {
		p.report(ctx, fmt.Sprintf("player %q did not respond in time at step %d", p.name, step))
		d.Category = result.TimedOut
		d.Diagnostics = p.notes
		return d
	}
	p.in = out.Reader
	p.surface(ctx, out.Value.Diagnostics)

	accel := out.Value
	switch {
	case accel.OK && validAxis(accel.Value.X) && validAxis(accel.Value.Y):
		d.Category = result.Normal
		d.Accel = accel.Value
	case accel.OK:
		p.report(ctx, fmt.Sprintf("acceleration value must be from -1 to 1 each axis, but player %q said: (%d, %d)",
			p.name, accel.Value.X, accel.Value.Y))
		d.Category = result.Invalid
	case !p.alive(accel.EOF):
		p.report(ctx, fmt.Sprintf("player %q died.", p.name))
		p.report(ctx, "\t"+p.proc.ExitDescription())
		d.Category = result.Died
	default:
		d.Category = result.Invalid
	}
	d.Diagnostics = p.notes
	return d
}

// Terminate signals the player's process group, then releases the capture
// and the pipes. Outcomes are logged, never returned. Safe to call twice.
func (p *Player) Terminate(ctx context.Context) {
	if p.proc == nil || p.terminated {
		return
	}
	p.terminated = true
	ctx = p.logContext(ctx)

	err := p.proc.Terminate()
	p.systemf("terminate your AI: %q", p.name)
	if err != nil {
		p.systemf("\terror: %v", err)
		logger.Warn(ctx, "terminate player failed", zap.Error(err))
	}

	p.gate.Resume()
	if p.stderr != nil && !p.stderr.Close(capture.DefaultGrace) {
		logger.Warnf(ctx, "stderr capture did not finish within %v, detaching it", capture.DefaultGrace)
	}
	p.proc.Close()
	if p.stderr == nil {
		return
	}

	// Closing the pipe ends unblocks a detached capture.
	select {
	case <-p.stderr.Done():
	case <-time.After(exitGrace):
		logger.Warn(ctx, "stderr capture still draining after the pipes were closed")
	}
	if err == nil {
		logger.Info(ctx, "player terminated",
			zap.Int64("stderr_bytes", p.stderr.Written()),
			zap.Bool("stderr_capped", p.stderr.Capped()),
		)
	}
}

// Name returns the display name.
func (p *Player) Name() string {
	return p.name
}

// State returns a copy of the current state.
func (p *Player) State() State {
	return p.state
}

// Racing reports whether the player is still in the race.
func (p *Player) Racing() bool {
	return p.state.Phase == result.Racing
}

// Kinematics returns the public position and velocity.
func (p *Player) Kinematics() wire.Kinematics {
	return wire.Kinematics{Position: p.state.Position, Velocity: p.state.Velocity}
}

// Move applies the match's physics result.
func (p *Player) Move(pos, vel course.Vec) {
	p.state.Position = pos
	p.state.Velocity = vel
}

// Retire takes the player out of the race; later turns are not exchanged.
func (p *Player) Retire() {
	p.state.Phase = result.AlreadyDisqualified
}

// Diagnostics returns the diagnostics of the last handshake or turn.
func (p *Player) Diagnostics() []string {
	return p.notes
}

func (p *Player) lend() *bufio.Reader {
	r := p.in
	p.in = nil
	return r
}

func (p *Player) budget() time.Duration {
	return time.Duration(p.state.TimeLeft) * time.Millisecond
}

func (p *Player) consume(elapsed time.Duration) int64 {
	used := exchange.Millis(elapsed)
	p.state.TimeLeft -= used
	return used
}

// alive reports whether the process is still running. A closed reply stream
// usually means the process is on its way out, so give it a moment.
func (p *Player) alive(streamClosed bool) bool {
	if streamClosed {
		return !p.proc.WaitExit(exitGrace)
	}
	return p.proc.Running()
}

func (p *Player) send(ctx context.Context, enc *wire.Encoder) {
	n := len(enc.Pending())
	if err := enc.Flush(); err != nil {
		logger.Warn(ctx, "write to player failed", zap.Int("bytes", n), zap.Error(err))
	}
}

func (p *Player) runHook(ctx context.Context, kind, command string) {
	if command == "" {
		return
	}
	res := p.hooks.Run(ctx, command)
	logger.Info(ctx, "hook finished",
		zap.String("hook", kind),
		zap.Int("exit_code", res.ExitCode),
		zap.Error(res.Err),
	)
}

// report records a diagnostic and writes it to the process log and the
// stderr sink.
func (p *Player) report(ctx context.Context, msg string, fields ...zap.Field) {
	p.notes = append(p.notes, msg)
	logger.Warn(ctx, msg, fields...)
	p.systemf("%s", msg)
}

func (p *Player) surface(ctx context.Context, lines []string) {
	for _, line := range lines {
		p.report(ctx, line)
	}
}

func (p *Player) systemf(format string, args ...interface{}) {
	sink := p.opt.StderrLog
	if sink == nil {
		return
	}
	p.gate.Exclusive(func() {
		_, _ = fmt.Fprintf(sink, "[system] "+format+"\n", args...)
	})
}

func (p *Player) logContext(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, contextkey.Player, p.name)
}

func validAxis(v int) bool {
	return v >= -1 && v <= 1
}
