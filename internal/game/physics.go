package game

import (
	"math"
	"math/rand/v2"
)

// Ball is a circle whose position is its center.
type Ball struct {
	Pos    Vec2
	Vel    Vec2
	Radius float64
}

// Bounds is the ball's bounding square, used for paddle contact.
func (b Ball) Bounds() Rect {
	return Rect{X: b.Pos.X - b.Radius, Y: b.Pos.Y - b.Radius, W: 2 * b.Radius, H: 2 * b.Radius}
}

// Paddle is a vertical bar. X is fixed per side; Y is the top edge.
type Paddle struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

func (p Paddle) Bounds() Rect {
	return Rect{X: p.X, Y: p.Y, W: p.Width, H: p.Height}
}

// newPaddles places both paddles vertically centered at their fixed x.
func newPaddles(s Settings) [2]Paddle {
	y := (s.CourtHeight - s.PaddleHeight) / 2
	return [2]Paddle{
		{X: s.PaddleOffset, Y: y, Width: s.PaddleWidth, Height: s.PaddleHeight},
		{X: s.CourtWidth - s.PaddleOffset - s.PaddleWidth, Y: y, Width: s.PaddleWidth, Height: s.PaddleHeight},
	}
}

// serve centers the ball and sends it toward a random side with a random
// vertical component inside [-MaxBallSpeedY/2, MaxBallSpeedY/2].
func serve(s Settings, rng *rand.Rand) Ball {
	dir := 1.0
	if rng.IntN(2) == 0 {
		dir = -1
	}
	vy := (rng.Float64()*2 - 1) * s.MaxBallSpeedY / 2
	return Ball{
		Pos:    Vec2{X: s.CourtWidth / 2, Y: s.CourtHeight / 2},
		Vel:    Vec2{X: dir * s.BallSpeed, Y: vy},
		Radius: s.BallRadius,
	}
}

// stepResult reports what happened during a single physics step.
type stepResult struct {
	Scorer    int // 0 when nobody scored, otherwise the scoring ordinal
	WallHit   bool
	PaddleHit int // ordinal of the paddle the ball bounced off, or 0
}

// step advances the match by one tick. Order: paddles, ball, walls,
// paddles contact, goals. A goal resets the ball at the center.
func (m *Match) step(s Settings, rng *rand.Rand) stepResult {
	var res stepResult

	for i := range m.Paddles {
		if m.Slots[i] == nil {
			continue
		}
		in := m.Slots[i].Input
		switch {
		case in.Up && !in.Down:
			m.Paddles[i].Y -= s.PaddleSpeed
		case in.Down && !in.Up:
			m.Paddles[i].Y += s.PaddleSpeed
		}
		m.Paddles[i].Y = clamp(m.Paddles[i].Y, 0, s.MaxPaddleY())
	}

	b := &m.Ball
	b.Pos = b.Pos.Plus(b.Vel)

	if b.Pos.Y-b.Radius <= 0 {
		b.Pos.Y = b.Radius
		b.Vel.Y = math.Abs(b.Vel.Y)
		res.WallHit = true
	} else if b.Pos.Y+b.Radius >= s.CourtHeight {
		b.Pos.Y = s.CourtHeight - b.Radius
		b.Vel.Y = -math.Abs(b.Vel.Y)
		res.WallHit = true
	}

	// Only the paddle the ball is travelling toward is checked, and the ball
	// is pushed out in front of it, so a single contact flips vx once.
	left, right := m.Paddles[0], m.Paddles[1]
	if b.Vel.X < 0 && b.Bounds().Overlaps(left.Bounds()) {
		b.Vel.X = math.Abs(b.Vel.X)
		b.Pos.X = left.X + left.Width + b.Radius
		b.Vel.Y = clamp(b.Vel.Y+jitter(s, rng), -s.MaxBallSpeedY, s.MaxBallSpeedY)
		res.PaddleHit = 1
	} else if b.Vel.X > 0 && b.Bounds().Overlaps(right.Bounds()) {
		b.Vel.X = -math.Abs(b.Vel.X)
		b.Pos.X = right.X - b.Radius
		b.Vel.Y = clamp(b.Vel.Y+jitter(s, rng), -s.MaxBallSpeedY, s.MaxBallSpeedY)
		res.PaddleHit = 2
	}

	switch {
	case b.Pos.X-b.Radius < 0:
		res.Scorer = 2
	case b.Pos.X+b.Radius > s.CourtWidth:
		res.Scorer = 1
	}
	if res.Scorer != 0 {
		m.Scores[res.Scorer-1]++
		m.Ball = serve(s, rng)
	}
	return res
}

func jitter(s Settings, rng *rand.Rand) float64 {
	if s.BounceJitter == 0 {
		return 0
	}
	return (rng.Float64()*2 - 1) * s.BounceJitter
}
