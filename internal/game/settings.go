package game

import (
	"fmt"
	"time"
)

// Settings holds court geometry and match rules. Tags are read by
// caarlos0/env in config.Load; DefaultSettings mirrors the envDefault values.
type Settings struct {
	CourtWidth   float64 `env:"PONG_COURT_WIDTH" envDefault:"800"`
	CourtHeight  float64 `env:"PONG_COURT_HEIGHT" envDefault:"600"`
	PaddleWidth  float64 `env:"PONG_PADDLE_WIDTH" envDefault:"10"`
	PaddleHeight float64 `env:"PONG_PADDLE_HEIGHT" envDefault:"100"`
	PaddleOffset float64 `env:"PONG_PADDLE_OFFSET" envDefault:"20"` // distance from the side wall
	PaddleSpeed  float64 `env:"PONG_PADDLE_SPEED" envDefault:"8"`

	BallRadius    float64 `env:"PONG_BALL_RADIUS" envDefault:"10"`
	BallSpeed     float64 `env:"PONG_BALL_SPEED" envDefault:"5"`
	MaxBallSpeedY float64 `env:"PONG_MAX_BALL_SPEED_Y" envDefault:"6"`
	BounceJitter  float64 `env:"PONG_BOUNCE_JITTER" envDefault:"2"`

	WinScore         int           `env:"PONG_WIN_SCORE" envDefault:"5"`
	TickInterval     time.Duration `env:"PONG_TICK_INTERVAL" envDefault:"16ms"`
	CountdownSeconds int           `env:"PONG_COUNTDOWN_SECONDS" envDefault:"3"`

	WaitingTimeout      time.Duration `env:"PONG_WAITING_TIMEOUT" envDefault:"5m"`
	ExpiryCheckInterval time.Duration `env:"PONG_EXPIRY_CHECK_INTERVAL" envDefault:"30s"`
}

// DefaultSettings returns the standard 800x600 court, first to five.
func DefaultSettings() Settings {
	return Settings{
		CourtWidth:          800,
		CourtHeight:         600,
		PaddleWidth:         10,
		PaddleHeight:        100,
		PaddleOffset:        20,
		PaddleSpeed:         8,
		BallRadius:          10,
		BallSpeed:           5,
		MaxBallSpeedY:       6,
		BounceJitter:        2,
		WinScore:            5,
		TickInterval:        16 * time.Millisecond,
		CountdownSeconds:    3,
		WaitingTimeout:      5 * time.Minute,
		ExpiryCheckInterval: 30 * time.Second,
	}
}

// TicksPerSecond is the number of ticks that make up one countdown second.
func (s Settings) TicksPerSecond() int {
	if s.TickInterval <= 0 {
		return 1
	}
	n := int(time.Second / s.TickInterval)
	if n < 1 {
		return 1
	}
	return n
}

// MaxPaddleY is the largest legal paddle y.
func (s Settings) MaxPaddleY() float64 {
	return s.CourtHeight - s.PaddleHeight
}

// Validate rejects settings that cannot produce a playable court.
func (s Settings) Validate() error {
	switch {
	case s.CourtWidth <= 0 || s.CourtHeight <= 0:
		return fmt.Errorf("court must have positive size, got %.0fx%.0f", s.CourtWidth, s.CourtHeight)
	case s.PaddleHeight <= 0 || s.PaddleHeight >= s.CourtHeight:
		return fmt.Errorf("paddle height %.0f must be within court height %.0f", s.PaddleHeight, s.CourtHeight)
	case s.PaddleWidth <= 0 || 2*(s.PaddleOffset+s.PaddleWidth) >= s.CourtWidth:
		return fmt.Errorf("paddles do not fit a court %.0f wide", s.CourtWidth)
	case s.BallRadius <= 0 || 2*s.BallRadius >= s.CourtHeight:
		return fmt.Errorf("ball radius %.0f does not fit the court", s.BallRadius)
	case s.BallSpeed <= 0:
		return fmt.Errorf("ball speed must be positive")
	case s.BallSpeed >= s.PaddleWidth+2*s.BallRadius:
		return fmt.Errorf("ball speed %.0f would tunnel through paddles", s.BallSpeed)
	case s.MaxBallSpeedY <= 0:
		return fmt.Errorf("max vertical ball speed must be positive")
	case s.BounceJitter < 0:
		return fmt.Errorf("bounce jitter cannot be negative")
	case s.WinScore < 1:
		return fmt.Errorf("win score must be at least 1")
	case s.TickInterval <= 0:
		return fmt.Errorf("tick interval must be positive")
	case s.CountdownSeconds < 0:
		return fmt.Errorf("countdown cannot be negative")
	}
	return nil
}
