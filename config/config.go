package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default tuning. The browser client sizes its meshes from SessionInfo, so
// these only need to agree with the client for cosmetic constants.
const (
	// Dimensions
	RoadWidth  = 20.0
	RoadLength = 1000.0
	CarWidth   = 2.0
	CarLength  = 4.0
	CarHeight  = 1.2
	RideHeight = 0.25

	// Player kinematics
	MaxSpeed     = 50.0
	Acceleration = 0.5
	BrakePower   = 0.8
	TurnSpeed    = 0.1
	Friction     = 0.95
	MoveScale    = 0.1

	// Collision
	CollisionDistance = 2.5

	// Traffic
	TrafficCount      = 10
	TrafficMinSpeed   = 2.0
	TrafficSpeedRange = 3.0

	// Chase camera
	CameraDistance = 8.0
	CameraHeight   = 3.0

	// Timing
	TickRate       = 60 // Hz
	FrameRate      = 30 // Hz
	BackdropPeriod = 30 * time.Second

	// Terminal frontend
	KeyHold   = 150 * time.Millisecond
	AlertHold = 2 * time.Second
)

// MaxTrafficCount is the largest pool a frame message can describe.
const MaxTrafficCount = 255

// CollisionMessage is the text shown to the player when a collision resets the game.
const CollisionMessage = "Collision! Resetting position..."

var (
	ErrInvalidTickRate     = errors.New("tick rate must be positive")
	ErrInvalidFrameRate    = errors.New("frame rate must be positive")
	ErrInvalidTraffic      = errors.New("traffic count out of range")
	ErrInvalidRoad         = errors.New("road must be wider than two cars and have positive length")
	ErrInvalidFriction     = errors.New("friction must be in (0, 1]")
	ErrInvalidMaxSpeed     = errors.New("max speed must be positive")
	ErrInvalidTrafficSpeed = errors.New("traffic speed must be positive with a non-negative range")
)

// Tuning holds every constant the simulation reads.
type Tuning struct {
	RoadWidth         float64       `mapstructure:"roadWidth"`
	RoadLength        float64       `mapstructure:"roadLength"`
	CarWidth          float64       `mapstructure:"carWidth"`
	CarLength         float64       `mapstructure:"carLength"`
	CarHeight         float64       `mapstructure:"carHeight"`
	RideHeight        float64       `mapstructure:"rideHeight"`
	MaxSpeed          float64       `mapstructure:"maxSpeed"`
	Acceleration      float64       `mapstructure:"acceleration"`
	BrakePower        float64       `mapstructure:"brakePower"`
	TurnSpeed         float64       `mapstructure:"turnSpeed"`
	Friction          float64       `mapstructure:"friction"`
	MoveScale         float64       `mapstructure:"moveScale"`
	CollisionDistance float64       `mapstructure:"collisionDistance"`
	TrafficCount      int           `mapstructure:"trafficCount"`
	TrafficMinSpeed   float64       `mapstructure:"trafficMinSpeed"`
	TrafficSpeedRange float64       `mapstructure:"trafficSpeedRange"`
	CameraDistance    float64       `mapstructure:"cameraDistance"`
	CameraHeight      float64       `mapstructure:"cameraHeight"`
	TickRate          int           `mapstructure:"tickRate"`
	FrameRate         int           `mapstructure:"frameRate"`
	BackdropPeriod    time.Duration `mapstructure:"backdropPeriod"`
	Seed              uint64        `mapstructure:"seed"` // 0 picks a time based seed
}

// DefaultTuning returns the stock game constants.
func DefaultTuning() Tuning {
	return Tuning{
		RoadWidth:         RoadWidth,
		RoadLength:        RoadLength,
		CarWidth:          CarWidth,
		CarLength:         CarLength,
		CarHeight:         CarHeight,
		RideHeight:        RideHeight,
		MaxSpeed:          MaxSpeed,
		Acceleration:      Acceleration,
		BrakePower:        BrakePower,
		TurnSpeed:         TurnSpeed,
		Friction:          Friction,
		MoveScale:         MoveScale,
		CollisionDistance: CollisionDistance,
		TrafficCount:      TrafficCount,
		TrafficMinSpeed:   TrafficMinSpeed,
		TrafficSpeedRange: TrafficSpeedRange,
		CameraDistance:    CameraDistance,
		CameraHeight:      CameraHeight,
		TickRate:          TickRate,
		FrameRate:         FrameRate,
		BackdropPeriod:    BackdropPeriod,
	}
}

// LaneLimit is the largest |x| a vehicle centre may reach.
func (t Tuning) LaneLimit() float64 {
	return t.RoadWidth/2 - t.CarWidth
}

// TickInterval is the period of the simulation timer.
func (t Tuning) TickInterval() time.Duration {
	return time.Second / time.Duration(t.TickRate)
}

// FrameInterval is the period at which frames are pushed to renderers.
func (t Tuning) FrameInterval() time.Duration {
	return time.Second / time.Duration(t.FrameRate)
}

// Validate rejects tunings the simulation or the wire format cannot represent.
func (t Tuning) Validate() error {
	switch {
	case t.TickRate <= 0 || t.TickRate > 255:
		return ErrInvalidTickRate
	case t.FrameRate <= 0:
		return ErrInvalidFrameRate
	case t.TrafficCount < 0 || t.TrafficCount > MaxTrafficCount:
		return ErrInvalidTraffic
	case t.RoadLength <= 0 || t.LaneLimit() < 0:
		return ErrInvalidRoad
	case t.Friction <= 0 || t.Friction > 1:
		return ErrInvalidFriction
	case t.MaxSpeed <= 0:
		return ErrInvalidMaxSpeed
	case t.TrafficMinSpeed <= 0 || t.TrafficSpeedRange < 0:
		return ErrInvalidTrafficSpeed
	}
	return nil
}

// ServerConfig holds transport and session management settings.
type ServerConfig struct {
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	EnableCORS    bool          `mapstructure:"enableCORS"`
	MaxSessions   int           `mapstructure:"maxSessions"`
	IdleTimeout   time.Duration `mapstructure:"idleTimeout"`
	SweepInterval time.Duration `mapstructure:"sweepInterval"`
	MaxInputRate  int           `mapstructure:"maxInputRate"`  // input messages per second
	MaxViolations int           `mapstructure:"maxViolations"` // rate violations before a kick
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:          "0.0.0.0",
		Port:          8080,
		EnableCORS:    true,
		MaxSessions:   200,
		IdleTimeout:   10 * time.Minute,
		SweepInterval: 30 * time.Second,
		MaxInputRate:  240,
		MaxViolations: 5,
	}
}

// TerminalConfig holds settings of the terminal frontend.
type TerminalConfig struct {
	KeyHold   time.Duration `mapstructure:"keyHold"`
	AlertHold time.Duration `mapstructure:"alertHold"`
	Sound     bool          `mapstructure:"sound"`
	LogFile   string        `mapstructure:"logFile"`
}

// Config is the complete application configuration.
type Config struct {
	LogLevel string         `mapstructure:"logLevel"`
	Server   ServerConfig   `mapstructure:"server"`
	Tuning   Tuning         `mapstructure:"tuning"`
	Terminal TerminalConfig `mapstructure:"terminal"`
}

// EnvPrefix prefixes every environment override, e.g. HIGHWAY_SERVER_PORT.
const EnvPrefix = "HIGHWAY"

// Load builds the configuration from defaults, an optional config file and
// HIGHWAY_* environment variables, in increasing priority.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding config: %w", err)
	}
	if err := cfg.Tuning.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tuning: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", "info")

	srv := DefaultServerConfig()
	v.SetDefault("server.host", srv.Host)
	v.SetDefault("server.port", srv.Port)
	v.SetDefault("server.enableCORS", srv.EnableCORS)
	v.SetDefault("server.maxSessions", srv.MaxSessions)
	v.SetDefault("server.idleTimeout", srv.IdleTimeout)
	v.SetDefault("server.sweepInterval", srv.SweepInterval)
	v.SetDefault("server.maxInputRate", srv.MaxInputRate)
	v.SetDefault("server.maxViolations", srv.MaxViolations)

	t := DefaultTuning()
	v.SetDefault("tuning.roadWidth", t.RoadWidth)
	v.SetDefault("tuning.roadLength", t.RoadLength)
	v.SetDefault("tuning.carWidth", t.CarWidth)
	v.SetDefault("tuning.carLength", t.CarLength)
	v.SetDefault("tuning.carHeight", t.CarHeight)
	v.SetDefault("tuning.rideHeight", t.RideHeight)
	v.SetDefault("tuning.maxSpeed", t.MaxSpeed)
	v.SetDefault("tuning.acceleration", t.Acceleration)
	v.SetDefault("tuning.brakePower", t.BrakePower)
	v.SetDefault("tuning.turnSpeed", t.TurnSpeed)
	v.SetDefault("tuning.friction", t.Friction)
	v.SetDefault("tuning.moveScale", t.MoveScale)
	v.SetDefault("tuning.collisionDistance", t.CollisionDistance)
	v.SetDefault("tuning.trafficCount", t.TrafficCount)
	v.SetDefault("tuning.trafficMinSpeed", t.TrafficMinSpeed)
	v.SetDefault("tuning.trafficSpeedRange", t.TrafficSpeedRange)
	v.SetDefault("tuning.cameraDistance", t.CameraDistance)
	v.SetDefault("tuning.cameraHeight", t.CameraHeight)
	v.SetDefault("tuning.tickRate", t.TickRate)
	v.SetDefault("tuning.frameRate", t.FrameRate)
	v.SetDefault("tuning.backdropPeriod", t.BackdropPeriod)
	v.SetDefault("tuning.seed", t.Seed)

	v.SetDefault("terminal.keyHold", KeyHold)
	v.SetDefault("terminal.alertHold", AlertHold)
	v.SetDefault("terminal.sound", true)
	v.SetDefault("terminal.logFile", "termdrive.log")
}
