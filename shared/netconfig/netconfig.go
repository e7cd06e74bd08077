// Package netconfig defines the simulation constants shared between client and
// server. It must have zero dependencies on ebiten or any graphics library so
// the dedicated server binary stays headless.
package netconfig

import "time"

const (
	// TicksPerSecond is the fixed simulation rate on both sides.
	TicksPerSecond = 60

	// RingLen is the number of historical states kept per networked object,
	// one second of history at TicksPerSecond.
	RingLen = 60

	// FullUpdatePeriod is how often (in ticks) the server sends the complete
	// location and velocity of every object.
	FullUpdatePeriod = 6

	// CorrectionEpsilon is the largest location error the client tolerates
	// before rolling back.
	CorrectionEpsilon = 0.1

	// DefaultPingInterval is the default number of ticks between clock probes.
	DefaultPingInterval = 30

	// BatchSize is how many entities one worker task steps at a time.
	BatchSize = 8

	// MaxObjects bounds the networked objects a level may declare.
	MaxObjects = 16

	// ProtocolVersion is the first byte of every packet.
	ProtocolVersion = 1
)

// TickDuration is the wall-clock length of one simulation step.
const TickDuration = time.Second / TicksPerSecond

// TickSeconds is TickDuration in seconds, used by the physics integrator.
const TickSeconds = 1.0 / TicksPerSecond
