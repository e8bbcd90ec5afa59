// Package cs2 drives attach and offset resolution against the game client.
package cs2

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"cs2mem/offset"
	"cs2mem/session"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// ErrNotAttached is returned by UpdateOffsets before a session exists
var ErrNotAttached = errors.New("cs2: not attached")

// ErrBusy is returned when Attach or UpdateOffsets is called while another one runs
var ErrBusy = errors.New("cs2: attach or resolve in progress")

// DefaultSchemaClasses are the classes the client needs field offsets for
var DefaultSchemaClasses = []string{
	"C_CSGameRules",
	"C_PlantedC4",
	"CBaseAnimGraph",
	"CCSPlayerController",
	"CBasePlayerController",
	"C_BaseEntity",
	"C_BasePlayerPawn",
	"C_CSPlayerPawnBase",
	"C_BasePlayerWeapon",
	"CBasePlayerWeaponVData",
	"C_CSWeaponBase",
	"C_BaseGrenade",
	"C_BaseCSGrenadeProjectile",
	"C_SmokeGrenadeProjectile",
}

// Game owns the current session and its resolver. Offsets may be read from
// any goroutine while UpdateOffsets runs.
type Game struct {
	factory    *session.Factory
	signatures offset.SignatureSource
	schemas    offset.SchemaSource
	convars    offset.ConvarSource
	classes    []string
	log        *logger.Logger

	mu       sync.Mutex
	state    State
	err      error
	sess     *session.Session
	resolver *offset.Resolver
}

// Option is a function that configures a Game
type Option func(*Game)

// WithSchemaClasses replaces DefaultSchemaClasses
func WithSchemaClasses(classes []string) Option {
	return func(g *Game) {
		g.classes = slices.Clone(classes)
	}
}

func New(factory *session.Factory, signatures offset.SignatureSource, schemas offset.SchemaSource, convars offset.ConvarSource, options ...Option) *Game {
	g := &Game{
		factory:    factory,
		signatures: signatures,
		schemas:    schemas,
		convars:    convars,
		classes:    slices.Clone(DefaultSchemaClasses),
		log:        logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "cs2")),
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

// Attach builds a session on backend. The previous session, if any, is
// closed only once the new one is attached; on failure it stays usable.
func (g *Game) Attach(backend session.Backend) error {
	prev, err := g.begin(StateAttaching, false)
	if err != nil {
		return err
	}

	sess, err := g.factory.Attach(backend)

	g.mu.Lock()
	defer g.mu.Unlock()

	if err != nil {
		g.state = StateFailed
		g.err = err
		return err
	}

	g.sess = sess
	g.resolver = offset.NewResolver(sess, g.signatures, g.schemas, g.convars)
	g.state = StateAttached
	g.err = nil
	g.log.Infoln("Attached", sess)

	if prev != nil {
		if err := prev.Close(); err != nil {
			g.log.Warn("closing previous session: ", err)
		}
	}
	return nil
}

// UpdateOffsets resolves a fresh table on the current session. On failure
// the previously resolved table stays available through Offsets.
func (g *Game) UpdateOffsets() (*offset.Table, error) {
	if _, err := g.begin(StateResolving, true); err != nil {
		return nil, err
	}

	g.mu.Lock()
	resolver := g.resolver
	classes := g.classes
	g.mu.Unlock()

	table, err := resolver.Resolve(classes)

	g.mu.Lock()
	defer g.mu.Unlock()

	if err != nil {
		g.state = StateFailed
		g.err = err
		return nil, err
	}
	g.state = StateResolved
	g.err = nil
	return table, nil
}

// begin moves to next and returns the current session. needSession rejects
// the transition when nothing is attached yet.
func (g *Game) begin(next State, needSession bool) (*session.Session, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == StateAttaching || g.state == StateResolving {
		return nil, ErrBusy
	}
	if needSession && g.sess == nil {
		return nil, ErrNotAttached
	}
	g.state = next
	return g.sess, nil
}

// Offsets returns the last resolved table, or nil
func (g *Game) Offsets() *offset.Table {
	g.mu.Lock()
	resolver := g.resolver
	g.mu.Unlock()

	if resolver == nil {
		return nil
	}
	return resolver.Current()
}

// Session returns the attached session, or nil
func (g *Game) Session() *session.Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sess
}

func (g *Game) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Err returns the error that moved the game to StateFailed
func (g *Game) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}

// Close releases the session and returns to StateUnattached
func (g *Game) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == StateAttaching || g.state == StateResolving {
		return ErrBusy
	}

	var err error
	if g.sess != nil {
		err = g.sess.Close()
	}
	g.sess = nil
	g.resolver = nil
	g.state = StateUnattached
	g.err = nil
	if err != nil {
		return fmt.Errorf("close session: %w", err)
	}
	return nil
}
