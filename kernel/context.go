// Package kernel implements the arithmetic kernel's stateless
// operation handlers: share-form conversions, linear operations,
// Beaver-triple multiplication with its local cache, mixed
// arithmetic×boolean multiplication, private×private multiplication,
// and the deterministic and probabilistic truncation protocols.
//
// Every handler hangs off a *Context, the evaluation context that
// exposes the four external collaborators an operation can draw on:
// ring algebra (the ring package, called directly), the PRG/PRSS
// service, the Communicator, and the Beaver provider plus its cache.
package kernel

import (
	"github.com/privacystack/ringshare/beaver"
	"github.com/privacystack/ringshare/prg"
	"github.com/privacystack/ringshare/transport"
)

// Context is one party's evaluation context: a single logical
// evaluator that processes operations sequentially against its own
// PRG service, Communicator, and Beaver provider.
type Context struct {
	Comm     transport.Communicator
	PRG      *prg.Service
	Provider beaver.Provider
	Cache    *Cache
}

// NewContext builds an evaluation context with a fresh, empty Beaver
// cache.
func NewContext(comm transport.Communicator, prgSvc *prg.Service, provider beaver.Provider) *Context {
	return &Context{Comm: comm, PRG: prgSvc, Provider: provider, Cache: NewCache()}
}

// Rank returns this party's rank.
func (ctx *Context) Rank() int { return ctx.Comm.Rank() }

// WorldSize returns the number of parties in the session.
func (ctx *Context) WorldSize() int { return ctx.Comm.WorldSize() }
