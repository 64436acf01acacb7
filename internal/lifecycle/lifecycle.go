// Package lifecycle decides, per broadcast, whether it is new information
// worth delivering, a repeat that should be suppressed, or a Cancel that
// clears prior state. The decision tree is ported from the Python
// original's process_mowas_data (_examples/original_source/src/modules/mowas.py)
// and re-expressed as idiomatic Go control flow.
package lifecycle

import (
	"github.com/jschultzelutter/mowas-beacon/internal/cache"
	"github.com/jschultzelutter/mowas-beacon/internal/model"
)

// Decision is the outcome of evaluating one broadcast against the cache.
type Decision int

const (
	// Ignore means the broadcast carries nothing new and must not be
	// delivered or touch the cache.
	Ignore Decision = iota
	// DeliverAndRecord means the broadcast should be delivered and its
	// identifier/msgtype/sent recorded in the cache for future dedup.
	DeliverAndRecord
	// DeliverAndEvict means the broadcast (a Cancel) should be delivered
	// and any prior cache entry for its identifier removed.
	DeliverAndEvict
)

// Decide applies the Cancel / Update / Alert transition rules from the
// original tool to a single broadcast. c may be nil only for tests that
// don't care about cache side effects; production callers always pass a
// live *cache.Cache.
func Decide(b model.Broadcast, c *cache.Cache) Decision {
	switch b.MsgType {
	case model.MsgTypeCancel:
		return decideCancel(b, c)
	case model.MsgTypeUpdate:
		return decideUpdate(b, c)
	case model.MsgTypeAlert:
		return decideAlert(b, c)
	default:
		return Ignore
	}
}

func decideCancel(b model.Broadcast, c *cache.Cache) Decision {
	if c != nil {
		if _, ok := c.Get(b.Identifier); ok {
			c.Evict(b.Identifier)
			return DeliverAndEvict
		}
	}
	// Even if we never tracked this identifier, a Cancel is still
	// delivered: the user may want to know a prior warning no longer
	// applies even if this instance never saw the original Alert.
	return DeliverAndEvict
}

func decideUpdate(b model.Broadcast, c *cache.Cache) Decision {
	if c == nil {
		return DeliverAndRecord
	}

	entry, ok := c.Get(b.Identifier)
	if !ok {
		// Never seen (or expired/evicted since): treat as new.
		return DeliverAndRecord
	}

	if entry.MsgType != model.MsgTypeUpdate {
		// Transitioned from Alert -> Update (or similar): the message's
		// area coverage may have changed, so drop the stale entry; the
		// caller re-adds it fresh on DeliverAndRecord.
		c.Evict(b.Identifier)
		return DeliverAndRecord
	}

	if entry.Sent != b.Sent {
		// Same msgtype, but a newer revision was sent.
		c.Evict(b.Identifier)
		return DeliverAndRecord
	}

	// Identical Update we've already delivered.
	return Ignore
}

func decideAlert(b model.Broadcast, c *cache.Cache) Decision {
	if c == nil {
		return DeliverAndRecord
	}
	if _, ok := c.Get(b.Identifier); ok {
		// An Alert never reappears once tracked; any change shows up as
		// an Update instead.
		return Ignore
	}
	return DeliverAndRecord
}

// Record builds the cache entry to store for a DeliverAndRecord decision.
func Record(b model.Broadcast) model.CacheEntry {
	return model.CacheEntry{MsgType: b.MsgType, Sent: b.Sent}
}
