// Package cache implements the Node Cache (spec.md §4.E): a process-wide
// table of known nodes, keyed by node id, persisted through the host's
// store-save/store-load/store-reset callbacks as a single opaque blob.
package cache

import (
	"github.com/jangala-dev/zwavehost/errcode"
	"github.com/jangala-dev/zwavehost/logging"
	"github.com/jangala-dev/zwavehost/types"
)

// Cache holds the node inventory and keeps it mirrored to the persistent
// blob store on every mutation (spec.md §4.E).
type Cache struct {
	log   logging.Logger
	nodes map[types.NodeID]*types.NodeRecord
	save  StoreSaveFunc
}

// New constructs an empty cache. Call Load to populate it from the store.
func New(log logging.Logger) *Cache {
	if log == nil {
		log = logging.Discard{}
	}
	return &Cache{log: log, nodes: make(map[types.NodeID]*types.NodeRecord)}
}

// Load reads the persisted blob via load and populates the cache. An
// unrecognized version tag is not an error: the cache simply starts empty
// (spec.md §4.E). save is retained for subsequent mutations.
func (c *Cache) Load(load StoreLoadFunc, save StoreSaveFunc) {
	c.save = save
	blob := load(0, MaxBlobSize)
	c.nodes = decode(blob)
	c.log.Infof("cache: loaded %d node(s) from store", len(c.nodes))
}

// persist rewrites the whole blob. Errors are logged, not propagated: a
// failed persist does not roll back the in-memory mutation that triggered
// it (the store is a cache of convenience across restarts, not the source
// of truth for the running process).
func (c *Cache) persist() {
	if c.save == nil {
		return
	}
	if err := c.save(encode(c.nodes)); err != nil {
		c.log.Errorf("cache: store save failed: %v", err)
	}
}

// Get returns the node record for id, if known.
func (c *Cache) Get(id types.NodeID) (*types.NodeRecord, bool) {
	rec, ok := c.nodes[id]
	return rec, ok
}

// All returns every known node id, for the ListNodes FSM (spec.md §4.C).
func (c *Cache) All() []types.NodeID {
	ids := make([]types.NodeID, 0, len(c.nodes))
	for id := range c.nodes {
		ids = append(ids, id)
	}
	return ids
}

// Put inserts or replaces a node's record (inclusion, NIF reception) and
// persists the change.
func (c *Cache) Put(rec *types.NodeRecord) {
	c.nodes[rec.ID] = rec
	c.persist()
}

// Delete removes a node's record (exclusion) and persists the change.
func (c *Cache) Delete(id types.NodeID) {
	if _, ok := c.nodes[id]; !ok {
		return
	}
	delete(c.nodes, id)
	c.persist()
}

// PutEndpoint records a newly discovered multi-channel endpoint's
// capability report against an existing node, per spec.md §4.E.
func (c *Cache) PutEndpoint(id types.NodeID, ep types.Endpoint, epRec *types.EndpointRecord) error {
	rec, ok := c.nodes[id]
	if !ok {
		return errcode.Wrap("cache.put_endpoint", errcode.InvalidParams, nil)
	}
	if rec.Endpoints == nil {
		rec.Endpoints = make(map[types.Endpoint]*types.EndpointRecord)
	}
	rec.Endpoints[ep] = epRec
	c.persist()
	return nil
}

// Reset clears the in-memory cache and asks the host to erase the
// persisted blob (SetDefault's factory-reset path, spec.md §4.C).
func (c *Cache) Reset(reset StoreResetFunc) error {
	c.nodes = make(map[types.NodeID]*types.NodeRecord)
	if reset == nil {
		return nil
	}
	return reset()
}

// Snapshot returns a shallow copy of the node map, taken when a
// SetDefault attempt starts so the previous state can be put back if the
// attempt fails (spec.md §4.C "on failure ... restores the previous
// cache").
func (c *Cache) Snapshot() map[types.NodeID]*types.NodeRecord {
	cp := make(map[types.NodeID]*types.NodeRecord, len(c.nodes))
	for k, v := range c.nodes {
		cp[k] = v
	}
	return cp
}

// Restore replaces the in-memory cache with a prior snapshot and persists
// the result through the store-save callback.
func (c *Cache) Restore(snapshot map[types.NodeID]*types.NodeRecord) {
	c.nodes = snapshot
	c.persist()
}

// Len reports the number of known nodes, mainly for tests.
func (c *Cache) Len() int { return len(c.nodes) }
