// Package state holds the workspace mirror: an injectable in-memory store of
// the per-user data (user identity, writing profiles, projects) fetched from
// the upstream services. The store is a read cache, not a source of truth;
// writes go to the upstream services and the mirror is resynchronized by the
// syncer afterwards.
package state
