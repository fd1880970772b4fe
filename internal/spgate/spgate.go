// Package spgate decides whether the upstream refresh procedure must run
// before scoring, based on a time-to-live policy keyed by target identity.
// It only decides and records; executing the refresh belongs to the caller's
// RefreshExecutor.
package spgate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/huangsam/churnscope/internal/contract"
	"github.com/huangsam/churnscope/schema"
)

// Policy holds the gate's time-to-live settings.
type Policy struct {
	TTL time.Duration
}

// State is the persisted key -> last-successful-run mapping. It is an
// explicit value owned by the caller: load a snapshot, run the gate against
// it, write it back. Nothing in this package keeps ambient state.
type State struct {
	runs map[string]time.Time
}

// NewState returns an empty state (all targets unknown).
func NewState() *State {
	return &State{runs: make(map[string]time.Time)}
}

// Key derives the case-insensitive composite key for a refresh target. Two
// logically identical targets that differ only in case collide to the same
// key.
func Key(t schema.RefreshTarget) string {
	return strings.ToLower(strings.Join([]string{t.Server, t.Database, t.Schema, t.Procedure}, "|"))
}

// LastRun returns the recorded last successful run for the target.
func (s *State) LastRun(t schema.RefreshTarget) (time.Time, bool) {
	ts, ok := s.runs[Key(t)]
	return ts, ok
}

// MarkRan records a successful run for the target. Entries are only ever
// created or updated, never deleted.
func (s *State) MarkRan(t schema.RefreshTarget, now time.Time) {
	s.runs[Key(t)] = now.UTC()
}

// Len returns the number of recorded targets.
func (s *State) Len() int {
	return len(s.runs)
}

// Entries returns the recorded runs sorted by key, for status output.
func (s *State) Entries() []Entry {
	entries := make([]Entry, 0, len(s.runs))
	for k, ts := range s.runs {
		entries = append(entries, Entry{Key: k, LastRun: ts})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries
}

// Entry is one recorded run, for status output.
type Entry struct {
	Key     string
	LastRun time.Time
}

// Load reads the persisted state from path. A missing, unreadable or
// malformed file is treated as empty state, never a fatal error: the gate
// fails open to "must run".
func Load(path string) *State {
	st := NewState()
	data, err := os.ReadFile(path)
	if err != nil {
		return st
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return st
	}
	for k, v := range raw {
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			continue
		}
		st.runs[k] = ts
	}
	return st
}

// Save writes the full state to path, replacing any previous content.
func (s *State) Save(path string) error {
	raw := make(map[string]string, len(s.runs))
	for k, ts := range s.runs {
		raw[k] = ts.UTC().Format(time.RFC3339)
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode gate state: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write gate state: %w", err)
	}
	return nil
}

// MaybeRun applies the gate policy for one target. The executor runs when
// the target has no recorded run, when the TTL has elapsed, or when force is
// set. State advances only on executor success; a failed refresh leaves the
// target unmarked and is surfaced to the caller, who decides whether to
// abort or score stale data.
func MaybeRun(ctx context.Context, st *State, target schema.RefreshTarget, exec contract.RefreshExecutor, policy Policy, force bool, now time.Time) (schema.GateOutcome, error) {
	if force {
		if err := exec.Execute(ctx, target); err != nil {
			return schema.GateOutcome{}, fmt.Errorf("refresh failed: %w", err)
		}
		st.MarkRan(target, now)
		return schema.GateOutcome{Ran: true, Reason: "forced"}, nil
	}

	last, known := st.LastRun(target)
	if known && now.Before(last.Add(policy.TTL)) {
		return schema.GateOutcome{
			Ran:    false,
			Reason: fmt.Sprintf("recent (last run %s)", last.UTC().Format(time.RFC3339)),
		}, nil
	}

	if err := exec.Execute(ctx, target); err != nil {
		return schema.GateOutcome{}, fmt.Errorf("refresh failed: %w", err)
	}
	st.MarkRan(target, now)

	reason := "no prior run"
	if known {
		reason = "ttl expired"
	}
	return schema.GateOutcome{Ran: true, Reason: reason}, nil
}
