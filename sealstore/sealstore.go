// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package sealstore - seals accumulated across contributions
//
// One seal per script hash.  The store is owned by the merge
// authority; contributors hand over immutable seal pair vectors which
// are folded in under the authority's exclusive write discipline.
package sealstore

import (
	"bytes"

	"github.com/ckb-collab/cobuild/fault"
	"github.com/ckb-collab/cobuild/packet"
)

// Store - mapping from script hash to seal, preserving insertion order
type Store struct {
	order []packet.Hash
	seals map[packet.Hash][]byte
}

// New - create an empty store
func New() *Store {
	return &Store{
		seals: make(map[packet.Hash][]byte),
	}
}

// FromPairs - build a store from one contribution's seal pairs
//
// a single contributor must not submit two seals for the same script
// in one step
func FromPairs(pairs []*packet.SealPair) (*Store, error) {
	store := New()
	for _, pair := range pairs {
		err := store.Insert(pair.ScriptHash, pair.Seal)
		if nil != err {
			return nil, err
		}
	}
	return store, nil
}

// Insert - add a seal for a script hash
func (store *Store) Insert(scriptHash packet.Hash, seal []byte) error {
	if _, ok := store.seals[scriptHash]; ok {
		return fault.ErrDuplicateSeal
	}
	held := make([]byte, len(seal))
	copy(held, seal)
	store.order = append(store.order, scriptHash)
	store.seals[scriptHash] = held
	return nil
}

// Merge - fold another contributor's store into this one
//
// identical seals merge idempotently; different seals for one script
// hash are ambiguous and fail, leaving this store unchanged
func (store *Store) Merge(other *Store) error {

	// validate everything before changing anything
	for scriptHash, seal := range other.seals {
		if held, ok := store.seals[scriptHash]; ok {
			if !bytes.Equal(held, seal) {
				return fault.ErrConflictingSeal
			}
		}
	}

	for _, scriptHash := range other.order {
		if _, ok := store.seals[scriptHash]; ok {
			continue
		}
		store.order = append(store.order, scriptHash)
		store.seals[scriptHash] = other.seals[scriptHash]
	}
	return nil
}

// Clone - independent copy sharing no mutable state
func (store *Store) Clone() *Store {
	clone := New()
	clone.order = make([]packet.Hash, len(store.order))
	copy(clone.order, store.order)
	for scriptHash, seal := range store.seals {
		clone.seals[scriptHash] = seal
	}
	return clone
}

// Seal - look up the seal for a script hash
func (store *Store) Seal(scriptHash packet.Hash) ([]byte, bool) {
	seal, ok := store.seals[scriptHash]
	return seal, ok
}

// Count - number of stored seals
func (store *Store) Count() int {
	return len(store.order)
}

// Pairs - the stored seals in insertion order for serialisation
func (store *Store) Pairs() []*packet.SealPair {
	if 0 == len(store.order) {
		return nil
	}
	pairs := make([]*packet.SealPair, len(store.order))
	for i, scriptHash := range store.order {
		pairs[i] = &packet.SealPair{
			ScriptHash: scriptHash,
			Seal:       store.seals[scriptHash],
		}
	}
	return pairs
}
