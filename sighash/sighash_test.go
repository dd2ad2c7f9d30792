// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package sighash_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/ed25519"

	"github.com/ckb-collab/cobuild/cell"
	"github.com/ckb-collab/cobuild/fault"
	"github.com/ckb-collab/cobuild/packet"
	"github.com/ckb-collab/cobuild/sighash"
)

func makeHash(fill byte) packet.Hash {
	var hash packet.Hash
	for i := 0; i < packet.HashSize; i += 1 {
		hash[i] = fill
	}
	return hash
}

func makePayload() *cell.Transaction {
	return &cell.Transaction{
		Version: 0,
		Inputs:  []cell.CellInput{{0x01}, {0x02}},
		Outputs: []cell.CellOutput{
			{0x11}, {0x22},
		},
		OutputsData: [][]byte{
			{0xd1}, nil,
		},
		Witnesses: [][]byte{
			nil, nil, {0xee, 0xee},
		},
	}
}

func makeResolved() *packet.ResolvedInputs {
	return &packet.ResolvedInputs{
		Outputs: []cell.CellOutput{
			{0xa1}, {0xa2},
		},
		OutputsData: [][]byte{
			{0x01}, {0x02, 0x03},
		},
	}
}

func makeMessage() *packet.Message {
	return &packet.Message{
		Actions: []*packet.Action{
			{
				ScriptInfoHash: makeHash(0x10),
				ScriptType:     packet.InputLock,
				ScriptHash:     makeHash(0x20),
				Data:           []byte{0x01},
			},
		},
	}
}

func TestDigestsAreDeterministic(t *testing.T) {

	one, err := sighash.SighashAll(makeMessage(), makePayload(), makeResolved())
	assert.NoError(t, err, "digest")

	two, err := sighash.SighashAll(makeMessage(), makePayload(), makeResolved())
	assert.NoError(t, err, "digest")

	assert.Equal(t, one, two, "digest not deterministic")
}

func TestDigestKindsDiffer(t *testing.T) {

	payload := makePayload()
	resolved := makeResolved()

	all, err := sighash.SighashAll(makeMessage(), payload, resolved)
	assert.NoError(t, err, "sighash all")

	only, err := sighash.SighashAllOnly(payload, resolved)
	assert.NoError(t, err, "sighash all only")

	assert.NotEqual(t, all, only, "message must be part of the digest")

	otx, err := sighash.Otx(&packet.Otx{
		Flag:               packet.OtxFlag(0x03),
		Message:            *makeMessage(),
		DynamicInputCells:  2,
		DynamicOutputCells: 2,
	}, payload, resolved)
	assert.NoError(t, err, "otx digest")

	assert.NotEqual(t, all, otx, "digest kinds must not collide")
	assert.NotEqual(t, only, otx, "digest kinds must not collide")
}

func TestDigestCoversConsumedCells(t *testing.T) {

	payload := makePayload()

	base, err := sighash.SighashAllOnly(payload, makeResolved())
	assert.NoError(t, err, "digest")

	// flip one byte of a consumed cell's data
	resolved := makeResolved()
	resolved.OutputsData[1] = []byte{0x02, 0x04}
	changed, err := sighash.SighashAllOnly(payload, resolved)
	assert.NoError(t, err, "digest")

	assert.NotEqual(t, base, changed, "consumed cell data not covered")

	// moving a byte across the field boundary must also change it
	resolved = makeResolved()
	resolved.Outputs[1] = cell.CellOutput{0xa2, 0x02}
	resolved.OutputsData[1] = []byte{0x03}
	shifted, err := sighash.SighashAllOnly(payload, resolved)
	assert.NoError(t, err, "digest")

	assert.NotEqual(t, base, shifted, "field boundary not covered")
}

func TestDigestCoversExtraWitnesses(t *testing.T) {

	base, err := sighash.SighashAllOnly(makePayload(), makeResolved())
	assert.NoError(t, err, "digest")

	payload := makePayload()
	payload.Witnesses[2] = []byte{0xee, 0xef}
	changed, err := sighash.SighashAllOnly(payload, makeResolved())
	assert.NoError(t, err, "digest")

	assert.NotEqual(t, base, changed, "extra witness not covered")
}

func TestResolvedInputsPairing(t *testing.T) {

	payload := makePayload()

	// one resolved cell missing
	resolved := makeResolved()
	resolved.Outputs = resolved.Outputs[:1]
	resolved.OutputsData = resolved.OutputsData[:1]
	_, err := sighash.SighashAllOnly(payload, resolved)
	assert.Equal(t, fault.ErrResolvedInputsLength, err, "wrong error")

	// outputs and data out of step
	resolved = makeResolved()
	resolved.OutputsData = resolved.OutputsData[:1]
	_, err = sighash.SighashAllOnly(payload, resolved)
	assert.Equal(t, fault.ErrResolvedInputsLength, err, "wrong error")
}

func TestOtxDigestRange(t *testing.T) {

	payload := makePayload()
	resolved := makeResolved()

	// segment claims more inputs than the payload holds
	_, err := sighash.Otx(&packet.Otx{
		Flag:              packet.OtxFlag(0x01),
		DynamicInputCells: 3,
	}, payload, resolved)
	assert.Equal(t, fault.ErrPayloadLengthMismatch, err, "wrong error")
}

func TestOtxDigestCoversOwnSliceOnly(t *testing.T) {

	payload := makePayload()
	resolved := makeResolved()

	segment := &packet.Otx{
		Flag:              packet.OtxFlag(0x01),
		FixedInputCells:   1,
		DynamicInputCells: 1,
	}

	base, err := sighash.Otx(segment, payload, resolved)
	assert.NoError(t, err, "digest")

	// a change outside the segment's slice leaves the digest alone
	outside := makePayload()
	outside.Inputs[0] = cell.CellInput{0xff}
	same, err := sighash.Otx(segment, outside, resolved)
	assert.NoError(t, err, "digest")
	assert.Equal(t, base, same, "digest covers another party's slice")

	// a change inside the slice must be detected
	inside := makePayload()
	inside.Inputs[1] = cell.CellInput{0xff}
	changed, err := sighash.Otx(segment, inside, resolved)
	assert.NoError(t, err, "digest")
	assert.NotEqual(t, base, changed, "own slice not covered")
}

func TestScriptInfoHash(t *testing.T) {

	info := &packet.ScriptInfo{
		Name:       "demo",
		Url:        "https://example.com/demo",
		ScriptHash: makeHash(0x30),
		Schema:     "table DemoAction { value: Uint32, }",
	}

	one := sighash.ScriptInfoHash(info)
	two := sighash.ScriptInfoHash(info)
	assert.Equal(t, one, two, "hash not deterministic")

	changed := *info
	changed.Name = "demo2"
	assert.NotEqual(t, one, sighash.ScriptInfoHash(&changed), "name not covered")
}

// a seal is opaque to the core; this models the expected usage where
// the seal bytes are a signature over the digest
func TestSealOverDigest(t *testing.T) {

	seed := bytes.Repeat([]byte{0x42}, ed25519.SeedSize)
	privateKey := ed25519.NewKeyFromSeed(seed)
	publicKey := privateKey.Public().(ed25519.PublicKey)

	digest, err := sighash.SighashAll(makeMessage(), makePayload(), makeResolved())
	assert.NoError(t, err, "digest")

	seal := ed25519.Sign(privateKey, digest[:])
	assert.True(t, ed25519.Verify(publicKey, digest[:], seal), "seal does not verify")

	// a different message invalidates the seal
	other, err := sighash.SighashAllOnly(makePayload(), makeResolved())
	assert.NoError(t, err, "digest")
	assert.False(t, ed25519.Verify(publicKey, other[:], seal), "seal verifies wrong digest")
}
