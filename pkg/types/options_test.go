package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeDatOptions_DefaultsOnly(t *testing.T) {
	defaults := DatOptions{
		Persist:      Bool(true),
		AutoSwarm:    Bool(false),
		DriveOptions: DriveOptions{Sparse: Bool(false)},
		SwarmOptions: SwarmOptions{Announce: Bool(true)},
	}

	got := MergeDatOptions(defaults, nil)
	assert.Equal(t, defaults, got)

	got = MergeDatOptions(defaults, &DatOptions{})
	assert.Equal(t, defaults, got)
}

func TestMergeDatOptions_OverrideOnly(t *testing.T) {
	override := DatOptions{
		Persist:      Bool(true),
		DriveOptions: DriveOptions{Sparse: Bool(true)},
		SwarmOptions: SwarmOptions{Upload: Bool(false)},
	}

	got := MergeDatOptions(DatOptions{}, &override)
	assert.Equal(t, override, got)
	assert.True(t, got.ShouldPersist())
	assert.True(t, got.ShouldAutoSwarm())
}

func TestMergeDatOptions_FieldWise(t *testing.T) {
	defaults := DatOptions{
		DriveOptions: DriveOptions{
			Sparse:                  Bool(false),
			ContentStorageCacheSize: Int(500),
		},
		SwarmOptions: SwarmOptions{Announce: Bool(false), Lookup: Bool(true)},
	}
	override := DatOptions{
		DriveOptions: DriveOptions{Sparse: Bool(true)},
		SwarmOptions: SwarmOptions{Announce: Bool(true)},
	}

	got := MergeDatOptions(defaults, &override)

	assert.True(t, *got.DriveOptions.Sparse)
	assert.Equal(t, 500, *got.DriveOptions.ContentStorageCacheSize)
	assert.True(t, *got.SwarmOptions.Announce)
	assert.True(t, *got.SwarmOptions.Lookup)
}

func TestMergeDatOptions_DoesNotMutate(t *testing.T) {
	sk := []byte{1, 2, 3}
	defaults := DatOptions{
		Persist:      Bool(false),
		DriveOptions: DriveOptions{Extra: map[string]any{"a": 1}},
	}
	override := DatOptions{
		Persist:      Bool(true),
		DriveOptions: DriveOptions{SecretKey: sk, Extra: map[string]any{"b": 2}},
	}

	got := MergeDatOptions(defaults, &override)
	*got.Persist = false
	got.DriveOptions.SecretKey[0] = 9
	got.DriveOptions.Extra["c"] = 3

	assert.False(t, *defaults.Persist)
	assert.True(t, *override.Persist)
	assert.Equal(t, []byte{1, 2, 3}, sk)
	assert.Len(t, defaults.DriveOptions.Extra, 1)
	assert.Len(t, override.DriveOptions.Extra, 1)
}

func TestMergeDatOptions_Deterministic(t *testing.T) {
	defaults := DefaultDatOptions()
	override := DatOptions{SwarmOptions: SwarmOptions{Download: Bool(false)}}

	assert.Equal(t, MergeDatOptions(defaults, &override), MergeDatOptions(defaults, &override))
}

func TestMergeDatOptions_ThreeLayers(t *testing.T) {
	instance := DatOptions{Persist: Bool(true), DriveOptions: DriveOptions{Sparse: Bool(true)}}
	perCall := DatOptions{DriveOptions: DriveOptions{Sparse: Bool(false)}}

	layered := MergeDatOptions(MergeDatOptions(DefaultDatOptions(), &instance), &perCall)

	assert.True(t, layered.ShouldPersist())
	assert.True(t, layered.ShouldAutoSwarm())
	assert.False(t, layered.DriveOptions.IsSparse())
}

func TestSwarmOptions_Resolve(t *testing.T) {
	r := SwarmOptions{}.Resolve()
	assert.Equal(t, ResolvedSwarmOptions{Announce: true, Lookup: true, Upload: true, Download: true}, r)

	r = SwarmOptions{Announce: Bool(false), Upload: Bool(false)}.Resolve()
	assert.False(t, r.Announce)
	assert.True(t, r.Lookup)
	assert.False(t, r.Upload)
	assert.True(t, r.Download)
}

func TestDefaultDatOptions(t *testing.T) {
	d := DefaultDatOptions()
	assert.False(t, d.ShouldPersist())
	assert.True(t, d.ShouldAutoSwarm())
}
